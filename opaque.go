package ffitypes

import "unsafe"

// The opaque family carries type-erased polymorphic values from the native
// side: a data pointer paired with a dispatch table pointer whose shape Go
// cannot know. Three variants encode the borrowing discipline in the type
// system instead of a runtime check: shared references copy freely,
// exclusive references move, and owned values can only be forwarded. None
// of them can be destroyed locally, because destruction requires knowledge
// only the native side has.

// OpaqueRef is a shared borrow of a type-erased native value. Copy it as
// much as you like; it can never be freed through this handle.
type OpaqueRef struct {
	data   unsafe.Pointer
	vtable unsafe.Pointer
}

// NewOpaqueRef wraps a data/vtable pair received from the boundary.
func NewOpaqueRef(data, vtable unsafe.Pointer) OpaqueRef {
	return OpaqueRef{data: data, vtable: vtable}
}

// Valid reports whether the reference carries a value.
func (r OpaqueRef) Valid() bool { return r.data != nil }

// Raw returns the data/vtable pair for forwarding across the boundary.
func (r OpaqueRef) Raw() (data, vtable unsafe.Pointer) {
	return r.data, r.vtable
}

// OpaqueMutRef is an exclusive borrow of a type-erased native value. It is
// move-only: the embedded lock sentinel makes go vet's copylocks check flag
// any copy, mirroring the rule that exclusive access cannot be duplicated.
type OpaqueMutRef struct {
	noCopy noCopy

	data   unsafe.Pointer
	vtable unsafe.Pointer
}

// NewOpaqueMutRef wraps a data/vtable pair received from the boundary.
func NewOpaqueMutRef(data, vtable unsafe.Pointer) OpaqueMutRef {
	return OpaqueMutRef{data: data, vtable: vtable}
}

// Valid reports whether the reference carries a value.
func (r *OpaqueMutRef) Valid() bool { return r.data != nil }

// Move transfers the borrow into the returned reference and clears the
// receiver.
func (r *OpaqueMutRef) Move() OpaqueMutRef {
	data, vtable := r.data, r.vtable
	r.data, r.vtable = nil, nil
	return OpaqueMutRef{data: data, vtable: vtable}
}

// Forward detaches the data/vtable pair for handing across the boundary,
// clearing the receiver.
func (r *OpaqueMutRef) Forward() (data, vtable unsafe.Pointer) {
	data, vtable = r.data, r.vtable
	r.data, r.vtable = nil, nil
	return data, vtable
}

// OpaqueOwned is an owned type-erased native value passing through Go.
// It is a forward-only placeholder: Go can receive it from the boundary,
// move it, and hand it onward, but can neither materialize nor free the
// underlying value. There is no Close: destruction needs knowledge only
// the native side has.
type OpaqueOwned struct {
	noCopy noCopy

	data   unsafe.Pointer
	vtable unsafe.Pointer
}

// ReceiveOpaqueOwned wraps an owned data/vtable pair arriving from the
// boundary. It is boundary glue, not a constructor: the value it wraps must
// originate on the native side.
func ReceiveOpaqueOwned(data, vtable unsafe.Pointer) OpaqueOwned {
	return OpaqueOwned{data: data, vtable: vtable}
}

// Valid reports whether the handle still carries the value.
func (o *OpaqueOwned) Valid() bool { return o.data != nil }

// Move transfers the value into the returned handle and clears the
// receiver.
func (o *OpaqueOwned) Move() OpaqueOwned {
	data, vtable := o.data, o.vtable
	o.data, o.vtable = nil, nil
	return OpaqueOwned{data: data, vtable: vtable}
}

// Forward detaches the data/vtable pair for handing back across the
// boundary. This is the only exit: there is no local destruction path.
func (o *OpaqueOwned) Forward() (data, vtable unsafe.Pointer) {
	data, vtable = o.data, o.vtable
	o.data, o.vtable = nil, nil
	return data, vtable
}

// noCopy triggers go vet's copylocks check when a containing struct is
// copied. Zero-sized; placed first so it adds no padding.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
