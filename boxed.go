package ffitypes

// OwnedBox is a nullable owning handle for a single value of type T
// allocated by the native side. At most one live OwnedBox holds a given
// pointer: Move and Release clear the source, so the drop capability can
// never run twice for the same allocation.
//
// The zero value is a null box with no drop capability.
type OwnedBox[T any] struct {
	ptr  *T
	drop DropBoxFunc[T]
}

// Box is the non-null-by-convention alias for OwnedBox. Values of this
// alias are produced from pointers the native side guarantees non-null, but
// a moved-from Box is still null, so the distinction is documentation, not
// enforcement.
type Box[T any] = OwnedBox[T]

// WrapBox constructs an owning handle from a pointer already allocated by
// the native side. A nil pointer is permitted and yields a null box. drop
// is invoked at most once, from Close, with the box converted to its
// boundary twin.
func WrapBox[T any](p *T, drop DropBoxFunc[T]) OwnedBox[T] {
	return OwnedBox[T]{ptr: p, drop: drop}
}

// NullBox returns an empty box. Closing it is a no-op.
func NullBox[T any]() OwnedBox[T] {
	return OwnedBox[T]{}
}

// Get returns the held pointer, which may be nil.
func (b *OwnedBox[T]) Get() *T {
	return b.ptr
}

// Valid reports whether the box holds a value.
func (b *OwnedBox[T]) Valid() bool {
	return b.ptr != nil
}

// Deref returns the held value. Calling Deref on a null box is a contract
// violation: it panics under the boundscheck tag and dereferences nil
// otherwise.
func (b *OwnedBox[T]) Deref() *T {
	assertNonNull(b.ptr != nil, "box")
	return b.ptr
}

// Release returns the raw pointer and empties the box. No drop fires for
// this handle afterward; the caller takes over the allocation.
func (b *OwnedBox[T]) Release() *T {
	p := b.ptr
	b.ptr = nil
	return p
}

// Reset drops any currently held value, then stores p.
func (b *OwnedBox[T]) Reset(p *T) {
	if b.ptr != nil {
		b.drop(BoundaryBox[T]{ptr: b.Release()})
	}
	b.ptr = p
}

// Move transfers ownership into the returned box and leaves the receiver
// null. Closing the receiver afterward is a no-op.
func (b *OwnedBox[T]) Move() OwnedBox[T] {
	return OwnedBox[T]{ptr: b.Release(), drop: b.drop}
}

// Close invokes the drop capability exactly once if the box holds a value,
// then leaves the handle inert. Safe to call on a null or moved-from box.
func (b *OwnedBox[T]) Close() {
	if b.ptr == nil {
		return
	}
	b.drop(BoundaryBox[T]{ptr: b.Release()})
}

// ToBoundary releases the pointer into a boundary twin. The receiver
// becomes null; the twin must be reclaimed or handed to the native side, or
// the allocation leaks.
func (b *OwnedBox[T]) ToBoundary() BoundaryBox[T] {
	return BoundaryBox[T]{ptr: b.Release()}
}

// BoundaryBox is the crossing representation of OwnedBox: a single pointer
// with no destructor. It exists transiently at the call boundary. Letting
// one go out of scope without ReclaimBox or a native-side handoff leaks the
// allocation.
type BoundaryBox[T any] struct {
	ptr *T
}

// Valid reports whether the twin still carries a pointer.
func (c BoundaryBox[T]) Valid() bool {
	return c.ptr != nil
}

// Release detaches the raw pointer, clearing the twin.
func (c *BoundaryBox[T]) Release() *T {
	p := c.ptr
	c.ptr = nil
	return p
}

// ReclaimBox converts a boundary twin back into an owning handle, consuming
// the twin. This is the inverse of ToBoundary and the only way a crossing
// value regains a destructor.
func ReclaimBox[T any](c *BoundaryBox[T], drop DropBoxFunc[T]) OwnedBox[T] {
	return OwnedBox[T]{ptr: c.Release(), drop: drop}
}
