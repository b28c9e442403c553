package ffitypes

// OwnedSlice owns the memory behind a pointer/length pair. It combines the
// box family's ownership rules (single owner, move-invalidation, drop
// forwarding, boundary round-trip) with the slice family's read and write
// access through borrowed views.
//
// A zero-length owned slice holds the sentinel address, never nil, so Close
// can use length == 0 as the sole "nothing to free" test.
type OwnedSlice[T any] struct {
	data *T
	len  uintptr
	drop DropSliceFunc[T]
}

// OwnedBytes is the owned byte-slice specialization, the shape the Runtime
// collaborator contract drops and clones.
type OwnedBytes = OwnedSlice[byte]

// BoundaryOwnedBytes is the crossing representation of OwnedBytes.
type BoundaryOwnedBytes = BoundaryOwnedSlice[byte]

// WrapSlice constructs an owning handle from a pointer/length pair already
// allocated by the native side. A nil pointer is replaced by the sentinel.
// drop is invoked at most once, from Close, with the handle converted to
// its boundary twin.
func WrapSlice[T any](data *T, n uintptr, drop DropSliceFunc[T]) OwnedSlice[T] {
	return OwnedSlice[T]{data: wrapNil(data), len: n, drop: drop}
}

// EmptyOwnedSlice returns an owned slice holding nothing. Closing it never
// invokes drop.
func EmptyOwnedSlice[T any](drop DropSliceFunc[T]) OwnedSlice[T] {
	return OwnedSlice[T]{data: sentinel[T](), len: 0, drop: drop}
}

// Len returns the element count.
func (s *OwnedSlice[T]) Len() int { return int(s.len) }

// Empty reports whether the handle owns nothing.
func (s *OwnedSlice[T]) Empty() bool { return s.len == 0 }

// Data returns the data pointer. For an empty handle this is the sentinel.
func (s *OwnedSlice[T]) Data() *T { return s.data }

// At returns a pointer to element i. Bounds are validated only under the
// boundscheck tag.
func (s *OwnedSlice[T]) At(i int) *T {
	return s.AsSlice().At(i)
}

// AsSlice borrows an immutable view. Ownership is not transferred; the view
// is valid only while the handle still owns the memory.
func (s *OwnedSlice[T]) AsSlice() Slice[T] {
	return Slice[T]{data: s.data, len: s.len}
}

// AsMutSlice borrows a mutable view under the same lifetime bound.
func (s *OwnedSlice[T]) AsMutSlice() MutSlice[T] {
	return MutSlice[T]{data: s.data, len: s.len}
}

// Release returns the raw pointer/length pair and empties the handle. No
// drop fires for this handle afterward.
func (s *OwnedSlice[T]) Release() Range[T] {
	r := Range[T]{Data: s.data, Len: s.len}
	s.data = sentinel[T]()
	s.len = 0
	return r
}

// Reset drops any currently owned memory, then takes ownership of r.
func (s *OwnedSlice[T]) Reset(r Range[T]) {
	if s.len > 0 {
		s.drop(s.ToBoundary())
	}
	s.data = wrapNil(r.Data)
	s.len = r.Len
}

// Move transfers ownership into the returned handle and leaves the receiver
// empty. Closing the receiver afterward is a no-op.
func (s *OwnedSlice[T]) Move() OwnedSlice[T] {
	r := s.Release()
	return OwnedSlice[T]{data: r.Data, len: r.Len, drop: s.drop}
}

// Clone delegates to the native-side copy collaborator and wraps the new
// allocation with the same drop capability. The receiver is only borrowed.
func (s *OwnedSlice[T]) Clone(clone CloneSliceFunc[T]) OwnedSlice[T] {
	borrowed := BoundaryOwnedSlice[T]{data: s.data, len: s.len}
	fresh := clone(&borrowed)
	return ReclaimSlice(&fresh, s.drop)
}

// Close forwards the allocation to the drop capability exactly once, then
// leaves the handle inert. Safe to call on an empty or moved-from handle.
func (s *OwnedSlice[T]) Close() {
	if s.len == 0 {
		return
	}
	s.drop(s.ToBoundary())
}

// ToBoundary releases the pointer/length pair into a boundary twin. The
// receiver becomes empty; the twin must be reclaimed or handed to the
// native side, or the allocation leaks.
func (s *OwnedSlice[T]) ToBoundary() BoundaryOwnedSlice[T] {
	r := s.Release()
	return BoundaryOwnedSlice[T]{data: r.Data, len: r.Len}
}

// BoundaryOwnedSlice is the crossing representation of OwnedSlice: the same
// pointer-then-length layout with no destructor. It exists transiently at
// the call boundary and must be consumed.
type BoundaryOwnedSlice[T any] struct {
	data *T
	len  uintptr
}

// Range returns the pointer/length pair without consuming the twin. Used to
// borrow the value for native calls such as clone.
func (c *BoundaryOwnedSlice[T]) Range() Range[T] {
	return Range[T]{Data: c.data, Len: c.len}
}

// Len returns the element count.
func (c *BoundaryOwnedSlice[T]) Len() int { return int(c.len) }

// Release detaches the pointer/length pair, clearing the twin to the empty
// sentinel state.
func (c *BoundaryOwnedSlice[T]) Release() Range[T] {
	r := Range[T]{Data: c.data, Len: c.len}
	c.data = sentinel[T]()
	c.len = 0
	return r
}

// ReclaimSlice converts a boundary twin back into an owning handle,
// consuming the twin. Inverse of OwnedSlice.ToBoundary.
func ReclaimSlice[T any](c *BoundaryOwnedSlice[T], drop DropSliceFunc[T]) OwnedSlice[T] {
	r := c.Release()
	return OwnedSlice[T]{data: wrapNil(r.Data), len: r.Len, drop: drop}
}

// BytesDrop adapts the Runtime collaborator to the generic drop capability
// for owned byte slices.
func BytesDrop(rt Runtime) DropSliceFunc[byte] {
	return rt.DropBoxedBytes
}

// BytesClone adapts the Runtime collaborator to the generic clone
// capability for owned byte slices.
func BytesClone(rt Runtime) CloneSliceFunc[byte] {
	return rt.CloneBoxedBytes
}
