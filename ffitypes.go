package ffitypes

// Runtime is the contract the native side must supply for byte and string
// allocations. Drop methods consume the boundary value and free its memory;
// clone methods borrow the boundary value and return a fresh allocation with
// identical content.
//
// The deallocation and copy algorithms live entirely on the native side.
// This package only defines the call shapes.
type Runtime interface {
	DropBoxedString(BoundaryString)
	DropBoxedBytes(BoundaryOwnedBytes)
	CloneBoxedString(*BoundaryString) BoundaryString
	CloneBoxedBytes(*BoundaryOwnedBytes) BoundaryOwnedBytes
}

// Allocator allocates raw memory on the native side. The returned pointer is
// owned by the native side; it becomes reachable from Go only through an
// owned handle or a boundary twin.
type Allocator interface {
	Alloc(size uintptr) (*byte, error)
}

// DropBoxFunc frees a single boxed value previously handed across the
// boundary. It is invoked by OwnedBox.Close with the box already converted
// to its boundary twin, so the capability sees exactly what the native side
// expects on its call interface.
type DropBoxFunc[T any] func(BoundaryBox[T])

// DropSliceFunc frees a boxed slice previously handed across the boundary.
// Invoked by OwnedSlice.Close after conversion to the boundary twin.
type DropSliceFunc[T any] func(BoundaryOwnedSlice[T])

// CloneSliceFunc deep-copies a boxed slice on the native side. The argument
// is a borrow: the callee must not free or retain it.
type CloneSliceFunc[T any] func(*BoundaryOwnedSlice[T]) BoundaryOwnedSlice[T]
