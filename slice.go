package ffitypes

import (
	"bytes"
	"iter"
	"unsafe"
)

// Range is a raw pointer/length pair detached from any ownership rules.
// Release and Reset on the owning types traffic in Ranges so the transfer
// of responsibility is explicit at every call site.
type Range[T any] struct {
	Data *T
	Len  uintptr
}

// Slice is a borrowed, immutable view over n contiguous elements. It does
// not own the referenced memory and must not outlive whatever does. Copying
// a Slice is free and always permitted, mirroring shared access.
//
// A zero-length Slice holds the reserved sentinel address, never nil;
// length alone indicates emptiness.
type Slice[T any] struct {
	data *T
	len  uintptr
}

// NewSlice constructs a view from a raw pointer and element count. A nil
// pointer is replaced by the sentinel; a nil pointer with nonzero length is
// a caller error that no constructor can repair.
func NewSlice[T any](data *T, n uintptr) Slice[T] {
	return Slice[T]{data: wrapNil(data), len: n}
}

// SliceOf captures the address and length of a Go slice. The view must not
// outlive s or any reallocation of its backing array.
func SliceOf[T any](s []T) Slice[T] {
	return NewSlice(unsafe.SliceData(s), uintptr(len(s)))
}

// Len returns the element count.
func (s Slice[T]) Len() int { return int(s.len) }

// Empty reports whether the view has zero length.
func (s Slice[T]) Empty() bool { return s.len == 0 }

// Data returns the data pointer. For an empty view this is the sentinel.
func (s Slice[T]) Data() *T { return s.data }

// At returns a pointer to element i. Bounds are validated only under the
// boundscheck tag; out-of-range access is undefined behavior otherwise.
func (s Slice[T]) At(i int) *T {
	assertIndex(i, int(s.len))
	return (*T)(unsafe.Add(unsafe.Pointer(s.data), uintptr(i)*unsafe.Sizeof(*s.data)))
}

// View reinterprets the pointer/length pair as a Go slice. No copy is made;
// the result aliases native memory and shares the view's lifetime bound.
func (s Slice[T]) View() []T {
	return unsafe.Slice(s.data, s.len)
}

// All iterates elements in order.
func (s Slice[T]) All() iter.Seq2[int, *T] {
	return func(yield func(int, *T) bool) {
		for i := 0; i < int(s.len); i++ {
			if !yield(i, s.At(i)) {
				return
			}
		}
	}
}

// Backward iterates elements in reverse order.
func (s Slice[T]) Backward() iter.Seq2[int, *T] {
	return func(yield func(int, *T) bool) {
		for i := int(s.len) - 1; i >= 0; i-- {
			if !yield(i, s.At(i)) {
				return
			}
		}
	}
}

// Range returns the raw pointer/length pair.
func (s Slice[T]) Range() Range[T] {
	return Range[T]{Data: s.data, Len: s.len}
}

// ToBoundary copies the pointer/length pair into a boundary twin. Borrowed
// views own nothing, so the conversion is non-destructive and repeatable.
func (s Slice[T]) ToBoundary() BoundarySlice[T] {
	return BoundarySlice[T]{data: s.data, len: s.len}
}

// MutSlice is a borrowed, mutable view over n contiguous elements. Unlike
// Slice it stands for exclusive access: callers must not hold overlapping
// mutable views, though nothing at runtime enforces that.
type MutSlice[T any] struct {
	data *T
	len  uintptr
}

// NewMutSlice constructs a mutable view from a raw pointer and element
// count, substituting the sentinel for nil.
func NewMutSlice[T any](data *T, n uintptr) MutSlice[T] {
	return MutSlice[T]{data: wrapNil(data), len: n}
}

// MutSliceOf captures the address and length of a Go slice.
func MutSliceOf[T any](s []T) MutSlice[T] {
	return NewMutSlice(unsafe.SliceData(s), uintptr(len(s)))
}

// Len returns the element count.
func (s MutSlice[T]) Len() int { return int(s.len) }

// Empty reports whether the view has zero length.
func (s MutSlice[T]) Empty() bool { return s.len == 0 }

// Data returns the data pointer. For an empty view this is the sentinel.
func (s MutSlice[T]) Data() *T { return s.data }

// At returns a pointer to element i, writable by the caller. Bounds are
// validated only under the boundscheck tag.
func (s MutSlice[T]) At(i int) *T {
	assertIndex(i, int(s.len))
	return (*T)(unsafe.Add(unsafe.Pointer(s.data), uintptr(i)*unsafe.Sizeof(*s.data)))
}

// View reinterprets the pointer/length pair as a writable Go slice.
func (s MutSlice[T]) View() []T {
	return unsafe.Slice(s.data, s.len)
}

// Range returns the raw pointer/length pair.
func (s MutSlice[T]) Range() Range[T] {
	return Range[T]{Data: s.data, Len: s.len}
}

// AsSlice demotes the view to immutable.
func (s MutSlice[T]) AsSlice() Slice[T] {
	return Slice[T]{data: s.data, len: s.len}
}

// ToBoundary copies the pointer/length pair into a boundary twin.
// Non-destructive and repeatable.
func (s MutSlice[T]) ToBoundary() BoundaryMutSlice[T] {
	return BoundaryMutSlice[T]{data: s.data, len: s.len}
}

// BoundarySlice is the crossing representation of Slice: the same
// pointer-then-length layout, no behavior beyond reclamation.
type BoundarySlice[T any] struct {
	data *T
	len  uintptr
}

// Reclaim rebuilds the borrowed view. Borrowed twins carry no ownership, so
// this can be called any number of times.
func (c BoundarySlice[T]) Reclaim() Slice[T] {
	return NewSlice(c.data, c.len)
}

// BoundaryMutSlice is the crossing representation of MutSlice.
type BoundaryMutSlice[T any] struct {
	data *T
	len  uintptr
}

// Reclaim rebuilds the borrowed mutable view.
func (c BoundaryMutSlice[T]) Reclaim() MutSlice[T] {
	return NewMutSlice(c.data, c.len)
}

// Bytes is the borrowed byte-slice view. The byte specialization is the
// shape most native call interfaces traffic in, and the only one with
// text reinterpretations.
type Bytes = Slice[byte]

// BoundaryBytes is the crossing representation of Bytes.
type BoundaryBytes = BoundarySlice[byte]

// AsCharView reinterprets a byte view as raw text. No validation is
// performed; the result makes no UTF-8 claim.
func AsCharView(s Slice[byte]) CharStringView {
	return CharStringView{data: s.data, len: s.len}
}

// AsStringUnchecked reinterprets a byte view as a validated string view.
// The caller attests UTF-8 validity; nothing is checked. Passing invalid
// UTF-8 is a contract violation.
func AsStringUnchecked(s Slice[byte]) StringView {
	return StringView{data: s.data, len: s.len}
}

// SliceOfBuffer reinterprets a fixed-size value as its raw bytes. The view
// must not outlive v.
func SliceOfBuffer[B any](v *B) Slice[byte] {
	return NewSlice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

// BytesEqual reports content equality of two borrowed byte views.
func BytesEqual(a, b Slice[byte]) bool {
	return bytes.Equal(a.View(), b.View())
}
