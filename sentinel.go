package ffitypes

import "unsafe"

// emptySentinel is the reserved address stored by zero-length slices and
// strings. It is never dereferenced and never a valid allocation; it exists
// so an empty slice remains distinguishable from "no slice" and pointer
// arithmetic never starts from nil.
const emptySentinel uintptr = 1

// sentinel returns the typed sentinel pointer for empty slices. The
// conversion trips vet's unsafeptr check; the address is a fixed non-heap
// constant and is never dereferenced.
func sentinel[T any]() *T {
	return (*T)(unsafe.Pointer(emptySentinel))
}

// wrapNil substitutes the sentinel for a nil data pointer. This is the
// single constructor path for the substitution: every slice-shaped type
// funnels raw pointers through here.
func wrapNil[T any](p *T) *T {
	if p == nil {
		return sentinel[T]()
	}
	return p
}

// isSentinel reports whether p is the reserved empty address.
func isSentinel[T any](p *T) bool {
	return uintptr(unsafe.Pointer(p)) == emptySentinel
}
