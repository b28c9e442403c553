// Package ffitypes provides ownership-transfer handle types for a native
// FFI boundary.
//
// A native-side runtime (a wasm guest, a cgo library, or an in-process
// arena) allocates values and hands them to Go as raw pointer/length pairs.
// This package wraps those pairs in small handle types that make the
// ownership rules explicit, so neither side frees memory it does not own,
// double-frees, or silently leaks.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	ffitypes/            Root package with the handle type families and the
//	                     Runtime/Allocator collaborator contracts
//	├── errors/          Structured error types for native adapters
//	├── track/           Observable allocation table for leak accounting
//	├── native/hostheap/ In-process native side backed by the Go heap
//	├── native/wasmalloc/ Native side backed by a wazero guest allocator
//	└── cmd/ffiheap/     Allocator workbench CLI with interactive mode
//
// # Type Families
//
// Four families of handles cooperate, layered bottom-up:
//
//   - Owned boxes: OwnedBox[T] holds one allocated value. Box[T] is the
//     non-null-by-convention alias.
//   - Slices: Slice[T] and MutSlice[T] are borrowed pointer/length views;
//     OwnedSlice[T] additionally owns the referenced memory.
//   - Strings: CharStringView is a raw text view, StringView carries a
//     caller-asserted UTF-8 guarantee, OwnedString owns its buffer.
//   - Opaque references: OpaqueRef, OpaqueMutRef and OpaqueOwned carry
//     type-erased native values that Go can hold and forward but never
//     inspect or free.
//
// Every owning type has a boundary twin (BoundaryBox, BoundaryOwnedSlice,
// BoundaryString, ...) with the same data layout but no destructor. Twins
// are the only values that cross the call boundary; they exist transiently
// and must be reclaimed into an owned handle or forwarded onward, or the
// allocation leaks.
//
// # Ownership Rules
//
// Exactly one owned handle may exist per allocation. Close releases the
// allocation through an injected drop capability, Release detaches the raw
// pointer without dropping, and Move transfers ownership leaving the source
// handle empty. Borrowed views never own memory and are freely copyable;
// their validity is bounded by the lifetime of whatever produced them.
//
// A round trip looks like:
//
//	s := heap.NewString("hello")    // native side allocates
//	b := s.ToBoundary()             // crossing representation, s is now empty
//	pass(b)                         // plain pointer+length, C-compatible
//	s2 := ffitypes.ReclaimString(&b, heap)
//	s2.Close()                      // drop forwarded to the native side
//
// # Empty Slices
//
// A zero-length slice or string never holds a nil data pointer. The
// constructors substitute a reserved, never-dereferenced sentinel address so
// that length alone distinguishes empty from absent, and destructor logic
// can treat length == 0 as "nothing to free" without inspecting the pointer.
//
// # Contract Violations
//
// Dereferencing a null box, indexing out of range, or passing invalid UTF-8
// to an unchecked conversion are caller errors, not recoverable failures.
// They panic when the library is built with the boundscheck tag and are
// undefined behavior otherwise, so release builds pay nothing over raw
// pointer arithmetic.
//
// # Thread Safety
//
// Handles are not synchronized. The copy discipline mirrors shared versus
// exclusive access (immutable views are copyable, mutable and owning handles
// are move-only), but callers sharing handles across goroutines must supply
// their own synchronization.
package ffitypes
