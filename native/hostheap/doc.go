// Package hostheap implements the native side of the boundary on the Go
// heap.
//
// A Heap allocates buffers, pins them so the garbage collector keeps them
// alive while their addresses are held as raw pointers, and satisfies the
// ffitypes.Runtime and ffitypes.Allocator collaborator contracts. It is the
// native side to use when the "foreign" runtime is the same process:
// embedding tests, examples, and the cmd/ffiheap workbench all run against
// it.
//
//	heap := hostheap.New()
//	defer heap.Close()
//
//	s := heap.NewString("hello")
//	b := s.ToBoundary()
//	// ... cross the boundary and come back ...
//	s2 := ffitypes.ReclaimString(&b, heap)
//	s2.Close()
//
// Every allocation is recorded in a track.Table. Close reports anything
// that never came back as a leak error.
//
// Freeing an address the heap never handed out, or freeing one twice, is a
// contract violation and panics with a structured error: by the time a
// forged or stale pointer reaches the allocator there is no caller left
// that could handle it.
package hostheap
