// Package track provides an observable table of live native-side
// allocations.
//
// The handle types in the root package cannot structurally prevent a
// boundary value from being abandoned; the only defense is accounting. A
// native adapter records every allocation it hands out in a Table, removes
// it when the allocation comes back through drop, and reports whatever is
// left as leaks at shutdown.
//
// # Allocation Lifecycle
//
//	table := track.NewTable()
//
//	// native side hands out an allocation
//	table.Insert(track.Allocation{Ptr: ptr, Size: n, Kind: track.KindBytes})
//
//	// the allocation returns through drop
//	table.Remove(ptr)
//
//	// anything still live at shutdown never came back
//	leaks := table.Leaks()
//
// # Observers
//
// Observers receive every insert, remove and clone event. The interactive
// workbench in cmd/ffiheap subscribes one to render a live view; tests
// subscribe counting observers.
//
// # Thread Safety
//
// Table is safe for concurrent use.
package track
