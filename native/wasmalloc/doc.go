// Package wasmalloc implements the native side of the boundary on a
// WebAssembly guest instantiated with wazero.
//
// The guest owns the allocator: every buffer lives in its linear memory and
// is allocated, freed, and deep-copied by exported guest functions. The
// host only translates between guest offsets and host pointers into the
// memory's backing view.
//
// # Guest Contract
//
// The guest module must export linear memory and the following functions:
//
//	ffi_alloc(size: i32) -> i32             allocate, 0 on failure
//	ffi_boxed_bytes_drop(ptr: i32, len: i32)
//	ffi_boxed_str_drop(ptr: i32, len: i32)
//	ffi_boxed_bytes_clone(ptr: i32, len: i32) -> i64
//	ffi_boxed_str_clone(ptr: i32, len: i32) -> i64
//
// Clone returns the new allocation packed as (ptr << 32) | len.
//
// # Memory Growth
//
// Host pointers are views into the guest's linear memory. WASM memory can
// move when it grows, so pointers must not be held across a guest call
// that may grow memory. The adapter re-resolves the base address on every
// translation, but handles the caller parked elsewhere are the caller's
// problem; treat a guest call as invalidating outstanding borrowed views.
package wasmalloc
