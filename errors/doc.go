// Package errors provides structured error types for the ffitypes native
// adapters.
//
// The handle types themselves have no recoverable-error channel: their
// failure modes are contract violations. Errors in this package describe
// what can actually fail at runtime (allocator calls, guest export lookup,
// pointer translation, leak accounting), categorized by Phase (where the
// error occurred) and Kind (error category).
//
// Use the Builder for structured construction:
//
//	err := errors.New(errors.PhaseAlloc, errors.KindAllocation).
//		Size(64).
//		Detail("guest allocator returned null").
//		Build()
//
// Or the convenience constructors for common patterns:
//
//	err := errors.MissingExport(errors.PhaseLoad, "ffi_alloc")
//	err := errors.UnknownPointer(errors.PhaseDrop, ptr)
//
// All errors implement the standard error interface and support
// errors.Is/As.
package errors
