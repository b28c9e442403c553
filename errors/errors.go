package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad    Phase = "load"    // adapter construction, export lookup
	PhaseAlloc   Phase = "alloc"   // native-side allocation
	PhaseDrop    Phase = "drop"    // drop forwarding
	PhaseClone   Phase = "clone"   // native-side deep copy
	PhaseConvert Phase = "convert" // pointer/offset translation
	PhaseClose   Phase = "close"   // adapter shutdown, leak accounting
)

// Kind categorizes the error
type Kind string

const (
	KindAllocation     Kind = "allocation"
	KindMissingExport  Kind = "missing_export"
	KindUnknownPointer Kind = "unknown_pointer"
	KindDoubleFree     Kind = "double_free"
	KindLeak           Kind = "leak"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindInvalidUTF8    Kind = "invalid_utf8"
	KindOverflow       Kind = "overflow"
	KindGuestTrap      Kind = "guest_trap"
	KindClosed         Kind = "closed"
)

// Error is the structured error type used by the native adapters
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Export string // guest export name, when relevant
	Detail string
	Ptr    uintptr // offending address, when relevant
	Size   uintptr // allocation size, when relevant
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Export != "" {
		b.WriteString(" export ")
		b.WriteString(e.Export)
	}
	if e.Ptr != 0 {
		fmt.Fprintf(&b, " ptr 0x%x", e.Ptr)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying cause for errors.Is/As chains
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by Phase and Kind. A zero Phase or Kind on the target
// acts as a wildcard, so errors.Is(err, &Error{Kind: KindLeak}) matches any
// leak error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	if t.Kind != "" && t.Kind != e.Kind {
		return false
	}
	return true
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{err: Error{Phase: phase, Kind: kind}}
}

// Export sets the guest export name
func (b *Builder) Export(name string) *Builder {
	b.err.Export = name
	return b
}

// Ptr sets the offending address
func (b *Builder) Ptr(p uintptr) *Builder {
	b.err.Ptr = p
	return b
}

// Size sets the allocation size
func (b *Builder) Size(n uintptr) *Builder {
	b.err.Size = n
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// AllocationFailed creates an allocation failure error
func AllocationFailed(size uintptr, cause error) *Error {
	return &Error{
		Phase:  PhaseAlloc,
		Kind:   KindAllocation,
		Size:   size,
		Detail: fmt.Sprintf("failed to allocate %d bytes", size),
		Cause:  cause,
	}
}

// MissingExport creates an error for a guest module lacking a required
// export
func MissingExport(phase Phase, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMissingExport,
		Export: name,
		Detail: fmt.Sprintf("guest module does not export %q", name),
	}
}

// UnknownPointer creates an error for an address the native side never
// handed out
func UnknownPointer(phase Phase, ptr uintptr) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnknownPointer,
		Ptr:    ptr,
		Detail: "pointer was not allocated by this native side",
	}
}

// DoubleFree creates an error for an address freed twice
func DoubleFree(ptr uintptr) *Error {
	return &Error{
		Phase:  PhaseDrop,
		Kind:   KindDoubleFree,
		Ptr:    ptr,
		Detail: "pointer already freed",
	}
}

// Leak creates an error summarizing allocations still live at shutdown
func Leak(count int, bytes uintptr) *Error {
	return &Error{
		Phase:  PhaseClose,
		Kind:   KindLeak,
		Size:   bytes,
		Detail: fmt.Sprintf("%d allocation(s) totaling %d bytes never returned", count, bytes),
	}
}

// GuestTrap wraps a trap raised by a guest export
func GuestTrap(phase Phase, export string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindGuestTrap,
		Export: export,
		Detail: "guest call trapped",
		Cause:  cause,
	}
}

// Overflow creates an error for a value that does not fit the boundary
// representation
func Overflow(phase Phase, value any, target string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Detail: fmt.Sprintf("value %v overflows %s", value, target),
	}
}

// Closed creates an error for operations on a closed adapter
func Closed(phase Phase) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: "native side already closed",
	}
}

// Wrap wraps an existing error with phase and kind context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{Phase: phase, Kind: kind, Detail: detail, Cause: cause}
}
