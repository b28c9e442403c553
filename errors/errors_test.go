package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseAlloc,
				Kind:   KindAllocation,
				Size:   64,
				Detail: "guest allocator returned null",
			},
			contains: []string{"[alloc]", "allocation", "guest allocator returned null"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDrop,
				Kind:  KindDoubleFree,
			},
			contains: []string{"[drop]", "double_free"},
		},
		{
			name: "export and cause",
			err: &Error{
				Phase:  PhaseLoad,
				Kind:   KindMissingExport,
				Export: "ffi_alloc",
				Cause:  errors.New("not linked"),
			},
			contains: []string{"[load]", "missing_export", "ffi_alloc", "caused by", "not linked"},
		},
		{
			name: "pointer formatting",
			err: &Error{
				Phase: PhaseDrop,
				Kind:  KindUnknownPointer,
				Ptr:   0xdead,
			},
			contains: []string{"[drop]", "unknown_pointer", "0xdead"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := AllocationFailed(128, cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is does not reach the cause")
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap did not return the cause")
	}
}

func TestError_Is(t *testing.T) {
	err := UnknownPointer(PhaseDrop, 0x1000)

	if !errors.Is(err, &Error{Kind: KindUnknownPointer}) {
		t.Error("kind wildcard match failed")
	}
	if !errors.Is(err, &Error{Phase: PhaseDrop, Kind: KindUnknownPointer}) {
		t.Error("exact match failed")
	}
	if errors.Is(err, &Error{Kind: KindLeak}) {
		t.Error("mismatched kind matched")
	}
	if errors.Is(err, &Error{Phase: PhaseClone, Kind: KindUnknownPointer}) {
		t.Error("mismatched phase matched")
	}
}

func TestError_As(t *testing.T) {
	var target *Error
	wrapped := Wrap(PhaseClose, KindLeak, Leak(3, 96), "shutdown")

	if !errors.As(error(wrapped), &target) {
		t.Fatal("errors.As failed")
	}
	if target.Kind != KindLeak {
		t.Errorf("Kind = %s, want %s", target.Kind, KindLeak)
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("trap")
	err := New(PhaseClone, KindGuestTrap).
		Export("ffi_boxed_bytes_clone").
		Ptr(0x40).
		Size(16).
		Detail("clone of %d bytes", 16).
		Cause(cause).
		Build()

	if err.Phase != PhaseClone || err.Kind != KindGuestTrap {
		t.Error("builder lost phase or kind")
	}
	if err.Export != "ffi_boxed_bytes_clone" || err.Ptr != 0x40 || err.Size != 16 {
		t.Error("builder lost context fields")
	}
	if err.Detail != "clone of 16 bytes" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if !errors.Is(err, cause) {
		t.Error("builder lost the cause")
	}
}

func TestLeak(t *testing.T) {
	err := Leak(2, 48)
	msg := err.Error()
	for _, s := range []string{"[close]", "leak", "2 allocation", "48 bytes"} {
		if !strings.Contains(msg, s) {
			t.Errorf("leak message %q missing %q", msg, s)
		}
	}
}
