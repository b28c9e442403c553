package hostheap

import (
	"bytes"
	goerrors "errors"
	"testing"

	"github.com/nativebind/ffitypes"
	"github.com/nativebind/ffitypes/errors"
	"github.com/nativebind/ffitypes/track"
)

func TestNewStringRoundTrip(t *testing.T) {
	h := New()
	s := h.NewString("hello")

	if s.String() != "hello" || s.Len() != 5 {
		t.Fatalf("owned string = %q (len %d)", s.String(), s.Len())
	}

	b := s.ToBoundary()
	s2 := ffitypes.ReclaimString(&b, h)
	if s2.String() != "hello" {
		t.Errorf("round trip = %q", s2.String())
	}

	s2.Close()
	if err := h.Close(); err != nil {
		t.Errorf("Close = %v, want nil", err)
	}
}

func TestNewBytes(t *testing.T) {
	h := New()
	content := []byte{1, 2, 3, 4, 5}
	s := h.NewBytes(content)

	if !bytes.Equal(s.AsSlice().View(), content) {
		t.Errorf("content = %v, want %v", s.AsSlice().View(), content)
	}

	// the heap copies; mutating the source must not show through
	content[0] = 99
	if s.AsSlice().View()[0] == 99 {
		t.Error("heap aliased the caller's buffer")
	}

	s.Close()
	if h.Table().Len() != 0 {
		t.Errorf("live allocations = %d, want 0", h.Table().Len())
	}
}

func TestCloneAllocatesFresh(t *testing.T) {
	h := New()
	s := h.NewBytes([]byte("hello"))

	dup := s.Clone(ffitypes.BytesClone(h))
	if !bytes.Equal(dup.AsSlice().View(), s.AsSlice().View()) {
		t.Error("clone content differs")
	}
	if dup.Data() == s.Data() {
		t.Error("clone shares the source allocation")
	}

	s.Close()
	dup.Close()
	if err := h.Close(); err != nil {
		t.Errorf("Close = %v, want nil", err)
	}
}

func TestCloneString(t *testing.T) {
	h := New()
	s := h.NewString("clone me")

	dup := s.Clone()
	if dup.String() != "clone me" {
		t.Errorf("clone = %q", dup.String())
	}
	if dup.View().Data() == s.View().Data() {
		t.Error("clone shares the source allocation")
	}

	s.Close()
	dup.Close()
}

func TestNewBox(t *testing.T) {
	h := New()
	b := NewBox(h, 42)

	if !b.Valid() || *b.Get() != 42 {
		t.Fatalf("box holds %v", b.Get())
	}
	if h.Table().Len() != 1 {
		t.Errorf("live allocations = %d, want 1", h.Table().Len())
	}

	b.Close()
	if h.Table().Len() != 0 {
		t.Errorf("live allocations after Close = %d, want 0", h.Table().Len())
	}
}

func TestEmptyAllocations(t *testing.T) {
	h := New()

	s := h.NewString("")
	if !s.Empty() {
		t.Error("empty string not empty")
	}
	s.Close()

	bs := h.NewBytes(nil)
	if !bs.Empty() {
		t.Error("empty bytes not empty")
	}
	bs.Close()

	if err := h.Close(); err != nil {
		t.Errorf("Close = %v, want nil (no real allocations happened)", err)
	}
}

func TestLeakReport(t *testing.T) {
	h := New()
	s := h.NewString("leaked")
	_ = s.ToBoundary() // abandoned boundary value

	leaks := h.Leaks()
	if len(leaks) != 1 {
		t.Fatalf("leaks = %d, want 1", len(leaks))
	}
	if leaks[0].Kind != track.KindString || leaks[0].Size != 6 {
		t.Errorf("leak record = %+v", leaks[0])
	}

	err := h.Close()
	if !goerrors.Is(err, &errors.Error{Kind: errors.KindLeak}) {
		t.Errorf("Close = %v, want leak error", err)
	}
}

func TestUnknownPointerPanics(t *testing.T) {
	h := New()
	s := h.NewString("x")
	r := s.Release()

	// give the allocation back once, legitimately
	s2 := ffitypes.WrapString(r.Data, r.Len, h)
	s2.Close()

	defer func() {
		err, ok := recover().(error)
		if !ok {
			t.Fatal("second drop of the same pointer did not panic")
		}
		if !goerrors.Is(err, &errors.Error{Kind: errors.KindUnknownPointer}) {
			t.Errorf("panic = %v, want unknown_pointer", err)
		}
	}()
	s3 := ffitypes.WrapString(r.Data, r.Len, h)
	s3.Close()
}

func TestAllocZeroAndClosed(t *testing.T) {
	h := New()

	p, err := h.Alloc(0)
	if p != nil || err != nil {
		t.Errorf("Alloc(0) = %p, %v", p, err)
	}

	p, err = h.Alloc(8)
	if err != nil || p == nil {
		t.Fatalf("Alloc(8) = %p, %v", p, err)
	}
	s := ffitypes.WrapSlice(p, 8, ffitypes.BytesDrop(h))
	h.DropBoxedBytes(s.ToBoundary())

	if err := h.Close(); err != nil {
		t.Fatalf("Close = %v", err)
	}
	if _, err := h.Alloc(8); !goerrors.Is(err, &errors.Error{Kind: errors.KindClosed}) {
		t.Errorf("Alloc after Close = %v, want closed error", err)
	}
}

func TestSharedTableObserver(t *testing.T) {
	tbl := track.NewTable()
	events := 0
	obs := observerFunc(func(track.Event) { events++ })
	tbl.Subscribe(obs)

	h := New(WithTable(tbl))
	s := h.NewString("observed")
	s.Close()

	if events != 2 { // insert + remove
		t.Errorf("events = %d, want 2", events)
	}
}

type observerFunc func(track.Event)

func (f observerFunc) OnAllocationEvent(e track.Event) { f(e) }
