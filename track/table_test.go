package track

import (
	goerrors "errors"
	"testing"

	"github.com/nativebind/ffitypes/errors"
)

type countingObserver struct {
	inserted int
	removed  int
	cloned   int
	last     Allocation
}

func (o *countingObserver) OnAllocationEvent(e Event) {
	switch e.Type {
	case EventInserted:
		o.inserted++
	case EventRemoved:
		o.removed++
	case EventCloned:
		o.cloned++
	}
	o.last = e.Allocation
}

func TestTableInsertRemove(t *testing.T) {
	tbl := NewTable()

	if !tbl.Insert(Allocation{Ptr: 0x1000, Size: 16, Kind: KindBytes}) {
		t.Fatal("insert failed")
	}
	if tbl.Len() != 1 {
		t.Fatalf("Len = %d, want 1", tbl.Len())
	}

	a, ok := tbl.Get(0x1000)
	if !ok || a.Size != 16 || a.Kind != KindBytes {
		t.Errorf("Get = %+v, %v", a, ok)
	}

	removed, ok := tbl.Remove(0x1000)
	if !ok || removed.Ptr != 0x1000 {
		t.Errorf("Remove = %+v, %v", removed, ok)
	}
	if tbl.Len() != 0 {
		t.Errorf("Len after remove = %d", tbl.Len())
	}
}

func TestTableDoubleFree(t *testing.T) {
	tbl := NewTable()
	tbl.Insert(Allocation{Ptr: 0x2000, Size: 8, Kind: KindString})

	if _, ok := tbl.Remove(0x2000); !ok {
		t.Fatal("first remove failed")
	}
	if _, ok := tbl.Remove(0x2000); ok {
		t.Error("second remove of the same address succeeded")
	}
	if _, ok := tbl.Remove(0x9999); ok {
		t.Error("remove of never-inserted address succeeded")
	}
}

func TestTableDuplicateInsert(t *testing.T) {
	tbl := NewTable()
	tbl.Insert(Allocation{Ptr: 0x3000, Size: 4, Kind: KindBytes})
	if tbl.Insert(Allocation{Ptr: 0x3000, Size: 4, Kind: KindBytes}) {
		t.Error("duplicate address accepted")
	}
	if tbl.Len() != 1 {
		t.Errorf("Len = %d, want 1", tbl.Len())
	}
}

func TestTableObservers(t *testing.T) {
	tbl := NewTable()
	obs := &countingObserver{}
	tbl.Subscribe(obs)

	tbl.Insert(Allocation{Ptr: 0x4000, Size: 32, Kind: KindBytes})
	tbl.NoteClone(0x4000)
	tbl.Remove(0x4000)

	if obs.inserted != 1 || obs.cloned != 1 || obs.removed != 1 {
		t.Errorf("observer counts = %+v", obs)
	}

	tbl.Unsubscribe(obs)
	tbl.Insert(Allocation{Ptr: 0x5000, Size: 1, Kind: KindBox})
	if obs.inserted != 1 {
		t.Error("unsubscribed observer still notified")
	}
}

func TestTableLeaksOrdered(t *testing.T) {
	tbl := NewTable()
	tbl.Insert(Allocation{Ptr: 0x30, Size: 3, Kind: KindBytes})
	tbl.Insert(Allocation{Ptr: 0x10, Size: 1, Kind: KindString})
	tbl.Insert(Allocation{Ptr: 0x20, Size: 2, Kind: KindBytes})
	tbl.Remove(0x10)

	leaks := tbl.Leaks()
	if len(leaks) != 2 {
		t.Fatalf("leaks = %d, want 2", len(leaks))
	}
	if leaks[0].Ptr != 0x30 || leaks[1].Ptr != 0x20 {
		t.Errorf("leaks out of insertion order: %+v", leaks)
	}
	if tbl.Bytes() != 5 {
		t.Errorf("Bytes = %d, want 5", tbl.Bytes())
	}
}

func TestTableClose(t *testing.T) {
	tbl := NewTable()
	tbl.Insert(Allocation{Ptr: 0x6000, Size: 10, Kind: KindBytes})
	tbl.Insert(Allocation{Ptr: 0x7000, Size: 6, Kind: KindString})

	err := tbl.Close()
	if err == nil {
		t.Fatal("Close with live allocations returned nil")
	}
	if !goerrors.Is(err, &errors.Error{Kind: errors.KindLeak}) {
		t.Errorf("Close error = %v, want leak kind", err)
	}

	if tbl.Insert(Allocation{Ptr: 0x8000, Size: 1, Kind: KindBytes}) {
		t.Error("insert accepted after Close")
	}
}

func TestTableCloseClean(t *testing.T) {
	tbl := NewTable()
	tbl.Insert(Allocation{Ptr: 0x9000, Size: 1, Kind: KindBytes})
	tbl.Remove(0x9000)
	if err := tbl.Close(); err != nil {
		t.Errorf("clean Close = %v, want nil", err)
	}
}
