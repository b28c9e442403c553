package ffitypes

import "testing"

func TestWrapBoxAndClose(t *testing.T) {
	v := 42
	drops := 0
	var dropped *int
	b := WrapBox(&v, func(c BoundaryBox[int]) {
		drops++
		dropped = c.Release()
	})

	if !b.Valid() {
		t.Fatal("wrapped box should be valid")
	}
	if b.Get() != &v {
		t.Errorf("Get = %p, want %p", b.Get(), &v)
	}

	b.Close()
	if drops != 1 {
		t.Fatalf("drops = %d, want 1", drops)
	}
	if dropped != &v {
		t.Errorf("drop saw %p, want %p", dropped, &v)
	}
	if b.Valid() {
		t.Error("box should be null after Close")
	}

	// second Close is a no-op on the inert handle
	b.Close()
	if drops != 1 {
		t.Errorf("drops after double Close = %d, want 1", drops)
	}
}

func TestBoxReleaseSkipsDrop(t *testing.T) {
	v := 7
	drops := 0
	b := WrapBox(&v, func(BoundaryBox[int]) { drops++ })

	got := b.Release()
	if got != &v {
		t.Errorf("Release = %p, want %p", got, &v)
	}
	if b.Valid() {
		t.Error("box should be null after Release")
	}

	b.Close()
	if drops != 0 {
		t.Errorf("drops = %d, want 0 after Release", drops)
	}
}

func TestBoxMoveInvalidatesSource(t *testing.T) {
	v := 1
	drops := 0
	b := WrapBox(&v, func(BoundaryBox[int]) { drops++ })

	b2 := b.Move()
	if b.Valid() {
		t.Error("moved-from box should be null")
	}
	if b2.Get() != &v {
		t.Errorf("moved-to box holds %p, want %p", b2.Get(), &v)
	}

	b.Close()
	if drops != 0 {
		t.Errorf("closing moved-from box dropped, drops = %d", drops)
	}
	b2.Close()
	if drops != 1 {
		t.Errorf("drops = %d, want 1", drops)
	}
}

func TestBoxReset(t *testing.T) {
	a, c := 1, 2
	drops := 0
	b := WrapBox(&a, func(BoundaryBox[int]) { drops++ })

	b.Reset(&c)
	if drops != 1 {
		t.Fatalf("Reset should drop the previous value, drops = %d", drops)
	}
	if b.Get() != &c {
		t.Errorf("Get = %p, want %p", b.Get(), &c)
	}

	b.Close()
	if drops != 2 {
		t.Errorf("drops = %d, want 2", drops)
	}
}

func TestNullBox(t *testing.T) {
	b := NullBox[string]()
	if b.Valid() {
		t.Error("null box reports valid")
	}
	if b.Get() != nil {
		t.Error("null box holds a pointer")
	}
	b.Close() // must not panic without a drop capability
}

func TestBoxBoundaryRoundTrip(t *testing.T) {
	v := 9
	drops := 0
	drop := func(BoundaryBox[int]) { drops++ }
	b := WrapBox(&v, drop)

	c := b.ToBoundary()
	if b.Valid() {
		t.Error("box should be null after ToBoundary")
	}
	if !c.Valid() {
		t.Fatal("boundary twin should carry the pointer")
	}

	b2 := ReclaimBox(&c, drop)
	if c.Valid() {
		t.Error("twin should be cleared after Reclaim")
	}
	if b2.Get() != &v {
		t.Errorf("round trip changed pointer: %p, want %p", b2.Get(), &v)
	}
	if drops != 0 {
		t.Errorf("round trip performed %d drops, want 0", drops)
	}

	b2.Close()
	if drops != 1 {
		t.Errorf("drops = %d, want 1", drops)
	}
}

func TestBoxDerefChecked(t *testing.T) {
	if !boundsCheck {
		t.Skip("requires the boundscheck tag")
	}
	defer func() {
		if recover() == nil {
			t.Error("Deref of null box did not panic")
		}
	}()
	b := NullBox[int]()
	b.Deref()
}
