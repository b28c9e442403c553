package track

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/nativebind/ffitypes/errors"
)

// Table records live native-side allocations keyed by address.
type Table struct {
	live      map[uintptr]Allocation
	observers []Observer
	seq       uint64
	mu        sync.RWMutex
	obsMu     sync.RWMutex
	closed    bool
}

// NewTable creates an empty allocation table.
func NewTable() *Table {
	return &Table{live: make(map[uintptr]Allocation, 64)}
}

// Insert records an allocation. Inserting an address that is already live
// is a double-allocation on the native side and returns false.
func (t *Table) Insert(a Allocation) bool {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return false
	}
	if _, dup := t.live[a.Ptr]; dup {
		t.mu.Unlock()
		Logger().Error("duplicate allocation address",
			zap.Uintptr("ptr", a.Ptr), zap.Stringer("kind", a.Kind))
		return false
	}
	t.seq++
	a.Seq = t.seq
	t.live[a.Ptr] = a
	t.mu.Unlock()

	t.notify(Event{Type: EventInserted, Allocation: a})
	return true
}

// Remove drops an allocation and returns (record, true) if the address was
// live. A false return means the address was never handed out or has
// already come back: a double free.
func (t *Table) Remove(ptr uintptr) (Allocation, bool) {
	t.mu.Lock()
	a, ok := t.live[ptr]
	if ok {
		delete(t.live, ptr)
	}
	t.mu.Unlock()

	if !ok {
		return Allocation{}, false
	}
	t.notify(Event{Type: EventRemoved, Allocation: a})
	return a, true
}

// Get retrieves the record for a live address.
func (t *Table) Get(ptr uintptr) (Allocation, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	a, ok := t.live[ptr]
	return a, ok
}

// NoteClone emits a clone event for an address without changing the table;
// the clone's own allocation arrives through Insert.
func (t *Table) NoteClone(ptr uintptr) {
	if a, ok := t.Get(ptr); ok {
		t.notify(Event{Type: EventCloned, Allocation: a})
	}
}

// Len returns the number of live allocations.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.live)
}

// Bytes returns the total size of live allocations.
func (t *Table) Bytes() uintptr {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var n uintptr
	for _, a := range t.live {
		n += a.Size
	}
	return n
}

// Leaks returns the live allocations in insertion order. At shutdown every
// entry is a value that crossed the boundary and never came back.
func (t *Table) Leaks() []Allocation {
	t.mu.RLock()
	leaks := make([]Allocation, 0, len(t.live))
	for _, a := range t.live {
		leaks = append(leaks, a)
	}
	t.mu.RUnlock()

	sort.Slice(leaks, func(i, j int) bool { return leaks[i].Seq < leaks[j].Seq })
	return leaks
}

// Each visits live allocations until fn returns false.
func (t *Table) Each(fn func(Allocation) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, a := range t.live {
		if !fn(a) {
			return
		}
	}
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Close stops accepting inserts and reports what never came back. A nil
// return means every allocation was returned.
func (t *Table) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()

	leaks := t.Leaks()
	if len(leaks) == 0 {
		return nil
	}

	var bytes uintptr
	for _, a := range leaks {
		bytes += a.Size
		Logger().Warn("leaked allocation",
			zap.Uintptr("ptr", a.Ptr),
			zap.Uintptr("size", a.Size),
			zap.Stringer("kind", a.Kind))
	}
	return errors.Leak(len(leaks), bytes)
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnAllocationEvent(e)
	}
}
