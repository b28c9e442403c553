package hostheap

import (
	"sync"
	"unsafe"

	"go.uber.org/zap"
	_ "go4.org/unsafe/assume-no-moving-gc" // addresses are held outside GC-visible pointers

	"github.com/nativebind/ffitypes"
	"github.com/nativebind/ffitypes/errors"
	"github.com/nativebind/ffitypes/track"
)

// Heap is an in-process native side. It owns every buffer it hands out:
// the pin maps keep the backing memory alive while only raw pointers
// reference it from the handle types.
type Heap struct {
	buffers map[uintptr][]byte
	boxes   map[uintptr]any
	table   *track.Table
	log     *zap.Logger
	mu      sync.Mutex
	closed  bool
}

// Option configures a Heap.
type Option func(*Heap)

// WithLogger sets the heap's logger. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Heap) { h.log = l }
}

// WithTable sets the allocation table, letting callers share one table
// across native sides or subscribe observers before any allocation.
func WithTable(t *track.Table) Option {
	return func(h *Heap) { h.table = t }
}

// New creates an empty heap.
func New(opts ...Option) *Heap {
	h := &Heap{
		buffers: make(map[uintptr][]byte, 64),
		boxes:   make(map[uintptr]any, 16),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.log == nil {
		h.log = zap.NewNop()
	}
	if h.table == nil {
		h.table = track.NewTable()
	}
	return h
}

// Table returns the heap's allocation table.
func (h *Heap) Table() *track.Table {
	return h.table
}

// Alloc allocates a zeroed buffer and registers it. Implements
// ffitypes.Allocator. A zero size returns a nil pointer, which the handle
// constructors replace with the empty sentinel.
func (h *Heap) Alloc(size uintptr) (*byte, error) {
	if size == 0 {
		return nil, nil
	}
	p, err := h.pin(make([]byte, size), track.KindBytes)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// NewBytes copies content into a fresh allocation and wraps it in an owned
// handle whose drop forwards back to this heap.
func (h *Heap) NewBytes(content []byte) ffitypes.OwnedBytes {
	if len(content) == 0 {
		return ffitypes.EmptyOwnedSlice[byte](ffitypes.BytesDrop(h))
	}
	p := h.mustPin(append([]byte(nil), content...), track.KindBytes)
	return ffitypes.WrapSlice(p, uintptr(len(content)), ffitypes.BytesDrop(h))
}

// NewString copies s into a fresh allocation and wraps it in an owned
// string. Go strings are always valid UTF-8 unless the caller forged one,
// so the validity assertion holds by construction.
func (h *Heap) NewString(s string) ffitypes.OwnedString {
	if len(s) == 0 {
		return ffitypes.EmptyOwnedString(h)
	}
	p := h.mustPin([]byte(s), track.KindString)
	return ffitypes.WrapString(p, uintptr(len(s)), h)
}

// NewBox allocates a single value on the heap and wraps it in an owned
// box whose drop forwards back to h.
func NewBox[T any](h *Heap, v T) ffitypes.OwnedBox[T] {
	p := new(T)
	*p = v
	addr := uintptr(unsafe.Pointer(p))

	h.mu.Lock()
	h.boxes[addr] = p
	h.mu.Unlock()
	h.table.Insert(track.Allocation{Ptr: addr, Size: unsafe.Sizeof(v), Kind: track.KindBox})

	return ffitypes.WrapBox(p, func(c ffitypes.BoundaryBox[T]) {
		h.freeBox(uintptr(unsafe.Pointer(c.Release())))
	})
}

// DropBoxedString implements ffitypes.Runtime.
func (h *Heap) DropBoxedString(b ffitypes.BoundaryString) {
	if r := b.Release(); r.Len > 0 {
		h.free(uintptr(unsafe.Pointer(r.Data)))
	}
}

// DropBoxedBytes implements ffitypes.Runtime.
func (h *Heap) DropBoxedBytes(b ffitypes.BoundaryOwnedBytes) {
	if r := b.Release(); r.Len > 0 {
		h.free(uintptr(unsafe.Pointer(r.Data)))
	}
}

// CloneBoxedString implements ffitypes.Runtime.
func (h *Heap) CloneBoxedString(b *ffitypes.BoundaryString) ffitypes.BoundaryString {
	r := b.Range()
	s := ffitypes.WrapString(h.clone(r, track.KindString), r.Len, h)
	return s.ToBoundary()
}

// CloneBoxedBytes implements ffitypes.Runtime.
func (h *Heap) CloneBoxedBytes(b *ffitypes.BoundaryOwnedBytes) ffitypes.BoundaryOwnedBytes {
	r := b.Range()
	s := ffitypes.WrapSlice(h.clone(r, track.KindBytes), r.Len, ffitypes.BytesDrop(h))
	return s.ToBoundary()
}

// Leaks returns the allocations that have not come back yet.
func (h *Heap) Leaks() []track.Allocation {
	return h.table.Leaks()
}

// Close stops the heap and reports leaked allocations. Pins are kept so
// stale pointers stay readable rather than dangling.
func (h *Heap) Close() error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	return h.table.Close()
}

func (h *Heap) clone(r ffitypes.Range[byte], kind track.Kind) *byte {
	if r.Len == 0 {
		return nil
	}
	h.table.NoteClone(uintptr(unsafe.Pointer(r.Data)))
	return h.mustPin(append([]byte(nil), unsafe.Slice(r.Data, r.Len)...), kind)
}

func (h *Heap) pin(buf []byte, kind track.Kind) (*byte, error) {
	p := &buf[0]
	addr := uintptr(unsafe.Pointer(p))

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, errors.Closed(errors.PhaseAlloc)
	}
	h.buffers[addr] = buf
	h.mu.Unlock()

	h.table.Insert(track.Allocation{Ptr: addr, Size: uintptr(len(buf)), Kind: kind})
	h.log.Debug("alloc", zap.Uintptr("ptr", addr), zap.Int("size", len(buf)))
	return p, nil
}

func (h *Heap) mustPin(buf []byte, kind track.Kind) *byte {
	p, err := h.pin(buf, kind)
	if err != nil {
		panic(err)
	}
	return p
}

func (h *Heap) free(addr uintptr) {
	h.mu.Lock()
	_, ok := h.buffers[addr]
	if ok {
		delete(h.buffers, addr)
	}
	h.mu.Unlock()

	if !ok {
		panic(errors.UnknownPointer(errors.PhaseDrop, addr))
	}
	h.table.Remove(addr)
	h.log.Debug("free", zap.Uintptr("ptr", addr))
}

func (h *Heap) freeBox(addr uintptr) {
	h.mu.Lock()
	_, ok := h.boxes[addr]
	if ok {
		delete(h.boxes, addr)
	}
	h.mu.Unlock()

	if !ok {
		panic(errors.UnknownPointer(errors.PhaseDrop, addr))
	}
	h.table.Remove(addr)
	h.log.Debug("free box", zap.Uintptr("ptr", addr))
}
