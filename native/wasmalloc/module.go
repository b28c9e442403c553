package wasmalloc

import (
	"context"
	"reflect"
	"unsafe"

	"fortio.org/safecast"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/nativebind/ffitypes"
	"github.com/nativebind/ffitypes/errors"
	"github.com/nativebind/ffitypes/track"
)

// Export names the guest module must provide.
const (
	ExportAlloc       = "ffi_alloc"
	ExportDropBytes   = "ffi_boxed_bytes_drop"
	ExportDropString  = "ffi_boxed_str_drop"
	ExportCloneBytes  = "ffi_boxed_bytes_clone"
	ExportCloneString = "ffi_boxed_str_clone"
)

// guestMemory is the slice of api.Memory the adapter needs. Narrowing it
// keeps tests off a real wazero instance.
type guestMemory interface {
	Read(offset, byteCount uint32) ([]byte, bool)
	Size() uint32
}

// guestFn is the slice of api.Function the adapter needs.
type guestFn interface {
	Call(ctx context.Context, params ...uint64) ([]uint64, error)
}

// exports holds the resolved guest functions.
type exports struct {
	alloc       guestFn
	dropBytes   guestFn
	dropString  guestFn
	cloneBytes  guestFn
	cloneString guestFn
}

// Guest adapts an instantiated WebAssembly module into a native side:
// allocation, drop, and clone all forward to the guest's exports, and
// handle pointers are views into the guest's linear memory.
type Guest struct {
	ctx   context.Context
	mem   guestMemory
	fns   exports
	table *track.Table
	log   *zap.Logger
}

// Option configures a Guest.
type Option func(*Guest)

// WithLogger sets the guest adapter's logger. The default is the package
// logger from SetLogger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Guest) { g.log = l }
}

// WithTable sets the allocation table, letting callers share one table
// across native sides or subscribe observers before any allocation.
func WithTable(t *track.Table) Option {
	return func(g *Guest) { g.table = t }
}

// FromModule resolves the allocator exports of an instantiated module.
// ctx is captured for guest calls made from drop forwarding, which has no
// context parameter of its own.
func FromModule(ctx context.Context, mod api.Module, opts ...Option) (*Guest, error) {
	mem := mod.Memory()
	if nilMemory(mem) {
		return nil, errors.MissingExport(errors.PhaseLoad, "memory")
	}

	var fns exports
	for _, e := range []struct {
		name string
		dst  *guestFn
	}{
		{ExportAlloc, &fns.alloc},
		{ExportDropBytes, &fns.dropBytes},
		{ExportDropString, &fns.dropString},
		{ExportCloneBytes, &fns.cloneBytes},
		{ExportCloneString, &fns.cloneString},
	} {
		fn := mod.ExportedFunction(e.name)
		if fn == nil {
			return nil, errors.MissingExport(errors.PhaseLoad, e.name)
		}
		*e.dst = fn
	}

	return newGuest(ctx, mem, fns, opts...), nil
}

// nilMemory reports whether mem is absent. A module with no memory section
// hands back a non-nil api.Memory interface wrapping a nil instance, so a
// plain nil comparison is not enough.
func nilMemory(mem api.Memory) bool {
	if mem == nil {
		return true
	}
	v := reflect.ValueOf(mem)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func newGuest(ctx context.Context, mem guestMemory, fns exports, opts ...Option) *Guest {
	g := &Guest{
		ctx: ctx,
		mem: mem,
		fns: fns,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.log == nil {
		g.log = Logger()
	}
	if g.table == nil {
		g.table = track.NewTable()
	}
	return g
}

// Table returns the adapter's allocation table.
func (g *Guest) Table() *track.Table {
	return g.table
}

// Alloc allocates a buffer inside the guest and returns a host pointer to
// it. Implements ffitypes.Allocator. A zero size returns a nil pointer,
// which the handle constructors replace with the empty sentinel.
func (g *Guest) Alloc(size uintptr) (*byte, error) {
	if size == 0 {
		return nil, nil
	}
	off, err := g.callAlloc(size)
	if err != nil {
		return nil, err
	}
	p, err := g.hostPtr(off)
	if err != nil {
		return nil, err
	}
	g.register(off, size, track.KindBytes)
	return p, nil
}

// NewBytes copies content into a guest allocation and wraps it in an owned
// handle whose drop forwards to the guest.
func (g *Guest) NewBytes(content []byte) (ffitypes.OwnedBytes, error) {
	if len(content) == 0 {
		return ffitypes.EmptyOwnedSlice[byte](ffitypes.BytesDrop(g)), nil
	}
	p, err := g.allocCopy(content, track.KindBytes)
	if err != nil {
		return ffitypes.OwnedBytes{}, err
	}
	return ffitypes.WrapSlice(p, uintptr(len(content)), ffitypes.BytesDrop(g)), nil
}

// NewString copies s into a guest allocation and wraps it in an owned
// string whose drop forwards to the guest.
func (g *Guest) NewString(s string) (ffitypes.OwnedString, error) {
	if len(s) == 0 {
		return ffitypes.EmptyOwnedString(g), nil
	}
	p, err := g.allocCopy([]byte(s), track.KindString)
	if err != nil {
		return ffitypes.OwnedString{}, err
	}
	return ffitypes.WrapString(p, uintptr(len(s)), g), nil
}

// DropBoxedString implements ffitypes.Runtime.
func (g *Guest) DropBoxedString(b ffitypes.BoundaryString) {
	if r := b.Release(); r.Len > 0 {
		g.drop(g.fns.dropString, ExportDropString, r.Data, r.Len)
	}
}

// DropBoxedBytes implements ffitypes.Runtime.
func (g *Guest) DropBoxedBytes(b ffitypes.BoundaryOwnedBytes) {
	if r := b.Release(); r.Len > 0 {
		g.drop(g.fns.dropBytes, ExportDropBytes, r.Data, r.Len)
	}
}

// CloneBoxedString implements ffitypes.Runtime.
func (g *Guest) CloneBoxedString(b *ffitypes.BoundaryString) ffitypes.BoundaryString {
	r := b.Range()
	p, n := g.clone(g.fns.cloneString, ExportCloneString, r.Data, r.Len, track.KindString)
	s := ffitypes.WrapString(p, n, g)
	return s.ToBoundary()
}

// CloneBoxedBytes implements ffitypes.Runtime.
func (g *Guest) CloneBoxedBytes(b *ffitypes.BoundaryOwnedBytes) ffitypes.BoundaryOwnedBytes {
	r := b.Range()
	p, n := g.clone(g.fns.cloneBytes, ExportCloneBytes, r.Data, r.Len, track.KindBytes)
	s := ffitypes.WrapSlice(p, n, ffitypes.BytesDrop(g))
	return s.ToBoundary()
}

// Leaks returns the allocations that have not come back yet.
func (g *Guest) Leaks() []track.Allocation {
	return g.table.Leaks()
}

// Close reports leaked allocations. The guest instance itself belongs to
// the caller and stays alive.
func (g *Guest) Close() error {
	return g.table.Close()
}

func (g *Guest) callAlloc(size uintptr) (uint32, error) {
	u64, err := safecast.Conv[uint64](size)
	if err != nil {
		return 0, errors.Overflow(errors.PhaseAlloc, size, "u32 size")
	}
	res, err := g.fns.alloc.Call(g.ctx, u64)
	if err != nil {
		return 0, errors.GuestTrap(errors.PhaseAlloc, ExportAlloc, err)
	}
	off := uint32(res[0])
	if off == 0 {
		return 0, errors.AllocationFailed(size, nil)
	}
	return off, nil
}

func (g *Guest) allocCopy(content []byte, kind track.Kind) (*byte, error) {
	off, err := g.callAlloc(uintptr(len(content)))
	if err != nil {
		return nil, err
	}
	n, err := safecast.Conv[uint32](len(content))
	if err != nil {
		return nil, errors.Overflow(errors.PhaseAlloc, len(content), "u32 length")
	}
	view, ok := g.mem.Read(off, n)
	if !ok {
		return nil, errors.New(errors.PhaseAlloc, errors.KindOutOfBounds).
			Ptr(uintptr(off)).Size(uintptr(n)).
			Detail("allocation outside linear memory").Build()
	}
	copy(view, content)
	g.register(off, uintptr(len(content)), kind)
	return &view[0], nil
}

// drop translates a host pointer back into a guest offset and forwards it.
// The handle contract has no error channel here, so translation failures
// and guest traps panic: a pointer the guest does not own is a corrupted
// handle, not a recoverable condition.
func (g *Guest) drop(fn guestFn, export string, data *byte, length uintptr) {
	off := g.mustOffset(errors.PhaseDrop, data)
	if _, err := fn.Call(g.ctx, uint64(off), uint64(length)); err != nil {
		panic(errors.GuestTrap(errors.PhaseDrop, export, err))
	}
	g.table.Remove(uintptr(off))
	g.log.Debug("guest free", zap.Uint32("offset", off), zap.Uintptr("len", length))
}

// clone forwards to the guest's deep-copy export. The guest returns the
// fresh allocation packed as (ptr << 32) | len.
func (g *Guest) clone(fn guestFn, export string, data *byte, length uintptr, kind track.Kind) (*byte, uintptr) {
	if length == 0 {
		return nil, 0
	}
	off := g.mustOffset(errors.PhaseClone, data)
	res, err := fn.Call(g.ctx, uint64(off), uint64(length))
	if err != nil {
		panic(errors.GuestTrap(errors.PhaseClone, export, err))
	}
	newOff := uint32(res[0] >> 32)
	newLen := uint32(res[0])
	if newOff == 0 {
		panic(errors.AllocationFailed(uintptr(newLen), nil))
	}
	p, err := g.hostPtr(newOff)
	if err != nil {
		panic(err)
	}
	g.table.NoteClone(uintptr(off))
	g.register(newOff, uintptr(newLen), kind)
	return p, uintptr(newLen)
}

// hostPtr resolves a guest offset into a pointer inside the memory's
// backing view. Resolved per call: linear memory may move when it grows.
func (g *Guest) hostPtr(off uint32) (*byte, error) {
	view, ok := g.mem.Read(off, 1)
	if !ok {
		return nil, errors.New(errors.PhaseConvert, errors.KindOutOfBounds).
			Ptr(uintptr(off)).
			Detail("offset outside linear memory").Build()
	}
	return &view[0], nil
}

// offset translates a host pointer back into a guest offset.
func (g *Guest) offset(phase errors.Phase, p *byte) (uint32, error) {
	size := g.mem.Size()
	base, ok := g.mem.Read(0, size)
	if !ok || size == 0 {
		return 0, errors.New(phase, errors.KindOutOfBounds).
			Detail("linear memory unreadable").Build()
	}
	addr := uintptr(unsafe.Pointer(p))
	start := uintptr(unsafe.Pointer(&base[0]))
	if addr < start || addr >= start+uintptr(size) {
		return 0, errors.UnknownPointer(phase, addr)
	}
	off, err := safecast.Conv[uint32](addr - start)
	if err != nil {
		return 0, errors.Overflow(phase, addr-start, "u32 offset")
	}
	return off, nil
}

func (g *Guest) mustOffset(phase errors.Phase, p *byte) uint32 {
	off, err := g.offset(phase, p)
	if err != nil {
		panic(err)
	}
	return off
}

func (g *Guest) register(off uint32, size uintptr, kind track.Kind) {
	g.table.Insert(track.Allocation{Ptr: uintptr(off), Size: size, Kind: kind})
	g.log.Debug("guest alloc", zap.Uint32("offset", off), zap.Uintptr("size", size))
}
