package ffitypes

import "unsafe"

// test helpers

// testRuntime is a counting native-side stand-in. It pins every buffer it
// hands out so the Go heap serves as the "native" allocator, and records
// each collaborator call so tests can assert drop/clone counts.
type testRuntime struct {
	pinned      map[*byte][]byte
	dropStrs    int
	dropBytes   int
	cloneStrs   int
	cloneBytes  int
	lastDropPtr *byte
}

func newTestRuntime() *testRuntime {
	return &testRuntime{pinned: map[*byte][]byte{}}
}

func (r *testRuntime) alloc(content []byte) (*byte, uintptr) {
	if len(content) == 0 {
		return nil, 0
	}
	buf := append([]byte(nil), content...)
	p := &buf[0]
	r.pinned[p] = buf
	return p, uintptr(len(buf))
}

// newString builds an owned string backed by this runtime.
func (r *testRuntime) newString(s string) OwnedString {
	p, n := r.alloc([]byte(s))
	return WrapString(p, n, r)
}

// newBytes builds an owned byte slice backed by this runtime.
func (r *testRuntime) newBytes(b []byte) OwnedBytes {
	p, n := r.alloc(b)
	return WrapSlice(p, n, BytesDrop(r))
}

func (r *testRuntime) free(p *byte) {
	if _, ok := r.pinned[p]; !ok {
		panic("testRuntime: drop of unknown pointer")
	}
	delete(r.pinned, p)
}

func (r *testRuntime) DropBoxedString(b BoundaryString) {
	r.dropStrs++
	if rg := b.Release(); rg.Len > 0 {
		r.lastDropPtr = rg.Data
		r.free(rg.Data)
	}
}

func (r *testRuntime) DropBoxedBytes(b BoundaryOwnedBytes) {
	r.dropBytes++
	if rg := b.Release(); rg.Len > 0 {
		r.lastDropPtr = rg.Data
		r.free(rg.Data)
	}
}

func (r *testRuntime) CloneBoxedString(b *BoundaryString) BoundaryString {
	r.cloneStrs++
	rg := b.Range()
	p, n := r.alloc(unsafe.Slice(rg.Data, rg.Len))
	return BoundaryString{data: wrapNil(p), len: n}
}

func (r *testRuntime) CloneBoxedBytes(b *BoundaryOwnedBytes) BoundaryOwnedBytes {
	r.cloneBytes++
	rg := b.Range()
	p, n := r.alloc(unsafe.Slice(rg.Data, rg.Len))
	return BoundaryOwnedBytes{data: wrapNil(p), len: n}
}

func (r *testRuntime) live() int { return len(r.pinned) }
