package ffitypes

import (
	"unicode/utf8"
	"unsafe"
)

// CharStringView is a borrowed view over raw text bytes. It makes no UTF-8
// claim: it is the type to reach for when text arrives from outside and has
// not been validated yet. Freely copyable; never owns memory.
type CharStringView struct {
	data *byte
	len  uintptr
}

// CharView constructs a text view from a raw pointer and byte count,
// substituting the sentinel for nil.
func CharView(data *byte, n uintptr) CharStringView {
	return CharStringView{data: wrapNil(data), len: n}
}

// CharViewString captures the address and length of a Go string. The view
// must not outlive s.
func CharViewString(s string) CharStringView {
	return CharView(unsafe.StringData(s), uintptr(len(s)))
}

// CharViewBytes captures the address and length of a byte buffer.
func CharViewBytes(b []byte) CharStringView {
	return CharView(unsafe.SliceData(b), uintptr(len(b)))
}

// CharViewCString constructs a view over a NUL-terminated string,
// measuring its length. A nil pointer yields the null view. The terminator
// is not part of the view.
func CharViewCString(p *byte) CharStringView {
	if p == nil {
		return NullCharView()
	}
	n := uintptr(0)
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return CharStringView{data: p, len: n}
}

// NullCharView returns the empty view: sentinel pointer, zero length.
func NullCharView() CharStringView {
	return CharStringView{data: sentinel[byte](), len: 0}
}

// Len returns the byte count.
func (v CharStringView) Len() int { return int(v.len) }

// Empty reports whether the view has zero length.
func (v CharStringView) Empty() bool { return v.len == 0 }

// Data returns the data pointer. For an empty view this is the sentinel.
func (v CharStringView) Data() *byte { return v.data }

// At returns the byte at index i. Bounds are validated only under the
// boundscheck tag.
func (v CharStringView) At(i int) byte {
	assertIndex(i, int(v.len))
	return *(*byte)(unsafe.Add(unsafe.Pointer(v.data), uintptr(i)))
}

// View reinterprets the bytes as a Go string without copying. The result
// aliases native memory and shares the view's lifetime bound.
func (v CharStringView) View() string {
	if v.len == 0 {
		return ""
	}
	return unsafe.String(v.data, v.len)
}

// Bytes reinterprets the view as a borrowed byte slice.
func (v CharStringView) Bytes() Slice[byte] {
	return Slice[byte]{data: v.data, len: v.len}
}

// String copies the bytes into a fresh Go string. Unlike View, the result
// does not alias native memory.
func (v CharStringView) String() string {
	return string(v.Bytes().View())
}

// Equal reports content equality with another view.
func (v CharStringView) Equal(other CharStringView) bool {
	return v.View() == other.View()
}

// EqualString reports content equality with a Go string.
func (v CharStringView) EqualString(s string) bool {
	return v.View() == s
}

// AsStringUnchecked asserts the view contains valid UTF-8 and reinterprets
// it as a StringView. Nothing is checked; a false assertion is a contract
// violation.
func (v CharStringView) AsStringUnchecked() StringView {
	return StringView{data: v.data, len: v.len}
}

// ToStringView validates the bytes and returns a StringView, or false if
// the content is not UTF-8. This is the checked companion of
// AsStringUnchecked.
func (v CharStringView) ToStringView() (StringView, bool) {
	if !utf8.ValidString(v.View()) {
		return StringView{}, false
	}
	return v.AsStringUnchecked(), true
}

// StringView is a CharStringView whose creator has asserted valid UTF-8.
// It adds no fields, only the type-level promise. The only legal sources
// are borrowing from an OwnedString, an explicit unchecked conversion, and
// the null sentinel form.
type StringView struct {
	data *byte
	len  uintptr
}

// NullStringView returns the empty validated view.
func NullStringView() StringView {
	return StringView{data: sentinel[byte](), len: 0}
}

// Len returns the byte count.
func (v StringView) Len() int { return int(v.len) }

// Empty reports whether the view has zero length.
func (v StringView) Empty() bool { return v.len == 0 }

// Data returns the data pointer. For an empty view this is the sentinel.
func (v StringView) Data() *byte { return v.data }

// View reinterprets the bytes as a Go string without copying.
func (v StringView) View() string {
	return v.AsCharView().View()
}

// String copies the bytes into a fresh Go string.
func (v StringView) String() string {
	return v.AsCharView().String()
}

// Bytes reinterprets the view as a borrowed byte slice.
func (v StringView) Bytes() Slice[byte] {
	return Slice[byte]{data: v.data, len: v.len}
}

// AsCharView drops the UTF-8 promise, which is always safe.
func (v StringView) AsCharView() CharStringView {
	return CharStringView{data: v.data, len: v.len}
}

// ToBoundary copies the view into its boundary twin. Borrowed views own
// nothing, so the conversion is repeatable.
func (v StringView) ToBoundary() BoundaryStringView {
	return BoundaryStringView{data: v.data, len: v.len}
}

// BoundaryStringView is the crossing representation of StringView.
type BoundaryStringView struct {
	data *byte
	len  uintptr
}

// Reclaim rebuilds the borrowed validated view.
func (c BoundaryStringView) Reclaim() StringView {
	return StringView{data: wrapNil(c.data), len: c.len}
}

// OwnedString owns a UTF-8-asserted byte buffer allocated by the native
// side. Mechanically it is an owned byte slice; it differs only in exposing
// the string read interface and in forwarding drop and clone through the
// Runtime collaborator's string entry points.
type OwnedString struct {
	data *byte
	len  uintptr
	rt   Runtime
}

// WrapString constructs an owning handle from a pointer/length pair whose
// content the native side guarantees is valid UTF-8.
func WrapString(data *byte, n uintptr, rt Runtime) OwnedString {
	return OwnedString{data: wrapNil(data), len: n, rt: rt}
}

// EmptyOwnedString returns an owned string holding nothing. Closing it
// never calls into the runtime.
func EmptyOwnedString(rt Runtime) OwnedString {
	return OwnedString{data: sentinel[byte](), len: 0, rt: rt}
}

// Len returns the byte count.
func (s *OwnedString) Len() int { return int(s.len) }

// Empty reports whether the handle owns nothing.
func (s *OwnedString) Empty() bool { return s.len == 0 }

// View borrows a validated string view. Valid only while the handle still
// owns the memory.
func (s *OwnedString) View() StringView {
	return StringView{data: s.data, len: s.len}
}

// CharView borrows the raw text view.
func (s *OwnedString) CharView() CharStringView {
	return CharStringView{data: s.data, len: s.len}
}

// Bytes borrows the underlying byte view.
func (s *OwnedString) Bytes() Slice[byte] {
	return Slice[byte]{data: s.data, len: s.len}
}

// String copies the content into a fresh Go string.
func (s *OwnedString) String() string {
	return s.CharView().String()
}

// Release returns the raw pointer/length pair and empties the handle. No
// drop fires for this handle afterward.
func (s *OwnedString) Release() Range[byte] {
	r := Range[byte]{Data: s.data, Len: s.len}
	s.data = sentinel[byte]()
	s.len = 0
	return r
}

// Reset drops any currently owned buffer, then takes ownership of r. The
// caller asserts r holds valid UTF-8.
func (s *OwnedString) Reset(r Range[byte]) {
	if s.len > 0 {
		s.rt.DropBoxedString(s.ToBoundary())
	}
	s.data = wrapNil(r.Data)
	s.len = r.Len
}

// Move transfers ownership into the returned handle and leaves the receiver
// empty.
func (s *OwnedString) Move() OwnedString {
	r := s.Release()
	return OwnedString{data: r.Data, len: r.Len, rt: s.rt}
}

// Clone asks the native side for a deep copy and wraps the new allocation.
// The receiver is only borrowed.
func (s *OwnedString) Clone() OwnedString {
	borrowed := BoundaryString{data: s.data, len: s.len}
	fresh := s.rt.CloneBoxedString(&borrowed)
	return ReclaimString(&fresh, s.rt)
}

// Close forwards the buffer to the native drop entry point exactly once,
// then leaves the handle inert. Safe on an empty or moved-from handle.
func (s *OwnedString) Close() {
	if s.len == 0 {
		return
	}
	s.rt.DropBoxedString(s.ToBoundary())
}

// ToBoundary releases the buffer into a boundary twin. The receiver becomes
// empty; the twin must be reclaimed or handed to the native side, or the
// allocation leaks.
func (s *OwnedString) ToBoundary() BoundaryString {
	r := s.Release()
	return BoundaryString{data: r.Data, len: r.Len}
}

// BoundaryString is the crossing representation of OwnedString: pointer
// then length, no destructor, must be consumed.
type BoundaryString struct {
	data *byte
	len  uintptr
}

// Range returns the pointer/length pair without consuming the twin.
func (c *BoundaryString) Range() Range[byte] {
	return Range[byte]{Data: c.data, Len: c.len}
}

// Len returns the byte count.
func (c *BoundaryString) Len() int { return int(c.len) }

// Release detaches the pointer/length pair, clearing the twin to the empty
// sentinel state.
func (c *BoundaryString) Release() Range[byte] {
	r := Range[byte]{Data: c.data, Len: c.len}
	c.data = sentinel[byte]()
	c.len = 0
	return r
}

// ReclaimString converts a boundary twin back into an owning handle,
// consuming the twin. Inverse of OwnedString.ToBoundary.
func ReclaimString(c *BoundaryString, rt Runtime) OwnedString {
	r := c.Release()
	return OwnedString{data: wrapNil(r.Data), len: r.Len, rt: rt}
}
