package track

// Kind identifies what family of handle an allocation backs.
type Kind uint8

const (
	KindBytes Kind = iota
	KindString
	KindBox
)

func (k Kind) String() string {
	switch k {
	case KindBytes:
		return "bytes"
	case KindString:
		return "string"
	case KindBox:
		return "box"
	}
	return "unknown"
}

// Allocation describes one live native-side allocation.
type Allocation struct {
	Ptr  uintptr
	Size uintptr
	Kind Kind
	Seq  uint64 // insertion order, assigned by the table
}

// EventType describes an allocation lifecycle transition.
type EventType uint8

const (
	EventInserted EventType = iota
	EventRemoved
	EventCloned
)

// Event represents an allocation lifecycle event.
type Event struct {
	Type       EventType
	Allocation Allocation
}

// Observer receives notifications about allocation lifecycle events.
type Observer interface {
	OnAllocationEvent(Event)
}
