package ir

import "fmt"

// EventType enumerates the MHEG-5 event types a Link condition can name.
type EventType int

const (
	IsAvailable EventType = iota + 1
	ContentAvailable
	IsDeleted
	IsRunning
	IsStopped
	UserInput
	AnchorFired
	TimerFired
	AsynchStopped
	InteractionCompleted
	TokenMovedFrom
	TokenMovedTo
	StreamEvent
	StreamPlaying
	StreamStopped
	CounterTrigger
	HighlightOn
	HighlightOff
	CursorEnter
	CursorLeave
	IsSelected
	IsDeselected
	TestEvent
	FirstItemPresented
	LastItemPresented
	HeadItems
	TailItems
	ItemSelected
	ItemDeselected
	EntryFieldFull
	EngineEvent
	FocusMoved
	SliderValueChanged
)

type eventInfo struct {
	name  string
	async bool
}

// eventTable is the fixed sync/async classification.
var eventTable = map[EventType]eventInfo{
	IsAvailable:          {"IsAvailable", false},
	ContentAvailable:     {"ContentAvailable", true},
	IsDeleted:            {"IsDeleted", false},
	IsRunning:            {"IsRunning", false},
	IsStopped:            {"IsStopped", false},
	UserInput:            {"UserInput", true},
	AnchorFired:          {"AnchorFired", true},
	TimerFired:           {"TimerFired", true},
	AsynchStopped:        {"AsynchStopped", true},
	InteractionCompleted: {"InteractionCompleted", true},
	TokenMovedFrom:       {"TokenMovedFrom", false},
	TokenMovedTo:         {"TokenMovedTo", false},
	StreamEvent:          {"StreamEvent", true},
	StreamPlaying:        {"StreamPlaying", true},
	StreamStopped:        {"StreamStopped", true},
	CounterTrigger:       {"CounterTrigger", true},
	HighlightOn:          {"HighlightOn", false},
	HighlightOff:         {"HighlightOff", false},
	CursorEnter:          {"CursorEnter", true},
	CursorLeave:          {"CursorLeave", true},
	IsSelected:           {"IsSelected", false},
	IsDeselected:         {"IsDeselected", false},
	TestEvent:            {"TestEvent", false},
	FirstItemPresented:   {"FirstItemPresented", false},
	LastItemPresented:    {"LastItemPresented", false},
	HeadItems:            {"HeadItems", false},
	TailItems:            {"TailItems", false},
	ItemSelected:         {"ItemSelected", false},
	ItemDeselected:       {"ItemDeselected", false},
	EntryFieldFull:       {"EntryFieldFull", false},
	EngineEvent:          {"EngineEvent", true},
	FocusMoved:           {"FocusMoved", true},
	SliderValueChanged:   {"SliderValueChanged", false},
}

var eventsByName = func() map[string]EventType {
	m := make(map[string]EventType, len(eventTable))
	for t, info := range eventTable {
		m[info.name] = t
	}
	return m
}()

// IsAsync reports whether events of type t are queued rather than matched
// at generation time.
func (t EventType) IsAsync() bool {
	return eventTable[t].async
}

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	_, ok := eventTable[t]
	return ok
}

func (t EventType) String() string {
	if info, ok := eventTable[t]; ok {
		return info.name
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// ParseEventType looks up an event type by its MHEG name.
func ParseEventType(name string) (EventType, error) {
	if t, ok := eventsByName[name]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("unknown event type %q", name)
}

// Engine event codes carried as EngineEvent data.
const (
	EngineGroupIDRefError Int = 2
	EngineContentRefError Int = 3
	EngineTextKeyFunction Int = 4
)
