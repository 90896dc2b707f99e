package sim

import "heartbeat/internal/beat"

type EventType int

const (
	EventBeat EventType = iota
	EventAudioToggled
)

type Event struct {
	Type    EventType
	Frame   int
	Elapsed float64
	Beat    beat.State
	Audio   bool // audio-enabled flag at emission
}

type EventHandler func(Event)

// EventBus dispatches synchronously on the frame loop.
type EventBus struct {
	handlers map[EventType][]EventHandler
}

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventType][]EventHandler),
	}
}

func (eb *EventBus) Subscribe(t EventType, fn EventHandler) {
	eb.handlers[t] = append(eb.handlers[t], fn)
}

func (eb *EventBus) Emit(e Event) {
	for _, fn := range eb.handlers[e.Type] {
		fn(e)
	}
}
