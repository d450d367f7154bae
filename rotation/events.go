package rotation

import "github.com/go-gl/mathgl/mgl64"

const (
	ROTATION_START EventType = iota
	ROTATION_UPDATE
	ROTATION_END
	ROTATION_ABORT
)

type EventType uint8

// Event interface - all gesture events implement this
type Event interface {
	Type() EventType
}

// StartEvent is emitted when a drag gesture begins
type StartEvent struct {
	Base mgl64.Mat3
}

func (e StartEvent) Type() EventType { return ROTATION_START }

// UpdateEvent carries the provisional matrix of an ongoing drag
type UpdateEvent struct {
	Matrix mgl64.Mat3
}

func (e UpdateEvent) Type() EventType { return ROTATION_UPDATE }

// EndEvent carries the committed matrix, the base of the next gesture
type EndEvent struct {
	Matrix mgl64.Mat3
}

func (e EndEvent) Type() EventType { return ROTATION_END }

// AbortEvent carries the restored base matrix
type AbortEvent struct {
	Base mgl64.Mat3
}

func (e AbortEvent) Type() EventType { return ROTATION_ABORT }

// EventListener - callback for events
type EventListener func(event Event)

// Events manager
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event
}

func NewEvents() Events {
	return Events{
		listeners: make(map[EventType][]EventListener),
		buffer:    make([]Event, 0, 16),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	if e.listeners == nil {
		e.listeners = make(map[EventType][]EventListener)
	}
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

func (e *Events) emit(event Event) {
	e.buffer = append(e.buffer, event)
}

// Pending returns the number of buffered events
func (e *Events) Pending() int {
	return len(e.buffer)
}

// Flush sends all buffered events, in emission order, and clears the buffer.
// Call it once per UI tick, after input has been fed to the composer.
func (e *Events) Flush() {
	for _, event := range e.buffer {
		if listeners, ok := e.listeners[event.Type()]; ok {
			for _, listener := range listeners {
				listener(event)
			}
		}
	}
	e.buffer = e.buffer[:0]
}
