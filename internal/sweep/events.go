package sweep

// EventKind tags the messages the engine emits toward the operator surface.
type EventKind string

const (
	EventProgress    EventKind = "progress"
	EventDataPoint   EventKind = "data_point"
	EventInfo        EventKind = "info"
	EventError       EventKind = "error"
	EventButtonState EventKind = "button_state"
	EventDone        EventKind = "done"
)

// Event is one tagged message. Only the fields relevant to Kind are set.
type Event struct {
	Kind          EventKind
	Progress      int    // EventProgress, 0..100
	Sample        Sample // EventDataPoint
	Message       string // EventInfo, EventError
	ButtonEnabled bool   // EventButtonState
}

// Queue is the one-directional event channel between the sweep worker and its
// consumer. Sends never block: if the consumer drains slower than the worker
// emits, intermediate events are dropped. Progress is idempotently overwritten
// on the consumer side, so dropped progress events are harmless.
type Queue struct {
	ch chan Event
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 64
	}
	return &Queue{ch: make(chan Event, size)}
}

// TrySend enqueues e without blocking. Reports whether the event was accepted.
func (q *Queue) TrySend(e Event) bool {
	select {
	case q.ch <- e:
		return true
	default:
		return false
	}
}

// Events is the consumer side. The channel is closed by Close.
func (q *Queue) Events() <-chan Event { return q.ch }

// Close signals the consumer that no further events will be sent. Only the
// producer may call it, exactly once.
func (q *Queue) Close() { close(q.ch) }
