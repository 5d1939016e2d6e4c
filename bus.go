package jobpulse

import (
	"fmt"
	"log/slog"
	"reflect"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
)

// eventBus is the in-process publish/subscribe registry for lifecycle events.
//
// The bus records every dispatched event in an ordered in-memory history and
// notifies subscribed handlers synchronously, in registration order. Handler
// failures are isolated: a panicking handler is recovered and logged, and the
// remaining handlers for the same event are still notified.
//
// The registry and history are guarded by a mutex so a client may be driven
// and observed from more than one goroutine, though the engine itself runs a
// single polling loop per wait call.
type eventBus struct {
	logger *slog.Logger

	mu       sync.Mutex
	handlers map[EventType][]Handler
	history  []Event
}

func newEventBus(logger *slog.Logger) *eventBus {
	return &eventBus{
		logger:   logger,
		handlers: make(map[EventType][]Handler),
	}
}

// subscribe registers a handler for an event type. Nil handlers are ignored.
func (b *eventBus) subscribe(t EventType, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

// unsubscribe removes the first registration of h for the event type.
//
// Handlers are matched by function identity, so the same function value
// passed to subscribe must be passed here. A handler that was never
// registered is a no-op.
func (b *eventBus) unsubscribe(t EventType, h Handler) {
	if h == nil {
		return
	}
	ptr := reflect.ValueOf(h).Pointer()

	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.handlers[t]
	for i, existing := range list {
		if reflect.ValueOf(existing).Pointer() == ptr {
			b.handlers[t] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// dispatch appends the event to the history and notifies every handler
// subscribed to its type.
//
// The handler list is snapshotted under the lock and invoked outside it, so
// handlers may safely subscribe or unsubscribe without deadlocking.
func (b *eventBus) dispatch(e Event) {
	b.mu.Lock()
	b.history = append(b.history, e)
	snapshot := append([]Handler(nil), b.handlers[e.Type]...)
	b.mu.Unlock()

	for _, h := range snapshot {
		b.invoke(h, e)
	}
}

// invoke calls a handler with panic recovery.
// If the handler panics, the full stack trace is logged with a correlation
// ID and dispatch continues with the remaining handlers.
func (b *eventBus) invoke(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			b.logger.Error("event handler panic",
				"correlation_id", correlationID,
				"event_type", e.Type.String(),
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	h(e)
}

// events returns a copy of the event history in dispatch order.
func (b *eventBus) events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Event(nil), b.history...)
}
