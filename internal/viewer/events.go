package viewer

import (
	"github.com/mapfront/mapfront-viewer/internal/domain"
)

// Event is a notification dispatched into the application state container.
type Event interface {
	// EventType returns the wire name of the event.
	EventType() string
}

// InitAppEvent carries the payload of a completed bootstrap.
type InitAppEvent struct {
	Payload *domain.InitPayload
}

// InitErrorEvent carries the structured record of a failed bootstrap. The
// orchestrator dispatches it exactly once, for any failure at any step.
type InitErrorEvent struct {
	Error        ErrorRecord
	IncludeStack bool
	Options      Options
}

// SetLocaleEvent announces that a non-default locale bundle was registered
// and UI strings may be switched.
type SetLocaleEvent struct {
	Locale string
}

// AcknowledgeWarningsEvent dismisses the startup warnings list.
type AcknowledgeWarningsEvent struct{}

func (InitAppEvent) EventType() string             { return "INIT_APP" }
func (InitErrorEvent) EventType() string           { return "INIT_ERROR" }
func (SetLocaleEvent) EventType() string           { return "SET_LOCALE" }
func (AcknowledgeWarningsEvent) EventType() string { return "INIT_ACKNOWLEDGE_WARNINGS" }

// ErrorRecord is the wire form of a fatal bootstrap error.
type ErrorRecord struct {
	Message string   `json:"message"`
	Stack   []string `json:"stack"`
}

// Dispatcher receives bootstrap events. The gateway implements it to relay
// events to connected clients; tests implement it to capture them.
type Dispatcher interface {
	Dispatch(event Event)
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(event Event)

func (f DispatcherFunc) Dispatch(event Event) {
	f(event)
}
