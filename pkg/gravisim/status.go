package gravisim

import "time"

// Status is a snapshot of an App's state.
type Status struct {
	// Running is true while a frontend runs.
	Running bool
	// Frontend names the running frontend, or the last one run.
	Frontend string
	// StartTime is when the frontend started (zero if never started).
	StartTime time.Time
	// Reloads counts successful configuration reloads.
	Reloads uint64
	// Bodies is the number of bodies in the main scene.
	Bodies int
	// Sessions is the number of SSH viewers connected.
	Sessions int
	// LastError is the most recent error reported (nil if none).
	LastError error
	// ConfigSource is the configuration path, "embedded:<path>" or "reader".
	ConfigSource string
}

// ErrorHandler receives runtime errors. It is called asynchronously and
// must not block.
type ErrorHandler func(err error)

// EventHandler receives lifecycle events. It is called asynchronously and
// must not block.
type EventHandler func(event Event)

// Event is a lifecycle event.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Message   string
}

// EventType enumerates lifecycle events. Compare against the constants;
// the numeric values may change.
type EventType int

const (
	// EventStarted is emitted when a frontend starts.
	EventStarted EventType = iota
	// EventStopped is emitted when a frontend returns.
	EventStopped
	// EventConfigReloaded is emitted after a successful reload.
	EventConfigReloaded
	// EventScriptLoaded is emitted when an overlay script is (re)loaded.
	EventScriptLoaded
	// EventError is emitted for every reported error.
	EventError
)

func (e EventType) String() string {
	switch e {
	case EventStarted:
		return "started"
	case EventStopped:
		return "stopped"
	case EventConfigReloaded:
		return "config_reloaded"
	case EventScriptLoaded:
		return "script_loaded"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}
