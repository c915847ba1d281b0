package gravisim

import "time"

// DefaultShutdownTimeout is how long Stop waits for a frontend to return.
const DefaultShutdownTimeout = 5 * time.Second

// Options configures an App.
type Options struct {
	// Headless makes Run step the simulation without opening a window, as
	// does a configured frontend of "headless".
	// Overlay scripts still run and draw into an off-screen canvas.
	Headless bool

	// ScriptCPULimit overrides the configured instruction limit of one
	// overlay hook call. Zero keeps the configured value.
	ScriptCPULimit uint64

	// ScriptMemoryLimit overrides the configured memory limit of one
	// overlay hook call. Zero keeps the configured value.
	ScriptMemoryLimit uint64

	// ShutdownTimeout bounds Stop. Zero means DefaultShutdownTimeout.
	ShutdownTimeout time.Duration

	// Logger receives lifecycle messages. nil disables logging.
	// The SSH server logs through it only when it is a *SlogAdapter.
	Logger Logger

	// Metrics collects operational counters. nil uses DefaultMetrics().
	Metrics *Metrics

	// ErrorTracker aggregates reported errors. nil uses
	// DefaultErrorTracker().
	ErrorTracker *ErrorTracker

	// WatchConfig reloads the configuration file and the overlay script
	// when either changes on disk. Only configurations loaded with New can
	// be watched.
	WatchConfig bool

	// WatchDebounce coalesces bursts of file events. Zero means
	// DefaultWatchDebounce.
	WatchDebounce time.Duration

	// WatchMemory logs sustained heap or goroutine growth while serving.
	WatchMemory bool
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{}
}

// Logger interface for custom logging.
// It follows the slog-style signature for compatibility with Go's structured logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
