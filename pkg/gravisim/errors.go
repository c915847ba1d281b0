package gravisim

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/gravisim/internal/lua"
	"github.com/opd-ai/gravisim/internal/server"
	"github.com/opd-ai/gravisim/internal/sim"
	"github.com/opd-ai/gravisim/pkg/gfx"
)

var (
	// ErrInvalidConfig wraps configuration validation failures.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrScript wraps overlay script failures.
	ErrScript = errors.New("overlay script failed")
	// ErrAlreadyRunning is returned when a frontend is started while
	// another one runs.
	ErrAlreadyRunning = errors.New("gravisim instance already running")
	// ErrNoWindow is returned by Run in builds without a window frontend.
	ErrNoWindow = errors.New("window frontend not available in this build")
)

// ErrorCategory classifies reported errors for alerting.
type ErrorCategory int

const (
	ErrorCategoryUnknown ErrorCategory = iota
	ErrorCategoryConfig
	ErrorCategoryLua
	ErrorCategoryRender
	ErrorCategorySim
	ErrorCategoryServer
	ErrorCategoryIO

	numCategories
)

func (c ErrorCategory) String() string {
	switch c {
	case ErrorCategoryConfig:
		return "config"
	case ErrorCategoryLua:
		return "lua"
	case ErrorCategoryRender:
		return "render"
	case ErrorCategorySim:
		return "sim"
	case ErrorCategoryServer:
		return "server"
	case ErrorCategoryIO:
		return "io"
	default:
		return "unknown"
	}
}

// Categorize derives the category of err from the sentinel errors it
// wraps, falling back to fallback.
func Categorize(err error, fallback ErrorCategory) ErrorCategory {
	var pathErr *fs.PathError
	switch {
	case err == nil:
		return fallback
	case errors.Is(err, ErrInvalidConfig):
		return ErrorCategoryConfig
	case errors.Is(err, ErrScript), errors.Is(err, lua.ErrResourceLimit),
		errors.Is(err, lua.ErrNoCanvas), errors.Is(err, ErrCircuitOpen):
		return ErrorCategoryLua
	case errors.Is(err, gfx.ErrInvalidGeometry), errors.Is(err, gfx.ErrInvalidParameter),
		errors.Is(err, gfx.ErrCanvasWrite):
		return ErrorCategoryRender
	case errors.Is(err, sim.ErrInvalidBody):
		return ErrorCategorySim
	case errors.Is(err, server.ErrTooManySessions):
		return ErrorCategoryServer
	case errors.As(err, &pathErr):
		return ErrorCategoryIO
	default:
		return fallback
	}
}

// ErrorSeverity is the urgency of a reported error.
type ErrorSeverity int

const (
	SeverityInfo ErrorSeverity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

func (s ErrorSeverity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// CategorizedError is the error type handed to ErrorHandler.
type CategorizedError struct {
	Err       error
	Category  ErrorCategory
	Severity  ErrorSeverity
	Timestamp time.Time
	// Context holds extra key-value details, e.g. the frontend.
	Context map[string]string
}

func (e *CategorizedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s/%s] (no error)", e.Severity, e.Category)
	}
	return fmt.Sprintf("[%s/%s] %s", e.Severity, e.Category, e.Err)
}

func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// NewCategorizedError stamps err with the current time.
func NewCategorizedError(err error, category ErrorCategory, severity ErrorSeverity) *CategorizedError {
	return &CategorizedError{
		Err:       err,
		Category:  category,
		Severity:  severity,
		Timestamp: time.Now(),
		Context:   make(map[string]string),
	}
}

// WithContext adds a key-value pair and returns e.
func (e *CategorizedError) WithContext(key, value string) *CategorizedError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// AlertCondition fires when Threshold matching errors are recorded within
// Window. ErrorCategoryUnknown matches every category.
type AlertCondition struct {
	Category    ErrorCategory
	MinSeverity ErrorSeverity
	Threshold   int
	Window      time.Duration
}

// AlertHandler is called in its own goroutine when a condition fires.
type AlertHandler func(condition AlertCondition, count int, recent []CategorizedError)

// ErrorTrackerConfig configures an ErrorTracker.
type ErrorTrackerConfig struct {
	// MaxErrors bounds the retained errors (default 1000).
	MaxErrors int
	// RetentionTime drops older errors (default 1h).
	RetentionTime time.Duration
	// AlertCooldown is the minimum time between alerts of one condition
	// (default 5m).
	AlertCooldown time.Duration
}

// DefaultErrorTrackerConfig returns the defaults listed on
// ErrorTrackerConfig.
func DefaultErrorTrackerConfig() ErrorTrackerConfig {
	return ErrorTrackerConfig{
		MaxErrors:     1000,
		RetentionTime: time.Hour,
		AlertCooldown: 5 * time.Minute,
	}
}

// ErrorTracker keeps a window of recent errors and raises alerts.
// Thread-safe for concurrent use.
type ErrorTracker struct {
	cfg ErrorTrackerConfig

	mu         sync.RWMutex
	errors     []CategorizedError
	conditions []AlertCondition
	handlers   []AlertHandler
	lastAlert  map[int]time.Time

	totals [numCategories]atomic.Int64
}

// NewErrorTracker creates a tracker; zero fields of cfg take defaults.
func NewErrorTracker(cfg ErrorTrackerConfig) *ErrorTracker {
	def := DefaultErrorTrackerConfig()
	if cfg.MaxErrors <= 0 {
		cfg.MaxErrors = def.MaxErrors
	}
	if cfg.RetentionTime <= 0 {
		cfg.RetentionTime = def.RetentionTime
	}
	if cfg.AlertCooldown <= 0 {
		cfg.AlertCooldown = def.AlertCooldown
	}
	return &ErrorTracker{
		cfg:       cfg,
		lastAlert: make(map[int]time.Time),
	}
}

// AddCondition registers an alert condition.
func (t *ErrorTracker) AddCondition(cond AlertCondition) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conditions = append(t.conditions, cond)
}

// SetAlertHandler adds a handler called for every condition that fires.
func (t *ErrorTracker) SetAlertHandler(handler AlertHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers = append(t.handlers, handler)
}

// Record stores err and evaluates the alert conditions.
func (t *ErrorTracker) Record(err *CategorizedError) {
	if err == nil {
		return
	}
	if err.Category >= 0 && err.Category < numCategories {
		t.totals[err.Category].Add(1)
	}

	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()

	t.errors = append(t.errors, *err)
	if len(t.errors) > t.cfg.MaxErrors {
		t.errors = t.errors[len(t.errors)-t.cfg.MaxErrors:]
	}
	t.prune(now)

	for i, cond := range t.conditions {
		if last, ok := t.lastAlert[i]; ok && now.Sub(last) < t.cfg.AlertCooldown {
			continue
		}
		count, recent := t.matching(cond, now)
		if count < cond.Threshold {
			continue
		}
		t.lastAlert[i] = now
		for _, h := range t.handlers {
			go func(h AlertHandler, cond AlertCondition) {
				defer func() { _ = recover() }()
				h(cond, count, recent)
			}(h, cond)
		}
	}
}

// prune drops errors older than the retention time; mu must be held.
func (t *ErrorTracker) prune(now time.Time) {
	cutoff := now.Add(-t.cfg.RetentionTime)
	i := 0
	for i < len(t.errors) && t.errors[i].Timestamp.Before(cutoff) {
		i++
	}
	t.errors = t.errors[i:]
}

// matching counts the errors of cond's window and returns up to ten of
// the newest; mu must be held.
func (t *ErrorTracker) matching(cond AlertCondition, now time.Time) (int, []CategorizedError) {
	cutoff := now.Add(-cond.Window)
	count := 0
	var recent []CategorizedError
	for i := len(t.errors) - 1; i >= 0; i-- {
		e := t.errors[i]
		if e.Timestamp.Before(cutoff) {
			break
		}
		if cond.Category != ErrorCategoryUnknown && e.Category != cond.Category {
			continue
		}
		if e.Severity < cond.MinSeverity {
			continue
		}
		count++
		if len(recent) < 10 {
			recent = append(recent, e)
		}
	}
	return count, recent
}

// ErrorRate returns the errors per second recorded within window.
func (t *ErrorTracker) ErrorRate(window time.Duration) float64 {
	if window <= 0 {
		return 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	cutoff := time.Now().Add(-window)
	n := 0
	for _, e := range t.errors {
		if e.Timestamp.After(cutoff) {
			n++
		}
	}
	return float64(n) / window.Seconds()
}

// ErrorStats summarizes an ErrorTracker.
type ErrorStats struct {
	// Retained is the number of errors in the retention window.
	Retained   int
	ByCategory map[ErrorCategory]int
	BySeverity map[ErrorSeverity]int
	// Totals counts every error ever recorded, per category.
	Totals map[ErrorCategory]int64
}

// Stats returns the current statistics.
func (t *ErrorTracker) Stats() ErrorStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := ErrorStats{
		Retained:   len(t.errors),
		ByCategory: make(map[ErrorCategory]int),
		BySeverity: make(map[ErrorSeverity]int),
		Totals:     make(map[ErrorCategory]int64),
	}
	for _, e := range t.errors {
		stats.ByCategory[e.Category]++
		stats.BySeverity[e.Severity]++
	}
	for c := ErrorCategory(0); c < numCategories; c++ {
		if n := t.totals[c].Load(); n > 0 {
			stats.Totals[c] = n
		}
	}
	return stats
}

// RecentErrors returns up to limit of the newest errors, oldest first.
func (t *ErrorTracker) RecentErrors(limit int) []CategorizedError {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if limit <= 0 || len(t.errors) == 0 {
		return nil
	}
	start := max(len(t.errors)-limit, 0)
	return append([]CategorizedError(nil), t.errors[start:]...)
}

// Clear removes all retained errors and alert cooldowns.
func (t *ErrorTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errors = t.errors[:0]
	t.lastAlert = make(map[int]time.Time)
}

var (
	defaultErrorTracker     *ErrorTracker
	defaultErrorTrackerOnce sync.Once
)

// DefaultErrorTracker returns the process-wide tracker.
func DefaultErrorTracker() *ErrorTracker {
	defaultErrorTrackerOnce.Do(func() {
		defaultErrorTracker = NewErrorTracker(DefaultErrorTrackerConfig())
	})
	return defaultErrorTracker
}
