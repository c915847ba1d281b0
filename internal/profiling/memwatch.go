package profiling

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"
)

// Byte size units for FormatBytes.
const (
	KB = 1024
	MB = KB * 1024
	GB = MB * 1024
)

// Sample is one heap and goroutine measurement.
type Sample struct {
	Time        time.Time
	HeapAlloc   uint64
	HeapObjects uint64
	Goroutines  int
}

// ReadSample measures the running process.
func ReadSample() Sample {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return Sample{
		Time:        time.Now(),
		HeapAlloc:   ms.HeapAlloc,
		HeapObjects: ms.HeapObjects,
		Goroutines:  runtime.NumGoroutine(),
	}
}

// Growth compares the oldest and newest sample in the window.
type Growth struct {
	Span           time.Duration
	HeapDelta      int64
	GoroutineDelta int
	// Rate is the heap growth in bytes per second.
	Rate float64
	// Leak is set when a threshold was crossed; Reason says which.
	Leak   bool
	Reason string
}

// String formats g for a log line.
func (g Growth) String() string {
	sign := "+"
	d := g.HeapDelta
	if d < 0 {
		sign, d = "-", -d
	}
	s := fmt.Sprintf("heap %s%s over %s (%.2f KB/s), goroutines %+d",
		sign, FormatBytes(uint64(d)), g.Span.Round(time.Second), g.Rate/KB, g.GoroutineDelta)
	if g.Leak {
		s += ": " + g.Reason
	}
	return s
}

// WatchConfig configures a MemoryWatch.
type WatchConfig struct {
	// Interval is the time between samples.
	Interval time.Duration
	// Window is the number of samples kept.
	Window int
	// MaxRate is the sustained heap growth in bytes per second treated as
	// a leak.
	MaxRate int64
	// MaxGoroutines is the goroutine increase treated as a leak.
	MaxGoroutines int
}

// DefaultWatchConfig samples every 10 seconds over a window of 100 samples
// and flags 1 MB/s of growth or 10 extra goroutines.
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		Interval:      10 * time.Second,
		Window:        100,
		MaxRate:       MB,
		MaxGoroutines: 10,
	}
}

// MemoryWatch samples the heap periodically and reports sustained growth.
// The SSH server runs one so sessions that leak scenes or goroutines show
// up in the log.
type MemoryWatch struct {
	cfg     WatchConfig
	mu      sync.Mutex
	samples []Sample
	onLeak  func(Growth)
}

// NewMemoryWatch creates a watch. Zero fields of cfg take their defaults.
func NewMemoryWatch(cfg WatchConfig) *MemoryWatch {
	def := DefaultWatchConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Window < 2 {
		cfg.Window = def.Window
	}
	if cfg.MaxRate <= 0 {
		cfg.MaxRate = def.MaxRate
	}
	if cfg.MaxGoroutines <= 0 {
		cfg.MaxGoroutines = def.MaxGoroutines
	}
	return &MemoryWatch{cfg: cfg}
}

// OnLeak sets the function called from Run when growth crosses a
// threshold. nil disables it.
func (w *MemoryWatch) OnLeak(fn func(Growth)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onLeak = fn
}

// Add records s, dropping the oldest sample when the window is full.
func (w *MemoryWatch) Add(s Sample) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.samples = append(w.samples, s)
	if len(w.samples) > w.cfg.Window {
		w.samples = w.samples[1:]
	}
}

// Len returns the number of samples in the window.
func (w *MemoryWatch) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.samples)
}

// Growth analyses the window. ok is false with fewer than two samples or a
// zero time span.
func (w *MemoryWatch) Growth() (g Growth, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.samples) < 2 {
		return Growth{}, false
	}
	first, last := w.samples[0], w.samples[len(w.samples)-1]
	span := last.Time.Sub(first.Time)
	if span <= 0 {
		return Growth{}, false
	}

	g = Growth{
		Span:           span,
		HeapDelta:      int64(last.HeapAlloc) - int64(first.HeapAlloc),
		GoroutineDelta: last.Goroutines - first.Goroutines,
	}
	g.Rate = float64(g.HeapDelta) / span.Seconds()

	switch {
	case g.Rate > float64(w.cfg.MaxRate):
		g.Leak = true
		g.Reason = fmt.Sprintf("heap growth above %s/s", FormatBytes(uint64(w.cfg.MaxRate)))
	case g.GoroutineDelta > w.cfg.MaxGoroutines:
		g.Leak = true
		g.Reason = fmt.Sprintf("%d goroutines more than at the start of the window", g.GoroutineDelta)
	}
	return g, true
}

// Run samples until ctx is done.
func (w *MemoryWatch) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	w.Add(ReadSample())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Add(ReadSample())
			g, ok := w.Growth()
			if !ok || !g.Leak {
				continue
			}
			w.mu.Lock()
			fn := w.onLeak
			w.mu.Unlock()
			if fn != nil {
				fn(g)
			}
		}
	}
}

// FormatBytes formats a byte count with a binary unit.
func FormatBytes(n uint64) string {
	switch {
	case n >= GB:
		return fmt.Sprintf("%.2f GB", float64(n)/GB)
	case n >= MB:
		return fmt.Sprintf("%.2f MB", float64(n)/MB)
	case n >= KB:
		return fmt.Sprintf("%.2f KB", float64(n)/KB)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
