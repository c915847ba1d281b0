package profiling

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestMemoryWatchGrowth(t *testing.T) {
	start := time.Unix(1000, 0)
	tests := []struct {
		name       string
		samples    []Sample
		ok, leak   bool
		reasonPart string
	}{
		{
			name:    "single sample",
			samples: []Sample{{Time: start}},
		},
		{
			name:    "zero span",
			samples: []Sample{{Time: start}, {Time: start}},
		},
		{
			name: "steady",
			samples: []Sample{
				{Time: start, HeapAlloc: 10 * MB, Goroutines: 5},
				{Time: start.Add(10 * time.Second), HeapAlloc: 10*MB + KB, Goroutines: 6},
			},
			ok: true,
		},
		{
			name: "heap leak",
			samples: []Sample{
				{Time: start, HeapAlloc: MB},
				{Time: start.Add(10 * time.Second), HeapAlloc: 31 * MB},
			},
			ok:         true,
			leak:       true,
			reasonPart: "heap growth",
		},
		{
			name: "goroutine leak",
			samples: []Sample{
				{Time: start, Goroutines: 5},
				{Time: start.Add(time.Second), Goroutines: 50},
			},
			ok:         true,
			leak:       true,
			reasonPart: "45 goroutines",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewMemoryWatch(WatchConfig{})
			for _, s := range tt.samples {
				w.Add(s)
			}
			g, ok := w.Growth()
			if ok != tt.ok {
				t.Fatalf("Growth() ok = %v, want %v", ok, tt.ok)
			}
			if g.Leak != tt.leak {
				t.Errorf("Leak = %v, want %v (%s)", g.Leak, tt.leak, g)
			}
			if !strings.Contains(g.Reason, tt.reasonPart) {
				t.Errorf("Reason = %q, want it to contain %q", g.Reason, tt.reasonPart)
			}
		})
	}
}

func TestMemoryWatchWindow(t *testing.T) {
	w := NewMemoryWatch(WatchConfig{Window: 3})
	start := time.Unix(0, 0)
	for i := 0; i < 5; i++ {
		w.Add(Sample{Time: start.Add(time.Duration(i) * time.Second), HeapAlloc: uint64(i) * KB})
	}
	if w.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", w.Len())
	}
	g, ok := w.Growth()
	if !ok || g.Span != 2*time.Second || g.HeapDelta != 2*KB {
		t.Errorf("Growth() = %+v, %v, want the last three samples", g, ok)
	}
}

func TestMemoryWatchRun(t *testing.T) {
	w := NewMemoryWatch(WatchConfig{Interval: time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	w.Run(ctx)
	if w.Len() < 2 {
		t.Errorf("Len() = %d after Run, want several samples", w.Len())
	}
}

func TestGrowthString(t *testing.T) {
	g := Growth{Span: 10 * time.Second, HeapDelta: -2 * MB, GoroutineDelta: 3}
	s := g.String()
	if !strings.Contains(s, "-2.00 MB") || !strings.Contains(s, "+3") {
		t.Errorf("String() = %q", s)
	}

	g.Leak, g.Reason = true, "too much"
	if !strings.HasSuffix(g.String(), ": too much") {
		t.Errorf("String() = %q, want the reason", g.String())
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    uint64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{KB, "1.00 KB"},
		{1536 * KB, "1.50 MB"},
		{3 * GB, "3.00 GB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.n); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
