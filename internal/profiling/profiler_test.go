package profiling

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestProfilerStartStop(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		CPUProfilePath: filepath.Join(dir, "cpu.prof"),
		MemProfilePath: filepath.Join(dir, "mem.prof"),
	}
	p := New(cfg)

	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !p.IsRunning() {
		t.Error("IsRunning() should be true after Start()")
	}
	if err := p.Start(); !errors.Is(err, ErrRunning) {
		t.Errorf("second Start() error = %v, want ErrRunning", err)
	}

	if err := p.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if p.IsRunning() {
		t.Error("IsRunning() should be false after Stop()")
	}

	for _, path := range []string{cfg.CPUProfilePath, cfg.MemProfilePath} {
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("profile %s: %v", path, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("profile %s is empty", path)
		}
	}
}

func TestProfilerStopWithoutStart(t *testing.T) {
	if err := New(Config{}).Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stop() error = %v, want ErrNotRunning", err)
	}
}

func TestProfilerWithoutPaths(t *testing.T) {
	p := New(Config{})
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestProfilerBadPath(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing", "cpu.prof")
	if err := New(Config{CPUProfilePath: missing}).Start(); err == nil {
		t.Error("Start() with an unwritable path should fail")
	}

	p := New(Config{MemProfilePath: filepath.Join(dir, "missing", "mem.prof")})
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := p.Stop(); err == nil {
		t.Error("Stop() with an unwritable heap profile path should fail")
	}
	if p.IsRunning() {
		t.Error("a failed Stop() still stops the profiler")
	}
}

func TestConfigEnabled(t *testing.T) {
	tests := []struct {
		cfg  Config
		want bool
	}{
		{Config{}, false},
		{Config{CPUProfilePath: "cpu.prof"}, true},
		{Config{MemProfilePath: "mem.prof"}, true},
	}
	for _, tt := range tests {
		if got := tt.cfg.Enabled(); got != tt.want {
			t.Errorf("%+v.Enabled() = %v, want %v", tt.cfg, got, tt.want)
		}
	}
}
