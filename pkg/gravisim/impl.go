package gravisim

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/gravisim/internal/config"
	"github.com/opd-ai/gravisim/internal/render"
	"github.com/opd-ai/gravisim/internal/server"
)

// appImpl is the private implementation of App.
type appImpl struct {
	// Configuration
	cfg          *config.Config // replaced, never mutated
	opts         Options
	configSource string
	configPath   string // empty unless loaded from disk
	fsys         fs.FS
	configLoader func() (*config.Config, error)

	logger  Logger
	metrics *Metrics
	tracker *ErrorTracker

	// Components of the running frontend
	scene   *render.Scene
	overlay *scriptOverlay
	srv     *server.SSHServer
	watcher *fileWatcher

	// State
	running   atomic.Bool
	frontend  string
	startTime time.Time
	reloads   atomic.Uint64
	lastError atomic.Pointer[CategorizedError]

	errorHandler ErrorHandler
	eventHandler EventHandler

	mu     sync.RWMutex
	cancel context.CancelFunc
	done   chan struct{}
}

var _ App = (*appImpl)(nil)

// begin marks the instance running under frontend and returns the context
// the frontend runs with. Every successful begin must be paired with end.
func (a *appImpl) begin(parent context.Context, frontend string) (context.Context, error) {
	a.mu.Lock()
	if a.running.Load() {
		a.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(parent)
	a.cancel = cancel
	a.done = make(chan struct{})
	a.frontend = frontend
	a.startTime = time.Now()
	a.running.Store(true)
	a.mu.Unlock()

	a.metrics.IncrementStarts()
	a.metrics.SetRunning(true)
	if a.opts.WatchConfig {
		a.startWatcher()
	}
	a.logger.Info("gravisim started", "frontend", frontend, "config", a.configSource)
	a.emitEvent(EventStarted, frontend+" started")
	return ctx, nil
}

// end releases what begin and the frontend acquired.
func (a *appImpl) end() {
	a.mu.Lock()
	watcher := a.watcher
	a.watcher = nil
	a.mu.Unlock()
	// A reload in flight finishes before the scene is torn down.
	if watcher != nil {
		watcher.Stop()
	}

	a.mu.Lock()
	scene, overlay := a.scene, a.overlay
	a.scene, a.overlay = nil, nil
	cancel, done := a.cancel, a.done
	a.cancel = nil
	a.mu.Unlock()

	if overlay != nil {
		a.closeOverlay(scene, overlay)
	}
	cancel()

	a.running.Store(false)
	a.metrics.SetRunning(false)
	a.metrics.IncrementStops()
	close(done)
	a.logger.Info("gravisim stopped")
	a.emitEvent(EventStopped, "stopped")
}

// Stop cancels the running frontend and waits for it to return.
func (a *appImpl) Stop() error {
	a.mu.RLock()
	cancel, done := a.cancel, a.done
	a.mu.RUnlock()
	if cancel == nil {
		return nil
	}
	cancel()

	timeout := a.opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		err := fmt.Errorf("shutdown timeout after %v", timeout)
		a.notifyError(err, ErrorCategoryUnknown, SeverityCritical)
		return err
	}
}

// Reload re-reads the configuration. A running scene takes the new
// settings in place, keeping its bodies and canvas size; SSH sessions
// already connected keep theirs.
func (a *appImpl) Reload() error {
	cfg, err := a.configLoader()
	if err != nil {
		wrapped := fmt.Errorf("config reload failed: %w", err)
		a.notifyError(wrapped, ErrorCategoryConfig, SeverityError)
		return wrapped
	}
	a.logWarnings(cfg)

	a.mu.Lock()
	a.cfg = cfg
	scene, old, watcher := a.scene, a.overlay, a.watcher
	a.overlay = nil
	a.mu.Unlock()

	if watcher != nil && a.fsys == nil && cfg.Script.Path != "" {
		if err := watcher.track(cfg.Script.Path); err != nil {
			a.logger.Warn("cannot watch overlay script", "path", cfg.Script.Path, "error", err)
		}
	}

	if scene != nil {
		rc := render.ConfigFrom(cfg)
		rc.Width, rc.Height = scene.Size()
		if err := scene.Apply(rc, cfg.Sim); err != nil {
			wrapped := fmt.Errorf("apply config: %w", err)
			a.notifyError(wrapped, ErrorCategoryConfig, SeverityError)
			return wrapped
		}
		scene.SetOverlay(nil)
		if old != nil {
			a.closeOverlay(scene, old)
		}
		if o := a.loadOverlay(scene, cfg); o != nil {
			a.mu.Lock()
			a.overlay = o
			a.mu.Unlock()
			scene.SetOverlay(o)
		}
	}

	a.reloads.Add(1)
	a.metrics.IncrementConfigReloads()
	a.logger.Info("configuration reloaded", "config", a.configSource)
	a.emitEvent(EventConfigReloaded, "configuration reloaded")
	return nil
}

func (a *appImpl) current() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// Config returns a copy of the current configuration.
func (a *appImpl) Config() config.Config {
	c := *a.current()
	c.Sim.Bodies = append([]config.BodySpec(nil), c.Sim.Bodies...)
	c.Text.Template = append([]string(nil), c.Text.Template...)
	return c
}

func (a *appImpl) IsRunning() bool {
	return a.running.Load()
}

func (a *appImpl) Status() Status {
	a.mu.RLock()
	st := Status{
		Running:      a.running.Load(),
		Frontend:     a.frontend,
		StartTime:    a.startTime,
		Reloads:      a.reloads.Load(),
		ConfigSource: a.configSource,
	}
	scene, srv := a.scene, a.srv
	a.mu.RUnlock()

	if scene != nil {
		st.Bodies = scene.Stats().Bodies
	}
	if srv != nil {
		st.Sessions = srv.Active()
	}
	if err := a.lastError.Load(); err != nil {
		st.LastError = err
	}
	return st
}

func (a *appImpl) Metrics() *Metrics {
	return a.metrics
}

func (a *appImpl) SetErrorHandler(handler ErrorHandler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errorHandler = handler
}

func (a *appImpl) SetEventHandler(handler EventHandler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.eventHandler = handler
}

// Health reports the state of the frontend and its components.
func (a *appImpl) Health() HealthCheck {
	now := time.Now()
	running := a.running.Load()

	a.mu.RLock()
	frontend, start := a.frontend, a.startTime
	scene, overlay, srv := a.scene, a.overlay, a.srv
	a.mu.RUnlock()

	components := make(map[string]ComponentHealth)
	if running {
		components["frontend"] = ComponentHealth{HealthOK, frontend + " running", now}
	} else {
		components["frontend"] = ComponentHealth{HealthUnhealthy, "not running", now}
	}
	if scene != nil {
		components["scene"] = ComponentHealth{HealthOK, fmt.Sprintf("%d bodies", scene.Stats().Bodies), now}
	}
	if overlay != nil {
		switch state := overlay.State(); state {
		case CircuitClosed:
			components["overlay"] = ComponentHealth{HealthOK, overlay.path, now}
		default:
			components["overlay"] = ComponentHealth{HealthDegraded, "script disabled, circuit " + state.String(), now}
		}
	}
	if srv != nil {
		components["server"] = ComponentHealth{HealthOK, fmt.Sprintf("%d sessions", srv.Active()), now}
	}
	if err := a.lastError.Load(); err != nil {
		components["errors"] = ComponentHealth{HealthDegraded, err.Error(), err.Timestamp}
	} else {
		components["errors"] = ComponentHealth{HealthOK, "no recent errors", now}
	}

	check := HealthCheck{Timestamp: now, Components: components}
	if !running {
		check.Status = HealthUnhealthy
		check.Message = "not running"
		return check
	}
	check.Uptime = now.Sub(start)
	check.Status = worst(components)
	switch check.Status {
	case HealthOK:
		check.Message = "all components healthy"
	default:
		check.Message = "running with degraded components"
	}
	return check
}

// newScene builds a scene from cfg, sized w by h when both are positive.
func (a *appImpl) newScene(cfg *config.Config, w, h int) (*render.Scene, error) {
	rc := render.ConfigFrom(cfg)
	if w > 0 && h > 0 {
		rc.Width, rc.Height = w, h
	}
	scene, err := render.NewScene(rc, cfg.Sim)
	if err != nil {
		return nil, fmt.Errorf("create scene: %w", err)
	}
	scene.SetErrorHandler(a.frameError)
	return scene, nil
}

// mainScene creates the scene of a window, terminal or headless run with
// the overlay attached and records both for Reload, Status and Health.
func (a *appImpl) mainScene() (*render.Scene, error) {
	cfg := a.current()
	scene, err := a.newScene(cfg, 0, 0)
	if err != nil {
		return nil, err
	}
	o := a.loadOverlay(scene, cfg)
	if o != nil {
		scene.SetOverlay(o)
	}
	a.mu.Lock()
	a.scene, a.overlay = scene, o
	a.mu.Unlock()
	return scene, nil
}

// loadOverlay loads the configured script for scene. Failures are reported
// and leave the scene without an overlay.
func (a *appImpl) loadOverlay(scene *render.Scene, cfg *config.Config) *scriptOverlay {
	if cfg.Script.Path == "" {
		return nil
	}
	script := cfg.Script
	if a.opts.ScriptCPULimit > 0 {
		script.CPULimit = a.opts.ScriptCPULimit
	}
	if a.opts.ScriptMemoryLimit > 0 {
		script.MemoryLimit = a.opts.ScriptMemoryLimit
	}
	breaker := DefaultCircuitBreakerConfig()
	breaker.OnStateChange = func(from, to CircuitState) {
		a.logger.Warn("overlay circuit changed", "from", from.String(), "to", to.String())
	}

	o, err := loadOverlay(scene, overlaySpec{
		script:  script,
		fsys:    a.fsys,
		stdout:  scriptOutput{a.logger},
		metrics: a.metrics,
		breaker: breaker,
	})
	if err != nil {
		a.logger.Error("overlay not loaded", "path", script.Path, "error", err)
		a.notifyError(err, ErrorCategoryLua, SeverityError)
		return nil
	}
	a.logger.Info("overlay loaded", "path", script.Path, "hooks", len(o.hooks.RegisteredHooks()))
	a.emitEvent(EventScriptLoaded, script.Path)
	return o
}

func (a *appImpl) closeOverlay(scene *render.Scene, o *scriptOverlay) {
	if scene != nil {
		scene.SetOverlay(nil)
	}
	if err := o.Close(); err != nil {
		a.logger.Warn("overlay shutdown failed", "error", err)
		a.notifyError(err, ErrorCategoryLua, SeverityWarning)
	}
}

// scriptOutput logs what overlay scripts print.
type scriptOutput struct {
	logger Logger
}

func (s scriptOutput) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		s.logger.Info("script", "output", line)
	}
	return len(p), nil
}

// startWatcher watches the configuration file and the overlay script.
func (a *appImpl) startWatcher() {
	if a.configPath == "" {
		a.logger.Warn("configuration watching needs a file on disk", "config", a.configSource)
		return
	}
	w, err := newFileWatcher([]string{a.configPath, a.current().Script.Path}, a.opts.WatchDebounce, a.Reload, func(err error) {
		a.logger.Warn("watch error", "error", err)
	})
	if err != nil {
		a.logger.Warn("cannot watch configuration", "error", err)
		a.notifyError(err, ErrorCategoryIO, SeverityWarning)
		return
	}
	a.mu.Lock()
	a.watcher = w
	a.mu.Unlock()
	w.Start()
}

func (a *appImpl) logWarnings(cfg *config.Config) {
	for _, w := range config.NewValidator().Validate(cfg).Warnings {
		a.logger.Warn("configuration warning", "field", w.Field, "message", w.Message)
	}
}

// frameError is the error handler of every scene the instance creates.
// Frame errors are logged and reported; the frame loop keeps going.
func (a *appImpl) frameError(err error) {
	a.logger.Warn("frame error", "error", err)
	a.notifyError(err, ErrorCategoryRender, SeverityWarning)
}

// notifyError records err and hands it to the error handler.
func (a *appImpl) notifyError(err error, fallback ErrorCategory, severity ErrorSeverity) {
	var ce *CategorizedError
	if !errors.As(err, &ce) {
		ce = NewCategorizedError(err, Categorize(err, fallback), severity)
	}
	a.mu.RLock()
	handler := a.errorHandler
	frontend := a.frontend
	a.mu.RUnlock()
	if frontend != "" {
		ce.WithContext("frontend", frontend)
	}

	a.lastError.Store(ce)
	a.tracker.Record(ce)
	a.metrics.IncrementErrors()

	if handler != nil {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					a.logger.Error("error handler panicked", "panic", r, "original_error", ce)
				}
			}()
			handler(ce)
		}()
	}
	a.emitEvent(EventError, ce.Error())
}

func (a *appImpl) emitEvent(eventType EventType, message string) {
	a.metrics.IncrementEventsEmitted()

	a.mu.RLock()
	handler := a.eventHandler
	a.mu.RUnlock()
	if handler == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				a.logger.Error("event handler panicked", "panic", r, "event", eventType.String())
			}
		}()
		handler(Event{Type: eventType, Timestamp: time.Now(), Message: message})
	}()
}
