package gravisim

import (
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"time"

	rt "github.com/arnodel/golua/runtime"

	"github.com/opd-ai/gravisim/internal/config"
	"github.com/opd-ai/gravisim/internal/lua"
	"github.com/opd-ai/gravisim/internal/render"
	"github.com/opd-ai/gravisim/pkg/gfx"
)

// scriptOverlay runs a Lua script as the scene's overlay. Hooks are
// guarded by a circuit breaker: once it opens, Step and Draw skip the
// script silently until the breaker lets a trial call through.
type scriptOverlay struct {
	path    string
	runtime *lua.Runtime
	hooks   *lua.HookManager
	gfx     *lua.GfxBindings
	breaker *CircuitBreaker
	metrics *Metrics
	scene   *render.Scene
}

var _ render.Overlay = (*scriptOverlay)(nil)

// overlaySpec is what loadOverlay needs besides the scene.
type overlaySpec struct {
	script  config.ScriptConfig
	fsys    fs.FS // nil reads from disk
	stdout  io.Writer
	metrics *Metrics
	breaker CircuitBreakerConfig
}

// loadOverlay compiles and runs the script against scene and calls its
// startup hook. The overlay is not attached; see render.Scene.SetOverlay.
func loadOverlay(scene *render.Scene, spec overlaySpec) (*scriptOverlay, error) {
	runtime, err := lua.New(lua.RuntimeConfig{
		CPULimit:    spec.script.CPULimit,
		MemoryLimit: spec.script.MemoryLimit,
		Stdout:      spec.stdout,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: runtime: %w", ErrScript, err)
	}
	o := &scriptOverlay{
		path:    spec.script.Path,
		runtime: runtime,
		breaker: NewCircuitBreaker(spec.breaker),
		metrics: spec.metrics,
		scene:   scene,
	}
	if o.metrics == nil {
		o.metrics = DefaultMetrics()
	}
	if err := o.init(spec.fsys); err != nil {
		runtime.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrScript, spec.script.Path, err)
	}
	o.metrics.IncrementScriptLoads()
	return o, nil
}

func (o *scriptOverlay) init(fsys fs.FS) error {
	var err error
	if o.gfx, err = lua.NewGfxBindings(o.runtime); err != nil {
		return err
	}
	if _, err = lua.NewSimAPI(o.runtime, o.scene.Provider()); err != nil {
		return err
	}
	if o.hooks, err = lua.NewHookManager(o.runtime); err != nil {
		return err
	}

	var chunk *rt.Closure
	if fsys != nil {
		chunk, err = o.runtime.LoadFileFromFS(fsys, o.path)
	} else {
		chunk, err = o.runtime.LoadFile(o.path)
	}
	if err != nil {
		return err
	}

	w, h := o.scene.Size()
	o.gfx.UpdateWindowInfo(w, h)

	// The chunk and the startup hook may call into the simulation.
	o.scene.Do(func() {
		if _, err = o.runtime.Execute(chunk); err != nil {
			return
		}
		o.hooks.AutoRegisterHooks()
		_, err = o.hooks.Call(lua.HookStartup)
	})
	return err
}

// call runs one hook through the breaker.
func (o *scriptOverlay) call(hook lua.HookType, args ...rt.Value) error {
	if !o.hooks.IsRegistered(hook) {
		return nil
	}
	err := o.breaker.Execute(func() error {
		start := time.Now()
		_, err := o.hooks.Call(hook, args...)
		o.metrics.IncrementLuaCalls()
		o.metrics.RecordLuaLatency(time.Since(start))
		return err
	})
	switch {
	case errors.Is(err, ErrCircuitOpen):
		return nil
	case err != nil:
		o.metrics.IncrementLuaErrors()
		return fmt.Errorf("%w: %w", ErrScript, err)
	}
	return nil
}

// Step calls gravisim_step(dt).
func (o *scriptOverlay) Step(dt float64) error {
	return o.call(lua.HookStep, rt.FloatValue(dt))
}

// Draw calls gravisim_draw with c bound to the gfx functions.
func (o *scriptOverlay) Draw(c gfx.Canvas) error {
	if b, ok := c.(interface{ Bounds() image.Rectangle }); ok {
		o.gfx.UpdateWindowInfo(b.Bounds().Dx(), b.Bounds().Dy())
	}
	unbind := o.gfx.Bind(c)
	defer unbind()
	return o.call(lua.HookDraw)
}

// State reports the breaker state.
func (o *scriptOverlay) State() CircuitState {
	return o.breaker.State()
}

// Close calls the shutdown hook and releases the runtime. The overlay must
// be detached from the scene first.
func (o *scriptOverlay) Close() error {
	var err error
	o.scene.Do(func() {
		_, err = o.hooks.Call(lua.HookShutdown)
	})
	if cerr := o.runtime.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("%w: shutdown: %w", ErrScript, err)
	}
	return nil
}
