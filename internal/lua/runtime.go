// Package lua provides Golua integration for gravisim.
// It implements the Lua runtime with resource limits, the gfx drawing
// bindings, the simulation API and the script lifecycle hooks.
package lua

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"

	"github.com/arnodel/golua/lib"
	rt "github.com/arnodel/golua/runtime"
)

// RuntimeConfig contains configuration options for the Lua runtime.
type RuntimeConfig struct {
	// CPULimit is the CPU instruction limit of a single Execute or
	// CallFunction. 0 means unlimited.
	CPULimit uint64
	// MemoryLimit is the maximum memory in bytes a single Execute or
	// CallFunction may allocate. 0 means unlimited.
	MemoryLimit uint64
	// Stdout receives print() output in addition to the capture buffer.
	Stdout io.Writer
}

// DefaultConfig returns a RuntimeConfig with a 10,000,000 instruction and
// 50 MB limit, printing to os.Stdout.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		CPULimit:    10_000_000,
		MemoryLimit: 50 * 1024 * 1024,
		Stdout:      os.Stdout,
	}
}

// Runtime wraps a Golua runtime. Calls into Lua are serialized and run
// under the configured resource limits.
//
// Go functions registered with SetGoFunction run while the runtime lock is
// held and must not call back into Runtime methods.
type Runtime struct {
	config  RuntimeConfig
	runtime *rt.Runtime
	output  *bytes.Buffer
	cleanup func()
	mu      sync.RWMutex
}

// New creates a new Runtime with the Lua standard libraries loaded.
func New(config RuntimeConfig) (*Runtime, error) {
	output := &bytes.Buffer{}
	var stdout io.Writer = output
	if config.Stdout != nil {
		stdout = io.MultiWriter(config.Stdout, output)
	}

	r := rt.New(stdout)
	return &Runtime{
		config:  config,
		runtime: r,
		output:  output,
		cleanup: lib.LoadAll(r),
	}, nil
}

func (lr *Runtime) compile(name string, content []byte) (*rt.Closure, error) {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	return lr.runtime.CompileAndLoadLuaChunk(name, content, rt.TableValue(lr.runtime.GlobalEnv()))
}

// LoadString compiles a Lua code string. The result can be run with
// Execute.
func (lr *Runtime) LoadString(name, code string) (*rt.Closure, error) {
	closure, err := lr.compile(name, []byte(code))
	if err != nil {
		return nil, fmt.Errorf("failed to load Lua code: %w", err)
	}
	return closure, nil
}

// LoadFile reads and compiles a Lua file from disk.
func (lr *Runtime) LoadFile(path string) (*rt.Closure, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read Lua file %s: %w", path, err)
	}
	closure, err := lr.compile(path, content)
	if err != nil {
		return nil, fmt.Errorf("failed to load Lua file %s: %w", path, err)
	}
	return closure, nil
}

// LoadFileFromFS reads and compiles a Lua file from fsys.
func (lr *Runtime) LoadFileFromFS(fsys fs.FS, path string) (*rt.Closure, error) {
	content, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read Lua file from FS %s: %w", path, err)
	}
	closure, err := lr.compile(path, content)
	if err != nil {
		return nil, fmt.Errorf("failed to load Lua file %s: %w", path, err)
	}
	return closure, nil
}

// limited runs fn with the resource limits pushed. golua panics when a
// hard limit is reached; the panic is returned as ErrResourceLimit.
// The caller must hold lr.mu.
func (lr *Runtime) limited(fn func(*rt.Thread) (rt.Value, error)) (result rt.Value, err error) {
	lr.runtime.PushContext(rt.RuntimeContextDef{
		HardLimits: rt.RuntimeResources{
			Cpu:    lr.config.CPULimit,
			Memory: lr.config.MemoryLimit,
		},
	})
	defer lr.runtime.PopContext()
	defer func() {
		if r := recover(); r != nil {
			result, err = rt.NilValue, fmt.Errorf("%w: %v", ErrResourceLimit, r)
		}
	}()
	return fn(lr.runtime.MainThread())
}

// Execute runs a compiled closure within the resource limits.
func (lr *Runtime) Execute(closure *rt.Closure) (rt.Value, error) {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	result, err := lr.limited(func(t *rt.Thread) (rt.Value, error) {
		return rt.Call1(t, rt.FunctionValue(closure))
	})
	if err != nil {
		return rt.NilValue, fmt.Errorf("Lua execution error: %w", err)
	}
	return result, nil
}

// ExecuteString compiles and executes a Lua code string.
func (lr *Runtime) ExecuteString(name, code string) (rt.Value, error) {
	closure, err := lr.LoadString(name, code)
	if err != nil {
		return rt.NilValue, err
	}
	return lr.Execute(closure)
}

// ExecuteFile loads and executes a Lua file.
func (lr *Runtime) ExecuteFile(path string) (rt.Value, error) {
	closure, err := lr.LoadFile(path)
	if err != nil {
		return rt.NilValue, err
	}
	return lr.Execute(closure)
}

// GetGlobal retrieves a global variable from the Lua environment.
func (lr *Runtime) GetGlobal(name string) rt.Value {
	lr.mu.RLock()
	defer lr.mu.RUnlock()

	return lr.runtime.GlobalEnv().Get(rt.StringValue(name))
}

// SetGlobal sets a global variable in the Lua environment.
func (lr *Runtime) SetGlobal(name string, value rt.Value) {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	lr.runtime.GlobalEnv().Set(rt.StringValue(name), value)
}

// newGoFunction wraps fn and declares it safe to run under resource limits.
func newGoFunction(name string, fn rt.GoFunctionFunc, nArgs int, hasVarArgs bool) *rt.GoFunction {
	f := rt.NewGoFunction(fn, name, nArgs, hasVarArgs)
	rt.SolemnlyDeclareCompliance(rt.ComplyMemSafe|rt.ComplyCpuSafe, f)
	return f
}

// SetGoFunction registers a Go function as a Lua global.
func (lr *Runtime) SetGoFunction(name string, fn rt.GoFunctionFunc, nArgs int, hasVarArgs bool) {
	lr.SetGlobal(name, rt.FunctionValue(newGoFunction(name, fn, nArgs, hasVarArgs)))
}

// RegisterModule publishes table as the global name and, when the package
// library is loaded, as package.loaded[name] so require(name) returns it.
func (lr *Runtime) RegisterModule(name string, table *rt.Table) {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	v := rt.TableValue(table)
	lr.runtime.GlobalEnv().Set(rt.StringValue(name), v)

	pkg, ok := lr.runtime.Registry(rt.StringValue("package")).TryTable()
	if !ok {
		return
	}
	if loaded, ok := pkg.Get(rt.StringValue("loaded")).TryTable(); ok {
		loaded.Set(rt.StringValue(name), v)
	}
}

// HasFunction reports whether the global name holds a function.
func (lr *Runtime) HasFunction(name string) bool {
	v := lr.GetGlobal(name)
	return v != rt.NilValue && v.Type() == rt.FunctionType
}

// CallFunction calls the global Lua function name within the resource
// limits.
func (lr *Runtime) CallFunction(name string, args ...rt.Value) (rt.Value, error) {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	fn := lr.runtime.GlobalEnv().Get(rt.StringValue(name))
	if fn == rt.NilValue {
		return rt.NilValue, fmt.Errorf("%w: %s", ErrFunctionNotFound, name)
	}

	result, err := lr.limited(func(t *rt.Thread) (rt.Value, error) {
		return rt.Call1(t, fn, args...)
	})
	if err != nil {
		return rt.NilValue, fmt.Errorf("failed to call function %s: %w", name, err)
	}
	return result, nil
}

// Output returns the captured output from Lua print statements.
func (lr *Runtime) Output() string {
	lr.mu.RLock()
	defer lr.mu.RUnlock()

	return lr.output.String()
}

// ClearOutput clears the captured output buffer.
func (lr *Runtime) ClearOutput() {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	lr.output.Reset()
}

// Config returns the runtime configuration.
func (lr *Runtime) Config() RuntimeConfig {
	lr.mu.RLock()
	defer lr.mu.RUnlock()

	return lr.config
}

// Close releases resources associated with the runtime. The runtime must
// not be used afterwards.
func (lr *Runtime) Close() error {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	if lr.cleanup != nil {
		lr.cleanup()
		lr.cleanup = nil
	}
	return nil
}
