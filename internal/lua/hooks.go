package lua

import (
	"fmt"
	"sort"
	"sync"

	rt "github.com/arnodel/golua/runtime"
)

// HookPrefix starts the name of every lifecycle function a script may
// define.
const HookPrefix = "gravisim_"

// HookType represents the points at which gravisim calls into a script.
type HookType int

const (
	// HookInvalid represents an invalid or unknown hook type.
	HookInvalid HookType = iota

	// HookStartup is called once after the script is loaded.
	HookStartup

	// HookShutdown is called once before the script is unloaded, on exit
	// or reload.
	HookShutdown

	// HookStep is called after every simulation step with the step size.
	HookStep

	// HookDraw is called each frame after the bodies are drawn and before
	// the HUD. Drawing functions are only valid inside it.
	HookDraw
)

// String returns the string representation of a HookType.
func (h HookType) String() string {
	switch h {
	case HookStartup:
		return "startup"
	case HookShutdown:
		return "shutdown"
	case HookStep:
		return "step"
	case HookDraw:
		return "draw"
	case HookInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// LuaFunctionName returns the Lua function name for a hook type.
func (h HookType) LuaFunctionName() string {
	return HookPrefix + h.String()
}

// ParseHookType parses a string into a HookType.
func ParseHookType(s string) (HookType, error) {
	switch s {
	case "startup":
		return HookStartup, nil
	case "shutdown":
		return HookShutdown, nil
	case "step":
		return HookStep, nil
	case "draw":
		return HookDraw, nil
	default:
		return HookInvalid, fmt.Errorf("unknown hook type: %s", s)
	}
}

// HookManager tracks which lifecycle functions a script defines and
// calls them.
type HookManager struct {
	runtime *Runtime
	hooks   map[HookType]string // hook type to function name without prefix
	mu      sync.RWMutex
}

// NewHookManager creates a new HookManager for the given runtime.
func NewHookManager(runtime *Runtime) (*HookManager, error) {
	if runtime == nil {
		return nil, ErrNilRuntime
	}
	return &HookManager{
		runtime: runtime,
		hooks:   make(map[HookType]string),
	}, nil
}

// RegisterHook makes funcName (without the gravisim_ prefix) the function
// called for hookType. The function must already be defined.
func (hm *HookManager) RegisterHook(hookType HookType, funcName string) error {
	fullName := HookPrefix + funcName
	fn := hm.runtime.GetGlobal(fullName)
	if fn == rt.NilValue {
		return fmt.Errorf("%w: %s", ErrFunctionNotFound, fullName)
	}
	if fn.Type() != rt.FunctionType {
		return fmt.Errorf("%s is not a function (type: %v)", fullName, fn.Type())
	}

	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.hooks[hookType] = funcName
	return nil
}

// UnregisterHook removes a hook registration.
func (hm *HookManager) UnregisterHook(hookType HookType) {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	delete(hm.hooks, hookType)
}

// IsRegistered returns true if a hook is registered for the given type.
func (hm *HookManager) IsRegistered(hookType HookType) bool {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	_, ok := hm.hooks[hookType]
	return ok
}

// Call invokes the hook registered for hookType. It is a no-op when no
// hook is registered.
func (hm *HookManager) Call(hookType HookType, args ...rt.Value) (rt.Value, error) {
	hm.mu.RLock()
	funcName, ok := hm.hooks[hookType]
	hm.mu.RUnlock()

	if !ok {
		return rt.NilValue, nil
	}

	result, err := hm.runtime.CallFunction(HookPrefix+funcName, args...)
	if err != nil {
		return rt.NilValue, fmt.Errorf("hook %s execution failed: %w", hookType, err)
	}
	return result, nil
}

// AutoRegisterHooks registers every gravisim_<hook> function the script
// defines and returns their types in ascending order.
func (hm *HookManager) AutoRegisterHooks() []HookType {
	all := []HookType{HookStartup, HookShutdown, HookStep, HookDraw}

	found := make([]HookType, 0, len(all))
	for _, h := range all {
		if hm.runtime.HasFunction(h.LuaFunctionName()) {
			found = append(found, h)
		}
	}

	hm.mu.Lock()
	for _, h := range found {
		hm.hooks[h] = h.String()
	}
	hm.mu.Unlock()

	return found
}

// RegisteredHooks returns the registered hook types in ascending order.
func (hm *HookManager) RegisteredHooks() []HookType {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	hooks := make([]HookType, 0, len(hm.hooks))
	for h := range hm.hooks {
		hooks = append(hooks, h)
	}
	sort.Slice(hooks, func(i, j int) bool { return hooks[i] < hooks[j] })
	return hooks
}

// Clear removes all hook registrations.
func (hm *HookManager) Clear() {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	hm.hooks = make(map[HookType]string)
}
