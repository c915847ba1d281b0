package lua

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	rt "github.com/arnodel/golua/runtime"
)

func TestHookTypeString(t *testing.T) {
	tests := []struct {
		hook     HookType
		expected string
		luaName  string
	}{
		{HookStartup, "startup", "gravisim_startup"},
		{HookShutdown, "shutdown", "gravisim_shutdown"},
		{HookStep, "step", "gravisim_step"},
		{HookDraw, "draw", "gravisim_draw"},
		{HookInvalid, "invalid", "gravisim_invalid"},
		{HookType(99), "unknown", "gravisim_unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.hook.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
			if got := tt.hook.LuaFunctionName(); got != tt.luaName {
				t.Errorf("LuaFunctionName() = %q, want %q", got, tt.luaName)
			}
		})
	}
}

func TestParseHookType(t *testing.T) {
	for _, h := range []HookType{HookStartup, HookShutdown, HookStep, HookDraw} {
		got, err := ParseHookType(h.String())
		if err != nil || got != h {
			t.Errorf("ParseHookType(%q) = %v, %v", h.String(), got, err)
		}
	}
	if got, err := ParseHookType("main"); err == nil || got != HookInvalid {
		t.Errorf("ParseHookType(main) = %v, %v; want error", got, err)
	}
}

func TestNewHookManagerNilRuntime(t *testing.T) {
	if _, err := NewHookManager(nil); !errors.Is(err, ErrNilRuntime) {
		t.Errorf("error = %v, want ErrNilRuntime", err)
	}
}

func TestRegisterHook(t *testing.T) {
	runtime := newTestRuntime(t)
	if _, err := runtime.ExecuteString("setup", `
		function gravisim_tick() end
		gravisim_value = 3
	`); err != nil {
		t.Fatal(err)
	}

	hm, err := NewHookManager(runtime)
	if err != nil {
		t.Fatal(err)
	}

	if err := hm.RegisterHook(HookStep, "tick"); err != nil {
		t.Fatalf("RegisterHook: %v", err)
	}
	if !hm.IsRegistered(HookStep) {
		t.Error("HookStep should be registered")
	}

	if err := hm.RegisterHook(HookDraw, "missing"); !errors.Is(err, ErrFunctionNotFound) {
		t.Errorf("missing function error = %v", err)
	}
	if err := hm.RegisterHook(HookDraw, "value"); err == nil {
		t.Error("expected error registering a number")
	}
	if hm.IsRegistered(HookDraw) {
		t.Error("failed registration should not register")
	}

	hm.UnregisterHook(HookStep)
	if hm.IsRegistered(HookStep) {
		t.Error("HookStep should be unregistered")
	}
}

func TestCallHook(t *testing.T) {
	runtime := newTestRuntime(t)
	if _, err := runtime.ExecuteString("setup", `
		total = 0
		function gravisim_step(dt)
			total = total + dt
			return total
		end
	`); err != nil {
		t.Fatal(err)
	}

	hm, err := NewHookManager(runtime)
	if err != nil {
		t.Fatal(err)
	}
	if err := hm.RegisterHook(HookStep, "step"); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if _, err := hm.Call(HookStep, rt.FloatValue(0.5)); err != nil {
			t.Fatalf("Call: %v", err)
		}
	}
	if got, _ := runtime.GetGlobal("total").TryFloat(); got != 1.5 {
		t.Errorf("total = %v, want 1.5", got)
	}
}

func TestCallUnregisteredHook(t *testing.T) {
	runtime := newTestRuntime(t)
	hm, err := NewHookManager(runtime)
	if err != nil {
		t.Fatal(err)
	}

	result, err := hm.Call(HookDraw)
	if err != nil {
		t.Errorf("unregistered hook should be a no-op, got %v", err)
	}
	if result != rt.NilValue {
		t.Errorf("result = %v, want nil", result)
	}
}

func TestCallHookError(t *testing.T) {
	runtime := newTestRuntime(t)
	if _, err := runtime.ExecuteString("setup", `
		function gravisim_draw() error("bad draw") end
	`); err != nil {
		t.Fatal(err)
	}
	hm, err := NewHookManager(runtime)
	if err != nil {
		t.Fatal(err)
	}
	hm.AutoRegisterHooks()

	if _, err := hm.Call(HookDraw); err == nil {
		t.Error("expected error from failing hook")
	}
}

func TestAutoRegisterHooks(t *testing.T) {
	runtime := newTestRuntime(t)
	if _, err := runtime.ExecuteString("setup", `
		function gravisim_draw() end
		function gravisim_startup() end
		gravisim_step = "not a function"
	`); err != nil {
		t.Fatal(err)
	}

	hm, err := NewHookManager(runtime)
	if err != nil {
		t.Fatal(err)
	}

	want := []HookType{HookStartup, HookDraw}
	if got := hm.AutoRegisterHooks(); !reflect.DeepEqual(got, want) {
		t.Errorf("AutoRegisterHooks() = %v, want %v", got, want)
	}
	if got := hm.RegisteredHooks(); !reflect.DeepEqual(got, want) {
		t.Errorf("RegisteredHooks() = %v, want %v", got, want)
	}

	hm.Clear()
	if got := hm.RegisteredHooks(); len(got) != 0 {
		t.Errorf("after Clear: %v", got)
	}
}

func TestHookManagerConcurrency(t *testing.T) {
	runtime := newTestRuntime(t)
	if _, err := runtime.ExecuteString("setup", `
		count = 0
		function gravisim_step() count = count + 1 end
	`); err != nil {
		t.Fatal(err)
	}
	hm, err := NewHookManager(runtime)
	if err != nil {
		t.Fatal(err)
	}
	hm.AutoRegisterHooks()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = hm.IsRegistered(HookStep)
			_ = hm.RegisteredHooks()
			if _, err := hm.Call(HookStep); err != nil {
				t.Errorf("Call: %v", err)
			}
		}()
	}
	wg.Wait()

	if got, _ := runtime.GetGlobal("count").TryInt(); got != 10 {
		t.Errorf("count = %d, want 10", got)
	}
}
