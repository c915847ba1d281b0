package lua

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	rt "github.com/arnodel/golua/runtime"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Stdout = nil
	runtime, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create runtime: %v", err)
	}
	t.Cleanup(func() { runtime.Close() })
	return runtime
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.CPULimit != 10_000_000 {
		t.Errorf("expected CPULimit 10000000, got %d", config.CPULimit)
	}
	if config.MemoryLimit != 50*1024*1024 {
		t.Errorf("expected MemoryLimit 50MB, got %d", config.MemoryLimit)
	}
	if config.Stdout != os.Stdout {
		t.Error("expected Stdout to be os.Stdout")
	}
}

func TestNewWithCustomStdout(t *testing.T) {
	var buf bytes.Buffer
	runtime, err := New(RuntimeConfig{Stdout: &buf})
	if err != nil {
		t.Fatalf("failed to create runtime: %v", err)
	}
	defer runtime.Close()

	if _, err := runtime.ExecuteString("test", `print("hello")`); err != nil {
		t.Fatalf("failed to execute: %v", err)
	}
	if buf.String() != "hello\n" {
		t.Errorf("stdout = %q, want %q", buf.String(), "hello\n")
	}
	if runtime.Output() != "hello\n" {
		t.Errorf("captured = %q, want %q", runtime.Output(), "hello\n")
	}
}

func TestExecuteString(t *testing.T) {
	runtime := newTestRuntime(t)

	tests := []struct {
		name       string
		code       string
		wantResult interface{}
		wantErr    bool
	}{
		{"return integer", "return 42", int64(42), false},
		{"return string", `return "hello"`, "hello", false},
		{"return calculation", "return 10 + 20 * 2", int64(50), false},
		{"return nil", "return nil", nil, false},
		{"syntax error", "return {{invalid", nil, true},
		{"runtime error", `error("boom")`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := runtime.ExecuteString(tt.name, tt.code)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExecuteString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			switch expected := tt.wantResult.(type) {
			case int64:
				got, ok := result.TryInt()
				if !ok || got != expected {
					t.Errorf("expected %d, got %v", expected, result)
				}
			case string:
				got, ok := result.TryString()
				if !ok || got != expected {
					t.Errorf("expected %q, got %v", expected, result)
				}
			case nil:
				if result != rt.NilValue {
					t.Errorf("expected nil, got %v", result)
				}
			}
		})
	}
}

func TestLoadFileAndExecuteFile(t *testing.T) {
	runtime := newTestRuntime(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "script.lua")
	if err := os.WriteFile(path, []byte("answer = 6 * 7\nreturn answer"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := runtime.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	result, err := runtime.ExecuteFile(path)
	if err != nil {
		t.Fatalf("ExecuteFile: %v", err)
	}
	if got, ok := result.TryInt(); !ok || got != 42 {
		t.Errorf("result = %v, want 42", result)
	}
	if got, _ := runtime.GetGlobal("answer").TryInt(); got != 42 {
		t.Errorf("global answer = %d, want 42", got)
	}

	if _, err := runtime.LoadFile(filepath.Join(dir, "missing.lua")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFileFromFS(t *testing.T) {
	runtime := newTestRuntime(t)

	fsys := fstest.MapFS{
		"scripts/hud.lua": {Data: []byte(`return "from fs"`)},
	}
	closure, err := runtime.LoadFileFromFS(fsys, "scripts/hud.lua")
	if err != nil {
		t.Fatalf("LoadFileFromFS: %v", err)
	}
	result, err := runtime.Execute(closure)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got, _ := result.TryString(); got != "from fs" {
		t.Errorf("result = %v", result)
	}

	if _, err := runtime.LoadFileFromFS(fsys, "nope.lua"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSetAndGetGlobal(t *testing.T) {
	runtime := newTestRuntime(t)

	runtime.SetGlobal("greeting", rt.StringValue("hi"))
	result, err := runtime.ExecuteString("test", `return greeting .. "!"`)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := result.TryString(); got != "hi!" {
		t.Errorf("result = %q, want %q", got, "hi!")
	}

	if runtime.GetGlobal("undefined_thing") != rt.NilValue {
		t.Error("undefined global should be nil")
	}
}

func TestSetGoFunction(t *testing.T) {
	runtime := newTestRuntime(t)

	runtime.SetGoFunction("double", func(th *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
		n, err := getIntArg(getAllArgs(c), 0)
		if err != nil {
			return nil, err
		}
		return c.PushingNext1(th.Runtime, rt.IntValue(n*2)), nil
	}, 1, false)

	result, err := runtime.ExecuteString("test", "return double(21)")
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := result.TryInt(); got != 42 {
		t.Errorf("double(21) = %v", result)
	}
	if !runtime.HasFunction("double") {
		t.Error("HasFunction(double) = false")
	}
}

func TestCallFunction(t *testing.T) {
	runtime := newTestRuntime(t)

	if _, err := runtime.ExecuteString("setup", `
		function add(a, b) return a + b end
		not_a_function = 5
	`); err != nil {
		t.Fatal(err)
	}

	result, err := runtime.CallFunction("add", rt.IntValue(2), rt.IntValue(3))
	if err != nil {
		t.Fatalf("CallFunction: %v", err)
	}
	if got, _ := result.TryInt(); got != 5 {
		t.Errorf("add(2, 3) = %v", result)
	}

	_, err = runtime.CallFunction("missing")
	if !errors.Is(err, ErrFunctionNotFound) {
		t.Errorf("missing function error = %v, want ErrFunctionNotFound", err)
	}
	if runtime.HasFunction("not_a_function") {
		t.Error("HasFunction should be false for a number")
	}
}

func TestRegisterModule(t *testing.T) {
	runtime := newTestRuntime(t)

	mod := rt.NewTable()
	mod.Set(rt.StringValue("name"), rt.StringValue("demo"))
	runtime.RegisterModule("demo", mod)

	result, err := runtime.ExecuteString("test", `
		local m = require("demo")
		return m.name .. demo.name
	`)
	if err != nil {
		t.Fatalf("require: %v", err)
	}
	if got, _ := result.TryString(); got != "demodemo" {
		t.Errorf("result = %q", got)
	}
}

func TestOutput(t *testing.T) {
	runtime := newTestRuntime(t)

	if _, err := runtime.ExecuteString("test", `print("one") print("two")`); err != nil {
		t.Fatal(err)
	}
	if got := runtime.Output(); got != "one\ntwo\n" {
		t.Errorf("Output() = %q", got)
	}
	runtime.ClearOutput()
	if got := runtime.Output(); got != "" {
		t.Errorf("Output() after clear = %q", got)
	}
}

func TestConfig(t *testing.T) {
	cfg := RuntimeConfig{CPULimit: 123, MemoryLimit: 456}
	runtime, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer runtime.Close()

	got := runtime.Config()
	if got.CPULimit != 123 || got.MemoryLimit != 456 {
		t.Errorf("Config() = %+v", got)
	}
}

func TestClose(t *testing.T) {
	runtime, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := runtime.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := runtime.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestResourceLimits(t *testing.T) {
	runtime, err := New(RuntimeConfig{CPULimit: 1000, MemoryLimit: 50 * 1024 * 1024})
	if err != nil {
		t.Fatal(err)
	}
	defer runtime.Close()

	_, err = runtime.ExecuteString("loop", `while true do end`)
	if !errors.Is(err, ErrResourceLimit) {
		t.Fatalf("infinite loop error = %v, want ErrResourceLimit", err)
	}

	runtime2, err := New(RuntimeConfig{CPULimit: 1000})
	if err != nil {
		t.Fatal(err)
	}
	defer runtime2.Close()
	if _, err := runtime2.ExecuteString("setup", `function spin() while true do end end`); err != nil {
		t.Fatal(err)
	}
	_, err = runtime2.CallFunction("spin")
	if !errors.Is(err, ErrResourceLimit) {
		t.Errorf("CallFunction error = %v, want ErrResourceLimit", err)
	}
	if err != nil && !strings.Contains(err.Error(), "spin") {
		t.Errorf("error should name the function: %v", err)
	}
}
