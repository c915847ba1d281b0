package config

import (
	"fmt"
	"image/color"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/arnodel/golua/lib"
	rt "github.com/arnodel/golua/runtime"
)

// Resource limits for evaluating a configuration file.
const (
	configCPULimit    = 10_000_000
	configMemoryLimit = 50 * 1024 * 1024
)

// LuaConfigParser evaluates Lua configuration files. The file fills the
// gravisim global: gravisim.config (settings table), gravisim.text (HUD
// template) and gravisim.bodies (initial bodies).
type LuaConfigParser struct {
	runtime *rt.Runtime
	cleanup func()
	mu      sync.Mutex
}

// NewLuaConfigParser creates a new LuaConfigParser with a fresh Lua runtime.
// Output of print() in configuration files is discarded.
func NewLuaConfigParser() (*LuaConfigParser, error) {
	return NewLuaConfigParserWithOutput(io.Discard)
}

// NewLuaConfigParserWithOutput creates a LuaConfigParser writing print()
// output to stdout.
func NewLuaConfigParserWithOutput(stdout io.Writer) (*LuaConfigParser, error) {
	if stdout == nil {
		stdout = io.Discard
	}
	r := rt.New(stdout)
	return &LuaConfigParser{
		runtime: r,
		cleanup: lib.LoadAll(r),
	}, nil
}

// Parse executes content and extracts the configuration. Settings the
// file does not mention keep their DefaultConfig values.
func (p *LuaConfigParser) Parse(content []byte) (*Config, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.initGlobal()

	closure, err := p.runtime.CompileAndLoadLuaChunk(
		"config",
		content,
		rt.TableValue(p.runtime.GlobalEnv()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compile Lua configuration: %w", err)
	}

	p.runtime.PushContext(rt.RuntimeContextDef{
		HardLimits: rt.RuntimeResources{
			Cpu:    configCPULimit,
			Memory: configMemoryLimit,
		},
	})
	defer p.runtime.PopContext()

	if err := callChunk(p.runtime, closure); err != nil {
		return nil, fmt.Errorf("failed to execute Lua configuration: %w", err)
	}

	return p.extractConfig()
}

// callChunk runs a compiled chunk. golua panics when a hard limit is hit;
// that is reported as an error.
func callChunk(r *rt.Runtime, c *rt.Closure) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("resource limit: %v", v)
		}
	}()
	_, err = rt.Call1(r.MainThread(), rt.FunctionValue(c))
	return err
}

func (p *LuaConfigParser) initGlobal() {
	g := rt.NewTable()
	g.Set(rt.StringValue("config"), rt.TableValue(rt.NewTable()))
	g.Set(rt.StringValue("bodies"), rt.TableValue(rt.NewTable()))
	g.Set(rt.StringValue("text"), rt.NilValue)
	p.runtime.GlobalEnv().Set(rt.StringValue("gravisim"), rt.TableValue(g))
}

func (p *LuaConfigParser) extractConfig() (*Config, error) {
	cfg := DefaultConfig()

	val := p.runtime.GlobalEnv().Get(rt.StringValue("gravisim"))
	if val == rt.NilValue {
		return &cfg, nil
	}
	root, ok := val.TryTable()
	if !ok {
		return nil, fmt.Errorf("gravisim is not a table")
	}

	if t, ok := root.Get(rt.StringValue("config")).TryTable(); ok {
		if err := extractConfigTable(&cfg, t); err != nil {
			return nil, err
		}
	}

	if s, ok := root.Get(rt.StringValue("text")).TryString(); ok {
		cfg.Text.Template = strings.Split(strings.TrimRight(s, "\n"), "\n")
	}

	if t, ok := root.Get(rt.StringValue("bodies")).TryTable(); ok {
		bodies, err := extractBodies(t)
		if err != nil {
			return nil, err
		}
		cfg.Sim.Bodies = bodies
	}

	return &cfg, nil
}

func extractConfigTable(cfg *Config, table *rt.Table) error {
	setInt(table, "width", &cfg.Window.Width)
	setInt(table, "height", &cfg.Window.Height)
	setString(table, "title", &cfg.Window.Title)
	setBool(table, "transparent", &cfg.Window.Transparent)
	setFloat(table, "scale", &cfg.Window.Scale)

	setBool(table, "hud", &cfg.Display.HUD)
	setInt(table, "tps", &cfg.Display.TPS)

	setFloat(table, "gravity", &cfg.Sim.Gravity)
	setFloat(table, "time_scale", &cfg.Sim.TimeScale)
	setFloat(table, "density", &cfg.Sim.Density)
	setFloat(table, "size", &cfg.Sim.Size)
	setInt(table, "trail_length", &cfg.Sim.TrailLength)

	setString(table, "script", &cfg.Script.Path)
	if v := getTableInt(table, "script_cpu_limit"); v != nil && *v >= 0 {
		cfg.Script.CPULimit = uint64(*v)
	}
	if v := getTableInt(table, "script_memory_limit"); v != nil && *v >= 0 {
		cfg.Script.MemoryLimit = uint64(*v)
	}

	setString(table, "ssh_addr", &cfg.Server.Addr)
	setString(table, "ssh_host_key", &cfg.Server.HostKeyPath)
	setInt(table, "ssh_max_sessions", &cfg.Server.MaxSessions)
	if v := getTableFloat(table, "ssh_frame_interval"); v != nil {
		cfg.Server.FrameInterval = time.Duration(*v * float64(time.Second))
	}

	if v := getTableString(table, "frontend"); v != nil {
		f, err := ParseFrontend(*v)
		if err != nil {
			return fmt.Errorf("invalid frontend: %w", err)
		}
		cfg.Window.Frontend = f
	}
	if v := getTableString(table, "hud_alignment"); v != nil {
		a, err := ParseAlignment(*v)
		if err != nil {
			return fmt.Errorf("invalid hud_alignment: %w", err)
		}
		cfg.Display.HUDAlignment = a
	}

	colors := []struct {
		key    string
		target *color.NRGBA
	}{
		{"background", &cfg.Display.Background},
		{"hud_color", &cfg.Display.HUDColor},
		{"hud_panel", &cfg.Display.HUDPanel},
	}
	for _, c := range colors {
		if v := getTableString(table, c.key); v != nil {
			clr, err := ParseColor(*v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", c.key, err)
			}
			*c.target = clr
		}
	}
	return nil
}

// extractBodies reads an array of {x=, y=, vx=, vy=, density=, radius=}
// tables. Density defaults to 1.
func extractBodies(table *rt.Table) ([]BodySpec, error) {
	var bodies []BodySpec
	for i := int64(1); ; i++ {
		v := table.Get(rt.IntValue(i))
		if v == rt.NilValue {
			break
		}
		t, ok := v.TryTable()
		if !ok {
			return nil, fmt.Errorf("gravisim.bodies[%d] is not a table", i)
		}
		b := BodySpec{Density: 1}
		setFloat(t, "x", &b.X)
		setFloat(t, "y", &b.Y)
		setFloat(t, "vx", &b.VX)
		setFloat(t, "vy", &b.VY)
		setFloat(t, "density", &b.Density)
		setFloat(t, "radius", &b.Radius)
		bodies = append(bodies, b)
	}
	return bodies, nil
}

// Close releases resources associated with the parser's Lua runtime.
func (p *LuaConfigParser) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cleanup != nil {
		p.cleanup()
		p.cleanup = nil
	}
	return nil
}

func setInt(t *rt.Table, key string, dst *int) {
	if v := getTableInt(t, key); v != nil {
		*dst = *v
	}
}

func setFloat(t *rt.Table, key string, dst *float64) {
	if v := getTableFloat(t, key); v != nil {
		*dst = *v
	}
}

func setString(t *rt.Table, key string, dst *string) {
	if v := getTableString(t, key); v != nil {
		*dst = *v
	}
}

func setBool(t *rt.Table, key string, dst *bool) {
	if v := getTableBool(t, key); v != nil {
		*dst = *v
	}
}

// getTableBool retrieves a boolean value from a Lua table. The strings
// "yes", "true" and "1" count as true.
func getTableBool(table *rt.Table, key string) *bool {
	val := table.Get(rt.StringValue(key))
	if b, ok := val.TryBool(); ok {
		return &b
	}
	if s, ok := val.TryString(); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "yes", "true", "1":
			b := true
			return &b
		}
		b := false
		return &b
	}
	return nil
}

// getTableString retrieves a string value from a Lua table.
func getTableString(table *rt.Table, key string) *string {
	val := table.Get(rt.StringValue(key))
	if val.Type() != rt.StringType {
		return nil
	}
	s, ok := val.TryString()
	if !ok {
		return nil
	}
	return &s
}

// getTableFloat retrieves a number from a Lua table.
func getTableFloat(table *rt.Table, key string) *float64 {
	val := table.Get(rt.StringValue(key))
	if n, ok := val.TryInt(); ok {
		f := float64(n)
		return &f
	}
	if n, ok := val.TryFloat(); ok {
		return &n
	}
	return nil
}

// getTableInt retrieves a number from a Lua table, truncating floats.
func getTableInt(table *rt.Table, key string) *int {
	val := table.Get(rt.StringValue(key))
	if n, ok := val.TryInt(); ok {
		i := int(n)
		return &i
	}
	if f, ok := val.TryFloat(); ok {
		i := int(f)
		return &i
	}
	return nil
}
