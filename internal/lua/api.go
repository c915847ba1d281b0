package lua

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	rt "github.com/arnodel/golua/runtime"
)

// Stats is the simulation state visible to scripts and HUD templates.
type Stats struct {
	FPS     float64
	Bodies  int
	Mass    float64
	Merges  int
	Zoom    float64
	Size    float64
	Density float64
	Time    float64
	Gravity float64
}

// BodyInfo describes one body in world and screen coordinates.
type BodyInfo struct {
	X, Y, VX, VY    float64
	Density, Radius float64
	ScreenX         int
	ScreenY         int
	ScreenRadius    int
}

// SimProvider gives scripts access to the running simulation.
type SimProvider interface {
	Stats() Stats
	Body(i int) (BodyInfo, bool)
	AddBody(x, y, vx, vy, density, radius float64) error
	WorldToScreen(x, y float64) (int, int)
}

// SimAPI registers the simulation functions and the gravisim table in a
// runtime and resolves HUD templates.
type SimAPI struct {
	runtime  *Runtime
	provider SimProvider
	mu       sync.RWMutex
}

// NewSimAPI creates the API and registers its functions. provider may be
// nil and set later with SetProvider.
func NewSimAPI(runtime *Runtime, provider SimProvider) (*SimAPI, error) {
	if runtime == nil {
		return nil, ErrNilRuntime
	}
	api := &SimAPI{runtime: runtime, provider: provider}
	api.registerFunctions()
	return api, nil
}

// SetProvider replaces the simulation data source.
func (api *SimAPI) SetProvider(p SimProvider) {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.provider = p
}

func (api *SimAPI) getProvider() SimProvider {
	api.mu.RLock()
	defer api.mu.RUnlock()
	return api.provider
}

func (api *SimAPI) registerFunctions() {
	api.runtime.SetGoFunction("gravisim_parse", api.parseLua, 1, false)
	api.runtime.SetGoFunction("sim_stats", api.statsLua, 0, false)
	api.runtime.SetGoFunction("sim_body", api.bodyLua, 1, false)
	api.runtime.SetGoFunction("sim_add_body", api.addBodyLua, 6, false)
	api.runtime.SetGoFunction("sim_world_to_screen", api.worldToScreenLua, 2, false)

	g := rt.NewTable()
	g.Set(rt.StringValue("version"), rt.StringValue(Version))
	api.runtime.SetGlobal("gravisim", rt.TableValue(g))
}

// Version is reported to scripts as gravisim.version.
const Version = "1.0"

func (api *SimAPI) parseLua(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	template, err := c.StringArg(0)
	if err != nil {
		return nil, fmt.Errorf("gravisim_parse: %w", err)
	}
	return c.PushingNext1(t.Runtime, rt.StringValue(api.Parse(template))), nil
}

func (api *SimAPI) statsLua(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	p := api.getProvider()
	if p == nil {
		return c.PushingNext1(t.Runtime, rt.NilValue), nil
	}
	s := p.Stats()
	tbl := rt.NewTable()
	tbl.Set(rt.StringValue("fps"), rt.FloatValue(s.FPS))
	tbl.Set(rt.StringValue("bodies"), rt.IntValue(int64(s.Bodies)))
	tbl.Set(rt.StringValue("mass"), rt.FloatValue(s.Mass))
	tbl.Set(rt.StringValue("merges"), rt.IntValue(int64(s.Merges)))
	tbl.Set(rt.StringValue("zoom"), rt.FloatValue(s.Zoom))
	tbl.Set(rt.StringValue("size"), rt.FloatValue(s.Size))
	tbl.Set(rt.StringValue("density"), rt.FloatValue(s.Density))
	tbl.Set(rt.StringValue("time"), rt.FloatValue(s.Time))
	tbl.Set(rt.StringValue("gravity"), rt.FloatValue(s.Gravity))
	return c.PushingNext1(t.Runtime, rt.TableValue(tbl)), nil
}

// bodyLua handles sim_body(i) with a 1-based index. It returns nil past the
// last body.
func (api *SimAPI) bodyLua(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	i, err := getIntArg(getAllArgs(c), 0)
	if err != nil {
		return nil, fmt.Errorf("sim_body: %w", err)
	}
	p := api.getProvider()
	if p == nil {
		return c.PushingNext1(t.Runtime, rt.NilValue), nil
	}
	b, ok := p.Body(int(i) - 1)
	if !ok {
		return c.PushingNext1(t.Runtime, rt.NilValue), nil
	}
	tbl := rt.NewTable()
	tbl.Set(rt.StringValue("x"), rt.FloatValue(b.X))
	tbl.Set(rt.StringValue("y"), rt.FloatValue(b.Y))
	tbl.Set(rt.StringValue("vx"), rt.FloatValue(b.VX))
	tbl.Set(rt.StringValue("vy"), rt.FloatValue(b.VY))
	tbl.Set(rt.StringValue("density"), rt.FloatValue(b.Density))
	tbl.Set(rt.StringValue("radius"), rt.FloatValue(b.Radius))
	tbl.Set(rt.StringValue("sx"), rt.IntValue(int64(b.ScreenX)))
	tbl.Set(rt.StringValue("sy"), rt.IntValue(int64(b.ScreenY)))
	tbl.Set(rt.StringValue("sr"), rt.IntValue(int64(b.ScreenRadius)))
	return c.PushingNext1(t.Runtime, rt.TableValue(tbl)), nil
}

// addBodyLua handles sim_add_body(x, y, vx, vy, density, radius).
func (api *SimAPI) addBodyLua(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	args := getAllArgs(c)
	var v [6]float64
	for i, name := range []string{"x", "y", "vx", "vy", "density", "radius"} {
		f, err := getFloatArg(args, i)
		if err != nil {
			return nil, fmt.Errorf("sim_add_body: %s: %w", name, err)
		}
		v[i] = f
	}
	p := api.getProvider()
	if p == nil {
		return nil, fmt.Errorf("sim_add_body: no simulation attached")
	}
	if err := p.AddBody(v[0], v[1], v[2], v[3], v[4], v[5]); err != nil {
		return nil, fmt.Errorf("sim_add_body: %w", err)
	}
	return c.Next(), nil
}

func (api *SimAPI) worldToScreenLua(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	args := getAllArgs(c)
	x, err := getFloatArg(args, 0)
	if err != nil {
		return nil, fmt.Errorf("sim_world_to_screen: x: %w", err)
	}
	y, err := getFloatArg(args, 1)
	if err != nil {
		return nil, fmt.Errorf("sim_world_to_screen: y: %w", err)
	}
	p := api.getProvider()
	if p == nil {
		return c.PushingNext(t.Runtime, rt.IntValue(int64(x)), rt.IntValue(int64(y))), nil
	}
	sx, sy := p.WorldToScreen(x, y)
	return c.PushingNext(t.Runtime, rt.IntValue(int64(sx)), rt.IntValue(int64(sy))), nil
}

// variablePattern matches ${variable} and ${variable arg}.
var variablePattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Parse replaces ${variable} references in template with the current
// simulation values. The template is returned unchanged when no simulation
// is attached.
func (api *SimAPI) Parse(template string) string {
	p := api.getProvider()
	if p == nil {
		return template
	}
	return Expand(template, p.Stats())
}

// Expand replaces ${variable} references in template with values from s.
// An optional argument sets the number of decimals, e.g. ${mass 2}.
// Unknown variables are left untouched.
func Expand(template string, s Stats) string {
	return variablePattern.ReplaceAllStringFunc(template, func(match string) string {
		parts := strings.Fields(match[2 : len(match)-1])
		if len(parts) == 0 {
			return match
		}
		prec := -1
		if len(parts) > 1 {
			if n, err := strconv.Atoi(parts[1]); err == nil && n >= 0 && n <= 10 {
				prec = n
			}
		}
		num := func(v float64, def int) string {
			if prec >= 0 {
				def = prec
			}
			return strconv.FormatFloat(v, 'f', def, 64)
		}

		switch parts[0] {
		case "fps":
			return num(s.FPS, 0)
		case "bodies":
			return strconv.Itoa(s.Bodies)
		case "mass":
			return num(s.Mass, 1)
		case "merges":
			return strconv.Itoa(s.Merges)
		case "zoom":
			return num(s.Zoom, 2)
		case "size":
			return num(s.Size, 0)
		case "density":
			return num(s.Density, 1)
		case "time":
			return num(s.Time, 0)
		case "gravity":
			return strconv.FormatFloat(s.Gravity, 'g', -1, 64)
		default:
			return match
		}
	})
}
