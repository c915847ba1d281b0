package lua

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	rt "github.com/arnodel/golua/runtime"

	"github.com/opd-ai/gravisim/pkg/gfx"
)

// GfxBindings exposes the gfx drawing primitives to Lua. Every function is
// available both as a global (gfx_circle) and in the gfx table
// (gfx.circle, also returned by require "gfx").
//
// Colors are passed as a color string or as r, g, b[, a] in 0-255. Drawing
// is only possible while a canvas is bound with Bind, which the scene does
// around the draw hook.
type GfxBindings struct {
	runtime *Runtime

	mu     sync.Mutex
	canvas gfx.Canvas
}

type shapeFunc func(c gfx.Canvas, v []int, clr color.NRGBA) error

type shapeDef struct {
	name   string
	params []string
	draw   shapeFunc
}

var shapes = []shapeDef{
	{"pixel", []string{"x", "y"}, func(c gfx.Canvas, v []int, clr color.NRGBA) error {
		return gfx.PixelColor(c, image.Pt(v[0], v[1]), clr)
	}},
	{"line", []string{"x1", "y1", "x2", "y2"}, func(c gfx.Canvas, v []int, clr color.NRGBA) error {
		return gfx.Line(c, image.Pt(v[0], v[1]), image.Pt(v[2], v[3]), clr)
	}},
	{"thick_line", []string{"x1", "y1", "x2", "y2", "width"}, func(c gfx.Canvas, v []int, clr color.NRGBA) error {
		return gfx.ThickLine(c, image.Pt(v[0], v[1]), image.Pt(v[2], v[3]), v[4], clr)
	}},
	{"box", []string{"x1", "y1", "x2", "y2"}, func(c gfx.Canvas, v []int, clr color.NRGBA) error {
		return gfx.Box(c, image.Pt(v[0], v[1]), image.Pt(v[2], v[3]), clr)
	}},
	{"rectangle", []string{"x1", "y1", "x2", "y2"}, func(c gfx.Canvas, v []int, clr color.NRGBA) error {
		return gfx.Rectangle(c, image.Pt(v[0], v[1]), image.Pt(v[2], v[3]), clr)
	}},
	{"circle", []string{"x", "y", "r"}, func(c gfx.Canvas, v []int, clr color.NRGBA) error {
		return gfx.Circle(c, image.Pt(v[0], v[1]), v[2], clr)
	}},
	{"filled_circle", []string{"x", "y", "r"}, func(c gfx.Canvas, v []int, clr color.NRGBA) error {
		return gfx.FilledCircle(c, image.Pt(v[0], v[1]), v[2], clr)
	}},
	{"ellipse", []string{"x", "y", "rx", "ry"}, func(c gfx.Canvas, v []int, clr color.NRGBA) error {
		return gfx.Ellipse(c, image.Pt(v[0], v[1]), v[2], v[3], clr, false)
	}},
	{"filled_ellipse", []string{"x", "y", "rx", "ry"}, func(c gfx.Canvas, v []int, clr color.NRGBA) error {
		return gfx.FilledEllipse(c, image.Pt(v[0], v[1]), v[2], v[3], clr)
	}},
	{"arc", []string{"x", "y", "r", "start", "end"}, func(c gfx.Canvas, v []int, clr color.NRGBA) error {
		return gfx.Arc(c, image.Pt(v[0], v[1]), v[2], v[3], v[4], clr)
	}},
	{"rounded_rectangle", []string{"x1", "y1", "x2", "y2", "r"}, func(c gfx.Canvas, v []int, clr color.NRGBA) error {
		return gfx.RoundedRectangle(c, image.Pt(v[0], v[1]), image.Pt(v[2], v[3]), v[4], clr)
	}},
	{"rounded_box", []string{"x1", "y1", "x2", "y2", "r"}, func(c gfx.Canvas, v []int, clr color.NRGBA) error {
		return gfx.RoundedBox(c, image.Pt(v[0], v[1]), image.Pt(v[2], v[3]), v[4], clr)
	}},
}

// NewGfxBindings registers the drawing functions in runtime.
func NewGfxBindings(runtime *Runtime) (*GfxBindings, error) {
	if runtime == nil {
		return nil, ErrNilRuntime
	}
	gb := &GfxBindings{runtime: runtime}
	gb.register()
	return gb, nil
}

// Bind makes c the target of drawing calls until Unbind. The returned
// function restores the previous canvas.
func (gb *GfxBindings) Bind(c gfx.Canvas) (unbind func()) {
	gb.mu.Lock()
	prev := gb.canvas
	gb.canvas = c
	gb.mu.Unlock()
	return func() {
		gb.mu.Lock()
		gb.canvas = prev
		gb.mu.Unlock()
	}
}

func (gb *GfxBindings) current() gfx.Canvas {
	gb.mu.Lock()
	defer gb.mu.Unlock()
	return gb.canvas
}

// UpdateWindowInfo publishes the canvas size as gravisim_window.width and
// gravisim_window.height.
func (gb *GfxBindings) UpdateWindowInfo(width, height int) {
	t := rt.NewTable()
	t.Set(rt.StringValue("width"), rt.IntValue(int64(width)))
	t.Set(rt.StringValue("height"), rt.IntValue(int64(height)))
	gb.runtime.SetGlobal("gravisim_window", rt.TableValue(t))
}

func (gb *GfxBindings) register() {
	module := rt.NewTable()
	add := func(name string, fn rt.GoFunctionFunc, nArgs int, variadic bool) {
		gb.runtime.SetGoFunction("gfx_"+name, fn, nArgs, variadic)
		module.Set(rt.StringValue(name), rt.FunctionValue(newGoFunction("gfx."+name, fn, nArgs, variadic)))
	}

	for _, s := range shapes {
		add(s.name, gb.shape(s), len(s.params)+1, true)
	}
	add("polygon", gb.polygon("polygon", gfx.Polygon), 3, true)
	add("filled_polygon", gb.polygon("filled_polygon", gfx.FillPolygon), 3, true)
	add("color", gb.parseColor, 1, true)

	gb.runtime.RegisterModule("gfx", module)
}

func (gb *GfxBindings) shape(s shapeDef) rt.GoFunctionFunc {
	fname := "gfx_" + s.name
	return func(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
		args := getAllArgs(c)
		v := make([]int, len(s.params))
		for i, p := range s.params {
			n, err := getIntArg(args, i)
			if err != nil {
				return nil, fmt.Errorf("%s: %s: %w", fname, p, err)
			}
			v[i] = int(n)
		}
		clr, err := getColorArg(args, len(s.params))
		if err != nil {
			return nil, fmt.Errorf("%s: color: %w", fname, err)
		}

		canvas := gb.current()
		if canvas == nil {
			return nil, fmt.Errorf("%s: %w", fname, ErrNoCanvas)
		}
		if err := s.draw(canvas, v, clr); err != nil {
			return nil, fmt.Errorf("%s: %w", fname, err)
		}
		return c.Next(), nil
	}
}

// polygon handles gfx_polygon(vx, vy, color...) where vx and vy are arrays.
func (gb *GfxBindings) polygon(name string, draw func(gfx.Canvas, []image.Point, color.NRGBA) error) rt.GoFunctionFunc {
	fname := "gfx_" + name
	return func(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
		args := getAllArgs(c)
		pts, err := getPointsArg(args, 0)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fname, err)
		}
		clr, err := getColorArg(args, 2)
		if err != nil {
			return nil, fmt.Errorf("%s: color: %w", fname, err)
		}
		canvas := gb.current()
		if canvas == nil {
			return nil, fmt.Errorf("%s: %w", fname, ErrNoCanvas)
		}
		if err := draw(canvas, pts, clr); err != nil {
			return nil, fmt.Errorf("%s: %w", fname, err)
		}
		return c.Next(), nil
	}
}

// parseColor handles gfx_color(spec) and returns r, g, b, a. It works outside
// draw hooks.
func (gb *GfxBindings) parseColor(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	clr, err := getColorArg(getAllArgs(c), 0)
	if err != nil {
		return nil, fmt.Errorf("gfx_color: %w", err)
	}
	return c.PushingNext(t.Runtime,
		rt.IntValue(int64(clr.R)),
		rt.IntValue(int64(clr.G)),
		rt.IntValue(int64(clr.B)),
		rt.IntValue(int64(clr.A)),
	), nil
}
