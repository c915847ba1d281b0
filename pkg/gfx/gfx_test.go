package gfx

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"
)

var (
	opaqueWhite = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	halfRed     = color.NRGBA{R: 255, A: 128}
)

// recordCanvas is a test canvas that logs every call and counts pixel
// writes. Lines are expanded with the same Bresenham walk as ImageCanvas.
type recordCanvas struct {
	ops    []string
	pixels map[image.Point]int
	colors map[image.Point]color.NRGBA
	color  color.NRGBA
	mode   BlendMode
}

func newRecordCanvas() *recordCanvas {
	return &recordCanvas{
		pixels: make(map[image.Point]int),
		colors: make(map[image.Point]color.NRGBA),
	}
}

func (r *recordCanvas) SetDrawColor(c color.NRGBA) {
	r.color = c
	r.ops = append(r.ops, "color")
}

func (r *recordCanvas) SetBlendMode(m BlendMode) {
	r.mode = m
	r.ops = append(r.ops, "blend:"+m.String())
}

func (r *recordCanvas) put(p image.Point) {
	r.pixels[p]++
	r.colors[p] = r.color
}

func (r *recordCanvas) DrawPoint(p image.Point) error {
	r.ops = append(r.ops, "point")
	r.put(p)
	return nil
}

func (r *recordCanvas) DrawLine(a, b image.Point) error {
	r.ops = append(r.ops, "line")
	for _, p := range linePoints(a, b) {
		r.put(p)
	}
	return nil
}

func (r *recordCanvas) FillRect(rect image.Rectangle) error {
	r.ops = append(r.ops, "rect")
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			r.put(image.Pt(x, y))
		}
	}
	return nil
}

// set returns the written pixels as a set.
func (r *recordCanvas) set() map[image.Point]bool {
	s := make(map[image.Point]bool, len(r.pixels))
	for p := range r.pixels {
		s[p] = true
	}
	return s
}

func (r *recordCanvas) bounds() image.Rectangle {
	var b image.Rectangle
	first := true
	for p := range r.pixels {
		pr := image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))}
		if first {
			b = pr
			first = false
			continue
		}
		b = b.Union(pr)
	}
	return b
}

func linePoints(a, b image.Point) []image.Point {
	var pts []image.Point
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	e := dx + dy
	for {
		pts = append(pts, a)
		if a == b {
			return pts
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			a.X += sx
		}
		if e2 <= dx {
			e += dx
			a.Y += sy
		}
	}
}

var errBoom = errors.New("boom")

// failCanvas fails every write and counts the attempts.
type failCanvas struct {
	writes int
}

func (f *failCanvas) SetDrawColor(color.NRGBA)        {}
func (f *failCanvas) SetBlendMode(BlendMode)          {}
func (f *failCanvas) DrawPoint(image.Point) error     { f.writes++; return errBoom }
func (f *failCanvas) DrawLine(_, _ image.Point) error { f.writes++; return errBoom }
func (f *failCanvas) FillRect(image.Rectangle) error  { f.writes++; return errBoom }

func sameSet(a, b map[image.Point]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for p := range a {
		if !b[p] {
			return false
		}
	}
	return true
}

func TestBlendFor(t *testing.T) {
	tests := []struct {
		alpha uint8
		want  BlendMode
	}{
		{255, BlendNone},
		{254, BlendAlpha},
		{128, BlendAlpha},
		{0, BlendAlpha},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("alpha %d", tt.alpha), func(t *testing.T) {
			if got := BlendFor(color.NRGBA{A: tt.alpha}); got != tt.want {
				t.Errorf("BlendFor(alpha=%d) = %v, want %v", tt.alpha, got, tt.want)
			}
		})
	}
}

func TestBlendModeString(t *testing.T) {
	if BlendNone.String() != "none" || BlendAlpha.String() != "blend" {
		t.Errorf("unexpected names %q %q", BlendNone, BlendAlpha)
	}
	if BlendMode(7).String() != "unknown" {
		t.Errorf("BlendMode(7).String() = %q", BlendMode(7).String())
	}
}

func TestStateAppliedBeforeWrite(t *testing.T) {
	shapes := map[string]func(c Canvas, clr color.NRGBA) error{
		"pixel":   func(c Canvas, clr color.NRGBA) error { return PixelColor(c, image.Pt(1, 1), clr) },
		"hline":   func(c Canvas, clr color.NRGBA) error { return HLineColor(c, 0, 5, 1, clr) },
		"vline":   func(c Canvas, clr color.NRGBA) error { return VLineColor(c, 1, 0, 5, clr) },
		"line":    func(c Canvas, clr color.NRGBA) error { return Line(c, image.Pt(0, 0), image.Pt(5, 3), clr) },
		"box":     func(c Canvas, clr color.NRGBA) error { return Box(c, image.Pt(0, 0), image.Pt(5, 3), clr) },
		"rect":    func(c Canvas, clr color.NRGBA) error { return Rectangle(c, image.Pt(0, 0), image.Pt(5, 3), clr) },
		"polygon": func(c Canvas, clr color.NRGBA) error { return FillPolygon(c, []image.Point{{0, 0}, {6, 0}, {3, 5}}, clr) },
		"ellipse": func(c Canvas, clr color.NRGBA) error { return Ellipse(c, image.Pt(10, 10), 6, 3, clr, false) },
		"arc":     func(c Canvas, clr color.NRGBA) error { return Arc(c, image.Pt(10, 10), 6, 30, 200, clr) },
		"rounded": func(c Canvas, clr color.NRGBA) error { return RoundedBox(c, image.Pt(0, 0), image.Pt(20, 12), 4, clr) },
		"thick":   func(c Canvas, clr color.NRGBA) error { return ThickLine(c, image.Pt(0, 0), image.Pt(20, 9), 4, clr) },
	}
	colors := []struct {
		clr  color.NRGBA
		want string
	}{
		{opaqueWhite, "blend:none"},
		{halfRed, "blend:blend"},
	}

	for name, draw := range shapes {
		for _, cc := range colors {
			t.Run(name+"/"+cc.want, func(t *testing.T) {
				rc := newRecordCanvas()
				if err := draw(rc, cc.clr); err != nil {
					t.Fatalf("draw: %v", err)
				}
				if len(rc.ops) < 3 {
					t.Fatalf("ops = %v, want state then writes", rc.ops)
				}
				if rc.ops[0] != cc.want || rc.ops[1] != "color" {
					t.Errorf("first ops = %v, want [%s color]", rc.ops[:2], cc.want)
				}
				for i, op := range rc.ops {
					if op == "color" && i > 0 && rc.ops[i-1] != cc.want {
						t.Errorf("color at %d not preceded by blend mode: %v", i, rc.ops)
					}
				}
				for p, got := range rc.colors {
					if got != cc.clr {
						t.Fatalf("pixel %v color = %v, want %v", p, got, cc.clr)
					}
				}
			})
		}
	}
}

func TestPixelWeighted(t *testing.T) {
	tests := []struct {
		name   string
		alpha  uint8
		weight uint32
		want   uint8
	}{
		{"full weight", 200, 256, 200},
		{"half weight", 200, 128, 100},
		{"zero weight", 200, 0, 0},
		{"clamped", 255, 1024, 255},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := newRecordCanvas()
			p := image.Pt(3, 4)
			if err := PixelWeighted(rc, p, color.NRGBA{R: 10, A: tt.alpha}, tt.weight); err != nil {
				t.Fatal(err)
			}
			if got := rc.colors[p].A; got != tt.want {
				t.Errorf("alpha = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCanvasErrorsPropagate(t *testing.T) {
	shapes := map[string]func(c Canvas) error{
		"pixel":          func(c Canvas) error { return PixelColor(c, image.Pt(1, 1), opaqueWhite) },
		"line":           func(c Canvas) error { return Line(c, image.Pt(0, 0), image.Pt(5, 3), opaqueWhite) },
		"box":            func(c Canvas) error { return Box(c, image.Pt(0, 0), image.Pt(5, 3), opaqueWhite) },
		"rectangle":      func(c Canvas) error { return Rectangle(c, image.Pt(0, 0), image.Pt(5, 3), opaqueWhite) },
		"fill polygon":   func(c Canvas) error { return FillPolygon(c, []image.Point{{0, 0}, {6, 0}, {3, 5}}, opaqueWhite) },
		"polygon":        func(c Canvas) error { return Polygon(c, []image.Point{{0, 0}, {6, 0}, {3, 5}}, opaqueWhite) },
		"ellipse":        func(c Canvas) error { return Ellipse(c, image.Pt(10, 10), 6, 3, opaqueWhite, false) },
		"filled ellipse": func(c Canvas) error { return FilledEllipse(c, image.Pt(10, 10), 6, 3, opaqueWhite) },
		"arc":            func(c Canvas) error { return Arc(c, image.Pt(10, 10), 6, 30, 200, opaqueWhite) },
		"rounded rect":   func(c Canvas) error { return RoundedRectangle(c, image.Pt(0, 0), image.Pt(20, 12), 4, opaqueWhite) },
		"rounded box":    func(c Canvas) error { return RoundedBox(c, image.Pt(0, 0), image.Pt(20, 12), 4, opaqueWhite) },
		"thick line":     func(c Canvas) error { return ThickLine(c, image.Pt(0, 0), image.Pt(20, 9), 4, opaqueWhite) },
	}
	for name, draw := range shapes {
		t.Run(name, func(t *testing.T) {
			fc := &failCanvas{}
			err := draw(fc)
			if !errors.Is(err, ErrCanvasWrite) {
				t.Errorf("err = %v, want ErrCanvasWrite", err)
			}
			if !errors.Is(err, errBoom) {
				t.Errorf("err = %v, want the canvas error wrapped", err)
			}
			if fc.writes != 1 {
				t.Errorf("writes = %d, want 1 (stop at first failure)", fc.writes)
			}
		})
	}
}

func TestInvalidParameters(t *testing.T) {
	tests := []struct {
		name string
		draw func(c Canvas) error
		want error
	}{
		{"polygon with two vertices", func(c Canvas) error {
			return FillPolygon(c, []image.Point{{0, 0}, {4, 4}}, opaqueWhite)
		}, ErrInvalidGeometry},
		{"empty polygon outline", func(c Canvas) error { return Polygon(c, nil, opaqueWhite) }, ErrInvalidGeometry},
		{"zero width thick line", func(c Canvas) error {
			return ThickLine(c, image.Pt(0, 0), image.Pt(4, 4), 0, opaqueWhite)
		}, ErrInvalidParameter},
		{"negative x radius", func(c Canvas) error {
			return Ellipse(c, image.Pt(0, 0), -1, 4, opaqueWhite, false)
		}, ErrInvalidParameter},
		{"negative y radius", func(c Canvas) error {
			return Ellipse(c, image.Pt(0, 0), 4, -1, opaqueWhite, true)
		}, ErrInvalidParameter},
		{"huge radius", func(c Canvas) error {
			return Circle(c, image.Pt(0, 0), maxRadius+1, opaqueWhite)
		}, ErrInvalidParameter},
		{"negative arc radius", func(c Canvas) error {
			return Arc(c, image.Pt(0, 0), -3, 0, 90, opaqueWhite)
		}, ErrInvalidParameter},
		{"negative corner radius", func(c Canvas) error {
			return RoundedRect(c, image.Pt(0, 0), image.Pt(9, 9), -2, opaqueWhite, true)
		}, ErrInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := newRecordCanvas()
			err := tt.draw(rc)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if len(rc.pixels) != 0 {
				t.Errorf("wrote %d pixels on invalid input", len(rc.pixels))
			}
		})
	}
}
