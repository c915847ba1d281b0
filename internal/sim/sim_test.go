package sim

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/opd-ai/gravisim/pkg/gfx"
)

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func TestAddRejectsInvalidBodies(t *testing.T) {
	tests := []struct {
		name    string
		density float64
		radius  float64
		pos     Vec
	}{
		{"zero radius", 1, 0, Vec{}},
		{"negative density", -1, 5, Vec{}},
		{"nan position", 1, 5, Vec{math.NaN(), 0}},
		{"inf position", 1, 5, Vec{0, math.Inf(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSystem(DefaultGravity)
			if _, err := s.Add(tt.pos, Vec{}, tt.density, tt.radius); !errors.Is(err, ErrInvalidBody) {
				t.Errorf("Add() error = %v, want ErrInvalidBody", err)
			}
			if s.Len() != 0 {
				t.Errorf("Len() = %d, want 0", s.Len())
			}
		})
	}
}

func TestUpdateConservesMomentum(t *testing.T) {
	s := NewSystem(0.5)
	mustAdd(t, s, Vec{0, 0}, Vec{0.1, 0}, 2, 3)
	mustAdd(t, s, Vec{100, 0}, Vec{0, 0.2}, 1, 5)
	mustAdd(t, s, Vec{0, 80}, Vec{-0.3, 0}, 4, 2)

	before := s.TotalMomentum()
	d0 := s.Bodies[1].Pos.Sub(s.Bodies[0].Pos).Len()
	for i := 0; i < 10; i++ {
		s.Update(1)
	}
	after := s.TotalMomentum()
	if !approx(before.X, after.X, 1e-9) || !approx(before.Y, after.Y, 1e-9) {
		t.Errorf("momentum %v -> %v", before, after)
	}
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	if d := s.Bodies[1].Pos.Sub(s.Bodies[0].Pos).Len(); d >= d0+1 {
		t.Errorf("bodies drifted apart: %g -> %g", d0, d)
	}
}

func TestUpdateIgnoresNonPositiveStep(t *testing.T) {
	s := NewSystem(1)
	mustAdd(t, s, Vec{0, 0}, Vec{1, 1}, 1, 1)
	s.Update(0)
	s.Update(-3)
	if got := s.Bodies[0].Pos; got != (Vec{}) {
		t.Errorf("Pos = %v after zero steps", got)
	}
}

func TestMergeConservesMassAndMomentum(t *testing.T) {
	s := NewSystem(0)
	mustAdd(t, s, Vec{0, 0}, Vec{1, 0}, 1, 4)
	mustAdd(t, s, Vec{5, 0}, Vec{-1, 2}, 3, 3)

	mass := s.TotalMass()
	mom := s.TotalMomentum()
	s.Update(0.001)

	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
	b := s.Bodies[0]
	if !approx(b.Mass(), mass, 1e-9) {
		t.Errorf("mass = %g, want %g", b.Mass(), mass)
	}
	if p := b.Momentum(); !approx(p.X, mom.X, 1e-9) || !approx(p.Y, mom.Y, 1e-9) {
		t.Errorf("momentum = %v, want %v", p, mom)
	}
	if !approx(b.Radius, 5, 1e-12) {
		t.Errorf("radius = %g, want 5", b.Radius)
	}
	if !approx(b.Density, (16+27)/25.0, 1e-12) {
		t.Errorf("density = %g", b.Density)
	}
	if s.Merges() != 1 {
		t.Errorf("Merges() = %d, want 1", s.Merges())
	}
}

func TestMergeCascades(t *testing.T) {
	s := NewSystem(0)
	// a and b start apart; a only reaches b after absorbing the large,
	// light body c.
	mustAdd(t, s, Vec{0, 0}, Vec{}, 1, 3)
	mustAdd(t, s, Vec{-6.5, 0}, Vec{}, 1, 3)
	mustAdd(t, s, Vec{8, 0}, Vec{}, 0.001, 6)
	s.Update(1e-9)
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
	if s.Merges() != 2 {
		t.Errorf("Merges() = %d, want 2", s.Merges())
	}
}

func TestTrailLength(t *testing.T) {
	s := NewSystem(0)
	s.TrailLength = 4
	mustAdd(t, s, Vec{}, Vec{1, 0}, 1, 1)
	for i := 0; i < 10; i++ {
		s.Update(1)
	}
	tr := s.Bodies[0].Trail
	if len(tr) != 4 {
		t.Fatalf("len(Trail) = %d, want 4", len(tr))
	}
	for i, want := range []float64{7, 8, 9, 10} {
		if !approx(tr[i].X, want, 1e-12) {
			t.Errorf("Trail[%d].X = %g, want %g", i, tr[i].X, want)
		}
	}
}

func TestResetAndBodyAt(t *testing.T) {
	s := NewSystem(DefaultGravity)
	mustAdd(t, s, Vec{0, 0}, Vec{}, 1, 10)
	mustAdd(t, s, Vec{100, 0}, Vec{}, 1, 10)
	if got := s.BodyAt(Vec{104, 3}); got != 1 {
		t.Errorf("BodyAt() = %d, want 1", got)
	}
	if got := s.BodyAt(Vec{50, 50}); got != -1 {
		t.Errorf("BodyAt() = %d, want -1", got)
	}
	s.Reset()
	if s.Len() != 0 || s.Merges() != 0 {
		t.Errorf("Reset left %d bodies", s.Len())
	}
}

func TestCamRoundTrip(t *testing.T) {
	c := NewCam(800, 600)
	c.X, c.Y, c.Zoom = 30, -12, 2.5
	p := Vec{17, -4}
	got := c.ReverseTransform(c.Transform(p))
	if !approx(got.X, p.X, 1e-12) || !approx(got.Y, p.Y, 1e-12) {
		t.Errorf("round trip = %v, want %v", got, p)
	}
}

func TestZoomAtKeepsFocus(t *testing.T) {
	tests := []struct {
		name  string
		focus Vec
		delta float64
	}{
		{"zoom in", Vec{400, 300}, 0.5},
		{"zoom out", Vec{10, 590}, -1.25},
		{"origin", Vec{0, 0}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCam(800, 600)
			c.Pan(-40, 25)
			world := c.ReverseTransform(tt.focus)
			c.ZoomAt(tt.focus, tt.delta)
			if !approx(c.Zoom, math.Exp2(tt.delta), 1e-12) {
				t.Errorf("Zoom = %g", c.Zoom)
			}
			got := c.Transform(world)
			if !approx(got.X, tt.focus.X, 1e-9) || !approx(got.Y, tt.focus.Y, 1e-9) {
				t.Errorf("focus moved to %v, want %v", got, tt.focus)
			}
		})
	}
}

func TestCamReset(t *testing.T) {
	c := NewCam(10, 10)
	c.ZoomAt(Vec{3, 3}, 1)
	c.Pan(5, 5)
	c.Reset()
	if c.X != 0 || c.Y != 0 || c.Zoom != 1 || c.RawZoom != 0 {
		t.Errorf("Reset() = %+v", *c)
	}
}

func TestBodyColor(t *testing.T) {
	tests := []struct {
		density float64
		want    color.NRGBA
	}{
		{1, color.NRGBA{255, 254, 255, 255}},
		{100, color.NRGBA{255, 155, 255, 255}},
		{255, color.NRGBA{255, 0, 255, 255}},
		{1000, color.NRGBA{255, 0, 255, 255}},
	}
	for _, tt := range tests {
		if got := BodyColor(tt.density, 255); got != tt.want {
			t.Errorf("BodyColor(%g) = %v, want %v", tt.density, got, tt.want)
		}
	}
}

func TestDrawBodies(t *testing.T) {
	s := NewSystem(0)
	mustAdd(t, s, Vec{20, 20}, Vec{}, 1, 4)
	cam := NewCam(64, 64)

	c := newCountCanvas(64, 64)
	if err := s.Draw(c, cam); err != nil {
		t.Fatal(err)
	}
	if !c.lit(20, 20) || !c.lit(24, 20) {
		t.Error("visible body not drawn")
	}
	if c.lit(25, 20) {
		t.Error("disc wider than its radius")
	}
}

func TestDrawCullsOffscreenBodies(t *testing.T) {
	s := NewSystem(0)
	mustAdd(t, s, Vec{5000, 5000}, Vec{}, 1, 4)
	mustAdd(t, s, Vec{-300, 10}, Vec{}, 1, 4)
	c := newCountCanvas(64, 64)
	if err := s.Draw(c, NewCam(64, 64)); err != nil {
		t.Fatal(err)
	}
	if c.writes != 0 {
		t.Errorf("offscreen bodies issued %d writes", c.writes)
	}
}

func TestDrawVelocity(t *testing.T) {
	s := NewSystem(0)
	mustAdd(t, s, Vec{10, 10}, Vec{1, 0}, 1, 2)
	cam := NewCam(0, 0)
	c := newCountCanvas(32, 32)
	if err := s.DrawVelocity(c, cam, 0, 10); err != nil {
		t.Fatal(err)
	}
	if !c.lit(20, 10) || !c.lit(15, 10) || !c.lit(15, 11) {
		t.Error("velocity line missing")
	}
	if err := s.DrawVelocity(c, cam, 5, 10); err != nil {
		t.Errorf("out of range index: %v", err)
	}
}

func mustAdd(t *testing.T, s *System, pos, vel Vec, density, radius float64) {
	t.Helper()
	if _, err := s.Add(pos, vel, density, radius); err != nil {
		t.Fatal(err)
	}
}

// countCanvas counts write calls before drawing into an image.
type countCanvas struct {
	*gfx.ImageCanvas
	writes int
}

func newCountCanvas(w, h int) *countCanvas {
	return &countCanvas{ImageCanvas: gfx.NewImageCanvas(w, h)}
}

func (c *countCanvas) DrawPoint(p image.Point) error {
	c.writes++
	return c.ImageCanvas.DrawPoint(p)
}

func (c *countCanvas) DrawLine(a, b image.Point) error {
	c.writes++
	return c.ImageCanvas.DrawLine(a, b)
}

func (c *countCanvas) FillRect(r image.Rectangle) error {
	c.writes++
	return c.ImageCanvas.FillRect(r)
}

func (c *countCanvas) lit(x, y int) bool {
	return c.Image().RGBAAt(x, y).A != 0
}
