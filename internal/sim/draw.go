package sim

import (
	"image/color"
	"math"

	"github.com/opd-ai/gravisim/pkg/gfx"
)

// maxScreenRadius matches the largest radius the gfx circle routines accept.
const maxScreenRadius = 32767

// BodyColor returns the fill color for a body of the given density: magenta
// for light bodies shading to purple as the density approaches 255.
func BodyColor(density float64, alpha uint8) color.NRGBA {
	g := uint8(0)
	if density <= 255 {
		g = uint8(255 - math.Max(density, 0))
	}
	return color.NRGBA{R: 255, G: g, B: 255, A: alpha}
}

// ScreenRadius returns the on-screen radius of a world radius, clamped to
// what the rasterizer accepts.
func (c *Cam) ScreenRadius(r float64) int {
	s := r * c.Zoom
	if s >= maxScreenRadius {
		return maxScreenRadius
	}
	if s < 0 {
		return 0
	}
	return int(s)
}

var (
	highlightColor = color.NRGBA{R: 255, G: 255, B: 255, A: 90}
	trailColor     = color.NRGBA{R: 160, G: 160, B: 255, A: 255}
	velocityColor  = color.NRGBA{R: 80, G: 255, B: 120, A: 200}
)

// Draw renders every visible body onto c: trails first, then the disc and a
// rim highlight on bodies large enough to show one.
func (s *System) Draw(c gfx.Canvas, cam *Cam) error {
	for _, b := range s.Bodies {
		if err := drawTrail(c, cam, b); err != nil {
			return err
		}
	}
	for _, b := range s.Bodies {
		p := cam.ScreenPoint(b.Pos)
		r := cam.ScreenRadius(b.Radius)
		if !cam.Visible(p, r) {
			continue
		}
		if err := gfx.FilledCircle(c, p, r, BodyColor(b.Density, 255)); err != nil {
			return err
		}
		if r >= 6 {
			if err := gfx.Arc(c, p, r-2, 200, 250, highlightColor); err != nil {
				return err
			}
		}
	}
	return nil
}

func drawTrail(c gfx.Canvas, cam *Cam, b *Body) error {
	n := len(b.Trail)
	for i := 1; i < n; i++ {
		a := cam.ScreenPoint(b.Trail[i-1])
		z := cam.ScreenPoint(b.Trail[i])
		if !cam.Visible(a, 0) && !cam.Visible(z, 0) {
			continue
		}
		// Older segments fade out.
		weight := uint32(256 * i / n)
		if a == z {
			if err := gfx.PixelWeighted(c, z, trailColor, weight); err != nil {
				return err
			}
			continue
		}
		clr := trailColor
		clr.A = uint8(uint32(clr.A) * weight >> 8)
		if err := gfx.Line(c, a, z, clr); err != nil {
			return err
		}
	}
	return nil
}

// DrawVelocity draws the velocity vector of body i as a thick line from its
// centre. The vector is scaled by k world units per unit of speed.
func (s *System) DrawVelocity(c gfx.Canvas, cam *Cam, i int, k float64) error {
	if i < 0 || i >= len(s.Bodies) {
		return nil
	}
	b := s.Bodies[i]
	from := cam.ScreenPoint(b.Pos)
	to := cam.ScreenPoint(b.Pos.Add(b.Vel.Scale(k)))
	if from == to {
		return nil
	}
	return gfx.ThickLine(c, from, to, 3, velocityColor)
}
