package sim

import (
	"image"
	"math"
)

// Cam maps world coordinates to screen pixels: screen = world*Zoom - (X, Y).
// X and Y are in screen pixels.
type Cam struct {
	X, Y float64
	Zoom float64

	// RawZoom is the log2 of Zoom accumulated from ZoomAt.
	RawZoom float64

	// W and H are the viewport size used for culling. Zero disables it.
	W, H int
}

// NewCam returns a camera at the origin with zoom 1.
func NewCam(w, h int) *Cam {
	return &Cam{Zoom: 1, W: w, H: h}
}

// Reset moves the camera back to the origin at zoom 1.
func (c *Cam) Reset() {
	c.X, c.Y = 0, 0
	c.Zoom, c.RawZoom = 1, 0
}

// Transform maps a world point to screen space.
func (c *Cam) Transform(p Vec) Vec {
	return Vec{p.X*c.Zoom - c.X, p.Y*c.Zoom - c.Y}
}

// ReverseTransform maps a screen point to world space.
func (c *Cam) ReverseTransform(p Vec) Vec {
	return Vec{(p.X + c.X) / c.Zoom, (p.Y + c.Y) / c.Zoom}
}

// ScreenPoint maps a world point to integer screen coordinates, truncating
// toward zero.
func (c *Cam) ScreenPoint(p Vec) image.Point {
	s := c.Transform(p)
	return image.Pt(int(s.X), int(s.Y))
}

// ZoomAt changes the zoom by rawDelta binary orders of magnitude, keeping
// the world point under the screen point focus in place.
func (c *Cam) ZoomAt(focus Vec, rawDelta float64) {
	world := c.ReverseTransform(focus)
	prev := c.Zoom
	c.RawZoom += rawDelta
	c.Zoom = math.Exp2(c.RawZoom)
	dz := c.Zoom - prev
	c.X += dz * world.X
	c.Y += dz * world.Y
}

// Pan moves the view by (dx, dy) screen pixels.
func (c *Cam) Pan(dx, dy float64) {
	c.X += dx
	c.Y += dy
}

// Visible reports whether a disc at screen point p with screen radius r
// intersects the viewport.
func (c *Cam) Visible(p image.Point, r int) bool {
	if c.W <= 0 || c.H <= 0 {
		return true
	}
	return p.X+r >= 0 && p.Y+r >= 0 && p.X-r < c.W && p.Y-r < c.H
}
