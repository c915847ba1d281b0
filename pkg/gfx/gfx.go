package gfx

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

var (
	// ErrInvalidGeometry is returned when a shape cannot be built from its
	// vertices, e.g. a polygon with fewer than three points.
	ErrInvalidGeometry = errors.New("gfx: invalid geometry")

	// ErrInvalidParameter is returned for out-of-range arguments such as a
	// negative radius or a thick line narrower than one pixel.
	ErrInvalidParameter = errors.New("gfx: invalid parameter")

	// ErrCanvasWrite wraps any error reported by the underlying Canvas.
	ErrCanvasWrite = errors.New("gfx: canvas write failed")
)

// maxRadius bounds radii so the int64 midpoint error terms cannot overflow.
const maxRadius = 32767

// BlendMode selects how a canvas combines a draw color with existing pixels.
type BlendMode int

const (
	// BlendNone overwrites the destination pixel.
	BlendNone BlendMode = iota
	// BlendAlpha composites the draw color over the destination.
	BlendAlpha
)

// String returns a human-readable name for the blend mode.
func (m BlendMode) String() string {
	switch m {
	case BlendNone:
		return "none"
	case BlendAlpha:
		return "blend"
	default:
		return "unknown"
	}
}

// BlendFor returns the blend mode a primitive uses for clr.
func BlendFor(clr color.NRGBA) BlendMode {
	if clr.A == 255 {
		return BlendNone
	}
	return BlendAlpha
}

// Canvas is the mutable raster surface the primitives draw on.
// Implementations own their pixels; this package borrows a Canvas for the
// duration of one call and never reads pixels back.
type Canvas interface {
	// SetDrawColor sets the color used by subsequent writes.
	SetDrawColor(c color.NRGBA)
	// SetBlendMode sets how subsequent writes combine with the surface.
	SetBlendMode(m BlendMode)
	// DrawPoint writes a single pixel.
	DrawPoint(p image.Point) error
	// DrawLine writes a line including both endpoints.
	DrawLine(a, b image.Point) error
	// FillRect writes every pixel of r (Max exclusive).
	FillRect(r image.Rectangle) error
}

// applyColor sets blend mode then color for clr.
func applyColor(c Canvas, clr color.NRGBA) {
	c.SetBlendMode(BlendFor(clr))
	c.SetDrawColor(clr)
}

// wrapCanvas tags a canvas failure with ErrCanvasWrite.
func wrapCanvas(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrCanvasWrite) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrCanvasWrite, err)
}

// invalidParam builds an ErrInvalidParameter with detail.
func invalidParam(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}

// checkRadius validates a radius argument named name.
func checkRadius(name string, r int) error {
	if r < 0 {
		return invalidParam("%s %d is negative", name, r)
	}
	if r > maxRadius {
		return invalidParam("%s %d exceeds %d", name, r, maxRadius)
	}
	return nil
}

// ordered returns a, b sorted ascending.
func ordered(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}
