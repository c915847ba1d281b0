package gfx

import (
	"fmt"
	"image"
	"image/color"
	"slices"
)

// FillPolygon fills the closed polygon verts in clr using an even-odd
// scanline walk. Edges run between consecutive vertices and from the last
// vertex back to the first, so non-convex and self-intersecting outlines are
// handled. At least three vertices are required.
func FillPolygon(c Canvas, verts []image.Point, clr color.NRGBA) error {
	if len(verts) < 3 {
		Logger().Debug("polygon rejected", "vertices", len(verts))
		return fmt.Errorf("%w: polygon needs at least 3 vertices, got %d", ErrInvalidGeometry, len(verts))
	}

	minY, maxY := verts[0].Y, verts[0].Y
	for _, v := range verts[1:] {
		minY = min(minY, v.Y)
		maxY = max(maxY, v.Y)
	}

	applyColor(c, clr)

	ints := make([]int, 0, len(verts))
	for y := minY; y <= maxY; y++ {
		ints = ints[:0]
		for i := range verts {
			prev := len(verts) - 1
			if i > 0 {
				prev = i - 1
			}
			a, b := verts[prev], verts[i]
			if a.Y == b.Y {
				continue
			}
			if a.Y > b.Y {
				a, b = b, a
			}
			if (y >= a.Y && y < b.Y) || (y == maxY && y > a.Y && y <= b.Y) {
				// 16.16 fixed point x of the edge at row y.
				x := (65536*(y-a.Y)*(b.X-a.X))/(b.Y-a.Y) + 65536*a.X
				ints = append(ints, x)
			}
		}

		slices.Sort(ints)

		for i := 0; i+1 < len(ints); i += 2 {
			xa := round16(ints[i] + 1)
			xb := round16(ints[i+1] - 1)
			if err := HLine(c, xa, xb, y); err != nil {
				return err
			}
		}
	}
	return nil
}

// round16 rounds a 16.16 fixed point value to the nearest integer.
func round16(v int) int {
	return (v >> 16) + ((v & 0x8000) >> 15)
}

// Polygon draws the closed outline of verts in clr.
func Polygon(c Canvas, verts []image.Point, clr color.NRGBA) error {
	if len(verts) < 3 {
		return fmt.Errorf("%w: polygon needs at least 3 vertices, got %d", ErrInvalidGeometry, len(verts))
	}
	applyColor(c, clr)
	prev := verts[len(verts)-1]
	for _, v := range verts {
		if err := wrapCanvas(c.DrawLine(prev, v)); err != nil {
			return err
		}
		prev = v
	}
	return nil
}
