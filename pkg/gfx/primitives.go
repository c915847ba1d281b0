package gfx

import (
	"image"
	"image/color"
)

// Pixel writes p with the canvas's current color and blend mode.
func Pixel(c Canvas, p image.Point) error {
	return wrapCanvas(c.DrawPoint(p))
}

// HLine writes the row y from x1 to x2 inclusive with the current state.
func HLine(c Canvas, x1, x2, y int) error {
	return wrapCanvas(c.DrawLine(image.Pt(x1, y), image.Pt(x2, y)))
}

// VLine writes the column x from y1 to y2 inclusive with the current state.
func VLine(c Canvas, x, y1, y2 int) error {
	return wrapCanvas(c.DrawLine(image.Pt(x, y1), image.Pt(x, y2)))
}

// PixelColor writes p in clr.
func PixelColor(c Canvas, p image.Point, clr color.NRGBA) error {
	applyColor(c, clr)
	return Pixel(c, p)
}

// PixelWeighted writes p in clr with its alpha scaled by weight/256.
// It expresses partial coverage of a pixel.
func PixelWeighted(c Canvas, p image.Point, clr color.NRGBA, weight uint32) error {
	ax := (uint32(clr.A) * weight) >> 8
	if ax > 255 {
		ax = 255
	}
	clr.A = uint8(ax)
	return PixelColor(c, p, clr)
}

// HLineColor writes the row y from x1 to x2 inclusive in clr.
func HLineColor(c Canvas, x1, x2, y int, clr color.NRGBA) error {
	applyColor(c, clr)
	return HLine(c, x1, x2, y)
}

// VLineColor writes the column x from y1 to y2 inclusive in clr.
func VLineColor(c Canvas, x, y1, y2 int, clr color.NRGBA) error {
	applyColor(c, clr)
	return VLine(c, x, y1, y2)
}

// Line writes a one pixel wide line from start to end in clr.
func Line(c Canvas, start, end image.Point, clr color.NRGBA) error {
	applyColor(c, clr)
	return wrapCanvas(c.DrawLine(start, end))
}
