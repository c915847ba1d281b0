package gfx

import (
	"image"
	"image/color"
	"math"
)

// ThickLine draws a line of the given width from start to end in clr.
// The line is rasterized as a filled rectangle; its half-width is reduced
// by up to 0.9 pixels depending on direction so diagonal lines do not look
// heavier than axis-aligned ones.
func ThickLine(c Canvas, start, end image.Point, width int, clr color.NRGBA) error {
	if width < 1 {
		Logger().Debug("thick line rejected", "width", width)
		return invalidParam("line width %d is less than 1", width)
	}

	if start == end {
		tl := start.Sub(image.Pt(width/2, width/2))
		return Box(c, tl, tl.Add(image.Pt(width-1, width-1)), clr)
	}

	if width == 1 {
		return Line(c, start, end, clr)
	}

	// Axis-aligned lines are plain boxes; this matches the polygon path.
	if start.X == end.X {
		x := start.X - width/2
		return Box(c, image.Pt(x, start.Y), image.Pt(x+width-1, end.Y), clr)
	}
	if start.Y == end.Y {
		y := start.Y - width/2
		return Box(c, image.Pt(start.X, y), image.Pt(end.X, y+width-1), clr)
	}

	dx := float64(end.X - start.X)
	dy := float64(end.Y - start.Y)
	l := math.Sqrt(dx*dx + dy*dy)
	ang := math.Atan2(dx, dy)
	adj := 0.1 + 0.9*math.Abs(math.Cos(2*ang))
	wl2 := (float64(width) - adj) / (2 * l)
	nx := dx * wl2
	ny := dy * wl2

	x1, y1 := float64(start.X), float64(start.Y)
	x2, y2 := float64(end.X), float64(end.Y)

	verts := []image.Point{
		{X: int(x1 + ny), Y: int(y1 - nx)},
		{X: int(x1 - ny), Y: int(y1 + nx)},
		{X: int(x2 - ny), Y: int(y2 + nx)},
		{X: int(x2 + ny), Y: int(y2 - nx)},
	}
	return FillPolygon(c, verts, clr)
}
