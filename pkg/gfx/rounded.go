package gfx

import (
	"image"
	"image/color"
)

// RoundedRect draws a rectangle with corners rounded to radius r, either
// filled or as an outline. See RoundedBox and RoundedRectangle.
func RoundedRect(c Canvas, a, b image.Point, r int, clr color.NRGBA, filled bool) error {
	if filled {
		return RoundedBox(c, a, b, r, clr)
	}
	return RoundedRectangle(c, a, b, r, clr)
}

// clampCorner limits the corner radius so opposite corners never overlap.
// x1 <= x2 and y1 <= y2 must hold.
func clampCorner(r, x1, y1, x2, y2 int) int {
	orig := r
	if w := x2 - x1; 2*r > w {
		r = w / 2
	}
	if h := y2 - y1; 2*r > h {
		r = h / 2
	}
	if r != orig {
		Logger().Debug("corner radius clamped", "radius", orig, "clamped", r)
	}
	return r
}

// RoundedRectangle draws the one pixel outline of the rectangle spanned by a
// and b with quarter circle corners of radius r. The radius is reduced to
// half the shorter side when needed.
func RoundedRectangle(c Canvas, a, b image.Point, r int, clr color.NRGBA) error {
	if err := checkRadius("radius", r); err != nil {
		return err
	}
	if r <= 1 {
		return Rectangle(c, a, b, clr)
	}
	if done, err := degenerateRect(c, a, b, clr); done {
		return err
	}

	x1, x2 := ordered(a.X, b.X)
	y1, y2 := ordered(a.Y, b.Y)
	r = clampCorner(r, x1, y1, x2, y2)

	xx1, xx2 := x1+r, x2-r
	yy1, yy2 := y1+r, y2-r

	corners := [...]struct {
		at         image.Point
		start, end int
	}{
		{image.Pt(xx1, yy1), 180, 270},
		{image.Pt(xx2, yy1), 270, 360},
		{image.Pt(xx1, yy2), 90, 180},
		{image.Pt(xx2, yy2), 0, 90},
	}
	for _, k := range corners {
		if err := Arc(c, k.at, r, k.start, k.end, clr); err != nil {
			return err
		}
	}

	if xx1 <= xx2 {
		if err := HLineColor(c, xx1, xx2, y1, clr); err != nil {
			return err
		}
		if err := HLine(c, xx1, xx2, y2); err != nil {
			return err
		}
	}
	if yy1 <= yy2 {
		if err := VLineColor(c, x1, yy1, yy2, clr); err != nil {
			return err
		}
		if err := VLine(c, x2, yy1, yy2); err != nil {
			return err
		}
	}
	return nil
}

// RoundedBox fills the rectangle spanned by a and b with quarter circle
// corners of radius r. Every row is written exactly once.
func RoundedBox(c Canvas, a, b image.Point, r int, clr color.NRGBA) error {
	if err := checkRadius("radius", r); err != nil {
		return err
	}
	if r <= 1 {
		return Box(c, a, b, clr)
	}
	if done, err := degenerateRect(c, a, b, clr); done {
		return err
	}

	x1, x2 := ordered(a.X, b.X)
	y1, y2 := ordered(a.Y, b.Y)
	r = clampCorner(r, x1, y1, x2, y2)

	// Circle about the top-left inset corner; dx and dy stretch it to the
	// other three.
	x, y := x1+r, y1+r
	dx := x2 - x1 - 2*r
	dy := y2 - y1 - 2*r

	applyColor(c, clr)

	cx, cy := 0, r
	ocx, ocy := -1, -1
	df := 1 - r
	dE := 3
	dSE := -2*r + 5

	for cx <= cy {
		if ocy != cy {
			if cy > 0 {
				if err := HLine(c, x-cx, x+cx+dx, y+cy+dy); err != nil {
					return err
				}
				if err := HLine(c, x-cx, x+cx+dx, y-cy); err != nil {
					return err
				}
			} else if err := HLine(c, x-cx, x+cx+dx, y); err != nil {
				return err
			}
			ocy = cy
		}
		if ocx != cx {
			if cx != cy {
				if cx > 0 {
					if err := HLine(c, x-cy, x+cy+dx, y-cx); err != nil {
						return err
					}
					if err := HLine(c, x-cy, x+cy+dx, y+cx+dy); err != nil {
						return err
					}
				} else if err := HLine(c, x-cy, x+cy+dx, y); err != nil {
					return err
				}
			}
			ocx = cx
		}

		if df < 0 {
			df += dE
			dE += 2
			dSE += 2
		} else {
			df += dSE
			dE += 2
			dSE += 4
			cy--
		}
		cx++
	}

	if dy > 0 {
		return Box(c, image.Pt(x1, y+1), image.Pt(x2, y+dy), clr)
	}
	return nil
}
