package gfx

import (
	"image"
	"image/color"
)

// Box fills the axis-aligned rectangle spanned by corners a and b
// (inclusive) in clr. The corners may be given in any order.
func Box(c Canvas, a, b image.Point, clr color.NRGBA) error {
	if done, err := degenerateRect(c, a, b, clr); done {
		return err
	}
	x1, x2 := ordered(a.X, b.X)
	y1, y2 := ordered(a.Y, b.Y)

	applyColor(c, clr)
	return wrapCanvas(c.FillRect(image.Rect(x1, y1, x2+1, y2+1)))
}

// Rectangle draws the one pixel border of the rectangle spanned by a and b
// (inclusive) in clr. Each border pixel is written once.
func Rectangle(c Canvas, a, b image.Point, clr color.NRGBA) error {
	if done, err := degenerateRect(c, a, b, clr); done {
		return err
	}
	x1, x2 := ordered(a.X, b.X)
	y1, y2 := ordered(a.Y, b.Y)

	applyColor(c, clr)
	if err := HLine(c, x1, x2, y1); err != nil {
		return err
	}
	if err := HLine(c, x1, x2, y2); err != nil {
		return err
	}
	if y2-y1 < 2 {
		return nil
	}
	if err := VLine(c, x1, y1+1, y2-1); err != nil {
		return err
	}
	return VLine(c, x2, y1+1, y2-1)
}

// degenerateRect handles corners sharing an x or y. It reports whether the
// shape was fully drawn.
func degenerateRect(c Canvas, a, b image.Point, clr color.NRGBA) (bool, error) {
	switch {
	case a.X == b.X && a.Y == b.Y:
		return true, PixelColor(c, a, clr)
	case a.X == b.X:
		return true, VLineColor(c, a.X, a.Y, b.Y, clr)
	case a.Y == b.Y:
		return true, HLineColor(c, a.X, b.X, a.Y, clr)
	}
	return false, nil
}
