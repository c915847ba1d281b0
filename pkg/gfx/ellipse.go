package gfx

import (
	"image"
	"image/color"
)

// ellipseOverscan is the sub-pixel multiplier used for small ellipses.
const ellipseOverscan = 4

// overscanFor returns the overscan multiplier for an ellipse whose larger
// radius is r. Bigger ellipses step smoothly enough with less oversampling.
func overscanFor(r int64) int64 {
	switch {
	case r >= 512:
		return ellipseOverscan / 4
	case r >= 256:
		return ellipseOverscan / 2
	default:
		return ellipseOverscan
	}
}

// drawQuadrants writes the point d away from center into every sign-symmetric
// position. When filled is set it writes vertical spans joining the upper and
// lower mirror images instead. The canvas state must already be applied.
func drawQuadrants(c Canvas, center, d image.Point, filled bool) error {
	if d.X == 0 {
		if d.Y == 0 {
			return Pixel(c, center)
		}
		top, bottom := center.Y-d.Y, center.Y+d.Y
		if filled {
			return VLine(c, center.X, top, bottom)
		}
		if err := Pixel(c, image.Pt(center.X, bottom)); err != nil {
			return err
		}
		return Pixel(c, image.Pt(center.X, top))
	}

	left, right := center.X-d.X, center.X+d.X
	top, bottom := center.Y-d.Y, center.Y+d.Y
	if filled {
		if err := VLine(c, right, top, bottom); err != nil {
			return err
		}
		return VLine(c, left, top, bottom)
	}
	for _, p := range [...]image.Point{
		{X: right, Y: bottom},
		{X: left, Y: bottom},
		{X: right, Y: top},
		{X: left, Y: top},
	} {
		if err := Pixel(c, p); err != nil {
			return err
		}
	}
	return nil
}

// Ellipse draws an axis-aligned ellipse centred on center with radii rx and
// ry in clr, filled or as a one pixel outline.
//
// The midpoint generator runs on radii scaled by an overscan factor and
// divides each generated point back down, emitting only when the screen
// column changes. A zero radius collapses the ellipse to a line or point.
func Ellipse(c Canvas, center image.Point, rx, ry int, clr color.NRGBA, filled bool) error {
	if err := checkRadius("x radius", rx); err != nil {
		Logger().Debug("ellipse rejected", "rx", rx, "ry", ry)
		return err
	}
	if err := checkRadius("y radius", ry); err != nil {
		Logger().Debug("ellipse rejected", "rx", rx, "ry", ry)
		return err
	}

	applyColor(c, clr)

	switch {
	case rx == 0 && ry == 0:
		return Pixel(c, center)
	case rx == 0:
		return VLine(c, center.X, center.Y-ry, center.Y+ry)
	case ry == 0:
		return HLine(c, center.X-rx, center.X+rx, center.Y)
	}

	e := ellipseState{c: c, center: center, filled: filled}
	return e.run(int64(rx), int64(ry))
}

// ellipseState carries the midpoint generator between its two regions.
type ellipseState struct {
	c      Canvas
	center image.Point
	filled bool
}

func (e *ellipseState) emit(x, y int64) error {
	return drawQuadrants(e.c, e.center, image.Pt(int(x), int(y)), e.filled)
}

func (e *ellipseState) run(rx, ry int64) error {
	ovs := overscanFor(max(rx, ry))

	if err := e.emit(0, ry); err != nil {
		return err
	}

	rx *= ovs
	ry *= ovs
	rx2 := rx * rx
	rx22 := rx2 + rx2
	ry2 := ry * ry
	ry22 := ry2 + ry2

	curX, curY := int64(0), ry
	deltaX, deltaY := int64(0), rx22*curY
	oldX, oldY := int64(0), ry/ovs
	scrX, scrY := oldX, oldY

	// Region 1: x steps every iteration, y steps when the error goes
	// non-negative.
	errv := ry2 - rx2*ry + rx2/4
	for deltaX <= deltaY {
		curX++
		deltaX += ry22
		errv += deltaX + ry2
		if errv >= 0 {
			curY--
			deltaY -= rx22
			errv -= deltaY
		}

		scrX, scrY = curX/ovs, curY/ovs
		if scrX != oldX {
			if err := e.emit(scrX, scrY); err != nil {
				return err
			}
			oldX, oldY = scrX, scrY
		}
	}

	if curY <= 0 {
		return nil
	}

	// Region 2: y steps every iteration.
	errv = ry2*curX*(curX+1) + (ry2+3)/4 + rx2*(curY-1)*(curY-1) - rx2*ry2
	for curY > 0 {
		curY--
		deltaY -= rx22
		errv += rx2
		errv -= deltaY
		if errv <= 0 {
			curX++
			deltaX += ry22
			errv += deltaX
		}

		scrX, scrY = curX/ovs, curY/ovs
		if scrX == oldX {
			continue
		}
		for oldY--; oldY >= scrY; oldY-- {
			if err := e.emit(scrX, oldY); err != nil {
				return err
			}
			// The tallest span already covers the rest of the column.
			if e.filled {
				oldY = scrY - 1
			}
		}
		oldX, oldY = scrX, scrY
	}

	if e.filled {
		return nil
	}
	for oldY--; oldY >= 0; oldY-- {
		if err := e.emit(scrX, oldY); err != nil {
			return err
		}
	}
	return nil
}

// Circle draws the one pixel outline of a circle of radius r.
func Circle(c Canvas, center image.Point, r int, clr color.NRGBA) error {
	return Ellipse(c, center, r, r, clr, false)
}

// FilledCircle fills a circle of radius r.
func FilledCircle(c Canvas, center image.Point, r int, clr color.NRGBA) error {
	return Ellipse(c, center, r, r, clr, true)
}

// FilledEllipse fills an ellipse with radii rx and ry.
func FilledEllipse(c Canvas, center image.Point, rx, ry int, clr color.NRGBA) error {
	return Ellipse(c, center, rx, ry, clr, true)
}
