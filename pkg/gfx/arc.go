package gfx

import (
	"image"
	"image/color"
	"math"
)

// Octants are numbered clockwise from +x with y pointing down:
//
//	 \ 5 | 6 /
//	  \  |  /
//	 4 \ | / 7
//	    \|/
//	----+---- +x
//	    /|\
//	 3 / | \ 0
//	  /  |  \
//	 / 2 | 1 \
//	     +y

// normDeg maps an angle in degrees into [0, 360).
func normDeg(a int) int {
	a %= 360
	if a < 0 {
		a += 360
	}
	return a
}

// octantStop returns the midpoint step at which the octant oct crosses the
// angle deg on a circle of radius r.
func octantStop(oct, deg, r int) int {
	rad := float64(deg) * math.Pi / 180
	var t float64
	switch oct {
	case 0, 3:
		t = math.Sin(rad)
	case 1, 6:
		t = math.Cos(rad)
	case 2, 5:
		t = -math.Cos(rad)
	case 4, 7:
		t = -math.Sin(rad)
	}
	return int(t * float64(r))
}

// arcOctants builds the octant mask for the sweep from start to end along
// with the steps at which the boundary octants toggle.
func arcOctants(start, end, r int) (drawoct uint8, stopStart, stopEnd int) {
	startOct := start / 45
	endOct := end / 45

	oct := startOct - 1
	for {
		oct = (oct + 1) % 8
		bit := uint8(1) << oct

		if oct == startOct {
			stopStart = octantStop(oct, start, r)
			if oct%2 == 1 {
				drawoct |= bit
			} else {
				drawoct &^= bit
			}
		}
		if oct == endOct {
			stopEnd = octantStop(oct, end, r)
			switch {
			case startOct == endOct:
				if start > end {
					drawoct = 0xff
				} else {
					drawoct &^= bit
				}
			case oct%2 == 1:
				drawoct &^= bit
			default:
				drawoct |= bit
			}
		} else if oct != startOct {
			drawoct |= bit
		}

		if oct == endOct {
			return drawoct, stopStart, stopEnd
		}
	}
}

// Arc draws the outline of the circle sector of radius r centred on center,
// sweeping clockwise from startDeg to endDeg (0 is +x, 90 is +y).
//
// Angles are reduced into [0, 360). A sweep whose ends differ but reduce to
// the same angle, such as 0 to 360, draws the whole circle.
func Arc(c Canvas, center image.Point, r, startDeg, endDeg int, clr color.NRGBA) error {
	if err := checkRadius("radius", r); err != nil {
		Logger().Debug("arc rejected", "radius", r)
		return err
	}
	if r == 0 {
		return PixelColor(c, center, clr)
	}

	start, end := normDeg(startDeg), normDeg(endDeg)
	if start == end && startDeg != endDeg {
		return Ellipse(c, center, r, r, clr, false)
	}

	drawoct, stopStart, stopEnd := arcOctants(start, end, r)
	startBit := uint8(1) << (start / 45)
	endBit := uint8(1) << (end / 45)

	applyColor(c, clr)

	var err error
	plot := func(mask uint8, x, y int) {
		if err == nil && drawoct&mask != 0 {
			err = Pixel(c, image.Pt(x, y))
		}
	}

	x, y := center.X, center.Y
	cx, cy := 0, r
	df := 1 - r
	dE := 3
	dSE := -2*r + 5

	for cx <= cy {
		if cx > 0 {
			plot(1<<2, x-cx, y+cy)
			plot(1<<1, x+cx, y+cy)
			plot(1<<5, x-cx, y-cy)
			plot(1<<6, x+cx, y-cy)
		} else {
			plot(1<<5|1<<6, x, y-cy)
			plot(1<<1|1<<2, x, y+cy)
		}

		if cx > 0 && cx != cy {
			plot(1<<3, x-cy, y+cx)
			plot(1<<0, x+cy, y+cx)
			plot(1<<4, x-cy, y-cx)
			plot(1<<7, x+cy, y-cx)
		} else if cx == 0 {
			plot(1<<3|1<<4, x-cy, y)
			plot(1<<0|1<<7, x+cy, y)
		}
		if err != nil {
			return err
		}

		if cx == stopStart {
			drawoct ^= startBit
		}
		if cx == stopEnd {
			drawoct ^= endBit
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
	return nil
}
