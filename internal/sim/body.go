// Package sim implements the N-body gravity model behind gravisim and the
// camera that maps world coordinates to screen pixels.
package sim

import "math"

// Vec is a 2D vector in world or screen space.
type Vec struct {
	X, Y float64
}

// Add returns v+o.
func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }

// Sub returns v-o.
func (v Vec) Sub(o Vec) Vec { return Vec{v.X - o.X, v.Y - o.Y} }

// Scale returns v*k.
func (v Vec) Scale(k float64) Vec { return Vec{v.X * k, v.Y * k} }

// Len returns the Euclidean length of v.
func (v Vec) Len() float64 { return math.Hypot(v.X, v.Y) }

// Body is a single circular mass.
type Body struct {
	Pos     Vec
	Vel     Vec
	Density float64
	Radius  float64

	// Trail holds recent positions, oldest first. It is only filled when
	// the owning System has a non-zero TrailLength.
	Trail []Vec
}

// Area returns the body's disc area.
func (b *Body) Area() float64 { return math.Pi * b.Radius * b.Radius }

// Mass returns Density times Area.
func (b *Body) Mass() float64 { return b.Density * b.Area() }

// Momentum returns Mass times Vel.
func (b *Body) Momentum() Vec { return b.Vel.Scale(b.Mass()) }

// Overlaps reports whether the discs of b and o intersect.
func (b *Body) Overlaps(o *Body) bool {
	r := b.Radius + o.Radius
	d := o.Pos.Sub(b.Pos)
	return d.X*d.X+d.Y*d.Y < r*r
}

// absorb merges o into b. Mass and momentum are conserved, the areas add
// and the new density is the area-weighted mean of both.
func (b *Body) absorb(o *Body) {
	mb, mo := b.Mass(), o.Mass()
	ab, ao := b.Area(), o.Area()
	m := mb + mo

	if m > 0 {
		b.Pos = b.Pos.Scale(mb / m).Add(o.Pos.Scale(mo / m))
		b.Vel = b.Momentum().Add(o.Momentum()).Scale(1 / m)
	}
	if ab+ao > 0 {
		b.Density = (b.Density*ab + o.Density*ao) / (ab + ao)
	}
	b.Radius = math.Sqrt(b.Radius*b.Radius + o.Radius*o.Radius)
}

func (b *Body) record(limit int) {
	if limit <= 0 {
		b.Trail = b.Trail[:0]
		return
	}
	if len(b.Trail) >= limit {
		n := copy(b.Trail, b.Trail[len(b.Trail)-limit+1:])
		b.Trail = b.Trail[:n]
	}
	b.Trail = append(b.Trail, b.Pos)
}
