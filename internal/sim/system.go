package sim

import (
	"errors"
	"fmt"
	"math"
)

// DefaultGravity is the gravitational constant gravisim starts with.
const DefaultGravity = 0.0005

// ErrInvalidBody is returned by Add for bodies that cannot take part in the
// simulation.
var ErrInvalidBody = errors.New("sim: invalid body")

// System is a set of bodies attracting each other. It is not safe for
// concurrent use.
type System struct {
	// G is the gravitational constant.
	G float64
	// TrailLength is the number of past positions kept per body.
	TrailLength int

	Bodies []*Body

	merges int
}

// NewSystem returns an empty system using gravity g.
func NewSystem(g float64) *System {
	return &System{G: g}
}

// Add appends a body and returns it. Radius and density must be positive
// and every value finite.
func (s *System) Add(pos, vel Vec, density, radius float64) (*Body, error) {
	for _, v := range []float64{pos.X, pos.Y, vel.X, vel.Y, density, radius} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite value", ErrInvalidBody)
		}
	}
	if density <= 0 || radius <= 0 {
		return nil, fmt.Errorf("%w: density %g radius %g", ErrInvalidBody, density, radius)
	}
	b := &Body{Pos: pos, Vel: vel, Density: density, Radius: radius}
	s.Bodies = append(s.Bodies, b)
	return b, nil
}

// Reset removes every body.
func (s *System) Reset() {
	s.Bodies = s.Bodies[:0]
	s.merges = 0
}

// Len returns the number of bodies.
func (s *System) Len() int { return len(s.Bodies) }

// Merges returns how many collisions have been resolved since the last
// Reset.
func (s *System) Merges() int { return s.merges }

// TotalMass returns the summed mass of all bodies.
func (s *System) TotalMass() float64 {
	var m float64
	for _, b := range s.Bodies {
		m += b.Mass()
	}
	return m
}

// TotalMomentum returns the summed momentum of all bodies.
func (s *System) TotalMomentum() Vec {
	var p Vec
	for _, b := range s.Bodies {
		p = p.Add(b.Momentum())
	}
	return p
}

// Update advances the system by dt. Accelerations are computed pairwise,
// velocities then positions are integrated (semi-implicit Euler) and
// overlapping bodies are merged.
func (s *System) Update(dt float64) {
	if dt <= 0 || len(s.Bodies) == 0 {
		return
	}

	acc := make([]Vec, len(s.Bodies))
	for i := 0; i < len(s.Bodies); i++ {
		a := s.Bodies[i]
		for j := i + 1; j < len(s.Bodies); j++ {
			b := s.Bodies[j]
			d := b.Pos.Sub(a.Pos)
			d2 := d.X*d.X + d.Y*d.Y
			// Never closer than the touching distance; overlapping pairs
			// are merged below anyway.
			if soft := a.Radius + b.Radius; d2 < soft*soft {
				d2 = soft * soft
			}
			inv := s.G / (d2 * math.Sqrt(d2))
			acc[i] = acc[i].Add(d.Scale(inv * b.Mass()))
			acc[j] = acc[j].Sub(d.Scale(inv * a.Mass()))
		}
	}

	for i, b := range s.Bodies {
		b.Vel = b.Vel.Add(acc[i].Scale(dt))
		b.Pos = b.Pos.Add(b.Vel.Scale(dt))
		b.record(s.TrailLength)
	}

	s.collide()
}

func (s *System) collide() {
	for i := 0; i < len(s.Bodies); i++ {
		for j := i + 1; j < len(s.Bodies); j++ {
			if !s.Bodies[i].Overlaps(s.Bodies[j]) {
				continue
			}
			s.Bodies[i].absorb(s.Bodies[j])
			s.Bodies = append(s.Bodies[:j], s.Bodies[j+1:]...)
			s.merges++
			// The grown body may now reach bodies already checked.
			j = i
		}
	}
}

// BodyAt returns the index of the topmost body containing p, or -1.
func (s *System) BodyAt(p Vec) int {
	for i := len(s.Bodies) - 1; i >= 0; i-- {
		b := s.Bodies[i]
		d := p.Sub(b.Pos)
		if d.X*d.X+d.Y*d.Y <= b.Radius*b.Radius {
			return i
		}
	}
	return -1
}
