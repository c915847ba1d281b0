package term

import (
	"testing"

	"github.com/opd-ai/gravisim/internal/render"
	"github.com/opd-ai/gravisim/internal/sim"
)

func TestKeysRune(t *testing.T) {
	tests := []struct {
		r    rune
		quit bool
		want render.Input
	}{
		{'q', true, render.Input{}},
		{3, true, render.Input{}},
		{'w', false, render.Input{Pan: sim.Vec{Y: -1}}},
		{'S', false, render.Input{Pan: sim.Vec{Y: 1}}},
		{'a', false, render.Input{Pan: sim.Vec{X: -1}}},
		{'d', false, render.Input{Pan: sim.Vec{X: 1}}},
		{'+', false, render.Input{Wheel: 1}},
		{'-', false, render.Input{Wheel: -1}},
		{'z', false, render.Input{Grow: true}},
		{'x', false, render.Input{Shrink: true}},
		{'v', false, render.Input{Denser: true}},
		{'c', false, render.Input{Lighter: true}},
		{'r', false, render.Input{Reset: true}},
		{'h', false, render.Input{ToggleHUD: true}},
		{'?', false, render.Input{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.r), func(t *testing.T) {
			var k Keys
			if quit := k.Rune(tt.r); quit != tt.quit {
				t.Errorf("Rune(%q) = %v, want %v", tt.r, quit, tt.quit)
			}
			if k.Input != tt.want {
				t.Errorf("Input = %+v, want %+v", k.Input, tt.want)
			}
		})
	}
}

func TestKeysTake(t *testing.T) {
	var k Keys
	k.Cursor = sim.Vec{X: 3, Y: 4}
	k.Pressed = true
	k.Rune('d')
	k.Rune('d')
	k.Rune('r')

	in := k.Take()
	if in.Pan.X != 2 || !in.Reset || !in.Pressed {
		t.Errorf("Take() = %+v", in)
	}

	next := k.Take()
	want := render.Input{Cursor: sim.Vec{X: 3, Y: 4}, Pressed: true}
	if next != want {
		t.Errorf("second Take() = %+v, want %+v", next, want)
	}
}
