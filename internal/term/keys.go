package term

import (
	"github.com/opd-ai/gravisim/internal/render"
)

// Keys accumulates terminal input between frames. Terminals report key
// presses but no releases, so every press acts for one frame; the cursor
// and button state persist.
type Keys struct {
	render.Input
}

// Rune applies a typed character. It returns true for q.
func (k *Keys) Rune(r rune) bool {
	switch r {
	case 'q', 'Q', 3:
		return true
	case 'w', 'W':
		k.Pan.Y--
	case 's', 'S':
		k.Pan.Y++
	case 'a', 'A':
		k.Pan.X--
	case 'd', 'D':
		k.Pan.X++
	case '+', '=':
		k.Wheel++
	case '-', '_':
		k.Wheel--
	case 'z', 'Z':
		k.Grow = true
	case 'x', 'X':
		k.Shrink = true
	case 'v', 'V':
		k.Denser = true
	case 'c', 'C':
		k.Lighter = true
	case 'r', 'R':
		k.Reset = true
	case 'h', 'H':
		k.ToggleHUD = true
	}
	return false
}

// Take returns the input of the frame and clears the one-shot actions.
func (k *Keys) Take() render.Input {
	in := k.Input
	k.Input = render.Input{Cursor: in.Cursor, Pressed: in.Pressed}
	return in
}
