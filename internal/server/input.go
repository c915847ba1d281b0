package server

import (
	"unicode/utf8"

	"github.com/opd-ai/gravisim/internal/term"
)

// parseInput folds raw terminal bytes into k. Arrow keys pan like WASD. It
// returns true on q or Ctrl-C.
func parseInput(k *term.Keys, data []byte) bool {
	for i := 0; i < len(data); {
		if i+2 < len(data) && data[i] == 0x1b && data[i+1] == '[' {
			switch data[i+2] {
			case 'A':
				k.Pan.Y--
			case 'B':
				k.Pan.Y++
			case 'C':
				k.Pan.X++
			case 'D':
				k.Pan.X--
			}
			i += 3
			continue
		}

		r, size := utf8.DecodeRune(data[i:])
		if k.Rune(r) {
			return true
		}
		i += size
	}
	return false
}
