// Package term presents frames in character terminals. Every cell shows two
// vertically stacked pixels with the upper half block: the foreground is
// the top pixel and the background the bottom one.
package term

import (
	"bufio"
	"image"
	"image/color"
	"io"
	"strconv"

	"github.com/mattn/go-runewidth"

	"github.com/opd-ai/gravisim/internal/render"
)

// UpperHalf is the glyph every pixel cell is drawn with.
const UpperHalf = '▀'

// ANSI control sequences used by WriteANSI and the SSH frontend.
const (
	CSI              = "\x1b["
	Reset            = CSI + "0m"
	Home             = CSI + "H"
	ClearScreen      = CSI + "2J"
	HideCursor       = CSI + "?25l"
	ShowCursor       = CSI + "?25h"
	EnableAltScreen  = CSI + "?1049h"
	DisableAltScreen = CSI + "?1049l"
)

// Cell is one character cell. A zero Rune marks the second column of a
// wide rune.
type Cell struct {
	Rune   rune
	FG, BG color.RGBA
}

// Grid is a frame converted to character cells.
type Grid struct {
	W, H  int
	Cells []Cell
}

// NewGrid converts img into half-block cells. An odd last pixel row gets a
// black lower half.
func NewGrid(img *image.RGBA) *Grid {
	b := img.Bounds()
	g := &Grid{W: b.Dx(), H: (b.Dy() + 1) / 2}
	g.Cells = make([]Cell, g.W*g.H)
	black := color.RGBA{A: 255}
	for y := 0; y < g.H; y++ {
		py := b.Min.Y + 2*y
		for x := 0; x < g.W; x++ {
			px := b.Min.X + x
			bottom := black
			if py+1 < b.Max.Y {
				bottom = opaque(img.RGBAAt(px, py+1))
			}
			g.Cells[y*g.W+x] = Cell{Rune: UpperHalf, FG: opaque(img.RGBAAt(px, py)), BG: bottom}
		}
	}
	return g
}

// opaque drops alpha; terminals have no transparency.
func opaque(c color.RGBA) color.RGBA {
	c.A = 255
	return c
}

// At returns the cell at column x, row y.
func (g *Grid) At(x, y int) Cell {
	return g.Cells[y*g.W+x]
}

// Text writes lines over the grid. Positions are in pixels as produced by
// a scene measured with CellMeasurer; the text takes the upper pixel's
// color as background.
func (g *Grid) Text(lines []render.TextLine) {
	for _, l := range lines {
		row := int(l.Y) / 2
		if row < 0 || row >= g.H {
			continue
		}
		fg := opaque(color.RGBA{R: l.Color.R, G: l.Color.G, B: l.Color.B, A: 255})
		col := int(l.X)
		for _, r := range l.Text {
			w := runewidth.RuneWidth(r)
			if w == 0 {
				continue
			}
			if col >= 0 && col+w <= g.W {
				i := row*g.W + col
				g.Cells[i] = Cell{Rune: r, FG: fg, BG: g.Cells[i].FG}
				for j := 1; j < w; j++ {
					g.Cells[i+j] = Cell{FG: fg, BG: g.Cells[i+j].FG}
				}
			}
			col += w
		}
	}
}

// WriteANSI writes the grid as truecolor escape sequences starting at the
// top-left corner. Colors are only emitted when they change.
func (g *Grid) WriteANSI(w io.Writer) error {
	bw := bufio.NewWriterSize(w, g.W*g.H*8+64)
	bw.WriteString(Home)
	buf := make([]byte, 0, 48)
	for y := 0; y < g.H; y++ {
		var fg, bg color.RGBA
		first := true
		for x := 0; x < g.W; x++ {
			c := g.At(x, y)
			if c.Rune == 0 {
				continue
			}
			if first || c.FG != fg {
				buf = appendColor(buf[:0], 38, c.FG)
				bw.Write(buf)
				fg = c.FG
			}
			if first || c.BG != bg {
				buf = appendColor(buf[:0], 48, c.BG)
				bw.Write(buf)
				bg = c.BG
			}
			first = false
			bw.WriteRune(c.Rune)
		}
		bw.WriteString(Reset)
		if y < g.H-1 {
			bw.WriteString("\r\n")
		}
	}
	return bw.Flush()
}

// appendColor appends the SGR sequence selecting c as foreground (layer 38)
// or background (layer 48).
func appendColor(b []byte, layer int, c color.RGBA) []byte {
	b = append(b, CSI...)
	b = strconv.AppendInt(b, int64(layer), 10)
	b = append(b, ";2;"...)
	b = strconv.AppendInt(b, int64(c.R), 10)
	b = append(b, ';')
	b = strconv.AppendInt(b, int64(c.G), 10)
	b = append(b, ';')
	b = strconv.AppendInt(b, int64(c.B), 10)
	return append(b, 'm')
}

// CellMeasurer sizes HUD text in grid units: one pixel per column and two
// per row, so scene layouts land on cell boundaries.
type CellMeasurer struct{}

// MeasureText returns the display width of s in columns.
func (CellMeasurer) MeasureText(s string) (width, height float64) {
	return float64(runewidth.StringWidth(s)), 2
}

// LineHeight returns one row.
func (CellMeasurer) LineHeight() float64 { return 2 }

// CanvasSize returns the canvas size for a terminal of cols by rows cells.
func CanvasSize(cols, rows int) (w, h int) {
	return max(cols, 1), max(rows, 1) * 2
}
