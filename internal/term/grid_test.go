package term

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/opd-ai/gravisim/internal/render"
)

var (
	red    = color.RGBA{R: 255, A: 255}
	blue   = color.RGBA{B: 255, A: 255}
	green  = color.RGBA{G: 255, A: 255}
	white  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black  = color.RGBA{A: 255}
	yellow = color.NRGBA{R: 255, G: 255, A: 255}
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2, 3))
	img.SetRGBA(0, 0, red)
	img.SetRGBA(0, 1, blue)
	img.SetRGBA(0, 2, green)
	for y := 0; y < 3; y++ {
		img.SetRGBA(1, y, white)
	}
	return img
}

func TestNewGrid(t *testing.T) {
	g := NewGrid(testImage())

	if g.W != 2 || g.H != 2 {
		t.Fatalf("grid = %dx%d, want 2x2", g.W, g.H)
	}
	tests := []struct {
		x, y   int
		fg, bg color.RGBA
	}{
		{0, 0, red, blue},
		{0, 1, green, black},
		{1, 0, white, white},
		{1, 1, white, black},
	}
	for _, tt := range tests {
		c := g.At(tt.x, tt.y)
		if c.Rune != UpperHalf || c.FG != tt.fg || c.BG != tt.bg {
			t.Errorf("At(%d, %d) = %+v, want fg %v bg %v", tt.x, tt.y, c, tt.fg, tt.bg)
		}
	}
}

func TestNewGridDropsAlpha(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 2))
	img.SetRGBA(0, 0, color.RGBA{R: 10, A: 20})
	g := NewGrid(img)
	if c := g.At(0, 0); c.FG.A != 255 || c.BG.A != 255 {
		t.Errorf("At(0, 0) = %+v, want opaque colors", c)
	}
}

func TestGridText(t *testing.T) {
	tests := []struct {
		name  string
		line  render.TextLine
		check func(t *testing.T, g *Grid)
	}{
		{
			name: "ascii",
			line: render.TextLine{Text: "ab", X: 0, Y: 0, Color: yellow},
			check: func(t *testing.T, g *Grid) {
				c := g.At(0, 0)
				if c.Rune != 'a' || c.FG != (color.RGBA{R: 255, G: 255, A: 255}) || c.BG != red {
					t.Errorf("At(0, 0) = %+v", c)
				}
				if c := g.At(1, 0); c.Rune != 'b' || c.BG != white {
					t.Errorf("At(1, 0) = %+v", c)
				}
			},
		},
		{
			name: "second row",
			line: render.TextLine{Text: "x", X: 0, Y: 3, Color: yellow},
			check: func(t *testing.T, g *Grid) {
				if c := g.At(0, 1); c.Rune != 'x' {
					t.Errorf("At(0, 1) = %+v", c)
				}
			},
		},
		{
			name: "clipped",
			line: render.TextLine{Text: "ab", X: 1, Y: 0, Color: yellow},
			check: func(t *testing.T, g *Grid) {
				if c := g.At(0, 0); c.Rune != UpperHalf {
					t.Errorf("At(0, 0) = %+v, want untouched", c)
				}
				if c := g.At(1, 0); c.Rune != 'a' {
					t.Errorf("At(1, 0) = %+v", c)
				}
			},
		},
		{
			name: "wide rune",
			line: render.TextLine{Text: "世", X: 0, Y: 0, Color: yellow},
			check: func(t *testing.T, g *Grid) {
				if c := g.At(0, 0); c.Rune != '世' {
					t.Errorf("At(0, 0) = %+v", c)
				}
				if c := g.At(1, 0); c.Rune != 0 {
					t.Errorf("At(1, 0) = %+v, want a continuation cell", c)
				}
			},
		},
		{
			name: "below the grid",
			line: render.TextLine{Text: "a", X: 0, Y: 10, Color: yellow},
			check: func(t *testing.T, g *Grid) {
				for _, c := range g.Cells {
					if c.Rune != UpperHalf {
						t.Errorf("cell %+v changed", c)
					}
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGrid(testImage())
			g.Text([]render.TextLine{tt.line})
			tt.check(t, g)
		})
	}
}

func TestGridWriteANSI(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 2))
	img.SetRGBA(0, 0, red)
	img.SetRGBA(0, 1, blue)

	var buf bytes.Buffer
	if err := NewGrid(img).WriteANSI(&buf); err != nil {
		t.Fatalf("WriteANSI() error = %v", err)
	}
	want := Home + "\x1b[38;2;255;0;0m" + "\x1b[48;2;0;0;255m" + "▀" + Reset
	if got := buf.String(); got != want {
		t.Errorf("WriteANSI() = %q, want %q", got, want)
	}
}

func TestGridWriteANSIRows(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 3; x++ {
			img.SetRGBA(x, y, white)
		}
	}

	var buf bytes.Buffer
	if err := NewGrid(img).WriteANSI(&buf); err != nil {
		t.Fatalf("WriteANSI() error = %v", err)
	}
	out := buf.String()

	if n := strings.Count(out, "\r\n"); n != 1 {
		t.Errorf("line breaks = %d, want 1", n)
	}
	// Colors are set once per row.
	if n := strings.Count(out, "38;2;"); n != 2 {
		t.Errorf("foreground changes = %d, want 2", n)
	}
	if n := strings.Count(out, "▀"); n != 6 {
		t.Errorf("cells = %d, want 6", n)
	}
}

func TestCellMeasurer(t *testing.T) {
	var m CellMeasurer
	if w, h := m.MeasureText("abc"); w != 3 || h != 2 {
		t.Errorf("MeasureText(abc) = %v, %v, want 3, 2", w, h)
	}
	if w, _ := m.MeasureText("世界"); w != 4 {
		t.Errorf("MeasureText(世界) width = %v, want 4", w)
	}
	if m.LineHeight() != 2 {
		t.Errorf("LineHeight() = %v, want 2", m.LineHeight())
	}
}

func TestCanvasSize(t *testing.T) {
	if w, h := CanvasSize(80, 24); w != 80 || h != 48 {
		t.Errorf("CanvasSize(80, 24) = %d, %d, want 80, 48", w, h)
	}
	if w, h := CanvasSize(0, 0); w != 1 || h != 2 {
		t.Errorf("CanvasSize(0, 0) = %d, %d, want 1, 2", w, h)
	}
}
