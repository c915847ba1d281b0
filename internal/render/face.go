package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// defaultFontSize is the HUD font size in points.
const defaultFontSize = 14.0

// FaceRenderer draws HUD text into plain images for the frontends that
// have no GPU text path (snapshots, SSH).
type FaceRenderer struct {
	face       font.Face
	ascent     int
	lineHeight float64
	mu         sync.Mutex
}

// NewFaceRenderer loads the embedded Go Mono Bold font at size points
// (72 DPI, so points equal pixels).
func NewFaceRenderer(size float64) (*FaceRenderer, error) {
	if size <= 0 {
		size = defaultFontSize
	}
	fnt, err := opentype.Parse(gomonobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded font: %w", err)
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return newFaceRenderer(face, size*1.2), nil
}

// NewBasicFaceRenderer returns a renderer using the 7x13 bitmap face. It
// needs no font parsing and is the scene's default measurer.
func NewBasicFaceRenderer() *FaceRenderer {
	return newFaceRenderer(basicfont.Face7x13, 16)
}

func newFaceRenderer(face font.Face, lineHeight float64) *FaceRenderer {
	return &FaceRenderer{
		face:       face,
		ascent:     face.Metrics().Ascent.Ceil(),
		lineHeight: lineHeight,
	}
}

// MeasureText returns the width and height of s on one line.
func (fr *FaceRenderer) MeasureText(s string) (width, height float64) {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	return float64(font.MeasureString(fr.face, s).Ceil()), fr.lineHeight
}

// LineHeight returns the distance between consecutive HUD lines.
func (fr *FaceRenderer) LineHeight() float64 {
	return fr.lineHeight
}

// DrawText draws s with the top of its line box at (x, y).
func (fr *FaceRenderer) DrawText(dst draw.Image, s string, x, y float64, clr color.Color) {
	fr.mu.Lock()
	defer fr.mu.Unlock()

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(clr),
		Face: fr.face,
		Dot:  fixed.P(int(x), int(y)+fr.ascent),
	}
	d.DrawString(s)
}

// DrawLines draws every line in lines.
func (fr *FaceRenderer) DrawLines(dst draw.Image, lines []TextLine) {
	for _, l := range lines {
		fr.DrawText(dst, l.Text, l.X, l.Y, l.Color)
	}
}
