//go:build !noebiten

package render

import (
	"bytes"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/gomonobold"
)

// TextRenderer handles text rendering using Ebiten's text package.
type TextRenderer struct {
	fontSource *text.GoTextFaceSource
	fontSize   float64
	mu         sync.RWMutex
}

// NewTextRenderer creates a new TextRenderer with the default monospace font.
func NewTextRenderer() *TextRenderer {
	fontSource, err := text.NewGoTextFaceSource(bytes.NewReader(gomonobold.TTF))
	if err != nil {
		// This should never fail with the embedded font
		panic("failed to load embedded font: " + err.Error())
	}

	return &TextRenderer{
		fontSource: fontSource,
		fontSize:   defaultFontSize,
	}
}

// SetFontSize sets the font size for text rendering. Non-positive sizes
// restore the default.
func (tr *TextRenderer) SetFontSize(size float64) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if size <= 0 {
		size = defaultFontSize
	}
	tr.fontSize = size
}

// FontSize returns the current font size.
func (tr *TextRenderer) FontSize() float64 {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return tr.fontSize
}

func (tr *TextRenderer) face() *text.GoTextFace {
	return &text.GoTextFace{
		Source: tr.fontSource,
		Size:   tr.fontSize,
	}
}

// DrawText renders text with the top-left of its line box at (x, y).
func (tr *TextRenderer) DrawText(screen *ebiten.Image, textStr string, x, y float64, clr color.Color) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)

	text.Draw(screen, textStr, tr.face(), op)
}

// MeasureText returns the width and height of the given text string.
func (tr *TextRenderer) MeasureText(textStr string) (width, height float64) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return text.Measure(textStr, tr.face(), tr.fontSize*1.2)
}

// LineHeight returns the height of a single line of text.
func (tr *TextRenderer) LineHeight() float64 {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return tr.fontSize * 1.2
}
