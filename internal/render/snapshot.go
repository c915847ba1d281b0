package render

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/opd-ai/gravisim/internal/sim"
	"github.com/opd-ai/gravisim/pkg/gfx"
)

// ErrInvalidScale is returned by WritePNG for a non-positive scale.
var ErrInvalidScale = errors.New("scale must be positive")

// Capture advances s by frames steps of frame wall clock time without user
// input and returns the last frame, HUD text included when text is not
// nil.
func Capture(s *Scene, frames int, frame time.Duration, text *FaceRenderer) (*image.RGBA, error) {
	if frames < 1 {
		frames = 1
	}
	if text != nil {
		s.SetMeasurer(text)
	}
	s.SetEditorVisible(false)
	w, h := s.Size()
	c := gfx.NewImageCanvas(w, h)
	for i := 0; i < frames; i++ {
		s.Update(Input{Cursor: center(w, h)}, frame)
	}
	if err := s.Draw(c); err != nil {
		return nil, fmt.Errorf("failed to draw frame: %w", err)
	}
	if text != nil {
		text.DrawLines(c.Image(), s.HUD())
	}
	return c.Image(), nil
}

func center(w, h int) sim.Vec {
	return sim.Vec{X: float64(w) / 2, Y: float64(h) / 2}
}

// WritePNG encodes img as PNG, resampled by scale with Catmull-Rom when
// scale is not 1.
func WritePNG(w io.Writer, img image.Image, scale float64) error {
	if scale <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidScale, scale)
	}
	if scale != 1 {
		b := img.Bounds()
		dw := max(int(float64(b.Dx())*scale), 1)
		dh := max(int(float64(b.Dy())*scale), 1)
		dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
		img = dst
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}
