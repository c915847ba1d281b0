package gravisim

import (
	"fmt"
	"io"

	"github.com/opd-ai/gravisim/internal/render"
)

// Snapshot renders frames steps of a fresh scene, overlay and HUD text
// included, and writes the last frame as PNG.
func (a *appImpl) Snapshot(w io.Writer, frames int, scale float64) error {
	if scale <= 0 {
		return fmt.Errorf("snapshot: %w", render.ErrInvalidScale)
	}
	cfg := a.current()
	scene, err := a.newScene(cfg, 0, 0)
	if err != nil {
		return err
	}
	if o := a.loadOverlay(scene, cfg); o != nil {
		scene.SetOverlay(o)
		defer a.closeOverlay(scene, o)
	}

	face, err := render.NewFaceRenderer(0)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	img, err := render.Capture(scene, frames, framePeriod(cfg), face)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := render.WritePNG(w, img, scale); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	a.metrics.IncrementFrames()
	return nil
}
