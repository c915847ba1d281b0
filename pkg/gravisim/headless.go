package gravisim

import (
	"context"
	"time"

	"github.com/opd-ai/gravisim/internal/config"
	"github.com/opd-ai/gravisim/internal/render"
	"github.com/opd-ai/gravisim/pkg/gfx"
)

// headless reports whether Run should skip the window, either because of
// Options.Headless or the configured frontend.
func (a *appImpl) headless() bool {
	return a.opts.Headless || a.current().Window.Frontend == config.FrontendHeadless
}

// runHeadless steps and draws the main scene off-screen at the configured
// rate until ctx is done.
func (a *appImpl) runHeadless(ctx context.Context) error {
	ctx, err := a.begin(ctx, config.FrontendHeadless.String())
	if err != nil {
		return err
	}
	defer a.end()

	scene, err := a.mainScene()
	if err != nil {
		return err
	}
	scene.SetEditorVisible(false)
	canvas := gfx.NewImageCanvas(scene.Size())

	ticker := time.NewTicker(framePeriod(a.current()))
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			a.frame(scene, canvas, now.Sub(last))
			last = now
		}
	}
}

// frame updates and draws one frame without input, recording latencies.
func (a *appImpl) frame(scene *render.Scene, canvas *gfx.ImageCanvas, elapsed time.Duration) {
	start := time.Now()
	scene.Update(render.Input{}, elapsed)
	a.metrics.RecordFrameLatency(time.Since(start))

	start = time.Now()
	canvas.Resize(scene.Size())
	if err := scene.Draw(canvas); err != nil {
		a.frameError(err)
	}
	a.metrics.RecordRenderLatency(time.Since(start))
	a.metrics.IncrementFrames()
}

// framePeriod is the wall clock time of one simulation step.
func framePeriod(cfg *config.Config) time.Duration {
	tps := cfg.Display.TPS
	if tps <= 0 {
		tps = config.DefaultTPS
	}
	return time.Second / time.Duration(tps)
}
