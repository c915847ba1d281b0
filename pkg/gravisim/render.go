//go:build !noebiten

package gravisim

import (
	"context"
	"errors"
	"fmt"

	"github.com/opd-ai/gravisim/internal/config"
	"github.com/opd-ai/gravisim/internal/render"
)

// Run opens the window and blocks until it is closed. It must be called
// from the main goroutine.
func (a *appImpl) Run(ctx context.Context) error {
	if a.headless() {
		return a.runHeadless(ctx)
	}
	ctx, err := a.begin(ctx, config.FrontendWindow.String())
	if err != nil {
		return err
	}
	defer a.end()

	if msg := render.CheckTransparencySupport(a.current().Window.Transparent); msg != "" {
		a.logger.Warn(msg)
	}

	scene, err := a.mainScene()
	if err != nil {
		return err
	}
	game := render.NewGame(scene)
	game.SetContext(ctx)
	game.SetErrorHandler(a.frameError)

	// Escape and cancellation both end the loop with ErrGameTerminated.
	if err := game.Run(); err != nil && !errors.Is(err, render.ErrGameTerminated) {
		wrapped := fmt.Errorf("render loop error: %w", err)
		a.notifyError(wrapped, ErrorCategoryRender, SeverityCritical)
		return wrapped
	}
	return nil
}
