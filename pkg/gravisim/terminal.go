package gravisim

import (
	"context"

	"github.com/opd-ai/gravisim/internal/config"
	"github.com/opd-ai/gravisim/internal/term"
)

// RunTerminal draws into the controlling terminal. Log output written to
// the terminal meanwhile garbles the picture; log to a file instead.
func (a *appImpl) RunTerminal(ctx context.Context) error {
	ctx, err := a.begin(ctx, config.FrontendTerminal.String())
	if err != nil {
		return err
	}
	defer a.end()

	scene, err := a.mainScene()
	if err != nil {
		return err
	}
	scr, err := term.Open()
	if err != nil {
		a.notifyError(err, ErrorCategoryRender, SeverityCritical)
		return err
	}
	defer scr.Fini()

	return term.NewScreen(scr, scene, 0).Run(ctx)
}
