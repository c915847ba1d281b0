//go:build noebiten

package gravisim

import "context"

// Run only runs headless in noebiten builds.
func (a *appImpl) Run(ctx context.Context) error {
	if a.headless() {
		return a.runHeadless(ctx)
	}
	return ErrNoWindow
}
