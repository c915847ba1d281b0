package gravisim

import (
	"context"
	"fmt"

	"github.com/opd-ai/gravisim/internal/config"
	"github.com/opd-ai/gravisim/internal/profiling"
	"github.com/opd-ai/gravisim/internal/render"
	"github.com/opd-ai/gravisim/internal/server"
)

// Serve runs the SSH viewer. Each session simulates its own scene built
// from the configuration current when it connects; overlay scripts are
// not run for sessions.
func (a *appImpl) Serve(ctx context.Context, addr string) error {
	ctx, err := a.begin(ctx, config.FrontendSSH.String())
	if err != nil {
		return err
	}
	defer a.end()

	cfg := a.current()
	if addr == "" {
		addr = cfg.Server.Addr
	}
	srv := server.NewSSHServer(server.Config{
		Addr:           addr,
		HostKeyPath:    cfg.Server.HostKeyPath,
		FrameInterval:  cfg.Server.FrameInterval,
		MaxSessions:    cfg.Server.MaxSessions,
		Logger:         slogFor(a.logger),
		SessionContext: a.sessionContext,
	}, a.sessionScene)

	a.mu.Lock()
	a.srv = srv
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.srv = nil
		a.mu.Unlock()
	}()

	if a.opts.WatchMemory {
		a.watchMemory(ctx)
	}

	a.logger.Info("serving ssh", "addr", addr)
	if err := srv.ListenAndServe(ctx); err != nil {
		wrapped := fmt.Errorf("ssh server: %w", err)
		a.notifyError(wrapped, ErrorCategoryServer, SeverityCritical)
		return wrapped
	}
	return nil
}

// sessionContext counts the session and tags its log records.
func (a *appImpl) sessionContext(ctx context.Context) context.Context {
	context.AfterFunc(ctx, a.metrics.SessionStarted())
	return EnsureCorrelationID(ctx)
}

func (a *appImpl) sessionScene(w, h int) (*render.Scene, error) {
	return a.newScene(a.current(), w, h)
}

// watchMemory logs heap and goroutine growth until ctx is done.
func (a *appImpl) watchMemory(ctx context.Context) {
	w := profiling.NewMemoryWatch(profiling.DefaultWatchConfig())
	w.OnLeak(func(g profiling.Growth) {
		a.logger.Warn("sustained memory growth", "growth", g.String())
		a.notifyError(fmt.Errorf("memory growth: %s", g), ErrorCategoryServer, SeverityWarning)
	})
	go w.Run(ctx)
}
