package gravisim

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"

	"github.com/opd-ai/gravisim/internal/config"
)

// App is an embeddable gravisim instance.
type App interface {
	// Run opens the desktop window, or steps the simulation off-screen
	// with Options.Headless. It blocks until the window closes, the user
	// presses Escape, ctx is cancelled or Stop is called.
	Run(ctx context.Context) error

	// RunTerminal draws into the controlling terminal until the user
	// quits, ctx is cancelled or Stop is called.
	RunTerminal(ctx context.Context) error

	// Serve accepts SSH viewers on addr, or the configured address when
	// addr is empty, until ctx is cancelled or Stop is called.
	Serve(ctx context.Context, addr string) error

	// Snapshot simulates frames frames of a fresh scene and writes the
	// last one to w as PNG, resampled by scale.
	Snapshot(w io.Writer, frames int, scale float64) error

	// Stop ends the running frontend and waits for it to return.
	Stop() error

	// Reload re-reads the configuration and applies it to the running
	// scene in place. The overlay script is reloaded too.
	Reload() error

	// Config returns a copy of the current configuration.
	Config() config.Config

	IsRunning() bool
	Status() Status
	Health() HealthCheck
	Metrics() *Metrics

	SetErrorHandler(handler ErrorHandler)
	SetEventHandler(handler EventHandler)
}

// New loads the configuration file at configPath. A relative script path
// in it is resolved against the file's directory.
func New(configPath string, opts *Options) (App, error) {
	loader := func() (*config.Config, error) {
		return parse(func(p *config.Parser) (*config.Config, error) {
			return p.ParseFile(configPath)
		})
	}
	return newApp(configPath, configPath, nil, loader, opts)
}

// NewFromFS loads configPath from fsys. The overlay script is read from
// fsys as well.
func NewFromFS(fsys fs.FS, configPath string, opts *Options) (App, error) {
	loader := func() (*config.Config, error) {
		return parse(func(p *config.Parser) (*config.Config, error) {
			return p.ParseFromFS(fsys, configPath)
		})
	}
	return newApp("embedded:"+configPath, "", fsys, loader, opts)
}

// NewFromReader reads the whole configuration from r. Reload parses the
// same content again.
func NewFromReader(r io.Reader, opts *Options) (App, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	loader := func() (*config.Config, error) {
		return parse(func(p *config.Parser) (*config.Config, error) {
			return p.ParseReader(bytes.NewReader(content))
		})
	}
	return newApp("reader", "", nil, loader, opts)
}

// parse runs fn with a fresh parser and validates the result.
func parse(fn func(*config.Parser) (*config.Config, error)) (*config.Config, error) {
	p, err := config.NewParser()
	if err != nil {
		return nil, fmt.Errorf("parser init: %w", err)
	}
	defer p.Close()

	cfg, err := fn(p)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

func newApp(source, path string, fsys fs.FS, loader func() (*config.Config, error), opts *Options) (*appImpl, error) {
	if opts == nil {
		def := DefaultOptions()
		opts = &def
	}
	cfg, err := loader()
	if err != nil {
		return nil, err
	}
	a := &appImpl{
		cfg:          cfg,
		opts:         *opts,
		configSource: source,
		configPath:   path,
		fsys:         fsys,
		configLoader: loader,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
		tracker:      opts.ErrorTracker,
	}
	if a.logger == nil {
		a.logger = NopLogger()
	}
	if a.metrics == nil {
		a.metrics = DefaultMetrics()
	}
	if a.tracker == nil {
		a.tracker = DefaultErrorTracker()
	}
	a.logWarnings(cfg)
	return a, nil
}
