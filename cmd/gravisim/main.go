// Package main provides the entry point for gravisim, an interactive
// two-dimensional gravity sandbox. Frames are rasterized on the CPU and
// shown in a window, a terminal or over SSH.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/opd-ai/gravisim/internal/config"
	"github.com/opd-ai/gravisim/internal/profiling"
	"github.com/opd-ai/gravisim/pkg/gravisim"
)

// Version is the current version of gravisim.
// This default value can be overridden at build time using:
//
//	go build -ldflags "-X main.Version=x.y.z"
var Version = "0.1.0-dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	configPath string
	version    bool
	frontend   string
	serveAddr  string
	snapshot   string
	frames     int
	scale      float64
	watch      bool
	memWatch   bool
	jsonLog    bool
	debug      bool
	cpuProfile string
	memProfile string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	var o options
	fs := flag.NewFlagSet("gravisim", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "c", "", "Path to the Lua configuration file (built-in defaults when empty)")
	fs.BoolVar(&o.version, "v", false, "Print version and exit")
	fs.StringVar(&o.frontend, "frontend", "", "Frontend: window, terminal, ssh or headless (overrides the configuration)")
	term := fs.Bool("term", false, "Shorthand for -frontend terminal")
	fs.StringVar(&o.serveAddr, "serve", "", "Serve SSH viewers on this address")
	fs.StringVar(&o.snapshot, "snapshot", "", "Render a PNG to this file and exit")
	fs.IntVar(&o.frames, "frames", 60, "Frames simulated before -snapshot is taken")
	fs.Float64Var(&o.scale, "scale", 1, "Resampling factor of -snapshot")
	fs.BoolVar(&o.watch, "watch", false, "Reload when the configuration or overlay script changes")
	fs.BoolVar(&o.memWatch, "memwatch", false, "Log sustained memory growth while serving")
	fs.BoolVar(&o.jsonLog, "log-json", false, "Log JSON to stderr")
	fs.BoolVar(&o.debug, "debug", false, "Enable debug logging")
	fs.StringVar(&o.cpuProfile, "cpuprofile", "", "Write CPU profile to file")
	fs.StringVar(&o.memProfile, "memprofile", "", "Write memory profile to file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	switch {
	case *term:
		o.frontend = config.FrontendTerminal.String()
	case o.serveAddr != "":
		o.frontend = config.FrontendSSH.String()
	}
	if o.frontend != "" {
		if _, err := config.ParseFrontend(o.frontend); err != nil {
			return nil, err
		}
	}
	return &o, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if o.version {
		fmt.Fprintf(stdout, "gravisim version %s\n", Version)
		return 0
	}

	profConfig := profiling.Config{
		CPUProfilePath: o.cpuProfile,
		MemProfilePath: o.memProfile,
	}
	if profConfig.Enabled() {
		profiler := profiling.New(profConfig)
		if err := profiler.Start(); err != nil {
			fmt.Fprintf(stderr, "Failed to start profiling: %v\n", err)
			return 1
		}
		defer func() {
			if err := profiler.Stop(); err != nil {
				fmt.Fprintf(stderr, "Warning: failed to stop profiling: %v\n", err)
			}
		}()
	}

	logger := newLogger(o, stderr)
	opts := gravisim.DefaultOptions()
	opts.Logger = logger
	opts.WatchConfig = o.watch
	opts.WatchMemory = o.memWatch
	opts.Headless = o.frontend == config.FrontendHeadless.String()

	app, err := load(o.configPath, &opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading configuration: %v\n", err)
		return 1
	}

	if o.snapshot != "" {
		return runSnapshot(app, o, stderr)
	}

	app.SetErrorHandler(func(err error) {
		logger.Warn("gravisim error", "error", err)
	})
	app.SetEventHandler(func(e gravisim.Event) {
		logger.Debug("event", "type", e.Type.String(), "message", e.Message)
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go reloadOnHangup(ctx, app, logger)

	if err := start(ctx, app, o); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// load reads the configuration file, or the built-in defaults when path
// is empty.
func load(path string, opts *gravisim.Options) (gravisim.App, error) {
	if path == "" {
		return gravisim.NewFromReader(strings.NewReader(""), opts)
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", path)
		}
		return nil, fmt.Errorf("accessing configuration file %s: %w", path, err)
	}
	return gravisim.New(path, opts)
}

func newLogger(o *options, stderr io.Writer) gravisim.Logger {
	level := slog.LevelInfo
	if o.debug {
		level = slog.LevelDebug
	}
	if o.jsonLog {
		return gravisim.NewSlogAdapter(gravisim.CorrelatedJSONLogger(stderr, level))
	}
	return gravisim.NewSlogAdapter(slog.New(gravisim.NewCorrelatedSlogHandler(
		slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}),
	)))
}

// start runs the frontend selected by the flags, or by the configuration
// when no flag selects one.
func start(ctx context.Context, app gravisim.App, o *options) error {
	name := o.frontend
	if name == "" {
		name = app.Config().Window.Frontend.String()
	}
	frontend, err := config.ParseFrontend(name)
	if err != nil {
		return err
	}
	switch frontend {
	case config.FrontendTerminal:
		return app.RunTerminal(ctx)
	case config.FrontendSSH:
		return app.Serve(ctx, o.serveAddr)
	default:
		// Window and headless; Run honours Options.Headless.
		return app.Run(ctx)
	}
}

func runSnapshot(app gravisim.App, o *options, stderr io.Writer) int {
	f, err := os.Create(o.snapshot)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := app.Snapshot(f, o.frames, o.scale); err != nil {
		f.Close()
		fmt.Fprintf(stderr, "Snapshot failed: %v\n", err)
		return 1
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// reloadOnHangup reloads the configuration on every SIGHUP until ctx is
// done.
func reloadOnHangup(ctx context.Context, app gravisim.App, logger gravisim.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			logger.Info("received SIGHUP, reloading configuration")
			if err := app.Reload(); err != nil {
				logger.Error("reload failed", "error", err)
			}
		}
	}
}
