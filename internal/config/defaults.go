package config

import (
	"image/color"
	"time"
)

// Default values for configuration options.
const (
	// DefaultWidth is the default window width in pixels.
	DefaultWidth = 1280
	// DefaultHeight is the default window height in pixels.
	DefaultHeight = 720
	// DefaultTitle is the default window title.
	DefaultTitle = "Gravisim"
	// DefaultGravity is the default gravitational constant.
	DefaultGravity = 0.0005
	// DefaultTimeScale is simulation time per wall clock second.
	DefaultTimeScale = 400.0
	// DefaultSize is the default editor body radius in pixels.
	DefaultSize = 50.0
	// DefaultDensity is the default editor body density.
	DefaultDensity = 1.0
	// DefaultTPS is the default simulation rate.
	DefaultTPS = 60
	// DefaultSSHAddr is the default SSH listen address.
	DefaultSSHAddr = ":2222"
	// DefaultFrameInterval is the default SSH frame period.
	DefaultFrameInterval = 100 * time.Millisecond
	// DefaultScriptCPULimit bounds one overlay hook call.
	DefaultScriptCPULimit = 10_000_000
	// DefaultScriptMemoryLimit bounds one overlay hook call (50 MB).
	DefaultScriptMemoryLimit = 50 * 1024 * 1024
)

// Default colors.
var (
	// DefaultBackground is opaque black.
	DefaultBackground = color.NRGBA{A: 255}
	// DefaultHUDColor is white.
	DefaultHUDColor = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	// DefaultHUDPanel is a translucent dark grey.
	DefaultHUDPanel = color.NRGBA{R: 20, G: 20, B: 28, A: 160}
)

// DefaultHUDText is the help panel shown when no text is configured.
var DefaultHUDText = []string{
	"R: RESET",
	"H: TOGGLE HUD",
	"SCROLL: ZOOM",
	"Z/X: CHANGE SIZE",
	"C/V: CHANGE DENSITY",
	"${bodies} BODIES  ${fps} FPS",
}

// DefaultConfig returns a Config with the values gravisim starts with
// when no configuration file is given.
func DefaultConfig() Config {
	text := make([]string, len(DefaultHUDText))
	copy(text, DefaultHUDText)
	return Config{
		Window: WindowConfig{
			Width:    DefaultWidth,
			Height:   DefaultHeight,
			Title:    DefaultTitle,
			Scale:    1,
			Frontend: FrontendWindow,
		},
		Display: DisplayConfig{
			Background:   DefaultBackground,
			HUD:          true,
			HUDColor:     DefaultHUDColor,
			HUDPanel:     DefaultHUDPanel,
			HUDAlignment: AlignmentTopLeft,
			TPS:          DefaultTPS,
		},
		Sim: SimConfig{
			Gravity:   DefaultGravity,
			TimeScale: DefaultTimeScale,
			Density:   DefaultDensity,
			Size:      DefaultSize,
		},
		Script: ScriptConfig{
			CPULimit:    DefaultScriptCPULimit,
			MemoryLimit: DefaultScriptMemoryLimit,
		},
		Server: ServerConfig{
			Addr:          DefaultSSHAddr,
			FrameInterval: DefaultFrameInterval,
		},
		Text: TextConfig{Template: text},
	}
}
