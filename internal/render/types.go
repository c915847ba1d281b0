// Package render turns a running simulation into frames. The Scene is
// frontend independent and draws onto any gfx.Canvas; Game presents it in
// an Ebiten window.
package render

import (
	"fmt"
	"image/color"
	"os"

	"github.com/opd-ai/gravisim/internal/config"
	"github.com/opd-ai/gravisim/internal/sim"
)

// Config holds the rendering configuration options.
type Config struct {
	// Width is the canvas width in pixels.
	Width int
	// Height is the canvas height in pixels.
	Height int
	// Title is the window title.
	Title string
	// Scale multiplies the window size to get the canvas size.
	Scale float64
	// TPS is the number of updates per second the window frontend asks for.
	TPS int
	// Transparent enables window transparency mode. The background alpha
	// then shows through if the compositor supports it.
	Transparent bool
	// Background is the clear color of every frame.
	Background color.NRGBA
	// HUD shows the text panel.
	HUD bool
	// HUDColor is the panel text and border color.
	HUDColor color.NRGBA
	// HUDPanel is the panel fill color.
	HUDPanel color.NRGBA
	// HUDAlignment is the corner the panel is anchored to.
	HUDAlignment config.Alignment
	// HUDText holds the panel lines. ${variable} references are expanded
	// every frame.
	HUDText []string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Width:        config.DefaultWidth,
		Height:       config.DefaultHeight,
		Title:        config.DefaultTitle,
		Scale:        1,
		TPS:          config.DefaultTPS,
		Background:   config.DefaultBackground,
		HUD:          true,
		HUDColor:     config.DefaultHUDColor,
		HUDPanel:     config.DefaultHUDPanel,
		HUDAlignment: config.AlignmentTopLeft,
		HUDText:      append([]string(nil), config.DefaultHUDText...),
	}
}

// ConfigFrom converts a parsed configuration file into a render Config.
func ConfigFrom(c *config.Config) Config {
	return Config{
		Width:        c.Window.Width,
		Height:       c.Window.Height,
		Title:        c.Window.Title,
		Scale:        c.Window.Scale,
		TPS:          c.Display.TPS,
		Transparent:  c.Window.Transparent,
		Background:   c.Display.Background,
		HUD:          c.Display.HUD,
		HUDColor:     c.Display.HUDColor,
		HUDPanel:     c.Display.HUDPanel,
		HUDAlignment: c.Display.HUDAlignment,
		HUDText:      append([]string(nil), c.Text.Template...),
	}
}

// Validate checks if the Config has valid values.
// Returns an error if Width or Height are not positive.
func (c Config) Validate() error {
	if c.Width <= 0 {
		return fmt.Errorf("width must be positive, got %d", c.Width)
	}
	if c.Height <= 0 {
		return fmt.Errorf("height must be positive, got %d", c.Height)
	}
	return nil
}

// TextLine represents a line of text to be rendered.
type TextLine struct {
	// Text is the expanded string.
	Text string
	// X is the left edge of the text in canvas pixels.
	X float64
	// Y is the top of the line box in canvas pixels.
	Y float64
	// Color is the text color.
	Color color.NRGBA
}

// TextMeasurer sizes HUD text. Each frontend measures with the font it
// draws with.
type TextMeasurer interface {
	MeasureText(s string) (width, height float64)
	LineHeight() float64
}

// ErrorHandler is a function type for handling errors during frame updates.
type ErrorHandler func(err error)

// DefaultErrorHandler writes errors to stderr.
func DefaultErrorHandler(err error) {
	fmt.Fprintf(os.Stderr, "frame error: %v\n", err)
}

// Input is the user input collected by a frontend for one frame. Cursor is
// in canvas pixels.
type Input struct {
	Cursor  sim.Vec
	Pressed bool

	// Wheel is the number of scroll steps, positive zooms in.
	Wheel float64
	// Pan is the held pan direction, each axis in [-1, 1].
	Pan sim.Vec

	Grow, Shrink    bool
	Denser, Lighter bool

	Reset     bool
	ToggleHUD bool
}
