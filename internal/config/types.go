// Package config provides configuration parsing for gravisim.
package config

import (
	"fmt"
	"image/color"
	"strings"
	"time"
)

// Config represents a complete gravisim configuration.
type Config struct {
	// Window contains window and frontend settings.
	Window WindowConfig
	// Display contains background and HUD settings.
	Display DisplayConfig
	// Sim contains the physics and editor settings.
	Sim SimConfig
	// Script points at the optional Lua overlay.
	Script ScriptConfig
	// Server contains the SSH viewer settings.
	Server ServerConfig
	// Text holds the HUD template lines.
	Text TextConfig
}

// WindowConfig holds window-related configuration options.
type WindowConfig struct {
	// Width is the window width in pixels.
	Width int
	// Height is the window height in pixels.
	Height int
	// Title is the window title.
	Title string
	// Transparent requests a transparent window background.
	// Requires a compositor on Linux.
	Transparent bool
	// Scale multiplies the logical canvas size on high-DPI screens.
	Scale float64
	// Frontend selects where frames are shown.
	Frontend Frontend
}

// DisplayConfig holds what is drawn besides the bodies.
type DisplayConfig struct {
	// Background is the clear color of every frame.
	Background color.NRGBA
	// HUD enables the help and statistics panel.
	HUD bool
	// HUDColor is the text color of the panel.
	HUDColor color.NRGBA
	// HUDPanel is the fill color of the panel.
	HUDPanel color.NRGBA
	// HUDAlignment is the screen corner the panel sticks to.
	HUDAlignment Alignment
	// TPS is the target number of simulation steps per second.
	TPS int
}

// SimConfig holds the physics constants and the editor defaults.
type SimConfig struct {
	// Gravity is the gravitational constant.
	Gravity float64
	// TimeScale converts wall clock seconds into simulation time.
	TimeScale float64
	// Density is the editor's initial body density.
	Density float64
	// Size is the editor's initial body radius in screen pixels.
	Size float64
	// TrailLength is the number of past positions drawn per body.
	TrailLength int
	// Bodies are placed when the scene starts or is reset.
	Bodies []BodySpec
}

// BodySpec describes a body in world coordinates.
type BodySpec struct {
	X, Y    float64
	VX, VY  float64
	Density float64
	Radius  float64
}

// ScriptConfig holds the Lua overlay settings.
type ScriptConfig struct {
	// Path is the overlay script. Empty disables scripting.
	Path string
	// CPULimit bounds the instructions a single hook call may execute.
	CPULimit uint64
	// MemoryLimit bounds the memory a single hook call may allocate.
	MemoryLimit uint64
}

// ServerConfig holds the SSH viewer settings.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":2222".
	Addr string
	// HostKeyPath is a PEM private key. Empty generates an ephemeral key.
	HostKeyPath string
	// FrameInterval is the time between frames sent to a session.
	FrameInterval time.Duration
	// MaxSessions limits concurrent viewers. Zero means unlimited.
	MaxSessions int
}

// TextConfig holds the HUD template.
type TextConfig struct {
	// Template contains lines with ${variable} references.
	Template []string
}

// Frontend selects how frames are presented.
type Frontend int

const (
	// FrontendWindow opens a desktop window.
	FrontendWindow Frontend = iota
	// FrontendTerminal draws into the controlling terminal.
	FrontendTerminal
	// FrontendSSH serves frames to SSH clients.
	FrontendSSH
	// FrontendHeadless renders off-screen only.
	FrontendHeadless
)

// String returns the string representation of a Frontend.
func (f Frontend) String() string {
	switch f {
	case FrontendWindow:
		return "window"
	case FrontendTerminal:
		return "terminal"
	case FrontendSSH:
		return "ssh"
	case FrontendHeadless:
		return "headless"
	default:
		return "unknown"
	}
}

// ParseFrontend parses a string into a Frontend.
func ParseFrontend(s string) (Frontend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "window", "":
		return FrontendWindow, nil
	case "terminal", "term":
		return FrontendTerminal, nil
	case "ssh", "serve":
		return FrontendSSH, nil
	case "headless":
		return FrontendHeadless, nil
	default:
		return FrontendWindow, fmt.Errorf("unknown frontend: %s", s)
	}
}

// Alignment represents the corner the HUD panel is anchored to.
type Alignment int

const (
	// AlignmentTopLeft anchors to the top-left corner.
	AlignmentTopLeft Alignment = iota
	// AlignmentTopRight anchors to the top-right corner.
	AlignmentTopRight
	// AlignmentBottomLeft anchors to the bottom-left corner.
	AlignmentBottomLeft
	// AlignmentBottomRight anchors to the bottom-right corner.
	AlignmentBottomRight
)

// String returns the string representation of an Alignment.
func (a Alignment) String() string {
	switch a {
	case AlignmentTopLeft:
		return "top_left"
	case AlignmentTopRight:
		return "top_right"
	case AlignmentBottomLeft:
		return "bottom_left"
	case AlignmentBottomRight:
		return "bottom_right"
	default:
		return "unknown"
	}
}

// ParseAlignment parses a string into an Alignment.
// Both the long form (top_left) and the short form (tl) are accepted.
func ParseAlignment(s string) (Alignment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "top_left", "tl":
		return AlignmentTopLeft, nil
	case "top_right", "tr":
		return AlignmentTopRight, nil
	case "bottom_left", "bl":
		return AlignmentBottomLeft, nil
	case "bottom_right", "br":
		return AlignmentBottomRight, nil
	default:
		return AlignmentTopLeft, fmt.Errorf("unknown alignment: %s", s)
	}
}

// Validate checks the configuration and returns an error describing every
// problem found, or nil.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}
