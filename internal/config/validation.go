package config

import (
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the results of a configuration validation.
type ValidationResult struct {
	// Errors contains all validation errors found.
	Errors []ValidationError
	// Warnings contains non-fatal issues such as unknown HUD variables.
	Warnings []ValidationError
}

// IsValid returns true if there are no validation errors.
func (vr *ValidationResult) IsValid() bool {
	return len(vr.Errors) == 0
}

// Error returns a combined error if there are errors, nil otherwise.
func (vr *ValidationResult) Error() error {
	if len(vr.Errors) == 0 {
		return nil
	}
	messages := make([]string, 0, len(vr.Errors))
	for _, e := range vr.Errors {
		messages = append(messages, e.Error())
	}
	return fmt.Errorf("validation failed: %s", strings.Join(messages, "; "))
}

// AddError adds a validation error.
func (vr *ValidationResult) AddError(field, message string) {
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Message: message})
}

// AddWarning adds a validation warning.
func (vr *ValidationResult) AddWarning(field, message string) {
	vr.Warnings = append(vr.Warnings, ValidationError{Field: field, Message: message})
}

// KnownVariables lists the ${name} references the HUD template resolves.
var KnownVariables = map[string]string{
	"fps":     "frames per second",
	"bodies":  "number of bodies",
	"mass":    "total mass",
	"merges":  "collisions since the last reset",
	"zoom":    "camera zoom factor",
	"size":    "editor body size",
	"density": "editor body density",
	"time":    "elapsed simulation time",
	"gravity": "gravitational constant",
}

// Validator checks a Config for values gravisim cannot run with.
type Validator struct {
	strictMode bool
}

// NewValidator creates a new Validator with default settings.
func NewValidator() *Validator {
	return &Validator{}
}

// WithStrictMode makes unknown HUD variables errors instead of warnings.
func (v *Validator) WithStrictMode(strict bool) *Validator {
	v.strictMode = strict
	return v
}

// Validate performs validation of a Config.
func (v *Validator) Validate(cfg *Config) *ValidationResult {
	result := &ValidationResult{}

	v.validateWindow(&cfg.Window, result)
	v.validateDisplay(&cfg.Display, result)
	v.validateSim(&cfg.Sim, result)
	v.validateScript(&cfg.Script, result)
	v.validateServer(cfg, result)
	v.validateText(&cfg.Text, result)

	return result
}

const maxDimension = 10000

func (v *Validator) validateWindow(wc *WindowConfig, result *ValidationResult) {
	if wc.Width <= 0 {
		result.AddError("window.width", fmt.Sprintf("must be positive, got %d", wc.Width))
	}
	if wc.Height <= 0 {
		result.AddError("window.height", fmt.Sprintf("must be positive, got %d", wc.Height))
	}
	if wc.Width > maxDimension {
		result.AddWarning("window.width", fmt.Sprintf("unusually large value %d", wc.Width))
	}
	if wc.Height > maxDimension {
		result.AddWarning("window.height", fmt.Sprintf("unusually large value %d", wc.Height))
	}
	if !(wc.Scale > 0) || math.IsInf(wc.Scale, 0) {
		result.AddError("window.scale", fmt.Sprintf("must be positive, got %g", wc.Scale))
	}
	if wc.Frontend > FrontendHeadless || wc.Frontend < FrontendWindow {
		result.AddError("window.frontend", fmt.Sprintf("unknown frontend: %d", wc.Frontend))
	}
}

func (v *Validator) validateDisplay(dc *DisplayConfig, result *ValidationResult) {
	if dc.HUDAlignment > AlignmentBottomRight || dc.HUDAlignment < AlignmentTopLeft {
		result.AddError("display.hud_alignment", fmt.Sprintf("unknown alignment: %d", dc.HUDAlignment))
	}
	if dc.TPS <= 0 {
		result.AddError("display.tps", fmt.Sprintf("must be positive, got %d", dc.TPS))
	} else if dc.TPS > 1000 {
		result.AddWarning("display.tps", fmt.Sprintf("very high rate %d may cause high CPU usage", dc.TPS))
	}
	if dc.HUD && dc.HUDColor.A == 0 {
		result.AddWarning("display.hud_color", "fully transparent HUD text will be invisible")
	}
}

func (v *Validator) validateSim(sc *SimConfig, result *ValidationResult) {
	finite := func(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

	switch {
	case !finite(sc.Gravity) || sc.Gravity < 0:
		result.AddError("sim.gravity", fmt.Sprintf("must be a non-negative number, got %g", sc.Gravity))
	case sc.Gravity == 0:
		result.AddWarning("sim.gravity", "zero gravity, bodies will not attract")
	}
	if !finite(sc.TimeScale) || sc.TimeScale <= 0 {
		result.AddError("sim.time_scale", fmt.Sprintf("must be positive, got %g", sc.TimeScale))
	}
	if !finite(sc.Density) || sc.Density < 1 {
		result.AddError("sim.density", fmt.Sprintf("must be at least 1, got %g", sc.Density))
	}
	if !finite(sc.Size) || sc.Size < 1 {
		result.AddError("sim.size", fmt.Sprintf("must be at least 1, got %g", sc.Size))
	}
	if sc.TrailLength < 0 {
		result.AddError("sim.trail_length", fmt.Sprintf("must be non-negative, got %d", sc.TrailLength))
	} else if sc.TrailLength > 1000 {
		result.AddWarning("sim.trail_length", fmt.Sprintf("long trails (%d) are slow to draw", sc.TrailLength))
	}
	for i, b := range sc.Bodies {
		field := fmt.Sprintf("sim.bodies[%d]", i+1)
		if !(b.Radius > 0) || !finite(b.Radius) {
			result.AddError(field, fmt.Sprintf("radius must be positive, got %g", b.Radius))
		}
		if !(b.Density > 0) || !finite(b.Density) {
			result.AddError(field, fmt.Sprintf("density must be positive, got %g", b.Density))
		}
		if !finite(b.X) || !finite(b.Y) || !finite(b.VX) || !finite(b.VY) {
			result.AddError(field, "position and velocity must be finite")
		}
	}
}

func (v *Validator) validateScript(sc *ScriptConfig, result *ValidationResult) {
	if sc.Path == "" {
		return
	}
	if _, err := os.Stat(sc.Path); err != nil {
		result.AddWarning("script.path", fmt.Sprintf("cannot stat %s: %v", sc.Path, err))
	}
	if sc.CPULimit == 0 {
		result.AddWarning("script.cpu_limit", "no CPU limit, a runaway script can stall frames")
	}
}

func (v *Validator) validateServer(cfg *Config, result *ValidationResult) {
	sc := &cfg.Server
	if cfg.Window.Frontend == FrontendSSH && sc.Addr == "" {
		result.AddError("server.addr", "required for the ssh frontend")
	}
	if sc.FrameInterval <= 0 {
		result.AddError("server.frame_interval", fmt.Sprintf("must be positive, got %v", sc.FrameInterval))
	}
	if sc.MaxSessions < 0 {
		result.AddError("server.max_sessions", fmt.Sprintf("must be non-negative, got %d", sc.MaxSessions))
	}
	if sc.HostKeyPath != "" {
		if _, err := os.Stat(sc.HostKeyPath); err != nil {
			result.AddError("server.host_key", fmt.Sprintf("cannot stat %s: %v", sc.HostKeyPath, err))
		}
	}
}

var templateVarPattern = regexp.MustCompile(`\$\{([^}]*)\}`)

func (v *Validator) validateText(tc *TextConfig, result *ValidationResult) {
	for i, line := range tc.Template {
		for _, m := range templateVarPattern.FindAllStringSubmatch(line, -1) {
			var name string
			if f := strings.Fields(m[1]); len(f) > 0 {
				name = f[0]
			}
			if _, ok := KnownVariables[name]; ok {
				continue
			}
			field := fmt.Sprintf("text.line[%d]", i+1)
			msg := fmt.Sprintf("unknown variable: %q", name)
			if v.strictMode {
				result.AddError(field, msg)
			} else {
				result.AddWarning(field, msg)
			}
		}
	}
}

// ValidateConfig validates cfg with default settings and returns nil if it
// is valid.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	return NewValidator().Validate(cfg).Error()
}

// ValidateConfigStrict is like ValidateConfig but unknown HUD variables are
// errors.
func ValidateConfigStrict(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	return NewValidator().WithStrictMode(true).Validate(cfg).Error()
}
