package render

import (
	"reflect"
	"testing"

	"github.com/opd-ai/gravisim/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Width != config.DefaultWidth || cfg.Height != config.DefaultHeight {
		t.Errorf("size = %dx%d, want %dx%d", cfg.Width, cfg.Height, config.DefaultWidth, config.DefaultHeight)
	}
	if cfg.Title != config.DefaultTitle {
		t.Errorf("Title = %q, want %q", cfg.Title, config.DefaultTitle)
	}
	if cfg.Scale != 1 {
		t.Errorf("Scale = %v, want 1", cfg.Scale)
	}
	if !cfg.HUD {
		t.Error("HUD should be shown by default")
	}
	if !reflect.DeepEqual(cfg.HUDText, config.DefaultHUDText) {
		t.Errorf("HUDText = %v, want %v", cfg.HUDText, config.DefaultHUDText)
	}

	cfg.HUDText[0] = "changed"
	if config.DefaultHUDText[0] == "changed" {
		t.Error("DefaultConfig shares the HUD text with the config package")
	}
}

func TestConfigFrom(t *testing.T) {
	c := config.DefaultConfig()
	c.Window.Width = 320
	c.Window.Height = 240
	c.Window.Transparent = true
	c.Display.HUDAlignment = config.AlignmentBottomRight
	c.Text.Template = []string{"${fps}"}

	got := ConfigFrom(&c)

	if got.Width != 320 || got.Height != 240 {
		t.Errorf("size = %dx%d, want 320x240", got.Width, got.Height)
	}
	if !got.Transparent {
		t.Error("Transparent not carried over")
	}
	if got.HUDAlignment != config.AlignmentBottomRight {
		t.Errorf("HUDAlignment = %v, want bottom_right", got.HUDAlignment)
	}
	if len(got.HUDText) != 1 || got.HUDText[0] != "${fps}" {
		t.Errorf("HUDText = %v", got.HUDText)
	}

	c.Text.Template[0] = "changed"
	if got.HUDText[0] != "${fps}" {
		t.Error("ConfigFrom shares the template slice")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		wantErr bool
	}{
		{"valid", 100, 100, false},
		{"zero width", 0, 100, true},
		{"negative height", 100, -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Width, cfg.Height = tt.w, tt.h
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
