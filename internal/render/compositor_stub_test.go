//go:build !linux

package render

import (
	"testing"
)

func TestCompositorStatusString(t *testing.T) {
	tests := []struct {
		status CompositorStatus
		want   string
	}{
		{CompositorUnknown, "unknown"},
		{CompositorActive, "active"},
		{CompositorInactive, "inactive"},
		{CompositorStatus(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("CompositorStatus(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestStubPlatform(t *testing.T) {
	if got := DetectCompositor(); got != CompositorActive {
		t.Errorf("DetectCompositor() = %s, want active", got)
	}
	if IsWayland() {
		t.Error("IsWayland() should be false off Linux")
	}
	if got := CheckTransparencySupport(true); got != "" {
		t.Errorf("CheckTransparencySupport(true) = %q, want empty", got)
	}
}
