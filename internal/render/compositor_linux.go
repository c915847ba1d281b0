//go:build linux

package render

import (
	"os"
	"os/exec"
	"strings"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// CompositorStatus represents the detected compositor state.
type CompositorStatus int

const (
	// CompositorUnknown means we couldn't determine compositor status.
	CompositorUnknown CompositorStatus = iota
	// CompositorActive means a compositor is running (transparency will work).
	CompositorActive
	// CompositorInactive means no compositor detected (transparency may fail).
	CompositorInactive
)

// String returns a human-readable compositor status.
func (cs CompositorStatus) String() string {
	switch cs {
	case CompositorActive:
		return "active"
	case CompositorInactive:
		return "inactive"
	default:
		return "unknown"
	}
}

// DetectCompositor checks if an X11 compositor is currently running, first
// through the EWMH _NET_WM_CM_S0 selection and then by looking for known
// compositor processes.
func DetectCompositor() CompositorStatus {
	if status := detectCompositorAtom(); status != CompositorUnknown {
		return status
	}

	return detectCompositorProcess()
}

// detectCompositorAtom checks for the _NET_WM_CM_Sn atom which is set by
// EWMH-compliant compositors. The "n" is the screen number (usually 0).
func detectCompositorAtom() CompositorStatus {
	conn, err := xgb.NewConn()
	if err != nil {
		return CompositorUnknown
	}
	defer conn.Close()

	setup := xproto.Setup(conn)
	if len(setup.Roots) == 0 {
		return CompositorUnknown
	}

	atomName := "_NET_WM_CM_S0"

	atomReply, err := xproto.InternAtom(conn, false, uint16(len(atomName)), atomName).Reply()
	if err != nil || atomReply == nil {
		return CompositorUnknown
	}

	// The selection is owned while a compositor runs.
	owner, err := xproto.GetSelectionOwner(conn, atomReply.Atom).Reply()
	if err != nil {
		return CompositorUnknown
	}

	if owner.Owner != xproto.WindowNone {
		return CompositorActive
	}

	return CompositorInactive
}

// detectCompositorProcess checks for known compositor process names.
// This is a fallback method when X11 atom detection fails.
func detectCompositorProcess() CompositorStatus {
	compositors := []string{
		"picom",
		"compton",
		"compiz",
		"mutter",
		"kwin",
		"kwin_x11",
		"kwin_wayland",
		"xfwm4",
		"marco",
		"muffin",
	}

	for _, compositor := range compositors {
		cmd := exec.Command("pgrep", "-x", compositor)
		if err := cmd.Run(); err == nil {
			return CompositorActive
		}
	}

	return CompositorInactive
}

// IsWayland checks if the current session is running on Wayland.
// Wayland compositors always provide compositing, so transparency works.
func IsWayland() bool {
	if strings.EqualFold(os.Getenv("XDG_SESSION_TYPE"), "wayland") {
		return true
	}
	return os.Getenv("WAYLAND_DISPLAY") != ""
}

// CheckTransparencySupport returns a warning when a transparent window was
// requested but nothing composites it, or "" when transparency should work.
func CheckTransparencySupport(transparent bool) string {
	if !transparent || IsWayland() {
		return ""
	}

	switch DetectCompositor() {
	case CompositorActive:
		return ""
	case CompositorInactive:
		return "no compositor detected: the transparent background will appear opaque " +
			"(start picom or enable your desktop's compositing)"
	default:
		return "could not detect a compositor: the transparent background may appear opaque"
	}
}
