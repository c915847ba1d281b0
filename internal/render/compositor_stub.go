//go:build !linux

package render

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

// DetectCompositor returns CompositorActive on non-Linux platforms.
// Windows (DWM) and macOS always have compositing enabled.
func DetectCompositor() CompositorStatus {
	return CompositorActive
}

// IsWayland returns false on non-Linux platforms.
func IsWayland() bool {
	return false
}

// CheckTransparencySupport returns "" because Windows and macOS always
// composite.
func CheckTransparencySupport(transparent bool) string {
	return ""
}
