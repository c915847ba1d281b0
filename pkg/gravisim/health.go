package gravisim

import "time"

// HealthStatus is the health of an App or one of its components.
type HealthStatus string

const (
	HealthOK        HealthStatus = "ok"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// HealthCheck is the result of App.Health.
type HealthCheck struct {
	Status    HealthStatus
	Timestamp time.Time
	// Uptime is zero when no frontend runs.
	Uptime time.Duration
	// Components is keyed by "frontend", "scene", "overlay", "server" and
	// "errors".
	Components map[string]ComponentHealth
	Message    string
}

// ComponentHealth is the health of one component.
type ComponentHealth struct {
	Status      HealthStatus
	Message     string
	LastUpdated time.Time
}

func (h HealthCheck) IsHealthy() bool   { return h.Status == HealthOK }
func (h HealthCheck) IsDegraded() bool  { return h.Status == HealthDegraded }
func (h HealthCheck) IsUnhealthy() bool { return h.Status == HealthUnhealthy }

// worst returns the most severe status of the components.
func worst(components map[string]ComponentHealth) HealthStatus {
	status := HealthOK
	for _, c := range components {
		switch c.Status {
		case HealthUnhealthy:
			return HealthUnhealthy
		case HealthDegraded:
			status = HealthDegraded
		}
	}
	return status
}
