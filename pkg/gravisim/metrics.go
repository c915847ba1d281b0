package gravisim

import (
	"expvar"
	"sync/atomic"
	"time"
)

// Metrics collects operational counters and latencies. RegisterExpvar
// publishes them under /debug/vars.
//
// Thread-safe for concurrent use.
type Metrics struct {
	starts        atomic.Int64
	stops         atomic.Int64
	configReloads atomic.Int64
	scriptLoads   atomic.Int64
	frames        atomic.Int64
	errorsTotal   atomic.Int64
	eventsEmitted atomic.Int64
	luaCalls      atomic.Int64
	luaErrors     atomic.Int64
	sessions      atomic.Int64

	frameLatencyNs  atomic.Int64
	frameLatencyN   atomic.Int64
	luaLatencyNs    atomic.Int64
	luaLatencyN     atomic.Int64
	renderLatencyNs atomic.Int64
	renderLatencyN  atomic.Int64

	running        atomic.Int32
	activeSessions atomic.Int32

	registered atomic.Bool
}

// NewMetrics creates an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RegisterExpvar publishes the metrics with expvar. Later calls are no-ops.
// expvar names are global, so register only one Metrics per process.
func (m *Metrics) RegisterExpvar() {
	if m.registered.Swap(true) {
		return
	}
	counters := map[string]*atomic.Int64{
		"gravisim_starts_total":         &m.starts,
		"gravisim_stops_total":          &m.stops,
		"gravisim_config_reloads_total": &m.configReloads,
		"gravisim_script_loads_total":   &m.scriptLoads,
		"gravisim_frames_total":         &m.frames,
		"gravisim_errors_total":         &m.errorsTotal,
		"gravisim_events_emitted_total": &m.eventsEmitted,
		"gravisim_lua_calls_total":      &m.luaCalls,
		"gravisim_lua_errors_total":     &m.luaErrors,
		"gravisim_sessions_total":       &m.sessions,
	}
	for name, v := range counters {
		expvar.Publish(name, expvar.Func(func() any { return v.Load() }))
	}

	expvar.Publish("gravisim_running", expvar.Func(func() any { return m.running.Load() }))
	expvar.Publish("gravisim_active_sessions", expvar.Func(func() any { return m.activeSessions.Load() }))

	avgMs := func(total, n *atomic.Int64) expvar.Func {
		return func() any {
			return float64(safeDivide(total.Load(), n.Load())) / 1e6
		}
	}
	expvar.Publish("gravisim_frame_latency_avg_ms", avgMs(&m.frameLatencyNs, &m.frameLatencyN))
	expvar.Publish("gravisim_lua_latency_avg_ms", avgMs(&m.luaLatencyNs, &m.luaLatencyN))
	expvar.Publish("gravisim_render_latency_avg_ms", avgMs(&m.renderLatencyNs, &m.renderLatencyN))
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	Starts        int64
	Stops         int64
	ConfigReloads int64
	ScriptLoads   int64
	Frames        int64
	ErrorsTotal   int64
	EventsEmitted int64
	LuaCalls      int64
	LuaErrors     int64
	Sessions      int64

	Running        bool
	ActiveSessions int

	FrameLatencyAvg  time.Duration
	LuaLatencyAvg    time.Duration
	RenderLatencyAvg time.Duration
}

// Snapshot returns the current values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Starts:        m.starts.Load(),
		Stops:         m.stops.Load(),
		ConfigReloads: m.configReloads.Load(),
		ScriptLoads:   m.scriptLoads.Load(),
		Frames:        m.frames.Load(),
		ErrorsTotal:   m.errorsTotal.Load(),
		EventsEmitted: m.eventsEmitted.Load(),
		LuaCalls:      m.luaCalls.Load(),
		LuaErrors:     m.luaErrors.Load(),
		Sessions:      m.sessions.Load(),

		Running:        m.running.Load() > 0,
		ActiveSessions: int(m.activeSessions.Load()),

		FrameLatencyAvg:  safeDivide(m.frameLatencyNs.Load(), m.frameLatencyN.Load()),
		LuaLatencyAvg:    safeDivide(m.luaLatencyNs.Load(), m.luaLatencyN.Load()),
		RenderLatencyAvg: safeDivide(m.renderLatencyNs.Load(), m.renderLatencyN.Load()),
	}
}

func (m *Metrics) IncrementStarts()        { m.starts.Add(1) }
func (m *Metrics) IncrementStops()         { m.stops.Add(1) }
func (m *Metrics) IncrementConfigReloads() { m.configReloads.Add(1) }
func (m *Metrics) IncrementScriptLoads()   { m.scriptLoads.Add(1) }
func (m *Metrics) IncrementFrames()        { m.frames.Add(1) }
func (m *Metrics) IncrementErrors()        { m.errorsTotal.Add(1) }
func (m *Metrics) IncrementEventsEmitted() { m.eventsEmitted.Add(1) }
func (m *Metrics) IncrementLuaCalls()      { m.luaCalls.Add(1) }
func (m *Metrics) IncrementLuaErrors()     { m.luaErrors.Add(1) }

// SessionStarted counts a new SSH viewer; call the returned function when
// it leaves.
func (m *Metrics) SessionStarted() (done func()) {
	m.sessions.Add(1)
	m.activeSessions.Add(1)
	return func() { m.activeSessions.Add(-1) }
}

// SetRunning updates the running gauge.
func (m *Metrics) SetRunning(running bool) {
	if running {
		m.running.Store(1)
	} else {
		m.running.Store(0)
	}
}

// RecordFrameLatency records the time spent updating one frame.
func (m *Metrics) RecordFrameLatency(d time.Duration) {
	m.frameLatencyNs.Add(d.Nanoseconds())
	m.frameLatencyN.Add(1)
}

// RecordLuaLatency records the duration of one overlay hook call.
func (m *Metrics) RecordLuaLatency(d time.Duration) {
	m.luaLatencyNs.Add(d.Nanoseconds())
	m.luaLatencyN.Add(1)
}

// RecordRenderLatency records the time spent drawing one frame.
func (m *Metrics) RecordRenderLatency(d time.Duration) {
	m.renderLatencyNs.Add(d.Nanoseconds())
	m.renderLatencyN.Add(1)
}

// Reset clears all metrics. Useful for testing.
func (m *Metrics) Reset() {
	for _, v := range []*atomic.Int64{
		&m.starts, &m.stops, &m.configReloads, &m.scriptLoads, &m.frames,
		&m.errorsTotal, &m.eventsEmitted, &m.luaCalls, &m.luaErrors, &m.sessions,
		&m.frameLatencyNs, &m.frameLatencyN, &m.luaLatencyNs, &m.luaLatencyN,
		&m.renderLatencyNs, &m.renderLatencyN,
	} {
		v.Store(0)
	}
	m.running.Store(0)
	m.activeSessions.Store(0)
}

func safeDivide(total, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(total / count)
}

var defaultMetrics = NewMetrics()

// DefaultMetrics returns the process-wide Metrics.
func DefaultMetrics() *Metrics {
	return defaultMetrics
}
