package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"
	"time"

	"github.com/opd-ai/gravisim/internal/config"
	"github.com/opd-ai/gravisim/internal/lua"
	"github.com/opd-ai/gravisim/internal/sim"
	"github.com/opd-ai/gravisim/pkg/gfx"
)

// Overlay is a script layer driven by the scene. Step runs after every
// simulation step and Draw after the bodies are drawn, both with the scene
// locked.
type Overlay interface {
	Step(dt float64) error
	Draw(c gfx.Canvas) error
}

const (
	// maxFrameTime caps the simulated time of one frame so a stalled
	// frontend does not fling bodies apart.
	maxFrameTime = 250 * time.Millisecond

	sizeSpeed     = 0.2
	densitySpeed  = 0.1
	zoomSpeed     = 0.01
	launchDivisor = 50.0

	cursorWidth    = 5
	previewAlpha   = 50
	maxPreviewSize = 32767

	panelRadius  = 6
	panelPadding = 10
	panelMargin  = 10
)

var cursorColor = color.NRGBA{R: 255, G: 255, B: 255, A: 50}

// Scene is one running simulation with its camera and body editor. It is
// safe for concurrent use; frontends call Update and Draw from their frame
// loop and read HUD afterwards.
type Scene struct {
	mu sync.Mutex

	cfg     Config
	simCfg  config.SimConfig
	sys     *sim.System
	cam     *sim.Cam
	metrics *FrameMetrics

	measurer     TextMeasurer
	overlay      Overlay
	errorHandler ErrorHandler

	size    float64
	density float64
	hud     bool
	editor  bool
	elapsed float64

	anchor     sim.Vec // world position of the body being placed
	launch     sim.Vec // its launch velocity
	cursor     sim.Vec
	dragging   bool
	wasPressed bool
	selected   int
}

// NewScene creates a scene and places the configured bodies.
func NewScene(cfg Config, simCfg config.SimConfig) (*Scene, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid render config: %w", err)
	}
	s := &Scene{
		cfg:          cfg,
		simCfg:       simCfg,
		sys:          sim.NewSystem(simCfg.Gravity),
		cam:          sim.NewCam(cfg.Width, cfg.Height),
		metrics:      NewFrameMetrics(time.Second),
		measurer:     NewBasicFaceRenderer(),
		errorHandler: DefaultErrorHandler,
		size:         simCfg.Size,
		density:      simCfg.Density,
		hud:          cfg.HUD,
		editor:       true,
		selected:     -1,
	}
	s.sys.TrailLength = simCfg.TrailLength
	if err := s.place(); err != nil {
		return nil, err
	}
	return s, nil
}

// place adds the configured bodies to the system.
func (s *Scene) place() error {
	for i, b := range s.simCfg.Bodies {
		if _, err := s.sys.Add(sim.Vec{X: b.X, Y: b.Y}, sim.Vec{X: b.VX, Y: b.VY}, b.Density, b.Radius); err != nil {
			return fmt.Errorf("body %d: %w", i, err)
		}
	}
	return nil
}

// SetOverlay sets the script layer. nil removes it.
func (s *Scene) SetOverlay(o Overlay) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlay = o
}

// SetMeasurer sets the text measurer used to size the HUD panel.
func (s *Scene) SetMeasurer(m TextMeasurer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m != nil {
		s.measurer = m
	}
}

// SetErrorHandler sets the handler for overlay and editor errors. It runs
// with the scene locked and must not call back into the scene. If nil is
// passed, errors are silently ignored.
func (s *Scene) SetErrorHandler(h ErrorHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorHandler = h
}

func (s *Scene) report(err error) {
	if s.errorHandler != nil {
		s.errorHandler(err)
	}
}

// SetEditorVisible shows or hides the placement preview. Frontends
// without a pointer hide it.
func (s *Scene) SetEditorVisible(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editor = v
}

// Config returns the current render configuration.
func (s *Scene) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Apply swaps in a new configuration without restarting. Physics constants
// take effect on the next step; configured bodies are placed on the next
// reset.
func (s *Scene) Apply(cfg Config, simCfg config.SimConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid render config: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if cfg.HUD != s.cfg.HUD {
		s.hud = cfg.HUD
	}
	s.cfg = cfg
	s.cam.W, s.cam.H = cfg.Width, cfg.Height
	s.simCfg = simCfg
	s.sys.G = simCfg.Gravity
	s.sys.TrailLength = simCfg.TrailLength
	return nil
}

// Resize changes the canvas size.
func (s *Scene) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Width, s.cfg.Height = w, h
	s.cam.W, s.cam.H = w, h
}

// Size returns the canvas size.
func (s *Scene) Size() (w, h int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Width, s.cfg.Height
}

// Reset removes every body, re-places the configured ones and moves the
// camera home.
func (s *Scene) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reset()
}

func (s *Scene) reset() error {
	s.sys.Reset()
	s.cam.Reset()
	s.elapsed = 0
	s.dragging = false
	s.selected = -1
	return s.place()
}

// Do runs fn with the scene locked. Script hooks that may call back into
// the simulation through Provider run this way.
func (s *Scene) Do(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// Update applies one frame of input and advances the simulation by the
// wall clock time frame, scaled by the configured time scale.
func (s *Scene) Update(in Input, frame time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if frame <= 0 {
		frame = time.Nanosecond
	}
	s.metrics.RecordFrame(frame)
	dt := min(frame, maxFrameTime).Seconds() * s.simCfg.TimeScale

	if in.Reset {
		if err := s.reset(); err != nil {
			s.report(fmt.Errorf("reset: %w", err))
		}
	}
	if in.ToggleHUD {
		s.hud = !s.hud
	}
	s.cursor = in.Cursor
	if in.Wheel != 0 {
		s.cam.ZoomAt(in.Cursor, zoomSpeed*dt*in.Wheel)
	}

	s.edit(in)

	if in.Pan != (sim.Vec{}) {
		s.cam.Pan(in.Pan.X*dt, in.Pan.Y*dt)
	}
	s.size = adjust(s.size, sizeSpeed*dt, in.Grow, in.Shrink)
	s.density = adjust(s.density, densitySpeed*dt, in.Denser, in.Lighter)

	s.sys.Update(dt)
	s.elapsed += dt
	if s.overlay != nil {
		if err := s.overlay.Step(dt); err != nil {
			s.report(fmt.Errorf("overlay step: %w", err))
		}
	}

	s.selected = -1
	if !s.dragging {
		s.selected = s.sys.BodyAt(s.cam.ReverseTransform(s.cursor))
	}
}

// edit runs the drag-to-launch editor: pressing fixes the position, the
// drag sets the velocity and releasing adds the body.
func (s *Scene) edit(in Input) {
	at := s.cam.ReverseTransform(in.Cursor)
	if !s.dragging {
		s.anchor = at
	}
	if in.Pressed && !s.wasPressed && !s.dragging {
		s.dragging = true
	}
	s.wasPressed = in.Pressed

	if !s.dragging {
		return
	}
	if in.Pressed {
		s.launch = at.Sub(s.anchor).Scale(1 / launchDivisor)
		return
	}
	s.dragging = false
	if _, err := s.sys.Add(s.anchor, s.launch, s.density, s.size/s.cam.Zoom); err != nil {
		s.report(fmt.Errorf("add body: %w", err))
	}
	s.launch = sim.Vec{}
}

// adjust moves v by step up or down, never below 1.
func adjust(v, step float64, up, down bool) float64 {
	if up {
		v += step
	}
	if down {
		v -= step
	}
	return math.Max(v, 1)
}

type clearer interface {
	Clear(c color.NRGBA)
}

func (s *Scene) clear(c gfx.Canvas) error {
	if cl, ok := c.(clearer); ok {
		cl.Clear(s.cfg.Background)
		return nil
	}
	c.SetBlendMode(gfx.BlendNone)
	c.SetDrawColor(s.cfg.Background)
	return c.FillRect(image.Rect(0, 0, s.cfg.Width, s.cfg.Height))
}

// Draw renders one frame onto c: background, editor preview, bodies,
// overlay and HUD panel. HUD text is left to the frontend; see HUD.
// Overlay failures go to the error handler and do not fail the frame.
func (s *Scene) Draw(c gfx.Canvas) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.clear(c); err != nil {
		return fmt.Errorf("clear: %w", err)
	}

	if s.editor {
		if err := s.drawEditor(c); err != nil {
			return err
		}
	}

	if err := s.sys.Draw(c, s.cam); err != nil {
		return fmt.Errorf("bodies: %w", err)
	}
	if err := s.sys.DrawVelocity(c, s.cam, s.selected, launchDivisor); err != nil {
		return fmt.Errorf("velocity: %w", err)
	}

	if s.overlay != nil {
		if err := s.overlay.Draw(c); err != nil {
			s.report(fmt.Errorf("overlay draw: %w", err))
		}
	}

	if panel, _ := s.hudLayout(); !panel.Empty() {
		if err := s.drawPanel(c, panel); err != nil {
			return fmt.Errorf("hud: %w", err)
		}
	}
	return nil
}

// drawEditor draws the translucent body about to be placed and, while
// dragging, the launch line to the cursor.
func (s *Scene) drawEditor(c gfx.Canvas) error {
	anchor := s.cam.ScreenPoint(s.anchor)
	r := min(int(s.size), maxPreviewSize)
	if err := gfx.FilledCircle(c, anchor, r, sim.BodyColor(s.density, previewAlpha)); err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	if !s.dragging {
		return nil
	}
	cursor := image.Pt(int(s.cursor.X), int(s.cursor.Y))
	if err := gfx.ThickLine(c, anchor, cursor, cursorWidth, cursorColor); err != nil {
		return fmt.Errorf("cursor line: %w", err)
	}
	return nil
}

func (s *Scene) drawPanel(c gfx.Canvas, panel image.Rectangle) error {
	last := panel.Max.Sub(image.Pt(1, 1))
	if err := gfx.RoundedBox(c, panel.Min, last, panelRadius, s.cfg.HUDPanel); err != nil {
		return err
	}
	border := s.cfg.HUDColor
	border.A /= 3
	return gfx.RoundedRectangle(c, panel.Min, last, panelRadius, border)
}

// HUD returns the expanded HUD lines positioned inside the panel, or nil
// when the HUD is hidden.
func (s *Scene) HUD() []TextLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, lines := s.hudLayout()
	return lines
}

// HUDVisible reports whether the HUD is shown.
func (s *Scene) HUDVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hud
}

func (s *Scene) hudLayout() (image.Rectangle, []TextLine) {
	if !s.hud || len(s.cfg.HUDText) == 0 {
		return image.Rectangle{}, nil
	}

	st := s.stats()
	lh := s.measurer.LineHeight()
	lines := make([]TextLine, len(s.cfg.HUDText))
	var width float64
	for i, t := range s.cfg.HUDText {
		text := lua.Expand(t, st)
		w, _ := s.measurer.MeasureText(text)
		width = math.Max(width, w)
		lines[i] = TextLine{Text: text, Color: s.cfg.HUDColor}
	}

	pw := int(math.Ceil(width)) + 2*panelPadding
	ph := int(math.Ceil(lh*float64(len(lines)))) + 2*panelPadding
	x, y := panelMargin, panelMargin
	switch s.cfg.HUDAlignment {
	case config.AlignmentTopRight:
		x = s.cfg.Width - panelMargin - pw
	case config.AlignmentBottomLeft:
		y = s.cfg.Height - panelMargin - ph
	case config.AlignmentBottomRight:
		x = s.cfg.Width - panelMargin - pw
		y = s.cfg.Height - panelMargin - ph
	}

	for i := range lines {
		lines[i].X = float64(x + panelPadding)
		lines[i].Y = float64(y+panelPadding) + lh*float64(i)
	}
	return image.Rect(x, y, x+pw, y+ph), lines
}

// Stats returns the current simulation statistics.
func (s *Scene) Stats() lua.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats()
}

func (s *Scene) stats() lua.Stats {
	return lua.Stats{
		FPS:     s.metrics.FPS(),
		Bodies:  s.sys.Len(),
		Mass:    s.sys.TotalMass(),
		Merges:  s.sys.Merges(),
		Zoom:    s.cam.Zoom,
		Size:    s.size,
		Density: s.density,
		Time:    s.elapsed,
		Gravity: s.sys.G,
	}
}

// Provider returns the scene as a lua.SimProvider. Its methods do not lock
// the scene; they are meant for script hooks, which the scene only calls
// from Update, Draw or Do.
func (s *Scene) Provider() lua.SimProvider {
	return sceneProvider{s}
}

type sceneProvider struct {
	s *Scene
}

func (p sceneProvider) Stats() lua.Stats { return p.s.stats() }

func (p sceneProvider) Body(i int) (lua.BodyInfo, bool) {
	sys, cam := p.s.sys, p.s.cam
	if i < 0 || i >= sys.Len() {
		return lua.BodyInfo{}, false
	}
	b := sys.Bodies[i]
	sp := cam.ScreenPoint(b.Pos)
	return lua.BodyInfo{
		X:            b.Pos.X,
		Y:            b.Pos.Y,
		VX:           b.Vel.X,
		VY:           b.Vel.Y,
		Density:      b.Density,
		Radius:       b.Radius,
		ScreenX:      sp.X,
		ScreenY:      sp.Y,
		ScreenRadius: cam.ScreenRadius(b.Radius),
	}, true
}

func (p sceneProvider) AddBody(x, y, vx, vy, density, radius float64) error {
	_, err := p.s.sys.Add(sim.Vec{X: x, Y: y}, sim.Vec{X: vx, Y: vy}, density, radius)
	return err
}

func (p sceneProvider) WorldToScreen(x, y float64) (int, int) {
	sp := p.s.cam.ScreenPoint(sim.Vec{X: x, Y: y})
	return sp.X, sp.Y
}
