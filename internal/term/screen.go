package term

import (
	"context"
	"fmt"
	"image/color"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/opd-ai/gravisim/internal/render"
	"github.com/opd-ai/gravisim/internal/sim"
	"github.com/opd-ai/gravisim/pkg/gfx"
)

// DefaultInterval is the frame period of the terminal frontend.
const DefaultInterval = 50 * time.Millisecond

// Screen presents a scene on a tcell screen. Keys: WASD or arrows pan,
// +/- zoom, z/x size, c/v density, r resets, h toggles the HUD, q, Escape
// or Ctrl-C quit. The left mouse button launches bodies when the terminal
// reports mouse events.
type Screen struct {
	screen   tcell.Screen
	scene    *render.Scene
	canvas   *gfx.ImageCanvas
	interval time.Duration
	pending  Keys
}

// Open creates and initializes the terminal screen. The caller must call
// Fini on it.
func Open() (tcell.Screen, error) {
	scr, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to create screen: %w", err)
	}
	if err := scr.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize screen: %w", err)
	}
	return scr, nil
}

// NewScreen binds scene to an initialized screen. A non-positive interval
// selects DefaultInterval.
func NewScreen(scr tcell.Screen, scene *render.Scene, interval time.Duration) *Screen {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Screen{
		screen:   scr,
		scene:    scene,
		canvas:   gfx.NewImageCanvas(1, 1),
		interval: interval,
	}
}

// Run draws frames until the user quits, ctx is cancelled or the screen
// is finalized.
func (s *Screen) Run(ctx context.Context) error {
	s.screen.EnableMouse()
	s.screen.HideCursor()
	s.scene.SetMeasurer(CellMeasurer{})
	s.resize()

	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)
	go s.screen.ChannelEvents(events, quit)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if s.handle(ev) {
				return nil
			}
		case now := <-ticker.C:
			if err := s.frame(now.Sub(last)); err != nil {
				return err
			}
			last = now
		}
	}
}

// handle folds one event into the pending input. It returns true when the
// user quits.
func (s *Screen) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		s.screen.Sync()
		s.resize()
	case *tcell.EventKey:
		return s.key(ev)
	case *tcell.EventMouse:
		x, y := ev.Position()
		btn := ev.Buttons()
		s.pending.Cursor = sim.Vec{X: float64(x), Y: float64(2*y + 1)}
		s.pending.Pressed = btn&tcell.Button1 != 0
		if btn&tcell.WheelUp != 0 {
			s.pending.Wheel++
		}
		if btn&tcell.WheelDown != 0 {
			s.pending.Wheel--
		}
	}
	return false
}

func (s *Screen) key(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyUp:
		s.pending.Pan.Y--
	case tcell.KeyDown:
		s.pending.Pan.Y++
	case tcell.KeyLeft:
		s.pending.Pan.X--
	case tcell.KeyRight:
		s.pending.Pan.X++
	case tcell.KeyRune:
		return s.pending.Rune(ev.Rune())
	}
	return false
}

func (s *Screen) resize() {
	w, h := CanvasSize(s.screen.Size())
	s.scene.Resize(w, h)
	s.canvas.Resize(w, h)
}

// frame advances the scene by elapsed and shows the result.
func (s *Screen) frame(elapsed time.Duration) error {
	s.scene.Update(s.pending.Take(), elapsed)
	if err := s.scene.Draw(s.canvas); err != nil {
		return fmt.Errorf("failed to draw frame: %w", err)
	}
	g := NewGrid(s.canvas.Image())
	g.Text(s.scene.HUD())
	Blit(s.screen, g)
	s.screen.Show()
	return nil
}

// Blit copies g to the top-left corner of scr.
func Blit(scr tcell.Screen, g *Grid) {
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			c := g.At(x, y)
			if c.Rune == 0 {
				continue
			}
			st := tcell.StyleDefault.Foreground(tcellColor(c.FG)).Background(tcellColor(c.BG))
			scr.SetContent(x, y, c.Rune, nil, st)
		}
	}
}

func tcellColor(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
