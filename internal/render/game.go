//go:build !noebiten

package render

import (
	"context"
	"errors"
	"image/color"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/opd-ai/gravisim/internal/sim"
	"github.com/opd-ai/gravisim/pkg/gfx"
)

// ErrGameTerminated is returned when the game loop is terminated via
// context cancellation or the Escape key.
var ErrGameTerminated = errors.New("game terminated")

// TextRendererInterface defines the interface for text rendering.
// This allows for mocking in tests.
type TextRendererInterface interface {
	TextMeasurer
	DrawText(screen *ebiten.Image, textStr string, x, y float64, clr color.Color)
	SetFontSize(size float64)
	FontSize() float64
}

// InputSource reads the input of one frame. scale converts window
// coordinates to canvas pixels. quit requests the loop to end.
type InputSource func(scale float64) (in Input, quit bool)

// Game implements ebiten.Game for a Scene. The scene is rasterized into a
// gfx.ImageCanvas on the CPU and uploaded once per frame; HUD text is drawn
// on top with the GPU text renderer.
type Game struct {
	scene        *Scene
	textRenderer TextRendererInterface
	input        InputSource
	errorHandler ErrorHandler

	canvas *gfx.ImageCanvas
	frame  *ebiten.Image

	scale      float64
	lastUpdate time.Time
	mu         sync.RWMutex
	running    bool
	ctx        context.Context
}

// NewGame creates a new Game presenting scene.
func NewGame(scene *Scene) *Game {
	return NewGameWithRenderer(scene, NewTextRenderer())
}

// NewGameWithRenderer creates a new Game instance with a custom text renderer.
// This is useful for testing.
func NewGameWithRenderer(scene *Scene, renderer TextRendererInterface) *Game {
	cfg := scene.Config()
	scene.SetMeasurer(renderer)
	scale := cfg.Scale
	if scale <= 0 {
		scale = 1
	}
	return &Game{
		scene:        scene,
		textRenderer: renderer,
		input:        ebitenInput,
		errorHandler: DefaultErrorHandler,
		canvas:       gfx.NewImageCanvas(cfg.Width, cfg.Height),
		scale:        scale,
		lastUpdate:   time.Now(),
	}
}

// SetErrorHandler sets a custom error handler for frame errors.
// If nil is passed, errors will be silently ignored.
func (g *Game) SetErrorHandler(handler ErrorHandler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errorHandler = handler
}

// SetInputSource replaces the Ebiten input polling.
func (g *Game) SetInputSource(src InputSource) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.input = src
}

// SetContext sets a context for the game loop. When the context is cancelled,
// the game loop will terminate gracefully.
func (g *Game) SetContext(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ctx = ctx
}

// Scene returns the presented scene.
func (g *Game) Scene() *Scene {
	return g.scene
}

// Update implements ebiten.Game.Update.
// It is called every tick (60 times per second by default).
func (g *Game) Update() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.ctx != nil {
		select {
		case <-g.ctx.Done():
			return ErrGameTerminated
		default:
		}
	}

	in, quit := g.input(g.scale)
	if quit {
		return ErrGameTerminated
	}

	now := time.Now()
	g.scene.Update(in, now.Sub(g.lastUpdate))
	g.lastUpdate = now
	return nil
}

// Draw implements ebiten.Game.Draw.
// It is called every frame to render the screen.
func (g *Game) Draw(screen *ebiten.Image) {
	g.mu.Lock()
	defer g.mu.Unlock()

	w, h := g.scene.Size()
	g.canvas.Resize(w, h)
	if err := g.scene.Draw(g.canvas); err != nil && g.errorHandler != nil {
		g.errorHandler(err)
	}

	if g.frame == nil || g.frame.Bounds().Dx() != w || g.frame.Bounds().Dy() != h {
		if g.frame != nil {
			g.frame.Deallocate()
		}
		g.frame = ebiten.NewImage(w, h)
	}
	g.frame.WritePixels(g.canvas.Image().Pix)
	screen.DrawImage(g.frame, nil)

	for _, line := range g.scene.HUD() {
		g.textRenderer.DrawText(screen, line.Text, line.X, line.Y, line.Color)
	}
}

// Layout implements ebiten.Game.Layout.
// The canvas follows the window size multiplied by the configured scale.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.mu.RLock()
	scale := g.scale
	g.mu.RUnlock()

	w := max(int(float64(outsideWidth)*scale), 1)
	h := max(int(float64(outsideHeight)*scale), 1)
	g.scene.Resize(w, h)
	return w, h
}

// Run starts the Ebiten game loop.
// This function blocks until the window is closed.
func (g *Game) Run() error {
	cfg := g.scene.Config()
	ebiten.SetWindowSize(int(float64(cfg.Width)/g.scale), int(float64(cfg.Height)/g.scale))
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if cfg.TPS > 0 {
		ebiten.SetTPS(cfg.TPS)
	}

	g.mu.Lock()
	g.running = true
	g.lastUpdate = time.Now()
	g.mu.Unlock()

	err := ebiten.RunGameWithOptions(g, &ebiten.RunGameOptions{
		ScreenTransparent: cfg.Transparent,
	})

	g.mu.Lock()
	g.running = false
	g.mu.Unlock()

	return err
}

// IsRunning returns whether the game loop is currently running.
func (g *Game) IsRunning() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.running
}

// ebitenInput polls the keyboard and mouse: WASD pans, the wheel zooms,
// Z/X change the size, C/V the density, R resets, H toggles the HUD and
// Escape quits.
func ebitenInput(scale float64) (Input, bool) {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return Input{}, true
	}

	x, y := ebiten.CursorPosition()
	_, wheel := ebiten.Wheel()
	in := Input{
		Cursor:    sim.Vec{X: float64(x) * scale, Y: float64(y) * scale},
		Pressed:   ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		Wheel:     wheel,
		Grow:      ebiten.IsKeyPressed(ebiten.KeyZ),
		Shrink:    ebiten.IsKeyPressed(ebiten.KeyX),
		Denser:    ebiten.IsKeyPressed(ebiten.KeyV),
		Lighter:   ebiten.IsKeyPressed(ebiten.KeyC),
		Reset:     inpututil.IsKeyJustPressed(ebiten.KeyR),
		ToggleHUD: inpututil.IsKeyJustPressed(ebiten.KeyH),
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) {
		in.Pan.X++
	}
	if ebiten.IsKeyPressed(ebiten.KeyA) {
		in.Pan.X--
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) {
		in.Pan.Y++
	}
	if ebiten.IsKeyPressed(ebiten.KeyW) {
		in.Pan.Y--
	}
	return in, false
}
