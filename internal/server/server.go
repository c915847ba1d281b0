// Package server streams simulations to SSH clients. Every session gets its
// own scene, rendered as truecolor half-block frames at a fixed tick.
package server

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gliderlabs/ssh"
	gossh "golang.org/x/crypto/ssh"

	"github.com/opd-ai/gravisim/internal/render"
	"github.com/opd-ai/gravisim/internal/term"
	"github.com/opd-ai/gravisim/pkg/gfx"
)

// DefaultFrameInterval is the frame period used when none is configured.
const DefaultFrameInterval = 100 * time.Millisecond

// ErrTooManySessions is reported to clients beyond the session limit.
var ErrTooManySessions = errors.New("too many sessions")

// SceneFactory creates the scene of a new session with a canvas of w by h
// pixels.
type SceneFactory func(w, h int) (*render.Scene, error)

// Config holds the server settings.
type Config struct {
	// Addr is the listen address.
	Addr string
	// HostKeyPath is a PEM private key file. Empty uses an ephemeral
	// ed25519 key.
	HostKeyPath string
	// FrameInterval is the time between frames.
	FrameInterval time.Duration
	// MaxSessions limits concurrent sessions. Zero means unlimited.
	MaxSessions int
	// Logger receives session events. nil discards them.
	Logger *slog.Logger
	// SessionContext decorates the context of each session, e.g. with a
	// correlation ID picked up by the logger's handler.
	SessionContext func(ctx context.Context) context.Context
}

// SSHServer serves scenes over SSH.
type SSHServer struct {
	cfg      Config
	newScene SceneFactory
	logger   *slog.Logger

	active atomic.Int32

	mu  sync.Mutex
	srv *ssh.Server
}

// NewSSHServer creates a server that builds session scenes with newScene.
func NewSSHServer(cfg Config, newScene SceneFactory) *SSHServer {
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SSHServer{cfg: cfg, newScene: newScene, logger: logger}
}

// Active returns the number of sessions being served.
func (s *SSHServer) Active() int {
	return int(s.active.Load())
}

func (s *SSHServer) build() (*ssh.Server, error) {
	srv := &ssh.Server{
		Addr:    s.cfg.Addr,
		Handler: s.handleSession,
	}
	if s.cfg.HostKeyPath != "" {
		if err := srv.SetOption(ssh.HostKeyFile(s.cfg.HostKeyPath)); err != nil {
			return nil, fmt.Errorf("set host key: %w", err)
		}
	} else {
		signer, err := EphemeralSigner()
		if err != nil {
			return nil, err
		}
		srv.AddHostKey(signer)
	}

	s.mu.Lock()
	s.srv = srv
	s.mu.Unlock()
	return srv, nil
}

// EphemeralSigner generates a throwaway ed25519 host key.
func EphemeralSigner() (gossh.Signer, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate host key: %w", err)
	}
	signer, err := gossh.NewSignerFromKey(priv)
	if err != nil {
		return nil, fmt.Errorf("create host key signer: %w", err)
	}
	return signer, nil
}

// ListenAndServe listens on the configured address and serves until ctx
// is cancelled or Close is called.
func (s *SSHServer) ListenAndServe(ctx context.Context) error {
	l, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ctx, l)
}

// Serve accepts connections on l until ctx is cancelled or Close is
// called. It closes l.
func (s *SSHServer) Serve(ctx context.Context, l net.Listener) error {
	srv, err := s.build()
	if err != nil {
		l.Close()
		return err
	}

	stop := context.AfterFunc(ctx, func() { srv.Close() })
	defer stop()

	s.logger.InfoContext(ctx, "SSH server listening", "addr", l.Addr().String())
	err = srv.Serve(l)
	if errors.Is(err, ssh.ErrServerClosed) {
		return nil
	}
	return err
}

// Close stops the server and drops every session.
func (s *SSHServer) Close() error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Close()
}

func (s *SSHServer) handleSession(sess ssh.Session) {
	ctx := sess.Context()
	var base context.Context = ctx
	if s.cfg.SessionContext != nil {
		base = s.cfg.SessionContext(base)
	}
	log := s.logger.With("user", sess.User(), "remote", sess.RemoteAddr().String())

	ptyReq, winCh, ok := sess.Pty()
	if !ok {
		io.WriteString(sess, "Error: PTY required. Use: ssh -t ...\n")
		sess.Exit(1)
		return
	}

	n := s.active.Add(1)
	defer s.active.Add(-1)
	if s.cfg.MaxSessions > 0 && int(n) > s.cfg.MaxSessions {
		log.WarnContext(base, "session rejected", "error", ErrTooManySessions)
		fmt.Fprintf(sess, "Error: %v, try again later.\n", ErrTooManySessions)
		sess.Exit(1)
		return
	}

	log.InfoContext(base, "session started")
	defer log.InfoContext(base, "session ended")

	if err := s.stream(ctx, sess, ptyReq.Window, winCh, func(err error) {
		log.WarnContext(base, "frame error", "error", err)
	}); err != nil {
		log.WarnContext(base, "session failed", "error", err)
	}
}

// stream runs the frame loop of one session until the client quits or
// disconnects.
func (s *SSHServer) stream(ctx context.Context, rw io.ReadWriter, win ssh.Window, winCh <-chan ssh.Window, onError render.ErrorHandler) error {
	w, h := term.CanvasSize(win.Width, win.Height)
	scene, err := s.newScene(w, h)
	if err != nil {
		fmt.Fprintf(rw, "Error: %v\n", err)
		return fmt.Errorf("create scene: %w", err)
	}
	scene.SetMeasurer(term.CellMeasurer{})
	scene.SetEditorVisible(false)
	scene.SetErrorHandler(onError)

	io.WriteString(rw, term.EnableAltScreen+term.HideCursor+term.ClearScreen)
	defer io.WriteString(rw, term.Reset+term.ShowCursor+term.DisableAltScreen)

	var (
		mu   sync.Mutex
		keys term.Keys
		quit = make(chan struct{})
	)
	go func() {
		defer close(quit)
		buf := make([]byte, 64)
		for {
			n, err := rw.Read(buf)
			if err != nil {
				return
			}
			mu.Lock()
			done := parseInput(&keys, buf[:n])
			mu.Unlock()
			if done {
				return
			}
		}
	}()

	canvas := gfx.NewImageCanvas(w, h)
	ticker := time.NewTicker(s.cfg.FrameInterval)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-quit:
			return nil
		case win, ok := <-winCh:
			if !ok {
				winCh = nil
				continue
			}
			w, h = term.CanvasSize(win.Width, win.Height)
			scene.Resize(w, h)
			canvas.Resize(w, h)
			io.WriteString(rw, term.ClearScreen)
		case now := <-ticker.C:
			mu.Lock()
			in := keys.Take()
			mu.Unlock()

			scene.Update(in, now.Sub(last))
			last = now
			if err := scene.Draw(canvas); err != nil {
				return fmt.Errorf("draw: %w", err)
			}
			g := term.NewGrid(canvas.Image())
			g.Text(scene.HUD())
			if err := g.WriteANSI(rw); err != nil {
				return nil
			}
		}
	}
}
