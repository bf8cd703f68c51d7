// Package server exposes a canvas over a websocket. Clients send pointer,
// wheel and focus events as JSON and receive frames back. One loop
// goroutine owns the canvas; connection handlers talk to it over a channel.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/ha1tch/nodegraph/internal/config"
	"github.com/ha1tch/nodegraph/pkg/bridge"
	"github.com/ha1tch/nodegraph/pkg/canvas"
	"github.com/ha1tch/nodegraph/pkg/graph"
	"github.com/ha1tch/nodegraph/pkg/render"
)

// ErrClosed is returned for requests made after Close.
var ErrClosed = errors.New("server closed")

// Option customises a Server.
type Option func(*Server)

// WithRunner replaces the exec runner used for invoke messages.
func WithRunner(r bridge.Runner) Option {
	return func(s *Server) { s.runner = r }
}

// WithCanvas serves c instead of a freshly seeded canvas.
func WithCanvas(c *canvas.Canvas) Option {
	return func(s *Server) { s.canvas = c }
}

// Server serves one shared canvas to any number of websocket clients.
type Server struct {
	cfg      *config.Config
	log      *slog.Logger
	canvas   *canvas.Canvas
	runner   bridge.Runner
	bridge   *bridge.Bridge
	upgrader websocket.Upgrader

	reqs chan request
	done chan struct{}
	once sync.Once

	mu      sync.Mutex
	clients map[*client]struct{}
}

type request struct {
	fn    func(c *canvas.Canvas) (any, error)
	reply chan response
}

type response struct {
	v   any
	err error
}

// New builds a server from cfg and starts its canvas loop. Call Close to
// stop it.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	timeout, err := cfg.Server.InvokeTimeout()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		log:     logger,
		reqs:    make(chan request),
		done:    make(chan struct{}),
		clients: make(map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.canvas == nil {
		var seed []graph.NodeSpec
		if !cfg.Editor.Seed {
			seed = []graph.NodeSpec{}
		}
		s.canvas = canvas.New(canvas.Options{Seed: seed, Logger: logger})
	}
	if s.runner == nil {
		s.runner = bridge.ExecRunner{Allow: cfg.Server.Commands, Timeout: timeout}
	}
	s.bridge = bridge.New(s.runner, logger)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}

	go s.loop()
	return s, nil
}

// loop is the only goroutine that touches the canvas.
func (s *Server) loop() {
	for {
		select {
		case req := <-s.reqs:
			v, err := req.fn(s.canvas)
			req.reply <- response{v, err}
		case <-s.done:
			return
		}
	}
}

// do runs fn on the loop goroutine and waits for its result.
func (s *Server) do(ctx context.Context, fn func(c *canvas.Canvas) (any, error)) (any, error) {
	select {
	case <-s.done:
		return nil, ErrClosed
	default:
	}
	req := request{fn: fn, reply: make(chan response, 1)}
	select {
	case s.reqs <- req:
	case <-s.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case r := <-req.reply:
		return r.v, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Frame returns the current frame.
func (s *Server) Frame(ctx context.Context) (canvas.Frame, error) {
	v, err := s.do(ctx, func(c *canvas.Canvas) (any, error) { return c.Frame(), nil })
	if err != nil {
		return canvas.Frame{}, err
	}
	return v.(canvas.Frame), nil
}

// Close stops the canvas loop, closes client connections and waits for
// in-flight invocations.
func (s *Server) Close() {
	s.once.Do(func() {
		close(s.done)
		s.mu.Lock()
		for c := range s.clients {
			c.conn.Close()
		}
		s.mu.Unlock()
		s.bridge.Wait()
	})
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.serveWS).Methods("GET")
	r.HandleFunc("/frame.svg", s.serveSVG).Methods("GET")
	r.HandleFunc("/frame.json", s.serveJSON).Methods("GET")
	r.HandleFunc("/healthz", s.serveHealth).Methods("GET")
	return r
}

// ListenAndServe serves on cfg.Server.Addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", srv.Addr, err)
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if s.cfg.Server.Origin == "" {
		return true
	}
	return r.Header.Get("Origin") == s.cfg.Server.Origin
}

func (s *Server) serveSVG(w http.ResponseWriter, r *http.Request) {
	f, err := s.Frame(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	opts := render.DefaultSVGOptions()
	opts.Width = s.cfg.Render.Width
	opts.Height = s.cfg.Render.Height
	opts.FontSize = s.cfg.Render.FontSize

	w.Header().Set("Content-Type", "image/svg+xml")
	if err := render.SVG(w, f, opts); err != nil {
		s.log.Warn("write svg", "err", err)
	}
}

func (s *Server) serveJSON(w http.ResponseWriter, r *http.Request) {
	f, err := s.Frame(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(f)
}

// Health is the /healthz body.
type Health struct {
	Status      string `json:"status"`
	Nodes       int    `json:"nodes"`
	Connections int    `json:"connections"`
	Clients     int    `json:"clients"`
}

func (s *Server) serveHealth(w http.ResponseWriter, r *http.Request) {
	v, err := s.do(r.Context(), func(c *canvas.Canvas) (any, error) {
		return Health{Status: "ok", Nodes: c.Nodes.Len(), Connections: c.Connections.Len()}, nil
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	h := v.(Health)
	s.mu.Lock()
	h.Clients = len(s.clients)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h)
}
