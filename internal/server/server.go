// Package server is the local anyclick HTTP server: it accepts feedback
// submissions from instrumented pages, serves the capture client script,
// and carries the websocket channel used for screenshot rendering, toast
// delivery, and fun-mode pointer frames.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/anyclick/anyclick/internal/adapter"
	"github.com/anyclick/anyclick/internal/agentproc"
	"github.com/anyclick/anyclick/internal/archive"
	"github.com/anyclick/anyclick/internal/config"
	"github.com/anyclick/anyclick/internal/debug"
	"github.com/anyclick/anyclick/internal/highlight"
	"github.com/anyclick/anyclick/internal/history"
	"github.com/anyclick/anyclick/internal/payload"
	"github.com/anyclick/anyclick/internal/pointer"
	"github.com/anyclick/anyclick/internal/toast"
	"github.com/anyclick/anyclick/internal/uploader"
)

// DefaultPort is the local server port.
const DefaultPort = 3284

// Config tunes one server instance.
type Config struct {
	// Host to bind. Default: "localhost". The server is meant to stay
	// local; binding wider is an explicit choice.
	Host string

	// Port to bind. Default: DefaultPort.
	Port int

	// Origins are the allowed CORS origins beyond localhost.
	Origins []string

	// Dev, when true, returns upstream adapter errors verbatim instead
	// of the redacted production message.
	Dev bool

	// UploadToken is the UploadThing token used when the request does
	// not carry one.
	UploadToken string
}

func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port <= 0 {
		c.Port = DefaultPort
	}
	return c
}

// Server wires the anyclick subsystems behind the HTTP surface.
type Server struct {
	cfg Config

	adapter     adapter.Adapter
	history     *history.Store
	toasts      *toast.Manager
	pointer     *pointer.Engine
	runner      *pointer.Runner
	archive     *archive.Archive
	agent       *agentproc.Runner
	hub         *Hub
	scopes      *config.ScopeStack
	builder     *payload.Builder
	highlighter *highlight.Highlighter

	httpServer *http.Server
}

// Options carries the collaborators a server dispatches to. Nil fields
// disable the corresponding routes.
type Options struct {
	Adapter adapter.Adapter
	History *history.Store
	Toasts  *toast.Manager
	Pointer *pointer.Engine
	Archive *archive.Archive
	Agent   *agentproc.Runner

	// Scopes resolves per-request capture, payload, and highlight
	// options. Nil uses the defaults.
	Scopes *config.ScopeStack
}

// New builds a server. Missing collaborators get inert defaults where
// that is safe.
func New(cfg Config, opts Options) *Server {
	cfg = cfg.withDefaults()

	s := &Server{
		cfg:     cfg,
		adapter: opts.Adapter,
		history: opts.History,
		toasts:  opts.Toasts,
		pointer: opts.Pointer,
		archive: opts.Archive,
		agent:   opts.Agent,
		scopes:  opts.Scopes,
	}
	if s.history == nil {
		s.history = history.NewStore()
	}
	if s.toasts == nil {
		s.toasts = toast.NewManager(toast.DefaultConfig())
	}
	if s.pointer == nil {
		s.pointer = pointer.NewEngine(pointer.Config{})
	}
	if s.scopes == nil {
		s.scopes = config.NewScopeStack(nil)
	}

	cur := s.scopes.Current()
	s.builder = payload.NewBuilder(payloadOptions(cur.Payload))
	s.highlighter = highlight.NewHighlighter(highlightOptions(cur.Highlight))

	s.hub = NewHub(cfg.Origins)
	s.hub.OnSnapshot = s.handleSnapshot
	s.toasts.OnChange(func(active []toast.Toast) {
		s.hub.Broadcast("toasts", toastBroadcast{
			Position: s.toasts.Position(),
			Toasts:   active,
		})
	})
	s.runner = pointer.NewRunner(s.pointer, func(f pointer.Frame) {
		s.hub.Broadcast("pointerFrame", f)
	})
	s.hub.OnInput = s.runner.SetInput

	return s
}

// Hub exposes the websocket hub, for callers that render screenshots.
func (s *Server) Hub() *Hub { return s.hub }

// Toasts exposes the toast manager.
func (s *Server) Toasts() *toast.Manager { return s.toasts }

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/feedback", s.handleFeedback)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/anyclick/chat/history", s.handleHistory)
	mux.HandleFunc("/api/anyclick/notify", s.handleNotify)
	mux.HandleFunc("/api/uploadthing", s.handleUpload)
	mux.HandleFunc("/anyclick/client.js", s.handleClientScript)
	mux.HandleFunc("/anyclick/ws", s.hub.HandleWS)
	return s.cors(mux)
}

// Start binds the listener and serves until ctx is canceled, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port))
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}

	s.runner.Start(ctx)
	debug.Log("server", "listening on http://%s", addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.runner.Stop()
		s.hub.Close()
		s.toasts.Close()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// cors restricts cross-origin access to localhost plus the configured
// origins.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Uploadthing-Token")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	return originAllowed(origin, s.cfg.Origins)
}

// originAllowed accepts localhost origins plus the configured extras.
// Shared by the CORS layer and the websocket upgrade check.
func originAllowed(origin string, extra []string) bool {
	u := strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://")
	host := u
	if h, _, err := net.SplitHostPort(u); err == nil {
		host = h
	}
	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return true
	}
	for _, allowed := range extra {
		if origin == allowed {
			return true
		}
	}
	return false
}

// toastBroadcast is the envelope pushed to pages on every toast change.
type toastBroadcast struct {
	Position string        `json:"position"`
	Toasts   []toast.Toast `json:"toasts"`
}

// uploadClient builds an UploadThing client for one request token.
func (s *Server) uploadClient(token string) *uploader.Client {
	return &uploader.Client{Token: token}
}

// clientIP extracts the caller address used as the history key.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
