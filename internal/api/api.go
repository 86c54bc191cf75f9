// Package api exposes the LoveLoop session lifecycle over HTTP JSON.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/BTreeMap/LoveLoop/internal/genai"
	"github.com/BTreeMap/LoveLoop/internal/models"
	"github.com/BTreeMap/LoveLoop/internal/session"
	"github.com/BTreeMap/LoveLoop/internal/store"
)

// DefaultAddr is the default listen address for the API server.
const DefaultAddr = ":8080"

// Opts holds configuration options for the API server.
type Opts struct {
	Addr string
}

// Option configures the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) {
		o.Addr = addr
	}
}

// Server serves the session API over an orchestrator.
type Server struct {
	orch *session.Orchestrator
	addr string
	srv  *http.Server
}

// NewServer creates an API server over the given orchestrator.
func NewServer(orch *session.Orchestrator, opts ...Option) *Server {
	o := Opts{Addr: DefaultAddr}
	for _, opt := range opts {
		opt(&o)
	}
	s := &Server{orch: orch, addr: o.Addr}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sessions", s.handleCreateSession)
	mux.HandleFunc("GET /sessions/{id}", s.handleSessionStatus)
	mux.HandleFunc("POST /sessions/{id}/turns", s.handleTurn)
	mux.HandleFunc("GET /sessions/{id}/history", s.handleHistory)
	mux.HandleFunc("POST /sessions/{id}/restart", s.handleRestart)
	mux.HandleFunc("GET /health", s.handleHealth)
	s.srv = &http.Server{
		Addr:         o.Addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}
	return s
}

// Handler returns the server's HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// ListenAndServe starts the HTTP server and blocks until the context is
// canceled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("api.Server: listening", "addr", s.addr)
		errCh <- s.srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Run wires a store, a generation client, and an orchestrator together
// and serves the API until the context is canceled.
func Run(ctx context.Context, dsn string, storeOpts []store.Option, genaiOpts []genai.Option, apiOpts []Option) error {
	var (
		st  store.Store
		err error
	)
	switch {
	case dsn == "":
		slog.Info("api.Run: no database DSN configured, using in-memory store")
		st = store.NewInMemoryStore()
	case store.DetectDSNType(dsn) == "postgres":
		st, err = store.NewPostgresStore(storeOpts...)
	default:
		st, err = store.NewSQLiteStore(storeOpts...)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	gen, err := genai.NewClient(genaiOpts...)
	if err != nil {
		return fmt.Errorf("failed to initialize generation client: %w", err)
	}

	orch, err := session.NewOrchestrator(st, gen, models.DefaultAffinityConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize orchestrator: %w", err)
	}
	defer orch.Stop()

	return NewServer(orch, apiOpts...).ListenAndServe(ctx)
}
