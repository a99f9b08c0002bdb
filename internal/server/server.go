// Package server is a local stand-in for the vocabulary backend. It serves
// the graph and constellation views straight from a store.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kittclouds/constellation/internal/constellation"
	"github.com/kittclouds/constellation/internal/store"
)

// Server answers the vocabulary API.
type Server struct {
	store  store.Storer
	logger *log.Logger
	token  string
	now    func() time.Time
	base   string
	mux    *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithToken requires "Authorization: Bearer <token>" on every route but
// /healthz.
func WithToken(token string) Option {
	return func(s *Server) { s.token = token }
}

// WithClock overrides time.Now, used for link timestamps and layout seeds.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithBasePath mounts every route under prefix, e.g. "/api/v1".
func WithBasePath(prefix string) Option {
	return func(s *Server) { s.base = strings.TrimSuffix(prefix, "/") }
}

// New wires the routes.
func New(st store.Storer, opts ...Option) *Server {
	s := &Server{
		store:  st,
		logger: log.New(io.Discard, "", 0),
		now:    time.Now,
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc(s.base+"/graph/", s.authed(s.handleGraph))
	s.mux.HandleFunc(s.base+"/graph", s.authed(s.handleGraph))
	s.mux.HandleFunc(s.base+"/constellation", s.authed(s.handleConstellation))
	s.mux.HandleFunc(s.base+"/autolink", s.authed(s.handleAutoLink))
	s.mux.HandleFunc(s.base+"/healthz", s.handleHealth)
	return s
}

// ServeHTTP logs and dispatches a request.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	rec.Header().Set("Access-Control-Allow-Origin", "*")
	s.mux.ServeHTTP(rec, r)
	s.logger.Printf("%s %s -> %d (%s)", r.Method, r.URL.RequestURI(), rec.status, time.Since(start).Round(time.Microsecond))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Printf("vocabulary API listening on http://%s", ln.Addr())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Not authenticated"})
			return
		}
		next(w, r)
	}
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	p, err := constellation.LoadGraph(s.store)
	if err != nil {
		s.fail(w, "loading graph", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleConstellation(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"), constellation.DefaultLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	minWeight, err := intParam(q.Get("minWeight"), constellation.DefaultMinWeight)
	if err != nil {
		writeError(w, http.StatusBadRequest, "minWeight must be an integer")
		return
	}

	words, err := s.store.ListWords()
	if err != nil {
		s.fail(w, "loading words", err)
		return
	}
	links, err := s.store.ListLinks()
	if err != nil {
		s.fail(w, "loading links", err)
		return
	}

	resp := constellation.Build(words, links, constellation.Options{
		Limit:      limit,
		MinWeight:  minWeight,
		AutoLayout: q.Get("autoLayout") != "false",
		Seed:       s.now().UnixNano(),
	})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAutoLink(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	added, err := constellation.AutoLink(s.store, s.now().UnixMilli())
	if err != nil {
		s.fail(w, "linking words", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"added": added})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	words, err := s.store.CountWords()
	if err != nil {
		s.fail(w, "counting words", err)
		return
	}
	sentences, err := s.store.CountSentences()
	if err != nil {
		s.fail(w, "counting sentences", err)
		return
	}
	links, err := s.store.CountLinks()
	if err != nil {
		s.fail(w, "counting links", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"words":     words,
		"sentences": sentences,
		"links":     links,
	})
}

func (s *Server) fail(w http.ResponseWriter, what string, err error) {
	s.logger.Printf("error %s: %v", what, err)
	writeError(w, http.StatusInternalServerError, "failed "+what)
}

func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
