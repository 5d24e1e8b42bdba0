// Package server hosts regulations.json, the /regulations API and the
// rendered review console over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dshills/regconsole/internal/display"
	"github.com/dshills/regconsole/internal/fetch"
	"github.com/dshills/regconsole/internal/render"
)

// Server serves one regulations.json file.
type Server struct {
	dataPath string
	logger   *slog.Logger
	router   *chi.Mux
}

// New returns a Server reading dataPath on every request.
func New(dataPath string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{dataPath: dataPath, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/", s.handleConsole)
	r.Get("/regulations", s.handleRegulations)
	r.Get("/regulations.json", s.handleStatic)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok")) //nolint:errcheck
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "data", s.dataPath)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// handleConsole mounts a fresh display against the data file and renders it.
func (s *Server) handleConsole(w http.ResponseWriter, r *http.Request) {
	renderer, _ := render.NewRenderer("html")
	d := display.New(&fetch.File{Path: s.dataPath}, renderer, display.WithLogger(s.logger))
	defer d.Unmount()

	// A failed load leaves the console empty, it is not an error page.
	_ = d.Mount(r.Context())

	out, err := d.Render()
	if err != nil {
		s.logger.Error("rendering console", "error", err)
		http.Error(w, "rendering console: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(out) //nolint:errcheck
}

// handleRegulations returns the data file as stored. Keys the console does
// not model pass through untouched.
func (s *Server) handleRegulations(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(s.dataPath)
	if err == nil && !json.Valid(data) {
		err = fmt.Errorf("%s: invalid JSON", s.dataPath)
	}
	if err != nil {
		s.logger.Error("loading regulations", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data) //nolint:errcheck
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if _, err := os.Stat(s.dataPath); err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	http.ServeFile(w, r, s.dataPath)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v) //nolint:errcheck
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
