// Package server exposes the preview dispatcher over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ameerarsath/publicdocsafe-sub000/pkg/logger"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/preview"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/runtime"
)

// Server wraps the HTTP listener around an assembled runtime.
type Server struct {
	rt     *runtime.Runtime
	router chi.Router
	logger *slog.Logger
	http   *http.Server
}

// New creates a Server for the given runtime.
func New(rt *runtime.Runtime) *Server {
	s := &Server{
		rt:     rt,
		logger: logger.GetLogger(),
	}
	s.router = s.buildRouter()
	return s
}

// Router returns the configured handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start listens on the configured address and blocks until the listener
// stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.rt.Config.Server.Host, s.rt.Config.Server.Port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("preview server listening", "addr", addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", s.rt.MetricsHandler)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/preview", s.handlePreview)
		r.Get("/handlers", s.handleHandlers)
		r.Post("/handlers/reset", s.handleReset)
	})

	return r
}

// requestLogger logs each request with its captured status and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePreview accepts a multipart upload and returns the preview outcome.
// The outcome is always 200: failures surface as structured fallback content,
// only malformed requests get a 4xx.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	maxBytes := s.rt.Config.Server.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart request: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	blob, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("read upload: %v", err))
		return
	}

	mimeType := r.FormValue("mime_type")
	if mimeType == "" {
		mimeType = header.Header.Get("Content-Type")
	}

	opts := parseOptions(r)
	s.rt.Metrics.ObserveUpload(r.Context(), int64(len(blob)))

	outcome := s.rt.Dispatcher.Preview(r.Context(), blob, header.Filename, mimeType, opts)
	writeJSON(w, http.StatusOK, outcome)
}

// handleHandlers reports the registered handlers with their health records.
func (s *Server) handleHandlers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":    s.rt.Registry.Count(),
		"handlers": s.rt.Registry.Handlers(),
		"health":   s.rt.Registry.HealthSnapshot(),
		"disabled": s.rt.Registry.Disabled(),
	})
}

// handleReset re-enables handlers disabled by repeated failures.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	disabled := s.rt.Registry.Disabled()
	s.rt.Registry.ResetDisabled()
	s.logger.Info("disabled handlers reset", "count", len(disabled))
	writeJSON(w, http.StatusOK, map[string]interface{}{"reset": disabled})
}

// parseOptions reads the optional rendering hints from the form fields.
func parseOptions(r *http.Request) *preview.Options {
	opts := &preview.Options{
		Sheet:   r.FormValue("sheet"),
		Quality: r.FormValue("quality"),
	}
	if v := r.FormValue("page"); v != "" {
		if page, err := strconv.Atoi(v); err == nil {
			opts.Page = page
		}
	}
	if v := r.FormValue("slide"); v != "" {
		if slide, err := strconv.Atoi(v); err == nil {
			opts.Slide = slide
		}
	}
	if v := r.FormValue("last_modified"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			opts.LastModified = ts
		}
	}
	return opts
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
