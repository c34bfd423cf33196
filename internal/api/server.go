package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/pbaille/essenskalender/internal/domain"
	"github.com/pbaille/essenskalender/internal/logging"
	"github.com/pbaille/essenskalender/internal/store"
)

// Prefix is the path every route is mounted under
const Prefix = "/api"

// Server handles HTTP requests for the diary API
type Server struct {
	store   store.Backend
	addr    string
	appName string
	log     logging.Logger
}

// New creates a new API server
func New(s store.Backend, addr, appName string, log logging.Logger) *Server {
	return &Server{store: s, addr: addr, appName: appName, log: log}
}

// Handler returns the routed handler, wrapped in CORS and request logging
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Entries
	mux.HandleFunc("GET "+Prefix+"/entries", s.listEntries)
	mux.HandleFunc("POST "+Prefix+"/entries", s.postEntries)
	mux.HandleFunc("GET "+Prefix+"/entries/{id}", s.getEntry)
	mux.HandleFunc("PUT "+Prefix+"/entries/{id}", s.updateEntry)
	mux.HandleFunc("DELETE "+Prefix+"/entries/{id}", s.deleteEntry)

	// Night pain
	mux.HandleFunc("GET "+Prefix+"/night-pain", s.getNightPain)
	mux.HandleFunc("POST "+Prefix+"/night-pain", s.saveNightPain)

	// Export
	mux.HandleFunc("GET "+Prefix+"/export", s.exportMonth)

	// Health check
	mux.HandleFunc("GET "+Prefix+"/health", s.health)

	return withCORS(s.withLogging(mux))
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "starting server", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info(ctx, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// withCORS adds CORS headers and answers every preflight with 204
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		h.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withLogging(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rec, r)
		s.log.Debug(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// fail maps a backend error to its status code. Unexpected faults are logged
// and their message surfaced as-is.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	default:
		s.log.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeError(w, status, err.Error())
}
