// Package server exposes uploads, OCR and text analysis over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/japaniel/creamy/pkg/analysis"
	"github.com/japaniel/creamy/pkg/exercise"
	"github.com/japaniel/creamy/pkg/images"
	"github.com/japaniel/creamy/pkg/ingest"
	"github.com/japaniel/creamy/pkg/upload"
)

// DefaultMaxUploadBytes limits request bodies when Deps leaves it unset.
const DefaultMaxUploadBytes = 10 << 20

// Deps are the services the handlers call.
type Deps struct {
	Uploads   upload.Store
	Images    images.Store
	Ingester  *ingest.Ingester
	Analysis  *analysis.Service
	Exercises *exercise.Generator
	Logger    *slog.Logger

	MaxUploadBytes int64
	// CORSOrigin is sent as Access-Control-Allow-Origin; empty disables CORS headers.
	CORSOrigin string
}

// Server routes HTTP requests to the services.
type Server struct {
	uploads   upload.Store
	deleter   *ingest.Uploads
	images    images.Store
	ingester  *ingest.Ingester
	analysis  *analysis.Service
	exercises *exercise.Generator
	logger    *slog.Logger

	maxUploadBytes int64
	corsOrigin     string
}

// New builds a Server.
func New(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxUpload := d.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	return &Server{
		uploads:        d.Uploads,
		deleter:        &ingest.Uploads{Store: d.Uploads, Images: d.Images, Logger: logger},
		images:         d.Images,
		ingester:       d.Ingester,
		analysis:       d.Analysis,
		exercises:      d.Exercises,
		logger:         logger,
		maxUploadBytes: maxUpload,
		corsOrigin:     d.CORSOrigin,
	}
}

// Router registers every route.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/uploads", s.handleListUploads).Methods(http.MethodGet)
	// "all" must win over the {id} pattern.
	r.HandleFunc("/uploads/all", s.handleDeleteAllUploads).Methods(http.MethodDelete)
	r.HandleFunc("/uploads/{id}", s.handleDeleteUpload).Methods(http.MethodDelete)
	r.HandleFunc("/ocr", s.handleOCRUpload).Methods(http.MethodPost)
	r.HandleFunc("/ocr", s.handleOCRLookup).Methods(http.MethodGet)
	r.HandleFunc("/uploaded_images/{filename}", s.handleImage).Methods(http.MethodGet)
	r.HandleFunc("/top_words", s.handleTopWords).Methods(http.MethodGet)
	r.HandleFunc("/analyze", s.handleAnalyze).Methods(http.MethodPost)
	r.HandleFunc("/exercise", s.handleExercise).Methods(http.MethodPost)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// Handler is the router wrapped in middleware, serving HTTP/1.1 and h2c.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.Router()
	h = s.logRequests(h)
	h = requestID(h)
	h = corsMiddleware(h, s.corsOrigin)
	return h2c.NewHandler(h, &http2.Server{})
}

// ListenAndServe serves on addr until ctx is done, then shuts down within
// shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server gracefully stopped")
	return nil
}
