package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/japaniel/creamy/pkg/images"
	"github.com/japaniel/creamy/pkg/ingest"
	"github.com/japaniel/creamy/pkg/upload"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// errorStatus maps service errors to a status code and a client message.
func errorStatus(err error) (int, string) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, ingest.ErrNoImage):
		return http.StatusBadRequest, "No image uploaded"
	case errors.Is(err, ingest.ErrInvalidFilename), errors.Is(err, images.ErrInvalidName):
		return http.StatusBadRequest, "Invalid filename"
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, "Upload too large"
	case errors.Is(err, upload.ErrNotFound):
		return http.StatusNotFound, "Upload not found"
	case errors.Is(err, images.ErrNotFound):
		return http.StatusNotFound, "Image not found"
	case errors.Is(err, ingest.ErrOCRFailed):
		return http.StatusInternalServerError, "OCR failed"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed",
			"request_id", RequestID(r.Context()), "path", r.URL.Path, "error", err)
	}
	writeError(w, status, msg)
}
