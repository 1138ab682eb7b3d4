package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/japaniel/creamy/pkg/analysis"
	"github.com/japaniel/creamy/pkg/exercise"
	"github.com/japaniel/creamy/pkg/upload"
)

const noOCRFound = "No OCR found for this image"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type uploadsResponse struct {
	Uploads []upload.Summary `json:"uploads"`
}

func (s *Server) handleListUploads(w http.ResponseWriter, r *http.Request) {
	list, err := s.uploads.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if list == nil {
		list = []upload.Summary{}
	}
	writeJSON(w, http.StatusOK, uploadsResponse{Uploads: list})
}

type textResponse struct {
	Text string `json:"text"`
}

func (s *Server) handleOCRUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			s.fail(w, r, err)
			return
		}
		writeError(w, http.StatusBadRequest, "No image uploaded")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No image uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.fail(w, r, fmt.Errorf("read upload: %w", err))
		return
	}
	res, err := s.ingester.Ingest(r.Context(), header.Filename, data)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, textResponse{Text: res.Text()})
}

type ocrLookupResponse struct {
	Text     string               `json:"text"`
	TopWords []analysis.WordCount `json:"top_words"`
}

func (s *Server) handleOCRLookup(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		writeError(w, http.StatusBadRequest, "No filename provided")
		return
	}
	text, err := s.uploads.TextByFilename(r.Context(), filename)
	if errors.Is(err, upload.ErrNotFound) {
		writeError(w, http.StatusNotFound, noOCRFound)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	words, err := s.analysis.WordFrequency(r.Context(), text, analysis.WordFreqLimit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ocrLookupResponse{Text: text, TopWords: words})
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	img, err := s.images.Get(r.Context(), mux.Vars(r)["filename"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}

type topWordsResponse struct {
	TopWords []analysis.TopWord `json:"top_words"`
}

func (s *Server) handleTopWords(w http.ResponseWriter, r *http.Request) {
	words, err := s.analysis.TopWords(r.Context(), r.URL.Query().Get("filename"))
	if errors.Is(err, upload.ErrNotFound) {
		writeError(w, http.StatusNotFound, noOCRFound)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, topWordsResponse{TopWords: words})
}

type analyzeRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	out, err := s.analysis.Analyze(r.Context(), req.Text)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type exerciseRequest struct {
	Sentences []string `json:"sentences"`
}

type exerciseResponse struct {
	Exercises []exercise.Exercise `json:"exercises"`
}

func (s *Server) handleExercise(w http.ResponseWriter, r *http.Request) {
	var req exerciseRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	out, err := s.exercises.Generate(r.Context(), req.Sentences)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exerciseResponse{Exercises: out})
}

type statusResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleDeleteUpload(w http.ResponseWriter, r *http.Request) {
	if _, err := s.deleter.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "upload deleted"})
}

func (s *Server) handleDeleteAllUploads(w http.ResponseWriter, r *http.Request) {
	n, err := s.deleter.DeleteAll(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: fmt.Sprintf("%d uploads deleted", n)})
}

// decodeJSON reads a JSON body into v, answering 400 on malformed input.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			s.fail(w, r, err)
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}
