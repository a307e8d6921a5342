// Package server exposes the RAG pipeline over HTTP: document upload, query
// and health endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"docqa/internal/ingest"
	"docqa/internal/rag"
	"docqa/internal/session"
)

// maxUploadBytes bounds multipart upload memory use.
const maxUploadBytes = 32 << 20

// Server handles the HTTP API. Sessions may be nil, which disables
// conversation persistence.
type Server struct {
	pipeline *rag.Pipeline
	sessions *session.Store
	log      *slog.Logger
}

// New creates a Server around a pipeline.
func New(pipeline *rag.Pipeline, sessions *session.Store, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{pipeline: pipeline, sessions: sessions, log: log}
}

// Handler returns the routed HTTP handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("POST /api/query", s.handleQuery)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	return s.logRequests(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status)
	})
}

type uploadResponse struct {
	Status string `json:"status"`
	rag.IngestResult
}

// handleUpload accepts a multipart file and runs it through the ingestion
// pipeline. The upload is staged to a temp file so the parsers can route it
// by extension, while chunks are attributed to the original filename.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid multipart request: %w", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("missing file field: %w", err))
		return
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "docqa-upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := tmp.Close(); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	result, err := s.pipeline.IngestAs(r.Context(), tmp.Name(), filepath.Base(header.Filename))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ingest.ErrUnsupportedType) || strings.Contains(err.Error(), "no text could be extracted") {
			status = http.StatusBadRequest
		}
		s.writeError(w, status, err)
		return
	}

	s.writeJSON(w, http.StatusOK, uploadResponse{Status: "success", IngestResult: result})
}

type queryRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

type queryResponse struct {
	Answer     string   `json:"answer"`
	Sources    []string `json:"sources"`
	Confidence float64  `json:"confidence"`
	SessionID  string   `json:"session_id,omitempty"`
}

// handleQuery runs the full plan/retrieve/reason flow and records the turn
// when sessions are enabled.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("question is required"))
		return
	}

	result, err := s.pipeline.Query(r.Context(), req.Question)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp := queryResponse{
		Answer:     result.Answer,
		Sources:    result.Sources,
		Confidence: result.Confidence,
		SessionID:  req.SessionID,
	}
	if s.sessions != nil {
		sessionID, err := s.recordTurn(r.Context(), req.SessionID, req.Question, result.Answer)
		if errors.Is(err, session.ErrSessionNotFound) {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		if err != nil {
			// Persistence failure degrades to an unrecorded turn.
			s.log.Warn("failed to record conversation turn", "error", err)
		} else {
			resp.SessionID = sessionID
		}
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// recordTurn persists a conversation turn, creating a session when the
// client did not supply one.
func (s *Server) recordTurn(ctx context.Context, sessionID, question, answer string) (string, error) {
	if sessionID == "" {
		created, err := s.sessions.Create(ctx)
		if err != nil {
			return "", err
		}
		sessionID = created
	}
	if _, err := s.sessions.AppendTurn(ctx, sessionID, question, answer); err != nil {
		return "", err
	}
	return sessionID, nil
}

type healthResponse struct {
	Status        string   `json:"status"`
	UploadedFiles []string `json:"uploaded_files"`
	TotalChunks   int      `json:"total_chunks"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		UploadedFiles: s.pipeline.IngestedFiles(),
		TotalChunks:   s.pipeline.Count(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.log.Error("request failed", "status", status, "error", err)
	s.writeJSON(w, status, map[string]string{"detail": err.Error()})
}
