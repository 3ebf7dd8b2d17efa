// Package server exposes the ingestion and question-answering pipelines
// over HTTP. All request and response bodies are JSON except uploads,
// which are multipart forms.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/JeYeMC/rag-service/internal/config"
	"github.com/JeYeMC/rag-service/internal/core"
	"github.com/JeYeMC/rag-service/internal/doctype"
	"github.com/JeYeMC/rag-service/internal/feedback"
	"github.com/JeYeMC/rag-service/internal/logger"
	"github.com/JeYeMC/rag-service/internal/rag"
)

const maxUploadBytes = 50 << 20

// analyzePreviewLen bounds the text preview returned by /analyze.
const analyzePreviewLen = 600

// questionAnswerer is the query pipeline capability the server consumes.
type questionAnswerer interface {
	AnswerQuestion(ctx context.Context, question string, topK int, docType, provider string) (*core.Answer, error)
}

// fileIngestor is the ingestion capability the server consumes.
type fileIngestor interface {
	IngestFile(ctx context.Context, path, source, provider string) *core.IngestResult
}

// entityExtractor is the optional enrichment capability used by /analyze.
type entityExtractor interface {
	ExtractEntities(ctx context.Context, provider, text string) string
}

// Server routes HTTP requests to the pipelines.
type Server struct {
	settings  *config.Settings
	pipeline  questionAnswerer
	ingestor  fileIngestor
	reader    core.DocumentReader
	store     *feedback.Store
	extractor entityExtractor
	router    *mux.Router
	apiKeys   map[string]struct{}
}

// New wires the HTTP server around the given pipelines.
func New(settings *config.Settings, pipeline questionAnswerer, ingestor fileIngestor, docReader core.DocumentReader, store *feedback.Store, extractor entityExtractor) *Server {
	s := &Server{
		settings:  settings,
		pipeline:  pipeline,
		ingestor:  ingestor,
		reader:    docReader,
		store:     store,
		extractor: extractor,
		apiKeys:   parseAPIKeys(settings.APIKeys),
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/").Subrouter()
	api.Use(s.authMiddleware)
	api.HandleFunc("/ingest", s.handleIngest).Methods(http.MethodPost)
	api.HandleFunc("/query", s.handleQuery).Methods(http.MethodPost)
	api.HandleFunc("/analyze", s.handleAnalyze).Methods(http.MethodPost)
	api.HandleFunc("/feedback", s.handleFeedback).Methods(http.MethodPost)

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is canceled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	addr := s.settings.Host + ":" + s.settings.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func parseAPIKeys(raw string) map[string]struct{} {
	keys := make(map[string]struct{})
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys[k] = struct{}{}
		}
	}
	return keys
}

// authMiddleware checks X-API-Key against the configured allowlist. An
// empty allowlist disables auth entirely.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.apiKeys) > 0 {
			if _, ok := s.apiKeys[r.Header.Get("X-API-Key")]; !ok {
				writeError(w, http.StatusUnauthorized, "invalid or missing API key")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	path, source, provider, err := s.saveUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := s.ingestor.IngestFile(r.Context(), path, source, provider)
	writeJSON(w, ingestStatusCode(result), result)
}

// ingestStatusCode maps stable ingestion error codes onto HTTP statuses.
func ingestStatusCode(result *core.IngestResult) int {
	if result.Status != "error" {
		return http.StatusOK
	}
	switch result.Error {
	case rag.ErrFileNotFound:
		return http.StatusNotFound
	case rag.ErrNoTextExtracted:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

type queryRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
	DocType  string `json:"doc_type"`
	Provider string `json:"provider"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := s.pipeline.AnswerQuestion(r.Context(), req.Question, req.TopK, req.DocType, req.Provider)
	if err != nil {
		logger.Error("Query failed: %v", err)
		writeError(w, http.StatusBadGateway, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

type analyzeResponse struct {
	Filename   string `json:"filename"`
	DocType    string `json:"doc_type"`
	Preview    string `json:"preview"`
	TextLength int    `json:"text_length"`
	FileSize   int64  `json:"file_size"`
	Entities   string `json:"entities,omitempty"`
}

// handleAnalyze extracts and classifies an upload without indexing it, so
// callers can check what ingestion would see. The "entities" form field
// additionally runs best-effort entity extraction over the text.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	path, _, _, err := s.saveUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer os.Remove(path)

	info, err := os.Stat(path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to stat upload")
		return
	}

	text, err := s.reader.Extract(path)
	if err != nil {
		logger.Warn("Analyze extraction failed for %s: %v", path, err)
	}
	if strings.TrimSpace(text) == "" {
		writeError(w, http.StatusUnprocessableEntity, rag.ErrNoTextExtracted)
		return
	}

	resp := analyzeResponse{
		Filename:   filepath.Base(path),
		DocType:    doctype.Classify(text),
		Preview:    cutAtRune(text, analyzePreviewLen),
		TextLength: len(text),
		FileSize:   info.Size(),
	}

	if wantEntities, _ := strconv.ParseBool(r.FormValue("entities")); wantEntities && s.extractor != nil {
		resp.Entities = s.extractor.ExtractEntities(r.Context(), r.FormValue("provider"), text)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var rec feedback.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(rec.Question) == "" || strings.TrimSpace(rec.Answer) == "" {
		writeError(w, http.StatusBadRequest, "question and answer are required")
		return
	}

	total, err := s.store.Append(rec)
	if err != nil {
		logger.Error("Failed to store feedback: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to store feedback")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "total": total})
}

// saveUpload persists the multipart "file" part under the upload
// directory and returns its path plus the source and provider form fields.
func (s *Server) saveUpload(r *http.Request) (path, source, provider string, err error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return "", "", "", fmt.Errorf("invalid multipart form: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", "", "", fmt.Errorf("missing file field: %w", err)
	}
	defer file.Close()

	if err := os.MkdirAll(s.settings.UploadDir, 0o755); err != nil {
		return "", "", "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	// Prefix with a UUID so concurrent uploads of the same filename
	// cannot clobber each other.
	name := uuid.NewString()[:8] + "_" + filepath.Base(header.Filename)
	path = filepath.Join(s.settings.UploadDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", "", "", fmt.Errorf("failed to save upload: %w", err)
	}

	source = r.FormValue("source")
	if source == "" {
		source = "upload"
	}
	return path, source, r.FormValue("provider"), nil
}

// cutAtRune truncates s to at most limit bytes without splitting a rune.
func cutAtRune(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
