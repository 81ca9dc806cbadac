// Package api exposes the analysis pipeline over HTTP: upload a
// dataset, get back the pairwise dependence results as JSON or a
// rendered HTML report.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"covary/adapters/excel"
	"covary/adapters/stats/tests"
	"covary/app"
	"covary/domain/core"
	"covary/internal"
	apperrors "covary/internal/errors"
	"covary/ports"
)

const maxUploadBytes = 64 << 20 // 64 MiB

// Server serves the analysis HTTP API.
type Server struct {
	service *app.AnalysisService
	repo    ports.ResultRepository // nil when persistence is disabled
	logger  *internal.Logger
	router  chi.Router
}

// NewServer builds the HTTP server around an analysis service. repo may
// be nil; the sweep history endpoints then return 404.
func NewServer(service *app.AnalysisService, repo ports.ResultRepository) *Server {
	s := &Server{
		service: service,
		repo:    repo,
		logger:  internal.DefaultLogger.Named("api"),
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(5 * time.Minute))

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/tests", s.handleTestCatalog)
	s.router.Post("/analyze", s.handleAnalyze)
	s.router.Get("/sweeps", s.handleListSweeps)
	s.router.Get("/sweeps/{sweepID}", s.handleGetSweep)
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server listening on :%s", port)
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

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTestCatalog lists the available tests with their hypotheses.
func (s *Server) handleTestCatalog(w http.ResponseWriter, r *http.Request) {
	type testInfo struct {
		Kind       string `json:"kind"`
		Name       string `json:"name"`
		StatSymbol string `json:"stat_symbol"`
		H0         string `json:"h0"`
		H1         string `json:"h1"`
	}

	catalog := make([]testInfo, 0, len(tests.All()))
	for _, t := range tests.All() {
		catalog = append(catalog, testInfo{
			Kind:       string(t.Kind()),
			Name:       t.Name(),
			StatSymbol: t.StatSymbol(),
			H0:         t.H0Thesis(),
			H1:         t.H1Thesis(),
		})
	}
	s.writeJSON(w, http.StatusOK, catalog)
}

// handleAnalyze accepts a multipart upload (field "file", CSV or XLSX),
// runs the sweep and returns the summary. format=html renders the
// markdown report instead of JSON.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart upload: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "missing form file \"file\"")
		return
	}
	defer file.Close()

	path, err := s.spoolUpload(file, header.Filename)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to store upload: %v", err))
		return
	}
	defer os.Remove(path)

	ds, err := excel.NewDataReader(path).ReadDataset()
	if err != nil {
		s.writeFailure(w, http.StatusUnprocessableEntity, fmt.Sprintf("failed to read dataset: %v", err), err)
		return
	}

	summary, err := s.service.Run(r.Context(), ds)
	if err != nil {
		s.writeFailure(w, http.StatusUnprocessableEntity, fmt.Sprintf("analysis failed: %v", err),
			apperrors.SweepFailed(err))
		return
	}

	if s.repo != nil {
		record := &ports.SweepRecord{
			ID:          summary.SweepID,
			Fingerprint: summary.Fingerprint,
			ResultCount: len(summary.Results),
			RuntimeMs:   summary.RuntimeMs,
			CreatedAt:   summary.CreatedAt,
		}
		if err := s.repo.SaveSweep(r.Context(), record, summary.Results); err != nil {
			// Persistence is best-effort for the API path.
			s.logger.Warn("failed to persist sweep %s: %v", summary.SweepID, err)
		}
	}

	if r.URL.Query().Get("format") == "html" {
		s.writeHTMLReport(w, summary)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleListSweeps(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		s.writeError(w, http.StatusNotFound, "result persistence is not configured")
		return
	}

	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)
	records, err := s.repo.ListSweeps(r.Context(), limit, offset)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list sweeps: %v", err))
		return
	}
	s.writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetSweep(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		s.writeError(w, http.StatusNotFound, "result persistence is not configured")
		return
	}

	id, err := core.ParseSweepID(chi.URLParam(r, "sweepID"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, results, err := s.repo.GetSweep(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"sweep":   record,
		"results": results,
	})
}

// spoolUpload writes the upload to a temp file so the reader can
// dispatch on its extension.
func (s *Server) spoolUpload(file io.Reader, filename string) (string, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".csv"
	}

	tmp, err := os.CreateTemp("", "upload-*"+ext)
	if err != nil {
		return "", err
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// writeHTMLReport renders the markdown report to HTML.
func (s *Server) writeHTMLReport(w http.ResponseWriter, summary *app.SweepSummary) {
	md := app.BuildMarkdownReport(summary)

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.CompletePage,
		Title: "Dependence Analysis Report",
	})
	body := markdown.ToHTML([]byte(md), p, renderer)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// writeFailure is writeError plus a machine-readable code when the
// error is a structured application error.
func (s *Server) writeFailure(w http.ResponseWriter, status int, message string, err error) {
	payload := map[string]string{"error": message}
	if apperrors.IsAppError(err) {
		payload["code"] = apperrors.GetCode(err)
	}
	s.writeJSON(w, status, payload)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
