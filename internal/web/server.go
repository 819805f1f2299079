// Package web exposes the analysis pipelines over HTTP: report uploads go
// in, structured run reports come out. Completed reports are persisted in
// the background so request latency tracks the pipeline, not the database.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/mcrossley/labcrew/internal/pipeline"
	"github.com/mcrossley/labcrew/internal/store"
	"github.com/mcrossley/labcrew/pkg/models"
)

// Runner executes an analysis pipeline for an uploaded document.
type Runner interface {
	Run(ctx context.Context, mode pipeline.Mode, documentRef, query string) (*models.RunReport, error)
}

// Server handles HTTP traffic for the analyser.
type Server struct {
	runner    Runner
	reports   *store.DB
	dataDir   string
	maxUpload int64
}

// ServerConfig configures a Server.
type ServerConfig struct {
	Runner Runner
	// Reports is optional; when nil, completed runs are not persisted.
	Reports *store.DB
	// DataDir receives uploaded files for the duration of a run.
	DataDir string
	// MaxUploadBytes bounds the accepted upload size.
	MaxUploadBytes int64
}

// NewServer builds a Server and ensures its upload directory exists.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10_000_000
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Server{
		runner:    cfg.Runner,
		reports:   cfg.Reports,
		dataDir:   cfg.DataDir,
		maxUpload: cfg.MaxUploadBytes,
	}, nil
}

// Routes builds the HTTP router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Post("/analyze", s.handleAnalysis(pipeline.ModeFull))
	r.Post("/verify", s.handleAnalysis(pipeline.ModeVerify))
	r.Post("/medical-analysis", s.handleAnalysis(pipeline.ModeMedical))
	r.Get("/runs", s.handleListRuns)
	r.Get("/runs/{runID}", s.handleGetRun)
	r.Delete("/runs/{runID}", s.handleDeleteRun)
	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Blood Test Report Analyser API is running",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   "labcrew",
		"endpoints": []string{"/analyze", "/verify", "/medical-analysis"},
		"data_dir":  s.dataDir,
	})
}

// analysisResponse is the payload returned by the upload endpoints.
type analysisResponse struct {
	FileID           string            `json:"file_id"`
	OriginalFilename string            `json:"original_filename"`
	Query            string            `json:"query"`
	Report           *models.RunReport `json:"report"`
}

func (s *Server) handleAnalysis(mode pipeline.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
		if err := r.ParseMultipartForm(s.maxUpload); err != nil {
			if strings.Contains(err.Error(), "request body too large") {
				writeError(w, http.StatusRequestEntityTooLarge, "file too large")
				return
			}
			writeError(w, http.StatusBadRequest, "expected multipart form with a file field")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "file field is required")
			return
		}
		defer file.Close()

		query := strings.TrimSpace(r.FormValue("query"))
		if query == "" {
			query = pipeline.DefaultQuery(mode)
		}

		fileID := uuid.NewString()
		tempPath, err := s.saveUpload(fileID, header.Filename, file)
		if err != nil {
			log.Printf("[web] saving upload failed: %v", err)
			writeError(w, http.StatusInternalServerError, "could not store upload")
			return
		}
		defer os.Remove(tempPath)

		report, err := s.runner.Run(r.Context(), mode, tempPath, query)
		if err != nil {
			writeRunError(w, err)
			return
		}

		if s.reports != nil {
			// Persist off the request path. The report is the caller's
			// response either way.
			go func(rep *models.RunReport) {
				if err := s.reports.SaveReport(rep); err != nil {
					log.Printf("[web] persisting run %s failed: %v", rep.RunID, err)
				}
			}(report)
		}

		writeJSON(w, http.StatusOK, analysisResponse{
			FileID:           fileID,
			OriginalFilename: header.Filename,
			Query:            query,
			Report:           report,
		})
	}
}

// saveUpload writes the uploaded stream to the data directory under a
// generated name, keeping the original extension.
func (s *Server) saveUpload(fileID, filename string, src io.Reader) (string, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".pdf"
	}
	path := filepath.Join(s.dataDir, fmt.Sprintf("upload_%s%s", fileID, ext))

	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		writeError(w, http.StatusNotFound, "run persistence is disabled")
		return
	}
	runs, err := s.reports.ListReports(50)
	if err != nil {
		log.Printf("[web] listing runs failed: %v", err)
		writeError(w, http.StatusInternalServerError, "could not list runs")
		return
	}
	if runs == nil {
		runs = []store.RunSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		writeError(w, http.StatusNotFound, "run persistence is disabled")
		return
	}
	report, err := s.reports.GetReport(chi.URLParam(r, "runID"))
	if err != nil {
		writeRunError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		writeError(w, http.StatusNotFound, "run persistence is disabled")
		return
	}
	if err := s.reports.DeleteReport(chi.URLParam(r, "runID")); err != nil {
		writeRunError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[web] failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeRunError maps run-level failures onto HTTP statuses.
func writeRunError(w http.ResponseWriter, err error) {
	te := models.AsTaskError(err)
	switch te.Kind {
	case models.ErrKindNotFound:
		writeError(w, http.StatusNotFound, te.Message)
	case models.ErrKindValidation, models.ErrKindFormat, models.ErrKindCycle:
		writeError(w, http.StatusBadRequest, te.Message)
	case models.ErrKindRateLimit:
		writeError(w, http.StatusTooManyRequests, te.Message)
	default:
		log.Printf("[web] run failed: %v", err)
		writeError(w, http.StatusInternalServerError, "analysis failed")
	}
}
