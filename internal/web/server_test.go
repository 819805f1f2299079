package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mcrossley/labcrew/internal/pipeline"
	"github.com/mcrossley/labcrew/internal/store"
	"github.com/mcrossley/labcrew/pkg/models"
)

// stubRunner records the run request and replies with a canned report or
// error.
type stubRunner struct {
	mode   pipeline.Mode
	doc    string
	query  string
	report *models.RunReport
	err    error
}

func (s *stubRunner) Run(ctx context.Context, mode pipeline.Mode, documentRef, query string) (*models.RunReport, error) {
	s.mode = mode
	s.doc = documentRef
	s.query = query
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

func okReport() *models.RunReport {
	return &models.RunReport{
		RunID:   "run-1",
		Query:   "q",
		Results: []models.TaskResult{{TaskID: "verification", Status: models.TaskStatusSucceeded, Output: "ok"}},
		Overall: models.RunStatusSucceeded,
	}
}

func newTestServer(t *testing.T, runner Runner, reports *store.DB) *Server {
	t.Helper()
	srv, err := NewServer(ServerConfig{
		Runner:         runner,
		Reports:        reports,
		DataDir:        t.TempDir(),
		MaxUploadBytes: 1 << 20,
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return srv
}

// multipartBody builds a multipart form with a file part and optional query.
func multipartBody(t *testing.T, filename, content, query string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if query != "" {
		if err := mw.WriteField("query", query); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func TestRootAndHealth(t *testing.T) {
	srv := newTestServer(t, &stubRunner{report: okReport()}, nil)
	handler := srv.Routes()

	for _, path := range []string{"/", "/health"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("GET %s content type = %q", path, ct)
		}
	}
}

func TestAnalyzeUpload(t *testing.T) {
	runner := &stubRunner{report: okReport()}
	srv := newTestServer(t, runner, nil)
	handler := srv.Routes()

	body, contentType := multipartBody(t, "report.pdf", "fake pdf bytes", "summarize my results")
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp analysisResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.FileID == "" {
		t.Error("file_id not assigned")
	}
	if resp.OriginalFilename != "report.pdf" {
		t.Errorf("original_filename = %q", resp.OriginalFilename)
	}
	if resp.Report == nil || resp.Report.RunID != "run-1" {
		t.Errorf("report = %+v", resp.Report)
	}

	if runner.mode != pipeline.ModeFull {
		t.Errorf("mode = %s, want full", runner.mode)
	}
	if runner.query != "summarize my results" {
		t.Errorf("query = %q", runner.query)
	}
	if !strings.HasSuffix(runner.doc, ".pdf") {
		t.Errorf("document ref %q lost original extension", runner.doc)
	}

	// Upload is removed once the run finishes.
	entries, err := os.ReadDir(srv.dataDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("upload not cleaned up: %v", entries)
	}
}

func TestAnalyzeModesPerEndpoint(t *testing.T) {
	tests := []struct {
		path string
		mode pipeline.Mode
	}{
		{"/analyze", pipeline.ModeFull},
		{"/verify", pipeline.ModeVerify},
		{"/medical-analysis", pipeline.ModeMedical},
	}
	for _, tt := range tests {
		runner := &stubRunner{report: okReport()}
		srv := newTestServer(t, runner, nil)

		body, contentType := multipartBody(t, "report.pdf", "bytes", "")
		req := httptest.NewRequest(http.MethodPost, tt.path, body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("POST %s = %d", tt.path, rec.Code)
			continue
		}
		if runner.mode != tt.mode {
			t.Errorf("POST %s ran mode %s, want %s", tt.path, runner.mode, tt.mode)
		}
		if runner.query != pipeline.DefaultQuery(tt.mode) {
			t.Errorf("POST %s query = %q, want mode default", tt.path, runner.query)
		}
	}
}

func TestAnalyzeMissingFile(t *testing.T) {
	srv := newTestServer(t, &stubRunner{report: okReport()}, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("query", "no file attached")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAnalyzeUploadTooLarge(t *testing.T) {
	srv, err := NewServer(ServerConfig{
		Runner:         &stubRunner{report: okReport()},
		DataDir:        t.TempDir(),
		MaxUploadBytes: 512,
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}

	body, contentType := multipartBody(t, "report.pdf", strings.Repeat("x", 4096), "")
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestAnalyzeRunError(t *testing.T) {
	runner := &stubRunner{err: models.NewTaskError(models.ErrKindNotFound, "document not found")}
	srv := newTestServer(t, runner, nil)

	body, contentType := multipartBody(t, "report.pdf", "bytes", "")
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRunEndpoints(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer db.Close()

	report := okReport()
	if err := db.SaveReport(report); err != nil {
		t.Fatalf("seed report: %v", err)
	}

	srv := newTestServer(t, &stubRunner{report: okReport()}, db)
	handler := srv.Routes()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /runs = %d", rec.Code)
	}
	var listing struct {
		Runs []store.RunSummary `json:"runs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(listing.Runs) != 1 || listing.Runs[0].RunID != "run-1" {
		t.Errorf("runs = %+v", listing.Runs)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/run-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /runs/run-1 = %d", rec.Code)
	}
	var got models.RunReport
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if got.RunID != "run-1" || got.Overall != models.RunStatusSucceeded {
		t.Errorf("report = %+v", got)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/absent", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /runs/absent = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/runs/run-1", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("DELETE /runs/run-1 = %d, want 204", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/runs/run-1", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second DELETE = %d, want 404", rec.Code)
	}
}

func TestRunEndpointsWithoutStore(t *testing.T) {
	srv := newTestServer(t, &stubRunner{report: okReport()}, nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /runs without store = %d, want 404", rec.Code)
	}
}
