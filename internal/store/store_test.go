package store

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/mcrossley/labcrew/pkg/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func sampleReport(runID string) *models.RunReport {
	results := []models.TaskResult{
		{
			TaskID:     "verification",
			Status:     models.TaskStatusSucceeded,
			Output:     "Hemoglobin: 13.5 g/dL, within range.",
			Iterations: 2,
			ToolCalls:  1,
		},
		{
			TaskID: "interpretation",
			Status: models.TaskStatusFailed,
			Err:    models.NewTaskError(models.ErrKindUpstream, "dependency verification failed, task not executed"),
		},
	}
	return &models.RunReport{
		RunID:       runID,
		Query:       "summarize my results",
		DocumentRef: "/tmp/report.pdf",
		Results:     results,
		Overall:     models.RunStatusPartial,
		Analysis:    "## verification\n\nHemoglobin: 13.5 g/dL, within range.",
	}
}

func TestOpenCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "runs.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()
	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
}

func TestSaveAndGetReport(t *testing.T) {
	db := setupTestDB(t)

	want := sampleReport("run-1")
	if err := db.SaveReport(want); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}

	got, err := db.GetReport("run-1")
	if err != nil {
		t.Fatalf("GetReport failed: %v", err)
	}
	if got.RunID != want.RunID || got.Query != want.Query || got.Overall != want.Overall {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if len(got.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(got.Results))
	}
	if got.Results[0].Output != want.Results[0].Output {
		t.Errorf("result output = %q", got.Results[0].Output)
	}
	if got.Results[1].Err == nil || got.Results[1].Err.Kind != models.ErrKindUpstream {
		t.Errorf("failure detail not preserved: %+v", got.Results[1].Err)
	}
}

func TestGetReportNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetReport("absent")
	if err == nil {
		t.Fatal("expected error for unknown run")
	}
	te := models.AsTaskError(err)
	if te.Kind != models.ErrKindNotFound {
		t.Errorf("error kind = %s, want %s", te.Kind, models.ErrKindNotFound)
	}
}

func TestSaveReportRejectsDuplicateID(t *testing.T) {
	db := setupTestDB(t)

	if err := db.SaveReport(sampleReport("run-1")); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	if err := db.SaveReport(sampleReport("run-1")); err == nil {
		t.Error("duplicate run ID accepted")
	}
}

func TestListReports(t *testing.T) {
	db := setupTestDB(t)

	for i := 0; i < 5; i++ {
		if err := db.SaveReport(sampleReport(fmt.Sprintf("run-%d", i))); err != nil {
			t.Fatalf("save run-%d: %v", i, err)
		}
	}

	all, err := db.ListReports(0)
	if err != nil {
		t.Fatalf("ListReports failed: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("got %d runs, want 5", len(all))
	}
	for _, s := range all {
		if s.Overall != string(models.RunStatusPartial) {
			t.Errorf("run %s overall = %q", s.RunID, s.Overall)
		}
		if s.CreatedAt.IsZero() {
			t.Errorf("run %s has zero created_at", s.RunID)
		}
	}

	limited, err := db.ListReports(2)
	if err != nil {
		t.Fatalf("ListReports with limit failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("got %d runs with limit 2", len(limited))
	}
}

func TestDeleteReport(t *testing.T) {
	db := setupTestDB(t)

	if err := db.SaveReport(sampleReport("run-1")); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := db.DeleteReport("run-1"); err != nil {
		t.Fatalf("DeleteReport failed: %v", err)
	}
	if _, err := db.GetReport("run-1"); err == nil {
		t.Error("report still readable after delete")
	}

	err := db.DeleteReport("run-1")
	if err == nil {
		t.Fatal("expected error deleting unknown run")
	}
	if te := models.AsTaskError(err); te.Kind != models.ErrKindNotFound {
		t.Errorf("error kind = %s, want %s", te.Kind, models.ErrKindNotFound)
	}
}
