package tool

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mcrossley/labcrew/internal/extract"
	"github.com/mcrossley/labcrew/pkg/models"
)

// DocumentReaderName is the registry name of the document reading tool.
const DocumentReaderName = "read_document"

// recognizedExtensions lists the document types the reader accepts.
var recognizedExtensions = map[string]bool{
	".pdf": true,
	".txt": true,
	".md":  true,
}

// DocumentReaderConfig controls the document reader's retry behavior.
type DocumentReaderConfig struct {
	// Attempts bounds transient read retries. Values below 1 become 3.
	Attempts int
	// Backoff is the initial delay between attempts. It doubles per attempt
	// and is capped at 2s. Zero becomes 100ms.
	Backoff time.Duration
}

// NewDocumentReader builds the tool that extracts text from an uploaded
// document. Absent files fail with not_found, unrecognized extensions with
// format_error, and extraction failures are retried with exponential backoff
// before surfacing io_error.
func NewDocumentReader(fn extract.Func, cfg DocumentReaderConfig) *Spec {
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 3
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}

	return &Spec{
		Name:        DocumentReaderName,
		Description: "Reads an uploaded document (PDF, text or markdown) and returns its full extracted text.",
		Inputs: []Field{
			{Name: "path", Type: "string", Description: "Path to the document file", Required: true},
		},
		Run: func(ctx context.Context, inputs map[string]interface{}) (string, error) {
			path, _ := inputs["path"].(string)
			return readDocument(ctx, fn, path, attempts, backoff)
		},
	}
}

func readDocument(ctx context.Context, fn extract.Func, path string, attempts int, backoff time.Duration) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", models.NewTaskError(models.ErrKindValidation, "invalid path %q: %v", path, err)
	}

	ext := strings.ToLower(filepath.Ext(abs))
	if !recognizedExtensions[ext] {
		return "", models.NewTaskError(models.ErrKindFormat, "unrecognized document type %q for %s", ext, abs)
	}

	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return "", models.NewTaskError(models.ErrKindNotFound, "document not found: %s", abs)
		}
		return "", models.NewTaskError(models.ErrKindIO, "stat %s: %v", abs, err)
	}

	delay := backoff
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := fn(ctx, abs)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		log.Printf("[tool.read_document] attempt %d/%d failed for %s: %v", attempt, attempts, abs, err)

		select {
		case <-ctx.Done():
			return "", models.NewTaskError(models.ErrKindIO, "read cancelled: %v", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
		if delay > 2*time.Second {
			delay = 2 * time.Second
		}
	}
	return "", models.NewTaskError(models.ErrKindIO, "reading %s failed after %d attempts: %v", abs, attempts, lastErr)
}
