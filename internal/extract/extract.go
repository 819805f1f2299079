// Package extract turns an uploaded document into plain text. Extraction is
// a capability boundary: callers depend on the Func type so the routine can
// be replaced or stubbed without touching the tool layer.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Func extracts the text content of the document at path.
type Func func(ctx context.Context, path string) (string, error)

// Text is the default extractor. Plain-text formats are read directly;
// PDFs are converted with the pdftotext binary.
func Text(ctx context.Context, path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return pdfText(ctx, path)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// pdfText shells out to pdftotext, writing the conversion to stdout.
func pdfText(ctx context.Context, path string) (string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return "", fmt.Errorf("pdftotext not found in PATH: %w", err)
	}

	var out, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "pdftotext", "-layout", path, "-")
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("pdftotext %s: %s", path, msg)
	}
	return out.String(), nil
}
