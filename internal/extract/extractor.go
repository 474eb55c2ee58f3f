// Package extract is the text extraction boundary: given a file on disk and
// its declared type, produce the textual content and any embedded
// machine-readable payload. Per-format extraction algorithms are collaborators
// behind the Extractor contract; several formats delegate to external tools.
package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedType indicates no extractor is registered for the extension.
var ErrUnsupportedType = errors.New("unsupported file type")

// Result is the outcome of extracting one file.
type Result struct {
	// Text is the extracted textual content.
	Text string
	// EmbeddedCode is any machine-readable payload (scanned codes) found in
	// the file, multiple values joined with "; ". Empty when none.
	EmbeddedCode string
}

// Extractor extracts content from a single file.
type Extractor interface {
	Extract(ctx context.Context, path string) (*Result, error)
}

// Registry dispatches extraction by file extension.
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry creates a registry with the default format wiring.
func NewRegistry() *Registry {
	r := &Registry{extractors: make(map[string]Extractor)}

	r.Register(NewPlainText(), ".txt")
	r.Register(NewCSV(), ".csv")
	r.Register(NewMarkdown(), ".md")
	r.Register(NewPDF(), ".pdf")
	r.Register(NewImageOCR(), ".png", ".jpg", ".jpeg", ".bmp", ".gif", ".tiff", ".webp")
	r.Register(NewOfficeConverter(), ".docx", ".doc", ".docm", ".dotx", ".dotm", ".xlsx", ".xls", ".xlsm", ".xlsb")

	return r
}

// Register binds an extractor to one or more extensions (with leading dot).
func (r *Registry) Register(e Extractor, exts ...string) {
	for _, ext := range exts {
		r.extractors[strings.ToLower(ext)] = e
	}
}

// Supported reports whether files with this extension can be extracted.
func (r *Registry) Supported(ext string) bool {
	_, ok := r.extractors[strings.ToLower(ext)]
	return ok
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.extractors))
	for ext := range r.extractors {
		exts = append(exts, ext)
	}
	return exts
}

// Extract dispatches to the extractor registered for the file's extension.
func (r *Registry) Extract(ctx context.Context, path string) (*Result, error) {
	ext := strings.ToLower(filepath.Ext(path))
	e, ok := r.extractors[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
	return e.Extract(ctx, path)
}
