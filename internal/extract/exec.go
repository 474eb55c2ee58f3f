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

// ImageOCR extracts text from images through the tesseract CLI and scans for
// embedded codes with zbarimg. OCR output is required; a missing or failing
// zbarimg only means no embedded code.
type ImageOCR struct {
	ocrCommand  string
	codeCommand string
}

// NewImageOCR creates the image extractor with the default tool names.
func NewImageOCR() *ImageOCR {
	return &ImageOCR{ocrCommand: "tesseract", codeCommand: "zbarimg"}
}

// Extract runs OCR and code scanning on the image.
func (e *ImageOCR) Extract(ctx context.Context, path string) (*Result, error) {
	text, err := runCommand(ctx, e.ocrCommand, path, "stdout")
	if err != nil {
		return nil, fmt.Errorf("ocr %s: %w", filepath.Base(path), err)
	}

	// Code scanning is best-effort: a corrupt barcode or missing tool must
	// not fail text extraction.
	code, err := runCommand(ctx, e.codeCommand, "--raw", "-q", path)
	if err != nil {
		code = ""
	}

	return &Result{
		Text:         strings.TrimSpace(text),
		EmbeddedCode: joinCodeLines(code),
	}, nil
}

// OfficeConverter extracts Word and Excel formats by converting them to
// plain text with the soffice CLI, mirroring how the upload pipeline's
// converter works. The conversion runs in a private temp dir so concurrent
// extractions cannot collide on output names.
type OfficeConverter struct {
	command string
}

// NewOfficeConverter creates the office-format extractor.
func NewOfficeConverter() *OfficeConverter {
	return &OfficeConverter{command: "soffice"}
}

// Extract converts the document to text and reads the result.
func (e *OfficeConverter) Extract(ctx context.Context, path string) (*Result, error) {
	outDir, err := os.MkdirTemp("", "docstream-convert-*")
	if err != nil {
		return nil, fmt.Errorf("create conversion dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	_, err = runCommand(ctx, e.command, "--headless", "--convert-to", "txt:Text", "--outdir", outDir, path)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", filepath.Base(path), err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	converted := filepath.Join(outDir, base+".txt")
	data, err := os.ReadFile(converted)
	if err != nil {
		return nil, fmt.Errorf("read converted output: %w", err)
	}

	return &Result{Text: strings.TrimSpace(string(data))}, nil
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w (%s)", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// joinCodeLines turns zbarimg raw output (one code per line) into the
// "a; b" payload form.
func joinCodeLines(raw string) string {
	var codes []string
	for _, line := range strings.Split(raw, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			codes = append(codes, trimmed)
		}
	}
	return strings.Join(codes, "; ")
}
