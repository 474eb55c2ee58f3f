package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRegistrySupported(t *testing.T) {
	r := NewRegistry()

	for _, ext := range []string{".pdf", ".txt", ".md", ".csv", ".png", ".docx", ".xlsx"} {
		assert.True(t, r.Supported(ext), ext)
	}
	assert.True(t, r.Supported(".PDF"), "extension match is case-insensitive")
	assert.False(t, r.Supported(".exe"))
	assert.False(t, r.Supported(""))
}

func TestRegistryUnsupportedType(t *testing.T) {
	r := NewRegistry()
	_, err := r.Extract(context.Background(), "/tmp/archive.zip")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestPlainText(t *testing.T) {
	path := writeFile(t, "note.txt", "line one\nline two\n")

	res, err := NewPlainText().Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", res.Text)
	assert.Empty(t, res.EmbeddedCode)
}

func TestCSV(t *testing.T) {
	path := writeFile(t, "sheet.csv", "name,amount\nwidget,42\n, \nbolt,7\n")

	res, err := NewCSV().Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "name amount\nwidget 42\nbolt 7", res.Text)
}

func TestMarkdown(t *testing.T) {
	path := writeFile(t, "doc.md", "# Title\n\nSome *emphasised* text with [a link](https://example.com).\n\n```\ncode block\n```\n")

	res, err := NewMarkdown().Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Contains(t, res.Text, "Title")
	assert.Contains(t, res.Text, "Some emphasised text")
	assert.Contains(t, res.Text, "a link")
	assert.Contains(t, res.Text, "code block")
	assert.NotContains(t, res.Text, "*", "markdown syntax must not leak into the index")
	assert.NotContains(t, res.Text, "#")
}

func TestPDFContentStreamText(t *testing.T) {
	// A minimal content stream as pdfcpu would hand it back.
	stream := []byte(`BT /F1 12 Tf 72 712 Td (Hello) Tj (, world) Tj ET BT (second \(escaped\) line) Tj ET`)

	text := textFromContentStream(stream)
	assert.Contains(t, text, "Hello")
	assert.Contains(t, text, ", world")
	assert.Contains(t, text, "second (escaped) line")
}

func TestJoinCodeLines(t *testing.T) {
	assert.Equal(t, "", joinCodeLines(""))
	assert.Equal(t, "CODE-1", joinCodeLines("CODE-1\n"))
	assert.Equal(t, "CODE-1; CODE-2", joinCodeLines("CODE-1\nCODE-2\n\n"))
}
