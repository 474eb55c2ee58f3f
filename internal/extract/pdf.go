package extract

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
)

// PDF extracts text from .pdf files by reading each page's consolidated
// content stream and collecting the literal strings fed to the text-showing
// operators (Tj, TJ, ', "). Scanned PDFs with no text layer yield empty
// text; those go through the failed-file path rather than OCR here.
type PDF struct{}

// NewPDF creates the PDF extractor.
func NewPDF() *PDF { return &PDF{} }

// Extract pulls the text of every page in order.
func (p *PDF) Extract(ctx context.Context, path string) (*Result, error) {
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	var b strings.Builder
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		reader, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
		if err != nil {
			return nil, fmt.Errorf("extract page %d content: %w", pageNr, err)
		}
		if reader == nil {
			continue
		}
		content, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("read page %d content: %w", pageNr, err)
		}

		pageText := textFromContentStream(content)
		if pageText != "" {
			b.WriteString(pageText)
			b.WriteByte('\n')
		}
	}

	return &Result{Text: strings.TrimSpace(b.String())}, nil
}

// textFromContentStream scans a PDF content stream for literal strings that
// are consumed by text-showing operators.
func textFromContentStream(content []byte) string {
	var out strings.Builder
	var pending []string

	i := 0
	for i < len(content) {
		c := content[i]
		switch {
		case c == '(':
			str, next := readLiteralString(content, i)
			pending = append(pending, str)
			i = next
		case c == 'T' && i+1 < len(content) && (content[i+1] == 'j' || content[i+1] == 'J'):
			for _, s := range pending {
				out.WriteString(s)
			}
			if len(pending) > 0 {
				out.WriteByte(' ')
			}
			pending = pending[:0]
			i += 2
		case c == '\'' || c == '"':
			for _, s := range pending {
				out.WriteString(s)
			}
			if len(pending) > 0 {
				out.WriteByte('\n')
			}
			pending = pending[:0]
			i++
		case c == 'B' && i+1 < len(content) && content[i+1] == 'T':
			// New text object: drop strings not consumed by an operator.
			pending = pending[:0]
			i += 2
		default:
			i++
		}
	}

	return strings.TrimSpace(out.String())
}

// readLiteralString reads a parenthesized PDF string starting at open.
// Returns the decoded string and the index just past the closing paren.
func readLiteralString(content []byte, open int) (string, int) {
	var b strings.Builder
	depth := 1
	i := open + 1
	for i < len(content) && depth > 0 {
		c := content[i]
		switch c {
		case '\\':
			if i+1 < len(content) {
				b.WriteByte(unescapePDFChar(content[i+1]))
				i += 2
				continue
			}
			i++
		case '(':
			depth++
			b.WriteByte(c)
			i++
		case ')':
			depth--
			if depth > 0 {
				b.WriteByte(c)
			}
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), i
}

func unescapePDFChar(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	default:
		return c
	}
}
