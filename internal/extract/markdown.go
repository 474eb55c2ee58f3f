package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Markdown extracts the plain text of .md files by walking the goldmark AST,
// so formatting syntax never leaks into the index.
type Markdown struct {
	parser goldmark.Markdown
}

// NewMarkdown creates the markdown extractor.
func NewMarkdown() *Markdown {
	return &Markdown{parser: goldmark.New()}
}

// Extract parses the markdown and collects the text content of all leaf
// nodes, one block per line.
func (m *Markdown) Extract(_ context.Context, path string) (*Result, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	doc := m.parser.Parser().Parse(text.NewReader(source))

	var b strings.Builder
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(source))
			}
		case *ast.AutoLink:
			b.Write(node.URL(source))
		}
		if _, isBlock := n.(*ast.Paragraph); isBlock {
			b.WriteByte('\n')
		}
		if _, isHeading := n.(*ast.Heading); isHeading {
			b.WriteByte('\n')
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk markdown ast: %w", err)
	}

	return &Result{Text: strings.TrimSpace(b.String())}, nil
}
