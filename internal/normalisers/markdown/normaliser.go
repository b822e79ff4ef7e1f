// Package markdown extracts documents from Markdown files.
package markdown

import (
	"bytes"
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/custodia-labs/handbook/internal/core/domain"
	"github.com/custodia-labs/handbook/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Extractor = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct {
	md goldmark.Markdown
}

// New creates a new Markdown normaliser with GitHub flavoured extensions.
func New() *Normaliser {
	return &Normaliser{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Extensions returns the file extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".md", ".markdown"}
}

// Extract parses the document and keeps its text: one paragraph per block,
// formatting markup dropped. The first level one heading becomes the title.
func (n *Normaliser) Extract(_ context.Context, name string, data []byte) (*driven.Extracted, error) {
	src := bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	doc := n.md.Parser().Parse(text.NewReader(src))

	w := &blockWriter{src: src}
	if err := ast.Walk(doc, w.visit); err != nil {
		return nil, err
	}

	title := w.title
	if title == "" {
		title = domain.TitleFromFileName(name)
	}
	return &driven.Extracted{
		Title:  title,
		Text:   strings.Join(w.blocks, "\n\n"),
		Format: "markdown",
	}, nil
}

// blockWriter collects inline text and emits it at the end of each block.
type blockWriter struct {
	src    []byte
	buf    strings.Builder
	blocks []string
	title  string
}

func (w *blockWriter) visit(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Text:
		if entering {
			w.buf.Write(node.Segment.Value(w.src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				w.buf.WriteByte(' ')
			}
		}

	case *ast.String:
		if entering {
			w.buf.Write(node.Value)
		}

	case *ast.AutoLink:
		if entering {
			w.buf.Write(node.Label(w.src))
		}
		return ast.WalkSkipChildren, nil

	case *ast.HTMLBlock, *ast.RawHTML:
		return ast.WalkSkipChildren, nil

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if entering {
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				w.buf.Write(seg.Value(w.src))
			}
			return ast.WalkSkipChildren, nil
		}
		w.flushCode()

	case *ast.Heading:
		if !entering {
			heading := w.flush()
			if node.Level == 1 && w.title == "" {
				w.title = heading
			}
		}

	case *east.TableCell:
		if !entering {
			w.buf.WriteByte(' ')
		}

	case *ast.Paragraph, *ast.TextBlock, *east.TableRow, *east.TableHeader:
		if !entering {
			w.flush()
		}
	}
	return ast.WalkContinue, nil
}

// flush ends the current block and returns its normalised text.
func (w *blockWriter) flush() string {
	block := domain.NormalizeText(w.buf.String())
	w.buf.Reset()
	if block != "" {
		w.blocks = append(w.blocks, block)
	}
	return block
}

// flushCode ends a code block, keeping its line breaks.
func (w *blockWriter) flushCode() {
	block := strings.TrimSpace(w.buf.String())
	w.buf.Reset()
	if block != "" {
		w.blocks = append(w.blocks, block)
	}
}
