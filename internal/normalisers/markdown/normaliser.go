package markdown

import (
	"context"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/custodia-labs/apiforge/internal/core/domain"
	"github.com/custodia-labs/apiforge/internal/core/ports/driven"
	"github.com/custodia-labs/apiforge/internal/normalisers/rawdoc"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct {
	md goldmark.Markdown
}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{md: goldmark.New()}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise converts a markdown document to plain text. Heading lines keep
// their '#' markers; inline formatting is dropped and code blocks are kept
// verbatim since they usually carry request and response samples.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content, title := n.render(raw.Content)
	if title == "" {
		title = rawdoc.TitleFromURI(raw.URI)
	}

	return &driven.NormaliseResult{
		Document: rawdoc.Build(raw, title, content, "markdown"),
	}, nil
}

// render walks the block tree and returns the text along with the first
// level-one heading.
func (n *Normaliser) render(source []byte) (content, title string) {
	doc := n.md.Parser().Parse(text.NewReader(source))

	var (
		blocks []string
		marker string
	)
	emit := func(s string) {
		blocks = append(blocks, marker+s)
		marker = ""
	}

	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := node.(type) {
		case *ast.ListItem:
			// Ordered items keep their number: "1. Users" is often a
			// section heading rather than a list.
			if list, ok := node.Parent().(*ast.List); ok && list.IsOrdered() {
				marker = strconv.Itoa(list.Start+itemIndex(node)) + ". "
			}

		case *ast.Heading:
			heading := strings.TrimSpace(inlineText(node, source))
			if heading == "" {
				return ast.WalkSkipChildren, nil
			}
			if title == "" && node.Level == 1 {
				title = heading
			}
			emit(strings.Repeat("#", node.Level) + " " + heading)
			return ast.WalkSkipChildren, nil

		case *ast.Paragraph, *ast.TextBlock:
			if t := strings.TrimSpace(inlineText(node, source)); t != "" {
				emit(t)
			}
			return ast.WalkSkipChildren, nil

		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if t := strings.TrimRight(rawLines(node, source), "\n"); t != "" {
				emit(t)
			}
			return ast.WalkSkipChildren, nil

		case *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		}

		return ast.WalkContinue, nil
	})

	return strings.Join(blocks, "\n\n"), title
}

// inlineText concatenates the text leaves below node.
func inlineText(node ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Text:
			sb.Write(n.Segment.Value(source))
			if n.SoftLineBreak() || n.HardLineBreak() {
				sb.WriteByte('\n')
			}
		case *ast.String:
			sb.Write(n.Value)
		case *ast.AutoLink:
			sb.Write(n.URL(source))
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

func itemIndex(item ast.Node) int {
	i := 0
	for n := item.PreviousSibling(); n != nil; n = n.PreviousSibling() {
		i++
	}
	return i
}

func rawLines(node ast.Node, source []byte) string {
	var sb strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
	return sb.String()
}
