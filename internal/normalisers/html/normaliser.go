package html

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/apiforge/internal/core/domain"
	"github.com/custodia-labs/apiforge/internal/core/ports/driven"
	"github.com/custodia-labs/apiforge/internal/normalisers/rawdoc"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise converts an HTML document to text. Each h1-h6 element becomes
// a line of its own, prefixed with one '#' per level, so the heading
// detectors see it the same way they see Markdown.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	rawContent := string(raw.Content)
	title := extractHTMLTitle(rawContent)
	if title == "" {
		title = rawdoc.TitleFromURI(raw.URI)
	}

	return &driven.NormaliseResult{
		Document: rawdoc.Build(raw, title, toText(rawContent), "html"),
	}, nil
}

var (
	titleTag     = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	droppedTags  = regexp.MustCompile(`(?is)<(script|style|noscript|head|svg)[^>]*>.*?</(script|style|noscript|head|svg)>`)
	htmlComments = regexp.MustCompile(`(?s)<!--.*?-->`)
	headingTag   = regexp.MustCompile(`(?is)<h([1-6])[^>]*>(.*?)</h[1-6]>`)
	preTag       = regexp.MustCompile(`(?is)<pre[^>]*>(.*?)</pre>`)
	blockTags    = regexp.MustCompile(`(?i)</?(p|div|li|tr|blockquote|table|section|article|ul|ol|dl|dt|dd)[^>]*>`)
	breakTags    = regexp.MustCompile(`(?i)<(br|hr)\s*/?>`)
	cellTags     = regexp.MustCompile(`(?i)</t[dh]>`)
	allTags      = regexp.MustCompile(`<[^>]+>`)
	multiSpaces  = regexp.MustCompile(`[ \t]+`)
)

// preMarker stands in for newlines inside <pre> blocks while whitespace
// is collapsed.
const preMarker = "\x00"

func extractHTMLTitle(content string) string {
	m := titleTag.FindStringSubmatch(content)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(allTags.ReplaceAllString(m[1], "")))
}

// toText strips markup while keeping the document's line structure.
func toText(content string) string {
	content = droppedTags.ReplaceAllString(content, "")
	content = htmlComments.ReplaceAllString(content, "")

	content = preTag.ReplaceAllStringFunc(content, func(block string) string {
		inner := preTag.FindStringSubmatch(block)[1]
		inner = allTags.ReplaceAllString(inner, "")
		return "\n" + strings.ReplaceAll(inner, "\n", preMarker) + "\n"
	})

	content = headingTag.ReplaceAllStringFunc(content, func(tag string) string {
		m := headingTag.FindStringSubmatch(tag)
		text := strings.Join(strings.Fields(allTags.ReplaceAllString(m[2], " ")), " ")
		if text == "" {
			return "\n"
		}
		return "\n" + strings.Repeat("#", int(m[1][0]-'0')) + " " + text + "\n"
	})

	content = blockTags.ReplaceAllString(content, "\n")
	content = breakTags.ReplaceAllString(content, "\n")
	content = cellTags.ReplaceAllString(content, " ")
	content = allTags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = multiSpaces.ReplaceAllString(content, " ")

	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, strings.ReplaceAll(line, preMarker, "\n"))
		}
	}
	return strings.Join(lines, "\n")
}
