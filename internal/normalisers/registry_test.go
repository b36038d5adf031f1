package normalisers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/apiforge/internal/core/domain"
	"github.com/custodia-labs/apiforge/internal/core/ports/driven"
)

type stubNormaliser struct {
	name     string
	types    []string
	priority int
	seenMIME string
}

func (s *stubNormaliser) SupportedMIMETypes() []string { return s.types }
func (s *stubNormaliser) Priority() int                { return s.priority }
func (s *stubNormaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	s.seenMIME = raw.MIMEType
	return &driven.NormaliseResult{Document: domain.Document{Title: s.name}}, nil
}

func TestRegistry_PrefersHigherPriority(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubNormaliser{name: "fallback", types: []string{"text/html"}, priority: 5})
	r.Register(&stubNormaliser{name: "html", types: []string{"text/html"}, priority: 50})

	result, err := r.Normalise(context.Background(), &domain.RawDocument{MIMEType: "text/html"})
	require.NoError(t, err)
	assert.Equal(t, "html", result.Document.Title)
}

func TestRegistry_StripsMIMEParameters(t *testing.T) {
	stub := &stubNormaliser{name: "text", types: []string{"text/plain"}, priority: 5}
	r := NewRegistry()
	r.Register(stub)

	_, err := r.Normalise(context.Background(), &domain.RawDocument{MIMEType: "text/plain; charset=utf-8"})
	require.NoError(t, err)
	assert.Equal(t, "text/plain", stub.seenMIME)
}

func TestRegistry_DetectsMIMEFromURI(t *testing.T) {
	stub := &stubNormaliser{name: "pdf", types: []string{"application/pdf"}, priority: 50}
	r := NewRegistry()
	r.Register(stub)

	result, err := r.Normalise(context.Background(), &domain.RawDocument{URI: "/docs/SRS.PDF"})
	require.NoError(t, err)
	assert.Equal(t, "pdf", result.Document.Title)
	assert.Equal(t, "application/pdf", stub.seenMIME)
}

func TestRegistry_Unsupported(t *testing.T) {
	r := NewRegistry()

	_, err := r.Normalise(context.Background(), &domain.RawDocument{MIMEType: "image/png"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedMIME)

	_, err = r.Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDefaultRegistry_SupportedMIMETypes(t *testing.T) {
	types := NewDefaultRegistry().SupportedMIMETypes()

	assert.Contains(t, types, "application/pdf")
	assert.Contains(t, types, "text/html")
	assert.Contains(t, types, "text/markdown")
	assert.Contains(t, types, "text/plain")
	assert.IsIncreasing(t, types)
}

func TestDefaultRegistry_MarkdownBeatsPlaintext(t *testing.T) {
	raw := &domain.RawDocument{URI: "/a.md", MIMEType: "text/markdown", Content: []byte("# Title\n\n**x**")}

	result, err := NewDefaultRegistry().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "markdown", result.Document.Metadata["format"])
	assert.Equal(t, "# Title\n\nx", result.Document.Content)
}

func TestDetectMIMEType(t *testing.T) {
	tests := map[string]string{
		"a.pdf":        "application/pdf",
		"b.HTML":       "text/html",
		"c.md":         "text/markdown",
		"d.yml":        "text/yaml",
		"e.docx":       "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"no-extension": "text/plain",
	}
	for path, want := range tests {
		assert.Equal(t, want, DetectMIMEType(path), path)
	}
}
