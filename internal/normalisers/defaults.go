package normalisers

import (
	"github.com/custodia-labs/apiforge/internal/normalisers/docx"
	"github.com/custodia-labs/apiforge/internal/normalisers/html"
	"github.com/custodia-labs/apiforge/internal/normalisers/markdown"
	"github.com/custodia-labs/apiforge/internal/normalisers/pdf"
	"github.com/custodia-labs/apiforge/internal/normalisers/plaintext"
)

// NewDefaultRegistry returns a registry with every built-in normaliser.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(pdf.New())
	r.Register(html.New())
	r.Register(markdown.New())
	r.Register(docx.New())
	r.Register(plaintext.New())
	return r
}
