// Package toc provides the heading-normalising section processor.
package toc

import (
	"context"
	"regexp"

	"github.com/google/uuid"

	"github.com/custodia-labs/apiforge/internal/core/domain"
	"github.com/custodia-labs/apiforge/internal/sectioning"
)

// Processor normalises heading lines, records the document's table of
// contents and emits one section per heading that has content.
type Processor struct {
	annotation    string
	extraPatterns []*regexp.Regexp
}

// Option configures the toc processor.
type Option func(*Processor)

// WithAnnotation sets the heading marker.
func WithAnnotation(annotation string) Option {
	return func(p *Processor) {
		if annotation != "" {
			p.annotation = annotation
		}
	}
}

// WithExtraPatterns adds heading patterns tried after the numbered and
// roman rules, in the order given.
func WithExtraPatterns(patterns ...*regexp.Regexp) Option {
	return func(p *Processor) {
		p.extraPatterns = append(p.extraPatterns, patterns...)
	}
}

// New creates a new toc processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{annotation: domain.DefaultHeadingAnnotation}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return domain.ProcessorTOC
}

// Annotation returns the heading marker in use.
func (p *Processor) Annotation() string {
	return p.annotation
}

// Process sets doc.TableOfContents and returns the document's sections.
// Input sections are ignored.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.DocumentContent) ([]domain.DocumentContent, error) {
	if doc.Content == "" {
		return nil, nil
	}

	normalised := sectioning.NormalizeHeadings(doc.Content, p.annotation, p.extraPatterns...)
	toc := sectioning.BuildTOC(normalised, p.annotation)
	doc.TableOfContents = sectioning.Truncate(toc.Render(), domain.MaxTableOfContentsLength)

	entries := toc.Sections()
	sections := make([]domain.DocumentContent, 0, len(entries))
	for i, e := range entries {
		sections = append(sections, domain.DocumentContent{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Heading:    e.Heading,
			Text:       e.Content,
			Position:   i,
		})
	}

	return sections, nil
}
