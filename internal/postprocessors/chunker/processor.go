// Package chunker splits overlong sections into bounded parts.
package chunker

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/apiforge/internal/core/domain"
)

// DefaultChunkSize is the default maximum number of runes per part.
const DefaultChunkSize = domain.DefaultChunkSize

// Processor splits sections longer than the chunk size. Every part keeps
// its section's heading so heading lookups can reassemble the section in
// position order.
type Processor struct {
	chunkSize int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the maximum part size in runes.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return domain.ProcessorChunker
}

// Process splits each input section into parts of at most chunkSize runes,
// preferring paragraph then line boundaries.
func (p *Processor) Process(_ context.Context, doc *domain.Document, sections []domain.DocumentContent) ([]domain.DocumentContent, error) {
	out := make([]domain.DocumentContent, 0, len(sections))

	for _, s := range sections {
		parts := p.split(s.Text)
		if len(parts) <= 1 {
			out = append(out, s)
			continue
		}
		for _, part := range parts {
			out = append(out, domain.DocumentContent{
				ID:         uuid.New().String(),
				DocumentID: doc.ID,
				Heading:    s.Heading,
				Text:       part,
			})
		}
	}

	return out, nil
}

func (p *Processor) split(text string) []string {
	runes := []rune(text)
	if len(runes) <= p.chunkSize {
		return []string{text}
	}

	var parts []string
	for len(runes) > p.chunkSize {
		window := string(runes[:p.chunkSize])
		cut := strings.LastIndex(window, "\n\n")
		if cut <= 0 {
			cut = strings.LastIndex(window, "\n")
		}
		if cut <= 0 {
			cut = len(window)
		}
		head := window[:cut]
		if trimmed := strings.TrimSpace(head); trimmed != "" {
			parts = append(parts, trimmed)
		}
		runes = runes[len([]rune(head)):]
	}
	if rest := strings.TrimSpace(string(runes)); rest != "" {
		parts = append(parts, rest)
	}

	return parts
}
