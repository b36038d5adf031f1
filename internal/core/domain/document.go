package domain

import "time"

// MaxTableOfContentsLength caps the stored table of contents, in runes.
const MaxTableOfContentsLength = 10240

// Document represents a normalised document moving through ingestion.
// It carries the full text before it is split into sections.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// ProjectID is the owning project.
	ProjectID string

	// Name is how prompts and lookups refer to the document.
	Name string

	// URI is the original location (file path, upload name).
	URI string

	// MIMEType is the content type the document was ingested as.
	MIMEType string

	// Title is the human-readable title.
	Title string

	// Content is the full text content after normalisation.
	Content string

	// TableOfContents is the rendered heading index, set by the toc processor.
	TableOfContents string

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time
}

// ToMetadata returns the persisted record for the document.
func (d *Document) ToMetadata() DocumentMetadata {
	return DocumentMetadata{
		ID:              d.ID,
		ProjectID:       d.ProjectID,
		Name:            d.Name,
		TableOfContents: d.TableOfContents,
		RawDocPath:      d.URI,
		MIMEType:        d.MIMEType,
		CreatedAt:       d.CreatedAt,
	}
}

// DocumentMetadata is the persisted record of an ingested document.
// It is created once; only TableOfContents changes afterwards, when
// requirement tags are appended to heading lines.
type DocumentMetadata struct {
	ID              string
	ProjectID       string
	Name            string
	TableOfContents string
	RawDocPath      string
	MIMEType        string
	CreatedAt       time.Time
}

// DocumentContent is one heading-addressed section of a document.
type DocumentContent struct {
	// ID is the unique identifier for the section.
	ID string

	// DocumentID links to the parent document.
	DocumentID string

	// Heading is the annotated heading line the section belongs to.
	Heading string

	// Text is the section body.
	Text string

	// Position is the ordinal position within the document.
	Position int

	// Embedding is the vector representation used for fallback lookups.
	Embedding []float32
}
