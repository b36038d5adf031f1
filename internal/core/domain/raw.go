package domain

// RawDocument represents opaque bytes uploaded for ingestion.
// It is the input to normalisation.
type RawDocument struct {
	// ProjectID is the project the document belongs to.
	ProjectID string

	// Name is the document name used by the model to reference it.
	Name string

	// URI is the original location (file path, upload name).
	URI string

	// MIMEType is the content type (e.g., "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata contains upload-specific key-value pairs.
	Metadata map[string]any
}
