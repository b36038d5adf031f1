// Package rawdoc holds the document construction shared by the normalisers.
package rawdoc

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/apiforge/internal/core/domain"
)

// Build creates a normalised document from a raw upload. The document name
// falls back to the file name of the URI when the upload carries none.
func Build(raw *domain.RawDocument, title, content, format string) domain.Document {
	metadata := make(map[string]any, len(raw.Metadata)+2)
	for k, v := range raw.Metadata {
		metadata[k] = v
	}
	metadata["mime_type"] = raw.MIMEType
	metadata["format"] = format

	name := raw.Name
	if name == "" {
		name = filepath.Base(raw.URI)
	}

	return domain.Document{
		ID:        uuid.New().String(),
		ProjectID: raw.ProjectID,
		Name:      name,
		URI:       raw.URI,
		MIMEType:  raw.MIMEType,
		Title:     title,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
}

// TitleFromURI derives a readable title from a file path.
func TitleFromURI(uri string) string {
	filename := filepath.Base(uri)
	if uri == "" || filename == "." || filename == "/" {
		return ""
	}
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	return strings.NewReplacer("_", " ", "-", " ").Replace(filename)
}
