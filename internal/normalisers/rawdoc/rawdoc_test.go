package rawdoc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/apiforge/internal/core/domain"
)

func TestBuild(t *testing.T) {
	raw := &domain.RawDocument{
		ProjectID: "proj-1",
		Name:      "srs",
		URI:       "/uploads/srs.pdf",
		MIMEType:  "application/pdf",
		Metadata:  map[string]any{"uploader": "alice"},
	}

	doc := Build(raw, "SRS", "body", "pdf")

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "proj-1", doc.ProjectID)
	assert.Equal(t, "srs", doc.Name)
	assert.Equal(t, "/uploads/srs.pdf", doc.URI)
	assert.Equal(t, "application/pdf", doc.MIMEType)
	assert.Equal(t, "SRS", doc.Title)
	assert.Equal(t, "body", doc.Content)
	assert.Equal(t, "alice", doc.Metadata["uploader"])
	assert.Equal(t, "pdf", doc.Metadata["format"])
	assert.Equal(t, "application/pdf", doc.Metadata["mime_type"])
	assert.False(t, doc.CreatedAt.IsZero())

	// The raw metadata map is not mutated.
	_, ok := raw.Metadata["format"]
	assert.False(t, ok)
}

func TestBuild_NameFallsBackToFileName(t *testing.T) {
	doc := Build(&domain.RawDocument{URI: "/a/b/api-spec.md"}, "", "", "markdown")
	assert.Equal(t, "api-spec.md", doc.Name)
}

func TestTitleFromURI(t *testing.T) {
	tests := map[string]string{
		"/path/to/my_api-spec.pdf": "my api spec",
		"notes.txt":                "notes",
		"":                         "",
	}
	for uri, want := range tests {
		assert.Equal(t, want, TitleFromURI(uri), uri)
	}
}
