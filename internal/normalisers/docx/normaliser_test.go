package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/apiforge/internal/core/domain"
)

// createTestDOCX creates a minimal valid DOCX file in memory.
func createTestDOCX(t *testing.T, documentXML, coreXML string) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	write := func(name, body string) {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}

	write("[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
</Types>`)
	if documentXML != "" {
		write("word/document.xml", documentXML)
	}
	if coreXML != "" {
		write("docProps/core.xml", coreXML)
	}

	require.NoError(t, w.Close())
	return buf.Bytes()
}

func wrapBody(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>` + body + `</w:body>
</w:document>`
}

func normalise(t *testing.T, raw *domain.RawDocument) domain.Document {
	t.Helper()
	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	return result.Document
}

func TestSupportedMIMETypes(t *testing.T) {
	assert.Equal(t, []string{mimeType}, New().SupportedMIMETypes())
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestNormalise_Success(t *testing.T) {
	coreXML := `<?xml version="1.0" encoding="UTF-8"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:title>Test Document</dc:title>
</cp:coreProperties>`

	raw := &domain.RawDocument{
		ProjectID: "proj-1",
		Name:      "srs",
		URI:       "/path/to/document.docx",
		MIMEType:  mimeType,
		Content:   createTestDOCX(t, wrapBody(`<w:p><w:r><w:t>Hello World</w:t></w:r></w:p>`), coreXML),
		Metadata:  map[string]any{"author": "test-author"},
	}

	doc := normalise(t, raw)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "proj-1", doc.ProjectID)
	assert.Equal(t, "srs", doc.Name)
	assert.Equal(t, "Test Document", doc.Title)
	assert.Equal(t, "Hello World", doc.Content)
	assert.Equal(t, "test-author", doc.Metadata["author"])
	assert.Equal(t, mimeType, doc.Metadata["mime_type"])
	assert.Equal(t, "docx", doc.Metadata["format"])
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_InvalidZip(t *testing.T) {
	raw := &domain.RawDocument{URI: "/path/to/invalid.docx", Content: []byte("not a zip file")}

	result, err := New().Normalise(context.Background(), raw)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_TitleFallbackToFilename(t *testing.T) {
	raw := &domain.RawDocument{
		URI:     "/path/to/my_document.docx",
		Content: createTestDOCX(t, wrapBody(`<w:p><w:r><w:t>Content</w:t></w:r></w:p>`), ""),
	}

	assert.Equal(t, "my document", normalise(t, raw).Title)
}

func TestNormalise_ParagraphsAndRuns(t *testing.T) {
	body := `<w:p><w:r><w:t>First paragraph</w:t></w:r></w:p>
<w:p><w:r><w:t>Hello </w:t></w:r><w:r><w:t>World</w:t></w:r></w:p>
<w:p></w:p>`
	raw := &domain.RawDocument{URI: "/doc.docx", Content: createTestDOCX(t, wrapBody(body), "")}

	assert.Equal(t, "First paragraph\nHello World", normalise(t, raw).Content)
}

func TestNormalise_HeadingStyles(t *testing.T) {
	body := `<w:p><w:pPr><w:pStyle w:val="Title"/></w:pPr><w:r><w:t>Orders API</w:t></w:r></w:p>
<w:p><w:pPr><w:pStyle w:val="Heading2"/></w:pPr><w:r><w:t>1.1 Create order</w:t></w:r></w:p>
<w:p><w:pPr><w:pStyle w:val="Normal"/></w:pPr><w:r><w:t>POST /orders</w:t></w:r></w:p>`
	raw := &domain.RawDocument{URI: "/doc.docx", Content: createTestDOCX(t, wrapBody(body), "")}

	assert.Equal(t, "# Orders API\n## 1.1 Create order\nPOST /orders", normalise(t, raw).Content)
}

func TestNormalise_EmptyDocument(t *testing.T) {
	raw := &domain.RawDocument{URI: "/empty.docx", Content: createTestDOCX(t, wrapBody(""), "")}
	assert.Empty(t, normalise(t, raw).Content)
}

func TestHeadingLevel(t *testing.T) {
	tests := map[string]int{
		"Heading1": 1,
		"heading3": 3,
		"Title":    1,
		"Heading":  0,
		"HeadingX": 0,
		"Normal":   0,
		"":         0,
	}
	for style, want := range tests {
		assert.Equal(t, want, headingLevel(style), style)
	}
}
