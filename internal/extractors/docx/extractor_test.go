package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// createTestDOCX creates a minimal valid DOCX file in memory.
func createTestDOCX(documentXML, coreXML string) []byte {
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	// Add [Content_Types].xml (required for valid DOCX)
	contentTypes, _ := w.Create("[Content_Types].xml")
	contentTypes.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
</Types>`))

	if documentXML != "" {
		doc, _ := w.Create("word/document.xml")
		doc.Write([]byte(documentXML))
	}

	if coreXML != "" {
		core, _ := w.Create("docProps/core.xml")
		core.Write([]byte(coreXML))
	}

	w.Close()
	return buf.Bytes()
}

func TestMIMETypes(t *testing.T) {
	e := New()
	mimeTypes := e.MIMETypes()

	require.Len(t, mimeTypes, 1)
	assert.Contains(t, mimeTypes, "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
}

func TestExtract_Success(t *testing.T) {
	e := New()

	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
<w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
</w:body>
</w:document>`

	coreXML := `<?xml version="1.0" encoding="UTF-8"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:title>Consulting Agreement</dc:title>
</cp:coreProperties>`

	result, err := e.Extract(context.Background(), createTestDOCX(docXML, coreXML))
	require.NoError(t, err)

	assert.Equal(t, "Consulting Agreement", result.Title)
	assert.Equal(t, "First paragraph.\nSecond paragraph.", result.Text)
}

func TestExtract_NoTitle(t *testing.T) {
	e := New()

	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body><w:p><w:r><w:t>Body only.</w:t></w:r></w:p></w:body>
</w:document>`

	result, err := e.Extract(context.Background(), createTestDOCX(docXML, ""))
	require.NoError(t, err)

	assert.Empty(t, result.Title)
	assert.Equal(t, "Body only.", result.Text)
}

func TestExtract_MissingDocumentXML(t *testing.T) {
	e := New()

	result, err := e.Extract(context.Background(), createTestDOCX("", ""))
	require.NoError(t, err)
	assert.Empty(t, result.Text)
}

func TestExtract_InvalidZip(t *testing.T) {
	e := New()

	_, err := e.Extract(context.Background(), []byte("not a zip archive"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
