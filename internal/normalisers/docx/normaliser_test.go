package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/embediq/internal/core/domain"
)

const documentBody = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Hello </w:t></w:r><w:r><w:t>world.</w:t></w:r></w:p>
<w:p></w:p>
<w:p><w:r><w:t>Second paragraph.</w:t></w:r></w:p>
</w:body>
</w:document>`

func buildDocx(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestSupportedMIMETypes(t *testing.T) {
	assert.Equal(t, []string{MIMEType}, New().SupportedMIMETypes())
	assert.Equal(t, 50, New().Priority())
}

func TestNormalise_Success(t *testing.T) {
	content := buildDocx(t, map[string]string{
		"word/document.xml": documentBody,
		"docProps/core.xml": `<cp:coreProperties xmlns:cp="x" xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>Design Notes</dc:title></cp:coreProperties>`,
	})

	result, err := New().Normalise(context.Background(), &domain.Upload{
		Filename: "notes.docx",
		MIMEType: MIMEType,
		Content:  content,
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello world.\nSecond paragraph.", result.Text)
	assert.Equal(t, "Design Notes", result.Metadata["title"])
	assert.Equal(t, "docx", result.Metadata["format"])
}

func TestNormalise_TitleFallback(t *testing.T) {
	content := buildDocx(t, map[string]string{"word/document.xml": documentBody})

	result, err := New().Normalise(context.Background(), &domain.Upload{Filename: "team_plan.docx", Content: content})
	require.NoError(t, err)
	assert.Equal(t, "team plan", result.Metadata["title"])
}

func TestNormalise_NotAZip(t *testing.T) {
	_, err := New().Normalise(context.Background(), &domain.Upload{Filename: "x.docx", Content: []byte("plain")})
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}

func TestNormalise_MissingDocument(t *testing.T) {
	content := buildDocx(t, map[string]string{"other.xml": "<a/>"})

	_, err := New().Normalise(context.Background(), &domain.Upload{Filename: "x.docx", Content: content})
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}

func TestNormalise_NilUpload(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
