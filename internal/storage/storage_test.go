package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"scholarhub/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUploadConfig() config.UploadConfig {
	return config.UploadConfig{
		MaxFileSize:       1024 * 1024,
		AllowedExtensions: []string{".pdf", ".png", ".docx"},
		AllowedMimeTypes:  []string{"application/pdf", "image/png", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		MaxPDFPages:       3,
	}
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

// minimalPDF builds a well-formed PDF with n empty pages.
func minimalPDF(n int) []byte {
	var buf bytes.Buffer
	offsets := []int{}
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	kids := make([]string, n)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n))
	for i := 0; i < n; i++ {
		obj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func TestValidator_AcceptsPNG(t *testing.T) {
	v := NewValidator(testUploadConfig())
	out, err := v.Validate("photo.PNG", pngHeader)
	require.NoError(t, err)
	assert.Equal(t, ".png", out.Extension)
	assert.Equal(t, "image/png", out.ContentType)
	assert.Zero(t, out.PageCount)
}

func TestValidator_CountsPDFPages(t *testing.T) {
	v := NewValidator(testUploadConfig())
	out, err := v.Validate("cv.pdf", minimalPDF(2))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", out.ContentType)
	assert.Equal(t, 2, out.PageCount)
}

func TestValidator_Rejections(t *testing.T) {
	v := NewValidator(testUploadConfig())

	tests := []struct {
		name string
		file string
		data []byte
		want error
	}{
		{"empty", "cv.pdf", nil, ErrEmptyFile},
		{"too large", "cv.pdf", bytes.Repeat([]byte("a"), 1024*1024+1), ErrFileTooLarge},
		{"extension", "run.exe", pngHeader, ErrInvalidExtension},
		{"content disguised", "cv.pdf", []byte("just some text, not a pdf"), ErrInvalidContentType},
		{"corrupt pdf", "cv.pdf", []byte("%PDF-1.4\ngarbage without xref"), ErrCorruptPDF},
		{"too many pages", "cv.pdf", minimalPDF(4), ErrTooManyPages},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(tt.file, tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	key, err := s.Save(ctx, strings.NewReader("hello"), FileMeta{Name: "note.PDF", Folder: "applicants/7"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "applicants/7/"))
	assert.True(t, strings.HasSuffix(key, ".pdf"))

	rc, err := s.Open(ctx, key)
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "hello", string(body))

	require.NoError(t, s.Delete(ctx, key))
	assert.ErrorIs(t, s.Delete(ctx, key), ErrObjectNotFound)
	_, err = s.Open(ctx, key)
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.Zero(t, s.Len())
}

func TestPublicIDFromURL(t *testing.T) {
	tests := []struct {
		url, id, kind string
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1712/scholarhub/documents/cv_abc.pdf", "scholarhub/documents/cv_abc", "image"},
		{"https://res.cloudinary.com/demo/raw/upload/v9/docs/letter.docx", "docs/letter.docx", "raw"},
		{"https://res.cloudinary.com/demo/image/upload/plain.png", "plain", "image"},
		{"https://example.com/nothing-here", "", ""},
	}
	for _, tt := range tests {
		id, kind := PublicIDFromURL(tt.url)
		assert.Equal(t, tt.id, id, tt.url)
		assert.Equal(t, tt.kind, kind, tt.url)
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(context.Background(), &config.StorageConfig{Provider: "ftp"}, nil)
	assert.Error(t, err)

	s, err := New(context.Background(), &config.StorageConfig{Provider: "memory"}, nil)
	require.NoError(t, err)
	assert.NoError(t, s.Health(context.Background()))
}
