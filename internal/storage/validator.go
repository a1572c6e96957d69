package storage

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"scholarhub/internal/config"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"golang.org/x/exp/slices"
)

// Upload validation failures.
var (
	ErrEmptyFile          = errors.New("file is empty")
	ErrFileTooLarge       = errors.New("file size exceeds limit")
	ErrInvalidExtension   = errors.New("invalid file extension")
	ErrInvalidContentType = errors.New("invalid content type")
	ErrCorruptPDF         = errors.New("pdf could not be read")
	ErrTooManyPages       = errors.New("pdf has too many pages")
)

// Inspection is what the validator learned about an upload.
type Inspection struct {
	Extension   string
	ContentType string
	PageCount   int
}

// Validator enforces the configured upload limits.
type Validator struct {
	maxSize    int64
	extensions []string
	mimeTypes  []string
	maxPages   int
}

// NewValidator builds a validator from the upload configuration.
func NewValidator(cfg config.UploadConfig) *Validator {
	lower := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, s := range in {
			if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return &Validator{
		maxSize:    cfg.MaxFileSize,
		extensions: lower(cfg.AllowedExtensions),
		mimeTypes:  lower(cfg.AllowedMimeTypes),
		maxPages:   cfg.MaxPDFPages,
	}
}

// MaxSize is the largest accepted upload in bytes.
func (v *Validator) MaxSize() int64 { return v.maxSize }

// Validate checks size, extension and sniffed content type. PDFs are
// parsed to count pages.
func (v *Validator) Validate(name string, data []byte) (*Inspection, error) {
	size := int64(len(data))
	if size == 0 {
		return nil, ErrEmptyFile
	}
	if v.maxSize > 0 && size > v.maxSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d bytes", ErrFileTooLarge, size, v.maxSize)
	}

	ext := strings.ToLower(filepath.Ext(name))
	if !slices.Contains(v.extensions, ext) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidExtension, ext)
	}

	mt := mimetype.Detect(data)
	contentType := strings.ToLower(strings.SplitN(mt.String(), ";", 2)[0])
	if len(v.mimeTypes) > 0 && !v.allowedMime(mt) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidContentType, contentType)
	}

	out := &Inspection{Extension: ext, ContentType: contentType}
	if mt.Is("application/pdf") {
		pages, err := CountPDFPages(data)
		if err != nil {
			return nil, err
		}
		if v.maxPages > 0 && pages > v.maxPages {
			return nil, fmt.Errorf("%w: %d pages exceeds %d", ErrTooManyPages, pages, v.maxPages)
		}
		out.PageCount = pages
	}
	return out, nil
}

// allowedMime also accepts a configured parent type, so docx (a zip)
// matches when only the specific type is listed and vice versa.
func (v *Validator) allowedMime(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		base := strings.ToLower(strings.SplitN(m.String(), ";", 2)[0])
		if slices.Contains(v.mimeTypes, base) {
			return true
		}
	}
	return false
}

// CountPDFPages parses data as a PDF and returns its page count.
func CountPDFPages(data []byte) (pages int, err error) {
	// The pdf reader panics on some malformed input.
	defer func() {
		if r := recover(); r != nil {
			pages, err = 0, fmt.Errorf("%w: %v", ErrCorruptPDF, r)
		}
	}()
	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCorruptPDF, err)
	}
	return doc.NumPage(), nil
}

// IsValidationError reports whether err is an upload validation failure.
func IsValidationError(err error) bool {
	for _, target := range []error{ErrEmptyFile, ErrFileTooLarge, ErrInvalidExtension, ErrInvalidContentType, ErrCorruptPDF, ErrTooManyPages} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
