package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rongwang/property-rental-server/internal/apperrors"
)

// DefaultMaxBytes caps an image upload when no limit is configured.
const DefaultMaxBytes = 5 << 20

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// Image is a validated upload ready to be persisted.
type Image struct {
	Data        []byte
	ContentType string
}

// ValidateImage checks filename against the extension allow-list and
// returns the bytes with their sniffed content type. An empty payload
// yields a nil Image and no error. field names the form field for
// validation errors.
func ValidateImage(field, filename string, data []byte, maxBytes int64) (*Image, error) {
	if len(data) == 0 {
		return nil, nil
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return nil, apperrors.Field(field,
			"Please upload a valid image file (jpg, jpeg, png, gif).", "validation_extension")
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if int64(len(data)) > maxBytes {
		return nil, apperrors.Field(field,
			fmt.Sprintf("Image must not exceed %d bytes.", maxBytes), "validation_max")
	}
	return &Image{Data: data, ContentType: mimetype.Detect(data).String()}, nil
}

// ReadFormFile reads an optional multipart file header. A nil header
// means no file was sent.
func ReadFormFile(field string, fh *multipart.FileHeader, maxBytes int64) (*Image, error) {
	if fh == nil || fh.Size == 0 {
		return nil, nil
	}
	// Reject by name before reading the body.
	if !allowedExtensions[strings.ToLower(filepath.Ext(fh.Filename))] {
		return nil, apperrors.Field(field,
			"Please upload a valid image file (jpg, jpeg, png, gif).", "validation_extension")
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("error reading upload: %w", err)
	}
	return ValidateImage(field, fh.Filename, data, maxBytes)
}
