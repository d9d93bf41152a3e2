package entities

import (
	"path/filepath"
	"strings"
)

// Content types of the accepted uploads
const (
	ContentTypeJPEG  = "image/jpeg"
	ContentTypePDF   = "application/pdf"
	ContentTypeOctet = "application/octet-stream"
)

// IsJPEGFile reports whether the filename has a JPEG extension
func IsJPEGFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".jpg" || ext == ".jpeg"
}

// IsPDFFile reports whether the filename has a PDF extension
func IsPDFFile(filename string) bool {
	return strings.ToLower(filepath.Ext(filename)) == ".pdf"
}

// IsSupportedFile reports whether the upload boundary accepts the filename
func IsSupportedFile(filename string) bool {
	return IsJPEGFile(filename) || IsPDFFile(filename)
}

// ContentTypeFor returns the MIME type implied by the filename extension
func ContentTypeFor(filename string) string {
	switch {
	case IsJPEGFile(filename):
		return ContentTypeJPEG
	case IsPDFFile(filename):
		return ContentTypePDF
	default:
		return ContentTypeOctet
	}
}
