package constants

import "strings"

// DocumentFormat classifies an uploaded maintenance document.
type DocumentFormat string

const (
	PDF   DocumentFormat = "PDF"
	IMAGE DocumentFormat = "IMAGE"
)

// AllowedExtensions holds the file extensions accepted for document upload.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a normalized extension to a document format.
// Unknown extensions map to "": the pipeline treats those as unsupported.
func MapExtToFormat(ext string) DocumentFormat {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "jpg", "jpeg", "png":
		return IMAGE
	default:
		return ""
	}
}
