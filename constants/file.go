package constants

import "strings"

// SourceKind is the stored document kind, derived from the file extension.
type SourceKind string

const (
	SourcePDF   SourceKind = "PDF"
	SourceImage SourceKind = "IMAGE"
	SourceText  SourceKind = "TXT"
	SourceDocx  SourceKind = "DOCX"
)

// AllowedExtensions holds the file extensions accepted for budget ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"tif":  {},
	"tiff": {},
	"txt":  {},
	"docx": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// KindForExt maps a normalized extension to its SourceKind.
func KindForExt(ext string) (SourceKind, bool) {
	switch NormalizeExt(ext) {
	case "pdf":
		return SourcePDF, true
	case "jpg", "jpeg", "png", "tif", "tiff":
		return SourceImage, true
	case "txt":
		return SourceText, true
	case "docx":
		return SourceDocx, true
	}
	return "", false
}
