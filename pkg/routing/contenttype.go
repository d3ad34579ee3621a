package routing

import (
	"strings"

	"github.com/docpipe/docpipe/pkg/models"
)

// CategorizeContentType classifies a declared content-type string into a
// coarse content category using fixed prefix and substring rules. Returns
// false when no category applies.
func CategorizeContentType(contentType string) (models.ContentCategory, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))

	// Parameters like "; charset=utf-8" do not affect the category.
	if idx := strings.IndexByte(ct, ';'); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}

	switch {
	case strings.HasPrefix(ct, "image/"):
		return models.CategoryImage, true
	case strings.HasPrefix(ct, "audio/"):
		return models.CategoryAudio, true
	case strings.HasPrefix(ct, "video/"):
		return models.CategoryVideo, true
	case ct == "application/vnd.ms-excel",
		strings.Contains(ct, "spreadsheet"),
		ct == "text/csv":
		return models.CategorySpreadsheet, true
	case ct == "application/vnd.ms-powerpoint",
		strings.Contains(ct, "presentation"):
		return models.CategoryPresentation, true
	case ct == "application/pdf",
		ct == "application/msword",
		strings.HasPrefix(ct, "application/vnd."),
		ct == "application/rtf":
		return models.CategoryDocument, true
	case ct == "application/zip",
		ct == "application/gzip",
		ct == "application/x-tar",
		ct == "application/x-7z-compressed":
		return models.CategoryArchive, true
	case strings.HasPrefix(ct, "text/x-"),
		ct == "application/javascript",
		ct == "application/xml":
		return models.CategoryCode, true
	case strings.HasPrefix(ct, "text/"),
		ct == "application/json":
		return models.CategoryText, true
	default:
		return "", false
	}
}
