package normalisers

import (
	"path/filepath"
	"strings"
)

// TitleFromFilename derives a human-readable title from a file name.
func TitleFromFilename(name string) string {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	return strings.TrimSpace(base)
}

// BaseMetadata copies upload metadata and records the MIME type and format.
func BaseMetadata(src map[string]any, mimeType, format string) map[string]any {
	dst := make(map[string]any, len(src)+2)
	for k, v := range src {
		dst[k] = v
	}
	dst["mime_type"] = mimeType
	if format != "" {
		dst["format"] = format
	}
	return dst
}
