package mime

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// byExt refines "text/plain" detections for formats users commonly attach to assistants.
var byExt = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".csv":      "text/csv",
	".json":     "application/json",
	".jsonl":    "application/jsonl",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".xml":      "application/xml",
	".html":     "text/html",
	".htm":      "text/html",
	".py":       "text/x-python",
	".go":       "text/x-go",
	".js":       "text/javascript",
	".ts":       "text/typescript",
	".sql":      "text/x-sql",
}

// Detect sniffs content and falls back to the file extension for plain text.
func Detect(content []byte, filename string) string {
	detected := mimetype.Detect(content).String()
	if !strings.HasPrefix(detected, "text/plain") {
		return detected
	}
	if refined, ok := byExt[strings.ToLower(filepath.Ext(filename))]; ok {
		return strings.Replace(detected, "text/plain", refined, 1)
	}
	return detected
}

// Base strips parameters such as charset.
func Base(contentType string) string {
	base, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(base)
}
