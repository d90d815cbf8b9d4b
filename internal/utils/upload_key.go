package utils

import (
	"crypto/rand"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// GenerateUploadKey builds a storage key for an uploaded file:
// <folder>/<unix-nanos>-<random>.<ext>. The original filename only
// contributes its extension.
func GenerateUploadKey(folder, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))

	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		// Timestamp alone is unique enough as a fallback.
		return fmt.Sprintf("%s/%d%s", folder, time.Now().UnixNano(), ext)
	}

	return fmt.Sprintf("%s/%d-%x%s", folder, time.Now().UnixNano(), suffix, ext)
}
