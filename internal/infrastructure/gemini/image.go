package gemini

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

var (
	imageKinds      = []string{"resized", "original"}
	imageExtensions = []string{".jpg", ".jpeg"}
)

// FindImage returns the downloaded creative for an ad, preferring the
// resized variant, or "" when none exists.
func FindImage(dir, adID string) string {
	if dir == "" || adID == "" {
		return ""
	}
	for _, kind := range imageKinds {
		for _, ext := range imageExtensions {
			path := filepath.Join(dir, adID+"_"+kind+ext)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}
	}
	return ""
}

// DetectMIME sniffs the content type of a file from its bytes.
func DetectMIME(path string) (string, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("detect mime type: %w", err)
	}
	return mt.String(), nil
}
