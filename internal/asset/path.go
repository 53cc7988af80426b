package asset

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizePath turns a content-relative path into its canonical key form:
// slash separated, cleaned and NFC normalized. Absolute paths and paths that
// escape the content root are rejected.
func NormalizePath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("asset path must not be empty")
	}
	slashed := filepath.ToSlash(p)
	if path.IsAbs(slashed) || filepath.IsAbs(p) || filepath.VolumeName(p) != "" {
		return "", fmt.Errorf("asset path '%s' must be relative to the content root", p)
	}
	cleaned := path.Clean(slashed)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("asset path '%s' escapes the content root", p)
	}
	return norm.NFC.String(cleaned), nil
}
