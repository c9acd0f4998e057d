package utils

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// imageExts are the extensions (compared lower-cased) the fixer works on.
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// IsImageFile reports whether path has a supported image extension.
func IsImageFile(path string) bool {
	return imageExts[strings.ToLower(filepath.Ext(path))]
}

// ListCandidates expands pattern (with ** support) and returns the matching
// image files in lexical order.
func ListCandidates(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		if IsImageFile(m) {
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}
