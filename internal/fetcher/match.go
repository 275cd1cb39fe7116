package fetcher

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
)

// matchPath applies include then exclude doublestar globs against a
// slash-separated path. Empty include means everything is included.
func matchPath(path string, include, exclude []string) bool {
	if len(include) > 0 {
		ok := false
		for _, pattern := range include {
			if matched, err := doublestar.Match(pattern, path); err == nil && matched {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, pattern := range exclude {
		if matched, err := doublestar.Match(pattern, path); err == nil && matched {
			return false
		}
	}
	return true
}

var binaryExts = map[string]bool{
	".exe": true, ".dll": true, ".so": true, ".dylib": true,
	".zip": true, ".tar": true, ".gz": true, ".bz2": true, ".7z": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true, ".webp": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".mp3": true, ".mp4": true, ".avi": true, ".mov": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
	".bin": true, ".dat": true, ".db": true, ".sqlite": true,
	".pyc": true, ".pyo": true, ".class": true, ".o": true, ".a": true,
	".wasm": true, ".jar": true,
}

func isBinaryPath(path string) bool {
	return binaryExts[strings.ToLower(filepath.Ext(path))]
}

// isTextContent rejects payloads the chunker cannot meaningfully split.
func isTextContent(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	for _, b := range data {
		if b == 0 {
			return false
		}
	}
	return utf8.Valid(data)
}
