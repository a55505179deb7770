package util

import (
	"errors"
	"mime"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

var (
	ErrNoFilename = errors.New("cannot extract valid filename")
)

var quotedFilename = regexp.MustCompile(`filename="([^"]+)"`)

// FilenameFromContentDisposition extracts the filename from a Content-Disposition header value. A quoted
// filename="..." parameter is accepted even without a disposition type; otherwise RFC 6266 parsing is attempted so
// that filename*= and unquoted forms also work.
func FilenameFromContentDisposition(header string) (string, error) {
	if header == "" {
		return "", ErrNoFilename
	}
	if m := quotedFilename.FindStringSubmatch(header); m != nil {
		return m[1], nil
	}
	if _, params, err := mime.ParseMediaType(header); err == nil {
		if filename := params["filename"]; filename != "" {
			return filename, nil
		}
	}
	return "", ErrNoFilename
}

// SanitizeFilename reduces a server-supplied name to a single safe path element.
func SanitizeFilename(filename string) (string, error) {
	filename = strings.ReplaceAll(filename, "\\", "/")
	filename = filepath.Base(filename)
	filename = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r):
			return -1
		case strings.ContainsRune(`<>:"|?*`, r):
			return '_'
		default:
			return r
		}
	}, filename)
	filename = strings.TrimSpace(filename)
	// Don't allow "filenames" that are just ".", "..", etc.
	if strings.ReplaceAll(filename, ".", "") == "" || filename == "/" {
		return "", ErrNoFilename
	}
	return filename, nil
}

// FilenameOrDefault returns the sanitised filename from a Content-Disposition header, or fallback.
func FilenameOrDefault(header string, fallback string) string {
	if filename, err := FilenameFromContentDisposition(header); err != nil {
		return fallback
	} else if filename, err = SanitizeFilename(filename); err != nil {
		return fallback
	} else {
		return filename
	}
}
