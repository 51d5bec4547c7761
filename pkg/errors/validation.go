package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// packageIDRegex matches "<category>/<name>" package identifiers.
var packageIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]*/[A-Za-z0-9][A-Za-z0-9._+-]*$`)

// ValidatePackageID validates a package identifier such as "cross/zlib".
// It rejects identifiers that could escape the recipe tree.
func ValidatePackageID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidPackage, "package id cannot be empty")
	}
	if len(id) > 256 {
		return New(ErrCodeInvalidPackage, "package id too long (max 256 characters)")
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPackage, "package id contains invalid control characters")
		}
	}
	for _, pattern := range []string{"..", "//", "\\"} {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidPackage, "package id contains invalid characters: %q", pattern)
		}
	}
	if !packageIDRegex.MatchString(id) {
		return New(ErrCodeInvalidPackage, "invalid package id %q (expected <category>/<name>)", id)
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// Only schemes the crawler knows how to index are accepted.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	for _, scheme := range []string{"http://", "https://", "ftp://"} {
		if strings.HasPrefix(rawURL, scheme) {
			return nil
		}
	}
	return New(ErrCodeInvalidInput, "URL must use http, https or ftp scheme: %q", rawURL)
}
