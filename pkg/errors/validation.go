package errors

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// ValidateURL validates a service URL.
// It requires an absolute http or https URL with a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidConfig, "URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidConfig, err, "invalid URL %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidConfig, "URL must use http or https scheme")
	}
	if u.Host == "" {
		return New(ErrCodeInvalidConfig, "URL must include a host")
	}

	return nil
}

// languageCodeRegex matches two or three letter language codes with an optional region.
var languageCodeRegex = regexp.MustCompile(`^[a-z]{2,3}(-[A-Za-z]{2})?$`)

// ValidateLanguageCode validates the shape of a language code such as "en" or "pt-BR".
// It does not check whether a translation exists for the code.
func ValidateLanguageCode(code string) error {
	if code == "" {
		return New(ErrCodeInvalidLanguage, "language code cannot be empty")
	}
	if !languageCodeRegex.MatchString(code) {
		return New(ErrCodeInvalidLanguage, "invalid language code %q", code)
	}
	return nil
}

// ValidateOutputPath validates a path a file is about to be written to.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - Path must not name a directory (trailing separator)
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "output path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(filepath.Separator)) {
		return New(ErrCodeInvalidPath, "path must name a file, not a directory")
	}

	return nil
}
