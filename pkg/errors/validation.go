package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateSnapshotID validates a snapshot identifier for safety and
// correctness. It rejects identifiers that could be used for path traversal
// when the ID ends up in a cache or store key.
//
// The validation rules are intentionally conservative:
//   - No empty IDs
//   - No control characters
//   - No path traversal sequences (.., //, etc.)
//   - No null bytes
//   - Maximum length of 256 characters
func ValidateSnapshotID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "snapshot id cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidInput, "snapshot id too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "snapshot id contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidInput, "snapshot id contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// nodeIDRegex matches the ids the graph builder emits: a kind prefix
// followed by colon-separated slug segments.
var nodeIDRegex = regexp.MustCompile(`^(env|provider|cluster|host|vm)(:[a-z0-9\-_.]+)+$`)

// ValidateNodeID validates a graph node id used as a focus target.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidFocus, "node id cannot be empty")
	}

	if len(id) > 512 {
		return New(ErrCodeInvalidFocus, "node id too long (max 512 characters)")
	}

	if !nodeIDRegex.MatchString(id) {
		return New(ErrCodeInvalidFocus, "invalid node id: %q", id)
	}

	return nil
}

// ValidateCanvas validates a requested canvas size.
//
// Validation rules:
//   - Both dimensions must be positive
//   - Maximum of 16384 pixels per side
func ValidateCanvas(width, height int) error {
	if width <= 0 || height <= 0 {
		return New(ErrCodeInvalidCanvas, "canvas must be positive, got %dx%d", width, height)
	}

	const maxSide = 16384
	if width > maxSide || height > maxSide {
		return New(ErrCodeInvalidCanvas, "canvas too large (max %d per side), got %dx%d", maxSide, width, height)
	}

	return nil
}

// renderFormats are the artifact formats the render pipeline can produce.
var renderFormats = map[string]bool{
	"svg":  true,
	"png":  true,
	"dot":  true,
	"json": true,
}

// ValidateFormat validates a render output format.
func ValidateFormat(format string) error {
	if format == "" {
		return New(ErrCodeInvalidFormat, "format cannot be empty")
	}

	if !renderFormats[strings.ToLower(format)] {
		return New(ErrCodeInvalidFormat, "unsupported format: %q (want svg, png, dot, or json)", format)
	}

	return nil
}

// ValidatePath validates a file path for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidInput, "path cannot contain path traversal sequences (..)")
	}

	return nil
}
