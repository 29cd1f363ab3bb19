package errors

import (
	"strings"
	"unicode/utf8"
)

// Validation limits for external input. Graph documents arrive from
// files and the HTTP API, so identifiers are bounded conservatively.
const (
	// MaxNodeIDLength is the maximum length of a node or edge identifier.
	MaxNodeIDLength = 256

	// MaxLabelLength is the maximum length of a display label.
	MaxLabelLength = 512

	// MaxGraphNodes is the maximum number of nodes accepted in one graph.
	MaxGraphNodes = 100000

	// MaxGraphEdges is the maximum number of edges accepted in one graph.
	MaxGraphEdges = 500000
)

// ValidateNodeID checks that a node or edge identifier is usable.
// IDs must be non-empty, valid UTF-8, within length limits, and free
// of control characters.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidNodeID, "node id is empty")
	}
	if len(id) > MaxNodeIDLength {
		return New(ErrCodeInvalidNodeID, "node id exceeds %d bytes", MaxNodeIDLength)
	}
	if !utf8.ValidString(id) {
		return New(ErrCodeInvalidNodeID, "node id is not valid UTF-8")
	}
	for _, r := range id {
		if r < 0x20 || r == 0x7f {
			return New(ErrCodeInvalidNodeID, "node id contains control characters")
		}
	}
	return nil
}

// ValidateLabel checks that a display label is within limits. Empty
// labels are allowed; callers fall back to the node id.
func ValidateLabel(label string) error {
	if len(label) > MaxLabelLength {
		return New(ErrCodeInvalidInput, "label exceeds %d bytes", MaxLabelLength)
	}
	if !utf8.ValidString(label) {
		return New(ErrCodeInvalidInput, "label is not valid UTF-8")
	}
	return nil
}

// ValidateGraphID checks an identifier used to address a stored graph.
// Stored graph ids are generated as UUIDs but the check accepts any
// short token safe to embed in URLs and cache keys.
func ValidateGraphID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "graph id is empty")
	}
	if len(id) > 64 {
		return New(ErrCodeInvalidInput, "graph id exceeds 64 bytes")
	}
	for _, r := range id {
		ok := r >= 'a' && r <= 'z' ||
			r >= 'A' && r <= 'Z' ||
			r >= '0' && r <= '9' ||
			r == '-' || r == '_'
		if !ok {
			return New(ErrCodeInvalidInput, "graph id contains invalid character %q", r)
		}
	}
	return nil
}

// ValidateOutputPath rejects output paths that would escape the
// working directory via traversal. Absolute paths are allowed; the
// check only guards against sneaking ".." through relative inputs.
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "output path is empty")
	}
	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return New(ErrCodeInvalidInput, "output path must not contain '..'")
		}
	}
	return nil
}
