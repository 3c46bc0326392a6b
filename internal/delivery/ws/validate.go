package ws

import (
	"errors"
	"regexp"
	"strings"

	"github.com/papo-live/papo/internal/domain"
)

var (
	// ErrInvalidImage marks a payload that is not an image data URI with a
	// base64 section.
	ErrInvalidImage = errors.New("invalid image payload")

	// ErrImageTooLarge marks an image whose decoded size exceeds the limit.
	ErrImageTooLarge = errors.New("image too large")
)

var (
	whitespaceRegex  = regexp.MustCompile(`\s+`)
	handleStripRegex = regexp.MustCompile(`[^a-z0-9_]`)

	// aiMentionRegex matches @gemini as a whole word, at start of string or
	// after whitespace, case-insensitively.
	aiMentionRegex = regexp.MustCompile(`(?i)(^|\s)@` + domain.AIHandle + `\b`)
)

// MentionsAI reports whether a broadcast text addresses the AI responder.
func MentionsAI(text string) bool {
	return aiMentionRegex.MatchString(text)
}

// NormalizeHandle turns a display name into a mention handle: lowercase,
// whitespace collapsed to underscores, everything outside [a-z0-9_] stripped.
func NormalizeHandle(name string) string {
	handle := strings.TrimSpace(strings.ToLower(name))
	handle = whitespaceRegex.ReplaceAllString(handle, "_")
	return handleStripRegex.ReplaceAllString(handle, "")
}

// ValidateImage checks that the payload is an image data URI and that its
// decoded size stays within maxBytes. The size is derived from the base64
// length and padding; the bytes are deliberately never decoded.
func ValidateImage(data string, maxBytes int64) error {
	if !strings.HasPrefix(data, "data:image/") {
		return ErrInvalidImage
	}
	_, b64, ok := strings.Cut(data, "base64,")
	if !ok {
		return ErrInvalidImage
	}
	if approxBase64Bytes(b64) > maxBytes {
		return ErrImageTooLarge
	}
	return nil
}

// approxBase64Bytes approximates the decoded length of a base64 section,
// accounting for "="/"==" padding.
func approxBase64Bytes(b64 string) int64 {
	var padding int64
	switch {
	case strings.HasSuffix(b64, "=="):
		padding = 2
	case strings.HasSuffix(b64, "="):
		padding = 1
	}

	n := int64(len(b64))*3/4 - padding
	if n < 0 {
		return 0
	}
	return n
}
