package ws

import (
	"strings"
	"testing"

	"github.com/papo-live/papo/internal/domain"
)

func TestMentionsAI(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{"Start of string", "@gemini hello", true},
		{"After whitespace", "hello @gemini how are you", true},
		{"Uppercase", "Hey @GEMINI", true},
		{"Mixed case", "oi @Gemini tudo bem", true},
		{"Word boundary punctuation", "thanks @gemini!", true},
		{"Newline before mention", "line one\n@gemini hi", true},
		{"No mention", "hello world", false},
		{"Embedded in word", "email me@gemini.example", false},
		{"Longer handle", "@geminis is not the bot", false},
		{"Bare at sign", "meet @ noon", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := MentionsAI(tc.text); got != tc.expected {
				t.Errorf("MentionsAI(%q) = %v, expected %v", tc.text, got, tc.expected)
			}
		})
	}
}

func TestNormalizeHandle(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"Simple", "Alice", "alice"},
		{"Spaces to underscores", "Maria Clara", "maria_clara"},
		{"Collapses runs", "Ana   Beatriz", "ana_beatriz"},
		{"Strips symbols", "Jo@o! Silva", "joo_silva"},
		{"Keeps digits", "User42", "user42"},
		{"Trims ends", "  Bob  ", "bob"},
		{"All symbols", "!!!", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeHandle(tc.in); got != tc.expected {
				t.Errorf("NormalizeHandle(%q) = %q, expected %q", tc.in, got, tc.expected)
			}
		})
	}
}

// imagePayload builds a data URI whose base64 section decodes to exactly
// wantBytes (using a single padding char when needed).
func imagePayload(b64Len int, padding int) string {
	return "data:image/png;base64," + strings.Repeat("A", b64Len-padding) + strings.Repeat("=", padding)
}

func TestValidateImage(t *testing.T) {
	t.Run("Rejects non data URI", func(t *testing.T) {
		if err := ValidateImage("hello", domain.MaxImageBytes); err != ErrInvalidImage {
			t.Errorf("Expected ErrInvalidImage, got %v", err)
		}
	})

	t.Run("Rejects wrong MIME", func(t *testing.T) {
		if err := ValidateImage("data:text/plain;base64,aGk=", domain.MaxImageBytes); err != ErrInvalidImage {
			t.Errorf("Expected ErrInvalidImage, got %v", err)
		}
	})

	t.Run("Rejects missing base64 section", func(t *testing.T) {
		if err := ValidateImage("data:image/png,rawbytes", domain.MaxImageBytes); err != ErrInvalidImage {
			t.Errorf("Expected ErrInvalidImage, got %v", err)
		}
	})

	t.Run("Accepts small image", func(t *testing.T) {
		if err := ValidateImage("data:image/jpeg;base64,aGVsbG8=", domain.MaxImageBytes); err != nil {
			t.Errorf("Expected small image to pass, got %v", err)
		}
	})

	t.Run("Accepts exactly 5 MiB", func(t *testing.T) {
		// 6990508 base64 chars with one padding char decode to 5242880 bytes
		payload := imagePayload(6990508, 1)
		if err := ValidateImage(payload, domain.MaxImageBytes); err != nil {
			t.Errorf("Expected image at the limit to pass, got %v", err)
		}
	})

	t.Run("Rejects 5 MiB plus one byte", func(t *testing.T) {
		// 6990508 unpadded base64 chars decode to 5242881 bytes
		payload := imagePayload(6990508, 0)
		if err := ValidateImage(payload, domain.MaxImageBytes); err != ErrImageTooLarge {
			t.Errorf("Expected ErrImageTooLarge, got %v", err)
		}
	})
}

func TestApproxBase64Bytes(t *testing.T) {
	tests := []struct {
		name     string
		b64      string
		expected int64
	}{
		{"Empty", "", 0},
		{"No padding", "aGVsbG8h", 6},
		{"One padding", "aGVsbG8=", 5},
		{"Two padding", "aGVsbA==", 4},
		{"Only padding", "=", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := approxBase64Bytes(tc.b64); got != tc.expected {
				t.Errorf("approxBase64Bytes(%q) = %d, expected %d", tc.b64, got, tc.expected)
			}
		})
	}
}
