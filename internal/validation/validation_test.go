package validation

import (
	"errors"
	"testing"
)

// TestValidateLocation verifies trimming, length bounds, and the allowed
// character set, including coordinate-pair inputs.
func TestValidateLocation(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		minLen  int
		maxLen  int
		want    string
		wantErr error
	}{
		{"simple city", "Seattle", 1, 100, "Seattle", nil},
		{"trimmed", "  Seattle  ", 1, 100, "Seattle", nil},
		{"city with country", "Paris, FR", 1, 100, "Paris, FR", nil},
		{"postal code", "98101", 1, 100, "98101", nil},
		{"coordinate pair", "47.61,-122.33", 1, 100, "47.61,-122.33", nil},
		{"unicode letters", "Zürich", 1, 100, "Zürich", nil},
		{"empty", "", 1, 100, "", ErrLocationEmpty},
		{"whitespace only", "   ", 1, 100, "", ErrLocationEmpty},
		{"too short", "ab", 3, 100, "", ErrLocationTooShort},
		{"too long", "abcdef", 1, 5, "", ErrLocationTooLong},
		{"invalid chars", "Seattle<script>", 1, 100, "", ErrLocationInvalidChars},
		{"slash", "a/b", 1, 100, "", ErrLocationInvalidChars},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateLocation(tc.in, tc.minLen, tc.maxLen)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("ValidateLocation(%q) error = %v, want %v", tc.in, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("ValidateLocation(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
