package issuecorrelation

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// TextHash fingerprints a flagged text span for correlation. The text is
// lowercased and whitespace-collapsed first so that extraction jitter between
// review runs does not break the match. Returns empty string for empty input.
func TextHash(text string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(text), " "))
	if normalized == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", sum[:])
}
