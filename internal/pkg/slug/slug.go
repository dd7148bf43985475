// Package slug turns titles and names into URL-friendly identifiers.
package slug

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const maxAttempts = 50

var (
	// disallowed matches anything that isn't a letter, digit, whitespace or hyphen.
	disallowed = regexp.MustCompile(`[^a-z0-9\s-]`)
	separators = regexp.MustCompile(`[\s-]+`)
)

// Generate creates a URL-friendly slug from the given string.
// Example: "Hello, World! 2026" → "hello-world-2026"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = disallowed.ReplaceAllString(result, "")
	result = separators.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// Unique derives a slug from s and appends -2, -3, ... until taken reports
// it free. Inputs with no sluggable characters fall back to fallback.
func Unique(s, fallback string, taken func(candidate string) (bool, error)) (string, error) {
	base := Generate(s)
	if base == "" {
		base = fallback
	}

	candidate := base
	for i := 2; i <= maxAttempts+1; i++ {
		exists, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return base + "-" + uuid.NewString()[:8], nil
}
