// Package slug generates URL-safe slugs from entry titles with Unicode
// normalization. Slugs are derived once at publish time and never change
// afterwards; collisions are resolved by suffixing rather than by erroring.
package slug

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"inkwell/internal/domain/entity"
)

// Fallback is the slug used when a title yields no slug material at all.
const Fallback = "entry"

// maxSuffixAttempts caps the collision loop; past this Generate reports
// ErrSlugSpaceExhausted instead of probing further.
const maxSuffixAttempts = 50

// ErrSlugSpaceExhausted indicates the collision loop gave up. Callers surface
// it as a server fault, never as a validation failure.
var ErrSlugSpaceExhausted = errors.New("slug space exhausted")

// Probe reports the entry currently owning a slug.
// A (nil, nil) return means the slug is free.
type Probe func(ctx context.Context, slug string) (*entity.Entry, error)

var nonWord = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// Make converts a title to its base slug: NFKD decomposition, ASCII
// projection, word-run extraction, then lowercased and hyphen-joined.
//
//	Make("Hello, World!")  // "hello-world"
//	Make("Café résumé")    // "cafe-resume"
//	Make("!!!")            // ""
//
// Accented letters survive because NFKD splits them into base letter plus
// combining mark and only the mark is non-ASCII. Scripts with no ASCII
// decomposition (CJK, Cyrillic) vanish entirely, so callers must handle an
// empty result.
func Make(title string) string {
	decomposed := norm.NFKD.String(title)

	var ascii strings.Builder
	ascii.Grow(len(decomposed))
	for _, r := range decomposed {
		if r < utf8.RuneSelf {
			ascii.WriteRune(r)
		}
	}

	spaced := nonWord.ReplaceAllString(ascii.String(), " ")
	return strings.Join(strings.Fields(strings.ToLower(spaced)), "-")
}

// Generate produces a unique slug for the given title.
//
// The candidate starts as Make(title), falling back to Fallback when the
// title has no slug material. While another entry owns the candidate, "-2"
// is appended and the probe repeated ("hello-world", "hello-world-2",
// "hello-world-2-2", ...). An owner whose ID equals excludeID does not count
// as a collision, so republishing an existing entry under its own slug is
// not treated as a clash. Creates pass excludeID 0, which matches no
// persisted entry.
//
// Probe errors are returned wrapped; Generate itself performs no retries.
func Generate(ctx context.Context, title string, probe Probe, excludeID int64) (string, error) {
	candidate := Make(title)
	if candidate == "" {
		candidate = Fallback
	}

	for attempt := 0; attempt <= maxSuffixAttempts; attempt++ {
		owner, err := probe(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("probe slug %q: %w", candidate, err)
		}
		if owner == nil || owner.ID == excludeID {
			return candidate, nil
		}
		candidate += "-2"
	}

	return "", fmt.Errorf("%w: gave up after %d attempts for title %q", ErrSlugSpaceExhausted, maxSuffixAttempts, title)
}
