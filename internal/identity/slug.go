package identity

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify derives a URL slug from a display name: lowercase, diacritics
// stripped, runs of non-alphanumeric characters collapsed to single hyphens.
// Deterministic and idempotent; it does not guarantee uniqueness. That is
// the store's unique constraint plus SlugWithSuffix on collision.
//
//	Slugify("Juan Pérez") == "juan-perez"
func Slugify(name string) string {
	folded, _, err := transform.String(stripDiacritics, name)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	lastHyphen := true // trims leading hyphens
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// SlugWithSuffix appends a deterministic short disambiguator derived from the
// provider ID. Used when the base slug is already taken, so two "Juan Pérez"
// profiles get distinct stable URLs.
func SlugWithSuffix(slug string, id uuid.UUID) string {
	suffix := strings.ReplaceAll(id.String(), "-", "")[:6]
	if slug == "" {
		return suffix
	}
	return slug + "-" + suffix
}
