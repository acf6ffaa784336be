// Package catalog reshapes species rows for the API and validates request payloads.
package catalog

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/pavelanni/florafauna/internal/model"
)

const (
	maxSlugLen   = 96
	maxSearchLen = 100
)

// Slugify turns a scientific name into a URL-safe identifier:
// "Panthera leo persica" becomes "panthera-leo-persica".
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	slug := b.String()
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	return slug
}

// searchStrip holds characters that carry meaning in a LIKE pattern or a
// filter expression and are dropped from user search input.
const searchStrip = `%_,()*\'"`

// SanitizeSearchTerm cleans free-text search input. An empty result means the
// caller should not filter at all.
func SanitizeSearchTerm(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(searchStrip, r) || unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if r := []rune(cleaned); len(r) > maxSearchLen {
		cleaned = strings.TrimSpace(string(r[:maxSearchLen]))
	}
	return cleaned
}

// IsUUID reports whether s is an RFC 4122 UUID of version 1 to 5.
func IsUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	return id.Variant() == uuid.RFC4122 && id.Version() >= 1 && id.Version() <= 5
}

// IdentifierColumn picks the species column an identifier refers to.
func IdentifierColumn(identifier string) string {
	if IsUUID(identifier) {
		return "id"
	}
	return "slug"
}

// Normalize returns s in its API-facing shape.
func Normalize(s model.Species) model.Species {
	s.ScientificName = strings.TrimSpace(s.ScientificName)
	s.CommonName = strings.TrimSpace(s.CommonName)
	s.Kingdom = strings.TrimSpace(s.Kingdom)
	s.Phylum = strings.TrimSpace(s.Phylum)
	s.Class = strings.TrimSpace(s.Class)
	s.Order = strings.TrimSpace(s.Order)
	s.Family = strings.TrimSpace(s.Family)
	s.Genus = strings.TrimSpace(s.Genus)
	s.HabitatDescription = strings.TrimSpace(s.HabitatDescription)
	s.IUCNStatus = strings.ToUpper(strings.TrimSpace(s.IUCNStatus))

	urls := make([]string, 0, len(s.ImageURLs))
	for _, u := range s.ImageURLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	s.ImageURLs = urls

	if s.Slug == "" {
		s.Slug = Slugify(s.ScientificName)
	}
	return s
}
