package catalog

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Kebab turns a display name into a URL segment: "Cloud & DevOps" becomes
// "cloud-devops", "Café Apps" becomes "cafe-apps".
func Kebab(name string) string {
	folded, _, err := transform.String(stripAccents, strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		folded = strings.ToLower(strings.TrimSpace(name))
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingDash := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// ResolveCategory maps a route segment onto a category: first by slug, then by
// the kebab-case form of the name, then by the decoded literal name.
func ResolveCategory(categories []Category, segment string) (Category, bool) {
	seg := strings.TrimSpace(segment)
	if seg == "" {
		return Category{}, false
	}

	for _, c := range categories {
		if c.Slug != "" && strings.EqualFold(c.Slug, seg) {
			return c, true
		}
	}

	for _, c := range categories {
		if kebab := Kebab(c.Name); kebab != "" && strings.EqualFold(kebab, seg) {
			return c, true
		}
	}

	decoded, err := url.PathUnescape(seg)
	if err != nil {
		decoded = seg
	}
	decoded = strings.TrimSpace(decoded)
	for _, c := range categories {
		if strings.EqualFold(strings.TrimSpace(c.Name), decoded) {
			return c, true
		}
	}
	return Category{}, false
}

// ResolveSubCategory finds a subcategory by id, then by case-insensitive name,
// then by kebab-case name.
func ResolveSubCategory(subs []SubCategory, ref string) (SubCategory, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return SubCategory{}, false
	}
	for _, s := range subs {
		if s.ID == ref {
			return s, true
		}
	}
	for _, s := range subs {
		if strings.EqualFold(s.Name, ref) {
			return s, true
		}
	}
	kebab := Kebab(ref)
	for _, s := range subs {
		if kebab != "" && Kebab(s.Name) == kebab {
			return s, true
		}
	}
	return SubCategory{}, false
}
