package filter

import (
	"bytes"
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tayloree/agency-catalog/internal/catalog"
)

// Apply returns the items that satisfy every active predicate of the state,
// in input order. Search matches title, short description or any tag;
// the category predicate matches the item's category; the subcategory
// predicate matches when any of the item's subcategories is selected. With no
// active predicate the input is returned as is.
func Apply(items []catalog.Item, st *State) []catalog.Item {
	if st == nil || !st.Active() {
		return items
	}

	var m matcher
	if st.query != "" {
		m = newMatcher(strings.ToLower(st.query))
	}
	cats := st.categories.ids
	subs := st.subCategories.ids

	var result []catalog.Item
	for i, item := range items {
		if len(cats) > 0 && !containsID(cats, item.CategoryID) {
			continue
		}
		if len(subs) > 0 && !overlaps(subs, item.SubCategoryIDs) {
			continue
		}
		if m.active() && !m.matchesItem(item) {
			continue
		}
		if result == nil {
			result = make([]catalog.Item, 0, len(items)-i)
		}
		result = append(result, item)
	}
	return result
}

// Scope returns the subcategories a selector should offer for the current
// category selection: the union over the selected categories, or over every
// category when nothing is selected.
func Scope(tax *catalog.Taxonomy, st *State) []catalog.SubCategory {
	var selected []string
	if st != nil {
		selected = st.categories.ids
	}
	return tax.SubCategoriesFor(selected)
}

// Window truncates the filtered items for a "show more" display. A
// non-positive limit keeps everything.
func Window(items []catalog.Item, limit int) []catalog.Item {
	if limit > 0 && limit < len(items) {
		return items[:limit]
	}
	return items
}

// FacetCounts holds per-facet item counts.
type FacetCounts struct {
	Categories    map[string]int
	SubCategories map[string]int
	Uncategorized int
}

// Facets counts items per category and subcategory.
func Facets(items []catalog.Item) FacetCounts {
	counts := FacetCounts{
		Categories:    make(map[string]int),
		SubCategories: make(map[string]int),
	}
	for _, item := range items {
		if item.CategoryID == "" {
			counts.Uncategorized++
		} else {
			counts.Categories[item.CategoryID]++
		}
		for _, s := range item.SubCategoryIDs {
			counts.SubCategories[s]++
		}
	}
	return counts
}

// CleanText unescapes HTML entities and normalizes whitespace.
func CleanText(s string) string {
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

// matcher tests fields against a lowercase query as if each field had gone
// through CleanText and strings.ToLower. Fields are folded into a scratch
// buffer reused across calls; only fields carrying an entity outside the
// small table below take the allocating path.
type matcher struct {
	q   string
	qb  []byte
	buf []byte
}

func newMatcher(q string) matcher {
	return matcher{q: q, qb: []byte(q), buf: make([]byte, 0, 128)}
}

func (m *matcher) active() bool { return m.q != "" }

func (m *matcher) matchesItem(item catalog.Item) bool {
	if m.contains(item.Title) || m.contains(item.ShortDescription) {
		return true
	}
	for _, tag := range item.Tags {
		if m.contains(tag) {
			return true
		}
	}
	return false
}

func (m *matcher) contains(s string) bool {
	folded, ok := appendFolded(m.buf[:0], s)
	m.buf = folded[:0]
	if !ok {
		return strings.Contains(strings.ToLower(CleanText(s)), m.q)
	}
	return bytes.Contains(folded, m.qb)
}

var entities = map[string]string{
	"&amp;":  "&",
	"&lt;":   "<",
	"&gt;":   ">",
	"&quot;": `"`,
	"&apos;": "'",
	"&#39;":  "'",
	"&#34;":  `"`,
}

// appendFolded appends s lowercased with common entities decoded and line
// breaks turned into spaces. It reports false when s holds an entity it does
// not decode. Surrounding whitespace is kept; queries are trimmed so it
// cannot change a match.
func appendFolded(dst []byte, s string) ([]byte, bool) {
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '&':
			end := strings.IndexByte(s[i:], ';')
			dec, ok := "", false
			if end > 0 {
				dec, ok = entities[s[i:i+end+1]]
			}
			if !ok {
				if mayBeEntity(s[i+1:]) {
					return dst, false
				}
				dst = append(dst, '&')
				i++
				continue
			}
			dst = append(dst, dec...)
			i += end + 1
		case c == '\r':
			dst = append(dst, ' ')
			i++
			if i < len(s) && s[i] == '\n' {
				i++
			}
		case c == '\n':
			dst = append(dst, ' ')
			i++
		case c < utf8.RuneSelf:
			if 'A' <= c && c <= 'Z' {
				c += 'a' - 'A'
			}
			dst = append(dst, c)
			i++
		default:
			r, size := utf8.DecodeRuneInString(s[i:])
			dst = utf8.AppendRune(dst, unicode.ToLower(r))
			i += size
		}
	}
	return dst, true
}

// mayBeEntity reports whether the text after an ampersand could start an
// entity that html.UnescapeString would decode.
func mayBeEntity(rest string) bool {
	if rest == "" {
		return false
	}
	c := rest[0]
	return c == '#' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func containsID(ids []string, id string) bool {
	if id == "" {
		return false
	}
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func overlaps(selected, itemIDs []string) bool {
	for _, id := range itemIDs {
		if containsID(selected, id) {
			return true
		}
	}
	return false
}
