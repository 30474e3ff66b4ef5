package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrMissingIdentifier is returned for records with no usable id field.
var ErrMissingIdentifier = errors.New("missing identifier")

// MissingIdentifierError reports which record of a batch had no id.
type MissingIdentifierError struct {
	Kind  string
	Index int
}

func (e *MissingIdentifierError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s record: %v", e.Kind, ErrMissingIdentifier)
	}
	return fmt.Sprintf("%s record %d: %v", e.Kind, e.Index, ErrMissingIdentifier)
}

func (e *MissingIdentifierError) Unwrap() error { return ErrMissingIdentifier }

// BatchReport summarises a batch normalisation.
type BatchReport struct {
	Received   int
	Skipped    []error
	Duplicates int
}

// Kept returns how many records survived normalisation.
func (r BatchReport) Kept() int {
	return r.Received - len(r.Skipped) - r.Duplicates
}

var (
	taxonomyIDKeys   = []string{"_id", "value", "id"}
	taxonomyNameKeys = []string{"name", "label"}
	ownerKeys        = []string{"categoryId", "category", "parentId", "parent"}
	embeddedSubKeys  = []string{"subCategoryIds", "subcategories", "subCategories"}
)

// NormalizeCategory converts a raw category record into a Category.
func NormalizeCategory(raw gjson.Result) (Category, error) {
	id := firstString(raw, taxonomyIDKeys)
	if id == "" {
		return Category{}, &MissingIdentifierError{Kind: "category", Index: -1}
	}
	return Category{
		ID:             id,
		Name:           firstString(raw, taxonomyNameKeys),
		Slug:           strings.TrimSpace(raw.Get("slug").String()),
		SubCategoryIDs: refList(raw, embeddedSubKeys),
	}, nil
}

// NormalizeSubCategory converts a raw subcategory record. fallbackCategoryID is
// used as the owner when the record does not name one.
func NormalizeSubCategory(raw gjson.Result, fallbackCategoryID string) (SubCategory, error) {
	id := firstString(raw, taxonomyIDKeys)
	if id == "" {
		return SubCategory{}, &MissingIdentifierError{Kind: "subcategory", Index: -1}
	}
	owner := firstRef(raw, ownerKeys)
	if owner == "" {
		owner = fallbackCategoryID
	}
	return SubCategory{
		ID:         id,
		Name:       firstString(raw, taxonomyNameKeys),
		CategoryID: owner,
	}, nil
}

// NormalizeCategories normalises a batch, skipping records without an id and
// keeping the first occurrence of repeated ids.
func NormalizeCategories(records []gjson.Result) ([]Category, BatchReport) {
	report := BatchReport{Received: len(records)}
	out := make([]Category, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, rec := range records {
		c, err := NormalizeCategory(rec)
		if err != nil {
			report.Skipped = append(report.Skipped, withIndex(err, i))
			continue
		}
		if _, dup := seen[c.ID]; dup {
			report.Duplicates++
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out, report
}

// NormalizeSubCategories is the batch form of NormalizeSubCategory.
func NormalizeSubCategories(records []gjson.Result, fallbackCategoryID string) ([]SubCategory, BatchReport) {
	report := BatchReport{Received: len(records)}
	out := make([]SubCategory, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, rec := range records {
		s, err := NormalizeSubCategory(rec, fallbackCategoryID)
		if err != nil {
			report.Skipped = append(report.Skipped, withIndex(err, i))
			continue
		}
		if _, dup := seen[s.ID]; dup {
			report.Duplicates++
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	return out, report
}

func withIndex(err error, index int) error {
	var missing *MissingIdentifierError
	if errors.As(err, &missing) {
		return &MissingIdentifierError{Kind: missing.Kind, Index: index}
	}
	return err
}

// firstString returns the first key holding a non-empty scalar.
func firstString(raw gjson.Result, keys []string) string {
	for _, key := range keys {
		if s := scalar(raw.Get(key)); s != "" {
			return s
		}
	}
	return ""
}

// firstRef is like firstString but also accepts populated objects such as
// {"_id": "...", "name": "..."}.
func firstRef(raw gjson.Result, keys []string) string {
	for _, key := range keys {
		if s := ref(raw.Get(key)); s != "" {
			return s
		}
	}
	return ""
}

// refList reads the first key holding an array (or single reference) of ids.
func refList(raw gjson.Result, keys []string) []string {
	for _, key := range keys {
		v := raw.Get(key)
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		if !v.IsArray() {
			if s := ref(v); s != "" {
				return []string{s}
			}
			continue
		}
		out := make([]string, 0, len(v.Array()))
		seen := make(map[string]struct{})
		for _, el := range v.Array() {
			s := ref(el)
			if s == "" {
				continue
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
		return out
	}
	return []string{}
}

func ref(v gjson.Result) string {
	if v.IsObject() {
		if oid := objectID(v); oid != "" {
			return oid
		}
		return firstString(v, taxonomyIDKeys)
	}
	return scalar(v)
}

func scalar(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return strings.TrimSpace(v.Str)
	case gjson.Number:
		return v.Raw
	case gjson.JSON:
		return objectID(v)
	}
	return ""
}

// objectID unwraps extended-JSON ids of the form {"$oid": "..."}.
func objectID(v gjson.Result) string {
	if !v.IsObject() {
		return ""
	}
	if oid, ok := v.Map()["$oid"]; ok && oid.Type == gjson.String {
		return strings.TrimSpace(oid.Str)
	}
	return ""
}
