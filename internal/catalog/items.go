package catalog

import (
	"github.com/tidwall/gjson"
)

var (
	itemIDKeys          = []string{"_id", "id"}
	itemTitleKeys       = []string{"title", "name"}
	itemDescriptionKeys = []string{"shortDescription", "short_description", "description"}
	itemCategoryKeys    = []string{"categoryId", "category"}
	itemSubCategoryKeys = []string{"subCategoryIds", "subCategories", "subcategories", "subCategory"}
)

// NormalizeItem converts a raw project/service record into an Item.
func NormalizeItem(raw gjson.Result) (Item, error) {
	id := firstString(raw, itemIDKeys)
	if id == "" {
		return Item{}, &MissingIdentifierError{Kind: "item", Index: -1}
	}
	return Item{
		ID:               id,
		Title:            firstString(raw, itemTitleKeys),
		ShortDescription: firstString(raw, itemDescriptionKeys),
		CategoryID:       firstRef(raw, itemCategoryKeys),
		SubCategoryIDs:   refList(raw, itemSubCategoryKeys),
		Tags:             tagList(raw.Get("tags")),
	}, nil
}

// NormalizeItems normalises a batch of items with the same skip and
// de-duplication rules as the taxonomy batches.
func NormalizeItems(records []gjson.Result) ([]Item, BatchReport) {
	report := BatchReport{Received: len(records)}
	out := make([]Item, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, rec := range records {
		item, err := NormalizeItem(rec)
		if err != nil {
			report.Skipped = append(report.Skipped, withIndex(err, i))
			continue
		}
		if _, dup := seen[item.ID]; dup {
			report.Duplicates++
			continue
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}
	return out, report
}

func tagList(v gjson.Result) []string {
	if !v.IsArray() {
		if s := scalar(v); s != "" {
			return []string{s}
		}
		return nil
	}
	var out []string
	for _, el := range v.Array() {
		tag := scalar(el)
		if tag == "" && el.IsObject() {
			tag = firstString(el, taxonomyNameKeys)
		}
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
