package catalog

// Taxonomy indexes categories and the subcategories loaded for them so far.
// Subcategories are loaded lazily per category and replaced wholesale on
// every load.
type Taxonomy struct {
	categories []Category
	byID       map[string]int
	subs       map[string][]SubCategory
}

// NewTaxonomy builds an index over the given categories, preserving order.
func NewTaxonomy(categories []Category) *Taxonomy {
	t := &Taxonomy{
		categories: make([]Category, 0, len(categories)),
		byID:       make(map[string]int, len(categories)),
		subs:       make(map[string][]SubCategory),
	}
	for _, c := range categories {
		if _, dup := t.byID[c.ID]; dup {
			continue
		}
		t.byID[c.ID] = len(t.categories)
		t.categories = append(t.categories, c)
	}
	return t
}

// Categories returns the categories in load order.
func (t *Taxonomy) Categories() []Category {
	if t == nil {
		return nil
	}
	return t.categories
}

// Category looks up a category by id.
func (t *Taxonomy) Category(id string) (Category, bool) {
	if t == nil {
		return Category{}, false
	}
	idx, ok := t.byID[id]
	if !ok {
		return Category{}, false
	}
	return t.categories[idx], true
}

// CategoryIDs returns every known category id in load order.
func (t *Taxonomy) CategoryIDs() []string {
	if t == nil {
		return nil
	}
	ids := make([]string, 0, len(t.categories))
	for _, c := range t.categories {
		ids = append(ids, c.ID)
	}
	return ids
}

// SetSubCategories replaces the subcategories of one category. Entries owned
// by another category are ignored.
func (t *Taxonomy) SetSubCategories(categoryID string, subs []SubCategory) {
	owned := make([]SubCategory, 0, len(subs))
	ids := make([]string, 0, len(subs))
	for _, s := range subs {
		if s.CategoryID != categoryID {
			continue
		}
		owned = append(owned, s)
		ids = append(ids, s.ID)
	}
	t.subs[categoryID] = owned
	if idx, ok := t.byID[categoryID]; ok {
		t.categories[idx].SubCategoryIDs = ids
	}
}

// ReplaceAllSubCategories installs a full subcategory listing, grouping it by
// owner. Every known category is reset, including those with no entries.
func (t *Taxonomy) ReplaceAllSubCategories(subs []SubCategory) {
	grouped := make(map[string][]SubCategory, len(t.categories))
	for _, s := range subs {
		grouped[s.CategoryID] = append(grouped[s.CategoryID], s)
	}
	for _, c := range t.categories {
		t.SetSubCategories(c.ID, grouped[c.ID])
	}
}

// SubCategoriesLoaded reports whether a load has completed for the category.
func (t *Taxonomy) SubCategoriesLoaded(categoryID string) bool {
	if t == nil {
		return false
	}
	_, ok := t.subs[categoryID]
	return ok
}

// SubCategoriesFor returns the union of subcategories for the given
// categories, in the order given. An empty list means every known category.
func (t *Taxonomy) SubCategoriesFor(categoryIDs []string) []SubCategory {
	if t == nil {
		return nil
	}
	if len(categoryIDs) == 0 {
		categoryIDs = t.CategoryIDs()
	}
	var out []SubCategory
	seen := make(map[string]struct{})
	for _, cid := range categoryIDs {
		for _, s := range t.subs[cid] {
			if _, dup := seen[s.ID]; dup {
				continue
			}
			seen[s.ID] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// SubCategory finds a loaded subcategory by id.
func (t *Taxonomy) SubCategory(id string) (SubCategory, bool) {
	if t == nil {
		return SubCategory{}, false
	}
	for _, c := range t.categories {
		for _, s := range t.subs[c.ID] {
			if s.ID == id {
				return s, true
			}
		}
	}
	return SubCategory{}, false
}
