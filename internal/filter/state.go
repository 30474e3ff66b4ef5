package filter

import "strings"

// AllCategories is the sentinel id that resets a facet to "everything".
const AllCategories = "all"

// State is the filter session owned by a single catalog view. The zero value is
// ready to use: nothing selected, single-select on both facets, empty query.
type State struct {
	categories    selection
	subCategories selection

	categoryMulti    bool
	subCategoryMulti bool

	query string
}

// selection is an insertion-ordered set of ids.
type selection struct {
	ids []string
}

func (s *selection) has(id string) bool {
	for _, v := range s.ids {
		if v == id {
			return true
		}
	}
	return false
}

func (s *selection) toggle(id string) {
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i:i], s.ids[i+1:]...)
			return
		}
	}
	s.ids = append(s.ids, id)
}

func (s *selection) remove(id string) bool {
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i:i], s.ids[i+1:]...)
			return true
		}
	}
	return false
}

// pick applies a single-select click: clicking the only selected id clears it,
// anything else replaces the selection.
func (s *selection) pick(id string) {
	if len(s.ids) == 1 && s.ids[0] == id {
		s.ids = nil
		return
	}
	s.ids = []string{id}
}

func (s *selection) keepLast() {
	if len(s.ids) > 1 {
		s.ids = []string{s.ids[len(s.ids)-1]}
	}
}

func (s *selection) clear() { s.ids = nil }

func (s *selection) snapshot() []string {
	if len(s.ids) == 0 {
		return nil
	}
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// SelectCategory applies a category click. "all" clears every selection; in
// multi-select mode the id is toggled; in single-select mode the id replaces
// the selection or, when it is already the selection, clears it. Any category
// click clears the subcategory selection.
func (s *State) SelectCategory(id string) {
	switch {
	case id == AllCategories:
		s.categories.clear()
	case s.categoryMulti:
		s.categories.toggle(id)
	default:
		s.categories.pick(id)
	}
	s.subCategories.clear()
}

// SelectSubCategory is SelectCategory for the subcategory facet. It never
// touches the category selection.
func (s *State) SelectSubCategory(id string) {
	switch {
	case id == AllCategories:
		s.subCategories.clear()
	case s.subCategoryMulti:
		s.subCategories.toggle(id)
	default:
		s.subCategories.pick(id)
	}
}

// ToggleCategoryMultiSelect flips the category selection mode. Entering
// multi-select keeps the selection as is. Leaving it trims the selection to
// the most recently selected category rather than leaving it unchanged, since
// single-select holds at most one id; the subcategory selection is untouched.
func (s *State) ToggleCategoryMultiSelect() {
	s.categoryMulti = !s.categoryMulti
	if !s.categoryMulti {
		s.categories.keepLast()
	}
}

// ToggleSubCategoryMultiSelect flips the subcategory selection mode. Leaving
// multi-select trims the selection to the most recent subcategory.
func (s *State) ToggleSubCategoryMultiSelect() {
	s.subCategoryMulti = !s.subCategoryMulti
	if !s.subCategoryMulti {
		s.subCategories.keepLast()
	}
}

// SetCategoryMultiSelect sets the category mode explicitly.
func (s *State) SetCategoryMultiSelect(on bool) {
	if s.categoryMulti != on {
		s.ToggleCategoryMultiSelect()
	}
}

// SetSubCategoryMultiSelect sets the subcategory mode explicitly.
func (s *State) SetSubCategoryMultiSelect(on bool) {
	if s.subCategoryMulti != on {
		s.ToggleSubCategoryMultiSelect()
	}
}

// RemoveCategory drops one category chip. It counts as a category action, so
// the subcategory selection is cleared.
func (s *State) RemoveCategory(id string) {
	s.categories.remove(id)
	s.subCategories.clear()
}

// RemoveSubCategory drops one subcategory chip.
func (s *State) RemoveSubCategory(id string) {
	s.subCategories.remove(id)
}

// SetQuery stores the free-text query, trimmed.
func (s *State) SetQuery(q string) {
	s.query = strings.TrimSpace(q)
}

// ClearAll resets both selections and the query. Modes are kept.
func (s *State) ClearAll() {
	s.categories.clear()
	s.subCategories.clear()
	s.query = ""
}

// Navigate initialises the state for a category route. An empty id means the
// unscoped catalog page.
func (s *State) Navigate(categoryID string) {
	s.ClearAll()
	if categoryID != "" && categoryID != AllCategories {
		s.categories.ids = []string{categoryID}
	}
}

// CategoryIDs returns the selected categories in selection order.
func (s *State) CategoryIDs() []string { return s.categories.snapshot() }

// SubCategoryIDs returns the selected subcategories in selection order.
func (s *State) SubCategoryIDs() []string { return s.subCategories.snapshot() }

// HasCategory reports whether the category is selected.
func (s *State) HasCategory(id string) bool { return s.categories.has(id) }

// HasSubCategory reports whether the subcategory is selected.
func (s *State) HasSubCategory(id string) bool { return s.subCategories.has(id) }

// CategoryMultiSelect reports the category selection mode.
func (s *State) CategoryMultiSelect() bool { return s.categoryMulti }

// SubCategoryMultiSelect reports the subcategory selection mode.
func (s *State) SubCategoryMultiSelect() bool { return s.subCategoryMulti }

// Query returns the trimmed search query.
func (s *State) Query() string { return s.query }

// Active reports whether any predicate is active.
func (s *State) Active() bool {
	return len(s.categories.ids) > 0 || len(s.subCategories.ids) > 0 || s.query != ""
}
