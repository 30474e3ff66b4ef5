package filter_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tayloree/agency-catalog/internal/filter"
)

func TestSelectCategory_SingleReplaces(t *testing.T) {
	var st filter.State
	st.SelectCategory("c1")
	st.SelectCategory("c2")

	assert.Equal(t, []string{"c2"}, st.CategoryIDs())
}

func TestSelectCategory_ReclickDeselectsInSingleMode(t *testing.T) {
	var st filter.State
	st.SelectCategory("A")
	st.SelectCategory("A")

	assert.Empty(t, st.CategoryIDs())
}

func TestSelectCategory_MultiToggles(t *testing.T) {
	var st filter.State
	st.ToggleCategoryMultiSelect()
	st.SelectCategory("c1")
	st.SelectCategory("c2")
	assert.Equal(t, []string{"c1", "c2"}, st.CategoryIDs())

	st.SelectCategory("c1")
	assert.Equal(t, []string{"c2"}, st.CategoryIDs())
}

func TestSelectCategory_AllClearsBoth(t *testing.T) {
	var st filter.State
	st.SelectCategory("c1")
	st.SelectSubCategory("s1")

	st.SelectCategory(filter.AllCategories)

	assert.Empty(t, st.CategoryIDs())
	assert.Empty(t, st.SubCategoryIDs())
}

func TestSelectCategory_ClearsSubCategoriesInEveryMode(t *testing.T) {
	for _, multi := range []bool{false, true} {
		var st filter.State
		st.SetCategoryMultiSelect(multi)
		st.SetSubCategoryMultiSelect(true)
		st.SelectCategory("c1")
		st.SelectSubCategory("s1")
		st.SelectSubCategory("s2")
		assert.Len(t, st.SubCategoryIDs(), 2)

		st.SelectCategory("c2")
		assert.Empty(t, st.SubCategoryIDs(), "multi=%v", multi)

		st.SelectSubCategory("s3")
		st.SelectCategory("c2")
		assert.Empty(t, st.SubCategoryIDs(), "multi=%v deselect", multi)
	}
}

func TestSelectCategory_RandomSequencesResetSubCategories(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	ids := []string{"c1", "c2", "c3", filter.AllCategories, "ghost"}

	for caseNum := 0; caseNum < 200; caseNum++ {
		var st filter.State
		st.SetCategoryMultiSelect(rng.Intn(2) == 0)
		st.SelectSubCategory("s1")

		st.SelectCategory(ids[rng.Intn(len(ids))])
		assert.Empty(t, st.SubCategoryIDs(), "case %d", caseNum)
	}
}

func TestSelectCategory_SingleModeCardinality(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	ids := []string{"c1", "c2", "c3", filter.AllCategories}

	var st filter.State
	for range 500 {
		st.SelectCategory(ids[rng.Intn(len(ids))])
		assert.LessOrEqual(t, len(st.CategoryIDs()), 1)
	}
}

func TestSelectSubCategory_DoesNotTouchCategories(t *testing.T) {
	var st filter.State
	st.SelectCategory("c1")
	st.SelectSubCategory("s1")
	st.SelectSubCategory("s2")

	assert.Equal(t, []string{"c1"}, st.CategoryIDs())
	assert.Equal(t, []string{"s2"}, st.SubCategoryIDs())

	st.SelectSubCategory("s2")
	assert.Empty(t, st.SubCategoryIDs())
	assert.Equal(t, []string{"c1"}, st.CategoryIDs())
}

func TestSelectSubCategory_MultiAndAll(t *testing.T) {
	var st filter.State
	st.ToggleSubCategoryMultiSelect()
	st.SelectSubCategory("s1")
	st.SelectSubCategory("s2")
	assert.Equal(t, []string{"s1", "s2"}, st.SubCategoryIDs())

	st.SelectSubCategory(filter.AllCategories)
	assert.Empty(t, st.SubCategoryIDs())
}

func TestToggleMultiSelect_KeepsExistingSelection(t *testing.T) {
	var st filter.State
	st.SelectCategory("c1")
	st.SelectSubCategory("s1")

	st.ToggleCategoryMultiSelect()
	assert.True(t, st.CategoryMultiSelect())
	assert.Equal(t, []string{"c1"}, st.CategoryIDs())
	assert.Equal(t, []string{"s1"}, st.SubCategoryIDs())

	st.SelectCategory("c2")
	assert.Equal(t, []string{"c1", "c2"}, st.CategoryIDs())
	assert.Empty(t, st.SubCategoryIDs())
}

func TestToggleMultiSelect_BackToSingleKeepsMostRecent(t *testing.T) {
	var st filter.State
	st.ToggleCategoryMultiSelect()
	st.SelectCategory("c1")
	st.SelectCategory("c2")
	st.SelectCategory("c3")

	st.ToggleCategoryMultiSelect()

	assert.False(t, st.CategoryMultiSelect())
	assert.Equal(t, []string{"c3"}, st.CategoryIDs())
}

func TestToggleSubCategoryMultiSelect_TrimsOnlySubCategories(t *testing.T) {
	var st filter.State
	st.SelectCategory("c1")
	st.ToggleSubCategoryMultiSelect()
	st.SelectSubCategory("s1")
	st.SelectSubCategory("s2")

	st.ToggleSubCategoryMultiSelect()

	assert.False(t, st.SubCategoryMultiSelect())
	assert.Equal(t, []string{"s2"}, st.SubCategoryIDs())
	assert.Equal(t, []string{"c1"}, st.CategoryIDs())
}

func TestRemoveCategory_ClearsSubCategories(t *testing.T) {
	var st filter.State
	st.SetCategoryMultiSelect(true)
	st.SelectCategory("c1")
	st.SelectCategory("c2")
	st.SelectSubCategory("s1")

	st.RemoveCategory("c1")

	assert.Equal(t, []string{"c2"}, st.CategoryIDs())
	assert.Empty(t, st.SubCategoryIDs())
}

func TestRemoveSubCategory(t *testing.T) {
	var st filter.State
	st.SetSubCategoryMultiSelect(true)
	st.SelectSubCategory("s1")
	st.SelectSubCategory("s2")

	st.RemoveSubCategory("s1")
	st.RemoveSubCategory("missing")

	assert.Equal(t, []string{"s2"}, st.SubCategoryIDs())
}

func TestSetQuery_Trims(t *testing.T) {
	var st filter.State
	st.SetQuery("   cloud  ")
	assert.Equal(t, "cloud", st.Query())
	assert.True(t, st.Active())

	st.SetQuery("   ")
	assert.False(t, st.Active())
}

func TestClearAll_KeepsModes(t *testing.T) {
	var st filter.State
	st.SetCategoryMultiSelect(true)
	st.SelectCategory("c1")
	st.SelectSubCategory("s1")
	st.SetQuery("shop")

	st.ClearAll()

	assert.Empty(t, st.CategoryIDs())
	assert.Empty(t, st.SubCategoryIDs())
	assert.Empty(t, st.Query())
	assert.True(t, st.CategoryMultiSelect())
}

func TestNavigate(t *testing.T) {
	var st filter.State
	st.SelectSubCategory("s1")
	st.SetQuery("old")

	st.Navigate("c7")
	assert.Equal(t, []string{"c7"}, st.CategoryIDs())
	assert.Empty(t, st.SubCategoryIDs())
	assert.Empty(t, st.Query())

	st.Navigate("")
	assert.Empty(t, st.CategoryIDs())
}

func TestSnapshotsAreCopies(t *testing.T) {
	var st filter.State
	st.SelectCategory("c1")

	ids := st.CategoryIDs()
	ids[0] = "mutated"

	assert.True(t, st.HasCategory("c1"))
	assert.False(t, st.HasCategory("mutated"))
}

func TestUnknownIDsAreAccepted(t *testing.T) {
	var st filter.State
	st.SelectCategory("does-not-exist")
	st.SelectSubCategory("nope")

	assert.True(t, st.HasCategory("does-not-exist"))
	assert.True(t, st.HasSubCategory("nope"))
}
