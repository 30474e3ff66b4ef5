package filter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tayloree/agency-catalog/internal/catalog"
	"github.com/tayloree/agency-catalog/internal/filter"
)

func ids(items []catalog.Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func scenarioItems() []catalog.Item {
	return []catalog.Item{
		{ID: "i1", CategoryID: "c1", Title: "Shop App"},
		{ID: "i2", CategoryID: "c2", Title: "Migration"},
	}
}

func sampleItems() []catalog.Item {
	return []catalog.Item{
		{
			ID:               "1",
			Title:            "Shop App",
			ShortDescription: "Headless storefront on Next.js",
			CategoryID:       "web",
			SubCategoryIDs:   []string{"react", "ecommerce"},
			Tags:             []string{"Stripe"},
		},
		{
			ID:               "2",
			Title:            "Data Center Migration",
			ShortDescription: "Lift &amp; shift to AWS",
			CategoryID:       "cloud",
			SubCategoryIDs:   []string{"aws"},
		},
		{
			ID:               "3",
			Title:            "Design System",
			ShortDescription: "Tokens and components",
			CategoryID:       "design",
			SubCategoryIDs:   []string{"figma", "react"},
			Tags:             []string{"storybook"},
		},
		{
			ID:             "4",
			Title:          "Kubernetes Platform",
			CategoryID:     "cloud",
			SubCategoryIDs: []string{"k8s", "aws"},
			Tags:           []string{"terraform", "eks"},
		},
		{
			ID:    "5",
			Title: "Uncategorized Experiment",
		},
	}
}

func TestScenarioA_CategorySelection(t *testing.T) {
	var st filter.State
	st.SelectCategory("c1")

	assert.Equal(t, []string{"i1"}, ids(filter.Apply(scenarioItems(), &st)))
}

func TestScenarioB_SearchWithoutCategory(t *testing.T) {
	var st filter.State
	st.SetQuery("migra")

	assert.Equal(t, []string{"i2"}, ids(filter.Apply(scenarioItems(), &st)))
}

func TestScenarioC_MultiSelectCategories(t *testing.T) {
	var st filter.State
	st.ToggleCategoryMultiSelect()
	st.SelectCategory("c1")
	st.SelectCategory("c2")

	assert.Equal(t, []string{"c1", "c2"}, st.CategoryIDs())
	assert.Equal(t, []string{"i1", "i2"}, ids(filter.Apply(scenarioItems(), &st)))
}

func TestApply_EmptyStateIsIdentity(t *testing.T) {
	items := sampleItems()
	var st filter.State

	result := filter.Apply(items, &st)
	assert.Equal(t, items, result)
	assert.Equal(t, items, filter.Apply(items, nil))
}

func TestApply_SearchIsCaseInsensitive(t *testing.T) {
	var st filter.State
	st.SetQuery("SHOP")

	assert.Equal(t, []string{"1"}, ids(filter.Apply(sampleItems(), &st)))
}

func TestApply_SearchMatchesDescriptionAndTags(t *testing.T) {
	var st filter.State

	st.SetQuery("lift & shift")
	assert.Equal(t, []string{"2"}, ids(filter.Apply(sampleItems(), &st)))

	st.SetQuery("terraform")
	assert.Equal(t, []string{"4"}, ids(filter.Apply(sampleItems(), &st)))

	st.SetQuery("stor")
	assert.Equal(t, []string{"1", "3"}, ids(filter.Apply(sampleItems(), &st)))
}

func TestApply_SubCategoryAnyOverlap(t *testing.T) {
	var st filter.State
	st.SetSubCategoryMultiSelect(true)
	st.SelectSubCategory("react")

	assert.Equal(t, []string{"1", "3"}, ids(filter.Apply(sampleItems(), &st)))

	st.SelectSubCategory("k8s")
	assert.Equal(t, []string{"1", "3", "4"}, ids(filter.Apply(sampleItems(), &st)))
}

func TestApply_SubCategoryDoesNotRequireOwnership(t *testing.T) {
	// Item 3 is a design project tagged with the web "react" subcategory.
	var st filter.State
	st.SelectCategory("design")
	st.SelectSubCategory("react")

	assert.Equal(t, []string{"3"}, ids(filter.Apply(sampleItems(), &st)))
}

func TestApply_AndCompositionExcludesPartialMatches(t *testing.T) {
	// Each item satisfies exactly two of the three predicates.
	items := []catalog.Item{
		{ID: "no-search", Title: "Other", CategoryID: "cloud", SubCategoryIDs: []string{"aws"}},
		{ID: "no-category", Title: "Platform", CategoryID: "web", SubCategoryIDs: []string{"aws"}},
		{ID: "no-subcategory", Title: "Platform", CategoryID: "cloud", SubCategoryIDs: []string{"gcp"}},
		{ID: "all-three", Title: "Platform", CategoryID: "cloud", SubCategoryIDs: []string{"aws"}},
	}

	var st filter.State
	st.SelectCategory("cloud")
	st.SelectSubCategory("aws")
	st.SetQuery("platform")

	assert.Equal(t, []string{"all-three"}, ids(filter.Apply(items, &st)))
}

func TestApply_ItemWithoutCategoryNeverMatchesCategoryFilter(t *testing.T) {
	var st filter.State
	st.SelectCategory("")

	assert.Empty(t, filter.Apply(sampleItems(), &st))
}

func TestApply_UnknownIDsMatchNothing(t *testing.T) {
	var st filter.State
	st.SelectCategory("ghost")

	assert.Empty(t, filter.Apply(sampleItems(), &st))
}

func TestApply_PreservesInputOrder(t *testing.T) {
	items := sampleItems()
	items[0], items[3] = items[3], items[0]

	var st filter.State
	st.SetCategoryMultiSelect(true)
	st.SelectCategory("web")
	st.SelectCategory("cloud")

	assert.Equal(t, []string{"4", "2", "1"}, ids(filter.Apply(items, &st)))
}

func TestScope(t *testing.T) {
	tax := catalog.NewTaxonomy([]catalog.Category{{ID: "web"}, {ID: "cloud"}})
	tax.ReplaceAllSubCategories([]catalog.SubCategory{
		{ID: "react", CategoryID: "web"},
		{ID: "aws", CategoryID: "cloud"},
		{ID: "k8s", CategoryID: "cloud"},
	})

	var st filter.State
	assert.Len(t, filter.Scope(tax, &st), 3)

	st.SelectCategory("cloud")
	scope := filter.Scope(tax, &st)
	require.Len(t, scope, 2)
	assert.Equal(t, "aws", scope[0].ID)
	assert.Equal(t, "k8s", scope[1].ID)
}

func TestWindow(t *testing.T) {
	items := sampleItems()

	assert.Len(t, filter.Window(items, 2), 2)
	assert.Equal(t, "1", filter.Window(items, 2)[0].ID)
	assert.Len(t, filter.Window(items, 0), 5)
	assert.Len(t, filter.Window(items, -1), 5)
	assert.Len(t, filter.Window(items, 50), 5)
}

func TestFacets(t *testing.T) {
	counts := filter.Facets(sampleItems())

	assert.Equal(t, 2, counts.Categories["cloud"])
	assert.Equal(t, 1, counts.Categories["web"])
	assert.Equal(t, 2, counts.SubCategories["react"])
	assert.Equal(t, 2, counts.SubCategories["aws"])
	assert.Equal(t, 1, counts.Uncategorized)
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Hello &amp; World", "Hello & World"},
		{"Line1\r\nLine2", "Line1 Line2"},
		{"  spaces  ", "spaces"},
		{"O&#39;Reilly", "O'Reilly"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, filter.CleanText(tt.input), "CleanText(%q)", tt.input)
	}
}
