package display

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tayloree/agency-catalog/internal/browse"
	"github.com/tayloree/agency-catalog/internal/catalog"
	"github.com/tayloree/agency-catalog/internal/filter"
	"gopkg.in/yaml.v3"
)

// Styles for terminal output.
var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	chipStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	tagStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
	cyanStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// Format selects a structured output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, json or yaml)", s)
	}
}

// Encode writes v as JSON or YAML.
func Encode(w io.Writer, f Format, v any) error {
	switch f {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case FormatJSON:
		return json.NewEncoder(w).Encode(v)
	default:
		return fmt.Errorf("format %q is not a structured encoding", f)
	}
}

// ItemJSON is the structured output shape for a project.
type ItemJSON struct {
	ID             string   `json:"id" yaml:"id"`
	Title          string   `json:"title" yaml:"title"`
	Description    string   `json:"shortDescription" yaml:"shortDescription"`
	CategoryID     string   `json:"categoryId" yaml:"categoryId"`
	Category       string   `json:"category" yaml:"category"`
	SubCategoryIDs []string `json:"subCategoryIds" yaml:"subCategoryIds"`
	Tags           []string `json:"tags" yaml:"tags"`
}

// FiltersJSON describes the active filters of a listing.
type FiltersJSON struct {
	Categories             []string `json:"categories" yaml:"categories"`
	SubCategories          []string `json:"subCategories" yaml:"subCategories"`
	Query                  string   `json:"query" yaml:"query"`
	CategoryMultiSelect    bool     `json:"categoryMultiSelect" yaml:"categoryMultiSelect"`
	SubCategoryMultiSelect bool     `json:"subCategoryMultiSelect" yaml:"subCategoryMultiSelect"`
}

// ListingJSON is the structured output shape for a filtered listing.
type ListingJSON struct {
	Total   int         `json:"total" yaml:"total"`
	Shown   int         `json:"shown" yaml:"shown"`
	Filters FiltersJSON `json:"filters" yaml:"filters"`
	Items   []ItemJSON  `json:"items" yaml:"items"`
}

// Listing converts a view into its structured output shape.
func Listing(v browse.View, tax *catalog.Taxonomy) ListingJSON {
	items := make([]ItemJSON, 0, len(v.VisibleItems))
	for _, item := range v.VisibleItems {
		items = append(items, toItemJSON(item, tax))
	}
	return ListingJSON{
		Total: v.Total,
		Shown: len(v.VisibleItems),
		Filters: FiltersJSON{
			Categories:             nonNil(v.ActiveCategoryIDs),
			SubCategories:          nonNil(v.ActiveSubCategoryIDs),
			Query:                  v.ActiveQuery,
			CategoryMultiSelect:    v.CategoryMultiSelect,
			SubCategoryMultiSelect: v.SubCategoryMultiSelect,
		},
		Items: items,
	}
}

// PrintItemsJSON renders a listing as JSON.
func PrintItemsJSON(w io.Writer, v browse.View, tax *catalog.Taxonomy) error {
	return Encode(w, FormatJSON, Listing(v, tax))
}

// PrintItemsYAML renders a listing as YAML.
func PrintItemsYAML(w io.Writer, v browse.View, tax *catalog.Taxonomy) error {
	return Encode(w, FormatYAML, Listing(v, tax))
}

// PrintItems renders a listing with its active filter chips.
func PrintItems(w io.Writer, v browse.View, tax *catalog.Taxonomy) {
	count := fmt.Sprintf("%d projects", v.Total)
	if len(v.VisibleItems) < v.Total {
		count = fmt.Sprintf("%d of %d projects", len(v.VisibleItems), v.Total)
	}
	fmt.Fprintf(w, "\n%s — %s\n", headerStyle.Render("Agency Catalog"), cyanStyle.Render(count))
	PrintActiveFilters(w, v, tax)
	fmt.Fprintln(w)

	if len(v.VisibleItems) == 0 {
		fmt.Fprintf(w, "  %s\n\n", dimStyle.Render("No projects match the current filters."))
		return
	}
	for _, item := range v.VisibleItems {
		printItem(w, item, tax)
		fmt.Fprintln(w)
	}
}

// Chip is one removable active-filter marker.
type Chip struct {
	Kind  string
	ID    string
	Label string
}

const (
	ChipCategory    = "category"
	ChipSubCategory = "subcategory"
	ChipQuery       = "query"
)

// Chips lists the active filters in display order: categories, then
// subcategories, then the query.
func Chips(v browse.View, tax *catalog.Taxonomy) []Chip {
	var chips []Chip
	for _, id := range v.ActiveCategoryIDs {
		chips = append(chips, Chip{Kind: ChipCategory, ID: id, Label: CategoryName(tax, id)})
	}
	for _, id := range v.ActiveSubCategoryIDs {
		chips = append(chips, Chip{Kind: ChipSubCategory, ID: id, Label: SubCategoryName(tax, id)})
	}
	if v.ActiveQuery != "" {
		chips = append(chips, Chip{Kind: ChipQuery, ID: v.ActiveQuery, Label: fmt.Sprintf("%q", v.ActiveQuery)})
	}
	return chips
}

// RenderChips renders chips on one line.
func RenderChips(chips []Chip) string {
	parts := make([]string, 0, len(chips))
	for _, c := range chips {
		parts = append(parts, chipStyle.Render("["+c.Label+" ×]"))
	}
	return strings.Join(parts, " ")
}

// PrintActiveFilters prints the chip line, or nothing when no filter is active.
func PrintActiveFilters(w io.Writer, v browse.View, tax *catalog.Taxonomy) {
	chips := Chips(v, tax)
	if len(chips) == 0 {
		return
	}
	fmt.Fprintf(w, "%s %s\n", dimStyle.Render("Filters:"), RenderChips(chips))
}

// CategoryName returns the category's display name, or the id when unknown.
func CategoryName(tax *catalog.Taxonomy, id string) string {
	if c, ok := tax.Category(id); ok && c.Name != "" {
		return c.Name
	}
	return id
}

// SubCategoryName returns the subcategory's display name, or the id when it
// is not loaded.
func SubCategoryName(tax *catalog.Taxonomy, id string) string {
	if s, ok := tax.SubCategory(id); ok && s.Name != "" {
		return s.Name
	}
	return id
}

// CategoryJSON is the structured output shape for the category tree.
type CategoryJSON struct {
	ID            string            `json:"id" yaml:"id"`
	Name          string            `json:"name" yaml:"name"`
	Slug          string            `json:"slug,omitempty" yaml:"slug,omitempty"`
	Count         int               `json:"count" yaml:"count"`
	SubCategories []SubCategoryJSON `json:"subCategories" yaml:"subCategories"`
}

// SubCategoryJSON is the structured output shape for a subcategory.
type SubCategoryJSON struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	CategoryID string `json:"categoryId" yaml:"categoryId"`
	Count      int    `json:"count" yaml:"count"`
}

// Tree converts the taxonomy into its structured output shape with counts.
func Tree(tax *catalog.Taxonomy, counts filter.FacetCounts) []CategoryJSON {
	cats := tax.Categories()
	out := make([]CategoryJSON, 0, len(cats))
	for _, c := range cats {
		out = append(out, CategoryJSON{
			ID:            c.ID,
			Name:          c.Name,
			Slug:          c.Slug,
			Count:         counts.Categories[c.ID],
			SubCategories: SubCategoryList(tax.SubCategoriesFor([]string{c.ID}), counts),
		})
	}
	return out
}

// SubCategoryList converts subcategories into their output shape with counts.
func SubCategoryList(subs []catalog.SubCategory, counts filter.FacetCounts) []SubCategoryJSON {
	out := make([]SubCategoryJSON, 0, len(subs))
	for _, s := range subs {
		out = append(out, SubCategoryJSON{ID: s.ID, Name: s.Name, CategoryID: s.CategoryID, Count: counts.SubCategories[s.ID]})
	}
	return out
}

// PrintCategories renders the category tree with project counts.
func PrintCategories(w io.Writer, tax *catalog.Taxonomy, counts filter.FacetCounts) {
	fmt.Fprintf(w, "\n%s\n\n", titleStyle.Render("Categories:"))
	for _, c := range Tree(tax, counts) {
		label := c.Name
		if label == "" {
			label = c.ID
		}
		fmt.Fprintf(w, "  %s %s\n", cyanStyle.Render(label), dimStyle.Render(fmt.Sprintf("(%d) %s", c.Count, categoryRef(c))))
		for _, s := range c.SubCategories {
			fmt.Fprintf(w, "    - %s %s\n", s.Name, dimStyle.Render(fmt.Sprintf("(%d)", s.Count)))
		}
	}
	if counts.Uncategorized > 0 {
		fmt.Fprintf(w, "  %s\n", dimStyle.Render(fmt.Sprintf("%d projects without a category", counts.Uncategorized)))
	}
	fmt.Fprintln(w)
}

func categoryRef(c CategoryJSON) string {
	if c.Slug != "" {
		return c.Slug
	}
	return c.ID
}

// PrintSubCategories renders a scope listing.
func PrintSubCategories(w io.Writer, tax *catalog.Taxonomy, subs []catalog.SubCategory, counts filter.FacetCounts) {
	fmt.Fprintf(w, "\n%s\n\n", titleStyle.Render("Subcategories:"))
	if len(subs) == 0 {
		fmt.Fprintf(w, "  %s\n\n", dimStyle.Render("None in scope."))
		return
	}
	for _, s := range subs {
		fmt.Fprintf(w, "  %s %s\n", cyanStyle.Render(s.Name),
			dimStyle.Render(fmt.Sprintf("(%d) %s · %s", counts.SubCategories[s.ID], s.ID, CategoryName(tax, s.CategoryID))))
	}
	fmt.Fprintln(w)
}

// FacetJSON is one row of the facet table.
type FacetJSON struct {
	Kind  string `json:"kind" yaml:"kind"`
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

// FacetRows flattens facet counts into rows, categories first, each group
// sorted by count descending then name.
func FacetRows(tax *catalog.Taxonomy, counts filter.FacetCounts) []FacetJSON {
	var cats, subs []FacetJSON
	for id, n := range counts.Categories {
		cats = append(cats, FacetJSON{Kind: ChipCategory, ID: id, Name: CategoryName(tax, id), Count: n})
	}
	for id, n := range counts.SubCategories {
		subs = append(subs, FacetJSON{Kind: ChipSubCategory, ID: id, Name: SubCategoryName(tax, id), Count: n})
	}
	sortRows(cats)
	sortRows(subs)
	return append(cats, subs...)
}

func sortRows(rows []FacetJSON) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Name < rows[j].Name
	})
}

// PrintFacets renders facet counts as a table.
func PrintFacets(w io.Writer, tax *catalog.Taxonomy, counts filter.FacetCounts, total int) {
	fmt.Fprintf(w, "\n%s %s\n\n", titleStyle.Render("Facets"), dimStyle.Render(fmt.Sprintf("over %d projects", total)))
	kind := ""
	for _, row := range FacetRows(tax, counts) {
		if row.Kind != kind {
			kind = row.Kind
			fmt.Fprintf(w, "  %s\n", headerStyle.Render(kind))
		}
		fmt.Fprintf(w, "    %-32s %5d\n", row.Name, row.Count)
	}
	if counts.Uncategorized > 0 {
		fmt.Fprintf(w, "    %-32s %5d\n", dimStyle.Render("(no category)"), counts.Uncategorized)
	}
	fmt.Fprintln(w)
}

// PrintError prints a styled error message.
func PrintError(w io.Writer, msg string) {
	fmt.Fprintln(w, errorStyle.Render(msg))
}

// PrintWarning prints a styled warning message.
func PrintWarning(w io.Writer, msg string) {
	fmt.Fprintln(w, warningStyle.Render(msg))
}

func printItem(w io.Writer, item catalog.Item, tax *catalog.Taxonomy) {
	title := filter.CleanText(item.Title)
	if title == "" {
		title = "Untitled project"
	}
	fmt.Fprintf(w, "  %s\n", titleStyle.Render(title))

	if desc := filter.CleanText(item.ShortDescription); desc != "" {
		fmt.Fprintf(w, "    %s\n", dimStyle.Render(wordWrap(desc, 72, "    ")))
	}

	var meta []string
	if item.CategoryID != "" {
		meta = append(meta, CategoryName(tax, item.CategoryID))
	}
	for _, id := range item.SubCategoryIDs {
		meta = append(meta, SubCategoryName(tax, id))
	}
	if len(meta) > 0 {
		fmt.Fprintf(w, "    %s\n", cyanStyle.Render(strings.Join(meta, " · ")))
	}

	if len(item.Tags) > 0 {
		tags := make([]string, 0, len(item.Tags))
		for _, t := range item.Tags {
			tags = append(tags, "#"+filter.CleanText(t))
		}
		fmt.Fprintf(w, "    %s\n", tagStyle.Render(strings.Join(tags, " ")))
	}
}

func toItemJSON(item catalog.Item, tax *catalog.Taxonomy) ItemJSON {
	category := ""
	if item.CategoryID != "" {
		category = CategoryName(tax, item.CategoryID)
	}
	tags := make([]string, 0, len(item.Tags))
	for _, t := range item.Tags {
		tags = append(tags, filter.CleanText(t))
	}
	return ItemJSON{
		ID:             item.ID,
		Title:          filter.CleanText(item.Title),
		Description:    filter.CleanText(item.ShortDescription),
		CategoryID:     item.CategoryID,
		Category:       category,
		SubCategoryIDs: nonNil(item.SubCategoryIDs),
		Tags:           tags,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func wordWrap(text string, width int, indent string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = w
		} else {
			line += " " + w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n"+indent)
}
