package catalog

// Category is a top-level service category (e.g. "Web Development").
type Category struct {
	ID             string   `json:"id" yaml:"id"`
	Name           string   `json:"name" yaml:"name"`
	Slug           string   `json:"slug,omitempty" yaml:"slug,omitempty"`
	SubCategoryIDs []string `json:"subCategoryIds" yaml:"subCategoryIds"`
}

// SubCategory belongs to exactly one Category.
type SubCategory struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	CategoryID string `json:"categoryId" yaml:"categoryId"`
}

// Item is a project or service shown in the public catalog.
type Item struct {
	ID               string   `json:"id" yaml:"id"`
	Title            string   `json:"title" yaml:"title"`
	ShortDescription string   `json:"shortDescription" yaml:"shortDescription"`
	CategoryID       string   `json:"categoryId,omitempty" yaml:"categoryId,omitempty"`
	SubCategoryIDs   []string `json:"subCategoryIds" yaml:"subCategoryIds"`
	Tags             []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}
