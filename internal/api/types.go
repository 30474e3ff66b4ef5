package api

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// Provider is the catalog backend. Implementations return raw response
// payloads; callers unwrap and normalise them, and re-apply filters client
// side because servers may ignore query parameters.
type Provider interface {
	FetchCategories(ctx context.Context, q CategoryQuery) ([]byte, error)
	FetchSubCategories(ctx context.Context, q SubCategoryQuery) ([]byte, error)
	FetchItems(ctx context.Context, q ItemQuery) ([]byte, error)
}

// CategoryQuery parameterises a category listing.
type CategoryQuery struct {
	Limit      int
	ActiveOnly bool
	Fields     []string
	Sort       string
}

// Values encodes the query as URL parameters. Zero fields are omitted.
func (q CategoryQuery) Values() url.Values {
	v := url.Values{}
	setInt(v, "limit", q.Limit)
	if q.ActiveOnly {
		v.Set("isActive", "true")
	}
	if len(q.Fields) > 0 {
		v.Set("fields", strings.Join(q.Fields, ","))
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	return v
}

// SubCategoryQuery parameterises a subcategory listing. An empty CategoryID
// asks for every subcategory.
type SubCategoryQuery struct {
	CategoryID string
	Limit      int
	ActiveOnly bool
}

func (q SubCategoryQuery) Values() url.Values {
	v := url.Values{}
	if q.CategoryID != "" {
		v.Set("categoryId", q.CategoryID)
	}
	setInt(v, "limit", q.Limit)
	if q.ActiveOnly {
		v.Set("isActive", "true")
	}
	return v
}

// ItemQuery parameterises a project listing.
type ItemQuery struct {
	CategoryID    string
	SubCategoryID string
	Search        string
	Page          int
	Limit         int
}

func (q ItemQuery) Values() url.Values {
	v := url.Values{}
	if q.CategoryID != "" {
		v.Set("categoryId", q.CategoryID)
	}
	if q.SubCategoryID != "" {
		v.Set("subCategoryId", q.SubCategoryID)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	setInt(v, "page", q.Page)
	setInt(v, "limit", q.Limit)
	return v
}

func setInt(v url.Values, key string, n int) {
	if n > 0 {
		v.Set(key, strconv.Itoa(n))
	}
}
