package catalog

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Shape identifies which envelope a payload arrived in.
type Shape int

const (
	ShapeUnrecognized Shape = iota
	ShapeArray
	ShapeData
	ShapeResults
	ShapeItems
)

func (s Shape) String() string {
	switch s {
	case ShapeArray:
		return "array"
	case ShapeData:
		return "data"
	case ShapeResults:
		return "results"
	case ShapeItems:
		return "items"
	default:
		return "unrecognized"
	}
}

// Page is the unwrapped form of any list payload.
type Page struct {
	Shape   Shape
	Records []gjson.Result
	Total   int
	Page    int
	Limit   int
}

// Unwrap extracts the record list and pagination from a payload that may be a
// bare array, {data: [...]}, {results: [...]} or the canonical
// {items, total, page, limit}. Unknown shapes and invalid JSON yield an empty
// page; Unwrap never fails.
func Unwrap(payload []byte) Page {
	if !gjson.ValidBytes(payload) {
		return Page{Shape: ShapeUnrecognized}
	}
	root := gjson.ParseBytes(payload)

	shape, list := detectShape(root)
	if shape == ShapeUnrecognized {
		return Page{Shape: ShapeUnrecognized}
	}

	records := list.Array()
	page := Page{
		Shape:   shape,
		Records: records,
		Total:   len(records),
		Page:    1,
		Limit:   len(records),
	}

	switch shape {
	case ShapeData, ShapeResults:
		meta := root.Get("pagination")
		if !meta.IsObject() {
			meta = root.Get("meta")
		}
		if meta.IsObject() {
			applyPagination(&page, meta)
		}
	case ShapeItems:
		applyPagination(&page, root)
	}
	return page
}

func detectShape(root gjson.Result) (Shape, gjson.Result) {
	if root.IsArray() {
		return ShapeArray, root
	}
	if !root.IsObject() {
		return ShapeUnrecognized, gjson.Result{}
	}
	if data := root.Get("data"); data.IsArray() {
		return ShapeData, data
	}
	if results := root.Get("results"); results.IsArray() {
		return ShapeResults, results
	}
	if items := root.Get("items"); items.IsArray() {
		return ShapeItems, items
	}
	return ShapeUnrecognized, gjson.Result{}
}

func applyPagination(page *Page, meta gjson.Result) {
	if v, ok := positiveInt(meta.Get("total")); ok {
		page.Total = v
	}
	if v, ok := positiveInt(meta.Get("page")); ok {
		page.Page = v
	}
	if v, ok := positiveInt(meta.Get("limit")); ok {
		page.Limit = v
	}
}

func positiveInt(v gjson.Result) (int, bool) {
	if v.Type != gjson.Number && v.Type != gjson.String {
		return 0, false
	}
	n := int(v.Int())
	if n < 0 {
		return 0, false
	}
	if n == 0 && v.Type == gjson.String && v.Str != "0" {
		return 0, false
	}
	return n, true
}

type canonicalPage struct {
	Items []json.RawMessage `json:"items"`
	Total int               `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// Canonical renders the page as {items, total, page, limit}. Unwrapping the
// result yields an equivalent page.
func (p Page) Canonical() []byte {
	out := canonicalPage{
		Items: make([]json.RawMessage, 0, len(p.Records)),
		Total: p.Total,
		Page:  p.Page,
		Limit: p.Limit,
	}
	for _, r := range p.Records {
		out.Items = append(out.Items, json.RawMessage(r.Raw))
	}
	data, err := json.Marshal(out)
	if err != nil {
		return []byte(`{"items":[],"total":0,"page":1,"limit":0}`)
	}
	return data
}
