package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tayloree/agency-catalog/internal/catalog"
)

func raws(p catalog.Page) []string {
	out := make([]string, 0, len(p.Records))
	for _, r := range p.Records {
		out = append(out, r.Raw)
	}
	return out
}

func TestUnwrap_BareArray(t *testing.T) {
	page := catalog.Unwrap([]byte(`[{"_id":"a"},{"_id":"b"},{"_id":"c"}]`))

	assert.Equal(t, catalog.ShapeArray, page.Shape)
	assert.Len(t, page.Records, 3)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 3, page.Limit)
}

func TestUnwrap_DataWithPagination(t *testing.T) {
	page := catalog.Unwrap([]byte(`{"data":[{"_id":"a"}],"pagination":{"total":42,"page":3,"limit":10}}`))

	assert.Equal(t, catalog.ShapeData, page.Shape)
	assert.Len(t, page.Records, 1)
	assert.Equal(t, 42, page.Total)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 10, page.Limit)
}

func TestUnwrap_DataWithMetaEnvelope(t *testing.T) {
	page := catalog.Unwrap([]byte(`{"message":"ok","data":[{"id":"a"},{"id":"b"}],"meta":{"page":2,"limit":2,"total":9,"total_pages":5}}`))

	assert.Equal(t, catalog.ShapeData, page.Shape)
	assert.Equal(t, 9, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.Limit)
}

func TestUnwrap_DataWithoutPaginationUsesDefaults(t *testing.T) {
	page := catalog.Unwrap([]byte(`{"data":[{"id":"a"},{"id":"b"}]}`))

	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 2, page.Limit)
}

func TestUnwrap_PartialPaginationFallsBack(t *testing.T) {
	page := catalog.Unwrap([]byte(`{"results":[{"id":"a"}],"pagination":{"total":"7"}}`))

	assert.Equal(t, catalog.ShapeResults, page.Shape)
	assert.Equal(t, 7, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 1, page.Limit)
}

func TestUnwrap_DataPreferredOverResults(t *testing.T) {
	page := catalog.Unwrap([]byte(`{"data":[{"id":"d"}],"results":[{"id":"r1"},{"id":"r2"}]}`))

	assert.Equal(t, catalog.ShapeData, page.Shape)
	assert.Equal(t, []string{`{"id":"d"}`}, raws(page))
}

func TestUnwrap_UnrecognizedShapes(t *testing.T) {
	inputs := []string{
		``,
		`null`,
		`42`,
		`"text"`,
		`{"data":{"id":"a"}}`,
		`{"message":"not found"}`,
		`{not json`,
	}
	for _, in := range inputs {
		page := catalog.Unwrap([]byte(in))
		assert.Equal(t, catalog.ShapeUnrecognized, page.Shape, "input %q", in)
		assert.Empty(t, page.Records, "input %q", in)
		assert.Equal(t, 0, page.Total, "input %q", in)
	}
}

func TestUnwrap_IdempotentThroughCanonical(t *testing.T) {
	payloads := map[string]string{
		"array":   `[{"_id":"a","name":"Web"},{"_id":"b","name":"Cloud"}]`,
		"data":    `{"data":[{"_id":"a"}],"pagination":{"total":20,"page":2,"limit":1}}`,
		"results": `{"results":[{"value":"x","label":"Design"}]}`,
		"empty":   `[]`,
	}
	for name, payload := range payloads {
		first := catalog.Unwrap([]byte(payload))
		second := catalog.Unwrap(first.Canonical())

		require.Equal(t, catalog.ShapeItems, second.Shape, name)
		assert.Equal(t, raws(first), raws(second), name)
		assert.Equal(t, first.Total, second.Total, name)
		assert.Equal(t, first.Page, second.Page, name)
		assert.Equal(t, first.Limit, second.Limit, name)

		third := catalog.Unwrap(second.Canonical())
		assert.Equal(t, raws(second), raws(third), name)
		assert.Equal(t, second.Total, third.Total, name)
	}
}

func TestShape_String(t *testing.T) {
	assert.Equal(t, "array", catalog.ShapeArray.String())
	assert.Equal(t, "data", catalog.ShapeData.String())
	assert.Equal(t, "results", catalog.ShapeResults.String())
	assert.Equal(t, "items", catalog.ShapeItems.String())
	assert.Equal(t, "unrecognized", catalog.ShapeUnrecognized.String())
}
