package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tayloree/agency-catalog/internal/api"
)

func newTestClient(baseURL string, retries int) *api.Client {
	return api.NewClient(api.Options{
		BaseURL:      baseURL,
		Timeout:      5 * time.Second,
		Retries:      retries,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 5 * time.Millisecond,
	})
}

func TestFetchCategories_SendsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/categories", r.URL.Path)
		assert.Equal(t, "500", r.URL.Query().Get("limit"))
		assert.Equal(t, "true", r.URL.Query().Get("isActive"))
		assert.Equal(t, "name,slug", r.URL.Query().Get("fields"))
		assert.Equal(t, "order", r.URL.Query().Get("sort"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"_id":"c1","name":"Web"}]}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL+"/api/v1/", 0)
	body, err := client.FetchCategories(context.Background(), api.CategoryQuery{
		Limit:      500,
		ActiveOnly: true,
		Fields:     []string{"name", "slug"},
		Sort:       "order",
	})

	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[{"_id":"c1","name":"Web"}]}`, string(body))
	assert.Equal(t, srv.URL+"/api/v1", client.BaseURL())
}

func TestFetchSubCategories_ScopedAndUnscoped(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/subcategories", r.URL.Path)
		seen = append(seen, r.URL.Query().Get("categoryId"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 0)
	_, err := client.FetchSubCategories(context.Background(), api.SubCategoryQuery{CategoryID: "c1", Limit: 100})
	require.NoError(t, err)
	_, err = client.FetchSubCategories(context.Background(), api.SubCategoryQuery{})
	require.NoError(t, err)

	assert.Equal(t, []string{"c1", ""}, seen)
}

func TestFetchItems_SendsFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/projects", r.URL.Path)
		assert.Equal(t, "web", q.Get("categoryId"))
		assert.Equal(t, "react", q.Get("subCategoryId"))
		assert.Equal(t, "shop", q.Get("search"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "50", q.Get("limit"))
		_, _ = w.Write([]byte(`{"items":[],"total":0,"page":2,"limit":50}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 0)
	_, err := client.FetchItems(context.Background(), api.ItemQuery{
		CategoryID:    "web",
		SubCategoryID: "react",
		Search:        "  shop ",
		Page:          2,
		Limit:         50,
	})
	require.NoError(t, err)
}

func TestQueryValues_OmitZeroFields(t *testing.T) {
	assert.Empty(t, api.CategoryQuery{}.Values())
	assert.Empty(t, api.SubCategoryQuery{}.Values())
	assert.Empty(t, api.ItemQuery{Search: "   "}.Values())
}

func TestFetch_NonSuccessStatusIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 0)
	_, err := client.FetchCategories(context.Background(), api.CategoryQuery{})

	require.Error(t, err)
	var te *api.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusNotFound, te.StatusCode)
	assert.Equal(t, "fetching categories", te.Op)
	assert.Contains(t, err.Error(), "unexpected status 404")
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"id":"c1"}]`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 2)
	body, err := client.FetchCategories(context.Background(), api.CategoryQuery{})

	require.NoError(t, err)
	assert.Equal(t, `[{"id":"c1"}]`, string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetch_RetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 1)
	_, err := client.FetchItems(context.Background(), api.ItemQuery{})

	var te *api.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusServiceUnavailable, te.StatusCode)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetch_ConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := newTestClient(url, 0)
	_, err := client.FetchSubCategories(context.Background(), api.SubCategoryQuery{CategoryID: "c1"})

	var te *api.TransportError
	require.ErrorAs(t, err, &te)
	assert.Zero(t, te.StatusCode)
	assert.NotNil(t, errors.Unwrap(te))
}

func TestFetch_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient(srv.URL, 2)
	_, err := client.FetchCategories(ctx, api.CategoryQuery{})

	assert.ErrorIs(t, err, context.Canceled)
}
