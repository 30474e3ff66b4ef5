package cache_test

import (
	"context"
	"errors"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tayloree/agency-catalog/internal/api"
	"github.com/tayloree/agency-catalog/internal/cache"
)

type countingProvider struct {
	calls map[string]int
	err   error
}

func newCountingProvider() *countingProvider {
	return &countingProvider{calls: make(map[string]int)}
}

func (c *countingProvider) reply(op string) ([]byte, error) {
	c.calls[op]++
	if c.err != nil {
		return nil, c.err
	}
	return []byte(`{"data":[{"_id":"` + op + `"}]}`), nil
}

func (c *countingProvider) FetchCategories(ctx context.Context, q api.CategoryQuery) ([]byte, error) {
	return c.reply("categories")
}

func (c *countingProvider) FetchSubCategories(ctx context.Context, q api.SubCategoryQuery) ([]byte, error) {
	return c.reply("subcategories:" + q.CategoryID)
}

func (c *countingProvider) FetchItems(ctx context.Context, q api.ItemQuery) ([]byte, error) {
	return c.reply("projects")
}

func openStore(t *testing.T) *cache.Store {
	t.Helper()
	store, err := cache.Open(filepath.Join(t.TempDir(), "nested", "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestStore_PutGetInvalidate(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	_, _, ok, err := store.Get(ctx, "categories")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, "categories", []byte(`[1]`), at))
	require.NoError(t, store.Put(ctx, "categories", []byte(`[2]`), at.Add(time.Second)))

	body, fetchedAt, ok, err := store.Get(ctx, "categories")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[2]`, string(body))
	assert.True(t, fetchedAt.Equal(at.Add(time.Second)))

	n, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	removed, err := store.Invalidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	n, err = store.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProvider_ServesFreshEntriesFromCache(t *testing.T) {
	ctx := context.Background()
	upstream := newCountingProvider()
	clk := &clock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	p := cache.NewProvider(upstream, "http://a.test", openStore(t), time.Minute, nil).WithClock(clk.now)

	first, err := p.FetchCategories(ctx, api.CategoryQuery{Limit: 500})
	require.NoError(t, err)
	second, err := p.FetchCategories(ctx, api.CategoryQuery{Limit: 500})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, upstream.calls["categories"])

	// A different query is a different key.
	_, err = p.FetchCategories(ctx, api.CategoryQuery{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, upstream.calls["categories"])
}

func TestProvider_ExpiredEntriesRefetch(t *testing.T) {
	ctx := context.Background()
	upstream := newCountingProvider()
	clk := &clock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	p := cache.NewProvider(upstream, "http://a.test", openStore(t), time.Minute, nil).WithClock(clk.now)

	_, err := p.FetchSubCategories(ctx, api.SubCategoryQuery{CategoryID: "c1"})
	require.NoError(t, err)

	clk.t = clk.t.Add(2 * time.Minute)
	_, err = p.FetchSubCategories(ctx, api.SubCategoryQuery{CategoryID: "c1"})
	require.NoError(t, err)

	assert.Equal(t, 2, upstream.calls["subcategories:c1"])
}

func TestProvider_UpstreamErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	upstream := newCountingProvider()
	upstream.err = &api.TransportError{Op: "fetching projects", StatusCode: 502}
	p := cache.NewProvider(upstream, "http://a.test", openStore(t), 0, nil)

	_, err := p.FetchItems(ctx, api.ItemQuery{})
	var te *api.TransportError
	require.True(t, errors.As(err, &te))

	upstream.err = nil
	body, err := p.FetchItems(ctx, api.ItemQuery{})
	require.NoError(t, err)
	assert.Contains(t, string(body), "projects")
	assert.Equal(t, 2, upstream.calls["projects"])
}

func TestProvider_Invalidate(t *testing.T) {
	ctx := context.Background()
	upstream := newCountingProvider()
	p := cache.NewProvider(upstream, "http://a.test", openStore(t), time.Hour, nil)

	_, err := p.FetchItems(ctx, api.ItemQuery{Limit: 500})
	require.NoError(t, err)

	removed, err := p.Invalidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = p.FetchItems(ctx, api.ItemQuery{Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 2, upstream.calls["projects"])
}

func TestProvider_ClosedStoreFallsThrough(t *testing.T) {
	ctx := context.Background()
	upstream := newCountingProvider()
	store := openStore(t)
	p := cache.NewProvider(upstream, "http://a.test", store, time.Hour, nil)
	require.NoError(t, store.Close())

	body, err := p.FetchCategories(ctx, api.CategoryQuery{})
	require.NoError(t, err)
	assert.NotEmpty(t, body)
	assert.Equal(t, 1, upstream.calls["categories"])
}

func TestKey_SortsParameters(t *testing.T) {
	a := cache.Key("", "projects", url.Values{"page": {"1"}, "limit": {"50"}})
	b := cache.Key("", "projects", url.Values{"limit": {"50"}, "page": {"1"}})

	assert.Equal(t, a, b)
	assert.Equal(t, "projects?limit=50&page=1", a)
	assert.Equal(t, "categories", cache.Key("", "categories", nil))
	assert.Equal(t, "http://a.test categories", cache.Key("http://a.test", "categories", nil))
}

func TestProvider_NamespacesShareStore(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	upstreamA := newCountingProvider()
	upstreamB := newCountingProvider()
	a := cache.NewProvider(upstreamA, "http://a.test", store, time.Hour, nil)
	b := cache.NewProvider(upstreamB, "http://b.test", store, time.Hour, nil)

	_, err := a.FetchCategories(ctx, api.CategoryQuery{})
	require.NoError(t, err)
	_, err = b.FetchCategories(ctx, api.CategoryQuery{})
	require.NoError(t, err)
	_, err = a.FetchCategories(ctx, api.CategoryQuery{})
	require.NoError(t, err)

	assert.Equal(t, 1, upstreamA.calls["categories"])
	assert.Equal(t, 1, upstreamB.calls["categories"])

	n, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
