package cache

import (
	"context"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tayloree/agency-catalog/internal/api"
	"github.com/tayloree/agency-catalog/internal/logging"
)

// DefaultTTL is how long a cached payload is served before refetching.
const DefaultTTL = 5 * time.Minute

// Provider serves payloads from a Store and falls through to the upstream
// provider on a miss, an expired entry, or a cache failure. Upstream errors
// are never cached. Keys are prefixed with the namespace so that several
// backends can share one store.
type Provider struct {
	upstream  api.Provider
	namespace string
	store    *Store
	ttl      time.Duration
	log      logrus.FieldLogger
	now      func() time.Time
}

var _ api.Provider = (*Provider)(nil)

// NewProvider decorates upstream with store. namespace identifies the
// backend (usually its base URL). A non-positive ttl uses DefaultTTL.
func NewProvider(upstream api.Provider, namespace string, store *Store, ttl time.Duration, log logrus.FieldLogger) *Provider {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Provider{
		upstream:  upstream,
		namespace: namespace,
		store:     store,
		ttl:       ttl,
		log:       log,
		now:       time.Now,
	}
}

// WithClock replaces the time source.
func (p *Provider) WithClock(now func() time.Time) *Provider {
	p.now = now
	return p
}

// Invalidate drops every cached payload.
func (p *Provider) Invalidate(ctx context.Context) (int64, error) {
	return p.store.Invalidate(ctx)
}

func (p *Provider) FetchCategories(ctx context.Context, q api.CategoryQuery) ([]byte, error) {
	return p.fetch(ctx, "categories", q.Values(), func() ([]byte, error) {
		return p.upstream.FetchCategories(ctx, q)
	})
}

func (p *Provider) FetchSubCategories(ctx context.Context, q api.SubCategoryQuery) ([]byte, error) {
	return p.fetch(ctx, "subcategories", q.Values(), func() ([]byte, error) {
		return p.upstream.FetchSubCategories(ctx, q)
	})
}

func (p *Provider) FetchItems(ctx context.Context, q api.ItemQuery) ([]byte, error) {
	return p.fetch(ctx, "projects", q.Values(), func() ([]byte, error) {
		return p.upstream.FetchItems(ctx, q)
	})
}

// Key builds the cache key for an operation against the backend named by
// namespace; Encode sorts parameters.
func Key(namespace, op string, params url.Values) string {
	key := op
	if len(params) > 0 {
		key += "?" + params.Encode()
	}
	if namespace == "" {
		return key
	}
	return namespace + " " + key
}

func (p *Provider) fetch(ctx context.Context, op string, params url.Values, upstream func() ([]byte, error)) ([]byte, error) {
	key := Key(p.namespace, op, params)
	log := p.log.WithField("key", key)

	body, fetchedAt, ok, err := p.store.Get(ctx, key)
	switch {
	case err != nil:
		log.WithError(err).Warn("cache read failed")
	case ok && p.now().Sub(fetchedAt) < p.ttl:
		log.Debug("cache hit")
		return body, nil
	case ok:
		log.Debug("cache entry expired")
	}

	body, err = upstream()
	if err != nil {
		return nil, err
	}

	if err := p.store.Put(ctx, key, body, p.now()); err != nil {
		log.WithError(err).Warn("cache write failed")
	}
	return body, nil
}
