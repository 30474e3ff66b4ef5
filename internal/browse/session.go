package browse

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tayloree/agency-catalog/internal/api"
	"github.com/tayloree/agency-catalog/internal/catalog"
	"github.com/tayloree/agency-catalog/internal/filter"
	"github.com/tayloree/agency-catalog/internal/logging"
	"github.com/tidwall/gjson"
)

const (
	// DefaultPageSize is large so that filtering can happen client side.
	DefaultPageSize = 500
	maxItemPages    = 20
)

// Options configures a Session.
type Options struct {
	PageSize int
	Logger   logrus.FieldLogger
}

// LoadReport summarises what normalisation dropped during the last loads.
type LoadReport struct {
	Categories    catalog.BatchReport
	Items         catalog.BatchReport
	SubCategories catalog.BatchReport
}

// Session is the owning view of one catalog browse: it holds the filter
// state, the loaded taxonomy and items, and sequences subcategory loads so
// that only the latest one is installed.
//
// Apart from BeginScope and Ticket.Fetch, a Session must be used from a
// single goroutine.
type Session struct {
	ID string

	provider api.Provider
	log      logrus.FieldLogger
	pageSize int

	state  filter.State
	tax    *catalog.Taxonomy
	items  []catalog.Item
	report LoadReport

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// New creates a session backed by p.
func New(p api.Provider, opts Options) *Session {
	id := uuid.NewString()
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	size := opts.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	return &Session{
		ID:       id,
		provider: p,
		log:      log.WithField("session", id[:8]),
		pageSize: size,
		tax:      catalog.NewTaxonomy(nil),
	}
}

// State returns the session's filter state for the caller to mutate.
func (s *Session) State() *filter.State { return &s.state }

// Taxonomy returns the loaded categories and subcategories.
func (s *Session) Taxonomy() *catalog.Taxonomy { return s.tax }

// Items returns every loaded item, unfiltered.
func (s *Session) Items() []catalog.Item { return s.items }

// Report returns normalisation statistics of the last loads.
func (s *Session) Report() LoadReport { return s.report }

// Load fetches categories, then items. It replaces any previously loaded
// data but leaves the filter state alone.
func (s *Session) Load(ctx context.Context) error {
	body, err := s.provider.FetchCategories(ctx, api.CategoryQuery{Limit: s.pageSize, ActiveOnly: true})
	if err != nil {
		return fmt.Errorf("loading categories: %w", err)
	}
	page := s.unwrap(body, "categories")
	cats, report := catalog.NormalizeCategories(page.Records)
	s.logSkipped("category", report)
	s.report.Categories = report
	s.tax = catalog.NewTaxonomy(cats)

	items, report, err := s.loadItems(ctx)
	if err != nil {
		return fmt.Errorf("loading projects: %w", err)
	}
	s.logSkipped("project", report)
	s.report.Items = report
	s.items = items

	s.log.WithFields(logrus.Fields{
		"categories": len(cats),
		"projects":   len(items),
	}).Debug("catalog loaded")
	return nil
}

// loadItems follows pagination until the reported total is reached, a short
// page arrives, or maxItemPages is hit.
func (s *Session) loadItems(ctx context.Context) ([]catalog.Item, catalog.BatchReport, error) {
	var records []gjson.Result
	for p := 1; p <= maxItemPages; p++ {
		body, err := s.provider.FetchItems(ctx, api.ItemQuery{Page: p, Limit: s.pageSize})
		if err != nil {
			return nil, catalog.BatchReport{}, err
		}
		page := s.unwrap(body, "projects")
		records = append(records, page.Records...)

		if len(page.Records) == 0 || len(page.Records) < s.pageSize || len(records) >= page.Total {
			break
		}
	}
	items, report := catalog.NormalizeItems(records)
	return items, report, nil
}

func (s *Session) unwrap(body []byte, what string) catalog.Page {
	page := catalog.Unwrap(body)
	if page.Shape == catalog.ShapeUnrecognized {
		s.log.WithField("shape", page.Shape.String()).Debugf("unrecognized %s payload, treating as empty", what)
	}
	return page
}

func (s *Session) logSkipped(kind string, report catalog.BatchReport) {
	for _, err := range report.Skipped {
		s.log.WithField("kind", kind).Warn(err.Error())
	}
	if report.Duplicates > 0 {
		s.log.WithField("kind", kind).Debugf("dropped %d duplicate records", report.Duplicates)
	}
}

// Filtered returns the items matching the current filter state.
func (s *Session) Filtered() []catalog.Item {
	return filter.Apply(s.items, &s.state)
}

// View is the snapshot handed to the presentation layer.
type View struct {
	VisibleItems         []catalog.Item
	ActiveCategoryIDs    []string
	ActiveSubCategoryIDs []string
	ActiveQuery          string
	// Total counts every match, before windowing.
	Total int
	Scope []catalog.SubCategory

	CategoryMultiSelect    bool
	SubCategoryMultiSelect bool
}

// View computes the presentation snapshot. limit windows the visible items;
// a non-positive limit shows everything.
func (s *Session) View(limit int) View {
	matched := s.Filtered()
	return View{
		VisibleItems:           filter.Window(matched, limit),
		ActiveCategoryIDs:      s.state.CategoryIDs(),
		ActiveSubCategoryIDs:   s.state.SubCategoryIDs(),
		ActiveQuery:            s.state.Query(),
		Total:                  len(matched),
		Scope:                  filter.Scope(s.tax, &s.state),
		CategoryMultiSelect:    s.state.CategoryMultiSelect(),
		SubCategoryMultiSelect: s.state.SubCategoryMultiSelect(),
	}
}

// ResolveCategoryArg maps a user supplied category reference (id, slug,
// kebab-case name or literal name) onto a loaded category.
func (s *Session) ResolveCategoryArg(arg string) (catalog.Category, bool) {
	arg = strings.TrimSpace(arg)
	if c, ok := s.tax.Category(arg); ok {
		return c, true
	}
	return catalog.ResolveCategory(s.tax.Categories(), arg)
}

// ResolveSubCategoryArg finds a subcategory within the current scope.
func (s *Session) ResolveSubCategoryArg(arg string) (catalog.SubCategory, bool) {
	return catalog.ResolveSubCategory(filter.Scope(s.tax, &s.state), arg)
}

// Ticket is one subcategory scope load. It carries a snapshot of the
// category selection taken when it was issued.
type Ticket struct {
	Seq         uint64
	CategoryIDs []string

	ctx      context.Context
	provider api.Provider
	pageSize int
	log      logrus.FieldLogger
}

// ScopeResult is the outcome of Ticket.Fetch.
type ScopeResult struct {
	Seq         uint64
	CategoryIDs []string
	// All is set when the ticket had no category selected and fetched
	// every subcategory at once.
	All        []catalog.SubCategory
	ByCategory map[string][]catalog.SubCategory
	Report     catalog.BatchReport
	Err        error
}

// BeginScope issues a ticket for the current category selection, cancelling
// the in-flight one. It is safe to call from any goroutine.
func (s *Session) BeginScope(ctx context.Context) *Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.seq++

	return &Ticket{
		Seq:         s.seq,
		CategoryIDs: s.state.CategoryIDs(),
		ctx:         ctx,
		provider:    s.provider,
		pageSize:    s.pageSize,
		log:         s.log.WithField("seq", s.seq),
	}
}

// Fetch performs the ticket's I/O: one request for every subcategory when no
// category is selected, otherwise one request per selected category in
// selection order. It stops at the first failure.
func (t *Ticket) Fetch() ScopeResult {
	res := ScopeResult{Seq: t.Seq, CategoryIDs: t.CategoryIDs}

	if len(t.CategoryIDs) == 0 {
		body, err := t.provider.FetchSubCategories(t.ctx, api.SubCategoryQuery{Limit: t.pageSize, ActiveOnly: true})
		if err != nil {
			res.Err = fmt.Errorf("loading subcategories: %w", err)
			return res
		}
		res.All, res.Report = catalog.NormalizeSubCategories(catalog.Unwrap(body).Records, "")
		return res
	}

	res.ByCategory = make(map[string][]catalog.SubCategory, len(t.CategoryIDs))
	for _, cid := range t.CategoryIDs {
		body, err := t.provider.FetchSubCategories(t.ctx, api.SubCategoryQuery{CategoryID: cid, Limit: t.pageSize, ActiveOnly: true})
		if err != nil {
			res.Err = fmt.Errorf("loading subcategories for %s: %w", cid, err)
			return res
		}
		subs, report := catalog.NormalizeSubCategories(catalog.Unwrap(body).Records, cid)
		res.ByCategory[cid] = subs
		res.Report.Received += report.Received
		res.Report.Skipped = append(res.Report.Skipped, report.Skipped...)
		res.Report.Duplicates += report.Duplicates
		t.log.WithFields(logrus.Fields{"category": cid, "count": len(subs)}).Debug("subcategories fetched")
	}
	return res
}

// ApplyScope installs a scope result if it belongs to the latest ticket and
// reports whether it was accepted. Results of superseded or cancelled tickets
// are discarded. An accepted result with Err set installs nothing; the caller
// surfaces the error.
func (s *Session) ApplyScope(res ScopeResult) bool {
	s.mu.Lock()
	current := res.Seq == s.seq
	if current && s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	log := s.log.WithField("seq", res.Seq)
	if !current || errors.Is(res.Err, context.Canceled) {
		log.Debug("discarding stale subcategory response")
		return false
	}
	if res.Err != nil {
		return true
	}

	s.logSkipped("subcategory", res.Report)
	s.report.SubCategories = res.Report
	if res.ByCategory == nil {
		s.tax.ReplaceAllSubCategories(res.All)
		return true
	}
	for _, cid := range res.CategoryIDs {
		s.tax.SetSubCategories(cid, res.ByCategory[cid])
	}
	return true
}

// LoadScope issues a ticket, fetches it and applies the result. A result
// superseded by a newer ticket is not an error.
func (s *Session) LoadScope(ctx context.Context) error {
	res := s.BeginScope(ctx).Fetch()
	if !s.ApplyScope(res) {
		return ctx.Err()
	}
	return res.Err
}
