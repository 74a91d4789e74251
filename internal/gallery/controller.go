package gallery

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/lehigh-university-libraries/metgallery/internal/models"
	"golang.org/x/sync/errgroup"
)

// DefaultPageSize fills a three-column grid with seven rows
const DefaultPageSize = 21

var (
	// ErrWrongMode is returned when an operation is not valid in the current view mode
	ErrWrongMode = errors.New("operation not valid in current view mode")
	// ErrPageOutOfRange is returned when a page index falls outside the result set
	ErrPageOutOfRange = errors.New("page out of range")
	// ErrArtworkNotFound is returned when the detail record could not be fetched
	ErrArtworkNotFound = errors.New("artwork could not be loaded")
	// ErrSuperseded is returned when a newer request replaced this one before it finished
	ErrSuperseded = errors.New("request superseded by a newer one")
	// ErrNoDetail is returned when an insight is requested outside the detail view
	ErrNoDetail = errors.New("no artwork is being viewed")
)

// Collection is the read side of the museum API used by the controller
type Collection interface {
	Search(ctx context.Context, query string) (*models.SearchResult, error)
	GetObject(ctx context.Context, id int) *models.ArtworkRecord
}

// Favorites is the persisted favorites set
type Favorites interface {
	Has(id int) bool
	Toggle(id int) bool
	List() []int
}

// InsightRequester asks the insight proxy about an artwork
type InsightRequester interface {
	RequestInsight(ctx context.Context, record *models.ArtworkRecord) (string, error)
}

// Option configures a Controller
type Option func(*Controller)

// WithPageSize sets the number of cards per gallery page
func WithPageSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithConcurrency caps the number of parallel record fetches
func WithConcurrency(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// Controller owns the result set, the current page and the view mode.
// The view layer reads State and dispatches commands; it holds no state of
// its own. Every list or detail load is tagged with a generation, and a
// result whose generation is no longer current is discarded.
type Controller struct {
	collection Collection
	favorites  Favorites
	insights   InsightRequester

	pageSize    int
	concurrency int

	mu        sync.Mutex
	state     State
	prevMode  Mode
	listGen   uint64
	detailGen uint64
}

// New creates a controller in gallery mode with an empty result set
func New(collection Collection, favorites Favorites, insights InsightRequester, opts ...Option) *Controller {
	c := &Controller{
		collection: collection,
		favorites:  favorites,
		insights:   insights,
		pageSize:   DefaultPageSize,
		state: State{
			Mode:   ModeGallery,
			AllIDs: []int{},
		},
		prevMode: ModeGallery,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.concurrency == 0 {
		c.concurrency = c.pageSize
	}
	return c
}

// PageSize returns the number of cards per page
func (c *Controller) PageSize() int {
	return c.pageSize
}

// State returns a snapshot of the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// PageCount returns the number of pages in the current result set
func (c *Controller) PageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pageCount()
}

func (c *Controller) pageCount() int {
	return (len(c.state.AllIDs) + c.pageSize - 1) / c.pageSize
}

// Search replaces the result set with the ids matching query and loads the
// first page. Zero matches leaves an empty gallery and is not an error.
func (c *Controller) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return &models.ValidationError{Field: "query", Reason: "must not be empty"}
	}

	c.mu.Lock()
	c.listGen++
	c.detailGen++
	gen := c.listGen
	c.state = State{
		Query:  query,
		Mode:   ModeGallery,
		AllIDs: []int{},
	}
	c.prevMode = ModeGallery
	c.mu.Unlock()

	result, err := c.collection.Search(ctx, query)

	c.mu.Lock()
	if gen != c.listGen {
		c.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil {
		c.state.Err = err
		c.mu.Unlock()
		slog.Warn("Search failed", "query", query, "err", err)
		return err
	}
	c.state.AllIDs = slices.Clone(result.ObjectIDs)
	if c.state.AllIDs == nil {
		c.state.AllIDs = []int{}
	}
	c.mu.Unlock()

	slog.Debug("Search complete", "query", query, "results", len(result.ObjectIDs))

	_, err = c.fetchPage(ctx, 0, gen)
	return err
}

// LoadPage fetches the records for page and makes it current. Only valid in
// gallery mode. Records that fail to load are dropped; the survivors keep
// their result-set order.
func (c *Controller) LoadPage(ctx context.Context, page int) ([]models.ArtworkRecord, error) {
	c.mu.Lock()
	if c.state.Mode != ModeGallery {
		c.mu.Unlock()
		return nil, ErrWrongMode
	}
	if page < 0 || (page > 0 && page >= c.pageCount()) {
		c.mu.Unlock()
		return nil, ErrPageOutOfRange
	}
	c.listGen++
	gen := c.listGen
	c.mu.Unlock()

	return c.fetchPage(ctx, page, gen)
}

// NextPage advances one page. At the last page it does nothing.
func (c *Controller) NextPage(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Mode != ModeGallery {
		c.mu.Unlock()
		return ErrWrongMode
	}
	next := c.state.CurrentPage + 1
	last := next >= c.pageCount()
	c.mu.Unlock()

	if last {
		return nil
	}
	_, err := c.LoadPage(ctx, next)
	return err
}

// PrevPage goes back one page. At the first page it does nothing.
func (c *Controller) PrevPage(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Mode != ModeGallery {
		c.mu.Unlock()
		return ErrWrongMode
	}
	prev := c.state.CurrentPage - 1
	c.mu.Unlock()

	if prev < 0 {
		return nil
	}
	_, err := c.LoadPage(ctx, prev)
	return err
}

// ShowGallery leaves the favorites view and reloads the current gallery page
func (c *Controller) ShowGallery(ctx context.Context) ([]models.ArtworkRecord, error) {
	c.mu.Lock()
	c.listGen++
	c.detailGen++
	gen := c.listGen
	c.state.Mode = ModeGallery
	c.state.CurrentDetailID = 0
	c.state.Detail = nil
	c.state.Err = nil
	c.prevMode = ModeGallery
	page := c.state.CurrentPage
	c.mu.Unlock()

	return c.fetchPage(ctx, page, gen)
}

// ShowFavorites lists every favorite as a single unpaged view. The favorites
// set is read once, when the call starts.
func (c *Controller) ShowFavorites(ctx context.Context) ([]models.ArtworkRecord, error) {
	ids := c.favorites.List()

	c.mu.Lock()
	c.listGen++
	c.detailGen++
	gen := c.listGen
	c.state.Mode = ModeFavorites
	c.state.Items = nil
	c.state.CurrentDetailID = 0
	c.state.Detail = nil
	c.state.Err = nil
	c.prevMode = ModeFavorites
	c.mu.Unlock()

	records := c.fetchAll(ctx, ids)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.listGen {
		return nil, ErrSuperseded
	}
	c.state.Items = records
	slog.Debug("Favorites loaded", "favorites", len(ids), "loaded", len(records))
	return slices.Clone(records), nil
}

// ShowDetail switches to the detail view for id. A record that cannot be
// loaded leaves the view in detail mode with ErrArtworkNotFound recorded.
func (c *Controller) ShowDetail(ctx context.Context, id int) (*models.ArtworkRecord, error) {
	c.mu.Lock()
	if c.state.Mode != ModeDetail {
		c.prevMode = c.state.Mode
	}
	c.detailGen++
	gen := c.detailGen
	c.state.Mode = ModeDetail
	c.state.CurrentDetailID = id
	c.state.Detail = nil
	c.state.Err = nil
	c.mu.Unlock()

	record := c.collection.GetObject(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.detailGen {
		return nil, ErrSuperseded
	}
	if record == nil {
		c.state.Err = ErrArtworkNotFound
		return nil, ErrArtworkNotFound
	}
	c.state.Detail = record
	detail := *record
	return &detail, nil
}

// Back leaves the detail view for whichever list view was active before it.
// Page and result set are left untouched.
func (c *Controller) Back() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Mode != ModeDetail {
		return
	}
	c.detailGen++
	c.state.Mode = c.prevMode
	c.state.CurrentDetailID = 0
	c.state.Detail = nil
	c.state.Err = nil
}

// IsFavorite reports whether id is in the favorites set
func (c *Controller) IsFavorite(id int) bool {
	return c.favorites.Has(id)
}

// ToggleFavorite flips favorite membership for id and keeps the favorites
// list view consistent with the new set.
func (c *Controller) ToggleFavorite(id int) bool {
	member := c.favorites.Toggle(id)

	c.mu.Lock()
	defer c.mu.Unlock()

	listingFavorites := c.state.Mode == ModeFavorites ||
		(c.state.Mode == ModeDetail && c.prevMode == ModeFavorites)
	if !listingFavorites {
		return member
	}

	idx := slices.IndexFunc(c.state.Items, func(r models.ArtworkRecord) bool { return r.ObjectID == id })
	switch {
	case !member && idx >= 0:
		c.state.Items = slices.Delete(c.state.Items, idx, idx+1)
	case member && idx < 0 && c.state.Detail != nil && c.state.Detail.ObjectID == id:
		pos, _ := slices.BinarySearchFunc(c.state.Items, id, func(r models.ArtworkRecord, target int) int {
			return r.ObjectID - target
		})
		c.state.Items = slices.Insert(c.state.Items, pos, *c.state.Detail)
	}
	return member
}

// Insight requests AI commentary for the artwork in the detail view
func (c *Controller) Insight(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.state.Mode != ModeDetail || c.state.Detail == nil {
		c.mu.Unlock()
		return "", ErrNoDetail
	}
	record := *c.state.Detail
	c.mu.Unlock()

	if c.insights == nil {
		return "", errors.New("insight client not configured")
	}
	return c.insights.RequestInsight(ctx, &record)
}

// fetchPage loads page under generation gen and commits it if gen is still current
func (c *Controller) fetchPage(ctx context.Context, page int, gen uint64) ([]models.ArtworkRecord, error) {
	c.mu.Lock()
	start := page * c.pageSize
	end := min(start+c.pageSize, len(c.state.AllIDs))
	var ids []int
	if start < end {
		ids = slices.Clone(c.state.AllIDs[start:end])
	}
	c.mu.Unlock()

	records := c.fetchAll(ctx, ids)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.listGen {
		return nil, ErrSuperseded
	}
	c.state.CurrentPage = page
	c.state.Items = records
	c.state.Err = nil

	slog.Debug("Page loaded", "query", c.state.Query, "page", page, "requested", len(ids), "loaded", len(records))
	return slices.Clone(records), nil
}

// fetchAll fetches every id concurrently and returns the records that loaded,
// in the order of ids
func (c *Controller) fetchAll(ctx context.Context, ids []int) []models.ArtworkRecord {
	results := make([]*models.ArtworkRecord, len(ids))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			results[i] = c.collection.GetObject(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	records := make([]models.ArtworkRecord, 0, len(ids))
	for _, r := range results {
		if r != nil {
			records = append(records, *r)
		}
	}
	return records
}
