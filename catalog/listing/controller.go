package listing

import (
	"context"
	"errors"
	"sync"

	"github.com/AntonStoeckl/booklending/catalog"
)

const (
	logMsgLoadIssued       = "listing load issued"
	logMsgLoadCompleted    = "listing load completed"
	logMsgLoadFailed       = "listing load failed"
	logMsgLoadCanceled     = "listing load canceled"
	logMsgStaleDiscarded   = "discarded stale listing response"
	logMsgDuplicateSkipped = "skipped already loaded record"
	logAttrPageIndex       = "page_index"
	logAttrPageSize        = "page_size"
	logAttrGeneration      = "generation"
	logAttrReceived        = "received"
	logAttrTotalLoaded     = "total_loaded"
	logAttrLast            = "last"
	logAttrRecordID        = "record_id"
	logAttrError           = "error"
	logAttrErrorKind       = "error_kind"
)

var (
	// ErrNilCatalog is returned when NewController is called without a Catalog.
	ErrNilCatalog = errors.New("catalog must not be nil")

	// ErrNilNotifier is returned when NewController is called without a Notifier.
	ErrNilNotifier = errors.New("notifier must not be nil")
)

// Catalog is the part of the Catalog Client the controller needs.
type Catalog interface {
	List(ctx context.Context, query catalog.ListQuery) (catalog.Page, error)
}

// Phase is the fetch state of the controller.
type Phase string

// Phases.
const (
	PhaseIdle      Phase = "idle"
	PhaseLoading   Phase = "loading"
	PhaseExhausted Phase = "exhausted"
)

// Cursor tracks which page comes next.
type Cursor struct {
	PageIndex  int
	PageSize   int
	TotalPages int
	IsLastPage bool
}

// Snapshot is a copy of the listing state.
type Snapshot struct {
	Records       catalog.Records
	Cursor        Cursor
	Phase         Phase
	IsLoading     bool
	HasMore       bool
	TotalElements int64
	Query         catalog.ListQuery
	Closed        bool
}

// Controller is the Listing Controller.
type Controller struct {
	catalog           Catalog
	notifier          catalog.Notifier
	scroll            *ScrollTrigger
	loadFailedMessage string
	logger            catalog.Logger
	contextualLogger  catalog.ContextualLogger

	mu             sync.Mutex
	query          catalog.ListQuery
	records        catalog.Records
	loadedIDs      map[int64]struct{}
	cursor         Cursor
	isLoading      bool
	hasMore        bool
	totalElements  int64
	generation     uint64
	closed         bool
	observers      map[uint64]func(Snapshot)
	nextObserverID uint64
}

// NewController creates a Controller in the Idle phase with nothing loaded yet.
// The first LoadMore requests page 0.
func NewController(catalogClient Catalog, notifier catalog.Notifier, opts ...Option) (*Controller, error) {
	if catalogClient == nil {
		return nil, ErrNilCatalog
	}

	if notifier == nil {
		return nil, ErrNilNotifier
	}

	c := &Controller{
		catalog:           catalogClient,
		notifier:          notifier,
		loadFailedMessage: DefaultLoadFailedMessage,
		query:             catalog.BuildListQuery("", catalog.FilterSet{}),
		loadedIDs:         make(map[int64]struct{}),
		hasMore:           true,
		observers:         make(map[uint64]func(Snapshot)),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.scroll == nil {
		c.scroll, _ = NewScrollTrigger(DefaultScrollThreshold)
	}

	c.cursor.PageSize = c.query.PageSize

	return c, nil
}

// LoadMore requests the next page. It is a no-op returning false while a load is in flight,
// once the last page was loaded, or after Close. Otherwise it blocks until the page arrived
// or failed and returns true.
func (c *Controller) LoadMore(ctx context.Context) bool {
	c.mu.Lock()
	if c.closed || c.isLoading || !c.hasMore {
		c.mu.Unlock()
		return false
	}

	c.isLoading = true
	generation := c.generation
	query := c.query.WithPage(c.cursor.PageIndex)
	c.mu.Unlock()

	c.publish()
	c.fetch(ctx, generation, query)

	return true
}

// SetFilter replaces the status filter and reloads from page 0.
// Setting the same filter again still reloads.
func (c *Controller) SetFilter(ctx context.Context, statuses catalog.FilterSet) bool {
	return c.restart(ctx, func(q *catalog.ListQuery) {
		q.Statuses = statuses.Clone()
	})
}

// ToggleStatus flips the inclusion of one status and reloads from page 0.
func (c *Controller) ToggleStatus(ctx context.Context, status catalog.Status) bool {
	return c.restart(ctx, func(q *catalog.ListQuery) {
		q.Statuses = q.Statuses.Toggle(status)
	})
}

// SetSearch replaces the search text and reloads from page 0.
func (c *Controller) SetSearch(ctx context.Context, search string) bool {
	return c.restart(ctx, func(q *catalog.ListQuery) {
		q.Search = search
	})
}

// SetSort replaces the sort field and order and reloads from page 0.
// An unsupported sort is rejected by the catalog client and reported like any failed load.
func (c *Controller) SetSort(ctx context.Context, field catalog.SortField, order catalog.SortOrder) bool {
	return c.restart(ctx, func(q *catalog.ListQuery) {
		q.SortBy = field
		q.Order = order
	})
}

// Reload discards everything loaded and requests page 0 of the current query.
func (c *Controller) Reload(ctx context.Context) bool {
	return c.restart(ctx, func(*catalog.ListQuery) {})
}

// OnScroll loads the next page when pos crosses the scroll threshold.
func (c *Controller) OnScroll(ctx context.Context, pos ScrollPosition) bool {
	if !c.scroll.Observe(pos) {
		return false
	}

	return c.LoadMore(ctx)
}

// ReplaceByID replaces the loaded record with the same id. It reports false if no such record is loaded.
func (c *Controller) ReplaceByID(record catalog.Record) bool {
	c.mu.Lock()
	i := c.records.IndexOf(record.ID)
	if c.closed || i < 0 {
		c.mu.Unlock()
		return false
	}

	c.records[i] = record
	c.mu.Unlock()

	c.publish()

	return true
}

// RemoveByID removes the loaded record with id and decrements the total. It reports false if no such record is loaded.
func (c *Controller) RemoveByID(id int64) bool {
	c.mu.Lock()
	i := c.records.IndexOf(id)
	if c.closed || i < 0 {
		c.mu.Unlock()
		return false
	}

	c.records = append(c.records[:i:i], c.records[i+1:]...)
	delete(c.loadedIDs, id)

	if c.totalElements > 0 {
		c.totalElements--
	}
	c.mu.Unlock()

	c.publish()

	return true
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshotLocked()
}

// Subscribe registers fn to be called with a Snapshot after every state change.
// fn is called outside the controller's lock and must not block for long.
func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || fn == nil {
		return func() {}
	}

	id := c.nextObserverID
	c.nextObserverID++
	c.observers[id] = fn

	var once sync.Once

	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()

			delete(c.observers, id)
		})
	}
}

// Close tears the controller down. In-flight loads complete silently, observers are released,
// and all later triggers are no-ops.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	c.generation++
	c.isLoading = false
	c.observers = make(map[uint64]func(Snapshot))
}

func (c *Controller) restart(ctx context.Context, mutate func(q *catalog.ListQuery)) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}

	mutate(&c.query)
	c.generation++
	c.records = nil
	c.loadedIDs = make(map[int64]struct{})
	c.cursor = Cursor{PageSize: c.query.PageSize}
	c.hasMore = true
	c.totalElements = 0
	c.isLoading = true
	generation := c.generation
	query := c.query.WithPage(0)
	c.mu.Unlock()

	c.scroll.Reset()
	c.publish()
	c.fetch(ctx, generation, query)

	return true
}

// fetch performs the list call without holding the lock and applies the result
// only if the generation is still current.
func (c *Controller) fetch(ctx context.Context, generation uint64, query catalog.ListQuery) {
	c.logDebug(ctx, logMsgLoadIssued,
		logAttrPageIndex, query.PageIndex,
		logAttrPageSize, query.PageSize,
		logAttrGeneration, generation,
	)

	page, err := c.catalog.List(ctx, query)

	c.mu.Lock()
	if c.closed || generation != c.generation {
		c.mu.Unlock()
		c.logDebug(ctx, logMsgStaleDiscarded, logAttrPageIndex, query.PageIndex, logAttrGeneration, generation)

		return
	}

	c.isLoading = false

	if err != nil {
		c.mu.Unlock()
		c.handleFailure(ctx, query, err)
		// the failed page is retried by the next trigger, even from the same scroll position
		c.scroll.Reset()
		c.publish()

		return
	}

	var skipped []int64

	for _, record := range page.Content {
		if _, loaded := c.loadedIDs[record.ID]; loaded {
			skipped = append(skipped, record.ID)
			continue
		}

		c.loadedIDs[record.ID] = struct{}{}
		c.records = append(c.records, record)
	}

	c.totalElements = page.TotalElements
	c.cursor.TotalPages = page.TotalPages

	if page.Last {
		c.hasMore = false
		c.cursor.IsLastPage = true
	} else {
		c.cursor.PageIndex++
	}

	totalLoaded := len(c.records)
	c.mu.Unlock()

	for _, id := range skipped {
		c.logDebug(ctx, logMsgDuplicateSkipped, logAttrRecordID, id)
	}

	c.logDebug(ctx, logMsgLoadCompleted,
		logAttrPageIndex, query.PageIndex,
		logAttrReceived, len(page.Content),
		logAttrTotalLoaded, totalLoaded,
		logAttrLast, page.Last,
	)

	c.scroll.Reset()
	c.publish()
}

func (c *Controller) handleFailure(ctx context.Context, query catalog.ListQuery, err error) {
	if ctx.Err() != nil || catalog.Classify(err) == catalog.KindCanceled {
		c.logDebug(ctx, logMsgLoadCanceled, logAttrPageIndex, query.PageIndex)
		return
	}

	c.logWarn(ctx, logMsgLoadFailed,
		logAttrPageIndex, query.PageIndex,
		logAttrErrorKind, string(catalog.Classify(err)),
		logAttrError, err.Error(),
	)

	c.notifier.Notify(c.loadFailedMessage, true)
}

func (c *Controller) publish() {
	c.mu.Lock()
	if c.closed || len(c.observers) == 0 {
		c.mu.Unlock()
		return
	}

	snapshot := c.snapshotLocked()
	observers := make([]func(Snapshot), 0, len(c.observers))
	for _, fn := range c.observers {
		observers = append(observers, fn)
	}
	c.mu.Unlock()

	for _, fn := range observers {
		fn(snapshot)
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Records:       append(catalog.Records(nil), c.records...),
		Cursor:        c.cursor,
		Phase:         c.phaseLocked(),
		IsLoading:     c.isLoading,
		HasMore:       c.hasMore,
		TotalElements: c.totalElements,
		Query:         c.query.WithPage(c.cursor.PageIndex),
		Closed:        c.closed,
	}
}

func (c *Controller) phaseLocked() Phase {
	switch {
	case c.isLoading:
		return PhaseLoading
	case !c.hasMore:
		return PhaseExhausted
	default:
		return PhaseIdle
	}
}

func (c *Controller) logDebug(ctx context.Context, msg string, args ...any) {
	if c.contextualLogger != nil {
		c.contextualLogger.DebugContext(ctx, msg, args...)
	} else if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Controller) logWarn(ctx context.Context, msg string, args ...any) {
	if c.contextualLogger != nil {
		c.contextualLogger.WarnContext(ctx, msg, args...)
	} else if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
