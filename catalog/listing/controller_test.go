package listing_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/booklending/catalog"
	"github.com/AntonStoeckl/booklending/catalog/listing"
	"github.com/AntonStoeckl/booklending/testutil/testdoubles"
)

const waitTimeout = 2 * time.Second

type listReply struct {
	page catalog.Page
	err  error
}

type listCall struct {
	query catalog.ListQuery
	reply chan listReply
}

func (c listCall) respond(page catalog.Page) {
	c.reply <- listReply{page: page}
}

func (c listCall) fail(err error) {
	c.reply <- listReply{err: err}
}

// catalogFake blocks every List call until the test answers it.
type catalogFake struct {
	calls chan listCall
}

func newCatalogFake() *catalogFake {
	return &catalogFake{calls: make(chan listCall, 16)}
}

func (f *catalogFake) List(ctx context.Context, query catalog.ListQuery) (catalog.Page, error) {
	call := listCall{query: query, reply: make(chan listReply, 1)}
	f.calls <- call

	select {
	case r := <-call.reply:
		return r.page, r.err
	case <-ctx.Done():
		return catalog.Page{}, errors.Join(catalog.ErrTransport, ctx.Err())
	}
}

func (f *catalogFake) expectCall(t *testing.T) listCall {
	t.Helper()

	select {
	case call := <-f.calls:
		return call
	case <-time.After(waitTimeout):
		t.Fatal("expected a list call")
		return listCall{}
	}
}

func (f *catalogFake) expectNoCall(t *testing.T) {
	t.Helper()

	select {
	case call := <-f.calls:
		t.Fatalf("unexpected list call for page %d", call.query.PageIndex)
	case <-time.After(50 * time.Millisecond):
	}
}

func givenController(t *testing.T, fake *catalogFake, opts ...listing.Option) (*listing.Controller, *testdoubles.NotifierSpy) {
	t.Helper()

	notifier := testdoubles.NewNotifierSpy()
	controller, err := listing.NewController(fake, notifier, opts...)
	require.NoError(t, err)
	t.Cleanup(controller.Close)

	return controller, notifier
}

// async runs fn on its own goroutine and returns a channel that yields its result.
func async(fn func() bool) <-chan bool {
	done := make(chan bool, 1)
	go func() { done <- fn() }()

	return done
}

func await(t *testing.T, done <-chan bool) bool {
	t.Helper()

	select {
	case issued := <-done:
		return issued
	case <-time.After(waitTimeout):
		t.Fatal("trigger did not return")
		return false
	}
}

func book(id int64, status catalog.Status) catalog.Record {
	return catalog.Record{ID: id, Title: "Book", Author: "Author", ISBN: "9780441013593", Status: status}
}

func Test_NewController_FailsWithoutCollaborators(t *testing.T) {
	_, err := listing.NewController(nil, testdoubles.NewNotifierSpy())
	assert.ErrorIs(t, err, listing.ErrNilCatalog)

	_, err = listing.NewController(newCatalogFake(), nil)
	assert.ErrorIs(t, err, listing.ErrNilNotifier)

	_, err = listing.NewController(newCatalogFake(), testdoubles.NewNotifierSpy(), listing.WithScrollThreshold(1.5))
	assert.ErrorIs(t, err, listing.ErrInvalidThreshold)

	_, err = listing.NewController(newCatalogFake(), testdoubles.NewNotifierSpy(), listing.WithSort("price", catalog.SortAsc))
	assert.ErrorIs(t, err, catalog.ErrValidation)
}

func Test_LoadMore_FirstPage_AdvancesCursor_WhenMorePagesExist(t *testing.T) {
	// arrange
	fake := newCatalogFake()
	controller, notifier := givenController(t, fake, listing.WithFilter(catalog.NewFilterSet(catalog.StatusAvailable)))
	a, b := book(1, catalog.StatusAvailable), book(2, catalog.StatusAvailable)

	// act
	done := async(func() bool { return controller.LoadMore(context.Background()) })
	call := fake.expectCall(t)
	loading := controller.Snapshot()
	call.respond(catalog.Page{Content: catalog.Records{a, b}, TotalElements: 4, TotalPages: 2, Last: false})

	// assert
	assert.True(t, await(t, done))
	assert.Equal(t, 0, call.query.PageIndex)
	assert.Equal(t, "", call.query.Search)
	assert.Equal(t, catalog.SortByTitle, call.query.SortBy)
	assert.Equal(t, catalog.SortAsc, call.query.Order)
	assert.Equal(t, []catalog.Status{catalog.StatusAvailable}, call.query.Statuses.Included())
	assert.True(t, loading.IsLoading, "loading flag must be set while the call is in flight")
	assert.Equal(t, listing.PhaseLoading, loading.Phase)

	snapshot := controller.Snapshot()
	assert.Equal(t, catalog.Records{a, b}, snapshot.Records)
	assert.Equal(t, listing.PhaseIdle, snapshot.Phase)
	assert.False(t, snapshot.IsLoading)
	assert.True(t, snapshot.HasMore)
	assert.Equal(t, 1, snapshot.Cursor.PageIndex)
	assert.Equal(t, 2, snapshot.Cursor.TotalPages)
	assert.Equal(t, int64(4), snapshot.TotalElements)
	assert.Equal(t, 0, notifier.Count())

	// the next trigger requests page 1
	done = async(func() bool { return controller.LoadMore(context.Background()) })
	next := fake.expectCall(t)
	assert.Equal(t, 1, next.query.PageIndex)
	next.respond(catalog.Page{Content: catalog.Records{book(3, catalog.StatusAvailable)}, TotalPages: 2, TotalElements: 4, Last: true})
	assert.True(t, await(t, done))
}

func Test_LoadMore_IsNoOp_WhileLoading(t *testing.T) {
	// arrange
	fake := newCatalogFake()
	controller, _ := givenController(t, fake)

	// act
	first := async(func() bool { return controller.LoadMore(context.Background()) })
	call := fake.expectCall(t)
	second := controller.LoadMore(context.Background())

	// assert
	assert.False(t, second, "second trigger must not issue a call")
	fake.expectNoCall(t)

	call.respond(catalog.Page{Content: catalog.Records{book(1, catalog.StatusAvailable)}, Last: false, TotalPages: 3})
	assert.True(t, await(t, first))
}

func Test_LoadMore_BecomesExhausted_OnLastPage(t *testing.T) {
	// arrange
	fake := newCatalogFake()
	controller, _ := givenController(t, fake)

	done := async(func() bool { return controller.LoadMore(context.Background()) })
	fake.expectCall(t).respond(catalog.Page{Content: catalog.Records{book(1, catalog.StatusAvailable)}, TotalPages: 1, Last: true})
	require.True(t, await(t, done))

	// act
	again := controller.LoadMore(context.Background())

	// assert
	assert.False(t, again)
	fake.expectNoCall(t)

	snapshot := controller.Snapshot()
	assert.Equal(t, listing.PhaseExhausted, snapshot.Phase)
	assert.False(t, snapshot.HasMore)
	assert.Equal(t, 0, snapshot.Cursor.PageIndex, "page index advances only when more pages exist")
	assert.True(t, snapshot.Cursor.IsLastPage)
}

func Test_LoadMore_AppendsInArrivalOrder_AndSkipsKnownIDs(t *testing.T) {
	// arrange
	fake := newCatalogFake()
	controller, _ := givenController(t, fake)

	done := async(func() bool { return controller.LoadMore(context.Background()) })
	fake.expectCall(t).respond(catalog.Page{Content: catalog.Records{book(3, catalog.StatusAvailable), book(1, catalog.StatusReserved)}, TotalPages: 2})
	require.True(t, await(t, done))

	// act
	done = async(func() bool { return controller.LoadMore(context.Background()) })
	fake.expectCall(t).respond(catalog.Page{Content: catalog.Records{book(1, catalog.StatusReserved), book(2, catalog.StatusBorrowed)}, TotalPages: 2, Last: true})
	require.True(t, await(t, done))

	// assert
	records := controller.Snapshot().Records
	require.Len(t, records, 3)
	assert.Equal(t, []int64{3, 1, 2}, []int64{records[0].ID, records[1].ID, records[2].ID})
}

func Test_LoadMore_Failure_KeepsStateAndNotifies(t *testing.T) {
	// arrange
	fake := newCatalogFake()
	logger := testdoubles.NewContextualLoggerSpy(true)
	controller, notifier := givenController(t, fake, listing.WithContextualLogger(logger))

	done := async(func() bool { return controller.LoadMore(context.Background()) })
	fake.expectCall(t).respond(catalog.Page{Content: catalog.Records{book(1, catalog.StatusAvailable)}, TotalPages: 3})
	require.True(t, await(t, done))

	// act
	done = async(func() bool { return controller.LoadMore(context.Background()) })
	fake.expectCall(t).fail(errors.Join(catalog.ErrTransport, errors.New("502")))
	require.True(t, await(t, done))

	// assert
	snapshot := controller.Snapshot()
	assert.Len(t, snapshot.Records, 1, "records stay unchanged on failure")
	assert.Equal(t, 1, snapshot.Cursor.PageIndex, "page index stays unchanged on failure")
	assert.Equal(t, listing.PhaseIdle, snapshot.Phase)

	last, ok := notifier.Last()
	require.True(t, ok)
	assert.Equal(t, testdoubles.Notification{Message: "Failed to load books. Please try again later.", IsError: true}, last)
	assert.True(t, logger.HasWarnLog("listing load failed"))

	// a later trigger retries the same page
	done = async(func() bool { return controller.LoadMore(context.Background()) })
	retry := fake.expectCall(t)
	assert.Equal(t, 1, retry.query.PageIndex)
	retry.respond(catalog.Page{TotalPages: 3, Last: true})
	require.True(t, await(t, done))
}

func Test_LoadMore_Canceled_DoesNotNotify(t *testing.T) {
	// arrange
	fake := newCatalogFake()
	controller, notifier := givenController(t, fake)
	ctx, cancel := context.WithCancel(context.Background())

	// act
	done := async(func() bool { return controller.LoadMore(ctx) })
	fake.expectCall(t)
	cancel()

	// assert
	assert.True(t, await(t, done))
	assert.Equal(t, 0, notifier.Count(), "cancellation is not a user-facing failure")
	assert.False(t, controller.Snapshot().IsLoading)
}

func Test_SetFilter_ClearsRecords_BeforeIssuingPageZero(t *testing.T) {
	// arrange
	fake := newCatalogFake()
	controller, _ := givenController(t, fake)

	done := async(func() bool { return controller.LoadMore(context.Background()) })
	fake.expectCall(t).respond(catalog.Page{Content: catalog.Records{book(1, catalog.StatusAvailable), book(2, catalog.StatusReserved)}, TotalPages: 3})
	require.True(t, await(t, done))

	// act
	done = async(func() bool {
		return controller.SetFilter(context.Background(), catalog.NewFilterSet(catalog.StatusReserved))
	})
	call := fake.expectCall(t)
	pending := controller.Snapshot()
	call.respond(catalog.Page{Content: catalog.Records{book(2, catalog.StatusReserved)}, TotalPages: 1, TotalElements: 1, Last: true})

	// assert
	assert.True(t, await(t, done))
	assert.Empty(t, pending.Records, "records are cleared before the new request")
	assert.Equal(t, 0, pending.Cursor.PageIndex)
	assert.True(t, pending.IsLoading)
	assert.Equal(t, 0, call.query.PageIndex)
	assert.Equal(t, []catalog.Status{catalog.StatusReserved}, call.query.Statuses.Included())

	snapshot := controller.Snapshot()
	assert.Equal(t, catalog.Records{book(2, catalog.StatusReserved)}, snapshot.Records)
	assert.Equal(t, int64(1), snapshot.TotalElements)
}

func Test_SetFilter_DiscardsStaleInFlightResponse(t *testing.T) {
	// arrange
	fake := newCatalogFake()
	controller, notifier := givenController(t, fake)

	staleDone := async(func() bool { return controller.LoadMore(context.Background()) })
	stale := fake.expectCall(t)

	// act
	freshDone := async(func() bool {
		return controller.ToggleStatus(context.Background(), catalog.StatusBorrowed)
	})
	fresh := fake.expectCall(t)
	fresh.respond(catalog.Page{Content: catalog.Records{book(5, catalog.StatusBorrowed)}, TotalPages: 1, Last: true})
	require.True(t, await(t, freshDone))

	stale.respond(catalog.Page{Content: catalog.Records{book(1, catalog.StatusAvailable)}, TotalPages: 9})
	require.True(t, await(t, staleDone))

	// assert
	snapshot := controller.Snapshot()
	assert.Equal(t, catalog.Records{book(5, catalog.StatusBorrowed)}, snapshot.Records, "stale page must be dropped")
	assert.Equal(t, listing.PhaseExhausted, snapshot.Phase)
	assert.Equal(t, 0, notifier.Count())
}

func Test_SetFilter_SameFilterTwice_StillReloads_AndConverges(t *testing.T) {
	// arrange
	fake := newCatalogFake()
	controller, _ := givenController(t, fake)
	filter := catalog.NewFilterSet(catalog.StatusAvailable, catalog.StatusReturned)
	page := catalog.Page{Content: catalog.Records{book(1, catalog.StatusAvailable), book(2, catalog.StatusReturned)}, TotalPages: 1, Last: true}

	var results []catalog.Records

	for range 2 {
		// act
		done := async(func() bool { return controller.SetFilter(context.Background(), filter) })
		fake.expectCall(t).respond(page)
		require.True(t, await(t, done), "identical filter is still a trigger")

		results = append(results, controller.Snapshot().Records)
	}

	// assert
	assert.Equal(t, results[0], results[1])
	assert.Len(t, results[1], 2)
}

func Test_SetSearchAndSort_ChangeQuery(t *testing.T) {
	// arrange
	fake := newCatalogFake()
	controller, _ := givenController(t, fake, listing.WithPageSize(20))

	// act
	done := async(func() bool { return controller.SetSearch(context.Background(), "dune") })
	searchCall := fake.expectCall(t)
	searchCall.respond(catalog.Page{Last: true})
	require.True(t, await(t, done))

	done = async(func() bool {
		return controller.SetSort(context.Background(), catalog.SortByAuthor, catalog.SortDesc)
	})
	sortCall := fake.expectCall(t)
	sortCall.respond(catalog.Page{Last: true})
	require.True(t, await(t, done))

	// assert
	assert.Equal(t, "dune", searchCall.query.Search)
	assert.Equal(t, 20, searchCall.query.PageSize)
	assert.Equal(t, "dune", sortCall.query.Search, "search survives a sort change")
	assert.Equal(t, catalog.SortByAuthor, sortCall.query.SortBy)
	assert.Equal(t, catalog.SortDesc, sortCall.query.Order)
}

func Test_Close_DropsInFlightResponse_AndDisablesTriggers(t *testing.T) {
	// arrange
	fake := newCatalogFake()
	controller, notifier := givenController(t, fake)

	var mu sync.Mutex
	observed := 0
	controller.Subscribe(func(listing.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		observed++
	})

	done := async(func() bool { return controller.LoadMore(context.Background()) })
	call := fake.expectCall(t)

	mu.Lock()
	observedBeforeClose := observed
	mu.Unlock()

	// act
	controller.Close()
	call.respond(catalog.Page{Content: catalog.Records{book(1, catalog.StatusAvailable)}, TotalPages: 2})
	require.True(t, await(t, done))

	// assert
	snapshot := controller.Snapshot()
	assert.True(t, snapshot.Closed)
	assert.Empty(t, snapshot.Records, "response after close must be dropped")
	assert.Equal(t, 0, notifier.Count())

	mu.Lock()
	assert.Equal(t, observedBeforeClose, observed, "observers are released on close")
	mu.Unlock()

	assert.False(t, controller.LoadMore(context.Background()))
	assert.False(t, controller.Reload(context.Background()))
	fake.expectNoCall(t)
}

func Test_ReplaceByID_KeepsCount(t *testing.T) {
	// arrange
	fake := newCatalogFake()
	controller, _ := givenController(t, fake)

	done := async(func() bool { return controller.LoadMore(context.Background()) })
	fake.expectCall(t).respond(catalog.Page{Content: catalog.Records{book(7, catalog.StatusAvailable), book(8, catalog.StatusAvailable)}, TotalElements: 2, Last: true})
	require.True(t, await(t, done))

	// act
	replaced := controller.ReplaceByID(book(7, catalog.StatusReserved))
	missing := controller.ReplaceByID(book(99, catalog.StatusReserved))

	// assert
	assert.True(t, replaced)
	assert.False(t, missing)

	snapshot := controller.Snapshot()
	require.Len(t, snapshot.Records, 2)
	assert.Equal(t, catalog.StatusReserved, snapshot.Records[0].Status)
	assert.Equal(t, catalog.StatusAvailable, snapshot.Records[1].Status)
	assert.Equal(t, int64(2), snapshot.TotalElements)
}

func Test_RemoveByID_DecrementsCount(t *testing.T) {
	// arrange
	fake := newCatalogFake()
	controller, _ := givenController(t, fake)

	done := async(func() bool { return controller.LoadMore(context.Background()) })
	fake.expectCall(t).respond(catalog.Page{Content: catalog.Records{book(7, catalog.StatusAvailable), book(8, catalog.StatusReturned)}, TotalElements: 2, Last: true})
	require.True(t, await(t, done))

	// act
	removed := controller.RemoveByID(8)
	again := controller.RemoveByID(8)

	// assert
	assert.True(t, removed)
	assert.False(t, again)

	snapshot := controller.Snapshot()
	assert.Equal(t, catalog.Records{book(7, catalog.StatusAvailable)}, snapshot.Records)
	assert.Equal(t, int64(1), snapshot.TotalElements)
}

func Test_Subscribe_ReceivesLoadingAndLoadedSnapshots(t *testing.T) {
	// arrange
	fake := newCatalogFake()
	controller, _ := givenController(t, fake)

	var mu sync.Mutex
	var phases []listing.Phase
	unsubscribe := controller.Subscribe(func(s listing.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		phases = append(phases, s.Phase)
	})

	// act
	done := async(func() bool { return controller.LoadMore(context.Background()) })
	fake.expectCall(t).respond(catalog.Page{Content: catalog.Records{book(1, catalog.StatusAvailable)}, TotalPages: 2})
	require.True(t, await(t, done))

	unsubscribe()
	unsubscribe()
	controller.ReplaceByID(book(1, catalog.StatusReserved))

	// assert
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []listing.Phase{listing.PhaseLoading, listing.PhaseIdle}, phases)
}

func Test_OnScroll_LoadsNextPage_WhenThresholdCrossed(t *testing.T) {
	// arrange
	fake := newCatalogFake()
	controller, _ := givenController(t, fake, listing.WithScrollThreshold(0.8))

	done := async(func() bool { return controller.LoadMore(context.Background()) })
	fake.expectCall(t).respond(catalog.Page{Content: catalog.Records{book(1, catalog.StatusAvailable)}, TotalPages: 3})
	require.True(t, await(t, done))

	// act
	below := controller.OnScroll(context.Background(), listing.ScrollPosition{Top: 100, ClientHeight: 500, ScrollHeight: 1000})
	done = async(func() bool {
		return controller.OnScroll(context.Background(), listing.ScrollPosition{Top: 400, ClientHeight: 500, ScrollHeight: 1000})
	})
	call := fake.expectCall(t)
	call.respond(catalog.Page{Content: catalog.Records{book(2, catalog.StatusAvailable)}, TotalPages: 3})

	// assert
	assert.False(t, below)
	assert.True(t, await(t, done))
	assert.Equal(t, 1, call.query.PageIndex)
}

func Test_OnScroll_RetriesFailedPage_FromSameBottomPosition(t *testing.T) {
	// arrange
	fake := newCatalogFake()
	controller, notifier := givenController(t, fake)
	bottom := listing.ScrollPosition{Top: 900, ClientHeight: 100, ScrollHeight: 1000}

	done := async(func() bool { return controller.LoadMore(context.Background()) })
	fake.expectCall(t).respond(catalog.Page{Content: catalog.Records{book(1, catalog.StatusAvailable)}, TotalPages: 3})
	require.True(t, await(t, done))

	done = async(func() bool { return controller.OnScroll(context.Background(), bottom) })
	fake.expectCall(t).fail(errors.Join(catalog.ErrTransport, errors.New("503")))
	require.True(t, await(t, done))
	require.Equal(t, 1, notifier.Count(), "the failure is notified once")

	// act
	done = async(func() bool { return controller.OnScroll(context.Background(), bottom) })
	retry := fake.expectCall(t)
	retry.respond(catalog.Page{Content: catalog.Records{book(2, catalog.StatusAvailable)}, TotalPages: 3})

	// assert
	assert.True(t, await(t, done), "the next scroll event is accepted after a failure")
	assert.Equal(t, 1, retry.query.PageIndex, "the failed page is requested again")
	assert.Len(t, controller.Snapshot().Records, 2)
}

func Test_OnScroll_RetriesFailedPage_WhenContentFitsViewport(t *testing.T) {
	// arrange
	fake := newCatalogFake()
	controller, _ := givenController(t, fake)
	fits := listing.ScrollPosition{Top: 0, ClientHeight: 800, ScrollHeight: 300}

	done := async(func() bool { return controller.OnScroll(context.Background(), fits) })
	fake.expectCall(t).fail(errors.Join(catalog.ErrTransport, errors.New("503")))
	require.True(t, await(t, done))

	// act
	done = async(func() bool { return controller.OnScroll(context.Background(), fits) })
	retry := fake.expectCall(t)
	retry.respond(catalog.Page{Content: catalog.Records{book(1, catalog.StatusAvailable)}, TotalPages: 1, Last: true})

	// assert
	assert.True(t, await(t, done))
	assert.Equal(t, 0, retry.query.PageIndex)
	assert.Equal(t, listing.PhaseExhausted, controller.Snapshot().Phase)
}
