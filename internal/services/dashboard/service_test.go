package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/markets"
	"github.com/ternarybob/marketpulse/internal/models"
	"github.com/ternarybob/marketpulse/internal/services/cache"
	"github.com/ternarybob/marketpulse/internal/services/events"
	"github.com/ternarybob/marketpulse/internal/storage/badger"
)

// fakeFetcher counts provider calls. Verticals with a gate block until the
// gate is closed; verticals with an error fail.
type fakeFetcher struct {
	calls  atomic.Int32
	gates  map[string]chan struct{}
	errFor map[string]error
}

func (f *fakeFetcher) FetchInsights(ctx context.Context, vertical string, mode models.LanguageMode) (*models.InsightResult, error) {
	n := f.calls.Add(1)
	if gate, ok := f.gates[vertical]; ok {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.errFor[vertical]; err != nil {
		return nil, err
	}
	return &models.InsightResult{
		ID:        fmt.Sprintf("ins_%d", n),
		Vertical:  vertical,
		Mode:      mode,
		Text:      "## Summary\nSteady demand.\n- one\n- two",
		Sources:   []models.Source{{URI: "https://example.com", Title: "Example"}},
		FetchedAt: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC),
	}, nil
}

type fixture struct {
	service  *Service
	fetcher  *fakeFetcher
	cache    *cache.Service
	registry *markets.Registry
	events   *eventRecorder
}

type eventRecorder struct {
	mu     sync.Mutex
	events []interfaces.Event
}

func (r *eventRecorder) handle(ctx context.Context, event interfaces.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) count(eventType interfaces.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func newFixture(t *testing.T, marketCode string, fetcher *fakeFetcher) *fixture {
	t.Helper()
	logger := arbor.NewLogger()

	registry, err := markets.Load(logger)
	require.NoError(t, err)

	manager, err := badger.NewManager(logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })

	resultCache := cache.NewService(manager.InsightStorage(), logger)

	recorder := &eventRecorder{}
	eventService := events.NewService(logger)
	for _, eventType := range []interfaces.EventType{
		interfaces.EventInsightLoading,
		interfaces.EventInsightReady,
		interfaces.EventInsightFailed,
		interfaces.EventSelectionChanged,
	} {
		require.NoError(t, eventService.Subscribe(eventType, recorder.handle))
	}

	service := NewService(registry, marketCode, fetcher, resultCache, eventService, time.Minute, logger)
	t.Cleanup(func() { _ = service.Close() })

	return &fixture{
		service:  service,
		fetcher:  fetcher,
		cache:    resultCache,
		registry: registry,
		events:   recorder,
	}
}

func TestSelect_MissFetchesAndCaches(t *testing.T) {
	f := newFixture(t, "UK", &fakeFetcher{})
	ctx := context.Background()

	assert.False(t, f.service.State().HasSelection())
	assert.Equal(t, -1, f.service.State().VerticalIndex)

	vertical := f.service.Catalog().Verticals[0]
	state, err := f.service.Select(ctx, vertical)
	require.NoError(t, err)
	assert.Equal(t, vertical, state.Vertical)
	assert.Equal(t, 0, state.VerticalIndex)

	f.service.Wait()

	state = f.service.State()
	assert.False(t, state.Loading)
	assert.Empty(t, state.Error)
	assert.Equal(t, int32(1), f.fetcher.calls.Load())

	view, err := f.service.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, vertical+" Market Report", view.Title)
	require.Len(t, view.Blocks, 3)
	assert.Equal(t, models.Heading(2, "Summary"), view.Blocks[0])
	assert.Len(t, view.Sources, 1)

	assert.Equal(t, 1, f.events.count(interfaces.EventInsightLoading))
	assert.Equal(t, 1, f.events.count(interfaces.EventInsightReady))
}

func TestSelect_CachedDoesNotFetch(t *testing.T) {
	f := newFixture(t, "UK", &fakeFetcher{})
	ctx := context.Background()
	vertical := f.service.Catalog().Verticals[1]

	_, err := f.service.Select(ctx, vertical)
	require.NoError(t, err)
	f.service.Wait()

	state, err := f.service.Select(ctx, vertical)
	require.NoError(t, err)
	assert.False(t, state.Loading)
	f.service.Wait()

	assert.Equal(t, int32(1), f.fetcher.calls.Load())
}

func TestSelect_TwiceWhileLoadingSharesFetch(t *testing.T) {
	gate := make(chan struct{})
	f := newFixture(t, "UK", &fakeFetcher{})
	vertical := f.service.Catalog().Verticals[2]
	f.fetcher.gates = map[string]chan struct{}{vertical: gate}
	ctx := context.Background()

	state, err := f.service.Select(ctx, vertical)
	require.NoError(t, err)
	assert.True(t, state.Loading)

	state, err = f.service.Select(ctx, vertical)
	require.NoError(t, err)
	assert.True(t, state.Loading)

	close(gate)
	f.service.Wait()

	assert.Equal(t, int32(1), f.fetcher.calls.Load())
	assert.False(t, f.service.State().Loading)
}

func TestSelect_UnknownVertical(t *testing.T) {
	f := newFixture(t, "UK", &fakeFetcher{})

	_, err := f.service.Select(context.Background(), "Spaceships")
	assert.ErrorIs(t, err, ErrUnknownVertical)
	assert.False(t, f.service.State().HasSelection())

	_, err = f.service.SelectIndex(context.Background(), 99)
	assert.ErrorIs(t, err, ErrUnknownVertical)
}

func TestRefresh_AlwaysFetchesAndReplaces(t *testing.T) {
	f := newFixture(t, "UK", &fakeFetcher{})
	ctx := context.Background()

	_, err := f.service.Refresh(ctx)
	assert.ErrorIs(t, err, ErrNoSelection)

	vertical := f.service.Catalog().Verticals[0]
	_, err = f.service.Select(ctx, vertical)
	require.NoError(t, err)
	f.service.Wait()

	first, ok := f.cache.Get(ctx, vertical, models.LanguageModeNative)
	require.True(t, ok)

	state, err := f.service.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, state.Loading)
	f.service.Wait()

	second, ok := f.cache.Get(ctx, vertical, models.LanguageModeNative)
	require.True(t, ok)
	assert.Equal(t, int32(2), f.fetcher.calls.Load())
	assert.NotEqual(t, first.ID, second.ID)
}

func TestFailure_SetsErrorAndLeavesCacheUntouched(t *testing.T) {
	f := newFixture(t, "UK", &fakeFetcher{})
	vertical := f.service.Catalog().Verticals[0]
	f.fetcher.errFor = map[string]error{vertical: errors.New("Failed to retrieve insights for " + vertical)}
	ctx := context.Background()

	_, err := f.service.Select(ctx, vertical)
	require.NoError(t, err)
	f.service.Wait()

	state := f.service.State()
	assert.False(t, state.Loading)
	assert.Contains(t, state.Error, vertical)

	_, ok := f.cache.Get(ctx, vertical, models.LanguageModeNative)
	assert.False(t, ok)

	_, err = f.service.Current(ctx)
	assert.ErrorIs(t, err, ErrNoReport)
	assert.Equal(t, 1, f.events.count(interfaces.EventInsightFailed))
}

func TestFailure_OfStaleSelectionDoesNotSetError(t *testing.T) {
	gate := make(chan struct{})
	f := newFixture(t, "UK", &fakeFetcher{})
	catalog := f.service.Catalog()
	slow, fast := catalog.Verticals[0], catalog.Verticals[1]
	f.fetcher.gates = map[string]chan struct{}{slow: gate}
	f.fetcher.errFor = map[string]error{slow: errors.New("network down")}
	ctx := context.Background()

	_, err := f.service.Select(ctx, slow)
	require.NoError(t, err)
	_, err = f.service.Select(ctx, fast)
	require.NoError(t, err)

	close(gate)
	f.service.Wait()

	state := f.service.State()
	assert.Equal(t, fast, state.Vertical)
	assert.Empty(t, state.Error)
	assert.False(t, state.Loading)

	_, ok := f.cache.Get(ctx, fast, models.LanguageModeNative)
	assert.True(t, ok)
	_, ok = f.cache.Get(ctx, slow, models.LanguageModeNative)
	assert.False(t, ok)
}

func TestToggleLanguage_TranslatesSelectionByIndex(t *testing.T) {
	f := newFixture(t, "DE", &fakeFetcher{})
	ctx := context.Background()
	assert.True(t, f.service.ShowLanguageToggle())

	native := f.registry.ResolveTranslations("DE", models.LanguageModeNative)
	english := f.registry.ResolveTranslations("DE", models.LanguageModeEnglish)

	_, err := f.service.Select(ctx, native.Verticals[3])
	require.NoError(t, err)
	f.service.Wait()

	state, err := f.service.ToggleLanguage(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.LanguageModeEnglish, state.Mode)
	assert.Equal(t, english.Verticals[3], state.Vertical)
	assert.Equal(t, 3, state.VerticalIndex)
	f.service.Wait()

	assert.Equal(t, int32(2), f.fetcher.calls.Load())
	_, ok := f.cache.Get(ctx, english.Verticals[3], models.LanguageModeEnglish)
	assert.True(t, ok)

	// Back to native is served from cache
	state, err = f.service.ToggleLanguage(ctx)
	require.NoError(t, err)
	assert.Equal(t, native.Verticals[3], state.Vertical)
	assert.False(t, state.Loading)
	f.service.Wait()
	assert.Equal(t, int32(2), f.fetcher.calls.Load())
}

func TestSetLanguage_WithoutSelectionOnlyChangesCatalog(t *testing.T) {
	f := newFixture(t, "FR", &fakeFetcher{})

	state, err := f.service.SetLanguage(context.Background(), models.LanguageModeEnglish)
	require.NoError(t, err)
	assert.Equal(t, models.LanguageModeEnglish, state.Mode)
	assert.Equal(t, "en", f.service.Catalog().Code)
	assert.Equal(t, int32(0), f.fetcher.calls.Load())

	_, err = f.service.SetLanguage(context.Background(), models.LanguageMode("klingon"))
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestSetLanguage_FixedForDefaultCatalogMarkets(t *testing.T) {
	f := newFixture(t, "UK", &fakeFetcher{})
	assert.False(t, f.service.ShowLanguageToggle())

	_, err := f.service.SetLanguage(context.Background(), models.LanguageModeEnglish)
	assert.ErrorIs(t, err, ErrLanguageFixed)
	assert.Equal(t, models.LanguageModeNative, f.service.State().Mode)
}

func TestInsight_ConcurrentCallersShareOneFetch(t *testing.T) {
	gate := make(chan struct{})
	f := newFixture(t, "UK", &fakeFetcher{})
	vertical := f.service.Catalog().Verticals[4]
	f.fetcher.gates = map[string]chan struct{}{vertical: gate}
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]*models.InsightResult, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := f.service.Insight(ctx, vertical, models.LanguageModeEnglish)
			assert.NoError(t, err)
			results[i] = result
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, int32(1), f.fetcher.calls.Load())
	for _, result := range results {
		require.NotNil(t, result)
		assert.Equal(t, results[0].ID, result.ID)
	}
}

// pausingCache holds the first Get miss made with a paused context until release is closed
type pausingCache struct {
	interfaces.ResultCache
	once    sync.Once
	missed  chan struct{}
	release chan struct{}
}

type pauseKey struct{}

func (c *pausingCache) Get(ctx context.Context, vertical string, mode models.LanguageMode) (*models.InsightResult, bool) {
	result, ok := c.ResultCache.Get(ctx, vertical, mode)
	if !ok && ctx.Value(pauseKey{}) != nil {
		c.once.Do(func() {
			close(c.missed)
			<-c.release
		})
	}
	return result, ok
}

func TestInsight_MissRacingCompletedFetchDoesNotRefetch(t *testing.T) {
	f := newFixture(t, "UK", &fakeFetcher{})
	paused := &pausingCache{
		ResultCache: f.cache,
		missed:      make(chan struct{}),
		release:     make(chan struct{}),
	}
	service := NewService(f.registry, "UK", f.fetcher, paused, nil, time.Minute, arbor.NewLogger())
	t.Cleanup(func() { _ = service.Close() })

	vertical := service.Catalog().Verticals[2]
	late := make(chan *models.InsightResult, 1)
	go func() {
		ctx := context.WithValue(context.Background(), pauseKey{}, true)
		result, err := service.Insight(ctx, vertical, models.LanguageModeNative)
		assert.NoError(t, err)
		late <- result
	}()

	<-paused.missed
	first, err := service.Insight(context.Background(), vertical, models.LanguageModeNative)
	require.NoError(t, err)
	close(paused.release)

	second := <-late
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int32(1), f.fetcher.calls.Load())
}

func TestExportRequest_UsesCatalogLabels(t *testing.T) {
	f := newFixture(t, "DE", &fakeFetcher{})
	ctx := context.Background()

	_, err := f.service.ExportRequest(ctx)
	assert.ErrorIs(t, err, ErrNoSelection)

	catalog := f.service.Catalog()
	_, err = f.service.Select(ctx, catalog.Verticals[0])
	require.NoError(t, err)
	f.service.Wait()

	request, err := f.service.ExportRequest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "DE", request.MarketCode)
	assert.Equal(t, catalog.UI.SourcesTitle, request.SourcesTitle)
	assert.Equal(t, catalog.UI.FooterText, request.Footer)
	assert.Equal(t, catalog.Verticals[0]+" "+catalog.UI.ReportTitleSuffix, request.Title)
}

func TestClose_CancelsInFlightFetch(t *testing.T) {
	gate := make(chan struct{})
	f := newFixture(t, "UK", &fakeFetcher{})
	vertical := f.service.Catalog().Verticals[0]
	f.fetcher.gates = map[string]chan struct{}{vertical: gate}

	_, err := f.service.Select(context.Background(), vertical)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		_ = f.service.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}

	state := f.service.State()
	assert.False(t, state.Loading)
	assert.Contains(t, state.Error, "context canceled")
}

func TestSnapshot(t *testing.T) {
	f := newFixture(t, "NL", &fakeFetcher{})
	ctx := context.Background()

	snapshot := f.service.Snapshot(ctx)
	assert.Equal(t, "NL", snapshot.Market.Code)
	assert.Equal(t, "eAMS Marketpulse | "+snapshot.Market.DisplayName, snapshot.PageTitle)
	assert.True(t, snapshot.ShowLanguageToggle)
	assert.Nil(t, snapshot.Report)
	assert.NotEmpty(t, snapshot.Verticals)

	_, err := f.service.Select(ctx, snapshot.Verticals[0])
	require.NoError(t, err)
	f.service.Wait()

	snapshot = f.service.Snapshot(ctx)
	require.NotNil(t, snapshot.Report)
	assert.Equal(t, snapshot.Verticals[0], snapshot.Report.Vertical)
	assert.Equal(t, snapshot.Labels.LastUpdated, snapshot.Report.LastUpdated)
}
