// Package dashboard owns the single selection state of the session: which
// vertical is shown, in which language, and whether its report is loading.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"golang.org/x/sync/singleflight"

	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/markets"
	"github.com/ternarybob/marketpulse/internal/models"
	"github.com/ternarybob/marketpulse/internal/services/report"
)

var (
	// ErrUnknownVertical is returned when a vertical is not in the active catalog
	ErrUnknownVertical = errors.New("unknown vertical")
	// ErrNoSelection is returned by operations that need a selected vertical
	ErrNoSelection = errors.New("no vertical selected")
	// ErrNoReport is returned when the current selection has no cached report yet
	ErrNoReport = errors.New("no report available for the current selection")
	// ErrLanguageFixed is returned when the market has no alternative language
	ErrLanguageFixed = errors.New("language toggle is not available for this market")
	// ErrInvalidMode is returned for unknown language modes
	ErrInvalidMode = errors.New("invalid language mode")
)

// DefaultFetchTimeout bounds one provider call when no timeout is configured
const DefaultFetchTimeout = 5 * time.Minute

// Service coordinates selection, cache lookups and background fetches.
// Every fetch writes only the key captured when it started; fetches for
// different keys run concurrently and are never cancelled by a newer selection.
type Service struct {
	registry *markets.Registry
	market   models.MarketConfig
	fetcher  interfaces.InsightFetcher
	cache    interfaces.ResultCache
	events   interfaces.EventService
	timeout  time.Duration
	logger   arbor.ILogger

	mu       sync.Mutex
	state    models.SelectionState
	inflight map[string]string // cache key -> fetch ID

	group  singleflight.Group
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewService creates the selection flow for one market. events may be nil.
func NewService(registry *markets.Registry, marketCode string, fetcher interfaces.InsightFetcher, cache interfaces.ResultCache, events interfaces.EventService, timeout time.Duration, logger arbor.ILogger) *Service {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		registry: registry,
		market:   registry.ResolveMarket(marketCode),
		fetcher:  fetcher,
		cache:    cache,
		events:   events,
		timeout:  timeout,
		logger:   logger,
		state: models.SelectionState{
			VerticalIndex: -1,
			Mode:          models.LanguageModeNative,
		},
		inflight: make(map[string]string),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Market returns the resolved market the dashboard serves
func (s *Service) Market() models.MarketConfig {
	return s.market
}

// ShowLanguageToggle reports whether the market offers a second language
func (s *Service) ShowLanguageToggle() bool {
	return s.registry.ShowLanguageToggle(s.market.Code)
}

// Catalog returns the translation catalog of the current language mode
func (s *Service) Catalog() *models.TranslationCatalog {
	s.mu.Lock()
	mode := s.state.Mode
	s.mu.Unlock()
	return s.registry.ResolveTranslations(s.market.Code, mode)
}

// State returns a snapshot of the selection state
func (s *Service) State() models.SelectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Select makes vertical the current selection. A cached report is shown
// immediately; otherwise a background fetch starts unless one is already
// running for the same key.
func (s *Service) Select(ctx context.Context, vertical string) (models.SelectionState, error) {
	s.mu.Lock()
	catalog := s.registry.ResolveTranslations(s.market.Code, s.state.Mode)
	index := catalog.VerticalIndex(vertical)
	if index < 0 {
		s.mu.Unlock()
		return s.State(), fmt.Errorf("%w: %s", ErrUnknownVertical, vertical)
	}

	s.state.Vertical = vertical
	s.state.VerticalIndex = index
	s.state.Error = ""
	s.showOrFetchLocked(ctx)
	state := s.state
	s.mu.Unlock()

	s.logger.Debug().
		Str("vertical", vertical).
		Str("mode", state.Mode.String()).
		Bool("loading", state.Loading).
		Msg("Vertical selected")

	s.publish(interfaces.EventSelectionChanged, state)
	return state, nil
}

// SelectIndex selects the vertical at index in the active catalog
func (s *Service) SelectIndex(ctx context.Context, index int) (models.SelectionState, error) {
	vertical := s.Catalog().VerticalAt(index)
	if vertical == "" {
		return s.State(), fmt.Errorf("%w: index %d", ErrUnknownVertical, index)
	}
	return s.Select(ctx, vertical)
}

// Refresh fetches the current selection again, bypassing the cache. When a
// fetch for the same key is already running the refresh joins it instead of
// issuing another provider call for every click.
func (s *Service) Refresh(ctx context.Context) (models.SelectionState, error) {
	s.mu.Lock()
	if !s.state.HasSelection() {
		s.mu.Unlock()
		return s.State(), ErrNoSelection
	}

	s.state.Error = ""
	s.state.Loading = true
	s.startFetchLocked(s.state.Key())
	state := s.state
	s.mu.Unlock()

	s.logger.Info().Str("key", state.Key().String()).Msg("Report refresh requested")
	s.publish(interfaces.EventSelectionChanged, state)
	return state, nil
}

// ToggleLanguage switches between native and english mode
func (s *Service) ToggleLanguage(ctx context.Context) (models.SelectionState, error) {
	return s.SetLanguage(ctx, s.State().Mode.Toggle())
}

// SetLanguage switches the language mode. The selected vertical is carried over
// by its index in the catalog, then shown from cache or fetched.
func (s *Service) SetLanguage(ctx context.Context, mode models.LanguageMode) (models.SelectionState, error) {
	if !mode.IsValid() {
		return s.State(), fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	if mode != models.LanguageModeNative && !s.ShowLanguageToggle() {
		return s.State(), ErrLanguageFixed
	}

	s.mu.Lock()
	if s.state.Mode == mode {
		state := s.state
		s.mu.Unlock()
		return state, nil
	}

	s.state.Mode = mode
	s.state.Error = ""
	if s.state.HasSelection() {
		catalog := s.registry.ResolveTranslations(s.market.Code, mode)
		s.state.Vertical = catalog.VerticalAt(s.state.VerticalIndex)
		s.showOrFetchLocked(ctx)
	}
	state := s.state
	s.mu.Unlock()

	s.logger.Debug().
		Str("mode", mode.String()).
		Str("vertical", state.Vertical).
		Msg("Language mode changed")

	s.publish(interfaces.EventSelectionChanged, state)
	return state, nil
}

// PageTitle is the browser title of the dashboard
func (s *Service) PageTitle() string {
	return "eAMS Marketpulse | " + s.market.DisplayName
}

// Snapshot returns the market, labels, selection and current report in one value
func (s *Service) Snapshot(ctx context.Context) models.DashboardSnapshot {
	state := s.State()
	catalog := s.registry.ResolveTranslations(s.market.Code, state.Mode)

	snapshot := models.DashboardSnapshot{
		Market:             s.market,
		PageTitle:          s.PageTitle(),
		ShowLanguageToggle: s.ShowLanguageToggle(),
		Labels:             catalog.UI,
		Verticals:          catalog.Verticals,
		State:              state,
	}
	if view, err := s.Current(ctx); err == nil {
		snapshot.Report = view
	}
	return snapshot
}

// Current returns the cached report of the current selection formatted for display
func (s *Service) Current(ctx context.Context) (*models.ReportView, error) {
	state := s.State()
	if !state.HasSelection() {
		return nil, ErrNoSelection
	}

	result, ok := s.cache.Get(ctx, state.Vertical, state.Mode)
	if !ok {
		return nil, ErrNoReport
	}

	catalog := s.registry.ResolveTranslations(s.market.Code, state.Mode)
	return &models.ReportView{
		Title:       state.Vertical + " " + catalog.UI.ReportTitleSuffix,
		Vertical:    state.Vertical,
		Mode:        state.Mode,
		Text:        result.Text,
		Blocks:      report.FormatReport(result.Text),
		Sources:     result.Sources,
		FetchedAt:   result.FetchedAt,
		LastUpdated: catalog.UI.LastUpdated,
	}, nil
}

// ExportRequest builds the PDF export request of the current report
func (s *Service) ExportRequest(ctx context.Context) (*models.ExportRequest, error) {
	view, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	catalog := s.registry.ResolveTranslations(s.market.Code, view.Mode)
	return &models.ExportRequest{
		MarketCode:   s.market.Code,
		MarketName:   s.market.DisplayName,
		Vertical:     view.Vertical,
		Title:        view.Title,
		LastUpdated:  view.LastUpdated,
		FetchedAt:    view.FetchedAt,
		Blocks:       view.Blocks,
		Sources:      view.Sources,
		SourcesTitle: catalog.UI.SourcesTitle,
		Footer:       catalog.UI.FooterText,
	}, nil
}

// Insight returns the report for (vertical, mode), fetching it when it is not
// cached. Concurrent callers for the same key share one provider call.
func (s *Service) Insight(ctx context.Context, vertical string, mode models.LanguageMode) (*models.InsightResult, error) {
	if result, ok := s.cache.Get(ctx, vertical, mode); ok {
		return result, nil
	}

	key := models.NewCacheKey(vertical, mode)
	ch := s.group.DoChan(key.String(), func() (interface{}, error) {
		// A fetch that finished after the miss above has already cached the key
		if result, ok := s.cache.Get(s.ctx, key.Vertical, key.Mode); ok {
			return result, nil
		}
		return s.fetch(key)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.InsightResult), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Wait blocks until every background fetch has finished
func (s *Service) Wait() {
	s.wg.Wait()
}

// Close cancels in-flight fetches and waits for them to return
func (s *Service) Close() error {
	s.cancel()
	s.Wait()
	return nil
}

// showOrFetchLocked resolves the current key against the cache and starts a
// fetch on a miss. Caller holds s.mu.
func (s *Service) showOrFetchLocked(ctx context.Context) {
	key := s.state.Key()
	if _, ok := s.cache.Get(ctx, key.Vertical, key.Mode); ok {
		s.state.Loading = false
		return
	}
	s.state.Loading = true
	s.startFetchLocked(key)
}

// startFetchLocked starts a background fetch for key unless one is running.
// Caller holds s.mu.
func (s *Service) startFetchLocked(key models.CacheKey) {
	if _, running := s.inflight[key.String()]; running {
		return
	}

	fetchID := uuid.New().String()
	s.inflight[key.String()] = fetchID

	common.SafeGo(s.logger, &s.wg, "fetchInsights", func() {
		s.runFetch(key, fetchID)
	})
}

// runFetch performs one background fetch and settles the selection state
func (s *Service) runFetch(key models.CacheKey, fetchID string) {
	event := models.InsightEvent{
		FetchID:  fetchID,
		Vertical: key.Vertical,
		Mode:     key.Mode,
		Key:      key.String(),
	}
	s.publish(interfaces.EventInsightLoading, event)

	ch := s.group.DoChan(key.String(), func() (interface{}, error) {
		return s.fetch(key)
	})
	res := <-ch

	s.mu.Lock()
	delete(s.inflight, key.String())
	current := s.state.HasSelection() && s.state.Key() == key
	if current {
		s.state.Loading = false
		if res.Err != nil {
			s.state.Error = res.Err.Error()
		}
	}
	state := s.state
	s.mu.Unlock()

	if res.Err != nil {
		event.Error = res.Err.Error()
		s.publish(interfaces.EventInsightFailed, event)
	} else {
		s.publish(interfaces.EventInsightReady, event)
	}
	if current {
		s.publish(interfaces.EventSelectionChanged, state)
	}
}

// fetch calls the provider with its own timeout and caches a successful result
func (s *Service) fetch(key models.CacheKey) (*models.InsightResult, error) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	result, err := s.fetcher.FetchInsights(ctx, key.Vertical, key.Mode)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Put(ctx, key.Vertical, key.Mode, result); err != nil {
		s.logger.Warn().Err(err).Str("key", key.String()).Msg("Failed to cache insight result")
	}
	return result, nil
}

func (s *Service) publish(eventType interfaces.EventType, payload interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishSync(s.ctx, interfaces.Event{Type: eventType, Payload: payload}); err != nil {
		s.logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("Event delivery failed")
	}
}
