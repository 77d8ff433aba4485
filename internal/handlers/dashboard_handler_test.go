package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/markets"
	"github.com/ternarybob/marketpulse/internal/models"
	"github.com/ternarybob/marketpulse/internal/services/cache"
	"github.com/ternarybob/marketpulse/internal/services/dashboard"
	"github.com/ternarybob/marketpulse/internal/services/pdf"
	"github.com/ternarybob/marketpulse/internal/storage/badger"
)

type stubFetcher struct{}

func (stubFetcher) FetchInsights(ctx context.Context, vertical string, mode models.LanguageMode) (*models.InsightResult, error) {
	return &models.InsightResult{
		ID:        "ins_test",
		Vertical:  vertical,
		Mode:      mode,
		Text:      "## Executive Summary\nDemand is rising.\n- Gifts\n- Outdoor",
		Sources:   []models.Source{{URI: "https://example.com/report", Title: "Report"}},
		FetchedAt: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC),
	}, nil
}

type testAPI struct {
	dashboard *dashboard.Service
	handler   *DashboardHandler
	registry  *markets.Registry
}

func newTestAPI(t *testing.T, marketCode string) *testAPI {
	t.Helper()
	logger := arbor.NewLogger()

	registry, err := markets.Load(logger)
	require.NoError(t, err)

	manager, err := badger.NewManager(logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })

	service := dashboard.NewService(registry, marketCode, stubFetcher{}, cache.NewService(manager.InsightStorage(), logger), nil, time.Minute, logger)
	t.Cleanup(func() { _ = service.Close() })

	return &testAPI{
		dashboard: service,
		handler:   NewDashboardHandler(service, pdf.NewService(common.NewDefaultConfig().Export, logger), logger),
		registry:  registry,
	}
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) models.DashboardSnapshot {
	t.Helper()
	var snapshot models.DashboardSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	return snapshot
}

func TestDashboardStateHandler(t *testing.T) {
	api := newTestAPI(t, "DE")

	rec := httptest.NewRecorder()
	api.handler.DashboardStateHandler(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	snapshot := decodeSnapshot(t, rec)
	assert.Equal(t, "DE", snapshot.Market.Code)
	assert.True(t, snapshot.ShowLanguageToggle)
	assert.Equal(t, -1, snapshot.State.VerticalIndex)
	assert.Nil(t, snapshot.Report)

	rec = httptest.NewRecorder()
	api.handler.DashboardStateHandler(rec, httptest.NewRequest(http.MethodPost, "/api/dashboard", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSelectHandler(t *testing.T) {
	api := newTestAPI(t, "UK")
	verticals := api.dashboard.Catalog().Verticals

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantIndex  int
	}{
		{"by name", `{"vertical":"` + verticals[1] + `"}`, http.StatusOK, 1},
		{"by index", `{"vertical":"3"}`, http.StatusOK, 3},
		{"unknown vertical", `{"vertical":"Spaceships"}`, http.StatusBadRequest, 3},
		{"index out of range", `{"vertical":"42"}`, http.StatusBadRequest, 3},
		{"missing vertical", `{}`, http.StatusBadRequest, 3},
		{"malformed body", `{"vertical":`, http.StatusBadRequest, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			api.handler.SelectHandler(rec, httptest.NewRequest(http.MethodPost, "/api/select", strings.NewReader(tt.body)))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantIndex, api.dashboard.State().VerticalIndex)
		})
	}
}

func TestRefreshHandler_RequiresSelection(t *testing.T) {
	api := newTestAPI(t, "UK")

	rec := httptest.NewRecorder()
	api.handler.RefreshHandler(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	_, err := api.dashboard.SelectIndex(context.Background(), 0)
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	api.handler.RefreshHandler(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestLanguageHandler(t *testing.T) {
	api := newTestAPI(t, "FR")

	// Empty body toggles
	rec := httptest.NewRecorder()
	api.handler.LanguageHandler(rec, httptest.NewRequest(http.MethodPost, "/api/language", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.LanguageModeEnglish, decodeSnapshot(t, rec).State.Mode)

	rec = httptest.NewRecorder()
	api.handler.LanguageHandler(rec, httptest.NewRequest(http.MethodPost, "/api/language", strings.NewReader(`{"mode":"native"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	snapshot := decodeSnapshot(t, rec)
	assert.Equal(t, models.LanguageModeNative, snapshot.State.Mode)
	assert.Equal(t, api.registry.ResolveTranslations("FR", models.LanguageModeNative).Verticals, snapshot.Verticals)

	rec = httptest.NewRecorder()
	api.handler.LanguageHandler(rec, httptest.NewRequest(http.MethodPost, "/api/language", strings.NewReader(`{"mode":"latin"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLanguageHandler_FixedMarket(t *testing.T) {
	api := newTestAPI(t, "US")

	rec := httptest.NewRecorder()
	api.handler.LanguageHandler(rec, httptest.NewRequest(http.MethodPost, "/api/language", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestReportHandlers(t *testing.T) {
	api := newTestAPI(t, "UK")

	rec := httptest.NewRecorder()
	api.handler.ReportTextHandler(rec, httptest.NewRequest(http.MethodGet, "/api/report/text", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	_, err := api.dashboard.SelectIndex(context.Background(), 0)
	require.NoError(t, err)
	api.dashboard.Wait()

	rec = httptest.NewRecorder()
	api.handler.ReportTextHandler(rec, httptest.NewRequest(http.MethodGet, "/api/report/text", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "## Executive Summary")
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	api.handler.ReportPDFHandler(rec, httptest.NewRequest(http.MethodGet, "/api/report/pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "marketpulse-uk-")
	assert.Equal(t, "%PDF", rec.Body.String()[:4])
}
