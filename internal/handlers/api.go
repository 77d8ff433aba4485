package handlers

import (
	"context"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/markets"
	"github.com/ternarybob/marketpulse/internal/models"
)

// ReportCounter reports how many insight results are cached
type ReportCounter interface {
	Len(ctx context.Context) int
}

type APIHandler struct {
	registry *markets.Registry
	reports  ReportCounter
	logger   arbor.ILogger
}

func NewAPIHandler(registry *markets.Registry, reports ReportCounter, logger arbor.ILogger) *APIHandler {
	return &APIHandler{
		registry: registry,
		reports:  reports,
		logger:   logger,
	}
}

// VersionHandler returns version information
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version":    common.GetVersion(),
		"build":      common.Build,
		"git_commit": common.GitCommit,
	})
}

// HealthHandler returns health check status
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	health := map[string]interface{}{
		"status":     "ok",
		"goroutines": common.GetGoroutineCount(),
	}
	if h.reports != nil {
		health["cached_reports"] = h.reports.Len(r.Context())
	}

	WriteJSON(w, http.StatusOK, health)
}

// MarketsHandler lists every market in the registry
func (h *APIHandler) MarketsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	type marketEntry struct {
		models.MarketConfig
		ShowLanguageToggle bool `json:"showLanguageToggle"`
	}

	list := h.registry.Markets()
	entries := make([]marketEntry, 0, len(list))
	for _, market := range list {
		entries = append(entries, marketEntry{
			MarketConfig:       market,
			ShowLanguageToggle: h.registry.ShowLanguageToggle(market.Code),
		})
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"default": h.registry.DefaultMarketCode(),
		"markets": entries,
	})
}

// NotFoundHandler handles 404 errors with JSON response
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":   "Not Found",
		"path":    r.URL.Path,
		"message": "The requested endpoint does not exist",
	})
}
