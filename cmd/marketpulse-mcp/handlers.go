package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/markets"
	"github.com/ternarybob/marketpulse/internal/models"
	"github.com/ternarybob/marketpulse/internal/services/insights"
)

// insightSource returns the cached or freshly fetched report for a key
type insightSource interface {
	Insight(ctx context.Context, vertical string, mode models.LanguageMode) (*models.InsightResult, error)
}

type toolHandlers struct {
	registry   *markets.Registry
	marketCode string
	insights   insightSource
	logger     arbor.ILogger
}

func newToolHandlers(registry *markets.Registry, marketCode string, source insightSource, logger arbor.ILogger) *toolHandlers {
	return &toolHandlers{
		registry:   registry,
		marketCode: registry.ResolveMarket(marketCode).Code,
		insights:   source,
		logger:     logger,
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(format string, args ...interface{}) *mcp.CallToolResult {
	result := textResult("Error: " + fmt.Sprintf(format, args...))
	result.IsError = true
	return result
}

// parseMode reads the optional mode argument. English is refused for markets
// whose native catalog already is the default one.
func (h *toolHandlers) parseMode(request mcp.CallToolRequest) (models.LanguageMode, error) {
	mode := models.LanguageMode(request.GetString("mode", string(models.LanguageModeNative)))
	if !mode.IsValid() {
		return "", fmt.Errorf("unknown mode %q (use 'native' or 'english')", mode)
	}
	if mode == models.LanguageModeEnglish && !h.registry.ShowLanguageToggle(h.marketCode) {
		return "", fmt.Errorf("market %s has no separate english mode", h.marketCode)
	}
	return mode, nil
}

// handleListMarkets implements the list_markets tool
func (h *toolHandlers) handleListMarkets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return textResult(formatMarkets(h.registry, h.marketCode)), nil
}

// handleListVerticals implements the list_verticals tool
func (h *toolHandlers) handleListVerticals(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode, err := h.parseMode(request)
	if err != nil {
		return errorResult("%v", err), nil
	}

	market := h.registry.ResolveMarket(h.marketCode)
	catalog := h.registry.ResolveTranslations(h.marketCode, mode)
	return textResult(formatVerticals(market, mode, catalog.Verticals)), nil
}

// handleGetMarketInsights implements the get_market_insights tool
func (h *toolHandlers) handleGetMarketInsights(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	vertical, err := request.RequireString("vertical")
	if err != nil || vertical == "" {
		return errorResult("vertical parameter is required"), nil
	}

	mode, err := h.parseMode(request)
	if err != nil {
		return errorResult("%v", err), nil
	}

	catalog := h.registry.ResolveTranslations(h.marketCode, mode)
	if catalog.VerticalIndex(vertical) < 0 {
		return errorResult("unknown vertical %q for market %s (see list_verticals)", vertical, h.marketCode), nil
	}

	result, err := h.insights.Insight(ctx, vertical, mode)
	if err != nil {
		cause := insights.CauseOf(err)
		h.logger.Error().Err(err).Str("vertical", vertical).Str("mode", mode.String()).Str("cause", string(cause)).Msg("Insight fetch failed")
		return errorResult("%v (cause: %s)", err, cause), nil
	}

	market := h.registry.ResolveMarket(h.marketCode)
	return textResult(formatInsight(market, catalog, result)), nil
}
