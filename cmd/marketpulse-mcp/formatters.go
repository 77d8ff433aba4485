package main

import (
	"fmt"
	"strings"

	"github.com/ternarybob/marketpulse/internal/markets"
	"github.com/ternarybob/marketpulse/internal/models"
	"github.com/ternarybob/marketpulse/internal/services/report"
)

// formatMarkets renders the market registry as a markdown table
func formatMarkets(registry *markets.Registry, current string) string {
	var sb strings.Builder

	sb.WriteString("# Markets\n\n")
	sb.WriteString("| Code | Name | Platform | Language | English mode |\n")
	sb.WriteString("|------|------|----------|----------|--------------|\n")

	for _, m := range registry.Markets() {
		code := m.Code
		if m.Code == current {
			code = "**" + m.Code + "** (configured)"
		}
		english := "no"
		if registry.ShowLanguageToggle(m.Code) {
			english = "yes"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n", code, m.DisplayName, m.PlatformLabel, m.Language, english))
	}

	return sb.String()
}

// formatVerticals renders a numbered vertical list
func formatVerticals(market models.MarketConfig, mode models.LanguageMode, verticals []string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Verticals: %s (%s)\n\n", market.DisplayName, mode))
	for i, v := range verticals {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, v))
	}

	return sb.String()
}

// formatInsight renders a report, normalized to the markdown subset, followed by its numbered sources
func formatInsight(market models.MarketConfig, catalog *models.TranslationCatalog, result *models.InsightResult) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s %s\n\n", result.Vertical, catalog.UI.ReportTitleSuffix))
	sb.WriteString(fmt.Sprintf("**Market:** %s | **%s:** %s\n\n",
		market.DisplayName, catalog.UI.LastUpdated, result.FetchedAt.Format("2006-01-02 15:04")))

	sb.WriteString(report.PlainText(report.FormatReport(result.Text)))
	sb.WriteString("\n")

	if len(result.Sources) > 0 {
		sb.WriteString(fmt.Sprintf("\n## %s\n\n", catalog.UI.SourcesTitle))
		for i, src := range result.Sources {
			title := src.Title
			if title == "" {
				title = src.URI
			}
			sb.WriteString(fmt.Sprintf("%d. [%s](%s)\n", i+1, title, src.URI))
		}
	}

	if len(result.MissingSections) > 0 {
		sb.WriteString(fmt.Sprintf("\n_Missing sections: %s_\n", strings.Join(result.MissingSections, ", ")))
	}

	return sb.String()
}
