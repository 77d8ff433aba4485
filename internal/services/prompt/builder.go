// Package prompt builds the market-insight instruction sent to the AI provider.
package prompt

import (
	"fmt"
	"strings"

	"github.com/ternarybob/marketpulse/internal/models"
)

// DefaultLanguage is the output language in english mode
const DefaultLanguage = "English"

// Section keys of the report schema
const (
	SectionExecutiveSummary = "executive_summary"
	SectionMarketHealth     = "market_health"
	SectionSeasonalDemand   = "seasonal_demand"
	SectionBuyerInfluencers = "buyer_influencers"
	SectionKeyTakeaways     = "key_takeaways"
	SectionKeywords         = "keywords"
	SectionCurrentQuarter   = "current_quarter"
	SectionLookAhead        = "look_ahead"
)

// Schema returns the ordered report structure localized by catalog.
// Quarter sections embed the quarter labels in their titles.
func Schema(catalog *models.TranslationCatalog, quarter models.QuarterInfo) models.ReportSchema {
	s := catalog.Sections
	return models.ReportSchema{
		DemandIncrease: catalog.DemandIncrease,
		DemandDecrease: catalog.DemandDecrease,
		Sections: []models.SectionSpec{
			{
				Key: SectionExecutiveSummary, Level: 2, Title: s.ExecutiveSummary, Content: models.SectionContentProse,
				Instruction: "A brief, high-level overview of the vertical's current state and key opportunities.",
			},
			{
				Key: SectionMarketHealth, Level: 2, Title: s.MarketHealth, Content: models.SectionContentProse,
				Instruction: "Detailed analysis of the vertical's health, growth areas, declining segments, and recent consumer trends.",
			},
			{
				Key: SectionSeasonalDemand, Level: 2, Title: s.SeasonalDemand, Content: models.SectionContentProse,
				Instruction: "Identify key seasonal peaks and troughs. Provide actionable advice for sellers.",
			},
			{
				Key: SectionBuyerInfluencers, Level: 2, Title: s.BuyerInfluencers, Content: models.SectionContentProse,
				Instruction: "Analysis of the most important purchasing factors for customers, e.g. price, brand, quality, shipping.",
			},
			{
				Key: SectionKeyTakeaways, Level: 2, Title: s.KeyTakeaways, Content: models.SectionContentBullets,
				Instruction: "A bulleted list of concrete, actionable recommendations for stocking, pricing, and promotional strategies.",
			},
			{
				Key: SectionKeywords, Level: 2, Title: s.Keywords, Content: models.SectionContentBullets,
				Instruction: "A bulleted list of the top 10-15 relevant keywords that sellers should include in their listings to improve visibility.",
			},
			{
				Key: SectionCurrentQuarter, Level: 3, Content: models.SectionContentDemand,
				Title:       fmt.Sprintf("%s (Q%d %d)", s.CurrentQuarter, quarter.CurrentQuarter, quarter.CurrentYear),
				Instruction: "Specific items expected to surge or decline in demand right now.",
			},
			{
				Key: SectionLookAhead, Level: 3, Content: models.SectionContentProse,
				Title:       fmt.Sprintf("%s Q%d %d", s.LookAhead, quarter.NextQuarter, quarter.NextQuarterYear),
				Instruction: "A forecast and preparation advice for the upcoming quarter.",
			},
		},
	}
}

// BuildPrompt assembles the instruction for one vertical. It is a pure function of its inputs.
func BuildPrompt(vertical string, market models.MarketConfig, mode models.LanguageMode, quarter models.QuarterInfo, catalog *models.TranslationCatalog) string {
	language := market.Language
	if mode == models.LanguageModeEnglish || language == "" {
		language = DefaultLanguage
	}

	schema := Schema(catalog, quarter)

	var b strings.Builder
	fmt.Fprintf(&b, "As an expert e-commerce analyst for the %s market, provide a detailed and professionally formatted report for sellers on %s for the \"%s\" vertical. ",
		market.DisplayName, market.PlatformLabel, vertical)
	fmt.Fprintf(&b, "The report must be written in %s. Use current web search results for recent data.\n\n", language)

	b.WriteString("The report must follow this exact Markdown structure, using these headings verbatim and in this order:\n\n")
	for _, section := range schema.Sections {
		b.WriteString(section.Marker())
		b.WriteString(section.Title)
		b.WriteString("\n")

		switch section.Content {
		case models.SectionContentBullets:
			fmt.Fprintf(&b, "(%s Write every item on its own line starting with \"%s\".)\n\n", section.Instruction, models.BulletMarker)
		case models.SectionContentDemand:
			fmt.Fprintf(&b, "(%s Write the line \"%s\" followed by a bulleted list, then a blank line, then the line \"%s\" followed by a bulleted list.)\n\n",
				section.Instruction, schema.DemandIncrease, schema.DemandDecrease)
		default:
			fmt.Fprintf(&b, "(%s)\n\n", section.Instruction)
		}
	}

	b.WriteString("Formatting rules:\n")
	fmt.Fprintf(&b, "%sStart directly with the first heading. Do not add any introduction, preamble or closing remarks.\n", models.BulletMarker)
	fmt.Fprintf(&b, "%sUse only \"%s\" and \"%s\" headings and \"%s\" bullets. Separate paragraphs with a blank line.\n",
		models.BulletMarker, strings.TrimSpace(models.HeadingMarker2), strings.TrimSpace(models.HeadingMarker3), strings.TrimSpace(models.BulletMarker))
	fmt.Fprintf(&b, "%sDo not use numbered lists, tables, nested bullets, bold, italics or links.\n", models.BulletMarker)

	return b.String()
}
