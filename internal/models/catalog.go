package models

// TranslationCatalog holds every localized string for one language
type TranslationCatalog struct {
	Code           string          `toml:"code" json:"code" validate:"required,lowercase"`
	UI             UILabels        `toml:"ui" json:"ui"`
	Sections       SectionHeadings `toml:"sections" json:"sections"`
	DemandIncrease string          `toml:"demand_increase" json:"demandIncrease" validate:"required"`
	DemandDecrease string          `toml:"demand_decrease" json:"demandDecrease" validate:"required"`
	Verticals      []string        `toml:"verticals" json:"verticals" validate:"required,min=1,dive,required"`
}

// UILabels are the dashboard labels of a catalog
type UILabels struct {
	WelcomeTitle       string `toml:"welcome_title" json:"welcomeTitle" validate:"required"`
	WelcomeIntro       string `toml:"welcome_intro" json:"welcomeIntro" validate:"required"`
	WelcomeInstruction string `toml:"welcome_instruction" json:"welcomeInstruction" validate:"required"`
	LoadingMessage     string `toml:"loading_message" json:"loadingMessage" validate:"required"`
	ErrorMessage       string `toml:"error_message" json:"errorMessage" validate:"required"`
	ReportTitleSuffix  string `toml:"report_title_suffix" json:"reportTitleSuffix" validate:"required"`
	LastUpdated        string `toml:"last_updated" json:"lastUpdated" validate:"required"`
	CopyButton         string `toml:"copy_button" json:"copyButton" validate:"required"`
	CopiedButton       string `toml:"copied_button" json:"copiedButton" validate:"required"`
	UpdateButton       string `toml:"update_button" json:"updateButton" validate:"required"`
	DownloadButton     string `toml:"download_button" json:"downloadButton" validate:"required"`
	SourcesTitle       string `toml:"sources_title" json:"sourcesTitle" validate:"required"`
	FooterText         string `toml:"footer_text" json:"footerText" validate:"required"`
}

// SectionHeadings are the localized report section titles
type SectionHeadings struct {
	ExecutiveSummary string `toml:"executive_summary" json:"executiveSummary" validate:"required"`
	MarketHealth     string `toml:"market_health" json:"marketHealth" validate:"required"`
	SeasonalDemand   string `toml:"seasonal_demand" json:"seasonalDemand" validate:"required"`
	BuyerInfluencers string `toml:"buyer_influencers" json:"buyerInfluencers" validate:"required"`
	KeyTakeaways     string `toml:"key_takeaways" json:"keyTakeaways" validate:"required"`
	Keywords         string `toml:"keywords" json:"keywords" validate:"required"`
	CurrentQuarter   string `toml:"current_quarter" json:"currentQuarter" validate:"required"`
	LookAhead        string `toml:"look_ahead" json:"lookAhead" validate:"required"`
}

// VerticalIndex returns the position of name in the catalog's vertical list, or -1
func (c *TranslationCatalog) VerticalIndex(name string) int {
	for i, v := range c.Verticals {
		if v == name {
			return i
		}
	}
	return -1
}

// VerticalAt returns the vertical at index, or "" when out of range
func (c *TranslationCatalog) VerticalAt(index int) string {
	if index < 0 || index >= len(c.Verticals) {
		return ""
	}
	return c.Verticals[index]
}
