package models

import "time"

// SelectionState is the dashboard's single UI state
type SelectionState struct {
	Vertical      string       `json:"vertical"` // "" until the first selection
	VerticalIndex int          `json:"verticalIndex"`
	Mode          LanguageMode `json:"mode"`
	Loading       bool         `json:"loading"`
	Error         string       `json:"error,omitempty"`
}

// HasSelection reports whether a vertical has been chosen
func (s SelectionState) HasSelection() bool {
	return s.Vertical != ""
}

// Key returns the cache key of the current selection
func (s SelectionState) Key() CacheKey {
	return NewCacheKey(s.Vertical, s.Mode)
}

// ReportView is a cached result rendered for display
type ReportView struct {
	Title       string       `json:"title"`
	Vertical    string       `json:"vertical"`
	Mode        LanguageMode `json:"mode"`
	Text        string       `json:"text"`
	Blocks      []Block      `json:"blocks"`
	Sources     []Source     `json:"sources"`
	FetchedAt   time.Time    `json:"fetchedAt"`
	LastUpdated string       `json:"lastUpdated"`
}

// DashboardSnapshot is everything the dashboard page needs to render itself
type DashboardSnapshot struct {
	Market             MarketConfig   `json:"market"`
	PageTitle          string         `json:"pageTitle"`
	ShowLanguageToggle bool           `json:"showLanguageToggle"`
	Labels             UILabels       `json:"labels"`
	Verticals          []string       `json:"verticals"`
	State              SelectionState `json:"state"`
	Report             *ReportView    `json:"report,omitempty"`
}
