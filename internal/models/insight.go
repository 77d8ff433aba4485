package models

import (
	"fmt"
	"time"
)

// FallbackReportText is stored when the provider answers without any text
const FallbackReportText = "No content generated."

// QuarterInfo is the calendar context injected into a prompt. It is derived per fetch and never cached.
type QuarterInfo struct {
	CurrentQuarter  int `json:"currentQuarter"`
	CurrentYear     int `json:"currentYear"`
	NextQuarter     int `json:"nextQuarter"`
	NextQuarterYear int `json:"nextQuarterYear"`
}

// Source is one web citation attached to a report
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// InsightResult is the normalized outcome of one successful fetch.
// A refresh produces a new InsightResult instead of mutating a cached one.
type InsightResult struct {
	ID              string       `json:"id"`
	Vertical        string       `json:"vertical"`
	Mode            LanguageMode `json:"mode"`
	Text            string       `json:"text"`
	Sources         []Source     `json:"sources"`
	FetchedAt       time.Time    `json:"fetchedAt"`
	Provider        string       `json:"provider"`
	Model           string       `json:"model"`
	MissingSections []string     `json:"missingSections,omitempty"`
}

// CacheKey identifies one cached report: vertical name plus language mode
type CacheKey struct {
	Vertical string
	Mode     LanguageMode
}

// NewCacheKey creates a composite cache key
func NewCacheKey(vertical string, mode LanguageMode) CacheKey {
	return CacheKey{Vertical: vertical, Mode: mode}
}

// String renders the key as "<vertical>-EN" or "<vertical>-NATIVE"
func (k CacheKey) String() string {
	return fmt.Sprintf("%s-%s", k.Vertical, k.Mode.CacheTag())
}

// InsightEvent is the payload of insight lifecycle events
type InsightEvent struct {
	FetchID  string       `json:"fetchId"`
	Vertical string       `json:"vertical"`
	Mode     LanguageMode `json:"mode"`
	Key      string       `json:"key"`
	Error    string       `json:"error,omitempty"`
}
