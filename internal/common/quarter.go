package common

import (
	"math"
	"time"

	"github.com/ternarybob/marketpulse/internal/models"
)

// weeksPerQuarter approximates a quarter as 13 weeks of the week-of-year
const weeksPerQuarter = 13

// CurrentQuarterInfo derives the current and next calendar quarter from now.
// The quarter is ceil(week/13) capped at 4, where week counts Sunday-started weeks
// from the week containing January 1st. The next quarter wraps 4 -> 1 into the next year.
func CurrentQuarterInfo(now time.Time) models.QuarterInfo {
	jan1 := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	dayOfYear := now.YearDay() - 1

	week := int(math.Ceil(float64(dayOfYear+int(jan1.Weekday())+1) / 7))
	quarter := int(math.Ceil(float64(week) / weeksPerQuarter))
	if quarter > 4 {
		quarter = 4
	}
	if quarter < 1 {
		quarter = 1
	}

	info := models.QuarterInfo{
		CurrentQuarter:  quarter,
		CurrentYear:     now.Year(),
		NextQuarter:     quarter + 1,
		NextQuarterYear: now.Year(),
	}
	if quarter == 4 {
		info.NextQuarter = 1
		info.NextQuarterYear = now.Year() + 1
	}

	return info
}
