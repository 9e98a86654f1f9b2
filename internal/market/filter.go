package market

import (
	"strings"
	"time"
)

// FilterConfig holds the configured allow-list and thresholds a market
// must clear to be considered tradable.
type FilterConfig struct {
	TargetCities        []string // configured city allow-list, matched case-insensitive substring
	MinLeadTimeHours     float64 // inclusive lower bound, default 24
	MaxLeadTimeHours     float64 // inclusive upper bound, default 72
	MinVolume24h         float64 // default 5000
}

var temperatureTerms = []string{"temperature", "temp", "°f", "°c"}
var thresholdMarkers = []string{">", "<", "above", "below", "exceed"}

// IsTradable reports whether a market passes all §4.D checks: it mentions
// a temperature term, mentions an allow-listed city, its resolution is
// between the configured lead-time bounds, it has sufficient 24h volume,
// and its question carries a clear threshold marker.
func IsTradable(m Market, cfg FilterConfig, now time.Time) bool {
	lower := strings.ToLower(m.Question)

	if !containsAny(lower, temperatureTerms) {
		return false
	}
	if !matchesAnyCity(lower, cfg.TargetCities) {
		return false
	}

	hoursUntil := m.EndDate.Sub(now).Hours()
	minLead, maxLead := cfg.MinLeadTimeHours, cfg.MaxLeadTimeHours
	if minLead == 0 {
		minLead = 24
	}
	if maxLead == 0 {
		maxLead = 72
	}
	if hoursUntil < minLead || hoursUntil > maxLead {
		return false
	}

	minVolume := cfg.MinVolume24h
	if minVolume == 0 {
		minVolume = 5000
	}
	if m.Volume24h < minVolume {
		return false
	}

	if !containsAny(lower, thresholdMarkers) {
		return false
	}

	return true
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func matchesAnyCity(lowerQuestion string, cities []string) bool {
	for _, c := range cities {
		if strings.Contains(lowerQuestion, strings.ToLower(c)) {
			return true
		}
	}
	return false
}
