package errors

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RateLimitInfo is the quota context parsed out of a rejected request.
type RateLimitInfo struct {
	Limit  int    `json:"limit"`
	Period string `json:"period"`
}

// The backend signals quota exhaustion textually, not structurally. The
// details field embeds a phrase in the grammar
//
//	<N> evaluation test[s] per <period>
//
// e.g. "3 evaluation tests per hour". Matching is case-insensitive and
// tolerant of surrounding prose.
var rateLimitDetailsPattern = regexp.MustCompile(`(?i)(\d+)\s+evaluation\s+tests?\s+per\s+(\w+)`)

// Phrases in an error body that identify a quota rejection even without a
// 429 status.
var rateLimitPhrases = []string{
	"too many evaluation requests",
	"rate limit",
	"evaluation requests",
}

// ParseRateLimitInfo extracts the limit and period from a backend details
// string. Returns nil when the text does not match the documented grammar.
func ParseRateLimitInfo(details string) *RateLimitInfo {
	m := rateLimitDetailsPattern.FindStringSubmatch(details)
	if m == nil {
		return nil
	}
	limit, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &RateLimitInfo{
		Limit:  limit,
		Period: strings.ToLower(m[2]),
	}
}

// IsRateLimitBody reports whether an error body's error field reads as a
// quota rejection.
func IsRateLimitBody(errorField string) bool {
	lower := strings.ToLower(errorField)
	for _, phrase := range rateLimitPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// DefaultRateLimit is assumed when a quota rejection carries no parseable
// details, matching the backend's documented default of 3 tests per hour.
var DefaultRateLimit = RateLimitInfo{Limit: 3, Period: "hour"}

// OrDefault returns the parsed info, or the documented default when nil.
func (i *RateLimitInfo) OrDefault() RateLimitInfo {
	if i == nil {
		return DefaultRateLimit
	}
	return *i
}

// NextAvailable computes when quota resets relative to now: the top of the
// next hour for hourly limits, local midnight for daily ones. The zero time
// is returned for periods the client does not know how to project.
func (i RateLimitInfo) NextAvailable(now time.Time) time.Time {
	switch i.Period {
	case "hour":
		y, m, d := now.Date()
		return time.Date(y, m, d, now.Hour()+1, 0, 0, 0, now.Location())
	case "day":
		y, m, d := now.Date()
		return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
	default:
		return time.Time{}
	}
}
