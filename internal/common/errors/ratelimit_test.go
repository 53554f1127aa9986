package errors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseRateLimitInfo(t *testing.T) {
	tests := []struct {
		name    string
		details string
		want    *RateLimitInfo
	}{
		{
			name:    "documented phrasing",
			details: "3 evaluation tests per hour",
			want:    &RateLimitInfo{Limit: 3, Period: "hour"},
		},
		{
			name:    "singular test",
			details: "1 evaluation test per day",
			want:    &RateLimitInfo{Limit: 1, Period: "day"},
		},
		{
			name:    "embedded in prose",
			details: "You have used all of your 5 evaluation tests per hour. Try again later.",
			want:    &RateLimitInfo{Limit: 5, Period: "hour"},
		},
		{
			name:    "mixed case",
			details: "10 Evaluation Tests Per Day",
			want:    &RateLimitInfo{Limit: 10, Period: "day"},
		},
		{
			name:    "no match",
			details: "quota exceeded",
			want:    nil,
		},
		{
			name:    "empty",
			details: "",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRateLimitInfo(tt.details))
		})
	}
}

func TestIsRateLimitBody(t *testing.T) {
	assert.True(t, IsRateLimitBody("Too many evaluation requests"))
	assert.True(t, IsRateLimitBody("rate limit exceeded for user"))
	assert.True(t, IsRateLimitBody("You have exceeded your evaluation requests"))
	assert.False(t, IsRateLimitBody("document too large"))
	assert.False(t, IsRateLimitBody(""))
}

func TestRateLimitInfo_OrDefault(t *testing.T) {
	var missing *RateLimitInfo
	assert.Equal(t, RateLimitInfo{Limit: 3, Period: "hour"}, missing.OrDefault())

	parsed := &RateLimitInfo{Limit: 5, Period: "day"}
	assert.Equal(t, *parsed, parsed.OrDefault())
}

func TestRateLimitInfo_NextAvailable(t *testing.T) {
	now := time.Date(2025, time.March, 10, 14, 35, 12, 0, time.UTC)

	hourly := RateLimitInfo{Limit: 3, Period: "hour"}
	assert.Equal(t, time.Date(2025, time.March, 10, 15, 0, 0, 0, time.UTC), hourly.NextAvailable(now))

	daily := RateLimitInfo{Limit: 3, Period: "day"}
	assert.Equal(t, time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC), daily.NextAvailable(now))

	unknown := RateLimitInfo{Limit: 3, Period: "week"}
	assert.True(t, unknown.NextAvailable(now).IsZero())
}

func TestRateLimitError_CarriesParsedInfo(t *testing.T) {
	info := ParseRateLimitInfo("3 evaluation tests per hour")
	err := NewRateLimitError(429, "Too many evaluation requests", "3 evaluation tests per hour", info)

	assert.True(t, err.IsRateLimit())
	assert.Equal(t, 429, err.Status)
	assert.Equal(t, 3, err.RateLimit.Limit)
	assert.Equal(t, "hour", err.RateLimit.Period)
}
