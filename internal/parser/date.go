package parser

import (
	"strings"
	"time"
)

// Clock returns the current time. Tests pin it.
type Clock func() time.Time

type dateRule struct {
	marker  string
	daysAgo int
}

// Longer markers first so "day before yesterday" is not read as "yesterday".
var dateRules = []dateRule{
	{"day before yesterday", 2},
	{"yesterday", 1},
	{"today", 0},
}

// DateResolver turns relative day markers into dates.
type DateResolver struct {
	now Clock
}

func NewDateResolver(now Clock) *DateResolver {
	if now == nil {
		now = time.Now
	}
	return &DateResolver{now: now}
}

// Resolve returns the date text refers to, or the current time when there is no marker.
// Marked dates keep the current time of day so they sort sensibly against
// entries recorded on the same day.
func (r *DateResolver) Resolve(text string) time.Time {
	now := r.now()
	lower := strings.ToLower(text)
	for _, rule := range dateRules {
		if strings.Contains(lower, rule.marker) {
			return now.AddDate(0, 0, -rule.daysAgo)
		}
	}
	return now
}

// Now exposes the resolver's clock to callers that share it.
func (r *DateResolver) Now() time.Time {
	return r.now()
}
