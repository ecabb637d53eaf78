package models

import "time"

// Outcome of one dashboard render
const (
	OutcomeRendered       = "rendered"
	OutcomeInvalidListing = "invalid_listing"
	OutcomeFetchFailed    = "fetch_failed"
	OutcomeEmptyURL       = "empty_url"
	OutcomeNoListings     = "no_listings"
)

// Event records a single tracked render
type Event struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	SessionID  string    `json:"session_id" gorm:"size:36;index"`
	ListingURL string    `json:"listing_url"`
	Random     bool      `json:"random"`
	Outcome    string    `json:"outcome" gorm:"index"`
	DurationMs int64     `json:"duration_ms"`
	StartedAt  time.Time `json:"started_at"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Event) TableName() string {
	return "analytics_events"
}

// AnalyticsStats aggregates tracked renders since process start
type AnalyticsStats struct {
	TotalRenders    int            `json:"total_renders"`
	RandomRenders   int            `json:"random_renders"`
	Outcomes        map[string]int `json:"outcomes"`
	AvgDurationMs   float64        `json:"avg_duration_ms"`
	DistinctListing int            `json:"distinct_listings"`
}
