package analytics

import (
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"housefinder/server/internal/models"
	"housefinder/server/internal/queue"
)

// Tracker brackets dashboard renders and aggregates them. A nil *Tracker is
// valid and tracks nothing.
type Tracker struct {
	logger *logrus.Logger
	queue  *queue.EventQueue
	now    func() time.Time

	mu            sync.RWMutex
	total         int
	random        int
	outcomes      map[string]int
	listings      map[string]bool
	totalDuration time.Duration
}

// NewTracker creates a tracker. Events go through q when given, otherwise
// they are recorded synchronously.
func NewTracker(logger *logrus.Logger, q *queue.EventQueue) *Tracker {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	t := &Tracker{
		logger:   logger,
		queue:    q,
		now:      time.Now,
		outcomes: make(map[string]int),
		listings: make(map[string]bool),
	}
	if q != nil {
		q.Subscribe(t.Record)
	}
	return t
}

// Session is one tracked render
type Session struct {
	ID         string
	tracker    *Tracker
	startedAt  time.Time
	listingURL string
	random     bool
	stopped    bool
}

// Start opens a tracking bracket
func (t *Tracker) Start(listingURL string, random bool) *Session {
	if t == nil {
		return nil
	}
	return &Session{
		ID:         uuid.New().String(),
		tracker:    t,
		startedAt:  t.now(),
		listingURL: listingURL,
		random:     random,
	}
}

// SetListing updates the tracked listing, e.g. after a random pick
func (s *Session) SetListing(listingURL string) {
	if s == nil {
		return
	}
	s.listingURL = listingURL
}

// Stop closes the bracket and emits its event. Further calls are ignored.
func (s *Session) Stop(outcome string) {
	if s == nil || s.stopped {
		return
	}
	s.stopped = true

	t := s.tracker
	event := &models.Event{
		SessionID:  s.ID,
		ListingURL: s.listingURL,
		Random:     s.random,
		Outcome:    outcome,
		DurationMs: t.now().Sub(s.startedAt).Milliseconds(),
		StartedAt:  s.startedAt,
	}

	if t.queue != nil {
		err := t.queue.Push([]*models.Event{event})
		if err == nil {
			return
		}
		t.logger.WithError(err).Warn("Analytics queue rejected event, recording in place")
	}
	t.Record([]*models.Event{event})
}

// Record adds events to the running totals
func (t *Tracker) Record(events []*models.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, event := range events {
		t.total++
		if event.Random {
			t.random++
		}
		t.outcomes[event.Outcome]++
		if event.ListingURL != "" {
			t.listings[event.ListingURL] = true
		}
		t.totalDuration += time.Duration(event.DurationMs) * time.Millisecond

		t.logger.WithFields(logrus.Fields{
			"session_id":  event.SessionID,
			"url":         event.ListingURL,
			"random":      event.Random,
			"outcome":     event.Outcome,
			"duration_ms": event.DurationMs,
		}).Info("Dashboard rendered")
	}
	return nil
}

// Stats returns a snapshot of the running totals
func (t *Tracker) Stats() models.AnalyticsStats {
	stats := models.AnalyticsStats{Outcomes: map[string]int{}}
	if t == nil {
		return stats
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	stats.TotalRenders = t.total
	stats.RandomRenders = t.random
	stats.DistinctListing = len(t.listings)
	for outcome, count := range t.outcomes {
		stats.Outcomes[outcome] = count
	}
	if t.total > 0 {
		stats.AvgDurationMs = float64(t.totalDuration.Milliseconds()) / float64(t.total)
	}
	return stats
}
