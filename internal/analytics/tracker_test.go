package analytics

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housefinder/server/internal/models"
	"housefinder/server/internal/queue"
)

func fixedClock(times ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := times[i]
		if i < len(times)-1 {
			i++
		}
		return t
	}
}

func TestTracker_StartStop(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tracker := NewTracker(logrus.New(), nil)
	tracker.now = fixedClock(base, base.Add(250*time.Millisecond))

	session := tracker.Start("https://www.rightmove.co.uk/properties/1", false)
	session.Stop(models.OutcomeRendered)
	session.Stop(models.OutcomeRendered)

	stats := tracker.Stats()
	assert.Equal(t, 1, stats.TotalRenders)
	assert.Equal(t, 0, stats.RandomRenders)
	assert.Equal(t, 1, stats.Outcomes[models.OutcomeRendered])
	assert.Equal(t, 1, stats.DistinctListing)
	assert.InDelta(t, 250, stats.AvgDurationMs, 0.001)
}

func TestTracker_SetListing(t *testing.T) {
	tracker := NewTracker(logrus.New(), nil)

	session := tracker.Start("", true)
	session.SetListing("https://www.rightmove.co.uk/properties/2")
	session.Stop(models.OutcomeInvalidListing)

	stats := tracker.Stats()
	assert.Equal(t, 1, stats.RandomRenders)
	assert.Equal(t, 1, stats.DistinctListing)
	assert.Equal(t, 1, stats.Outcomes[models.OutcomeInvalidListing])
}

func TestTracker_ThroughQueue(t *testing.T) {
	q := queue.NewEventQueue(10, logrus.New())
	tracker := NewTracker(logrus.New(), q)
	q.Start()

	tracker.Start("https://www.rightmove.co.uk/properties/1", false).Stop(models.OutcomeRendered)
	tracker.Start("https://www.rightmove.co.uk/properties/1", true).Stop(models.OutcomeRendered)

	assert.Eventually(t, func() bool {
		return tracker.Stats().TotalRenders == 2
	}, time.Second, 10*time.Millisecond)

	stats := tracker.Stats()
	assert.Equal(t, 1, stats.DistinctListing)
	assert.Equal(t, 1, stats.RandomRenders)
	q.Close()
}

func TestTracker_ClosedQueueFallsBack(t *testing.T) {
	q := queue.NewEventQueue(1, logrus.New())
	tracker := NewTracker(logrus.New(), q)
	q.Close()

	tracker.Start("https://www.rightmove.co.uk/properties/1", false).Stop(models.OutcomeFetchFailed)
	assert.Equal(t, 1, tracker.Stats().Outcomes[models.OutcomeFetchFailed])
}

func TestTracker_Nil(t *testing.T) {
	var tracker *Tracker

	session := tracker.Start("https://www.rightmove.co.uk/properties/1", false)
	assert.Nil(t, session)
	session.SetListing("x")
	session.Stop(models.OutcomeRendered)

	stats := tracker.Stats()
	assert.Equal(t, 0, stats.TotalRenders)
	assert.NotNil(t, stats.Outcomes)
}

func TestTracker_SessionIDs(t *testing.T) {
	tracker := NewTracker(logrus.New(), nil)

	first := tracker.Start("https://www.rightmove.co.uk/properties/1", false)
	second := tracker.Start("https://www.rightmove.co.uk/properties/1", false)
	require.NotNil(t, first)
	require.NotNil(t, second)

	_, err := uuid.Parse(first.ID)
	assert.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}
