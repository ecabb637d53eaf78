package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"housefinder/server/internal/cache"
	"housefinder/server/internal/models"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()

	db, err := NewDatabase(filepath.Join(t.TempDir(), "lookups.db"))
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDatabase_LookupStore(t *testing.T) {
	db := newTestDatabase(t)

	_, ok := db.Get("reverse_geocode", "-2.23|51.75")
	assert.False(t, ok)

	require.NoError(t, db.Set("reverse_geocode", "-2.23|51.75", []byte(`"GL5 1AB"`)))
	value, ok := db.Get("reverse_geocode", "-2.23|51.75")
	require.True(t, ok)
	assert.Equal(t, `"GL5 1AB"`, string(value))

	require.NoError(t, db.Set("reverse_geocode", "-2.23|51.75", []byte(`null`)))
	value, ok = db.Get("reverse_geocode", "-2.23|51.75")
	require.True(t, ok)
	assert.Equal(t, `null`, string(value))

	_, ok = db.Get("deprivation", "-2.23|51.75")
	assert.False(t, ok)
}

func TestDatabase_BacksMemo(t *testing.T) {
	db := newTestDatabase(t)
	memo := cache.NewMemo[*int](db, "deprivation", nil)

	calls := 0
	lookup := func() (*int, bool) {
		calls++
		rank := 18203
		return &rank, true
	}

	first := memo.Do("gl5 1ab", lookup)
	second := memo.Do("gl5 1ab", lookup)

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, 18203, *second)
	assert.Equal(t, 1, calls)
}

func TestInsertEvents(t *testing.T) {
	db := newTestDatabase(t)

	events := []*models.Event{
		{ListingURL: "https://www.rightmove.co.uk/properties/1", Outcome: models.OutcomeRendered, DurationMs: 120, StartedAt: time.Now()},
		{ListingURL: "https://www.rightmove.co.uk/properties/2", Outcome: models.OutcomeInvalidListing, Random: true, StartedAt: time.Now()},
	}

	err := db.GetDB().Transaction(func(tx *gorm.DB) error {
		return InsertEvents(tx, events)
	})
	require.NoError(t, err)

	count, err := db.CountEvents()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.NotZero(t, events[0].ID)

	assert.NoError(t, InsertEvents(db.GetDB(), nil))
}
