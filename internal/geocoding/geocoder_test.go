package geocoding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housefinder/server/internal/cache"
)

func TestReverseGeocode(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected *string
	}{
		{
			name:     "First candidate wins",
			status:   http.StatusOK,
			body:     `{"status":200,"result":[{"postcode":"GL5 1AB","distance":12.3},{"postcode":"GL5 1AD"}]}`,
			expected: ptr("GL5 1AB"),
		},
		{
			name:   "Null result",
			status: http.StatusOK,
			body:   `{"status":200,"result":null}`,
		},
		{
			name:   "Empty result",
			status: http.StatusOK,
			body:   `{"status":200,"result":[]}`,
		},
		{
			name:   "Bad request",
			status: http.StatusBadRequest,
			body:   `{"status":400,"error":"Invalid longitude/latitude submitted"}`,
		},
		{
			name:   "Server error",
			status: http.StatusInternalServerError,
		},
		{
			name:   "Garbage body",
			status: http.StatusOK,
			body:   `<html>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/postcodes", r.URL.Path)
				assert.Equal(t, "-2.23", r.URL.Query().Get("lon"))
				assert.Equal(t, "51.75", r.URL.Query().Get("lat"))
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			g := NewGeocoder(logrus.New(), cache.NewMemoryStore(), server.URL, "test", time.Second)
			postcode := g.ReverseGeocode(context.Background(), -2.23, 51.75)

			if tt.expected == nil {
				assert.Nil(t, postcode)
				return
			}
			require.NotNil(t, postcode)
			assert.Equal(t, *tt.expected, *postcode)
		})
	}
}

func TestReverseGeocode_Memoized(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"status":200,"result":[{"postcode":"gl5 1ab"}]}`))
	}))
	defer server.Close()

	store := cache.NewMemoryStore()
	g := NewGeocoder(logrus.New(), store, server.URL+"/", "test", time.Second)

	first := g.ReverseGeocode(context.Background(), -2.23, 51.75)
	second := g.ReverseGeocode(context.Background(), -2.23, 51.75)
	other := g.ReverseGeocode(context.Background(), -2.2, 51.7)

	require.NotNil(t, first)
	require.NotNil(t, second)
	require.NotNil(t, other)
	assert.Equal(t, "GL5 1AB", *first)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, 2, store.Len(cacheNamespace))
}

func TestReverseGeocode_TransientFailureNotMemoized(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":200,"result":[{"postcode":"GL5 1AB"}]}`))
	}))
	defer server.Close()

	g := NewGeocoder(logrus.New(), cache.NewMemoryStore(), server.URL, "test", time.Second)

	assert.Nil(t, g.ReverseGeocode(context.Background(), -2.23, 51.75))
	postcode := g.ReverseGeocode(context.Background(), -2.23, 51.75)
	require.NotNil(t, postcode)
	assert.Equal(t, "GL5 1AB", *postcode)
}

func TestReverseGeocode_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`{"status":200,"result":[{"postcode":"GL5 1AB"}]}`))
	}))
	defer server.Close()

	g := NewGeocoder(logrus.New(), cache.NewMemoryStore(), server.URL, "test", 50*time.Millisecond)
	assert.Nil(t, g.ReverseGeocode(context.Background(), -2.23, 51.75))
}

func TestReverseGeocode_CancelledCallerDoesNotFailSharedLookup(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`{"status":200,"result":[{"postcode":"GL5 1AB"}]}`))
	}))
	defer server.Close()

	g := NewGeocoder(logrus.New(), cache.NewMemoryStore(), server.URL, "test", 2*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		g.ReverseGeocode(ctx, -2.23, 51.75)
	}()

	var shared *string
	go func() {
		defer wg.Done()
		time.Sleep(20 * time.Millisecond)
		shared = g.ReverseGeocode(context.Background(), -2.23, 51.75)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()
	wg.Wait()

	require.NotNil(t, shared)
	assert.Equal(t, "GL5 1AB", *shared)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func ptr(s string) *string {
	return &s
}
