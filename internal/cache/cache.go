package cache

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Store is a namespaced key-value store for memoized lookup results.
// Entries are never evicted or invalidated.
type Store interface {
	Get(namespace, key string) ([]byte, bool)
	Set(namespace, key string, value []byte) error
}

// MemoryStore keeps entries for the lifetime of the process
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]map[string][]byte),
	}
}

func (s *MemoryStore) Get(namespace, key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.entries[namespace][key]
	return value, ok
}

func (s *MemoryStore) Set(namespace, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.entries[namespace]
	if !ok {
		bucket = make(map[string][]byte)
		s.entries[namespace] = bucket
	}
	bucket[key] = value
	return nil
}

// Len returns the number of entries in a namespace
func (s *MemoryStore) Len(namespace string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries[namespace])
}

// Memo memoizes a pure function by its exact input. Values are stored as JSON
// so that a nil result ("no answer") is remembered as well.
type Memo[V any] struct {
	store     Store
	namespace string
	logger    *logrus.Logger
	inflight  singleflight.Group
}

func NewMemo[V any](store Store, namespace string, logger *logrus.Logger) *Memo[V] {
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Memo[V]{
		store:     store,
		namespace: namespace,
		logger:    logger,
	}
}

// Get returns the memoized value for key, if any
func (m *Memo[V]) Get(key string) (V, bool) {
	var value V
	data, ok := m.store.Get(m.namespace, key)
	if !ok {
		return value, false
	}
	if err := json.Unmarshal(data, &value); err != nil {
		m.logger.WithError(err).WithFields(logrus.Fields{
			"namespace": m.namespace,
			"key":       key,
		}).Warn("Discarding unreadable cache entry")
		return value, false
	}
	return value, true
}

// Set stores value under key
func (m *Memo[V]) Set(key string, value V) {
	data, err := json.Marshal(value)
	if err != nil {
		m.logger.WithError(err).WithField("namespace", m.namespace).Error("Failed to encode cache entry")
		return
	}
	if err := m.store.Set(m.namespace, key, data); err != nil {
		m.logger.WithError(err).WithField("namespace", m.namespace).Error("Failed to store cache entry")
	}
}

// Do returns the memoized value for key or computes it with fn. The result is
// only remembered when fn reports it as final; transient failures are retried
// on the next call. Concurrent calls for the same key share one fn call.
func (m *Memo[V]) Do(key string, fn func() (V, bool)) V {
	if value, ok := m.Get(key); ok {
		m.logger.WithFields(logrus.Fields{
			"namespace": m.namespace,
			"key":       key,
			"source":    "cache",
		}).Debug("Found lookup in cache")
		return value
	}

	result, _, _ := m.inflight.Do(key, func() (interface{}, error) {
		value, final := fn()
		if final {
			m.Set(key, value)
		}
		return value, nil
	})
	value, _ := result.(V)
	return value
}
