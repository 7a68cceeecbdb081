package storage

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// MemoryStorage - universal in-memory object storage
// K - key type, V - stored object type
type MemoryStorage[K comparable, V any] struct {
	data       map[K]V
	mutex      sync.RWMutex
	dirty      map[K]bool
	lastUpdate map[K]time.Time
	clock      clock.Clock
}

// NewMemoryStorageWithClock creates a new storage stamping updates with the given clock
func NewMemoryStorageWithClock[K comparable, V any](clk clock.Clock) *MemoryStorage[K, V] {
	return &MemoryStorage[K, V]{
		data:       make(map[K]V),
		dirty:      make(map[K]bool),
		lastUpdate: make(map[K]time.Time),
		clock:      clk,
	}
}

// Set adds or updates an object
func (s *MemoryStorage[K, V]) Set(key K, value V) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.data[key] = value
	s.dirty[key] = true
	s.lastUpdate[key] = s.clock.Now()
}

// Get returns an object by key
func (s *MemoryStorage[K, V]) Get(key K) (V, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	value, exists := s.data[key]
	return value, exists
}

// Clear removes every object, marking each removed key dirty
func (s *MemoryStorage[K, V]) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for k := range s.data {
		s.dirty[k] = true
	}
	s.data = make(map[K]V)
	s.lastUpdate = make(map[K]time.Time)
}

// DirtyKeys returns keys changed or removed since their flags were last cleared
func (s *MemoryStorage[K, V]) DirtyKeys() []K {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make([]K, 0, len(s.dirty))
	for k := range s.dirty {
		result = append(result, k)
	}
	return result
}

// ClearDirty clears dirty flags for provided keys
func (s *MemoryStorage[K, V]) ClearDirty(keys []K) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, k := range keys {
		delete(s.dirty, k)
	}
}

// LastUpdate returns when the object under key was last set
func (s *MemoryStorage[K, V]) LastUpdate(key K) (time.Time, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	t, ok := s.lastUpdate[key]
	return t, ok
}

// ForEach executes a function for each object
func (s *MemoryStorage[K, V]) ForEach(fn func(key K, value V) bool) {
	// Copy data under lock for subsequent processing
	s.mutex.RLock()
	items := make(map[K]V, len(s.data))
	for k, v := range s.data {
		items[k] = v
	}
	s.mutex.RUnlock()

	// Process copied data without locking
	for k, v := range items {
		if !fn(k, v) {
			break
		}
	}
}

// Count returns the number of objects
func (s *MemoryStorage[K, V]) Count() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}
