package storage

import "time"

// Storage defines interface for any object storage
type Storage[K comparable, V any] interface {
	Set(key K, value V)
	Get(key K) (V, bool)
	Clear()
	DirtyKeys() []K
	ClearDirty(keys []K)
	LastUpdate(key K) (time.Time, bool)
	ForEach(fn func(key K, value V) bool)
	Count() int
}
