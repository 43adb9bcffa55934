package core

import (
	"sync"

	"github.com/OneOfOne/xxhash"
	"github.com/mshaverdo/assert"
)

// bucketsCount shards the keyspace map to keep single-key access cheap
// under many concurrent connections. Grounded on the sharded hashmap
// design the teacher uses for its wide-keyspace storage engine.
const bucketsCount = 1024

// storage is the sharded map[string]*Item backing the keyspace. It is the
// key index and the five per-kind containers combined into one: an Item's
// Kind() tag tells a reader which payload field is meaningful, so there is
// no separate index to keep in sync with the containers.
type storage struct {
	mu   [bucketsCount]sync.RWMutex
	data [bucketsCount]map[string]*Item
}

func newStorage() *storage {
	s := &storage{}
	for i := range s.data {
		s.data[i] = make(map[string]*Item)
	}
	return s
}

func bucketFor(key string) uint64 {
	return xxhash.ChecksumString64(key) % bucketsCount
}

func (s *storage) get(key string) *Item {
	b := bucketFor(key)
	s.mu[b].RLock()
	defer s.mu[b].RUnlock()
	return s.data[b][key]
}

func (s *storage) set(key string, item *Item) {
	assert.True(item != nil, "trying to store nil *Item into storage")

	b := bucketFor(key)
	s.mu[b].Lock()
	s.data[b][key] = item
	s.mu[b].Unlock()
}

// delete removes key and reports whether it was present.
func (s *storage) delete(key string) bool {
	b := bucketFor(key)
	s.mu[b].Lock()
	defer s.mu[b].Unlock()
	if _, ok := s.data[b][key]; !ok {
		return false
	}
	delete(s.data[b], key)
	return true
}

// keys returns every key currently present, in no particular order.
func (s *storage) keys() []string {
	total := 0
	for b := range s.data {
		s.mu[b].RLock()
		total += len(s.data[b])
		s.mu[b].RUnlock()
	}

	result := make([]string, 0, total)
	for b := range s.data {
		s.mu[b].RLock()
		for k := range s.data[b] {
			result = append(result, k)
		}
		s.mu[b].RUnlock()
	}
	return result
}

// snapshot returns a point-in-time copy of the key->Item mapping. Items
// themselves are shared, not deep-copied: they are never mutated after
// construction, so sharing pointers across the lock boundary is safe.
func (s *storage) snapshot() map[string]*Item {
	out := make(map[string]*Item)
	for b := range s.data {
		s.mu[b].RLock()
		for k, v := range s.data[b] {
			out[k] = v
		}
		s.mu[b].RUnlock()
	}
	return out
}

// restore replaces the storage contents with the provided mapping. Callers
// must guarantee no concurrent access is in flight -- used only at startup.
func (s *storage) restore(items map[string]*Item) {
	for b := range s.data {
		s.data[b] = make(map[string]*Item)
	}
	for k, v := range items {
		b := bucketFor(k)
		s.data[b][k] = v
	}
}
