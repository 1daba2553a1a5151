// Package registry holds the latest published state of every body, split
// across independently locked shards so telemetry readers rarely contend with
// the simulation loop.
package registry

import (
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
)

const defaultShardCount = 16

type shard[T any] struct {
	mx    sync.RWMutex
	items map[string]T
}

// Sharded is a string keyed map partitioned by xxhash of the key.
type Sharded[T any] struct {
	shards []*shard[T]
}

// New creates a store with the given number of shards. Non-positive counts
// fall back to 16.
func New[T any](shardCount int) *Sharded[T] {
	if shardCount <= 0 {
		shardCount = defaultShardCount
	}
	s := &Sharded[T]{shards: make([]*shard[T], shardCount)}
	for i := range s.shards {
		s.shards[i] = &shard[T]{items: make(map[string]T)}
	}
	return s
}

func (s *Sharded[T]) shardFor(key string) *shard[T] {
	return s.shards[xxhash.Sum64String(key)%uint64(len(s.shards))]
}

func (s *Sharded[T]) Set(key string, value T) {
	sh := s.shardFor(key)
	sh.mx.Lock()
	sh.items[key] = value
	sh.mx.Unlock()
}

// Delete removes key and reports whether it was present.
func (s *Sharded[T]) Delete(key string) bool {
	sh := s.shardFor(key)
	sh.mx.Lock()
	defer sh.mx.Unlock()
	_, ok := sh.items[key]
	delete(sh.items, key)
	return ok
}

func (s *Sharded[T]) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mx.RLock()
		n += len(sh.items)
		sh.mx.RUnlock()
	}
	return n
}

// Range calls fn for every entry until fn returns false. Each shard is read
// locked while it is visited; fn must not write to the store.
func (s *Sharded[T]) Range(fn func(key string, value T) bool) {
	for _, sh := range s.shards {
		sh.mx.RLock()
		for k, v := range sh.items {
			if !fn(k, v) {
				sh.mx.RUnlock()
				return
			}
		}
		sh.mx.RUnlock()
	}
}

// Values returns every value ordered by key.
func (s *Sharded[T]) Values() []T {
	type kv struct {
		k string
		v T
	}
	all := make([]kv, 0, s.Len())
	s.Range(func(k string, v T) bool {
		all = append(all, kv{k, v})
		return true
	})
	sort.Slice(all, func(i, j int) bool { return all[i].k < all[j].k })

	out := make([]T, len(all))
	for i, e := range all {
		out[i] = e.v
	}
	return out
}
