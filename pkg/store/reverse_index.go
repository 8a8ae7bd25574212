package store

import (
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// DefaultReverseShards is the shard count used when none is configured
const DefaultReverseShards = 256

// ReverseIndex maps normalized urls to the id they were first stored under.
// Keys are spread over shards so shortens of unrelated urls rarely contend.
// GetID never takes a lock; only the insert step of PutIfAbsent does.
type ReverseIndex struct {
	shards []reverseShard
	mask   uint64
}

type reverseShard struct {
	// mutex serializes writers only, readers go straight to entries
	mutex   sync.Mutex
	entries sync.Map // string -> uint64
	count   atomic.Int64
}

// NewReverseIndex creates a new reverse index
func NewReverseIndex(config ReverseIndexConfig) *ReverseIndex {
	n := config.Shards
	if n <= 0 {
		n = DefaultReverseShards
	}
	n = nextPowerOfTwo(n)

	return &ReverseIndex{
		shards: make([]reverseShard, n),
		mask:   uint64(n - 1),
	}
}

func (idx *ReverseIndex) shardFor(url string) *reverseShard {
	return &idx.shards[xxhash.Sum64String(url)&idx.mask]
}

// GetID returns the id stored for url
func (idx *ReverseIndex) GetID(url string) (uint64, bool) {
	v, exists := idx.shardFor(url).entries.Load(url)
	if !exists {
		return 0, false
	}
	return v.(uint64), true
}

// PutIfAbsent stores id for url unless url already has an id, and returns
// whichever id is stored. Every caller racing on the same url gets the same
// answer: the id of the first one to get here.
func (idx *ReverseIndex) PutIfAbsent(url string, id uint64) uint64 {
	s := idx.shardFor(url)
	if v, exists := s.entries.Load(url); exists {
		return v.(uint64)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	actual, loaded := s.entries.LoadOrStore(url, id)
	if !loaded {
		s.count.Add(1)
	}
	return actual.(uint64)
}

// Size returns the number of urls in the index
func (idx *ReverseIndex) Size() int {
	total := 0
	for i := range idx.shards {
		total += int(idx.shards[i].count.Load())
	}
	return total
}

// Stats returns index statistics
func (idx *ReverseIndex) Stats() ReverseIndexStats {
	stats := ReverseIndexStats{Shards: len(idx.shards)}
	for i := range idx.shards {
		n := int(idx.shards[i].count.Load())
		stats.TotalKeys += n
		if n > stats.LargestShard {
			stats.LargestShard = n
		}
	}
	return stats
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
