package harrislist

import (
	"math/bits"
	randv2 "math/rand/v2"
	"runtime"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

const (
	cInsertCASRetries = iota
	cInsertCASSuccesses
	cRemoveCASRetries
	cRemoveCASSuccesses
	cRestarts
	cUnlinks
	cRetired
	numCounters
)

type metricShard struct {
	counters [numCounters]atomic.Int64
	// Pad to cache line size to prevent false sharing.
	_ cpu.CacheLinePad
}

// Metrics counts contention events across per-CPU shards.
type Metrics struct {
	shards []metricShard
	mask   uint32
}

// Stats is a snapshot of a list's contention counters.
type Stats struct {
	InsertCASRetries   int64
	InsertCASSuccesses int64
	RemoveCASRetries   int64
	RemoveCASSuccesses int64
	// Restarts counts traversals restarted from the head.
	Restarts int64
	// Unlinks counts successful physical unlink CASes.
	Unlinks int64
	Retired int64
}

func newMetrics() *Metrics {
	shardCount := nextPowerOfTwo(max(runtime.GOMAXPROCS(0), 1))
	return &Metrics{
		shards: make([]metricShard, shardCount),
		mask:   uint32(shardCount - 1),
	}
}

func nextPowerOfTwo(v int) int {
	if v <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(v-1))
}

func (m *Metrics) shard() *metricShard {
	if len(m.shards) == 1 {
		return &m.shards[0]
	}
	// The runtime generator keeps per-thread state, so picking a shard
	// touches no memory shared with other goroutines.
	idx := randv2.Uint32() & m.mask
	return &m.shards[idx]
}

func (m *Metrics) add(c int, d int64) {
	m.shard().counters[c].Add(d)
}

func (m *Metrics) IncInsertCASRetry()   { m.add(cInsertCASRetries, 1) }
func (m *Metrics) IncInsertCASSuccess() { m.add(cInsertCASSuccesses, 1) }
func (m *Metrics) IncRemoveCASRetry()   { m.add(cRemoveCASRetries, 1) }
func (m *Metrics) IncRemoveCASSuccess() { m.add(cRemoveCASSuccesses, 1) }
func (m *Metrics) IncRestart()          { m.add(cRestarts, 1) }
func (m *Metrics) IncUnlink()           { m.add(cUnlinks, 1) }
func (m *Metrics) AddRetired(n int64)   { m.add(cRetired, n) }

func (m *Metrics) sum(c int) int64 {
	var total int64
	for i := range m.shards {
		total += m.shards[i].counters[c].Load()
	}
	return total
}

// Snapshot sums every shard.
func (m *Metrics) Snapshot() Stats {
	return Stats{
		InsertCASRetries:   m.sum(cInsertCASRetries),
		InsertCASSuccesses: m.sum(cInsertCASSuccesses),
		RemoveCASRetries:   m.sum(cRemoveCASRetries),
		RemoveCASSuccesses: m.sum(cRemoveCASSuccesses),
		Restarts:           m.sum(cRestarts),
		Unlinks:            m.sum(cUnlinks),
		Retired:            m.sum(cRetired),
	}
}
