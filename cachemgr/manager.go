// Package cachemgr implements the global cache registry (spec §4.8, C9): a
// byte-budget reservation service with least-recently-used eviction,
// sharded by CacheKey so concurrent segments don't contend on one mutex.
// It tracks two sub-caches per (segment, field) — forward-index items and
// posting items — matching spec §3's ForwardIndex/ClusteredPostingIndex
// split.
package cachemgr

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// CacheKey identifies one (segment, field) pair for eviction granularity.
type CacheKey struct {
	SegmentID string
	FieldID   string
}

func (k CacheKey) hash() uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(k.SegmentID)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(k.FieldID)
	return h.Sum64()
}

const shardCount = 16

// Manager is the process-wide cache registry. It must be initialized via
// New before use and torn down via Close when the host process stops
// using the core, per DESIGN NOTES §9 ("explicit module-wide state with
// well-defined initialization and teardown calls; never accessed before
// init").
type Manager struct {
	budgetBytes int64 // 0 means "no budget configured", i.e. always refuse
	used        atomic.Int64
	shards      [shardCount]shard
	statsOn     bool
	log         *zap.SugaredLogger

	statHits      atomic.Int64
	statMisses    atomic.Int64
	statEvictions atomic.Int64
	statReserves  atomic.Int64
	statRefusals  atomic.Int64
}

type shard struct {
	mu      sync.Mutex
	entries map[entryKey]*entry
	lru     []entryKey // most-recently-used at the end
}

type entryKey struct {
	key     CacheKey
	subKind subKind
	subKey  string
}

type subKind uint8

const (
	subKindForward subKind = iota
	subKindPosting
)

type entry struct {
	bytes uint64
	// pinned entries are the permanent per-index overhead registered at
	// construction time; eviction never reclaims them, only RemoveSegment.
	pinned bool
}

// Stats holds best-effort telemetry counters, populated only when
// stats_enabled is set (spec §6 neural.stats_enabled; SPEC_FULL.md §4).
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Reserves  int64
	Refusals  int64
}

// Options configures a Manager.
type Options struct {
	// BudgetBytes is the total byte budget across all shards. 0 means the
	// circuit breaker is fully closed: every Reserve refuses (spec §4.8
	// "Budget policy... When set to 0%, reserve always refuses").
	BudgetBytes  int64
	StatsEnabled bool
	Logger       *zap.SugaredLogger
}

// New initializes a Manager. Logger may be nil, in which case a no-op
// logger is used.
func New(opts Options) *Manager {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	m := &Manager{
		budgetBytes: opts.BudgetBytes,
		statsOn:     opts.StatsEnabled,
		log:         log,
	}
	for i := range m.shards {
		m.shards[i].entries = make(map[entryKey]*entry)
	}
	return m
}

// Close releases all entries and resets accounting. After Close, the
// Manager must not be reused.
func (m *Manager) Close() {
	for i := range m.shards {
		m.shards[i].mu.Lock()
		m.shards[i].entries = nil
		m.shards[i].lru = nil
		m.shards[i].mu.Unlock()
	}
	m.used.Store(0)
}

// BytesInUse returns the total bytes currently reserved across all shards.
func (m *Manager) BytesInUse() int64 { return m.used.Load() }

// Stats returns a snapshot of telemetry counters. Returns the zero value if
// StatsEnabled was false at construction.
func (m *Manager) Stats() Stats {
	return Stats{
		Hits:      m.statHits.Load(),
		Misses:    m.statMisses.Load(),
		Evictions: m.statEvictions.Load(),
		Reserves:  m.statReserves.Load(),
		Refusals:  m.statRefusals.Load(),
	}
}

func (m *Manager) shardFor(key CacheKey) *shard {
	return &m.shards[key.hash()%shardCount]
}

// ForwardSubCache returns the SubCache view over forward-index accounting
// for key.
func (m *Manager) ForwardSubCache(key CacheKey) *SubCache {
	return &SubCache{mgr: m, key: key, kind: subKindForward}
}

// PostingSubCache returns the SubCache view over posting accounting for key.
func (m *Manager) PostingSubCache(key CacheKey) *SubCache {
	return &SubCache{mgr: m, key: key, kind: subKindPosting}
}

// RemoveSegment purges every entry for key (both sub-caches, pinned
// overhead included) in one pass and releases their bytes, per spec §4.8
// "Removal by CacheKey".
func (m *Manager) RemoveSegment(key CacheKey) {
	shard := m.shardFor(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	var freed uint64
	for ek, e := range shard.entries {
		if ek.key != key {
			continue
		}
		freed += e.bytes
		delete(shard.entries, ek)
	}
	newLRU := shard.lru[:0]
	for _, ek := range shard.lru {
		if ek.key != key {
			newLRU = append(newLRU, ek)
		}
	}
	shard.lru = newLRU
	if freed > 0 {
		m.used.Add(-int64(freed))
	}
}

// reserve attempts to account bytes against the global budget for
// (key, kind, subKey). The caller is responsible for not calling reserve
// twice for the same logical write.
func (m *Manager) reserve(key CacheKey, kind subKind, subKey string, bytes uint64) bool {
	if m.statsOn {
		m.statReserves.Inc()
	}
	if m.budgetBytes <= 0 {
		if m.statsOn {
			m.statRefusals.Inc()
		}
		return false
	}

	evicted := false
	for {
		cur := m.used.Load()
		next := cur + int64(bytes)
		if next > m.budgetBytes {
			if evicted {
				// Already tried freeing space once for this reservation;
				// a second shortfall means the cache genuinely has no more
				// room (or another writer raced us into it first).
				if m.statsOn {
					m.statRefusals.Inc()
				}
				return false
			}
			m.evict(next - m.budgetBytes)
			evicted = true
			continue
		}
		if m.used.CompareAndSwap(cur, next) {
			m.touch(key, kind, subKey, bytes)
			return true
		}
	}
}

func (m *Manager) release(key CacheKey, kind subKind, subKey string, bytes uint64) {
	shard := m.shardFor(key)
	shard.mu.Lock()
	ek := entryKey{key: key, subKind: kind, subKey: subKey}
	delete(shard.entries, ek)
	shard.mu.Unlock()
	m.used.Add(-int64(bytes))
}

func (m *Manager) touch(key CacheKey, kind subKind, subKey string, bytes uint64) {
	shard := m.shardFor(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	ek := entryKey{key: key, subKind: kind, subKey: subKey}
	if _, exists := shard.entries[ek]; !exists {
		shard.entries[ek] = &entry{bytes: bytes}
	}
	shard.lru = append(shard.lru, ek)
}

// registerPinned accounts bytes as a permanent baseline for (key, kind),
// bypassing the budget and staying out of the LRU so eviction never
// reclaims it. Registering an empty index's overhead this way even at
// budget 0 is what keeps accounting faithful for spec §8 S5.
func (m *Manager) registerPinned(key CacheKey, kind subKind, subKey string, bytes uint64) {
	shard := m.shardFor(key)
	shard.mu.Lock()
	ek := entryKey{key: key, subKind: kind, subKey: subKey}
	if _, exists := shard.entries[ek]; !exists {
		shard.entries[ek] = &entry{bytes: bytes, pinned: true}
		m.used.Add(int64(bytes))
	}
	shard.mu.Unlock()
}

func (m *Manager) recordHit() {
	if m.statsOn {
		m.statHits.Inc()
	}
}

func (m *Manager) recordMiss() {
	if m.statsOn {
		m.statMisses.Inc()
	}
}

// evict walks the oldest (segment, field) shard entries in LRU order,
// releasing bytes until at least need bytes are freed or every unpinned
// entry is gone. Eviction acquires its own mutex and never blocks
// concurrent reads (reads never take a lock at all), per spec §4.8.
func (m *Manager) evict(need int64) {
	if need <= 0 {
		return
	}
	var freed int64
	for i := range m.shards {
		shard := &m.shards[i]
		shard.mu.Lock()
		for freed < need && len(shard.lru) > 0 {
			ek := shard.lru[0]
			shard.lru = shard.lru[1:]
			e, ok := shard.entries[ek]
			if !ok || e.pinned {
				continue
			}
			delete(shard.entries, ek)
			freed += int64(e.bytes)
			if m.statsOn {
				m.statEvictions.Inc()
			}
		}
		shard.mu.Unlock()
		if freed >= need {
			break
		}
	}
	if freed > 0 {
		m.used.Add(-freed)
		m.log.Debugw("cache eviction freed bytes", "freed", freed, "needed", need)
	}
}
