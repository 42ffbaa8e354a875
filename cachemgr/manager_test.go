package cachemgr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReserveRefusesAtZeroBudget(t *testing.T) {
	m := New(Options{BudgetBytes: 0})
	sc := m.ForwardSubCache(CacheKey{SegmentID: "s1", FieldID: "f1"})

	ok := sc.Reserve(128)
	require.False(t, ok)
	require.EqualValues(t, 0, m.BytesInUse())
}

func TestRegisterOverheadBypassesBudget(t *testing.T) {
	m := New(Options{BudgetBytes: 0})
	sc := m.ForwardSubCache(CacheKey{SegmentID: "s1", FieldID: "f1"})
	sc.RegisterOverhead(64)
	require.EqualValues(t, 64, m.BytesInUse())
}

func TestReserveAndReleaseRoundTrip(t *testing.T) {
	m := New(Options{BudgetBytes: 1000})
	key := CacheKey{SegmentID: "s1", FieldID: "f1"}
	sc := m.PostingSubCache(key)

	require.True(t, sc.ReserveKeyed("term-a", 100))
	require.EqualValues(t, 100, m.BytesInUse())

	sc.ReleaseKeyed("term-a", 100)
	require.EqualValues(t, 0, m.BytesInUse())
}

func TestEvictsLeastRecentlyUsedUnderPressure(t *testing.T) {
	m := New(Options{BudgetBytes: 150})
	key := CacheKey{SegmentID: "s1", FieldID: "f1"}
	sc := m.PostingSubCache(key)

	require.True(t, sc.ReserveKeyed("a", 100))
	require.True(t, sc.ReserveKeyed("b", 40))

	// 140 in use of a 150 budget, 10 free. Evicts "a" to make room.
	require.True(t, sc.ReserveKeyed("c", 100))
	require.LessOrEqual(t, m.BytesInUse(), int64(150))
}

func TestRemoveSegmentPurgesAllEntries(t *testing.T) {
	m := New(Options{BudgetBytes: 1000})
	key := CacheKey{SegmentID: "s1", FieldID: "f1"}
	fwd := m.ForwardSubCache(key)
	post := m.PostingSubCache(key)

	fwd.RegisterOverhead(10)
	require.True(t, post.ReserveKeyed("term", 50))
	require.EqualValues(t, 60, m.BytesInUse())

	m.RemoveSegment(key)
	require.EqualValues(t, 0, m.BytesInUse())
}

func TestStatsTrackReservesAndRefusals(t *testing.T) {
	m := New(Options{BudgetBytes: 10, StatsEnabled: true})
	key := CacheKey{SegmentID: "s1", FieldID: "f1"}
	sc := m.PostingSubCache(key)

	require.True(t, sc.ReserveKeyed("a", 5))
	require.False(t, sc.ReserveKeyed("b", 1000))

	stats := m.Stats()
	require.Equal(t, int64(2), stats.Reserves)
	require.Equal(t, int64(1), stats.Refusals)
}

func TestEvictionNeverReclaimsPinnedOverhead(t *testing.T) {
	m := New(Options{BudgetBytes: 100})
	key := CacheKey{SegmentID: "s1", FieldID: "f1"}
	sc := m.PostingSubCache(key)

	sc.RegisterOverhead(40)
	require.True(t, sc.ReserveKeyed("a", 60)) // budget now exactly full

	// A new reservation evicts "a", never the pinned overhead.
	require.True(t, sc.ReserveKeyed("b", 60))
	require.EqualValues(t, 100, m.BytesInUse())

	// An unsatisfiable reservation may evict "b" while trying, but the
	// pinned baseline always stays accounted.
	require.False(t, sc.ReserveKeyed("c", 100))
	require.EqualValues(t, 40, m.BytesInUse())

	// Only segment removal gives the pinned bytes back (S6).
	m.RemoveSegment(key)
	require.EqualValues(t, 0, m.BytesInUse())
}

func TestStatsTrackHitsAndMisses(t *testing.T) {
	m := New(Options{BudgetBytes: 100, StatsEnabled: true})
	sc := m.ForwardSubCache(CacheKey{SegmentID: "s1", FieldID: "f1"})

	sc.RecordHit()
	sc.RecordHit()
	sc.RecordMiss()

	stats := m.Stats()
	require.Equal(t, int64(2), stats.Hits)
	require.Equal(t, int64(1), stats.Misses)
}
