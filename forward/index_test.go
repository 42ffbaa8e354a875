package forward

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"seismic/cachemgr"
	"seismic/sparse"
)

func TestReadOutOfRangeOrEmpty(t *testing.T) {
	idx := New(4, nil)
	require.Nil(t, idx.Read(-1))
	require.Nil(t, idx.Read(10))
	require.Nil(t, idx.Read(0))
}

func TestInsertThenReadReturnsSameVector(t *testing.T) {
	idx := New(4, nil)
	v := sparse.MustNew([]sparse.Item{{Token: 1, Weight: 2}})
	idx.Insert(1, v)
	require.Same(t, v, idx.Read(1))
}

func TestInsertIsNoOpOnOccupiedSlot(t *testing.T) {
	idx := New(4, nil)
	v1 := sparse.MustNew([]sparse.Item{{Token: 1, Weight: 2}})
	v2 := sparse.MustNew([]sparse.Item{{Token: 1, Weight: 9}})
	idx.Insert(0, v1)
	idx.Insert(0, v2)
	require.Same(t, v1, idx.Read(0))
}

func TestInsertRefusedByBudgetLeavesSlotEmpty(t *testing.T) {
	m := cachemgr.New(cachemgr.Options{BudgetBytes: 0})
	sub := m.ForwardSubCache(cachemgr.CacheKey{SegmentID: "s", FieldID: "f"})
	idx := New(4, sub)

	v := sparse.MustNew([]sparse.Item{{Token: 1, Weight: 2}})
	idx.Insert(0, v)
	require.Nil(t, idx.Read(0))
}

func TestConcurrentInsertsToDifferentSlots(t *testing.T) {
	idx := New(100, nil)
	var wg sync.WaitGroup
	for i := int32(0); i < 100; i++ {
		wg.Add(1)
		go func(docID int32) {
			defer wg.Done()
			idx.Insert(docID, sparse.MustNew([]sparse.Item{{Token: uint32(docID), Weight: 1}}))
		}(i)
	}
	wg.Wait()
	for i := int32(0); i < 100; i++ {
		require.NotNil(t, idx.Read(i))
	}
}

func TestRAMBytesUsedGrowsWithInserts(t *testing.T) {
	idx := New(4, nil)
	base := idx.RAMBytesUsed()
	idx.Insert(0, sparse.MustNew([]sparse.Item{{Token: 1, Weight: 1}}))
	require.Greater(t, idx.RAMBytesUsed(), base)
}
