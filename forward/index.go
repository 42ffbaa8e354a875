// Package forward implements the per-(segment, field) forward index: a
// dense docId -> SparseVector mapping with single-writer-per-slot CAS
// semantics (spec §4.3), plus a cache-gated reader composing an in-memory
// store with a persisted fallback.
package forward

import (
	"strconv"
	"sync/atomic"

	"seismic/cachemgr"
	"seismic/sparse"
)

// slot holds one document's vector behind an atomic pointer so reads never
// block and a successful first write publishes the vector exactly once.
type slot struct {
	v atomic.Pointer[sparse.SparseVector]
}

// Index is a fixed-capacity, slot-based forward index for one (segment,
// field). The read path is a single atomic load with no locking; writes to
// distinct slots proceed independently, and concurrent writers to the same
// slot race harmlessly on the CAS — exactly one wins, matching spec §4.3's
// "write wins only if slot was empty" contract.
type Index struct {
	slots    []slot
	sizer    ByteSizer
	budget   *cachemgr.SubCache
	overhead uint64
}

// ByteSizer estimates the resident size of a SparseVector for accounting
// purposes; callers typically pass a closure capturing their encoding.
type ByteSizer func(*sparse.SparseVector) uint64

// defaultSizer approximates bytes used by a SparseVector as 5 bytes/item
// (uint32 token + uint8 weight, ignoring slice header overhead) plus a
// fixed per-vector constant for the slice/struct headers.
func defaultSizer(v *sparse.SparseVector) uint64 {
	const perVectorOverhead = 24
	return perVectorOverhead + uint64(v.Len())*5
}

// New builds an Index with capacity slots (one per possible docId in the
// segment), accounted against budget via the cache manager's sub-cache for
// forward-index items. Constructing the slot array itself registers its
// overhead with budget immediately, even if budget then refuses every
// insert (spec §8 S5: the registry grows by the empty-structure size
// regardless of budget=0).
func New(capacity int, budget *cachemgr.SubCache) *Index {
	return NewWithSizer(capacity, budget, defaultSizer)
}

// NewWithSizer is New with an injectable ByteSizer, for tests that want
// deterministic accounting.
func NewWithSizer(capacity int, budget *cachemgr.SubCache, sizer ByteSizer) *Index {
	idx := &Index{
		slots:    make([]slot, capacity),
		sizer:    sizer,
		budget:   budget,
		overhead: uint64(capacity) * 8, // one pointer per slot
	}
	if budget != nil {
		budget.RegisterOverhead(idx.overhead)
	}
	return idx
}

// Read returns the vector stored for docID, or nil if docID is out of
// range or the slot is empty. Never blocks.
func (idx *Index) Read(docID int32) *sparse.SparseVector {
	if docID < 0 || int(docID) >= len(idx.slots) {
		return nil
	}
	v := idx.slots[docID].v.Load()
	if v != nil {
		idx.budget.RecordHit()
	} else {
		idx.budget.RecordMiss()
	}
	return v
}

// Insert stores v for docID if, and only if, docID is in range, v is
// non-nil, the slot was previously empty, and the cache manager's budget
// accepts the vector's byte cost. A refused or redundant insert is a
// silent no-op (spec §4.3).
func (idx *Index) Insert(docID int32, v *sparse.SparseVector) {
	if v == nil || docID < 0 || int(docID) >= len(idx.slots) {
		return
	}
	s := &idx.slots[docID]
	if s.v.Load() != nil {
		return
	}

	cost := idx.sizer(v)
	subKey := strconv.Itoa(int(docID))
	if idx.budget != nil && !idx.budget.ReserveKeyed(subKey, cost) {
		return
	}
	if !s.v.CompareAndSwap(nil, v) {
		// Lost the race to another writer; give back the bytes we reserved.
		if idx.budget != nil {
			idx.budget.ReleaseKeyed(subKey, cost)
		}
	}
}

// RAMBytesUsed returns a best-effort estimate of bytes resident in idx,
// including slot-array overhead and all published vectors.
func (idx *Index) RAMBytesUsed() uint64 {
	total := idx.overhead
	for i := range idx.slots {
		if v := idx.slots[i].v.Load(); v != nil {
			total += idx.sizer(v)
		}
	}
	return total
}

// Capacity returns the number of slots in idx.
func (idx *Index) Capacity() int { return len(idx.slots) }
