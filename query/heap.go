package query

import (
	"container/heap"
	"sort"
)

// Hit is one scored document.
type Hit struct {
	DocID int32
	Score int32
}

// scoreHeap is a fixed-capacity min-heap of Hits, keyed by Score, modeled
// on the teacher's minBlockHeap (engine/engine.go): a container/heap.Interface
// implementation plus a Top-style accessor, generalized from block-minDocID
// ordering to score ordering and bounded to size K so it also serves as the
// running top-K threshold the scorer prunes clusters against.
type scoreHeap struct {
	cap   int
	items []Hit
}

func newScoreHeap(cap int) *scoreHeap {
	return &scoreHeap{cap: cap, items: make([]Hit, 0, cap)}
}

func (h scoreHeap) Len() int            { return len(h.items) }
func (h scoreHeap) Less(i, j int) bool  { return h.items[i].Score < h.items[j].Score }
func (h scoreHeap) Swap(i, j int)       { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *scoreHeap) Push(x interface{}) { h.items = append(h.items, x.(Hit)) }

func (h *scoreHeap) Pop() interface{} {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

// Full reports whether the heap has reached its capacity, at which point
// Threshold becomes meaningful.
func (h *scoreHeap) Full() bool { return h.cap > 0 && len(h.items) >= h.cap }

// Threshold is the lowest score currently held, i.e. the score a new
// candidate must beat to displace something once the heap is full.
func (h *scoreHeap) Threshold() int32 {
	if len(h.items) == 0 {
		return 0
	}
	return h.items[0].Score
}

// Offer inserts hit if there is room, or if it beats the current minimum
// once the heap is full (replacing that minimum).
func (h *scoreHeap) Offer(hit Hit) {
	if h.cap <= 0 {
		return
	}
	if len(h.items) < h.cap {
		heap.Push(h, hit)
		return
	}
	if hit.Score > h.items[0].Score {
		h.items[0] = hit
		heap.Fix(h, 0)
	}
}

// Sorted returns a copy of the heap's contents in ascending-docId order,
// leaving the heap itself unchanged, per spec
// §4.7 step 2 ("return its entries sorted ascending by docId").
func (h *scoreHeap) Sorted() []Hit {
	out := append([]Hit(nil), h.items...)
	sort.Slice(out, func(i, j int) bool { return out[i].DocID < out[j].DocID })
	return out
}
