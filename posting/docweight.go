// Package posting defines the raw (docId, weight) records that make up one
// term's posting list before clustering, plus the sorted-merge iterators
// used to combine postings from multiple segments during a merge (spec §3
// "DocWeight", §4.6).
package posting

import "sort"

// DocWeight is a single posting entry: a document carrying a quantized
// weight for one term. Sequences of DocWeight are ordered by DocID.
type DocWeight struct {
	DocID  int32
	Weight uint8
}

// List is an ordered sequence of DocWeight, ascending by DocID.
type List []DocWeight

// SortInPlace orders l by ascending DocID. Callers that build a List by
// appending out of order must call this before treating it as a posting.
func (l List) SortInPlace() {
	sort.Slice(l, func(i, j int) bool { return l[i].DocID < l[j].DocID })
}

// IsAscending reports whether l is sorted strictly ascending by DocID with
// no duplicates, the invariant §8.3 requires of every posting.
func (l List) IsAscending() bool {
	for i := 1; i < len(l); i++ {
		if l[i-1].DocID >= l[i].DocID {
			return false
		}
	}
	return true
}

// DocIDs returns the DocIDs of l in order, as a plain slice (e.g. for
// constructing a DocumentCluster's docIds array).
func (l List) DocIDs() []int32 {
	out := make([]int32, len(l))
	for i, dw := range l {
		out[i] = dw.DocID
	}
	return out
}

// Weights returns the weights of l in the same order as DocIDs.
func (l List) Weights() []uint8 {
	out := make([]uint8, len(l))
	for i, dw := range l {
		out[i] = dw.Weight
	}
	return out
}
