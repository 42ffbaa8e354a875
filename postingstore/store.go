// Package postingstore implements the per-(segment, field) clustered
// posting store: a term -> cluster.PostingClusters map (spec §4.4, C5),
// generalized from the teacher's storage.Segment.Terms map of flat
// TermMetadata/Block postings to spec's clustered form.
package postingstore

import (
	"sort"
	"sync"

	"seismic/cachemgr"
	"seismic/cluster"
)

// ByteSizer estimates the resident size of a PostingClusters value.
type ByteSizer func(*cluster.PostingClusters) uint64

func defaultSizer(pc *cluster.PostingClusters) uint64 {
	const perClusterOverhead = 32
	var total uint64
	for _, c := range pc.Clusters() {
		total += perClusterOverhead + uint64(c.Len())*5
		if s := c.Summary(); s != nil {
			total += uint64(s.Len()) * 5
		}
	}
	return total
}

// Store is the in-memory half of a ClusteredPostingIndex for one
// (segment, field): term -> *cluster.PostingClusters, with first-write-wins
// semantics (spec §4.4 "on duplicate term, keeps the first insertion").
type Store struct {
	mu       sync.RWMutex
	terms    map[string]*cluster.PostingClusters
	sizer    ByteSizer
	budget   *cachemgr.SubCache
	overhead uint64
}

// New builds an empty Store, registering its map overhead with budget
// immediately (spec §8 S5).
func New(budget *cachemgr.SubCache) *Store {
	return NewWithSizer(budget, defaultSizer)
}

// NewWithSizer is New with an injectable ByteSizer.
func NewWithSizer(budget *cachemgr.SubCache, sizer ByteSizer) *Store {
	const emptyMapOverhead = 48
	s := &Store{
		terms:    make(map[string]*cluster.PostingClusters),
		sizer:    sizer,
		budget:   budget,
		overhead: emptyMapOverhead,
	}
	if budget != nil {
		budget.RegisterOverhead(s.overhead)
	}
	return s
}

// Read returns the clusters for term, or nil if absent.
func (s *Store) Read(term string) *cluster.PostingClusters {
	s.mu.RLock()
	pc := s.terms[term]
	s.mu.RUnlock()
	if pc != nil {
		s.budget.RecordHit()
	} else {
		s.budget.RecordMiss()
	}
	return pc
}

// Insert publishes clusters for term if term is not already present,
// after reserving its byte cost against the cache manager. A budget
// refusal or a duplicate term makes Insert a no-op that returns false.
func (s *Store) Insert(term string, clusters *cluster.PostingClusters) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.terms[term]; exists {
		return false
	}
	cost := s.sizer(clusters)
	if s.budget != nil && !s.budget.ReserveKeyed(term, cost) {
		return false
	}
	s.terms[term] = clusters
	return true
}

// Terms returns the term universe currently held in memory. Per spec §4.4,
// callers needing the authoritative full term universe (including evicted
// terms) must consult the persisted side instead — this method only
// reflects what Store itself currently holds.
func (s *Store) Terms() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.terms))
	for t := range s.terms {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Size returns the number of terms currently held in memory.
func (s *Store) Size() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.terms))
}
