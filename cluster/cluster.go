// Package cluster implements the SEISMIC clustering stage: partitioning one
// term's posting list into clusters of mutually similar documents and
// computing a pruned per-cluster summary vector, per spec §4.2.
package cluster

import (
	"math/rand"
	"sort"

	"seismic/posting"
	"seismic/sparse"
)

// VectorReader maps a docId to its full SparseVector, as needed to assign
// documents to clusters and to compute cluster summaries. Returns nil if
// the document is unknown (e.g. concurrently deleted); such docs are
// dropped from clustering, per spec §4.2 step 5.
type VectorReader interface {
	Read(docID int32) *sparse.SparseVector
}

// VectorReaderFunc adapts a plain function to a VectorReader.
type VectorReaderFunc func(docID int32) *sparse.SparseVector

func (f VectorReaderFunc) Read(docID int32) *sparse.SparseVector { return f(docID) }

// DocumentCluster groups a subset of one term's postings that share a
// single Summary, per spec §3. It is immutable after construction.
type DocumentCluster struct {
	docIDs        []int32
	weights       []uint8
	summary       *sparse.SparseVector // nil means no summary; NewDocumentCluster sets shouldNotSkip exactly then
	shouldNotSkip bool
}

// NewDocumentCluster builds an immutable DocumentCluster. docIDs must be
// sorted ascending with no duplicates (the same invariant a posting.List
// satisfies), weights must be the same length. summary may be nil, in
// which case the cluster is unprunable (ShouldNotSkip() is true).
func NewDocumentCluster(docIDs []int32, weights []uint8, summary *sparse.SparseVector) *DocumentCluster {
	return &DocumentCluster{
		docIDs:        docIDs,
		weights:       weights,
		summary:       summary,
		shouldNotSkip: summary == nil,
	}
}

// NewDocumentClusterWithFlag builds a DocumentCluster with an explicit
// shouldNotSkip flag, independent of whether summary is nil. The codec
// package uses this to reconstruct a cluster exactly as persisted, rather
// than re-deriving the flag from summary nilness.
func NewDocumentClusterWithFlag(docIDs []int32, weights []uint8, summary *sparse.SparseVector, shouldNotSkip bool) *DocumentCluster {
	return &DocumentCluster{
		docIDs:        docIDs,
		weights:       weights,
		summary:       summary,
		shouldNotSkip: shouldNotSkip,
	}
}

func (c *DocumentCluster) DocIDs() []int32               { return c.docIDs }
func (c *DocumentCluster) Weights() []uint8              { return c.weights }
func (c *DocumentCluster) Summary() *sparse.SparseVector { return c.summary }
func (c *DocumentCluster) ShouldNotSkip() bool           { return c.shouldNotSkip }
func (c *DocumentCluster) Len() int                      { return len(c.docIDs) }

// PostingClusters is the ordered sequence of DocumentCluster produced for
// one term. Order is the order clustering produced and must be preserved
// across persistence — it defines the scorer's skipping order (spec §3).
type PostingClusters struct {
	clusters []*DocumentCluster
}

// NewPostingClusters wraps an already-ordered slice of clusters.
func NewPostingClusters(clusters []*DocumentCluster) *PostingClusters {
	return &PostingClusters{clusters: clusters}
}

func (p *PostingClusters) Clusters() []*DocumentCluster { return p.clusters }
func (p *PostingClusters) Len() int                     { return len(p.clusters) }

// TotalDocs sums cluster sizes; invariant §8.2 requires this equal the
// total posting length fed into clustering.
func (p *PostingClusters) TotalDocs() int {
	n := 0
	for _, c := range p.clusters {
		n += c.Len()
	}
	return n
}

// Algorithm is the pluggable clustering signature from spec §4.2:
// cluster(docs) -> []DocumentCluster, consulting a VectorReader.
type Algorithm interface {
	Cluster(docs posting.List, reader VectorReader) (*PostingClusters, error)
}

// Params configures RandomClustering.
type Params struct {
	// ClusterRatio in [0,1]; 0 disables clustering (one unprunable cluster).
	ClusterRatio float64
	// SummaryPruneRatio in [0,1]; fraction of summary mass that may be dropped.
	SummaryPruneRatio float64
	// RNG is the seeded random source driving center selection. Required;
	// callers must inject their own per spec §9 ("explicit seeded RNG
	// passed into the clustering function" rather than a thread-local one).
	RNG *rand.Rand
}

// RandomClustering is the default clustering algorithm (spec §4.2): draw
// ClusterRatio·n random centers, assign every doc to its best-dot-product
// center, then summarize each bucket by coordinate-wise max with mass-ratio
// pruning.
type RandomClustering struct {
	Params Params
}

// NewRandomClustering builds a RandomClustering with the given parameters.
func NewRandomClustering(p Params) *RandomClustering {
	return &RandomClustering{Params: p}
}

func (rc *RandomClustering) Cluster(docs posting.List, reader VectorReader) (*PostingClusters, error) {
	n := len(docs)
	if rc.Params.ClusterRatio == 0 || n == 0 {
		return rc.singleUnprunableCluster(docs), nil
	}

	k := n
	if ratioK := int(ceilRatio(n, rc.Params.ClusterRatio)); ratioK < k {
		k = ratioK
	}
	if k < 1 {
		k = 1
	}

	centerIdx := chooseCenters(n, k, rc.Params.RNG)

	type bucket struct {
		docs    []posting.DocWeight
		vectors []*sparse.SparseVector
	}
	buckets := make([]*bucket, len(centerIdx))
	centerVecs := make([]*sparse.SparseVector, len(centerIdx))
	for i, idx := range centerIdx {
		centerVecs[i] = reader.Read(docs[idx].DocID)
		buckets[i] = &bucket{}
	}

	for _, dw := range docs {
		v := reader.Read(dw.DocID)
		if v == nil {
			continue // dropped: vector missing, spec §4.2 step 5
		}
		best, bestScore := 0, int32(-1)
		for i, center := range centerVecs {
			if center == nil {
				continue
			}
			score := sparse.Dot(center, v)
			if score > bestScore {
				bestScore, best = score, i
			}
		}
		buckets[best].docs = append(buckets[best].docs, dw)
		buckets[best].vectors = append(buckets[best].vectors, v)
	}

	clusters := make([]*DocumentCluster, 0, len(buckets))
	for _, b := range buckets {
		if len(b.docs) == 0 {
			continue
		}
		// Summarize is order-independent (coordinate-wise max over
		// members), so b.vectors need not be re-sorted alongside docs.
		summary := Summarize(b.vectors, rc.Params.SummaryPruneRatio)

		list := posting.List(b.docs)
		list.SortInPlace()
		clusters = append(clusters, NewDocumentCluster(list.DocIDs(), list.Weights(), summary))
	}
	return NewPostingClusters(clusters), nil
}

// singleUnprunableCluster implements spec §4.2 step 1: ClusterRatio == 0
// (or an empty posting) yields exactly one cluster with no summary, so
// ShouldNotSkip is always true and the scorer never prunes it.
func (rc *RandomClustering) singleUnprunableCluster(docs posting.List) *PostingClusters {
	if len(docs) == 0 {
		return NewPostingClusters(nil)
	}
	sorted := append(posting.List(nil), docs...)
	sorted.SortInPlace()
	c := NewDocumentCluster(sorted.DocIDs(), sorted.Weights(), nil)
	return NewPostingClusters([]*DocumentCluster{c})
}

// ceilRatio computes ⌈n·ratio⌉, per spec §9's tie-break mandate for
// fractional cluster counts.
func ceilRatio(n int, ratio float64) float64 {
	if ratio <= 0 {
		return 0
	}
	if ratio > 1 {
		ratio = 1
	}
	prod := float64(n) * ratio
	ceil := float64(int(prod))
	if ceil < prod {
		ceil++
	}
	if ceil < 1 {
		ceil = 1
	}
	return ceil
}

// chooseCenters draws k distinct indices uniformly at random without
// replacement from [0, n), using Fisher-Yates partial shuffle so the RNG
// consumption is deterministic given a seed.
func chooseCenters(n, k int, rng *rand.Rand) []int {
	if k >= n {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + rng.Intn(n-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	chosen := append([]int(nil), pool[:k]...)
	sort.Ints(chosen)
	return chosen
}
