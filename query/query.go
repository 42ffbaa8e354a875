// Package query implements the scorer (spec §4.7, C8): for each retained
// query token, walk that token's clusters in stored order, skip clusters
// the summary proves can't beat the current top-K threshold, and score
// every surviving, not-yet-visited document against the full query vector.
// The per-term cluster walk and heap-driven early exit are generalized
// from the teacher's engine.MultiTermQuery / minBlockHeap (block-at-a-time
// traversal with a size-bounded min-heap), swapping TF-IDF block scoring
// for summary-pruned dense dot products.
package query

import (
	"sort"
	"strconv"

	"github.com/RoaringBitmap/roaring"

	"seismic/cluster"
	"seismic/errs"
	"seismic/sparse"
)

// TermReader resolves a term's clusters, implemented by
// postingstore.CacheGatedPostingsReader (built with a nil persisted side
// for an in-progress, unsealed segment).
type TermReader interface {
	Read(term string) (*cluster.PostingClusters, error)
}

// VectorReader resolves a document's full vector, implemented by
// forward.CacheGatedForwardIndexReader.
type VectorReader interface {
	Read(docID int32) (*sparse.SparseVector, error)
}

// TermForToken derives the posting-store term key for a sparse-vector
// token. This index has no separate text-analysis layer (spec §1): a
// token IS the unit a query matches against, so its term key is simply
// its decimal string form.
func TermForToken(token uint32) string {
	return strconv.FormatUint(uint64(token), 10)
}

// Options configures one Search call.
type Options struct {
	// K is the result heap capacity (top-K).
	K int
	// HeapFactor is the multiplicative slack on the skip threshold;
	// 1.0 is aggressive pruning, large values (≥1e5) degrade to exact
	// top-K (spec §8 invariant 6).
	HeapFactor float64
	// QueryCut retains only the top-QueryCut query tokens by weight;
	// <= 0 means no cut (score against every query token).
	QueryCut int
	// Filter, if non-nil, restricts candidates to docIds it contains.
	Filter *roaring.Bitmap
	// Cancelled is polled between clusters; when it returns true, Search
	// stops early and returns the best-effort partial heap contents
	// alongside errs.CancelledErr.
	Cancelled func() bool
}

// Search executes one query against one (segment, field) pair.
func Search(terms TermReader, forward VectorReader, q *sparse.SparseVector, opts Options) ([]Hit, error) {
	pruned := pruneQuery(q, opts.QueryCut)
	if pruned.Len() == 0 {
		return nil, nil
	}
	maxToken, _ := pruned.MaxToken()
	dense := pruned.ToDense(maxToken)

	heapK := opts.K
	if heapK <= 0 {
		heapK = 1
	}
	results := newScoreHeap(heapK)
	visited := roaring.New()

	for _, item := range pruned.Items() {
		if isCancelled(opts) {
			return results.Sorted(), errs.CancelledErr
		}

		pc, err := terms.Read(TermForToken(item.Token))
		if err != nil {
			return nil, err
		}
		if pc == nil {
			continue
		}

		for _, c := range pc.Clusters() {
			if isCancelled(opts) {
				return results.Sorted(), errs.CancelledErr
			}
			if err := scoreCluster(c, dense, opts, forward, visited, results); err != nil {
				return nil, err
			}
		}
	}

	return results.Sorted(), nil
}

func scoreCluster(c *cluster.DocumentCluster, dense []uint8, opts Options, forward VectorReader, visited *roaring.Bitmap, results *scoreHeap) error {
	if !c.ShouldNotSkip() {
		s := sparse.DotDense(c.Summary().Items(), dense)
		if results.Full() && float64(s)*opts.HeapFactor < float64(results.Threshold()) {
			return nil
		}
	}

	for _, docID := range c.DocIDs() {
		id := uint32(docID)
		if opts.Filter != nil && !opts.Filter.Contains(id) {
			continue
		}
		if visited.Contains(id) {
			continue
		}
		visited.Add(id)

		vec, err := forward.Read(docID)
		if err != nil {
			return err
		}
		if vec == nil {
			continue
		}
		score := sparse.DotDense(vec.Items(), dense)
		results.Offer(Hit{DocID: docID, Score: score})
	}
	return nil
}

func isCancelled(opts Options) bool {
	return opts.Cancelled != nil && opts.Cancelled()
}

// pruneQuery keeps the top-queryCut tokens by weight (ties broken by
// ascending token, for determinism), per spec §4.7 step 1 and the
// "Query cut" glossary entry.
func pruneQuery(q *sparse.SparseVector, queryCut int) *sparse.SparseVector {
	items := q.Items()
	if queryCut <= 0 || queryCut >= len(items) {
		return q
	}

	kept := append([]sparse.Item(nil), items...)
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].Weight != kept[j].Weight {
			return kept[i].Weight > kept[j].Weight
		}
		return kept[i].Token < kept[j].Token
	})
	kept = kept[:queryCut]
	sort.Slice(kept, func(i, j int) bool { return kept[i].Token < kept[j].Token })
	return sparse.MustNew(kept)
}
