// Package merge implements the segment merge pipeline (spec §4.6, C7):
// folding S input segments' postings for one field into a single merged
// term dictionary, re-clustering each term's merged postings, and handing
// the result to a Writer in term order. Term batches run on a bounded
// worker pool (golang.org/x/sync/errgroup), the same concurrency primitive
// the aistore dsort package uses for bounded fan-out over shards; a batch
// whose clustering algorithm has ClusterRatio == 0 runs inline instead of
// being scheduled, per spec §4.6 step 3.
package merge

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"seismic/cluster"
	"seismic/errs"
	"seismic/posting"
	"seismic/sparse"
)

// AssertRequantization gates a debug-only sanity check (spec §9 open
// question 1): when a merged entry carries OriginalFreq, Quantize it again
// and warn if the result disagrees with Weight. Off by default; tests and
// debug builds that want the extra check set it to true.
var AssertRequantization = false

// Entry is one input posting contributed by a Source for one term.
// Weight is already the byte that will be written to the merged output —
// reused as-is for a native sparse segment, or pre-quantized by the
// caller for a non-native segment (spec §4.6 step 2). OriginalFreq is
// only set in the non-native case, purely to support
// AssertRequantization.
type Entry struct {
	DocID        int32
	Weight       uint8
	OriginalFreq *float32
}

// Source is one input segment's view of a single field being merged.
type Source struct {
	// Translate maps this source's old docId to the merged space's new
	// docId; ok=false drops the document (spec §4.6 step 2, "dropped
	// docs... are skipped").
	Translate posting.DocIDTranslator
	// Terms lists every term this source holds postings for.
	Terms func() ([]string, error)
	// PostingsFor returns this source's entries for term in ascending
	// old-docId order, or (nil, nil) if the source has none.
	PostingsFor func(term string) ([]Entry, error)
}

// ClusterFactory builds the clustering algorithm and vector reader to use
// for one merged term. Called once per term since the VectorReader must
// resolve *merged* docIds.
type ClusterFactory func(term string) (cluster.Algorithm, cluster.VectorReader)

// Writer persists one merged term's clusters. Merger calls WriteTerm once
// per term with postings, strictly in term order.
type Writer interface {
	WriteTerm(term string, pc *cluster.PostingClusters) error
}

// Options configures a Merger.
type Options struct {
	Sources    []Source
	ClusterFor ClusterFactory
	Writer     Writer
	Quantizer  sparse.Quantizer

	// BatchSize is how many terms are grouped per scheduling round; spec
	// §4.6 step 3 suggests ≈50. Defaults to 50 if <= 0.
	BatchSize int
	// NumWorkers bounds pool concurrency. Defaults to 1 (sequential) if <= 0.
	NumWorkers int
	Logger     *zap.SugaredLogger
}

// Merger runs one merge pass across Options.Sources.
type Merger struct {
	opts Options
}

// New builds a Merger, applying option defaults.
func New(opts Options) *Merger {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 1
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	return &Merger{opts: opts}
}

// Run executes the full merge: union the term dictionary, batch terms,
// cluster each merged term's postings (scheduled or inline per its
// ClusterRatio), then write every term to Options.Writer in term order.
// Results are drained after the whole worker pool completes rather than
// streamed, which trivially preserves submission order (spec §4.6 step 4)
// without a separate future/channel abstraction.
func (m *Merger) Run(ctx context.Context) error {
	terms, err := m.unionTerms()
	if err != nil {
		return err
	}
	sort.Strings(terms)

	results := make(map[string]*cluster.PostingClusters, len(terms))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.NumWorkers)

	cancelled := false
	for start := 0; start < len(terms); start += m.opts.BatchSize {
		// Cooperative cancellation is checked between term batches; work
		// already scheduled still drains below so no goroutine leaks.
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		end := start + m.opts.BatchSize
		if end > len(terms) {
			end = len(terms)
		}
		for _, term := range terms[start:end] {
			algo, reader := m.opts.ClusterFor(term)
			if isUnclustered(algo) {
				pc, err := m.clusterTerm(term, algo, reader)
				if err != nil {
					return err
				}
				mu.Lock()
				results[term] = pc
				mu.Unlock()
				continue
			}

			g.Go(func() error {
				select {
				case <-gctx.Done():
					return errs.CancelledErr
				default:
				}
				pc, err := m.clusterTerm(term, algo, reader)
				if err != nil {
					return err
				}
				mu.Lock()
				results[term] = pc
				mu.Unlock()
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if cancelled {
		return errs.CancelledErr
	}

	for _, term := range terms {
		pc := results[term]
		if pc == nil {
			continue // every source dropped this term's postings during translation
		}
		if err := m.opts.Writer.WriteTerm(term, pc); err != nil {
			return err
		}
	}
	m.opts.Logger.Infow("merge complete", "terms", len(terms))
	return nil
}

// isUnclustered reports whether algo is a RandomClustering with
// ClusterRatio == 0, the case spec §4.6 step 3 says runs inline.
func isUnclustered(algo cluster.Algorithm) bool {
	rc, ok := algo.(*cluster.RandomClustering)
	return ok && rc.Params.ClusterRatio == 0
}

func (m *Merger) clusterTerm(term string, algo cluster.Algorithm, reader cluster.VectorReader) (*cluster.PostingClusters, error) {
	merged, err := m.mergeOneTerm(term)
	if err != nil {
		return nil, err
	}
	if len(merged) == 0 {
		return nil, nil
	}
	return algo.Cluster(merged, reader)
}

// mergeOneTerm implements getMergedPostingForATerm (spec §4.6 step 2):
// for every source, translate old docIds to new ones (dropping docs the
// translator rejects), then merge the per-source results by new docId.
func (m *Merger) mergeOneTerm(term string) (posting.List, error) {
	iters := make([]posting.Iterator, 0, len(m.opts.Sources))
	for _, src := range m.opts.Sources {
		entries, err := src.PostingsFor(term)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			continue
		}

		translated := make(posting.List, 0, len(entries))
		for _, e := range entries {
			newID, ok := src.Translate(e.DocID)
			if !ok {
				continue
			}
			m.maybeAssertRequantization(term, e)
			translated = append(translated, posting.DocWeight{DocID: newID, Weight: e.Weight})
		}
		if len(translated) == 0 {
			continue
		}
		translated.SortInPlace()
		iters = append(iters, posting.NewSliceIterator(translated))
	}

	identity := func(id int32) (int32, bool) { return id, true }
	return posting.MergeSorted(iters, identity), nil
}

func (m *Merger) maybeAssertRequantization(term string, e Entry) {
	if !AssertRequantization || e.OriginalFreq == nil {
		return
	}
	want, err := m.opts.Quantizer.Quantize(*e.OriginalFreq)
	if err != nil {
		return
	}
	if want != e.Weight {
		m.opts.Logger.Warnw("requantization mismatch",
			"term", term, "docId", e.DocID, "expected", want, "got", e.Weight)
	}
}

// unionTerms collects the distinct term set across every source.
func (m *Merger) unionTerms() ([]string, error) {
	seen := make(map[string]struct{})
	for _, src := range m.opts.Sources {
		terms, err := src.Terms()
		if err != nil {
			return nil, err
		}
		for _, t := range terms {
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	return out, nil
}
