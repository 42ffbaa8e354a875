package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"seismic/cluster"
	"seismic/config"
	"seismic/merge"
	"seismic/posting"
	"seismic/sparse"
)

// runMerge folds several sealed segment directories into one, re-clustering
// every term's merged postings, per spec §4.6.
func runMerge(args []string) error {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	dirsFlag := fs.String("dirs", "", "comma-separated input segment directories (required, at least 2)")
	out := fs.String("out", "segment-data-merged", "output segment directory")
	clusterRatio := fs.Float64("cluster_ratio", config.DefaultFieldMapping().ClusterRatio, "clusters per posting length; 0 disables clustering")
	summaryPruneRatio := fs.Float64("summary_prune_ratio", config.DefaultFieldMapping().SummaryPruneRatio, "fraction of summary mass that may be dropped")
	workers := fs.Int("workers", 1, "bounded worker-pool size for term clustering")
	batch := fs.Int("batch", 50, "terms scheduled per batch")
	seed := fs.Int64("seed", 1, "base seed for clustering RNGs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dirsFlag == "" {
		return fmt.Errorf("merge: -dirs is required")
	}

	dirs := strings.Split(*dirsFlag, ",")
	if len(dirs) < 2 {
		return fmt.Errorf("merge: need at least 2 input segments, got %d", len(dirs))
	}

	type opened struct {
		vectors *vectorReader
		sr      *termReaderAdapter
		base    int32
	}
	inputs := make([]opened, len(dirs))
	totalDocs := int32(0)
	for i, d := range dirs {
		vectors, sr, err := openSegment(strings.TrimSpace(d))
		if err != nil {
			return fmt.Errorf("merge: opening %q: %w", d, err)
		}
		inputs[i] = opened{vectors: vectors, sr: &termReaderAdapter{sr: sr}, base: totalDocs}
		totalDocs += int32(len(vectors.vectors))
	}

	mergedVectors := make([]*sparse.SparseVector, totalDocs)
	sources := make([]merge.Source, len(inputs))
	for i, in := range inputs {
		in := in
		for old, v := range in.vectors.vectors {
			if v == nil {
				continue
			}
			mergedVectors[in.base+int32(old)] = v
		}
		sources[i] = merge.Source{
			Translate: func(old int32) (int32, bool) {
				if old < 0 || int(old) >= len(in.vectors.vectors) || in.vectors.vectors[old] == nil {
					return 0, false
				}
				return in.base + old, true
			},
			Terms: in.sr.Terms,
			PostingsFor: func(term string) ([]merge.Entry, error) {
				pc, err := in.sr.Read(term)
				if err != nil || pc == nil {
					return nil, err
				}
				return flattenPostings(pc), nil
			},
		}
	}

	mergedReader := cluster.VectorReaderFunc(func(docID int32) *sparse.SparseVector {
		if docID < 0 || int(docID) >= len(mergedVectors) {
			return nil
		}
		return mergedVectors[docID]
	})

	w := &collectingWriter{byTerm: make(map[string]*cluster.PostingClusters)}
	m := merge.New(merge.Options{
		Sources: sources,
		ClusterFor: func(term string) (cluster.Algorithm, cluster.VectorReader) {
			algo := cluster.NewRandomClustering(cluster.Params{
				ClusterRatio:      *clusterRatio,
				SummaryPruneRatio: *summaryPruneRatio,
				RNG:               rand.New(rand.NewSource(*seed ^ termSeed(term))),
			})
			return algo, mergedReader
		},
		Writer:     w,
		Quantizer:  sparse.DefaultQuantizer,
		BatchSize:  *batch,
		NumWorkers: *workers,
	})

	if err := m.Run(context.Background()); err != nil {
		return err
	}

	segmentID := uuid.NewString()
	if err := writeSegment(*out, segmentID, mergedVectors, w.byTerm); err != nil {
		return err
	}
	fmt.Printf("merge: wrote segment %s (%d docs, %d terms) to %s from %d inputs\n",
		segmentID, len(mergedVectors), len(w.byTerm), *out, len(dirs))
	return nil
}

// flattenPostings recovers one term's raw (docId, weight) postings in
// ascending old-docId order from its already-clustered form, the shape
// merge.Source.PostingsFor needs. Clusters only guarantee ascending docIds
// *within* themselves, so the entries are collected and re-sorted globally.
func flattenPostings(pc *cluster.PostingClusters) []merge.Entry {
	list := make(posting.List, 0, pc.TotalDocs())
	for _, c := range pc.Clusters() {
		ids, weights := c.DocIDs(), c.Weights()
		for i := range ids {
			list = append(list, posting.DocWeight{DocID: ids[i], Weight: weights[i]})
		}
	}
	list.SortInPlace()

	entries := make([]merge.Entry, len(list))
	for i, dw := range list {
		entries[i] = merge.Entry{DocID: dw.DocID, Weight: dw.Weight}
	}
	return entries
}

// collectingWriter accumulates every merge.Writer.WriteTerm call for a
// subsequent single codec.WriteSegment call. merge.Merger.Run invokes
// WriteTerm strictly in term order and only after its worker pool has
// drained, so no locking is needed here.
type collectingWriter struct {
	byTerm map[string]*cluster.PostingClusters
}

func (w *collectingWriter) WriteTerm(term string, pc *cluster.PostingClusters) error {
	w.byTerm[term] = pc
	return nil
}
