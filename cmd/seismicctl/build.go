package main

import (
	"flag"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"

	"github.com/google/uuid"

	"seismic/cluster"
	"seismic/config"
	"seismic/fetcher"
	"seismic/posting"
	"seismic/sparse"
)

// runBuild indexes a JSON document dump (fetcher.JsonDocument records) into
// a new segment directory: a forward index plus one clustered posting list
// per token, per spec §4.6's write path (minus the merge step, which a
// fresh build has no prior segments to fold in).
func runBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	in := fs.String("in", "", "path or URL to a JSON document dump (required)")
	dir := fs.String("dir", "segment-data", "output segment directory")
	nPostings := fs.Int("n_postings", config.DefaultFieldMapping().NPostings, "max retained posting length per term; -1 to derive from doc count")
	clusterRatio := fs.Float64("cluster_ratio", config.DefaultFieldMapping().ClusterRatio, "clusters per posting length; 0 disables clustering")
	summaryPruneRatio := fs.Float64("summary_prune_ratio", config.DefaultFieldMapping().SummaryPruneRatio, "fraction of summary mass that may be dropped")
	seed := fs.Int64("seed", 1, "base seed for clustering RNGs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("build: -in is required")
	}

	mapping := config.FieldMapping{
		NPostings:         *nPostings,
		SummaryPruneRatio: *summaryPruneRatio,
		ClusterRatio:      *clusterRatio,
	}
	if err := mapping.Validate(); err != nil {
		return err
	}

	data, err := fetcher.FetchJson(*in)
	if err != nil {
		return err
	}
	docs, err := fetcher.ParseDocuments(data)
	if err != nil {
		return err
	}
	fmt.Printf("build: read %d documents from %s\n", len(docs), *in)

	quantizer := sparse.DefaultQuantizer
	maxDocID := int32(-1)
	for _, d := range docs {
		if d.DocID > maxDocID {
			maxDocID = d.DocID
		}
	}
	if maxDocID < 0 {
		return fmt.Errorf("build: no documents to index")
	}

	vectors := make([]*sparse.SparseVector, maxDocID+1)
	byTerm := make(map[string][]posting.DocWeight)
	for _, d := range docs {
		v, err := d.ToSparseVector(quantizer)
		if err != nil {
			return err
		}
		if d.DocID < 0 {
			return fmt.Errorf("build: negative doc id %d", d.DocID)
		}
		vectors[d.DocID] = v
		for _, item := range v.Items() {
			term := fmt.Sprintf("%d", item.Token)
			byTerm[term] = append(byTerm[term], posting.DocWeight{DocID: d.DocID, Weight: item.Weight})
		}
	}

	cappedPostings := mapping.ResolveNPostings(len(docs))
	reader := cluster.VectorReaderFunc(func(docID int32) *sparse.SparseVector {
		if docID < 0 || int(docID) >= len(vectors) {
			return nil
		}
		return vectors[docID]
	})

	clusters := make(map[string]*cluster.PostingClusters, len(byTerm))
	for term, list := range byTerm {
		posting.List(list).SortInPlace()
		capped := capPosting(posting.List(list), cappedPostings)

		algo := cluster.NewRandomClustering(cluster.Params{
			ClusterRatio:      mapping.ClusterRatio,
			SummaryPruneRatio: mapping.SummaryPruneRatio,
			RNG:               rand.New(rand.NewSource(*seed ^ termSeed(term))),
		})
		pc, err := algo.Cluster(capped, reader)
		if err != nil {
			return fmt.Errorf("build: clustering term %q: %w", term, err)
		}
		clusters[term] = pc
	}

	segmentID := uuid.NewString()
	if err := writeSegment(*dir, segmentID, vectors, clusters); err != nil {
		return err
	}
	fmt.Printf("build: wrote segment %s (%d docs, %d terms) to %s\n", segmentID, len(vectors), len(clusters), *dir)
	return nil
}

// capPosting enforces spec §6's n_postings cap: when a term's posting is
// longer than max, keep only the max highest-weight entries, then restore
// ascending-docId order (the invariant every downstream stage requires).
func capPosting(list posting.List, max int) posting.List {
	if max <= 0 || len(list) <= max {
		return list
	}
	kept := append(posting.List(nil), list...)
	sort.Slice(kept, func(i, j int) bool { return kept[i].Weight > kept[j].Weight })
	kept = kept[:max]
	kept.SortInPlace()
	return kept
}

// termSeed hashes term with FNV-1a; callers XOR the result with the base
// seed, so clustering consumes an independent RNG per task (spec §9's
// "explicit seeded RNG... never shared") while staying deterministic for a
// fixed base seed.
func termSeed(term string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(term))
	return int64(h.Sum64())
}
