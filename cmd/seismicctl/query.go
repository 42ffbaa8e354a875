package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"seismic/query"
	"seismic/sparse"
)

// runQuery runs one top-K search against a sealed segment directory,
// per spec §4.7.
func runQuery(args []string) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	dir := fs.String("dir", "segment-data", "segment directory to query")
	q := fs.String("q", "", `query tokens, e.g. "1000:0.1,2000:0.2" (required)`)
	k := fs.Int("k", 10, "top-K heap size")
	queryCut := fs.Int("query_cut", 0, "retain only the top-N query tokens by weight; 0 means no cut")
	heapFactor := fs.Float64("heap_factor", 1.0, "multiplicative slack on the skip threshold; large values degrade to exact top-K")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *q == "" {
		return fmt.Errorf("query: -q is required")
	}

	queryVec, err := parseQuery(*q)
	if err != nil {
		return err
	}

	vectors, sr, err := openSegment(*dir)
	if err != nil {
		return err
	}

	hits, err := query.Search(&termReaderAdapter{sr: sr}, vectors, queryVec, query.Options{
		K:          *k,
		HeapFactor: *heapFactor,
		QueryCut:   *queryCut,
	})
	if err != nil {
		return err
	}

	fmt.Printf("query: %d hits\n", len(hits))
	fmt.Printf("| %-10s | %-10s |\n", "docID", "score")
	for _, h := range hits {
		fmt.Printf("| %-10d | %-10d |\n", h.DocID, h.Score)
	}
	return nil
}

// parseQuery decodes a "token:weight,token:weight,..." string into a
// quantized query SparseVector.
func parseQuery(s string) (*sparse.SparseVector, error) {
	weights := make(map[uint32]float32)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("query: malformed token:weight pair %q", pair)
		}
		token, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("query: invalid token in %q: %w", pair, err)
		}
		weight, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 32)
		if err != nil {
			return nil, fmt.Errorf("query: invalid weight in %q: %w", pair, err)
		}
		weights[uint32(token)] = float32(weight)
	}
	return sparse.FromWeights(weights, sparse.DefaultQuantizer)
}
