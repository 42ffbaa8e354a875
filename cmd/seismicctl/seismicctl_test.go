package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"seismic/cluster"
	"seismic/codec"
	"seismic/query"
	"seismic/sparse"
)

// writeDump writes a JSON document dump of count docs with segment-local
// doc ids 0..count-1. Each doc carries tokens 1000 and 2000 with weight
// firstGlobal+i+1, so after merging the two dumps the global ranking by
// dot product descends with the merged doc id.
func writeDump(t *testing.T, path string, firstGlobal, count int) {
	t.Helper()
	var docs []string
	for i := 0; i < count; i++ {
		w := float64(firstGlobal + i + 1)
		docs = append(docs, fmt.Sprintf(`{"doc_id": %d, "tokens": {"1000": %g, "2000": %g}}`, i, w, w))
	}
	body := `{"documents": [` + strings.Join(docs, ",") + `]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestBuildMergeQueryEndToEnd(t *testing.T) {
	dir := t.TempDir()
	dumpA := filepath.Join(dir, "a.json")
	dumpB := filepath.Join(dir, "b.json")
	segA := filepath.Join(dir, "segA")
	segB := filepath.Join(dir, "segB")
	merged := filepath.Join(dir, "merged")

	writeDump(t, dumpA, 0, 4)
	writeDump(t, dumpB, 4, 4)

	require.NoError(t, runBuild([]string{"-in", dumpA, "-dir", segA, "-seed", "42"}))
	require.NoError(t, runBuild([]string{"-in", dumpB, "-dir", segB, "-seed", "43"}))
	require.NoError(t, runMerge([]string{"-dirs", segA + "," + segB, "-out", merged, "-seed", "44", "-workers", "2"}))

	vectors, sr, err := openSegment(merged)
	require.NoError(t, err)
	require.Len(t, vectors.vectors, 8)

	// Exact-mode query over both tokens: every doc hits, and the top 4 by
	// score are the 4 highest-weighted (= highest merged id) docs.
	q := sparse.MustNew([]sparse.Item{{Token: 1000, Weight: 4}, {Token: 2000, Weight: 8}})
	hits, err := query.Search(&termReaderAdapter{sr: sr}, vectors, q, query.Options{
		K: 10, HeapFactor: 1e6, QueryCut: 2,
	})
	require.NoError(t, err)
	require.Len(t, hits, 8)

	byScore := append([]query.Hit(nil), hits...)
	sort.Slice(byScore, func(i, j int) bool { return byScore[i].Score > byScore[j].Score })
	top4 := make([]int32, 4)
	for i := range top4 {
		top4[i] = byScore[i].DocID
	}
	require.Equal(t, []int32{7, 6, 5, 4}, top4)
}

// TestMergedSegmentReserializesByteEqual is the file-level half of
// scenario S4: reopen a merged segment, decode every term through the
// dictionary, serialize the whole thing again with the same header, and
// expect the exact bytes the merge originally wrote.
func TestMergedSegmentReserializesByteEqual(t *testing.T) {
	dir := t.TempDir()
	dumpA := filepath.Join(dir, "a.json")
	dumpB := filepath.Join(dir, "b.json")
	segA := filepath.Join(dir, "segA")
	segB := filepath.Join(dir, "segB")
	seg := filepath.Join(dir, "merged")
	writeDump(t, dumpA, 0, 3)
	writeDump(t, dumpB, 3, 3)
	require.NoError(t, runBuild([]string{"-in", dumpA, "-dir", segA, "-seed", "7"}))
	require.NoError(t, runBuild([]string{"-in", dumpB, "-dir", segB, "-seed", "8"}))
	require.NoError(t, runMerge([]string{"-dirs", segA + "," + segB, "-out", seg, "-seed", "9"}))

	raw, err := os.ReadFile(filepath.Join(seg, postingsFileName))
	require.NoError(t, err)

	postingsFile, err := os.Open(filepath.Join(seg, postingsFileName))
	require.NoError(t, err)
	defer postingsFile.Close()
	sr, err := codec.OpenSegment(postingsFile)
	require.NoError(t, err)

	terms := sr.Terms()
	byTerm := make(map[string]*cluster.PostingClusters, len(terms))
	for _, term := range terms {
		pc, err := sr.ReadTerm(term)
		require.NoError(t, err)
		byTerm[term] = pc
	}

	var buf bytes.Buffer
	require.NoError(t, codec.WriteSegment(&buf, sr.Header(), terms, byTerm))
	require.Equal(t, raw, buf.Bytes())
}
