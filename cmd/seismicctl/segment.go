package main

import (
	"os"
	"path/filepath"
	"sort"

	"seismic/cluster"
	"seismic/codec"
	"seismic/sparse"
)

// Each segment is a directory of two files: forwardFileName holds the
// docId -> vector forward index (codec.WriteForwardIndex/ReadForwardIndex),
// postingsFileName holds the term dictionary and clusters
// (codec.WriteSegment/OpenSegment). Both share one magic/version/kind
// framing (codec.Header).
const (
	forwardFileName  = "forward.bin"
	postingsFileName = "postings.bin"
)

// vectorReader adapts a plain []*sparse.SparseVector slice, as decoded by
// codec.ReadForwardIndex, into the forward.PersistedReader and
// query.VectorReader interfaces. cluster.VectorReader has a different Read
// signature; clustering wraps the slice in a cluster.VectorReaderFunc.
type vectorReader struct {
	vectors []*sparse.SparseVector
}

func (r *vectorReader) Read(docID int32) (*sparse.SparseVector, error) {
	if docID < 0 || int(docID) >= len(r.vectors) {
		return nil, nil
	}
	return r.vectors[docID], nil
}

// termReaderAdapter exposes a *codec.SegmentReader's ReadTerm/Terms under
// the query.TermReader / postingstore.PersistedReader method names.
type termReaderAdapter struct {
	sr *codec.SegmentReader
}

func (a *termReaderAdapter) Read(term string) (*cluster.PostingClusters, error) {
	return a.sr.ReadTerm(term)
}

func (a *termReaderAdapter) Terms() ([]string, error) {
	return a.sr.Terms(), nil
}

// writeSegment persists vectors and the per-term clusters in byTerm to
// dir, creating it if necessary.
func writeSegment(dir, segmentID string, vectors []*sparse.SparseVector, byTerm map[string]*cluster.PostingClusters) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	terms := make([]string, 0, len(byTerm))
	for t := range byTerm {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	postingsFile, err := os.Create(filepath.Join(dir, postingsFileName))
	if err != nil {
		return err
	}
	defer postingsFile.Close()
	postingsHeader := codec.Header{Kind: codec.FileKindPostingClusters, SegmentID: segmentID}
	if err := codec.WriteSegment(postingsFile, postingsHeader, terms, byTerm); err != nil {
		return err
	}

	forwardFile, err := os.Create(filepath.Join(dir, forwardFileName))
	if err != nil {
		return err
	}
	defer forwardFile.Close()
	forwardHeader := codec.Header{Kind: codec.FileKindForwardIndex, SegmentID: segmentID}
	return codec.WriteForwardIndex(forwardFile, forwardHeader, vectors)
}

// openSegment reads back the two files writeSegment produces.
func openSegment(dir string) (*vectorReader, *codec.SegmentReader, error) {
	forwardFile, err := os.Open(filepath.Join(dir, forwardFileName))
	if err != nil {
		return nil, nil, err
	}
	defer forwardFile.Close()
	_, vectors, err := codec.ReadForwardIndex(forwardFile)
	if err != nil {
		return nil, nil, err
	}

	postingsFile, err := os.Open(filepath.Join(dir, postingsFileName))
	if err != nil {
		return nil, nil, err
	}
	defer postingsFile.Close()
	sr, err := codec.OpenSegment(postingsFile)
	if err != nil {
		return nil, nil, err
	}

	return &vectorReader{vectors: vectors}, sr, nil
}
