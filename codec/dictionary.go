// Package codec also defines the term-dictionary: a prefix block mapping
// each term to a byte offset into the cluster records that follow it in
// the same file, giving O(1) random access to any one term's record
// without scanning the whole file (spec §4.5, generalized from the
// teacher's storage.Segment in-memory TermMetadata offsets, which this
// package makes persistent on disk).
package codec

import (
	"bytes"
	"io"

	"seismic/cluster"
	"seismic/errs"
)

// WriteSegment serializes one posting-clusters file for a sealed segment
// field: Frame{ numTerms(varu64) | (term, offset)*numTerms | clusterRecord* }.
// offset is the byte position of a term's cluster record relative to the
// first byte after the dictionary block, so a reader can seek directly to
// it once the dictionary has been parsed.
//
// terms fixes the iteration order; callers wanting alphabetical order
// should sort before calling — order is otherwise not semantically
// meaningful for this file (unlike PostingClusters' internal cluster
// order, which is significant, see cluster.PostingClusters).
func WriteSegment(w io.Writer, header Header, terms []string, byTerm map[string]*cluster.PostingClusters) error {
	var clusterRecords bytes.Buffer
	offsets := make([]int64, len(terms))
	for i, term := range terms {
		pc, ok := byTerm[term]
		if !ok {
			return errs.Invariantf("codec: term %q missing from byTerm map", term)
		}
		offsets[i] = int64(clusterRecords.Len())
		if err := WriteClusters(&clusterRecords, pc); err != nil {
			return err
		}
	}

	var body bytes.Buffer
	if err := WriteUvarint(&body, uint64(len(terms))); err != nil {
		return err
	}
	for i, term := range terms {
		if err := writeString(&body, term); err != nil {
			return err
		}
		if err := WriteUvarint(&body, uint64(offsets[i])); err != nil {
			return err
		}
	}
	body.Write(clusterRecords.Bytes())

	return WriteFramed(w, header, body.Bytes())
}

// SegmentReader gives O(1) access to any one term's cluster record within
// an already-opened and checksum-validated posting-clusters file.
type SegmentReader struct {
	header Header
	body   []byte // cluster records only, offsets are relative to this slice
	terms  map[string]int64
	order  []string
}

// OpenSegment reads and validates a full posting-clusters file (header,
// dictionary, cluster records, footer checksum) from r. The whole file is
// read into memory, whatever kind of io.Reader r is.
func OpenSegment(r io.Reader) (*SegmentReader, error) {
	header, body, err := ReadFramed(r, FileKindPostingClusters)
	if err != nil {
		return nil, err
	}

	br := bytes.NewReader(body)
	numTerms, err := ReadUvarint(br)
	if err != nil {
		return nil, err
	}
	terms := make(map[string]int64, numTerms)
	order := make([]string, 0, numTerms)
	for i := uint64(0); i < numTerms; i++ {
		term, err := readString(br)
		if err != nil {
			return nil, err
		}
		offset, err := ReadUvarint(br)
		if err != nil {
			return nil, err
		}
		terms[term] = int64(offset)
		order = append(order, term)
	}

	clusterRecords := body[len(body)-br.Len():]
	return &SegmentReader{header: header, body: clusterRecords, terms: terms, order: order}, nil
}

func (s *SegmentReader) Header() Header  { return s.header }
func (s *SegmentReader) Terms() []string { return append([]string(nil), s.order...) }
func (s *SegmentReader) NumTerms() int   { return len(s.order) }

// ReadTerm decodes the cluster record at term's stored offset. Returns nil
// with no error if term is not present in this segment.
func (s *SegmentReader) ReadTerm(term string) (*cluster.PostingClusters, error) {
	offset, ok := s.terms[term]
	if !ok {
		return nil, nil
	}
	if offset < 0 || offset > int64(len(s.body)) {
		return nil, errs.Corruptf("codec: offset %d out of range for term %q", offset, term)
	}
	return ReadClusters(bytes.NewReader(s.body[offset:]))
}
