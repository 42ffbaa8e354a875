package forward

import "seismic/sparse"

// PersistedReader is the read side of a forward index that lives on disk.
// codec.ReadForwardIndex decodes the on-disk slots into a slice; a thin
// adapter over that slice (vectorReader in cmd/seismicctl) implements it.
type PersistedReader interface {
	Read(docID int32) (*sparse.SparseVector, error)
}

// CacheGatedForwardIndexReader composes an in-memory Index with a
// PersistedReader fallback, per spec §4.3: an in-memory hit returns
// immediately; otherwise the persisted side is consulted and, on a hit,
// opportunistically written back into the in-memory side (failures there
// are ignored — warm caches are best-effort).
type CacheGatedForwardIndexReader struct {
	mem       *Index
	persisted PersistedReader
}

// NewCacheGatedForwardIndexReader builds a composed reader over mem and
// persisted. persisted may be nil, in which case misses in mem are simply
// misses (useful for segments still being built, with no sealed file yet).
func NewCacheGatedForwardIndexReader(mem *Index, persisted PersistedReader) *CacheGatedForwardIndexReader {
	return &CacheGatedForwardIndexReader{mem: mem, persisted: persisted}
}

// Read implements the three-step composition from spec §4.3.
func (r *CacheGatedForwardIndexReader) Read(docID int32) (*sparse.SparseVector, error) {
	if v := r.mem.Read(docID); v != nil {
		return v, nil
	}
	if r.persisted == nil {
		return nil, nil
	}
	v, err := r.persisted.Read(docID)
	if err != nil {
		// A transient error here degrades to "not present" only at this
		// composed-reader level (spec §7); direct persisted reads must
		// not swallow the error.
		return nil, nil
	}
	if v != nil {
		r.mem.Insert(docID, v) // best-effort; ignore refusal
	}
	return v, nil
}
