package postingstore

import "seismic/cluster"

// PersistedReader is the read side of a clustered posting index that lives
// on disk. codec.SegmentReader provides it through a thin adapter
// (termReaderAdapter in cmd/seismicctl) over its ReadTerm/Terms methods.
type PersistedReader interface {
	Read(term string) (*cluster.PostingClusters, error)
	Terms() ([]string, error)
}

// CacheGatedPostingsReader composes an in-memory Store with a
// PersistedReader fallback, identical in shape to
// forward.CacheGatedForwardIndexReader (spec §4.4): an in-memory hit wins;
// otherwise fall through to disk and opportunistically repopulate the
// cache. GetTerms always defers to the persisted side since it alone is
// authoritative for the term universe (cache entries may have been
// evicted without the term itself ceasing to exist).
type CacheGatedPostingsReader struct {
	mem       *Store
	persisted PersistedReader
}

// NewCacheGatedPostingsReader builds a composed reader. persisted may be
// nil for an unsealed, in-progress segment.
func NewCacheGatedPostingsReader(mem *Store, persisted PersistedReader) *CacheGatedPostingsReader {
	return &CacheGatedPostingsReader{mem: mem, persisted: persisted}
}

// Read implements the cache-then-persisted composition.
func (r *CacheGatedPostingsReader) Read(term string) (*cluster.PostingClusters, error) {
	if pc := r.mem.Read(term); pc != nil {
		return pc, nil
	}
	if r.persisted == nil {
		return nil, nil
	}
	pc, err := r.persisted.Read(term)
	if err != nil {
		return nil, nil // degrade to "not present" at the composed level
	}
	if pc != nil {
		r.mem.Insert(term, pc) // best-effort
	}
	return pc, nil
}

// GetTerms returns the full term universe from the persisted side, per
// spec §4.4.
func (r *CacheGatedPostingsReader) GetTerms() ([]string, error) {
	if r.persisted == nil {
		return r.mem.Terms(), nil
	}
	return r.persisted.Terms()
}
