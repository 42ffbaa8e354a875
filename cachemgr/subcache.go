package cachemgr

// SubCache is a thin, (key, kind)-scoped view over a Manager, handed to a
// forward.Index or postingstore store so those packages never need to know
// about CacheKey sharding or entry bookkeeping directly — this is the
// "explicit module-wide state" boundary from DESIGN NOTES §9, kept narrow
// on purpose so forward/postingstore only see Reserve/Release/Register.
type SubCache struct {
	mgr  *Manager
	key  CacheKey
	kind subKind
}

// Reserve asks the cache manager to account bytes under this SubCache's
// (CacheKey, kind) with an empty sub-key. Returns false (BudgetError territory for the
// caller) if the budget could not accommodate it even after evicting less
// recently used entries.
func (s *SubCache) Reserve(bytes uint64) bool {
	return s.ReserveKeyed("", bytes)
}

// ReserveKeyed is Reserve for a specific sub-key (e.g. a term or a docId),
// so eviction can operate at that granularity rather than the whole
// (segment, field) pair at once.
func (s *SubCache) ReserveKeyed(subKey string, bytes uint64) bool {
	if s == nil || s.mgr == nil {
		return false
	}
	return s.mgr.reserve(s.key, s.kind, subKey, bytes)
}

// Release gives back bytes previously reserved with Reserve.
func (s *SubCache) Release(bytes uint64) {
	s.ReleaseKeyed("", bytes)
}

// ReleaseKeyed is Release for a specific sub-key.
func (s *SubCache) ReleaseKeyed(subKey string, bytes uint64) {
	if s == nil || s.mgr == nil {
		return
	}
	s.mgr.release(s.key, s.kind, subKey, bytes)
}

// RegisterOverhead accounts bytes as a permanent, un-evictable baseline
// cost for this (CacheKey, kind) — used once at construction time so the
// empty slot-array/map overhead is visible in BytesInUse even when every
// subsequent Reserve is refused (spec §8 S5). Only RemoveSegment gives
// the bytes back.
func (s *SubCache) RegisterOverhead(bytes uint64) {
	if s == nil || s.mgr == nil || bytes == 0 {
		return
	}
	s.mgr.registerPinned(s.key, s.kind, "\x00overhead", bytes)
}

// RecordHit bumps the hit telemetry counter, a no-op unless the Manager
// was built with StatsEnabled.
func (s *SubCache) RecordHit() {
	if s == nil || s.mgr == nil {
		return
	}
	s.mgr.recordHit()
}

// RecordMiss bumps the miss telemetry counter.
func (s *SubCache) RecordMiss() {
	if s == nil || s.mgr == nil {
		return
	}
	s.mgr.recordMiss()
}
