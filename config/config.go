// Package config holds the typed, host-supplied settings from spec §6:
// per-field mapping parameters (immutable once a field is created) and
// cluster-wide settings (index_thread_qty, circuit_breaker_limit,
// stats_enabled, reranker_max_document_fields). The teacher has no
// settings layer at all — segment parameters are hardcoded constants —
// so this package is new, modeled as plain validated structs rather than
// a config-file/env source, since settings arrive as host-supplied
// struct fields (no file or process-env distribution is in scope).
package config

import (
	"fmt"
	"runtime"
)

// Defaults for the n_postings == -1 derivation (spec §6's "-1 ⇒
// max(DEFAULT_POSTING_PRUNE_RATIO · docCount, DEFAULT_POSTING_MINIMUM_LENGTH)").
// spec.md doesn't pin these two constants to a number; these values keep
// the derived posting length in the same order of magnitude as the
// default n_postings=6000 for a mid-sized corpus.
const (
	DefaultPostingPruneRatio    = 0.1
	DefaultPostingMinimumLength = 2000
)

// FieldMapping is the per-field mapping configuration, read once from
// the host's field schema at field-creation time and treated as
// immutable afterward (spec §6).
type FieldMapping struct {
	// NPostings caps the retained posting length per term. -1 means
	// "derive from docCount" via ResolveNPostings.
	NPostings int
	// SummaryPruneRatio is the fraction of summary mass that may be
	// dropped when building a cluster summary (spec §4.2/§8.5).
	SummaryPruneRatio float64
	// ClusterRatio is clusters-per-posting-length; 0 disables clustering
	// (spec §8 invariant 7: every cluster then has ShouldNotSkip true).
	ClusterRatio float64
	// ApproximateThreshold is the minimum doc count to enable SEISMIC
	// scoring; fields below it degrade to plain (unclustered) postings.
	ApproximateThreshold int
}

// DefaultFieldMapping returns spec §6's documented defaults.
func DefaultFieldMapping() FieldMapping {
	return FieldMapping{
		NPostings:            6000,
		SummaryPruneRatio:    0.4,
		ClusterRatio:         0.1,
		ApproximateThreshold: 1_000_000,
	}
}

// Validate rejects out-of-range values, the natural boundary spec §6's
// "tokens greater than the field's dimensional upper bound are
// rejected" sentence implies exists for the other fields too.
func (f FieldMapping) Validate() error {
	if f.NPostings < -1 {
		return fmt.Errorf("config: n_postings must be >= -1, got %d", f.NPostings)
	}
	if f.SummaryPruneRatio < 0 || f.SummaryPruneRatio > 1 {
		return fmt.Errorf("config: summary_prune_ratio must be in [0,1], got %v", f.SummaryPruneRatio)
	}
	if f.ClusterRatio < 0 || f.ClusterRatio > 1 {
		return fmt.Errorf("config: cluster_ratio must be in [0,1], got %v", f.ClusterRatio)
	}
	if f.ApproximateThreshold < 0 {
		return fmt.Errorf("config: approximate_threshold must be >= 0, got %d", f.ApproximateThreshold)
	}
	return nil
}

// ResolveNPostings derives the effective posting cap for a field holding
// docCount documents, applying spec §6's "-1" rule.
func (f FieldMapping) ResolveNPostings(docCount int) int {
	if f.NPostings != -1 {
		return f.NPostings
	}
	derived := int(DefaultPostingPruneRatio * float64(docCount))
	if derived < DefaultPostingMinimumLength {
		return DefaultPostingMinimumLength
	}
	return derived
}

// UsesClustering reports whether this field's postings should run
// through cluster.Algorithm at all, rather than the unprunable
// single-cluster shortcut (spec §4.6 step 3 / §8 invariant 7).
func (f FieldMapping) UsesClustering() bool {
	return f.ClusterRatio > 0
}

// ClusterSettings is the cluster-wide configuration (spec §6's
// `neural.*` keys), independent of any one field.
type ClusterSettings struct {
	// IndexThreadQty sizes the merge pipeline's worker pool. 0 means
	// "use DefaultClusterSettings's derivation".
	IndexThreadQty int
	// CircuitBreakerLimit is a percentage ("80%") or absolute byte size
	// ("4GB") string bounding total cache memory, parsed via
	// ResolveCircuitBreakerBytes.
	CircuitBreakerLimit string
	// StatsEnabled gates cachemgr telemetry counters.
	StatsEnabled bool
	// RerankerMaxDocumentFields is accepted and stored even though the
	// cross-field reranker itself is out of scope (spec §1 Non-goals);
	// settings distribution end-to-end still needs a home for it.
	RerankerMaxDocumentFields int
}

// DefaultClusterSettings returns spec §6's documented defaults.
// IndexThreadQty defaults to max(1, NumCPU/2), clamped to [1, NumCPU].
func DefaultClusterSettings() ClusterSettings {
	return ClusterSettings{
		IndexThreadQty:            clampThreads(runtime.NumCPU() / 2),
		CircuitBreakerLimit:       "80%",
		StatsEnabled:              false,
		RerankerMaxDocumentFields: 50,
	}
}

// ResolvedIndexThreadQty clamps IndexThreadQty to [1, NumCPU], applying
// the default derivation when it is unset (0).
func (c ClusterSettings) ResolvedIndexThreadQty() int {
	if c.IndexThreadQty <= 0 {
		return clampThreads(runtime.NumCPU() / 2)
	}
	return clampThreads(c.IndexThreadQty)
}

func clampThreads(n int) int {
	if n < 1 {
		return 1
	}
	if max := runtime.NumCPU(); n > max {
		return max
	}
	return n
}
