package cluster

import (
	"sort"

	"seismic/sparse"
)

// Summarize computes a cluster's summary vector from its member vectors:
// the coordinate-wise maximum weight per token, pruned by keeping tokens in
// descending-weight order until the retained mass reaches (1 - pruneRatio)
// of the total and dropping the rest (spec §4.2 "Summary (pruning)
// procedure"). This is the variant that
// preserves the upper-bound property (invariant §8.5); the source's
// alternate sort-by-frequency variant is deliberately not implemented
// (spec §9 open question 2).
//
// Summarize returns nil (no summary / unprunable) if members is empty,
// matching the "absent summary" case in spec §3.
func Summarize(members []*sparse.SparseVector, pruneRatio float64) *sparse.SparseVector {
	if len(members) == 0 {
		return nil
	}

	max := make(map[uint32]uint8)
	for _, v := range members {
		for _, it := range v.Items() {
			if cur, ok := max[it.Token]; !ok || it.Weight > cur {
				max[it.Token] = it.Weight
			}
		}
	}
	if len(max) == 0 {
		return nil
	}

	tokens := make([]uint32, 0, len(max))
	for t := range max {
		tokens = append(tokens, t)
	}
	sortTokensByWeightDesc(tokens, max)

	var total float64
	for _, t := range tokens {
		total += float64(max[t])
	}
	threshold := (1 - clamp01(pruneRatio)) * total

	var cumulative float64
	kept := make([]sparse.Item, 0, len(tokens))
	for _, t := range tokens {
		if cumulative >= threshold {
			break
		}
		kept = append(kept, sparse.Item{Token: t, Weight: max[t]})
		cumulative += float64(max[t])
	}

	// Re-ascend by token for the canonical SparseVector form.
	sortItemsByTokenAsc(kept)
	v, err := sparse.New(kept)
	if err != nil {
		// max[] only ever holds weights observed on real member vectors,
		// which are themselves valid SparseVectors, so this cannot happen;
		// treat it as the InvariantError class of bug if it ever does.
		panic(err)
	}
	return v
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// sortTokensByWeightDesc orders tokens by descending weight, breaking ties
// by ascending token so the mass-accumulation order is deterministic.
func sortTokensByWeightDesc(tokens []uint32, weight map[uint32]uint8) {
	sort.Slice(tokens, func(i, j int) bool {
		wi, wj := weight[tokens[i]], weight[tokens[j]]
		if wi != wj {
			return wi > wj
		}
		return tokens[i] < tokens[j]
	})
}

func sortItemsByTokenAsc(items []sparse.Item) {
	sort.Slice(items, func(i, j int) bool { return items[i].Token < items[j].Token })
}
