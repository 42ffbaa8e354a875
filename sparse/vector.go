// Package sparse implements the SparseVector primitive used throughout the
// seismic core: an ordered sequence of (token, quantized weight) pairs with
// ascending, unique tokens. It provides the merge-walk and densified dot
// products the query scorer needs, and the quantizer that turns float
// weights into the unsigned byte domain stored on disk.
package sparse

import (
	"fmt"
	"sort"
)

// Item is a single (token, weight) pair within a SparseVector. Weight is the
// canonical quantized representation: an unsigned byte, 0 never appears
// (per the SparseVector invariant that values are non-zero).
type Item struct {
	Token  uint32
	Weight uint8
}

// SparseVector is an ordered, token-ascending, token-unique list of Items.
// It is immutable once constructed; all mutating helpers return a new
// SparseVector.
type SparseVector struct {
	items []Item
}

// New validates and wraps items into a SparseVector. items must already be
// sorted ascending by Token with no duplicate tokens and no zero weights;
// New returns an error if any of those invariants are violated, since a
// corrupt vector here would silently break every upper-bound guarantee the
// scorer depends on.
func New(items []Item) (*SparseVector, error) {
	for i, it := range items {
		if it.Weight == 0 {
			return nil, fmt.Errorf("sparse: token %d has zero weight", it.Token)
		}
		if i > 0 && items[i-1].Token >= it.Token {
			return nil, fmt.Errorf("sparse: tokens not strictly ascending at index %d", i)
		}
	}
	return &SparseVector{items: items}, nil
}

// MustNew is New but panics on error; useful for tests and constants.
func MustNew(items []Item) *SparseVector {
	v, err := New(items)
	if err != nil {
		panic(err)
	}
	return v
}

// FromWeights builds a SparseVector from an unordered token->float weight
// map, quantizing each weight with the canonical Quantizer.
func FromWeights(weights map[uint32]float32, q Quantizer) (*SparseVector, error) {
	tokens := make([]uint32, 0, len(weights))
	for t := range weights {
		tokens = append(tokens, t)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i] < tokens[j] })

	items := make([]Item, 0, len(tokens))
	for _, t := range tokens {
		f := weights[t]
		if f == 0 {
			continue
		}
		b, err := q.Quantize(f)
		if err != nil {
			return nil, fmt.Errorf("sparse: token %d: %w", t, err)
		}
		if b == 0 {
			continue
		}
		items = append(items, Item{Token: t, Weight: b})
	}
	return New(items)
}

// Items returns the vector's (token, weight) pairs in ascending-token order.
// The returned slice must not be mutated by the caller.
func (v *SparseVector) Items() []Item {
	if v == nil {
		return nil
	}
	return v.items
}

// Len returns the number of non-zero tokens in the vector.
func (v *SparseVector) Len() int {
	if v == nil {
		return 0
	}
	return len(v.items)
}

// WeightOf returns the quantized weight for token, or 0 if absent.
func (v *SparseVector) WeightOf(token uint32) uint8 {
	if v == nil {
		return 0
	}
	items := v.items
	lo, hi := 0, len(items)
	for lo < hi {
		mid := (lo + hi) / 2
		if items[mid].Token < token {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(items) && items[lo].Token == token {
		return items[lo].Weight
	}
	return 0
}

// MaxToken returns the largest token present, and false if the vector is
// empty.
func (v *SparseVector) MaxToken() (uint32, bool) {
	if v.Len() == 0 {
		return 0, false
	}
	return v.items[len(v.items)-1].Token, true
}

// Dot computes the merge-walk inner product of two SparseVectors in
// O(|a|+|b|), with arithmetic in the integer domain (no float cast in the
// hot loop): Σ a[t]·b[t] over shared tokens t.
func Dot(a, b *SparseVector) int32 {
	ai, bi := a.Items(), b.Items()
	var sum int32
	i, j := 0, 0
	for i < len(ai) && j < len(bi) {
		switch {
		case ai[i].Token == bi[j].Token:
			sum += int32(ai[i].Weight) * int32(bi[j].Weight)
			i++
			j++
		case ai[i].Token < bi[j].Token:
			i++
		default:
			j++
		}
	}
	return sum
}

// DotDense computes Σ item.Weight * dense[item.Token] in O(|items|),
// entirely in unsigned-byte-promoted-to-int32 arithmetic. This is the form
// the scorer uses against a precomputed dense query: one densification per
// query, then many O(|doc|) scores against it.
func DotDense(items []Item, dense []uint8) int32 {
	var sum int32
	for _, it := range items {
		if int(it.Token) >= len(dense) {
			continue
		}
		sum += int32(it.Weight) * int32(dense[it.Token])
	}
	return sum
}

// ToDense materializes v as a dense byte vector of length maxToken+1,
// indexed directly by token. Intended to be called once per query and
// reused across many DotDense calls.
func (v *SparseVector) ToDense(maxToken uint32) []uint8 {
	dense := make([]uint8, maxToken+1)
	for _, it := range v.Items() {
		if it.Token <= maxToken {
			dense[it.Token] = it.Weight
		}
	}
	return dense
}
