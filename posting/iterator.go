package posting

// Iterator is a pull-based cursor over a single term's posting list,
// shaped like the teacher's storage.PostingListIterator (Next/DocID) but
// carrying a quantized weight byte instead of a float term frequency.
type Iterator interface {
	// Next advances to the next entry, returning false when exhausted.
	Next() bool
	// Current returns the entry the iterator currently points to. Current
	// must only be called after a Next call returned true.
	Current() DocWeight
}

// SliceIterator adapts a List into an Iterator.
type SliceIterator struct {
	list List
	pos  int
}

// NewSliceIterator returns an Iterator over list, which must already
// satisfy List.IsAscending.
func NewSliceIterator(list List) *SliceIterator {
	return &SliceIterator{list: list, pos: -1}
}

func (it *SliceIterator) Next() bool {
	it.pos++
	return it.pos < len(it.list)
}

func (it *SliceIterator) Current() DocWeight {
	return it.list[it.pos]
}

// DocIDTranslator maps an old segment-local DocID to a new merged DocID.
// It returns ok=false for documents dropped during the merge (deletions).
type DocIDTranslator func(oldDocID int32) (newDocID int32, ok bool)

// MergeSorted drains a set of per-input Iterators (each already ascending
// by the *old* DocID) through a DocIDTranslator, yielding one merged List
// ascending by new DocID. Inputs must not contribute overlapping old
// DocIDs post-translation; if they do, the later iterator's value for that
// DocID wins (mirrors §4.6.2: dropped docs are simply skipped, so any
// mapping collision is the host's responsibility, not ours to validate).
func MergeSorted(iters []Iterator, translate DocIDTranslator) List {
	type pending struct {
		it   Iterator
		has  bool
		curr DocWeight
	}
	pendings := make([]*pending, 0, len(iters))
	for _, it := range iters {
		p := &pending{it: it}
		p.has = it.Next()
		if p.has {
			p.curr = it.Current()
		}
		pendings = append(pendings, p)
	}

	out := make(List, 0)
	for {
		// Find the smallest *translated* DocID among pending cursors,
		// skipping entries the translator drops.
		bestIdx := -1
		var bestNewID int32
		for i, p := range pendings {
			for p.has {
				newID, ok := translate(p.curr.DocID)
				if ok {
					if bestIdx == -1 || newID < bestNewID {
						bestIdx, bestNewID = i, newID
					}
					break
				}
				p.has = p.it.Next()
				if p.has {
					p.curr = p.it.Current()
				}
			}
		}
		if bestIdx == -1 {
			break
		}

		// Emit every pending cursor currently mapping to bestNewID (there
		// should be at most one per term across non-overlapping segments,
		// but take the last writer to keep the merge total).
		var weight uint8
		for _, p := range pendings {
			if !p.has {
				continue
			}
			newID, ok := translate(p.curr.DocID)
			if ok && newID == bestNewID {
				weight = p.curr.Weight
				p.has = p.it.Next()
				if p.has {
					p.curr = p.it.Current()
				}
			}
		}
		out = append(out, DocWeight{DocID: bestNewID, Weight: weight})
	}
	return out
}
