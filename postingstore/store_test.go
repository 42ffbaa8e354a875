package postingstore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"seismic/cachemgr"
	"seismic/cluster"
)

func sampleClusters() *cluster.PostingClusters {
	c := cluster.NewDocumentCluster([]int32{1, 2}, []uint8{10, 20}, nil)
	return cluster.NewPostingClusters([]*cluster.DocumentCluster{c})
}

func TestInsertAndRead(t *testing.T) {
	s := New(nil)
	pc := sampleClusters()
	require.True(t, s.Insert("term", pc))
	require.Same(t, pc, s.Read("term"))
}

func TestInsertKeepsFirstOnDuplicate(t *testing.T) {
	s := New(nil)
	first := sampleClusters()
	second := sampleClusters()
	require.True(t, s.Insert("term", first))
	require.False(t, s.Insert("term", second))
	require.Same(t, first, s.Read("term"))
}

func TestInsertRefusedByBudget(t *testing.T) {
	m := cachemgr.New(cachemgr.Options{BudgetBytes: 0})
	sub := m.PostingSubCache(cachemgr.CacheKey{SegmentID: "s", FieldID: "f"})
	s := New(sub)
	require.False(t, s.Insert("term", sampleClusters()))
	require.Nil(t, s.Read("term"))
}

func TestTermsSorted(t *testing.T) {
	s := New(nil)
	s.Insert("zebra", sampleClusters())
	s.Insert("alpha", sampleClusters())
	require.Equal(t, []string{"alpha", "zebra"}, s.Terms())
	require.EqualValues(t, 2, s.Size())
}

func TestCacheGatedPostingsReaderFallsThroughToPersisted(t *testing.T) {
	mem := New(nil)
	persisted := &fakePersisted{terms: map[string]*cluster.PostingClusters{"term": sampleClusters()}}
	r := NewCacheGatedPostingsReader(mem, persisted)

	pc, err := r.Read("term")
	require.NoError(t, err)
	require.NotNil(t, pc)
	require.Same(t, pc, mem.Read("term"), "persisted hit should populate the in-memory cache")
}

type fakePersisted struct {
	terms map[string]*cluster.PostingClusters
}

func (f *fakePersisted) Read(term string) (*cluster.PostingClusters, error) {
	return f.terms[term], nil
}

func (f *fakePersisted) Terms() ([]string, error) {
	out := make([]string, 0, len(f.terms))
	for t := range f.terms {
		out = append(out, t)
	}
	return out, nil
}
