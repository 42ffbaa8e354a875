package cluster

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"seismic/posting"
	"seismic/sparse"
)

func vecReader(vectors map[int32]*sparse.SparseVector) VectorReaderFunc {
	return func(docID int32) *sparse.SparseVector { return vectors[docID] }
}

func TestClusterRatioZeroYieldsSingleUnprunableCluster(t *testing.T) {
	docs := posting.List{{DocID: 3, Weight: 1}, {DocID: 1, Weight: 2}, {DocID: 2, Weight: 3}}
	algo := NewRandomClustering(Params{ClusterRatio: 0, RNG: rand.New(rand.NewSource(1))})

	pc, err := algo.Cluster(docs, vecReader(nil))
	require.NoError(t, err)
	require.Equal(t, 1, pc.Len())
	c := pc.Clusters()[0]
	require.True(t, c.ShouldNotSkip())
	require.Nil(t, c.Summary())
	require.Equal(t, []int32{1, 2, 3}, c.DocIDs())
}

func TestClusterPreservesTotalPostingLength(t *testing.T) {
	vectors := map[int32]*sparse.SparseVector{}
	docs := posting.List{}
	for i := int32(0); i < 50; i++ {
		vectors[i] = sparse.MustNew([]sparse.Item{{Token: uint32(i % 5), Weight: uint8(10 + i%20)}})
		docs = append(docs, posting.DocWeight{DocID: i, Weight: 1})
	}

	algo := NewRandomClustering(Params{ClusterRatio: 0.2, SummaryPruneRatio: 0.4, RNG: rand.New(rand.NewSource(42))})
	pc, err := algo.Cluster(docs, vecReader(vectors))
	require.NoError(t, err)
	require.Equal(t, len(docs), pc.TotalDocs())

	seen := map[int32]bool{}
	for _, c := range pc.Clusters() {
		require.True(t, posting.List(zip(c.DocIDs(), c.Weights())).IsAscending())
		for _, id := range c.DocIDs() {
			require.False(t, seen[id], "docID %d appears in more than one cluster", id)
			seen[id] = true
		}
	}
}

func TestClusterDropsDocsWithMissingVectors(t *testing.T) {
	vectors := map[int32]*sparse.SparseVector{
		0: sparse.MustNew([]sparse.Item{{Token: 1, Weight: 5}}),
	}
	docs := posting.List{{DocID: 0, Weight: 1}, {DocID: 1, Weight: 1}}
	algo := NewRandomClustering(Params{ClusterRatio: 1, RNG: rand.New(rand.NewSource(7))})

	pc, err := algo.Cluster(docs, vecReader(vectors))
	require.NoError(t, err)
	require.Equal(t, 1, pc.TotalDocs())
}

func TestSummarizeIsUpperBound(t *testing.T) {
	members := []*sparse.SparseVector{
		sparse.MustNew([]sparse.Item{{Token: 1, Weight: 10}, {Token: 2, Weight: 5}}),
		sparse.MustNew([]sparse.Item{{Token: 1, Weight: 3}, {Token: 3, Weight: 20}}),
	}
	summary := Summarize(members, 0)
	require.NotNil(t, summary)
	require.Equal(t, uint8(10), summary.WeightOf(1))
	require.Equal(t, uint8(5), summary.WeightOf(2))
	require.Equal(t, uint8(20), summary.WeightOf(3))

	q := sparse.MustNew([]sparse.Item{{Token: 1, Weight: 4}, {Token: 2, Weight: 4}, {Token: 3, Weight: 4}})
	maxMemberScore := int32(0)
	for _, m := range members {
		if s := sparse.Dot(m, q); s > maxMemberScore {
			maxMemberScore = s
		}
	}
	require.GreaterOrEqual(t, sparse.Dot(summary, q), maxMemberScore)
}

func TestSummarizePruning(t *testing.T) {
	members := []*sparse.SparseVector{
		sparse.MustNew([]sparse.Item{{Token: 1, Weight: 100}, {Token: 2, Weight: 1}}),
	}
	// Pruning half the mass should drop the low-weight token 2.
	summary := Summarize(members, 0.5)
	require.Equal(t, uint8(100), summary.WeightOf(1))
	require.Equal(t, uint8(0), summary.WeightOf(2))
}

func zip(ids []int32, weights []uint8) posting.List {
	out := make(posting.List, len(ids))
	for i := range ids {
		out[i] = posting.DocWeight{DocID: ids[i], Weight: weights[i]}
	}
	return out
}
