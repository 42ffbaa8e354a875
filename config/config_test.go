package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultFieldMappingIsValid(t *testing.T) {
	require.NoError(t, DefaultFieldMapping().Validate())
}

func TestFieldMappingValidateRejectsOutOfRange(t *testing.T) {
	cases := []FieldMapping{
		{NPostings: -2, SummaryPruneRatio: 0.4, ClusterRatio: 0.1, ApproximateThreshold: 1},
		{NPostings: 10, SummaryPruneRatio: 1.5, ClusterRatio: 0.1, ApproximateThreshold: 1},
		{NPostings: 10, SummaryPruneRatio: 0.4, ClusterRatio: -0.1, ApproximateThreshold: 1},
		{NPostings: 10, SummaryPruneRatio: 0.4, ClusterRatio: 0.1, ApproximateThreshold: -1},
	}
	for _, c := range cases {
		require.Error(t, c.Validate())
	}
}

func TestResolveNPostingsDerivesFromDocCount(t *testing.T) {
	f := FieldMapping{NPostings: -1}
	require.Equal(t, DefaultPostingMinimumLength, f.ResolveNPostings(100))
	require.Equal(t, 100000, f.ResolveNPostings(1_000_000))
}

func TestResolveNPostingsPassesThroughExplicitValue(t *testing.T) {
	f := FieldMapping{NPostings: 500}
	require.Equal(t, 500, f.ResolveNPostings(1_000_000))
}

func TestUsesClustering(t *testing.T) {
	require.True(t, FieldMapping{ClusterRatio: 0.1}.UsesClustering())
	require.False(t, FieldMapping{ClusterRatio: 0}.UsesClustering())
}

func TestResolvedIndexThreadQtyClamps(t *testing.T) {
	require.Equal(t, 1, ClusterSettings{IndexThreadQty: -3}.ResolvedIndexThreadQty())
	require.Equal(t, 1, ClusterSettings{IndexThreadQty: 0}.ResolvedIndexThreadQty())
	require.GreaterOrEqual(t, ClusterSettings{IndexThreadQty: 1 << 20}.ResolvedIndexThreadQty(), 1)
}

func TestResolveCircuitBreakerBytesPercentage(t *testing.T) {
	c := ClusterSettings{CircuitBreakerLimit: "50%"}
	got, err := c.ResolveCircuitBreakerBytes(1000)
	require.NoError(t, err)
	require.Equal(t, uint64(500), got)
}

func TestResolveCircuitBreakerBytesAbsoluteSize(t *testing.T) {
	c := ClusterSettings{CircuitBreakerLimit: "4GB"}
	got, err := c.ResolveCircuitBreakerBytes(0)
	require.NoError(t, err)
	require.Equal(t, uint64(4)<<30, got)
}

func TestResolveCircuitBreakerBytesRejectsGarbage(t *testing.T) {
	c := ClusterSettings{CircuitBreakerLimit: "lots"}
	_, err := c.ResolveCircuitBreakerBytes(1000)
	require.Error(t, err)
}
