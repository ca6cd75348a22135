package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAdherenceStatsEmpty(t *testing.T) {
	result := BuildAdherenceStats(nil)

	assert.Equal(t, int64(0), result.Total)
	assert.Empty(t, result.Stats)
}

func TestBuildAdherenceStatsPercentages(t *testing.T) {
	result := BuildAdherenceStats([]StatusCount{
		{Status: "taken", Count: 7},
		{Status: "missed", Count: 3},
	})

	require.Equal(t, int64(10), result.Total)
	require.Len(t, result.Stats, 2)
	assert.Equal(t, 70.0, result.Stats[0].Percentage)
	assert.Equal(t, 30.0, result.Stats[1].Percentage)
}

func TestBuildAdherenceStatsPercentagesSumToHundred(t *testing.T) {
	result := BuildAdherenceStats([]StatusCount{
		{Status: "taken", Count: 1},
		{Status: "missed", Count: 1},
		{Status: "skipped", Count: 1},
	})

	var sum float64
	for _, s := range result.Stats {
		assert.Equal(t, 33.33, s.Percentage)
		sum += s.Percentage
	}
	assert.InDelta(t, 100, sum, 0.01)
}
