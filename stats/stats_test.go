package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/gidx/binning"
	"github.com/grailbio/gidx/index"
)

func TestAnalyzeEmptyIndex(t *testing.T) {
	idx := index.New(binning.Tabix)
	s := Analyze(idx)

	assert.Equal(t, uint64(0), s.TotalFeatures)
	assert.Equal(t, uint32(0), s.TotalBinsUsed)
	assert.NotZero(t, s.TotalPossibleBins)
	assert.Equal(t, "tabix", s.SchemaType)
}

func TestAnalyzeCountsFeaturesAndBins(t *testing.T) {
	idx := index.New(binning.Ucsc)
	require.NoError(t, idx.AddFeature("chr1", 1000, 2000, 0, 10))
	require.NoError(t, idx.AddFeature("chr1", 1500, 2500, 18, 10))
	require.NoError(t, idx.AddFeature("chr1", 5_000_000, 6_000_000, 36, 10))

	s := Analyze(idx)
	assert.Equal(t, uint64(3), s.TotalFeatures)
	assert.True(t, s.TotalBinsUsed > 0)
	assert.True(t, s.BinUtilization > 0)
	assert.True(t, s.BinDensity > 0)
	assert.NotEmpty(t, s.LevelStats)
	assert.NotZero(t, s.FeatureSizeDist.MinSize)
}

func TestAnalyzeReportDoesNotPanic(t *testing.T) {
	idx := index.New(binning.Tabix)
	require.NoError(t, idx.AddFeature("chr1", 0, 100, 0, 10))
	s := Analyze(idx)
	assert.Contains(t, s.Report(), "Binning Schema Performance Analysis")
}
