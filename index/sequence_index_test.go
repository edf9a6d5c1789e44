package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/gidx/binning"
)

func TestSequenceIndexAddAndFind(t *testing.T) {
	hb := binning.FromSchema(binning.Tabix)
	seq := NewSequenceIndex()

	require.NoError(t, seq.AddFeature("chr1", 1000, 2000, 0, 10, hb))
	require.NoError(t, seq.AddFeature("chr1", 1500, 2500, 18, 20, hb))
	require.NoError(t, seq.AddFeature("chr1", 5000, 6000, 46, 5, hb))

	results := seq.FindOverlapping(1900, 2100, hb)
	assert.Len(t, results, 2)

	none := seq.FindOverlapping(3000, 3100, hb)
	assert.Empty(t, none)
}

func TestSequenceIndexRejectsUnsortedStart(t *testing.T) {
	hb := binning.FromSchema(binning.Tabix)
	seq := NewSequenceIndex()

	require.NoError(t, seq.AddFeature("chr1", 2000, 2100, 0, 10, hb))
	err := seq.AddFeature("chr1", 1000, 1100, 18, 10, hb)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsorted")
}

func TestSequenceIndexLinearIndexLowerBound(t *testing.T) {
	hb := binning.FromSchema(binning.Tabix)
	seq := NewSequenceIndex()

	require.NoError(t, seq.AddFeature("chr1", 0, 100, 100, 10, hb))
	require.NoError(t, seq.AddFeature("chr1", 20000, 20100, 500, 10, hb))

	// A query that starts in the second feature's window must not see the
	// first feature's offset as a candidate lower bound.
	window := uint32(20000) >> hb.LinearShift
	require.Less(t, int(window), len(seq.LinearIndex))
	assert.Equal(t, uint64(500), seq.LinearIndex[window])
}

func TestSequenceIndexNoLinearSchemaLeavesIndexNil(t *testing.T) {
	hb := binning.FromSchema(binning.TabixNoLinear)
	seq := NewSequenceIndex()
	require.NoError(t, seq.AddFeature("chr1", 0, 100, 0, 10, hb))
	assert.Nil(t, seq.LinearIndex)
}
