package binning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelSizesAndOffsetsUcsc(t *testing.T) {
	sizes := levelSizes(3, 5)
	assert.Equal(t, []uint32{1, 8, 64, 512, 4096}, sizes)

	offsets := offsetsFromSizes(sizes)
	assert.Equal(t, []uint32{0, 1, 9, 73, 585}, offsets)
}

func TestLevelSizesAndOffsetsUcscExtended(t *testing.T) {
	sizes := levelSizes(3, 6)
	offsets := offsetsFromSizes(sizes)
	assert.Equal(t, []uint32{0, 1, 9, 73, 585, 4681}, offsets)
}

func TestBinCountsPerLevel(t *testing.T) {
	offsets := offsetsFromSizes(levelSizes(3, 5))
	assert.Equal(t, uint32(0), offsets[0])
	assert.Equal(t, uint32(1), offsets[1]-offsets[0])
	assert.Equal(t, uint32(8), offsets[2]-offsets[1])
	assert.Equal(t, uint32(64), offsets[3]-offsets[2])
	assert.Equal(t, uint32(512), offsets[4]-offsets[3])
}

func TestRegionToBinUcsc(t *testing.T) {
	h := FromSchema(Ucsc)

	assert.Equal(t, uint32(762+585), h.RegionToBin(100_000_000, 100_000_100))
	assert.Equal(t, uint32(585), h.RegionToBin(0, 1000))
	assert.Equal(t, uint32(9), h.RegionToBin(1_000_000, 2_000_000))
	assert.Equal(t, uint32(1), h.RegionToBin(10_000_000, 20_000_000))
	assert.Equal(t, uint32(0), h.RegionToBin(100_000_000, 200_000_000))
	assert.Equal(t, uint32(0), h.RegionToBin(0, 500_000_000))

	const KiB = 1024
	assert.Equal(t, uint32(585), h.RegionToBin(0, 128*KiB))
	assert.Equal(t, uint32(586), h.RegionToBin(128*KiB, 256*KiB))

	bin1 := h.RegionToBin(0, 128_000)
	bin2 := h.RegionToBin(128_000, 256_000)
	assert.NotEqual(t, bin1, bin2)
}

func TestRegionToBinsUcsc(t *testing.T) {
	h := FromSchema(Ucsc)
	bins := h.RegionToBins(1000, 2000)
	assert.Contains(t, bins, uint32(585))
}

func TestShiftBoundRejected(t *testing.T) {
	assert.Panics(t, func() {
		New(20, 8, 10, 20, true) // 20 + 9*8 = 92 > 63
	})
}

func TestSchemaStringRoundTrip(t *testing.T) {
	for _, s := range []Schema{Tabix, TabixNoLinear, Ucsc, UcscNoLinear, Dense, Sparse} {
		var got Schema
		require.NoError(t, got.Set(s.String()))
		assert.Equal(t, s, got)
	}
}

func TestTabixSchemaParams(t *testing.T) {
	h := FromSchema(Tabix)
	assert.EqualValues(t, 14, h.BaseShift)
	assert.EqualValues(t, 3, h.LevelShift)
	assert.Equal(t, 6, h.NumLevels)
	assert.True(t, h.HasLinear)
	assert.EqualValues(t, 14, h.LinearShift)

	// Bin-boundary span from spec.md §8 scenario E: finest bin is 16384
	// bases wide with Tabix; a feature crossing the boundary (16284,16484)
	// is assigned to one bin one level up from the finest, and every
	// query window in the scenario must include that bin as a candidate.
	bin := h.RegionToBin(16284, 16484)
	for _, q := range [][2]uint32{{16284, 16384}, {16384, 16484}, {16284, 16484}, {16400, 16410}} {
		assert.Contains(t, h.RegionToBins(q[0], q[1]), bin)
	}
}
