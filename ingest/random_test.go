package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRandomBedDeterministic(t *testing.T) {
	a := GenerateRandomBed(200, 42)
	b := GenerateRandomBed(200, 42)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i], b[i])
	}
}

func TestGenerateRandomBedIsSorted(t *testing.T) {
	features := GenerateRandomBed(500, 7)
	for i := 1; i < len(features); i++ {
		prev, cur := features[i-1], features[i]
		if prev.Chrom != cur.Chrom {
			assert.True(t, chromLess(prev.Chrom, cur.Chrom), "chrom order violated: %s then %s", prev.Chrom, cur.Chrom)
			continue
		}
		assert.LessOrEqual(t, prev.Bed.Begin, cur.Bed.Begin)
	}
}

func TestChromLessOrdersNumericBeforeNamed(t *testing.T) {
	assert.True(t, chromLess("chr2", "chr10"))
	assert.True(t, chromLess("chr5", "chrX"))
	assert.True(t, chromLess("chrX", "chrY"))
}
