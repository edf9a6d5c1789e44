package ingest

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBedSkipsHeadersAndComments(t *testing.T) {
	input := strings.Join([]string{
		"track name=demo",
		"browser position chr1:1-100",
		"# a comment",
		"",
		"chr1\t1000\t2000\tgeneA\t0\t+",
		"chr2\t500\t600",
	}, "\n")

	var got []Feature
	err := ReadBed(strings.NewReader(input), func(f Feature) error {
		got = append(got, f)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "chr1", got[0].Chrom)
	assert.Equal(t, uint32(1000), got[0].Bed.Begin)
	assert.Equal(t, uint32(2000), got[0].Bed.Stop)
	assert.Equal(t, "geneA\t0\t+", string(got[0].Bed.Rest))

	assert.Equal(t, "chr2", got[1].Chrom)
	assert.Empty(t, got[1].Bed.Rest)
}

func TestReadBedRejectsTooFewColumns(t *testing.T) {
	err := ReadBed(strings.NewReader("chr1\t100\n"), func(Feature) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestReadBedRejectsNonNumericCoordinate(t *testing.T) {
	err := ReadBed(strings.NewReader("chr1\tNaN\t200\n"), func(Feature) error { return nil })
	require.Error(t, err)
}

func TestReadBedStopsOnCallbackError(t *testing.T) {
	boom := errors.New("boom")
	count := 0
	err := ReadBed(strings.NewReader("chr1\t1\t2\nchr1\t3\t4\n"), func(Feature) error {
		count++
		return boom
	})
	require.Error(t, err)
	assert.Equal(t, 1, count)
}
