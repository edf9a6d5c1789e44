package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/testutil"

	"github.com/grailbio/gidx/binning"
)

func TestStoreVerifyCleanStore(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	s, err := Create(dir, "", binning.Tabix, decodeTestRecord)
	require.NoError(t, err)
	require.NoError(t, s.AddRecord("chr1", testRecord{start: 0, end: 100, tag: 1}))
	require.NoError(t, s.AddRecord("chr1", testRecord{start: 50, end: 150, tag: 2}))
	require.NoError(t, s.Finalize())

	opened, err := Open(dir, "", decodeTestRecord)
	require.NoError(t, err)
	defer opened.Close()

	report := opened.Verify()
	require.True(t, report.OK())
	require.Len(t, report.Sequences, 1)
	assert.Equal(t, "chr1", report.Sequences[0].Chrom)
	assert.Equal(t, 2, report.Sequences[0].FeatureCount)
}

func TestStoreVerifyDetectsTruncatedDataFile(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	s, err := Create(dir, "", binning.Tabix, decodeTestRecord)
	require.NoError(t, err)
	require.NoError(t, s.AddRecord("chr1", testRecord{start: 0, end: 100, tag: 1}))
	require.NoError(t, s.Finalize())

	path := filepath.Join(dir, "chr1.bin")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-2], 0o644))

	opened, err := Open(dir, "", decodeTestRecord)
	require.NoError(t, err)
	defer opened.Close()

	report := opened.Verify()
	require.False(t, report.OK())
	require.Len(t, report.Sequences, 1)
	assert.NotEmpty(t, report.Sequences[0].Errors)
}
