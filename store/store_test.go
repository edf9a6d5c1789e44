package store

import (
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/testutil"

	"github.com/grailbio/gidx/binning"
	"github.com/grailbio/gidx/gidxerr"
	"github.com/grailbio/gidx/record"
)

// testRecord is a minimal fixed-width Record: start/end plus a single u32
// tag, used so tests don't need the full Bed encoding.
type testRecord struct {
	start, end, tag uint32
}

func (r testRecord) Start() uint32 { return r.start }
func (r testRecord) End() uint32   { return r.end }
func (r testRecord) ToBytes() []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, r.tag)
	return buf
}

type testSlice struct {
	tag uint32
}

func (s testSlice) Start() uint32      { return 0 }
func (s testSlice) End() uint32        { return 0 }
func (s testSlice) ToOwned() record.Record { return testRecord{tag: s.tag} }

func decodeTestRecord(bytes []byte) record.Slice {
	return testSlice{tag: binary.LittleEndian.Uint32(bytes)}
}

func TestStoreRoundTrip(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	s, err := Create(dir, "", binning.Tabix, decodeTestRecord)
	require.NoError(t, err)

	require.NoError(t, s.AddRecord("chr1", testRecord{start: 1000, end: 2000, tag: 1}))
	require.NoError(t, s.AddRecord("chr1", testRecord{start: 1500, end: 2500, tag: 2}))
	require.NoError(t, s.AddRecord("chr1", testRecord{start: 9000, end: 9100, tag: 3}))
	require.NoError(t, s.AddRecord("chr2", testRecord{start: 100, end: 200, tag: 4}))

	require.NoError(t, s.Finalize())

	assert.FileExists(t, filepath.Join(dir, "index.bin"))
	assert.FileExists(t, filepath.Join(dir, "chr1.bin"))
	assert.FileExists(t, filepath.Join(dir, "chr2.bin"))

	opened, err := Open(dir, "", decodeTestRecord)
	require.NoError(t, err)
	defer opened.Close()

	recs, err := opened.GetOverlapping("chr1", 1900, 2100)
	require.NoError(t, err)
	var tags []uint32
	for _, r := range recs {
		tags = append(tags, r.(testRecord).tag)
	}
	assert.ElementsMatch(t, []uint32{1, 2}, tags)

	none, err := opened.GetOverlapping("chr1", 5000, 5100)
	require.NoError(t, err)
	assert.Empty(t, none)

	unknown, err := opened.GetOverlapping("chrNope", 0, 100)
	require.NoError(t, err)
	assert.Empty(t, unknown)
}

func TestStoreMapOverlappingVisitCount(t *testing.T) {
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

	var seen int
	n, err := opened.MapOverlapping("chr1", 0, 200, func(record.Slice) error {
		seen++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, seen)
}

func TestStoreGetOverlappingBatchBorrowsSlices(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	s, err := Create(dir, "", binning.Tabix, decodeTestRecord)
	require.NoError(t, err)
	require.NoError(t, s.AddRecord("chr1", testRecord{start: 10, end: 20, tag: 42}))
	require.NoError(t, s.Finalize())

	opened, err := Open(dir, "", decodeTestRecord)
	require.NoError(t, err)
	defer opened.Close()

	slices, err := opened.GetOverlappingBatch("chr1", 0, 100)
	require.NoError(t, err)
	require.Len(t, slices, 1)
	assert.Equal(t, uint32(42), slices[0].(testSlice).tag)
}

func TestStoreWithSubKeyAndMetadata(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	s, err := Create(dir, "release1", binning.Ucsc, decodeTestRecord)
	require.NoError(t, err)
	require.NoError(t, s.AddRecord("chr1", testRecord{start: 0, end: 10, tag: 1}))
	require.NoError(t, s.FinalizeWithMetadata([]byte("build=38")))

	assert.FileExists(t, filepath.Join(dir, "release1", "index.bin"))

	opened, err := Open(dir, "release1", decodeTestRecord)
	require.NoError(t, err)
	defer opened.Close()

	meta, ok := opened.Metadata()
	require.True(t, ok)
	assert.Equal(t, []byte("build=38"), meta)
}

func TestStoreRejectsUnsortedAppend(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	s, err := Create(dir, "", binning.Tabix, decodeTestRecord)
	require.NoError(t, err)

	require.NoError(t, s.AddRecord("chr1", testRecord{start: 1000, end: 1100, tag: 1}))
	err = s.AddRecord("chr1", testRecord{start: 500, end: 600, tag: 2})
	require.Error(t, err)
	_, ok := err.(*gidxerr.UnsortedFeatures)
	assert.True(t, ok)
}

func TestStoreRejectsAddRecordAfterFinalize(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	s, err := Create(dir, "", binning.Tabix, decodeTestRecord)
	require.NoError(t, err)
	require.NoError(t, s.Finalize())

	err = s.AddRecord("chr1", testRecord{start: 0, end: 10, tag: 1})
	require.Error(t, err)
}
