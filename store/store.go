// Package store implements the content-addressed record store: per-sequence
// append-only data files plus the BinningIndex that accelerates lookups
// against them. It owns every byte a Record ever touches; the record
// package only supplies the (de)serialization strategy.
package store

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/grailbio/gidx/binning"
	"github.com/grailbio/gidx/index"
	"github.com/grailbio/gidx/record"
)

const indexFilename = "index.bin"

// Decoder builds a zero-copy record.Slice view over bytes read from a
// sequence's data file. It is the Go rendering of the generic
// RecordSlice::from_bytes constructor: Go interfaces cannot construct
// themselves, so the caller supplies the strategy once, at Create/Open
// time, instead of the store needing a type parameter bound to both
// Record and Slice.
type Decoder func(bytes []byte) record.Slice

// Store ties a BinningIndex to the per-sequence data files it indexes. A
// Store is either a writer (created with Create, closed with Finalize) or
// a reader (obtained with Open); it is never both.
type Store struct {
	decode Decoder
	index  *index.BinningIndex
	dir    string
	subKey string

	writers map[string]*dataWriter
	readers map[string]*mappedFile

	finalized   bool
	hasMetadata bool
	metadata    []byte
}

// Create starts a new store rooted at dir, optionally under one
// subdirectory level named subKey (pass "" for none), using schema to
// parameterize its BinningIndex.
func Create(dir, subKey string, schema binning.Schema, decode Decoder) (*Store, error) {
	if err := os.MkdirAll(keyDir(dir, subKey), 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating store directory %s", keyDir(dir, subKey))
	}
	return &Store{
		decode:  decode,
		index:   index.New(schema),
		dir:     dir,
		subKey:  subKey,
		writers: make(map[string]*dataWriter),
		readers: make(map[string]*mappedFile),
	}, nil
}

// Open reopens a store previously written by Create/Finalize for
// querying. Data files are memory-mapped lazily, the first time a sequence
// is queried.
func Open(dir, subKey string, decode Decoder) (*Store, error) {
	s := &Store{
		decode:    decode,
		dir:       dir,
		subKey:    subKey,
		writers:   make(map[string]*dataWriter),
		readers:   make(map[string]*mappedFile),
		finalized: true,
	}

	path := s.indexPath()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading index file %s", path)
	}

	br := bytes.NewReader(raw)
	idx, err := index.ReadFrom(br)
	if err != nil {
		return nil, errors.Wrapf(err, "deserializing index file %s", path)
	}
	s.index = idx

	if remaining := br.Len(); remaining > 0 {
		blob := raw[len(raw)-remaining:]
		meta, ok, err := decodeMetadataBlob(blob)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding metadata blob in %s", path)
		}
		s.metadata, s.hasMetadata = meta, ok
	}
	return s, nil
}

func keyDir(dir, subKey string) string {
	if subKey == "" {
		return dir
	}
	return filepath.Join(dir, subKey)
}

func (s *Store) dataPath(chrom string) string {
	return filepath.Join(keyDir(s.dir, s.subKey), chrom+".bin")
}

func (s *Store) indexPath() string {
	return filepath.Join(keyDir(s.dir, s.subKey), indexFilename)
}

// AddRecord appends rec to chrom's data file and indexes it. Records for a
// given chrom must arrive in ascending rec.Start() order, and once a
// different chrom has been seen, chrom may not reappear; violations return
// *gidxerr.UnsortedFeatures or *gidxerr.CrossSequenceSortViolation.
func (s *Store) AddRecord(chrom string, rec record.Record) error {
	if s.finalized {
		return errors.New("store: AddRecord called on a finalized store")
	}

	w, ok := s.writers[chrom]
	if !ok {
		var err error
		w, err = createDataWriter(s.dataPath(chrom))
		if err != nil {
			return err
		}
		s.writers[chrom] = w
	}

	payload := rec.ToBytes()
	offset, err := w.appendRecord(payload)
	if err != nil {
		return err
	}
	return s.index.AddFeature(chrom, rec.Start(), rec.End(), offset, uint64(len(payload)))
}

// Finalize closes every data file and writes the index, with no metadata
// blob.
func (s *Store) Finalize() error {
	return s.finalize(nil, false)
}

// FinalizeWithMetadata is Finalize plus an opaque caller-supplied metadata
// blob appended after the index proper (spec.md §6.1). The blob's encoding
// is entirely the caller's concern; the store only length-prefixes it.
func (s *Store) FinalizeWithMetadata(meta []byte) error {
	return s.finalize(meta, true)
}

func (s *Store) finalize(meta []byte, hasMeta bool) error {
	if s.finalized {
		return errors.New("store: already finalized")
	}
	for chrom, w := range s.writers {
		if err := w.finish(); err != nil {
			return errors.Wrapf(err, "finishing data file for sequence %q", chrom)
		}
	}
	s.writers = make(map[string]*dataWriter)

	path := s.indexPath()
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating index file %s", path)
	}
	defer f.Close()

	if err := s.index.WriteTo(f); err != nil {
		return errors.Wrapf(err, "serializing index to %s", path)
	}
	if hasMeta {
		if err := writeMetadataBlob(f, meta); err != nil {
			return errors.Wrapf(err, "writing metadata blob to %s", path)
		}
	}

	s.metadata, s.hasMetadata = meta, hasMeta
	s.finalized = true
	return nil
}

// Metadata returns the blob the store was finalized with, if any.
func (s *Store) Metadata() ([]byte, bool) {
	return s.metadata, s.hasMetadata
}

// Index returns the store's underlying BinningIndex, for callers that need
// to inspect its shape directly (sequence names, schema, coverage
// statistics) rather than going through the query API.
func (s *Store) Index() *index.BinningIndex {
	return s.index
}

// Close unmaps every data file this store has opened for reading. It is a
// no-op on a store still being written to.
func (s *Store) Close() error {
	var firstErr error
	for chrom, r := range s.readers {
		if err := r.close(); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "unmapping data file for sequence %q", chrom)
		}
	}
	s.readers = make(map[string]*mappedFile)
	return firstErr
}

func (s *Store) reader(chrom string) (*mappedFile, error) {
	if r, ok := s.readers[chrom]; ok {
		return r, nil
	}
	r, err := openMappedFile(s.dataPath(chrom))
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return nil, nil
		}
		return nil, err
	}
	s.readers[chrom] = r
	return r, nil
}

func writeMetadataBlob(w io.Writer, meta []byte) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(meta)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(meta)
	return err
}

func decodeMetadataBlob(blob []byte) ([]byte, bool, error) {
	if len(blob) < 4 {
		return nil, false, nil
	}
	n := binary.LittleEndian.Uint32(blob[:4])
	if uint64(len(blob)-4) != uint64(n) {
		return nil, false, errors.Errorf("metadata blob length prefix %d does not match remaining %d bytes", n, len(blob)-4)
	}
	out := make([]byte, n)
	copy(out, blob[4:])
	return out, true, nil
}
