package index

import (
	"bufio"
	"encoding/binary"
	"io"
	"sort"

	"github.com/pkg/errors"

	"github.com/grailbio/gidx/binning"
	"github.com/grailbio/gidx/gidxerr"
)

// BinningIndex is the dictionary of per-sequence indexes for one store,
// plus the schema that governs bin assignment and the transient sort-state
// used to enforce the cross-sequence ordering invariant during a pack
// session. There is no last_start field here: the per-sequence monotonic
// check lives on SequenceIndex itself. The cross-sequence check keeps the
// last sequence name seen (lastChrom) and the set of sequence names that
// have already been closed out.
type BinningIndex struct {
	Schema    binning.Schema
	Sequences map[string]*SequenceIndex

	// UseLinearIndex gates whether AddFeature grows LinearIndex arrays and
	// whether queries consult them. DisableLinearIndex/EnableLinearIndex
	// toggle it; it defaults to whatever the schema's HasLinear says.
	UseLinearIndex bool

	lastChrom string
	closed    map[string]bool
}

// New creates an empty BinningIndex for the given schema.
func New(schema binning.Schema) *BinningIndex {
	return &BinningIndex{
		Schema:         schema,
		Sequences:      make(map[string]*SequenceIndex),
		UseLinearIndex: binning.FromSchema(schema).HasLinear,
		closed:         make(map[string]bool),
	}
}

// hierarchicalBins resolves this index's effective bin parameterization,
// honoring a runtime DisableLinearIndex call even for a schema that
// normally carries one.
func (idx *BinningIndex) hierarchicalBins() binning.HierarchicalBins {
	hb := binning.FromSchema(idx.Schema)
	if !idx.UseLinearIndex {
		hb.HasLinear = false
	}
	return hb
}

// AddFeature records one feature on sequence chrom with payload bounds
// [offset, offset+8+length) in chrom's data file. It enforces both the
// per-sequence monotonic-start invariant and the session-wide rule that,
// once a sequence has given way to another, no further feature may return
// to it.
func (idx *BinningIndex) AddFeature(chrom string, start, end uint32, offset, length uint64) error {
	if end <= start {
		return &gidxerr.ZeroLengthFeature{Start: start, End: end}
	}

	if idx.lastChrom != "" && chrom != idx.lastChrom {
		idx.closed[idx.lastChrom] = true
	}
	if idx.closed[chrom] {
		return &gidxerr.CrossSequenceSortViolation{Previous: idx.lastChrom, Current: chrom}
	}
	idx.lastChrom = chrom

	seq, ok := idx.Sequences[chrom]
	if !ok {
		seq = NewSequenceIndex()
		idx.Sequences[chrom] = seq
	}
	return seq.AddFeature(chrom, start, end, offset, length, idx.hierarchicalBins())
}

// FindOverlapping returns every feature entry on chrom overlapping
// [qstart, qend). It returns an error only for a malformed query range;
// an unknown sequence or an empty result is simply nil, nil.
func (idx *BinningIndex) FindOverlapping(chrom string, qstart, qend uint32) ([]FeatureEntry, error) {
	if qend <= qstart {
		return nil, &gidxerr.InvalidInterval{Start: qstart, End: qend}
	}
	seq, ok := idx.Sequences[chrom]
	if !ok {
		return nil, nil
	}
	return seq.FindOverlapping(qstart, qend, idx.hierarchicalBins()), nil
}

// GetCandidateOffsets returns the tightest [min, max] byte-offset range in
// chrom's data file that could contain a feature overlapping
// [qstart, qend), intersecting the bin scan's offset bounds with the
// linear index's lower bound. ok is false when chrom is unknown or no
// feature entry falls in range; this is a supplemental accelerator for
// callers that want to pre-fetch or sequentially scan a byte range rather
// than seek to each candidate individually.
func (idx *BinningIndex) GetCandidateOffsets(chrom string, qstart, qend uint32) (min, max uint64, ok bool) {
	seq, present := idx.Sequences[chrom]
	if !present {
		return 0, 0, false
	}
	return seq.candidateRange(qstart, qend, idx.hierarchicalBins())
}

// DisableLinearIndex drops every sequence's linear index and stops
// building new ones. It does not change bin assignment, which is
// independent of the linear index.
func (idx *BinningIndex) DisableLinearIndex() {
	idx.UseLinearIndex = false
	for _, seq := range idx.Sequences {
		seq.LinearIndex = nil
	}
}

// EnableLinearIndex resumes building linear indexes for features added
// from this point forward. It does not retroactively backfill windows
// spanned by features added while disabled.
func (idx *BinningIndex) EnableLinearIndex() {
	idx.UseLinearIndex = true
}

// SequenceNames returns every sequence with at least one feature, sorted
// lexicographically.
func (idx *BinningIndex) SequenceNames() []string {
	names := make([]string, 0, len(idx.Sequences))
	for name := range idx.Sequences {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Wire format, in order, all little-endian:
//
//	u8      schema discriminant
//	u8      use_linear_index flag (0/1)
//	u32     sequence count
//	for each sequence, ordered by name:
//	  u32   name length, name bytes
//	  u32   bin count
//	  for each bin, ordered by bin id:
//	    u32 bin id
//	    u32 feature count
//	    for each feature: u32 start, u32 end, u64 offset, u64 length
//	  u32   linear index length (0 if disabled for this sequence)
//	  u64   linear index entries
//
// There is no file-level length or offset table (every variable-length
// field carries its own count prefix), and the pack session's sort state
// (lastChrom and the closed-sequence set) is not persisted: it is
// transient state that has no meaning once reopened.

// WriteTo serializes idx in the format above.
func (idx *BinningIndex) WriteTo(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if err := writeByte(bw, byte(idx.Schema)); err != nil {
		return err
	}
	var useLinear byte
	if idx.UseLinearIndex {
		useLinear = 1
	}
	if err := writeByte(bw, useLinear); err != nil {
		return err
	}

	names := idx.SequenceNames()
	if err := writeU32(bw, uint32(len(names))); err != nil {
		return err
	}
	for _, name := range names {
		if err := writeString(bw, name); err != nil {
			return err
		}
		if err := writeSequenceIndex(bw, idx.Sequences[name]); err != nil {
			return errors.Wrapf(err, "writing sequence index for %q", name)
		}
	}
	return bw.Flush()
}

func writeSequenceIndex(w io.Writer, seq *SequenceIndex) error {
	binIDs := make([]uint32, 0, len(seq.Bins))
	for id := range seq.Bins {
		binIDs = append(binIDs, id)
	}
	sort.Slice(binIDs, func(i, j int) bool { return binIDs[i] < binIDs[j] })

	if err := writeU32(w, uint32(len(binIDs))); err != nil {
		return err
	}
	for _, id := range binIDs {
		features := seq.Bins[id]
		if err := writeU32(w, id); err != nil {
			return err
		}
		if err := writeU32(w, uint32(len(features))); err != nil {
			return err
		}
		for _, f := range features {
			if err := writeU32(w, f.Start); err != nil {
				return err
			}
			if err := writeU32(w, f.End); err != nil {
				return err
			}
			if err := writeU64(w, f.Offset); err != nil {
				return err
			}
			if err := writeU64(w, f.Length); err != nil {
				return err
			}
		}
	}

	if err := writeU32(w, uint32(len(seq.LinearIndex))); err != nil {
		return err
	}
	for _, v := range seq.LinearIndex {
		if err := writeU64(w, v); err != nil {
			return err
		}
	}
	return nil
}

// ReadFrom deserializes a BinningIndex previously written by WriteTo. It
// reads directly from r without extra buffering, so that a caller reading
// an index file with a trailing metadata blob (§6.1) can track exactly how
// many bytes ReadFrom consumed and treat the rest as that blob.
func ReadFrom(r io.Reader) (*BinningIndex, error) {
	var schemaAndFlag [2]byte
	if _, err := io.ReadFull(r, schemaAndFlag[:]); err != nil {
		return nil, errors.Wrap(err, "reading schema discriminant and use_linear_index flag")
	}
	schema := binning.Schema(schemaAndFlag[0])
	if _, ok := binning.FromSchemaOK(schema); !ok {
		return nil, errors.Errorf("index: unknown schema discriminant %d", schemaAndFlag[0])
	}

	idx := New(schema)
	idx.UseLinearIndex = schemaAndFlag[1] != 0

	seqCount, err := readU32(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading sequence count")
	}
	for i := uint32(0); i < seqCount; i++ {
		name, err := readString(r)
		if err != nil {
			return nil, errors.Wrap(err, "reading sequence name")
		}
		seq, err := readSequenceIndex(r)
		if err != nil {
			return nil, errors.Wrapf(err, "reading sequence index for %q", name)
		}
		idx.Sequences[name] = seq
	}
	return idx, nil
}

func readSequenceIndex(r io.Reader) (*SequenceIndex, error) {
	seq := NewSequenceIndex()

	binCount, err := readU32(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading bin count")
	}
	for i := uint32(0); i < binCount; i++ {
		binID, err := readU32(r)
		if err != nil {
			return nil, errors.Wrap(err, "reading bin id")
		}
		featureCount, err := readU32(r)
		if err != nil {
			return nil, errors.Wrap(err, "reading feature count")
		}
		features := make([]FeatureEntry, featureCount)
		for j := uint32(0); j < featureCount; j++ {
			start, err := readU32(r)
			if err != nil {
				return nil, errors.Wrap(err, "reading feature start")
			}
			end, err := readU32(r)
			if err != nil {
				return nil, errors.Wrap(err, "reading feature end")
			}
			offset, err := readU64(r)
			if err != nil {
				return nil, errors.Wrap(err, "reading feature offset")
			}
			length, err := readU64(r)
			if err != nil {
				return nil, errors.Wrap(err, "reading feature length")
			}
			features[j] = FeatureEntry{Start: start, End: end, Offset: offset, Length: length}
		}
		seq.Bins[binID] = features
		if featureCount > 0 {
			seq.started = true
			seq.lastStart = features[featureCount-1].Start
		}
	}

	linearLen, err := readU32(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading linear index length")
	}
	if linearLen > 0 {
		seq.LinearIndex = make([]uint64, linearLen)
		for i := range seq.LinearIndex {
			v, err := readU64(r)
			if err != nil {
				return nil, errors.Wrap(err, "reading linear index entry")
			}
			seq.LinearIndex[i] = v
		}
	}
	return seq, nil
}

func writeByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

func writeU32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeU64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeString(w io.Writer, s string) error {
	if err := writeU32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func readU64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func readString(r io.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
