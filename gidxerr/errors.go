// Package gidxerr defines the structured error kinds the index and store
// packages return. Caller-recoverable conditions get dedicated types so
// callers can errors.As into them; I/O and serialization failures are
// wrapped with github.com/pkg/errors for stack-trace context instead,
// matching the convention in encoding/fasta and encoding/pam.
package gidxerr

import "fmt"

// InvalidInterval reports a query whose end does not exceed its start.
// Inserts with the same defect get ZeroLengthFeature instead.
type InvalidInterval struct {
	Start, End uint32
}

func (e *InvalidInterval) Error() string {
	return fmt.Sprintf("invalid interval: end (%d) must be greater than start (%d)", e.End, e.Start)
}

// ZeroLengthFeature reports an insert rejected because end <= start.
type ZeroLengthFeature struct {
	Start, End uint32
}

func (e *ZeroLengthFeature) Error() string {
	return fmt.Sprintf("zero-length or inverted feature: [%d, %d)", e.Start, e.End)
}

// UnsortedFeatures reports an insert whose start position violates the
// sorted-append invariant for its sequence.
type UnsortedFeatures struct {
	Chrom             string
	Previous, Current uint32
}

func (e *UnsortedFeatures) Error() string {
	return fmt.Sprintf("unsorted features on %q: previous start %d, current start %d",
		e.Chrom, e.Previous, e.Current)
}

// CrossSequenceSortViolation reports a record on a sequence that was already
// closed earlier in the session, i.e. a sequence that received records and
// then gave way to a different one. Sequence names are not compared.
type CrossSequenceSortViolation struct {
	Previous, Current string
}

func (e *CrossSequenceSortViolation) Error() string {
	return fmt.Sprintf("cross-sequence sort violation: sequence %q follows %q", e.Current, e.Previous)
}

// InvalidFileFormat reports a data file whose magic bytes don't match.
type InvalidFileFormat struct {
	Path string
	Got  [4]byte
}

func (e *InvalidFileFormat) Error() string {
	return fmt.Sprintf("invalid file format: %s: got magic %q, want \"GIDX\"", e.Path, e.Got[:])
}

// InvalidOffset reports a feature entry whose computed byte range exceeds
// its data file's mapped length. Per spec.md §4.5 this is not propagated to
// the read path's caller — it is a defensive skip — but the type exists so
// internal bookkeeping and tests can distinguish it from "not found".
type InvalidOffset struct {
	Sequence     string
	Offset       uint64
	Length       uint64
	MappedLength int
}

func (e *InvalidOffset) Error() string {
	return fmt.Sprintf("offset %d+8+%d exceeds mapped length %d bytes of sequence %q",
		e.Offset, e.Length, e.MappedLength, e.Sequence)
}
