// Package index implements the two-layer acceleration structure described
// in spec.md: a per-sequence SequenceIndex (bins plus an optional linear
// index) and a BinningIndex that routes features to the right sequence and
// enforces the sorted-append invariant across the whole pack session.
//
// Neither type touches a data file directly; they only ever see
// (start, end, offset, length) tuples handed to them by store.Store, which
// owns the actual bytes.
package index

import (
	"math"

	"github.com/grailbio/gidx/binning"
	"github.com/grailbio/gidx/gidxerr"
)

// FeatureEntry is one feature's coordinates plus where its payload lives in
// the sequence's data file.
type FeatureEntry struct {
	Start, End     uint32
	Offset, Length uint64
}

// SequenceIndex is the bin map and linear index for a single sequence
// (chromosome/contig). It enforces the monotonic-start invariant for
// features added to it: once a feature starts at position p, no later
// feature on the same sequence may start before p.
type SequenceIndex struct {
	// Bins maps a bin id to the feature entries assigned to it, in
	// insertion order.
	Bins map[uint32][]FeatureEntry
	// LinearIndex holds, for each LinearShift-sized window this sequence's
	// features span, the minimum data-file offset of any feature touching
	// that window. It is nil when the linear index is disabled.
	LinearIndex []uint64

	started   bool
	lastStart uint32
}

// NewSequenceIndex returns an empty SequenceIndex.
func NewSequenceIndex() *SequenceIndex {
	return &SequenceIndex{Bins: make(map[uint32][]FeatureEntry)}
}

// AddFeature assigns [start, end) to its bin and, if hb has a linear index,
// extends LinearIndex to cover every window the feature spans. chrom is
// only used to label an UnsortedFeatures error; the caller is expected to
// have already validated start < end.
func (s *SequenceIndex) AddFeature(chrom string, start, end uint32, offset, length uint64, hb binning.HierarchicalBins) error {
	if s.started && start < s.lastStart {
		return &gidxerr.UnsortedFeatures{Chrom: chrom, Previous: s.lastStart, Current: start}
	}
	s.started = true
	s.lastStart = start

	binID := hb.RegionToBin(start, end)
	s.Bins[binID] = append(s.Bins[binID], FeatureEntry{Start: start, End: end, Offset: offset, Length: length})

	if hb.HasLinear {
		s.extendLinearIndex(start, end, offset, hb.LinearShift)
	}
	return nil
}

// extendLinearIndex grows LinearIndex as needed and lowers the minimum
// offset recorded for every window in [start, end)'s span.
func (s *SequenceIndex) extendLinearIndex(start, end uint32, offset uint64, linearShift uint32) {
	startWindow := start >> linearShift
	endWindow := (end - 1) >> linearShift

	if need := int(endWindow) + 1; need > len(s.LinearIndex) {
		grown := make([]uint64, need)
		copy(grown, s.LinearIndex)
		for i := len(s.LinearIndex); i < need; i++ {
			grown[i] = math.MaxUint64
		}
		s.LinearIndex = grown
	}
	for w := startWindow; w <= endWindow; w++ {
		if offset < s.LinearIndex[w] {
			s.LinearIndex[w] = offset
		}
	}
}

// FindOverlapping returns every feature entry on this sequence whose range
// overlaps [qstart, qend), in no particular order.
func (s *SequenceIndex) FindOverlapping(qstart, qend uint32, hb binning.HierarchicalBins) []FeatureEntry {
	var minOffset uint64
	if hb.HasLinear {
		window := qstart >> hb.LinearShift
		if int(window) >= len(s.LinearIndex) {
			// The query starts past every window any feature ever
			// touched; nothing can overlap.
			return nil
		}
		// A window no feature spans holds MaxUint64; the first spanned
		// window at or after it gives the lower bound instead.
		for w := int(window); w < len(s.LinearIndex); w++ {
			if s.LinearIndex[w] != math.MaxUint64 {
				minOffset = s.LinearIndex[w]
				break
			}
		}
	}

	var results []FeatureEntry
	for _, binID := range hb.RegionToBins(qstart, qend) {
		for _, f := range s.Bins[binID] {
			if f.Offset < minOffset {
				continue
			}
			if f.Start < qend && f.End > qstart {
				results = append(results, f)
			}
		}
	}
	return results
}

// candidateRange returns the [min, max] data-file offsets of every feature
// entry in the query's bins that overlaps [qstart, qend), intersected with
// the linear index's lower bound. ok is false if no such feature exists.
func (s *SequenceIndex) candidateRange(qstart, qend uint32, hb binning.HierarchicalBins) (min, max uint64, ok bool) {
	min = math.MaxUint64
	for _, binID := range hb.RegionToBins(qstart, qend) {
		for _, f := range s.Bins[binID] {
			if f.Start >= qend || f.End <= qstart {
				continue
			}
			if f.Offset < min {
				min = f.Offset
			}
			if f.Offset > max {
				max = f.Offset
			}
			ok = true
		}
	}
	if !ok {
		return 0, 0, false
	}

	if hb.HasLinear {
		startWindow := qstart >> hb.LinearShift
		endWindow := (qend - 1) >> hb.LinearShift
		if startWindow < uint32(len(s.LinearIndex)) {
			if last := uint32(len(s.LinearIndex)) - 1; endWindow > last {
				endWindow = last
			}
			linearMin := uint64(math.MaxUint64)
			for w := startWindow; w <= endWindow; w++ {
				if s.LinearIndex[w] < linearMin {
					linearMin = s.LinearIndex[w]
				}
			}
			if linearMin > min {
				min = linearMin
			}
		}
	}
	return min, max, min <= max
}
