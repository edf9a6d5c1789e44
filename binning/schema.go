// Package binning implements the hierarchical-binning coordinate scheme
// shared by UCSC and tabix: a reference range [start, end) is assigned to
// the smallest bin that fully contains it, and bins from every level of
// the hierarchy share one id space via cumulative per-level offsets.
//
// The scheme has no mutable state; everything here is pure arithmetic on
// a Schema's shift parameters.
package binning

import "fmt"

// Schema names a canonical hierarchical-binning parameterization. The zero
// value is Tabix, the default.
type Schema int

const (
	// Tabix is the tabix/htslib default: 16Kb finest bins, 8x level
	// scaling, 6 levels, with a 16Kb-granularity linear index.
	Tabix Schema = iota
	// TabixNoLinear is Tabix without the linear-index acceleration layer.
	TabixNoLinear
	// Ucsc is the classic UCSC Genome Browser binning scheme: 128Kb
	// finest bins, 8x level scaling, 5 levels.
	Ucsc
	// UcscNoLinear is Ucsc without the linear-index acceleration layer.
	UcscNoLinear
	// Dense uses narrower, more numerous levels for collections with
	// many small, tightly-clustered features.
	Dense
	// Sparse uses wider levels for collections of large, sparse regions.
	Sparse
)

// String implements fmt.Stringer.
func (s Schema) String() string {
	switch s {
	case Tabix:
		return "tabix"
	case TabixNoLinear:
		return "tabix-no-linear"
	case Ucsc:
		return "ucsc"
	case UcscNoLinear:
		return "ucsc-no-linear"
	case Dense:
		return "dense"
	case Sparse:
		return "sparse"
	default:
		return fmt.Sprintf("Schema(%d)", int(s))
	}
}

// params holds the raw shift/level parameters backing a Schema.
type params struct {
	baseShift   uint32
	levelShift  uint32
	numLevels   int
	linearShift uint32
	hasLinear   bool
}

var schemaParams = map[Schema]params{
	Tabix:         {baseShift: 14, levelShift: 3, numLevels: 6, linearShift: 14, hasLinear: true},
	TabixNoLinear: {baseShift: 14, levelShift: 3, numLevels: 6, hasLinear: false},
	Ucsc:          {baseShift: 17, levelShift: 3, numLevels: 5, linearShift: 14, hasLinear: true},
	UcscNoLinear:  {baseShift: 17, levelShift: 3, numLevels: 5, hasLinear: false},
	Dense:         {baseShift: 14, levelShift: 3, numLevels: 10, linearShift: 8, hasLinear: true},
	Sparse:        {baseShift: 20, levelShift: 4, numLevels: 4, linearShift: 16, hasLinear: true},
}

// Set implements the flag.Value / cli.Generic interface so Schema can be
// used directly as a CLI flag value.
func (s *Schema) Set(value string) error {
	for cand := range schemaParams {
		if cand.String() == value {
			*s = cand
			return nil
		}
	}
	return fmt.Errorf("unknown binning schema %q", value)
}

// HierarchicalBins is the resolved, ready-to-use form of a Schema: the
// derived level sizes and bin-id offsets that region_to_bin/region_to_bins
// operate against.
type HierarchicalBins struct {
	Schema      Schema
	BaseShift   uint32
	LevelShift  uint32
	NumLevels   int
	LinearShift uint32
	HasLinear   bool
	// LevelSizes[i] is the number of bins at level i, coarsest first.
	LevelSizes []uint32
	// BinOffsets[i] is the id of the first bin at level i.
	BinOffsets []uint32
}

// FromSchema resolves a canonical Schema into a HierarchicalBins. It panics
// if schema is not one of the named constants; schema selection happens at
// store-creation time and is never data-dependent, so an unknown value is a
// programmer error, not a caller-recoverable one.
func FromSchema(schema Schema) HierarchicalBins {
	p, ok := schemaParams[schema]
	if !ok {
		panic(fmt.Sprintf("binning: unknown schema %v", schema))
	}
	return New(p.baseShift, p.levelShift, p.numLevels, p.linearShift, p.hasLinear)
}

// FromSchemaOK is FromSchema without the panic: it reports whether schema
// is a known discriminant before resolving it, for callers (such as index
// deserialization) reading a schema value from untrusted bytes.
func FromSchemaOK(schema Schema) (HierarchicalBins, bool) {
	p, ok := schemaParams[schema]
	if !ok {
		return HierarchicalBins{}, false
	}
	return New(p.baseShift, p.levelShift, p.numLevels, p.linearShift, p.hasLinear), true
}

// New constructs a HierarchicalBins from raw shift parameters. It panics if
// the shift bound base_shift + (num_levels-1)*level_shift > 63 is violated,
// since such a schema cannot address all 64 bits of shifted coordinate
// space it claims to need.
func New(baseShift, levelShift uint32, numLevels int, linearShift uint32, hasLinear bool) HierarchicalBins {
	if baseShift+uint32(numLevels-1)*levelShift > 63 {
		panic(fmt.Sprintf(
			"binning: schema out of range: base_shift=%d + (num_levels-1)*level_shift=%d exceeds 63",
			baseShift, uint32(numLevels-1)*levelShift))
	}
	sizes := levelSizes(levelShift, numLevels)
	offsets := offsetsFromSizes(sizes)
	return HierarchicalBins{
		BaseShift:   baseShift,
		LevelShift:  levelShift,
		NumLevels:   numLevels,
		LinearShift: linearShift,
		HasLinear:   hasLinear,
		LevelSizes:  sizes,
		BinOffsets:  offsets,
	}
}

// levelSizes returns the number of bins at each level, coarsest (level 0)
// first: level i has 2^(levelShift*i) bins.
func levelSizes(levelShift uint32, numLevels int) []uint32 {
	sizes := make([]uint32, numLevels)
	for i := 0; i < numLevels; i++ {
		sizes[i] = uint32(1) << (levelShift * uint32(i))
	}
	return sizes
}

// offsetsFromSizes computes, for each level, the id of its first bin: the
// cumulative sum of every coarser level's bin count. Level 0 (coarsest,
// a single bin spanning the whole coordinate space) starts at id 0; each
// finer level's block of ids begins where the previous, coarser level's
// block ends, so the finest level owns the highest-numbered ids.
func offsetsFromSizes(sizes []uint32) []uint32 {
	offsets := make([]uint32, len(sizes))
	var sum uint32
	for i, sz := range sizes {
		offsets[i] = sum
		sum += sz
	}
	return offsets
}

// RegionToBin returns the unique smallest bin that fully contains
// [start, end). It panics if no level's bin contains the range. The
// coarsest level's single bin spans the first
// 2^(BaseShift+(NumLevels-1)*LevelShift) coordinates (2^29 for Tabix and
// Ucsc), so a range that starts inside that span and ends past it panics.
func (h HierarchicalBins) RegionToBin(start, end uint32) uint32 {
	startBin := start >> h.BaseShift
	endBin := (end - 1) >> h.BaseShift
	for level := h.NumLevels - 1; level >= 0; level-- {
		if startBin == endBin {
			return h.BinOffsets[level] + startBin
		}
		startBin >>= h.LevelShift
		endBin >>= h.LevelShift
	}
	panic(fmt.Sprintf("binning: region [%d, %d) out of range in RegionToBin", start, end))
}

// RegionToBins returns every bin, at every level, whose coordinate span
// could overlap [qstart, qend). The result has no duplicates and is not
// ordered by coordinate; callers that need finest-bins-first order should
// not rely on slice order beyond that produced here (finest level is
// appended first).
func (h HierarchicalBins) RegionToBins(qstart, qend uint32) []uint32 {
	var bins []uint32
	startBin := qstart >> h.BaseShift
	endBin := (qend - 1) >> h.BaseShift

	for level := h.NumLevels - 1; level >= 0; level-- {
		offset := h.BinOffsets[level]
		for b := startBin; b <= endBin; b++ {
			bins = append(bins, offset+b)
		}
		startBin >>= h.LevelShift
		endBin >>= h.LevelShift
	}
	return bins
}

// MaxBinID returns the largest bin id this schema can produce: the id of
// the last bin at the finest level, which is the total bin count minus one.
func (h HierarchicalBins) MaxBinID() uint32 {
	var total uint32
	for _, sz := range h.LevelSizes {
		total += sz
	}
	return total - 1
}
