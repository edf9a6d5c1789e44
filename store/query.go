package store

import (
	"github.com/grailbio/base/log"

	"github.com/grailbio/gidx/record"
)

// GetOverlapping returns every record on chrom overlapping [qstart, qend)
// as owned, heap-allocated copies. It is the convenient, allocating form;
// prefer MapOverlapping on a hot path that can consume records one at a
// time without retaining them.
func (s *Store) GetOverlapping(chrom string, qstart, qend uint32) ([]record.Record, error) {
	var out []record.Record
	_, err := s.MapOverlapping(chrom, qstart, qend, func(slice record.Slice) error {
		out = append(out, slice.ToOwned())
		return nil
	})
	return out, err
}

// MapOverlapping streams every record on chrom overlapping [qstart, qend)
// to fn as a zero-copy record.Slice view over the memory-mapped data file.
// fn must not retain the slice or any byte slice reachable from it beyond
// the call: the mapping backing it is only guaranteed valid for the
// duration of this call (see record.Slice). It returns the number of
// records visited.
func (s *Store) MapOverlapping(chrom string, qstart, qend uint32, fn func(record.Slice) error) (int, error) {
	entries, err := s.index.FindOverlapping(chrom, qstart, qend)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	mapped, err := s.reader(chrom)
	if err != nil {
		return 0, err
	}
	if mapped == nil {
		return 0, nil
	}

	visited := 0
	for _, e := range entries {
		payload, err := mapped.payloadAt(chrom, e.Offset, e.Length)
		if err != nil {
			// Defensive skip per spec.md §4.5: a corrupt or
			// out-of-bounds candidate does not abort the query.
			log.Error.Printf("store: skipping candidate: %v", err)
			continue
		}
		if err := fn(s.decode(payload)); err != nil {
			return visited, err
		}
		visited++
	}
	return visited, nil
}

// GetOverlappingBatch returns every record on chrom overlapping
// [qstart, qend) as borrowed record.Slice views, all aliasing the store's
// memory-mapped data file for chrom. The returned slices (and anything
// derived from their backing bytes) are valid only as long as the store
// itself remains open; callers needing them to outlive the store must
// call ToOwned() on each.
func (s *Store) GetOverlappingBatch(chrom string, qstart, qend uint32) ([]record.Slice, error) {
	entries, err := s.index.FindOverlapping(chrom, qstart, qend)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	mapped, err := s.reader(chrom)
	if err != nil {
		return nil, err
	}
	if mapped == nil {
		return nil, nil
	}

	slices := make([]record.Slice, 0, len(entries))
	for _, e := range entries {
		payload, err := mapped.payloadAt(chrom, e.Offset, e.Length)
		if err != nil {
			log.Error.Printf("store: skipping candidate: %v", err)
			continue
		}
		slices = append(slices, s.decode(payload))
	}
	return slices, nil
}
