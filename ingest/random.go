package ingest

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/gidx/record"
)

var randomChroms = []string{"chr1", "chr2", "chr3", "chr4", "chr5", "chrX", "chrY"}

var randomFeatureTypes = []string{
	"gene", "exon", "promoter", "enhancer", "UTR", "intron",
	"repeat", "peak", "binding_site", "methylation",
}

// GenerateRandomBed produces n pseudo-random BED features for testing and
// benchmarking a store, pre-sorted by sequence then start then end so they
// satisfy the sorted-append invariant directly when packed. Passing the
// same seed twice reproduces the same output.
func GenerateRandomBed(n int, seed int64) []Feature {
	rng := rand.New(rand.NewSource(seed))

	features := make([]Feature, n)
	for i := range features {
		features[i] = randomFeature(rng)
	}

	sort.Slice(features, func(i, j int) bool {
		a, b := features[i], features[j]
		if a.Chrom != b.Chrom {
			return chromLess(a.Chrom, b.Chrom)
		}
		if a.Bed.Begin != b.Bed.Begin {
			return a.Bed.Begin < b.Bed.Begin
		}
		return a.Bed.Stop < b.Bed.Stop
	})
	return features
}

func randomFeature(rng *rand.Rand) Feature {
	chrom := randomChroms[rng.Intn(len(randomChroms))]
	start := uint32(rng.Intn(1_000_000))
	length := uint32(100 + rng.Intn(9900))
	end := start + length

	numExtra := rng.Intn(6)
	extras := make([]string, numExtra)
	for i := range extras {
		extras[i] = randomExtraField(rng)
	}

	return Feature{
		Chrom: chrom,
		Bed:   record.Bed{Begin: start, Stop: end, Rest: []byte(strings.Join(extras, "\t"))},
	}
}

func randomExtraField(rng *rand.Rand) string {
	switch rng.Intn(4) {
	case 0:
		return randomFeatureTypes[rng.Intn(len(randomFeatureTypes))]
	case 1:
		return strconv.Itoa(rng.Intn(1000))
	case 2:
		if rng.Intn(2) == 0 {
			return "+"
		}
		return "-"
	default:
		key := randomFeatureTypes[rng.Intn(len(randomFeatureTypes))]
		value := rng.Intn(100)
		return fmt.Sprintf("%s=%d", key, value)
	}
}

// chromLess orders chromosome names the way genome browsers conventionally
// do: numeric chromosomes first in numeric order, named ones (chrX, chrY,
// chrM, ...) after, lexicographically.
func chromLess(a, b string) bool {
	an, aok := chromNumber(a)
	bn, bok := chromNumber(b)
	switch {
	case aok && bok:
		return an < bn
	case aok:
		return true
	case bok:
		return false
	default:
		return a < b
	}
}

func chromNumber(chrom string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimPrefix(chrom, "chr"))
	if err != nil {
		return 0, false
	}
	return n, true
}
