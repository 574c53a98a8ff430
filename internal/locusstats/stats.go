// Package locusstats accumulates empirical read length, fragment length,
// and coverage depth estimates from alignments landing on a locus's
// flank nodes (§4.6), generalizing the running-mean accumulators used by
// grailbio/bio's pileup/snp package (pileup/snp/basestrand.go).
package locusstats

import "github.com/grailbio/strgt/internal/graph"

// ChromType is the catalog's chromosome-type tag for a locus (§3).
type ChromType int

const (
	Autosome ChromType = iota
	ChromX
	ChromY
)

// Sex is the sample sex used to compute expected allele count.
type Sex int

const (
	Female Sex = iota
	Male
)

// ExpectedAlleleCount implements §4.6's table exactly: chrY is always
// one, chrX is two for female/one for male, autosome is always two.
func ExpectedAlleleCount(chrom ChromType, sex Sex) int {
	switch chrom {
	case ChromY:
		return 1
	case ChromX:
		if sex == Female {
			return 2
		}
		return 1
	default:
		return 2
	}
}

// Stats is the §3 LocusStats record.
type Stats struct {
	AlleleCount           int
	MeanReadLength        float64
	MedianFragmentLength  float64
	Depth                 float64
}

// Accumulator collects read/fragment lengths as reads are classified
// against a locus's flank nodes, for later reduction into a Stats value.
type Accumulator struct {
	leftFlank, rightFlank graph.NodeID
	leftFlankLen          int
	rightFlankLen         int
	alleleCount           int

	readLengths     []int
	fragmentLengths []int

	// pendingByFlank tracks, per flank node, reads seen so far this
	// locus keyed by fragment id, so that when both mates of a pair
	// start on the same flank node the fragment length can be computed.
	pendingByFlank map[graph.NodeID]map[string]readStart
}

type readStart struct {
	start, end int64
}

// NewAccumulator creates an Accumulator for a locus whose left/right
// flank nodes and lengths are given, with the expected allele count for
// this sample.
func NewAccumulator(leftFlank, rightFlank graph.NodeID, leftFlankLen, rightFlankLen, alleleCount int) *Accumulator {
	return &Accumulator{
		leftFlank: leftFlank, rightFlank: rightFlank,
		leftFlankLen: leftFlankLen, rightFlankLen: rightFlankLen,
		alleleCount:    alleleCount,
		pendingByFlank: map[graph.NodeID]map[string]readStart{},
	}
}

// AddRead records a read's contribution to read-length/fragment-length
// stats. node is the flank node the alignment starts in (the caller only
// calls AddRead when the alignment actually starts on a flank node, per
// §4.6: "accumulate read length whenever an alignment starts on the
// left- or right-flank node"). start/end are 0-based reference
// coordinates of the alignment.
func (a *Accumulator) AddRead(fragmentID string, node graph.NodeID, start, end int64, readLen int) {
	if node != a.leftFlank && node != a.rightFlank {
		return
	}
	a.readLengths = append(a.readLengths, readLen)

	byFrag, ok := a.pendingByFlank[node]
	if !ok {
		byFrag = map[string]readStart{}
		a.pendingByFlank[node] = byFrag
	}
	if mate, ok := byFrag[fragmentID]; ok {
		outerMax := end
		if mate.end > outerMax {
			outerMax = mate.end
		}
		outerMin := start
		if mate.start < outerMin {
			outerMin = mate.start
		}
		a.fragmentLengths = append(a.fragmentLengths, int(outerMax-outerMin))
		delete(byFrag, fragmentID)
		return
	}
	byFrag[fragmentID] = readStart{start: start, end: end}
}

// Reduce computes the final Stats from everything accumulated so far.
// With zero reads it returns {AlleleCount, 0, 0, 0.0} per §4.6.
func (a *Accumulator) Reduce() Stats {
	if len(a.readLengths) == 0 {
		return Stats{AlleleCount: a.alleleCount}
	}
	meanLen := mean(a.readLengths)
	medFrag := median(a.fragmentLengths)
	denom := float64(a.leftFlankLen+a.rightFlankLen) - meanLen
	depth := 0.0
	if denom > 0 {
		depth = meanLen * float64(len(a.readLengths)) / denom
	}
	return Stats{
		AlleleCount:          a.alleleCount,
		MeanReadLength:       meanLen,
		MedianFragmentLength: medFrag,
		Depth:                depth,
	}
}

func mean(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0
	for _, x := range xs {
		sum += x
	}
	return float64(sum) / float64(len(xs))
}

func median(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]int(nil), xs...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	n := len(sorted)
	if n%2 == 1 {
		return float64(sorted[n/2])
	}
	return float64(sorted[n/2-1]+sorted[n/2]) / 2
}
