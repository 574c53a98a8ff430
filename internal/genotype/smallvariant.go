package genotype

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// PresenceCall is the outcome of the allele-presence test (§4.8): the
// argmax copy-number hypothesis and its posterior weight.
type PresenceCall struct {
	Copy      int
	Posterior float64
}

// poissonLogPMF evaluates the log-probability of observing count events
// under a Poisson(expected) model, floored to avoid -Inf when expected
// is non-positive.
func poissonLogPMF(count int, expected float64) float64 {
	if expected <= 0 {
		if count == 0 {
			return 0
		}
		return -700
	}
	return distuv.Poisson{Lambda: expected}.LogProb(float64(count))
}

// expectedTargetCount implements §4.8's expected-count model: the
// expected target-allele read count is (alleleCopy/totalCopy)*totalReads
// except at the extremes, where an error rate absorbs the alternative
// explanation: copy 0 expects (errorRate/3)*totalReads, and full copy
// (alleleCopy == totalCopy) expects (1-errorRate)*totalReads.
func expectedTargetCount(alleleCopy, totalCopy int, totalReads float64, errorRate float64) float64 {
	if alleleCopy == 0 {
		return (errorRate / 3) * totalReads
	}
	if alleleCopy == totalCopy {
		return (1 - errorRate) * totalReads
	}
	return (float64(alleleCopy) / float64(totalCopy)) * totalReads
}

// PresenceTest evaluates every copy-number hypothesis 0..totalCopy for a
// single target allele given observedCount supporting reads out of
// totalReads total, and returns the argmax hypothesis with its posterior.
func PresenceTest(observedCount int, totalReads float64, totalCopy int, errorRate float64) PresenceCall {
	best := PresenceCall{Copy: 0, Posterior: 0}
	logLikelihoods := make([]float64, totalCopy+1)
	bestLL := negInf
	for c := 0; c <= totalCopy; c++ {
		expected := expectedTargetCount(c, totalCopy, totalReads, errorRate)
		ll := poissonLogPMF(observedCount, expected)
		logLikelihoods[c] = ll
		if ll > bestLL {
			bestLL = ll
			best.Copy = c
		}
	}
	best.Posterior = posteriorFromLogLikelihoods(logLikelihoods, best.Copy)
	return best
}

// posteriorFromLogLikelihoods converts a set of log-likelihoods into the
// normalized posterior weight of the bestIdx entry, shifting by the max
// log-likelihood first for numerical stability.
func posteriorFromLogLikelihoods(ll []float64, bestIdx int) float64 {
	maxLL := negInf
	for _, v := range ll {
		if v > maxLL {
			maxLL = v
		}
	}
	sum := 0.0
	var bestExp float64
	for i, v := range ll {
		e := expOrZero(v - maxLL)
		sum += e
		if i == bestIdx {
			bestExp = e
		}
	}
	if sum == 0 {
		return 0
	}
	return bestExp / sum
}

func expOrZero(x float64) float64 {
	if x < -700 {
		return 0
	}
	return math.Exp(x)
}

// SmallVariantGenotype is the diploid (ref-copy, alt-copy) call for a
// small variant, with its posterior weight.
type SmallVariantGenotype struct {
	RefCopy   int
	AltCopy   int
	Posterior float64
}

// GenotypeSmallVariant compares ref-node and alt-node supporting-read
// counts under the shared Poisson model over every diploid hypothesis
// (ref=0,alt=n) ... (ref=n,alt=0), n = totalCopy, and picks the argmax
// (§4.8 "Genotyper").
func GenotypeSmallVariant(refCount, altCount int, totalReads float64, totalCopy int, errorRate float64) SmallVariantGenotype {
	logLikelihoods := make([]float64, totalCopy+1)
	bestLL := negInf
	bestAlt := 0
	for alt := 0; alt <= totalCopy; alt++ {
		ref := totalCopy - alt
		expectedAlt := expectedTargetCount(alt, totalCopy, totalReads, errorRate)
		expectedRef := expectedTargetCount(ref, totalCopy, totalReads, errorRate)
		ll := poissonLogPMF(altCount, expectedAlt) + poissonLogPMF(refCount, expectedRef)
		logLikelihoods[alt] = ll
		if ll > bestLL {
			bestLL = ll
			bestAlt = alt
		}
	}
	return SmallVariantGenotype{
		RefCopy:   totalCopy - bestAlt,
		AltCopy:   bestAlt,
		Posterior: posteriorFromLogLikelihoods(logLikelihoods, bestAlt),
	}
}

// BreakpointCoverage is the per-breakpoint count of reads whose
// alignment matches at least minMatch bases on both sides of the
// breakpoint (§4.8 "Breakpoint-coverage filter").
type BreakpointCoverage struct {
	UpstreamMatchingReads   int
	DownstreamMatchingReads int
}

// DefaultMinMatch is the default minimum number of matching bases
// required on each side of a breakpoint for a read to count as spanning
// it.
const DefaultMinMatch = 10

// LowDepthFilter decides whether the low_depth filter must be attached
// to a variant's findings: either breakpoint having fewer spanning reads
// than minSpanningReads (halved, rounding down, for haploid loci) fails
// the filter.
func LowDepthFilter(cov BreakpointCoverage, minSpanningReads int, haploid bool) bool {
	threshold := minSpanningReads
	if haploid {
		threshold = minSpanningReads / 2
	}
	return cov.UpstreamMatchingReads < threshold || cov.DownstreamMatchingReads < threshold
}
