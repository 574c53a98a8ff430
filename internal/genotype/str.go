// Package genotype implements the STR allele-size likelihood model, the
// small-variant diploid genotyper and presence tester, and the
// copy-number caller (§4.7, §4.8). Statistical machinery (Binomial /
// Poisson models, percentile bootstrap) is built on
// gonum.org/v1/gonum/stat/distuv, adopted from the wider example pack
// (arvados-lightning, kortschak-ins) since grailbio/bio itself carries no
// statistics dependency for this concern.
package genotype

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// CountTable maps an observed allele size (motif count) to the number of
// reads supporting it (§3).
type CountTable map[int]int

// maxObservationSpread is D_max from §4.7.
const maxObservationSpread = 5

// Allele is one haplotype call with its 95% confidence interval.
type Allele struct {
	NumMotifs int
	CILow     int
	CIHigh    int
}

// RepeatGenotype is one or two Alleles for a motif of MotifLength bases
// (§3). Two-allele genotypes are sorted short <= long.
type RepeatGenotype struct {
	MotifLength int
	Alleles     []Allele
}

// STRParams bundles the per-locus tuning knobs used by the STR
// genotyper.
type STRParams struct {
	ErrorRate   float64 // p in §4.7
	AlleleCount int     // 1 or 2, from §4.6
	MeanReadLen float64
	Depth       float64 // total depth d; haploid depth h = d/AlleleCount
}

// candidateGrid returns every motif count worth testing: every key seen
// in spanning or flanking, plus a window of maxObservationSpread+2 around
// the observed min/max, per §4.7 ("all observed motif counts in the
// tables plus a grid around them").
func candidateGrid(tables ...CountTable) []int {
	set := map[int]bool{}
	minK, maxK := 1<<30, -(1 << 30)
	for _, t := range tables {
		for k := range t {
			set[k] = true
			if k < minK {
				minK = k
			}
			if k > maxK {
				maxK = k
			}
		}
	}
	if len(set) == 0 {
		return nil
	}
	pad := maxObservationSpread + 2
	for k := minK - pad; k <= maxK+pad; k++ {
		if k >= 0 {
			set[k] = true
		}
	}
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// molDist returns Pr(k) for k in 0..kMax for a haplotype of size H:
// p*(1-p)^min(|k-H|, D_max), normalized to sum to 1 over 0..kMax.
func molDist(h int, p float64, kMax int) []float64 {
	dist := make([]float64, kMax+1)
	sum := 0.0
	for k := 0; k <= kMax; k++ {
		d := k - h
		if d < 0 {
			d = -d
		}
		if d > maxObservationSpread {
			d = maxObservationSpread
		}
		v := p * pow1MinusP(p, d)
		dist[k] = v
		sum += v
	}
	if sum > 0 {
		for k := range dist {
			dist[k] /= sum
		}
	}
	return dist
}

func pow1MinusP(p float64, n int) float64 {
	v := 1.0
	base := 1 - p
	for i := 0; i < n; i++ {
		v *= base
	}
	return v
}

// tailSum returns sum_{j=k}^{kMax} dist[j].
func tailSum(dist []float64, k int) float64 {
	if k < 0 {
		k = 0
	}
	if k >= len(dist) {
		return 0
	}
	sum := 0.0
	for j := k; j < len(dist); j++ {
		sum += dist[j]
	}
	return sum
}

// GenotypeSTR searches the candidate allele-size grid for the diploid (or
// haploid) genotype maximizing the weighted log-likelihood of the
// observed spanning and flanking count tables, per §4.7.
func GenotypeSTR(spanning, flanking CountTable, params STRParams) (RepeatGenotype, bool) {
	grid := candidateGrid(spanning, flanking)
	if len(grid) == 0 || params.MeanReadLen <= 0 {
		return RepeatGenotype{}, false
	}
	kMax := grid[len(grid)-1] + maxObservationSpread
	h := params.Depth / float64(params.AlleleCount)
	scale := 0.5 * h / params.MeanReadLen

	distCache := make(map[int][]float64, len(grid))
	dist := func(a int) []float64 {
		if d, ok := distCache[a]; ok {
			return d
		}
		d := molDist(a, params.ErrorRate, kMax)
		distCache[a] = d
		return d
	}

	bestLL := negInf
	var bestA1, bestA2 int
	haploid := params.AlleleCount == 1

	evaluate := func(a1, a2 int) float64 {
		d1, d2 := dist(a1), dist(a2)
		ll := 0.0
		for k, count := range spanning {
			if count == 0 {
				continue
			}
			lk := scale * (d1[k] + d2[k])
			ll += float64(count) * logOrFloor(lk)
		}
		for k, count := range flanking {
			if count == 0 {
				continue
			}
			lk := scale * (tailSum(d1, k) + tailSum(d2, k))
			ll += float64(count) * logOrFloor(lk)
		}
		return ll
	}

	if haploid {
		for _, a := range grid {
			ll := evaluate(a, a)
			if ll > bestLL {
				bestLL, bestA1, bestA2 = ll, a, a
			}
		}
	} else {
		for _, a1 := range grid {
			for _, a2 := range grid {
				if a1 > a2 {
					continue
				}
				ll := evaluate(a1, a2)
				if ll > bestLL {
					bestLL, bestA1, bestA2 = ll, a1, a2
				}
			}
		}
	}
	if bestLL == negInf {
		return RepeatGenotype{}, false
	}

	shortSupportFlankOnly := len(spanning) == 0 || spanning[bestA1] == 0
	longSupportFlankOnly := len(spanning) == 0 || spanning[bestA2] == 0

	ciLow1, ciHigh1 := bootstrapCI(bestA1, params, countOf(spanning, flanking, bestA1), shortSupportFlankOnly)
	if haploid {
		return RepeatGenotype{
			Alleles: []Allele{{NumMotifs: bestA1, CILow: ciLow1, CIHigh: ciHigh1}},
		}, true
	}
	ciLow2, ciHigh2 := bootstrapCI(bestA2, params, countOf(spanning, flanking, bestA2), longSupportFlankOnly)
	return RepeatGenotype{
		Alleles: []Allele{
			{NumMotifs: bestA1, CILow: ciLow1, CIHigh: ciHigh1},
			{NumMotifs: bestA2, CILow: ciLow2, CIHigh: ciHigh2},
		},
	}, true
}

func countOf(spanning, flanking CountTable, a int) int {
	return spanning[a] + flanking[a]
}

const negInf = -1e18

func logOrFloor(x float64) float64 {
	if x <= 0 {
		return -700 // ~log(minimal positive float64), avoids -Inf poisoning sums
	}
	return math.Log(x)
}

// bootstrapSeed is the fixed seed required by §4.7 for reproducible CIs.
const bootstrapSeed = 42

const bootstrapDraws = 10000

// bootstrapCI implements §4.7's parametric bootstrap: given the ML
// allele-size estimate mlEstimate, model in-repeat read support as
// Binomial(mlEstimate, h/readLen) (or Poisson(readCount) when the allele
// is only supported by flanking reads), draw bootstrapDraws samples with
// a fixed seed, and report the 2.5th/97.5th percentiles of
// (mlEstimate - sample/p) as offsets from mlEstimate.
func bootstrapCI(mlEstimate int, params STRParams, readCount int, flankingOnly bool) (int, int) {
	h := params.Depth / float64(params.AlleleCount)
	p := h / params.MeanReadLen
	if p <= 0 || p > 1 {
		return mlEstimate, mlEstimate
	}
	src := rand.New(rand.NewSource(bootstrapSeed))
	offsets := make([]float64, bootstrapDraws)
	if flankingOnly {
		pois := distuv.Poisson{Lambda: float64(readCount), Src: src}
		for i := range offsets {
			sample := pois.Rand()
			offsets[i] = float64(mlEstimate) - sample/p
		}
	} else {
		binom := distuv.Binomial{N: float64(mlEstimate), P: p, Src: src}
		for i := range offsets {
			sample := binom.Rand()
			offsets[i] = float64(mlEstimate) - sample/p
		}
	}
	sort.Float64s(offsets)
	lowOffset := percentile(offsets, 2.5)
	highOffset := percentile(offsets, 97.5)
	ciLow := mlEstimate + int(round(lowOffset))
	ciHigh := mlEstimate + int(round(highOffset))
	if ciLow > ciHigh {
		ciLow, ciHigh = ciHigh, ciLow
	}
	if ciLow < 0 {
		ciLow = 0
	}
	if ciHigh < ciLow {
		ciHigh = ciLow
	}
	if ciLow > mlEstimate {
		ciLow = mlEstimate
	}
	if ciHigh < mlEstimate {
		ciHigh = mlEstimate
	}
	return ciLow, ciHigh
}

func percentile(sorted []float64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct / 100) * float64(len(sorted)-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func round(x float64) float64 {
	if x >= 0 {
		return float64(int(x + 0.5))
	}
	return -float64(int(-x + 0.5))
}
