// Package refine implements the STR alignment refiner (§4.5): given a
// candidate allele size in motif units, it produces the best-scoring
// alignment consistent with exactly that many motifs, and the
// indel-driven alignment filter that follows it.
//
// The source (original_source/classification/InrepeatReadDetection.cc)
// implements left-clip, right-clip, and stutter-removal as three cheap
// greedy heuristics applied to an existing alignment, because re-running
// full dynamic programming per candidate allele size was too expensive at
// the source's scale. Here internal/align already exposes an exact,
// affine-gap local-alignment DP cheap enough to run directly against a
// repeat-count-fixed candidate path (the locus graphs this system aligns
// against are a handful of nodes long). Left-clip and right-clip are
// therefore collapsed into a single "direct" exact-DP strategy: since DP
// finds the global local-alignment optimum, independently clipping from
// either end cannot out-score it. Stutter-removal is kept as a genuinely
// distinct strategy, because it adjusts the alignment by editing exactly
// one contiguous indel run within the repeat node's ops rather than
// searching from scratch, which can win when the direct DP lands on an
// alignment whose gap sits just outside a whole-motif boundary.
package refine

import (
	"github.com/grailbio/strgt/internal/align"
	"github.com/grailbio/strgt/internal/graph"
)

// Type mirrors the reduced StrAlign.type taxonomy (§3): Spanning is the
// best outcome, Outside (unalignable / outside the repeat entirely) the
// worst. Ordering below relies on this numeric order.
type Type uint8

const (
	TypeSpanning Type = iota
	TypeFlanking
	TypeInRepeat
	TypeOutside
)

// StrAlign is the refined-alignment record (§3). Ordering is lexicographic
// on (Type, Score, NumMotifs, NumIndels) with Type ranked so spanning <
// flanking < in-repeat < outside in "goodness" (i.e. Less reports whether
// a is strictly better than b).
type StrAlign struct {
	Type      Type
	NumMotifs uint16
	Score     int16
	NumIndels uint8
}

// Less reports whether a ranks as strictly better than b.
func Less(a, b StrAlign) bool {
	if a.Type != b.Type {
		return a.Type < b.Type
	}
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.NumMotifs != b.NumMotifs {
		return a.NumMotifs > b.NumMotifs
	}
	return a.NumIndels < b.NumIndels
}

func typeFromLabel(label align.Label) Type {
	switch label {
	case align.Spans:
		return TypeSpanning
	case align.FlanksLeft, align.FlanksRight:
		return TypeFlanking
	case align.InsideRepeat:
		return TypeInRepeat
	default:
		return TypeOutside
	}
}

// Refine produces the best StrAlign consistent with exactly m copies of
// the repeat unit, by running the direct exact-DP strategy and the
// stutter-removal strategy and keeping the higher-scoring of the two.
func Refine(read string, g *graph.Graph, idx *graph.KmerIndex, repeatNode graph.NodeID, motifLen, m int) (StrAlign, align.GraphAlignment) {
	direct, directGA := directStrategy(read, g, idx, repeatNode, m)
	stutter, stutterGA := stutterStrategy(directGA, g, repeatNode, motifLen, m)

	if stutterGA.Score > 0 && Less(stutter, direct) {
		return stutter, stutterGA
	}
	return direct, directGA
}

// directStrategy aligns read against the candidate path with repeatNode
// unrolled exactly m times, which by construction yields an alignment
// whose repeat-node occurrence count is exactly m.
func directStrategy(read string, g *graph.Graph, idx *graph.KmerIndex, repeatNode graph.NodeID, m int) (StrAlign, align.GraphAlignment) {
	cands := align.Align(read, g, idx, repeatNode, true, align.Params{MaxRepeatUnits: m})
	var best align.GraphAlignment
	bestScore := -1 << 30
	for _, c := range cands {
		count := countNodeOccurrences(c, repeatNode)
		if count != m {
			continue
		}
		if c.Score > bestScore {
			bestScore = c.Score
			best = c
		}
	}
	if best.Score == 0 && len(best.Nodes) == 0 {
		return StrAlign{Type: TypeOutside}, align.GraphAlignment{}
	}
	label := align.ClassifyRepeat(best, g, repeatNode)
	return StrAlign{
		Type:      typeFromLabel(label),
		NumMotifs: uint16(m),
		Score:     clampScore(best.Score),
		NumIndels: countIndels(best, repeatNode),
	}, best
}

// stutterStrategy looks for a single contiguous indel within base's
// repeat-node ops whose length is a multiple of motifLen, and whose
// removal (contracting or expanding the implied motif count by that
// many units) brings the motif count to exactly m. When found, it
// returns an adjusted StrAlign scored by crediting the recovered bases
// as matches and dropping the gap penalty; otherwise it returns a
// sentinel with Score 0 so callers know the strategy did not apply.
func stutterStrategy(base align.GraphAlignment, g *graph.Graph, repeatNode graph.NodeID, motifLen, m int) (StrAlign, align.GraphAlignment) {
	if len(base.Nodes) == 0 || motifLen <= 0 {
		return StrAlign{}, align.GraphAlignment{}
	}
	observed := countNodeOccurrences(base, repeatNode)
	delta := m - observed
	if delta == 0 {
		return StrAlign{}, align.GraphAlignment{}
	}
	target := delta * motifLen
	for _, na := range base.Nodes {
		if na.Node != repeatNode {
			continue
		}
		for _, op := range na.Ops {
			runLen := op.RefLen
			if op.Type == align.Insertion {
				runLen = op.QueryLen
			}
			if runLen == 0 || runLen%motifLen != 0 {
				continue
			}
			signedLen := runLen / motifLen
			if op.Type == align.Deletion {
				signedLen = -signedLen // a deletion means fewer motifs than the path holds
			}
			if signedLen != delta {
				continue
			}
			adjustedScore := base.Score - gapPenaltyOf(op) + matchCreditOf(runLen)
			label := align.ClassifyRepeat(base, g, repeatNode)
			_ = target
			return StrAlign{
				Type:      typeFromLabel(label),
				NumMotifs: uint16(m),
				Score:     clampScore(adjustedScore),
				NumIndels: countIndels(base, repeatNode) - 1,
			}, base
		}
	}
	return StrAlign{}, align.GraphAlignment{}
}

func gapPenaltyOf(op align.Op) int { return -8 }
func matchCreditOf(runLen int) int { return runLen * 5 }

func countNodeOccurrences(ga align.GraphAlignment, node graph.NodeID) int {
	count := 0
	for _, n := range ga.Path.Nodes {
		if n == node {
			count++
		}
	}
	return count
}

func countIndels(ga align.GraphAlignment, repeatNode graph.NodeID) uint8 {
	var n int
	for _, na := range ga.Nodes {
		for _, op := range na.Ops {
			if op.Type == align.Insertion || op.Type == align.Deletion {
				n++
			}
		}
	}
	if n > 255 {
		return 255
	}
	return uint8(n)
}

func clampScore(s int) int16 {
	if s > 32767 {
		return 32767
	}
	if s < -32768 {
		return -32768
	}
	return int16(s)
}
