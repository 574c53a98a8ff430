package align

import "github.com/grailbio/strgt/internal/graph"

// Label is the categorical classification of a graph alignment relative
// to a variant of interest (§3 AlignmentLabel, §4.4).
type Label int

const (
	Unprocessed Label = iota
	Spans
	FlanksLeft
	FlanksRight
	InsideRepeat
	LeftOf
	RightOf
	Unalignable
)

func (l Label) String() string {
	switch l {
	case Spans:
		return "spans"
	case FlanksLeft:
		return "flanks_left"
	case FlanksRight:
		return "flanks_right"
	case InsideRepeat:
		return "inside_repeat"
	case LeftOf:
		return "left_of"
	case RightOf:
		return "right_of"
	case Unalignable:
		return "unalignable"
	default:
		return "unprocessed"
	}
}

// ClassifyRepeat labels a single graph alignment relative to a repeat
// variant occupying repeatNode, per §4.4's overlap table.
func ClassifyRepeat(ga GraphAlignment, g *graph.Graph, repeatNode graph.NodeID) Label {
	leftFlank := g.PredecessorsExcluding(repeatNode, repeatNode)
	rightFlank := g.SuccessorsExcluding(repeatNode, repeatNode)

	overlapsLeft := pathOverlapsAny(ga.Path, leftFlank)
	overlapsRight := pathOverlapsAny(ga.Path, rightFlank)
	overlapsRepeat := ga.Path.ContainsNode(repeatNode)

	switch {
	case overlapsLeft && overlapsRight:
		return Spans
	case overlapsLeft && !overlapsRight && overlapsRepeat:
		return FlanksLeft
	case overlapsLeft && !overlapsRight && !overlapsRepeat:
		return LeftOf
	case !overlapsLeft && overlapsRight && overlapsRepeat:
		return FlanksRight
	case !overlapsLeft && overlapsRight && !overlapsRepeat:
		return RightOf
	case !overlapsLeft && !overlapsRight && overlapsRepeat:
		return InsideRepeat
	default:
		return Unalignable
	}
}

func pathOverlapsAny(p graph.Path, nodes []graph.NodeID) bool {
	for _, n := range nodes {
		if p.ContainsNode(n) {
			return true
		}
	}
	return false
}

// SmallVariantRelation is the read-to-variant-interval relation used by
// the small-variant classifier (§4.4).
type SmallVariantRelation int

const (
	SVUnrelated SmallVariantRelation = iota
	SVSpans
	SVUpstreamFlank
	SVDownstreamFlank
	SVBypassing
)

// ClassifySmallVariant relates ga's path to the closed node interval
// [firstVariantNode, lastVariantNode]. A read "spans" when its path
// contains at least one node strictly before the interval and one
// strictly after; a read that spans without touching any node inside the
// interval is "bypassing" and must be excluded from allelic counts. A
// path that lies wholly inside the interval is also reported as SVSpans.
func ClassifySmallVariant(ga GraphAlignment, firstVariantNode, lastVariantNode graph.NodeID) SmallVariantRelation {
	var before, after, inside bool
	for _, n := range ga.Path.Nodes {
		switch {
		case n < firstVariantNode:
			before = true
		case n > lastVariantNode:
			after = true
		default:
			inside = true
		}
	}
	switch {
	case before && after && !inside:
		return SVBypassing
	case before && after && inside:
		return SVSpans
	case before && inside:
		return SVUpstreamFlank
	case after && inside:
		return SVDownstreamFlank
	case inside:
		return SVSpans
	default:
		return SVUnrelated
	}
}

// CanonicalAlignment selects, among several candidate graph alignments
// for one read, the alignment used as the read's assigned evidence.
//
// This preserves the ExpansionHunter source's known bug (see §9 Design
// Notes / Open Questions): it iterates candidates in order and
// unconditionally overwrites the running choice on InsideRepeat, then
// again on any Flanks* label, so when several flanking alignments exist
// only the last one seen is kept. That loses information, but the spec
// requires preserving this behaviour exactly rather than fixing it.
func CanonicalAlignment(candidates []GraphAlignment, labels []Label) (GraphAlignment, Label) {
	if len(candidates) == 0 {
		return GraphAlignment{}, Unprocessed
	}
	chosen := candidates[0]
	chosenLabel := labels[0]
	for i, label := range labels {
		switch label {
		case InsideRepeat:
			chosen, chosenLabel = candidates[i], label
		case FlanksLeft, FlanksRight:
			chosen, chosenLabel = candidates[i], label
		}
	}
	return chosen, chosenLabel
}
