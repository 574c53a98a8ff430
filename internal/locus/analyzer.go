package locus

import (
	"fmt"
	"strings"

	"github.com/grailbio/base/log"

	"github.com/grailbio/strgt/internal/align"
	"github.com/grailbio/strgt/internal/genotype"
	"github.com/grailbio/strgt/internal/graph"
	"github.com/grailbio/strgt/internal/locusstats"
	"github.com/grailbio/strgt/internal/reads"
	"github.com/grailbio/strgt/internal/refine"
)

// State is one stage of the per-locus analysis pipeline (§4.9).
type State int

const (
	StateCreated State = iota
	StateCollectingReads
	StateAligning
	StateClassifying
	StateRefining
	StateStats
	StateGenotyping
	StateFindingsReady
)

// readAlignment is the working-set record the Analyzer keeps per mate:
// its classification against every repeat variant's graph, and (for
// small variants) its relation to the variant's ref/alt nodes.
type readAlignment struct {
	read        reads.Read
	canonical   align.GraphAlignment
	repeatLabel map[string]align.Label               // variant id -> label
	svRelation  map[string]align.SmallVariantRelation // variant id -> relation
}

// Analyzer drives one LocusSpecification through §4.9's state machine.
// It is not safe for concurrent use by more than one goroutine; the
// concurrency harness gives each worker its own Analyzer per locus.
type Analyzer struct {
	spec *LocusSpecification
	sex  locusstats.Sex
	kmer *graph.KmerIndex
	rcG  *graph.Graph
	rcKmer *graph.KmerIndex

	state State
	pairs []*reads.ReadPair
	aligns []*readAlignment

	stats    locusstats.Stats
	findings *LocusFindings
}

// NewAnalyzer builds an Analyzer for spec, pre-building the forward and
// reverse-complement k-mer indexes used by the orientation predictor
// (§4.1, §4.2).
func NewAnalyzer(spec *LocusSpecification, sex locusstats.Sex) *Analyzer {
	rcG := spec.Graph.Reverse(true)
	return &Analyzer{
		spec:   spec,
		sex:    sex,
		kmer:   graph.BuildKmerIndex(spec.Graph, graph.DefaultKmerLength),
		rcG:    rcG,
		rcKmer: graph.BuildKmerIndex(rcG, graph.DefaultKmerLength),
		state:  StateCreated,
	}
}

// Run drives the Analyzer through every state to findings_ready and
// returns the result. It is the single entry point the concurrency
// harness calls per locus.
func (a *Analyzer) Run(pairs []*reads.ReadPair) (*LocusFindings, error) {
	a.collectReads(pairs)
	if a.shortCircuitNoReads() {
		return a.findings, nil
	}
	a.align()
	a.classify()
	a.refineAndAccumulate()
	if a.shortCircuitZeroReadLength() {
		return a.findings, nil
	}
	a.genotypeAll()
	a.state = StateFindingsReady
	return a.findings, nil
}

func (a *Analyzer) collectReads(pairs []*reads.ReadPair) {
	a.state = StateCollectingReads
	a.pairs = pairs
}

// shortCircuitNoReads implements §4.9's and §7's "no reads" failure
// mode: empty findings with the low_depth filter, skipping straight to
// findings_ready.
func (a *Analyzer) shortCircuitNoReads() bool {
	if len(a.pairs) > 0 {
		return false
	}
	log.Debug.Printf("locus %s: no read pairs collected, emitting low_depth findings", a.spec.ID)
	a.findings = emptyFindings(a.spec, a.sex)
	a.state = StateFindingsReady
	return true
}

// shortCircuitZeroReadLength implements §4.9's "zero mean read length"
// failure mode once stats have been accumulated.
func (a *Analyzer) shortCircuitZeroReadLength() bool {
	if a.stats.MeanReadLength > 0 {
		return false
	}
	log.Debug.Printf("locus %s: zero mean read length after accumulation, emitting low_depth findings", a.spec.ID)
	a.findings = emptyFindings(a.spec, a.sex)
	a.state = StateFindingsReady
	return true
}

func emptyFindings(spec *LocusSpecification, sex locusstats.Sex) *LocusFindings {
	variants := make(map[string]*VariantFindings, len(spec.Variants))
	for _, v := range spec.Variants {
		variants[v.ID] = &VariantFindings{VariantID: v.ID, Filters: FilterLowDepth}
	}
	return &LocusFindings{
		LocusID: spec.ID,
		Stats:   locusstats.Stats{AlleleCount: locusstats.ExpectedAlleleCount(spec.ChromType, sex)},
		Variants: variants,
	}
}

// align runs the orientation predictor and graph aligner over every
// mate of every collected pair (§4.9's "aligning" stage).
func (a *Analyzer) align() {
	a.state = StateAligning
	for _, p := range a.pairs {
		if p.First != nil {
			a.aligns = append(a.aligns, a.alignRead(*p.First))
		}
		if p.Second != nil {
			a.aligns = append(a.aligns, a.alignRead(*p.Second))
		}
	}
}

func (a *Analyzer) alignRead(r reads.Read) *readAlignment {
	decision, _, _ := graph.PredictOrientation(r.Sequence, a.kmer, a.rcKmer)
	seq := r.Sequence
	g := a.spec.Graph
	idx := a.kmer
	if decision == graph.ReverseComplement {
		seq = reverseComplementSeq(seq)
	}
	ra := &readAlignment{read: r, repeatLabel: map[string]align.Label{}, svRelation: map[string]align.SmallVariantRelation{}}
	haveCanonical := false
	for _, v := range a.spec.Variants {
		if v.Type != Repeat {
			continue
		}
		repeatNode := v.NodeIDs[0]
		cands := align.Align(seq, g, idx, repeatNode, true, align.Params{})
		labels := make([]align.Label, len(cands))
		for i, c := range cands {
			labels[i] = align.ClassifyRepeat(c, g, repeatNode)
		}
		canonical, label := align.CanonicalAlignment(cands, labels)
		ra.repeatLabel[v.ID] = label
		if !haveCanonical || label == align.Spans || label == align.InsideRepeat {
			ra.canonical = canonical
			haveCanonical = true
		}
	}
	for _, v := range a.spec.Variants {
		if v.Type != SmallVariant {
			continue
		}
		first, last := v.NodeIDs[0], v.NodeIDs[len(v.NodeIDs)-1]
		ra.svRelation[v.ID] = align.ClassifySmallVariant(ra.canonical, first, last)
	}
	return ra
}

func reverseComplementSeq(s string) string {
	r := reads.Read{Sequence: s}
	r.ReverseComplement()
	return r.Sequence
}

func (a *Analyzer) classify() {
	a.state = StateClassifying
}

// refineAndAccumulate runs the STR refiner and the indel filter for
// every repeat variant, and feeds the locus-statistics accumulator from
// flank-node alignments (§4.5, §4.6).
func (a *Analyzer) refineAndAccumulate() {
	a.state = StateRefining
	spanning := map[string]map[int]int{}
	flanking := map[string]map[int]int{}
	inrepeat := map[string]map[int]int{}

	for _, v := range a.spec.Variants {
		if v.Type != Repeat {
			continue
		}
		repeatNode := v.NodeIDs[0]
		spanning[v.ID] = map[int]int{}
		flanking[v.ID] = map[int]int{}
		inrepeat[v.ID] = map[int]int{}

		var readAligns []refine.ReadAlign
		byRead := map[string]refine.StrAlign{}
		for _, ra := range a.aligns {
			label, ok := ra.repeatLabel[v.ID]
			if !ok || label == align.Unprocessed || label == align.Unalignable {
				continue
			}
			motifLen := len(a.spec.Graph.NodeSeq(repeatNode))
			sa, _ := refine.Refine(ra.read.Sequence, a.spec.Graph, a.kmer, repeatNode, motifLen, 200)
			byRead[ra.read.FragmentID] = sa
			readAligns = append(readAligns, refine.ReadAlign{
				ReadID:     ra.read.FragmentID,
				HasIndels:  sa.NumIndels > 0,
				NumMotifs:  sa.NumMotifs,
				IsInRepeat: sa.Type == refine.TypeInRepeat,
			})
		}
		dropped := refine.IndelFilter(readAligns)
		for readID, sa := range byRead {
			if dropped[readID] {
				continue
			}
			switch sa.Type {
			case refine.TypeSpanning:
				spanning[v.ID][int(sa.NumMotifs)]++
			case refine.TypeFlanking:
				flanking[v.ID][int(sa.NumMotifs)]++
			case refine.TypeInRepeat:
				inrepeat[v.ID][int(sa.NumMotifs)]++
			}
		}
	}

	acc := newStatsAccumulator(a.spec)
	for _, ra := range a.aligns {
		if len(ra.canonical.Path.Nodes) > 0 {
			acc.AddRead(ra.read.FragmentID, ra.canonical.Path.Nodes[0], a.approxStart(ra), a.approxEnd(ra), len(ra.read.Sequence))
		}
	}
	a.stats = acc.Reduce()
	a.stats.AlleleCount = locusstats.ExpectedAlleleCount(a.spec.ChromType, a.sex)

	a.findings = &LocusFindings{
		LocusID:  a.spec.ID,
		Stats:    a.stats,
		Variants: map[string]*VariantFindings{},
	}
	for _, v := range a.spec.Variants {
		if v.Type != Repeat {
			continue
		}
		a.findings.Variants[v.ID] = &VariantFindings{
			VariantID: v.ID,
			Repeat: &RepeatFindings{
				SpanningCounts: spanning[v.ID],
				FlankingCounts: flanking[v.ID],
				InRepeatCounts: inrepeat[v.ID],
			},
		}
	}
}

// approxStart/approxEnd stand in for the reference-coordinate
// projection of a canonical alignment's path: approxStart always returns
// 0 and approxEnd returns the read length. They are not reference
// coordinates, so fragment lengths computed from them do not reflect the
// mates' real positions, and DebugAlignment.StartPos is always 0.
func (a *Analyzer) approxStart(ra *readAlignment) int64 { return 0 }
func (a *Analyzer) approxEnd(ra *readAlignment) int64   { return int64(len(ra.read.Sequence)) }

func newStatsAccumulator(spec *LocusSpecification) *locusstats.Accumulator {
	var left, right graph.NodeID
	var leftLen, rightLen int
	for _, v := range spec.Variants {
		if v.Type != Repeat {
			continue
		}
		repeatNode := v.NodeIDs[0]
		preds := spec.Graph.PredecessorsExcluding(repeatNode, repeatNode)
		succs := spec.Graph.SuccessorsExcluding(repeatNode, repeatNode)
		if len(preds) > 0 {
			left = preds[0]
			leftLen = len(spec.Graph.NodeSeq(left))
		}
		if len(succs) > 0 {
			right = succs[0]
			rightLen = len(spec.Graph.NodeSeq(right))
		}
		break
	}
	return locusstats.NewAccumulator(left, right, leftLen, rightLen, locusstats.ExpectedAlleleCount(spec.ChromType, locusstats.Female))
}

// genotypeAll runs the STR genotyper over each repeat variant's
// accumulated evidence (§4.7), attaching the low_depth filter where no
// genotype can be called or locus depth is below MinLocusCoverage.
// Breakpoint coverage is not checked, and small variants get neither a
// findings entry nor a genotype here.
func (a *Analyzer) genotypeAll() {
	a.state = StateGenotyping
	params := genotype.STRParams{
		ErrorRate:   a.spec.ErrorRate,
		AlleleCount: a.stats.AlleleCount,
		MeanReadLen: a.stats.MeanReadLength,
		Depth:       a.stats.Depth,
	}
	for _, vf := range a.findings.Variants {
		if vf.Repeat == nil {
			continue
		}
		g, ok := genotype.GenotypeSTR(vf.Repeat.SpanningCounts, vf.Repeat.FlankingCounts, params)
		if !ok {
			vf.Filters |= FilterLowDepth
			continue
		}
		alleles := make([]AlleleCall, len(g.Alleles))
		for i, al := range g.Alleles {
			alleles[i] = AlleleCall{NumMotifs: al.NumMotifs, CILow: al.CILow, CIHigh: al.CIHigh}
		}
		vf.Repeat.Genotype = &RepeatGenotypeResult{MotifLength: g.MotifLength, Alleles: alleles}
	}
	if a.stats.Depth < a.spec.MinLocusCoverage {
		for _, vf := range a.findings.Variants {
			vf.Filters |= FilterLowDepth
		}
	}
}

// DebugAlignment is one read's canonical graph alignment, reported for
// the optional debug alignment BAM (§4.12).
type DebugAlignment struct {
	FragmentID string
	IsReversed bool
	StartNode  graph.NodeID
	StartPos   int64
	CigarLike  string
	Sequence   string
}

// DebugAlignments returns every read alignment reached during Run, for
// callers that emit the debug alignment BAM. Returns nil before Run
// reaches StateAligning.
func (a *Analyzer) DebugAlignments() []DebugAlignment {
	if len(a.aligns) == 0 {
		return nil
	}
	out := make([]DebugAlignment, 0, len(a.aligns))
	for _, ra := range a.aligns {
		da := DebugAlignment{
			FragmentID: ra.read.FragmentID,
			IsReversed: ra.read.IsReversed,
			StartPos:   a.approxStart(ra),
			CigarLike:  cigarLikeString(ra.canonical),
			Sequence:   ra.read.Sequence,
		}
		if len(ra.canonical.Path.Nodes) > 0 {
			da.StartNode = ra.canonical.Path.Nodes[0]
		}
		out = append(out, da)
	}
	return out
}

func cigarLikeString(ga align.GraphAlignment) string {
	var b strings.Builder
	for _, na := range ga.Nodes {
		for _, op := range na.Ops {
			n := op.RefLen
			if n == 0 {
				n = op.QueryLen
			}
			fmt.Fprintf(&b, "%d%s", n, op.Type.String())
		}
	}
	return b.String()
}
