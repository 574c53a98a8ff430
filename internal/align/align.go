// Package align implements the graph aligner (§4.3) and alignment
// classifier (§4.4). The aligner performs seed-and-extend alignment: a
// read is seeded against the locus's k-mer index, each seed's node is
// extended into a full source-to-sink path through the graph (looping the
// repeat node as needed), and every candidate path is scored against the
// read with an affine-gap Smith-Waterman-Gotoh-style local alignment
// (match +5, mismatch -4, gap-open -8, gap-extend 0, i.e. one flat cost
// per contiguous indel regardless of its length, per §4.3). This
// generalizes the seed-and-extend shape of grailbio/bio's fusion
// stitcher (fusion/stitcher.go), which stitches read fragments onto
// transcript positions found via the same kind of kmer index.
package align

import (
	"github.com/grailbio/base/log"

	"github.com/grailbio/strgt/internal/graph"
)

// OpType enumerates the per-base alignment operations (§3 GraphAlignment).
type OpType uint8

const (
	Match OpType = iota
	Mismatch
	Insertion
	Deletion
	Missing
	SoftClip
)

func (t OpType) String() string {
	switch t {
	case Match:
		return "M"
	case Mismatch:
		return "X"
	case Insertion:
		return "I"
	case Deletion:
		return "D"
	case Missing:
		return "N"
	case SoftClip:
		return "S"
	default:
		return "?"
	}
}

// Op is one run of a single operation type, with its reference and query
// span lengths (one of which is 0 for insertion/deletion/soft-clip).
type Op struct {
	Type     OpType
	RefLen   int
	QueryLen int
}

// NodeAlignment is the local alignment of a read (or a span of it)
// against a single node's sequence.
type NodeAlignment struct {
	Node NodeID
	Ops  []Op
}

// NodeID is re-exported for package-local readability.
type NodeID = graph.NodeID

// GraphAlignment is a path through the locus graph plus a per-node local
// alignment of the read against it. Invariant: concatenating the
// reference-consuming ops spells exactly Path.Seq(), and soft-clips occur
// only at the two extreme ends of the whole alignment.
type GraphAlignment struct {
	Path  graph.Path
	Nodes []NodeAlignment
	Score int
}

const (
	matchScore    = 5
	mismatchScore = -4
	gapOpen       = -8
	gapExtend     = 0
)

// ScoreFloor returns the minimum alignment score (in score units) an
// alignment of a read of length readLen must reach to be considered
// belonging to this locus: max(10, readLen/7.5) * matchScore.
func ScoreFloor(readLen int) int {
	f := float64(readLen) / 7.5
	if f < 10 {
		f = 10
	}
	return int(f) * matchScore
}

// Params tunes the aligner beyond the fixed score constants.
type Params struct {
	// KmerLength is the seed length; defaults to graph.DefaultKmerLength.
	KmerLength int
	// MaxRepeatUnits bounds how many times a self-looping node is
	// unrolled when enumerating candidate source-to-sink paths, so that
	// alignment against long STR alleles terminates quickly. Defaults
	// to a value derived from the read length.
	MaxRepeatUnits int
	// MaxSeedExtensions caps how many distinct seed anchor nodes are
	// extended per read, guarding worst-case DP cost on highly
	// repetitive loci (generalizes fusion/stitcher.go's cap on
	// candidates per multi-mapped kmer).
	MaxSeedExtensions int
}

func (p Params) withDefaults(readLen int) Params {
	if p.KmerLength == 0 {
		p.KmerLength = graph.DefaultKmerLength
	}
	if p.MaxRepeatUnits == 0 {
		p.MaxRepeatUnits = readLen/1 + 5
	}
	if p.MaxSeedExtensions == 0 {
		p.MaxSeedExtensions = 64
	}
	return p
}

// Align aligns seq against g using idx (built with BuildKmerIndex(g,
// params.KmerLength)) as the seed source, and returns the highest-scoring
// candidate graph alignments (ties kept). An empty result means no
// candidate reached the score floor.
func Align(seq string, g *graph.Graph, idx *graph.KmerIndex, repeatNode graph.NodeID, isRepeatGraph bool, params Params) []GraphAlignment {
	params = params.withDefaults(len(seq))
	seeds := seedAnchorNodes(seq, idx, params)
	if len(seeds) == 0 {
		return nil
	}
	var best []GraphAlignment
	bestScore := ScoreFloor(len(seq)) - 1
	seen := map[graph.NodeID]bool{}
	extensions := 0
	for _, anchor := range seeds {
		if seen[anchor] {
			continue
		}
		seen[anchor] = true
		if extensions >= params.MaxSeedExtensions {
			log.Debug.Printf("align: seed extension cap %d reached with %d seed(s) left unextended, truncating",
				params.MaxSeedExtensions, len(seeds)-extensions)
			break
		}
		extensions++
		for _, cand := range candidatePaths(g, anchor, repeatNode, isRepeatGraph, params.MaxRepeatUnits) {
			ga := alignToPath(seq, cand)
			if ga.Score < ScoreFloor(len(seq)) {
				continue
			}
			if ga.Score > bestScore {
				bestScore = ga.Score
				best = []GraphAlignment{ga}
			} else if ga.Score == bestScore {
				best = append(best, ga)
			}
		}
	}
	return best
}

// seedAnchorNodes returns the distinct nodes where an exact kmer seed of
// seq was found in idx, in order of first occurrence along seq.
func seedAnchorNodes(seq string, idx *graph.KmerIndex, params Params) []graph.NodeID {
	k := params.KmerLength
	var order []graph.NodeID
	seen := map[graph.NodeID]bool{}
	for i := 0; i+k <= len(seq); i++ {
		for _, src := range idx.Lookup(seq[i : i+k]) {
			if !seen[src.Node] {
				seen[src.Node] = true
				order = append(order, src.Node)
			}
		}
	}
	return order
}
