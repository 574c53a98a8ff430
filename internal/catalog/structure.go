package catalog

import (
	"fmt"
	"strings"

	"github.com/grailbio/strgt/internal/graph"
	"github.com/grailbio/strgt/internal/region"
)

// nodeRange is one variant's node layout as produced by the structure
// parser, paired positionally with the catalog entry's variant_types
// list (§6).
type nodeRange struct {
	nodes      []graph.NodeID
	refNode    graph.NodeID
	hasRefNode bool
}

// parseStructure decodes a locus structure string using the "(X)*"
// repeat grammar plus a "(REF|ALT)" alternative-node grammar for small
// variants, per §6 and original_source/ehunter/io/LocusSpecDecoding.hh's
// field list. Literal runs of bases become flank nodes; "(X)*" becomes a
// single self-looping repeat node; "(REF|ALT)" becomes one or two nodes
// bridging the same flanks, with reference-node presence depending on
// which side is empty:
//   - "(REF|)"  deletion: one node (REF), ref-node present, alt path is
//     a direct bypass edge around it.
//   - "(|ALT)"  insertion: one node (ALT), no ref node, ref path is a
//     direct bypass edge around it.
//   - "(REF|ALT)" swap: two nodes, REF designated the reference node.
func parseStructure(structure string, refLocus region.GenomicRegion) (*graph.Graph, map[graph.NodeID]region.GenomicRegion, []nodeRange, error) {
	segments, err := tokenize(structure)
	if err != nil {
		return nil, nil, nil, err
	}

	var seqs []string
	type pendingEdge struct{ from, to graph.NodeID }
	var edges []pendingEdge
	projection := map[graph.NodeID]region.GenomicRegion{}
	var ranges []nodeRange
	var frontier []graph.NodeID
	offset := refLocus.Start

	addNode := func(seq string) graph.NodeID {
		seqs = append(seqs, seq)
		return graph.NodeID(len(seqs) - 1)
	}
	connectFrontier := func(to graph.NodeID) {
		for _, f := range frontier {
			edges = append(edges, pendingEdge{f, to})
		}
	}

	for _, seg := range segments {
		switch seg.kind {
		case segLiteral:
			n := addNode(seg.alts[0])
			connectFrontier(n)
			projection[n] = region.GenomicRegion{ContigID: refLocus.ContigID, Start: offset, End: offset + int64(len(seg.alts[0]))}
			offset += int64(len(seg.alts[0]))
			frontier = []graph.NodeID{n}

		case segRepeat:
			n := addNode(seg.alts[0])
			connectFrontier(n)
			edges = append(edges, pendingEdge{n, n})
			projection[n] = region.GenomicRegion{ContigID: refLocus.ContigID, Start: offset, End: offset + int64(len(seg.alts[0]))}
			offset += int64(len(seg.alts[0]))
			ranges = append(ranges, nodeRange{nodes: []graph.NodeID{n}})
			frontier = []graph.NodeID{n}

		case segAlt:
			ref, alt := seg.alts[0], seg.alts[1]
			switch {
			case ref != "" && alt != "":
				refNode := addNode(ref)
				altNode := addNode(alt)
				connectFrontier(refNode)
				connectFrontier(altNode)
				projection[refNode] = region.GenomicRegion{ContigID: refLocus.ContigID, Start: offset, End: offset + int64(len(ref))}
				ranges = append(ranges, nodeRange{nodes: []graph.NodeID{refNode, altNode}, refNode: refNode, hasRefNode: true})
				offset += int64(len(ref))
				frontier = []graph.NodeID{refNode, altNode}

			case ref != "" && alt == "":
				refNode := addNode(ref)
				connectFrontier(refNode)
				projection[refNode] = region.GenomicRegion{ContigID: refLocus.ContigID, Start: offset, End: offset + int64(len(ref))}
				ranges = append(ranges, nodeRange{nodes: []graph.NodeID{refNode}, refNode: refNode, hasRefNode: true})
				offset += int64(len(ref))
				frontier = append(frontier, refNode)

			case ref == "" && alt != "":
				altNode := addNode(alt)
				connectFrontier(altNode)
				ranges = append(ranges, nodeRange{nodes: []graph.NodeID{altNode}})
				frontier = append(frontier, altNode)

			default:
				return nil, nil, nil, fmt.Errorf("empty alternative pair in structure %q", structure)
			}
		}
	}
	g := graph.New(seqs)
	for _, e := range edges {
		if err := g.AddEdge(e.from, e.to, ""); err != nil {
			return nil, nil, nil, err
		}
	}
	return g, projection, ranges, nil
}

type segKind int

const (
	segLiteral segKind = iota
	segRepeat
	segAlt
)

type segment struct {
	kind segKind
	alts []string // len 1 for literal/repeat, len 2 [ref,alt] for segAlt
}

// tokenize splits a structure string into literal runs, "(X)*" repeat
// groups, and "(REF|ALT)" alternative groups. The grammar has no
// nesting.
func tokenize(s string) ([]segment, error) {
	var segs []segment
	i := 0
	for i < len(s) {
		if s[i] == '(' {
			j := strings.IndexByte(s[i:], ')')
			if j < 0 {
				return nil, fmt.Errorf("unmatched '(' in structure %q", s)
			}
			j += i
			inner := s[i+1 : j]
			k := j + 1
			if k < len(s) && s[k] == '*' {
				segs = append(segs, segment{kind: segRepeat, alts: []string{inner}})
				i = k + 1
				continue
			}
			parts := strings.SplitN(inner, "|", 2)
			if len(parts) != 2 {
				return nil, fmt.Errorf("expected 'REF|ALT' inside parens, got %q", inner)
			}
			segs = append(segs, segment{kind: segAlt, alts: parts})
			i = j + 1
			continue
		}
		j := i
		for j < len(s) && s[j] != '(' {
			j++
		}
		segs = append(segs, segment{kind: segLiteral, alts: []string{s[i:j]}})
		i = j
	}
	return segs, nil
}
