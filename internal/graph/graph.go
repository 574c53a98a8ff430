// Package graph implements the per-locus sequence graph, its k-mer index,
// and the read-orientation predictor. The graph model and index are
// generalized from grailbio/bio's fusion-calling kmer index
// (fusion/kmer_index.go), which maps kmers to transcript positions; here
// a kmer maps to positions within a small directed multigraph instead of
// a flat transcript.
package graph

import (
	"fmt"
	"strings"

	"github.com/grailbio/strgt/internal/errs"
)

// NodeID identifies a node in a Graph. Node ids are dense: 0..NumNodes()-1.
type NodeID int32

// Graph is a directed multigraph of nucleotide-sequence-labelled nodes.
// Self-loops are permitted (the repeat node of an STR locus has one);
// parallel duplicate edges are not.
type Graph struct {
	seqs  []string
	succ  [][]NodeID
	pred  [][]NodeID
	label map[edgeKey]string
}

type edgeKey struct {
	from, to NodeID
}

// New creates an empty graph with n nodes, each carrying seqs[i] as its
// sequence. len(seqs) determines the node count.
func New(seqs []string) *Graph {
	n := len(seqs)
	g := &Graph{
		seqs:  append([]string(nil), seqs...),
		succ:  make([][]NodeID, n),
		pred:  make([][]NodeID, n),
		label: make(map[edgeKey]string),
	}
	return g
}

// NumNodes returns the number of nodes in the graph.
func (g *Graph) NumNodes() int { return len(g.seqs) }

// NodeSeq returns the nucleotide sequence labelling node id.
func (g *Graph) NodeSeq(id NodeID) string { return g.seqs[id] }

// Predecessors returns the node ids with an edge into id, in the order
// they were added.
func (g *Graph) Predecessors(id NodeID) []NodeID { return g.pred[id] }

// Successors returns the node ids with an edge from id, in the order they
// were added.
func (g *Graph) Successors(id NodeID) []NodeID { return g.succ[id] }

// AddEdge adds a directed edge from -> to, with an optional label. It is
// an invariant violation to add a parallel duplicate edge.
func (g *Graph) AddEdge(from, to NodeID, label string) error {
	key := edgeKey{from, to}
	if _, ok := g.label[key]; ok {
		return errs.E(errs.Invariant, fmt.Sprintf("duplicate edge %d->%d", from, to))
	}
	g.label[key] = label
	g.succ[from] = append(g.succ[from], to)
	g.pred[to] = append(g.pred[to], from)
	return nil
}

// EdgeLabel returns the label of the edge from -> to, and whether it
// exists.
func (g *Graph) EdgeLabel(from, to NodeID) (string, bool) {
	l, ok := g.label[edgeKey{from, to}]
	return l, ok
}

// PredecessorsExcluding returns Predecessors(id) with self excluded; used
// to compute a repeat node's left flank set per §3/§4.4.
func (g *Graph) PredecessorsExcluding(id, self NodeID) []NodeID {
	return excluding(g.Predecessors(id), self)
}

// SuccessorsExcluding returns Successors(id) with self excluded.
func (g *Graph) SuccessorsExcluding(id, self NodeID) []NodeID {
	return excluding(g.Successors(id), self)
}

func excluding(ids []NodeID, self NodeID) []NodeID {
	out := make([]NodeID, 0, len(ids))
	for _, id := range ids {
		if id != self {
			out = append(out, id)
		}
	}
	return out
}

// complementByte maps an IUPAC nucleotide byte to its complement,
// preserving case. A/C/G/T/N are handled in either case; degenerate
// codes are handled in upper case only.
func complementByte(b byte) byte {
	switch b {
	case 'A':
		return 'T'
	case 'a':
		return 't'
	case 'C':
		return 'G'
	case 'c':
		return 'g'
	case 'G':
		return 'C'
	case 'g':
		return 'c'
	case 'T':
		return 'A'
	case 't':
		return 'a'
	case 'N', 'n':
		return b
	default:
		// IUPAC degenerate codes complement to their paired code; only
		// the ones that appear in reference/catalog sequences need
		// support here.
		switch b {
		case 'R':
			return 'Y'
		case 'Y':
			return 'R'
		case 'S':
			return 'S'
		case 'W':
			return 'W'
		case 'K':
			return 'M'
		case 'M':
			return 'K'
		case 'B':
			return 'V'
		case 'V':
			return 'B'
		case 'D':
			return 'H'
		case 'H':
			return 'D'
		default:
			return b
		}
	}
}

func reverseComplement(seq string) string {
	b := []byte(seq)
	for i, j := 0, len(b)-1; i <= j; i, j = i+1, j-1 {
		b[i], b[j] = complementByte(b[j]), complementByte(b[i])
	}
	return string(b)
}

func reverseString(seq string) string {
	b := []byte(seq)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// Reverse produces a new graph whose node ids are reversed (node i in the
// result corresponds to node NumNodes()-1-i in g) and whose sequences are
// reversed, optionally complemented. Edges are reversed in both direction
// and endpoint numbering so that Reverse(Reverse(g)) == g structurally and
// sequence-wise.
func (g *Graph) Reverse(complement bool) *Graph {
	n := g.NumNodes()
	seqs := make([]string, n)
	for i, s := range g.seqs {
		if complement {
			seqs[n-1-i] = reverseComplement(s)
		} else {
			seqs[n-1-i] = reverseString(s)
		}
	}
	rg := New(seqs)
	for key, label := range g.label {
		from := NodeID(n) - 1 - key.to
		to := NodeID(n) - 1 - key.from
		// Reverse() never fails on a graph that was itself built
		// without duplicate edges.
		_ = rg.AddEdge(from, to, label)
	}
	return rg
}

// Path is a contiguous walk through g starting at StartOffset within the
// first node and ending at EndOffset within the last node (exclusive).
// Invariants: 0 <= StartOffset < len(NodeSeq(Nodes[0])),
// 0 < EndOffset <= len(NodeSeq(Nodes[len(Nodes)-1])).
type Path struct {
	Graph       *Graph
	StartOffset int
	Nodes       []NodeID
	EndOffset   int
}

// NewPath validates and constructs a Path.
func NewPath(g *Graph, startOffset int, nodes []NodeID, endOffset int) (Path, error) {
	if len(nodes) == 0 {
		return Path{}, errs.E(errs.Invariant, "path has no nodes")
	}
	first, last := len(g.NodeSeq(nodes[0])), len(g.NodeSeq(nodes[len(nodes)-1]))
	if startOffset < 0 || startOffset >= first {
		return Path{}, errs.E(errs.Invariant, fmt.Sprintf("path start offset %d out of [0,%d)", startOffset, first))
	}
	if endOffset <= 0 || endOffset > last {
		return Path{}, errs.E(errs.Invariant, fmt.Sprintf("path end offset %d out of (0,%d]", endOffset, last))
	}
	return Path{Graph: g, StartOffset: startOffset, Nodes: append([]NodeID(nil), nodes...), EndOffset: endOffset}, nil
}

// Seq materialises the sequence spelled by the path: the concatenation,
// per node, of NodeSeq(n)[start:end] with start/end clipped to
// StartOffset/EndOffset at the path's extremes.
func (p Path) Seq() string {
	var b strings.Builder
	for i, n := range p.Nodes {
		seq := p.Graph.NodeSeq(n)
		start, end := 0, len(seq)
		if i == 0 {
			start = p.StartOffset
		}
		if i == len(p.Nodes)-1 {
			end = p.EndOffset
		}
		b.WriteString(seq[start:end])
	}
	return b.String()
}

// ExtendStartToNode prepends node n to the path, whole, moving
// StartOffset to 0. n must have an edge to the current first node.
func (p Path) ExtendStartToNode(n NodeID) Path {
	nodes := append([]NodeID{n}, p.Nodes...)
	return Path{Graph: p.Graph, StartOffset: 0, Nodes: nodes, EndOffset: p.EndOffset}
}

// ExtendEndToNode appends node n to the path, whole, moving EndOffset to
// len(NodeSeq(n)). n must be reachable via an edge from the current last
// node.
func (p Path) ExtendEndToNode(n NodeID) Path {
	nodes := append(append([]NodeID(nil), p.Nodes...), n)
	return Path{Graph: p.Graph, StartOffset: p.StartOffset, Nodes: nodes, EndOffset: len(p.Graph.NodeSeq(n))}
}

// ShiftStartAlongNode moves StartOffset forward by delta bases within the
// first node, without changing the node list. delta must keep the offset
// within [0, len(firstNodeSeq)).
func (p Path) ShiftStartAlongNode(delta int) (Path, error) {
	newOffset := p.StartOffset + delta
	firstLen := len(p.Graph.NodeSeq(p.Nodes[0]))
	if newOffset < 0 || newOffset >= firstLen {
		return Path{}, errs.E(errs.Invariant, fmt.Sprintf("shifted start offset %d out of [0,%d)", newOffset, firstLen))
	}
	p.StartOffset = newOffset
	return p, nil
}

// ContainsNode reports whether id appears anywhere in the path's node
// list.
func (p Path) ContainsNode(id NodeID) bool {
	for _, n := range p.Nodes {
		if n == id {
			return true
		}
	}
	return false
}

// IndexOfNode returns the position of id in p.Nodes, or -1.
func (p Path) IndexOfNode(id NodeID) int {
	for i, n := range p.Nodes {
		if n == id {
			return i
		}
	}
	return -1
}
