package graph

import (
	farm "github.com/dgryski/go-farm"
)

// DefaultKmerLength is the k used for orientation prediction and aligner
// seeding (§4.2), unless a locus overrides it.
const DefaultKmerLength = 10

// SourcePath identifies where a k-mer occurs in the graph: the node it
// starts in, and the offset within that node.
type SourcePath struct {
	Node   NodeID
	Offset int
}

// degenerateExpansions maps an IUPAC code to the concrete bases it can
// stand for. Concrete bases map to themselves.
var degenerateExpansions = map[byte][]byte{
	'A': {'A'}, 'C': {'C'}, 'G': {'G'}, 'T': {'T'},
	'a': {'A'}, 'c': {'C'}, 'g': {'G'}, 't': {'T'},
	'R': {'A', 'G'}, 'Y': {'C', 'T'}, 'S': {'G', 'C'}, 'W': {'A', 'T'},
	'K': {'G', 'T'}, 'M': {'A', 'C'},
	'B': {'C', 'G', 'T'}, 'D': {'A', 'G', 'T'}, 'H': {'A', 'C', 'T'}, 'V': {'A', 'C', 'G'},
	'N': {'A', 'C', 'G', 'T'},
}

func isDegenerate(seq string) bool {
	for i := 0; i < len(seq); i++ {
		b := seq[i]
		switch b {
		case 'A', 'C', 'G', 'T', 'a', 'c', 'g', 't':
		default:
			return true
		}
	}
	return false
}

// expandDegenerate returns every concrete nucleotide string that seq,
// possibly containing IUPAC codes, could stand for.
func expandDegenerate(seq string) []string {
	results := []string{""}
	for i := 0; i < len(seq); i++ {
		opts, ok := degenerateExpansions[seq[i]]
		if !ok {
			opts = []byte{seq[i]}
		}
		next := make([]string, 0, len(results)*len(opts))
		for _, r := range results {
			for _, o := range opts {
				next = append(next, r+string(o))
			}
		}
		results = next
	}
	return results
}

// KmerIndex maps a kmer sequence (upper-cased, concrete bases only) to
// every position in a Graph where that kmer can be read starting. It is
// built by enumerating every path of length K starting at every (node,
// offset) and, when the graph carries IUPAC degenerate symbols,
// expanding each such path into the Cartesian product of concrete
// sequences before insertion — mirroring fusion/kmer_index.go's
// kmer-to-position map, generalized from a flat transcript index to a
// graph index.
type KmerIndex struct {
	k     int
	table map[uint64][]indexEntry
}

type indexEntry struct {
	kmer string
	path SourcePath
}

// BuildKmerIndex constructs a KmerIndex over g with kmer length k.
func BuildKmerIndex(g *Graph, k int) *KmerIndex {
	idx := &KmerIndex{k: k, table: make(map[uint64][]indexEntry)}
	for n := NodeID(0); int(n) < g.NumNodes(); n++ {
		seqLen := len(g.NodeSeq(n))
		for off := 0; off < seqLen; off++ {
			for _, seq := range pathsOfLength(g, n, off, k) {
				idx.insertAll(seq, SourcePath{Node: n, Offset: off})
			}
		}
	}
	return idx
}

// pathsOfLength enumerates every sequence of length k obtainable by
// walking forward from (node, offset), following every outgoing edge
// when a node's remaining sequence runs out before k bases are
// collected. Returns nil if no length-k walk exists (e.g. near a sink
// with no successors).
func pathsOfLength(g *Graph, node NodeID, offset, k int) []string {
	seq := g.NodeSeq(node)
	remaining := len(seq) - offset
	if remaining >= k {
		return []string{seq[offset : offset+k]}
	}
	prefix := seq[offset:]
	var out []string
	for _, succ := range g.Successors(node) {
		for _, tail := range pathsOfLength(g, succ, 0, k-remaining) {
			out = append(out, prefix+tail)
		}
	}
	return out
}

func (idx *KmerIndex) insertAll(seq string, src SourcePath) {
	if isDegenerate(seq) {
		for _, concrete := range expandDegenerate(seq) {
			idx.insertOne(concrete, src)
		}
		return
	}
	idx.insertOne(upper(seq), src)
}

func (idx *KmerIndex) insertOne(seq string, src SourcePath) {
	h := farm.Hash64([]byte(seq))
	idx.table[h] = append(idx.table[h], indexEntry{kmer: seq, path: src})
}

// Lookup returns the source positions recorded for kmer (case-folded to
// upper before hashing, matching low-quality-base downcasing in reads).
func (idx *KmerIndex) Lookup(kmer string) []SourcePath {
	up := upper(kmer)
	h := farm.Hash64([]byte(up))
	entries := idx.table[h]
	if len(entries) == 0 {
		return nil
	}
	var out []SourcePath
	for _, e := range entries {
		if e.kmer == up {
			out = append(out, e.path)
		}
	}
	return out
}

// K returns the kmer length the index was built with.
func (idx *KmerIndex) K() int { return idx.k }

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}
