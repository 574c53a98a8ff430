package align

import "github.com/grailbio/strgt/internal/graph"

// candidatePath is a concrete source-to-sink walk through the graph,
// with repeatNode possibly unrolled several times, together with its
// spelled sequence and a mapping from spelled-sequence offsets back to
// (node-occurrence-index, in-node-offset).
type candidatePath struct {
	nodes    []graph.NodeID
	spelled  string
	nodeSpan []int // cumulative length of spelled sequence up to and including each node occurrence
	graph    *graph.Graph
}

func isSource(g *graph.Graph, n graph.NodeID) bool { return len(g.Predecessors(n)) == 0 }
func isSink(g *graph.Graph, n graph.NodeID) bool    { return len(g.Successors(n)) == 0 }

// candidatePaths enumerates every source-to-sink walk through g that
// passes through anchor, bounding how many times repeatNode may be
// revisited to maxRepeat (only meaningful when isRepeatGraph, i.e.
// repeatNode has a self-loop).
func candidatePaths(g *graph.Graph, anchor graph.NodeID, repeatNode graph.NodeID, isRepeatGraph bool, maxRepeat int) []candidatePath {
	leftSuffixes := nodeListsTo(g, anchor, repeatNode, isRepeatGraph, maxRepeat, true)
	rightSuffixes := nodeListsTo(g, anchor, repeatNode, isRepeatGraph, maxRepeat, false)

	var out []candidatePath
	for _, left := range leftSuffixes {
		for _, right := range rightSuffixes {
			nodes := append(append([]graph.NodeID(nil), left...), right[1:]...)
			out = append(out, spell(g, nodes))
		}
	}
	return out
}

// nodeListsTo enumerates walks ending (backward==true) or starting
// (backward==false) at anchor and reaching a source (backward) or sink
// (forward) node, inclusive of anchor. Each returned slice is ordered
// source-to-sink direction regardless of backward.
func nodeListsTo(g *graph.Graph, anchor, repeatNode graph.NodeID, isRepeatGraph bool, maxRepeat int, backward bool) [][]graph.NodeID {
	var results [][]graph.NodeID
	var dfs func(cur graph.NodeID, path []graph.NodeID, repeatCount int)
	dfs = func(cur graph.NodeID, path []graph.NodeID, repeatCount int) {
		path = append(path, cur)
		done := false
		if backward {
			done = isSource(g, cur)
		} else {
			done = isSink(g, cur)
		}
		if done {
			out := append([]graph.NodeID(nil), path...)
			if backward {
				reverseNodes(out)
			}
			results = append(results, out)
			// A source/sink node can still have further neighbors in
			// this direction only if it's also the repeat node
			// (self-loop); locus graphs never make flank nodes loop,
			// so we stop here.
			return
		}
		var neighbors []graph.NodeID
		if backward {
			neighbors = g.Predecessors(cur)
		} else {
			neighbors = g.Successors(cur)
		}
		for _, next := range neighbors {
			nextRepeatCount := repeatCount
			if isRepeatGraph && next == repeatNode {
				nextRepeatCount++
				if nextRepeatCount > maxRepeat {
					continue
				}
			}
			dfs(next, path, nextRepeatCount)
		}
	}
	startRepeatCount := 0
	if isRepeatGraph && anchor == repeatNode {
		startRepeatCount = 1
	}
	dfs(anchor, nil, startRepeatCount)
	return results
}

func reverseNodes(n []graph.NodeID) {
	for i, j := 0, len(n)-1; i < j; i, j = i+1, j-1 {
		n[i], n[j] = n[j], n[i]
	}
}

func spell(g *graph.Graph, nodes []graph.NodeID) candidatePath {
	cp := candidatePath{nodes: nodes, graph: g}
	total := 0
	spans := make([]int, len(nodes))
	var b []byte
	for i, n := range nodes {
		b = append(b, g.NodeSeq(n)...)
		total += len(g.NodeSeq(n))
		spans[i] = total
	}
	cp.spelled = string(b)
	cp.nodeSpan = spans
	return cp
}

// nodeOffsetAt maps an offset (0-based) in cp.spelled to the
// (occurrence-index-into-cp.nodes, in-node-offset) pair. offset==len(cp.spelled)
// maps just past the end of the last node (used for exclusive end bounds).
func (cp candidatePath) nodeOffsetAt(offset int) (int, int) {
	prev := 0
	for i, span := range cp.nodeSpan {
		if offset < span || (offset == span && i == len(cp.nodeSpan)-1) {
			return i, offset - prev
		}
		prev = span
	}
	last := len(cp.nodeSpan) - 1
	return last, offset - prev
}
