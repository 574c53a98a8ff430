package align

import "github.com/grailbio/strgt/internal/graph"

// alignToPath aligns seq against cand's spelled sequence and converts the
// result into a GraphAlignment: the reference-consuming span of the local
// alignment is mapped back onto cand's node occurrences, soft clips are
// added for any unaligned read prefix/suffix, and per-node operation
// lists are produced by splitting the op run list at node boundaries.
func alignToPath(seq string, cand candidatePath) GraphAlignment {
	res := localAlign(seq, cand.spelled)
	if res.score == 0 && len(res.ops) == 0 {
		return GraphAlignment{}
	}

	var ops []Op
	if res.readStart > 0 {
		ops = append(ops, Op{Type: SoftClip, QueryLen: res.readStart})
	}
	ops = append(ops, res.ops...)
	if res.readEnd < len(seq) {
		ops = append(ops, Op{Type: SoftClip, QueryLen: len(seq) - res.readEnd})
	}

	firstNodeOcc, startOffset := cand.nodeOffsetAt(res.refStart)
	var lastNodeOcc, endOffset int
	if res.refEnd == res.refStart {
		lastNodeOcc, endOffset = firstNodeOcc, startOffset
	} else {
		lastNodeOcc, endOffset = cand.nodeOffsetAt(res.refEnd - 1)
		endOffset++
	}

	nodes := cand.nodes[firstNodeOcc : lastNodeOcc+1]
	path, err := graph.NewPath(cand.pathGraph(), startOffset, nodes, endOffset)
	if err != nil {
		return GraphAlignment{}
	}

	nodeAligns := splitOpsByNode(path, ops)
	return GraphAlignment{Path: path, Nodes: nodeAligns, Score: res.score}
}

// pathGraph recovers the *graph.Graph a candidatePath was spelled from.
// candidatePath nodes all reference the same graph; spell() records that
// graph in cp.graph when it builds the candidate.
func (cp candidatePath) pathGraph() *graph.Graph { return cp.graph }

// splitOpsByNode distributes a flat op list (which may include leading
// and trailing soft clips) across path.Nodes, splitting any op whose
// reference span crosses a node boundary.
func splitOpsByNode(path graph.Path, ops []Op) []NodeAlignment {
	nodeAligns := make([]NodeAlignment, len(path.Nodes))
	for i, n := range path.Nodes {
		nodeAligns[i].Node = n
	}
	if len(path.Nodes) == 0 {
		return nodeAligns
	}

	nodeIdx := 0
	remainingInNode := nodeRefRemaining(path, 0)
	for _, op := range ops {
		refLen := op.RefLen
		queryLen := op.QueryLen
		if refLen == 0 {
			// Insertions/soft-clips attach to the current node (or the
			// first node if they precede any ref-consuming op).
			nodeAligns[nodeIdx].Ops = append(nodeAligns[nodeIdx].Ops, op)
			continue
		}
		for refLen > 0 {
			if remainingInNode == 0 {
				nodeIdx++
				remainingInNode = nodeRefRemaining(path, nodeIdx)
			}
			take := refLen
			if take > remainingInNode {
				take = remainingInNode
			}
			frac := Op{Type: op.Type, RefLen: take}
			if queryLen > 0 {
				qTake := take
				if qTake > queryLen {
					qTake = queryLen
				}
				frac.QueryLen = qTake
				queryLen -= qTake
			}
			nodeAligns[nodeIdx].Ops = append(nodeAligns[nodeIdx].Ops, frac)
			refLen -= take
			remainingInNode -= take
		}
	}
	return nodeAligns
}

func nodeRefRemaining(path graph.Path, occIdx int) int {
	seq := path.Graph.NodeSeq(path.Nodes[occIdx])
	start, end := 0, len(seq)
	if occIdx == 0 {
		start = path.StartOffset
	}
	if occIdx == len(path.Nodes)-1 {
		end = path.EndOffset
	}
	return end - start
}
