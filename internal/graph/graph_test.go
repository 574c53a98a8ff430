package graph

import "testing"

func buildStrLocus(t *testing.T) *Graph {
	t.Helper()
	// "CCG(CGG)*CCT" with one self-looping repeat node, per §8 scenario 1.
	g := New([]string{"AATTCCG", "CGG", "CCTATTT"})
	if err := g.AddEdge(0, 1, ""); err != nil {
		t.Fatal(err)
	}
	if err := g.AddEdge(1, 1, ""); err != nil {
		t.Fatal(err)
	}
	if err := g.AddEdge(1, 2, ""); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestPathSeqMaterialization(t *testing.T) {
	g := buildStrLocus(t)
	p, err := NewPath(g, 4, []NodeID{0, 1, 1, 2}, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := "CCG" + "CGG" + "CGG" + "CCT"
	if got := p.Seq(); got != want {
		t.Errorf("Seq() = %q, want %q", got, want)
	}
}

func TestPathInvariantViolations(t *testing.T) {
	g := buildStrLocus(t)
	if _, err := NewPath(g, -1, []NodeID{0}, 3); err == nil {
		t.Errorf("expected error for negative start offset")
	}
	if _, err := NewPath(g, 0, []NodeID{2}, 100); err == nil {
		t.Errorf("expected error for end offset beyond node length")
	}
}

func TestReverseComplementInvolution(t *testing.T) {
	g := buildStrLocus(t)
	rg := g.Reverse(true).Reverse(true)
	if rg.NumNodes() != g.NumNodes() {
		t.Fatalf("node count changed: %d vs %d", rg.NumNodes(), g.NumNodes())
	}
	for i := 0; i < g.NumNodes(); i++ {
		if rg.NodeSeq(NodeID(i)) != g.NodeSeq(NodeID(i)) {
			t.Errorf("node %d seq mismatch: got %q want %q", i, rg.NodeSeq(NodeID(i)), g.NodeSeq(NodeID(i)))
		}
	}
	for i := 0; i < g.NumNodes(); i++ {
		if len(rg.Successors(NodeID(i))) != len(g.Successors(NodeID(i))) {
			t.Errorf("node %d successor count changed", i)
		}
	}
}

func TestPredecessorsSuccessorsExcludeSelf(t *testing.T) {
	g := buildStrLocus(t)
	left := g.PredecessorsExcluding(1, 1)
	right := g.SuccessorsExcluding(1, 1)
	if len(left) != 1 || left[0] != 0 {
		t.Errorf("left flank = %v, want [0]", left)
	}
	if len(right) != 1 || right[0] != 2 {
		t.Errorf("right flank = %v, want [2]", right)
	}
}

func TestDegenerateExpansion(t *testing.T) {
	exp := expandDegenerate("AN")
	if len(exp) != 4 {
		t.Fatalf("expected 4 expansions of AN, got %d: %v", len(exp), exp)
	}
}

func TestKmerIndexLookup(t *testing.T) {
	g := buildStrLocus(t)
	idx := BuildKmerIndex(g, 3)
	hits := idx.Lookup("CGG")
	if len(hits) == 0 {
		t.Errorf("expected at least one hit for CGG")
	}
	if len(idx.Lookup("ZZZ")) != 0 {
		t.Errorf("expected no hits for an impossible kmer")
	}
}

func TestKmerIndexCaseInsensitive(t *testing.T) {
	g := New([]string{"acgtacgt"})
	idx := BuildKmerIndex(g, 4)
	if len(idx.Lookup("ACGT")) == 0 {
		t.Errorf("expected lowercase-indexed kmer to be found via uppercase lookup")
	}
}
