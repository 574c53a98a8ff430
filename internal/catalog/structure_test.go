package catalog

import (
	"testing"

	"github.com/grailbio/strgt/internal/graph"
	"github.com/grailbio/strgt/internal/region"
)

func refLocus() region.GenomicRegion {
	r, _ := region.New(0, 1000, 1100)
	return r
}

func TestTokenizeLiteralRepeatLiteral(t *testing.T) {
	segs, err := tokenize("AATT(CGG)*ATTT")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segs))
	}
	if segs[0].kind != segLiteral || segs[0].alts[0] != "AATT" {
		t.Errorf("segment 0: %+v", segs[0])
	}
	if segs[1].kind != segRepeat || segs[1].alts[0] != "CGG" {
		t.Errorf("segment 1: %+v", segs[1])
	}
	if segs[2].kind != segLiteral || segs[2].alts[0] != "ATTT" {
		t.Errorf("segment 2: %+v", segs[2])
	}
}

func TestTokenizeDeletionAlt(t *testing.T) {
	segs, err := tokenize("AAAA(GGG|)TTTT")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if len(segs) != 3 || segs[1].kind != segAlt {
		t.Fatalf("unexpected segments: %+v", segs)
	}
	if segs[1].alts[0] != "GGG" || segs[1].alts[1] != "" {
		t.Errorf("expected ref=GGG alt=empty, got %+v", segs[1].alts)
	}
}

func TestTokenizeUnmatchedParen(t *testing.T) {
	if _, err := tokenize("AAAA(GGG"); err == nil {
		t.Fatalf("expected error for unmatched paren")
	}
}

func TestParseStructureSingleRepeat(t *testing.T) {
	g, proj, ranges, err := parseStructure("AATT(CGG)*ATTT", refLocus())
	if err != nil {
		t.Fatalf("parseStructure: %v", err)
	}
	if g.NumNodes() != 3 {
		t.Fatalf("expected 3 nodes, got %d", g.NumNodes())
	}
	if len(ranges) != 1 {
		t.Fatalf("expected 1 variant range, got %d", len(ranges))
	}
	repeatNode := ranges[0].nodes[0]
	if g.NodeSeq(repeatNode) != "CGG" {
		t.Errorf("expected repeat node seq CGG, got %q", g.NodeSeq(repeatNode))
	}
	// self-loop on the repeat node
	foundSelfLoop := false
	for _, s := range g.Successors(repeatNode) {
		if s == repeatNode {
			foundSelfLoop = true
		}
	}
	if !foundSelfLoop {
		t.Errorf("expected self-loop on repeat node")
	}
	if len(proj) != 3 {
		t.Errorf("expected projection entries for all 3 nodes, got %d", len(proj))
	}
}

func TestParseStructureDeletion(t *testing.T) {
	g, _, ranges, err := parseStructure("AAAA(GGG|)TTTT", refLocus())
	if err != nil {
		t.Fatalf("parseStructure: %v", err)
	}
	if len(ranges) != 1 {
		t.Fatalf("expected 1 variant range, got %d", len(ranges))
	}
	nr := ranges[0]
	if !nr.hasRefNode {
		t.Errorf("expected deletion variant to have a ref node")
	}
	if len(nr.nodes) != 1 {
		t.Fatalf("expected 1 node for a deletion variant, got %d", len(nr.nodes))
	}
	if g.NodeSeq(nr.refNode) != "GGG" {
		t.Errorf("expected ref node seq GGG, got %q", g.NodeSeq(nr.refNode))
	}
	// flank nodes must bypass the deletion node directly (alt = skip it)
	leftFlank := graph.NodeID(0)
	rightFlank := graph.NodeID(g.NumNodes() - 1)
	bypassed := false
	for _, s := range g.Successors(leftFlank) {
		if s == rightFlank {
			bypassed = true
		}
	}
	if !bypassed {
		t.Errorf("expected a direct bypass edge from left flank to right flank")
	}
}

func TestParseStructureInsertion(t *testing.T) {
	_, _, ranges, err := parseStructure("AAAA(|GGG)TTTT", refLocus())
	if err != nil {
		t.Fatalf("parseStructure: %v", err)
	}
	if len(ranges) != 1 {
		t.Fatalf("expected 1 variant range, got %d", len(ranges))
	}
	if ranges[0].hasRefNode {
		t.Errorf("expected insertion variant to have no ref node")
	}
	if len(ranges[0].nodes) != 1 {
		t.Fatalf("expected 1 node for an insertion variant, got %d", len(ranges[0].nodes))
	}
}

func TestParseStructureSwap(t *testing.T) {
	g, _, ranges, err := parseStructure("AAAA(GGG|CCC)TTTT", refLocus())
	if err != nil {
		t.Fatalf("parseStructure: %v", err)
	}
	if len(ranges) != 1 || len(ranges[0].nodes) != 2 {
		t.Fatalf("expected 1 variant range with 2 nodes, got %+v", ranges)
	}
	if !ranges[0].hasRefNode {
		t.Errorf("expected swap variant to designate a ref node")
	}
	if g.NodeSeq(ranges[0].refNode) != "GGG" {
		t.Errorf("expected ref node seq GGG, got %q", g.NodeSeq(ranges[0].refNode))
	}
}

func TestParseStructureEmptyAltPairErrors(t *testing.T) {
	if _, _, _, err := parseStructure("AAAA(|)TTTT", refLocus()); err == nil {
		t.Fatalf("expected error for empty ref/alt pair")
	}
}
