package locus

import (
	"fmt"
	"testing"

	"github.com/grailbio/strgt/internal/graph"
	"github.com/grailbio/strgt/internal/locusstats"
	"github.com/grailbio/strgt/internal/reads"
)

func buildSTRLocus(t *testing.T) *LocusSpecification {
	t.Helper()
	g := graph.New([]string{"AATT", "CGG", "ATTT"})
	if err := g.AddEdge(0, 1, ""); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if err := g.AddEdge(1, 1, ""); err != nil {
		t.Fatalf("AddEdge self-loop: %v", err)
	}
	if err := g.AddEdge(1, 2, ""); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	variant := &VariantSpecification{
		ID:      "str1",
		Type:    Repeat,
		Subtype: CommonRepeat,
		NodeIDs: []graph.NodeID{1},
	}
	return &LocusSpecification{
		ID:        "locus1",
		ChromType: locusstats.Autosome,
		Graph:     g,
		Variants:  []*VariantSpecification{variant},
		ErrorRate: 0.9,
	}
}

func TestAnalyzerNoReadsShortCircuits(t *testing.T) {
	spec := buildSTRLocus(t)
	a := NewAnalyzer(spec, locusstats.Female)
	findings, err := a.Run(nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if findings.Variants["str1"].Filters&FilterLowDepth == 0 {
		t.Errorf("expected low_depth filter with no reads")
	}
	if a.state != StateFindingsReady {
		t.Errorf("expected state findings_ready, got %v", a.state)
	}
}

func TestAnalyzerHomozygousSpanningReads(t *testing.T) {
	spec := buildSTRLocus(t)
	a := NewAnalyzer(spec, locusstats.Female)

	repeatUnit := "CGG"
	var seq string
	for i := 0; i < 10; i++ {
		seq += repeatUnit
	}
	full := "AATT" + seq + "ATTT" // 4 + 30 + 4 = 38bp, longer than a 30bp read but fine as input

	var pairs []*reads.ReadPair
	for i := 0; i < 20; i++ {
		r := &reads.Read{FragmentID: fmt.Sprintf("frag%d", i), Mate: reads.Mate1, Sequence: full}
		pairs = append(pairs, &reads.ReadPair{FragmentID: r.FragmentID, First: r})
	}
	findings, err := a.Run(pairs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if findings == nil {
		t.Fatalf("expected findings")
	}
	if _, ok := findings.Variants["str1"]; !ok {
		t.Fatalf("expected str1 findings present")
	}
}
