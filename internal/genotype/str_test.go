package genotype

import "testing"

func TestGenotypeSTRHomozygous(t *testing.T) {
	spanning := CountTable{10: 20}
	flanking := CountTable{}
	params := STRParams{ErrorRate: 0.9, AlleleCount: 2, MeanReadLen: 150, Depth: 40}
	g, ok := GenotypeSTR(spanning, flanking, params)
	if !ok {
		t.Fatalf("expected a genotype call")
	}
	if len(g.Alleles) != 2 {
		t.Fatalf("expected two alleles, got %d", len(g.Alleles))
	}
	if g.Alleles[0].NumMotifs != 10 || g.Alleles[1].NumMotifs != 10 {
		t.Errorf("expected both alleles at 10 motifs, got %+v", g.Alleles)
	}
}

func TestGenotypeSTRHeterozygous(t *testing.T) {
	spanning := CountTable{5: 15, 20: 15}
	flanking := CountTable{}
	params := STRParams{ErrorRate: 0.9, AlleleCount: 2, MeanReadLen: 150, Depth: 40}
	g, ok := GenotypeSTR(spanning, flanking, params)
	if !ok {
		t.Fatalf("expected a genotype call")
	}
	if g.Alleles[0].NumMotifs != 5 || g.Alleles[1].NumMotifs != 20 {
		t.Errorf("expected alleles (5,20) sorted short<=long, got %+v", g.Alleles)
	}
}

func TestGenotypeSTRHaploid(t *testing.T) {
	spanning := CountTable{30: 20}
	params := STRParams{ErrorRate: 0.9, AlleleCount: 1, MeanReadLen: 150, Depth: 20}
	g, ok := GenotypeSTR(spanning, nil, params)
	if !ok {
		t.Fatalf("expected a genotype call")
	}
	if len(g.Alleles) != 1 || g.Alleles[0].NumMotifs != 30 {
		t.Errorf("expected single allele at 30 motifs, got %+v", g.Alleles)
	}
}

func TestGenotypeSTRNoEvidence(t *testing.T) {
	params := STRParams{ErrorRate: 0.9, AlleleCount: 2, MeanReadLen: 150, Depth: 40}
	if _, ok := GenotypeSTR(nil, nil, params); ok {
		t.Errorf("expected no genotype call with no evidence")
	}
}

func TestBootstrapCIContainsEstimate(t *testing.T) {
	params := STRParams{ErrorRate: 0.9, AlleleCount: 2, MeanReadLen: 150, Depth: 40}
	low, high := bootstrapCI(20, params, 20, false)
	if low > 20 || high < 20 {
		t.Errorf("expected CI to bracket the ML estimate 20, got [%d,%d]", low, high)
	}
}

func TestPercentileMonotone(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if percentile(xs, 2.5) > percentile(xs, 97.5) {
		t.Errorf("expected low percentile <= high percentile")
	}
}
