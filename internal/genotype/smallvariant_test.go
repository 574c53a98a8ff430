package genotype

import "testing"

func TestPresenceTestFullCopy(t *testing.T) {
	call := PresenceTest(98, 100, 2, 0.02)
	if call.Copy != 2 {
		t.Errorf("expected full copy call, got %d (posterior %v)", call.Copy, call.Posterior)
	}
	if call.Posterior <= 0.5 {
		t.Errorf("expected a confident posterior, got %v", call.Posterior)
	}
}

func TestPresenceTestAbsent(t *testing.T) {
	call := PresenceTest(1, 100, 2, 0.02)
	if call.Copy != 0 {
		t.Errorf("expected absent call, got %d", call.Copy)
	}
}

func TestGenotypeSmallVariantHeterozygous(t *testing.T) {
	g := GenotypeSmallVariant(49, 49, 98, 2, 0.02)
	if g.RefCopy != 1 || g.AltCopy != 1 {
		t.Errorf("expected heterozygous 1/1 call, got ref=%d alt=%d", g.RefCopy, g.AltCopy)
	}
}

func TestLowDepthFilterFiresBelowThreshold(t *testing.T) {
	cov := BreakpointCoverage{UpstreamMatchingReads: 3, DownstreamMatchingReads: 12}
	if !LowDepthFilter(cov, 10, false) {
		t.Errorf("expected low_depth filter to fire when upstream coverage is below threshold")
	}
}

func TestLowDepthFilterHaploidHalving(t *testing.T) {
	cov := BreakpointCoverage{UpstreamMatchingReads: 6, DownstreamMatchingReads: 6}
	if LowDepthFilter(cov, 10, true) {
		t.Errorf("expected haploid threshold of 5 to be satisfied by 6 matching reads")
	}
	if !LowDepthFilter(cov, 10, false) {
		t.Errorf("expected diploid threshold of 10 to not be satisfied by 6 matching reads")
	}
}

func TestCallCopyNumberSMNScenario(t *testing.T) {
	// Mirrors the SMN-like paralog scenario: target CN=1, baselines
	// {2, none}, expected baseline CN=2, expected delta -1.
	result := CallCopyNumber(1, []BaselineCall{{CN: 2}, {NoCall: true}}, 2)
	if !result.Called || result.Delta != -1 {
		t.Errorf("expected delta -1, got %+v", result)
	}
}

func TestCallCopyNumberDisagreement(t *testing.T) {
	result := CallCopyNumber(1, []BaselineCall{{CN: 2}, {CN: 3}}, 2)
	if result.Called {
		t.Errorf("expected no call when baselines disagree, got %+v", result)
	}
}

func TestCallCopyNumberAllNoCall(t *testing.T) {
	result := CallCopyNumber(3, []BaselineCall{{NoCall: true}, {NoCall: true}}, 2)
	if !result.Called || result.Delta != 1 {
		t.Errorf("expected delta 1 against expected baseline CN, got %+v", result)
	}
}
