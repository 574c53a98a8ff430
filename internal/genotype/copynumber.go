package genotype

// BaselineCall is one baseline locus's copy-number call: either a
// definite copy number, or a no-call (e.g. low-depth) consistent with
// the expected baseline CN for this sample.
type BaselineCall struct {
	CN     int
	NoCall bool
}

// CopyNumberResult is the outcome of comparing a target CN against one
// or two baseline CNs (§4.8 "Copy-number caller").
type CopyNumberResult struct {
	Delta int
	Called bool
}

// CallCopyNumber compares targetCN against the given baseline calls for
// a paralogous locus. When the baselines agree with each other (or are
// no-call but consistent with expectedBaselineCN), the delta
// target-baseline is returned; otherwise the locus is not called.
//
// "Agree" means: every non-no-call baseline reports the same CN, and
// that CN is used as the baseline; if all baselines are no-call, the
// expected baseline CN stands in for them (no-call is "consistent" with
// the expectation per §4.8, not a source of disagreement).
func CallCopyNumber(targetCN int, baselines []BaselineCall, expectedBaselineCN int) CopyNumberResult {
	baselineCN := -1
	haveCalled := false
	for _, b := range baselines {
		if b.NoCall {
			continue
		}
		if !haveCalled {
			baselineCN = b.CN
			haveCalled = true
			continue
		}
		if b.CN != baselineCN {
			return CopyNumberResult{Called: false}
		}
	}
	if !haveCalled {
		baselineCN = expectedBaselineCN
	}
	return CopyNumberResult{Delta: targetCN - baselineCN, Called: true}
}
