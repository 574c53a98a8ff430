package refine

// ReadAlign pairs a read/mate identifier with its refined StrAlign, for
// the indel-driven alignment filter (§4.5).
type ReadAlign struct {
	ReadID    string
	HasIndels bool
	NumMotifs uint16
	IsInRepeat bool
}

// IndelFilter decides, given every read's best refined alignment against
// the observed best allele, which fragment ids must be dropped entirely
// (both mates) because the in-repeat evidence is indel-contaminated.
//
// The filter fires when all three conditions hold:
//  (a) at least one in-repeat alignment contains indels,
//  (b) the fraction of in-repeat alignments with indels does not exceed
//      max(0.20, 1/n) where n is the in-repeat alignment count (the "or 1"
//      in §4.5 is read as "or one read", i.e. a single indel read is
//      always tolerated regardless of fraction),
//  (c) the longest indel-free in-repeat alignment is at least 10% shorter
//      in motif count than the longest in-repeat alignment overall.
// When it fires, it returns the set of ReadIDs (both mates) whose best
// alignment contained indels.
func IndelFilter(aligns []ReadAlign) map[string]bool {
	var inRepeat []ReadAlign
	for _, a := range aligns {
		if a.IsInRepeat {
			inRepeat = append(inRepeat, a)
		}
	}
	if len(inRepeat) == 0 {
		return nil
	}

	numWithIndels := 0
	longestOverall := uint16(0)
	longestIndelFree := uint16(0)
	haveIndelFree := false
	for _, a := range inRepeat {
		if a.NumMotifs > longestOverall {
			longestOverall = a.NumMotifs
		}
		if a.HasIndels {
			numWithIndels++
			continue
		}
		haveIndelFree = true
		if a.NumMotifs > longestIndelFree {
			longestIndelFree = a.NumMotifs
		}
	}
	if numWithIndels == 0 {
		return nil
	}
	fraction := float64(numWithIndels) / float64(len(inRepeat))
	maxFraction := 0.20
	if 1.0/float64(len(inRepeat)) > maxFraction {
		maxFraction = 1.0 / float64(len(inRepeat))
	}
	if fraction > maxFraction {
		return nil
	}
	if !haveIndelFree {
		return nil
	}
	if float64(longestOverall-longestIndelFree)/float64(longestOverall) <= 0.10 {
		return nil
	}

	drop := make(map[string]bool)
	for _, a := range aligns {
		if a.HasIndels {
			drop[a.ReadID] = true
		}
	}
	return drop
}
