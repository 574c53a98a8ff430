package graph

// OrientationDecision is the result of matching a read's sequence against
// a locus graph's forward and reverse-complement kmer indexes (§4.2).
type OrientationDecision int

const (
	// Unaligned means neither orientation produced enough kmer matches
	// for the read to plausibly belong to this locus.
	Unaligned OrientationDecision = iota
	// AsIs means the read should be used as given.
	AsIs
	// ReverseComplement means the read should be reverse-complemented
	// before alignment.
	ReverseComplement
)

// MinOrientationMatches is the minimum non-overlapping kmer match count
// required for either orientation to be considered aligned.
const MinOrientationMatches = 3

// PredictOrientation scans seq left-to-right against both fwdIndex
// (built over the locus graph) and rcIndex (built over the
// reverse-complemented locus graph), counting non-overlapping kmer
// matches greedily: on a match, advance by k; otherwise advance by 1.
// The higher match count wins; ties favor AsIs.
func PredictOrientation(seq string, fwdIndex, rcIndex *KmerIndex) (OrientationDecision, int, int) {
	f := countMatches(seq, fwdIndex)
	o := countMatches(seq, rcIndex)
	if max(f, o) < MinOrientationMatches {
		return Unaligned, f, o
	}
	if f >= o {
		return AsIs, f, o
	}
	return ReverseComplement, f, o
}

func countMatches(seq string, idx *KmerIndex) int {
	k := idx.K()
	matches := 0
	for i := 0; i+k <= len(seq); {
		if len(idx.Lookup(seq[i:i+k])) > 0 {
			matches++
			i += k
		} else {
			i++
		}
	}
	return matches
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
