// Package reads holds the Read/ReadPair data model and the distant-mate
// recovery bookkeeping (§3, §4.10), adapted from the whole-BAM
// distant-mate scan in encoding/bampair/distant_mates.go and
// distant_mate_table.go down to a single per-locus targeted-region pass
// plus on-demand recovery queries, per original_source/ehunter's
// MateExtractor.
package reads

// Mate identifies which end of a fragment a Read is (§3).
type Mate int

const (
	Mate1 Mate = 1
	Mate2 Mate = 2
)

// ReadID names one mate of one fragment. The Collector does not key on
// it: it groups pairs by FragmentID and keeps each mate's
// LinearAlignmentStats on the ReadPair (§4.10).
type ReadID struct {
	FragmentID string
	Mate       Mate
}

// Read is one sequenced mate (§3). Sequence and IsReversed are the only
// mutable fields; ReverseComplement is the sole mutator.
type Read struct {
	FragmentID string
	Mate       Mate
	Sequence   string
	IsReversed bool
}

var complementByte = [256]byte{}

func init() {
	pairs := map[byte]byte{
		'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A', 'N': 'N',
		'a': 't', 'c': 'g', 'g': 'c', 't': 'a', 'n': 'n',
	}
	for i := range complementByte {
		complementByte[i] = byte(i)
	}
	for k, v := range pairs {
		complementByte[k] = v
	}
}

// ReverseComplement flips both the sequence and the orientation flag, in
// place, per §3 ("mutated only by reverse-complement, which flips both
// the sequence and the flag").
func (r *Read) ReverseComplement() {
	b := []byte(r.Sequence)
	n := len(b)
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = complementByte[b[j]], complementByte[b[i]]
	}
	if n%2 == 1 {
		mid := n / 2
		b[mid] = complementByte[b[mid]]
	}
	r.Sequence = string(b)
	r.IsReversed = !r.IsReversed
}

// LinearAlignmentStats accompanies each Read, carrying its position in
// the underlying linear alignment archive (§3).
type LinearAlignmentStats struct {
	Contig       int32
	Pos          int64
	MapQ         uint8
	MateContig   int32
	MatePos      int64
	IsPaired     bool
	IsMapped     bool
	IsMateMapped bool
}

// distantThreshold is the same-contig separation (bp) beyond which a
// mate is considered "far" and must be recovered with a targeted query
// (§4.10).
const distantThreshold = 1000

// NeedsRecovery reports whether the mate described by stats is far
// enough from its partner (different contig, or >1000bp on the same
// contig) to require an explicit recovery query rather than being
// expected to fall within the already-fetched target regions.
func NeedsRecovery(stats LinearAlignmentStats) bool {
	if !stats.IsPaired || !stats.IsMapped || !stats.IsMateMapped {
		return false
	}
	if stats.MateContig != stats.Contig {
		return true
	}
	d := stats.MatePos - stats.Pos
	if d < 0 {
		d = -d
	}
	return d > distantThreshold
}

// ReadPair holds the (up to) two mates of a fragment as they are
// acquired (§3, §4.10).
type ReadPair struct {
	FragmentID string
	First      *Read
	Second     *Read
	FirstStats LinearAlignmentStats
	SecondStat LinearAlignmentStats
}

// NumMatesSet is the count of mates currently populated.
func (p *ReadPair) NumMatesSet() int {
	n := 0
	if p.First != nil {
		n++
	}
	if p.Second != nil {
		n++
	}
	return n
}

// IsNearby reports whether both mates are set and neither needed
// recovery, i.e. the pair can be analyzed together rather than as two
// independent single reads (§4.10's "nearby vs faraway" distinction).
func (p *ReadPair) IsNearby() bool {
	if p.NumMatesSet() != 2 {
		return false
	}
	return !NeedsRecovery(p.FirstStats) && !NeedsRecovery(p.SecondStat)
}

// setMate records a mate and its stats into the pair, keyed by Mate tag.
func (p *ReadPair) setMate(r *Read, stats LinearAlignmentStats) {
	switch r.Mate {
	case Mate1:
		p.First = r
		p.FirstStats = stats
	case Mate2:
		p.Second = r
		p.SecondStat = stats
	}
}
