package reads

// RecoveryRequest names one mate that must be fetched from the archive
// at its linear position because it fell outside the locus's target
// regions (§4.10). cmd/strgt issues one single-base archive query per
// request; requests landing in the same region are not batched.
type RecoveryRequest struct {
	FragmentID   string
	WantMate     Mate
	Contig       int32
	Pos          int64
}

// Collector accumulates primary alignments for one locus, grouping them
// into ReadPairs by fragment id, and tracks which pairs still need a
// mate-recovery query (§4.10).
type Collector struct {
	pairs map[string]*ReadPair
	order []string
}

// NewCollector creates an empty per-locus read collector.
func NewCollector() *Collector {
	return &Collector{pairs: map[string]*ReadPair{}}
}

// AddPrimary records one primary, non-secondary, non-supplementary
// alignment returned by the target/off-target region query.
func (c *Collector) AddPrimary(r *Read, stats LinearAlignmentStats) {
	p, ok := c.pairs[r.FragmentID]
	if !ok {
		p = &ReadPair{FragmentID: r.FragmentID}
		c.pairs[r.FragmentID] = p
		c.order = append(c.order, r.FragmentID)
	}
	p.setMate(r, stats)
}

// PendingRecovery returns one RecoveryRequest for every fragment whose
// pair still has exactly one mate set and whose known mate's linear
// position indicates the missing mate fell outside the fetched regions.
func (c *Collector) PendingRecovery() []RecoveryRequest {
	var out []RecoveryRequest
	for _, id := range c.order {
		p := c.pairs[id]
		if p.NumMatesSet() != 1 {
			continue
		}
		var known *Read
		var stats LinearAlignmentStats
		if p.First != nil {
			known, stats = p.First, p.FirstStats
		} else {
			known, stats = p.Second, p.SecondStat
		}
		if !NeedsRecovery(stats) {
			continue
		}
		want := Mate2
		if known.Mate == Mate2 {
			want = Mate1
		}
		out = append(out, RecoveryRequest{
			FragmentID: id,
			WantMate:   want,
			Contig:     stats.MateContig,
			Pos:        stats.MatePos,
		})
	}
	return out
}

// AddRecovered records a mate obtained from a targeted recovery query.
// Secondary/supplementary records must be filtered out by the caller
// before reaching this method, per §4.10.
func (c *Collector) AddRecovered(r *Read, stats LinearAlignmentStats) {
	p, ok := c.pairs[r.FragmentID]
	if !ok {
		p = &ReadPair{FragmentID: r.FragmentID}
		c.pairs[r.FragmentID] = p
		c.order = append(c.order, r.FragmentID)
	}
	p.setMate(r, stats)
}

// Pairs returns every ReadPair collected so far, in first-seen order.
func (c *Collector) Pairs() []*ReadPair {
	out := make([]*ReadPair, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.pairs[id])
	}
	return out
}
