// Package region defines the genomic coordinate types shared by every
// other package in the genotyper: a half-open region on a contig, and a
// sample's contig table with "chr"-prefix-tolerant name lookup.
package region

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/grailbio/strgt/internal/errs"
)

// GenomicRegion is a 0-based, half-open interval [Start, End) on contig
// ContigID. It is immutable once constructed.
type GenomicRegion struct {
	ContigID int32
	Start    int64
	End      int64
}

// New validates and returns a GenomicRegion.
func New(contigID int32, start, end int64) (GenomicRegion, error) {
	if start > end {
		return GenomicRegion{}, errs.E(errs.Invariant, fmt.Sprintf("region start %d > end %d", start, end))
	}
	return GenomicRegion{ContigID: contigID, Start: start, End: end}, nil
}

// Length returns End-Start.
func (r GenomicRegion) Length() int64 { return r.End - r.Start }

// Overlaps reports whether r and o share any base. Regions on different
// contigs never overlap.
func (r GenomicRegion) Overlaps(o GenomicRegion) bool {
	if r.ContigID != o.ContigID {
		return false
	}
	return r.Start < o.End && o.Start < r.End
}

// Contains reports whether pos (0-based) falls within r.
func (r GenomicRegion) Contains(contigID int32, pos int64) bool {
	return r.ContigID == contigID && pos >= r.Start && pos < r.End
}

// String renders the region as "contigID:start-end", 1-based start for
// human readability (matching samtools region-string convention).
func (r GenomicRegion) String() string {
	return fmt.Sprintf("%d:%d-%d", r.ContigID, r.Start+1, r.End)
}

// Encode renders a region using a contig name rather than index, in the
// "contig:start-end" form used for round-tripping through text I/O
// (catalog JSON, debug logs). start is rendered 1-based inclusive, end
// 1-based inclusive, matching common region-string convention.
func Encode(name string, r GenomicRegion) string {
	return fmt.Sprintf("%s:%d-%d", name, r.Start+1, r.End)
}

// Decode parses a "contig:start-end" string (1-based inclusive) produced
// by Encode back into a contig name and a GenomicRegion. It is the
// identity round-trip companion of Encode.
func Decode(s string) (name string, start, end int64, err error) {
	i := strings.LastIndexByte(s, ':')
	if i < 0 {
		return "", 0, 0, errs.E(errs.Malformed, "region string missing ':': ", s)
	}
	name = s[:i]
	j := strings.IndexByte(s[i+1:], '-')
	if j < 0 {
		return "", 0, 0, errs.E(errs.Malformed, "region string missing '-': ", s)
	}
	startStr, endStr := s[i+1:i+1+j], s[i+1+j+1:]
	start1, err1 := strconv.ParseInt(startStr, 10, 64)
	end1, err2 := strconv.ParseInt(endStr, 10, 64)
	if err1 != nil || err2 != nil {
		return "", 0, 0, errs.E(errs.Malformed, "region string has non-numeric bounds: ", s)
	}
	return name, start1 - 1, end1, nil
}

// ContigInfo is the bidirectional name<->index map for a sample's
// reference contigs, built once from the aligned-read archive header and
// shared (read-only) by every locus worker.
type ContigInfo struct {
	names   []string
	lengths []int64
	byName  map[string]int32
}

// NewContigInfo builds a ContigInfo from an ordered (name, length) list,
// as read from a BAM/CRAM header.
func NewContigInfo(names []string, lengths []int64) *ContigInfo {
	ci := &ContigInfo{
		names:   append([]string(nil), names...),
		lengths: append([]int64(nil), lengths...),
		byName:  make(map[string]int32, len(names)),
	}
	for i, n := range names {
		ci.byName[n] = int32(i)
	}
	return ci
}

// NumContigs returns the number of contigs in the table.
func (ci *ContigInfo) NumContigs() int { return len(ci.names) }

// Name returns the name of contig id.
func (ci *ContigInfo) Name(id int32) string { return ci.names[id] }

// Length returns the length of contig id.
func (ci *ContigInfo) Length(id int32) int64 { return ci.lengths[id] }

// IDByName looks up a contig by name, falling back to toggling a "chr"
// prefix when the exact name is not present: a lookup for "chr1" that
// misses falls back to "1", and a lookup for "1" that misses falls back
// to "chr1". This mirrors how catalogs and references disagree on contig
// naming conventions.
func (ci *ContigInfo) IDByName(name string) (int32, bool) {
	if id, ok := ci.byName[name]; ok {
		return id, true
	}
	if strings.HasPrefix(name, "chr") {
		if id, ok := ci.byName[name[3:]]; ok {
			return id, true
		}
	} else {
		if id, ok := ci.byName["chr"+name]; ok {
			return id, true
		}
	}
	return 0, false
}
