// Package vcfio writes the VCF output (§4.11): a dynamic header whose
// INFO/FORMAT/FILTER/ALT lines are derived from the variant kinds
// actually emitted, followed by one body row per variant sorted by
// (contig index, start, end) of the variant's reference locus. No VCF
// library appears anywhere in the retrieved example pack, and the
// layout the spec demands is bit-exact, so the writer is a plain
// bufio.Writer over hand-built lines, matching how the teacher's own
// text-output packages (e.g. pileup/snp/output.go) build tab-separated
// rows directly rather than through a generic formatting library.
package vcfio

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/grailbio/strgt/internal/locus"
	"github.com/grailbio/strgt/internal/locusstats"
	"github.com/grailbio/strgt/internal/reference"
	"github.com/grailbio/strgt/internal/region"
)

// Record pairs one locus's specification with its analyzed findings,
// the unit that VCF emission fans out over.
type Record struct {
	Spec     *locus.LocusSpecification
	Findings *locus.LocusFindings
}

// variantRow is one to-be-emitted body row: a single variant within a
// locus, carrying everything writeBodyRow needs without re-deriving it
// from the parent Record.
type variantRow struct {
	locusID  string
	spec     *locus.LocusSpecification
	variant  *locus.VariantSpecification
	findings *locus.VariantFindings
	stats    locusstats.Stats
	region   region.GenomicRegion // the node(s)' projected reference span
}

// Write emits the complete VCF document (header then sorted body) for
// records to w. ref supplies REF bases; contigs supplies contig
// name/length header lines and establishes the sort order (region's
// ContigID values are already dense indices into contigs).
func Write(w io.Writer, records []Record, contigs *region.ContigInfo, ref reference.Reference) error {
	bw := bufio.NewWriter(w)
	rows := collectRows(records)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].region, rows[j].region
		if a.ContigID != b.ContigID {
			return a.ContigID < b.ContigID
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End < b.End
	})
	if err := writeHeader(bw, contigs, rows); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writeBodyRow(bw, row, contigs, ref); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func collectRows(records []Record) []variantRow {
	var rows []variantRow
	for _, rec := range records {
		for _, v := range rec.Spec.Variants {
			vf, ok := rec.Findings.Variants[v.ID]
			if !ok {
				continue
			}
			rows = append(rows, variantRow{
				locusID:  rec.Findings.LocusID,
				spec:     rec.Spec,
				variant:  v,
				findings: vf,
				stats:    rec.Findings.Stats,
				region:   variantRegion(rec.Spec, v),
			})
		}
	}
	return rows
}

// variantRegion returns the reference span a variant's node(s) project
// to, preferring the structure parser's per-node projection (accurate
// to the variant's own node) over the locus-wide reference_regions
// entry every VariantSpecification also carries.
func variantRegion(spec *locus.LocusSpecification, v *locus.VariantSpecification) region.GenomicRegion {
	if spec.NodeProjection != nil {
		if r, ok := spec.NodeProjection[v.NodeIDs[0]]; ok {
			return r
		}
	}
	return v.ReferenceLocus
}

func writeHeader(w *bufio.Writer, contigs *region.ContigInfo, rows []variantRow) error {
	var hasRepeat, hasSmallVariant, hasSMN bool
	for _, row := range rows {
		switch row.variant.Type {
		case locus.Repeat:
			hasRepeat = true
		case locus.SmallVariant:
			hasSmallVariant = true
			if row.variant.Subtype == locus.SMN {
				hasSMN = true
			}
		}
	}

	lines := []string{"##fileformat=VCFv4.1"}
	for i := 0; i < contigs.NumContigs(); i++ {
		lines = append(lines, fmt.Sprintf("##contig=<ID=%s,length=%d>", contigs.Name(int32(i)), contigs.Length(int32(i))))
	}

	lines = append(lines,
		`##INFO=<ID=VARID,Number=1,Type=String,Description="Variant identifier">`,
		`##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">`,
		`##FORMAT=<ID=LC,Number=1,Type=Float,Description="Locus coverage">`,
		`##FILTER=<ID=PASS,Description="All filters passed">`,
		`##FILTER=<ID=LowDepth,Description="Insufficient depth to genotype confidently">`,
	)

	if hasRepeat {
		lines = append(lines,
			`##INFO=<ID=SVTYPE,Number=1,Type=String,Description="Type of structural variant">`,
			`##INFO=<ID=END,Number=1,Type=Integer,Description="End position of the variant">`,
			`##INFO=<ID=REF,Number=1,Type=Integer,Description="Reference copy number">`,
			`##INFO=<ID=RL,Number=1,Type=Integer,Description="Reference repeat length in bp">`,
			`##INFO=<ID=RU,Number=1,Type=String,Description="Repeat unit in the reference orientation">`,
			`##INFO=<ID=REPID,Number=1,Type=String,Description="Repeat identifier">`,
			`##FORMAT=<ID=SO,Number=1,Type=String,Description="Type of reads that support the genotype">`,
			`##FORMAT=<ID=REPCN,Number=.,Type=Integer,Description="Number of repeat units spanned by the allele">`,
			`##FORMAT=<ID=REPCI,Number=.,Type=String,Description="Confidence interval for REPCN">`,
			`##FORMAT=<ID=ADFL,Number=1,Type=Integer,Description="Number of flanking reads consistent with the allele">`,
			`##FORMAT=<ID=ADSP,Number=1,Type=Integer,Description="Number of spanning reads consistent with the allele">`,
			`##FORMAT=<ID=ADIR,Number=1,Type=Integer,Description="Number of in-repeat reads consistent with the allele">`,
			`##ALT=<ID=STR,Description="Short tandem repeat">`,
		)
	}
	if hasSmallVariant {
		lines = append(lines, `##FORMAT=<ID=AD,Number=2,Type=Integer,Description="Allele depth (ref,alt)">`)
	}
	if hasSMN {
		lines = append(lines,
			`##FORMAT=<ID=DST,Number=1,Type=Float,Description="Distance to the paralog-matched baseline copy number">`,
			`##FORMAT=<ID=RPL,Number=1,Type=Float,Description="Read-proportion likelihood of the called copy number">`,
		)
	}
	lines = append(lines, "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tSAMPLE")

	for _, l := range lines {
		if _, err := w.WriteString(l + "\n"); err != nil {
			return err
		}
	}
	return nil
}

func writeBodyRow(w *bufio.Writer, row variantRow, contigs *region.ContigInfo, ref reference.Reference) error {
	switch row.variant.Type {
	case locus.Repeat:
		return writeRepeatRow(w, row, contigs, ref)
	case locus.SmallVariant:
		return writeSmallVariantRow(w, row, contigs, ref)
	default:
		return nil
	}
}

func filterName(f locus.GenotypeFilter) string {
	if f.Has(locus.FilterLowDepth) {
		return "LowDepth"
	}
	return "PASS"
}

func refBaseBefore(ref reference.Reference, contig string, start0 int64) (string, error) {
	if start0 <= 0 {
		return "N", nil
	}
	return ref.Get(contig, uint64(start0-1), uint64(start0))
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprintf("%d", x)
	}
	return strings.Join(parts, "/")
}
