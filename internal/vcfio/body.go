package vcfio

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/grailbio/strgt/internal/locus"
	"github.com/grailbio/strgt/internal/reference"
	"github.com/grailbio/strgt/internal/region"
)

// writeRepeatRow emits one STR variant's body line. ALT symbols are
// <STRn> for every allele whose motif count differs from the reference
// copy number (computed from the repeat node's projected reference
// span, not the literal motif text in the structure string); GT then
// indexes into that distinct-ALT list, with 0 standing for the
// reference-size allele.
func writeRepeatRow(w *bufio.Writer, row variantRow, contigs *region.ContigInfo, ref reference.Reference) error {
	spec, v, vf := row.spec, row.variant, row.findings
	repeatNode := v.NodeIDs[0]
	motif := spec.Graph.NodeSeq(repeatNode)
	motifLen := len(motif)
	contigName := contigs.Name(row.region.ContigID)

	refBase, err := refBaseBefore(ref, contigName, row.region.Start)
	if err != nil {
		return err
	}
	refCopyNumber := 0
	if motifLen > 0 {
		refCopyNumber = int(row.region.Length()) / motifLen
	}

	altCounts := []int{}
	altIndex := map[int]int{}
	var gtTokens []string
	if vf.Repeat != nil && vf.Repeat.Genotype != nil {
		for _, al := range vf.Repeat.Genotype.Alleles {
			if al.NumMotifs == refCopyNumber {
				gtTokens = append(gtTokens, "0")
				continue
			}
			idx, ok := altIndex[al.NumMotifs]
			if !ok {
				altCounts = append(altCounts, al.NumMotifs)
				idx = len(altCounts)
				altIndex[al.NumMotifs] = idx
			}
			gtTokens = append(gtTokens, fmt.Sprintf("%d", idx))
		}
	}
	alt := "."
	if len(altCounts) > 0 {
		parts := make([]string, len(altCounts))
		for i, n := range altCounts {
			parts[i] = fmt.Sprintf("<STR%d>", n)
		}
		alt = strings.Join(parts, ",")
	}
	gt := "."
	if len(gtTokens) > 0 {
		gt = strings.Join(gtTokens, "/")
	}

	info := fmt.Sprintf("VARID=%s;SVTYPE=STR;END=%d;REF=%d;RL=%d;RU=%s;REPID=%s",
		v.ID, row.region.End, refCopyNumber, row.region.Length(), motif, v.ID)

	so := "INREPEAT"
	adfl, adsp, adir := 0, 0, 0
	repcn, repci := ".", "."
	if vf.Repeat != nil {
		adfl = sumCounts(vf.Repeat.FlankingCounts)
		adsp = sumCounts(vf.Repeat.SpanningCounts)
		adir = sumCounts(vf.Repeat.InRepeatCounts)
		switch {
		case len(vf.Repeat.SpanningCounts) > 0:
			so = "SPANNING"
		case len(vf.Repeat.FlankingCounts) > 0:
			so = "FLANKING"
		}
		if vf.Repeat.Genotype != nil {
			nums := make([]int, len(vf.Repeat.Genotype.Alleles))
			cis := make([]string, len(vf.Repeat.Genotype.Alleles))
			for i, al := range vf.Repeat.Genotype.Alleles {
				nums[i] = al.NumMotifs
				cis[i] = fmt.Sprintf("%d-%d", al.CILow, al.CIHigh)
			}
			repcn = joinInts(nums)
			repci = strings.Join(cis, "/")
		}
	}

	format := "GT:LC:SO:REPCN:REPCI:ADFL:ADSP:ADIR"
	sample := fmt.Sprintf("%s:%.2f:%s:%s:%s:%d:%d:%d", gt, row.stats.Depth, so, repcn, repci, adfl, adsp, adir)

	_, err = fmt.Fprintf(w, "%s\t%d\t.\t%s\t%s\t.\t%s\t%s\t%s\t%s\n",
		contigName, row.region.Start, refBase, alt, filterName(vf.Filters), info, format, sample)
	return err
}

// writeSmallVariantRow emits one small-variant (deletion/insertion/swap/
// SMN) body line. REF/ALT are taken from the graph node sequence(s) the
// variant occupies: the designated ref node's sequence for REF, and the
// other node's sequence (if any) for ALT; a variant with no ref node
// (pure insertion) anchors REF to the single reference base preceding
// it instead.
func writeSmallVariantRow(w *bufio.Writer, row variantRow, contigs *region.ContigInfo, ref reference.Reference) error {
	spec, v, vf := row.spec, row.variant, row.findings
	contigName := contigs.Name(row.region.ContigID)

	refSeq := ""
	altSeq := "."
	switch {
	case v.HasRefNode && len(v.NodeIDs) == 2:
		for _, n := range v.NodeIDs {
			if n == v.RefNode {
				refSeq = spec.Graph.NodeSeq(n)
			} else {
				altSeq = spec.Graph.NodeSeq(n)
			}
		}
	case v.HasRefNode:
		refSeq = spec.Graph.NodeSeq(v.RefNode)
		altSeq = "<DEL>"
	default:
		base, err := refBaseBefore(ref, contigName, row.region.Start)
		if err != nil {
			return err
		}
		refSeq = base
		if len(v.NodeIDs) > 0 {
			altSeq = base + spec.Graph.NodeSeq(v.NodeIDs[0])
		}
	}

	gt := "."
	ad := "."
	if vf.SmallVariant != nil {
		gt = diploidGT(vf.SmallVariant.RefCopy, vf.SmallVariant.AltCopy)
		ad = fmt.Sprintf("%d,%d", vf.SmallVariant.RefCount, vf.SmallVariant.AltCount)
	}

	info := fmt.Sprintf("VARID=%s", v.ID)
	format := "GT:LC:AD"
	sample := fmt.Sprintf("%s:%.2f:%s", gt, row.stats.Depth, ad)
	if v.Subtype == locus.SMN {
		format += ":DST:RPL"
		sample += ":.:."
	}

	_, err := fmt.Fprintf(w, "%s\t%d\t.\t%s\t%s\t.\t%s\t%s\t%s\t%s\n",
		contigName, row.region.Start, refSeq, altSeq, filterName(vf.Filters), info, format, sample)
	return err
}

// diploidGT renders a ref/alt copy-number pair as a genotype string:
// one allele token per haplotype copy (0 for ref, 1 for alt), ref copies
// first, joined with '/'. A single-copy (haploid) locus yields one bare
// token with no slash.
func diploidGT(refCopy, altCopy int) string {
	tokens := make([]string, 0, refCopy+altCopy)
	for i := 0; i < refCopy; i++ {
		tokens = append(tokens, "0")
	}
	for i := 0; i < altCopy; i++ {
		tokens = append(tokens, "1")
	}
	if len(tokens) == 0 {
		return "."
	}
	return strings.Join(tokens, "/")
}

func sumCounts(counts map[int]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}
