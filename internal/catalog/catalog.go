// Package catalog decodes the variant catalog JSON (§6) into
// internal/locus.LocusSpecification values, including the "(X)*"
// structure-string grammar for repeat and small-variant node layout.
// Grounded on original_source/ehunter/io/LocusSpecDecoding.hh's
// LocusDescriptionFromUser field set and decodeLocusSpecification's
// separation of "what the user wrote" from "the validated, graph-backed
// specification the core consumes" (§6: "This decoding is an external
// collaborator: the core consumes a materialised LocusSpecification
// list.").
package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/grailbio/strgt/internal/errs"
	"github.com/grailbio/strgt/internal/locus"
	"github.com/grailbio/strgt/internal/locusstats"
	"github.com/grailbio/strgt/internal/region"
)

// rawEntry is the on-disk JSON shape for one locus, named after §6's
// field list verbatim.
type rawEntry struct {
	Structure        string   `json:"structure"`
	ReferenceRegions []string `json:"reference_regions"`
	TargetRegions    []string `json:"target_regions"`
	OfftargetRegions []string `json:"offtarget_regions"`
	VariantTypes     []string `json:"variant_types"`
	ErrorRate        *float64 `json:"error_rate,omitempty"`
	LLRThreshold     *float64 `json:"llr_threshold,omitempty"`
	MinLocusCoverage *float64 `json:"min_locus_coverage,omitempty"`
}

// Decode parses the catalog JSON document (a map from locus id to
// rawEntry) and resolves every contig-name region against contigs,
// returning one LocusSpecification per entry. The entries are decoded
// into a Go map, so the returned order is Go's map iteration order,
// which is unspecified; callers that need a stable emission order should
// sort by the specification's own reference locus, as §4.11 already
// requires downstream.
func Decode(data []byte, contigs *region.ContigInfo) ([]*locus.LocusSpecification, error) {
	var raw map[string]rawEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errs.E(errs.Malformed, "decoding catalog JSON", err)
	}
	specs := make([]*locus.LocusSpecification, 0, len(raw))
	for id, entry := range raw {
		spec, err := decodeEntry(id, entry, contigs)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func decodeEntry(id string, e rawEntry, contigs *region.ContigInfo) (*locus.LocusSpecification, error) {
	targetRegions, err := decodeRegions(e.TargetRegions, contigs)
	if err != nil {
		return nil, errs.E(errs.Malformed, fmt.Sprintf("locus %s: target_regions", id), err)
	}
	offtargetRegions, err := decodeRegions(e.OfftargetRegions, contigs)
	if err != nil {
		return nil, errs.E(errs.Malformed, fmt.Sprintf("locus %s: offtarget_regions", id), err)
	}
	referenceRegions, err := decodeRegions(e.ReferenceRegions, contigs)
	if err != nil {
		return nil, errs.E(errs.Malformed, fmt.Sprintf("locus %s: reference_regions", id), err)
	}
	if len(referenceRegions) == 0 {
		return nil, errs.E(errs.Malformed, fmt.Sprintf("locus %s: missing reference_regions", id))
	}

	g, projection, variantNodeRanges, err := parseStructure(e.Structure, referenceRegions[0])
	if err != nil {
		return nil, errs.E(errs.Malformed, fmt.Sprintf("locus %s: structure %q", id, e.Structure), err)
	}
	if len(e.VariantTypes) != len(variantNodeRanges) {
		return nil, errs.E(errs.Malformed, fmt.Sprintf(
			"locus %s: %d variant_types declared but structure defines %d variant groups",
			id, len(e.VariantTypes), len(variantNodeRanges)))
	}

	variants := make([]*locus.VariantSpecification, len(variantNodeRanges))
	for i, nr := range variantNodeRanges {
		kind, subtype, err := decodeVariantType(e.VariantTypes[i])
		if err != nil {
			return nil, errs.E(errs.Malformed, fmt.Sprintf("locus %s: variant_types[%d]", id, i), err)
		}
		variants[i] = &locus.VariantSpecification{
			ID:             fmt.Sprintf("%s_%d", id, i),
			Type:           kind,
			Subtype:        subtype,
			ReferenceLocus: referenceRegions[0],
			NodeIDs:        nr.nodes,
			RefNode:        nr.refNode,
			HasRefNode:     nr.hasRefNode,
		}
	}

	chromType := locusstats.Autosome
	if len(referenceRegions) > 0 {
		chromType = inferChromType(contigs, referenceRegions[0])
	}

	return &locus.LocusSpecification{
		ID:               id,
		ChromType:        chromType,
		TargetRegions:    targetRegions,
		OfftargetRegions: offtargetRegions,
		Graph:            g,
		NodeProjection:   projection,
		Variants:         variants,
		ErrorRate:        orDefault(e.ErrorRate, 0.05),
		MinLocusCoverage: orDefault(e.MinLocusCoverage, 0),
		LLRThreshold:     orDefault(e.LLRThreshold, 0),
	}, nil
}

func orDefault(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func decodeRegions(raw []string, contigs *region.ContigInfo) ([]region.GenomicRegion, error) {
	out := make([]region.GenomicRegion, 0, len(raw))
	for _, s := range raw {
		name, start, end, err := region.Decode(s)
		if err != nil {
			return nil, err
		}
		id, ok := contigs.IDByName(name)
		if !ok {
			return nil, errs.E(errs.Insufficient, fmt.Sprintf("unknown contig %q in catalog region %q", name, s))
		}
		r, err := region.New(id, start, end)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func decodeVariantType(s string) (locus.VariantType, locus.VariantSubtype, error) {
	switch strings.ToLower(s) {
	case "rarerepeat", "rare-repeat", "rare_repeat":
		return locus.Repeat, locus.RareRepeat, nil
	case "commonrepeat", "common-repeat", "common_repeat":
		return locus.Repeat, locus.CommonRepeat, nil
	case "deletion":
		return locus.SmallVariant, locus.Deletion, nil
	case "insertion":
		return locus.SmallVariant, locus.Insertion, nil
	case "swap":
		return locus.SmallVariant, locus.Swap, nil
	case "smn":
		return locus.SmallVariant, locus.SMN, nil
	default:
		return 0, 0, fmt.Errorf("unknown variant type %q", s)
	}
}

func inferChromType(contigs *region.ContigInfo, r region.GenomicRegion) locusstats.ChromType {
	name := contigs.Name(r.ContigID)
	trimmed := strings.TrimPrefix(name, "chr")
	switch trimmed {
	case "X":
		return locusstats.ChromX
	case "Y":
		return locusstats.ChromY
	default:
		return locusstats.Autosome
	}
}
