// Package locus holds the LocusSpecification/VariantSpecification data
// model (§3) and the per-locus Analyzer state machine (§4.9) that drives
// a locus through the aligner, classifier, refiner, statistics
// accumulator, and genotypers.
package locus

import (
	"github.com/grailbio/strgt/internal/graph"
	"github.com/grailbio/strgt/internal/locusstats"
	"github.com/grailbio/strgt/internal/region"
)

// VariantType is the top-level classification of a VariantSpecification
// (§3).
type VariantType int

const (
	Repeat VariantType = iota
	SmallVariant
)

// VariantSubtype further classifies a VariantType (§3).
type VariantSubtype int

const (
	CommonRepeat VariantSubtype = iota
	RareRepeat
	Deletion
	Insertion
	Swap
	SMN
)

// VariantSpecification describes one variant within a locus (§3).
// Invariants: NodeIDs forms a contiguous ordered range in the graph;
// Repeat variants have exactly one node id; Deletion/Insertion/Swap
// variants have one or two node ids, with HasRefNode/RefNode following
// the sub-type-specific presence rule documented in internal/catalog's
// structure-string decoder.
type VariantSpecification struct {
	ID             string
	Type           VariantType
	Subtype        VariantSubtype
	ReferenceLocus region.GenomicRegion
	NodeIDs        []graph.NodeID
	RefNode        graph.NodeID
	HasRefNode     bool

	ErrorRate                float64
	MinLocusCoverage         float64
	LikelihoodRatioThreshold float64
	MinBreakpointSpanningReads int
}

// LocusSpecification is everything the analyzer needs to process one
// catalog entry (§3).
type LocusSpecification struct {
	ID               string
	ChromType        locusstats.ChromType
	TargetRegions    []region.GenomicRegion
	OfftargetRegions []region.GenomicRegion
	Graph            *graph.Graph
	NodeProjection   map[graph.NodeID]region.GenomicRegion
	Variants         []*VariantSpecification

	ErrorRate        float64
	MinLocusCoverage float64
	LLRThreshold     float64
}

// GenotypeFilter is a bitset over findings-quality filters (§3).
type GenotypeFilter uint32

const (
	FilterNone     GenotypeFilter = 0
	FilterLowDepth GenotypeFilter = 1 << 0
)

func (f GenotypeFilter) Has(bit GenotypeFilter) bool { return f&bit != 0 }

// VariantFindings is the tagged union of RepeatFindings and
// SmallVariantFindings (§3). Exactly one of Repeat/SmallVariant is set.
type VariantFindings struct {
	VariantID    string
	Repeat       *RepeatFindings
	SmallVariant *SmallVariantFindings
	Filters      GenotypeFilter
}

// RepeatFindings carries an STR genotype call plus its supporting
// evidence tables.
type RepeatFindings struct {
	Genotype        *RepeatGenotypeResult
	SpanningCounts  map[int]int
	FlankingCounts  map[int]int
	InRepeatCounts  map[int]int
}

// RepeatGenotypeResult mirrors internal/genotype.RepeatGenotype without
// importing it here, so that locus stays a pure data-model package free
// of the statistical machinery; the analyzer fills it in.
type RepeatGenotypeResult struct {
	MotifLength int
	Alleles     []AlleleCall
}

// AlleleCall is one STR allele with its confidence interval.
type AlleleCall struct {
	NumMotifs int
	CILow     int
	CIHigh    int
}

// SmallVariantFindings carries a diploid ref/alt call plus supporting
// read counts.
type SmallVariantFindings struct {
	RefCopy   int
	AltCopy   int
	RefCount  int
	AltCount  int
	Posterior float64
}

// LocusFindings is the final per-locus result (§3).
type LocusFindings struct {
	LocusID  string
	Stats    locusstats.Stats
	Variants map[string]*VariantFindings
}
