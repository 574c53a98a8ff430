package catalog

import (
	"testing"

	"github.com/grailbio/strgt/internal/locus"
	"github.com/grailbio/strgt/internal/locusstats"
	"github.com/grailbio/strgt/internal/region"
)

func testContigs() *region.ContigInfo {
	return region.NewContigInfo(
		[]string{"chr1", "chrX"},
		[]int64{250000000, 155000000},
	)
}

func TestDecodeSingleRepeatLocus(t *testing.T) {
	doc := `{
		"DMPK": {
			"structure": "AATT(CGG)*ATTT",
			"reference_regions": ["chr1:1001-1108"],
			"target_regions": ["chr1:901-1208"],
			"variant_types": ["CommonRepeat"]
		}
	}`
	specs, err := Decode([]byte(doc), testContigs())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(specs) != 1 {
		t.Fatalf("expected 1 locus, got %d", len(specs))
	}
	spec := specs[0]
	if spec.ID != "DMPK" {
		t.Errorf("expected id DMPK, got %q", spec.ID)
	}
	if spec.ChromType != locusstats.Autosome {
		t.Errorf("expected autosome, got %v", spec.ChromType)
	}
	if len(spec.Variants) != 1 {
		t.Fatalf("expected 1 variant, got %d", len(spec.Variants))
	}
	v := spec.Variants[0]
	if v.Type != locus.Repeat || v.Subtype != locus.CommonRepeat {
		t.Errorf("expected CommonRepeat variant, got %v/%v", v.Type, v.Subtype)
	}
	if len(v.NodeIDs) != 1 {
		t.Errorf("expected 1 repeat node, got %d", len(v.NodeIDs))
	}
	if spec.ErrorRate != 0.05 {
		t.Errorf("expected default error_rate 0.05, got %v", spec.ErrorRate)
	}
}

func TestDecodeChromXLocus(t *testing.T) {
	doc := `{
		"FMR1": {
			"structure": "AATT(CGG)*ATTT",
			"reference_regions": ["chrX:1001-1108"],
			"target_regions": ["chrX:901-1208"],
			"variant_types": ["RareRepeat"],
			"error_rate": 0.02
		}
	}`
	specs, err := Decode([]byte(doc), testContigs())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if specs[0].ChromType != locusstats.ChromX {
		t.Errorf("expected ChromX, got %v", specs[0].ChromType)
	}
	if specs[0].ErrorRate != 0.02 {
		t.Errorf("expected error_rate 0.02, got %v", specs[0].ErrorRate)
	}
}

func TestDecodeDeletionVariant(t *testing.T) {
	doc := `{
		"SMN1": {
			"structure": "AAAA(GGG|)TTTT",
			"reference_regions": ["chr1:1001-1112"],
			"target_regions": ["chr1:901-1212"],
			"variant_types": ["deletion"]
		}
	}`
	specs, err := Decode([]byte(doc), testContigs())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	v := specs[0].Variants[0]
	if v.Type != locus.SmallVariant || v.Subtype != locus.Deletion {
		t.Errorf("expected Deletion variant, got %v/%v", v.Type, v.Subtype)
	}
	if len(v.NodeIDs) != 1 {
		t.Errorf("expected 1 node for deletion variant, got %d", len(v.NodeIDs))
	}
}

func TestDecodeVariantTypeCountMismatchErrors(t *testing.T) {
	doc := `{
		"BAD": {
			"structure": "AATT(CGG)*ATTT(GGG|)CCCC",
			"reference_regions": ["chr1:1001-1120"],
			"target_regions": ["chr1:901-1220"],
			"variant_types": ["CommonRepeat"]
		}
	}`
	if _, err := Decode([]byte(doc), testContigs()); err == nil {
		t.Fatalf("expected error for variant_types/structure group count mismatch")
	}
}

func TestDecodeUnknownContigErrors(t *testing.T) {
	doc := `{
		"X": {
			"structure": "AATT(CGG)*ATTT",
			"reference_regions": ["chr9:1001-1108"],
			"target_regions": ["chr9:901-1208"],
			"variant_types": ["CommonRepeat"]
		}
	}`
	if _, err := Decode([]byte(doc), testContigs()); err == nil {
		t.Fatalf("expected error for unknown contig")
	}
}

func TestDecodeMalformedJSONErrors(t *testing.T) {
	if _, err := Decode([]byte("not json"), testContigs()); err == nil {
		t.Fatalf("expected error for malformed JSON")
	}
}
