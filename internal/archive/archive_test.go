package archive

import (
	"testing"

	"github.com/biogo/hts/sam"
)

func mustRef(t *testing.T, name string, length int) *sam.Reference {
	t.Helper()
	ref, err := sam.NewReference(name, "", "", length, nil, nil)
	if err != nil {
		t.Fatalf("sam.NewReference: %v", err)
	}
	return ref
}

func TestDecodeLowercasesLowQualityBases(t *testing.T) {
	ref := mustRef(t, "chr1", 1000)
	seq := sam.NewSeq([]byte("ACGT"))
	if seq.Length != 4 {
		t.Fatalf("NewSeq: got length %d, want 4", seq.Length)
	}
	rec := &sam.Record{
		Name:  "read1",
		Ref:   ref,
		Pos:   99,
		MapQ:  60,
		Flags: sam.Paired | sam.Read1,
		Seq:   seq,
		Qual:  []byte{30, 30, 10, 10},
	}
	r, stats := decode(rec)
	if r.Sequence != "ACgt" {
		t.Errorf("expected low-quality downcasing ACgt, got %s", r.Sequence)
	}
	if stats.Pos != 99 || stats.Contig != int32(ref.ID()) {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if !stats.IsPaired || !stats.IsMapped {
		t.Errorf("expected paired+mapped flags to decode true")
	}
}

func TestDecodeMateTag(t *testing.T) {
	ref := mustRef(t, "chr1", 1000)
	seq := sam.NewSeq([]byte("AC"))
	rec := &sam.Record{
		Name:  "read2",
		Ref:   ref,
		Flags: sam.Paired | sam.Read2,
		Seq:   seq,
		Qual:  []byte{40, 40},
	}
	r, _ := decode(rec)
	if r.Mate != 2 {
		t.Errorf("expected mate 2 decoded from the Read2 flag, got %d", r.Mate)
	}
}

func TestContigIDNilRef(t *testing.T) {
	if contigID(nil) != -1 {
		t.Errorf("expected -1 for an unmapped (nil) reference")
	}
}
