package reference

import (
	"bytes"
	"strings"
	"testing"
)

func buildFixture(t *testing.T) Reference {
	t.Helper()
	fasta := ">chr1\nACGTACGTAC\nGTACGTACGT\n>chr2\nTTTTGGGGCC\n"
	// fai: name length offset linebases linewidth
	index := "chr1\t20\t6\t10\t11\nchr2\t10\t34\t10\t11\n"
	r, err := NewIndexed(bytes.NewReader([]byte(fasta)), strings.NewReader(index))
	if err != nil {
		t.Fatalf("NewIndexed: %v", err)
	}
	return r
}

func TestGetWithinFirstLine(t *testing.T) {
	r := buildFixture(t)
	got, err := r.Get("chr1", 0, 4)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "ACGT" {
		t.Errorf("got %q, want ACGT", got)
	}
}

func TestGetAcrossLineBreak(t *testing.T) {
	r := buildFixture(t)
	got, err := r.Get("chr1", 8, 12)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "ACGT" {
		t.Errorf("got %q, want ACGT spanning the newline", got)
	}
}

func TestGetChrPrefixFallback(t *testing.T) {
	r := buildFixture(t)
	got, err := r.Get("1", 0, 4)
	if err != nil {
		t.Fatalf("Get with chr-less name: %v", err)
	}
	if got != "ACGT" {
		t.Errorf("got %q, want ACGT", got)
	}
}

func TestGetPastSequenceEnd(t *testing.T) {
	r := buildFixture(t)
	if _, err := r.Get("chr1", 0, 100); err == nil {
		t.Errorf("expected an error reading past end of sequence")
	}
}

func TestContigsFromIndex(t *testing.T) {
	r := buildFixture(t)
	ci := r.Contigs()
	if ci.NumContigs() != 2 {
		t.Fatalf("expected 2 contigs, got %d", ci.NumContigs())
	}
	if ci.Name(0) != "chr1" || ci.Length(0) != 20 {
		t.Errorf("unexpected contig 0: %s/%d", ci.Name(0), ci.Length(0))
	}
}
