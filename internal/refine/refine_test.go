package refine

import "testing"

func TestStrAlignOrdering(t *testing.T) {
	spanning := StrAlign{Type: TypeSpanning, Score: 10, NumMotifs: 5}
	flanking := StrAlign{Type: TypeFlanking, Score: 100, NumMotifs: 50}
	if !Less(spanning, flanking) {
		t.Errorf("expected spanning to rank better than flanking regardless of score")
	}
}

func TestStrAlignOrderingWithinType(t *testing.T) {
	a := StrAlign{Type: TypeSpanning, Score: 20, NumMotifs: 5, NumIndels: 1}
	b := StrAlign{Type: TypeSpanning, Score: 10, NumMotifs: 5, NumIndels: 0}
	if !Less(a, b) {
		t.Errorf("expected higher score to rank better within the same type")
	}
}

func TestIndelFilterDoesNotFireWithoutIndels(t *testing.T) {
	aligns := []ReadAlign{
		{ReadID: "r1", IsInRepeat: true, NumMotifs: 10},
		{ReadID: "r2", IsInRepeat: true, NumMotifs: 10},
	}
	if drop := IndelFilter(aligns); drop != nil {
		t.Errorf("expected no drops, got %v", drop)
	}
}

func TestIndelFilterFiresScenario6(t *testing.T) {
	aligns := make([]ReadAlign, 0, 20)
	for i := 0; i < 19; i++ {
		aligns = append(aligns, ReadAlign{ReadID: "clean", IsInRepeat: true, NumMotifs: 10})
	}
	aligns = append(aligns, ReadAlign{ReadID: "indel-read", IsInRepeat: true, HasIndels: true, NumMotifs: 15})
	drop := IndelFilter(aligns)
	if !drop["indel-read"] {
		t.Errorf("expected indel-read to be dropped, got %v", drop)
	}
	if len(drop) != 1 {
		t.Errorf("expected exactly one dropped read id, got %d", len(drop))
	}
}

func TestIndelFilterSkipsWhenFractionTooHigh(t *testing.T) {
	aligns := []ReadAlign{
		{ReadID: "a", IsInRepeat: true, HasIndels: true, NumMotifs: 15},
		{ReadID: "b", IsInRepeat: true, HasIndels: true, NumMotifs: 15},
		{ReadID: "c", IsInRepeat: true, NumMotifs: 10},
	}
	// 2/3 have indels, far above 20%.
	if drop := IndelFilter(aligns); drop != nil {
		t.Errorf("expected no drops when indel fraction exceeds threshold, got %v", drop)
	}
}
