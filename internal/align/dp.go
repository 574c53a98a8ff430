package align

import "math"

const negInf = math.MinInt32 / 2

// state marks which matrix a traceback cell came from.
type state uint8

const (
	stateNone state = iota
	stateDiag
	stateUp   // consumes a read base only (insertion relative to ref)
	stateLeft // consumes a ref base only (deletion relative to ref)
)

// localAlignResult is the output of the affine-gap local alignment DP.
type localAlignResult struct {
	score                        int
	ops                          []Op
	readStart, readEnd           int
	refStart, refEnd             int
}

func baseScore(refB, queryB byte) (int, OpType) {
	if refB == 'N' || refB == 'n' {
		return 0, Missing
	}
	if equalBase(refB, queryB) {
		return matchScore, Match
	}
	return mismatchScore, Mismatch
}

func equalBase(refB, queryB byte) bool {
	return upperByte(refB) == upperByte(queryB)
}

func upperByte(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

// localAlign computes a Smith-Waterman-Gotoh local alignment of read
// against ref with match=+5, mismatch=-4, gapOpen=-8, gapExtend=0 (§4.3).
func localAlign(read, ref string) localAlignResult {
	m, n := len(read), len(ref)
	if m == 0 || n == 0 {
		return localAlignResult{}
	}
	H := make([][]int, m+1)
	Ix := make([][]int, m+1) // gap in ref (read consumed, insertion)
	Iy := make([][]int, m+1) // gap in read (ref consumed, deletion)
	ptr := make([][]state, m+1)
	for i := range H {
		H[i] = make([]int, n+1)
		Ix[i] = make([]int, n+1)
		Iy[i] = make([]int, n+1)
		ptr[i] = make([]state, n+1)
		for j := range H[i] {
			if i > 0 {
				Ix[i][j] = negInf
			}
			if j > 0 {
				Iy[i][j] = negInf
			}
		}
	}

	bestScore := 0
	bestI, bestJ := 0, 0
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			s, _ := baseScore(ref[j-1], read[i-1])
			diag := H[i-1][j-1] + s
			fromIx := Ix[i-1][j-1] + s
			fromIy := Iy[i-1][j-1] + s
			best := diag
			st := stateDiag
			if fromIx > best {
				best, st = fromIx, stateDiag
			}
			if fromIy > best {
				best, st = fromIy, stateDiag
			}
			if best < 0 {
				best, st = 0, stateNone
			}
			H[i][j] = best

			Ix[i][j] = maxInt(H[i-1][j]+gapOpen, Ix[i-1][j]+gapExtend)
			Iy[i][j] = maxInt(H[i][j-1]+gapOpen, Iy[i][j-1]+gapExtend)

			cellBest := H[i][j]
			cellState := st
			if Ix[i][j] > cellBest {
				cellBest, cellState = Ix[i][j], stateUp
			}
			if Iy[i][j] > cellBest {
				cellBest, cellState = Iy[i][j], stateLeft
			}
			ptr[i][j] = cellState
			if cellBest > bestScore {
				bestScore = cellBest
				bestI, bestJ = i, j
			}
			// H[i][j] itself must reflect the true max across the three
			// matrices for downstream cells that extend a match/mismatch
			// run from here.
			if Ix[i][j] > H[i][j] {
				H[i][j] = Ix[i][j]
			}
			if Iy[i][j] > H[i][j] {
				H[i][j] = Iy[i][j]
			}
		}
	}
	if bestScore == 0 {
		return localAlignResult{}
	}

	// Traceback from (bestI, bestJ) until a stateNone cell, which marks
	// the start of the local alignment (exclusive).
	var ops []Op
	i, j := bestI, bestJ
	for i > 0 && j > 0 && ptr[i][j] != stateNone {
		switch ptr[i][j] {
		case stateUp:
			ops = append(ops, Op{Type: Insertion, QueryLen: 1})
			i--
		case stateLeft:
			ops = append(ops, Op{Type: Deletion, RefLen: 1})
			j--
		default: // stateDiag
			_, t := baseScore(ref[j-1], read[i-1])
			ops = append(ops, Op{Type: t, RefLen: 1, QueryLen: 1})
			i--
			j--
		}
	}
	reverseOps(ops)
	ops = mergeRuns(ops)

	return localAlignResult{
		score:     bestScore,
		ops:       ops,
		readStart: i,
		readEnd:   bestI,
		refStart:  j,
		refEnd:    bestJ,
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func reverseOps(ops []Op) {
	for i, j := 0, len(ops)-1; i < j; i, j = i+1, j-1 {
		ops[i], ops[j] = ops[j], ops[i]
	}
}

func mergeRuns(ops []Op) []Op {
	if len(ops) == 0 {
		return ops
	}
	out := []Op{ops[0]}
	for _, op := range ops[1:] {
		last := &out[len(out)-1]
		if last.Type == op.Type {
			last.RefLen += op.RefLen
			last.QueryLen += op.QueryLen
			continue
		}
		out = append(out, op)
	}
	return out
}
