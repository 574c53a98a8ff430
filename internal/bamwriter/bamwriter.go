// Package bamwriter emits the optional debug alignment BAM (§4.12): one
// record per read that reached the aligning state, carrying an XG aux
// tag of "locusID,startPos,cigarLike" describing the canonical graph
// alignment chosen for it. Records are produced by every locus worker
// but funneled through internal/concurrency's bounded Queue to a single
// writer goroutine, generalizing markduplicates/mark_duplicates.go's
// sam.NewAux/AuxFields pattern for attaching a custom tag and
// encoding/bam/shardedbam.go's background-writer-goroutine-over-a-queue
// shape for serializing concurrent output onto one BAM stream.
package bamwriter

import (
	"fmt"
	"io"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"

	"github.com/grailbio/strgt/internal/concurrency"
	"github.com/grailbio/strgt/internal/errs"
	"github.com/grailbio/strgt/internal/locus"
)

var xgTag = sam.NewTag("XG")

// DebugWriter accepts locus.DebugAlignment batches from any number of
// locus workers and writes them to a single underlying BAM stream. Push
// may be called concurrently; the records are serialized through a
// bounded queue onto one writer goroutine so the biogo/hts bam.Writer
// itself is never touched from more than one goroutine.
type DebugWriter struct {
	queue *concurrency.Queue
	bw    *bam.Writer
	done  chan error
}

// NewDebugWriter opens a debug BAM stream over w and starts its writer
// goroutine. queueCapacity bounds how many pending records a fast
// producer may buffer ahead of the writer.
func NewDebugWriter(w io.Writer, header *sam.Header, queueCapacity int) (*DebugWriter, error) {
	bw, err := bam.NewWriter(w, header, 1)
	if err != nil {
		return nil, errs.E(errs.IO, "opening debug bam writer", err)
	}
	dw := &DebugWriter{
		queue: concurrency.NewQueue(queueCapacity),
		bw:    bw,
		done:  make(chan error, 1),
	}
	go dw.run()
	return dw, nil
}

func (dw *DebugWriter) run() {
	var firstErr error
	for {
		item, ok := dw.queue.Pop()
		if !ok {
			break
		}
		rec := item.(*sam.Record)
		if err := dw.bw.Write(rec); err != nil && firstErr == nil {
			firstErr = errs.E(errs.IO, "writing debug bam record", err)
		}
	}
	dw.done <- firstErr
}

// Push enqueues one locus's debug alignments, tagged with locusID and
// addressed against ref (the contig the locus's graph nodes project
// onto). Push never blocks on I/O; it only blocks on the bounded queue
// filling up, which is the harness's only suspension point besides
// archive reads (§5).
func (dw *DebugWriter) Push(locusID string, ref *sam.Reference, alignments []locus.DebugAlignment) error {
	for _, a := range alignments {
		rec, err := buildRecord(locusID, ref, a)
		if err != nil {
			return err
		}
		dw.queue.Push(rec)
	}
	return nil
}

func buildRecord(locusID string, ref *sam.Reference, a locus.DebugAlignment) (*sam.Record, error) {
	rec := &sam.Record{
		Name: a.FragmentID,
		Ref:  ref,
		Pos:  int(a.StartPos),
		Seq:  sam.NewSeq([]byte(a.Sequence)),
	}
	if a.IsReversed {
		rec.Flags |= sam.Reverse
	}
	aux, err := sam.NewAux(xgTag, fmt.Sprintf("%s,%d,%s", locusID, a.StartPos, a.CigarLike))
	if err != nil {
		return nil, errs.E(errs.Invariant, "building XG aux tag", err)
	}
	rec.AuxFields = append(rec.AuxFields, aux)
	return rec, nil
}

// Close signals the writer goroutine to drain and exit, then closes the
// underlying BAM stream. It returns the first write error encountered,
// if any, ahead of any error from closing the stream itself.
func (dw *DebugWriter) Close() error {
	dw.queue.Close()
	runErr := <-dw.done
	if err := dw.bw.Close(); err != nil && runErr == nil {
		runErr = errs.E(errs.IO, "closing debug bam writer", err)
	}
	return runErr
}
