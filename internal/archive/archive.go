// Package archive is the aligned-read archive abstraction (§6): random
// access into a BAM by genomic region, yielding primary alignments as
// internal/reads.Read plus internal/reads.LinearAlignmentStats. Grounded
// on encoding/bamprovider's Provider/Iterator interface split and on
// encoding/bam's own use of github.com/biogo/hts/bam and sam for record
// decoding, generalized from provider-wide sharded iteration down to the
// single targeted-region query the locus analyzer needs.
package archive

import (
	"io"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/bgzf"
	"github.com/biogo/hts/sam"
	"github.com/grailbio/base/log"

	"github.com/grailbio/strgt/internal/errs"
	"github.com/grailbio/strgt/internal/reads"
	"github.com/grailbio/strgt/internal/region"
)

// qualityThreshold is the Phred base-quality cutoff (as stored in
// sam.Record.Qual, without the +33 ASCII offset) below which a base is
// downcased in the decoded Read sequence (§6).
const qualityThreshold = 20

// Archive is a per-worker handle onto an aligned-read archive. Each
// locus worker opens its own Archive to avoid index-download races when
// the backing file is a URL (§5).
type Archive interface {
	// Contigs returns the archive's header contig table.
	Contigs() *region.ContigInfo
	// Query returns primary alignments overlapping r, in coordinate
	// order. Secondary and supplementary alignments are never returned.
	Query(r region.GenomicRegion) (Iterator, error)
	Close() error
}

// Iterator yields decoded records from a single Query call.
type Iterator interface {
	Scan() bool
	Read() reads.Read
	Stats() reads.LinearAlignmentStats
	Err() error
	Close() error
}

// bamArchive is a BAM-backed Archive. CRAM support requires a reference
// FASTA for decoding (§6) and is left to a future Archive implementation
// sharing this same interface; none of the per-locus pipeline depends on
// the concrete backing format.
type bamArchive struct {
	r       io.ReadSeeker
	reader  *bam.Reader
	index   *bam.Index
	contigs *region.ContigInfo
}

// Open builds an Archive over a coordinate-sorted, bai-indexed BAM file.
func Open(data io.ReadSeeker, baiIndex io.Reader) (Archive, error) {
	reader, err := bam.NewReader(data, 1)
	if err != nil {
		log.Error.Printf("archive: opening bam reader: %v", err)
		return nil, errs.E(errs.IO, "opening bam reader", err)
	}
	idx, err := bam.ReadIndex(baiIndex)
	if err != nil {
		log.Error.Printf("archive: reading bam index: %v", err)
		return nil, errs.E(errs.IO, "reading bam index", err)
	}
	header := reader.Header()
	names := make([]string, len(header.Refs()))
	lengths := make([]int64, len(header.Refs()))
	for i, ref := range header.Refs() {
		names[i] = ref.Name()
		lengths[i] = int64(ref.Len())
	}
	return &bamArchive{
		r:       data,
		reader:  reader,
		index:   idx,
		contigs: region.NewContigInfo(names, lengths),
	}, nil
}

func (a *bamArchive) Contigs() *region.ContigInfo { return a.contigs }

func (a *bamArchive) Close() error { return nil }

func (a *bamArchive) Query(r region.GenomicRegion) (Iterator, error) {
	refs := a.reader.Header().Refs()
	if int(r.ContigID) >= len(refs) {
		return nil, errs.E(errs.Insufficient, "unknown contig in query region")
	}
	ref := refs[r.ContigID]
	chunks, err := a.index.Chunks(ref, int(r.Start), int(r.End))
	if err != nil {
		if err == bam.ErrInvalid {
			return &emptyIterator{}, nil
		}
		log.Error.Printf("archive: resolving bam index chunks for %s: %v", r, err)
		return nil, errs.E(errs.IO, "resolving bam index chunks", err)
	}
	return &bamIterator{archive: a, region: r, chunks: chunks}, nil
}

type bamIterator struct {
	archive *bamArchive
	region  region.GenomicRegion
	chunks  []bgzf.Chunk
	chunkAt int
	seeked  bool

	rec   *sam.Record
	read  reads.Read
	stats reads.LinearAlignmentStats
	err   error
}

func (it *bamIterator) Scan() bool {
	for {
		if it.chunkAt >= len(it.chunks) {
			return false
		}
		if !it.seeked {
			if err := it.archive.reader.Seek(it.chunks[it.chunkAt].Begin); err != nil {
				log.Error.Printf("archive: seeking bam chunk %d in region %s: %v", it.chunkAt, it.region, err)
				it.err = errs.E(errs.IO, "seeking bam chunk", err)
				return false
			}
			it.seeked = true
		}
		rec, err := it.archive.reader.Read()
		if err == io.EOF {
			it.chunkAt++
			it.seeked = false
			continue
		}
		if err != nil {
			log.Error.Printf("archive: reading bam record in region %s: %v", it.region, err)
			it.err = errs.E(errs.IO, "reading bam record", err)
			return false
		}
		voffset := it.archive.reader.LastChunk().End
		if voffset.File > it.chunks[it.chunkAt].End.File ||
			(voffset.File == it.chunks[it.chunkAt].End.File && voffset.Block >= it.chunks[it.chunkAt].End.Block) {
			it.chunkAt++
			it.seeked = false
		}
		if rec.Flags&(sam.Secondary|sam.Supplementary) != 0 {
			continue
		}
		if rec.Ref == nil || rec.Ref.ID() != int(it.region.ContigID) {
			continue
		}
		if int64(rec.Pos) >= it.region.End || int64(rec.End()) <= it.region.Start {
			continue
		}
		it.rec = rec
		it.read, it.stats = decode(rec)
		return true
	}
}

func (it *bamIterator) Read() reads.Read                       { return it.read }
func (it *bamIterator) Stats() reads.LinearAlignmentStats       { return it.stats }
func (it *bamIterator) Err() error                              { return it.err }
func (it *bamIterator) Close() error                            { return nil }

type emptyIterator struct{}

func (emptyIterator) Scan() bool                            { return false }
func (emptyIterator) Read() reads.Read                       { return reads.Read{} }
func (emptyIterator) Stats() reads.LinearAlignmentStats      { return reads.LinearAlignmentStats{} }
func (emptyIterator) Err() error                             { return nil }
func (emptyIterator) Close() error                           { return nil }

// decode converts a sam.Record into a Read and its LinearAlignmentStats,
// downcasing bases whose Phred quality (sam.Record.Qual, no ASCII
// offset) is below qualityThreshold (§6).
func decode(rec *sam.Record) (reads.Read, reads.LinearAlignmentStats) {
	seq := rec.Seq.Expand()
	out := make([]byte, len(seq))
	quals := rec.Qual
	for i, b := range seq {
		if i < len(quals) && quals[i] < qualityThreshold {
			out[i] = lower(b)
		} else {
			out[i] = b
		}
	}
	mate := reads.Mate1
	if rec.Flags&sam.Read2 != 0 {
		mate = reads.Mate2
	}
	r := reads.Read{
		FragmentID: rec.Name,
		Mate:       mate,
		Sequence:   string(out),
		IsReversed: rec.Flags&sam.Reverse != 0,
	}
	stats := reads.LinearAlignmentStats{
		Contig:       contigID(rec.Ref),
		Pos:          int64(rec.Pos),
		MapQ:         uint8(rec.MapQ),
		MateContig:   contigID(rec.MateRef),
		MatePos:      int64(rec.MatePos),
		IsPaired:     rec.Flags&sam.Paired != 0,
		IsMapped:     rec.Flags&sam.Unmapped == 0,
		IsMateMapped: rec.Flags&sam.MateUnmapped == 0,
	}
	return r, stats
}

func contigID(ref *sam.Reference) int32 {
	if ref == nil {
		return -1
	}
	return int32(ref.ID())
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}
