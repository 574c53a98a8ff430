// Package reference provides random-access lookup into an indexed FASTA
// reference, adapted from encoding/fasta/fasta_indexed.go's byte-offset
// arithmetic over a .fai index, generalized to resolve contig names
// through internal/region's "chr"-prefix fallback lookup (§6).
package reference

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"sync"

	"github.com/grailbio/base/log"
	"github.com/pkg/errors"

	"github.com/grailbio/strgt/internal/errs"
	"github.com/grailbio/strgt/internal/region"
)

// Reference is random access into an (optionally indexed) FASTA file by
// contig name and 0-based half-open coordinates, returning an
// upper-cased nucleotide string (§6).
type Reference interface {
	Get(contigName string, start, end uint64) (string, error)
	Contigs() *region.ContigInfo
}

type indexEntry struct {
	length    uint64
	offset    uint64
	lineBase  uint64
	lineWidth uint64
}

var indexLineRegexp = regexp.MustCompile(`^(\S+)\t(\d+)\t(\d+)\t(\d+)\t(\d+)`)

type indexedFasta struct {
	names   []string
	entries map[string]indexEntry
	contigs *region.ContigInfo

	reader io.ReadSeeker
	bufOff int64
	buf    []byte
	mu     sync.Mutex
}

// NewIndexed builds a Reference over fasta using the .fai-format index,
// one line per contig: "name\tlength\toffset\tlinebases\tlinewidth".
func NewIndexed(fasta io.ReadSeeker, index io.Reader) (Reference, error) {
	f := &indexedFasta{entries: map[string]indexEntry{}, reader: fasta}
	scanner := bufio.NewScanner(index)
	for scanner.Scan() {
		m := indexLineRegexp.FindStringSubmatch(scanner.Text())
		if m == nil {
			return nil, errs.E(errs.Malformed, fmt.Sprintf("invalid fasta index line: %q", scanner.Text()))
		}
		length, _ := strconv.ParseUint(m[2], 10, 64)
		offset, _ := strconv.ParseUint(m[3], 10, 64)
		lineBase, _ := strconv.ParseUint(m[4], 10, 64)
		lineWidth, _ := strconv.ParseUint(m[5], 10, 64)
		f.entries[m[1]] = indexEntry{length: length, offset: offset, lineBase: lineBase, lineWidth: lineWidth}
		f.names = append(f.names, m[1])
	}
	if err := scanner.Err(); err != nil {
		log.Error.Printf("reference: reading fasta index: %v", err)
		return nil, errs.E(errs.IO, "reading fasta index", err)
	}
	lengths := make([]int64, len(f.names))
	for i, n := range f.names {
		lengths[i] = int64(f.entries[n].length)
	}
	f.contigs = region.NewContigInfo(f.names, lengths)
	return f, nil
}

func (f *indexedFasta) Contigs() *region.ContigInfo { return f.contigs }

func (f *indexedFasta) resolveEntry(seqName string) (indexEntry, string, error) {
	if e, ok := f.entries[seqName]; ok {
		return e, seqName, nil
	}
	if idx, ok := f.contigs.IDByName(seqName); ok {
		name := f.contigs.Name(idx)
		if e, ok := f.entries[name]; ok {
			return e, name, nil
		}
	}
	return indexEntry{}, "", errs.E(errs.Malformed, fmt.Sprintf("sequence not found in reference index: %s", seqName))
}

// Get returns the upper-cased nucleotide string for [start,end) of
// seqName, resolved through the chr-prefix fallback lookup.
func (f *indexedFasta) Get(seqName string, start, end uint64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if end <= start {
		return "", errs.E(errs.Invariant, "reference Get requires start < end")
	}
	ent, _, err := f.resolveEntry(seqName)
	if err != nil {
		return "", err
	}
	if end > ent.length {
		return "", errs.E(errs.Malformed, fmt.Sprintf("end %d past end of sequence %s (length %d)", end, seqName, ent.length))
	}

	charsPerNewline := ent.lineWidth - ent.lineBase
	offset := ent.offset + start + charsPerNewline*(start/ent.lineBase)

	firstLineBases := ent.lineBase - (start % ent.lineBase)
	var newlinesToRead uint64
	if end-start > firstLineBases {
		newlinesToRead = 1 + (end-start-firstLineBases)/ent.lineBase
	}
	capacity := end - start + newlinesToRead*charsPerNewline

	raw, err := f.read(int64(offset), int(capacity))
	if err != nil {
		log.Error.Printf("reference: reading bytes for %s:%d-%d: %v", seqName, start, end, err)
		return "", errs.E(errs.IO, "reading reference bytes", err)
	}

	out := make([]byte, 0, end-start)
	linePos := (offset - ent.offset) % ent.lineWidth
	for _, b := range raw {
		if linePos < ent.lineBase {
			out = append(out, upper(b))
		}
		linePos++
		if linePos == ent.lineWidth {
			linePos = 0
		}
	}
	return string(out), nil
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

func (f *indexedFasta) read(off int64, n int) ([]byte, error) {
	limit := off + int64(n)
	if off < f.bufOff || limit > f.bufOff+int64(len(f.buf)) {
		if newOffset, err := f.reader.Seek(off, io.SeekStart); err != nil || newOffset != off {
			return nil, errors.Wrapf(err, "failed to seek to offset %d (landed at %d)", off, newOffset)
		}
		bufSize := 8192
		if bufSize < n {
			bufSize = n
		}
		f.buf = make([]byte, bufSize)
		read, err := io.ReadFull(f.reader, f.buf)
		if read < n && err != io.ErrUnexpectedEOF && err != nil {
			return nil, errors.Wrap(err, "unexpected end of reference file")
		}
		f.buf = f.buf[:read]
		f.bufOff = off
		if off < f.bufOff || limit > f.bufOff+int64(len(f.buf)) {
			return nil, errors.Errorf("short read at offset %d", off)
		}
	}
	return f.buf[off-f.bufOff : limit-f.bufOff], nil
}
