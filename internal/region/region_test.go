package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlaps(t *testing.T) {
	a := GenomicRegion{ContigID: 0, Start: 10, End: 20}
	b := GenomicRegion{ContigID: 0, Start: 15, End: 25}
	c := GenomicRegion{ContigID: 1, Start: 15, End: 25}
	assert.True(t, a.Overlaps(b))
	assert.False(t, a.Overlaps(c), "expected no overlap across contigs")
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	r := GenomicRegion{ContigID: 3, Start: 99, End: 200}
	s := Encode("chr7", r)
	name, start, end, err := Decode(s)
	require.NoError(t, err)
	assert.Equal(t, "chr7", name)
	assert.Equal(t, r.Start, start)
	assert.Equal(t, r.End, end)
}

func TestContigInfoChrFallback(t *testing.T) {
	ci := NewContigInfo([]string{"chr1", "2"}, []int64{100, 200})

	id, ok := ci.IDByName("1")
	assert.True(t, ok)
	assert.Equal(t, int32(0), id, "expected chr-stripped fallback to find chr1")

	id, ok = ci.IDByName("chr2")
	assert.True(t, ok)
	assert.Equal(t, int32(1), id, "expected chr-prefixed fallback to find 2")

	_, ok = ci.IDByName("chr3")
	assert.False(t, ok, "expected missing contig to not be found")
}

func TestNewInvariant(t *testing.T) {
	_, err := New(0, 10, 5)
	assert.Error(t, err, "expected error for start > end")
}
