package wadmap

import (
	"testing"

	"github.com/pkg/errors"
)

// squareBlockmap is a one block blockmap listing the four lines of squareRoom.
func squareBlockmap() []int16 {
	return []int16{0, 0, 1, 1, 5, 0, 0, 1, 2, 3, -1}
}

func expand(words []int16) []int32 {
	out := make([]int32, len(words))
	for i, w := range words {
		out[i] = int32(w)
	}
	return out
}

func TestVerifyBlockMap(t *testing.T) {
	tests := []struct {
		name     string
		words    []int16
		numLines int
		ok       bool
	}{
		{"valid", squareBlockmap(), 4, true},
		{"header overflow", []int16{0, 0, 1}, 4, false},
		{"block offset overflow", []int16{0, 0, 3, 3, 5}, 4, false},
		{"list offset before lists", []int16{0, 0, 1, 1, 2, 0, -1}, 4, false},
		{"list offset past end", []int16{0, 0, 1, 1, 40, 0, -1}, 4, false},
		{"open list", []int16{0, 0, 1, 1, 5, 0, 1, 2}, 4, false},
		{"first entry not zero", []int16{0, 0, 1, 1, 5, 1, 2, -1}, 4, false},
		{"line out of range", squareBlockmap(), 3, false},
		{"empty grid", []int16{0, 0, 0, 0}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyBlockMap(expand(tt.words), tt.numLines)
			if tt.ok && err != nil {
				t.Errorf("VerifyBlockMap() error = %v", err)
			}
			if !tt.ok && errors.Cause(err) != ErrBadBlockmap {
				t.Errorf("VerifyBlockMap() error = %v, want %v", err, ErrBadBlockmap)
			}
		})
	}
}

func TestDecodeBlockmapUnsignedOffsets(t *testing.T) {
	mb, err := DecodeBlockmap(encode([]int16{-64, 32, 1, 1, -2, -1}))
	if err != nil {
		t.Fatalf("DecodeBlockmap() error = %v", err)
	}
	if mb.OriginX != -64 || mb.OriginY != 32 || mb.Columns != 1 || mb.Rows != 1 {
		t.Errorf("header = %+v", mb)
	}
	if mb.Words[4] != 0xfffe || mb.Words[5] != -1 {
		t.Errorf("words = %v", mb.Words)
	}
	if _, err := DecodeBlockmap([]byte{1, 2, 3}); errors.Cause(err) != ErrRecordSize {
		t.Errorf("odd lump error = %v", err)
	}
}

func TestLoadBlockMap(t *testing.T) {
	m := squareRoomBSP()
	setLump(m, LumpBlockmap, encode(squareBlockmap()))
	l := load(t, m, DefaultOptions())

	bm := l.BlockMap
	if bm == nil || l.NeedsBlockmapBuild {
		t.Fatalf("blockmap rejected: %q", l.Warnings)
	}
	if got := bm.Lines(0, 0); !equalInts(got, []int{0, 1, 2, 3}) {
		t.Errorf("Lines(0, 0) = %v", got)
	}
	if bm.Lines(1, 0) != nil || bm.Contains(bm.BlockX(200), bm.BlockY(10)) || !bm.Contains(bm.BlockX(127), bm.BlockY(0)) {
		t.Errorf("block lookup outside the grid")
	}
	if bb := l.Sectors[0].BlockBox; bb != (BlockBox{}) {
		t.Errorf("BlockBox = %+v", bb)
	}
}

func TestLoadBlockMapRejected(t *testing.T) {
	tests := []struct {
		name  string
		tweak func(m *testMap, opts *Options)
	}{
		{"forced", func(m *testMap, opts *Options) { opts.ForceBlockmapBuild = true }},
		{"node build pending", func(m *testMap, opts *Options) { opts.ForceNodeBuild = true }},
		{"missing", func(m *testMap, opts *Options) { setLump(m, LumpBlockmap, nil) }},
		{"first entry not zero", func(m *testMap, opts *Options) {
			setLump(m, LumpBlockmap, encode([]int16{0, 0, 1, 1, 5, 1, 2, -1}))
		}},
		{"too many lines", func(m *testMap, opts *Options) {
			setLump(m, LumpBlockmap, encode([]int16{0, 0, 1, 1, 5, 0, 7, -1}))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := squareRoomBSP()
			setLump(m, LumpBlockmap, encode(squareBlockmap()))
			opts := DefaultOptions()
			tt.tweak(m, &opts)
			l := load(t, m, opts)
			if l.BlockMap != nil || !l.NeedsBlockmapBuild {
				t.Errorf("blockmap kept")
			}
		})
	}
}
