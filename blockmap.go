package wadmap

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// MapBlockUnits is the size of a blockmap cell in map units.
const MapBlockUnits = 128

// BlockMap is level data created from axis aligned bounding box of the map, a rectangular array
// of blocks of size MapBlockUnits. Used to speed up collision detection by spatial subdivision in 2D.
// Words holds the lump expanded to 32 bits: the 4 word header, one list offset per
// block, then the block lists, each starting with 0 and ending with -1.
type BlockMap struct {
	OriginX, OriginY float64
	Columns, Rows    int
	Words            []int32
}

// Contains reports whether block (x, y) lies inside the grid.
func (b *BlockMap) Contains(x, y int) bool {
	return x >= 0 && x < b.Columns && y >= 0 && y < b.Rows
}

// BlockX returns the column holding map x coordinate x. It may lie outside the grid.
func (b *BlockMap) BlockX(x float64) int {
	return int(math.Floor((x - b.OriginX) / MapBlockUnits))
}

// BlockY returns the row holding map y coordinate y. It may lie outside the grid.
func (b *BlockMap) BlockY(y float64) int {
	return int(math.Floor((y - b.OriginY) / MapBlockUnits))
}

// Lines returns the line numbers listed in block (x, y).
func (b *BlockMap) Lines(x, y int) []int {
	if !b.Contains(x, y) {
		return nil
	}
	offset := int(b.Words[4+y*b.Columns+x])
	var lines []int
	// Skip the leading 0
	for i := offset + 1; i < len(b.Words) && b.Words[i] != -1; i++ {
		lines = append(lines, int(b.Words[i]))
	}
	return lines
}

// loadBlockMap accepts the stored blockmap unless a rebuild is already due or it fails
// verification.
func (ml *MapLoader) loadBlockMap(lumps *LevelLumps) {
	logger.Debug("reading block map")
	l := ml.level
	reject := func(format string, args ...any) {
		ml.warnf(format, args...)
		l.BlockMap = nil
		l.NeedsBlockmapBuild = true
	}

	lump, ok := lumps.Lump(LumpBlockmap)
	count := len(lump) / 2
	switch {
	case ml.forceNodeBuild || ml.opts.ForceBlockmapBuild:
		reject("stored blockmap discarded, a rebuild is required")
		return
	case !ok || count == 0:
		reject("map has no blockmap")
		return
	case count >= 0x10000:
		reject("blockmap of %d entries is too large to be addressed", count)
		return
	}

	mb, err := DecodeBlockmap(lump)
	if err != nil {
		reject("blockmap not loaded: %v", err)
		return
	}
	if err := VerifyBlockMap(mb.Words, len(l.Lines)); err != nil {
		reject("blockmap rejected: %v", err)
		return
	}
	l.BlockMap = &BlockMap{
		OriginX: float64(mb.OriginX),
		OriginY: float64(mb.OriginY),
		Columns: mb.Columns,
		Rows:    mb.Rows,
		Words:   mb.Words,
	}
	logger.Debug("read block map", zap.Int("columns", mb.Columns), zap.Int("rows", mb.Rows))
}

// VerifyBlockMap checks that every block list of an expanded blockmap lies inside it,
// starts with 0, ends with -1 and only lists lines below numLines.
func VerifyBlockMap(words []int32, numLines int) error {
	count := len(words)
	if count < 4 {
		return errors.Wrap(ErrBadBlockmap, "header overflow")
	}
	width, height := int(words[2]), int(words[3])
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			blockOffset := y*width + x + 4

			// check that block offset is in bounds
			if blockOffset >= count {
				return errors.Wrap(ErrBadBlockmap, "block offset overflow")
			}
			offset := int(words[blockOffset])

			// check that list offset is in bounds
			if offset < 4 || offset >= count {
				return errors.Wrapf(ErrBadBlockmap, "list offset overflow in block %d,%d", x, y)
			}

			// scan forward for a -1 terminator before the end
			end := offset
			for end < count && words[end] != -1 {
				end++
			}
			if end >= count {
				return errors.Wrapf(ErrBadBlockmap, "open blocklist in block %d,%d", x, y)
			}

			// some node builders drop the initial 0 entry; such blockmaps are discarded
			if words[offset] != 0 {
				return errors.Wrapf(ErrBadBlockmap, "first entry of block %d,%d is not 0", x, y)
			}

			// scan the list for out-of-range linedef indices
			for _, w := range words[offset:end] {
				if w < 0 || int(w) >= numLines {
					return errors.Wrapf(ErrBadBlockmap, "block %d,%d lists line %d of %d", x, y, w, numLines)
				}
			}
		}
	}
	return nil
}
