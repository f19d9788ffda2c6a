package wadmap

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// loadLinedefs builds the line list. Zero length lines are dropped, broken side
// references are pointed at sidedef 0, and one side is allocated per line reference.
func (ml *MapLoader) loadLinedefs(mls []MapLinedef, numSidedefs int) error {
	logger.Debug("reading lines")
	l := ml.level
	numVertexes := len(l.Vertexes)

	// Drop degenerate lines first so side storage is only allocated for real ones
	kept := make([]MapLinedef, 0, len(mls))
	lineMap := make([]int, 0, len(mls))
	sideCount := 0
	for i, ld := range mls {
		if ld.V1 < 0 || ld.V1 >= numVertexes || ld.V2 < 0 || ld.V2 >= numVertexes {
			return errors.Wrapf(ErrBadVertex, "line %d has vertexes %d and %d, the map only contains %d",
				i, ld.V1, ld.V2, numVertexes)
		}
		v1, v2 := l.Vertexes[ld.V1], l.Vertexes[ld.V2]
		if !ml.opts.KeepDegenerateLines && (ld.V1 == ld.V2 || (v1.X == v2.X && v1.Y == v2.Y)) {
			ml.warnf("removing 0-length line %d", i)
			l.SkippedLines++
			ml.forceNodeBuild = true
			continue
		}
		kept = append(kept, ld)
		lineMap = append(lineMap, i)
		sideCount++
		if ld.Sides[1] != NoIndex {
			sideCount++
		}
	}
	if len(kept) > 0 && numSidedefs == 0 {
		return errors.Wrap(ErrMissingLump, "map has lines but no sidedefs")
	}

	lines := make([]Line, len(kept))
	l.Sides = make([]Side, 0, sideCount)
	ml.sideInit = make([]sideInit, 0, sideCount)
	for i := range kept {
		ld := &kept[i]
		li := &lines[i] // Point to element
		mapIndex := lineMap[i]

		// Line ids and special arguments
		switch l.Dialect {
		case DialectDoom:
			translateLegacyLine(ld)
			l.Tags.AddLineID(i, ld.Tag)
		case DialectHexen:
			l.Tags.AddLineID(i, lineIDFromSpecial(ld))
		case DialectUDMF:
			if ld.ID != NoIndex {
				l.Tags.AddLineID(i, ld.ID)
			} else {
				l.Tags.AddLineID(i, lineIDFromSpecial(ld))
			}
		}

		if ld.Sides[0] != NoIndex && ld.Sides[0] >= numSidedefs {
			ml.warnf("line %d has a bad front sidedef %d", mapIndex, ld.Sides[0])
			ld.Sides[0] = 0
		}
		if ld.Sides[1] != NoIndex && ld.Sides[1] >= numSidedefs {
			ml.warnf("line %d has a bad back sidedef %d", mapIndex, ld.Sides[1])
			ld.Sides[1] = 0
		}
		if ld.Sides[0] == NoIndex {
			ml.warnf("line %d has no front sidedef", mapIndex)
			ld.Sides[0] = 0
		}

		*li = Line{
			Index:         i,
			V1:            ld.V1,
			V2:            ld.V2,
			Flags:         ld.Flags,
			Activation:    ld.Activation,
			Special:       ld.Special,
			LegacySpecial: ld.LegacySpecial,
			Args:          ld.Args,
			FrontSector:   NoIndex,
			BackSector:    NoIndex,
			Alpha:         1,
			Additive:      ld.Additive,
		}
		if ld.Alpha >= 0 {
			li.Alpha = clamp(ld.Alpha, 0, 1)
		}
		li.setGeometry(l.Vertexes[li.V1], l.Vertexes[li.V2])
		li.Length = math.Hypot(li.DX, li.DY)
		li.Sides[0] = ml.allocSide(i, ld.Sides[0])
		li.Sides[1] = ml.allocSide(i, ld.Sides[1])
		ml.saveLineSpecial(li)
	}
	l.Lines = lines
	l.LineMap = lineMap
	logger.Debug("read lines", zap.Int("count", len(lines)), zap.Int("skipped", l.SkippedLines))
	return nil
}

// allocSide allocates the side of line loaded from sidedef mapIndex.
func (ml *MapLoader) allocSide(line, mapIndex int) int {
	if mapIndex == NoIndex {
		return NoIndex
	}
	i := len(ml.level.Sides)
	ml.level.Sides = append(ml.level.Sides, Side{
		Index:        i,
		Line:         line,
		Sector:       NoIndex,
		LeftSide:     NoIndex,
		RightSide:    NoIndex,
		FloorModelID: NoIndex,
	})
	ml.sideInit = append(ml.sideInit, sideInit{mapIndex: mapIndex})
	return i
}

// saveLineSpecial hands the special of a line to its front side, which needs it to
// interpret its texture names.
func (ml *MapLoader) saveLineSpecial(li *Line) {
	if li.Sides[0] == NoIndex {
		return
	}
	si := &ml.sideInit[li.Sides[0]]
	if li.Special != SpecialStaticInit || li.Args[1] == InitColor {
		si.special = li.Special
		si.tag = li.Args[0]
	} else {
		si.special = 0
	}
}
