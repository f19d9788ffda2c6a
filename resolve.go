package wadmap

import (
	"math"
)

// finishLoadingLinedefs resolves the sectors of each line through its sides and
// applies translucency specials.
func (ml *MapLoader) finishLoadingLinedefs() {
	logger.Debug("resolving lines")
	l := ml.level
	for i := range l.Lines {
		li := &l.Lines[i] // Point to element
		li.FrontSector, li.BackSector = NoIndex, NoIndex
		if li.Sides[0] != NoIndex {
			li.FrontSector = l.Sides[li.Sides[0]].Sector
		}
		if li.Sides[1] != NoIndex {
			li.BackSector = l.Sides[li.Sides[1]].Sector
		}
		if li.FrontSector == NoIndex {
			ml.warnf("line %d has no front sector", l.LineMap[i])
		}

		texelLength := int(li.Length + 0.5)
		for _, s := range li.Sides {
			if s != NoIndex {
				l.Sides[s].Line = i
				l.Sides[s].TexelLength = texelLength
			}
		}

		if li.Special == SpecialTranslucentLine {
			ml.setTranslucency(li)
		}
	}
}

// setTranslucency applies a TranslucentLine special: args[1] is the opacity out of 255
// and a nonzero args[2] makes it additive. It applies to the line itself when args[0]
// is 0, otherwise to every line with id args[0]. The special is consumed.
func (ml *MapLoader) setTranslucency(li *Line) {
	l := ml.level
	alpha := float64(li.Args[1])
	additive := li.Args[2] != 0
	if alpha < 0 {
		alpha = -alpha
		additive = true
	}
	dalpha := clamp(alpha/255, 0, 1)
	if li.Args[0] == 0 {
		li.Alpha = dalpha
		li.Additive = li.Additive || additive
	} else {
		for _, j := range l.Tags.LinesWithID(li.Args[0]) {
			l.Lines[j].Alpha = dalpha
			if additive {
				l.Lines[j].Additive = true
			}
		}
	}
	li.Special = 0
}

// groupLines builds the sector line lists and everything derived from them.
func (ml *MapLoader) groupLines() {
	logger.Debug("grouping lines")
	l := ml.level
	for i := range l.Lines {
		li := &l.Lines[i]
		if li.FrontSector != NoIndex {
			l.Sectors[li.FrontSector].Lines = append(l.Sectors[li.FrontSector].Lines, i)
		}
		if li.BackSector != NoIndex && li.BackSector != li.FrontSector {
			l.Sectors[li.BackSector].Lines = append(l.Sectors[li.BackSector].Lines, i)
		}
	}

	for i := range l.Sectors {
		s := &l.Sectors[i] // Point to element
		bbox := newBBox()
		for _, j := range s.Lines {
			li := &l.Lines[j]
			for _, v := range []int{li.V1, li.V2} {
				bbox.add(l.Vertexes[v])
				vx := &l.Vertexes[v]
				if len(vx.Sectors) == 0 || vx.Sectors[len(vx.Sectors)-1] != i {
					vx.Sectors = append(vx.Sectors, i)
				}
			}
		}
		if len(s.Lines) == 0 {
			continue
		}
		s.BoundingBox = bbox

		// set the degenmobj_t to the middle of the bounding box
		s.SoundOrigin.X = (bbox.Right + bbox.Left) / 2
		s.SoundOrigin.Y = (bbox.Top + bbox.Bottom) / 2

		// adjust bounding box to map blocks
		if bm := l.BlockMap; bm != nil {
			block := int(math.Floor((bbox.Top - bm.OriginY + MaxRadius) / MapBlockUnits))
			s.BlockBox.Top = min(block, bm.Rows-1)

			block = int(math.Floor((bbox.Bottom - bm.OriginY - MaxRadius) / MapBlockUnits))
			s.BlockBox.Bottom = max(block, 0)

			block = int(math.Floor((bbox.Right - bm.OriginX + MaxRadius) / MapBlockUnits))
			s.BlockBox.Right = min(block, bm.Columns-1)

			block = int(math.Floor((bbox.Left - bm.OriginX - MaxRadius) / MapBlockUnits))
			s.BlockBox.Left = max(block, 0)
		}
	}
}

// MaxRadius is for precalculated sector block boxes
// the spider demon is larger, but don't have any moving sectors nearby
const MaxRadius = 32

// spawn3DFloors gives every sector tagged by a Sector_Set3DFloor line a 3D floor made
// of the line's front sector.
func (ml *MapLoader) spawn3DFloors() {
	l := ml.level
	for i := range l.Lines {
		li := &l.Lines[i]
		if li.Special != SpecialSectorSet3DFloor || li.FrontSector == NoIndex {
			continue
		}
		modelID := l.Sides[li.Sides[0]].FloorModelID
		for _, s := range l.Tags.SectorsWithTag(li.Args[0]) {
			ext := &l.ExtSectors[l.Sectors[s].ExtSector]
			ext.FFloors = append(ext.FFloors, FFloor{
				ControlSector: li.FrontSector,
				Line:          i,
				Type:          li.Args[1],
				Flags:         li.Args[2],
				Alpha:         li.Args[3],
				ModelID:       modelID,
			})
		}
	}
}
