package wadmap

import (
	"math"

	"go.uber.org/zap"
)

// Node child flag: the child is a subsector
const nodeFlagSubSector = 0x8000

// loadBSP loads and validates the stored BSP tree. Subsectors are read first, then
// nodes, then segs. Any inconsistency discards all three and flags a rebuild; seg
// vertexes are only snapped once the tree is accepted.
// Malformed lump sizes are still fatal.
func (ml *MapLoader) loadBSP(lumps *LevelLumps) error {
	l := ml.level
	l.BSPState = BSPValidating

	if ml.forceNodeBuild {
		ml.rejectBSP("stored nodes discarded, the map was modified while loading")
		return nil
	}
	if l.Dialect == DialectUDMF {
		ml.rejectBSP("text format map, nodes must be built")
		return nil
	}

	ssData, ok := lumps.Lump(LumpSSectors)
	if !ok {
		ml.rejectBSP("map has no %s", LumpSSectors)
		return nil
	}
	segData, ok := lumps.Lump(LumpSegs)
	if !ok {
		ml.rejectBSP("map has no %s", LumpSegs)
		return nil
	}
	nodeData, _ := lumps.Lump(LumpNodes)

	mss, err := DecodeSubSectors(ssData)
	if err != nil {
		return err
	}
	mns, err := DecodeNodes(nodeData)
	if err != nil {
		return err
	}
	msegs, err := DecodeSegs(segData)
	if err != nil {
		return err
	}

	if !ml.loadSubSectors(mss, len(msegs)) || !ml.loadNodes(mns, len(mss)) || !ml.loadSegs(msegs) {
		return nil
	}
	if !ml.bindSubSectors() {
		return nil
	}
	ml.snapSegs()

	l.BSPState = BSPAccepted
	logger.Debug("accepted stored nodes",
		zap.Int("segs", len(l.Segs)),
		zap.Int("subsectors", len(l.SubSectors)),
		zap.Int("nodes", len(l.Nodes)))
	return nil
}

// rejectBSP discards the partially loaded tree and flags a node build.
func (ml *MapLoader) rejectBSP(format string, args ...any) {
	ml.warnf(format, args...)
	l := ml.level
	l.Segs, l.SubSectors, l.Nodes = nil, nil, nil
	l.BSPState = BSPRejectNeedsRebuild
	ml.forceNodeBuild = true
}

func (ml *MapLoader) loadSubSectors(mss []MapSubSector, maxSeg int) bool {
	logger.Debug("reading sub sectors")
	if len(mss) == 0 || maxSeg == 0 {
		ml.rejectBSP("map has no subsectors or no segs")
		return false
	}
	subSectors := make([]SubSector, len(mss))
	for i, ms := range mss {
		if ms.NumSegs == 0 {
			ml.rejectBSP("subsector %d is empty", i)
			return false
		}
		if ms.FirstSeg >= maxSeg || ms.FirstSeg+ms.NumSegs > maxSeg {
			ml.rejectBSP("subsector %d contains invalid segs %d-%d", i, ms.FirstSeg, ms.FirstSeg+ms.NumSegs-1)
			return false
		}
		subSectors[i] = SubSector{
			Index:    i,
			Sector:   NoIndex,
			FirstSeg: ms.FirstSeg,
			NumSegs:  ms.NumSegs,
		}
	}
	ml.level.SubSectors = subSectors
	logger.Debug("read sub sectors", zap.Int("count", len(subSectors)))
	return true
}

func (ml *MapLoader) loadNodes(mns []MapNode, maxSS int) bool {
	logger.Debug("reading nodes")
	numNodes := len(mns)
	if numNodes == 0 && maxSS != 1 {
		ml.rejectBSP("map has no nodes")
		return false
	}

	nodes := make([]Node, numNodes)
	used := make([]bool, numNodes)
	for i, mn := range mns {
		n := &nodes[i] // Point to element
		n.Index = i
		n.X, n.Y, n.DX, n.DY = mn.X, mn.Y, mn.DX, mn.DY
		n.BBoxR, n.BBoxL = mn.BBox[0], mn.BBox[1]
		for j, child := range mn.Children {
			var c BSPChild
			if child&nodeFlagSubSector != 0 {
				child &^= nodeFlagSubSector
				if child >= maxSS {
					ml.rejectBSP("BSP node %d references invalid subsector %d", i, child)
					return false
				}
				c = SubSectorChild(child)
			} else if child >= numNodes {
				ml.rejectBSP("BSP node %d references invalid node %d", i, child)
				return false
			} else if used[child] {
				ml.rejectBSP("BSP node %d references node %d, which is already used", i, child)
				return false
			} else {
				used[child] = true
				c = NodeChild(child)
			}
			if j == 0 {
				n.ChildR = c
			} else {
				n.ChildL = c
			}
		}
	}
	// The last node is the root
	if numNodes > 0 && used[numNodes-1] {
		ml.rejectBSP("BSP root node %d is referenced as a child", numNodes-1)
		return false
	}
	ml.level.Nodes = nodes
	logger.Debug("read nodes", zap.Int("count", len(nodes)))
	return true
}

func (ml *MapLoader) loadSegs(msegs []MapSeg) bool {
	logger.Debug("reading segs")
	l := ml.level
	numVertexes := len(l.Vertexes)

	segs := make([]Seg, len(msegs))
	for i, ms := range msegs {
		if ms.V1 >= numVertexes || ms.V2 >= numVertexes {
			ml.rejectBSP("seg %d references invalid vertex %d", i, max(ms.V1, ms.V2))
			return false
		}
		if ms.Linedef >= len(l.Lines) {
			ml.rejectBSP("seg %d references invalid line %d", i, ms.Linedef)
			return false
		}
		line := &l.Lines[ms.Linedef]
		if (ms.Side != 0 && ms.Side != 1) || line.Sides[ms.Side] == NoIndex {
			ml.rejectBSP("seg %d references invalid side %d of line %d", i, ms.Side, ms.Linedef)
			return false
		}

		seg := &segs[i] // Point to element
		*seg = Seg{
			Index:       i,
			V1:          ms.V1,
			V2:          ms.V2,
			Line:        ms.Linedef,
			Side:        line.Sides[ms.Side],
			FrontSector: l.Sides[line.Sides[ms.Side]].Sector,
			BackSector:  NoIndex,
			Angle:       bamToDegrees(ms.Angle),
			Offset:      float64(ms.Offset),
		}

		// Ignore the two-sided flag if the second side is missing
		if other := line.Sides[ms.Side^1]; line.TwoSided() && other != NoIndex {
			seg.BackSector = l.Sides[other].Sector
		} else {
			line.Flags &^= LineFlagTwoSided
		}
	}
	l.Segs = segs
	logger.Debug("read segs", zap.Int("count", len(segs)))
	return true
}

// snapSegs corrects the vertexes of an accepted tree's segs. Vertexes used by lines
// are never moved.
func (ml *MapLoader) snapSegs() {
	l := ml.level
	vertChanged := make([]bool, len(l.Vertexes))
	for i := range l.Lines {
		vertChanged[l.Lines[i].V1] = true
		vertChanged[l.Lines[i].V2] = true
	}
	for i := range l.Segs {
		seg := &l.Segs[i]
		ml.snapSegVertexes(seg.V1, seg.V2, seg.Angle, vertChanged)
	}
}

// snapSegVertexes moves a seg endpoint that is not on any line so the seg's direction
// matches its stored angle. Only drifts under one degree are corrected; larger ones
// are taken to be real.
func (ml *MapLoader) snapSegVertexes(v1, v2 int, segAngle float64, vertChanged []bool) {
	l := ml.level
	a, b := &l.Vertexes[v1], &l.Vertexes[v2]
	dx, dy := b.X-a.X, b.Y-a.Y
	delta := angleDelta(vectorAngle(dx, dy), segAngle)
	if delta == 0 || delta >= 1 {
		return
	}
	dis := math.Hypot(dx, dy)
	rad := degreesToRadians(segAngle)
	ddx, ddy := dis*math.Cos(rad), dis*math.Sin(rad)
	if v2 > v1 && !vertChanged[v2] {
		b.X, b.Y = a.X+ddx, a.Y+ddy
		b.Dirty = true
		vertChanged[v2] = true
	} else if !vertChanged[v1] {
		a.X, a.Y = b.X-ddx, b.Y-ddy
		a.Dirty = true
		vertChanged[v1] = true
	}
}

// bindSubSectors sets the sector of each subsector from its first seg.
func (ml *MapLoader) bindSubSectors() bool {
	l := ml.level
	for i := range l.SubSectors {
		ss := &l.SubSectors[i]
		seg := &l.Segs[ss.FirstSeg]
		if seg.Side == NoIndex {
			ml.rejectBSP("subsector %d: first seg %d has no side", i, ss.FirstSeg)
			return false
		}
		ss.Sector = l.Sides[seg.Side].Sector
	}
	return true
}
