package wadmap

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Plane_Align argument values
const (
	alignFront = 1 // Slope the front sector to meet the back sector
	alignBack  = 2 // Slope the back sector to meet the front sector
)

// setSlopes applies Plane_Align lines. args[0] controls the floor and args[1] the
// ceiling; if args[1] is 0, bits 2-3 of args[0] control the ceiling. The special is
// consumed.
func (ml *MapLoader) setSlopes() {
	l := ml.level
	for i := range l.Lines {
		li := &l.Lines[i]
		if li.Special != SpecialPlaneAlign {
			continue
		}
		li.Special = 0
		if li.BackSector == NoIndex || li.FrontSector == NoIndex {
			continue
		}
		for s := 0; s < 2; s++ {
			bits := li.Args[s] & 3
			if s == 1 && bits == 0 {
				bits = (li.Args[0] >> 2) & 3
			}
			floor := s == 0
			switch bits {
			case alignFront:
				ml.alignPlane(li.FrontSector, li, floor)
			case alignBack:
				ml.alignPlane(li.BackSector, li, floor)
			}
		}
	}
}

// alignPlane slopes a plane of sector sec so that it meets the other sector of li along
// li and keeps its own height at the sector vertex farthest from li.
func (ml *MapLoader) alignPlane(sec int, li *Line, floor bool) {
	l := ml.level
	s := &l.Sectors[sec]
	if len(s.Lines) == 0 {
		return
	}

	// Find furthest vertex from the reference line. It, along with the two ends
	// of the line, will define the plane.
	v1 := l.Vertexes[li.V1]
	refVert := l.Vertexes[l.Lines[s.Lines[0]].V1]
	bestDist := 0.0
	for _, j := range s.Lines {
		for _, v := range []int{l.Lines[j].V1, l.Lines[j].V2} {
			vert := l.Vertexes[v]
			dist := math.Abs((v1.Y-vert.Y)*li.DX - (v1.X-vert.X)*li.DY)
			if dist > bestDist {
				bestDist = dist
				refVert = vert
			}
		}
	}
	if bestDist == 0 {
		ml.warnf("line %d: sector %d cannot be aligned, it has no vertex off the line", l.LineMap[li.Index], sec)
		return
	}

	refSec := li.FrontSector
	if refSec == sec {
		refSec = li.BackSector
	}
	srcHeight, destHeight := s.CeilingHeight, l.Sectors[refSec].CeilingHeight
	if floor {
		srcHeight, destHeight = s.FloorHeight, l.Sectors[refSec].FloorHeight
	}

	p1 := mgl64.Vec3{v1.X, v1.Y, destHeight}
	p2 := mgl64.Vec3{v1.X + li.DX, v1.Y + li.DY, destHeight}
	p3 := mgl64.Vec3{refVert.X, refVert.Y, srcHeight}
	plane, ok := planeThrough(p1, p2, p3, floor)
	if !ok {
		return
	}
	if floor {
		s.FloorPlane = plane
	} else {
		s.CeilingPlane = plane
	}
}
