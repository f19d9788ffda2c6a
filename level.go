package wadmap

import (
	"fmt"
	"math"

	"github.com/stuarthighley/wadmap/behavior"
)

// Level is an assembled map. Entities refer to each other by index into the slices
// below; NoIndex marks an absent reference.
type Level struct {
	Name       string
	Dialect    Dialect
	Things     []Thing
	Lines      []Line
	Sides      []Side
	Vertexes   []Vertex
	Segs       []Seg
	SubSectors []SubSector
	Nodes      []Node
	Sectors    []Sector
	ExtSectors []ExtSector
	Reject     Reject
	BlockMap   *BlockMap
	Tags       *TagManager
	Behavior   *behavior.Module // nil unless the map has a BEHAVIOR lump

	// LineMap maps each assembled line to the linedef number it was loaded from.
	LineMap []int
	// SkippedLines counts degenerate linedefs dropped during the load.
	SkippedLines int

	// Set when the stored structures were rejected and must be built externally.
	NeedsNodeBuild     bool
	NeedsBlockmapBuild bool
	BSPState           BSPState

	Warnings []string
}

// RootNode returns the root of the BSP tree, or nil if there is no accepted tree.
func (l *Level) RootNode() BSPChild {
	if l.BSPState != BSPAccepted {
		return nil
	}
	if len(l.Nodes) == 0 {
		if len(l.SubSectors) == 1 {
			return SubSectorChild(0)
		}
		return nil
	}
	return NodeChild(len(l.Nodes) - 1)
}

type Vertex struct {
	Index   int
	X, Y    float64
	Dirty   bool
	Sectors []int // Sectors touching this vertex, filled by GroupLines
}

type Side struct {
	Index         int
	Line          int
	Sector        int
	XOffset       float64
	YOffset       float64
	TopTexture    TextureID
	MidTexture    TextureID
	BottomTexture TextureID
	LeftSide      int // Neighbouring sides around the shared vertexes
	RightSide     int
	TexelLength   int
	FloorModelID  int // Set by 3D floor specials, NoIndex otherwise
}

// SectorFlags is the sector flag bitset.
type SectorFlags uint32

const (
	SectorFlagFloorDrop SectorFlags = 1 << iota // Things follow a lowering floor
	SectorFlagSecret
	SectorFlagDamage
	SectorFlagFriction
	SectorFlagPush
)

// Sector

type Sector struct {
	Index          int
	FloorPlane     Plane
	CeilingPlane   Plane
	FloorHeight    float64
	CeilingHeight  float64
	FloorTexture   TextureID
	CeilingTexture TextureID
	LightLevel     int
	Special        int
	Tag            int
	Gravity        float64
	Friction       float64
	MoveFactor     float64
	LightColor     uint32 // 0xRRGGBB
	FadeColor      uint32 // 0xRRGGBB
	Flags          SectorFlags
	ExtSector      int

	// Derived
	Lines       []int
	BoundingBox BoundBox
	SoundOrigin Point    // origin for any sounds played by the sector
	BlockBox    BlockBox // mapblock bounding box for height changes
}

// ExtSector carries the data only some sectors need.
type ExtSector struct {
	Sector         int
	FFloors        []FFloor
	TransferSector int       // Sector whose heights are drawn instead, NoIndex if none
	Blends         [3]uint32 // ARGB blends below, between and above the transfer heights
}

// FFloor is a 3D floor: the planes of ControlSector drawn inside the owning sector.
type FFloor struct {
	ControlSector int
	Line          int
	Type          int
	Flags         int
	Alpha         int
	ModelID       int
}

// Blend indexes
const (
	BlendBottom = iota
	BlendMid
	BlendTop
)

type Point struct {
	X, Y, Z float64
}

type BoundBox struct {
	Top, Bottom, Left, Right float64
}

type BlockBox struct {
	Top, Bottom, Left, Right int
}

func newBBox() BoundBox {
	return BoundBox{
		Left:   math.Inf(1),
		Right:  math.Inf(-1),
		Bottom: math.Inf(1),
		Top:    math.Inf(-1),
	}
}

func (b *BoundBox) add(v Vertex) {
	b.Left = min(b.Left, v.X)
	b.Right = max(b.Right, v.X)
	b.Bottom = min(b.Bottom, v.Y)
	b.Top = max(b.Top, v.Y)
}

// ThingFlags is the thing flag bitset after dialect translation.
type ThingFlags uint32

const (
	ThingFlagAmbush     ThingFlags = 0x0008
	ThingFlagDormant    ThingFlags = 0x0010
	ThingFlagSingle     ThingFlags = 0x0100
	ThingFlagCoop       ThingFlags = 0x0200
	ThingFlagDeathmatch ThingFlags = 0x0400
	ThingFlagShadow     ThingFlags = 0x0800
	ThingFlagAltShadow  ThingFlags = 0x1000
	ThingFlagFriendly   ThingFlags = 0x2000
	ThingFlagStandStill ThingFlags = 0x4000
)

type Thing struct {
	Index       int
	ThingID     int
	X, Y, Z     float64
	Angle       int // Degrees
	Type        int
	SkillFilter int // Bit n set means present on skill n
	ClassFilter int // Bit n set means present for player class n
	Flags       ThingFlags
	Special     int
	Args        [5]int
}

type Seg struct {
	Index                   int
	V1, V2                  int
	Line                    int // NoIndex for segs not on a line
	Side                    int
	FrontSector, BackSector int
	Angle                   float64 // Degrees
	Offset                  float64 // Distance along line to start of segment
}

type SubSector struct {
	Index    int
	Sector   int
	FirstSeg int
	NumSegs  int
}

// BSPType tells the two kinds of BSP child apart.
type BSPType int

const (
	BSPNode BSPType = iota
	BSPSubSector
)

// BSPChild is one child slot of a node: either a SubSectorChild or a NodeChild.
type BSPChild interface {
	BSPType() BSPType
	Index() int
}

// SubSectorChild is a leaf child, the index of a subsector.
type SubSectorChild int

// NodeChild is an interior child, the index of a node.
type NodeChild int

func (c SubSectorChild) BSPType() BSPType { return BSPSubSector }
func (c SubSectorChild) Index() int       { return int(c) }
func (c NodeChild) BSPType() BSPType      { return BSPNode }
func (c NodeChild) Index() int            { return int(c) }

func (c SubSectorChild) String() string { return fmt.Sprintf("subsector %d", int(c)) }
func (c NodeChild) String() string      { return fmt.Sprintf("node %d", int(c)) }

type Node struct {
	Index          int
	X, Y           float64
	DX, DY         float64
	BBoxR, BBoxL   BoundBox
	ChildR, ChildL BSPChild
}

// Return child for side
func (n *Node) Child(side int) BSPChild {
	if side == 0 {
		return n.ChildR
	}
	return n.ChildL
}

// Return bound box for side
func (n *Node) BoundBox(side int) *BoundBox {
	if side == 0 {
		return &n.BBoxR
	}
	return &n.BBoxL
}

// BSPState tracks the validation of the stored BSP tree.
type BSPState int

const (
	BSPNotLoaded BSPState = iota
	BSPValidating
	BSPAccepted
	BSPRejectNeedsRebuild
)

func (s BSPState) String() string {
	switch s {
	case BSPNotLoaded:
		return "not loaded"
	case BSPValidating:
		return "validating"
	case BSPAccepted:
		return "accepted"
	case BSPRejectNeedsRebuild:
		return "rejected, needs rebuild"
	}
	return "unknown"
}
