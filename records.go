package wadmap

import (
	"encoding/binary"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// NoIndex marks an absent reference (no side, no sector, no id).
const NoIndex = -1

// On-disk value of an absent side reference.
const noSideOnDisk = 0xffff

// Binary record layouts. Field order and widths match the lumps exactly.

type binVertex struct {
	X, Y int16
}

type binSector struct {
	FloorHeight    int16
	CeilingHeight  int16
	FloorTexture   String8
	CeilingTexture String8
	LightLevel     int16
	Type           int16
	TagNum         int16
}

type binLine struct {
	VertexStart, VertexEnd uint16
	Flags                  uint16
	Type                   uint16
	SectorTag              uint16
	SideR, SideL           uint16
}

type binHexenLine struct {
	VertexStart, VertexEnd uint16
	Flags                  uint16
	Special                uint8
	Args                   [5]uint8
	SideR, SideL           uint16
}

type binSide struct {
	XOffset       int16
	YOffset       int16
	UpperTexture  String8
	LowerTexture  String8
	MiddleTexture String8
	SectorNum     uint16
}

type binThing struct {
	X       int16
	Y       int16
	Angle   int16
	Type    int16
	Options int16
}

type binHexenThing struct {
	ThingID int16
	X       int16
	Y       int16
	Z       int16
	Angle   int16
	Type    int16
	Flags   int16
	Special uint8
	Args    [5]uint8
}

type binLineSegment struct {
	V1        uint16
	V2        uint16
	Angle     int16 // Full circle is -32768 to 32767.
	LineNum   uint16
	Direction int16 // 0 - same as linedef, 1 - opposite to linedef
	Offset    int16 // Distance along line to start of segment
}

type binSubSector struct {
	NumSegments      uint16
	StartLineSegment uint16
}

type binBBox struct {
	Top    int16
	Bottom int16
	Left   int16
	Right  int16
}

type binNode struct {
	X, Y                 int16
	DX, DY               int16
	BBoxR, BBoxL         binBBox
	ChildNumR, ChildNumL uint16
}

type binBlockMapHeader struct {
	OriginX, OriginY int16
	Columns, Rows    int16
}

// Record sizes in bytes.
var (
	VertexSize         = binary.Size(binVertex{})
	SectorSize         = binary.Size(binSector{})
	LinedefSize        = binary.Size(binLine{})
	HexenLinedefSize   = binary.Size(binHexenLine{})
	SidedefSize        = binary.Size(binSide{})
	ThingSize          = binary.Size(binThing{})
	HexenThingSize     = binary.Size(binHexenThing{})
	SegSize            = binary.Size(binLineSegment{})
	SubSectorSize      = binary.Size(binSubSector{})
	NodeSize           = binary.Size(binNode{})
	BlockmapHeaderSize = binary.Size(binBlockMapHeader{})
)

// Map records are the dialect independent form of the on-disk entities. The binary
// decoders and the TEXTMAP parser both produce them.

type MapVertex struct {
	X, Y float64
}

type MapSector struct {
	FloorHeight    float64
	CeilingHeight  float64
	FloorTexture   string
	CeilingTexture string
	LightLevel     int
	Special        int
	Tag            int
	Gravity        float64 // 0 means default
	LightColor     int     // 0xRRGGBB, NoIndex means default
	FadeColor      int     // 0xRRGGBB, NoIndex means default
}

type MapLinedef struct {
	V1, V2     int
	Flags      LineFlags
	Activation Activation
	Special    int
	Args       [5]int
	Tag        int     // Doom format sector tag
	ID         int     // Explicit line id (text format), NoIndex if unset
	Sides      [2]int  // Front and back sidedef, NoIndex if absent
	Alpha      float64 // Explicit alpha (text format), negative if unset
	Additive   bool

	// Doom format line type as stored, 0 in the other dialects
	LegacySpecial int
}

type MapSidedef struct {
	XOffset       float64
	YOffset       float64
	TopTexture    string
	BottomTexture string
	MidTexture    string
	Sector        int
}

type MapThing struct {
	ThingID int
	X, Y, Z float64
	Angle   int
	Type    int
	Options int // Raw option bits
	Special int
	Args    [5]int

	// Set by the text format parser, which has no packed option bits.
	Explicit    bool
	SkillFilter int
	ClassFilter int
	Flags       ThingFlags
}

type MapSeg struct {
	V1, V2  int
	Angle   int // 16 bit binary angle
	Linedef int
	Side    int
	Offset  int
}

type MapSubSector struct {
	NumSegs  int
	FirstSeg int
}

type MapNode struct {
	X, Y, DX, DY float64
	BBox         [2]BoundBox
	Children     [2]int // Raw child values, bit 15 set for subsectors
}

// decodeRecords decodes a lump of fixed size records of type B and translates each one.
func decodeRecords[B any, T any](lump []byte, what string, translate func(*B) T) ([]T, error) {
	var zero B
	width := binary.Size(zero)
	if len(lump)%width != 0 {
		return nil, errors.Wrapf(ErrRecordSize, "%s: %d bytes, record size %d", what, len(lump), width)
	}
	count := len(lump) / width
	bins := make([]B, count)
	c := NewCursor(lump)
	c.Read(bins)
	if err := c.Err(); err != nil {
		return nil, errors.Wrap(err, what)
	}
	records := make([]T, count)
	for i := range bins {
		records[i] = translate(&bins[i])
	}
	logger.Debug("decoded lump", zap.String("lump", what), zap.Int("count", count))
	return records, nil
}

func sideRef(v uint16) int {
	if v == noSideOnDisk {
		return NoIndex
	}
	return int(v)
}

func upperName(s String8) string {
	return strings.ToUpper(s.String())
}

// DecodeVertexes decodes a VERTEXES lump.
func DecodeVertexes(lump []byte) ([]MapVertex, error) {
	return decodeRecords(lump, LumpVertexes, func(v *binVertex) MapVertex {
		return MapVertex{X: float64(v.X), Y: float64(v.Y)}
	})
}

// DecodeSectors decodes a SECTORS lump.
func DecodeSectors(lump []byte) ([]MapSector, error) {
	return decodeRecords(lump, LumpSectors, func(s *binSector) MapSector {
		return MapSector{
			FloorHeight:    float64(s.FloorHeight),
			CeilingHeight:  float64(s.CeilingHeight),
			FloorTexture:   upperName(s.FloorTexture),
			CeilingTexture: upperName(s.CeilingTexture),
			LightLevel:     int(s.LightLevel),
			Special:        int(s.Type),
			Tag:            int(s.TagNum),
			LightColor:     NoIndex,
			FadeColor:      NoIndex,
		}
	})
}

// DecodeLinedefs decodes a LINEDEFS lump in the layout used by dialect d.
func DecodeLinedefs(d Dialect, lump []byte) ([]MapLinedef, error) {
	switch d {
	case DialectDoom:
		return decodeRecords(lump, LumpLinedefs, func(l *binLine) MapLinedef {
			return MapLinedef{
				V1:      int(l.VertexStart),
				V2:      int(l.VertexEnd),
				Flags:   LineFlags(l.Flags),
				Special: int(l.Type),
				Tag:     int(l.SectorTag),
				ID:      NoIndex,
				Sides:   [2]int{sideRef(l.SideR), sideRef(l.SideL)},
				Alpha:   -1,
			}
		})
	case DialectHexen:
		return decodeRecords(lump, LumpLinedefs, func(l *binHexenLine) MapLinedef {
			flags := LineFlags(l.Flags)
			ld := MapLinedef{
				V1:         int(l.VertexStart),
				V2:         int(l.VertexEnd),
				Flags:      flags &^ lineFlagSPACMask,
				Activation: activationFromSPAC(int(flags&lineFlagSPACMask) >> lineFlagSPACShift),
				Special:    int(l.Special),
				ID:         NoIndex,
				Sides:      [2]int{sideRef(l.SideR), sideRef(l.SideL)},
				Alpha:      -1,
			}
			for i, a := range l.Args {
				ld.Args[i] = int(a)
			}
			return ld
		})
	}
	return nil, errors.Errorf("%s: no binary linedef layout for %v", LumpLinedefs, d)
}

// DecodeSidedefs decodes a SIDEDEFS lump.
func DecodeSidedefs(lump []byte) ([]MapSidedef, error) {
	return decodeRecords(lump, LumpSidedefs, func(s *binSide) MapSidedef {
		return MapSidedef{
			XOffset:       float64(s.XOffset),
			YOffset:       float64(s.YOffset),
			TopTexture:    upperName(s.UpperTexture),
			BottomTexture: upperName(s.LowerTexture),
			MidTexture:    upperName(s.MiddleTexture),
			Sector:        int(s.SectorNum),
		}
	})
}

// DecodeThings decodes a THINGS lump in the layout used by dialect d.
func DecodeThings(d Dialect, lump []byte) ([]MapThing, error) {
	switch d {
	case DialectDoom:
		return decodeRecords(lump, LumpThings, func(t *binThing) MapThing {
			return MapThing{
				X:       float64(t.X),
				Y:       float64(t.Y),
				Angle:   int(t.Angle),
				Type:    int(t.Type),
				Options: int(uint16(t.Options)),
			}
		})
	case DialectHexen:
		return decodeRecords(lump, LumpThings, func(t *binHexenThing) MapThing {
			th := MapThing{
				ThingID: int(t.ThingID),
				X:       float64(t.X),
				Y:       float64(t.Y),
				Z:       float64(t.Z),
				Angle:   int(t.Angle),
				Type:    int(t.Type),
				Options: int(uint16(t.Flags)),
				Special: int(t.Special),
			}
			for i, a := range t.Args {
				th.Args[i] = int(a)
			}
			return th
		})
	}
	return nil, errors.Errorf("%s: no binary thing layout for %v", LumpThings, d)
}

// DecodeSegs decodes a SEGS lump.
func DecodeSegs(lump []byte) ([]MapSeg, error) {
	return decodeRecords(lump, LumpSegs, func(s *binLineSegment) MapSeg {
		return MapSeg{
			V1:      int(s.V1),
			V2:      int(s.V2),
			Angle:   int(uint16(s.Angle)),
			Linedef: int(s.LineNum),
			Side:    int(s.Direction),
			Offset:  int(s.Offset),
		}
	})
}

// DecodeSubSectors decodes a SSECTORS lump.
func DecodeSubSectors(lump []byte) ([]MapSubSector, error) {
	return decodeRecords(lump, LumpSSectors, func(s *binSubSector) MapSubSector {
		return MapSubSector{NumSegs: int(s.NumSegments), FirstSeg: int(s.StartLineSegment)}
	})
}

// DecodeNodes decodes a NODES lump.
func DecodeNodes(lump []byte) ([]MapNode, error) {
	return decodeRecords(lump, LumpNodes, func(n *binNode) MapNode {
		return MapNode{
			X:        float64(n.X),
			Y:        float64(n.Y),
			DX:       float64(n.DX),
			DY:       float64(n.DY),
			BBox:     [2]BoundBox{bboxFromBin(n.BBoxR), bboxFromBin(n.BBoxL)},
			Children: [2]int{int(n.ChildNumR), int(n.ChildNumL)},
		}
	})
}

func bboxFromBin(b binBBox) BoundBox {
	return BoundBox{
		Top:    float64(b.Top),
		Bottom: float64(b.Bottom),
		Left:   float64(b.Left),
		Right:  float64(b.Right),
	}
}

// MapBlockmap is a BLOCKMAP lump expanded to 32 bit words. Words[0:4] is the header;
// list offsets are zero-extended and -1 terminators are kept as -1.
type MapBlockmap struct {
	OriginX, OriginY int
	Columns, Rows    int
	Words            []int32
}

// DecodeBlockmap decodes a BLOCKMAP lump. Offsets other than -1 are treated as unsigned,
// which doubles the size of blockmaps that can be addressed.
func DecodeBlockmap(lump []byte) (*MapBlockmap, error) {
	if len(lump)%2 != 0 {
		return nil, errors.Wrapf(ErrRecordSize, "%s: %d bytes, record size 2", LumpBlockmap, len(lump))
	}
	c := NewCursor(lump)
	var header binBlockMapHeader
	c.Read(&header)
	if err := c.Err(); err != nil {
		return nil, errors.Wrap(err, LumpBlockmap)
	}
	count := len(lump) / 2
	words := make([]int32, count)
	words[0] = int32(header.OriginX)
	words[1] = int32(header.OriginY)
	words[2] = int32(uint16(header.Columns))
	words[3] = int32(uint16(header.Rows))
	for i := 4; i < count; i++ {
		t := c.Int16()
		if t == -1 {
			words[i] = -1
		} else {
			words[i] = int32(uint16(t))
		}
	}
	return &MapBlockmap{
		OriginX: int(words[0]),
		OriginY: int(words[1]),
		Columns: int(words[2]),
		Rows:    int(words[3]),
		Words:   words,
	}, c.Err()
}
