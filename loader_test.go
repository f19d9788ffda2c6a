package wadmap

import (
	"bytes"
	"encoding/binary"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func name8(s string) String8 {
	var n String8
	copy(n[:], s)
	return n
}

func encode(v any) []byte {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// testMap is a binary level under construction.
type testMap struct {
	vertexes []binVertex
	sectors  []binSector
	lines    []binLine
	hexLines []binHexenLine // Makes the level extended format
	sides    []binSide
	things   []binThing
	extra    []Lump            // Lumps after the mandatory ones
	override map[string][]byte // Replaces a generated lump
	omit     map[string]bool
}

func (m *testMap) levelLumps() *LevelLumps {
	lines := encode(m.lines)
	if m.hexLines != nil {
		lines = encode(m.hexLines)
	}
	var lumps []Lump
	for _, l := range []Lump{
		{LumpThings, encode(m.things)},
		{LumpLinedefs, lines},
		{LumpSidedefs, encode(m.sides)},
		{LumpVertexes, encode(m.vertexes)},
		{LumpSectors, encode(m.sectors)},
	} {
		if m.omit[l.Name] {
			continue
		}
		if data, ok := m.override[l.Name]; ok {
			l.Data = data
		}
		lumps = append(lumps, l)
	}
	lumps = append(lumps, m.extra...)
	if m.hexLines != nil {
		lumps = append(lumps, Lump{LumpBehavior, []byte("not a module")})
	}
	return NewLevelLumps("MAP01", lumps)
}

// toExtended stores the lines in the extended format, keeping vertexes, flags and sides.
func (m *testMap) toExtended() {
	m.hexLines = make([]binHexenLine, len(m.lines))
	for i, ld := range m.lines {
		m.hexLines[i] = binHexenLine{VertexStart: ld.VertexStart, VertexEnd: ld.VertexEnd, Flags: ld.Flags, SideR: ld.SideR, SideL: ld.SideL}
	}
	m.things = nil
}

func testTextures() *TextureManager {
	return NewTextureManager([]string{"STARTAN3", "BIGDOOR2"}, []string{"FLOOR4_8", "CEIL3_5"})
}

func load(t *testing.T, m *testMap, opts Options) *Level {
	t.Helper()
	l, err := NewMapLoader(testTextures(), opts).Load(m.levelLumps())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return l
}

func wallSide(sector uint16) binSide {
	return binSide{
		UpperTexture:  name8("-"),
		LowerTexture:  name8("-"),
		MiddleTexture: name8("STARTAN3"),
		SectorNum:     sector,
	}
}

func room(floor, ceiling int16) binSector {
	return binSector{
		FloorHeight:    floor,
		CeilingHeight:  ceiling,
		FloorTexture:   name8("FLOOR4_8"),
		CeilingTexture: name8("CEIL3_5"),
		LightLevel:     160,
	}
}

// squareRoom is a 128 unit square sector walled by four one-sided lines running
// clockwise.
func squareRoom() *testMap {
	return &testMap{
		vertexes: []binVertex{{0, 0}, {0, 128}, {128, 128}, {128, 0}},
		sectors:  []binSector{room(0, 128)},
		lines: []binLine{
			{VertexStart: 0, VertexEnd: 1, Flags: 1, SideR: 0, SideL: noSideOnDisk},
			{VertexStart: 1, VertexEnd: 2, Flags: 1, SideR: 1, SideL: noSideOnDisk},
			{VertexStart: 2, VertexEnd: 3, Flags: 1, SideR: 2, SideL: noSideOnDisk},
			{VertexStart: 3, VertexEnd: 0, Flags: 1, SideR: 3, SideL: noSideOnDisk},
		},
		sides:  []binSide{wallSide(0), wallSide(0), wallSide(0), wallSide(0)},
		things: []binThing{{X: 64, Y: 64, Angle: 90, Type: 1, Options: 7}},
	}
}

// squareRoomBSP adds a stored tree to squareRoom: one subsector holding a seg per line.
func squareRoomBSP() *testMap {
	m := squareRoom()
	m.extra = []Lump{
		{LumpSegs, encode([]binLineSegment{
			{V1: 0, V2: 1, Angle: 16384, LineNum: 0},
			{V1: 1, V2: 2, Angle: 0, LineNum: 1},
			{V1: 2, V2: 3, Angle: -16384, LineNum: 2},
			{V1: 3, V2: 0, Angle: -32768, LineNum: 3},
		})},
		{LumpSSectors, encode([]binSubSector{{NumSegments: 4, StartLineSegment: 0}})},
		{LumpNodes, nil},
	}
	return m
}

// twoRooms splits squareRoom with a two-sided line at x = 64. Sector 0 is the west
// room, sector 1 the east room.
func twoRooms() *testMap {
	return &testMap{
		vertexes: []binVertex{{0, 0}, {0, 128}, {64, 128}, {128, 128}, {128, 0}, {64, 0}},
		sectors:  []binSector{room(0, 128), room(64, 128)},
		lines: []binLine{
			{VertexStart: 0, VertexEnd: 1, Flags: 1, SideR: 0, SideL: noSideOnDisk},
			{VertexStart: 1, VertexEnd: 2, Flags: 1, SideR: 1, SideL: noSideOnDisk},
			{VertexStart: 2, VertexEnd: 3, Flags: 1, SideR: 2, SideL: noSideOnDisk},
			{VertexStart: 3, VertexEnd: 4, Flags: 1, SideR: 3, SideL: noSideOnDisk},
			{VertexStart: 4, VertexEnd: 5, Flags: 1, SideR: 4, SideL: noSideOnDisk},
			{VertexStart: 5, VertexEnd: 0, Flags: 1, SideR: 5, SideL: noSideOnDisk},
			{VertexStart: 2, VertexEnd: 5, Flags: 4, SideR: 6, SideL: 7},
		},
		sides: []binSide{
			wallSide(0), wallSide(0), wallSide(1), wallSide(1),
			wallSide(1), wallSide(0), wallSide(0), wallSide(1),
		},
	}
}

func hasWarning(l *Level, substr string) bool {
	for _, w := range l.Warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestLoadSquareRoom(t *testing.T) {
	l := load(t, squareRoom(), DefaultOptions())

	if l.Dialect != DialectDoom {
		t.Errorf("Dialect = %v, want doom", l.Dialect)
	}
	if len(l.Lines) != 4 || len(l.Sides) != 4 || len(l.Sectors) != 1 || len(l.Things) != 1 {
		t.Fatalf("got %d lines, %d sides, %d sectors, %d things", len(l.Lines), len(l.Sides), len(l.Sectors), len(l.Things))
	}
	for i, li := range l.Lines {
		if li.FrontSector != 0 || li.BackSector != NoIndex {
			t.Errorf("line %d sectors = %d, %d", i, li.FrontSector, li.BackSector)
		}
		if li.Length != 128 || li.Alpha != 1 {
			t.Errorf("line %d length %g alpha %g", i, li.Length, li.Alpha)
		}
		if sd := l.Sides[li.Sides[0]]; sd.Line != i || sd.TexelLength != 128 {
			t.Errorf("side of line %d = %+v", i, sd)
		}
	}

	s := l.Sectors[0]
	if len(s.Lines) != 4 {
		t.Errorf("sector lines = %v", s.Lines)
	}
	if s.SoundOrigin != (Point{X: 64, Y: 64}) {
		t.Errorf("SoundOrigin = %+v", s.SoundOrigin)
	}
	if s.BoundingBox != (BoundBox{Top: 128, Bottom: 0, Left: 0, Right: 128}) {
		t.Errorf("BoundingBox = %+v", s.BoundingBox)
	}
	if s.Gravity != 1 || s.LightColor != defaultLightColor || s.FloorPlane.ZAt(10, 10) != 0 || s.CeilingPlane.ZAt(10, 10) != 128 {
		t.Errorf("sector = %+v", s)
	}
	for i, v := range l.Vertexes {
		if len(v.Sectors) != 1 || v.Sectors[0] != 0 {
			t.Errorf("vertex %d sectors = %v", i, v.Sectors)
		}
	}

	th := l.Things[0]
	if th.SkillFilter != 31 || th.ClassFilter != allClasses {
		t.Errorf("thing filters = %d, %#x", th.SkillFilter, th.ClassFilter)
	}
	if want := ThingFlagSingle | ThingFlagCoop | ThingFlagDeathmatch; th.Flags != want {
		t.Errorf("thing flags = %#x, want %#x", th.Flags, want)
	}

	// No stored tree, blockmap or reject
	if l.BSPState != BSPRejectNeedsRebuild || !l.NeedsNodeBuild || !l.NeedsBlockmapBuild {
		t.Errorf("BSPState %v NeedsNodeBuild %v NeedsBlockmapBuild %v", l.BSPState, l.NeedsNodeBuild, l.NeedsBlockmapBuild)
	}
	if !l.Reject.Empty() || !hasWarning(l, "reject") {
		t.Errorf("expected an empty reject table and a warning, got %q", l.Warnings)
	}
}

func TestSideLoops(t *testing.T) {
	tests := []struct {
		name  string
		m     *testMap
		right []int
	}{
		{"square room", squareRoom(), []int{1, 2, 3, 0}},
		// Each room is walked around separately; the dividing line's sides join both
		{"two rooms", twoRooms(), []int{1, 6, 3, 4, 7, 0, 5, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := load(t, tt.m, DefaultOptions())
			for i, sd := range l.Sides {
				if sd.RightSide != tt.right[i] {
					t.Errorf("side %d RightSide = %d, want %d", i, sd.RightSide, tt.right[i])
				}
				if sd.RightSide != NoIndex && l.Sides[sd.RightSide].LeftSide != i {
					t.Errorf("side %d: right neighbour %d has LeftSide %d", i, sd.RightSide, l.Sides[sd.RightSide].LeftSide)
				}
			}
		})
	}
}

func TestLoadFatal(t *testing.T) {
	tests := []struct {
		name  string
		tweak func(m *testMap)
		want  error
	}{
		{"no vertexes lump", func(m *testMap) { m.omit = map[string]bool{LumpVertexes: true} }, ErrMissingLump},
		{"no sectors lump", func(m *testMap) { m.omit = map[string]bool{LumpSectors: true} }, ErrMissingLump},
		{"no linedefs lump", func(m *testMap) { m.omit = map[string]bool{LumpLinedefs: true} }, ErrMissingLump},
		{"no sidedefs lump", func(m *testMap) { m.omit = map[string]bool{LumpSidedefs: true} }, ErrMissingLump},
		{"no things lump", func(m *testMap) { m.omit = map[string]bool{LumpThings: true} }, ErrMissingLump},
		{"empty sidedefs", func(m *testMap) { m.sides = nil }, ErrMissingLump},
		{"no sectors", func(m *testMap) { m.sectors = nil }, ErrNoSectors},
		{"bad vertex", func(m *testMap) { m.lines[2].VertexEnd = 9 }, ErrBadVertex},
		{"odd vertex lump", func(m *testMap) {
			m.override = map[string][]byte{LumpVertexes: append(encode(m.vertexes), 0)}
		}, ErrRecordSize},
		{"odd segs lump", func(m *testMap) {
			m.extra = append(m.extra, Lump{LumpSegs, make([]byte, 5)}, Lump{LumpSSectors, make([]byte, 4)})
		}, ErrRecordSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := squareRoom()
			tt.tweak(m)
			_, err := NewMapLoader(testTextures(), DefaultOptions()).Load(m.levelLumps())
			if errors.Cause(err) != tt.want {
				t.Errorf("Load() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDegenerateLines(t *testing.T) {
	withZeroLine := func() *testMap {
		m := squareRoom()
		zero := binLine{VertexStart: 2, VertexEnd: 2, SideR: 4, SideL: noSideOnDisk}
		m.lines = append(m.lines[:2], append([]binLine{zero}, m.lines[2:]...)...)
		m.sides = append(m.sides, wallSide(0))
		return m
	}

	l := load(t, withZeroLine(), DefaultOptions())
	if len(l.Lines) != 4 || l.SkippedLines != 1 {
		t.Fatalf("got %d lines, %d skipped", len(l.Lines), l.SkippedLines)
	}
	if want := []int{0, 1, 3, 4}; !equalInts(l.LineMap, want) {
		t.Errorf("LineMap = %v, want %v", l.LineMap, want)
	}
	if !l.NeedsNodeBuild || !hasWarning(l, "0-length") || !hasWarning(l, "unused sidedefs") {
		t.Errorf("NeedsNodeBuild %v, warnings %q", l.NeedsNodeBuild, l.Warnings)
	}
	for i, li := range l.Lines {
		if li.Index != i || li.V1 == li.V2 {
			t.Errorf("line %d = %+v", i, li)
		}
	}

	opts := DefaultOptions()
	opts.KeepDegenerateLines = true
	l = load(t, withZeroLine(), opts)
	if len(l.Lines) != 5 || l.SkippedLines != 0 {
		t.Errorf("kept: got %d lines, %d skipped", len(l.Lines), l.SkippedLines)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBrokenReferencesRepaired(t *testing.T) {
	m := squareRoom()
	m.lines[1].SideR = 99
	m.sides[2].SectorNum = 7
	l := load(t, m, DefaultOptions())

	if !hasWarning(l, "bad front sidedef 99") || !hasWarning(l, "bad sector 7") {
		t.Errorf("warnings = %q", l.Warnings)
	}
	if sd := l.Sides[l.Lines[2].Sides[0]]; sd.Sector != 0 {
		t.Errorf("side sector = %d, want 0", sd.Sector)
	}
	// Line 1 now shares sidedef 0; side 1 is unused
	if !hasWarning(l, "1 unused sidedefs") {
		t.Errorf("warnings = %q", l.Warnings)
	}
}

func TestMissingTextureWarnings(t *testing.T) {
	m := squareRoom()
	for i := range m.sides {
		m.sides[i].MiddleTexture = name8("NOSUCH")
	}
	opts := DefaultOptions()
	opts.MissingTextureWarnLimit = 2
	l := load(t, m, opts)

	n := 0
	for _, w := range l.Warnings {
		if strings.Contains(w, `"NOSUCH"`) {
			n++
		}
	}
	// Two warnings and the suppression notice
	if n != 3 {
		t.Errorf("got %d warnings about NOSUCH, want 3: %q", n, l.Warnings)
	}
	for _, sd := range l.Sides {
		if sd.MidTexture != DefaultTexture || sd.TopTexture != NoTexture {
			t.Errorf("side textures = %d, %d", sd.MidTexture, sd.TopTexture)
		}
	}
}

func TestTranslucentLines(t *testing.T) {
	t.Run("legacy self", func(t *testing.T) {
		m := squareRoom()
		m.lines[0].Type = 260
		m.sides[0].MiddleTexture = name8("TRANMAP")
		l := load(t, m, DefaultOptions())
		li := l.Lines[0]
		if li.Special != 0 || math.Abs(li.Alpha-168.0/255) > 1e-9 || li.Additive {
			t.Errorf("line 0 = special %d alpha %g additive %v", li.Special, li.Alpha, li.Additive)
		}
		if l.Sides[li.Sides[0]].MidTexture != NoTexture {
			t.Errorf("TRANMAP middle texture kept")
		}
		if l.Lines[1].Alpha != 1 {
			t.Errorf("line 1 alpha = %g", l.Lines[1].Alpha)
		}
	})

	t.Run("extended by id", func(t *testing.T) {
		m := squareRoom()
		m.toExtended()
		m.hexLines[0].Special = SpecialTranslucentLine
		m.hexLines[0].Args = [5]uint8{5, 128, 1}
		m.hexLines[2].Special = SpecialLineSetIdentification
		m.hexLines[2].Args = [5]uint8{5}
		m.hexLines[3].Special = SpecialLineSetIdentification
		m.hexLines[3].Args = [5]uint8{5}

		l := load(t, m, DefaultOptions())
		if l.Dialect != DialectHexen {
			t.Fatalf("Dialect = %v", l.Dialect)
		}
		if got := l.Tags.LinesWithID(5); !equalInts(got, []int{0, 2, 3}) {
			t.Errorf("lines with id 5 = %v", got)
		}
		for _, i := range []int{0, 2, 3} {
			li := l.Lines[i]
			if math.Abs(li.Alpha-128.0/255) > 1e-9 || !li.Additive {
				t.Errorf("line %d alpha %g additive %v", i, li.Alpha, li.Additive)
			}
		}
		if l.Lines[1].Alpha != 1 || l.Lines[1].Additive {
			t.Errorf("line 1 changed: %+v", l.Lines[1])
		}
		if l.Lines[2].Special != 0 {
			t.Errorf("Line_SetIdentification kept")
		}
		// The module is junk; loading goes on without it
		if l.Behavior != nil || !hasWarning(l, "BEHAVIOR") {
			t.Errorf("Behavior = %v, warnings %q", l.Behavior, l.Warnings)
		}
		if l.Sectors[0].Flags&SectorFlagFloorDrop == 0 {
			t.Errorf("extended format sector lacks FloorDrop")
		}
	})
}

func TestPlaneAlign(t *testing.T) {
	m := twoRooms()
	m.toExtended()
	m.hexLines[6].Special = SpecialPlaneAlign
	m.hexLines[6].Args = [5]uint8{alignFront}
	l := load(t, m, DefaultOptions())

	west := l.Sectors[0]
	if !west.FloorPlane.IsSloped() || west.CeilingPlane.IsSloped() {
		t.Fatalf("west floor %+v ceiling %+v", west.FloorPlane, west.CeilingPlane)
	}
	for _, p := range []struct{ x, y, z float64 }{{64, 50, 64}, {0, 10, 0}, {32, 100, 32}} {
		if z := west.FloorPlane.ZAt(p.x, p.y); math.Abs(z-p.z) > 1e-9 {
			t.Errorf("floor at (%g,%g) = %g, want %g", p.x, p.y, z, p.z)
		}
	}
	if west.FloorPlane.Normal.Z() <= 0 {
		t.Errorf("floor normal %v faces down", west.FloorPlane.Normal)
	}
	if l.Sectors[1].FloorPlane.IsSloped() || l.Lines[6].Special != 0 {
		t.Errorf("east floor sloped or special kept")
	}
}

// Doom format line types share numbers with extended specials but not their meaning.
func TestLegacyLineTypes(t *testing.T) {
	for _, typ := range []int{
		SpecialTranslucentLine,
		SpecialTransferHeights,
		SpecialPlaneAlign,
		SpecialStaticInit,
		SpecialSectorSet3DFloor,
		SpecialLineSetIdentification,
		1,
	} {
		t.Run(strconv.Itoa(typ), func(t *testing.T) {
			m := twoRooms()
			m.lines[6].Type = uint16(typ)
			m.lines[6].SectorTag = 1
			m.sectors[1].TagNum = 1
			m.sides[6].UpperTexture = name8("FF8000")
			l := load(t, m, DefaultOptions())

			li := l.Lines[6]
			if li.Special != 0 || li.LegacySpecial != typ || li.Args[0] != 1 {
				t.Errorf("line 6 = special %d legacy %d args %v", li.Special, li.LegacySpecial, li.Args)
			}
			if got := l.Tags.LinesWithID(1); !equalInts(got, []int{6}) {
				t.Errorf("lines with id 1 = %v", got)
			}
			for i, li := range l.Lines {
				if li.Alpha != 1 || li.Additive {
					t.Errorf("line %d alpha %g additive %v", i, li.Alpha, li.Additive)
				}
			}
			for i, s := range l.Sectors {
				if s.FloorPlane.IsSloped() || s.CeilingPlane.IsSloped() || s.LightColor != defaultLightColor {
					t.Errorf("sector %d = %+v", i, s)
				}
				ext := l.ExtSectors[s.ExtSector]
				if ext.TransferSector != NoIndex || ext.Blends != [3]uint32{} || len(ext.FFloors) != 0 {
					t.Errorf("ext sector %d = %+v", i, ext)
				}
			}
			if sd := l.Sides[li.Sides[0]]; sd.TopTexture != DefaultTexture || sd.FloorModelID != NoIndex {
				t.Errorf("side of line 6 = %+v", sd)
			}
		})
	}
}

func TestLoaderSingleUse(t *testing.T) {
	ml := NewMapLoader(testTextures(), DefaultOptions())
	if _, err := ml.Load(squareRoom().levelLumps()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := ml.Load(squareRoom().levelLumps()); err == nil {
		t.Errorf("second Load() succeeded")
	}
}
