package wadmap

import "testing"

func TestTextureManager(t *testing.T) {
	m := NewTextureManager([]string{"startan3"}, []string{"FLOOR4_8"})
	tests := []struct {
		name   string
		use    TextureUse
		want   TextureID
		wantOK bool
	}{
		{"-", TextureWall, NoTexture, true},
		{"", TextureFlat, NoTexture, true},
		{"STARTAN3", TextureWall, 2, true},
		{"StartAn3", TextureWall, 2, true},
		{"FLOOR4_8", TextureFlat, 3, true},
		{"FLOOR4_8", TextureWall, DefaultTexture, false},
		{"NOSUCH", TextureFlat, DefaultTexture, false},
	}
	for _, tt := range tests {
		id, ok := m.Lookup(tt.name, tt.use)
		if id != tt.want || ok != tt.wantOK {
			t.Errorf("Lookup(%q, %v) = %d, %v, want %d, %v", tt.name, tt.use, id, ok, tt.want, tt.wantOK)
		}
	}
	if m.Name(2) != "STARTAN3" || m.Name(NoTexture) != "-" || m.Name(99) != "#99" || m.Len() != 4 {
		t.Errorf("names = %q %q %q, Len %d", m.Name(2), m.Name(NoTexture), m.Name(99), m.Len())
	}
}

func TestTextureManagerOpen(t *testing.T) {
	m := NewTextureManager(nil, []string{"FLOOR4_8"})
	a, okA := m.Lookup("ANYWALL", TextureWall)
	b, okB := m.Lookup("anywall", TextureWall)
	if !okA || !okB || a != b || a < 2 {
		t.Errorf("open wall lookups = %d %v, %d %v", a, okA, b, okB)
	}
	if _, ok := m.Lookup("ANYFLAT", TextureFlat); ok {
		t.Errorf("closed flat list accepted an unknown name")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		name   string
		want   uint32
		wantOK bool
	}{
		{"ff0000", 0xff0000, true},
		{"0A", 0x0a, true},
		{"#102030", 0x102030, true},
		{"#102030Z", 0x102030, true},
		{"f", 0, false},
		{"1234567", 0, false},
		{"STARTAN", 0, false},
		{"#1020", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseColor(tt.name)
		if ok != tt.wantOK || (ok && got != tt.want) {
			t.Errorf("ParseColor(%q) = %#x, %v, want %#x, %v", tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseBlend(t *testing.T) {
	tests := []struct {
		name   string
		want   uint32
		wantOK bool
	}{
		{"#102030", 0xff102030, true},
		{"#102030A", 0x00102030, true},
		{"#102030Z", 0xff102030, true},
		{"#102030N", 0x84102030, true},
		{"00ff00", 0xff00ff00, true},
		{"#102030a", 0, false},
		{"-", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseBlend(tt.name)
		if ok != tt.wantOK || (ok && got != tt.want) {
			t.Errorf("ParseBlend(%q) = %#x, %v, want %#x, %v", tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestSideTextureSpecials(t *testing.T) {
	t.Run("transfer heights blends", func(t *testing.T) {
		m := twoRooms()
		// Line 0 controls the east room
		m.lines[0].Type = 242
		m.lines[0].SectorTag = 9
		m.sectors[1].TagNum = 9
		m.sides[0].UpperTexture = name8("#FF0000N")
		m.sides[0].MiddleTexture = name8("STARTAN3")
		l := load(t, m, DefaultOptions())

		ctrl := l.ExtSectors[l.Sectors[0].ExtSector]
		if ctrl.Blends[BlendTop] != 0x84ff0000 || ctrl.Blends[BlendMid] != 0 {
			t.Errorf("control blends = %#x", ctrl.Blends)
		}
		east := l.ExtSectors[l.Sectors[1].ExtSector]
		if east.TransferSector != 0 || east.Blends != ctrl.Blends {
			t.Errorf("east = %+v", east)
		}
		sd := l.Sides[0]
		if sd.TopTexture != NoTexture || sd.MidTexture == NoTexture || sd.MidTexture == DefaultTexture {
			t.Errorf("side textures = %d %d", sd.TopTexture, sd.MidTexture)
		}
	})

	t.Run("static init colours", func(t *testing.T) {
		m := twoRooms()
		m.toExtended()
		m.hexLines[3].Special = SpecialStaticInit
		m.hexLines[3].Args = [5]uint8{4, InitColor}
		m.sectors[0].TagNum = 4
		m.sides[3].UpperTexture = name8("ff8000")
		m.sides[3].LowerTexture = name8("#202020")
		l := load(t, m, DefaultOptions())

		if s := l.Sectors[0]; s.LightColor != 0xff8000 || s.FadeColor != 0x202020 {
			t.Errorf("west colours = %#x %#x", s.LightColor, s.FadeColor)
		}
		if s := l.Sectors[1]; s.LightColor != defaultLightColor || s.FadeColor != defaultFadeColor {
			t.Errorf("east colours = %#x %#x", s.LightColor, s.FadeColor)
		}
		if sd := l.Sides[3]; sd.TopTexture != NoTexture || sd.BottomTexture != NoTexture {
			t.Errorf("colour names resolved as textures")
		}
	})

	t.Run("3D floor", func(t *testing.T) {
		m := twoRooms()
		m.lines[0].Type = 281
		m.lines[0].SectorTag = 2
		m.sectors[1].TagNum = 2
		m.sides[0].UpperTexture = name8("#12")
		l := load(t, m, DefaultOptions())

		if sd := l.Sides[0]; sd.FloorModelID != 12 || sd.TopTexture != NoTexture {
			t.Errorf("side = %+v", sd)
		}
		ff := l.ExtSectors[l.Sectors[1].ExtSector].FFloors
		if len(ff) != 1 || ff[0].ControlSector != 0 || ff[0].Line != 0 || ff[0].Type != 1 || ff[0].Alpha != 255 || ff[0].ModelID != 12 {
			t.Errorf("3D floors = %+v", ff)
		}
		if len(l.ExtSectors[l.Sectors[0].ExtSector].FFloors) != 0 {
			t.Errorf("control sector got a 3D floor")
		}
	})
}
