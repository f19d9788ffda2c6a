package wadmap

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// loadSidedefs fills in the allocated sides from the sidedefs they were loaded from.
func (ml *MapLoader) loadSidedefs(msds []MapSidedef) {
	logger.Debug("reading sides")
	l := ml.level
	used := make([]bool, len(msds))
	for i := range l.Sides {
		sd := &l.Sides[i] // Point to element
		si := ml.sideInit[i]
		msd := msds[si.mapIndex]
		used[si.mapIndex] = true

		sd.XOffset = msd.XOffset
		sd.YOffset = msd.YOffset
		sd.Sector = msd.Sector
		if sd.Sector < 0 || sd.Sector >= len(l.Sectors) {
			ml.warnf("sidedef %d has a bad sector %d", si.mapIndex, msd.Sector)
			sd.Sector = 0
		}
		ml.processSideTextures(i, &msd, si.special, si.tag)
	}

	unused := 0
	for _, u := range used {
		if !u {
			unused++
		}
	}
	if unused > 0 {
		ml.warnf("%d unused sidedefs", unused)
	}
	logger.Debug("read sides", zap.Int("count", len(l.Sides)))
}

// processSideTextures sets the textures of side i. Some line specials give texture
// names another meaning.
func (ml *MapLoader) processSideTextures(i int, msd *MapSidedef, special, tag int) {
	l := ml.level
	sd := &l.Sides[i]
	wall := func(name, what string) TextureID {
		return ml.texture(name, TextureWall, what, i)
	}

	switch special {
	case SpecialTransferHeights:
		// Names that are not textures are colour blends of the control sector
		ext := &l.ExtSectors[l.Sectors[sd.Sector].ExtSector]
		sd.TopTexture = ml.blendOrTexture(msd.TopTexture, &ext.Blends[BlendTop], i)
		sd.MidTexture = ml.blendOrTexture(msd.MidTexture, &ext.Blends[BlendMid], i)
		sd.BottomTexture = ml.blendOrTexture(msd.BottomTexture, &ext.Blends[BlendBottom], i)
		for _, s := range l.Tags.SectorsWithTag(tag) {
			tx := &l.ExtSectors[l.Sectors[s].ExtSector]
			tx.TransferSector = sd.Sector
			tx.Blends = ext.Blends
		}

	case SpecialStaticInit:
		// Upper name is the light colour, lower name the fog colour
		color, colorOK := ml.colorOrTexture(msd.TopTexture, &sd.TopTexture)
		fog, fogOK := ml.colorOrTexture(msd.BottomTexture, &sd.BottomTexture)
		sd.MidTexture = wall(msd.MidTexture, "side middle")
		if colorOK || fogOK {
			for _, s := range l.Tags.SectorsWithTag(tag) {
				if colorOK {
					l.Sectors[s].LightColor = color
				}
				if fogOK {
					l.Sectors[s].FadeColor = fog
				}
			}
		}

	case SpecialSectorSet3DFloor:
		if strings.HasPrefix(msd.TopTexture, "#") {
			if n, err := strconv.Atoi(msd.TopTexture[1:]); err == nil {
				sd.FloorModelID = n
			} else {
				ml.warnf("side %d has a bad 3D floor model %q", i, msd.TopTexture)
			}
			sd.TopTexture = NoTexture
		} else {
			sd.TopTexture = wall(msd.TopTexture, "side upper")
		}
		sd.MidTexture = wall(msd.MidTexture, "side middle")
		sd.BottomTexture = wall(msd.BottomTexture, "side lower")

	case SpecialTranslucentLine:
		// A translucency table name in the middle slot is not drawn
		if msd.MidTexture == "TRANMAP" {
			sd.MidTexture = NoTexture
		} else {
			sd.MidTexture = wall(msd.MidTexture, "side middle")
		}
		sd.TopTexture = wall(msd.TopTexture, "side upper")
		sd.BottomTexture = wall(msd.BottomTexture, "side lower")

	default:
		sd.TopTexture = wall(msd.TopTexture, "side upper")
		sd.MidTexture = wall(msd.MidTexture, "side middle")
		sd.BottomTexture = wall(msd.BottomTexture, "side lower")
	}
}

// blendOrTexture resolves name as a wall texture, or failing that as a blend colour.
func (ml *MapLoader) blendOrTexture(name string, blend *uint32, side int) TextureID {
	if id, ok := ml.textures.Lookup(name, TextureWall); ok {
		*blend = 0
		return id
	}
	if c, ok := ParseBlend(name); ok {
		*blend = c
		return NoTexture
	}
	return ml.texture(name, TextureWall, "side", side)
}

// colorOrTexture resolves name as a wall texture into id. Names that are not textures
// are parsed as a colour; ok reports whether that succeeded.
func (ml *MapLoader) colorOrTexture(name string, id *TextureID) (uint32, bool) {
	if tid, found := ml.textures.Lookup(name, TextureWall); found {
		*id = tid
		return 0, false
	}
	*id = NoTexture
	return ParseColor(name)
}

// ParseColor parses a colour given as a texture name: 2 to 6 hex digits, or the
// "#RRGGBB" form with an optional trailing intensity letter. The result is 0xRRGGBB.
func ParseColor(name string) (uint32, bool) {
	if strings.HasPrefix(name, "#") {
		c, ok := parseHashColor(name)
		return c & 0xffffff, ok
	}
	if len(name) < 2 || len(name) > 6 {
		return 0, false
	}
	v, err := strconv.ParseUint(name, 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// ParseBlend parses a blend given as a texture name in the "#RRGGBB[A-Z]" form, where
// the letter gives the opacity from A (transparent) to Z (opaque). The result is
// 0xAARRGGBB. Bare hex names are opaque.
func ParseBlend(name string) (uint32, bool) {
	if strings.HasPrefix(name, "#") {
		return parseHashColor(name)
	}
	c, ok := ParseColor(name)
	return c | 0xff000000, ok
}

func parseHashColor(name string) (uint32, bool) {
	if len(name) != 7 && len(name) != 8 {
		return 0, false
	}
	rgb, err := strconv.ParseUint(name[1:7], 16, 32)
	if err != nil {
		return 0, false
	}
	alpha := uint32(0xff)
	if len(name) == 8 {
		letter := name[7]
		if letter < 'A' || letter > 'Z' {
			return 0, false
		}
		alpha = uint32(letter-'A') * 255 / 25
	}
	return alpha<<24 | uint32(rgb), true
}
