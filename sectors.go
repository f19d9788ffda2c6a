package wadmap

import (
	"go.uber.org/zap"
)

// Sector defaults
const (
	defaultFriction   = 59392. / 65536.
	defaultMoveFactor = 2048. / 65536.
	defaultLightColor = 0xffffff
	defaultFadeColor  = 0x000000
)

func (ml *MapLoader) loadSectors(mss []MapSector, hasBehavior bool) error {
	logger.Debug("reading sectors")
	if len(mss) == 0 {
		return ErrNoSectors
	}

	sectors := make([]Sector, len(mss))
	extSectors := make([]ExtSector, len(mss))
	for i, ms := range mss {
		s := &sectors[i] // Point to element
		s.Index = i
		s.FloorHeight = ms.FloorHeight
		s.CeilingHeight = ms.CeilingHeight
		s.FloorPlane = NewFlatPlane(ms.FloorHeight, true)
		s.CeilingPlane = NewFlatPlane(ms.CeilingHeight, false)
		s.FloorTexture = ml.texture(ms.FloorTexture, TextureFlat, "sector floor", i)
		s.CeilingTexture = ml.texture(ms.CeilingTexture, TextureFlat, "sector ceiling", i)
		s.LightLevel = ms.LightLevel

		if ml.level.Dialect == DialectDoom {
			s.Special = translateLegacySector(ms.Special)
		} else {
			s.Special = ms.Special
		}
		s.Flags = sectorSpecialFlags(s.Special)
		if hasBehavior {
			s.Flags |= SectorFlagFloorDrop
		}

		s.Tag = ms.Tag
		ml.level.Tags.AddSectorTag(i, ms.Tag)

		s.Gravity = 1
		if ms.Gravity != 0 {
			s.Gravity = ms.Gravity
		}
		s.Friction = defaultFriction
		s.MoveFactor = defaultMoveFactor
		s.LightColor = defaultLightColor
		if ms.LightColor >= 0 {
			s.LightColor = uint32(ms.LightColor) & 0xffffff
		}
		s.FadeColor = defaultFadeColor
		if ms.FadeColor >= 0 {
			s.FadeColor = uint32(ms.FadeColor) & 0xffffff
		}

		s.ExtSector = i
		extSectors[i] = ExtSector{Sector: i, TransferSector: NoIndex}
	}
	ml.level.Sectors = sectors
	ml.level.ExtSectors = extSectors
	logger.Debug("read sectors", zap.Int("count", len(sectors)))
	return nil
}
