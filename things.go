package wadmap

import "go.uber.org/zap"

// Legacy thing option bits
const (
	thingSkill12 = 0x0001
	thingSkill3  = 0x0002
	thingSkill45 = 0x0004
	thingAmbush  = 0x0008

	// Boom and MBF
	thingNotSingle      = 0x0010
	thingNotDeathmatch  = 0x0020
	thingNotCoop        = 0x0040
	thingFriendly       = 0x0080
	thingBadEditorCheck = 0x0100 // Set by broken editors; the extra bits are garbage

	// Strife
	strifeStandStill = 0x0008
	strifeAmbush     = 0x0020
	strifeFriendly   = 0x0040
	strifeShadow     = 0x0100
	strifeAltShadow  = 0x0200
)

// Extended format player class bits. The other bits match ThingFlags.
const (
	hexenClassMask  = 0x00e0
	hexenClassShift = 5
)

// Every player class
const allClasses = 0xffff

// makeSkill expands the three skill bits into a filter over the five skills.
func makeSkill(flags int) int {
	res := 0
	if flags&thingSkill12 != 0 {
		res |= 1 | 2
	}
	if flags&thingSkill3 != 0 {
		res |= 4
	}
	if flags&thingSkill45 != 0 {
		res |= 8 | 16
	}
	return res
}

// translateLegacyThingFlags converts legacy option bits to the extended layout.
func translateLegacyThingFlags(options int, game Game) ThingFlags {
	var flags ThingFlags
	if game == GameStrife {
		if options&strifeStandStill != 0 {
			flags |= ThingFlagStandStill
		}
		if options&strifeAmbush != 0 {
			flags |= ThingFlagAmbush
		}
		if options&strifeFriendly != 0 {
			flags |= ThingFlagFriendly
		}
		if options&strifeShadow != 0 {
			flags |= ThingFlagShadow
		}
		if options&strifeAltShadow != 0 {
			flags |= ThingFlagAltShadow
		}
		flags |= ThingFlagCoop | ThingFlagDeathmatch
		if options&thingNotSingle == 0 {
			flags |= ThingFlagSingle
		}
		return flags
	}

	if options&thingBadEditorCheck != 0 {
		options &= 0x1f
	}
	if options&thingAmbush != 0 {
		flags |= ThingFlagAmbush
	}
	if options&thingNotSingle == 0 {
		flags |= ThingFlagSingle
	}
	if options&thingNotDeathmatch == 0 {
		flags |= ThingFlagDeathmatch
	}
	if options&thingNotCoop == 0 {
		flags |= ThingFlagCoop
	}
	if options&thingFriendly != 0 {
		flags |= ThingFlagFriendly
	}
	return flags
}

func (ml *MapLoader) loadThings(mts []MapThing) {
	logger.Debug("reading things")
	things := make([]Thing, len(mts))
	for i, mt := range mts {
		t := &things[i] // Point to element
		*t = Thing{
			Index:   i,
			ThingID: mt.ThingID,
			X:       mt.X,
			Y:       mt.Y,
			Z:       mt.Z,
			Angle:   mt.Angle,
			Type:    mt.Type,
			Special: mt.Special,
			Args:    mt.Args,
		}
		switch {
		case mt.Explicit:
			t.SkillFilter = mt.SkillFilter
			t.ClassFilter = mt.ClassFilter
			t.Flags = mt.Flags
		case ml.level.Dialect == DialectDoom:
			t.SkillFilter = makeSkill(mt.Options)
			t.ClassFilter = allClasses
			t.Flags = translateLegacyThingFlags(mt.Options, ml.opts.Game)
		default:
			t.SkillFilter = makeSkill(mt.Options)
			t.ClassFilter = (mt.Options & hexenClassMask) >> hexenClassShift
			t.Flags = ThingFlags(mt.Options &^ (thingSkill12 | thingSkill3 | thingSkill45 | hexenClassMask))
		}
	}
	ml.level.Things = things
	logger.Debug("read things", zap.Int("count", len(things)))
}
