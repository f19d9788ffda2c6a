package wadmap

// Line specials the loader interprets. Numbers are those of the extended format.
const (
	SpecialPolyobjStartLine      = 1
	SpecialPolyobjExplicitLine   = 5
	SpecialLineSetIdentification = 121
	SpecialLineSetPortal         = 156
	SpecialSectorSet3DFloor      = 160
	SpecialPlaneAlign            = 181
	SpecialStaticInit            = 190
	SpecialTranslucentLine       = 208
	SpecialTransferHeights       = 209
	SpecialTeleportLine          = 215
	SpecialScrollTextureModel    = 222
)

// Static_Init property numbers (arg1)
const (
	InitGravity    = 0
	InitColor      = 1
	InitDamage     = 2
	InitSectorLink = 3
	InitEDSector   = 253
	InitEDLine     = 254
)

// Legacy line types that map onto extended specials. The rest keep their number.
const (
	legacyTranslucentLine  = 260
	legacyTransferHeights  = 242
	legacySectorSet3DFloor = 281
)

// Alpha given to legacy translucent lines.
const legacyTranslucency = 168

// translateLegacyLine rewrites a legacy format line special into the extended format
// convention: the special number plus arguments, the tag becoming args[0]. The stored
// line type is kept in LegacySpecial. Types with no extended equivalent get special 0,
// so they never reach the handlers of extended specials.
func translateLegacyLine(ld *MapLinedef) {
	tag := ld.Tag
	ld.LegacySpecial = ld.Special
	switch ld.Special {
	case legacyTranslucentLine:
		ld.Special = SpecialTranslucentLine
		ld.Args = [5]int{tag, legacyTranslucency}
	case legacyTransferHeights:
		ld.Special = SpecialTransferHeights
		ld.Args = [5]int{tag}
	case legacySectorSet3DFloor:
		ld.Special = SpecialSectorSet3DFloor
		ld.Args = [5]int{tag, 1, 0, 255}
	default:
		ld.Special = 0
		ld.Args = [5]int{tag}
	}
}

// Sector special bits
const (
	legacySectorBasicMask = 0x001f // Light and damage specials
	legacySectorGenMask   = 0x0fe0 // Generalized damage, secret, friction and push
	legacySectorGenShift  = 3
	sectorSecretBit       = 0x0400 // After the shift
	sectorFrictionBit     = 0x0800
	sectorPushBit         = 0x1000
	sectorDamageMask      = 0x0300
)

// translateLegacySector moves the generalized sector bits to where the extended format
// keeps them. Bits 12-15 are not used by the legacy format and are dropped.
func translateLegacySector(special int) int {
	return special&legacySectorBasicMask | (special&legacySectorGenMask)<<legacySectorGenShift
}

// sectorSpecialFlags returns the flags implied by the generalized bits of an extended
// format sector special.
func sectorSpecialFlags(special int) SectorFlags {
	var flags SectorFlags
	if special&sectorSecretBit != 0 {
		flags |= SectorFlagSecret
	}
	if special&sectorFrictionBit != 0 {
		flags |= SectorFlagFriction
	}
	if special&sectorPushBit != 0 {
		flags |= SectorFlagPush
	}
	if special&sectorDamageMask != 0 {
		flags |= SectorFlagDamage
	}
	return flags
}

// lineIDFromSpecial returns the line id an extended format line carries in its special
// arguments. Line_SetIdentification is consumed: its special is cleared.
func lineIDFromSpecial(ld *MapLinedef) int {
	switch ld.Special {
	case SpecialLineSetIdentification:
		id := ld.Args[0] + 256*ld.Args[4]
		ld.Special = 0
		ld.Args = [5]int{}
		return id
	case SpecialTranslucentLine, SpecialTeleportLine, SpecialScrollTextureModel:
		return ld.Args[0]
	case SpecialPolyobjStartLine:
		return ld.Args[3]
	case SpecialPolyobjExplicitLine:
		return ld.Args[4]
	case SpecialPlaneAlign:
		return ld.Args[2]
	case SpecialStaticInit:
		if ld.Args[1] == InitSectorLink {
			return ld.Args[0]
		}
	case SpecialLineSetPortal:
		return ld.Args[1]
	}
	return NoIndex
}
