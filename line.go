package wadmap

// LineFlags is the linedef flag bitset.
type LineFlags uint32

const (
	LineFlagBlocking      LineFlags = 0x0001 // Blocks players and monsters
	LineFlagBlockMonsters LineFlags = 0x0002
	LineFlagTwoSided      LineFlags = 0x0004 // Backside will not be present at all if not two sided
	LineFlagDontPegTop    LineFlags = 0x0008 // Upper texture unpegged
	LineFlagDontPegBottom LineFlags = 0x0010 // Lower texture unpegged
	LineFlagSecret        LineFlags = 0x0020 // Shown as one-sided on the automap
	LineFlagSoundBlock    LineFlags = 0x0040
	LineFlagDontDraw      LineFlags = 0x0080 // Never drawn on the automap
	LineFlagMapped        LineFlags = 0x0100 // Already drawn on the automap
	LineFlagRepeatSpecial LineFlags = 0x0200 // Extended format only

	// Extended format activation type, moved to Line.Activation on load
	lineFlagSPACMask  LineFlags = 0x1c00
	lineFlagSPACShift           = 10
)

// Activation is the set of ways a line special can be triggered.
type Activation uint32

const (
	ActivationCross      Activation = 1 << iota // Player crosses
	ActivationUse                               // Player uses
	ActivationMCross                            // Monster crosses
	ActivationImpact                            // Projectile hits
	ActivationPush                              // Player pushes
	ActivationPCross                            // Projectile crosses
	ActivationUseThrough                        // Player uses, passes through
)

// activationFromSPAC converts an extended format activation number (0-6) into a bitset.
func activationFromSPAC(n int) Activation {
	if n < 0 || n > 6 {
		return 0
	}
	return 1 << n
}

type SlopeType int

const (
	SlopeTypeHorizontal SlopeType = iota
	SlopeTypeVertical
	SlopeTypePositive
	SlopeTypeNegative
)

type Line struct {
	Index      int
	V1, V2     int
	Flags      LineFlags
	Activation Activation
	Special    int
	Args       [5]int
	Sides      [2]int // Front and back side, NoIndex if absent

	// LegacySpecial is the line type of a Doom format line as stored. Special holds its
	// extended equivalent, or 0 if it has none.
	LegacySpecial int

	// Derived
	DX, DY                  float64 // Precalculated V2-V1 for side checking
	FrontSector, BackSector int     // NoIndex if the side is absent
	Alpha                   float64 // 0 to 1
	Additive                bool
	Length                  float64
	BoundingBox             BoundBox  // For the extent of the line
	SlopeType               SlopeType // To aid move clipping
}

// TwoSided reports whether the two-sided flag is set.
func (l *Line) TwoSided() bool {
	return l.Flags&LineFlagTwoSided != 0
}

// Front returns the front side, or NoIndex.
func (l *Line) Front() int {
	return l.Sides[0]
}

// Back returns the back side, or NoIndex.
func (l *Line) Back() int {
	return l.Sides[1]
}

// setGeometry fills in the fields derived from the vertex positions.
func (l *Line) setGeometry(v1, v2 Vertex) {
	l.DX = v2.X - v1.X
	l.DY = v2.Y - v1.Y

	// Set slope type
	if l.DX == 0 {
		l.SlopeType = SlopeTypeVertical
	} else if l.DY == 0 {
		l.SlopeType = SlopeTypeHorizontal
	} else if (l.DY / l.DX) > 0 {
		l.SlopeType = SlopeTypePositive
	} else {
		l.SlopeType = SlopeTypeNegative
	}

	// Set bounding box
	l.BoundingBox.Left = min(v1.X, v2.X)
	l.BoundingBox.Right = max(v1.X, v2.X)
	l.BoundingBox.Bottom = min(v1.Y, v2.Y)
	l.BoundingBox.Top = max(v1.Y, v2.Y)
}
