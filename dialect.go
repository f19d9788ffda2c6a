package wadmap

import (
	"strings"

	"go.uber.org/zap"
)

// Dialect is the on-disk format a level is stored in.
type Dialect int

const (
	// DialectDoom is the original fixed-record format.
	DialectDoom Dialect = iota
	// DialectHexen is the extended fixed-record format with byte arguments and a
	// BEHAVIOR lump.
	DialectHexen
	// DialectUDMF is the text based format stored in a TEXTMAP lump.
	DialectUDMF
)

func (d Dialect) String() string {
	switch d {
	case DialectDoom:
		return "doom"
	case DialectHexen:
		return "hexen"
	case DialectUDMF:
		return "udmf"
	}
	return "unknown"
}

// Level lump names
const (
	LumpThings   = "THINGS"
	LumpLinedefs = "LINEDEFS"
	LumpSidedefs = "SIDEDEFS"
	LumpVertexes = "VERTEXES"
	LumpSegs     = "SEGS"
	LumpSSectors = "SSECTORS"
	LumpNodes    = "NODES"
	LumpSectors  = "SECTORS"
	LumpReject   = "REJECT"
	LumpBlockmap = "BLOCKMAP"
	LumpBehavior = "BEHAVIOR"
	LumpZNodes   = "ZNODES"
	LumpTextMap  = "TEXTMAP"
	LumpEndMap   = "ENDMAP"
)

var levelLumpNames = map[string]struct{}{
	LumpThings:   {},
	LumpLinedefs: {},
	LumpSidedefs: {},
	LumpVertexes: {},
	LumpSegs:     {},
	LumpTextMap:  {},
	LumpSSectors: {},
	LumpNodes:    {},
	LumpSectors:  {},
	LumpReject:   {},
	LumpBlockmap: {},
	LumpBehavior: {},
	LumpZNodes:   {},
}

func isLevelLump(name string) bool {
	_, ok := levelLumpNames[name]
	return ok
}

func normalizeName(name string) string {
	return strings.ToUpper(name)
}

// DetectDialect picks the dialect from the names of the lumps immediately following a
// level marker. A TEXTMAP directly after the marker means UDMF; otherwise the run of
// level lump names is scanned and a BEHAVIOR lump in it means the extended format.
func DetectDialect(following []string) Dialect {
	if len(following) > 0 && normalizeName(following[0]) == LumpTextMap {
		return DialectUDMF
	}
	for _, name := range following {
		name = normalizeName(name)
		if !isLevelLump(name) {
			break
		}
		if name == LumpBehavior {
			return DialectHexen
		}
	}
	return DialectDoom
}

// Lump is a named chunk of data.
type Lump struct {
	Name string
	Data []byte
}

// LevelLumps holds the lumps belonging to one level and the dialect they are stored in.
type LevelLumps struct {
	Name    string
	Dialect Dialect
	names   []string
	lumps   map[string][]byte
}

// NewLevelLumps takes the lumps following the level marker called name and keeps the
// ones that belong to the level: the run of level lump names for binary levels, or
// everything up to ENDMAP for text levels.
func NewLevelLumps(name string, following []Lump) *LevelLumps {
	names := make([]string, len(following))
	for i := range following {
		names[i] = normalizeName(following[i].Name)
	}
	l := &LevelLumps{
		Name:    normalizeName(name),
		Dialect: DetectDialect(names),
		lumps:   map[string][]byte{},
	}
	for i, n := range names {
		if l.Dialect == DialectUDMF {
			if n == LumpEndMap {
				break
			}
		} else if !isLevelLump(n) {
			break
		}
		if _, dup := l.lumps[n]; dup {
			logger.Warn("duplicate level lump ignored", zap.String("level", l.Name), zap.String("lump", n))
			continue
		}
		l.names = append(l.names, n)
		l.lumps[n] = following[i].Data
	}
	return l
}

// Lump returns the data of the named level lump.
func (l *LevelLumps) Lump(name string) ([]byte, bool) {
	b, ok := l.lumps[normalizeName(name)]
	return b, ok
}

// Has reports whether the level contains the named lump.
func (l *LevelLumps) Has(name string) bool {
	_, ok := l.lumps[normalizeName(name)]
	return ok
}

// Names returns the level's lump names in directory order.
func (l *LevelLumps) Names() []string {
	return l.names
}
