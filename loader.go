package wadmap

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stuarthighley/wadmap/behavior"
)

// MapLoader assembles one level. All scratch state of a load lives here; a loader is
// used for a single Load call.
type MapLoader struct {
	textures TextureLookup
	opts     Options
	level    *Level

	sideInit       []sideInit     // Per allocated side
	missing        map[string]int // Warnings issued per missing texture name
	forceNodeBuild bool
}

// sideInit is what the loader knows about a side before the sidedefs are read.
type sideInit struct {
	mapIndex int // Sidedef number on disk
	special  int // Special and tag of the line if this is its front side
	tag      int
}

// NewMapLoader returns a loader resolving texture names through textures.
func NewMapLoader(textures TextureLookup, opts Options) *MapLoader {
	return &MapLoader{
		textures: textures,
		opts:     opts,
		missing:  map[string]int{},
	}
}

// mapRecords is a level decoded into dialect independent records.
type mapRecords struct {
	vertexes []MapVertex
	sectors  []MapSector
	linedefs []MapLinedef
	sidedefs []MapSidedef
	things   []MapThing
}

// Load assembles the level held in lumps. Missing mandatory lumps and malformed record
// lumps are fatal; everything else is repaired with a warning or flagged for rebuild.
func (ml *MapLoader) Load(lumps *LevelLumps) (*Level, error) {
	if ml.level != nil {
		return nil, errors.New("map loader already used")
	}
	if err := ml.opts.Validate(); err != nil {
		return nil, err
	}
	logger.Info("loading level", zap.String("level", lumps.Name), zap.Stringer("dialect", lumps.Dialect))

	ml.level = &Level{
		Name:    lumps.Name,
		Dialect: lumps.Dialect,
		Tags:    NewTagManager(),
	}
	ml.forceNodeBuild = ml.opts.ForceNodeBuild

	recs, err := ml.decode(lumps)
	if err != nil {
		return nil, errors.Wrap(err, lumps.Name)
	}

	_, hasBehavior := lumps.Lump(LumpBehavior)
	ml.loadVertexes(recs.vertexes)
	if err := ml.loadSectors(recs.sectors, hasBehavior); err != nil {
		return nil, errors.Wrap(err, lumps.Name)
	}
	if err := ml.loadLinedefs(recs.linedefs, len(recs.sidedefs)); err != nil {
		return nil, errors.Wrap(err, lumps.Name)
	}
	ml.loadSidedefs(recs.sidedefs)
	ml.finishLoadingLinedefs()
	ml.loopSidedefs(true)
	ml.loadThings(recs.things)

	if err := ml.loadBSP(lumps); err != nil {
		return nil, errors.Wrap(err, lumps.Name)
	}
	ml.loadBlockMap(lumps)
	ml.loadReject(lumps)
	ml.groupLines()
	ml.spawn3DFloors()
	ml.setSlopes()
	if hasBehavior {
		ml.loadBehavior(lumps)
	}
	ml.reindex()

	l := ml.level
	l.NeedsNodeBuild = l.BSPState != BSPAccepted
	logger.Info("loaded level",
		zap.String("level", l.Name),
		zap.Int("lines", len(l.Lines)),
		zap.Int("sides", len(l.Sides)),
		zap.Int("sectors", len(l.Sectors)),
		zap.Int("things", len(l.Things)),
		zap.Stringer("bsp", l.BSPState),
		zap.Bool("needsBlockmapBuild", l.NeedsBlockmapBuild),
		zap.Int("warnings", len(l.Warnings)))
	return l, nil
}

// decode turns the level lumps into map records, checking the mandatory lumps are there.
func (ml *MapLoader) decode(lumps *LevelLumps) (*mapRecords, error) {
	if lumps.Dialect == DialectUDMF {
		data, ok := lumps.Lump(LumpTextMap)
		if !ok {
			return nil, errors.Wrap(ErrMissingLump, LumpTextMap)
		}
		tm, err := ParseTextMap(data)
		if err != nil {
			return nil, err
		}
		return &mapRecords{
			vertexes: tm.Vertexes,
			sectors:  tm.Sectors,
			linedefs: tm.Linedefs,
			sidedefs: tm.Sidedefs,
			things:   tm.Things,
		}, nil
	}

	for _, name := range []string{LumpVertexes, LumpSectors, LumpLinedefs, LumpSidedefs, LumpThings} {
		if !lumps.Has(name) {
			return nil, errors.Wrap(ErrMissingLump, name)
		}
	}
	data := func(name string) []byte {
		b, _ := lumps.Lump(name)
		return b
	}

	var recs mapRecords
	var err error
	if recs.vertexes, err = DecodeVertexes(data(LumpVertexes)); err != nil {
		return nil, err
	}
	if recs.sectors, err = DecodeSectors(data(LumpSectors)); err != nil {
		return nil, err
	}
	if recs.linedefs, err = DecodeLinedefs(lumps.Dialect, data(LumpLinedefs)); err != nil {
		return nil, err
	}
	if recs.sidedefs, err = DecodeSidedefs(data(LumpSidedefs)); err != nil {
		return nil, err
	}
	if recs.things, err = DecodeThings(lumps.Dialect, data(LumpThings)); err != nil {
		return nil, err
	}
	return &recs, nil
}

// warnf records a recoverable problem.
func (ml *MapLoader) warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	ml.level.Warnings = append(ml.level.Warnings, msg)
	logger.Warn(msg, zap.String("level", ml.level.Name))
}

// texture resolves a texture name, substituting the default texture for unknown names.
// Warnings are limited per name.
func (ml *MapLoader) texture(name string, use TextureUse, what string, index int) TextureID {
	id, ok := ml.textures.Lookup(name, use)
	if ok {
		return id
	}
	ml.missing[name]++
	if n := ml.missing[name]; n <= ml.opts.MissingTextureWarnLimit {
		ml.warnf("unknown %s texture %q on %s %d", use, name, what, index)
		if n == ml.opts.MissingTextureWarnLimit {
			ml.warnf("further warnings for texture %q suppressed", name)
		}
	}
	return id
}

func (ml *MapLoader) loadVertexes(mvs []MapVertex) {
	logger.Debug("reading vertexes")
	vertexes := make([]Vertex, len(mvs))
	for i, v := range mvs {
		vertexes[i] = Vertex{Index: i, X: v.X, Y: v.Y}
	}
	ml.level.Vertexes = vertexes
	logger.Debug("read vertexes", zap.Int("count", len(vertexes)))
}

func (ml *MapLoader) loadBehavior(lumps *LevelLumps) {
	data, _ := lumps.Lump(LumpBehavior)
	m, err := behavior.Parse(data)
	if err != nil {
		ml.warnf("BEHAVIOR not loaded: %v", err)
		return
	}
	ml.level.Behavior = m
}

// reindex renumbers every registry. Earlier stages may have dropped entries.
func (ml *MapLoader) reindex() {
	l := ml.level
	for i := range l.Vertexes {
		l.Vertexes[i].Index = i
	}
	for i := range l.Lines {
		l.Lines[i].Index = i
	}
	for i := range l.Sides {
		l.Sides[i].Index = i
	}
	for i := range l.Sectors {
		l.Sectors[i].Index = i
	}
	for i := range l.Things {
		l.Things[i].Index = i
	}
	for i := range l.Segs {
		l.Segs[i].Index = i
	}
	for i := range l.SubSectors {
		l.SubSectors[i].Index = i
	}
	for i := range l.Nodes {
		l.Nodes[i].Index = i
	}
}
