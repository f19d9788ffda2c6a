package wadmap

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/scanner"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// TextMap is a parsed TEXTMAP lump.
type TextMap struct {
	Namespace string
	Vertexes  []MapVertex
	Linedefs  []MapLinedef
	Sidedefs  []MapSidedef
	Sectors   []MapSector
	Things    []MapThing
}

type valueKind int

const (
	valueInt valueKind = iota
	valueFloat
	valueString
	valueBool
)

type tmValue struct {
	kind valueKind
	i    int
	f    float64
	s    string
	b    bool
}

// block is the key/value list of one TEXTMAP block. Keys are lower case.
type block map[string]tmValue

func (b block) getInt(key string, def int) int {
	v, ok := b[key]
	if !ok {
		return def
	}
	switch v.kind {
	case valueInt:
		return v.i
	case valueFloat:
		return int(v.f)
	}
	return def
}

func (b block) getFloat(key string, def float64) float64 {
	v, ok := b[key]
	if !ok {
		return def
	}
	switch v.kind {
	case valueInt:
		return float64(v.i)
	case valueFloat:
		return v.f
	}
	return def
}

func (b block) getBool(key string) bool {
	v, ok := b[key]
	return ok && v.kind == valueBool && v.b
}

func (b block) getString(key, def string) string {
	v, ok := b[key]
	if !ok || v.kind != valueString {
		return def
	}
	return v.s
}

func (b block) args() [5]int {
	var args [5]int
	for i := range args {
		args[i] = b.getInt(fmt.Sprintf("arg%d", i), 0)
	}
	return args
}

type textMapParser struct {
	s   scanner.Scanner
	tok rune
	err error
}

// ParseTextMap parses a TEXTMAP lump into map records. Unknown keys and block types
// are ignored; syntax errors are fatal.
func ParseTextMap(data []byte) (*TextMap, error) {
	logger.Debug("reading TEXTMAP")
	p := &textMapParser{}
	p.s.Init(bytes.NewReader(data))
	p.s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats | scanner.ScanStrings |
		scanner.ScanComments | scanner.SkipComments
	p.s.Filename = LumpTextMap
	p.s.Error = func(s *scanner.Scanner, msg string) {
		p.fail(msg)
	}
	p.next()

	tm := &TextMap{}
	for p.tok != scanner.EOF && p.err == nil {
		if p.tok != scanner.Ident {
			p.fail(fmt.Sprintf("expected identifier, found %s", scanner.TokenString(p.tok)))
			break
		}
		name := strings.ToLower(p.s.TokenText())
		p.next()
		switch p.tok {
		case '=':
			p.next()
			v := p.value()
			p.expect(';')
			if name == "namespace" && v.kind == valueString {
				tm.Namespace = v.s
			}
		case '{':
			p.next()
			b := p.block()
			tm.add(name, b)
		default:
			p.fail(fmt.Sprintf("expected '=' or '{' after %s, found %s", name, scanner.TokenString(p.tok)))
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	logger.Debug("read TEXTMAP",
		zap.String("namespace", tm.Namespace),
		zap.Int("vertexes", len(tm.Vertexes)),
		zap.Int("lines", len(tm.Linedefs)),
		zap.Int("sides", len(tm.Sidedefs)),
		zap.Int("sectors", len(tm.Sectors)),
		zap.Int("things", len(tm.Things)))
	return tm, nil
}

func (p *textMapParser) next() {
	p.tok = p.s.Scan()
}

func (p *textMapParser) fail(msg string) {
	if p.err == nil {
		pos := p.s.Position
		if !pos.IsValid() {
			pos = p.s.Pos()
		}
		p.err = errors.Wrapf(ErrTextMap, "line %d, column %d: %s", pos.Line, pos.Column, msg)
	}
}

func (p *textMapParser) expect(tok rune) {
	if p.err != nil {
		return
	}
	if p.tok != tok {
		p.fail(fmt.Sprintf("expected %s, found %s", scanner.TokenString(tok), scanner.TokenString(p.tok)))
		return
	}
	p.next()
}

// block reads key = value; pairs up to the closing brace.
func (p *textMapParser) block() block {
	b := block{}
	for p.err == nil && p.tok != '}' {
		if p.tok != scanner.Ident {
			p.fail(fmt.Sprintf("expected key, found %s", scanner.TokenString(p.tok)))
			return nil
		}
		key := strings.ToLower(p.s.TokenText())
		p.next()
		p.expect('=')
		v := p.value()
		p.expect(';')
		b[key] = v
	}
	p.expect('}')
	return b
}

func (p *textMapParser) value() tmValue {
	if p.err != nil {
		return tmValue{}
	}
	neg := false
	if p.tok == '-' || p.tok == '+' {
		neg = p.tok == '-'
		p.next()
	}
	text := p.s.TokenText()
	var v tmValue
	switch p.tok {
	case scanner.Int:
		n, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			p.fail(fmt.Sprintf("bad integer %s", text))
			return v
		}
		v = tmValue{kind: valueInt, i: int(n)}
		if neg {
			v.i = -v.i
		}
	case scanner.Float:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			p.fail(fmt.Sprintf("bad number %s", text))
			return v
		}
		v = tmValue{kind: valueFloat, f: f}
		if neg {
			v.f = -v.f
		}
	case scanner.String:
		s, err := strconv.Unquote(text)
		if err != nil {
			p.fail(fmt.Sprintf("bad string %s", text))
			return v
		}
		v = tmValue{kind: valueString, s: s}
	case scanner.Ident:
		switch strings.ToLower(text) {
		case "true":
			v = tmValue{kind: valueBool, b: true}
		case "false":
			v = tmValue{kind: valueBool}
		default:
			p.fail(fmt.Sprintf("bad value %s", text))
			return v
		}
	default:
		p.fail(fmt.Sprintf("expected value, found %s", scanner.TokenString(p.tok)))
		return v
	}
	if neg && (v.kind == valueString || v.kind == valueBool) {
		p.fail("sign before a non-numeric value")
	}
	p.next()
	return v
}

func (tm *TextMap) add(name string, b block) {
	if b == nil {
		return
	}
	switch name {
	case "vertex":
		tm.Vertexes = append(tm.Vertexes, MapVertex{X: b.getFloat("x", 0), Y: b.getFloat("y", 0)})
	case "linedef":
		tm.Linedefs = append(tm.Linedefs, textLinedef(b))
	case "sidedef":
		tm.Sidedefs = append(tm.Sidedefs, MapSidedef{
			XOffset:       b.getFloat("offsetx", 0),
			YOffset:       b.getFloat("offsety", 0),
			TopTexture:    normalizeName(b.getString("texturetop", "-")),
			BottomTexture: normalizeName(b.getString("texturebottom", "-")),
			MidTexture:    normalizeName(b.getString("texturemiddle", "-")),
			Sector:        b.getInt("sector", 0),
		})
	case "sector":
		tm.Sectors = append(tm.Sectors, MapSector{
			FloorHeight:    b.getFloat("heightfloor", 0),
			CeilingHeight:  b.getFloat("heightceiling", 0),
			FloorTexture:   normalizeName(b.getString("texturefloor", "-")),
			CeilingTexture: normalizeName(b.getString("textureceiling", "-")),
			LightLevel:     b.getInt("lightlevel", 160),
			Special:        b.getInt("special", 0),
			Tag:            b.getInt("id", 0),
			Gravity:        b.getFloat("gravity", 0),
			LightColor:     b.getInt("lightcolor", NoIndex),
			FadeColor:      b.getInt("fadecolor", NoIndex),
		})
	case "thing":
		tm.Things = append(tm.Things, textThing(b))
	default:
		logger.Debug("skipping TEXTMAP block", zap.String("block", name))
	}
}

var textLineFlags = []struct {
	key  string
	flag LineFlags
}{
	{"blocking", LineFlagBlocking},
	{"blockmonsters", LineFlagBlockMonsters},
	{"twosided", LineFlagTwoSided},
	{"dontpegtop", LineFlagDontPegTop},
	{"dontpegbottom", LineFlagDontPegBottom},
	{"secret", LineFlagSecret},
	{"blocksound", LineFlagSoundBlock},
	{"dontdraw", LineFlagDontDraw},
	{"mapped", LineFlagMapped},
	{"repeatspecial", LineFlagRepeatSpecial},
}

var textActivations = []struct {
	key        string
	activation Activation
}{
	{"playercross", ActivationCross},
	{"playeruse", ActivationUse},
	{"monstercross", ActivationMCross},
	{"impact", ActivationImpact},
	{"playerpush", ActivationPush},
	{"missilecross", ActivationPCross},
}

func textLinedef(b block) MapLinedef {
	ld := MapLinedef{
		V1:      b.getInt("v1", 0),
		V2:      b.getInt("v2", 0),
		Special: b.getInt("special", 0),
		Args:    b.args(),
		ID:      b.getInt("id", NoIndex),
		Sides:   [2]int{b.getInt("sidefront", NoIndex), b.getInt("sideback", NoIndex)},
		Alpha:   b.getFloat("alpha", -1),
	}
	for _, f := range textLineFlags {
		if b.getBool(f.key) {
			ld.Flags |= f.flag
		}
	}
	for _, a := range textActivations {
		if b.getBool(a.key) {
			ld.Activation |= a.activation
		}
	}
	ld.Additive = strings.EqualFold(b.getString("renderstyle", ""), "add")
	return ld
}

var textThingFlags = []struct {
	key  string
	flag ThingFlags
}{
	{"ambush", ThingFlagAmbush},
	{"dormant", ThingFlagDormant},
	{"single", ThingFlagSingle},
	{"coop", ThingFlagCoop},
	{"dm", ThingFlagDeathmatch},
	{"shadow", ThingFlagShadow},
	{"altshadow", ThingFlagAltShadow},
	{"friend", ThingFlagFriendly},
	{"standing", ThingFlagStandStill},
}

func textThing(b block) MapThing {
	mt := MapThing{
		ThingID:  b.getInt("id", 0),
		X:        b.getFloat("x", 0),
		Y:        b.getFloat("y", 0),
		Z:        b.getFloat("height", 0),
		Angle:    b.getInt("angle", 0),
		Type:     b.getInt("type", 0),
		Special:  b.getInt("special", 0),
		Args:     b.args(),
		Explicit: true,
	}
	for i := 0; i < 5; i++ {
		if b.getBool(fmt.Sprintf("skill%d", i+1)) {
			mt.SkillFilter |= 1 << i
		}
	}
	classGiven := false
	for i := 0; i < 3; i++ {
		key := fmt.Sprintf("class%d", i+1)
		if _, ok := b[key]; ok {
			classGiven = true
		}
		if b.getBool(key) {
			mt.ClassFilter |= 1 << i
		}
	}
	if !classGiven {
		mt.ClassFilter = allClasses
	}
	for _, f := range textThingFlags {
		if b.getBool(f.key) {
			mt.Flags |= f.flag
		}
	}
	return mt
}
