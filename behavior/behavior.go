// Package behavior reads the header, script directory and string table of a compiled
// ACS module, the BEHAVIOR lump of extended format maps. The bytecode itself is not
// interpreted.
package behavior

import (
	"encoding/binary"
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	ErrNotBehavior = errors.New("not an ACS module")
	ErrTruncated   = errors.New("ACS module truncated")
)

// Format is the layout of a module.
type Format int

const (
	FormatOld            Format = iota // ACS\0
	FormatEnhanced                     // ACSE
	FormatLittleEnhanced               // ACSe
)

func (f Format) String() string {
	switch f {
	case FormatOld:
		return "old"
	case FormatEnhanced:
		return "enhanced"
	case FormatLittleEnhanced:
		return "little enhanced"
	}
	return "unknown"
}

// ScriptType says when a script runs.
type ScriptType int

const (
	ScriptClosed ScriptType = iota
	ScriptOpen
	ScriptRespawn
	ScriptDeath
	ScriptEnter
	ScriptPickup
	ScriptBlueReturn
	ScriptRedReturn
	ScriptWhiteReturn
	_
	_
	_
	ScriptLightning
	ScriptUnloading
	ScriptDisconnect
	ScriptReturn
	ScriptEvent
	ScriptKill
	ScriptReopen
)

// Local variables a script gets unless an SVCT chunk says otherwise.
const DefaultVarCount = 20

// Script is a script directory entry.
type Script struct {
	Number   int
	Type     ScriptType
	Address  uint32 // Offset of the bytecode in the module
	ArgCount int
	VarCount int
	Flags    uint16
}

// Module is a parsed ACS module.
type Module struct {
	Format  Format
	Data    []byte
	Scripts []Script // Sorted by number
	Strings []string

	dataSize  int // Bytes of Data holding the module proper
	chunksOff int // Offset of the first chunk
}

const minModuleSize = 32

var (
	tagACS0 = "ACS\x00"
	tagACSE = "ACSE"
	tagACSe = "ACSe"
)

func u32(data []byte, off int) (uint32, bool) {
	if off < 0 || off+4 > len(data) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(data[off:]), true
}

func u16(data []byte, off int) (uint16, bool) {
	if off < 0 || off+2 > len(data) {
		return 0, false
	}
	return binary.LittleEndian.Uint16(data[off:]), true
}

func tag4(data []byte, off int) string {
	if off < 0 || off+4 > len(data) {
		return ""
	}
	return string(data[off : off+4])
}

// Parse reads an ACS module. The returned module references data.
func Parse(data []byte) (*Module, error) {
	if len(data) < minModuleSize {
		return nil, errors.Wrapf(ErrNotBehavior, "%d bytes", len(data))
	}
	m := &Module{Data: data, dataSize: len(data)}
	switch tag4(data, 0) {
	case tagACS0:
		m.Format = FormatOld
	case tagACSE:
		m.Format = FormatEnhanced
	case tagACSe:
		m.Format = FormatLittleEnhanced
	default:
		return nil, errors.Wrapf(ErrNotBehavior, "marker %q", data[:4])
	}

	dirOfs32, _ := u32(data, 4)
	dirOfs := int(dirOfs32)
	if dirOfs < 8 || dirOfs > len(data) {
		return nil, errors.Wrapf(ErrTruncated, "directory offset %d in %d bytes", dirOfs, len(data))
	}

	if m.Format == FormatOld {
		m.chunksOff = len(data)
		// Enhanced modules carry an old style header for old engines, with the real
		// format tag just before the directory
		pretag := tag4(data, dirOfs-4)
		if dirOfs >= 6*4 && (pretag == tagACSe || pretag == tagACSE) {
			if pretag == tagACSe {
				m.Format = FormatLittleEnhanced
			} else {
				m.Format = FormatEnhanced
			}
			chunks, _ := u32(data, dirOfs-8)
			m.chunksOff = int(chunks)
			m.dataSize = dirOfs - 8
		}
	} else {
		m.chunksOff = dirOfs
	}

	if err := m.loadScriptDirectory(); err != nil {
		return nil, err
	}
	if err := m.loadStrings(); err != nil {
		return nil, err
	}
	logger.Debug("read ACS module",
		zap.Stringer("format", m.Format),
		zap.Int("scripts", len(m.Scripts)),
		zap.Int("strings", len(m.Strings)))
	return m, nil
}

// FindChunk returns the first chunk with the given tag: its offset in Data and its body.
func (m *Module) FindChunk(tag string) (int, []byte, bool) {
	return m.scanChunks(m.chunksOff, tag)
}

// NextChunk returns the next chunk after the one at offset with the same tag.
func (m *Module) NextChunk(offset int) (int, []byte, bool) {
	tag := tag4(m.Data, offset)
	size, ok := u32(m.Data, offset+4)
	if !ok {
		return 0, nil, false
	}
	return m.scanChunks(offset+int(size)+8, tag)
}

// Chunks returns the bodies of every chunk with the given tag.
func (m *Module) Chunks(tag string) [][]byte {
	var bodies [][]byte
	off, body, ok := m.FindChunk(tag)
	for ok {
		bodies = append(bodies, body)
		off, body, ok = m.NextChunk(off)
	}
	return bodies
}

// scanChunks walks the chunk list from offset, skipping size + 8 bytes per chunk.
func (m *Module) scanChunks(offset int, tag string) (int, []byte, bool) {
	for offset >= 0 && offset+8 <= m.dataSize && offset+8 <= len(m.Data) {
		size32, _ := u32(m.Data, offset+4)
		size := int(size32)
		if tag4(m.Data, offset) == tag {
			end := offset + 8 + size
			if size < 0 || end > len(m.Data) {
				return 0, nil, false
			}
			return offset, m.Data[offset+8 : end], true
		}
		if size < 0 {
			return 0, nil, false
		}
		offset += size + 8
	}
	return 0, nil, false
}

func (m *Module) loadScriptDirectory() error {
	data := m.Data
	var scripts []Script

	switch m.Format {
	case FormatOld:
		dirOfs, _ := u32(data, 4)
		off := int(dirOfs)
		count, ok := u32(data, off)
		if !ok || int(count) < 0 || int(count) > (len(data)-off-4)/12 {
			return errors.Wrapf(ErrTruncated, "script directory of %d entries", count)
		}
		off += 4
		for i := 0; i < int(count); i++ {
			number, _ := u32(data, off)
			address, _ := u32(data, off+4)
			argc, _ := u32(data, off+8)
			scripts = append(scripts, Script{
				Number:   int(int32(number)) % 1000,
				Type:     ScriptType(int(int32(number)) / 1000),
				Address:  address,
				ArgCount: int(argc),
			})
			off += 12
		}

	case FormatEnhanced, FormatLittleEnhanced:
		_, body, ok := m.FindChunk("SPTR")
		if !ok {
			break // There are no scripts
		}
		if tag4(data, 0) != tagACS0 {
			for i := 0; i+12 <= len(body); i += 12 {
				number, _ := u16(body, i)
				typ, _ := u16(body, i+2)
				address, _ := u32(body, i+4)
				argc, _ := u32(body, i+8)
				scripts = append(scripts, Script{
					Number:   int(int16(number)),
					Type:     ScriptType(uint8(typ)),
					Address:  address,
					ArgCount: int(argc),
				})
			}
		} else {
			for i := 0; i+8 <= len(body); i += 8 {
				number, _ := u16(body, i)
				address, _ := u32(body, i+4)
				scripts = append(scripts, Script{
					Number:   int(int16(number)),
					Type:     ScriptType(body[i+2]),
					ArgCount: int(body[i+3]),
					Address:  address,
				})
			}
		}
	}

	for i := range scripts {
		scripts[i].VarCount = DefaultVarCount
	}

	// Sort scripts, so we can use a binary search to find them
	sort.SliceStable(scripts, func(i, j int) bool { return scripts[i].Number < scripts[j].Number })
	if m.Format == FormatOld {
		scripts = dedupScripts(scripts)
	}
	m.Scripts = scripts

	if m.Format == FormatOld {
		return nil
	}

	// Load script flags
	for _, body := range m.Chunks("SFLG") {
		m.patchScripts(body, func(s *Script, v uint16) { s.Flags = v })
	}
	// Load script var counts
	for _, body := range m.Chunks("SVCT") {
		m.patchScripts(body, func(s *Script, v uint16) { s.VarCount = int(v) })
	}
	return nil
}

// dedupScripts removes duplicate script numbers from a sorted directory. Old compilers
// allowed a closed script to share its number with another type; the other one wins.
func dedupScripts(scripts []Script) []Script {
	for i := 0; i < len(scripts)-1; i++ {
		if scripts[i].Number != scripts[i+1].Number {
			continue
		}
		logger.Warn("module has multiple scripts with the same number", zap.Int("script", scripts[i].Number))
		if scripts[i].Type == ScriptClosed {
			scripts = append(scripts[:i], scripts[i+1:]...)
		} else {
			scripts = append(scripts[:i+1], scripts[i+2:]...)
		}
		i--
	}
	return scripts
}

// patchScripts applies a chunk of (number, value) pairs to the scripts they name.
func (m *Module) patchScripts(body []byte, set func(*Script, uint16)) {
	for i := 0; i+4 <= len(body); i += 4 {
		number, _ := u16(body, i)
		value, _ := u16(body, i+2)
		if s := m.FindScript(int(int16(number))); s != nil {
			set(s, value)
		}
	}
}

// FindScript returns the script with the given number, or nil.
func (m *Module) FindScript(number int) *Script {
	i := sort.Search(len(m.Scripts), func(i int) bool { return m.Scripts[i].Number >= number })
	if i < len(m.Scripts) && m.Scripts[i].Number == number {
		return &m.Scripts[i]
	}
	return nil
}
