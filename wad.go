// Package wadmap loads Doom engine levels from WAD archives into a fully cross-referenced
// level geometry graph: vertexes, lines, sides, sectors, segs, subsectors, BSP nodes and
// the blockmap. Three map dialects are understood: the original Doom binary format, the
// extended (Hexen) binary format and the text based UDMF format.
// The binary file format is documented in The Unofficial DOOM Specs:
// http://www.gamers.org/dhs/helpdocs/dmsp1666.html

package wadmap

import (
	"bytes"
	"os"
	"sort"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// WAD is a struct that represents Doom's data archive. The data is organized as named
// lumps; this type only exposes the directory and the lumps levels are built from.
type WAD struct {
	header    *Header
	data      []byte
	mapping   mmap.MMap
	file      *os.File
	lumpInfos []LumpInfo
	lumpNums  map[string]int
	levels    map[string]int
	textures  *TextureManager
}

type binHeader struct {
	Magic        [4]byte
	NumLumps     int32
	InfoTableOfs int32
}

type Header struct {
	Magic        string
	NumLumps     int
	InfoTableOfs int
}

type binLumpInfo struct {
	Filepos int32
	Size    int32
	Name    String8
}

type LumpInfo struct {
	Name    string
	Filepos int
	Size    int
}

// WAD eight-character string type. Null-terminated for short strings.
type String8 [8]byte

// String converts String8 to string
func (s String8) String() string {
	i := bytes.IndexByte(s[:], 0)
	if i == -1 {
		i = len(s)
	}
	return string(s[0:i])
}

// Open maps a WAD file into memory read-only. Close must be called to release it.
func Open(filename string) (*WAD, error) {
	logger.Debug("opening wad", zap.String("file", filename))

	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "open wad")
	}
	mapping, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		file.Close()
		return nil, errors.Wrap(err, "map wad")
	}

	w, err := NewWAD(mapping)
	if err != nil {
		mapping.Unmap()
		file.Close()
		return nil, errors.Wrap(err, filename)
	}
	w.mapping = mapping
	w.file = file
	return w, nil
}

// NewWAD reads WAD metadata from an in-memory archive. The returned WAD keeps
// referencing data; lumps are sub-slices of it.
func NewWAD(data []byte) (*WAD, error) {
	w := &WAD{data: data}

	// Read header
	c := NewCursor(data)
	var bh binHeader
	c.Read(&bh)
	if err := c.Err(); err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	magic := string(bh.Magic[:])
	if magic != "IWAD" && magic != "PWAD" {
		return nil, errors.Wrapf(ErrBadMagic, "%q", bh.Magic[:])
	}
	w.header = &Header{Magic: magic, NumLumps: int(bh.NumLumps), InfoTableOfs: int(bh.InfoTableOfs)}

	// Read info tables
	if err := w.readInfoTables(); err != nil {
		return nil, err
	}
	logger.Info("read wad directory",
		zap.String("magic", magic),
		zap.Int("lumps", len(w.lumpInfos)),
		zap.Int("levels", len(w.levels)))

	return w, nil
}

// Close releases the file mapping, if any.
func (w *WAD) Close() error {
	if w.mapping == nil {
		return nil
	}
	err := w.mapping.Unmap()
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	w.mapping, w.file, w.data = nil, nil, nil
	return err
}

func (w *WAD) readInfoTables() error {
	if w.header.NumLumps < 0 {
		return errors.Wrapf(ErrShortRead, "negative lump count %d", w.header.NumLumps)
	}
	c := NewCursor(w.data)
	c.Seek(w.header.InfoTableOfs)
	lumpNums := map[string]int{}
	lumpInfos := make([]LumpInfo, w.header.NumLumps)
	for i := range lumpInfos {
		var binInfo binLumpInfo
		c.Read(&binInfo)
		if err := c.Err(); err != nil {
			return errors.Wrapf(err, "read directory entry %d", i)
		}
		lumpInfo := LumpInfo{
			Name:    normalizeName(binInfo.Name.String()),
			Filepos: int(binInfo.Filepos),
			Size:    int(binInfo.Size),
		}
		if lumpInfo.Filepos < 0 || lumpInfo.Size < 0 || lumpInfo.Filepos+lumpInfo.Size > len(w.data) {
			return errors.Wrapf(ErrShortRead, "lump %d (%s) lies outside the file", i, lumpInfo.Name)
		}
		lumpNums[lumpInfo.Name] = i
		lumpInfos[i] = lumpInfo
	}
	w.lumpNums = lumpNums
	w.lumpInfos = lumpInfos

	// A level marker is any lump followed by map data
	levels := map[string]int{}
	for i := 0; i+1 < len(lumpInfos); i++ {
		if isLevelLump(lumpInfos[i].Name) {
			continue
		}
		next := lumpInfos[i+1].Name
		if next == "TEXTMAP" || isLevelLump(next) {
			levels[lumpInfos[i].Name] = i
		}
	}
	w.levels = levels
	return nil
}

// LumpInfos returns the directory.
func (w *WAD) LumpInfos() []LumpInfo {
	return w.lumpInfos
}

// LumpNum returns the index of the last lump with the given name.
func (w *WAD) LumpNum(name string) (int, bool) {
	n, ok := w.lumpNums[normalizeName(name)]
	return n, ok
}

// Lump returns the contents of lump i.
func (w *WAD) Lump(i int) []byte {
	li := w.lumpInfos[i]
	return w.data[li.Filepos : li.Filepos+li.Size]
}

// LumpByName returns the contents of the last lump with the given name.
func (w *WAD) LumpByName(name string) ([]byte, bool) {
	n, ok := w.LumpNum(name)
	if !ok {
		return nil, false
	}
	return w.Lump(n), true
}

// LevelNames returns a slice of level names found in the WAD archive.
func (w *WAD) LevelNames() []string {
	result := make([]string, 0, len(w.levels))
	for name := range w.levels {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// LevelLumps collects the lumps that make up the named level.
func (w *WAD) LevelLumps(name string) (*LevelLumps, error) {
	name = normalizeName(name)
	marker, ok := w.levels[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownLevel, name)
	}
	following := make([]Lump, 0, len(w.lumpInfos)-marker-1)
	for i := marker + 1; i < len(w.lumpInfos); i++ {
		following = append(following, Lump{Name: w.lumpInfos[i].Name, Data: w.Lump(i)})
	}
	return NewLevelLumps(name, following), nil
}

// ReadLevel reads level data from the WAD archive and returns the assembled level.
func (w *WAD) ReadLevel(name string, opts Options) (*Level, error) {
	lumps, err := w.LevelLumps(name)
	if err != nil {
		return nil, err
	}
	textures, err := w.TextureManager()
	if err != nil {
		return nil, err
	}
	return NewMapLoader(textures, opts).Load(lumps)
}
