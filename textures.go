package wadmap

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// TextureID identifies a texture name in a TextureManager.
type TextureID int

const (
	NoTexture      TextureID = 0 // "-", nothing drawn
	DefaultTexture TextureID = 1 // substituted for unknown names
)

// TextureUse says where a texture name was found.
type TextureUse int

const (
	TextureWall TextureUse = iota
	TextureFlat
)

func (u TextureUse) String() string {
	if u == TextureFlat {
		return "flat"
	}
	return "wall"
}

// TextureLookup resolves texture names for the loader.
type TextureLookup interface {
	// Lookup returns the id of a texture name. ok is false if the name is unknown.
	Lookup(name string, use TextureUse) (id TextureID, ok bool)
}

// TextureManager is a registry of texture names. Image data is not loaded.
// A manager with no names of a kind accepts any name of that kind.
type TextureManager struct {
	names []string
	ids   [2]map[string]TextureID
	open  [2]bool
}

// NewTextureManager returns a registry holding the given wall texture and flat names.
func NewTextureManager(walls, flats []string) *TextureManager {
	m := &TextureManager{
		names: []string{"-", "-DEFAULT-"},
		ids:   [2]map[string]TextureID{{}, {}},
	}
	for _, n := range walls {
		m.add(normalizeName(n), TextureWall)
	}
	for _, n := range flats {
		m.add(normalizeName(n), TextureFlat)
	}
	m.open[TextureWall] = len(walls) == 0
	m.open[TextureFlat] = len(flats) == 0
	return m
}

func (m *TextureManager) add(name string, use TextureUse) TextureID {
	if id, ok := m.ids[use][name]; ok {
		return id
	}
	id := TextureID(len(m.names))
	m.names = append(m.names, name)
	m.ids[use][name] = id
	return id
}

// Lookup implements TextureLookup.
func (m *TextureManager) Lookup(name string, use TextureUse) (TextureID, bool) {
	name = normalizeName(name)
	if name == "-" || name == "" {
		return NoTexture, true
	}
	if id, ok := m.ids[use][name]; ok {
		return id, true
	}
	if m.open[use] {
		return m.add(name, use), true
	}
	return DefaultTexture, false
}

// Name returns the name a texture id was registered with.
func (m *TextureManager) Name(id TextureID) string {
	if id < 0 || int(id) >= len(m.names) {
		return fmt.Sprintf("#%d", int(id))
	}
	return m.names[id]
}

// Len returns the number of registered names, including the two reserved ones.
func (m *TextureManager) Len() int {
	return len(m.names)
}

// TextureManager returns the texture registry of the archive, reading it on first use.
func (w *WAD) TextureManager() (*TextureManager, error) {
	if w.textures != nil {
		return w.textures, nil
	}
	walls, err := w.readTextureNames()
	if err != nil {
		return nil, err
	}
	flats := w.readFlatNames()
	w.textures = NewTextureManager(walls, flats)
	logger.Info("read texture names", zap.Int("textures", len(walls)), zap.Int("flats", len(flats)))
	return w.textures, nil
}

// readTextureNames reads the names out of the TEXTUREx lumps.
func (w *WAD) readTextureNames() ([]string, error) {
	var names []string
	for i := 1; i < 10; i++ {
		name := fmt.Sprintf("TEXTURE%v", i)
		lump, ok := w.LumpByName(name)
		if !ok {
			continue
		}
		logger.Debug("reading texture names", zap.String("lump", name))

		// Read header
		c := NewCursor(lump)
		count := int(c.Uint32())
		if err := c.Err(); err != nil {
			return nil, errors.Wrap(err, name)
		}
		if count < 0 || count > c.Remaining()/4 {
			return nil, errors.Wrapf(ErrShortRead, "%s: %d textures in %d bytes", name, count, len(lump))
		}

		// Read offsets
		offsets := make([]int32, count)
		c.Read(offsets)

		// Each texture starts with its name
		for _, offset := range offsets {
			c.Seek(int(offset))
			names = append(names, c.String8())
		}
		if err := c.Err(); err != nil {
			return nil, errors.Wrap(err, name)
		}
	}
	return names, nil
}

// readFlatNames returns the names of the lumps between the flat markers.
func (w *WAD) readFlatNames() []string {
	var names []string
	in := false
	for _, li := range w.lumpInfos {
		switch li.Name {
		case "F_START", "FF_START":
			in = true
			continue
		case "F_END", "FF_END":
			in = false
			continue
		}
		// Skip marker lumps
		if in && li.Size > 0 {
			names = append(names, li.Name)
		}
	}
	return names
}
