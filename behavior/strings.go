package behavior

import (
	"bytes"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// loadStrings reads the string table. Old modules keep it after the script directory
// with offsets into the module; enhanced modules keep it in an STRL chunk, or an
// STRE chunk with each string scrambled, with offsets into the chunk body.
func (m *Module) loadStrings() error {
	if m.Format == FormatOld {
		dirOfs, _ := u32(m.Data, 4)
		// Directory entries before duplicates were dropped
		numScripts, _ := u32(m.Data, int(dirOfs))
		table := int(dirOfs) + 4 + int(numScripts)*12
		strs, err := readStringTable(m.Data, table, table+4, m.Data, false)
		if err != nil {
			return err
		}
		m.Strings = strs
		return nil
	}

	encrypted := false
	_, body, ok := m.FindChunk("STRL")
	if !ok {
		if _, body, ok = m.FindChunk("STRE"); !ok {
			return nil
		}
		encrypted = true
	}
	// u32 unused, u32 count, u32 unused, then the offsets
	strs, err := readStringTable(body, 4, 12, body, encrypted)
	if err != nil {
		return err
	}
	m.Strings = strs
	return nil
}

// readStringTable reads a count at countOff and that many offsets from first, each
// naming a NUL terminated string in base.
func readStringTable(data []byte, countOff, first int, base []byte, encrypted bool) ([]string, error) {
	count, ok := u32(data, countOff)
	if !ok {
		return nil, errors.Wrap(ErrTruncated, "string table header")
	}
	if first > len(data) || int(count) > (len(data)-first)/4 {
		return nil, errors.Wrapf(ErrTruncated, "string table of %d entries", count)
	}
	strs := make([]string, 0, count)
	for i := 0; i < int(count); i++ {
		ofs, _ := u32(data, first+i*4)
		s, err := readString(base, int(ofs), encrypted)
		if err != nil {
			return nil, errors.Wrapf(err, "string %d", i)
		}
		strs = append(strs, s)
	}
	logger.Debug("read string table", zap.Int("strings", len(strs)), zap.Bool("encrypted", encrypted))
	return strs, nil
}

func readString(base []byte, ofs int, encrypted bool) (string, error) {
	if ofs < 0 || ofs >= len(base) {
		return "", errors.Wrapf(ErrTruncated, "string offset %d", ofs)
	}
	if !encrypted {
		end := bytes.IndexByte(base[ofs:], 0)
		if end < 0 {
			return "", errors.Wrapf(ErrTruncated, "unterminated string at %d", ofs)
		}
		return string(base[ofs : ofs+end]), nil
	}
	key := uint32(ofs) * 157135
	var out []byte
	for i := 0; ofs+i < len(base); i++ {
		c := base[ofs+i] ^ byte(key+uint32(i/2))
		if c == 0 {
			return string(out), nil
		}
		out = append(out, c)
	}
	return "", errors.Wrapf(ErrTruncated, "unterminated string at %d", ofs)
}
