package wadmap

import "go.uber.org/zap"

// Reject is the sector visibility table: bit a*n+b set means nothing in sector a can
// see sector b. An empty table rejects nothing.
type Reject struct {
	numSectors int
	bits       []byte
}

// NewReject wraps a REJECT lump for a map with numSectors sectors. ok is false if the
// lump is too short, in which case the returned table is empty.
func NewReject(lump []byte, numSectors int) (Reject, bool) {
	need := (numSectors*numSectors + 7) / 8
	if len(lump) < need {
		return Reject{}, false
	}
	return Reject{numSectors: numSectors, bits: lump[:need]}, true
}

// Check reports whether sector a is rejected from seeing sector b.
func (r Reject) Check(a, b int) bool {
	if r.bits == nil || a < 0 || b < 0 || a >= r.numSectors || b >= r.numSectors {
		return false
	}
	cell := a*r.numSectors + b
	i, j := cell/8, cell%8
	return (r.bits[i]>>j)&1 != 0
}

// Empty reports whether the table holds no data.
func (r Reject) Empty() bool {
	return r.bits == nil
}

func (ml *MapLoader) loadReject(lumps *LevelLumps) {
	logger.Debug("reading reject")
	l := ml.level
	lump, ok := lumps.Lump(LumpReject)
	if !ok || len(lump) == 0 {
		ml.warnf("map has no reject table")
		return
	}
	reject, ok := NewReject(lump, len(l.Sectors))
	if !ok {
		ml.warnf("reject table is %d bytes, too short for %d sectors", len(lump), len(l.Sectors))
		return
	}
	l.Reject = reject
	logger.Debug("read reject table", zap.Int("sectors", len(l.Sectors)))
}
