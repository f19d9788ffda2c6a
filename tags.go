package wadmap

import "slices"

// TagManager maps sector tags and line ids to the sectors and lines carrying them.
// A sector or line may carry several; tag and id 0 are never recorded.
type TagManager struct {
	sectorTags map[int][]int
	lineIDs    map[int][]int
	sectorsTag map[int][]int
	linesID    map[int][]int
}

func NewTagManager() *TagManager {
	return &TagManager{
		sectorTags: map[int][]int{},
		lineIDs:    map[int][]int{},
		sectorsTag: map[int][]int{},
		linesID:    map[int][]int{},
	}
}

func addUnique(m map[int][]int, key, value int) {
	if !slices.Contains(m[key], value) {
		m[key] = append(m[key], value)
	}
}

// AddSectorTag records that sector carries tag.
func (t *TagManager) AddSectorTag(sector, tag int) {
	if tag <= 0 {
		return
	}
	addUnique(t.sectorTags, tag, sector)
	addUnique(t.sectorsTag, sector, tag)
}

// AddLineID records that line carries id.
func (t *TagManager) AddLineID(line, id int) {
	if id <= 0 {
		return
	}
	addUnique(t.lineIDs, id, line)
	addUnique(t.linesID, line, id)
}

// SectorsWithTag returns the sectors carrying tag, in sector order.
func (t *TagManager) SectorsWithTag(tag int) []int {
	return t.sectorTags[tag]
}

// LinesWithID returns the lines carrying id, in line order.
func (t *TagManager) LinesWithID(id int) []int {
	return t.lineIDs[id]
}

// SectorTag returns the first tag of sector, or 0.
func (t *TagManager) SectorTag(sector int) int {
	if tags := t.sectorsTag[sector]; len(tags) > 0 {
		return tags[0]
	}
	return 0
}

// LineID returns the first id of line, or 0.
func (t *TagManager) LineID(line int) int {
	if ids := t.linesID[line]; len(ids) > 0 {
		return ids[0]
	}
	return 0
}

// SectorHasTag reports whether sector carries tag.
func (t *TagManager) SectorHasTag(sector, tag int) bool {
	return slices.Contains(t.sectorsTag[sector], tag)
}
