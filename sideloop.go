package wadmap

// loopSidedefs links every side to the sides on its left and right: walking right from
// a side follows the walls of its sector around. If several sides start at the vertex
// where a side ends, the one making the smallest angle with it is its right neighbour.
func (ml *MapLoader) loopSidedefs(firstLoop bool) {
	l := ml.level
	numSides := len(l.Sides)

	// For each vertex, the sides that use it as their left edge
	first := make([]int, len(l.Vertexes))
	for i := range first {
		first[i] = NoIndex
	}
	next := make([]int, numSides)
	lineSide := make([]bool, numSides) // true for back sides

	for i := range l.Sides {
		line := &l.Lines[l.Sides[i].Line]
		back := line.Sides[0] != i
		vert := line.V1
		if back {
			vert = line.V2
		}
		lineSide[i] = back
		next[i] = first[vert]
		first[vert] = i

		// Set each side so that it is the only member of its loop
		l.Sides[i].LeftSide = NoIndex
		l.Sides[i].RightSide = NoIndex
	}

	for i := range l.Sides {
		line := &l.Lines[l.Sides[i].Line]
		var right int

		if line.FrontSector == line.BackSector {
			// A line inside a single sector is a loop of its own
			other := 1
			if lineSide[i] {
				other = 0
			}
			right = line.Sides[other]
			if right == NoIndex {
				if firstLoop {
					ml.warnf("line %d's right edge is unconnected", l.LineMap[line.Index])
				}
				continue
			}
		} else {
			vert := line.V2
			if lineSide[i] {
				vert = line.V1
			}
			right = first[vert]
			if right == NoIndex {
				if firstLoop {
					ml.warnf("line %d's right edge is unconnected", l.LineMap[line.Index])
				}
				continue
			}

			if next[right] != NoIndex {
				right = ml.bestRightSide(i, right, next, lineSide)
			}
		}

		l.Sides[i].RightSide = right
		l.Sides[right].LeftSide = i
	}
}

// bestRightSide picks, from the sides listed from candidate on, the one making the
// smallest nonzero angle with side i. Sides already claimed as a right neighbour and
// sides of lines inside a single sector are skipped. Equal angles go to the candidate
// listed last.
func (ml *MapLoader) bestRightSide(i, candidate int, next []int, lineSide []bool) int {
	l := ml.level
	best := candidate
	bestAng := 360.0

	left := &l.Lines[l.Sides[i].Line]
	ang1 := vectorAngle(left.DX, left.DY)
	if !lineSide[i] {
		ang1 += 180
	}

	for right := candidate; right != NoIndex; right = next[right] {
		if l.Sides[right].LeftSide != NoIndex {
			continue
		}
		rightLine := &l.Lines[l.Sides[right].Line]
		if rightLine.FrontSector == rightLine.BackSector {
			continue
		}
		ang2 := vectorAngle(rightLine.DX, rightLine.DY)
		if lineSide[right] {
			ang2 += 180
		}
		ang := normalize360(ang2 - ang1)
		if ang != 0 && ang <= bestAng {
			best = right
			bestAng = ang
		}
	}
	return best
}
