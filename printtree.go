package wadmap

import (
	"fmt"
	"io"
)

// PrintTree prints the BSP tree of the level in a clear format
func (l *Level) PrintTree(w io.Writer) error {
	root := l.RootNode()
	if root == nil {
		return ErrNoBSP
	}

	var printRecursive func(BSPChild, string)
	printRecursive = func(member BSPChild, prefix string) {
		switch v := member.(type) {
		case SubSectorChild:
			ss := l.SubSectors[v]
			fmt.Fprintf(w, "%s- %v: sector %d, segs %d-%d\n", prefix, v, ss.Sector, ss.FirstSeg, ss.FirstSeg+ss.NumSegs-1)
		case NodeChild:
			n := l.Nodes[v]
			fmt.Fprintf(w, "%s- %v: (%g,%g) (%g,%g)\n", prefix, v, n.X, n.Y, n.DX, n.DY)
			printRecursive(n.ChildR, prefix+"   ")
			printRecursive(n.ChildL, prefix+"   ")
		}
	}

	printRecursive(root, "")
	return nil
}
