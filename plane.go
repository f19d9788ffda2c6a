package wadmap

import "github.com/go-gl/mathgl/mgl64"

// Plane is a floor or ceiling plane, Normal·p + D = 0. Floors have a normal with a
// positive z component, ceilings a negative one.
type Plane struct {
	Normal mgl64.Vec3
	D      float64
}

// NewFlatPlane returns a horizontal plane at height z facing up (floor) or down.
func NewFlatPlane(z float64, floor bool) Plane {
	if floor {
		return Plane{Normal: mgl64.Vec3{0, 0, 1}, D: -z}
	}
	return Plane{Normal: mgl64.Vec3{0, 0, -1}, D: z}
}

// ZAt returns the height of the plane at (x, y).
func (p Plane) ZAt(x, y float64) float64 {
	return -(p.D + p.Normal.X()*x + p.Normal.Y()*y) / p.Normal.Z()
}

// IsSloped reports whether the plane is not horizontal.
func (p Plane) IsSloped() bool {
	return p.Normal.X() != 0 || p.Normal.Y() != 0
}

// planeThrough returns the plane through three points with its normal flipped to face
// up for floors and down for ceilings. ok is false if the points are collinear.
func planeThrough(p1, p2, p3 mgl64.Vec3, floor bool) (Plane, bool) {
	cross := p2.Sub(p1).Cross(p3.Sub(p1))
	if cross.Len() == 0 {
		return Plane{}, false
	}
	cross = cross.Normalize()
	if (floor && cross.Z() < 0) || (!floor && cross.Z() > 0) {
		cross = cross.Mul(-1)
	}
	return Plane{Normal: cross, D: -cross.Dot(p1)}, true
}
