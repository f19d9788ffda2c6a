package wadmap

import (
	"math"

	"golang.org/x/exp/constraints"
)

// degreesToRadians
func degreesToRadians[T constraints.Integer | constraints.Float](n T) float64 {
	return float64(n) * (math.Pi / 180)
}

// bamToDegrees converts a 16 bit binary angle (full circle is 65536) to degrees in [0, 360).
func bamToDegrees[T constraints.Integer](n T) float64 {
	return float64(uint16(n)) * 360 / (1 << 16)
}

// vectorAngle returns the angle of (dx, dy) in degrees, in (-180, 180].
func vectorAngle[T constraints.Float](dx, dy T) float64 {
	return math.Atan2(float64(dy), float64(dx)) * (180 / math.Pi)
}

// normalize360 maps an angle in degrees onto [0, 360).
func normalize360(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	// Mod of a tiny negative number can round up to exactly 360
	if a >= 360 {
		a = 0
	}
	return a
}

// angleDelta returns the absolute difference of two angles in degrees, in [0, 180].
func angleDelta(a, b float64) float64 {
	d := normalize360(a - b)
	if d > 180 {
		d = 360 - d
	}
	return d
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	return max(lo, min(v, hi))
}
