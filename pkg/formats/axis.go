package formats

import "github.com/Faultbox/meshport/pkg/math"

// toYUp maps the native Z-up frame onto the Y-up right-handed frame used by
// OBJ and glTF: (x, y, z) -> (x, z, -y).
func toYUp(v math.Vec3) math.Vec3 {
	return math.Vec3{X: v.X, Y: v.Z, Z: -v.Y}
}

// yUpArray applies toYUp to a flattened xyz array, returning a new slice.
func yUpArray(a []float32) []float32 {
	out := make([]float32, len(a))
	for i := 0; i < len(a)/3; i++ {
		toYUp(math.V3(a, i)).Put(out, i)
	}
	return out
}
