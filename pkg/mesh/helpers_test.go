package mesh

import "github.com/Faultbox/meshport/pkg/math"

// triangleRaw is the unit right triangle in the z=0 plane facing +z.
func triangleRaw() RawRecord {
	return RawRecord{
		Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Normals:   []float32{0, 0, 1, 0, 0, 1, 0, 0, 1},
		Indices:   []float64{0, 1, 2},
		Material:  DefaultMaterial(),
	}
}

func triangle() *Record {
	r, _, err := Validate(triangleRaw())
	if err != nil {
		panic(err)
	}
	return r
}

// quadGrid builds an n x n grid of unit quads on z=0, two triangles each,
// with every vertex referenced.
func quadGrid(n int) *Record {
	r := &Record{Material: DefaultMaterial()}
	for y := 0; y <= n; y++ {
		for x := 0; x <= n; x++ {
			r.Positions = append(r.Positions, float32(x), float32(y), 0)
			r.Normals = append(r.Normals, 0, 0, 1)
		}
	}
	row := uint32(n + 1)
	for y := uint32(0); y < uint32(n); y++ {
		for x := uint32(0); x < uint32(n); x++ {
			i := y*row + x
			r.Indices = append(r.Indices, i, i+1, i+row+1, i, i+row+1, i+row)
		}
	}
	return r
}

// faceNormal returns the unnormalized normal of triangle t.
func faceNormal(r *Record, t int) math.Vec3 {
	a, b, c := r.Triangle(t)
	pa, pb, pc := r.Position(a), r.Position(b), r.Position(c)
	return pb.Sub(pa).Cross(pc.Sub(pa))
}
