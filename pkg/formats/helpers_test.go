package formats

import "github.com/Faultbox/meshport/pkg/mesh"

// triangle is the unit right triangle on z=0 with normals along +z.
func triangle() *mesh.Record {
	return &mesh.Record{
		Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Normals:   []float32{0, 0, 1, 0, 0, 1, 0, 0, 1},
		Indices:   []uint32{0, 1, 2},
		Material:  mesh.DefaultMaterial(),
	}
}

// square is two triangles over the unit square offset by dx.
func square(dx float32) *mesh.Record {
	return &mesh.Record{
		Positions: []float32{dx, 0, 0, dx + 1, 0, 0, dx + 1, 1, 0, dx, 1, 0},
		Normals:   []float32{0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1},
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
		Material:  mesh.Material{Color: [4]float32{0.2, 0.4, 0.6, 1}, Metalness: 0, Roughness: 0.5},
	}
}
