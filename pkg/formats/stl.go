package formats

import (
	"encoding/binary"
	"errors"
	"fmt"
	stdmath "math"

	"github.com/Faultbox/meshport/pkg/math"
	"github.com/Faultbox/meshport/pkg/mesh"
)

// Binary STL layout.
const (
	stlHeaderSize   = 80
	stlTriangleSize = 50 // normal + 3 vertices as float32, 2 attribute bytes
)

// ErrTruncatedSTL is returned when STL data is shorter than its triangle
// count requires.
var ErrTruncatedSTL = errors.New("truncated STL data")

// EncodeSTL writes records as one binary STL solid in native axes. Face
// normals are recomputed from the triangle corners.
func EncodeSTL(records []*mesh.Record) ([]byte, error) {
	var count uint32
	for _, r := range records {
		count += uint32(r.TriangleCount())
	}

	components := []any{make([]byte, stlHeaderSize), count}
	for _, r := range records {
		components = append(components, stlTriangles(r))
	}
	return pack(components...)
}

func stlTriangles(r *mesh.Record) []byte {
	out := make([]byte, stlTriangleSize*r.TriangleCount())
	for t := 0; t < r.TriangleCount(); t++ {
		a, b, c := r.Triangle(t)
		v := [3]math.Vec3{r.Position(a), r.Position(b), r.Position(c)}

		rec := out[t*stlTriangleSize:]
		putVec3(rec[0:], faceNormal(v[0], v[1], v[2]))
		for k := 0; k < 3; k++ {
			putVec3(rec[12*(k+1):], v[k])
		}
		// Attribute byte count stays zero.
	}
	return out
}

// faceNormal computes the unit normal of triangle (a, b, c) in float64. A
// degenerate triangle gets the zero vector.
func faceNormal(a, b, c math.Vec3) math.Vec3 {
	ux, uy, uz := float64(b.X-a.X), float64(b.Y-a.Y), float64(b.Z-a.Z)
	vx, vy, vz := float64(c.X-a.X), float64(c.Y-a.Y), float64(c.Z-a.Z)
	nx := uy*vz - uz*vy
	ny := uz*vx - ux*vz
	nz := ux*vy - uy*vx
	l := stdmath.Sqrt(nx*nx + ny*ny + nz*nz)
	if l == 0 {
		return math.Vec3{}
	}
	return math.Vec3{X: float32(nx / l), Y: float32(ny / l), Z: float32(nz / l)}
}

func putVec3(b []byte, v math.Vec3) {
	binary.LittleEndian.PutUint32(b[0:], stdmath.Float32bits(v.X))
	binary.LittleEndian.PutUint32(b[4:], stdmath.Float32bits(v.Y))
	binary.LittleEndian.PutUint32(b[8:], stdmath.Float32bits(v.Z))
}

func readVec3(b []byte) math.Vec3 {
	return math.Vec3{
		X: stdmath.Float32frombits(binary.LittleEndian.Uint32(b[0:])),
		Y: stdmath.Float32frombits(binary.LittleEndian.Uint32(b[4:])),
		Z: stdmath.Float32frombits(binary.LittleEndian.Uint32(b[8:])),
	}
}

// STLTriangle is one facet of a binary STL file.
type STLTriangle struct {
	Normal    math.Vec3
	Vertices  [3]math.Vec3
	Attribute uint16
}

// STL represents a parsed binary STL file.
type STL struct {
	Header    [stlHeaderSize]byte
	Triangles []STLTriangle
}

// Bounds returns the bounding box of all vertices. ok is false when there
// are no triangles.
func (s *STL) Bounds() (lo, hi math.Vec3, ok bool) {
	if len(s.Triangles) == 0 {
		return lo, hi, false
	}
	lo, hi = s.Triangles[0].Vertices[0], s.Triangles[0].Vertices[0]
	for _, t := range s.Triangles {
		for _, v := range t.Vertices {
			lo, hi = lo.Min(v), hi.Max(v)
		}
	}
	return lo, hi, true
}

// ParseSTL parses binary STL data.
func ParseSTL(data []byte) (*STL, error) {
	if len(data) < stlHeaderSize+4 {
		return nil, ErrTruncatedSTL
	}

	s := &STL{}
	copy(s.Header[:], data[:stlHeaderSize])
	count := binary.LittleEndian.Uint32(data[stlHeaderSize:])

	want := stlHeaderSize + 4 + stlTriangleSize*int(count)
	if len(data) < want {
		return nil, fmt.Errorf("%w: %d triangles need %d bytes, have %d", ErrTruncatedSTL, count, want, len(data))
	}

	s.Triangles = make([]STLTriangle, count)
	for i := range s.Triangles {
		rec := data[stlHeaderSize+4+i*stlTriangleSize:]
		t := &s.Triangles[i]
		t.Normal = readVec3(rec[0:])
		for k := 0; k < 3; k++ {
			t.Vertices[k] = readVec3(rec[12*(k+1):])
		}
		t.Attribute = binary.LittleEndian.Uint16(rec[48:])
	}
	return s, nil
}
