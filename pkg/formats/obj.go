package formats

import (
	"bytes"
	"strconv"

	"github.com/Faultbox/meshport/pkg/math"
	"github.com/Faultbox/meshport/pkg/mesh"
)

// EncodeOBJ writes records as one Wavefront OBJ object in Y-up axes: all
// positions, then all normals, then the faces with 1-based indices offset by
// the vertices of the preceding records. Materials are not written.
func EncodeOBJ(records []*mesh.Record, opts Options) []byte {
	var buf bytes.Buffer
	if opts.Name != "" {
		buf.WriteString("o " + opts.Name + "\n")
	}

	line := make([]byte, 0, 64)
	for _, r := range records {
		for i := 0; i < r.VertexCount(); i++ {
			line = appendVec3(append(line[:0], 'v'), toYUp(math.V3(r.Positions, i)))
			buf.Write(line)
		}
	}
	for _, r := range records {
		for i := 0; i < len(r.Normals)/3; i++ {
			line = appendVec3(append(line[:0], "vn"...), toYUp(math.V3(r.Normals, i)))
			buf.Write(line)
		}
	}

	base := uint64(1)
	for _, r := range records {
		for t := 0; t < r.TriangleCount(); t++ {
			a, b, c := r.Triangle(t)
			line = append(line[:0], 'f')
			for _, v := range [3]uint32{a, b, c} {
				n := uint64(v) + base
				line = append(line, ' ')
				line = strconv.AppendUint(line, n, 10)
				line = append(line, '/', '/')
				line = strconv.AppendUint(line, n, 10)
			}
			line = append(line, '\n')
			buf.Write(line)
		}
		base += uint64(r.VertexCount())
	}
	return buf.Bytes()
}

// appendVec3 appends " x y z\n" using the shortest float32 decimal form.
func appendVec3(b []byte, v math.Vec3) []byte {
	for _, f := range [3]float32{v.X, v.Y, v.Z} {
		if f == 0 {
			f = 0 // drop the sign of -0
		}
		b = append(b, ' ')
		b = strconv.AppendFloat(b, float64(f), 'f', -1, 32)
	}
	return append(b, '\n')
}
