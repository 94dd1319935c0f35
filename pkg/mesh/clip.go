package mesh

import (
	stdmath "math"

	"github.com/Faultbox/meshport/pkg/math"
)

// clipEpsilonScale sizes the classification bias relative to the cube root
// of the box volume.
const clipEpsilonScale = 1e-6

// Box is an axis-aligned clip volume. A zero-volume box is a caller error.
type Box struct {
	Min, Max math.Vec3
}

// NewBox builds a box from per-axis bounds.
func NewBox(xmin, xmax, ymin, ymax, zmin, zmax float32) Box {
	return Box{
		Min: math.Vec3{X: xmin, Y: ymin, Z: zmin},
		Max: math.Vec3{X: xmax, Y: ymax, Z: zmax},
	}
}

// Volume returns the box volume.
func (b Box) Volume() float64 {
	d := b.Max.Sub(b.Min)
	return float64(d.X) * float64(d.Y) * float64(d.Z)
}

// Contains reports whether p lies inside or on the box.
func (b Box) Contains(p math.Vec3) bool {
	return b.offset(p) <= 0
}

// offset is the largest signed distance from p to any of the six boundary
// planes, positive outside.
func (b Box) offset(p math.Vec3) float64 {
	x, y, z := float64(p.X), float64(p.Y), float64(p.Z)
	return max(
		float64(b.Min.X)-x, x-float64(b.Max.X),
		float64(b.Min.Y)-y, y-float64(b.Max.Y),
		float64(b.Min.Z)-z, z-float64(b.Max.Z),
	)
}

func (b Box) epsilon() float64 {
	return clipEpsilonScale * stdmath.Cbrt(stdmath.Abs(b.Volume()))
}

// Template slots of the clip case table: 0..2 are the triangle corners,
// edge01..edge20 the vertices synthesized on the crossing edges.
const (
	edge01 = 3
	edge12 = 4
	edge20 = 5
)

// clipCases maps a case code (bit i set when corner i is outside) to the
// output triangles. Every template keeps the winding of the input triangle.
var clipCases = [8][][3]uint8{
	0b000: {{0, 1, 2}},
	0b001: {{edge01, 1, 2}, {edge01, 2, edge20}},
	0b010: {{0, edge01, edge12}, {0, edge12, 2}},
	0b011: {{edge12, 2, edge20}},
	0b100: {{0, 1, edge12}, {0, edge12, edge20}},
	0b101: {{edge01, 1, edge12}},
	0b110: {{0, edge01, edge20}},
	0b111: nil,
}

// clipper carries the per-call state of one Clip invocation.
type clipper struct {
	src *Record
	d   []float64 // biased offset per source vertex

	positions []float32
	normals   []float32
	colors    []float32
	indices   []uint32

	edges map[uint64]uint32
}

// Clip cuts r against box and returns a new record holding only the geometry
// inside it. Triangles crossing the boundary are re-triangulated; vertices no
// triangle references, or with non-finite coordinates, are dropped and the
// indices compacted. The result may be empty. r is not modified.
//
// Each vertex is classified by a single scalar, its worst violation over the
// six half-spaces, and crossing edges are cut where that scalar interpolates
// to zero. A triangle straddling a box corner is therefore cut by one
// shortcut plane per edge rather than by each face in turn.
func Clip(r *Record, box Box) *Record {
	n := r.VertexCount()
	c := &clipper{
		src:       r,
		d:         make([]float64, n),
		positions: append([]float32(nil), r.Positions...),
		normals:   append([]float32(nil), r.Normals...),
		indices:   make([]uint32, 0, len(r.Indices)),
		edges:     make(map[uint64]uint32),
	}
	if r.HasVertexColors() {
		c.colors = append([]float32(nil), r.VertexColors...)
	}

	eps := box.epsilon()
	for i := range c.d {
		c.d[i] = box.offset(math.V3(r.Positions, i)) + eps
	}

	for t := 0; t < r.TriangleCount(); t++ {
		a, b, cc := r.Triangle(t)
		corners := [3]uint32{a, b, cc}

		code := 0
		for i, v := range corners {
			if c.d[v] > 0 {
				code |= 1 << i
			}
		}

		for _, tmpl := range clipCases[code] {
			for _, slot := range tmpl {
				c.indices = append(c.indices, c.resolve(corners, slot))
			}
		}
	}

	return c.compact()
}

// resolve maps a template slot to a vertex index, synthesizing edge vertices
// on first use.
func (c *clipper) resolve(corners [3]uint32, slot uint8) uint32 {
	switch slot {
	case edge01:
		return c.edgeVertex(corners[0], corners[1])
	case edge12:
		return c.edgeVertex(corners[1], corners[2])
	case edge20:
		return c.edgeVertex(corners[2], corners[0])
	default:
		return corners[slot]
	}
}

// edgeVertex returns the vertex where the offset crosses zero on edge (a,b).
// Both triangles sharing the edge get the same vertex.
func (c *clipper) edgeVertex(a, b uint32) uint32 {
	if a > b {
		a, b = b, a
	}
	key := uint64(a)<<32 | uint64(b)
	if v, ok := c.edges[key]; ok {
		return v
	}

	da, db := c.d[a], c.d[b]
	t := -da / (db - da)

	pos := lerp3(c.src.Positions, a, b, t)
	nrm := lerp3(c.src.Normals, a, b, t).Normalize()

	v := uint32(len(c.positions) / 3)
	c.positions = append(c.positions, pos.X, pos.Y, pos.Z)
	c.normals = append(c.normals, nrm.X, nrm.Y, nrm.Z)
	if c.colors != nil {
		col := lerp3(c.src.VertexColors, a, b, t)
		c.colors = append(c.colors, col.X, col.Y, col.Z)
	}
	c.edges[key] = v
	return v
}

// lerp3 interpolates two points of a flattened xyz array in float64.
func lerp3(a []float32, i, j uint32, t float64) math.Vec3 {
	var out [3]float32
	for k := 0; k < 3; k++ {
		p, q := float64(a[3*i+uint32(k)]), float64(a[3*j+uint32(k)])
		out[k] = float32(p + (q-p)*t)
	}
	return math.Vec3{X: out[0], Y: out[1], Z: out[2]}
}

// compact drops unreferenced and non-finite vertices, along with any triangle
// touching a non-finite one, and renumbers the survivors densely in their
// original order.
func (c *clipper) compact() *Record {
	total := len(c.positions) / 3
	finite := make([]bool, total)
	for i := range finite {
		finite[i] = math.V3(c.positions, i).IsFinite() && math.V3(c.normals, i).IsFinite()
	}

	kept := make([]uint32, 0, len(c.indices))
	used := make([]bool, total)
	for t := 0; t+2 < len(c.indices); t += 3 {
		tri := c.indices[t : t+3]
		if !finite[tri[0]] || !finite[tri[1]] || !finite[tri[2]] {
			continue
		}
		kept = append(kept, tri...)
		used[tri[0]], used[tri[1]], used[tri[2]] = true, true, true
	}

	out := &Record{
		Name:      c.src.Name,
		Material:  c.src.Material,
		GroupKey:  c.src.GroupKey,
		Positions: []float32{},
		Normals:   []float32{},
		Indices:   make([]uint32, len(kept)),
	}

	remap := make([]uint32, total)
	next := uint32(0)
	for v := 0; v < total; v++ {
		if !used[v] {
			continue
		}
		remap[v] = next
		next++
		out.Positions = append(out.Positions, c.positions[3*v:3*v+3]...)
		out.Normals = append(out.Normals, c.normals[3*v:3*v+3]...)
		if c.colors != nil {
			out.VertexColors = append(out.VertexColors, c.colors[3*v:3*v+3]...)
		}
	}
	for i, v := range kept {
		out.Indices[i] = remap[v]
	}
	return out
}
