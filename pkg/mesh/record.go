// Package mesh holds the validated in-memory mesh representation and the
// geometry passes run over it before export: validation, deduplication,
// axis-aligned box clipping and instance merging.
package mesh

import (
	"slices"
	"strings"

	"github.com/Faultbox/meshport/pkg/math"
)

// GroupSeparator splits a group key into its topology prefix and an instance
// suffix, e.g. "surface-3#12".
const GroupSeparator = "#"

// Material is the uniform surface appearance of a record.
type Material struct {
	Color     [4]float32 // Linear RGBA
	Metalness float32    // 0..1
	Roughness float32    // 0..1
}

// DefaultMaterial is opaque white, non-metallic and fully rough.
func DefaultMaterial() Material {
	return Material{Color: [4]float32{1, 1, 1, 1}, Metalness: 0, Roughness: 1}
}

// Record is one exportable triangulated surface. A Record returned by
// Validate satisfies every structural invariant; later passes keep them.
type Record struct {
	Name string

	Positions    []float32 // Flattened xyz
	Normals      []float32 // Flattened xyz, len == len(Positions)
	Indices      []uint32  // Triangle list
	VertexColors []float32 // Optional flattened rgb, len == len(Positions)

	Material Material
	GroupKey string // Optional topology tag; see Topology
}

// VertexCount returns the number of vertices.
func (r *Record) VertexCount() int {
	return len(r.Positions) / 3
}

// TriangleCount returns the number of triangles.
func (r *Record) TriangleCount() int {
	return len(r.Indices) / 3
}

// Empty reports whether the record has no triangles.
func (r *Record) Empty() bool {
	return len(r.Indices) == 0
}

// HasVertexColors reports whether a per-vertex color channel is present.
func (r *Record) HasVertexColors() bool {
	return len(r.VertexColors) > 0
}

// Position returns vertex i.
func (r *Record) Position(i uint32) math.Vec3 {
	return math.V3(r.Positions, int(i))
}

// Triangle returns the vertex indices of triangle t.
func (r *Record) Triangle(t int) (a, b, c uint32) {
	return r.Indices[3*t], r.Indices[3*t+1], r.Indices[3*t+2]
}

// Topology returns the group key up to the instance separator. Records with
// an empty topology never merge.
func (r *Record) Topology() string {
	key, _, _ := strings.Cut(r.GroupKey, GroupSeparator)
	return key
}

// Bounds returns the axis-aligned bounds of all vertices. ok is false for a
// record without vertices.
func (r *Record) Bounds() (lo, hi math.Vec3, ok bool) {
	n := r.VertexCount()
	if n == 0 {
		return lo, hi, false
	}
	lo = math.V3(r.Positions, 0)
	hi = lo
	for i := 1; i < n; i++ {
		p := math.V3(r.Positions, i)
		lo = lo.Min(p)
		hi = hi.Max(p)
	}
	return lo, hi, true
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	c.Positions = slices.Clone(r.Positions)
	c.Normals = slices.Clone(r.Normals)
	c.Indices = slices.Clone(r.Indices)
	c.VertexColors = slices.Clone(r.VertexColors)
	return &c
}
