package mesh

import (
	"slices"
	"strconv"

	"github.com/Faultbox/meshport/pkg/math"
)

// Instance is one placement of an instanced surface.
type Instance struct {
	Matrix math.Mat4
	Color  *[3]float32 // Overrides the material RGB when set
}

// ApplyTransform returns a copy of raw with positions transformed by m
// (homogeneous divide included) and normals by m's inverse-transpose,
// re-normalized. Buffers whose length is not a multiple of 3 are copied
// unchanged; Validate rejects them later.
func ApplyTransform(raw RawRecord, m math.Mat4) RawRecord {
	out := raw
	out.Positions = slices.Clone(raw.Positions)
	out.Normals = slices.Clone(raw.Normals)
	out.Indices = slices.Clone(raw.Indices)
	out.VertexColors = slices.Clone(raw.VertexColors)
	if m.IsIdentity() {
		return out
	}

	if len(out.Positions)%3 == 0 {
		for i := 0; i < len(out.Positions)/3; i++ {
			m.TransformVec3(math.V3(out.Positions, i)).Put(out.Positions, i)
		}
	}
	if len(out.Normals)%3 == 0 {
		nm := m.NormalMatrix()
		for i := 0; i < len(out.Normals)/3; i++ {
			nm.TransformDirection(math.V3(out.Normals, i)).Normalize().Put(out.Normals, i)
		}
	}
	return out
}

// ExpandInstances returns one record per instance. Instance k gets group key
// "<raw.GroupKey>#k" so that Merge can recombine the family. With no
// instances, raw is returned alone.
func ExpandInstances(raw RawRecord, instances []Instance) []RawRecord {
	if len(instances) == 0 {
		return []RawRecord{raw}
	}
	out := make([]RawRecord, 0, len(instances))
	for k, inst := range instances {
		r := ApplyTransform(raw, inst.Matrix)
		if inst.Color != nil {
			r.Material.Color = [4]float32{inst.Color[0], inst.Color[1], inst.Color[2], 1}
		}
		r.GroupKey = raw.GroupKey + GroupSeparator + strconv.Itoa(k)
		out = append(out, r)
	}
	return out
}
