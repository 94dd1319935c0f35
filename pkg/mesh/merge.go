package mesh

import "slices"

// Merge collapses maximal runs of consecutive instanced records into single
// records and returns the shorter sequence. Records in a run share topology,
// vertex/normal/index counts, the exact index array, and metalness, roughness
// and alpha; they may differ in positions and color. Runs of one pass through
// untouched. The input records are not modified.
func Merge(records []*Record) []*Record {
	out := make([]*Record, 0, len(records))
	for i := 0; i < len(records); {
		j := i + 1
		for j < len(records) && mergeable(records[i], records[j]) {
			j++
		}
		if j-i == 1 {
			out = append(out, records[i])
		} else {
			out = append(out, mergeRun(records[i:j]))
		}
		i = j
	}
	return out
}

func mergeable(head, r *Record) bool {
	topo := head.Topology()
	if topo == "" || r.Topology() != topo {
		return false
	}
	if len(head.Positions) != len(r.Positions) ||
		len(head.Normals) != len(r.Normals) ||
		len(head.Indices) != len(r.Indices) {
		return false
	}
	hm, rm := head.Material, r.Material
	if hm.Metalness != rm.Metalness || hm.Roughness != rm.Roughness || hm.Color[3] != rm.Color[3] {
		return false
	}
	return slices.Equal(head.Indices, r.Indices)
}

func mergeRun(run []*Record) *Record {
	head := run[0]
	uniform := true
	colored := false
	for _, r := range run {
		if r.Material != head.Material {
			uniform = false
		}
		if r.HasVertexColors() {
			colored = true
		}
	}

	nv := len(head.Positions)
	ni := len(head.Indices)
	out := &Record{
		Name:      head.Name,
		GroupKey:  head.Topology(),
		Material:  head.Material,
		Positions: make([]float32, 0, nv*len(run)),
		Normals:   make([]float32, 0, nv*len(run)),
		Indices:   make([]uint32, 0, ni*len(run)),
	}
	if !uniform {
		// Per-instance tint moves into the color channel.
		out.Material.Color = [4]float32{1, 1, 1, head.Material.Color[3]}
	}
	if !uniform || colored {
		out.VertexColors = make([]float32, 0, nv*len(run))
	}

	base := uint32(0)
	for _, r := range run {
		out.Positions = append(out.Positions, r.Positions...)
		out.Normals = append(out.Normals, r.Normals...)
		for _, idx := range r.Indices {
			out.Indices = append(out.Indices, idx+base)
		}
		if out.VertexColors != nil {
			out.VertexColors = appendInstanceColors(out.VertexColors, r, uniform)
		}
		base += uint32(r.VertexCount())
	}
	return out
}

// appendInstanceColors appends one rgb triple per vertex of r: its own vertex
// color (white when absent), tinted by its material color unless the run
// keeps a uniform material.
func appendInstanceColors(dst []float32, r *Record, uniform bool) []float32 {
	tint := [3]float32{1, 1, 1}
	if !uniform {
		tint = [3]float32{r.Material.Color[0], r.Material.Color[1], r.Material.Color[2]}
	}
	for v := 0; v < r.VertexCount(); v++ {
		c := [3]float32{1, 1, 1}
		if r.HasVertexColors() {
			c = [3]float32{r.VertexColors[3*v], r.VertexColors[3*v+1], r.VertexColors[3*v+2]}
		}
		dst = append(dst, c[0]*tint[0], c[1]*tint[1], c[2]*tint[2])
	}
	return dst
}
