package mesh

import (
	stdmath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/meshport/pkg/math"
)

func TestApplyTransform_Translate(t *testing.T) {
	raw := triangleRaw()
	out := ApplyTransform(raw, math.Translate(1, 2, 3))

	assert.Equal(t, []float32{1, 2, 3, 2, 2, 3, 1, 3, 3}, out.Positions)
	assert.Equal(t, raw.Normals, out.Normals, "translation leaves normals alone")
	assert.Equal(t, float32(0), raw.Positions[0], "input untouched")
}

func TestApplyTransform_RotatesNormals(t *testing.T) {
	raw := triangleRaw()
	raw.Normals = []float32{1, 0, 0, 1, 0, 0, 1, 0, 0}

	out := ApplyTransform(raw, math.RotateZ(float32(stdmath.Pi/2)))
	n := math.V3(out.Normals, 0)
	assert.InDelta(t, 0, n.X, 1e-6)
	assert.InDelta(t, 1, n.Y, 1e-6)
}

func TestApplyTransform_RenormalizesAfterScale(t *testing.T) {
	out := ApplyTransform(triangleRaw(), math.Scale(3, 3, 3))
	n := math.V3(out.Normals, 0)
	assert.InDelta(t, 1, n.Length(), 1e-6)
	assert.Equal(t, float32(3), out.Positions[3])
}

func TestExpandInstances(t *testing.T) {
	raw := triangleRaw()
	raw.GroupKey = "surface-7"
	tint := [3]float32{0.1, 0.2, 0.3}

	out := ExpandInstances(raw, []Instance{
		{Matrix: math.Identity()},
		{Matrix: math.Translate(5, 0, 0), Color: &tint},
	})

	require.Len(t, out, 2)
	assert.Equal(t, "surface-7#0", out[0].GroupKey)
	assert.Equal(t, "surface-7#1", out[1].GroupKey)
	assert.Equal(t, raw.Material, out[0].Material)
	assert.Equal(t, [4]float32{0.1, 0.2, 0.3, 1}, out[1].Material.Color)
	assert.Equal(t, float32(5), out[1].Positions[0])

	r0, _, err := Validate(out[0])
	require.NoError(t, err)
	r1, _, err := Validate(out[1])
	require.NoError(t, err)
	assert.Equal(t, "surface-7", r0.Topology())
	assert.Equal(t, r0.Topology(), r1.Topology())
}

func TestExpandInstances_None(t *testing.T) {
	raw := triangleRaw()
	out := ExpandInstances(raw, nil)
	require.Len(t, out, 1)
	assert.Equal(t, raw, out[0])
}
