package formats

import (
	"encoding/binary"
	"encoding/json"
	stdmath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/Faultbox/meshport/pkg/mesh"
)

func encodeGLB(t *testing.T, records ...*mesh.Record) *GLB {
	t.Helper()
	data, err := EncodeGLB(records, DefaultOptions())
	require.NoError(t, err)
	g, err := ParseGLB(data)
	require.NoError(t, err)
	return g
}

func TestEncodeGLB_Framing(t *testing.T) {
	data, err := EncodeGLB([]*mesh.Record{triangle(), square(1)}, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "glTF", string(data[:4]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[4:]))
	assert.Equal(t, uint32(len(data)), binary.LittleEndian.Uint32(data[8:]))

	jsonLen := int(binary.LittleEndian.Uint32(data[12:]))
	assert.Equal(t, chunkJSON, binary.LittleEndian.Uint32(data[16:]))
	assert.Zero(t, jsonLen%4, "JSON chunk is 4-byte aligned")

	binHead := 20 + jsonLen
	binLen := int(binary.LittleEndian.Uint32(data[binHead:]))
	assert.Equal(t, chunkBIN, binary.LittleEndian.Uint32(data[binHead+4:]))
	assert.Zero(t, binLen%4)
	assert.Equal(t, 12+8+jsonLen+8+binLen, len(data))
}

func TestEncodeGLB_JSONPaddedWithSpaces(t *testing.T) {
	g := encodeGLB(t, triangle())
	require.True(t, gjson.ValidBytes(g.JSON))

	trimmed := len(g.JSON)
	for trimmed > 0 && g.JSON[trimmed-1] == ' ' {
		trimmed--
	}
	assert.Equal(t, byte('}'), g.JSON[trimmed-1])
	assert.Less(t, len(g.JSON)-trimmed, 4)
}

func TestEncodeGLB_Document(t *testing.T) {
	r := square(0)
	r.Name = "floor"
	g := encodeGLB(t, triangle(), r)
	doc := string(g.JSON)

	assert.Equal(t, "2.0", gjson.Get(doc, "asset.version").String())
	assert.Equal(t, "meshport", gjson.Get(doc, "scenes.0.name").String())
	assert.Equal(t, []any{float64(0), float64(1)}, gjson.Get(doc, "scenes.0.nodes").Value())
	assert.Equal(t, int64(2), gjson.Get(doc, "meshes.#").Int())
	assert.Equal(t, int64(2), gjson.Get(doc, "materials.#").Int())
	assert.Equal(t, int64(6), gjson.Get(doc, "accessors.#").Int())
	assert.Equal(t, int64(6), gjson.Get(doc, "bufferViews.#").Int())

	assert.Equal(t, "Mesh_0", gjson.Get(doc, "meshes.0.name").String())
	assert.Equal(t, "floor", gjson.Get(doc, "meshes.1.name").String())
	assert.Equal(t, "Material_1", gjson.Get(doc, "materials.1.name").String())

	prim := gjson.Get(doc, "meshes.1.primitives.0")
	assert.Equal(t, int64(4), prim.Get("mode").Int())
	assert.Equal(t, int64(1), prim.Get("material").Int())
	assert.False(t, prim.Get("attributes.COLOR_0").Exists())

	pos := gjson.Get(doc, "accessors."+prim.Get("attributes.POSITION").String())
	assert.Equal(t, int64(5126), pos.Get("componentType").Int())
	assert.Equal(t, "VEC3", pos.Get("type").String())
	assert.Equal(t, int64(4), pos.Get("count").Int())
	assert.Equal(t, []any{float64(0), float64(0), float64(-1)}, pos.Get("min").Value())
	assert.Equal(t, []any{float64(1), float64(0), float64(0)}, pos.Get("max").Value())

	idx := gjson.Get(doc, "accessors."+prim.Get("indices").String())
	assert.Equal(t, int64(5125), idx.Get("componentType").Int())
	assert.Equal(t, "SCALAR", idx.Get("type").String())
	assert.Equal(t, int64(6), idx.Get("count").Int())
	assert.Equal(t, float64(0), idx.Get("min.0").Float())
	assert.Equal(t, float64(3), idx.Get("max.0").Float())

	idxView := gjson.Get(doc, "bufferViews."+idx.Get("bufferView").String())
	assert.Equal(t, int64(34963), idxView.Get("target").Int())

	mat := gjson.Get(doc, "materials.1")
	assert.True(t, mat.Get("doubleSided").Bool())
	assert.InDeltaSlice(t, []float64{0.2, 0.4, 0.6, 1},
		toFloats(mat.Get("pbrMetallicRoughness.baseColorFactor").Array()), 1e-6)
	assert.True(t, mat.Get("pbrMetallicRoughness.metallicFactor").Exists(), "zero metalness is still written")
	assert.InDelta(t, 0.5, mat.Get("pbrMetallicRoughness.roughnessFactor").Float(), 1e-6)

	assert.Equal(t, int64(len(g.Binary)), gjson.Get(doc, "buffers.0.byteLength").Int())
}

func toFloats(rs []gjson.Result) []float64 {
	out := make([]float64, len(rs))
	for i, r := range rs {
		out[i] = r.Float()
	}
	return out
}

func TestEncodeGLB_BinaryData(t *testing.T) {
	g := encodeGLB(t, triangle())
	prim := g.Document.Meshes[0].Primitives[0]

	pos, err := g.Float32s(g.Document.Accessors[prim.Attributes["POSITION"]].BufferView)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0, 1, 0, 0, 0, 0, -1}, pos)

	nrm, err := g.Float32s(g.Document.Accessors[prim.Attributes["NORMAL"]].BufferView)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 0, 0, 1, 0, 0, 1, 0}, nrm)

	idx, err := g.Uint32s(g.Document.Accessors[prim.Indices].BufferView)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2}, idx)
}

func TestEncodeGLB_VertexColors(t *testing.T) {
	r := triangle()
	r.VertexColors = []float32{1, 0, 0, 0, 1, 0, 0, 0, 1}
	g := encodeGLB(t, r)

	view, ok := g.Document.Meshes[0].Primitives[0].Attributes["COLOR_0"]
	require.True(t, ok)
	acc := g.Document.Accessors[view]
	assert.Equal(t, "VEC3", acc.Type)
	assert.Equal(t, 3, acc.Count)

	colors, err := g.Float32s(acc.BufferView)
	require.NoError(t, err)
	assert.Equal(t, r.VertexColors, colors, "colors are not axis remapped")
}

func TestEncodeGLB_ViewsAligned(t *testing.T) {
	g := encodeGLB(t, triangle(), square(2), triangle())
	for i, bv := range g.Document.BufferViews {
		assert.Zero(t, bv.ByteOffset%4, "view %d", i)
	}
}

func TestEncodeGLB_SkipsEmptyRecords(t *testing.T) {
	empty := &mesh.Record{Positions: []float32{}, Normals: []float32{}, Indices: []uint32{}}
	g := encodeGLB(t, empty, triangle(), empty)

	assert.Len(t, g.Document.Meshes, 1)
	assert.Len(t, g.Document.Nodes, 1)
}

func TestEncodeGLB_NoRecords(t *testing.T) {
	data, err := EncodeGLB(nil, DefaultOptions())
	require.NoError(t, err)

	g, err := ParseGLB(data)
	require.NoError(t, err)
	assert.Nil(t, g.Binary)
	assert.Empty(t, g.Document.Meshes)
	assert.False(t, gjson.GetBytes(g.JSON, "buffers").Exists())
	assert.Equal(t, int(g.Length), len(data))
}

func TestParseGLB_Errors(t *testing.T) {
	good, err := EncodeGLB([]*mesh.Record{triangle()}, DefaultOptions())
	require.NoError(t, err)

	badMagic := append([]byte("glTX"), good[4:]...)
	badVersion := append([]byte(nil), good...)
	binary.LittleEndian.PutUint32(badVersion[4:], 1)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"short", good[:8], ErrTruncatedGLB},
		{"magic", badMagic, ErrInvalidGLBMagic},
		{"version", badVersion, ErrUnsupportedGLBVersion},
		{"cut", good[:len(good)-4], ErrTruncatedGLB},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGLB(tt.data)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEncodeGLB_NonFinitePositions(t *testing.T) {
	nan := float32(stdmath.NaN())
	r := triangle()
	r.Positions = append(r.Positions, nan, nan, nan)
	r.Normals = append(r.Normals, 0, 0, 1)
	r.Material.Roughness = float32(stdmath.Inf(1))
	r.Material.Color[0] = nan

	g := encodeGLB(t, r)
	doc := string(g.JSON)

	pos := gjson.Get(doc, "accessors.0")
	assert.Equal(t, int64(4), pos.Get("count").Int())
	assert.Equal(t, []float64{0, 0, -1}, toFloats(pos.Get("min").Array()))
	assert.Equal(t, []float64{1, 0, 0}, toFloats(pos.Get("max").Array()))

	pbr := gjson.Get(doc, "materials.0.pbrMetallicRoughness")
	assert.Equal(t, 1.0, pbr.Get("roughnessFactor").Float())
	assert.Equal(t, []float64{1, 1, 1, 1}, toFloats(pbr.Get("baseColorFactor").Array()))
}

func TestEncodeGLB_NoFiniteReferencedPositions(t *testing.T) {
	inf := float32(stdmath.Inf(-1))
	r := triangle()
	r.Positions = []float32{inf, 0, 0, inf, 0, 0, inf, 0, 0}

	g := encodeGLB(t, r)
	pos := gjson.GetBytes(g.JSON, "accessors.0")
	assert.False(t, pos.Get("min").Exists())
	assert.False(t, pos.Get("max").Exists())
}

func TestIndexRange_Exact(t *testing.T) {
	lo, hi := indexRange([]uint32{16777217, 3, 1<<32 - 1})

	b, err := json.Marshal(GLTFAccessor{Min: lo, Max: hi})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), gjson.GetBytes(b, "min.0").Uint())
	assert.Equal(t, uint64(1<<32-1), gjson.GetBytes(b, "max.0").Uint())

	lo, _ = indexRange([]uint32{16777217})
	assert.Equal(t, 16777217.0, lo[0])
}

func TestGLB_NegativeViewRange(t *testing.T) {
	g := encodeGLB(t, triangle())

	g.Document.BufferViews[0].ByteOffset = -4
	_, err := g.Float32s(0)
	assert.Error(t, err)

	g.Document.BufferViews[0].ByteOffset = 0
	g.Document.BufferViews[0].ByteLength = -4
	_, err = g.Uint32s(0)
	assert.Error(t, err)
}
