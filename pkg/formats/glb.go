package formats

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	stdmath "math"
	"slices"

	"github.com/Faultbox/meshport/pkg/math"
	"github.com/Faultbox/meshport/pkg/mesh"
)

// Binary glTF container constants.
const (
	glbMagic      = "glTF"
	glbVersion    = 2
	glbHeaderSize = 12
	glbChunkHead  = 8

	chunkJSON uint32 = 0x4E4F534A // "JSON"
	chunkBIN  uint32 = 0x004E4942 // "BIN\0"
)

// glTF enums.
const (
	componentFloat        = 5126
	componentUnsignedInt  = 5125
	targetArrayBuffer     = 34962
	targetElementBuffer   = 34963
	primitiveModeTriangle = 4
)

// GLB format errors.
var (
	ErrInvalidGLBMagic       = errors.New("invalid GLB magic: expected 'glTF'")
	ErrUnsupportedGLBVersion = errors.New("unsupported GLB version")
	ErrTruncatedGLB          = errors.New("truncated GLB data")
	ErrMissingJSONChunk      = errors.New("GLB has no JSON chunk")
)

// GLTFDocument is the subset of the glTF 2.0 JSON schema the exporter writes.
type GLTFDocument struct {
	Asset       GLTFAsset        `json:"asset"`
	Scene       int              `json:"scene"`
	Scenes      []GLTFScene      `json:"scenes"`
	Nodes       []GLTFNode       `json:"nodes,omitempty"`
	Meshes      []GLTFMesh       `json:"meshes,omitempty"`
	Materials   []GLTFMaterial   `json:"materials,omitempty"`
	Accessors   []GLTFAccessor   `json:"accessors,omitempty"`
	BufferViews []GLTFBufferView `json:"bufferViews,omitempty"`
	Buffers     []GLTFBuffer     `json:"buffers,omitempty"`
}

// GLTFAsset identifies the glTF version and the producing tool.
type GLTFAsset struct {
	Version   string `json:"version"`
	Generator string `json:"generator,omitempty"`
}

// GLTFScene lists the root nodes of a scene.
type GLTFScene struct {
	Name  string `json:"name,omitempty"`
	Nodes []int  `json:"nodes,omitempty"`
}

// GLTFNode places one mesh in the scene.
type GLTFNode struct {
	Name string `json:"name,omitempty"`
	Mesh int    `json:"mesh"`
}

// GLTFMesh groups the primitives of one record.
type GLTFMesh struct {
	Name       string          `json:"name,omitempty"`
	Primitives []GLTFPrimitive `json:"primitives"`
}

// GLTFPrimitive is one indexed triangle list.
type GLTFPrimitive struct {
	Attributes map[string]int `json:"attributes"`
	Indices    int            `json:"indices"`
	Material   int            `json:"material"`
	Mode       int            `json:"mode"`
}

// GLTFMaterial is a double-sided metallic-roughness material.
type GLTFMaterial struct {
	Name                 string  `json:"name,omitempty"`
	PBRMetallicRoughness GLTFPBR `json:"pbrMetallicRoughness"`
	DoubleSided          bool    `json:"doubleSided"`
}

// GLTFPBR holds metallic-roughness factors. Zero factors are meaningful and
// always written.
type GLTFPBR struct {
	BaseColorFactor [4]float32 `json:"baseColorFactor"`
	MetallicFactor  float32    `json:"metallicFactor"`
	RoughnessFactor float32    `json:"roughnessFactor"`
}

// GLTFAccessor types a bufferView.
type GLTFAccessor struct {
	BufferView    int       `json:"bufferView"`
	ComponentType int       `json:"componentType"`
	Count         int       `json:"count"`
	Type          string    `json:"type"`
	Min           []float64 `json:"min,omitempty"`
	Max           []float64 `json:"max,omitempty"`
}

// GLTFBufferView is a byte range of the binary chunk.
type GLTFBufferView struct {
	Buffer     int `json:"buffer"`
	ByteOffset int `json:"byteOffset"`
	ByteLength int `json:"byteLength"`
	Target     int `json:"target,omitempty"`
}

// GLTFBuffer is the binary chunk.
type GLTFBuffer struct {
	ByteLength int `json:"byteLength"`
}

// glbBuilder accumulates the JSON document and the binary chunk.
type glbBuilder struct {
	doc        GLTFDocument
	components []any
	offset     int // bytes of binary data emitted so far
}

// addView appends one buffer component, records its bufferView and accessor,
// and returns the accessor index.
func (g *glbBuilder) addView(data any, byteLength, target int, acc GLTFAccessor) int {
	g.components = append(g.components, data)
	g.doc.BufferViews = append(g.doc.BufferViews, GLTFBufferView{
		Buffer:     0,
		ByteOffset: g.offset,
		ByteLength: byteLength,
		Target:     target,
	})
	g.offset += byteLength
	if pad := padding(g.offset); pad > 0 {
		g.components = append(g.components, make([]byte, pad))
		g.offset += pad
	}

	acc.BufferView = len(g.doc.BufferViews) - 1
	g.doc.Accessors = append(g.doc.Accessors, acc)
	return len(g.doc.Accessors) - 1
}

// EncodeGLB writes records as a binary glTF 2.0 container in Y-up axes. Each
// non-empty record becomes one node, mesh and material; a vertex color
// channel becomes COLOR_0.
func EncodeGLB(records []*mesh.Record, opts Options) ([]byte, error) {
	g := &glbBuilder{
		doc: GLTFDocument{
			Asset:  GLTFAsset{Version: "2.0", Generator: "meshport"},
			Scenes: []GLTFScene{{Name: opts.Name}},
		},
	}

	for _, r := range records {
		if r.Empty() || r.VertexCount() == 0 {
			continue
		}
		g.addRecord(r)
	}
	if g.offset > 0 {
		g.doc.Buffers = []GLTFBuffer{{ByteLength: g.offset}}
	}

	doc, err := json.Marshal(g.doc)
	if err != nil {
		return nil, fmt.Errorf("encoding glTF JSON: %w", err)
	}
	for pad := padding(len(doc)); pad > 0; pad-- {
		doc = append(doc, ' ')
	}

	total := glbHeaderSize + glbChunkHead + len(doc)
	if g.offset > 0 {
		total += glbChunkHead + g.offset
	}

	components := []any{glbMagic, uint32(glbVersion), total, len(doc), chunkJSON, string(doc)}
	if g.offset > 0 {
		components = append(components, g.offset, chunkBIN)
		components = append(components, g.components...)
	}
	return pack(components...)
}

func (g *glbBuilder) addRecord(r *mesh.Record) {
	i := len(g.doc.Meshes)
	vn := r.VertexCount()

	positions := yUpArray(r.Positions)
	normals := yUpArray(r.Normals)
	pos := GLTFAccessor{ComponentType: componentFloat, Count: vn, Type: "VEC3"}
	if lo, hi, ok := bounds(positions, r.Indices); ok {
		pos.Min = []float64{float64(lo.X), float64(lo.Y), float64(lo.Z)}
		pos.Max = []float64{float64(hi.X), float64(hi.Y), float64(hi.Z)}
	}

	attrs := map[string]int{}
	attrs["POSITION"] = g.addView(positions, 12*vn, targetArrayBuffer, pos)
	attrs["NORMAL"] = g.addView(normals, 12*vn, targetArrayBuffer, GLTFAccessor{
		ComponentType: componentFloat,
		Count:         vn,
		Type:          "VEC3",
		Min:           []float64{-1, -1, -1},
		Max:           []float64{1, 1, 1},
	})
	idx := GLTFAccessor{ComponentType: componentUnsignedInt, Count: len(r.Indices), Type: "SCALAR"}
	idx.Min, idx.Max = indexRange(r.Indices)
	indices := g.addView(r.Indices, 4*len(r.Indices), targetElementBuffer, idx)
	if r.HasVertexColors() {
		attrs["COLOR_0"] = g.addView(r.VertexColors, 12*vn, targetArrayBuffer, GLTFAccessor{
			ComponentType: componentFloat,
			Count:         vn,
			Type:          "VEC3",
		})
	}

	name := r.Name
	if name == "" {
		name = fmt.Sprintf("Mesh_%d", i)
	}
	g.doc.Scenes[0].Nodes = append(g.doc.Scenes[0].Nodes, len(g.doc.Nodes))
	g.doc.Nodes = append(g.doc.Nodes, GLTFNode{Name: name, Mesh: i})
	g.doc.Meshes = append(g.doc.Meshes, GLTFMesh{
		Name: name,
		Primitives: []GLTFPrimitive{{
			Attributes: attrs,
			Indices:    indices,
			Material:   len(g.doc.Materials),
			Mode:       primitiveModeTriangle,
		}},
	})
	g.doc.Materials = append(g.doc.Materials, GLTFMaterial{
		Name: fmt.Sprintf("Material_%d", i),
		PBRMetallicRoughness: pbr(r.Material),
		DoubleSided:          true,
	})
}

// bounds spans the finite vertices the index list references. ok is false
// when there are none, in which case the accessor carries no min/max.
func bounds(a []float32, indices []uint32) (lo, hi math.Vec3, ok bool) {
	for _, i := range indices {
		p := math.V3(a, int(i))
		if !p.IsFinite() {
			continue
		}
		if !ok {
			lo, hi, ok = p, p, true
			continue
		}
		lo, hi = lo.Min(p), hi.Max(p)
	}
	return lo, hi, ok
}

// indexRange returns the index accessor bounds. float64 holds every uint32
// exactly.
func indexRange(indices []uint32) (lo, hi []float64) {
	return []float64{float64(slices.Min(indices))}, []float64{float64(slices.Max(indices))}
}

// pbr converts a material, replacing non-finite factors with the defaults.
func pbr(m mesh.Material) GLTFPBR {
	def := mesh.DefaultMaterial()
	out := GLTFPBR{
		BaseColorFactor: m.Color,
		MetallicFactor:  finiteOr(m.Metalness, def.Metalness),
		RoughnessFactor: finiteOr(m.Roughness, def.Roughness),
	}
	for i, c := range m.Color {
		out.BaseColorFactor[i] = finiteOr(c, def.Color[i])
	}
	return out
}

func finiteOr(v, fallback float32) float32 {
	if stdmath.IsNaN(float64(v)) || stdmath.IsInf(float64(v), 0) {
		return fallback
	}
	return v
}

// GLB is a parsed binary glTF container.
type GLB struct {
	Version  uint32
	Length   uint32
	JSON     []byte // Raw JSON chunk, padding included
	Binary   []byte // BIN chunk payload; nil when absent
	Document GLTFDocument
}

// ParseGLB parses the container framing and the JSON chunk of a GLB file.
func ParseGLB(data []byte) (*GLB, error) {
	if len(data) < glbHeaderSize {
		return nil, ErrTruncatedGLB
	}
	if string(data[:4]) != glbMagic {
		return nil, ErrInvalidGLBMagic
	}

	g := &GLB{
		Version: binary.LittleEndian.Uint32(data[4:]),
		Length:  binary.LittleEndian.Uint32(data[8:]),
	}
	if g.Version != glbVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedGLBVersion, g.Version)
	}
	if int(g.Length) > len(data) {
		return nil, fmt.Errorf("%w: header declares %d bytes, have %d", ErrTruncatedGLB, g.Length, len(data))
	}

	pos := glbHeaderSize
	for pos < int(g.Length) {
		if pos+glbChunkHead > int(g.Length) {
			return nil, fmt.Errorf("%w: chunk header at %d", ErrTruncatedGLB, pos)
		}
		size := int(binary.LittleEndian.Uint32(data[pos:]))
		kind := binary.LittleEndian.Uint32(data[pos+4:])
		start := pos + glbChunkHead
		if start+size > int(g.Length) {
			return nil, fmt.Errorf("%w: chunk at %d needs %d bytes", ErrTruncatedGLB, pos, size)
		}
		switch {
		case kind == chunkJSON && g.JSON == nil:
			g.JSON = data[start : start+size]
		case kind == chunkBIN && g.Binary == nil:
			g.Binary = data[start : start+size]
		}
		pos = start + size
	}

	if g.JSON == nil {
		return nil, ErrMissingJSONChunk
	}
	if err := json.Unmarshal(g.JSON, &g.Document); err != nil {
		return nil, fmt.Errorf("decoding glTF JSON: %w", err)
	}
	return g, nil
}

// Float32s reads the float32 elements a bufferView covers in the BIN chunk.
func (g *GLB) Float32s(view int) ([]float32, error) {
	b, err := g.viewBytes(view)
	if err != nil {
		return nil, err
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = readFloat32(b[4*i:])
	}
	return out, nil
}

// Uint32s reads the uint32 elements a bufferView covers in the BIN chunk.
func (g *GLB) Uint32s(view int) ([]uint32, error) {
	b, err := g.viewBytes(view)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, len(b)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[4*i:])
	}
	return out, nil
}

func (g *GLB) viewBytes(view int) ([]byte, error) {
	if view < 0 || view >= len(g.Document.BufferViews) {
		return nil, fmt.Errorf("bufferView %d out of range", view)
	}
	bv := g.Document.BufferViews[view]
	if bv.ByteOffset < 0 || bv.ByteLength < 0 {
		return nil, fmt.Errorf("bufferView %d has negative range", view)
	}
	if bv.ByteOffset+bv.ByteLength > len(g.Binary) {
		return nil, fmt.Errorf("%w: bufferView %d exceeds BIN chunk", ErrTruncatedGLB, view)
	}
	return g.Binary[bv.ByteOffset : bv.ByteOffset+bv.ByteLength], nil
}

func readFloat32(b []byte) float32 {
	return stdmath.Float32frombits(binary.LittleEndian.Uint32(b))
}
