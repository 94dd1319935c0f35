// Package capture loads session capture documents: the surfaces a live
// rendering session handed over for export, with their materials, model
// matrices, instances and the viewport bounds.
package capture

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/meshport/pkg/math"
	"github.com/Faultbox/meshport/pkg/mesh"
)

var (
	// ErrUnsupportedCapture is returned for a file extension that is neither
	// JSON nor YAML.
	ErrUnsupportedCapture = errors.New("unsupported capture format")

	// ErrInvalidMatrix is returned for a matrix that is not 16 floats.
	ErrInvalidMatrix = errors.New("matrix must have 16 elements")
)

// Capture is one captured session.
type Capture struct {
	Viewport *Viewport `json:"viewport,omitempty" yaml:"viewport,omitempty"`
	Surfaces []Surface `json:"surfaces" yaml:"surfaces"`
}

// Viewport holds the visible bounds of the session, in scene units.
type Viewport struct {
	XMin float32 `json:"xmin" yaml:"xmin"`
	XMax float32 `json:"xmax" yaml:"xmax"`
	YMin float32 `json:"ymin" yaml:"ymin"`
	YMax float32 `json:"ymax" yaml:"ymax"`
	ZMin float32 `json:"zmin" yaml:"zmin"`
	ZMax float32 `json:"zmax" yaml:"zmax"`
}

// Box returns the viewport as a clip box.
func (v Viewport) Box() mesh.Box {
	return mesh.NewBox(v.XMin, v.XMax, v.YMin, v.YMax, v.ZMin, v.ZMax)
}

// Surface is one captured mesh.
type Surface struct {
	Key          string     `json:"key,omitempty" yaml:"key,omitempty"`
	Name         string     `json:"name,omitempty" yaml:"name,omitempty"`
	Positions    []float32  `json:"positions" yaml:"positions"`
	Normals      []float32  `json:"normals" yaml:"normals"`
	Indices      []float64  `json:"indices" yaml:"indices"`
	VertexColors []float32  `json:"vertexColors,omitempty" yaml:"vertexColors,omitempty"`
	Material     *Material  `json:"material,omitempty" yaml:"material,omitempty"`
	ModelMatrix  []float32  `json:"modelMatrix,omitempty" yaml:"modelMatrix,omitempty"`
	Instances    []Instance `json:"instances,omitempty" yaml:"instances,omitempty"`
}

// Material mirrors mesh.Material. Missing fields keep the default material's
// values.
type Material struct {
	Color     *[4]float32 `json:"color,omitempty" yaml:"color,omitempty"`
	Metalness *float32    `json:"metalness,omitempty" yaml:"metalness,omitempty"`
	Roughness *float32    `json:"roughness,omitempty" yaml:"roughness,omitempty"`
}

// Instance is one placement of an instanced surface.
type Instance struct {
	Matrix []float32   `json:"matrix" yaml:"matrix"`
	Color  *[3]float32 `json:"color,omitempty" yaml:"color,omitempty"`
}

// Load reads a capture file. The extension selects the decoder.
func Load(path string) (*Capture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("loading capture %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a capture document. ext is ".json", ".yaml" or ".yml".
func Parse(data []byte, ext string) (*Capture, error) {
	c := &Capture{}
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, c); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCapture, ext)
	}
	return c, nil
}

// ClipBox returns the viewport clip box, or nil when the capture has none.
func (c *Capture) ClipBox() *mesh.Box {
	if c.Viewport == nil {
		return nil
	}
	b := c.Viewport.Box()
	return &b
}

// Records flattens the capture into raw records in surface order, applying
// model matrices and expanding instances. An instanced surface without a key
// is keyed "surface-<i>" so its instances can still be merged.
func (c *Capture) Records() ([]mesh.RawRecord, error) {
	var out []mesh.RawRecord
	for i, s := range c.Surfaces {
		raws, err := s.records(i)
		if err != nil {
			return nil, fmt.Errorf("surface %d: %w", i, err)
		}
		out = append(out, raws...)
	}
	return out, nil
}

func (s Surface) records(i int) ([]mesh.RawRecord, error) {
	raw := mesh.RawRecord{
		Name:         s.Name,
		Positions:    s.Positions,
		Normals:      s.Normals,
		Indices:      s.Indices,
		VertexColors: s.VertexColors,
		Material:     s.material(),
		GroupKey:     s.Key,
	}

	model := math.Identity()
	if s.ModelMatrix != nil {
		m, err := matrix(s.ModelMatrix)
		if err != nil {
			return nil, fmt.Errorf("model matrix: %w", err)
		}
		model = m
	}

	if len(s.Instances) == 0 {
		return []mesh.RawRecord{mesh.ApplyTransform(raw, model)}, nil
	}

	if raw.GroupKey == "" {
		raw.GroupKey = fmt.Sprintf("surface-%d", i)
	}
	instances := make([]mesh.Instance, len(s.Instances))
	for k, inst := range s.Instances {
		m, err := matrix(inst.Matrix)
		if err != nil {
			return nil, fmt.Errorf("instance %d: %w", k, err)
		}
		// Instance matrices act in model space; the model matrix applies last.
		instances[k] = mesh.Instance{Matrix: model.Mul(m), Color: inst.Color}
	}
	return mesh.ExpandInstances(raw, instances), nil
}

func (s Surface) material() mesh.Material {
	m := mesh.DefaultMaterial()
	if s.Material == nil {
		return m
	}
	if s.Material.Color != nil {
		m.Color = *s.Material.Color
	}
	if s.Material.Metalness != nil {
		m.Metalness = *s.Material.Metalness
	}
	if s.Material.Roughness != nil {
		m.Roughness = *s.Material.Roughness
	}
	return m
}

func matrix(s []float32) (math.Mat4, error) {
	m, ok := math.Mat4FromSlice(s)
	if !ok {
		return m, fmt.Errorf("%w, got %d", ErrInvalidMatrix, len(s))
	}
	return m, nil
}
