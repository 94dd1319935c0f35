package mesh

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// Validation errors. Every specific error wraps ErrInvalidRecord.
var (
	ErrInvalidRecord = errors.New("invalid mesh record")

	ErrMissingPositions  = fmt.Errorf("%w: no positions", ErrInvalidRecord)
	ErrMissingNormals    = fmt.Errorf("%w: no normals", ErrInvalidRecord)
	ErrMissingIndices    = fmt.Errorf("%w: no indices", ErrInvalidRecord)
	ErrPositionLength    = fmt.Errorf("%w: position length not a multiple of 3", ErrInvalidRecord)
	ErrIndexLength       = fmt.Errorf("%w: index length not a multiple of 3", ErrInvalidRecord)
	ErrNormalLength      = fmt.Errorf("%w: normal length differs from position length", ErrInvalidRecord)
	ErrVertexColorLength = fmt.Errorf("%w: vertex color length differs from position length", ErrInvalidRecord)
	ErrIndexNotInteger   = fmt.Errorf("%w: index is not an integer", ErrInvalidRecord)
	ErrIndexOutOfRange   = fmt.Errorf("%w: index out of range", ErrInvalidRecord)
)

// RawRecord is a mesh as handed over by the capture side, before any
// invariant is checked. Indices are kept as float64 because captured index
// buffers are not guaranteed to hold integers.
type RawRecord struct {
	Name string

	Positions    []float32
	Normals      []float32
	Indices      []float64
	VertexColors []float32

	Material Material
	GroupKey string
}

// Diagnostics reports non-fatal statistics gathered during validation.
type Diagnostics struct {
	Vertices   int
	Triangles  int
	Referenced int // Vertices used by at least one triangle
}

// UsedFraction is the share of vertices referenced by a triangle, in [0,1].
// Low values point at over-allocated or degenerate buffers.
func (d Diagnostics) UsedFraction() float64 {
	if d.Vertices == 0 {
		return 0
	}
	return float64(d.Referenced) / float64(d.Vertices)
}

// Validate checks the structural invariants of raw and returns an owned
// Record. Checks run in order and stop at the first failure. raw is never
// modified.
func Validate(raw RawRecord) (*Record, Diagnostics, error) {
	var diag Diagnostics

	switch {
	case raw.Positions == nil:
		return nil, diag, ErrMissingPositions
	case raw.Normals == nil:
		return nil, diag, ErrMissingNormals
	case raw.Indices == nil:
		return nil, diag, ErrMissingIndices
	}

	n, m := len(raw.Positions), len(raw.Indices)
	if n%3 != 0 {
		return nil, diag, fmt.Errorf("%w (%d)", ErrPositionLength, n)
	}
	if m%3 != 0 {
		return nil, diag, fmt.Errorf("%w (%d)", ErrIndexLength, m)
	}
	if len(raw.Normals) != n {
		return nil, diag, fmt.Errorf("%w (%d != %d)", ErrNormalLength, len(raw.Normals), n)
	}
	if raw.VertexColors != nil && len(raw.VertexColors) != n {
		return nil, diag, fmt.Errorf("%w (%d != %d)", ErrVertexColorLength, len(raw.VertexColors), n)
	}

	vertexCount := n / 3
	used := make([]bool, vertexCount)
	indices := make([]uint32, m)
	for i, v := range raw.Indices {
		if v != math.Round(v) {
			return nil, diag, fmt.Errorf("%w: indices[%d] = %v", ErrIndexNotInteger, i, v)
		}
		if v < 0 || v >= float64(vertexCount) {
			return nil, diag, fmt.Errorf("%w: indices[%d] = %v, vertex count %d", ErrIndexOutOfRange, i, v, vertexCount)
		}
		indices[i] = uint32(v)
		used[indices[i]] = true
	}

	diag.Vertices = vertexCount
	diag.Triangles = m / 3
	for _, u := range used {
		if u {
			diag.Referenced++
		}
	}

	rec := &Record{
		Name:      raw.Name,
		Positions: slices.Clone(raw.Positions),
		Normals:   slices.Clone(raw.Normals),
		Indices:   indices,
		Material:  raw.Material,
		GroupKey:  raw.GroupKey,
	}
	if len(raw.VertexColors) > 0 {
		rec.VertexColors = slices.Clone(raw.VertexColors)
	}
	return rec, diag, nil
}
