package formats

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Faultbox/meshport/pkg/mesh"
)

// ErrUnknownFormat is returned for an unrecognized export format name.
var ErrUnknownFormat = errors.New("unknown export format")

// Format identifies an export file format.
type Format string

// Supported export formats.
const (
	FormatSTL Format = "stl" // Binary STL, native Z-up axes
	FormatOBJ Format = "obj" // Wavefront OBJ text, Y-up
	FormatGLB Format = "glb" // Binary glTF 2.0, Y-up
)

// Formats lists every supported format in a stable order.
func Formats() []Format {
	return []Format{FormatSTL, FormatOBJ, FormatGLB}
}

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(s, ".")))
	switch f {
	case FormatSTL, FormatOBJ, FormatGLB:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Filename returns the default output file name.
func (f Format) Filename() string {
	return "model." + string(f)
}

// MIMEType returns the media type of the format.
func (f Format) MIMEType() string {
	switch f {
	case FormatSTL:
		return "model/stl"
	case FormatOBJ:
		return "model/obj"
	case FormatGLB:
		return "model/gltf-binary"
	default:
		return "application/octet-stream"
	}
}

// Options tunes the encoders.
type Options struct {
	// Name labels the exported object: the OBJ "o" line and the glTF scene.
	Name string
}

// DefaultOptions returns the encoder defaults.
func DefaultOptions() Options {
	return Options{Name: "meshport"}
}

// Encode serializes records in format f. Records are read, never modified.
func Encode(f Format, records []*mesh.Record, opts Options) ([]byte, error) {
	switch f {
	case FormatSTL:
		return EncodeSTL(records)
	case FormatOBJ:
		return EncodeOBJ(records, opts), nil
	case FormatGLB:
		return EncodeGLB(records, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}
