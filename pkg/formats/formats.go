// Package formats serializes mesh records to model files (binary STL,
// Wavefront OBJ, binary glTF 2.0) and decodes binary STL and GLB for
// inspection.
//
// STL keeps the capture's native Z-up axes. OBJ and glTF are Y-up, so their
// encoders map every position and normal through (x, y, z) -> (x, z, -y).
package formats
