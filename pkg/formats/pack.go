package formats

import (
	"encoding/binary"
	"errors"
	"fmt"
	stdmath "math"
)

// ErrUnsupportedComponentType is returned by pack for a component that is
// neither text, a 32-bit number nor a byte/number buffer. Byte layout is
// positional, so the whole encode fails.
var ErrUnsupportedComponentType = errors.New("unsupported component type")

// pack concatenates components little-endian: strings as UTF-8, uint32 and
// int as 4 bytes, slices of byte, uint32 or float32 as their raw elements.
func pack(components ...any) ([]byte, error) {
	size := 0
	for i, c := range components {
		n, err := componentSize(c)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		size += n
	}

	buf := make([]byte, 0, size)
	for _, c := range components {
		switch v := c.(type) {
		case string:
			buf = append(buf, v...)
		case uint32:
			buf = binary.LittleEndian.AppendUint32(buf, v)
		case int:
			buf = binary.LittleEndian.AppendUint32(buf, uint32(v))
		case []byte:
			buf = append(buf, v...)
		case []uint32:
			for _, u := range v {
				buf = binary.LittleEndian.AppendUint32(buf, u)
			}
		case []float32:
			for _, f := range v {
				buf = binary.LittleEndian.AppendUint32(buf, stdmath.Float32bits(f))
			}
		}
	}
	return buf, nil
}

func componentSize(c any) (int, error) {
	switch v := c.(type) {
	case string:
		return len(v), nil
	case uint32, int:
		return 4, nil
	case []byte:
		return len(v), nil
	case []uint32:
		return 4 * len(v), nil
	case []float32:
		return 4 * len(v), nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnsupportedComponentType, c)
	}
}

// padding returns how many bytes bring n up to a multiple of 4.
func padding(n int) int {
	return (4 - n%4) % 4
}
