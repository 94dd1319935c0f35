package mesh

import (
	"fmt"
	"math"
	"strconv"
)

// quantScale maps coordinates onto a 1/65536 grid before hashing, so noise
// below ~1.5e-5 does not change a fingerprint.
const quantScale = 65536

// Fingerprint is a 64-bit geometry hash: the position hash in the high 32
// bits, the index hash in the low 32 bits. It is a heuristic; distinct meshes
// may collide.
type Fingerprint uint64

// String returns the fingerprint as 16 lowercase hex digits.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// ParseFingerprint parses the 16-digit hex form produced by String.
func ParseFingerprint(s string) (Fingerprint, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing fingerprint %q: %w", s, err)
	}
	return Fingerprint(v), nil
}

// Fingerprints of decoration primitives the grapher draws in every scene.
// They are never part of the user's data.
const (
	FingerprintAxisArrow Fingerprint = 0x8dc5ad4b70fbe090
	FingerprintAxisRod   Fingerprint = 0xd9ec0e5061527878
	FingerprintPoint     Fingerprint = 0x463c904c2f580180 // point, sphere and ellipsoid glyph
)

var decorations = map[Fingerprint]string{
	FingerprintAxisArrow: "axis arrow",
	FingerprintAxisRod:   "axis rod",
	FingerprintPoint:     "point glyph",
}

// IsDecoration reports whether f belongs to a known decoration primitive and
// returns its description.
func IsDecoration(f Fingerprint) (string, bool) {
	name, ok := decorations[f]
	return name, ok
}

// FingerprintOf hashes the quantized positions and the indices of r.
func FingerprintOf(r *Record) Fingerprint {
	ph := seedHash(len(r.Positions))
	for _, v := range r.Positions {
		ph = foldHash(ph, quantize(float64(v)))
	}
	ih := seedHash(len(r.Indices))
	for _, v := range r.Indices {
		ih = foldHash(ih, quantize(float64(v)))
	}
	return Fingerprint(uint64(ph)<<32 | uint64(ih))
}

func seedHash(n int) uint32 {
	return uint32(n)
}

// foldHash computes h*31 + q modulo 2^32.
func foldHash(h, q uint32) uint32 {
	return h*31 + q
}

// quantize rounds v*65536 half-up and reduces it modulo 2^32. Negative values
// wrap to their two's complement residue.
func quantize(v float64) uint32 {
	x := math.Floor(v*quantScale + 0.5)
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return uint32(int64(math.Mod(x, 1<<32)))
}

// Deduplicator remembers the fingerprints seen during one export session.
// It is not safe for concurrent use; each session owns its own.
type Deduplicator struct {
	seen map[Fingerprint]struct{}
}

// NewDeduplicator returns an empty deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[Fingerprint]struct{})}
}

// Seen reports whether f was recorded before or is a decoration primitive.
func (d *Deduplicator) Seen(f Fingerprint) bool {
	if _, ok := decorations[f]; ok {
		return true
	}
	_, ok := d.seen[f]
	return ok
}

// Record marks f as seen.
func (d *Deduplicator) Record(f Fingerprint) {
	d.seen[f] = struct{}{}
}

// Len returns the number of recorded fingerprints.
func (d *Deduplicator) Len() int {
	return len(d.seen)
}
