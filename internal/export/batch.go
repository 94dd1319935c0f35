// Package export turns captured surfaces into model files: it validates and
// deduplicates them into a batch, optionally clips and merges the batch, and
// hands the result to an encoder.
package export

import (
	"github.com/google/uuid"

	"github.com/Faultbox/meshport/pkg/mesh"
)

// Outcome is the result of adding one record to a batch.
type Outcome int

// Possible outcomes of Batch.Add.
const (
	Accepted Outcome = iota
	Duplicate
	Decoration
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Duplicate:
		return "duplicate"
	case Decoration:
		return "decoration"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Batch is the ordered, deduplicated collection of records assembled during
// one export session. A batch is not safe for concurrent use.
type Batch struct {
	ID uuid.UUID

	records []*mesh.Record
	dedup   *mesh.Deduplicator
}

// NewBatch starts an empty batch with a fresh session id.
func NewBatch() *Batch {
	return &Batch{
		ID:    uuid.New(),
		dedup: mesh.NewDeduplicator(),
	}
}

// Add validates raw and appends it unless its geometry is a decoration or
// was already collected by this batch. The error is non-nil only for
// Rejected.
func (b *Batch) Add(raw mesh.RawRecord) (Outcome, mesh.Diagnostics, error) {
	r, diag, err := mesh.Validate(raw)
	if err != nil {
		return Rejected, diag, err
	}

	fp := mesh.FingerprintOf(r)
	if _, ok := mesh.IsDecoration(fp); ok {
		return Decoration, diag, nil
	}
	if b.dedup.Seen(fp) {
		return Duplicate, diag, nil
	}
	b.dedup.Record(fp)
	b.records = append(b.records, r)
	return Accepted, diag, nil
}

// Records returns the collected records in submission order. The slice is a
// copy; the records themselves must be treated as read-only.
func (b *Batch) Records() []*mesh.Record {
	return append([]*mesh.Record(nil), b.records...)
}

// Len returns the number of collected records.
func (b *Batch) Len() int {
	return len(b.records)
}
