package export

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Report summarizes one pass through the pipeline.
type Report struct {
	BatchID string

	Submitted   int
	Accepted    int
	Duplicates  int
	Decorations int
	Excluded    int
	Rejected    int

	ClippedAway int // Records emptied by the clip box
	MergedAway  int // Records folded into a preceding record by Merge
	Output      int // Records handed to the encoder
	Triangles   int // Triangles handed to the encoder

	// Rejections holds one error per rejected record, combined with multierr.
	Rejections error
}

// RejectionErrors returns the individual rejection errors.
func (r *Report) RejectionErrors() []error {
	return multierr.Errors(r.Rejections)
}

func (r *Report) reject(index int, name string, err error) {
	r.Rejected++
	if name == "" {
		err = fmt.Errorf("record %d: %w", index, err)
	} else {
		err = fmt.Errorf("record %d (%s): %w", index, name, err)
	}
	r.Rejections = multierr.Append(r.Rejections, err)
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (r *Report) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("batch", r.BatchID)
	enc.AddInt("submitted", r.Submitted)
	enc.AddInt("accepted", r.Accepted)
	enc.AddInt("duplicates", r.Duplicates)
	enc.AddInt("decorations", r.Decorations)
	enc.AddInt("excluded", r.Excluded)
	enc.AddInt("rejected", r.Rejected)
	enc.AddInt("clipped_away", r.ClippedAway)
	enc.AddInt("merged_away", r.MergedAway)
	enc.AddInt("output", r.Output)
	enc.AddInt("triangles", r.Triangles)
	return nil
}

var _ zapcore.ObjectMarshaler = (*Report)(nil)

func reportField(r *Report) zap.Field {
	return zap.Object("report", r)
}
