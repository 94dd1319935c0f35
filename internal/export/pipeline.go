package export

import (
	"context"
	"fmt"

	"github.com/gobwas/glob"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/meshport/pkg/formats"
	"github.com/Faultbox/meshport/pkg/mesh"
)

// Options configures a Pipeline.
type Options struct {
	// Clip, when set, cuts every record to the box and drops records left
	// without triangles.
	Clip *mesh.Box

	// Merge collapses runs of instanced records sharing a topology.
	Merge bool

	// Exclude lists glob patterns matched against each record's group key
	// and name. A record matching any pattern is skipped before validation.
	Exclude []string

	// Encoder carries the encoder options (object name).
	Encoder formats.Options
}

// DefaultOptions returns options that merge and do not clip.
func DefaultOptions() Options {
	return Options{
		Merge:   true,
		Encoder: formats.DefaultOptions(),
	}
}

// Result is one encoded model file.
type Result struct {
	Format   formats.Format
	Filename string
	MIMEType string
	Data     []byte
	Report   Report
}

// Pipeline runs validate, dedupe, clip, merge and encode over a batch. A
// pipeline holds no per-session state and may be shared by sessions, each
// with its own Batch.
type Pipeline struct {
	opts    Options
	exclude []glob.Glob
	log     *zap.Logger
}

// New builds a pipeline. A nil logger disables logging.
func New(opts Options, log *zap.Logger) (*Pipeline, error) {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Pipeline{opts: opts, log: log}
	for _, pat := range opts.Exclude {
		g, err := glob.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("compiling exclude pattern %q: %w", pat, err)
		}
		p.exclude = append(p.exclude, g)
	}
	return p, nil
}

// Options returns the pipeline's options.
func (p *Pipeline) Options() Options {
	return p.opts
}

// excluded reports whether any exclude pattern matches raw's group key or
// name.
func (p *Pipeline) excluded(raw mesh.RawRecord) bool {
	for _, g := range p.exclude {
		if (raw.GroupKey != "" && g.Match(raw.GroupKey)) || (raw.Name != "" && g.Match(raw.Name)) {
			return true
		}
	}
	return false
}

// Collect adds raws to b in order. Rejected records are reported and
// skipped; they never stop the rest of the batch.
func (p *Pipeline) Collect(b *Batch, raws []mesh.RawRecord) Report {
	rep := Report{BatchID: b.ID.String()}
	log := p.log.With(zap.String("batch", rep.BatchID))

	for i, raw := range raws {
		rep.Submitted++
		if p.excluded(raw) {
			rep.Excluded++
			log.Debug("record excluded", zap.Int("index", i), zap.String("key", raw.GroupKey))
			continue
		}

		outcome, diag, err := b.Add(raw)
		switch outcome {
		case Accepted:
			rep.Accepted++
			log.Debug("record accepted",
				zap.Int("index", i),
				zap.String("key", raw.GroupKey),
				zap.Int("vertices", diag.Vertices),
				zap.Int("triangles", diag.Triangles),
				zap.Float64("used", diag.UsedFraction()),
			)
		case Duplicate:
			rep.Duplicates++
			log.Debug("duplicate geometry skipped", zap.Int("index", i), zap.String("key", raw.GroupKey))
		case Decoration:
			rep.Decorations++
			log.Debug("decoration skipped", zap.Int("index", i))
		case Rejected:
			rep.reject(i, raw.Name, err)
			log.Warn("record rejected", zap.Int("index", i), zap.String("key", raw.GroupKey), zap.Error(err))
		}
	}
	return rep
}

// Process clips and merges records according to the options, updating rep.
// The input records are not modified.
func (p *Pipeline) Process(records []*mesh.Record, rep *Report) []*mesh.Record {
	if rep == nil {
		rep = &Report{}
	}

	out := records
	if p.opts.Clip != nil {
		out = make([]*mesh.Record, 0, len(records))
		for _, r := range records {
			c := mesh.Clip(r, *p.opts.Clip)
			if c.Empty() {
				rep.ClippedAway++
				p.log.Debug("record clipped away", zap.String("key", r.GroupKey))
				continue
			}
			out = append(out, c)
		}
	}

	if p.opts.Merge {
		n := len(out)
		out = mesh.Merge(out)
		rep.MergedAway += n - len(out)
		if n != len(out) {
			p.log.Debug("merged instanced records", zap.Int("before", n), zap.Int("after", len(out)))
		}
	}

	rep.Output = len(out)
	rep.Triangles = 0
	for _, r := range out {
		rep.Triangles += r.TriangleCount()
	}
	return out
}

// Build collects raws into a fresh batch and processes it.
func (p *Pipeline) Build(raws []mesh.RawRecord) ([]*mesh.Record, Report) {
	b := NewBatch()
	rep := p.Collect(b, raws)
	records := p.Process(b.Records(), &rep)
	p.log.Info("batch processed", reportField(&rep))
	return records, rep
}

// Encode serializes processed records in format f.
func (p *Pipeline) Encode(records []*mesh.Record, f formats.Format, rep Report) (*Result, error) {
	data, err := formats.Encode(f, records, p.opts.Encoder)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", f, err)
	}
	p.log.Debug("encoded", zap.String("format", string(f)), zap.Int("bytes", len(data)))
	return &Result{
		Format:   f,
		Filename: f.Filename(),
		MIMEType: f.MIMEType(),
		Data:     data,
		Report:   rep,
	}, nil
}

// Export runs the whole pipeline for one session and encodes the result in
// format f.
func (p *Pipeline) Export(raws []mesh.RawRecord, f formats.Format) (*Result, error) {
	records, rep := p.Build(raws)
	return p.Encode(records, f, rep)
}

// EncodeAll encodes the same processed records in every format of fs
// concurrently. Results are returned in the order of fs.
func (p *Pipeline) EncodeAll(ctx context.Context, records []*mesh.Record, fs []formats.Format, rep Report) ([]*Result, error) {
	results := make([]*Result, len(fs))
	g, ctx := errgroup.WithContext(ctx)
	for i, f := range fs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := p.Encode(records, f, rep)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
