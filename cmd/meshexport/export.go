package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/meshport/internal/capture"
	"github.com/Faultbox/meshport/internal/config"
	"github.com/Faultbox/meshport/internal/export"
	"github.com/Faultbox/meshport/internal/logger"
	"github.com/Faultbox/meshport/pkg/formats"
)

var errStdoutMultipleFormats = errors.New("output - (stdout) takes a single format")

func newExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <capture>",
		Short: "Export a session capture to model files",
		Example: `  meshexport export session.json
  meshexport export session.yaml -f all -o out/
  meshexport export session.json -f stl -o - > model.stl
  meshexport export session.json --clip=false --exclude 'gizmo*'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			return runExport(cmd, cfg, args[0])
		},
	}
	config.BindExportFlags(cmd.Flags())
	return cmd
}

func runExport(cmd *cobra.Command, cfg *config.Config, path string) error {
	fs, err := cfg.Export.Formats()
	if err != nil {
		return err
	}
	if cfg.Export.ToStdout() && len(fs) > 1 {
		return errStdoutMultipleFormats
	}

	c, err := capture.Load(path)
	if err != nil {
		return err
	}
	raws, err := c.Records()
	if err != nil {
		return fmt.Errorf("reading capture %s: %w", path, err)
	}

	opts := export.Options{
		Merge:   cfg.Export.Merge,
		Exclude: cfg.Export.Exclude,
		Encoder: formats.Options{Name: cfg.Export.ObjectName},
	}
	if cfg.Export.Clip {
		opts.Clip = c.ClipBox()
	}
	p, err := export.New(opts, logger.Named("export"))
	if err != nil {
		return err
	}

	records, rep := p.Build(raws)
	if rep.Rejected > 0 {
		logger.Warn("some surfaces were rejected",
			zap.Int("rejected", rep.Rejected),
			zap.Errors("reasons", rep.RejectionErrors()),
		)
	}

	results, err := p.EncodeAll(cmd.Context(), records, fs, rep)
	if err != nil {
		return err
	}
	for _, res := range results {
		if err := write(cmd, cfg.Export, res); err != nil {
			return err
		}
	}
	return nil
}

func write(cmd *cobra.Command, cfg config.ExportConfig, res *export.Result) error {
	if cfg.ToStdout() {
		_, err := cmd.OutOrStdout().Write(res.Data)
		return err
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(cfg.OutputDir, res.Filename)
	if err := os.WriteFile(path, res.Data, 0644); err != nil {
		return err
	}
	logger.Info("wrote model",
		zap.String("path", path),
		zap.String("mime", res.MIMEType),
		zap.Int("bytes", len(res.Data)),
		zap.Int("records", res.Report.Output),
		zap.Int("triangles", res.Report.Triangles),
	)
	return nil
}
