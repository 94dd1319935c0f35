// Package config handles exporter configuration loading and management.
package config

import (
	"fmt"
	"strings"

	"github.com/Faultbox/meshport/pkg/formats"
)

// FormatAll selects every supported export format.
const FormatAll = "all"

// Config holds all exporter settings.
type Config struct {
	Export  ExportConfig  `yaml:"export" toml:"export"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// ExportConfig holds export pipeline settings.
type ExportConfig struct {
	Format     string   `yaml:"format" toml:"format"`           // stl, obj, glb or all
	OutputDir  string   `yaml:"output_dir" toml:"output_dir"`   // "-" writes to stdout
	Merge      bool     `yaml:"merge" toml:"merge"`             // Merge instanced surfaces
	Clip       bool     `yaml:"clip" toml:"clip"`               // Clip to the capture viewport
	Exclude    []string `yaml:"exclude" toml:"exclude"`         // Glob patterns over group keys and names
	ObjectName string   `yaml:"object_name" toml:"object_name"` // OBJ object and glTF scene name
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			Format:     string(formats.FormatGLB),
			OutputDir:  ".",
			Merge:      true,
			Clip:       true,
			ObjectName: "meshport",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Formats resolves the configured format name, expanding "all".
func (e ExportConfig) Formats() ([]formats.Format, error) {
	if strings.EqualFold(e.Format, FormatAll) {
		return formats.Formats(), nil
	}
	f, err := formats.ParseFormat(e.Format)
	if err != nil {
		return nil, fmt.Errorf("export.format: %w", err)
	}
	return []formats.Format{f}, nil
}

// ToStdout reports whether output goes to standard output.
func (e ExportConfig) ToStdout() bool {
	return e.OutputDir == "-"
}
