package config

import "github.com/spf13/pflag"

// Flag names.
const (
	FlagConfig  = "config"
	FlagDebug   = "debug"
	FlagLogFile = "log-file"
	FlagFormat  = "format"
	FlagOutput  = "output"
	FlagMerge   = "merge"
	FlagClip    = "clip"
	FlagExclude = "exclude"
	FlagName    = "name"
)

// BindGlobalFlags registers the flags shared by every command.
func BindGlobalFlags(fs *pflag.FlagSet) {
	fs.String(FlagConfig, "", "Path to config file (.yaml or .toml)")
	fs.Bool(FlagDebug, false, "Enable debug logging")
	fs.String(FlagLogFile, "", "Also write logs to this file")
}

// BindExportFlags registers the export flags. Defaults shown in help come
// from Default; only flags the user sets override the config file.
func BindExportFlags(fs *pflag.FlagSet) {
	d := Default().Export
	fs.StringP(FlagFormat, "f", d.Format, "Output format: stl, obj, glb or all")
	fs.StringP(FlagOutput, "o", d.OutputDir, "Output directory, or - for stdout")
	fs.Bool(FlagMerge, d.Merge, "Merge instanced surfaces")
	fs.Bool(FlagClip, d.Clip, "Clip to the capture viewport")
	fs.StringSlice(FlagExclude, nil, "Skip surfaces whose key or name matches a glob (repeatable)")
	fs.String(FlagName, d.ObjectName, "Object name written to OBJ and glTF output")
}

// ConfigPath returns the explicit config path if provided via --config.
func ConfigPath(fs *pflag.FlagSet) string {
	if fs == nil {
		return ""
	}
	path, _ := fs.GetString(FlagConfig)
	return path
}

func changed(fs *pflag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	return f != nil && f.Changed
}

// applyFlags applies CLI flag overrides to the config. Flags that were not
// set on the command line leave the config untouched.
func applyFlags(cfg *Config, fs *pflag.FlagSet) {
	if fs == nil {
		return
	}
	if changed(fs, FlagDebug) {
		if debug, _ := fs.GetBool(FlagDebug); debug {
			cfg.Logging.Level = "debug"
		}
	}
	if changed(fs, FlagLogFile) {
		cfg.Logging.LogFile, _ = fs.GetString(FlagLogFile)
	}
	if changed(fs, FlagFormat) {
		cfg.Export.Format, _ = fs.GetString(FlagFormat)
	}
	if changed(fs, FlagOutput) {
		cfg.Export.OutputDir, _ = fs.GetString(FlagOutput)
	}
	if changed(fs, FlagMerge) {
		cfg.Export.Merge, _ = fs.GetBool(FlagMerge)
	}
	if changed(fs, FlagClip) {
		cfg.Export.Clip, _ = fs.GetBool(FlagClip)
	}
	if changed(fs, FlagExclude) {
		cfg.Export.Exclude, _ = fs.GetStringSlice(FlagExclude)
	}
	if changed(fs, FlagName) {
		cfg.Export.ObjectName, _ = fs.GetString(FlagName)
	}
}
