// meshexport converts captured session surfaces into STL, OBJ or glTF
// binary model files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Faultbox/meshport/internal/config"
	"github.com/Faultbox/meshport/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "meshexport",
		Short: "Export captured meshes to STL, OBJ or glTF",
		Long: `meshexport reads a session capture (JSON or YAML surfaces with materials,
model matrices and instances), validates and deduplicates the surfaces,
optionally clips them to the captured viewport and merges instanced copies,
then writes model.stl, model.obj or model.glb.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.BindGlobalFlags(root.PersistentFlags())

	root.AddCommand(newExportCommand())
	root.AddCommand(newInfoCommand())
	root.AddCommand(newVersionCommand())
	return root
}

// setup loads the configuration for cmd and initializes logging from it.
func setup(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "meshexport %s\n", version)
		},
	}
}

func main() {
	err := newRootCommand().Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
