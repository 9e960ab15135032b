package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/teranos/kgmap/am"
	"github.com/teranos/kgmap/cmd/kgmap/commands"
	"github.com/teranos/kgmap/errors"
	"github.com/teranos/kgmap/logger"
)

var rootCmd = &cobra.Command{
	Use:   "kgmap",
	Short: "kgmap - Knowledge graph diff visualization",
	Long: `kgmap - Render knowledge graph snapshots and the diffs between them.

kgmap reconciles a snapshot with an optional diff, filters and focuses the
result, and hands a render-ready graph to a force-directed renderer.

Available commands:
  render   - Render one snapshot (and optional diff) to JSON or a summary
  serve    - Serve rendered graphs to browser renderers over WebSocket
  versions - List the snapshot history of a source directory
  am       - Manage kgmap configuration ("I am")
  version  - Show build information

Examples:
  kgmap render --dir ./kg --json         # Latest snapshot as render JSON
  kgmap render --dir ./kg --compare v1   # Latest compared with v1
  kgmap serve --dir ./kg                 # Live view, reloads on change
  kgmap am show                          # Show current configuration`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		return initLogger(verbosity)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

// initLogger configures the global logger from the [log] section and -v count
func initLogger(verbosity int) error {
	// A broken config must not prevent 'am validate' from reporting it
	cfg, err := am.Load()
	if err != nil {
		cfg = nil
	}

	if err := logger.InitializeWithOptions(commands.LogOptions(cfg, verbosity)); err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")

	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.RenderCmd)
	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.VersionsCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
