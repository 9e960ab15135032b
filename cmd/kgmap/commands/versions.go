package commands

import (
	"encoding/json"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/teranos/kgmap/am"
	"github.com/teranos/kgmap/errors"
	"github.com/teranos/kgmap/source"
)

// VersionsCmd lists the snapshot history of a source directory
var VersionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List snapshot versions, newest first",
	Long: `List the versions in a source directory, newest first.

Versions come from history.json (or .yaml) when present, otherwise from the
snapshot files themselves.`,
	RunE: runVersions,
}

var (
	versionsDir  string
	versionsJSON bool
)

func init() {
	VersionsCmd.Flags().StringVar(&versionsDir, "dir", "", "Source directory (default: source.dir from config)")
	VersionsCmd.Flags().BoolVarP(&versionsJSON, "json", "j", false, "Output as JSON")
}

func runVersions(cmd *cobra.Command, args []string) error {
	dirPath := versionsDir
	if dirPath == "" {
		cfg, err := am.Load()
		if err != nil {
			return errors.Wrap(err, "failed to load config")
		}
		dirPath = cfg.Source.Dir
	}
	if dirPath == "" {
		return errors.WithHint(
			errors.NewInvalidRequestError("no source directory"),
			"use --dir or set source.dir in am.toml",
		)
	}

	history, err := source.NewDir(dirPath).History()
	if err != nil {
		return err
	}

	if versionsJSON {
		data, err := json.MarshalIndent(history, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal versions")
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	if len(history) == 0 {
		pterm.Info.Println("No versions found")
		return nil
	}

	rows := pterm.TableData{{"Version", "Label", "Created"}}
	for _, v := range history {
		created := ""
		if !v.CreatedAt.IsZero() {
			created = v.CreatedAt.Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{v.ID, v.Label, created})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}
