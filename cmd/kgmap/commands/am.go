package commands

import (
	"encoding/json"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/teranos/kgmap/am"
	"github.com/teranos/kgmap/errors"
	"gopkg.in/yaml.v3"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage kgmap configuration",
	Long: `am - Manage kgmap configuration ("I am")

Display and manage render, source, server and logging settings.

Configuration sources (in order of precedence):
1. Environment variables (KGMAP_* prefix)
2. Project config (./am.toml, searched upward)
3. User config (~/.kgmap/am.toml)
4. System config (/etc/kgmap/am.toml)
5. Default values

Examples:
  kgmap am show                          # Show current configuration
  kgmap am show --format json            # Show configuration in JSON format
  kgmap am get graph.containment_type    # Get specific config value
  kgmap am set server.port 9000          # Write to ~/.kgmap/am.toml
  kgmap am validate                      # Validate current configuration
  kgmap am where                         # Show where each setting comes from`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the current kgmap configuration merged from all sources",
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., graph.containment_type, server.port)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in the user config",
	Long: `Set a configuration value in ~/.kgmap/am.toml (or --file).

Values are read as TOML literals, so 9000 is a number, true a boolean and
'["a","b"]' an array; anything else is stored as a string. The file is
validated before it is replaced and the previous version is kept as a backup.`,
	Args: cobra.ExactArgs(2),
	RunE: runAmSet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	Long:  "Validate that the current kgmap configuration is valid",
	RunE:  runAmValidate,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	Long: `Show the configuration cascade and the source of every setting.

Lists the files that were merged, lowest precedence first, then each
setting with the file or environment variable it came from.`,
	RunE: runAmWhere,
}

var (
	configFormat string
	setFile      string
)

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")
	amSetCmd.Flags().StringVar(&setFile, "file", "", "Config file to write (default: ~/.kgmap/am.toml)")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amSetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	if _, err := am.Load(); err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	// Keys match am.toml
	cfg := am.GetViper().AllSettings()

	out := cmd.OutOrStdout()
	switch configFormat {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to JSON")
		}
		fmt.Fprintln(out, string(data))

	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		fmt.Fprintf(out, "# kgmap configuration\n%s", string(data))

	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to TOML")
		}
		fmt.Fprintf(out, "# kgmap configuration\n%s", string(data))

	default:
		return errors.Wrapf(errors.ErrUnsupportedFormat, "%s (supported: toml, json, yaml)", configFormat)
	}

	return nil
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	if _, err := am.Load(); err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if !am.GetViper().IsSet(key) {
		return errors.NewNotFoundError("configuration key %q", key)
	}

	fmt.Fprintln(cmd.OutOrStdout(), am.Get(key))
	return nil
}

func runAmSet(cmd *cobra.Command, args []string) error {
	path := setFile
	if path == "" {
		path = am.UserConfigPath()
	}
	if path == "" {
		return errors.New("cannot determine home directory for user config")
	}

	key, value := args[0], am.ParseValue(args[1])
	if err := am.SetValue(path, key, value); err != nil {
		return errors.Wrapf(err, "failed to set %s", key)
	}

	am.Reset()
	pterm.Success.Printfln("%s = %v (%s)", key, value, path)
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	if err := cfg.Validate(); err != nil {
		for _, hint := range errors.GetAllHints(err) {
			pterm.Info.Println(hint)
		}
		return errors.Wrap(err, "configuration validation failed")
	}

	pterm.Success.Println("Configuration is valid")
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	intro, err := am.GetConfigIntrospection()
	if err != nil {
		return errors.Wrap(err, "failed to get config introspection")
	}

	pterm.DefaultSection.Println("Configuration cascade (later overrides earlier)")
	pterm.Println("  1. [DEFAULT]      Built-in defaults")
	pterm.Println("  2. [SYSTEM]       /etc/kgmap/am.toml")
	pterm.Println("  3. [USER]         ~/.kgmap/am.toml")
	pterm.Println("  4. [PROJECT]      ./am.toml (searches up directories)")
	pterm.Println("  5. [ENVIRONMENT]  KGMAP_* environment variables")
	pterm.Println()

	if len(intro.Files) == 0 {
		pterm.Info.Println("No config files found; using defaults")
	} else {
		pterm.Info.Println("Merged files:")
		for _, f := range intro.Files {
			pterm.Println("  " + f)
		}
	}
	pterm.Println()

	rows := pterm.TableData{{"Key", "Value", "Source", "From"}}
	for _, s := range intro.Settings {
		rows = append(rows, []string{s.Key, fmt.Sprint(s.Value), string(s.Source), s.SourcePath})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
		return err
	}

	counts := intro.CountBySource()
	var bars []pterm.Bar
	for _, src := range []am.ConfigSource{am.SourceDefault, am.SourceSystem, am.SourceUser, am.SourceProject, am.SourceEnvironment} {
		if n := counts[src]; n > 0 {
			bars = append(bars, pterm.Bar{Label: string(src), Value: n})
		}
	}
	pterm.Println()
	return pterm.DefaultBarChart.WithHorizontal().WithShowValue().WithBars(bars).Render()
}
