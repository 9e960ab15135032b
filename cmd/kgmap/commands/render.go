package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/teranos/kgmap/am"
	"github.com/teranos/kgmap/errors"
	"github.com/teranos/kgmap/graph"
	"github.com/teranos/kgmap/logger"
	"github.com/teranos/kgmap/source"
)

// RenderCmd runs one render pass and prints the result
var RenderCmd = &cobra.Command{
	Use:   "render [snapshot-file]",
	Short: "Render a snapshot and optional diff",
	Long: `Render one knowledge graph snapshot, optionally compared with an earlier version.

Input comes either from a source directory (--dir, or source.dir in am.toml)
or from a single snapshot file given as an argument, with --diff naming a
diff file to overlay.

Examples:
  kgmap render --dir ./kg                          # Latest version, summary
  kgmap render --dir ./kg --version v3 --compare v2 --json
  kgmap render graph.json --diff changes.yaml --status all
  kgmap render --dir ./kg --focus concept:entropy --hide document`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

// renderOptions collects the render flags
type renderOptions struct {
	Dir      string
	File     string
	DiffFile string
	Version  string
	Compare  string
	Status   string
	Search   string
	Focus    string
	Hide     []string
	JSON     bool
}

var renderOpts renderOptions

func init() {
	RenderCmd.Flags().StringVar(&renderOpts.Dir, "dir", "", "Source directory (default: source.dir from config)")
	RenderCmd.Flags().StringVar(&renderOpts.DiffFile, "diff", "", "Diff file to overlay on a snapshot file")
	RenderCmd.Flags().StringVar(&renderOpts.Version, "version", "", "Version to render (default: latest)")
	RenderCmd.Flags().StringVar(&renderOpts.Compare, "compare", "", "Version to compare against")
	RenderCmd.Flags().StringVar(&renderOpts.Status, "status", "", "Status filter: active, all, pending, rejected")
	RenderCmd.Flags().StringVar(&renderOpts.Search, "search", "", "Keep nodes matching this text")
	RenderCmd.Flags().StringVar(&renderOpts.Focus, "focus", "", "Node id to focus")
	RenderCmd.Flags().StringSliceVar(&renderOpts.Hide, "hide", nil, "Node types to hide")
	RenderCmd.Flags().BoolVarP(&renderOpts.JSON, "json", "j", false, "Output the render-ready graph as JSON")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	opts := renderOpts
	if len(args) == 1 {
		opts.File = args[0]
	}
	if opts.Dir == "" {
		opts.Dir = cfg.Source.Dir
	}

	g, diag, err := renderGraph(cfg, opts)
	if err != nil {
		return err
	}

	if diag.HasIssues() {
		logger.Logger.Debugw("Render diagnostics", diag.ToLogFields()...)
	}

	if opts.JSON {
		return writeGraphJSON(cmd.OutOrStdout(), g)
	}
	printRenderSummary(g, diag)
	return nil
}

// renderGraph loads the input opts names and runs one pass
func renderGraph(cfg *am.Config, opts renderOptions) (*graph.Graph, *graph.Diagnostics, error) {
	snap, diff, err := loadRenderInput(opts)
	if err != nil {
		return nil, nil, err
	}

	filter := graph.FilterState{
		TypeVisibility: make(map[string]bool),
		SearchQuery:    opts.Search,
	}
	if opts.Status != "" {
		status, ok := graph.ParseStatusFilter(opts.Status)
		if !ok {
			return nil, nil, errors.WithHint(
				errors.NewInvalidRequestError("unknown status filter %q", opts.Status),
				"use one of: active, all, pending, rejected",
			)
		}
		filter.StatusFilter = status
	}
	for _, t := range opts.Hide {
		if t = strings.TrimSpace(t); t != "" {
			filter.TypeVisibility[t] = false
		}
	}

	var focus graph.FocusState
	focus.Click(opts.Focus)

	engine := graph.NewEngine(cfg.EngineConfig(), logger.ComponentLogger("render"))
	g, diag := engine.Render(graph.RenderInput{
		Snapshot: snap,
		Diff:     diff,
		Filter:   filter,
		Focus:    focus,
	})

	if opts.Version != "" {
		g.Meta.Config["version"] = opts.Version
	}
	if diff != nil && opts.Compare != "" {
		g.Meta.Config["compare_to"] = opts.Compare
	}
	return g, diag, nil
}

func loadRenderInput(opts renderOptions) (graph.Snapshot, *graph.DiffResponse, error) {
	if opts.File != "" {
		return loadFiles(opts.File, opts.DiffFile)
	}
	if opts.DiffFile != "" {
		return graph.Snapshot{}, nil, errors.NewInvalidRequestError("--diff requires a snapshot file argument")
	}
	if opts.Dir == "" {
		return graph.Snapshot{}, nil, errors.WithHint(
			errors.NewInvalidRequestError("no input given"),
			"pass a snapshot file, use --dir, or set source.dir in am.toml",
		)
	}

	dir := source.NewDir(opts.Dir)
	return dir.Load(source.Selection{Version: opts.Version, CompareTo: opts.Compare})
}

func loadFiles(snapshotPath, diffPath string) (graph.Snapshot, *graph.DiffResponse, error) {
	var snap graph.Snapshot
	err := decodePath(snapshotPath, func(r io.Reader, format source.Format) error {
		var derr error
		snap, derr = source.DecodeSnapshot(r, format)
		return derr
	})
	if err != nil || diffPath == "" {
		return snap, nil, err
	}

	var diff *graph.DiffResponse
	err = decodePath(diffPath, func(r io.Reader, format source.Format) error {
		var derr error
		diff, derr = source.DecodeDiff(r, format)
		return derr
	})
	return snap, diff, err
}

func decodePath(path string, fn func(io.Reader, source.Format) error) error {
	format, err := source.FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	if err := fn(f, format); err != nil {
		return errors.Wrapf(err, "failed to decode %s", path)
	}
	return nil
}

func writeGraphJSON(w io.Writer, g *graph.Graph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return errors.Wrap(err, "failed to encode graph")
	}
	return nil
}

func printRenderSummary(g *graph.Graph, diag *graph.Diagnostics) {
	pterm.DefaultSection.Println("Render")

	stats := pterm.TableData{
		{"Nodes", fmt.Sprint(g.Meta.Stats.TotalNodes)},
		{"Edges", fmt.Sprint(g.Meta.Stats.TotalEdges)},
		{"Diff shape", string(diag.DiffShape)},
		{"Dropped links", fmt.Sprint(g.Meta.Stats.DroppedLinks)},
		{"Anchor edges", fmt.Sprint(g.Meta.Stats.AnchorEdges)},
	}
	if g.Meta.FocusedNodeID != "" {
		stats = append(stats, []string{"Focused", g.Meta.FocusedNodeID})
	}
	if g.Meta.SelectedNodeID != "" {
		stats = append(stats, []string{"Selected", g.Meta.SelectedNodeID})
	}
	pterm.DefaultTable.WithData(stats).Render()

	if g.Meta.Diff != nil {
		pterm.Println()
		pterm.Info.Printfln("Diff: +%d ~%d -%d", g.Meta.Diff.Added, g.Meta.Diff.Modified, g.Meta.Diff.Removed)
		if g.Meta.Diff.SemanticSummary != "" {
			pterm.Println("  " + g.Meta.Diff.SemanticSummary)
		}
	}

	if len(g.Meta.NodeTypes) > 0 {
		pterm.Println()
		types := pterm.TableData{{"Type", "Label", "Count", "Hidden"}}
		for _, nt := range g.Meta.NodeTypes {
			hidden := ""
			if nt.Hidden {
				hidden = "yes"
			}
			types = append(types, []string{nt.Type, nt.Label, fmt.Sprint(nt.Count), hidden})
		}
		pterm.DefaultTable.WithHasHeader().WithData(types).Render()
	}

	if len(diag.Errors) > 0 {
		pterm.Println()
		issues := pterm.TableData{{"Category", "Subcategory", "Message"}}
		for _, e := range diag.Errors {
			issues = append(issues, []string{string(e.Category), e.Subcategory, e.UserMessage})
		}
		pterm.Warning.Printfln("%d render issues", len(diag.Errors))
		pterm.DefaultTable.WithHasHeader().WithData(issues).Render()
	}
}
