package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/teranos/kgmap/am"
	"github.com/teranos/kgmap/errors"
	"github.com/teranos/kgmap/graph"
	"github.com/teranos/kgmap/logger"
	"github.com/teranos/kgmap/server"
	"github.com/teranos/kgmap/source"
	"github.com/teranos/kgmap/version"
)

// ServeCmd starts the WebSocket render server
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Serve rendered graphs to browser renderers",
	Long: `Launch the kgmap server. Renderers connect to /ws and receive a fresh graph
whenever the source directory or configuration changes; each connection
keeps its own filter and focus.

Endpoints:
  /ws        WebSocket graph updates and view changes
  /graph     One-shot render (status, search, focus, hide query parameters)
  /versions  Snapshot history; POST {"version","compare_to"} to switch
  /health    Server status`,
	RunE: runServe,
}

var (
	serveDir     string
	servePort    int
	serveVersion string
	serveCompare string
	serveNoWatch bool
)

func init() {
	ServeCmd.Flags().StringVar(&serveDir, "dir", "", "Source directory (default: source.dir from config)")
	ServeCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (default: server.port from config)")
	ServeCmd.Flags().StringVar(&serveVersion, "version", "", "Version to show (default: latest)")
	ServeCmd.Flags().StringVar(&serveCompare, "compare", "", "Version to compare against")
	ServeCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Do not reload when source files change")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Server defaults to Info so connects and reloads are visible
	verbosity, _ := cmd.Flags().GetCount("verbose")
	if verbosity == 0 {
		verbosity = logger.VerbosityInfo
	}
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logger.InitializeWithOptions(LogOptions(cfg, verbosity)); err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}

	dirPath := serveDir
	if dirPath == "" {
		dirPath = cfg.Source.Dir
	}
	port := servePort
	if port == 0 {
		port = am.GetServerPort()
	}

	opts := server.Options{
		Engine:                  graph.NewEngine(cfg.EngineConfig(), logger.ComponentLogger("render")),
		Selection:               source.Selection{Version: serveVersion, CompareTo: serveCompare},
		AllowedOrigins:          cfg.Server.AllowedOrigins,
		ClientMessagesPerSecond: cfg.Server.ClientMessagesPerSecond,
		ClientMessageBurst:      cfg.Server.ClientMessageBurst,
		Logger:                  logger.ComponentLogger("server"),
	}
	var dir *source.Dir
	if dirPath != "" {
		dir = source.NewDir(dirPath)
		opts.Source = dir
	}
	srv := server.New(opts)

	printServeBanner(port, dirPath, verbosity)

	if dir != nil {
		if err := srv.Reload(); err != nil {
			pterm.Warning.Printfln("No graph loaded yet: %v", err)
		}
	} else {
		pterm.Warning.Println("No source directory configured; clients will see an empty graph")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if dir != nil && cfg.Source.Watch && !serveNoWatch {
		startSourceWatcher(ctx, dir, srv, time.Duration(cfg.Source.DebounceMS)*time.Millisecond)
	}

	if watcher := startConfigWatcher(srv); watcher != nil {
		defer watcher.Stop()
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(port)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return errors.Wrap(err, "server failed to start")
	case <-sigChan:
		// First Ctrl+C - graceful shutdown
		pterm.Info.Println("\nShutting down gracefully (press Ctrl+C again to force)...")

		shutdownDone := make(chan error, 1)
		go func() {
			shutdownDone <- srv.Stop()
		}()

		select {
		case err := <-shutdownDone:
			if err != nil {
				return errors.Wrap(err, "shutdown error")
			}
			pterm.Success.Println("Server stopped cleanly")
			return nil
		case <-sigChan:
			// Second Ctrl+C - force immediate exit
			pterm.Warning.Println("\nForce shutdown - exiting immediately")
			os.Exit(1)
			return nil
		}
	}
}

// startSourceWatcher reloads the server whenever snapshot files change
func startSourceWatcher(ctx context.Context, dir *source.Dir, srv *server.Server, debounce time.Duration) {
	log := logger.ComponentLogger("source")
	w, err := source.NewWatcher(dir, debounce, log)
	if err != nil {
		log.Warnw("Source watching disabled", logger.FieldError, err.Error())
		return
	}

	w.OnChange(func(changed []string) {
		log.Infow("Source changed, reloading", logger.FieldCount, len(changed))
		if err := srv.Reload(); err != nil {
			log.Debugw("Reload after change failed", logger.FieldError, err.Error())
		}
	})

	go func() {
		if err := w.Run(ctx); err != nil {
			log.Warnw("Source watcher stopped", logger.FieldError, err.Error())
		}
	}()
}

// startConfigWatcher applies edits to the highest-precedence config file
func startConfigWatcher(srv *server.Server) *am.ConfigWatcher {
	intro, err := am.GetConfigIntrospection()
	if err != nil || len(intro.Files) == 0 {
		return nil
	}
	path := intro.Files[len(intro.Files)-1]

	watcher, err := am.NewConfigWatcher(path)
	if err != nil {
		logger.Warnw("Config watching disabled", logger.FieldFile, path, logger.FieldError, err.Error())
		return nil
	}
	watcher.OnReload(srv.ApplyConfig)
	watcher.Start()
	am.SetGlobalWatcher(watcher)

	logger.Infow("Watching config", logger.FieldFile, path)
	return watcher
}

func printServeBanner(port int, dir string, verbosity int) {
	info := version.Get()
	pterm.DefaultHeader.WithFullWidth().Printf("kgmap %s", info.Version)
	pterm.Println()

	if dir == "" {
		dir = "(none)"
	}
	pterm.Info.Printfln("Source: %s", dir)
	pterm.Info.Printfln("Renderer socket: ws://localhost:%d/ws", port)
	pterm.Info.Printfln("Verbosity: %s", logger.LevelName(verbosity))
	pterm.Println(fmt.Sprintf("  Commit %s, built %s", info.Short(), info.BuildTime))
	pterm.Println()
}

// LogOptions builds logger options from the [log] section and a -v count.
// A nil cfg gives console output at the verbosity level only.
func LogOptions(cfg *am.Config, verbosity int) logger.Options {
	opts := logger.Options{
		Level:  logger.VerbosityToLevel(verbosity),
		Caller: logger.TraceEnabled(verbosity),
	}
	if cfg != nil {
		opts.JSON = cfg.Log.JSON
		opts.File = cfg.Log.File
		opts.MaxSizeMB = cfg.Log.MaxSizeMB
		opts.MaxBackups = cfg.Log.MaxBackups
		opts.MaxAgeDays = cfg.Log.MaxAgeDays
		opts.Compress = cfg.Log.Compress
	}
	return opts
}
