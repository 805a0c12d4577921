package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/pitchboard/config"
	"github.com/spektr-org/pitchboard/engine"
	"github.com/spektr-org/pitchboard/loader"
	"github.com/spektr-org/pitchboard/logger"
	"github.com/spektr-org/pitchboard/observability"
	"github.com/spektr-org/pitchboard/server"
)

// ============================================================================
// PITCHBOARD CLI — MLB pitcher statistics dashboard
// ============================================================================

var version = "0.1.0"

type rootFlags struct {
	configPath string
	file       string
	delimiter  string
	encoding   string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "pitchboard",
		Short: "Pitchboard - MLB pitcher statistics dashboard",
		Long: `Pitchboard loads a season of pitcher statistics (Equipo;Jugador;Edad;...;WAR)
and serves an interactive dashboard: filters, mean tiles, seven charts and the raw grid.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "YAML config file")
	pf.StringVarP(&flags.file, "file", "f", "", "Pitching data file (overrides data.path)")
	pf.StringVar(&flags.delimiter, "delimiter", "", `Field delimiter, e.g. ";" or "\t" (overrides data.delimiter)`)
	pf.StringVar(&flags.encoding, "encoding", "", "latin-1, windows-1252 or utf-8 (overrides data.encoding)")
	pf.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pitchboard %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "Go version: %s\n", runtime.Version())
			fmt.Fprintf(cmd.OutOrStdout(), "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})
	root.AddCommand(newServeCmd(flags))
	root.AddCommand(newSummaryCmd(flags))
	root.AddCommand(newProfileCmd(flags))
	return root
}

// ============================================================================
// SERVE
// ============================================================================

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			env, err := setup(ctx, flags)
			if err != nil {
				return err
			}
			defer env.close()
			if addr != "" {
				env.cfg.Server.Addr = addr
			}

			srv, err := server.New(env.table, env.cfg)
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

// ============================================================================
// SHARED SETUP
// ============================================================================

type environment struct {
	cfg      config.Config
	table    *engine.Table
	shutdown observability.ShutdownFunc
}

// configure resolves config file, environment and flags, then starts logging.
func configure(flags *rootFlags) (config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return cfg, err
	}
	if flags.file != "" {
		cfg.Data.Path = flags.file
	}
	if flags.delimiter != "" {
		cfg.Data.Delimiter = flags.delimiter
	}
	if flags.encoding != "" {
		cfg.Data.Encoding = flags.encoding
	}
	if flags.logLevel != "" {
		cfg.Logger.Level = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if err := logger.Init(cfg.Logger); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// setup loads the configuration, starts tracing and loads the table.
func setup(ctx context.Context, flags *rootFlags) (*environment, error) {
	cfg, err := configure(flags)
	if err != nil {
		return nil, err
	}

	cfg.Tracing.ServiceVersion = version
	shutdown, err := observability.InitTracing(ctx, cfg.Tracing, os.Stderr)
	if err != nil {
		return nil, err
	}

	opts, err := loaderOptions(cfg.Data)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}
	table, err := loader.Load(ctx, cfg.Data.Path, opts)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}
	return &environment{cfg: cfg, table: table, shutdown: shutdown}, nil
}

func (e *environment) close() {
	if err := e.shutdown(context.Background()); err != nil {
		logger.Warn("tracing shutdown failed", zap.Error(err))
	}
	_ = logger.Sync()
}

func loaderOptions(d config.DataConfig) (loader.Options, error) {
	delim, err := d.DelimiterRune()
	if err != nil {
		return loader.Options{}, err
	}
	return loader.Options{Delimiter: delim, Encoding: d.Encoding}, nil
}
