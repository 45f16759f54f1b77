// Package cli implements the iatfmon command tree.  The CLI is the only
// layer that reads the wall clock: every command resolves "now" once, from
// --now or time.Now, and passes it down explicitly.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/reprotrack/iatfmon/internal/application/monitoring"
	"github.com/reprotrack/iatfmon/internal/config"
	"github.com/reprotrack/iatfmon/internal/domain/protocol"
	"github.com/reprotrack/iatfmon/internal/infrastructure/cache"
	"github.com/reprotrack/iatfmon/internal/infrastructure/monitoring/logging"
	prom "github.com/reprotrack/iatfmon/internal/infrastructure/monitoring/prometheus"
	"github.com/reprotrack/iatfmon/internal/infrastructure/source/file"
	"github.com/reprotrack/iatfmon/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Now          string
	WindowDays   int
}

// CLIContext carries initialised dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	Engine       *protocol.Engine
	Location     *time.Location
	Now          time.Time
	NowFixed     bool
	OutputFormat string

	// Cache is nil when cache.size is 0.
	Cache *cache.ProjectionCache

	// Collector is nil unless metrics are enabled.
	Collector prom.MetricsCollector
	Metrics   *prom.AppMetrics
}

// Source opens the protocol export at path, or at source.path when path is
// empty.
func (c *CLIContext) Source(path string) (*file.Source, error) {
	if path == "" {
		path = c.Config.Source.Path
	}
	return file.NewSource(path,
		file.WithFormat(c.Config.Source.Format),
		file.WithDebounce(c.Config.Watch.Debounce),
		file.WithLogger(c.Logger.Named("source")),
	)
}

// Service builds a monitoring service over source.
func (c *CLIContext) Service(source monitoring.ProtocolSource) monitoring.Service {
	return monitoring.NewService(c.Engine, source, c.Metrics, c.Logger,
		monitoring.ServiceConfig{Location: c.Location})
}

// CurrentTime returns the fixed --now instant, or the wall clock in the
// configured location.
func (c *CLIContext) CurrentTime() time.Time {
	if c.NowFixed {
		return c.Now
	}
	return time.Now().In(c.Location)
}

// NewRootCommand creates the root command with global flags and subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "iatfmon",
		Short: "IATF protocol timeline and proximity monitor",
		Long: `iatfmon projects fixed-time artificial insemination (IATF) protocols onto the
calendar and flags the milestones that need attention in the next few days.

Schedule (days from device placement):
  Dia 0     device + estradiol
  Dia 7/8   prostaglandin (± eCG)
  Dia 9/10  device removal + estradiol
  IATF      days 10-11, or 48-56 h after the recorded removal`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./iatfmon.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level override (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "text", "output format (text, json, table)")
	pf.StringVar(&opts.Now, "now", "", "reference instant, RFC 3339 or YYYY-MM-DD (default: current time)")
	pf.IntVar(&opts.WindowDays, "window-days", config.DefaultWindowDays, "proximity window in days (overrides engine.window_days)")

	cmd.AddCommand(
		NewTimelineCmd(),
		NewSummaryCmd(),
		NewCalendarCmd(),
		NewWatchCmd(),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// Skip config loading for version.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "iatfmon %s (commit: %s, built: %s)\n", Version, GitCommit, BuildDate)
			return nil
		},
	}
}

// persistentPreRun loads config, builds the logger and engine, resolves now,
// and stores the CLIContext on the command.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	switch opts.OutputFormat {
	case "text", "json", "table":
	default:
		return errors.InvalidParam("unsupported output format").
			WithDetail(fmt.Sprintf("output=%q expected=text|json|table", opts.OutputFormat))
	}

	cfg, err := initConfig(opts)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("window-days") {
		cfg.Engine.WindowDays = opts.WindowDays
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return errors.Wrap(err, errors.CodeConfigInvalid, "logger initialisation failed")
	}
	logger = logger.Named("iatfmon")
	logging.SetDefault(logger)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	engine, pc, err := initEngine(cfg, logger)
	if err != nil {
		return err
	}

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		Engine:       engine,
		Cache:        pc,
		Location:     loc,
		OutputFormat: opts.OutputFormat,
		Metrics:      prom.NewNopAppMetrics(),
	}

	if opts.Now != "" {
		now, err := protocol.ParseInstant(opts.Now, loc)
		if err != nil {
			return errors.Wrap(err, errors.CodeInvalidParam, "invalid --now").WithDetail("value=" + opts.Now)
		}
		cliCtx.Now, cliCtx.NowFixed = now, true
	}

	if cfg.Metrics.Enabled {
		collector, err := prom.NewMetricsCollector(prom.CollectorConfig{Namespace: cfg.Metrics.Namespace}, logger)
		if err != nil {
			return err
		}
		cliCtx.Collector = collector
		cliCtx.Metrics = prom.NewAppMetrics(collector)
	}

	logger.Debug("cli initialised",
		logging.Int("window_days", cfg.Engine.WindowDays),
		logging.String("timezone", cfg.Engine.Timezone),
		logging.String("removal_fallback", cfg.Engine.RemovalFallback),
		logging.Int("cache_size", cfg.Cache.Size),
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cliCtx))
	return nil
}

// initConfig loads configuration with priority: flags > env > file > defaults.
func initConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}

	searchPaths := []string{"./iatfmon.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".iatfmon", "config.yaml"))
	}
	searchPaths = append(searchPaths, "/etc/iatfmon/config.yaml")

	for _, p := range searchPaths {
		if _, err := os.Stat(p); err == nil {
			return config.Load(p)
		}
	}
	return config.LoadFromEnv()
}

func initEngine(cfg *config.Config, logger logging.Logger) (*protocol.Engine, *cache.ProjectionCache, error) {
	fallback, err := protocol.ParseRemovalFallback(cfg.Engine.RemovalFallback)
	if err != nil {
		return nil, nil, err
	}
	opts := []protocol.Option{
		protocol.WithWindowDays(cfg.Engine.WindowDays),
		protocol.WithRemovalFallback(fallback),
	}

	pc, err := cache.NewProjectionCache(cfg.Cache.Size, cache.WithLogger(logger.Named("cache")))
	if err != nil {
		return nil, nil, err
	}
	if pc != nil {
		opts = append(opts, protocol.WithProjectionCache(pc))
	}
	engine, err := protocol.NewEngine(opts...)
	if err != nil {
		return nil, nil, err
	}
	return engine, pc, nil
}

// GetCLIContext extracts the CLIContext stored by the persistent pre-run.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.Internal("command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.Internal("CLIContext not found in command context")
	}
	return cliCtx, nil
}

// Execute runs the command tree with ctx and reports errors on stderr.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}
