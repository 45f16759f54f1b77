package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/reprotrack/iatfmon/internal/application/monitoring"
	"github.com/reprotrack/iatfmon/internal/infrastructure/monitoring/logging"
	"github.com/reprotrack/iatfmon/internal/infrastructure/source/file"
	"github.com/reprotrack/iatfmon/pkg/errors"
)

// Evaluation triggers.
const (
	triggerStart  = "start"
	triggerTick   = "tick"
	triggerChange = "change"
)

type badgeResult struct {
	*monitoring.BadgeView
	Now     time.Time `json:"now"`
	Trigger string    `json:"trigger"`
}

func (r badgeResult) String() string {
	count := "none"
	if r.HasNotifications {
		count = fmt.Sprint(r.Count)
	}
	return fmt.Sprintf("%s badge=%s trigger=%s", r.Now.Format(time.RFC3339), count, r.Trigger)
}

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	var (
		file     string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-evaluate the notification badge until interrupted",
		Long: `Re-evaluate the notification badge on a fixed interval and whenever the
protocol export changes on disk.  Each evaluation prints one line and, when
metrics are enabled with a textfile path, rewrites the metrics textfile.`,
		Example: `  iatfmon watch --file protocols.json --interval 5m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("interval") {
				interval = cliCtx.Config.Watch.Interval
			}
			if interval <= 0 {
				return errors.InvalidParam("--interval must be > 0").WithDetail("interval=" + interval.String())
			}
			src, err := cliCtx.Source(file)
			if err != nil {
				return err
			}
			return runWatch(cmd.Context(), cmd, cliCtx, src, interval)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "protocol export (default: source.path)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "re-evaluation interval (default: watch.interval)")
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, cliCtx *CLIContext, src *file.Source, interval time.Duration) error {
	logger := cliCtx.Logger.Named("watch")
	svc := cliCtx.Service(src)

	changes := make(chan struct{}, 1)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- src.Watch(ctx, func() {
			select {
			case changes <- struct{}{}:
			default:
			}
		})
	}()

	evaluate := func(trigger string) error {
		now := cliCtx.CurrentTime()
		badge, err := svc.Badge(ctx, now)
		if err != nil {
			// The export may be mid-rewrite; the next trigger retries.
			logger.Warn("badge evaluation failed", logging.String("trigger", trigger), logging.Err(err))
			return nil
		}
		if err := writeTextfile(cliCtx); err != nil {
			logger.Warn("metrics textfile write failed", logging.Err(err))
		}
		return PrintResult(cmd, badgeResult{BadgeView: badge, Now: now, Trigger: trigger})
	}

	if err := evaluate(triggerStart); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("watch started", logging.String("path", src.Path()), logging.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			if watchErr != nil {
				<-watchErr
			}
			stats := cliCtx.Cache.Stats()
			logger.Info("watch stopped",
				logging.Int64("cache_hits", int64(stats.Hits)),
				logging.Int64("cache_misses", int64(stats.Misses)),
				logging.Int("cache_entries", stats.Len),
			)
			return nil
		case err := <-watchErr:
			if err != nil {
				return err
			}
			watchErr = nil
		case <-ticker.C:
			if err := evaluate(triggerTick); err != nil {
				return err
			}
		case <-changes:
			// Protocols removed from the export would otherwise linger.
			cliCtx.Cache.Purge()
			if err := evaluate(triggerChange); err != nil {
				return err
			}
		}
	}
}
