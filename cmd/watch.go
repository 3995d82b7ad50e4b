// cmd/watch.go
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/logwarden/api/schemas"
	"github.com/xkilldash9x/logwarden/internal/monitor"
	"github.com/xkilldash9x/logwarden/internal/observability"
	"github.com/xkilldash9x/logwarden/internal/service"
)

type watchFlags struct {
	pollInterval   time.Duration
	ignoreInitial  bool
	usePolling     bool
	statusInterval time.Duration
	limit          int
}

func newWatchCmd() *cobra.Command {
	var flags watchFlags

	cmd := &cobra.Command{
		Use:   "watch <paths...>",
		Short: "Watch log files and print a finding for each new batch of errors",
		Long: `Watch tails every given file and analyzes content appended after the watch
started. Each finding is printed to stdout as one JSON line. On SIGINT or
SIGTERM the most recent findings across all files are printed before exiting.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args, flags)
		},
	}

	cmd.Flags().DurationVar(&flags.pollInterval, "poll-interval", 0, "how often to check for growth (default from config)")
	cmd.Flags().BoolVar(&flags.ignoreInitial, "ignore-initial", false, "skip content present before the watch started")
	cmd.Flags().BoolVar(&flags.usePolling, "use-polling", true, "poll instead of using native filesystem notifications")
	cmd.Flags().DurationVar(&flags.statusInterval, "status-interval", 30*time.Second, "how often to log a status summary (0 disables)")
	cmd.Flags().IntVar(&flags.limit, "limit", 10, "number of recent findings printed on exit")
	return cmd
}

func runWatch(cmd *cobra.Command, paths []string, flags watchFlags) error {
	ctx := cmd.Context()
	logger := observability.GetLogger().Named("watch")

	cfg, err := configFrom(ctx)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("use-polling") {
		cfg.SetMonitorUsePolling(flags.usePolling)
	}

	out := newLineWriter(cmd.OutOrStdout())
	hook := monitor.WithFindingHook(func(path string, f schemas.Finding) {
		out.write(findingEvent{Path: path, Finding: f})
	})

	components, err := service.NewComponents(ctx, cfg, logger, hook)
	if err != nil {
		return fmt.Errorf("failed to initialize components: %w", err)
	}
	defer func() {
		if err := components.Shutdown(); err != nil {
			logger.Warn("Shutdown reported errors.", zap.Error(err))
		}
	}()

	facade := components.Facade
	for _, p := range paths {
		req := service.WatchRequest{Path: p}
		if cmd.Flags().Changed("poll-interval") {
			ms := int(flags.pollInterval.Milliseconds())
			req.PollIntervalMs = &ms
		}
		if cmd.Flags().Changed("ignore-initial") {
			req.IgnoreInitial = &flags.ignoreInitial
		}
		res := facade.Watch(req)
		if !res.Success {
			return fmt.Errorf("cannot watch %s: %s (%s)", p, res.Error, res.Code)
		}
		logger.Info("Watching.", zap.String("path", res.Data.(schemas.WatchResult).Path))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		reportStatus(gctx, logger, facade, flags.statusInterval)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	// History lives in the watch records, so it is read before they are stopped.
	recent := facade.GetRecentErrors(service.RecentErrorsRequest{Limit: flags.limit})

	logger.Info("Shutting down, stopping all watches.")
	if res := facade.StopAll(); !res.Success {
		logger.Warn("Some watches failed to stop cleanly.", zap.String("error", res.Error))
	}

	if !recent.Success {
		return fmt.Errorf("failed to collect recent errors: %s", recent.Error)
	}
	if err := writeJSON(cmd.OutOrStdout(), recent.Data); err != nil {
		return err
	}
	return out.Err()
}

// reportStatus logs a per-file summary every interval until ctx is done.
func reportStatus(ctx context.Context, logger *zap.Logger, facade *service.Facade, interval time.Duration) {
	if interval <= 0 {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res := facade.ListWatchedFiles()
			files, _ := res.Data.([]schemas.FileSummary)
			for _, f := range files {
				logger.Info("Watch status.",
					zap.String("path", f.Path),
					zap.Int("total_errors", f.TotalErrors),
					zap.Time("last_update", f.LastUpdate))
			}
		}
	}
}
