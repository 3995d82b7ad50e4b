// cmd/serve.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/logwarden/api/schemas"
	"github.com/xkilldash9x/logwarden/internal/monitor"
	"github.com/xkilldash9x/logwarden/internal/observability"
	"github.com/xkilldash9x/logwarden/internal/server"
	"github.com/xkilldash9x/logwarden/internal/service"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [paths...]",
		Short: "Serve the monitoring API over HTTP",
		Long: `Serve exposes watch management, recent errors and one-shot analysis as a
JSON HTTP API under /api/v1, and streams findings to websocket clients on
/ws/v1/findings. Any paths given are watched with the configured defaults
before the server starts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger().Named("serve")

			cfg, err := configFrom(ctx)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.SetServerListenAddr(addr)
			}

			hub := server.NewHub(logger)
			components, err := service.NewComponents(ctx, cfg, logger, monitor.WithFindingHook(hub.PublishFinding))
			if err != nil {
				return fmt.Errorf("failed to initialize components: %w", err)
			}
			defer func() {
				if err := components.Shutdown(); err != nil {
					logger.Warn("Shutdown reported errors.", zap.Error(err))
				}
			}()

			for _, p := range args {
				res := components.Facade.Watch(service.WatchRequest{Path: p})
				if !res.Success {
					return fmt.Errorf("cannot watch %s: %s (%s)", p, res.Error, res.Code)
				}
				logger.Info("Watching.", zap.String("path", res.Data.(schemas.WatchResult).Path))
			}

			return server.New(cfg.Server(), components.Facade, hub, logger).Start(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, 127.0.0.1:8765)")
	return cmd
}
