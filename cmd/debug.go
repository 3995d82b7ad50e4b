// cmd/debug.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/logwarden/internal/observability"
	"github.com/xkilldash9x/logwarden/internal/service"
)

func newDebugCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "debug <file>",
		Short: "Print a rapid remediation plan for a log file",
		Long: `Debug combines the local pattern scan with one analysis pass and prints
quick fixes, shell commands worth running, and next steps. Use "-" to read stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger().Named("debug")

			cfg, err := configFrom(ctx)
			if err != nil {
				return err
			}
			text, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			components, err := service.NewComponents(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize components: %w", err)
			}
			defer func() {
				if err := components.Shutdown(); err != nil {
					logger.Warn("Shutdown reported errors.", zap.Error(err))
				}
			}()

			res := components.Facade.RapidDebug(ctx, service.RapidDebugRequest{LogText: text})
			if !res.Success {
				return fmt.Errorf("rapid debug failed: %s (%s)", res.Error, res.Code)
			}
			return writeJSON(cmd.OutOrStdout(), res.Data)
		},
	}
}
