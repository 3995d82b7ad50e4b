// cmd/analyze.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/logwarden/api/schemas"
	"github.com/xkilldash9x/logwarden/internal/observability"
	"github.com/xkilldash9x/logwarden/internal/service"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		format       string
		contextLines int
	)

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze a whole log file once and print the finding",
		Long: `Analyze sends the error-relevant parts of a file to the configured backend,
or to the local heuristic analyzer when no API key is set. Use "-" to read stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger().Named("analyze")

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

			res := components.Facade.AnalyzeLog(ctx, service.AnalyzeRequest{
				LogText:      text,
				LogFormat:    schemas.LogFormat(format),
				ContextLines: contextLines,
			})
			if !res.Success {
				return fmt.Errorf("analysis failed: %s (%s)", res.Error, res.Code)
			}
			return writeJSON(cmd.OutOrStdout(), res.Data)
		},
	}

	cmd.Flags().StringVar(&format, "format", string(schemas.LogFormatAuto), "log format: auto, json or plain")
	cmd.Flags().IntVar(&contextLines, "context-lines", schemas.DefaultParseOptions().ContextLines, "context lines around each error")
	return cmd
}
