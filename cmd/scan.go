// cmd/scan.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/logwarden/internal/observability"
	"github.com/xkilldash9x/logwarden/internal/patterns"
)

// scanResult is the output of a one-shot scan.
type scanResult struct {
	Path string `json:"path"`
	patterns.ScanSummary
	Elapsed string `json:"elapsed"`
}

// followEvent is one line of `scan --follow` output.
type followEvent struct {
	Line       string              `json:"line"`
	Critical   bool                `json:"critical"`
	Categories []patterns.Category `json:"categories"`
	Time       time.Time           `json:"time"`
}

func newScanCmd() *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "scan <file>",
		Short: "Quickly scan a log file for errors without calling any backend",
		Long: `Scan classifies the error lines of a file locally. Use "-" to read stdin.
With --follow the file is tailed and every error-like line is reported as a
JSON line as it is written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if follow {
				if args[0] == "-" {
					return fmt.Errorf("--follow cannot be used with stdin")
				}
				return followFile(cmd.Context(), args[0], newLineWriter(cmd.OutOrStdout()))
			}
			return scanOnce(cmd, args[0])
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep reading the file as it grows")
	return cmd
}

func scanOnce(cmd *cobra.Command, path string) error {
	text, err := readInput(cmd, path)
	if err != nil {
		return err
	}

	start := time.Now()
	summary := patterns.QuickScan(text)
	return writeJSON(cmd.OutOrStdout(), scanResult{
		Path:        path,
		ScanSummary: summary,
		Elapsed:     time.Since(start).String(),
	})
}

// followFile tails path from its current end until ctx is done.
func followFile(ctx context.Context, path string, out *lineWriter) error {
	logger := observability.GetLogger().Named("scan")

	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Location:  &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to tail %s: %w", path, err)
	}
	defer func() {
		_ = t.Stop()
		t.Cleanup()
	}()

	logger.Info("Following file.", zap.String("path", path))
	for {
		select {
		case <-ctx.Done():
			return out.Err()
		case line, ok := <-t.Lines:
			if !ok {
				return out.Err()
			}
			if line.Err != nil {
				logger.Warn("Error reading from log file", zap.Error(line.Err))
				continue
			}
			summary := patterns.QuickScan(line.Text)
			if summary.Errors == 0 {
				continue
			}
			out.write(followEvent{
				Line:       strings.TrimRight(line.Text, "\r"),
				Critical:   summary.Critical,
				Categories: summary.Categories,
				Time:       line.Time,
			})
		}
	}
}

// readInput returns the whole content of path, or of stdin when path is "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
