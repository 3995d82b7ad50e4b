// internal/service/components.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/xkilldash9x/logwarden/api/schemas"
	"github.com/xkilldash9x/logwarden/internal/analyzer"
	"github.com/xkilldash9x/logwarden/internal/config"
	"github.com/xkilldash9x/logwarden/internal/history"
	"github.com/xkilldash9x/logwarden/internal/llmclient"
	"github.com/xkilldash9x/logwarden/internal/monitor"
)

// Components holds every service a monitoring session needs and owns their
// shutdown order.
type Components struct {
	Monitor    *monitor.Monitor
	Aggregator *history.Aggregator
	Analyzer   analyzer.Analyzer
	Facade     *Facade

	// LLMClient is nil when the heuristic analyzer is in use.
	LLMClient schemas.LLMClient

	logger *zap.Logger
}

// llmClientFactory is swapped in tests to avoid reaching the real backend.
var llmClientFactory = func(ctx context.Context, cfg config.AnalyzerConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	return llmclient.NewClient(ctx, cfg, logger)
}

// NewComponents builds the analyzer, monitor, aggregator and facade from cfg.
// The LLM analyzer is used when an API key is configured, otherwise findings
// come from the local heuristic analyzer.
func NewComponents(ctx context.Context, cfg config.Interface, logger *zap.Logger, opts ...monitor.Option) (*Components, error) {
	c := &Components{logger: logger.Named("components")}

	mcfg := cfg.Monitor()
	maxChunk, err := mcfg.MaxChunkBytes()
	if err != nil {
		return nil, fmt.Errorf("invalid monitor configuration: %w", err)
	}

	acfg := cfg.Analyzer()
	if acfg.Enabled() {
		client, err := llmClientFactory(ctx, acfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
		}
		c.LLMClient = client
		c.Analyzer = analyzer.NewLLMAnalyzer(logger, client,
			analyzer.WithRateLimit(acfg.RateLimit, acfg.Burst),
			analyzer.WithTimeout(acfg.RequestTimeout),
			analyzer.WithMaxContextTokens(acfg.MaxContextTokens),
			analyzer.WithTemperature(float64(acfg.Temperature)),
		)
		c.logger.Info("Using LLM analyzer.",
			zap.String("provider", string(acfg.Provider)),
			zap.String("model", acfg.FastModel))
	} else {
		c.Analyzer = analyzer.NewHeuristicAnalyzer(logger)
		c.logger.Info("No API key configured, using local heuristic analyzer.")
	}

	monitorOpts := append([]monitor.Option{monitor.WithMaxChunkBytes(maxChunk)}, opts...)
	c.Monitor = monitor.New(c.Analyzer, logger, monitorOpts...)
	c.Aggregator = history.NewAggregator(c.Monitor)

	defaults := monitor.Options{
		PollInterval:  mcfg.DefaultPollInterval,
		UsePolling:    mcfg.UsePolling,
		IgnoreInitial: mcfg.IgnoreInitial,
	}
	c.Facade = NewFacade(logger, c.Monitor, c.Aggregator, c.Analyzer, defaults, mcfg.MinPollInterval)

	c.logger.Debug("All components initialized.")
	return c, nil
}

// Shutdown stops every watch and then releases the LLM client.
func (c *Components) Shutdown() error {
	c.logger.Debug("Beginning components shutdown sequence.")

	var err error
	if c.Monitor != nil {
		err = multierr.Append(err, c.Monitor.Close())
		c.logger.Debug("Monitor closed.")
	}
	if c.LLMClient != nil {
		err = multierr.Append(err, c.LLMClient.Close())
		c.logger.Debug("LLM client closed.")
	}

	if err != nil {
		c.logger.Warn("Components shut down with errors.", zap.Error(err))
		return err
	}
	c.logger.Info("All components shut down successfully.")
	return nil
}
