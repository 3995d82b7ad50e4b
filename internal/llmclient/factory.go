// -- internal/llmclient/factory.go --
package llmclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/logwarden/internal/config"
)

// NewClient is a factory function that creates a tier router based on the
// analyzer configuration.
func NewClient(ctx context.Context, cfg config.AnalyzerConfig, logger *zap.Logger) (*LLMRouter, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: '%s'. Supported: [%s]", cfg.Provider, config.ProviderGemini)
	}

	fast, err := NewGeminiClient(ctx, cfg, cfg.FastModel, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize fast tier client: %w", err)
	}
	powerful, err := NewGeminiClient(ctx, cfg, cfg.PowerfulModel, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize powerful tier client: %w", err)
	}
	return NewLLMRouter(logger, fast, powerful)
}
