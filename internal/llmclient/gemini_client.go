// internal/llmclient/gemini_client.go
package llmclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/xkilldash9x/logwarden/api/schemas"
	"github.com/xkilldash9x/logwarden/internal/config"
)

// contentGenerator is the slice of the genai SDK the client depends on.
// *genai.Models satisfies it.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient implements the schemas.LLMClient interface for one Gemini model.
type GeminiClient struct {
	models  contentGenerator
	model   string
	timeout time.Duration
	config  config.AnalyzerConfig
	logger  *zap.Logger
}

// NewGeminiClient initializes a client for model using the Gemini API backend.
func NewGeminiClient(ctx context.Context, cfg config.AnalyzerConfig, model string, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("gemini model name is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return newGeminiClient(client.Models, cfg, model, logger), nil
}

func newGeminiClient(models contentGenerator, cfg config.AnalyzerConfig, model string, logger *zap.Logger) *GeminiClient {
	return &GeminiClient{
		models:  models,
		model:   model,
		timeout: cfg.RequestTimeout,
		config:  cfg,
		logger:  logger.Named("llm_client.gemini").With(zap.String("model", model)),
	}
}

// Generate sends the prompts to the Gemini API and returns the generated text.
func (c *GeminiClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	startTime := time.Now()
	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(req.UserPrompt), c.buildConfig(req))
	duration := time.Since(startTime)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("gemini request aborted after %s: %w", duration, err)
		}
		c.logger.Warn("Gemini request failed.", zap.Error(err), zap.Duration("duration", duration))
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini API blocked the request (Reason: %s)", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini API returned no candidates")
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini API returned empty content (Reason: %s)", resp.Candidates[0].FinishReason)
	}

	fields := []zap.Field{zap.Duration("duration", duration)}
	if u := resp.UsageMetadata; u != nil {
		fields = append(fields,
			zap.Int32("prompt_tokens", u.PromptTokenCount),
			zap.Int32("completion_tokens", u.CandidatesTokenCount),
			zap.Int32("total_tokens", u.TotalTokenCount))
	}
	c.logger.Debug("LLM generation complete (Gemini)", fields...)
	return text, nil
}

// Close implements schemas.LLMClient. The SDK holds no resources that need releasing.
func (c *GeminiClient) Close() error { return nil }

func (c *GeminiClient) buildConfig(req schemas.GenerationRequest) *genai.GenerateContentConfig {
	temperature := float32(req.Options.Temperature)
	if temperature == 0 {
		temperature = c.config.Temperature
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperature),
	}
	if req.SystemPrompt != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	topP := float32(req.Options.TopP)
	if topP == 0 {
		topP = c.config.TopP
	}
	if topP > 0 {
		genCfg.TopP = genai.Ptr(topP)
	}

	topK := req.Options.TopK
	if topK == 0 {
		topK = c.config.TopK
	}
	if topK > 0 {
		genCfg.TopK = genai.Ptr(float32(topK))
	}

	if c.config.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(c.config.MaxTokens)
	}
	if req.Options.ForceJSONFormat {
		genCfg.ResponseMIMEType = "application/json"
	}
	return genCfg
}
