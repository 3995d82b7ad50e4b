package llmclient

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/genai"

	"github.com/xkilldash9x/logwarden/internal/config"
)

// setupTestLogger is a helper to create a zap logger for testing with an observer.
func setupTestLogger(t *testing.T) (*zap.Logger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core), logs
}

// getValidAnalyzerConfig returns a valid AnalyzerConfig for testing purposes.
func getValidAnalyzerConfig() config.AnalyzerConfig {
	return config.AnalyzerConfig{
		Provider:         config.ProviderGemini,
		APIKey:           "test-api-key",
		FastModel:        "test-fast",
		PowerfulModel:    "test-pro",
		RequestTimeout:   5 * time.Second,
		RateLimit:        1,
		Burst:            1,
		MaxContextTokens: 8000,
		Temperature:      0.7,
		TopP:             0.9,
		TopK:             50,
		MaxTokens:        1024,
	}
}

// fakeGenerator records GenerateContent calls and replies with a canned response.
type fakeGenerator struct {
	mu       sync.Mutex
	resp     *genai.GenerateContentResponse
	err      error
	block    bool
	model    string
	contents []*genai.Content
	cfg      *genai.GenerateContentConfig
	deadline time.Time
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	f.model, f.contents, f.cfg = model, contents, cfg
	f.deadline, _ = ctx.Deadline()
	block := f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.resp, f.err
}

// textResponse builds a single candidate response carrying text.
func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      genai.NewContentFromText(text, genai.RoleModel),
			FinishReason: genai.FinishReasonStop,
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     10,
			CandidatesTokenCount: 5,
			TotalTokenCount:      15,
		},
	}
}
