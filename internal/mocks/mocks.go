// File: internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/logwarden/api/schemas"
	"github.com/xkilldash9x/logwarden/internal/config"
)

// -- Config Mock --

// MockConfig mocks the config.Interface.
type MockConfig struct {
	mock.Mock
}

func (m *MockConfig) Logger() config.LoggerConfig {
	return m.Called().Get(0).(config.LoggerConfig)
}

func (m *MockConfig) Monitor() config.MonitorConfig {
	return m.Called().Get(0).(config.MonitorConfig)
}

func (m *MockConfig) Analyzer() config.AnalyzerConfig {
	return m.Called().Get(0).(config.AnalyzerConfig)
}

func (m *MockConfig) Server() config.ServerConfig {
	return m.Called().Get(0).(config.ServerConfig)
}

func (m *MockConfig) SetAnalyzerAPIKey(key string) { m.Called(key) }
func (m *MockConfig) SetMonitorUsePolling(b bool)  { m.Called(b) }
func (m *MockConfig) SetServerListenAddr(a string) { m.Called(a) }

// -- LLM Client Mock --

// MockLLMClient mocks the schemas.LLMClient interface.
type MockLLMClient struct {
	mock.Mock
}

// Generate provides a mock function for LLM calls.
func (m *MockLLMClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// Close provides a mock function for releasing client resources.
func (m *MockLLMClient) Close() error {
	return m.Called().Error(0)
}

// -- Analyzer Mock --

// MockAnalyzer mocks the analyzer.Analyzer interface.
type MockAnalyzer struct {
	mock.Mock
}

// Analyze records the call and returns the configured finding or error.
func (m *MockAnalyzer) Analyze(ctx context.Context, text string, opts schemas.ParseOptions) (*schemas.Finding, error) {
	args := m.Called(ctx, text, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schemas.Finding), args.Error(1)
}
