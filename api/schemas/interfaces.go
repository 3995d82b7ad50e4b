// File: api/schemas/interfaces.go
package schemas

import (
	"context"
)

// -- LLM Client Schemas & Interface --

// ModelTier allows for selecting a large language model based on a preference
// for speed versus advanced capabilities.
type ModelTier string

const (
	TierFast     ModelTier = "fast"     // Prefers a faster, potentially less capable model.
	TierPowerful ModelTier = "powerful" // Prefers a more capable, potentially slower model.
)

// GenerationOptions provides detailed parameters to control the text generation
// process of the LLM, such as creativity (temperature) and output format.
type GenerationOptions struct {
	Temperature     float64 `json:"temperature"`       // Controls randomness. Lower is more deterministic.
	ForceJSONFormat bool    `json:"force_json_format"` // If true, forces the model to output valid JSON.
	TopP            float64 `json:"top_p"`
	TopK            int     `json:"top_k"`
}

// GenerationRequest encapsulates a complete request to the LLM, including the
// system and user prompts, the desired model tier, and generation options.
type GenerationRequest struct {
	SystemPrompt string            `json:"system_prompt"`
	UserPrompt   string            `json:"user_prompt"`
	Tier         ModelTier         `json:"tier"`
	Options      GenerationOptions `json:"options"`
}

// LLMClient defines a standard interface for interacting with a Large Language
// Model, abstracting the specifics of the underlying provider (e.g., Gemini).
type LLMClient interface {
	// Generate produces a text completion based on the provided request.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	// Close cleans up any resources held by the client.
	Close() error
}

// -- Log Analysis Schemas --

// LogFormat describes how a chunk of log text is encoded.
type LogFormat string

const (
	LogFormatAuto  LogFormat = "auto"
	LogFormatJSON  LogFormat = "json"
	LogFormatPlain LogFormat = "plain"
)

// ParseOptions tells an analyzer how to interpret the text it receives.
type ParseOptions struct {
	LogFormat    LogFormat `json:"logFormat"`
	ContextLines int       `json:"contextLines"`
}

// DefaultParseOptions are the options the file monitor uses for every
// incremental chunk.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{LogFormat: LogFormatAuto, ContextLines: 20}
}
