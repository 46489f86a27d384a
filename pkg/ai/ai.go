package ai

import "context"

// GenerateOptions holds configuration for a single generation request.
type GenerateOptions struct {
	Model         string   // Model identifier to use for generation
	SystemPrompts []string // System prompts prepended to the request
	Temperature   float64  // Sampling temperature (0.0-2.0)
	MaxTokens     int      // Maximum output tokens
	Schema        *OutputSchema
}

// OutputSchema requests structured JSON output conforming to the schema
// derived from Target. Transports that cannot enforce a schema ignore it;
// callers always re-parse the response text.
type OutputSchema struct {
	Name        string
	Description string
	Target      any
}

// GenerateOption is a functional option for configuring generation requests.
type GenerateOption func(*GenerateOptions)

// WithModel sets the model to use for generation.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithSystemPrompts sets the system prompts prepended to the request.
func WithSystemPrompts(prompts ...string) GenerateOption {
	return func(o *GenerateOptions) {
		o.SystemPrompts = prompts
	}
}

// WithTemperature sets the sampling temperature. Lower values make output
// more deterministic.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// WithMaxTokens caps the number of output tokens.
func WithMaxTokens(n int) GenerateOption {
	return func(o *GenerateOptions) {
		o.MaxTokens = n
	}
}

// WithOutputSchema requests schema-constrained JSON output shaped like target.
func WithOutputSchema(name, description string, target any) GenerateOption {
	return func(o *GenerateOptions) {
		o.Schema = &OutputSchema{Name: name, Description: description, Target: target}
	}
}

// TextGenerator produces completion text for a prompt. Implementations are
// the remote transports (OpenAI-compatible, Ollama); the analyzer's local
// heuristic path deliberately does not implement this interface because it
// never goes through the cost/cache gate.
type TextGenerator interface {
	GenerateCompletion(ctx context.Context, prompt string, opts ...GenerateOption) (string, error)
}
