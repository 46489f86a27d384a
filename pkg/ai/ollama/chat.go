package ollama

import (
	"context"
	"encoding/json"

	"github.com/ollama/ollama/api"

	"marginalia/internal/util"
	"marginalia/pkg/ai"
)

// maxAttempts bounds transient-failure retries per request.
const maxAttempts = 3

// GenerateCompletion sends a single-turn prompt and returns assistant text.
// When an output schema is set the request carries it as the Ollama format
// field, which constrains decoding server-side.
func (c *Client) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	options := ai.GenerateOptions{
		Model:       c.chatModel,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	for _, o := range opts {
		o(&options)
	}

	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.reqLock.Release(1)

	msgs := make([]api.Message, 0, len(options.SystemPrompts)+1)
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, api.Message{Role: "system", Content: sp})
	}
	msgs = append(msgs, api.Message{Role: "user", Content: prompt})

	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: msgs,
		Stream:   &stream,
		Options:  map[string]any{"temperature": options.Temperature},
	}
	if options.MaxTokens > 0 {
		req.Options["num_predict"] = options.MaxTokens
	}

	if options.Schema != nil {
		schemaObj := ai.GenerateSchema(options.Schema.Target)
		formatBytes, err := json.Marshal(schemaObj)
		if err != nil {
			return "", err
		}
		req.Format = json.RawMessage(formatBytes)
	}

	var final api.ChatResponse
	err := util.RetryErrWithContext(ctx, maxAttempts, func(ctx context.Context) error {
		final = api.ChatResponse{}
		return c.api.Chat(ctx, req, func(cr api.ChatResponse) error {
			final.Message.Content += cr.Message.Content
			if cr.Done {
				final.Done = true
			}
			return nil
		})
	})
	if err != nil {
		return "", &ai.TransportError{Err: err}
	}

	return final.Message.Content, nil
}
