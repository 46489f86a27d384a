package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"

	"marginalia/internal/util"
	"marginalia/pkg/ai"
)

// maxAttempts bounds transient-failure retries per request.
const maxAttempts = 3

// GenerateCompletion sends a single-turn prompt to the chat model and
// returns the generated completion as plain text.
//
// When an output schema is set via ai.WithOutputSchema, the request asks the
// server to constrain the response to that JSON schema.
//
// Example:
//
//	resp, err := client.GenerateCompletion(ctx, "Analyze this passage...")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(resp)
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

	msgs := []openai.ChatCompletionMessageParamUnion{}
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, openai.SystemMessage(sp))
	}
	msgs = append(msgs, openai.UserMessage(prompt))

	body := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(options.Model),
		Messages:    msgs,
		Temperature: openai.Float(options.Temperature),
	}
	if options.MaxTokens > 0 {
		body.MaxTokens = openai.Int(int64(options.MaxTokens))
	}

	if options.Schema != nil {
		schema := ai.GenerateSchema(options.Schema.Target)
		body.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        options.Schema.Name,
					Description: openai.String(options.Schema.Description),
					Schema:      schema,
					Strict:      openai.Bool(true),
				},
			},
		}
	}

	response, err := util.RetryWithContext(ctx, maxAttempts, func(ctx context.Context) (*openai.ChatCompletion, error) {
		return c.chat.Chat.Completions.New(ctx, body)
	})
	if err != nil {
		return "", &ai.TransportError{Err: err}
	}

	if len(response.Choices) == 0 {
		return "", &ai.TransportError{Err: fmt.Errorf("no choices in response from model")}
	}
	message := response.Choices[0].Message.Content
	if message == "" {
		return "", &ai.TransportError{
			Err: fmt.Errorf("empty response from model (finish_reason: %s)", response.Choices[0].FinishReason),
		}
	}
	return message, nil
}
