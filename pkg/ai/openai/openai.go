// Package openai implements the ai.TextGenerator interface on top of any
// OpenAI-compatible chat completion endpoint.
package openai

import (
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"marginalia/pkg/ai"
)

// Client talks to an OpenAI-compatible chat completion API.
//
// A Client should be created using NewClient.
type Client struct {
	chatModel   string
	maxTokens   int
	temperature float64

	chat *openai.Client
}

var _ ai.TextGenerator = (*Client)(nil)

// NewClientParams defines the configuration for creating a Client.
//
// BaseURL may be empty to use the default OpenAI endpoint, or point at any
// compatible server. ChatModel, MaxTokens and Temperature are the per-call
// defaults; all of them can be overridden with generate options.
type NewClientParams struct {
	BaseURL string
	APIKey  string

	ChatModel   string
	MaxTokens   int
	Temperature float64
}

// NewClient creates a Client configured with the provided parameters.
func NewClient(params NewClientParams) *Client {
	options := []option.RequestOption{
		option.WithAPIKey(params.APIKey),
	}
	if params.BaseURL != "" {
		options = append(options, option.WithBaseURL(params.BaseURL))
	}
	client := openai.NewClient(options...)

	return &Client{
		chatModel:   params.ChatModel,
		maxTokens:   params.MaxTokens,
		temperature: params.Temperature,
		chat:        &client,
	}
}
