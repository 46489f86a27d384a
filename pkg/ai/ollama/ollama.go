// Package ollama implements the ai.TextGenerator interface using a
// locally-hosted Ollama server.
package ollama

import (
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"

	"marginalia/pkg/ai"
)

// Client generates completions against an Ollama server. A weighted
// semaphore bounds in-flight requests so a batch run cannot overwhelm a
// single local model.
type Client struct {
	chatModel   string
	temperature float64
	maxTokens   int

	reqLock *semaphore.Weighted

	api *api.Client
}

var _ ai.TextGenerator = (*Client)(nil)

// NewClientParams contains configuration options for creating a Client.
type NewClientParams struct {
	BaseURL string
	APIKey  string

	ChatModel   string
	Temperature float64
	MaxTokens   int

	MaxConcurrentRequests int64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewClient connects to the Ollama server at the given BaseURL (or the
// default if empty).
func NewClient(params NewClientParams) (*Client, error) {
	var (
		u   *url.URL
		err error
	)
	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	httpClient := http.DefaultClient
	if params.APIKey != "" {
		httpClient = &http.Client{
			Transport: &headerTransport{
				headers: map[string]string{
					"Authorization": "Bearer " + params.APIKey,
				},
				rt: http.DefaultTransport,
			},
		}
	}

	concurrency := params.MaxConcurrentRequests
	if concurrency <= 0 {
		concurrency = 1
	}

	return &Client{
		chatModel:   params.ChatModel,
		temperature: params.Temperature,
		maxTokens:   params.MaxTokens,
		reqLock:     semaphore.NewWeighted(concurrency),
		api:         api.NewClient(u, httpClient),
	}, nil
}
