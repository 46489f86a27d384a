package ai

import (
	"context"

	"marginalia/pkg/logger"
)

// Service wraps a TextGenerator with response caching and daily budget
// enforcement. Cache hits are free and never count against the budget; the
// budget gate runs before the remote call so an exhausted budget fails fast.
//
// Service itself implements TextGenerator, so callers can be handed either a
// raw transport or a gated one.
type Service struct {
	generator TextGenerator
	cache     ResponseCache
	tracker   *CostTracker
	model     string
}

type NewServiceParams struct {
	Generator TextGenerator
	// Cache may be nil to disable caching.
	Cache   ResponseCache
	Tracker *CostTracker
	// Model is the default model recorded in cache keys and passed to the
	// transport when no per-call override is given.
	Model string
}

func NewService(params NewServiceParams) *Service {
	return &Service{
		generator: params.Generator,
		cache:     params.Cache,
		tracker:   params.Tracker,
		model:     params.Model,
	}
}

// Tracker exposes the cost tracker for end-of-run reporting.
func (s *Service) Tracker() *CostTracker {
	return s.tracker
}

func (s *Service) GenerateCompletion(ctx context.Context, prompt string, opts ...GenerateOption) (string, error) {
	options := GenerateOptions{Model: s.model}
	for _, opt := range opts {
		opt(&options)
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, prompt, options.Model); ok {
			logger.Debug("cache hit", "model", options.Model)
			return cached, nil
		}
	}

	if err := s.tracker.CheckBudget(); err != nil {
		return "", err
	}

	opts = append(opts, WithModel(options.Model))
	response, err := s.generator.GenerateCompletion(ctx, prompt, opts...)
	if err != nil {
		return "", err
	}

	inputTokens := s.tracker.CountTokens(prompt)
	outputTokens := s.tracker.CountTokens(response)
	cost := s.tracker.EstimateCost(inputTokens, outputTokens)
	s.tracker.AddCost(cost)
	logger.Debug("completion billed",
		"model", options.Model,
		"input_tokens", inputTokens,
		"output_tokens", outputTokens,
		"cost", cost,
	)

	if s.cache != nil {
		s.cache.Set(ctx, prompt, options.Model, response)
	}
	return response, nil
}
