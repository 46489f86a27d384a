// Package setup wires the AI transport, cache and cost tracker from the
// environment. Both binaries construct their generator through it.
package setup

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"marginalia/internal/util"
	"marginalia/pkg/ai"
	oll "marginalia/pkg/ai/ollama"
	oai "marginalia/pkg/ai/openai"
	"marginalia/pkg/logger"
)

// BuildGenerator assembles the model transport behind the cache and budget
// gate. Without an API key it returns nil and analysis runs on the local
// heuristic alone.
func BuildGenerator(ctx context.Context) ai.TextGenerator {
	adapter := util.GetEnvString("AI_ADAPTER", "openai")
	model := util.GetEnvString("AI_CHAT_MODEL", "gpt-4o-mini")
	maxTokens := util.GetEnvInt("AI_MAX_TOKENS", 2000)
	temperature := util.GetEnvNumeric("AI_TEMPERATURE", 0.1)
	apiKey := util.GetEnv("AI_CHAT_KEY")

	var transport ai.TextGenerator
	switch adapter {
	case "ollama":
		client, err := oll.NewClient(oll.NewClientParams{
			BaseURL:               util.GetEnv("AI_CHAT_URL"),
			APIKey:                apiKey,
			ChatModel:             model,
			Temperature:           temperature,
			MaxTokens:             maxTokens,
			MaxConcurrentRequests: 1,
		})
		if err != nil {
			logger.Fatal("Could not create Ollama client", "err", err)
		}
		transport = client
	default:
		if apiKey == "" {
			logger.Warn("No API key configured, running local heuristic analysis")
			return nil
		}
		transport = oai.NewClient(oai.NewClientParams{
			BaseURL:     util.GetEnv("AI_CHAT_URL"),
			APIKey:      apiKey,
			ChatModel:   model,
			MaxTokens:   maxTokens,
			Temperature: temperature,
		})
	}

	tracker := ai.NewCostTracker(ai.NewCostTrackerParams{
		DailyLimit: util.GetEnvNumeric("MAX_DAILY_API_COST", 10.0),
		Encoding:   util.GetEnvString("AI_TOKEN_ENCODER", "cl100k_base"),
	})

	return ai.NewService(ai.NewServiceParams{
		Generator: transport,
		Cache:     buildCache(ctx),
		Tracker:   tracker,
		Model:     model,
	})
}

// buildCache picks the response cache backend: redis when REDIS_ADDR is
// set, a file cache otherwise, none when caching is disabled.
func buildCache(ctx context.Context) ai.ResponseCache {
	if !util.GetEnvBool("ENABLE_CACHING", true) {
		return nil
	}
	ttl := time.Duration(util.GetEnvInt("CACHE_TTL_HOURS", 24)) * time.Hour

	if addr := util.GetEnv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: util.GetEnv("REDIS_PASSWORD"),
			DB:       util.GetEnvInt("REDIS_DB", 0),
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unreachable, falling back to file cache", "err", err)
		} else {
			return ai.NewRedisCache(ai.NewRedisCacheParams{Client: client, TTL: ttl})
		}
	}

	dir := util.GetEnvString("CACHE_DIR", ".cache/ai_responses")
	cache, err := ai.NewFileCache(ai.NewFileCacheParams{Dir: dir, TTL: ttl})
	if err != nil {
		logger.Warn("File cache unavailable, caching disabled", "err", err)
		return nil
	}
	return cache
}
