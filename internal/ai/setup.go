package ai

import (
	"context"

	"github.com/suPer8Hu/focusbot/internal/config"
)

// DefaultRegistry registers every provider the server knows, configured from cfg.
func DefaultRegistry(cfg config.Config) *Registry {
	reg := NewRegistry()

	reg.Register("gemini", func(ctx context.Context) (Provider, error) {
		m, err := NewGoogleGeminiModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return NewGeminiProvider(m)
	})
	reg.Register("ollama", func(ctx context.Context) (Provider, error) {
		return NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaModel), nil
	})
	reg.Register("openrouter", func(ctx context.Context) (Provider, error) {
		return NewOpenRouterProvider(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, cfg.OpenRouterModel,
			cfg.OpenRouterSiteURL, cfg.OpenRouterAppName), nil
	})
	reg.Register("huggingface", func(ctx context.Context) (Provider, error) {
		return NewHuggingFaceProvider(cfg.HFBaseURL, cfg.HFAPIKey, cfg.HFModel), nil
	})

	return reg
}
