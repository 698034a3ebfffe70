package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/sandevgo/talkdata/internal/config"
	"github.com/sandevgo/talkdata/internal/core"
	"github.com/sandevgo/talkdata/pkg/log"
)

// NewProvider creates the appropriate CompletionProvider based on configuration.
func NewProvider(ctx context.Context, appCfg *config.AppConfig) (core.CompletionProvider, error) {
	log.FromCtx(ctx).Info().
		Str("provider", appCfg.LLMProvider).
		Msg("starting completion provider")

	switch appCfg.LLMProvider {
	case "azure":
		cfg := config.NewAzureConfig(ctx)
		return NewAzure(cfg.Endpoint, cfg.APIKey, cfg.Deployment, cfg.APIVersion), nil
	case "openai":
		return NewOpenAI(os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_MODEL")), nil
	case "custom":
		return NewOpenAICompatible(OpenAICompatibleConfig{
			BaseURL:    os.Getenv("CUSTOM_OPENAI_BASE_URL"),
			APIKey:     os.Getenv("CUSTOM_OPENAI_API_KEY"),
			Model:      os.Getenv("CUSTOM_OPENAI_MODEL"),
			AuthHeader: "Authorization",
			AuthPrefix: "Bearer ",
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", appCfg.LLMProvider)
	}
}
