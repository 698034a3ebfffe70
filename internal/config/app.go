package config

import (
	"context"
	"path/filepath"

	"github.com/caarlos0/env/v9"
	"github.com/sandevgo/talkdata/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"TALKDATA_RUNTIME_PATH" envDefault:".talkdata"`
	// Allow selecting the completion provider
	LLMProvider string `env:"LLM_PROVIDER" envDefault:"azure"`

	// Transport Flags
	EnableHTTP     bool `env:"ENABLE_HTTP" envDefault:"true"`
	EnableTelegram bool `env:"ENABLE_TELEGRAM" envDefault:"false"`
	EnableCLI      bool `env:"ENABLE_CLI" envDefault:"false"`
	EnableMCP      bool `env:"ENABLE_MCP" envDefault:"false"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetHistoryDBPath() string {
	return filepath.Join(c.RuntimePath, "talkdata.db")
}

func (c AppConfig) GetDatasetPath() string {
	return filepath.Join(c.RuntimePath, "dataset.db")
}

func (c AppConfig) GetDescriptionsPath() string {
	return filepath.Join(c.RuntimePath, "descriptions")
}

func (c AppConfig) GetQueryPromptPath() string {
	return filepath.Join(c.RuntimePath, "query_prompt.tmpl")
}

func (c AppConfig) GetSummaryPromptPath() string {
	return filepath.Join(c.RuntimePath, "summary_prompt.tmpl")
}

func (c AppConfig) GetCorrectionsPath() string {
	return filepath.Join(c.RuntimePath, "corrections.json")
}

func (c AppConfig) GetTempPath() string {
	return filepath.Join(c.RuntimePath, "temp")
}

func (c AppConfig) IsTelegramSelected() bool {
	return c.EnableTelegram
}
