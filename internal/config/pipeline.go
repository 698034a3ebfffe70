package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/talkdata/pkg/log"
)

type PipelineConfig struct {
	TableName string `env:"TALKDATA_TABLE_NAME" envDefault:"applications"`

	// HistoryWindow is the maximum number of request/response pairs carried
	// into the prompts.
	HistoryWindow int `env:"TALKDATA_HISTORY_WINDOW" envDefault:"10"`

	// TokenBudget caps the size of the summary prompt and the description
	// job, measured with the selected TokenCounter.
	TokenBudget int `env:"TALKDATA_TOKEN_BUDGET" envDefault:"250000"`

	// TokenCounter selects how prompt sizes are measured: "heuristic"
	// (characters divided by four) or "tiktoken" (real BPE counts, for
	// budgets sitting close to the model's context window).
	TokenCounter     string `env:"TALKDATA_TOKEN_COUNTER" envDefault:"heuristic"`
	TiktokenEncoding string `env:"TALKDATA_TIKTOKEN_ENCODING" envDefault:"cl100k_base"`

	TranslateTemperature float64 `env:"TALKDATA_TRANSLATE_TEMPERATURE" envDefault:"0.0"`
	SummaryTemperature   float64 `env:"TALKDATA_SUMMARY_TEMPERATURE" envDefault:"0.7"`
	TopP                 float64 `env:"TALKDATA_TOP_P" envDefault:"1.0"`

	CompletionTimeout time.Duration `env:"TALKDATA_COMPLETION_TIMEOUT" envDefault:"60s"`
	QueryTimeout      time.Duration `env:"TALKDATA_QUERY_TIMEOUT" envDefault:"15s"`
}

func NewPipelineConfig(ctx context.Context) *PipelineConfig {
	c := &PipelineConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Pipeline config")
	}
	return c
}
