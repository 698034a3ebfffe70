package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/talkdata/pkg/log"
)

type HTTPConfig struct {
	Addr           string   `env:"TALKDATA_HTTP_ADDR" envDefault:":8000"`
	AllowedOrigins []string `env:"TALKDATA_ALLOWED_ORIGINS" envDefault:"http://localhost:3000"`
}

func NewHTTPConfig(ctx context.Context) *HTTPConfig {
	c := &HTTPConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse HTTP config")
	}
	return c
}
