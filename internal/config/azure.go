package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/talkdata/pkg/log"
)

type AzureConfig struct {
	Endpoint   string `env:"AZURE_OPENAI_ENDPOINT,required,notEmpty"`
	APIKey     string `env:"AZURE_OPENAI_API_KEY,required,notEmpty"`
	Deployment string `env:"AZURE_OPENAI_DEPLOYMENT_NAME,required,notEmpty"`
	APIVersion string `env:"AZURE_OPENAI_API_VERSION" envDefault:"2025-03-01-preview"`
}

func NewAzureConfig(ctx context.Context) *AzureConfig {
	c := &AzureConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Azure OpenAI config")
	}
	return c
}

type SpeechConfig struct {
	WhisperEndpoint string `env:"AZURE_OPENAI_SPEECH_ENDPOINT,required,notEmpty"`
	WhisperAPIKey   string `env:"AZURE_OPENAI_SPEECH_API_KEY,required,notEmpty"`
	WhisperModel    string `env:"AZURE_OPENAI_WHISPER_DEPLOYMENT" envDefault:"whisper"`

	TTSEndpoint   string `env:"AZURE_OPENAI_TTS_ENDPOINT,required,notEmpty"`
	TTSAPIKey     string `env:"AZURE_OPENAI_TTS_API_KEY,required,notEmpty"`
	TTSDeployment string `env:"AZURE_OPENAI_TTS_DEPLOYMENT_NAME" envDefault:"tts-1-hd"`
	TTSVoice      string `env:"AZURE_OPENAI_TTS_VOICE" envDefault:"fable"`
}

func NewSpeechConfig(ctx context.Context) *SpeechConfig {
	c := &SpeechConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Speech config")
	}
	return c
}
