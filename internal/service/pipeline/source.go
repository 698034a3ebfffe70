package pipeline

import (
	"context"
	"encoding/json"
	"os"

	"github.com/sandevgo/talkdata/configs"
	"github.com/sandevgo/talkdata/pkg/log"
)

// Source resolves the editable runtime assets: prompt templates and the
// correction mapping. Files are re-read on every call so operators can tune
// prompts without a restart, the embedded defaults cover missing files.
type Source struct {
	queryPath       string
	summaryPath     string
	correctionsPath string
}

func NewSource(queryPath, summaryPath, correctionsPath string) *Source {
	return &Source{
		queryPath:       queryPath,
		summaryPath:     summaryPath,
		correctionsPath: correctionsPath,
	}
}

func (s *Source) QueryTemplate(ctx context.Context) string {
	return s.readTemplate(ctx, s.queryPath, configs.QueryPrompt)
}

func (s *Source) SummaryTemplate(ctx context.Context) string {
	return s.readTemplate(ctx, s.summaryPath, configs.SummaryPrompt)
}

func (s *Source) readTemplate(ctx context.Context, path, fallback string) string {
	if path == "" {
		return fallback
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.FromCtx(ctx).Error().Err(err).Str("path", path).Msg("failed to read prompt template, using default")
		}
		return fallback
	}
	return string(data)
}

func (s *Source) Corrections(ctx context.Context) []Correction {
	if s.correctionsPath != "" {
		if corrections, err := LoadCorrections(s.correctionsPath); err != nil {
			log.FromCtx(ctx).Error().Err(err).Str("path", s.correctionsPath).Msg("failed to load corrections, using defaults")
		} else if corrections != nil {
			return corrections
		}
	}

	var corrections []Correction
	if err := json.Unmarshal(configs.Corrections, &corrections); err != nil {
		return nil
	}
	return corrections
}
