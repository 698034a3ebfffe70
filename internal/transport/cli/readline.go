package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/sandevgo/talkdata/internal/config"
	"github.com/sandevgo/talkdata/internal/service/pipeline"
	"github.com/sandevgo/talkdata/pkg/log"
)

const defaultSessionID = "cli-local"

// ReadLine is the interactive terminal front end. One process, one session.
type ReadLine struct {
	cfg    *config.AppConfig
	engine *pipeline.Engine
	rl     *readline.Instance
}

func NewReadLine(engine *pipeline.Engine, cfg *config.AppConfig) (*ReadLine, error) {
	// Ensure runtime directory exists
	if err := os.MkdirAll(cfg.RuntimePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     filepath.Join(cfg.RuntimePath, "input_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &ReadLine{
		cfg:    cfg,
		engine: engine,
		rl:     rl,
	}, nil
}

func (r *ReadLine) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Msg("Ask questions about the dataset. Type 'exit' to quit.")

	for {
		// Check context before blocking read
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if len(line) == 0 {
					return nil // Exit on Ctrl+C
				}
				continue
			} else if err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "exit" {
			return nil
		}
		if line == "" {
			continue
		}

		answer, err := r.engine.Ask(ctx, defaultSessionID, line)
		if err != nil {
			logger.Error().Err(err).Msg("ask failed")
			fmt.Fprintf(r.rl.Stdout(), "Error: %v\n", err)
			continue
		}

		if answer.Outcome.Query != "" {
			fmt.Fprintf(r.rl.Stdout(), "\033[38;5;240m[SQL] %s\033[0m\n", answer.Outcome.Query)
		}
		fmt.Fprintf(r.rl.Stdout(), "%s\n", answer.Summary)
	}
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}
