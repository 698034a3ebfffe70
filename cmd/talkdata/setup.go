package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sandevgo/talkdata/internal/config"
	"github.com/sandevgo/talkdata/internal/core"
	"github.com/sandevgo/talkdata/internal/providers/llm"
	"github.com/sandevgo/talkdata/internal/providers/speech"
	"github.com/sandevgo/talkdata/internal/service/pipeline"
	"github.com/sandevgo/talkdata/internal/storage/sqlite"
	"github.com/sandevgo/talkdata/internal/transport/cli"
	"github.com/sandevgo/talkdata/internal/transport/httpapi"
	"github.com/sandevgo/talkdata/internal/transport/mcpsrv"
	"github.com/sandevgo/talkdata/internal/transport/telegram"
	"github.com/sandevgo/talkdata/pkg/log"
	"github.com/sandevgo/talkdata/pkg/srv"
)

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	// init env
	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	pipeCfg := config.NewPipelineConfig(ctx)

	// 2. Storage
	db, err := sqlite.NewDB(ctx, appCfg.GetHistoryDBPath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize history storage")
	}
	services = append(services, srv.NewCleanup(db.Close))
	turns := sqlite.NewTurnsRepo(db)

	rowStore, err := sqlite.NewRowStore(appCfg.GetDatasetPath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open dataset")
	}
	services = append(services, srv.NewCleanup(rowStore.Close))

	schema, err := sqlite.LoadSchema(ctx, appCfg.GetDatasetPath(), pipeCfg.TableName, appCfg.GetDescriptionsPath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load schema, run 'talkdata ingest' first")
	}

	// 3. Completion provider
	provider, err := llm.NewProvider(ctx, appCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize LLM provider")
	}

	// 4. Pipeline
	source := pipeline.NewSource(
		appCfg.GetQueryPromptPath(),
		appCfg.GetSummaryPromptPath(),
		appCfg.GetCorrectionsPath(),
	)
	counter, err := pipeline.NewCounter(pipeCfg.TokenCounter, pipeCfg.TiktokenEncoding)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize token counter")
	}
	engine := pipeline.NewEngine(pipeCfg, provider, turns, rowStore, schema, source, counter)

	// 5. Transports
	transports, err := initTransports(ctx, appCfg, engine, turns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize transports")
	}
	services = append(services, transports...)

	return services
}

func initTransports(ctx context.Context, cfg *config.AppConfig, engine *pipeline.Engine, turns core.HistoryRepository) ([]srv.Service, error) {
	var services []srv.Service

	if cfg.EnableHTTP {
		transcriber, synthesizer := initSpeech(ctx)
		httpCfg := config.NewHTTPConfig(ctx)
		services = append(services, httpapi.NewServer(
			httpCfg, engine, turns, transcriber, synthesizer, cfg.GetTempPath()))
	}

	if cfg.IsTelegramSelected() {
		tgCfg := config.NewTelegramConfig(ctx)
		bot, err := telegram.NewBot(ctx, tgCfg, engine)
		if err != nil {
			return nil, err
		}
		services = append(services, bot)
	}

	if cfg.EnableCLI {
		rl, err := cli.NewReadLine(engine, cfg)
		if err != nil {
			return nil, err
		}
		services = append(services, rl)
	}

	if cfg.EnableMCP {
		services = append(services, mcpsrv.NewServer(engine))
	}

	return services, nil
}

// initSpeech wires the voice endpoints when they are configured, otherwise
// the HTTP API still serves text questions.
func initSpeech(ctx context.Context) (core.Transcriber, core.Synthesizer) {
	if os.Getenv("AZURE_OPENAI_SPEECH_ENDPOINT") == "" {
		log.FromCtx(ctx).Warn().Msg("speech endpoints not configured, voice chat disabled")
		return speech.Disabled{}, speech.Disabled{}
	}
	speechCfg := config.NewSpeechConfig(ctx)
	return speech.NewWhisper(speechCfg), speech.NewTTS(speechCfg)
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
