package main

import (
	"fmt"
	"strings"

	"github.com/sandevgo/talkdata/internal/config"
	"github.com/sandevgo/talkdata/internal/providers/llm"
	"github.com/sandevgo/talkdata/internal/service/pipeline"
	"github.com/sandevgo/talkdata/internal/storage/sqlite"
	"github.com/spf13/cobra"
)

var askSession string

// askCmd answers a single question and exits, useful for scripting and for
// checking a deployment without starting the server.
var askCmd = &cobra.Command{
	Use:          "ask <question>",
	Short:        "Ask one question about the dataset",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
			return err
		}
		appCfg := config.NewAppConfig(ctx)
		pipeCfg := config.NewPipelineConfig(ctx)

		db, err := sqlite.NewDB(ctx, appCfg.GetHistoryDBPath())
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer db.Close()

		rowStore, err := sqlite.NewRowStore(appCfg.GetDatasetPath())
		if err != nil {
			return fmt.Errorf("failed to open dataset: %w", err)
		}
		defer rowStore.Close()

		schema, err := sqlite.LoadSchema(ctx, appCfg.GetDatasetPath(), pipeCfg.TableName, appCfg.GetDescriptionsPath())
		if err != nil {
			return fmt.Errorf("failed to load schema, run 'talkdata ingest' first: %w", err)
		}

		provider, err := llm.NewProvider(ctx, appCfg)
		if err != nil {
			return fmt.Errorf("failed to initialize LLM provider: %w", err)
		}

		source := pipeline.NewSource(
			appCfg.GetQueryPromptPath(),
			appCfg.GetSummaryPromptPath(),
			appCfg.GetCorrectionsPath(),
		)
		counter, err := pipeline.NewCounter(pipeCfg.TokenCounter, pipeCfg.TiktokenEncoding)
		if err != nil {
			return fmt.Errorf("failed to initialize token counter: %w", err)
		}
		engine := pipeline.NewEngine(pipeCfg, provider, sqlite.NewTurnsRepo(db), rowStore, schema, source, counter)

		answer, err := engine.Ask(ctx, askSession, strings.Join(args, " "))
		if err != nil {
			return err
		}

		if answer.Outcome.Query != "" {
			fmt.Printf("SQL: %s\n", answer.Outcome.Query)
		}
		fmt.Println(answer.Summary)
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askSession, "session", "cli-local", "session id for follow-up questions")
	rootCmd.AddCommand(askCmd)
}
