package main

import (
	"fmt"

	"github.com/sandevgo/talkdata/internal/config"
	"github.com/sandevgo/talkdata/internal/providers/llm"
	"github.com/sandevgo/talkdata/internal/service/ingest"
	"github.com/sandevgo/talkdata/internal/service/pipeline"
	"github.com/sandevgo/talkdata/pkg/log"
	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:          "describe",
	Short:        "Generate column descriptions for the ingested dataset",
	Long:         `Samples every column of the dataset and asks the completion model to document it. The descriptions feed the query prompt, better descriptions mean better SQL.`,
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

		provider, err := llm.NewProvider(ctx, appCfg)
		if err != nil {
			return fmt.Errorf("failed to initialize LLM provider: %w", err)
		}

		counter, err := pipeline.NewCounter(pipeCfg.TokenCounter, pipeCfg.TiktokenEncoding)
		if err != nil {
			return fmt.Errorf("failed to initialize token counter: %w", err)
		}

		describer := ingest.NewDescriber(provider, counter, pipeCfg.TokenBudget)
		if err := describer.DescribeAll(ctx, appCfg.GetDatasetPath(), pipeCfg.TableName, appCfg.GetDescriptionsPath()); err != nil {
			return fmt.Errorf("describe failed: %w", err)
		}

		log.FromCtx(ctx).Info().Msg("column descriptions written, restart the server to pick them up")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
}
