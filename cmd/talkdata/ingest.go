package main

import (
	"fmt"

	"github.com/sandevgo/talkdata/internal/config"
	"github.com/sandevgo/talkdata/internal/service/ingest"
	"github.com/sandevgo/talkdata/pkg/log"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:          "ingest <file.csv>",
	Short:        "Load a CSV export into the queryable dataset",
	Args:         cobra.ExactArgs(1),
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

		rows, err := ingest.LoadCSV(ctx, args[0], appCfg.GetDatasetPath(), pipeCfg.TableName)
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}

		log.FromCtx(ctx).Info().
			Int("rows", rows).
			Str("table", pipeCfg.TableName).
			Msg("dataset ready, run 'talkdata describe' to document the columns")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
