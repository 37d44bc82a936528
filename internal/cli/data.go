package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ETFScope/internal/collector"
	"ETFScope/internal/config"
	"ETFScope/internal/exporter"
	"ETFScope/internal/scheduler"
)

// newFetchCmd creates the fetch command
func newFetchCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch new daily prices and republish the dataset",
		Long: `Fetch daily closes for every configured ticker, starting from the latest
stored date (or data_source.start_date for a new ticker), store them and
rewrite the JSON dataset.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.ValidateRefresh(); err != nil {
				return fmt.Errorf("config validation: %w", err)
			}
			start, err := cfg.StartDate()
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			col := collector.NewCollector(newFetcher(cfg), st, start)
			sched := scheduler.NewScheduler(cmd.Context(), col, st, cfg.Tickers)
			sched.JSONPath = cfg.Dataset.JSONPath
			sched.ParquetPath = cfg.Dataset.ParquetPath

			run, err := sched.RunNow(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Fetched %d prices for %d tickers (%d failed)\n", run.Points, run.Tickers, run.Failures)
			if run.Note != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Failures: %s\n", run.Note)
			}
			return nil
		},
	}
	return cmd
}

// newMigrateCmd creates the migrate command
func newMigrateCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate [SOURCE]",
		Short: "Import a JSON dataset (file or URL) into the SQLite store",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := cfg.Dataset.JSONPath
			if len(args) == 1 {
				source = args[0]
			}
			ds, err := loadDataset(cmd.Context(), cfg, source)
			if err != nil {
				return err
			}

			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := st.ImportDataset(cmd.Context(), ds)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d prices for %d tickers into %s\n", n, len(ds), cfg.Database.SQLitePath)
			return nil
		},
	}
	return cmd
}

// newExportCmd creates the export command
func newExportCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the stored prices out as the JSON dataset and optional Parquet snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			parquetPath, _ := cmd.Flags().GetString("parquet")
			merge, _ := cmd.Flags().GetBool("merge")
			if out == "" {
				out = cfg.Dataset.JSONPath
			}
			if parquetPath == "" {
				parquetPath = cfg.Dataset.ParquetPath
			}

			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			ds, err := st.Dataset(cmd.Context())
			if err != nil {
				return err
			}
			written, err := exporter.WriteJSON(out, ds, merge)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d tickers (%d prices) to %s\n", len(written), written.Points(), out)

			if parquetPath != "" {
				if err := exporter.WriteParquet(parquetPath, written); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote parquet snapshot to %s\n", parquetPath)
			}
			return nil
		},
	}

	cmd.Flags().String("out", "", "JSON output path (default dataset.json_path)")
	cmd.Flags().String("parquet", "", "Parquet snapshot path (default dataset.parquet_path)")
	cmd.Flags().Bool("merge", true, "Merge into an existing JSON file instead of replacing it")

	return cmd
}
