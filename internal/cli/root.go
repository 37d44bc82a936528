package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"ETFScope/internal/collector"
	"ETFScope/internal/config"
	"ETFScope/internal/loader"
	"ETFScope/internal/model"
	"ETFScope/internal/store"
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "etfscope",
		Short: "ETFScope - ETF price history collector and chart",
		Long: `ETFScope keeps a daily price history for a list of ETFs, publishes it as a
JSON dataset and charts any ticker over a chosen time range.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			loaded, err := config.Load(config.Path(path))
			if err != nil {
				return err
			}
			if err := loaded.Validate(); err != nil {
				return fmt.Errorf("config validation: %w", err)
			}
			*cfg = *loaded
			return nil
		},
	}

	rootCmd.AddCommand(newFetchCmd(cfg))
	rootCmd.AddCommand(newMigrateCmd(cfg))
	rootCmd.AddCommand(newExportCmd(cfg))
	rootCmd.AddCommand(newInspectCmd(cfg))
	rootCmd.AddCommand(newShowCmd(cfg))
	rootCmd.AddCommand(newBrowseCmd(cfg))
	rootCmd.AddCommand(newServeCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Configuration file path (default $CONFIG_PATH or "+config.DefaultPath+")")

	return rootCmd
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "etfscope %s\n", Version)
		},
	}
}

func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	st, err := store.NewSQLiteStore(cfg.Database.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "mock":
		fetcher = &collector.MockFetcher{}
	case "finance-go":
		fetcher = collector.NewFinanceGoFetcher()
	default:
		fetcher = collector.NewYahooFetcher(cfg.DataSource.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())
	return fetcher
}

// loadDataset reads the dataset from source, or from the configured dataset
// location when source is empty.
func loadDataset(ctx context.Context, cfg *config.Config, source string) (model.Dataset, error) {
	if source == "" {
		source = cfg.DatasetSource()
	}
	ds, st, err := loader.New(cfg.DataSource.Proxy).Load(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", source, err)
	}
	log.Printf("[INFO] loaded %d tickers (%d prices) from %s", st.Tickers, st.Points, source)
	return ds, nil
}

// resolveDataset loads the dataset from the SQLite store when fromDB is set,
// otherwise from source (see loadDataset).
func resolveDataset(ctx context.Context, cfg *config.Config, source string, fromDB bool) (model.Dataset, error) {
	if !fromDB {
		return loadDataset(ctx, cfg, source)
	}
	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Dataset(ctx)
}

// refClock returns a clock fixed at ref, or time.Now when ref is empty.
func refClock(ref string) (func() time.Time, error) {
	if ref == "" {
		return time.Now, nil
	}
	d, err := model.ParseDate(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid --ref: %w", err)
	}
	return func() time.Time { return d }, nil
}
