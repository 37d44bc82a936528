package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ETFScope/internal/collector"
	"ETFScope/internal/config"
	"ETFScope/internal/httpapi"
	"ETFScope/internal/model"
	"ETFScope/internal/scheduler"
)

// newServeCmd creates the serve command
func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chart API, refreshing prices on schedule.refresh_cron",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			refreshOnStart, _ := cmd.Flags().GetBool("refresh-on-start")
			if addr == "" {
				addr = cfg.Server.ListenAddr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ds, err := loadDataset(ctx, cfg, "")
			if err != nil {
				log.Printf("[WARN] starting with an empty dataset: %v", err)
				ds = model.Dataset{}
			}
			srv := httpapi.NewServer(ds, cfg.Policy(), nil)

			if cfg.Schedule.RefreshCron != "" {
				sched, closeStore, err := newRefreshScheduler(ctx, cfg, srv)
				if err != nil {
					return err
				}
				defer closeStore()
				if err := sched.RegisterRefresh(cfg.Schedule.RefreshCron); err != nil {
					return err
				}
				sched.Start()
				defer sched.Stop()

				if refreshOnStart {
					sched.RunInBackground(ctx)
				}
			}

			httpSrv := &http.Server{
				Addr:              addr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				log.Printf("[INFO] listening on %s", addr)
				errCh <- httpSrv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http server: %w", err)
				}
			case <-ctx.Done():
				log.Println("[INFO] shutting down...")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default server.listen_addr)")
	cmd.Flags().Bool("refresh-on-start", false, "Run one refresh immediately at startup")

	return cmd
}

// newRefreshScheduler wires collector, store and exporter to hot-swap the
// server's dataset after every refresh.
func newRefreshScheduler(ctx context.Context, cfg *config.Config, srv *httpapi.Server) (*scheduler.Scheduler, func(), error) {
	if err := cfg.ValidateRefresh(); err != nil {
		return nil, nil, fmt.Errorf("config validation: %w", err)
	}
	start, err := cfg.StartDate()
	if err != nil {
		return nil, nil, err
	}
	st, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	col := collector.NewCollector(newFetcher(cfg), st, start)
	sched := scheduler.NewScheduler(ctx, col, st, cfg.Tickers)
	sched.JSONPath = cfg.Dataset.JSONPath
	sched.ParquetPath = cfg.Dataset.ParquetPath
	sched.OnDataset = srv.SetDataset
	return sched, func() { st.Close() }, nil
}
