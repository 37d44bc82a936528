package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"ETFScope/internal/collector"
	"ETFScope/internal/exporter"
	"ETFScope/internal/model"
	"ETFScope/internal/store"
)

// Scheduler runs the price refresh on a cron schedule.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Store     store.PriceStore
	Tickers   []string
	Ctx       context.Context

	JSONPath    string // dataset resource rewritten after each refresh; empty skips
	ParquetPath string // optional snapshot
	OnDataset   func(model.Dataset)
	Now         func() time.Time

	mu sync.Mutex
	bg sync.WaitGroup // RunInBackground calls
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, st store.PriceStore, tickers []string) *Scheduler {
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		Collector: col,
		Store:     st,
		Tickers:   tickers,
		Ctx:       ctx,
		Now:       time.Now,
	}
}

// RegisterRefresh schedules the refresh job.
func (s *Scheduler) RegisterRefresh(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs, scheduled or
// started with RunInBackground, to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.bg.Wait()
	log.Println("[INFO] scheduler stopped")
}

// RunInBackground starts RunNow in a goroutine that Stop waits for.
func (s *Scheduler) RunInBackground(ctx context.Context) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		if _, err := s.RunNow(ctx); err != nil {
			log.Printf("[ERROR] background refresh: %v", err)
		}
	}()
}

func (s *Scheduler) refreshTask() {
	log.Println("[INFO] running scheduled refresh")
	if _, err := s.RunNow(s.Ctx); err != nil {
		log.Printf("[ERROR] scheduled refresh: %v", err)
	}
}

// RunNow refreshes every ticker, rewrites the exports, hands the new dataset
// to OnDataset and records the run. Concurrent calls are serialized.
func (s *Scheduler) RunNow(ctx context.Context) (*store.RefreshRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := s.Now()
	report, err := s.Collector.Refresh(ctx, s.Tickers, started)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	ds, err := s.Store.Dataset(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	if s.JSONPath != "" {
		if ds, err = exporter.WriteJSON(s.JSONPath, ds, true); err != nil {
			return nil, err
		}
	}
	if s.ParquetPath != "" {
		if err := exporter.WriteParquet(s.ParquetPath, ds); err != nil {
			return nil, err
		}
	}
	if s.OnDataset != nil {
		s.OnDataset(ds)
	}

	run := &store.RefreshRun{
		StartedAt:  started,
		FinishedAt: s.Now(),
		Source:     report.Source,
		Tickers:    len(s.Tickers),
		Points:     report.Points(),
		Failures:   len(report.Failures()),
		Note:       report.Summary(),
	}
	if err := s.Store.RecordRun(ctx, run); err != nil {
		log.Printf("[ERROR] record refresh run: %v", err)
	}
	log.Printf("[INFO] refresh %s done: %d prices, %d failures", run.ID, run.Points, run.Failures)
	return run, nil
}
