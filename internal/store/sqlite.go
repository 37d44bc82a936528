package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"ETFScope/internal/model"
)

var _ PriceStore = (*SQLiteStore)(nil)

// SQLiteStore persists price history to a SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so the HTTP server can read while a refresh writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite store opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		// Prices are kept as decimal text so stored values round-trip exactly.
		`CREATE TABLE IF NOT EXISTS etf_data (
			ticker TEXT NOT NULL,
			date   TEXT NOT NULL,
			price  TEXT NOT NULL,
			PRIMARY KEY (ticker, date)
		)`,

		`CREATE TABLE IF NOT EXISTS refresh_runs (
			id          TEXT PRIMARY KEY,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			source      TEXT,
			tickers     INTEGER,
			points      INTEGER,
			failures    INTEGER,
			note        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_refresh_started ON refresh_runs(started_at)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) UpsertPoints(ctx context.Context, ticker string, points model.TimeSeries) error {
	if len(points) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO etf_data (ticker, date, price)
		VALUES (?, ?, ?)
		ON CONFLICT (ticker, date) DO UPDATE SET price = excluded.price`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.ExecContext(ctx, ticker, model.FormatDate(p.Date), p.Price.String()); err != nil {
			tx.Rollback()
			return fmt.Errorf("upsert %s %s: %w", ticker, model.FormatDate(p.Date), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LatestDate(ctx context.Context, ticker string) (time.Time, bool, error) {
	var last sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT MAX(date) FROM etf_data WHERE ticker = ?`, ticker).Scan(&last)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("query latest date: %w", err)
	}
	if !last.Valid {
		return time.Time{}, false, nil
	}
	d, err := model.ParseDate(last.String)
	if err != nil {
		return time.Time{}, false, err
	}
	return d, true, nil
}

func (s *SQLiteStore) Series(ctx context.Context, ticker string) (model.TimeSeries, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT date, price FROM etf_data WHERE ticker = ? ORDER BY date`, ticker)
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}
	defer rows.Close()

	var out model.TimeSeries
	for rows.Next() {
		var dateStr, priceStr string
		if err := rows.Scan(&dateStr, &priceStr); err != nil {
			return nil, fmt.Errorf("scan series: %w", err)
		}
		p, err := scanPoint(dateStr, priceStr)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

func (s *SQLiteStore) Dataset(ctx context.Context) (model.Dataset, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ticker, date, price FROM etf_data ORDER BY ticker, date`)
	if err != nil {
		return nil, fmt.Errorf("query dataset: %w", err)
	}
	defer rows.Close()

	ds := make(model.Dataset)
	for rows.Next() {
		var ticker, dateStr, priceStr string
		if err := rows.Scan(&ticker, &dateStr, &priceStr); err != nil {
			return nil, fmt.Errorf("scan dataset: %w", err)
		}
		p, err := scanPoint(dateStr, priceStr)
		if err != nil {
			return nil, err
		}
		ds[ticker] = append(ds[ticker], p)
	}
	return ds, rows.Err()
}

type inspectRow struct {
	Ticker string `db:"ticker"`
	Rows   int    `db:"row_count"`
	First  string `db:"first_date"`
	Last   string `db:"last_date"`
}

func (s *SQLiteStore) Inspect(ctx context.Context) ([]TickerStats, error) {
	var rows []inspectRow
	err := s.db.SelectContext(ctx, &rows, `SELECT ticker, COUNT(*) AS row_count, MIN(date) AS first_date, MAX(date) AS last_date
		FROM etf_data GROUP BY ticker ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("query inspect: %w", err)
	}

	out := make([]TickerStats, 0, len(rows))
	for _, r := range rows {
		ts := TickerStats{Ticker: r.Ticker, Rows: r.Rows}
		ts.First, _ = model.ParseDate(r.First)
		ts.Last, _ = model.ParseDate(r.Last)
		out = append(out, ts)
	}
	return out, nil
}

// ImportDataset upserts every ticker in ds. It returns the number of points written.
func (s *SQLiteStore) ImportDataset(ctx context.Context, ds model.Dataset) (int, error) {
	n := 0
	for _, ticker := range ds.Tickers() {
		series := ds.Lookup(ticker)
		if err := s.UpsertPoints(ctx, ticker, series); err != nil {
			return n, fmt.Errorf("import %s: %w", ticker, err)
		}
		n += len(series)
	}
	return n, nil
}

func (s *SQLiteStore) RecordRun(ctx context.Context, run *RefreshRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO refresh_runs
		(id, started_at, finished_at, source, tickers, points, failures, note)
		VALUES (?,?,?,?,?,?,?,?)`,
		run.ID, run.StartedAt.Unix(), run.FinishedAt.Unix(), run.Source,
		run.Tickers, run.Points, run.Failures, run.Note,
	)
	return err
}

type runRow struct {
	ID         string         `db:"id"`
	StartedAt  int64          `db:"started_at"`
	FinishedAt int64          `db:"finished_at"`
	Source     sql.NullString `db:"source"`
	Tickers    int            `db:"tickers"`
	Points     int            `db:"points"`
	Failures   int            `db:"failures"`
	Note       sql.NullString `db:"note"`
}

// RecentRuns returns up to limit refresh runs, newest first.
func (s *SQLiteStore) RecentRuns(ctx context.Context, limit int) ([]RefreshRun, error) {
	var rows []runRow
	err := s.db.SelectContext(ctx, &rows, `SELECT id, started_at, finished_at, source, tickers, points, failures, note
		FROM refresh_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	out := make([]RefreshRun, 0, len(rows))
	for _, r := range rows {
		out = append(out, RefreshRun{
			ID:         r.ID,
			StartedAt:  time.Unix(r.StartedAt, 0),
			FinishedAt: time.Unix(r.FinishedAt, 0),
			Source:     r.Source.String,
			Tickers:    r.Tickers,
			Points:     r.Points,
			Failures:   r.Failures,
			Note:       r.Note.String,
		})
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	log.Println("[INFO] closing sqlite store")
	return s.db.Close()
}

func scanPoint(dateStr, priceStr string) (model.Point, error) {
	d, err := model.ParseDate(dateStr)
	if err != nil {
		return model.Point{}, err
	}
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return model.Point{}, fmt.Errorf("parse price %q: %w", priceStr, err)
	}
	return model.Point{Date: d, Price: price}, nil
}
