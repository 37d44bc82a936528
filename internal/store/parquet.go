package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"

	"ETFScope/internal/model"
)

// PriceRecord is the Parquet schema for one stored price.
type PriceRecord struct {
	Ticker string `parquet:"ticker"`
	Date   int64  `parquet:"date,timestamp(millisecond)"` // UTC midnight, Unix ms
	Price  string `parquet:"price"`                       // decimal text
}

// ParquetArchive reads and writes a whole dataset as a single Parquet file.
type ParquetArchive struct {
	Path string
}

// NewParquetArchive returns an archive backed by the file at path.
func NewParquetArchive(path string) *ParquetArchive {
	return &ParquetArchive{Path: path}
}

// Write replaces the archive with ds, rows ordered by ticker then date.
func (a *ParquetArchive) Write(ds model.Dataset) error {
	records := make([]PriceRecord, 0, ds.Points())
	for _, ticker := range ds.Tickers() {
		for _, p := range ds.Lookup(ticker).Sorted() {
			records = append(records, PriceRecord{
				Ticker: ticker,
				Date:   p.Date.UnixMilli(),
				Price:  p.Price.String(),
			})
		}
	}

	if err := os.MkdirAll(filepath.Dir(a.Path), 0o755); err != nil {
		return err
	}
	tmp := a.Path + ".tmp"
	if err := parquet.WriteFile(tmp, records); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write parquet %s: %w", a.Path, err)
	}
	return os.Rename(tmp, a.Path)
}

// Read loads the archive into a dataset.
func (a *ParquetArchive) Read() (model.Dataset, error) {
	records, err := parquet.ReadFile[PriceRecord](a.Path)
	if err != nil {
		return nil, err
	}

	ds := make(model.Dataset)
	for _, r := range records {
		price, err := decimal.NewFromString(r.Price)
		if err != nil {
			return nil, fmt.Errorf("parse price %q for %s: %w", r.Price, r.Ticker, err)
		}
		d := model.DateOf(time.UnixMilli(r.Date).UTC())
		ds[r.Ticker] = append(ds[r.Ticker], model.Point{Date: d, Price: price})
	}
	for ticker, s := range ds {
		ds[ticker] = s.Sorted()
	}
	return ds, nil
}
