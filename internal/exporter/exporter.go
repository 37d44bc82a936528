// Package exporter writes datasets out as the JSON price resource consumed by
// the chart and as a Parquet snapshot.
package exporter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"ETFScope/internal/loader"
	"ETFScope/internal/model"
	"ETFScope/internal/store"
)

// WriteJSON writes ds to path as {ticker: {date: price}} with four-space
// indentation. With merge set, an existing file at path is loaded first and
// ds is layered over it, so tickers and dates absent from ds are preserved.
// The file is replaced atomically.
func WriteJSON(path string, ds model.Dataset, merge bool) (model.Dataset, error) {
	out := ds
	if merge {
		existing, _, err := loader.LoadFile(path)
		switch {
		case err == nil:
			out = existing.Merge(ds)
		case errors.Is(err, os.ErrNotExist), errors.Is(err, loader.ErrEmptyDataset):
		default:
			log.Printf("[WARN] exporter: ignoring unreadable %s: %v", path, err)
		}
	}

	data, err := Encode(out)
	if err != nil {
		return nil, fmt.Errorf("encode dataset: %w", err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	log.Printf("[INFO] exported %d tickers (%d prices) to %s", len(out), out.Points(), path)
	return out, nil
}

// WriteParquet snapshots ds to a Parquet file at path.
func WriteParquet(path string, ds model.Dataset) error {
	if err := store.NewParquetArchive(path).Write(ds); err != nil {
		return err
	}
	log.Printf("[INFO] wrote parquet snapshot %s", path)
	return nil
}

// Encode renders ds in the same layout WriteJSON produces.
func Encode(ds model.Dataset) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	if err := enc.Encode(ds); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
