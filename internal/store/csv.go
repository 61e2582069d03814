package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"MarketPulse/internal/model"
)

// CSVStore keeps one <key>.csv file per table under a directory.
type CSVStore struct {
	dir string
}

// NewCSVStore creates the directory if needed.
func NewCSVStore(dir string) (*CSVStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %v", ErrPersistence, err)
	}
	return &CSVStore{dir: dir}, nil
}

// Path returns the file backing a table key.
func (s *CSVStore) Path(key string) string {
	return filepath.Join(s.dir, key+".csv")
}

func (s *CSVStore) Load(_ context.Context, key string) ([]model.IndicatorRow, error) {
	f, err := os.Open(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrPersistence, key, err)
	}
	defer f.Close()

	rows, err := readRows(f)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrPersistence, key, err)
	}
	return rows, nil
}

func readRows(r io.Reader) ([]model.IndicatorRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}
	if _, ok := idx["date"]; !ok {
		return nil, fmt.Errorf("missing date column")
	}

	var rows []model.IndicatorRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row, err := parseRow(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(rec []string, idx map[string]int) (model.IndicatorRow, error) {
	field := func(name string) string {
		i, ok := idx[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}
	var row model.IndicatorRow
	d, err := time.Parse(dateLayout, field("date"))
	if err != nil {
		return row, err
	}
	row.Date = d

	ints := []struct {
		name string
		dst  *int64
	}{
		{"open", &row.Open}, {"high", &row.High}, {"low", &row.Low},
		{"close", &row.Close}, {"diff", &row.Diff}, {"volume", &row.Volume},
	}
	for _, c := range ints {
		v := field(c.name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(v, 64)
			if ferr != nil {
				return row, fmt.Errorf("%s: %w", c.name, err)
			}
			n = int64(f)
		}
		*c.dst = n
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{"ema12", &row.EMA12}, {"ema26", &row.EMA26}, {"macd_line", &row.MACDLine},
		{"signal_line", &row.SignalLine}, {"macd_hist", &row.MACDHist},
	}
	for _, c := range floats {
		v := field(c.name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return row, fmt.Errorf("%s: %w", c.name, err)
		}
		*c.dst = f
	}
	return row, nil
}

// Save rewrites the table through a temp file and rename.
func (s *CSVStore) Save(_ context.Context, key string, rows []model.IndicatorRow) error {
	path := s.Path(key)
	tmp, err := os.CreateTemp(s.dir, key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrPersistence, key, err)
	}
	defer os.Remove(tmp.Name())

	if err := writeRows(tmp, rows); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %v", ErrPersistence, key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrPersistence, key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: rename %s: %v", ErrPersistence, key, err)
	}
	return nil
}

func writeRows(w io.Writer, rows []model.IndicatorRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Date.Format(dateLayout),
			strconv.FormatInt(r.Open, 10),
			strconv.FormatInt(r.High, 10),
			strconv.FormatInt(r.Low, 10),
			strconv.FormatInt(r.Close, 10),
			strconv.FormatInt(r.Diff, 10),
			strconv.FormatInt(r.Volume, 10),
			formatFloat(r.EMA12),
			formatFloat(r.EMA26),
			formatFloat(r.MACDLine),
			formatFloat(r.SignalLine),
			formatFloat(r.MACDHist),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
