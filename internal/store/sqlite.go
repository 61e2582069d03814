package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"MarketPulse/internal/model"
)

// SQLiteStore keeps all tables in one SQLite file, keyed by table key.
type SQLiteStore struct {
	db *sqlx.DB
}

type barRecord struct {
	TableKey   string  `db:"table_key"`
	Date       string  `db:"date"`
	Open       int64   `db:"open"`
	High       int64   `db:"high"`
	Low        int64   `db:"low"`
	Close      int64   `db:"close"`
	Diff       int64   `db:"diff"`
	Volume     int64   `db:"volume"`
	EMA12      float64 `db:"ema12"`
	EMA26      float64 `db:"ema26"`
	MACDLine   float64 `db:"macd_line"`
	SignalLine float64 `db:"signal_line"`
	MACDHist   float64 `db:"macd_hist"`
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("%w: create db dir: %v", ErrPersistence, err)
		}
	}
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %v", ErrPersistence, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: set WAL mode: %v", ErrPersistence, err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS price_tables (
		table_key   TEXT    NOT NULL,
		date        TEXT    NOT NULL,
		open        INTEGER NOT NULL,
		high        INTEGER NOT NULL,
		low         INTEGER NOT NULL,
		close       INTEGER NOT NULL,
		diff        INTEGER NOT NULL,
		volume      INTEGER NOT NULL,
		ema12       REAL,
		ema26       REAL,
		macd_line   REAL,
		signal_line REAL,
		macd_hist   REAL,
		PRIMARY KEY (table_key, date)
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrate: %v", ErrPersistence, err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context, key string) ([]model.IndicatorRow, error) {
	var recs []barRecord
	err := s.db.SelectContext(ctx, &recs,
		`SELECT * FROM price_tables WHERE table_key = ? ORDER BY date`, key)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %v", ErrPersistence, key, err)
	}
	if len(recs) == 0 {
		return nil, nil
	}
	rows := make([]model.IndicatorRow, 0, len(recs))
	for _, r := range recs {
		d, err := time.Parse(dateLayout, r.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: load %s: bad date %q", ErrPersistence, key, r.Date)
		}
		rows = append(rows, model.IndicatorRow{
			Bar: model.Bar{
				Date: d, Open: r.Open, High: r.High, Low: r.Low,
				Close: r.Close, Diff: r.Diff, Volume: r.Volume,
			},
			Indicators: model.Indicators{
				EMA12: r.EMA12, EMA26: r.EMA26, MACDLine: r.MACDLine,
				SignalLine: r.SignalLine, MACDHist: r.MACDHist,
			},
		})
	}
	return rows, nil
}

func (s *SQLiteStore) Save(ctx context.Context, key string, rows []model.IndicatorRow) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin %s: %v", ErrPersistence, key, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM price_tables WHERE table_key = ?`, key); err != nil {
		return fmt.Errorf("%w: clear %s: %v", ErrPersistence, key, err)
	}
	const insert = `INSERT INTO price_tables
		(table_key, date, open, high, low, close, diff, volume,
		 ema12, ema26, macd_line, signal_line, macd_hist)
		VALUES (:table_key, :date, :open, :high, :low, :close, :diff, :volume,
		 :ema12, :ema26, :macd_line, :signal_line, :macd_hist)`
	for _, r := range rows {
		rec := barRecord{
			TableKey: key, Date: r.Date.Format(dateLayout),
			Open: r.Open, High: r.High, Low: r.Low, Close: r.Close,
			Diff: r.Diff, Volume: r.Volume,
			EMA12: r.EMA12, EMA26: r.EMA26, MACDLine: r.MACDLine,
			SignalLine: r.SignalLine, MACDHist: r.MACDHist,
		}
		if _, err := tx.NamedExecContext(ctx, insert, rec); err != nil {
			return fmt.Errorf("%w: insert %s: %v", ErrPersistence, key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit %s: %v", ErrPersistence, key, err)
	}
	return nil
}
