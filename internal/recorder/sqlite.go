package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"MarketPulse/internal/model"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analysis_runs (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id       TEXT    NOT NULL,
			timestamp    INTEGER NOT NULL,
			symbol       TEXT    NOT NULL,
			code         TEXT    NOT NULL,
			week_date    TEXT,
			weekly_close INTEGER,
			weekly_diff  INTEGER,
			macd_hist    REAL,
			signal       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_code_ts ON analysis_runs(code, timestamp)`,

		`CREATE TABLE IF NOT EXISTS signals (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT    NOT NULL,
			timestamp   INTEGER NOT NULL,
			symbol      TEXT    NOT NULL,
			code        TEXT    NOT NULL,
			kind        TEXT    NOT NULL,
			signal_date TEXT    NOT NULL,
			price       INTEGER,
			prev_hist   REAL,
			curr_hist   REAL,
			reason      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_code_date ON signals(code, signal_date)`,

		`CREATE TABLE IF NOT EXISTS volume_summaries (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id     TEXT    NOT NULL,
			timestamp  INTEGER NOT NULL,
			year_month TEXT    NOT NULL,
			city       TEXT    NOT NULL,
			district   TEXT,
			code       TEXT,
			count      INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_volume_ym ON volume_summaries(year_month)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordAnalysis stores the latest weekly row and every signal of a run.
func (r *SQLiteRecorder) RecordAnalysis(ctx context.Context, runID string, a *model.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := r.now().Unix()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var weekDate sql.NullString
	var weekClose, diff sql.NullInt64
	var hist sql.NullFloat64
	if n := len(a.Weekly); n > 0 {
		last := a.Weekly[n-1]
		weekDate = sql.NullString{String: last.Date.Format("2006-01-02"), Valid: true}
		weekClose = sql.NullInt64{Int64: last.Close, Valid: true}
		diff = sql.NullInt64{Int64: last.Diff, Valid: true}
		hist = sql.NullFloat64{Float64: last.MACDHist, Valid: true}
	}
	var signal string
	if len(a.Signals) > 0 {
		signal = string(a.Signals[len(a.Signals)-1].Kind)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO analysis_runs
		(run_id, timestamp, symbol, code, week_date, weekly_close, weekly_diff, macd_hist, signal)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		runID, ts, a.Name, a.Code, weekDate, weekClose, diff, hist, signal,
	); err != nil {
		return err
	}

	for _, s := range a.Signals {
		if _, err := tx.ExecContext(ctx, `INSERT INTO signals
			(run_id, timestamp, symbol, code, kind, signal_date, price, prev_hist, curr_hist, reason)
			VALUES (?,?,?,?,?,?,?,?,?,?)`,
			runID, ts, a.Name, a.Code, string(s.Kind), s.Date.Format("2006-01-02"),
			s.Price, s.PrevHist, s.CurrHist, s.Reason,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// RecordVolume stores one row per district plus one city row with an empty
// district and one national row with city 전국.
func (r *SQLiteRecorder) RecordVolume(ctx context.Context, runID string, s *model.VolumeSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := r.now().Unix()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const insert = `INSERT INTO volume_summaries
		(run_id, timestamp, year_month, city, district, code, count)
		VALUES (?,?,?,?,?,?,?)`
	for _, c := range s.Cities {
		for _, d := range c.Districts {
			if _, err := tx.ExecContext(ctx, insert, runID, ts, s.YearMonth, c.City, d.District, d.Code, d.Count); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, insert, runID, ts, s.YearMonth, c.City, "", "", c.Count); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, insert, runID, ts, s.YearMonth, "전국", "", "", s.National); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
