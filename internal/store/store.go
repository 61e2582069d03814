// Package store persists daily and weekly indicator tables.
package store

import (
	"context"
	"errors"

	"MarketPulse/internal/model"
)

// ErrPersistence marks a failed read or write of a stored table.
var ErrPersistence = errors.New("persistence failure")

// TableStore loads and saves whole indicator tables by key
// (see model.TableKey). Save replaces the table wholesale. Load of an
// unknown key returns no rows and no error.
type TableStore interface {
	Load(ctx context.Context, key string) ([]model.IndicatorRow, error)
	Save(ctx context.Context, key string, rows []model.IndicatorRow) error
}

// Columns is the persisted column order.
var Columns = []string{
	"date", "open", "high", "low", "close", "diff", "volume",
	"ema12", "ema26", "macd_line", "signal_line", "macd_hist",
}

const dateLayout = "2006-01-02"
