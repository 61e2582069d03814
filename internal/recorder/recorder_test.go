package recorder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"MarketPulse/internal/model"
)

func openTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "data", "pulse.db"))
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRecorder_RecordAnalysis(t *testing.T) {
	r := openTestRecorder(t)
	ctx := context.Background()
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	a := &model.Analysis{
		Name: "삼성전자",
		Code: "005930",
		Weekly: []model.IndicatorRow{
			{Bar: model.Bar{Date: date, Close: 56000, Diff: 2000}, Indicators: model.Indicators{MACDHist: 0.5}},
		},
		Signals: []model.Signal{{Kind: model.SignalBuy, Date: date, Price: 56000, PrevHist: -1.2, CurrHist: 0.5, Reason: "flip"}},
	}
	runID := NewRunID()
	if err := r.RecordAnalysis(ctx, runID, a); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := r.RecordAnalysis(ctx, runID, &model.Analysis{Name: "카카오", Code: "035720"}); err != nil {
		t.Fatalf("record without rows: %v", err)
	}

	var runs int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM analysis_runs WHERE run_id = ?`, runID).Scan(&runs); err != nil {
		t.Fatal(err)
	}
	if runs != 2 {
		t.Errorf("expected 2 analysis rows, got %d", runs)
	}

	var kind, sigDate string
	var price int64
	if err := r.db.QueryRow(`SELECT kind, signal_date, price FROM signals WHERE code = '005930'`).Scan(&kind, &sigDate, &price); err != nil {
		t.Fatal(err)
	}
	if kind != "BUY" || sigDate != "2025-03-14" || price != 56000 {
		t.Errorf("unexpected signal row %s %s %d", kind, sigDate, price)
	}
}

func TestSQLiteRecorder_RecordVolume(t *testing.T) {
	r := openTestRecorder(t)
	s := &model.VolumeSummary{
		YearMonth: "202501",
		National:  5,
		Cities: []model.CityVolume{{
			City: "서울", Count: 5,
			Districts: []model.DistrictVolume{
				{City: "서울", District: "강남구", Code: "11680", Count: 3},
				{City: "서울", District: "서초구", Code: "11650", Count: 2},
			},
		}},
	}
	if err := r.RecordVolume(context.Background(), NewRunID(), s); err != nil {
		t.Fatalf("record: %v", err)
	}

	var rows, national int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM volume_summaries WHERE year_month = '202501'`).Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if rows != 4 {
		t.Errorf("expected 4 rows (2 districts, city, national), got %d", rows)
	}
	if err := r.db.QueryRow(`SELECT count FROM volume_summaries WHERE city = '전국'`).Scan(&national); err != nil {
		t.Fatal(err)
	}
	if national != 5 {
		t.Errorf("expected national 5, got %d", national)
	}
}

func TestNewRunID_Unique(t *testing.T) {
	if NewRunID() == NewRunID() {
		t.Error("expected distinct run ids")
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	if err := r.RecordAnalysis(context.Background(), "id", &model.Analysis{}); err != nil {
		t.Error(err)
	}
	if err := r.Close(); err != nil {
		t.Error(err)
	}
}
