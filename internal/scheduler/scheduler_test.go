package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"MarketPulse/internal/model"
)

type fakeStocks struct {
	fail    map[string]bool
	signals map[string]bool
}

func (f *fakeStocks) Collect(_ context.Context, name string) (*model.Analysis, error) {
	if f.fail[name] {
		return nil, errors.New("unknown symbol")
	}
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	a := &model.Analysis{
		Name: name,
		Code: "005930",
		Weekly: []model.IndicatorRow{
			{Bar: model.Bar{Date: date.AddDate(0, 0, -7), Close: 54000}, Indicators: model.Indicators{MACDHist: -1.2}},
			{Bar: model.Bar{Date: date, Close: 56000, Diff: 2000}, Indicators: model.Indicators{MACDHist: 0.5}},
		},
	}
	if f.signals[name] {
		a.Signals = []model.Signal{{Kind: model.SignalBuy, Date: date, Price: 56000, Reason: "flip"}}
	}
	return a, nil
}

type fakeVolume struct {
	months []string
}

func (f *fakeVolume) Collect(_ context.Context, ym string) (*model.VolumeSummary, error) {
	f.months = append(f.months, ym)
	if ym == "199901" {
		return nil, errors.New("no data")
	}
	return &model.VolumeSummary{
		YearMonth: ym,
		National:  3,
		Cities: []model.CityVolume{{
			City: "서울", Count: 3,
			Districts: []model.DistrictVolume{{City: "서울", District: "강남구", Code: "11680", Count: 3}},
		}},
	}, nil
}

type inbox struct {
	mu       sync.Mutex
	messages []string
}

func (i *inbox) Send(_ context.Context, text string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.messages = append(i.messages, text)
	return nil
}

func newTestScheduler(symbols ...string) (*Scheduler, *inbox, *fakeVolume) {
	box := &inbox{}
	vol := &fakeVolume{}
	stocks := &fakeStocks{
		fail:    map[string]bool{"없는종목": true},
		signals: map[string]bool{"카카오": true},
	}
	s := NewScheduler(context.Background(), stocks, vol, box, nil)
	s.Symbols = symbols
	s.Retries = 0
	return s, box, vol
}

func TestRunStocksNow(t *testing.T) {
	s, box, _ := newTestScheduler("삼성전자", "없는종목", "카카오")

	summary, err := s.RunStocksNow(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summary.Analyzed) != 2 || len(summary.Failed) != 1 || summary.Failed[0] != "없는종목" {
		t.Errorf("unexpected summary %+v", summary)
	}
	if len(summary.WithSignals) != 1 || summary.WithSignals[0] != "카카오" {
		t.Errorf("unexpected signal list %v", summary.WithSignals)
	}

	if len(box.messages) != 4 {
		t.Fatalf("expected 2 reports, 1 error and 1 summary, got %d messages", len(box.messages))
	}
	if !strings.Contains(box.messages[0], "삼성전자(005930)") {
		t.Errorf("expected first report, got %q", box.messages[0])
	}
	if !strings.HasPrefix(box.messages[1], "⚠️ **오류 발생**") {
		t.Errorf("expected error notification, got %q", box.messages[1])
	}
	if !strings.Contains(box.messages[3], "매매 시그널 발생 종목: 카카오") {
		t.Errorf("expected run summary, got %q", box.messages[3])
	}
}

func TestRunStocksNow_NoSummaryWhenAllFail(t *testing.T) {
	s, box, _ := newTestScheduler("없는종목")
	if _, err := s.RunStocksNow(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(box.messages) != 1 {
		t.Errorf("expected only the error notification, got %d messages", len(box.messages))
	}
}

func TestRunStocksNow_Overlap(t *testing.T) {
	s, _, _ := newTestScheduler("삼성전자")
	s.stockMu.Lock()
	defer s.stockMu.Unlock()
	if _, err := s.RunStocksNow(context.Background()); !errors.Is(err, ErrJobRunning) {
		t.Errorf("expected ErrJobRunning, got %v", err)
	}
}

func TestRunVolumeNow(t *testing.T) {
	s, box, vol := newTestScheduler()
	s.SummaryDir = t.TempDir()
	s.Now = func() time.Time { return time.Date(2025, 3, 31, 9, 0, 0, 0, time.UTC) }
	s.VolumeMonths = 2

	if err := s.RunVolumeNow(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vol.months) != 2 || vol.months[0] != "202502" || vol.months[1] != "202501" {
		t.Errorf("unexpected months %v", vol.months)
	}
	if _, err := os.Stat(filepath.Join(s.SummaryDir, "volume_summary_202502.csv")); err != nil {
		t.Errorf("expected summary file: %v", err)
	}
	if len(box.messages) != 2 || !strings.Contains(box.messages[0], "전국 합계: 3건") {
		t.Errorf("unexpected messages %v", box.messages)
	}

	if err := s.RunVolumeNow(context.Background(), "199901"); err == nil {
		t.Error("expected error for failed month")
	}
}

func TestRunVolumeNow_NotConfigured(t *testing.T) {
	s := NewScheduler(context.Background(), &fakeStocks{}, nil, nil, nil)
	if err := s.RunVolumeNow(context.Background()); err == nil {
		t.Error("expected error without a volume collector")
	}
	if err := s.RegisterAll("0 0 18 * * 1-5", "not a cron"); err != nil {
		t.Errorf("volume cron should be ignored when not configured: %v", err)
	}
}

func TestRegisterAll(t *testing.T) {
	s, _, _ := newTestScheduler()
	if err := s.RegisterAll("0 0 18 * * 1-5", "0 0 9 2 * *"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(s.Cron.Entries()); n != 2 {
		t.Errorf("expected 2 entries, got %d", n)
	}
	if err := s.RegisterAll("every day", "0 0 9 2 * *"); err == nil {
		t.Error("expected error for bad cron spec")
	}
}

func TestHandleCommand(t *testing.T) {
	s, box, vol := newTestScheduler("삼성전자")

	if got := s.HandleCommand(context.Background(), "hello"); got != helpText {
		t.Errorf("expected help text, got %q", got)
	}
	if got := s.HandleCommand(context.Background(), "/stock 카카오"); !strings.Contains(got, "🔵 **매수 시그널 발생!**") {
		t.Errorf("expected single-symbol report, got %q", got)
	}
	if got := s.HandleCommand(context.Background(), "/stock 없는종목"); !strings.Contains(got, "오류 발생") {
		t.Errorf("expected error reply, got %q", got)
	}
	if got := s.HandleCommand(context.Background(), "/stocks"); got != "" {
		t.Errorf("expected empty reply, got %q", got)
	}
	if len(box.messages) != 2 {
		t.Errorf("expected report and summary from /stocks, got %d messages", len(box.messages))
	}
	if got := s.HandleCommand(context.Background(), "/volume 2025-01"); !strings.HasPrefix(got, "사용법") {
		t.Errorf("expected usage for bad month, got %q", got)
	}
	if got := s.HandleCommand(context.Background(), "/volume 202501"); got != "" {
		t.Errorf("expected empty reply, got %q", got)
	}
	if len(vol.months) != 1 || vol.months[0] != "202501" {
		t.Errorf("unexpected months %v", vol.months)
	}
}
