package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveFetch("naver", nil)
	m.ObserveFetch("naver", nil)
	m.ObserveFetch("naver", errors.New("boom"))
	m.AddDropped("price", 3)
	m.ObserveRun("stocks", 2*time.Second, nil)
	m.ObserveWeekly("삼성전자", 71000, -0.37)
	m.IncSignal("삼성전자", "BUY")
	m.SetTradeVolume("서울", 4200)

	if got := testutil.ToFloat64(m.fetches.WithLabelValues("naver", "ok")); got != 2 {
		t.Errorf("expected 2 ok fetches, got %v", got)
	}
	if got := testutil.ToFloat64(m.fetches.WithLabelValues("naver", "error")); got != 1 {
		t.Errorf("expected 1 failed fetch, got %v", got)
	}
	if got := testutil.ToFloat64(m.droppedRows.WithLabelValues("price")); got != 3 {
		t.Errorf("expected 3 dropped rows, got %v", got)
	}
	if got := testutil.ToFloat64(m.lastHist.WithLabelValues("삼성전자")); got != -0.37 {
		t.Errorf("expected hist -0.37, got %v", got)
	}
	if got := testutil.ToFloat64(m.tradeVolume.WithLabelValues("서울")); got != 4200 {
		t.Errorf("expected volume 4200, got %v", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveFetch("naver", nil)
	m.AddDropped("price", 1)
	m.ObserveRun("stocks", time.Second, nil)
	m.ObserveWeekly("x", 1, 1)
	m.IncSignal("x", "BUY")
	m.SetTradeVolume("x", 1)
}
