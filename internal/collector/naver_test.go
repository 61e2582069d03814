package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"golang.org/x/text/encoding/korean"

	"MarketPulse/internal/normalize"
)

const naverPageTemplate = `<html><head><meta http-equiv="Content-Type" content="text/html; charset=euc-kr"></head><body>
<table cellspacing="0" class="type2">
<tr><th>날짜</th><th>종가</th><th>전일비</th><th>시가</th><th>고가</th><th>저가</th><th>거래량</th></tr>
<tr><td colspan="7" height="8"></td></tr>
<tr>
<td align="center"><span class="tah p10 gray03">2025.03.%02d</span></td>
<td class="num"><span class="tah p11">56,000</span></td>
<td class="num"><img src="https://ssl.pstatic.net/imgstock/images/images4/ico_down.gif" alt="하락"><span class="tah p11 nv01">
				1,200
				</span></td>
<td class="num"><span class="tah p11">57,000</span></td>
<td class="num"><span class="tah p11">57,500</span></td>
<td class="num"><span class="tah p11">55,800</span></td>
<td class="num"><span class="tah p11">12,345,678</span></td>
</tr>
<tr><td colspan="7" class="tc"></td></tr>
</table>
<table class="Nnavi"><tr>
<td class="on"><a href="/item/sise_day.naver?code=005930&amp;page=1">1</a></td>
<td class="pgRR"><a href="/item/sise_day.naver?code=005930&amp;page=3">맨뒤</a></td>
</tr></table>
</body></html>`

func naverServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.URL.Query().Get("code") != "005930" {
			http.Error(w, "bad code", http.StatusBadRequest)
			return
		}
		if r.Header.Get("User-Agent") == "" {
			http.Error(w, "no agent", http.StatusForbidden)
			return
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		body, err := korean.EUCKR.NewEncoder().String(fmt.Sprintf(naverPageTemplate, 20-page))
		if err != nil {
			t.Errorf("encode page: %v", err)
		}
		w.Header().Set("Content-Type", "text/html; charset=euc-kr")
		fmt.Fprint(w, body)
	}))
}

func TestNaverFetcher_FetchDailyPages(t *testing.T) {
	var hits int32
	srv := naverServer(t, &hits)
	defer srv.Close()

	f := NewNaverFetcher(srv.URL, "", 0)
	records, err := f.FetchDailyPages(context.Background(), "005930", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits != 2 {
		t.Errorf("expected 2 requests, got %d", hits)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 rows, got %d: %v", len(records), records)
	}
	if records[0]["날짜"] != "2025.03.19" || records[1]["날짜"] != "2025.03.18" {
		t.Errorf("unexpected dates %q, %q", records[0]["날짜"], records[1]["날짜"])
	}

	bars, dropped := normalize.PriceBars(records, normalize.NaverPriceColumns)
	if dropped != 0 || len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d (dropped %d)", len(bars), dropped)
	}
	if bars[0].Diff != -1200 || bars[0].Close != 56000 || bars[0].Volume != 12345678 {
		t.Errorf("unexpected bar %+v", bars[0])
	}
}

func TestNaverFetcher_BoundedByLastPage(t *testing.T) {
	var hits int32
	srv := naverServer(t, &hits)
	defer srv.Close()

	f := NewNaverFetcher(srv.URL, "", 0)
	records, err := f.FetchDailyPages(context.Background(), "005930", 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits != 3 || len(records) != 3 {
		t.Errorf("expected 3 pages and rows, got %d requests and %d rows", hits, len(records))
	}
}

func TestNaverFetcher_HTTPError(t *testing.T) {
	var hits int32
	srv := naverServer(t, &hits)
	defer srv.Close()

	f := NewNaverFetcher(srv.URL, "", 0)
	_, err := f.FetchDailyPages(context.Background(), "000000", 1)
	var fe *FetchError
	if !asFetchError(err, &fe) || fe.Source != "naver" {
		t.Fatalf("expected naver FetchError, got %v", err)
	}
}
