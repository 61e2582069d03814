package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"MarketPulse/internal/model"
)

// PriceFetcher returns daily price rows in source vocabulary.
type PriceFetcher interface {
	FetchDailyPages(ctx context.Context, code string, maxPages int) ([]model.RawRecord, error)
}

// Directory resolves a display name to a 6-digit stock code.
type Directory interface {
	Lookup(ctx context.Context, name string) (string, error)
}

// TradeFetcher returns apartment trade rows for a region and contract month.
type TradeFetcher interface {
	FetchTradeItems(ctx context.Context, regionCode, yearMonth string) ([]model.RawRecord, error)
}

// FetchError wraps a failed upstream request.
type FetchError struct {
	Source string
	Key    string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s %s: %v", e.Source, e.Key, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

const userAgent = "Mozilla/5.0"

// newHTTPClient builds a client with optional proxy support.
func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
