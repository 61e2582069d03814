package collector

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"MarketPulse/internal/cache"
	"MarketPulse/internal/metrics"
	"MarketPulse/internal/model"
)

// AptTradeFetcher pages through the MOLIT apartment trade API on data.go.kr.
// Complete result sets are cached by request parameters, excluding the
// service key.
type AptTradeFetcher struct {
	BaseURL     string
	APIKey      string
	RowsPerPage int
	Delay       time.Duration
	CacheTTL    time.Duration
	Client      *http.Client
	Cache       cache.Cache
	Metrics     *metrics.Metrics
}

// NewAptTradeFetcher creates a fetcher with optional proxy support.
func NewAptTradeFetcher(baseURL, apiKey, proxyURL string, c cache.Cache) *AptTradeFetcher {
	return &AptTradeFetcher{
		BaseURL:     baseURL,
		APIKey:      apiKey,
		RowsPerPage: 1000,
		Delay:       500 * time.Millisecond,
		CacheTTL:    24 * time.Hour,
		Client:      newHTTPClient(proxyURL),
		Cache:       c,
	}
}

type aptResponse struct {
	Header struct {
		ResultCode string `xml:"resultCode"`
		ResultMsg  string `xml:"resultMsg"`
	} `xml:"header"`
	Body struct {
		Items struct {
			Item []struct {
				Fields []struct {
					XMLName xml.Name
					Value   string `xml:",chardata"`
				} `xml:",any"`
			} `xml:"item"`
		} `xml:"items"`
		TotalCount int `xml:"totalCount"`
	} `xml:"body"`
}

// APIError is a non-success result code reported by the API.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %s: %s", e.Code, e.Message)
}

// FetchTradeItems returns every trade item for the region and month.
func (f *AptTradeFetcher) FetchTradeItems(ctx context.Context, regionCode, yearMonth string) ([]model.RawRecord, error) {
	params := map[string]string{
		"serviceKey": f.APIKey,
		"LAWD_CD":    regionCode,
		"DEAL_YMD":   yearMonth,
		"numOfRows":  strconv.Itoa(f.rowsPerPage()),
	}
	key := cache.Key("apt_trade", params, "serviceKey")

	if f.Cache != nil {
		data, err := f.Cache.Get(ctx, key)
		switch {
		case err == nil:
			var items []model.RawRecord
			if err := json.Unmarshal(data, &items); err == nil {
				log.Debug().Str("region", regionCode).Str("year_month", yearMonth).Msg("using cached trade items")
				return items, nil
			}
		case !errors.Is(err, cache.ErrMiss):
			log.Warn().Err(err).Msg("trade cache read failed")
		}
	}

	var all []model.RawRecord
	total := -1
	for page := 1; ; page++ {
		items, count, err := f.fetchPage(ctx, params, page)
		f.Metrics.ObserveFetch("molit", err)
		if err != nil {
			return nil, &FetchError{Source: "molit", Key: regionCode + "/" + yearMonth, Err: err}
		}
		if total < 0 {
			total = count
		}
		if len(items) == 0 {
			break
		}
		all = append(all, items...)
		if len(all) >= total {
			break
		}
		if err := sleep(ctx, f.Delay); err != nil {
			return nil, err
		}
	}
	log.Debug().Str("region", regionCode).Str("year_month", yearMonth).Int("items", len(all)).Int("total", total).Msg("trade items fetched")

	if f.Cache != nil && len(all) > 0 {
		if data, err := json.Marshal(all); err == nil {
			if err := f.Cache.Set(ctx, key, data, f.CacheTTL); err != nil {
				log.Warn().Err(err).Msg("trade cache write failed")
			}
		}
	}
	return all, nil
}

func (f *AptTradeFetcher) rowsPerPage() int {
	if f.RowsPerPage <= 0 {
		return 1000
	}
	return f.RowsPerPage
}

func (f *AptTradeFetcher) fetchPage(ctx context.Context, params map[string]string, page int) ([]model.RawRecord, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL, nil)
	if err != nil {
		return nil, 0, err
	}
	q := req.URL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	q.Set("pageNo", strconv.Itoa(page))
	req.URL.RawQuery = q.Encode()

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, 0, fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}

	var out aptResponse
	if err := xml.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, 0, fmt.Errorf("decode xml: %w", err)
	}
	if code := strings.TrimSpace(out.Header.ResultCode); code != "000" {
		return nil, 0, &APIError{Code: code, Message: strings.TrimSpace(out.Header.ResultMsg)}
	}

	items := make([]model.RawRecord, 0, len(out.Body.Items.Item))
	for _, it := range out.Body.Items.Item {
		rec := make(model.RawRecord, len(it.Fields))
		for _, fl := range it.Fields {
			rec[fl.XMLName.Local] = strings.TrimSpace(fl.Value)
		}
		items = append(items, rec)
	}
	return items, out.Body.TotalCount, nil
}
