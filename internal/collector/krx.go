package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"MarketPulse/internal/cache"
	"MarketPulse/internal/metrics"
)

// ErrUnknownSymbol is returned when a name is not listed by the exchange.
var ErrUnknownSymbol = errors.New("unknown symbol")

var codePattern = regexp.MustCompile(`^\d{6}$`)

// krxListing is one KRX listing request (stocks or ETFs).
type krxListing struct {
	name string
	form url.Values
}

var krxListings = []krxListing{
	{"stock", url.Values{
		"bld":         {"dbms/MDC/STAT/standard/MDCSTAT01901"},
		"mktId":       {"ALL"},
		"share":       {"1"},
		"csvxls_isNo": {"false"},
	}},
	{"etf", url.Values{
		"bld":         {"dbms/MDC/STAT/standard/MDCSTAT04301"},
		"mktId":       {"ETF"},
		"share":       {"1"},
		"csvxls_isNo": {"false"},
	}},
}

// KRXDirectory resolves names through the KRX data portal listing of stocks
// and ETFs. The name table is fetched at most once per calendar day and kept
// in memory and, when set, in Cache.
type KRXDirectory struct {
	BaseURL string
	Client  *http.Client
	Cache   cache.Cache
	Metrics *metrics.Metrics
	Now     func() time.Time

	mu       sync.Mutex
	loadedOn string
	codes    map[string]string
}

// NewKRXDirectory creates a directory with optional proxy support.
func NewKRXDirectory(baseURL, proxyURL string, c cache.Cache) *KRXDirectory {
	return &KRXDirectory{
		BaseURL: baseURL,
		Client:  newHTTPClient(proxyURL),
		Cache:   c,
		Now:     time.Now,
	}
}

// Lookup returns the code for name. A 6-digit name is taken as a code.
func (d *KRXDirectory) Lookup(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if codePattern.MatchString(name) {
		return name, nil
	}
	codes, err := d.table(ctx)
	if err != nil {
		return "", err
	}
	code, ok := codes[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownSymbol, name)
	}
	return code, nil
}

func (d *KRXDirectory) table(ctx context.Context) (map[string]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	today := d.now().Format("20060102")
	if d.codes != nil && d.loadedOn == today {
		return d.codes, nil
	}

	key := "krx_codes_" + today
	if d.Cache != nil {
		if data, err := d.Cache.Get(ctx, key); err == nil {
			var codes map[string]string
			if err := json.Unmarshal(data, &codes); err == nil && len(codes) > 0 {
				log.Debug().Int("symbols", len(codes)).Msg("using cached krx listing")
				d.codes, d.loadedOn = codes, today
				return codes, nil
			}
		}
	}

	codes := make(map[string]string)
	var errs []error
	for _, l := range krxListings {
		n, err := d.fetchListing(ctx, l, codes)
		d.Metrics.ObserveFetch("krx", err)
		if err != nil {
			log.Warn().Err(err).Str("listing", l.name).Msg("krx listing failed")
			errs = append(errs, err)
			continue
		}
		log.Info().Str("listing", l.name).Int("symbols", n).Msg("krx listing loaded")
	}
	if len(codes) == 0 {
		return nil, &FetchError{Source: "krx", Key: "listing", Err: errors.Join(errs...)}
	}

	if d.Cache != nil {
		if data, err := json.Marshal(codes); err == nil {
			if err := d.Cache.Set(ctx, key, data, 24*time.Hour); err != nil {
				log.Warn().Err(err).Msg("krx listing cache write failed")
			}
		}
	}
	d.codes, d.loadedOn = codes, today
	return codes, nil
}

func (d *KRXDirectory) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

type krxResponse struct {
	OutBlock1 []struct {
		Code string `json:"ISU_SRT_CD"`
		Name string `json:"ISU_ABBRV"`
	} `json:"OutBlock_1"`
}

// fetchListing adds name→code pairs to codes. Earlier listings win on
// duplicate names.
func (d *KRXDirectory) fetchListing(ctx context.Context, l krxListing, codes map[string]string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.BaseURL, strings.NewReader(l.form.Encode()))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", "http://data.krx.co.kr/contents/MDC/MDI/mdiLoader")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := d.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}

	var out krxResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode listing: %w", err)
	}
	if out.OutBlock1 == nil {
		return 0, fmt.Errorf("response has no OutBlock_1")
	}
	for _, row := range out.OutBlock1 {
		name := strings.TrimSpace(row.Name)
		code := strings.TrimSpace(row.Code)
		if name == "" || code == "" {
			continue
		}
		if len(code) < 6 {
			code = strings.Repeat("0", 6-len(code)) + code
		}
		if _, dup := codes[name]; !dup {
			codes[name] = code
		}
	}
	return len(out.OutBlock1), nil
}
