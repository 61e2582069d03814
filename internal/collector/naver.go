package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	"MarketPulse/internal/metrics"
	"MarketPulse/internal/model"
)

// NaverFetcher scrapes the daily price table of Naver Finance. Pages are
// EUC-KR encoded HTML, newest rows first, ten rows per page.
type NaverFetcher struct {
	BaseURL string
	Client  *http.Client
	Delay   time.Duration
	Metrics *metrics.Metrics
}

// NewNaverFetcher creates a fetcher with optional proxy support.
func NewNaverFetcher(baseURL, proxyURL string, delay time.Duration) *NaverFetcher {
	return &NaverFetcher{
		BaseURL: baseURL,
		Client:  newHTTPClient(proxyURL),
		Delay:   delay,
	}
}

// naverPage is one parsed sise_day page.
type naverPage struct {
	rows     []model.RawRecord
	lastPage int
}

// FetchDailyPages reads pages 1..min(maxPages, last page).
func (f *NaverFetcher) FetchDailyPages(ctx context.Context, code string, maxPages int) ([]model.RawRecord, error) {
	first, err := f.fetchPage(ctx, code, 1)
	if err != nil {
		return nil, err
	}
	pages := min(first.lastPage, maxPages)
	log.Debug().Str("code", code).Int("pages", pages).Int("last_page", first.lastPage).Msg("fetching daily pages")

	records := first.rows
	for page := 2; page <= pages; page++ {
		if err := sleep(ctx, f.Delay); err != nil {
			return nil, err
		}
		p, err := f.fetchPage(ctx, code, page)
		if err != nil {
			return nil, err
		}
		records = append(records, p.rows...)
	}
	return records, nil
}

func (f *NaverFetcher) fetchPage(ctx context.Context, code string, page int) (*naverPage, error) {
	p, err := f.doFetchPage(ctx, code, page)
	f.Metrics.ObserveFetch("naver", err)
	if err != nil {
		return nil, &FetchError{Source: "naver", Key: fmt.Sprintf("%s page %d", code, page), Err: err}
	}
	return p, nil
}

func (f *NaverFetcher) doFetchPage(ctx context.Context, code string, page int) (*naverPage, error) {
	q := url.Values{}
	q.Set("code", code)
	q.Set("page", strconv.Itoa(page))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}

	doc, err := html.Parse(transform.NewReader(resp.Body, korean.EUCKR.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return parseNaverPage(doc)
}

func parseNaverPage(doc *html.Node) (*naverPage, error) {
	table := findPriceTable(doc)
	if table == nil {
		return nil, fmt.Errorf("price table not found")
	}

	var headers []string
	var rows []model.RawRecord
	for _, tr := range findAll(table, func(n *html.Node) bool { return n.DataAtom == atom.Tr }) {
		ths := children(tr, atom.Th)
		if len(ths) > 0 && headers == nil {
			for _, th := range ths {
				headers = append(headers, textContent(th))
			}
			continue
		}
		tds := children(tr, atom.Td)
		if headers == nil || len(tds) != len(headers) {
			continue
		}
		rec := make(model.RawRecord, len(headers))
		blank := true
		for i, td := range tds {
			v := textContent(td)
			if v != "" {
				blank = false
			}
			rec[headers[i]] = v
		}
		if !blank {
			rows = append(rows, rec)
		}
	}

	return &naverPage{rows: rows, lastPage: lastPage(doc)}, nil
}

// findPriceTable returns the first table whose header row contains 날짜.
func findPriceTable(doc *html.Node) *html.Node {
	for _, t := range findAll(doc, func(n *html.Node) bool { return n.DataAtom == atom.Table }) {
		for _, th := range findAll(t, func(n *html.Node) bool { return n.DataAtom == atom.Th }) {
			if textContent(th) == "날짜" {
				return t
			}
		}
	}
	return nil
}

// lastPage reads the page number from the td.pgRR link. Without it the
// listing fits on one page.
func lastPage(doc *html.Node) int {
	cells := findAll(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Td && hasClass(n, "pgRR")
	})
	if len(cells) == 0 {
		return 1
	}
	for _, a := range findAll(cells[0], func(n *html.Node) bool { return n.DataAtom == atom.A }) {
		href := attr(a, "href")
		i := strings.LastIndex(href, "=")
		if i < 0 {
			continue
		}
		if n, err := strconv.Atoi(href[i+1:]); err == nil && n > 0 {
			return n
		}
	}
	return 1
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func children(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			out = append(out, c)
		}
	}
	return out
}

// textContent joins the text of n, including image alt text, which Naver
// uses for the rise/fall marker on older layouts.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && n.DataAtom == atom.Img:
			b.WriteString(attr(n, "alt"))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
