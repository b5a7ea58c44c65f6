// Package directory downloads and filters the exchange symbol listing.
package directory

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpproxy"

	"ChartDataset/internal/model"
)

// DefaultURL is the HTTPS mirror of ftp://ftp.nasdaqtrader.com/symboldirectory/nasdaqlisted.txt.
const DefaultURL = "https://www.nasdaqtrader.com/dynamic/SymDir/nasdaqlisted.txt"

// ErrFetch is returned when the listing could not be downloaded.
var ErrFetch = errors.New("symbol directory fetch failed")

// Loader fetches the pipe-delimited listing, keeps a verbatim local copy and
// returns the eligible symbols.
type Loader struct {
	URL       string
	LocalPath string
	Timeout   time.Duration
	Client    *fasthttp.Client
	Logger    log.Logger
}

// NewLoader creates a Loader with optional proxy support.
func NewLoader(rawURL, localPath, proxyURL string, timeout time.Duration, logger log.Logger) *Loader {
	client := &fasthttp.Client{
		Name: "ChartDataset",
	}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil && u.Host != "" {
			addr := u.Host
			if u.User != nil {
				addr = u.User.String() + "@" + u.Host
			}
			client.Dial = fasthttpproxy.FasthttpHTTPDialer(addr)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Loader{
		URL:       rawURL,
		LocalPath: localPath,
		Timeout:   timeout,
		Client:    client,
		Logger:    logger,
	}
}

// Load downloads the listing, overwrites the local copy and returns the
// symbols of eligible records in listing order.
func (l *Loader) Load(ctx context.Context) ([]string, error) {
	body, err := l.download(ctx)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(l.LocalPath), 0755); err != nil {
		return nil, fmt.Errorf("create listing dir: %w", err)
	}
	if err := os.WriteFile(l.LocalPath, body, 0644); err != nil {
		return nil, fmt.Errorf("write listing: %w", err)
	}

	records, err := Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}
	symbols := EligibleSymbols(records)
	_ = level.Info(l.Logger).Log("msg", "symbol directory loaded", "records", len(records), "eligible", len(symbols))
	return symbols, nil
}

func (l *Loader) download(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req, resp := fasthttp.AcquireRequest(), fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.SetRequestURI(l.URL)
	req.Header.SetMethod(fasthttp.MethodGet)

	if err := l.Client.DoTimeout(req, resp, l.Timeout); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, l.URL, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("%w: %s: status %d", ErrFetch, l.URL, resp.StatusCode())
	}
	// resp.Body is only valid until the response is released.
	return append([]byte(nil), resp.Body()...), nil
}

// Parse reads a pipe-delimited listing with a header row. Rows shorter than
// the header (such as the trailing "File Creation Time" line) are dropped.
func Parse(r io.Reader) ([]model.SymbolRecord, error) {
	cr := csv.NewReader(r)
	cr.Comma = '|'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	required := []string{"Symbol", "Market Category", "Test Issue", "Financial Status", "ETF"}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []model.SymbolRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) < len(header) {
			continue
		}
		records = append(records, model.SymbolRecord{
			Symbol:          field(row, "Symbol"),
			SecurityName:    field(row, "Security Name"),
			MarketCategory:  field(row, "Market Category"),
			TestIssue:       field(row, "Test Issue"),
			FinancialStatus: field(row, "Financial Status"),
			ETF:             field(row, "ETF"),
		})
	}
	return records, nil
}

// EligibleSymbols returns the symbols of the eligible records, in order.
func EligibleSymbols(records []model.SymbolRecord) []string {
	var symbols []string
	for _, r := range records {
		if r.Symbol != "" && r.Eligible() {
			symbols = append(symbols, r.Symbol)
		}
	}
	return symbols
}
