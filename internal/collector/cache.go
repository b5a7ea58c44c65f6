package collector

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ChartDataset/internal/model"
)

const cacheDateLayout = "2006-01-02"

var cacheHeader = []string{"Date", "Open", "High", "Low", "Close", "Adj Close", "Volume"}

// Cache stores one date-indexed CSV file per symbol.
type Cache struct {
	Dir string
}

// NewCache returns a cache rooted at dir.
func NewCache(dir string) *Cache { return &Cache{Dir: dir} }

// Path returns the cache file path for symbol.
func (c *Cache) Path(symbol string) string {
	return filepath.Join(c.Dir, symbol+".csv")
}

// Exists reports whether a cache file is present for symbol.
func (c *Cache) Exists(symbol string) bool {
	_, err := os.Stat(c.Path(symbol))
	return err == nil
}

// Read parses the cached series for symbol.
func (c *Cache) Read(symbol string) ([]model.OHLCV, error) {
	f, err := os.Open(c.Path(symbol))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// Write persists bars for symbol. The file appears under its final name only
// once fully written.
func (c *Cache) Write(symbol string, bars []model.OHLCV) error {
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	path := c.Path(symbol)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, bars); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// WriteCSV writes bars with the Date,Open,High,Low,Close,Adj Close,Volume header.
func WriteCSV(w io.Writer, bars []model.OHLCV) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(cacheHeader); err != nil {
		return err
	}
	for _, b := range bars {
		if err := writer.Write([]string{
			b.Time.Format(cacheDateLayout),
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatFloat(b.AdjClose, 'f', -1, 64),
			strconv.FormatFloat(b.Volume, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadCSV parses a cache file. Columns are located by header name; rows with
// an empty price field are skipped.
func ReadCSV(r io.Reader) ([]model.OHLCV, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty cache file")
	}

	cols := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		cols[strings.TrimSpace(h)] = i
	}
	for _, name := range cacheHeader {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("cache file missing column %q", name)
		}
	}

	bars := make([]model.OHLCV, 0, len(records)-1)
	for line, rec := range records[1:] {
		get := func(name string) string { return strings.TrimSpace(rec[cols[name]]) }

		t, err := time.Parse(cacheDateLayout, get("Date"))
		if err != nil {
			return nil, fmt.Errorf("line %d: parse date: %w", line+2, err)
		}
		var vals [6]float64
		empty := false
		for i, name := range cacheHeader[1:] {
			s := get(name)
			if s == "" {
				empty = true
				break
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: parse %s: %w", line+2, name, err)
			}
			vals[i] = v
		}
		if empty {
			continue
		}
		bars = append(bars, model.OHLCV{
			Time:     t,
			Open:     vals[0],
			High:     vals[1],
			Low:      vals[2],
			Close:    vals[3],
			AdjClose: vals[4],
			Volume:   vals[5],
		})
	}
	return bars, nil
}
