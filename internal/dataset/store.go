// Package dataset partitions symbols into chunks and persists each chunk's
// samples as one parquet artifact.
package dataset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/parquet-go/parquet-go"

	"ChartDataset/internal/model"
)

// Row is the on-disk layout of one sample.
type Row struct {
	Symbol   string  `parquet:"symbol"`
	Year     int32   `parquet:"year"`
	Month    int32   `parquet:"month"`
	Label    float64 `parquet:"label"`
	Height   int32   `parquet:"height"`
	Width    int32   `parquet:"width"`
	Channels int32   `parquet:"channels"`
	Pixels   []byte  `parquet:"pixels"`
}

// requiredColumns must be present for an artifact to count as well-formed.
var requiredColumns = []string{"symbol", "label", "height", "width", "channels", "pixels"}

// Store reads and writes chunk artifacts under Dir.
type Store struct {
	Dir    string
	Logger log.Logger
}

// NewStore returns a store rooted at dir.
func NewStore(dir string, logger log.Logger) *Store {
	return &Store{Dir: dir, Logger: logger}
}

// Path returns the artifact path for the chunk starting at index.
func (s *Store) Path(index int) string {
	return filepath.Join(s.Dir, strconv.Itoa(index)+".parquet")
}

// Complete reports whether the chunk at index is done: its artifact exists
// and is a parquet file with the sample schema whose every page reads back. A malformed
// artifact is removed so the chunk gets rebuilt.
func (s *Store) Complete(index int) bool {
	path := s.Path(index)
	if _, err := os.Stat(path); err != nil {
		return false
	}
	if err := validate(path); err != nil {
		_ = level.Warn(s.Logger).Log("msg", "removing malformed chunk artifact", "path", path, "err", err)
		if rmErr := os.Remove(path); rmErr != nil {
			_ = level.Error(s.Logger).Log("msg", "remove malformed artifact", "path", path, "err", rmErr)
		}
		return false
	}
	return true
}

func validate(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return err
	}
	for _, col := range requiredColumns {
		if _, ok := pf.Schema().Lookup(col); !ok {
			return fmt.Errorf("missing column %q", col)
		}
	}
	// OpenFile only reads the footer; page checksums and encodings are only
	// checked when the pages themselves are read.
	for i, rg := range pf.RowGroups() {
		for _, chunk := range rg.ColumnChunks() {
			if err := readPages(chunk.Pages()); err != nil {
				return fmt.Errorf("row group %d column %d: %w", i, chunk.Column(), err)
			}
		}
	}
	return nil
}

func readPages(pages parquet.Pages) error {
	defer pages.Close()
	for {
		page, err := pages.ReadPage()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		parquet.Release(page)
	}
}

// Write persists samples as the artifact of the chunk at index. The artifact
// only appears under its final name once completely written.
func (s *Store) Write(index int, samples []model.Sample) error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	rows := make([]Row, len(samples))
	for i, smp := range samples {
		rows[i] = Row{
			Symbol:   smp.Symbol,
			Year:     int32(smp.Year),
			Month:    int32(smp.Month),
			Label:    smp.Label,
			Height:   int32(smp.Image.Height),
			Width:    int32(smp.Image.Width),
			Channels: int32(smp.Image.Channels),
			Pixels:   smp.Image.Pix,
		}
	}

	path := s.Path(index)
	tmp := path + ".tmp"
	if err := parquet.WriteFile(tmp, rows); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write chunk %d: %w", index, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("publish chunk %d: %w", index, err)
	}
	return nil
}

// Read loads the samples of the chunk at index.
func (s *Store) Read(index int) ([]model.Sample, error) {
	rows, err := parquet.ReadFile[Row](s.Path(index))
	if err != nil {
		return nil, fmt.Errorf("read chunk %d: %w", index, err)
	}
	samples := make([]model.Sample, len(rows))
	for i, r := range rows {
		samples[i] = model.Sample{
			Symbol: r.Symbol,
			Year:   int(r.Year),
			Month:  int(r.Month),
			Label:  r.Label,
			Image: model.ImageBuffer{
				Width:    int(r.Width),
				Height:   int(r.Height),
				Channels: int(r.Channels),
				Pix:      r.Pixels,
			},
		}
	}
	return samples, nil
}
