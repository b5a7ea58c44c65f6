// Package pipeline drives a dataset build: it walks the symbol directory chunk
// by chunk, turns each symbol's quarterly buckets into labelled chart samples
// and writes one artifact per chunk.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/schollz/progressbar/v3"

	"ChartDataset/internal/calculator"
	"ChartDataset/internal/dataset"
	"ChartDataset/internal/metrics"
	"ChartDataset/internal/model"
	"ChartDataset/internal/recorder"
	"ChartDataset/internal/sampler"
)

// Chunk states as recorded in the manifest and metrics.
const (
	ChunkWritten = "WRITTEN"
	ChunkSkipped = "SKIPPED"
)

// Run statuses.
const (
	StatusSuccess   = "SUCCESS"
	StatusFailed    = "FAILED"
	StatusCancelled = "CANCELLED"
)

// SymbolSource yields the ordered list of symbols to process.
type SymbolSource interface {
	Load(ctx context.Context) ([]string, error)
}

// SeriesSource yields the daily series of one symbol.
type SeriesSource interface {
	Load(ctx context.Context, symbol string) (*model.PriceSeries, error)
}

// ChartRenderer turns an accepted window into a cropped image.
type ChartRenderer interface {
	Render(w *sampler.Window) (model.ImageBuffer, error)
}

// ChunkStore persists chunk artifacts.
type ChunkStore interface {
	Path(index int) string
	Complete(index int) bool
	Write(index int, samples []model.Sample) error
}

// Builder wires the stages of a build together.
type Builder struct {
	Symbols  SymbolSource
	Series   SeriesSource
	Renderer ChartRenderer
	Store    ChunkStore
	Recorder recorder.Recorder
	Metrics  *metrics.Metrics
	Logger   log.Logger

	// Progress receives the per-chunk progress bar. Nil disables it.
	Progress io.Writer
	Now      func() time.Time
}

// NewBuilder returns a Builder with a no-op recorder, fresh metrics and the
// progress bar on stderr.
func NewBuilder(symbols SymbolSource, series SeriesSource, renderer ChartRenderer, store ChunkStore, logger log.Logger) *Builder {
	return &Builder{
		Symbols:  symbols,
		Series:   series,
		Renderer: renderer,
		Store:    store,
		Recorder: recorder.NewNoopRecorder(),
		Metrics:  metrics.New(),
		Logger:   logger,
		Progress: os.Stderr,
		Now:      time.Now,
	}
}

// RunSummary describes a finished (or aborted) run.
type RunSummary struct {
	RunID         string
	StartedAt     time.Time
	FinishedAt    time.Time
	Symbols       int
	Chunks        int
	WrittenChunks int
	SkippedChunks int
	Samples       int
	FailedSymbols []string
	Skips         map[sampler.SkipReason]int
	Status        string
	Err           error
}

// Run performs one full build. A directory failure aborts before any chunk
// is touched. Cancellation is honoured between symbols; the chunk in
// progress is then left unwritten.
func (b *Builder) Run(ctx context.Context) (*RunSummary, error) {
	start := b.Now()
	s := &RunSummary{
		RunID:     start.UTC().Format("20060102T150405.000000"),
		StartedAt: start,
		Skips:     make(map[sampler.SkipReason]int),
	}

	err := b.run(ctx, s)
	s.FinishedAt = b.Now()
	s.Err = err
	switch {
	case err == nil:
		s.Status = StatusSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.Status = StatusCancelled
	default:
		s.Status = StatusFailed
	}
	b.recordRun(s)
	return s, err
}

func (b *Builder) run(ctx context.Context, s *RunSummary) error {
	symbols, err := b.Symbols.Load(ctx)
	if err != nil {
		_ = level.Error(b.Logger).Log("msg", "load symbol directory", "err", err)
		return fmt.Errorf("load symbol directory: %w", err)
	}
	s.Symbols = len(symbols)
	_ = level.Info(b.Logger).Log("msg", "number of symbols total", "count", len(symbols))

	chunks := dataset.Partition(symbols, dataset.ChunkSize)
	s.Chunks = len(chunks)

	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if b.Store.Complete(c.Index) {
			s.SkippedChunks++
			b.Metrics.Chunks.With("state", "skipped").Add(1)
			_ = level.Debug(b.Logger).Log("msg", "chunk already built", "chunk", c.Index, "path", b.Store.Path(c.Index))
			b.recordChunk(s, c, 0, ChunkSkipped, 0)
			continue
		}

		began := time.Now()
		_ = level.Info(b.Logger).Log("msg", fmt.Sprintf("saving chunk %d of %d", c.Index, len(chunks)), "symbols", len(c.Symbols))

		samples, err := b.buildChunk(ctx, s, c)
		if err != nil {
			return err
		}
		if err := b.Store.Write(c.Index, samples); err != nil {
			return fmt.Errorf("write chunk %d: %w", c.Index, err)
		}

		s.WrittenChunks++
		s.Samples += len(samples)
		b.Metrics.Chunks.With("state", "written").Add(1)
		b.recordChunk(s, c, len(samples), ChunkWritten, time.Since(began))
		_ = level.Info(b.Logger).Log("msg", fmt.Sprintf("saved chunk %d of %d, length %d", c.Index, len(chunks), len(samples)))
	}

	_ = level.Info(b.Logger).Log("msg", "success", "chunks", s.Chunks, "skipped", s.SkippedChunks, "samples", s.Samples)
	return nil
}

func (b *Builder) buildChunk(ctx context.Context, s *RunSummary, c dataset.Chunk) ([]model.Sample, error) {
	bar := b.newBar(len(c.Symbols), c.Index)
	defer bar.Finish()

	var samples []model.Sample
	for _, sym := range c.Symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		series, err := b.Series.Load(ctx, sym)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			b.symbolFailed(s, c, sym, err)
			_ = bar.Add(1)
			continue
		}
		samples = append(samples, b.symbolSamples(s, series)...)
		_ = bar.Add(1)
	}
	return samples, nil
}

// symbolSamples builds the samples of every accepted bucket of one series.
func (b *Builder) symbolSamples(s *RunSummary, series *model.PriceSeries) []model.Sample {
	var out []model.Sample
	for _, bucket := range sampler.Buckets(series) {
		res := sampler.Evaluate(bucket)
		if !res.OK() {
			b.skip(s, bucket, res.Skip, nil)
			continue
		}
		smp, reason, err := b.sample(res.Window)
		if err != nil {
			b.skip(s, bucket, reason, err)
			continue
		}
		out = append(out, smp)
		b.Metrics.Samples.Add(1)
	}
	return out
}

func (b *Builder) sample(w *sampler.Window) (model.Sample, sampler.SkipReason, error) {
	img, err := b.Renderer.Render(w)
	if err != nil {
		return model.Sample{}, sampler.SkipRender, err
	}
	label, err := calculator.PercentChange(w.LabelStart.AdjClose, w.LabelEnd.AdjClose)
	if err != nil {
		return model.Sample{}, sampler.SkipLabel, err
	}
	return model.Sample{
		Symbol: w.Bucket.Symbol,
		Year:   w.Bucket.Year,
		Month:  w.Bucket.Month,
		Image:  img,
		Label:  label,
	}, sampler.SkipNone, nil
}

func (b *Builder) skip(s *RunSummary, bucket model.Bucket, reason sampler.SkipReason, err error) {
	s.Skips[reason]++
	b.Metrics.WindowSkips.With("reason", string(reason)).Add(1)
	if err != nil {
		_ = level.Debug(b.Logger).Log("msg", "window skipped", "symbol", bucket.Symbol,
			"year", bucket.Year, "month", bucket.Month, "reason", reason, "err", err)
	}
}

func (b *Builder) symbolFailed(s *RunSummary, c dataset.Chunk, sym string, err error) {
	s.FailedSymbols = append(s.FailedSymbols, sym)
	b.Metrics.SymbolFailures.Add(1)
	_ = level.Info(b.Logger).Log("msg", sym+" failed download", "err", err)
	if rerr := b.Recorder.RecordSymbolFailure(&recorder.SymbolFailure{
		RunID:      s.RunID,
		ChunkIndex: c.Index,
		Symbol:     sym,
		Reason:     err.Error(),
	}); rerr != nil {
		_ = level.Error(b.Logger).Log("msg", "record symbol failure", "err", rerr)
	}
}

func (b *Builder) recordChunk(s *RunSummary, c dataset.Chunk, samples int, state string, d time.Duration) {
	if err := b.Recorder.RecordChunk(&recorder.ChunkEvent{
		RunID:    s.RunID,
		Index:    c.Index,
		Symbols:  len(c.Symbols),
		Samples:  samples,
		State:    state,
		Path:     b.Store.Path(c.Index),
		Duration: d,
	}); err != nil {
		_ = level.Error(b.Logger).Log("msg", "record chunk", "err", err)
	}
}

func (b *Builder) recordRun(s *RunSummary) {
	evt := &recorder.RunEvent{
		RunID:         s.RunID,
		StartedAt:     s.StartedAt,
		FinishedAt:    s.FinishedAt,
		Symbols:       s.Symbols,
		Chunks:        s.Chunks,
		SkippedChunks: s.SkippedChunks,
		Samples:       s.Samples,
		FailedSymbols: len(s.FailedSymbols),
		Status:        s.Status,
	}
	if s.Err != nil {
		evt.Error = s.Err.Error()
	}
	if err := b.Recorder.RecordRun(evt); err != nil {
		_ = level.Error(b.Logger).Log("msg", "record run", "err", err)
	}
}

func (b *Builder) newBar(n, index int) *progressbar.ProgressBar {
	w := b.Progress
	if w == nil {
		w = io.Discard
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(fmt.Sprintf("chunk %d", index)),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
