// Package sampler cuts a price series into quarterly buckets and decides
// which of them become training windows.
package sampler

import (
	"ChartDataset/internal/calculator"
	"ChartDataset/internal/model"
)

const (
	FirstYear = 2000
	LastYear  = 2020

	// MonthsPerBucket is the width of a bucket; buckets start at 1, 4, 7, 10.
	MonthsPerBucket = 3

	// MinBars is the fewest rows a bucket may have and still be used.
	MinBars = 59

	// LabelBars is the number of trailing rows held out of the chart.
	LabelBars = 6
)

// BucketStartMonths lists the first month of every bucket in a year.
var BucketStartMonths = []int{1, 4, 7, 10}

// SkipReason says why a bucket did not become a window.
type SkipReason string

const (
	SkipNone       SkipReason = ""
	SkipTooShort   SkipReason = "too_short"
	SkipFlatVolume SkipReason = "flat_volume"
	SkipRender     SkipReason = "render_failed"
	SkipLabel      SkipReason = "label_failed"
)

// Window is a bucket accepted for rendering: History is drawn, the label is
// the move from LabelStart to LabelEnd.
type Window struct {
	Bucket     model.Bucket
	History    []model.OHLCV
	LabelStart model.OHLCV
	LabelEnd   model.OHLCV
}

// Result is the outcome of evaluating one bucket: either a Window or a Skip
// reason, never both.
type Result struct {
	Window *Window
	Skip   SkipReason
}

// OK reports whether the bucket produced a window.
func (r Result) OK() bool { return r.Window != nil }

// Buckets enumerates every (year, start month) bucket of the fixed year range
// in chronological order, including empty ones.
func Buckets(series *model.PriceSeries) []model.Bucket {
	buckets := make([]model.Bucket, 0, (LastYear-FirstYear+1)*len(BucketStartMonths))
	for year := FirstYear; year <= LastYear; year++ {
		for _, month := range BucketStartMonths {
			buckets = append(buckets, model.Bucket{
				Symbol: series.Symbol,
				Year:   year,
				Month:  month,
				Bars:   selectBars(series.Bars, year, month),
			})
		}
	}
	return buckets
}

func selectBars(bars []model.OHLCV, year, month int) []model.OHLCV {
	var out []model.OHLCV
	for _, b := range bars {
		m := int(b.Time.Month())
		if b.Time.Year() == year && m >= month && m <= month+MonthsPerBucket-1 {
			out = append(out, b)
		}
	}
	return out
}

// Evaluate applies the length and volume checks to a bucket.
func Evaluate(b model.Bucket) Result {
	n := len(b.Bars)
	if n < MinBars {
		return Result{Skip: SkipTooShort}
	}
	vmin, vmax, err := calculator.VolumeRange(b.Bars)
	if err != nil || vmin == vmax {
		return Result{Skip: SkipFlatVolume}
	}
	return Result{Window: &Window{
		Bucket:     b,
		History:    b.Bars[:n-LabelBars],
		LabelStart: b.Bars[n-LabelBars],
		LabelEnd:   b.Bars[n-1],
	}}
}
