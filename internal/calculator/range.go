package calculator

import (
	"errors"
	"math"

	"ChartDataset/internal/model"
)

// PriceRange returns the lowest low and highest high across bars.
func PriceRange(bars []model.OHLCV) (low, high float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return low, high, nil
}

// VolumeRange returns the smallest and largest volume across bars.
func VolumeRange(bars []model.OHLCV) (min, max float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	min = math.Inf(1)
	max = math.Inf(-1)
	for _, b := range bars {
		if b.Volume > max {
			max = b.Volume
		}
		if b.Volume < min {
			min = b.Volume
		}
	}
	return min, max, nil
}

// Scale maps v from [lo, hi] onto [0, 1]. A degenerate range maps to 0.5.
func Scale(v, lo, hi float64) float64 {
	if hi == lo {
		return 0.5
	}
	pos := (v - lo) / (hi - lo)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos
}
