package calculator

import (
	"math"

	"ChartDataset/internal/model"
)

// RollingSMA returns the simple moving average at every index. Entries before
// the first full period are NaN, so overlays start period-1 bars in.
func RollingSMA(prices []float64, period int) []float64 {
	out := make([]float64, len(prices))
	if period <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	sum := 0.0
	for i, p := range prices {
		sum += p
		if i >= period {
			sum -= prices[i-period]
		}
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(period)
	}
	return out
}

// ExtractCloses returns the close of every bar.
func ExtractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
