package model

import (
	"sort"
	"time"
)

// OHLCV represents a single daily candlestick bar.
type OHLCV struct {
	Time     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   float64
}

// PriceSeries holds the full daily history of one symbol.
// Bars are strictly increasing by date.
type PriceSeries struct {
	Symbol string
	Bars   []OHLCV
}

// Normalize sorts bars by date and drops duplicate dates, keeping the last
// occurrence of each trading day.
func (s *PriceSeries) Normalize() {
	sort.SliceStable(s.Bars, func(i, j int) bool { return s.Bars[i].Time.Before(s.Bars[j].Time) })
	out := s.Bars[:0]
	for _, b := range s.Bars {
		if n := len(out); n > 0 && sameDay(out[n-1].Time, b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	s.Bars = out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
