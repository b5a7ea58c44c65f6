package calculator

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrZeroBase is returned when a percent change is taken from a zero price.
var ErrZeroBase = errors.New("percent change from zero base")

var hundred = decimal.NewFromInt(100)

// PercentChange returns (end - start) / start * 100. The arithmetic is done in
// decimal so that equal prices give exactly zero.
func PercentChange(start, end float64) (float64, error) {
	if start == 0 {
		return 0, ErrZeroBase
	}
	s := decimal.NewFromFloat(start)
	e := decimal.NewFromFloat(end)
	pct, _ := e.Sub(s).Div(s).Mul(hundred).Float64()
	return pct, nil
}
