package model

// Bucket is the slice of a series that falls into one 3-month window of a
// calendar year. Month is the first month of the window (1, 4, 7 or 10).
type Bucket struct {
	Symbol string
	Year   int
	Month  int
	Bars   []OHLCV
}

// ImageBuffer is a row-major pixel buffer, channels interleaved in BGR order.
type ImageBuffer struct {
	Width    int
	Height   int
	Channels int
	Pix      []byte
}

// At returns the channel values of pixel (x, y).
func (b ImageBuffer) At(x, y int) []byte {
	i := (y*b.Width + x) * b.Channels
	return b.Pix[i : i+b.Channels]
}

// Sample is one training example: a cropped chart and its forward label.
type Sample struct {
	Symbol string
	Year   int
	Month  int
	Image  ImageBuffer
	Label  float64
}
