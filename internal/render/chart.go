// Package render draws candlestick windows and crops them to the fixed
// training image size.
package render

import (
	"errors"
	"fmt"
	"image"
	"math"
	"os"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"ChartDataset/internal/calculator"
	"ChartDataset/internal/model"
	"ChartDataset/internal/sampler"
)

// ErrEmptyWindow is returned for a window with no history to draw.
var ErrEmptyWindow = errors.New("window has no history")

// Renderer draws windows through a temporary PNG file in WorkDir (the
// system temp dir when empty).
type Renderer struct {
	Style   Style
	WorkDir string
}

// NewRenderer returns a renderer using the NightClouds theme.
func NewRenderer(workDir string) *Renderer {
	return &Renderer{Style: NightClouds, WorkDir: workDir}
}

// Render draws w, round-trips it through a temporary PNG that is removed
// straight away, and returns the cropped plot area as a BGR buffer.
func (r *Renderer) Render(w *sampler.Window) (model.ImageBuffer, error) {
	if w == nil || len(w.History) == 0 {
		return model.ImageBuffer{}, ErrEmptyWindow
	}
	dc, err := r.draw(w.History)
	if err != nil {
		return model.ImageBuffer{}, err
	}

	if r.WorkDir != "" {
		if err := os.MkdirAll(r.WorkDir, 0755); err != nil {
			return model.ImageBuffer{}, fmt.Errorf("create work dir: %w", err)
		}
	}
	pattern := fmt.Sprintf("%s_%d_%d_*.png", w.Bucket.Symbol, w.Bucket.Year, w.Bucket.Month)
	f, err := os.CreateTemp(r.WorkDir, pattern)
	if err != nil {
		return model.ImageBuffer{}, fmt.Errorf("create temp chart: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if err := dc.EncodePNG(f); err != nil {
		f.Close()
		return model.ImageBuffer{}, fmt.Errorf("encode chart: %w", err)
	}
	if err := f.Close(); err != nil {
		return model.ImageBuffer{}, fmt.Errorf("close chart: %w", err)
	}

	img, err := imaging.Open(path)
	if err != nil {
		return model.ImageBuffer{}, fmt.Errorf("read chart: %w", err)
	}
	return Crop(img)
}

// Crop cuts the plot rectangle out of a rendered figure.
func Crop(img image.Image) (model.ImageBuffer, error) {
	rect := image.Rect(CropX, CropY, CropX+CropWidth, CropY+CropHeight)
	if !rect.In(img.Bounds()) {
		return model.ImageBuffer{}, fmt.Errorf("crop %v outside image %v", rect, img.Bounds())
	}
	return toBGR(imaging.Crop(img, rect)), nil
}

func toBGR(img *image.NRGBA) model.ImageBuffer {
	b := img.Bounds()
	buf := model.ImageBuffer{
		Width:    b.Dx(),
		Height:   b.Dy(),
		Channels: Channels,
		Pix:      make([]byte, b.Dx()*b.Dy()*Channels),
	}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			o := img.PixOffset(x, y)
			buf.Pix[i] = img.Pix[o+2]
			buf.Pix[i+1] = img.Pix[o+1]
			buf.Pix[i+2] = img.Pix[o]
			i += Channels
		}
	}
	return buf
}

func (r *Renderer) draw(bars []model.OHLCV) (*gg.Context, error) {
	low, high, err := calculator.PriceRange(bars)
	if err != nil {
		return nil, err
	}
	pad := (high - low) * pricePadFraction
	low, high = low-pad, high+pad
	_, vmax, err := calculator.VolumeRange(bars)
	if err != nil {
		return nil, err
	}

	dc := gg.NewContext(CanvasWidth, CanvasHeight)
	dc.SetHexColor(r.Style.Figure)
	dc.Clear()
	dc.SetHexColor(r.Style.Plot)
	dc.DrawRectangle(CropX, CropY, CropWidth, CropHeight)
	dc.Fill()

	n := len(bars)
	slot := float64(CropWidth) / float64(n)
	body := math.Max(1, slot*bodyFraction)
	priceY := func(p float64) float64 {
		return CropY + (1-calculator.Scale(p, low, high))*pricePanelHeight
	}
	centerX := func(i int) float64 { return CropX + slot*(float64(i)+0.5) }

	for i, b := range bars {
		x := centerX(i)
		color := r.Style.Up
		if b.Close < b.Open {
			color = r.Style.Down
		}

		dc.SetHexColor(color)
		dc.SetLineWidth(1)
		dc.DrawLine(x, priceY(b.High), x, priceY(b.Low))
		dc.Stroke()

		top, bot := priceY(math.Max(b.Open, b.Close)), priceY(math.Min(b.Open, b.Close))
		dc.DrawRectangle(x-body/2, top, body, math.Max(1, bot-top))
		dc.Fill()

		if vmax > 0 {
			h := b.Volume / vmax * float64(volumePanelBot-volumePanelTop)
			dc.DrawRectangle(x-body/2, volumePanelBot-h, body, h)
			dc.Fill()
		}
	}

	closes := calculator.ExtractCloses(bars)
	for k, period := range MovingAverages {
		ma := calculator.RollingSMA(closes, period)
		dc.SetHexColor(r.Style.MAColors[k%len(r.Style.MAColors)])
		dc.SetLineWidth(1)
		started := false
		for i, v := range ma {
			if math.IsNaN(v) {
				continue
			}
			if !started {
				dc.MoveTo(centerX(i), priceY(v))
				started = true
				continue
			}
			dc.LineTo(centerX(i), priceY(v))
		}
		if started {
			dc.Stroke()
		}
	}
	return dc, nil
}
