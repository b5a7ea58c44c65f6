package render

// Style is the chart colour scheme.
type Style struct {
	Figure   string // area outside the plot, removed by the crop
	Plot     string
	Up       string
	Down     string
	MAColors []string
}

// NightClouds is the dark theme with green up and red down candles.
var NightClouds = Style{
	Figure:   "#14142b",
	Plot:     "#0a0a23",
	Up:       "#00ff00",
	Down:     "#ff0000",
	MAColors: []string{"#ffffff", "#ffd700"},
}

// Overlay periods drawn on the price panel.
var MovingAverages = []int{10, 30}

// Canvas is the full rendered figure (figure scale 0.5).
const (
	CanvasWidth  = 400
	CanvasHeight = 288
)

// Crop rectangle isolating the plot area. It is tied to the canvas size and
// panel layout below; change them together.
const (
	CropX      = 87
	CropY      = 41
	CropWidth  = 259
	CropHeight = 194
	Channels   = 3
)

// Panel layout inside the crop rectangle.
const (
	pricePanelHeight = 136
	panelGap         = 4
	volumePanelTop   = CropY + pricePanelHeight + panelGap
	volumePanelBot   = CropY + CropHeight
	bodyFraction     = 0.6
	pricePadFraction = 0.05
)
