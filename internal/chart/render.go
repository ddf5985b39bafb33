package chart

import (
	"errors"
	"fmt"
	"image"
	imagedraw "image/draw"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	defaultWidth    = 1200
	defaultHeight   = 1500
	defaultDPI      = 96
	defaultFontSize = 11.0
	defaultMargin   = 20 // Pixels of white space around the plot grid

	minPlotHeight = 150
)

// ErrEmptyChart is returned when a chart has no panels
var ErrEmptyChart = errors.New("chart has no panels")

// RenderConfig holds the raster output options.
type RenderConfig struct {
	Width         int     // Pixels
	Height        int     // Pixels, including the information bar
	DPI           int     // Resolution used to size fonts and lines
	FontSize      float64 // Information bar font size in points
	NoAnnotations bool    // Omit the information bar
}

// Renderer rasterizes charts.
type Renderer struct {
	config RenderConfig
}

// NewRenderer creates a renderer. Zero values in config are replaced by defaults.
func NewRenderer(config RenderConfig) *Renderer {
	if config.Width == 0 {
		config.Width = defaultWidth
	}
	if config.Height == 0 {
		config.Height = defaultHeight
	}
	if config.DPI == 0 {
		config.DPI = defaultDPI
	}
	if config.FontSize == 0 {
		config.FontSize = defaultFontSize
	}
	return &Renderer{config: config}
}

// Render draws the panels of c stacked vertically with aligned axes and, unless
// disabled, the information bar below them.
func (r *Renderer) Render(c *Chart) (*image.RGBA, error) {
	if len(c.Panels) == 0 {
		return nil, ErrEmptyChart
	}

	img := image.NewRGBA(image.Rect(0, 0, r.config.Width, r.config.Height))
	imagedraw.Draw(img, img.Bounds(), image.White, image.Point{}, imagedraw.Src)

	barHeight := 0
	var ann *annotator
	if !r.config.NoAnnotations && len(c.Info) > 0 {
		var err error
		if ann, err = newAnnotator(r.config.FontSize, r.config.DPI, defaultMargin); err != nil {
			return nil, fmt.Errorf("creating annotator: %w", err)
		}
		defer ann.Close()
		barHeight = ann.barHeight(len(c.Info))
	}

	plotHeight := r.config.Height - barHeight
	if plotHeight < minPlotHeight {
		return nil, fmt.Errorf("%d pixels left for %d panels, need at least %d", plotHeight, len(c.Panels), minPlotHeight)
	}

	plots := r.drawPanels(c.Panels, r.config.Width, plotHeight)
	imagedraw.Draw(img, plots.Bounds(), plots, image.Point{}, imagedraw.Over)

	if ann != nil {
		if err := ann.drawInfoBar(img, c.Info, barHeight); err != nil {
			return nil, fmt.Errorf("drawing info bar: %w", err)
		}
	}

	return img, nil
}

func (r *Renderer) drawPanels(panels []*plot.Plot, width, height int) image.Image {
	pixel := vg.Inch / vg.Length(r.config.DPI)
	canvas := vgimg.NewWith(
		vgimg.UseWH(vg.Length(width)*pixel, vg.Length(height)*pixel),
		vgimg.UseDPI(r.config.DPI),
	)

	grid := make([][]*plot.Plot, len(panels))
	for i, p := range panels {
		grid[i] = []*plot.Plot{p}
	}

	margin := vg.Length(defaultMargin) * pixel
	tiles := draw.Tiles{
		Rows:      len(panels),
		Cols:      1,
		PadTop:    margin,
		PadBottom: margin,
		PadLeft:   margin,
		PadRight:  margin,
		PadY:      margin,
	}

	canvases := plot.Align(grid, tiles, draw.New(canvas))
	for i, p := range panels {
		p.Draw(canvases[i][0])
	}

	return canvas.Image()
}
