package chart

import (
	"fmt"
	"image"
	"image/color"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	infoBarPadding = 12 // Pixels around the information text
	lineSpacing    = 1.4
)

var separatorColor = color.Gray{Y: 0xb0}

// annotator draws the information bar below the plots.
type annotator struct {
	context  *freetype.Context
	fontFace font.Face
	left     int
}

func newAnnotator(fontSize float64, dpi int, left int) (*annotator, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(float64(dpi))
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(fontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)

	return &annotator{
		context: ctx,
		left:    left,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    fontSize,
			DPI:     float64(dpi),
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *annotator) lineHeight() int {
	metrics := a.fontFace.Metrics()
	return int(float64((metrics.Ascent + metrics.Descent).Round()) * lineSpacing)
}

// barHeight returns the height in pixels of a bar holding n lines.
func (a *annotator) barHeight(n int) int {
	if n == 0 {
		return 0
	}
	return n*a.lineHeight() + 2*infoBarPadding
}

// drawInfoBar writes lines into the bottom height pixels of img, separated
// from the plots by a thin rule. Lines wider than the image are clipped.
func (a *annotator) drawInfoBar(img *image.RGBA, lines []string, height int) error {
	bounds := img.Bounds()
	top := bounds.Max.Y - height

	a.context.SetClip(bounds)
	a.context.SetDst(img)

	for x := bounds.Min.X + a.left; x < bounds.Max.X-a.left; x++ {
		img.Set(x, top, separatorColor)
	}

	metrics := a.fontFace.Metrics()
	lineHeight := a.lineHeight()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()

	// baseline of the first line, centered in its row
	y := top + infoBarPadding + (lineHeight-fontHeight)/2 + metrics.Ascent.Round()
	for _, line := range lines {
		if _, err := a.context.DrawString(line, freetype.Pt(a.left, y)); err != nil {
			return fmt.Errorf("drawing info text: %w", err)
		}
		y += lineHeight
	}
	return nil
}
