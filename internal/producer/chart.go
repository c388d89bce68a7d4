package producer

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"git.home.luguber.info/inful/reportbuilder/internal/config"
	"git.home.luguber.info/inful/reportbuilder/internal/surface"
)

const (
	chartWidth  = 900
	chartHeight = 480
	chartMargin = 48
)

var chartPalette = []color.RGBA{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
}

type chartProducer struct {
	name    string
	title   string
	caption string
	width   float64
	labels  []string
	values  []float64
}

func buildChart(sec config.Section, _ Env) (Producer, error) {
	if len(sec.Values) == 0 {
		return nil, invalid(KindChart, "chart section needs values")
	}
	if len(sec.Labels) != 0 && len(sec.Labels) != len(sec.Values) {
		return nil, invalid(KindChart, "chart labels and values differ in length")
	}
	for _, v := range sec.Values {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, invalid(KindChart, "chart values must be finite and non-negative")
		}
	}
	return &chartProducer{
		name:    sec.Name,
		title:   sec.Title,
		caption: sec.Caption,
		width:   sec.Width,
		labels:  sec.Labels,
		values:  sec.Values,
	}, nil
}

func (p *chartProducer) Name() string { return p.name }

// Produce renders the chart into a per-invocation scratch PNG and embeds it.
func (p *chartProducer) Produce(ctx context.Context, s surface.Surface) error {
	path, err := s.Scratch("chart-*.png")
	if err != nil {
		return fmt.Errorf("allocate chart raster: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := writePNG(path, renderBars(p.labels, p.values)); err != nil {
		return err
	}
	if p.title != "" {
		s.Heading(p.title, 1)
	}
	s.Image(path, p.width)
	if p.caption != "" {
		s.Text(p.caption)
	}
	return s.Err()
}

func renderBars(labels []string, values []float64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, chartWidth, chartHeight))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	maxV := 0.0
	for _, v := range values {
		maxV = math.Max(maxV, v)
	}
	if maxV == 0 {
		maxV = 1
	}

	plotW := chartWidth - 2*chartMargin
	plotH := chartHeight - 2*chartMargin
	baseline := chartHeight - chartMargin
	slot := plotW / len(values)
	barW := slot * 3 / 4

	axis := image.NewUniform(color.Gray{Y: 0x40})
	draw.Draw(img, image.Rect(chartMargin, chartMargin, chartMargin+1, baseline), axis, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(chartMargin, baseline, chartWidth-chartMargin, baseline+1), axis, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	ink := image.NewUniform(color.Black)
	for i, v := range values {
		h := int(math.Round(v / maxV * float64(plotH)))
		x0 := chartMargin + i*slot + (slot-barW)/2
		fill := image.NewUniform(chartPalette[i%len(chartPalette)])
		draw.Draw(img, image.Rect(x0, baseline-h, x0+barW, baseline), fill, image.Point{}, draw.Src)

		drawCentered(img, face, ink, fmt.Sprintf("%g", v), x0+barW/2, baseline-h-4)
		if i < len(labels) {
			drawCentered(img, face, ink, labels[i], x0+barW/2, baseline+face.Height+2)
		}
	}
	return img
}

func drawCentered(dst draw.Image, face font.Face, src image.Image, s string, cx, y int) {
	d := &font.Drawer{Dst: dst, Src: src, Face: face}
	w := d.MeasureString(s).Round()
	d.Dot = fixed.P(cx-w/2, y)
	d.DrawString(s)
}

func writePNG(path string, img image.Image) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("create chart raster: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err = png.Encode(f, img); err != nil {
		return fmt.Errorf("encode chart raster: %w", err)
	}
	return nil
}
