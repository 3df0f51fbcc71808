package app

import (
	"fmt"
	"image"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"flightcheck/internal/flightlog"
)

const (
	dpi     float64 = 72
	size    float64 = 14
	spacing float64 = 1.2
)

type Annotator struct {
	context *freetype.Context
}

func NewAnnotator() (*Annotator, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	context := freetype.NewContext()
	context.SetDPI(dpi)
	context.SetFont(parsedFont)
	context.SetFontSize(size)
	context.SetSrc(image.White)
	context.SetHinting(font.HintingFull)

	return &Annotator{context: context}, nil
}

// Annotate draws axis scales and the mission info block onto img.
func (a *Annotator) Annotate(img *image.RGBA, r *PathRenderer, m *flightlog.Mission, points []flightlog.TrackPoint) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	ops := []struct {
		msg string
		fn  func(*image.RGBA, *PathRenderer, *flightlog.Mission, []flightlog.TrackPoint) error
	}{
		{"drawing X scale", a.drawXScale},
		{"drawing Y scale", a.drawYScale},
		{"drawing info", a.drawInfo},
	}
	for _, op := range ops {
		if err := op.fn(img, r, m, points); err != nil {
			return fmt.Errorf("%s: %w", op.msg, err)
		}
	}

	return nil
}

func (a *Annotator) drawXScale(img *image.RGBA, r *PathRenderer, _ *flightlog.Mission, _ []flightlog.TrackPoint) error {
	const count = 8
	metersPerLabel := (r.bounds.MaxX - r.bounds.MinX) / count
	pxPerLabel := r.plotW / count

	for si := 0; si <= count; si++ {
		meters := r.bounds.MinX + float64(si)*metersPerLabel
		px := margin + si*pxPerLabel

		// tick below the plot area
		for i := 0; i < 8; i++ {
			img.Set(px, margin+r.plotH+i, image.White)
		}

		pt := freetype.Pt(px-15, margin+r.plotH+25)
		_, _ = a.context.DrawString(a.humanMeters(meters), pt)
	}

	return nil
}

func (a *Annotator) drawYScale(img *image.RGBA, r *PathRenderer, _ *flightlog.Mission, _ []flightlog.TrackPoint) error {
	const count = 8
	metersPerLabel := (r.bounds.MaxY - r.bounds.MinY) / count
	pxPerLabel := r.plotH / count

	for si := 0; si <= count; si++ {
		meters := r.bounds.MinY + float64(si)*metersPerLabel
		py := margin + r.plotH - si*pxPerLabel

		for i := 0; i < 8; i++ {
			img.Set(margin-i, py, image.White)
		}

		pt := freetype.Pt(8, py+5)
		_, _ = a.context.DrawString(a.humanMeters(meters), pt)
	}

	return nil
}

func (a *Annotator) drawInfo(img *image.RGBA, r *PathRenderer, m *flightlog.Mission, points []flightlog.TrackPoint) error {
	if len(points) == 0 {
		return nil
	}

	first := points[0].Timestamp
	last := points[len(points)-1].Timestamp

	strings := []string{
		fmt.Sprintf("Mission %d (%s)", m.ID, m.Vehicle),
		"Start: " + first.Local().Format(time.DateTime),
		"End: " + last.Local().Format(time.DateTime),
		fmt.Sprintf("Duration: %s, %d track points", last.Sub(first).Round(time.Second), len(points)),
		fmt.Sprintf("Extent: %s x %s",
			a.humanMeters(r.bounds.MaxX-r.bounds.MinX),
			a.humanMeters(r.bounds.MaxY-r.bounds.MinY)),
	}

	imgSize := img.Bounds().Size()
	lineHeight := float64(size) * spacing
	top, left := imgSize.Y-int(lineHeight)*len(strings)-5, margin

	pt := freetype.Pt(left, top)
	for _, s := range strings {
		_, _ = a.context.DrawString(s, pt)
		pt.Y += a.context.PointToFixed(size * spacing)
	}

	return nil
}

func (a *Annotator) humanMeters(m float64) string {
	fpxSI, fpxSuffix := humanize.ComputeSI(m)
	return fmt.Sprintf("%0.1f %sm", fpxSI, fpxSuffix)
}
