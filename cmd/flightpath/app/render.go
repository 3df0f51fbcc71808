package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"flightcheck/internal/flightlog"
)

const (
	// margin is the border around the plot area, in pixels, reserved for
	// scales and annotations.
	margin = 80

	// markerSize is the half-width of a target marker cross, in pixels.
	markerSize = 6
)

var (
	backgroundColor = color.RGBA{R: 0x10, G: 0x14, B: 0x1a, A: 0xff}
	gridColor       = color.RGBA{R: 0x2a, G: 0x32, B: 0x3c, A: 0xff}
	trackColor      = color.RGBA{R: 0x4c, G: 0xd9, B: 0x64, A: 0xff}
	targetColor     = color.RGBA{R: 0xe8, G: 0x4c, B: 0x3c, A: 0xff}
)

// PathBounds is the extent of a track in the horizontal plane, meters.
type PathBounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// TrackBounds computes the horizontal extent of points, padded so markers
// at the edge remain visible. Targets are included in the extent.
func TrackBounds(points []flightlog.TrackPoint) PathBounds {
	b := PathBounds{
		MinX: math.Inf(1), MaxX: math.Inf(-1),
		MinY: math.Inf(1), MaxY: math.Inf(-1),
	}
	for _, p := range points {
		b.include(p.Position.X, p.Position.Y)
		if p.Target != nil {
			b.include(p.Target.X, p.Target.Y)
		}
	}

	// A degenerate (single-point or hover-only) track still gets a usable
	// plot area.
	const minSpan = 10.0
	if b.MaxX-b.MinX < minSpan {
		mid := (b.MaxX + b.MinX) / 2
		b.MinX, b.MaxX = mid-minSpan/2, mid+minSpan/2
	}
	if b.MaxY-b.MinY < minSpan {
		mid := (b.MaxY + b.MinY) / 2
		b.MinY, b.MaxY = mid-minSpan/2, mid+minSpan/2
	}

	pad := 0.05 * math.Max(b.MaxX-b.MinX, b.MaxY-b.MinY)
	b.MinX -= pad
	b.MaxX += pad
	b.MinY -= pad
	b.MaxY += pad
	return b
}

func (b *PathBounds) include(x, y float64) {
	b.MinX = math.Min(b.MinX, x)
	b.MaxX = math.Max(b.MaxX, x)
	b.MinY = math.Min(b.MinY, y)
	b.MaxY = math.Max(b.MaxY, y)
}

// PathRenderer draws a top-down plot of a recorded track: the flown path as
// a polyline, commanded targets as cross markers.
type PathRenderer struct {
	width  int
	bounds PathBounds

	plotW, plotH int
}

// NewPathRenderer creates a renderer producing images width pixels wide.
// Height follows from the track's aspect ratio.
func NewPathRenderer(width int, bounds PathBounds) (*PathRenderer, error) {
	if width <= 2*margin {
		return nil, fmt.Errorf("image width %d too small for %dpx margins", width, margin)
	}

	plotW := width - 2*margin
	aspect := (bounds.MaxY - bounds.MinY) / (bounds.MaxX - bounds.MinX)
	plotH := int(float64(plotW) * aspect)
	if plotH < 100 {
		plotH = 100
	}

	return &PathRenderer{
		width:  width,
		bounds: bounds,
		plotW:  plotW,
		plotH:  plotH,
	}, nil
}

// Render draws the track into a new image.
func (r *PathRenderer) Render(points []flightlog.TrackPoint) (*image.RGBA, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("no track points to render")
	}

	img := image.NewRGBA(image.Rect(0, 0, r.width, r.plotH+2*margin))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: backgroundColor}, image.Point{}, draw.Src)

	r.drawGrid(img)

	// Commanded targets first so the flown path draws over them.
	for _, p := range points {
		if p.Target == nil {
			continue
		}
		x, y := r.project(p.Target.X, p.Target.Y)
		r.drawMarker(img, x, y)
	}

	var prevX, prevY int
	for i, p := range points {
		x, y := r.project(p.Position.X, p.Position.Y)
		if i > 0 {
			drawLine(img, prevX, prevY, x, y, trackColor)
		}
		prevX, prevY = x, y
	}

	return img, nil
}

// project maps local-frame meters to image pixels. Y grows north, image Y
// grows down, so the vertical axis flips.
func (r *PathRenderer) project(x, y float64) (int, int) {
	px := margin + int(float64(r.plotW)*(x-r.bounds.MinX)/(r.bounds.MaxX-r.bounds.MinX))
	py := margin + r.plotH - int(float64(r.plotH)*(y-r.bounds.MinY)/(r.bounds.MaxY-r.bounds.MinY))
	return px, py
}

func (r *PathRenderer) drawGrid(img *image.RGBA) {
	const gridLines = 8

	for i := 0; i <= gridLines; i++ {
		x := margin + i*r.plotW/gridLines
		for y := margin; y <= margin+r.plotH; y++ {
			img.Set(x, y, gridColor)
		}
	}
	for i := 0; i <= gridLines; i++ {
		y := margin + i*r.plotH/gridLines
		for x := margin; x <= margin+r.plotW; x++ {
			img.Set(x, y, gridColor)
		}
	}
}

func (r *PathRenderer) drawMarker(img *image.RGBA, x, y int) {
	for d := -markerSize; d <= markerSize; d++ {
		img.Set(x+d, y+d, targetColor)
		img.Set(x+d, y-d, targetColor)
	}
}

// drawLine draws a straight segment using the integer midpoint algorithm.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}

	err := dx + dy
	for {
		img.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
