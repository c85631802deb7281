// Package figure composes titled grids of grayscale panels into PNG images.
package figure

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"go.uber.org/multierr"
	"golang.org/x/image/draw"
)

// Canvas size of a rendered grid: 12x6 inches at 150 dpi.
const (
	DefaultWidth  = 1800
	DefaultHeight = 900
)

const (
	titleScale   = 2.5
	captionScale = 1.8
	margin       = 20
)

// Panel is a single grayscale image stored row-major with a caption.
type Panel struct {
	Title  string
	Width  int
	Height int
	Pixels []float64
}

// Grid is a rows x cols layout of panels under a common title.
type Grid struct {
	Title  string
	Width  int
	Height int

	rows   int
	cols   int
	panels []*Panel
}

// New returns an empty grid of the default canvas size.
func New(rows, cols int, title string) *Grid {
	return &Grid{
		Title:  title,
		Width:  DefaultWidth,
		Height: DefaultHeight,
		rows:   rows,
		cols:   cols,
		panels: make([]*Panel, rows*cols),
	}
}

// Set places p at (row, col). Cells never set are left blank.
func (g *Grid) Set(row, col int, p Panel) error {
	if row < 0 || row >= g.rows || col < 0 || col >= g.cols {
		return fmt.Errorf("cell (%d,%d) outside %dx%d grid", row, col, g.rows, g.cols)
	}
	if p.Width <= 0 || p.Height <= 0 || len(p.Pixels) != p.Width*p.Height {
		return fmt.Errorf("panel %q: %d pixels do not fill %dx%d", p.Title, len(p.Pixels), p.Width, p.Height)
	}
	g.panels[row*g.cols+col] = &p
	return nil
}

// Render draws the grid on a white canvas.
func (g *Grid) Render() (*image.RGBA, error) {
	if g.rows <= 0 || g.cols <= 0 {
		return nil, fmt.Errorf("empty grid %dx%d", g.rows, g.cols)
	}
	canvas := image.NewRGBA(image.Rect(0, 0, g.Width, g.Height))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	top := margin
	if g.Title != "" {
		DrawTextCentered(canvas, g.Width/2, top, g.Title, titleScale, color.Black)
		_, th := TextSize(g.Title, titleScale)
		top += th + margin
	}

	cellW := (g.Width - margin) / g.cols
	cellH := (g.Height - top) / g.rows
	_, captionH := TextSize("X", captionScale)

	for i, p := range g.panels {
		if p == nil {
			continue
		}
		row, col := i/g.cols, i%g.cols
		cell := image.Rect(
			margin/2+col*cellW, top+row*cellH,
			margin/2+(col+1)*cellW, top+(row+1)*cellH,
		)
		cx := (cell.Min.X + cell.Max.X) / 2
		DrawTextCentered(canvas, cx, cell.Min.Y, p.Title, captionScale, color.Black)

		area := image.Rect(cell.Min.X+margin/2, cell.Min.Y+captionH+margin/2, cell.Max.X-margin/2, cell.Max.Y-margin/2)
		if area.Empty() {
			return nil, fmt.Errorf("canvas %dx%d too small for %dx%d grid", g.Width, g.Height, g.rows, g.cols)
		}
		img := Grayscale(p.Pixels, p.Width, p.Height)
		draw.BiLinear.Scale(canvas, fitRect(area, p.Width, p.Height), img, img.Bounds(), draw.Src, nil)
	}

	return canvas, nil
}

// SavePNG renders the grid and writes it to path.
func (g *Grid) SavePNG(path string) (err error) {
	img, err := g.Render()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create figure: %w", err)
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode figure: %w", err)
	}
	return nil
}

// Grayscale maps pixels linearly from their minimum (black) to their
// maximum (white). A constant image is rendered black.
func Grayscale(pixels []float64, width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range pixels {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	if span <= 0 || math.IsInf(span, 0) || math.IsNaN(span) {
		return img
	}
	for i, v := range pixels {
		img.Pix[i] = uint8(math.Round((v - lo) / span * 255))
	}
	return img
}

// fitRect returns the largest rectangle with the aspect ratio w:h centred
// inside area.
func fitRect(area image.Rectangle, w, h int) image.Rectangle {
	aw, ah := area.Dx(), area.Dy()
	scale := math.Min(float64(aw)/float64(w), float64(ah)/float64(h))
	fw, fh := int(float64(w)*scale), int(float64(h)*scale)
	x := area.Min.X + (aw-fw)/2
	y := area.Min.Y + (ah-fh)/2
	return image.Rect(x, y, x+fw, y+fh)
}
