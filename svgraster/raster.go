// Implements the raster backend of the graph export:
// a sanitized document is decoded as an SVG image by oksvg
// and drawn with rasterx onto an opaque canvas, its text is drawn
// with the Go fonts, then the canvas is encoded as PNG.
package svgraster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"strings"
	"time"

	"github.com/benoitkugler/contribgraph/svgdom"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

const (
	svgNamespace   = "http://www.w3.org/2000/svg"
	xlinkNamespace = "http://www.w3.org/1999/xlink"
)

// DefaultScale is used when Options.Scale is zero.
const DefaultScale = 2

// Canvas limits used when Options.MaxSide and Options.MaxPixels are zero.
const (
	DefaultMaxSide   = 16384
	DefaultMaxPixels = 1 << 26
)

// ErrImageTooLarge is returned when the scaled graph size exceeds
// the canvas limits. Nothing is allocated in this case.
var ErrImageTooLarge = errors.New("svgraster: image too large")

// DefaultBackground is the dark page color of the graph service.
var DefaultBackground color.Color = color.NRGBA{R: 0x0d, G: 0x11, B: 0x17, A: 0xff}

// Options parametrizes a rasterization.
type Options struct {
	Background color.Color   // defaults to DefaultBackground
	Scale      int           // pixel density; defaults to DefaultScale
	Timeout    time.Duration // bound on the image decode, 0 for none

	// MaxSide and MaxPixels bound the canvas size, once scaled.
	// They default to DefaultMaxSide and DefaultMaxPixels.
	MaxSide   int
	MaxPixels int
}

func (o Options) background() color.Color {
	if o.Background == nil {
		return DefaultBackground
	}
	return o.Background
}

func (o Options) scale() (int, error) {
	switch {
	case o.Scale == 0:
		return DefaultScale, nil
	case o.Scale < 0:
		return 0, fmt.Errorf("svgraster: invalid scale %d", o.Scale)
	default:
		return o.Scale, nil
	}
}

// pixelSize returns the canvas size for a graph of the given size,
// or ErrImageTooLarge.
func (o Options) pixelSize(size svgdom.Size, scale int) (width, height int, err error) {
	maxSide, maxPixels := o.MaxSide, o.MaxPixels
	if maxSide <= 0 {
		maxSide = DefaultMaxSide
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	w, h := size.Width*float64(scale), size.Height*float64(scale)
	if math.IsNaN(w) || math.IsNaN(h) || w > float64(maxSide) || h > float64(maxSide) || w*h > float64(maxPixels) {
		return 0, 0, fmt.Errorf("%w: %gx%g pixels, the limits are %d per side and %d in total",
			ErrImageTooLarge, w, h, maxSide, maxPixels)
	}
	return max(1, int(w)), max(1, int(h)), nil
}

// canvas is an opaque pixel surface.
type canvas struct {
	img    *image.RGBA
	dasher *rasterx.Dasher // shared by fill and stroke operations
}

// newCanvas returns a surface of the given pixel size,
// filled with background.
func newCanvas(width, height int, background color.Color) *canvas {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	return &canvas{img: img, dasher: rasterx.NewDasher(width, height, scanner)}
}

// draw renders icon once with the transform m, mapping its view box
// to the surface, so that the vectors are resampled at the surface resolution.
func (c *canvas) draw(icon *oksvg.SvgIcon, m rasterx.Matrix2D) {
	icon.Transform = m
	icon.Draw(c.dasher, 1.0)
}

// viewBox is the user space rectangle mapped to the canvas.
type viewBox struct{ X, Y, W, H float64 }

// viewport returns the transform from the user space to a canvas
// of the given pixel size, honoring the preserveAspectRatio
// attribute value par (the default is "xMidYMid meet").
func viewport(vb viewBox, width, height float64, par string) rasterx.Matrix2D {
	sx, sy := width/vb.W, height/vb.H
	fields := strings.Fields(par)
	if len(fields) > 0 && fields[0] == "defer" {
		fields = fields[1:]
	}
	align, slice := "xMidYMid", false
	if len(fields) > 0 && validAlign(fields[0]) {
		align = fields[0]
	}
	if len(fields) > 1 {
		slice = fields[1] == "slice"
	}
	if align == "none" {
		return rasterx.Identity.Scale(sx, sy).Translate(-vb.X, -vb.Y)
	}

	s := math.Min(sx, sy)
	if slice {
		s = math.Max(sx, sy)
	}
	var tx, ty float64
	switch align[:4] {
	case "xMid":
		tx = (width - vb.W*s) / 2
	case "xMax":
		tx = width - vb.W*s
	}
	switch align[4:] {
	case "YMid":
		ty = (height - vb.H*s) / 2
	case "YMax":
		ty = height - vb.H*s
	}
	return rasterx.Identity.Translate(tx, ty).Scale(s, s).Translate(-vb.X, -vb.Y)
}

func validAlign(s string) bool {
	if s == "none" {
		return true
	}
	if len(s) != 8 {
		return false
	}
	x, y := s[:4], s[4:]
	return (x == "xMin" || x == "xMid" || x == "xMax") && (y == "YMin" || y == "YMid" || y == "YMax")
}

// Rasterize draws doc at its resolved size times the scale factor,
// over the background color.
// The image decode failure is reported as a *DecodeError, and a size
// exceeding the canvas limits as ErrImageTooLarge.
func Rasterize(ctx context.Context, doc *svgdom.Document, opts Options) (*image.RGBA, error) {
	scale, err := opts.scale()
	if err != nil {
		return nil, err
	}
	size := svgdom.ResolveSize(doc.Root())
	width, height, err := opts.pixelSize(size, scale)
	if err != nil {
		return nil, err
	}

	uri := DataURI(svgdom.Serialize(WithNamespaces(doc.Root())))

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	icon, err := decodeImage(ctx, uri)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("svgraster: %w", err)
	}

	vb := viewBox(icon.ViewBox)
	if vb.W <= 0 || vb.H <= 0 {
		vb = viewBox{W: size.Width, H: size.Height}
	}
	par, _ := doc.Root().Attr("preserveAspectRatio")
	m := viewport(vb, float64(width), float64(height), par)

	c := newCanvas(width, height, opts.background())
	c.draw(icon, m)
	if err := c.drawText(doc.Root(), m); err != nil {
		return nil, err
	}
	return c.img, nil
}

// EncodePNG encodes img. An encoder failure or an empty
// output is reported as an *EncodeError.
func EncodePNG(img image.Image) ([]byte, error) {
	var b bytes.Buffer
	if err := png.Encode(&b, img); err != nil {
		return nil, &EncodeError{Err: err}
	}
	if b.Len() == 0 {
		return nil, &EncodeError{Err: errEmptyOutput}
	}
	return b.Bytes(), nil
}

// RasterizePNG chains Rasterize and EncodePNG.
func RasterizePNG(ctx context.Context, doc *svgdom.Document, opts Options) ([]byte, error) {
	img, err := Rasterize(ctx, doc, opts)
	if err != nil {
		return nil, err
	}
	return EncodePNG(img)
}

// WithNamespaces returns a copy of root declaring the SVG and XLink
// namespaces, as required to use the document as a standalone image.
func WithNamespaces(root *svgdom.Element) *svgdom.Element {
	cp := root.Copy()
	if _, ok := cp.Attr("xmlns"); !ok {
		cp.SetAttr("xmlns", svgNamespace)
	}
	if _, ok := cp.Attr("xmlns:xlink"); !ok {
		cp.SetAttr("xmlns:xlink", xlinkNamespace)
	}
	return cp
}
