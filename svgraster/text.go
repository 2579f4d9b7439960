package svgraster

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/benoitkugler/contribgraph/svgdom"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// defaultFontSize is the font size in user units when none is given.
const defaultFontSize = 16

var (
	fontsOnce     sync.Once
	regular, bold *opentype.Font
	fontsErr      error
)

func loadFonts() error {
	fontsOnce.Do(func() {
		if regular, fontsErr = opentype.Parse(goregular.TTF); fontsErr != nil {
			return
		}
		bold, fontsErr = opentype.Parse(gobold.TTF)
	})
	return fontsErr
}

// textStyle holds the inherited properties used to draw text.
type textStyle struct {
	fill     color.Color // nil for "none"
	fontSize float64
	anchor   string
	bold     bool
	m        rasterx.Matrix2D // user space to canvas
}

// containers whose content is not rendered directly
var hiddenContainers = map[string]bool{
	"defs":     true,
	"clipPath": true,
	"mask":     true,
	"marker":   true,
	"pattern":  true,
	"symbol":   true,
}

// drawText draws the text elements of the tree rooted at root,
// which oksvg ignores. Each text element is drawn as a single run
// starting at its first x, y position, its tspan content included.
// Glyphs follow the translation and scale of the transform m and
// of the transform attributes, not their rotation or skew.
func (c *canvas) drawText(root *svgdom.Element, m rasterx.Matrix2D) error {
	if err := loadFonts(); err != nil {
		return fmt.Errorf("svgraster: loading fonts: %w", err)
	}
	style := textStyle{
		fill:     color.Black,
		fontSize: defaultFontSize,
		anchor:   "start",
		m:        m,
	}
	return c.drawTextIn(root, style)
}

func (c *canvas) drawTextIn(e *svgdom.Element, style textStyle) error {
	if e.Kind != svgdom.ElementNode || hiddenContainers[e.Name] {
		return nil
	}
	if v, _ := property(e, "display"); v == "none" {
		return nil
	}
	style = style.inherit(e)
	if e.Name == "text" {
		return c.drawRun(e, style)
	}
	for _, child := range e.Children {
		if err := c.drawTextIn(child, style); err != nil {
			return err
		}
	}
	return nil
}

func (style textStyle) inherit(e *svgdom.Element) textStyle {
	if v, ok := property(e, "fill"); ok {
		if v == "none" {
			style.fill = nil
		} else if col, err := ParseColor(v); err == nil {
			style.fill = col
		}
	}
	if v, ok := property(e, "font-size"); ok {
		if size, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64); err == nil && size > 0 {
			style.fontSize = size
		}
	}
	if v, ok := property(e, "text-anchor"); ok {
		style.anchor = v
	}
	if v, ok := property(e, "font-weight"); ok {
		n, err := strconv.Atoi(v)
		style.bold = v == "bold" || v == "bolder" || (err == nil && n >= 600)
	}
	if v, ok := e.Attr("transform"); ok {
		style.m = style.m.Mult(parseTransform(v))
	}
	return style
}

func (c *canvas) drawRun(e *svgdom.Element, style textStyle) error {
	if style.fill == nil {
		return nil
	}
	content := strings.Join(strings.Fields(textContent(e)), " ")
	if content == "" {
		return nil
	}
	x, y := firstCoord(e, "x"), firstCoord(e, "y")
	px, py := style.m.Transform(x, y)

	// uniform part of the transform
	scale := math.Sqrt(math.Abs(style.m.A*style.m.D - style.m.B*style.m.C))
	size := style.fontSize * scale
	if size < 1 || math.IsNaN(size) || math.IsInf(size, 0) {
		return nil
	}
	f := regular
	if style.bold {
		f = bold
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return fmt.Errorf("svgraster: text face: %w", err)
	}
	defer face.Close()

	d := &font.Drawer{Dst: c.img, Src: image.NewUniform(style.fill), Face: face}
	dot := fixed.Point26_6{X: fixed.Int26_6(px * 64), Y: fixed.Int26_6(py * 64)}
	switch style.anchor {
	case "middle":
		dot.X -= d.MeasureString(content) / 2
	case "end":
		dot.X -= d.MeasureString(content)
	}
	d.Dot = dot
	d.DrawString(content)
	return nil
}

// property returns the value of a presentation property, the style
// attribute taking precedence over the attribute of the same name.
func property(e *svgdom.Element, name string) (string, bool) {
	if style, ok := e.Attr("style"); ok {
		for _, decl := range strings.Split(style, ";") {
			k, v, found := strings.Cut(decl, ":")
			if found && strings.TrimSpace(k) == name {
				return strings.TrimSpace(v), true
			}
		}
	}
	v, ok := e.Attr(name)
	return strings.TrimSpace(v), ok
}

// textContent concatenates the character data of e's descendants.
func textContent(e *svgdom.Element) string {
	var b strings.Builder
	var collect func(*svgdom.Element)
	collect = func(n *svgdom.Element) {
		if n.Kind == svgdom.TextNode {
			b.WriteString(n.Text)
			return
		}
		for _, c := range n.Children {
			collect(c)
		}
	}
	collect(e)
	return b.String()
}

// firstCoord returns the first value of a coordinate list attribute,
// defaulting to 0.
func firstCoord(e *svgdom.Element, name string) float64 {
	v, _ := e.Attr(name)
	fields := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r' })
	if len(fields) == 0 {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(fields[0], "px"), 64)
	if err != nil {
		return 0
	}
	return f
}

var transformFunc = regexp.MustCompile(`([a-zA-Z]+)\s*\(([^)]*)\)`)

// parseTransform reads a transform attribute. Malformed functions
// are ignored.
func parseTransform(v string) rasterx.Matrix2D {
	m := rasterx.Identity
	for _, match := range transformFunc.FindAllStringSubmatch(v, -1) {
		var args []float64
		for _, f := range strings.FieldsFunc(match[2], func(r rune) bool { return r == ',' || r == ' ' || r == '\t' || r == '\n' }) {
			a, err := strconv.ParseFloat(f, 64)
			if err != nil {
				args = nil
				break
			}
			args = append(args, a)
		}
		switch {
		case match[1] == "matrix" && len(args) == 6:
			m = m.Mult(rasterx.Matrix2D{A: args[0], B: args[1], C: args[2], D: args[3], E: args[4], F: args[5]})
		case match[1] == "translate" && len(args) == 1:
			m = m.Translate(args[0], 0)
		case match[1] == "translate" && len(args) == 2:
			m = m.Translate(args[0], args[1])
		case match[1] == "scale" && len(args) == 1:
			m = m.Scale(args[0], args[0])
		case match[1] == "scale" && len(args) == 2:
			m = m.Scale(args[0], args[1])
		case match[1] == "rotate" && len(args) == 1:
			m = m.Rotate(args[0] * math.Pi / 180)
		case match[1] == "rotate" && len(args) == 3:
			m = m.Translate(args[1], args[2]).Rotate(args[0]*math.Pi/180).Translate(-args[1], -args[2])
		case match[1] == "skewX" && len(args) == 1:
			m = m.SkewX(args[0] * math.Pi / 180)
		case match[1] == "skewY" && len(args) == 1:
			m = m.SkewY(args[0] * math.Pi / 180)
		}
	}
	return m
}
