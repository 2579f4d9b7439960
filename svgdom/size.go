package svgdom

import (
	"strconv"
	"strings"
)

// Size is the resolved size of a graph, in user units.
type Size struct {
	Width, Height float64
}

// FallbackSize is used for each dimension which the root
// element does not define.
var FallbackSize = Size{Width: 1200, Height: 400}

// ResolveSize computes the size of the graph rooted at root.
// Each dimension is taken from the width (height) attribute,
// then from the view box, then from FallbackSize.
// Only strictly positive values are accepted.
func ResolveSize(root *Element) Size {
	var vbW, vbH float64
	if root != nil {
		if vb, ok := root.Attr("viewBox"); ok {
			vbW, vbH = parseViewBox(vb)
		}
	}
	return Size{
		Width:  resolveDim(root, "width", vbW, FallbackSize.Width),
		Height: resolveDim(root, "height", vbH, FallbackSize.Height),
	}
}

func resolveDim(root *Element, attr string, viewBox, fallback float64) float64 {
	if root != nil {
		if v, ok := root.Attr(attr); ok {
			if n := leadingInt(v); n > 0 {
				return float64(n)
			}
		}
	}
	if viewBox > 0 {
		return viewBox
	}
	return fallback
}

// leadingInt parses the integer prefix of s, so that
// "900px" gives 900 and "12.7" gives 12. It returns 0 when
// s does not start with a number.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && '0' <= s[end] && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// parseViewBox returns the width and height of a "min-x min-y width height"
// list, or zeros when the list is malformed.
func parseViewBox(v string) (w, h float64) {
	fields := splitOnCommaOrSpace(v)
	if len(fields) != 4 {
		return 0, 0
	}
	var points [4]float64
	for i, f := range fields {
		p, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return 0, 0
		}
		points[i] = p
	}
	return points[2], points[3]
}

// splitOnCommaOrSpace returns a list of strings after splitting the input on comma and space delimiters
func splitOnCommaOrSpace(s string) []string {
	return strings.FieldsFunc(s,
		func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
		})
}
