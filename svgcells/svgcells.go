// Extracts the day cells of a contribution graph as a plain record,
// ready to be serialized as JSON.
//
// Extraction only reads a few attributes, so it works on the raw
// markup as well as on a sanitized document. It is best-effort
// per cell: a malformed coordinate gives NaN, never an error.
package svgcells

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// MarkerClass identifies the elements representing a day.
const MarkerClass = "day-cell"

// Coord is a cell coordinate. NaN is written as null,
// since JSON has no representation for it.
type Coord float64

func (c Coord) MarshalJSON() ([]byte, error) {
	f := float64(c)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

func (c *Coord) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*c = Coord(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*c = Coord(f)
	return nil
}

// Cell is one day of the graph. Missing attributes are nil.
type Cell struct {
	Tooltip *string `json:"tooltip"`
	Fill    *string `json:"fill"`
	X       Coord   `json:"x"`
	Y       Coord   `json:"y"`
}

// Report is the JSON export of a graph.
type Report struct {
	GeneratedAt string `json:"generatedAt"` // ISO-8601, UTC
	TotalCells  int    `json:"totalCells"`
	Cells       []Cell `json:"cells"`
}

// Extract collects the day cells of the first svg element of markup,
// in document order. It returns nil when markup has no svg element.
//
// The markup is scanned tag by tag rather than parsed into a tree:
// the HTML5 tree builder moves the content following an HTML tag
// (such as <p>) out of the svg, and its cells would be lost.
func Extract(markup string, now time.Time) *Report {
	z := html.NewTokenizer(strings.NewReader(markup))
	var report *Report
	depth := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return finish(report)
		case html.StartTagToken, html.SelfClosingTagToken:
			b, hasAttr := z.TagName()
			name := string(b)
			if report == nil && name != "svg" {
				continue
			}
			attrs := readAttrs(z, hasAttr)
			if report == nil {
				report = &Report{
					GeneratedAt: now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
					Cells:       []Cell{},
				}
			}
			if hasClass(attrs, MarkerClass) {
				report.Cells = append(report.Cells, newCell(attrs))
			}
			if tt == html.SelfClosingTagToken {
				if depth == 0 {
					return finish(report)
				}
				continue
			}
			// svg content has no raw text elements, <style> included
			z.NextIsNotRawText()
			if name == "svg" {
				depth++
			}
		case html.EndTagToken:
			if report == nil {
				continue
			}
			if b, _ := z.TagName(); string(b) == "svg" {
				depth--
				if depth == 0 {
					return finish(report)
				}
			}
		}
	}
}

func finish(report *Report) *Report {
	if report != nil {
		report.TotalCells = len(report.Cells)
	}
	return report
}

// Marshal writes report as indented JSON. A nil report gives "{}".
func Marshal(report *Report) ([]byte, error) {
	var v interface{} = struct{}{}
	if report != nil {
		v = report
	}
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(b.Bytes(), "\n"), nil
}

func newCell(attrs map[string]string) Cell {
	var c Cell
	if v, ok := attrs["data-tooltip"]; ok {
		c.Tooltip = &v
	}
	if v, ok := attrs["fill"]; ok {
		c.Fill = &v
	}
	c.X = parseCoord(attrs, "x")
	c.Y = parseCoord(attrs, "y")
	return c
}

func parseCoord(attrs map[string]string, name string) Coord {
	v, ok := attrs[name]
	if !ok {
		return Coord(math.NaN())
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return Coord(math.NaN())
	}
	return Coord(f)
}

// readAttrs returns the attributes of the current tag.
// The first of duplicated attributes wins, as in the HTML parser.
func readAttrs(z *html.Tokenizer, more bool) map[string]string {
	attrs := map[string]string{}
	for more {
		var k, v []byte
		k, v, more = z.TagAttr()
		if _, dup := attrs[string(k)]; !dup {
			attrs[string(k)] = string(v)
		}
	}
	return attrs
}

func hasClass(attrs map[string]string, class string) bool {
	for _, c := range strings.Fields(attrs["class"]) {
		if c == class {
			return true
		}
	}
	return false
}
