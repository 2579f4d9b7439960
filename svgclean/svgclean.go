// Turns SVG markup of unknown quality, as served by the graph
// service, into a strictly valid XML document.
//
// Well formed markup is read as XML. Other markup is read with the
// tolerant HTML5 parser (the way a browser reads inline SVG).
// The tree is then cleaned, serialized and finally checked with
// a strict XML parse.
package svgclean

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/benoitkugler/contribgraph/svgdom"
	"golang.org/x/net/html"
)

// TooltipAttr is the per cell metadata attribute which may
// survive sanitation.
const TooltipAttr = "data-tooltip"

// removedElements are dropped with their content.
var removedElements = map[string]bool{
	"style":    true,
	"title":    true,
	"desc":     true,
	"metadata": true,
}

var (
	// ErrNoGraphFound is returned when the markup has no svg element.
	ErrNoGraphFound = errors.New("svgclean: no svg element found")

	// ErrHTMLContent is wrapped by the SanitizationError returned when
	// the svg element contains an HTML element the parser moves out of it.
	ErrHTMLContent = errors.New("svgclean: HTML element inside svg")
)

// SanitizationError is returned when the cleaned markup still
// fails the strict XML parse, or when the svg content can't be
// recovered from malformed markup. It carries the diagnostic.
type SanitizationError struct {
	Diagnostic string
	Line       int
	Offset     int64
	Excerpt    string // text around Offset
	Err        error
}

func (e *SanitizationError) Error() string {
	return fmt.Sprintf("svgclean: sanitation failed (line %d, offset %d): %s",
		e.Line, e.Offset, e.Diagnostic)
}

func (e *SanitizationError) Unwrap() error { return e.Err }

// Options selects the cleaning policy.
type Options struct {
	// PreserveTooltip keeps the data-tooltip attribute,
	// which is needed when the cells metadata is read
	// after serialization. Other data-* attributes are always removed.
	PreserveTooltip bool

	// Logger receives the diagnostic of a failed sanitation.
	// Defaults to slog.Default().
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Sanitize cleans raw and returns the validated document.
// raw is never modified; all the work is done on a private copy.
func Sanitize(raw string, opts Options) (*svgdom.Document, error) {
	root, err := locate(raw)
	if err != nil {
		var serr *SanitizationError
		if errors.As(err, &serr) {
			opts.logger().Error("svgclean: svg element contains HTML content",
				"length", len(raw),
				"line", serr.Line,
				"offset", serr.Offset,
				"diagnostic", serr.Diagnostic,
				"excerpt", serr.Excerpt)
		}
		return nil, err
	}

	removeElements(root)
	rewriteAnchors(root)
	stripDataAttrs(root, opts.PreserveTooltip)

	text := svgdom.Serialize(root)
	text = stripControlChars(text)
	text = escapeBareAmpersands(text)
	text = escapeAttrQuotes(text)

	doc, err := svgdom.Parse(text)
	if err != nil {
		serr := &SanitizationError{Diagnostic: err.Error(), Err: err}
		var se *svgdom.SyntaxError
		if errors.As(err, &se) {
			serr.Diagnostic, serr.Line, serr.Offset = se.Msg, se.Line, se.Offset
		}
		serr.Excerpt = excerpt(text, serr.Offset, 200)
		opts.logger().Error("svgclean: sanitized markup is not valid XML",
			"length", len(text),
			"line", serr.Line,
			"offset", serr.Offset,
			"diagnostic", serr.Diagnostic,
			"excerpt", serr.Excerpt)
		return nil, serr
	}
	return doc, nil
}

// HasGraph reports whether raw contains an svg element.
func HasGraph(raw string) bool {
	if strictSVG(raw) != nil {
		return true
	}
	top, err := html.Parse(strings.NewReader(raw))
	return err == nil && findSVG(top) != nil
}

// locate returns a private copy of the first svg element of raw.
// Well formed markup is read as XML, so that every element is kept
// as written. Other markup goes through the HTML5 parser, and is
// rejected if the parser moved some of the svg content out of it.
func locate(raw string) (*svgdom.Element, error) {
	if svg := strictSVG(raw); svg != nil {
		return svg, nil
	}

	top, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("svgclean: reading markup: %w", err)
	}
	svg := findSVG(top)
	if svg == nil {
		return nil, ErrNoGraphFound
	}
	if name, offset, found := escapedElement(raw, svg); found {
		return nil, &SanitizationError{
			Diagnostic: fmt.Sprintf("element <%s> is not allowed inside svg", name),
			Line:       1 + strings.Count(raw[:offset], "\n"),
			Offset:     int64(offset),
			Excerpt:    excerpt(raw, int64(offset), 200),
			Err:        ErrHTMLContent,
		}
	}
	return convert(svg), nil
}

// strictSVG returns a copy of the first svg element of raw,
// or nil if raw is not well formed XML or has no svg element.
func strictSVG(raw string) *svgdom.Element {
	doc, err := svgdom.Parse(raw)
	if err != nil {
		return nil
	}
	var svg *svgdom.Element
	doc.Root().Walk(func(e *svgdom.Element) {
		if svg == nil && e.Name == "svg" {
			svg = e
		}
	})
	if svg == nil {
		return nil
	}
	return svg.Copy()
}

// escapedElement returns the first tag written inside the svg element
// of raw which the HTML parser did not keep in svg, with its byte
// offset. An HTML element such as <p> or <div> ends foreign content,
// moving itself and the following siblings out of the svg.
func escapedElement(raw string, svg *html.Node) (name string, offset int, found bool) {
	var kept []string
	var collect func(n *html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.ElementNode {
			kept = append(kept, n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(svg)

	z := html.NewTokenizer(strings.NewReader(raw))
	depth, index, pos := 0, 0, 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return "", 0, false
		}
		start := pos
		pos += len(z.Raw())
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken && tt != html.EndTagToken {
			continue
		}
		b, _ := z.TagName()
		tag := string(b)
		if tt == html.EndTagToken {
			if depth > 0 && tag == "svg" {
				depth--
				if depth == 0 {
					return "", 0, false
				}
			}
			continue
		}
		if depth == 0 && tag != "svg" {
			continue
		}
		if index >= len(kept) || !strings.EqualFold(kept[index], tag) {
			return tag, start, true
		}
		index++
		if tt == html.SelfClosingTagToken {
			if depth == 0 {
				return "", 0, false
			}
			continue
		}
		// svg content has no raw text elements, <style> included
		z.NextIsNotRawText()
		if tag == "svg" {
			depth++
		}
	}
}

// findSVG returns the first svg element of the SVG namespace,
// in document order.
func findSVG(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Namespace == "svg" && n.Data == "svg" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findSVG(c); found != nil {
			return found
		}
	}
	return nil
}

// convert copies the element subtree rooted at n.
// Comments and other non content nodes are dropped.
func convert(n *html.Node) *svgdom.Element {
	elt := svgdom.NewElement(n.Data)
	for _, a := range n.Attr {
		name := a.Key
		if a.Namespace != "" {
			name = a.Namespace + ":" + a.Key
		}
		elt.Attrs = append(elt.Attrs, svgdom.Attr{Name: name, Value: a.Val})
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			elt.Append(convert(c))
		case html.TextNode:
			elt.Append(svgdom.NewText(c.Data))
		}
	}
	return elt
}

func removeElements(e *svgdom.Element) {
	kept := e.Children[:0]
	for _, c := range e.Children {
		if c.Kind == svgdom.ElementNode && removedElements[c.Name] {
			c.Parent = nil
			continue
		}
		removeElements(c)
		kept = append(kept, c)
	}
	e.Children = kept
}

// rewriteAnchors replaces each anchor by its first text descendant,
// or removes it when there is none. Anchors are handled in document
// order; those discarded along with an outer anchor are skipped.
func rewriteAnchors(root *svgdom.Element) {
	var anchors []*svgdom.Element
	root.Walk(func(e *svgdom.Element) {
		if e.Name == "a" && e != root {
			anchors = append(anchors, e)
		}
	})
	for _, a := range anchors {
		if !attached(a, root) {
			continue
		}
		var text *svgdom.Element
		for _, c := range a.Children {
			c.Walk(func(e *svgdom.Element) {
				if text == nil && e.Name == "text" {
					text = e
				}
			})
			if text != nil {
				break
			}
		}
		if text != nil {
			detach(text)
			replace(a, text)
		} else {
			detach(a)
		}
	}
}

func attached(e, root *svgdom.Element) bool {
	for ; e != nil; e = e.Parent {
		if e == root {
			return true
		}
	}
	return false
}

func detach(e *svgdom.Element) {
	parent := e.Parent
	if parent == nil {
		return
	}
	for i, c := range parent.Children {
		if c == e {
			parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
			break
		}
	}
	e.Parent = nil
}

// replace puts by at the position of old.
func replace(old, by *svgdom.Element) {
	parent := old.Parent
	for i, c := range parent.Children {
		if c == old {
			parent.Children[i] = by
			by.Parent = parent
			break
		}
	}
	old.Parent = nil
}

func stripDataAttrs(root *svgdom.Element, preserveTooltip bool) {
	root.Walk(func(e *svgdom.Element) {
		kept := e.Attrs[:0]
		for _, a := range e.Attrs {
			if strings.HasPrefix(a.Name, "data-") && !(preserveTooltip && a.Name == TooltipAttr) {
				continue
			}
			kept = append(kept, a)
		}
		e.Attrs = kept
	})
}

// excerpt returns the text at most radius bytes around offset.
func excerpt(text string, offset int64, radius int) string {
	at := int(offset)
	if at > len(text) {
		at = len(text)
	}
	start, end := at-radius, at+radius
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	return strings.ToValidUTF8(text[start:end], "")
}
