// Provides the element tree of a sanitized SVG document.
// Documents are only built from text which passed a strict XML parse,
// so that a *Document always serializes back to valid XML.
// See svgclean for the producer and svgraster for a consumer.
package svgdom

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// Kind distinguishes element and text nodes.
type Kind uint8

const (
	ElementNode Kind = iota
	TextNode
)

// Attr is an attribute with its qualified name (such as "xlink:href").
type Attr struct {
	Name, Value string
}

// Element is a node of the tree. Text nodes only use the Text field.
type Element struct {
	Kind     Kind
	Name     string // qualified name, empty for text nodes
	Attrs    []Attr // in document order
	Text     string // unescaped character data
	Parent   *Element
	Children []*Element
}

// NewElement returns an element node without parent.
func NewElement(name string, attrs ...Attr) *Element {
	return &Element{Kind: ElementNode, Name: name, Attrs: attrs}
}

// NewText returns a text node without parent.
func NewText(text string) *Element {
	return &Element{Kind: TextNode, Text: text}
}

// Append adds child at the end of e's children.
func (e *Element) Append(child *Element) {
	child.Parent = e
	e.Children = append(e.Children, child)
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr replaces the value of the named attribute,
// or appends it when missing.
func (e *Element) SetAttr(name, value string) {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
}

// Copy returns a deep copy of this element and its children.
// The copy has no parent.
func (e *Element) Copy() *Element {
	res := &Element{Kind: e.Kind, Name: e.Name, Text: e.Text}
	if len(e.Attrs) > 0 {
		res.Attrs = append([]Attr(nil), e.Attrs...)
	}
	if nc := len(e.Children); nc > 0 {
		res.Children = make([]*Element, nc)
		for i, c := range e.Children {
			res.Children[i] = c.Copy()
			res.Children[i].Parent = res
		}
	}
	return res
}

// Walk calls fn for e and every element descendant, in document order.
// Text nodes are skipped.
func (e *Element) Walk(fn func(*Element)) {
	if e.Kind != ElementNode {
		return
	}
	fn(e)
	for _, c := range e.Children {
		c.Walk(fn)
	}
}

// Document is a sanitized SVG document: the text which passed
// the strict parse, and the tree built from it.
// Neither must be modified; use Root().Copy() to derive a new tree.
type Document struct {
	root *Element
	text string
}

// Root returns the root element.
func (d *Document) Root() *Element { return d.root }

// String returns the serialized text, as validated.
func (d *Document) String() string { return d.text }

// ErrNoElement is returned when the text contains no element at all.
var ErrNoElement = errors.New("svgdom: document has no root element")

// SyntaxError reports a strict parse failure, with the position
// given by the XML decoder.
type SyntaxError struct {
	Msg    string
	Line   int
	Offset int64 // byte offset in the input when the decoder stopped
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("svgdom: line %d (offset %d): %s", e.Line, e.Offset, e.Msg)
}

func newDecoder(r io.Reader) *xml.Decoder {
	decoder := xml.NewDecoder(r)
	decoder.Strict = true
	decoder.CharsetReader = charset.NewReaderLabel
	return decoder
}

// Validate runs a strict XML parse over text, checking tag matching,
// names, entities and characters. It returns a *SyntaxError on failure.
func Validate(text string) error {
	decoder := newDecoder(strings.NewReader(text))
	seenTag := false
	for {
		t, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				if !seenTag {
					return ErrNoElement
				}
				return nil
			}
			se := &SyntaxError{Msg: err.Error(), Offset: decoder.InputOffset()}
			var xe *xml.SyntaxError
			if errors.As(err, &xe) {
				se.Msg, se.Line = xe.Msg, xe.Line
			}
			return se
		}
		if _, ok := t.(xml.StartElement); ok {
			seenTag = true
		}
	}
}

// Parse validates text then builds its tree. Comments, processing
// instructions and directives are not kept.
func Parse(text string) (*Document, error) {
	if err := Validate(text); err != nil {
		return nil, err
	}

	// the raw tokens keep the namespace prefixes as written,
	// which is what we want to serialize back
	decoder := newDecoder(strings.NewReader(text))
	var root, cur *Element
	for {
		t, err := decoder.RawToken()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		switch tok := t.(type) {
		case xml.StartElement:
			elt := NewElement(qualified(tok.Name))
			for _, attr := range tok.Attr {
				elt.Attrs = append(elt.Attrs, Attr{Name: qualified(attr.Name), Value: attr.Value})
			}
			if root == nil {
				root = elt
			} else if cur != nil {
				cur.Append(elt)
			}
			cur = elt
		case xml.EndElement:
			if cur != nil {
				cur = cur.Parent
			}
		case xml.CharData:
			if cur == nil {
				// Ignore CDATA outside of the root
				continue
			}
			cur.Append(NewText(string(tok)))
		}
	}
	if root == nil {
		return nil, ErrNoElement
	}
	return &Document{root: root, text: text}, nil
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
