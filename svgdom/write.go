package svgdom

import (
	"strings"
)

var (
	attrEscaper = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `>`, "&gt;", `"`, "&quot;",
		"\t", "&#x9;", "\n", "&#xA;", "\r", "&#xD;")
	textEscaper = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `>`, "&gt;", "\r", "&#xD;")
)

// EscapeAttr escapes an attribute value for a double quoted context.
// Tabs and line breaks are written as character references, since
// a parser normalizes them to spaces otherwise.
func EscapeAttr(s string) string { return attrEscaper.Replace(s) }

// EscapeText escapes character data. Carriage returns are written
// as character references, since a parser normalizes them to '\n'.
func EscapeText(s string) string { return textEscaper.Replace(s) }

// Serialize writes e and its descendants as XML text.
// Elements without children are written in the self-closing form.
func Serialize(e *Element) string {
	var b strings.Builder
	write(&b, e)
	return b.String()
}

func write(b *strings.Builder, e *Element) {
	if e.Kind == TextNode {
		b.WriteString(EscapeText(e.Text))
		return
	}
	b.WriteByte('<')
	b.WriteString(e.Name)
	for _, a := range e.Attrs {
		b.WriteByte(' ')
		b.WriteString(a.Name)
		b.WriteString(`="`)
		b.WriteString(EscapeAttr(a.Value))
		b.WriteByte('"')
	}
	if len(e.Children) == 0 {
		b.WriteString("/>")
		return
	}
	b.WriteByte('>')
	for _, c := range e.Children {
		write(b, c)
	}
	b.WriteString("</")
	b.WriteString(e.Name)
	b.WriteByte('>')
}
