package svgclean

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/benoitkugler/contribgraph/svgdom"
)

const sampleGraph = `<svg xmlns="http://www.w3.org/2000/svg" width="900" height="400" viewBox="0 0 900 400">
<style>.day-cell{stroke:#000}</style>
<title>Contributions</title>
<desc>yearly graph</desc>
<metadata><rdf>x</rdf></metadata>
<a href="https://github.com/peme969"><text x="5" y="15">peme969</text><rect width="1" height="1"/></a>
<rect class="day-cell" data-tooltip="5 contributions on Jan 1" data-date="2024-01-01" fill="#39d353" x="10" y="20" width="10" height="10"></rect>
<text x="1" y="2">Jan &amp; Feb</text>
</svg>`

func TestSanitizeGraph(t *testing.T) {
	doc, err := Sanitize(sampleGraph, Options{})
	if err != nil {
		t.Fatal(err)
	}
	out := doc.String()
	for _, forbidden := range []string{"<style", "<title", "<desc", "<metadata", "<a ", "<a>", "data-", "Contributions"} {
		if strings.Contains(out, forbidden) {
			t.Errorf("output should not contain %q:\n%s", forbidden, out)
		}
	}
	for _, expected := range []string{
		`viewBox="0 0 900 400"`,
		`<text x="5" y="15">peme969</text>`,
		`<rect class="day-cell" fill="#39d353" x="10" y="20" width="10" height="10"/>`,
		`Jan &amp; Feb`,
	} {
		if !strings.Contains(out, expected) {
			t.Errorf("output should contain %q:\n%s", expected, out)
		}
	}
	if err := svgdom.Validate(out); err != nil {
		t.Errorf("output is not valid XML: %s", err)
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		sampleGraph,
		"<svg><text>a&#13;b</text><rect x=\"1\" id=\"p&#13;q\"/></svg>",
		"<svg><text>a&#13;b &nbsp;</text><rect id=\"t&#9;u&#10;v\"/></svg>",
	}
	for _, in := range inputs {
		for _, opts := range []Options{{}, {PreserveTooltip: true}} {
			doc, err := Sanitize(in, opts)
			if err != nil {
				t.Fatal(err)
			}
			again, err := Sanitize(doc.String(), opts)
			if err != nil {
				t.Fatal(err)
			}
			if again.String() != doc.String() {
				t.Errorf("sanitation is not idempotent:\n%q\n%q", doc.String(), again.String())
			}
		}
	}
}

func TestCarriageReturnsAreEscaped(t *testing.T) {
	doc, err := Sanitize("<svg><text>a&#13;b</text><rect x=\"1\" id=\"p&#13;q\"/></svg>", Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := `<svg><text>a&#xD;b</text><rect x="1" id="p&#xD;q"/></svg>`
	if got := doc.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if text := doc.Root().Children[0].Children[0].Text; text != "a\rb" {
		t.Errorf("unexpected text %q", text)
	}
}

func TestAnchors(t *testing.T) {
	for _, test := range []struct {
		in, want string
	}{
		{
			`<svg><g><rect/><a href="#"><text>hi</text></a><circle/></g></svg>`,
			`<svg><g><rect/><text>hi</text><circle/></g></svg>`,
		},
		{
			`<svg><a><rect/><g><text>t</text></g><text>u</text></a></svg>`,
			`<svg><text>t</text></svg>`,
		},
		{
			`<svg><a><tspan>no text here</tspan></a></svg>`,
			`<svg/>`,
		},
		{
			`<svg><a><a><text>inner</text></a></a></svg>`,
			`<svg><text>inner</text></svg>`,
		},
	} {
		doc, err := Sanitize(test.in, Options{})
		if err != nil {
			t.Fatalf("%s: %s", test.in, err)
		}
		if got := doc.String(); got != test.want {
			t.Errorf("%s: got %s, want %s", test.in, got, test.want)
		}
	}
}

func TestEmptyAnchorLeavesEmptyGraph(t *testing.T) {
	doc, err := Sanitize(`<svg><a><tspan>no text here</tspan></a></svg>`, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if n := len(doc.Root().Children); n != 0 {
		t.Errorf("expected an empty svg body, got %d children", n)
	}
}

func TestDataAttributes(t *testing.T) {
	in := `<svg data-x="1"><rect data-tooltip="5 &quot;big&quot; & more" fill="red" data-level="3" x="1"/></svg>`

	doc, err := Sanitize(in, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := doc.String(), `<svg><rect fill="red" x="1"/></svg>`; got != want {
		t.Errorf("got %s, want %s", got, want)
	}

	doc, err = Sanitize(in, Options{PreserveTooltip: true})
	if err != nil {
		t.Fatal(err)
	}
	want := `<svg><rect data-tooltip="5 &quot;big&quot; &amp; more" fill="red" x="1"/></svg>`
	if got := doc.String(); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	tooltip, _ := doc.Root().Children[0].Attr(TooltipAttr)
	if tooltip != `5 "big" & more` {
		t.Errorf("unexpected tooltip %q", tooltip)
	}
}

func TestBareAmpersandsAndControlChars(t *testing.T) {
	doc, err := Sanitize("<svg><text>AT&T &copy; &foo a\x01b</text></svg>", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := doc.String(), "<svg><text>AT&amp;T \u00a9 &amp;foo ab</text></svg>"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNoGraph(t *testing.T) {
	for _, in := range []string{"", "hello", "<div><p>nothing</p></div>", "<svgx></svgx>"} {
		if _, err := Sanitize(in, Options{}); err != ErrNoGraphFound {
			t.Errorf("%q: expected ErrNoGraphFound, got %v", in, err)
		}
		if HasGraph(in) {
			t.Errorf("%q: unexpected graph", in)
		}
	}
	if _, err := Sanitize(`<html><body><div><svg width="2"/></div></body></html>`, Options{}); err != nil {
		t.Errorf("nested svg should be found: %s", err)
	}
	if !HasGraph(`<div><svg/></div>`) {
		t.Error("expected a graph")
	}
}

func TestSanitizationFailure(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	_, err := Sanitize(`<svg><rect a"b="1"/></svg>`, Options{Logger: logger})
	var serr *SanitizationError
	if !errors.As(err, &serr) {
		t.Fatalf("expected a SanitizationError, got %v", err)
	}
	if serr.Line != 1 || serr.Offset <= 0 || serr.Diagnostic == "" {
		t.Errorf("incomplete diagnostic: %+v", serr)
	}
	if !strings.Contains(serr.Excerpt, `a"b`) {
		t.Errorf("excerpt should show the faulty markup: %q", serr.Excerpt)
	}
	var se *svgdom.SyntaxError
	if !errors.As(err, &se) {
		t.Error("the parser error should be wrapped")
	}
	if !strings.Contains(logs.String(), "offset=") || !strings.Contains(logs.String(), "length=") {
		t.Errorf("failure should be logged with its position: %s", logs.String())
	}
}

func TestHTMLTagsInsideWellFormedGraph(t *testing.T) {
	doc, err := Sanitize(`<svg><rect class="a"/><p>x</p><rect class="b"/></svg>`, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := doc.String(), `<svg><rect class="a"/><p>x</p><rect class="b"/></svg>`; got != want {
		t.Errorf("got %s, want %s", got, want)
	}

	doc, err = Sanitize(`<div><svg width="3"><g><font color="red">f</font></g><rect class="day-cell"/></svg></div>`, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(doc.String(), `<rect class="day-cell"/>`) {
		t.Errorf("cell lost: %s", doc.String())
	}
}

func TestHTMLTagsInsideMalformedGraph(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	in := `<svg><rect class="a"/><text>&nbsp;</text><p>x</p><rect class="b"/></svg>`
	_, err := Sanitize(in, Options{Logger: logger})
	var serr *SanitizationError
	if !errors.As(err, &serr) {
		t.Fatalf("expected a SanitizationError, got %v", err)
	}
	if !errors.Is(err, ErrHTMLContent) {
		t.Errorf("expected ErrHTMLContent, got %v", err)
	}
	if serr.Offset != int64(strings.Index(in, "<p>")) || serr.Line != 1 {
		t.Errorf("unexpected position %d:%d", serr.Line, serr.Offset)
	}
	if !strings.Contains(serr.Diagnostic, "<p>") || !strings.Contains(serr.Excerpt, "<p>x</p>") {
		t.Errorf("unexpected diagnostic %q %q", serr.Diagnostic, serr.Excerpt)
	}
	if !strings.Contains(logs.String(), "offset=") {
		t.Errorf("failure should be logged: %s", logs.String())
	}

	doc, err := Sanitize(`<svg><g><rect/></g><text>&nbsp;</text><rect/></svg>`, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := doc.String(), "<svg><g><rect/></g><text>\u00a0</text><rect/></svg>"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
