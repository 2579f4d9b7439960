package svgdom

import (
	"errors"
	"testing"
)

func TestParseKeepsOrderAndPrefixes(t *testing.T) {
	text := `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="10"><use xlink:href="#a" x="1"/><text>a &amp; b</text></svg>`
	doc, err := Parse(text)
	if err != nil {
		t.Fatal(err)
	}
	root := doc.Root()
	if root.Name != "svg" {
		t.Fatalf("unexpected root %q", root.Name)
	}
	wantAttrs := []string{"xmlns", "xmlns:xlink", "width"}
	for i, a := range root.Attrs {
		if a.Name != wantAttrs[i] {
			t.Errorf("attribute %d: got %q, want %q", i, a.Name, wantAttrs[i])
		}
	}
	if len(root.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(root.Children))
	}
	if href, _ := root.Children[0].Attr("xlink:href"); href != "#a" {
		t.Errorf("unexpected href %q", href)
	}
	if got := root.Children[1].Children[0].Text; got != "a & b" {
		t.Errorf("unexpected text %q", got)
	}
	if doc.String() != text {
		t.Error("document text should be kept as validated")
	}
	if out := Serialize(root); out != text {
		t.Errorf("serialization mismatch:\n got %s\nwant %s", out, text)
	}
}

func TestValidateErrors(t *testing.T) {
	for _, text := range []string{
		`<svg><g></svg>`,
		`<svg>&nbsp;</svg>`,
		`<svg a="1" a"b="2"/>`,
		"<svg>\x01</svg>",
	} {
		err := Validate(text)
		var se *SyntaxError
		if !errors.As(err, &se) {
			t.Errorf("%q: expected a syntax error, got %v", text, err)
			continue
		}
		if se.Line < 1 || se.Offset <= 0 {
			t.Errorf("%q: position not reported: %+v", text, se)
		}
	}

	if err := Validate("   "); err != ErrNoElement {
		t.Errorf("expected ErrNoElement, got %v", err)
	}
}

func TestCopyIsIndependent(t *testing.T) {
	doc, err := Parse(`<svg width="3"><rect fill="red"/></svg>`)
	if err != nil {
		t.Fatal(err)
	}
	cp := doc.Root().Copy()
	cp.SetAttr("width", "5")
	cp.Children[0].SetAttr("fill", "blue")
	cp.SetAttr("xmlns", "http://www.w3.org/2000/svg")

	if w, _ := doc.Root().Attr("width"); w != "3" {
		t.Errorf("original modified: width=%s", w)
	}
	if f, _ := doc.Root().Children[0].Attr("fill"); f != "red" {
		t.Errorf("original modified: fill=%s", f)
	}
	if cp.Children[0].Parent != cp {
		t.Error("copied child should point to the copied parent")
	}
	if got := Serialize(cp); got != `<svg width="5" xmlns="http://www.w3.org/2000/svg"><rect fill="blue"/></svg>` {
		t.Errorf("unexpected serialization %s", got)
	}
}

func TestEscaping(t *testing.T) {
	root := NewElement("svg", Attr{Name: "data-tooltip", Value: `say "hi" & <bye>`})
	root.Append(NewText(`1 < 2 & "3"`))
	got := Serialize(root)
	want := `<svg data-tooltip="say &quot;hi&quot; &amp; &lt;bye&gt;">1 &lt; 2 &amp; "3"</svg>`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	if err := Validate(got); err != nil {
		t.Error(err)
	}
}

func TestWhitespaceReferencesSurvive(t *testing.T) {
	doc, err := Parse("<svg id=\"a&#x9;b&#xA;c&#xD;d\"><text>x&#13;y</text></svg>")
	if err != nil {
		t.Fatal(err)
	}
	root := doc.Root()
	if v, _ := root.Attr("id"); v != "a\tb\nc\rd" {
		t.Fatalf("unexpected attribute %q", v)
	}
	out := Serialize(root)
	want := `<svg id="a&#x9;b&#xA;c&#xD;d"><text>x&#xD;y</text></svg>`
	if out != want {
		t.Fatalf("got %s, want %s", out, want)
	}

	again, err := Parse(out)
	if err != nil {
		t.Fatal(err)
	}
	if got := Serialize(again.Root()); got != out {
		t.Errorf("serialization is not stable: %s", got)
	}
	if v, _ := again.Root().Attr("id"); v != "a\tb\nc\rd" {
		t.Errorf("unexpected attribute after reparse %q", v)
	}
}
