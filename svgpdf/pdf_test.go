package svgpdf

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/benoitkugler/contribgraph/svgdom"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func pngFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 0x39, G: 0xd3, B: 0x53, A: 0xff})
		}
	}
	var b bytes.Buffer
	if err := png.Encode(&b, img); err != nil {
		t.Fatal(err)
	}
	return b.Bytes()
}

func TestRender(t *testing.T) {
	out, err := Renderer{Title: "alice 2023", Creator: "contribgraph"}.Render(pngFixture(t, 60, 20), svgdom.Size{Width: 30, Height: 10})
	if err != nil {
		t.Fatalf("can't render pdf: %s", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("unexpected header %q", out[:8])
	}

	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(out), model.NewDefaultConfiguration())
	if err != nil {
		t.Fatalf("invalid pdf: %s", err)
	}
	if ctx.PageCount != 1 {
		t.Errorf("expected one page, got %d", ctx.PageCount)
	}
}

func TestRenderInvalid(t *testing.T) {
	if _, err := Render(nil, svgdom.Size{Width: 1, Height: 1}); err == nil {
		t.Error("empty image should be rejected")
	}
	if _, err := Render(pngFixture(t, 2, 2), svgdom.Size{}); err == nil {
		t.Error("empty page should be rejected")
	}
	if _, err := Render([]byte("not a png"), svgdom.Size{Width: 1, Height: 1}); err == nil {
		t.Error("invalid image should be rejected")
	}
}
