// Implements a PDF backend for the graph export,
// by wrapping github.com/jung-kurt/gofpdf.
//
// The graph is first rasterized, then placed on a single page
// whose size matches the graph, one point per CSS pixel.
package svgpdf

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/benoitkugler/contribgraph/svgdom"
	"github.com/jung-kurt/gofpdf"
)

const imageName = "graph"

// Renderer writes a rasterized graph into a PDF document.
type Renderer struct {
	Title   string // optional document title
	Creator string // optional producing application
}

// Render returns a one page PDF showing pngData, stretched over a page
// of the given size.
func (r Renderer) Render(pngData []byte, size svgdom.Size) ([]byte, error) {
	if len(pngData) == 0 {
		return nil, errors.New("svgpdf: empty image")
	}
	if size.Width <= 0 || size.Height <= 0 {
		return nil, fmt.Errorf("svgpdf: invalid page size %gx%g", size.Width, size.Height)
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: size.Width, Ht: size.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	if r.Title != "" {
		pdf.SetTitle(r.Title, true)
	}
	if r.Creator != "" {
		pdf.SetCreator(r.Creator, true)
	}
	pdf.AddPage()

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(imageName, opts, bytes.NewReader(pngData))
	pdf.ImageOptions(imageName, 0, 0, size.Width, size.Height, false, opts, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("svgpdf: %w", err)
	}
	return out.Bytes(), nil
}

// Render uses a default Renderer.
func Render(pngData []byte, size svgdom.Size) ([]byte, error) {
	return Renderer{}.Render(pngData, size)
}
