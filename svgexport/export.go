// Package svgexport converts a contribution graph, as fetched
// from the graph service, into a downloadable payload.
//
// Every export runs the same steps, strictly in order:
// sanitize, resolve the size, rasterize, encode.
// Only the steps needed by the requested Format are run.
package svgexport

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/benoitkugler/contribgraph/svgcells"
	"github.com/benoitkugler/contribgraph/svgclean"
	"github.com/benoitkugler/contribgraph/svgdom"
	"github.com/benoitkugler/contribgraph/svgpdf"
	"github.com/benoitkugler/contribgraph/svgraster"
	"github.com/google/uuid"
)

// Errors returned by Export. Use errors.Is and errors.As
// to tell them apart.
var (
	ErrNoGraphFound  = svgclean.ErrNoGraphFound
	ErrImageTooLarge = svgraster.ErrImageTooLarge
	ErrUnknownFormat = errors.New("svgexport: unknown format")
)

type (
	SanitizationError = svgclean.SanitizationError
	DecodeError       = svgraster.DecodeError
	EncodeError       = svgraster.EncodeError
)

// Payload is the result of a successful export.
type Payload struct {
	Data        []byte
	ContentType string
	Format      Format
	Size        svgdom.Size // resolved graph size, zero for svg and json
}

// Options configures a Pipeline.
type Options struct {
	// CleanSVG returns the sanitized markup for the svg format,
	// instead of the markup as fetched.
	CleanSVG bool

	// PreserveTooltip keeps the data-tooltip attributes
	// in the cleaned svg format. Image formats always drop them.
	PreserveTooltip bool

	Raster svgraster.Options
	PDF    svgpdf.Renderer

	Logger *slog.Logger
	Now    func() time.Time // timestamp of the json format, defaults to time.Now
}

// Pipeline exports graphs. It has no mutable state and may be
// used concurrently.
type Pipeline struct {
	opts Options
}

func New(opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{opts: opts}
}

// Export encodes raw in the given format.
// On error, the returned payload is always nil.
func (p *Pipeline) Export(ctx context.Context, raw string, format Format) (*Payload, error) {
	if !format.valid() {
		return nil, ErrUnknownFormat
	}
	logger := p.opts.Logger.With("export", uuid.NewString(), "format", format.String())
	start := time.Now()
	logger.Debug("svgexport: starting", "length", len(raw))

	payload, err := p.export(ctx, raw, format, logger)
	if err != nil {
		logger.Error("svgexport: export failed", "length", len(raw), "err", err)
		return nil, err
	}
	logger.Info("svgexport: exported", "bytes", len(payload.Data), "elapsed", time.Since(start))
	return payload, nil
}

// ExportAsync runs Export on a new goroutine and reports its
// result to done.
func (p *Pipeline) ExportAsync(ctx context.Context, raw string, format Format, done func(*Payload, error)) {
	go func() {
		done(p.Export(ctx, raw, format))
	}()
}

func (p *Pipeline) export(ctx context.Context, raw string, format Format, logger *slog.Logger) (*Payload, error) {
	out := &Payload{Format: format, ContentType: format.ContentType()}
	switch format {
	case FormatSVG:
		data, err := p.exportSVG(raw, logger)
		if err != nil {
			return nil, err
		}
		out.Data = data
	case FormatJSON:
		data, err := svgcells.Marshal(svgcells.Extract(raw, p.opts.Now()))
		if err != nil {
			return nil, err
		}
		out.Data = data
	case FormatPNG, FormatPDF:
		doc, err := svgclean.Sanitize(raw, svgclean.Options{Logger: logger})
		if err != nil {
			return nil, err
		}
		out.Size = svgdom.ResolveSize(doc.Root())
		data, err := svgraster.RasterizePNG(ctx, doc, p.opts.Raster)
		if err != nil {
			return nil, err
		}
		if format == FormatPDF {
			data, err = p.opts.PDF.Render(data, out.Size)
			if err != nil {
				return nil, err
			}
		}
		out.Data = data
	}
	return out, nil
}

func (p *Pipeline) exportSVG(raw string, logger *slog.Logger) ([]byte, error) {
	if !p.opts.CleanSVG {
		if !svgclean.HasGraph(raw) {
			return nil, ErrNoGraphFound
		}
		return []byte(raw), nil
	}
	doc, err := svgclean.Sanitize(raw, svgclean.Options{PreserveTooltip: p.opts.PreserveTooltip, Logger: logger})
	if err != nil {
		return nil, err
	}
	return []byte(doc.String()), nil
}
