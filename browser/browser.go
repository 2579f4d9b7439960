// Package browser keeps track of the graphs of one user:
// it fetches them by (year, theme), caches them for the session
// and remembers which one is displayed.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/benoitkugler/contribgraph/svgexport"
	"github.com/benoitkugler/contribgraph/themes"
)

var (
	ErrUnknownTheme = errors.New("browser: unknown theme")
	ErrNoSelection  = errors.New("browser: no graph selected")
	// ErrSuperseded is returned by Select when a newer selection
	// was made before the graph was fetched.
	ErrSuperseded = errors.New("browser: selection superseded")
)

// Fetcher is implemented by *graphapi.Client.
type Fetcher interface {
	Years(ctx context.Context, user string) ([]int, error)
	Graph(ctx context.Context, user string, year int, palette themes.Palette) (string, error)
}

// Key identifies a graph of the user.
type Key struct {
	Year  int
	Theme string
}

func (k Key) String() string { return fmt.Sprintf("%d/%s", k.Year, k.Theme) }

// Browser is safe for concurrent use.
type Browser struct {
	user     string
	api      Fetcher
	pipeline *svgexport.Pipeline
	logger   *slog.Logger

	mu        sync.Mutex
	cache     map[Key]string
	selected  uint64 // incremented by each Select
	cancel    context.CancelFunc
	current   Key
	displayed string // empty when nothing is displayed
}

func New(api Fetcher, user string, pipeline *svgexport.Pipeline, logger *slog.Logger) *Browser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Browser{
		user:     user,
		api:      api,
		pipeline: pipeline,
		logger:   logger,
		cache:    make(map[Key]string),
	}
}

// User returns the user whose graphs are browsed.
func (b *Browser) User() string { return b.user }

// Years is not cached.
func (b *Browser) Years(ctx context.Context) ([]int, error) {
	return b.api.Years(ctx, b.user)
}

// Graph returns the markup of a graph, fetching it on the first call.
func (b *Browser) Graph(ctx context.Context, year int, theme string) (string, error) {
	t, ok := themes.Lookup(theme)
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownTheme, theme)
	}
	key := Key{Year: year, Theme: t.Name}

	b.mu.Lock()
	svg, ok := b.cache[key]
	b.mu.Unlock()
	if ok {
		return svg, nil
	}

	b.logger.Debug("browser: fetching graph", "user", b.user, "graph", key.String())
	svg, err := b.api.Graph(ctx, b.user, year, t.Palette())
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	b.cache[key] = svg
	b.mu.Unlock()
	return svg, nil
}

// Invalidate drops a cached graph, so that the next call refetches it.
func (b *Browser) Invalidate(year int, theme string) {
	if t, ok := themes.Lookup(theme); ok {
		theme = t.Name
	}
	b.mu.Lock()
	delete(b.cache, Key{Year: year, Theme: theme})
	b.mu.Unlock()
}

// Select fetches a graph and displays it. A previous Select still
// in flight is cancelled and returns ErrSuperseded, so that a stale
// graph is never displayed.
func (b *Browser) Select(ctx context.Context, year int, theme string) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	if b.cancel != nil {
		b.cancel()
	}
	b.selected++
	id := b.selected
	b.cancel = cancel
	b.mu.Unlock()

	svg, err := b.Graph(ctx, year, theme)

	b.mu.Lock()
	defer b.mu.Unlock()
	if id != b.selected {
		return "", ErrSuperseded
	}
	b.cancel = nil
	cancel()
	if err != nil {
		return "", err
	}
	t, _ := themes.Lookup(theme)
	b.current, b.displayed = Key{Year: year, Theme: t.Name}, svg
	return svg, nil
}

// Current returns the displayed graph.
func (b *Browser) Current() (Key, string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current, b.displayed, b.displayed != ""
}

// Export encodes the displayed graph and returns the payload
// with its download file name.
func (b *Browser) Export(ctx context.Context, format svgexport.Format) (*svgexport.Payload, string, error) {
	key, svg, ok := b.Current()
	if !ok {
		return nil, "", ErrNoSelection
	}
	p, err := b.pipeline.Export(ctx, svg, format)
	if err != nil {
		return nil, "", err
	}
	return p, svgexport.Filename(b.user, key.Year, key.Theme, format), nil
}

// Close cancels the selection in flight, if any.
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
}
