// Package graphapi is a client for the contribution graph service.
package graphapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/benoitkugler/contribgraph/themes"
)

// DefaultBaseURL is the public graph service.
const DefaultBaseURL = "https://github-contribution-graph-generator.vercel.app"

// maxBody bounds the size of a response.
const maxBody = 10 << 20

var errTooLarge = errors.New("graphapi: response too large")

// StatusError is returned for a non 2xx response.
type StatusError struct {
	Op   string // GET years, POST graph
	Code int
	Body string // beginning of the response body
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("graphapi: %s failed (%d)", e.Op, e.Code)
	}
	return fmt.Sprintf("graphapi: %s failed (%d): %s", e.Op, e.Code, e.Body)
}

// Client fetches graphs for one service.
type Client struct {
	base string
	http *http.Client
}

// New returns a client for baseURL (DefaultBaseURL if empty).
// A zero timeout means no timeout, besides the request context.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

type yearsResponse struct {
	Years []int `json:"years_in_git"`
}

// Years returns the years for which user has contributions.
func (c *Client) Years(ctx context.Context, user string) ([]int, error) {
	u := c.base + "/graph/years/" + url.PathEscape(user)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req, "GET years")
	if err != nil {
		return nil, err
	}
	var out yearsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("graphapi: decoding years: %w", err)
	}
	return out.Years, nil
}

type graphRequest struct {
	Palette themes.Palette `json:"palette"`
}

// Graph returns the SVG markup of the graph of user for year,
// drawn with palette.
func (c *Client) Graph(ctx context.Context, user string, year int, palette themes.Palette) (string, error) {
	body, err := json.Marshal(graphRequest{Palette: palette})
	if err != nil {
		return "", fmt.Errorf("graphapi: encoding request: %w", err)
	}
	u := c.base + "/custom/" + url.PathEscape(user) + "?year=" + strconv.Itoa(year)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	svg, err := c.do(req, "POST graph")
	if err != nil {
		return "", err
	}
	return string(svg), nil
}

func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graphapi: %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("graphapi: %s: reading body: %w", op, err)
	}
	if len(b) > maxBody {
		return nil, errTooLarge
	}
	return b, nil
}
