package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/benoitkugler/contribgraph/browser"
	"github.com/benoitkugler/contribgraph/graphapi"
	"github.com/benoitkugler/contribgraph/svgexport"
	"github.com/benoitkugler/contribgraph/themes"
)

type fakeAPI struct{}

func (fakeAPI) Years(ctx context.Context, user string) ([]int, error) {
	if user == "ghost" {
		return nil, &graphapi.StatusError{Op: "GET years", Code: 404}
	}
	return []int{2023}, nil
}

func (fakeAPI) Graph(ctx context.Context, user string, year int, palette themes.Palette) (string, error) {
	switch year {
	case 1999:
		return "<p>maintenance</p>", nil
	case 1998:
		return `<svg><rect a"b="1"/></svg>`, nil
	case 1997:
		return `<svg width="4000000000" height="4000000000"/>`, nil
	}
	return `<svg width="20" height="10"><rect class="day-cell" data-tooltip="1 contribution" fill="` +
		palette.Grade4 + `" x="1" y="2" width="5" height="5"/></svg>`, nil
}

func newServer(user string) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pipeline := svgexport.New(svgexport.Options{Logger: logger})
	return New(Config{AllowAll: true}, browser.New(fakeAPI{}, user, pipeline, logger), pipeline, logger)
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	w := get(newServer("alice"), "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	newServer("alice").Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestThemesAndYears(t *testing.T) {
	s := newServer("alice")
	w := get(s, "/api/themes")
	var ts []themeInfo
	if err := json.Unmarshal(w.Body.Bytes(), &ts); err != nil {
		t.Fatal(err)
	}
	if len(ts) != len(themes.Names()) || len(ts[0].Grades) != 5 {
		t.Errorf("unexpected themes %+v", ts)
	}

	w = get(s, "/api/years")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"years":[2023]`) {
		t.Errorf("unexpected years %d %s", w.Code, w.Body)
	}

	if w := get(newServer("ghost"), "/api/years"); w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", w.Code)
	}
}

func TestGraph(t *testing.T) {
	s := newServer("alice")
	for _, test := range []struct {
		path, contentType, filename string
	}{
		{"/api/graphs/2023/dracula.svg", "image/svg+xml", "alice_2023_dracula.svg"},
		{"/api/graphs/2023/Panda.png", "image/png", "alice_2023_panda.png"},
		{"/api/graphs/2023/blue.json", "application/json", "alice_2023_blue.json"},
		{"/api/graphs/2023/standard.pdf", "application/pdf", "alice_2023_standard.pdf"},
	} {
		w := get(s, test.path)
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d: %s", test.path, w.Code, w.Body)
			continue
		}
		if ct := w.Header().Get("Content-Type"); ct != test.contentType {
			t.Errorf("%s: unexpected content type %s", test.path, ct)
		}
		if cd := w.Header().Get("Content-Disposition"); cd != "attachment; filename="+test.filename {
			t.Errorf("%s: unexpected disposition %s", test.path, cd)
		}
	}
}

func TestGraphErrors(t *testing.T) {
	s := newServer("alice")
	for path, code := range map[string]int{
		"/api/graphs/abc/dracula.svg":  http.StatusBadRequest,
		"/api/graphs/2023/dracula.gif": http.StatusBadRequest,
		"/api/graphs/2023/YlGnBu.svg":  http.StatusNotFound,
		"/api/graphs/1999/dracula.png": http.StatusUnprocessableEntity,
		"/api/graphs/1998/dracula.png": http.StatusUnprocessableEntity,
		"/api/graphs/1997/dracula.png": http.StatusUnprocessableEntity,
		"/api/graphs/1997/dracula.pdf": http.StatusUnprocessableEntity,
	} {
		w := get(s, path)
		if w.Code != code {
			t.Errorf("%s: expected %d, got %d", path, code, w.Code)
		}
		if !strings.Contains(w.Body.String(), `"error"`) {
			t.Errorf("%s: expected an error body, got %s", path, w.Body)
		}
	}
}
