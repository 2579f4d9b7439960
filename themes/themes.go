// Package themes holds the color palettes a graph can be requested with.
package themes

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed themes.yaml
var builtin []byte

// Theme is a named palette.
type Theme struct {
	Name       string    `yaml:"name"`
	Label      string    `yaml:"label"`
	Background string    `yaml:"background"`
	Text       string    `yaml:"text"`
	Grades     [5]string `yaml:"grades"` // from no contribution to most
}

// Palette returns the colors sent to the graph service.
func (t Theme) Palette() Palette {
	return Palette{
		Grade0: t.Grades[0],
		Grade1: t.Grades[1],
		Grade2: t.Grades[2],
		Grade3: t.Grades[3],
		Grade4: t.Grades[4],
	}
}

// Palette is the JSON body expected by the graph service.
type Palette struct {
	Grade0 string `json:"grade0"`
	Grade1 string `json:"grade1"`
	Grade2 string `json:"grade2"`
	Grade3 string `json:"grade3"`
	Grade4 string `json:"grade4"`
}

var all = mustParse(builtin)

func mustParse(b []byte) []Theme {
	ts, err := Parse(b)
	if err != nil {
		panic(err)
	}
	return ts
}

// Parse reads a YAML list of themes.
func Parse(b []byte) ([]Theme, error) {
	var ts []Theme
	if err := yaml.Unmarshal(b, &ts); err != nil {
		return nil, fmt.Errorf("themes: %w", err)
	}
	seen := map[string]bool{}
	for _, t := range ts {
		if t.Name == "" {
			return nil, fmt.Errorf("themes: missing name")
		}
		if seen[strings.ToLower(t.Name)] {
			return nil, fmt.Errorf("themes: duplicate theme %s", t.Name)
		}
		seen[strings.ToLower(t.Name)] = true
		for _, g := range t.Grades {
			if g == "" {
				return nil, fmt.Errorf("themes: %s: missing grade color", t.Name)
			}
		}
	}
	return ts, nil
}

// All returns the built-in themes, in display order.
func All() []Theme { return append([]Theme(nil), all...) }

// Names returns the names of the built-in themes.
func Names() []string {
	out := make([]string, len(all))
	for i, t := range all {
		out[i] = t.Name
	}
	return out
}

// Lookup is case insensitive.
func Lookup(name string) (Theme, bool) {
	for _, t := range all {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return Theme{}, false
}
