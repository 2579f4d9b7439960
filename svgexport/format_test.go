package svgexport

import (
	"errors"
	"testing"
)

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"svg": FormatSVG, "PNG": FormatPNG, ".json": FormatJSON, " pdf ": FormatPDF,
	} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("%q: got %v %v, want %v", in, got, err, want)
		}
	}
	if _, err := ParseFormat("gif"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestFormatInfos(t *testing.T) {
	for _, f := range Formats {
		back, err := ParseFormat(f.String())
		if err != nil || back != f {
			t.Errorf("%s does not round trip", f)
		}
		if f.ContentType() == "" {
			t.Errorf("%s has no content type", f)
		}
	}
	if Format(9).String() != "Format(9)" {
		t.Error("unexpected name for invalid format")
	}
}

func TestFilename(t *testing.T) {
	for _, test := range []struct {
		user, theme string
		year        int
		format      Format
		want        string
	}{
		{"alice", "dracula", 2023, FormatPNG, "alice_2023_dracula.png"},
		{"alice", "solarizedDark", 2021, FormatJSON, "alice_2021_solarizedDark.json"},
		{"bob", "left pad/../é!", 2020, FormatSVG, "bob_2020_leftpad.svg"},
		{"bob", "a_b-c", 2019, FormatPDF, "bob_2019_a_b-c.pdf"},
	} {
		if got := Filename(test.user, test.year, test.theme, test.format); got != test.want {
			t.Errorf("got %s, want %s", got, test.want)
		}
	}
}
