package svgexport

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Format is an export encoding.
type Format uint8

const (
	FormatSVG Format = iota
	FormatPNG
	FormatJSON
	FormatPDF
)

// Formats lists the supported encodings.
var Formats = []Format{FormatSVG, FormatPNG, FormatJSON, FormatPDF}

var formatInfos = [...]struct {
	name, contentType string
}{
	FormatSVG:  {"svg", "image/svg+xml"},
	FormatPNG:  {"png", "image/png"},
	FormatJSON: {"json", "application/json"},
	FormatPDF:  {"pdf", "application/pdf"},
}

func (f Format) valid() bool { return int(f) < len(formatInfos) }

// String returns the format name, which is also its file extension.
func (f Format) String() string {
	if !f.valid() {
		return "Format(" + strconv.Itoa(int(f)) + ")"
	}
	return formatInfos[f].name
}

// ContentType returns the MIME type of the payload.
func (f Format) ContentType() string {
	if !f.valid() {
		return "application/octet-stream"
	}
	return formatInfos[f].contentType
}

// ParseFormat is case insensitive and accepts a leading dot.
func ParseFormat(s string) (Format, error) {
	name := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")
	for _, f := range Formats {
		if formatInfos[f].name == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownFormat, s)
}

var unsafeThemeChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// Filename returns the conventional download name
// <user>_<year>_<theme>.<ext>, where the theme keeps only
// ASCII letters, digits, '_' and '-'.
func Filename(user string, year int, theme string, f Format) string {
	safeTheme := unsafeThemeChars.ReplaceAllString(theme, "")
	return fmt.Sprintf("%s_%d_%s.%s", user, year, safeTheme, f)
}
