package svgclean

import (
	"regexp"
	"strings"
)

// ASCII control characters, except TAB, LF and CR
var controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)

// what may follow a '&' which is already escaped
var entityRef = regexp.MustCompile(`^(?:amp|lt|gt|quot|apos|#[0-9]+|#x[0-9a-fA-F]+);`)

func stripControlChars(s string) string {
	return controlChars.ReplaceAllString(s, "")
}

// escapeBareAmpersands rewrites every '&' which does not start
// a predefined entity or a numeric character reference.
func escapeBareAmpersands(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '&' && !entityRef.MatchString(s[i+1:]) {
			b.WriteString("&amp;")
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// escapeAttrQuotes escapes double quotes found inside a double quoted
// attribute value. A quote closes the value only when followed by the
// end of the tag or, after some spaces, by the next name="...".
func escapeAttrQuotes(s string) string {
	var (
		b              strings.Builder
		inTag, inValue bool
	)
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inValue:
			if c == '"' {
				if closesValue(s, i+1) {
					inValue = false
				} else {
					b.WriteString("&quot;")
					continue
				}
			}
		case inTag:
			if c == '>' {
				inTag = false
			} else if c == '"' && i > 0 && s[i-1] == '=' {
				inValue = true
			}
		case c == '<':
			inTag = true
		}
		b.WriteByte(c)
	}
	return b.String()
}

func closesValue(s string, i int) bool {
	j := i
	for j < len(s) && isSpace(s[j]) {
		j++
	}
	if j == len(s) || s[j] == '>' || strings.HasPrefix(s[j:], "/>") {
		return true
	}
	if j == i {
		return false
	}
	k := j
	for k < len(s) && isNameByte(s[k]) {
		k++
	}
	return k > j && strings.HasPrefix(s[k:], `="`)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isNameByte(c byte) bool {
	return 'A' <= c && c <= 'Z' || 'a' <= c && c <= 'z' ||
		'0' <= c && c <= '9' || c == '_' || c == ':' || c == '.' || c == '-'
}
