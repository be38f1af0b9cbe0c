package extract

import "strings"

// Repair is a pure text transformation applied to a candidate JSON span.
type Repair func(string) string

// DefaultRepairs is the ordered repair pipeline. Each step runs once.
var DefaultRepairs = []Repair{StripTrailingCommas, StripComments}

// Apply runs repairs over text in order.
func Apply(text string, repairs ...Repair) string {
	for _, repair := range repairs {
		text = repair(text)
	}
	return text
}

// StripTrailingCommas removes a comma that is followed only by whitespace
// and then '}' or ']'. Commas inside string literals are kept.
func StripTrailingCommas(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	inString, escaped := false, false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case ',':
			if next := nextNonSpace(text, i+1); next < len(text) && (text[next] == '}' || text[next] == ']') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// StripComments removes // line comments and /* */ block comments outside
// string literals. Line comments keep their terminating newline. An
// unterminated block comment is left untouched.
func StripComments(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	inString, escaped := false, false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		if c == '/' && i+1 < len(text) {
			switch text[i+1] {
			case '/':
				end := strings.IndexByte(text[i:], '\n')
				if end < 0 {
					return b.String()
				}
				i += end - 1
				continue
			case '*':
				end := strings.Index(text[i+2:], "*/")
				if end >= 0 {
					i += end + 3
					continue
				}
			}
		}

		if c == '"' {
			inString = true
		}
		b.WriteByte(c)
	}
	return b.String()
}

func nextNonSpace(text string, from int) int {
	for from < len(text) {
		switch text[from] {
		case ' ', '\t', '\n', '\r':
			from++
		default:
			return from
		}
	}
	return from
}
