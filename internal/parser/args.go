package parser

import (
	"regexp"
	"strings"
)

// Args is the parsed argument list following a directive
type Args struct {
	Unnamed []string
	Named   map[string]string
}

// NewArgs creates an empty argument set
func NewArgs() *Args {
	return &Args{Named: make(map[string]string)}
}

var (
	quotedNamedRe = regexp.MustCompile(`^([a-zA-Z]+)\s*=\s*"([^"]+)"$`)
	quotedRe      = regexp.MustCompile(`^"([^"]+)"$`)
	unquotedRe    = regexp.MustCompile(`^[^"]+$`)
)

// ParseArgs consumes a brace-delimited, comma-separated argument list at the
// cursor. The cursor must sit just past the directive token.
//
// One line break is allowed before the opening brace and before each value;
// two in a row mean the directive was abandoned in a new paragraph. Named
// values are terminal: once one appears, every following value must be named.
func ParseArgs(c *Cursor) (*Args, error) {
	c.SkipWhitespace()
	if c.AdvanceNewline() {
		c.SkipWhitespace()
		if c.AtNewline() {
			return nil, malformed(c, "a new paragraph was found before the arguments")
		}
	}

	b, ok := c.Peek()
	if !ok {
		return nil, malformed(c, "end of file reached before finding arguments")
	}
	if b != '{' {
		return nil, malformed(c, "expected '{' but found %q", b)
	}
	c.Advance(1)

	args := NewArgs()
	namedReached := false
	for {
		if err := skipArgGap(c, "a new paragraph was found in the middle of the argument list"); err != nil {
			return nil, err
		}

		raw, err := scanValue(c)
		if err != nil {
			return nil, err
		}
		value := strings.TrimRight(raw, " \t")

		if err := skipArgGap(c, "a new paragraph was found after an argument"); err != nil {
			return nil, err
		}
		delim, ok := c.Peek()
		if !ok {
			return nil, malformed(c, "unterminated argument list")
		}
		if delim != ',' && delim != '}' {
			return nil, malformed(c, "expected ',' or '}' after %q", value)
		}
		c.Advance(1)

		if value == "" {
			if delim == '}' {
				return args, nil
			}
			return nil, malformed(c, "empty argument")
		}

		switch m := classify(value); {
		case m.named:
			if _, dup := args.Named[m.name]; dup {
				return nil, malformed(c, "named argument %q given twice", m.name)
			}
			args.Named[m.name] = m.value
			namedReached = true
		case m.ok:
			if namedReached {
				return nil, malformed(c, "unnamed argument %q follows a named argument", m.value)
			}
			args.Unnamed = append(args.Unnamed, m.value)
		default:
			return nil, malformed(c, "malformed argument %q", value)
		}

		if delim == '}' {
			return args, nil
		}
	}
}

// skipArgGap consumes whitespace and at most one newline (plus the
// whitespace after it). A second newline is reported with msg.
func skipArgGap(c *Cursor, msg string) error {
	c.SkipWhitespace()
	if c.AdvanceNewline() {
		c.SkipWhitespace()
		if c.AtNewline() {
			return malformed(c, "%s", msg)
		}
	}
	return nil
}

// scanValue returns the bytes up to the next ',', '}' or newline. Delimiters
// inside double quotes do not end the value.
func scanValue(c *Cursor) (string, error) {
	start := c.off
	inQuote := false
	for c.off < c.end {
		b := c.buf[c.off]
		switch {
		case b == '"':
			inQuote = !inQuote
		case isNewline(b):
			if inQuote {
				return "", malformed(c, "unterminated quoted value")
			}
			return c.slice(start, c.off), nil
		case !inQuote && (b == ',' || b == '}'):
			return c.slice(start, c.off), nil
		}
		c.off++
	}
	if inQuote {
		return "", malformed(c, "unterminated quoted value")
	}
	return "", malformed(c, "unterminated argument list")
}

type argMatch struct {
	ok    bool
	named bool
	name  string
	value string
}

// classify tests quoted-named, quoted, then unquoted forms in that order
func classify(s string) argMatch {
	if m := quotedNamedRe.FindStringSubmatch(s); m != nil {
		return argMatch{ok: true, named: true, name: m[1], value: m[2]}
	}
	if m := quotedRe.FindStringSubmatch(s); m != nil {
		return argMatch{ok: true, value: m[1]}
	}
	if unquotedRe.MatchString(s) {
		return argMatch{ok: true, value: s}
	}
	return argMatch{}
}
