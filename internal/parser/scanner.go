package parser

import (
	"errors"
	"fmt"
)

// Scanner walks a Cursor and dispatches every recognized trigger to its
// handler. It holds no per-file state and may be reused across files, but
// not concurrently.
type Scanner struct {
	table *Table

	// Recover decides whether scanning continues after a handler error.
	// Returning false stops the scan and hands the error to the caller.
	// A nil Recover stops on every error.
	Recover func(err error) bool

	// Aborted is polled between directives. A nil Aborted never aborts.
	Aborted func() bool
}

// NewScanner creates a scanner over the given trigger table
func NewScanner(table *Table) *Scanner {
	return &Scanner{table: table}
}

// Scan runs the cursor to the end of its buffer. Handler errors are annotated
// with file, line and directive before Recover sees them.
func (s *Scanner) Scan(c *Cursor) error {
	for !c.EOF() {
		if s.Aborted != nil && s.Aborted() {
			return ErrAborted
		}

		if tr, ok := s.table.Match(c); ok {
			d := Directive{Token: tr.Token, Kind: tr.Kind, Line: c.Line()}
			c.Advance(len(tr.Token))
			if err := tr.Handler(c, d); err != nil {
				err = annotate(err, c, d)
				if s.Recover == nil || !s.Recover(err) {
					return err
				}
			}
			continue
		}

		if c.AdvanceNewline() {
			for c.AdvanceNewline() {
			}
			continue
		}
		if c.SkipWhitespace() {
			continue
		}

		b, _ := c.Peek()
		switch b {
		case '%':
			c.skipLine()
		case '\\':
			// Escaped pair, so \% does not open a comment
			c.Advance(1)
			if !c.EOF() && !c.AtNewline() {
				c.Advance(1)
			}
		default:
			c.Advance(1)
		}
	}
	return nil
}

// annotate attaches the position and construct to a handler error
func annotate(err error, c *Cursor, d Directive) error {
	var pe *Error
	if errors.As(err, &pe) {
		if pe.File == "" {
			pe.File = c.Source
		}
		if pe.Line == 0 {
			pe.Line = d.Line
		}
		if pe.Construct == "" {
			pe.Construct = d.Token
		}
		return pe
	}
	return fmt.Errorf("%s:%d: %s: %w", c.Source, d.Line, d.Token, err)
}
