package parser

// NewlineCounts tallies the newline styles seen by a Cursor
type NewlineCounts struct {
	Unix    int // LF
	Windows int // CR+LF, and the rare LF+CR
	Mac     int // lone CR
}

// Total returns the number of logical newlines consumed
func (n NewlineCounts) Total() int {
	return n.Unix + n.Windows + n.Mac
}

// Cursor is a read-only view over one file's bytes plus the scan position.
// Cursors over different files share no state.
type Cursor struct {
	Source string // File the bytes came from, used in diagnostics

	buf      []byte
	off      int
	end      int
	line     int
	newlines NewlineCounts
}

// NewCursor creates a cursor positioned at the start of buf
func NewCursor(source string, buf []byte) *Cursor {
	return &Cursor{
		Source: source,
		buf:    buf,
		end:    len(buf),
		line:   1,
	}
}

// Offset returns the current byte offset
func (c *Cursor) Offset() int { return c.off }

// Line returns the current 1-based line number
func (c *Cursor) Line() int { return c.line }

// Newlines returns the per-style newline counts so far
func (c *Cursor) Newlines() NewlineCounts { return c.newlines }

// EOF reports whether the cursor has reached the end of the buffer
func (c *Cursor) EOF() bool { return c.off >= c.end }

// Remaining returns the number of unread bytes
func (c *Cursor) Remaining() int { return c.end - c.off }

// Peek returns the byte at the cursor without consuming it
func (c *Cursor) Peek() (byte, bool) {
	if c.EOF() {
		return 0, false
	}
	return c.buf[c.off], true
}

// PeekAt returns the byte n positions past the cursor
func (c *Cursor) PeekAt(n int) (byte, bool) {
	if c.off+n >= c.end || n < 0 {
		return 0, false
	}
	return c.buf[c.off+n], true
}

// HasPrefix reports whether the unread bytes start with tok in full.
// A token cut short by the end of the buffer does not match.
func (c *Cursor) HasPrefix(tok string) bool {
	if len(tok) > c.Remaining() {
		return false
	}
	return string(c.buf[c.off:c.off+len(tok)]) == tok
}

// Advance moves the cursor forward n bytes, clamped to the end of the buffer.
// It must not be used to step over newline bytes; line accounting only
// happens in AdvanceNewline.
func (c *Cursor) Advance(n int) {
	c.off += n
	if c.off > c.end {
		c.off = c.end
	}
}

// slice returns the bytes in [from, to) as a string
func (c *Cursor) slice(from, to int) string {
	return string(c.buf[from:to])
}

// AtNewline reports whether the cursor sits on a newline-start byte
func (c *Cursor) AtNewline() bool {
	b, ok := c.Peek()
	return ok && isNewline(b)
}

// AdvanceNewline consumes exactly one logical newline. It returns false and
// leaves the cursor untouched when the current byte does not start one.
//
// Patterns are tried in order: CR+LF, LF+CR, lone CR, lone LF.
func (c *Cursor) AdvanceNewline() bool {
	b, ok := c.Peek()
	if !ok || !isNewline(b) {
		return false
	}

	next, hasNext := c.PeekAt(1)
	switch {
	case b == '\r' && hasNext && next == '\n':
		c.newlines.Windows++
		c.off += 2
	case b == '\n' && hasNext && next == '\r':
		c.newlines.Windows++
		c.off += 2
	case b == '\r':
		c.newlines.Mac++
		c.off++
	default:
		c.newlines.Unix++
		c.off++
	}
	c.line++
	return true
}

// SkipWhitespace consumes spaces and tabs. Newline bytes are left in place so
// callers can tell a line break from whitespace within a line.
func (c *Cursor) SkipWhitespace() bool {
	start := c.off
	for c.off < c.end && isBlank(c.buf[c.off]) {
		c.off++
	}
	return c.off > start
}

// skipLine advances up to, but not over, the next newline byte
func (c *Cursor) skipLine() {
	for c.off < c.end && !isNewline(c.buf[c.off]) {
		c.off++
	}
}

func isNewline(b byte) bool {
	return b == '\n' || b == '\r'
}

func isBlank(b byte) bool {
	return b == ' ' || b == '\t'
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
