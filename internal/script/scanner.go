package script

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Separator divides a query body from its expected results.
const Separator = "----"

// Cursor tracks the scan position inside a script.
//
// A Cursor is not safe for concurrent use. It is created once per script,
// advanced record by record, and discarded when the script ends.
type Cursor struct {
	text []byte // complete script, never modified
	cur  int    // offset of the current line
	next int    // offset of the line after the current one

	line      string // current line, comment-free and normalized
	lineNum   int    // 1-based number of the current line
	startLine int    // line number of the active record's header

	started bool // Advance has been called at least once
	eof     bool // the last Advance ran off the end

	echo    bool
	echoOut io.Writer
	echoErr error

	tokens [MaxTokens]string
}

// New returns a cursor positioned before the first line of text.
// Lines are echoed to w while echo is enabled; w may be nil when echo is
// never turned on.
func New(text []byte, w io.Writer) *Cursor {
	return &Cursor{text: text, echoOut: w}
}

// Line returns the current line.
func (c *Cursor) Line() string { return c.line }

// LineNum returns the 1-based number of the current line.
func (c *Cursor) LineNum() int { return c.lineNum }

// StartLine returns the line number recorded by the last Tokenize.
func (c *Cursor) StartLine() int { return c.startLine }

// EOF reports whether the cursor has run past the last line.
func (c *Cursor) EOF() bool { return c.eof }

// Echo reports whether lines are currently echoed.
func (c *Cursor) Echo() bool { return c.echo }

// SetEcho turns echoing on or off and returns the previous setting.
func (c *Cursor) SetEcho(on bool) bool {
	prev := c.echo
	c.echo = on
	return prev
}

// Err returns the first error hit while writing echoed lines.
func (c *Cursor) Err() error { return c.echoErr }

// Advance moves to the next non-comment line. It returns false, leaving an
// empty current line, once the script is exhausted.
func (c *Cursor) Advance() bool {
	c.started = true
	for {
		if c.next >= len(c.text) {
			c.cur = len(c.text)
			c.line = ""
			c.eof = true
			return false
		}

		c.cur = c.next
		c.lineNum++
		end := bytes.IndexByte(c.text[c.cur:], '\n')
		if end < 0 {
			end = len(c.text)
			c.next = end
		} else {
			end += c.cur
			c.next = end + 1
		}

		raw := c.text[c.cur:end]
		raw = bytes.TrimSuffix(raw, []byte{'\r'})
		if len(bytes.TrimSpace(raw)) == 0 {
			raw = nil
		}
		c.line = string(raw)

		if c.echo {
			c.write(c.line)
		}

		if !isComment(c.line) {
			return true
		}
	}
}

// PeekIsBlank reports, without moving, whether the next non-comment line is
// blank or the script ends first.
func (c *Cursor) PeekIsBlank() bool {
	i := c.next
	for i < len(c.text) {
		end := bytes.IndexByte(c.text[i:], '\n')
		var raw []byte
		if end < 0 {
			raw = c.text[i:]
			i = len(c.text)
		} else {
			raw = c.text[i : i+end]
			i += end + 1
		}
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 {
			return true
		}
		if trimmed[0] != '#' {
			return false
		}
	}
	return true
}

// SeekNextRecord skips what is left of the current record and the blank
// lines after it, leaving the cursor on the first line of the next record.
// It returns false at end of script.
func (c *Cursor) SeekNextRecord() bool {
	if c.started {
		for c.line != "" && !c.eof {
			c.Advance()
		}
	} else {
		c.Advance()
	}

	for c.line == "" && !c.eof {
		c.Advance()
	}
	return !c.eof
}

// Body consumes the following lines up to the next blank line and returns
// them joined with newlines.
func (c *Cursor) Body() string {
	var sb strings.Builder
	for c.Advance() && c.line != "" {
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(c.line)
	}
	return sb.String()
}

// QueryBody consumes SQL lines up to a Separator line, a blank line or end
// of script. When the body ends at a blank line the cursor stays on the
// last SQL line, so the blank line has not been echoed yet.
func (c *Cursor) QueryBody() string {
	var sb strings.Builder
	for !c.PeekIsBlank() && c.Advance() && c.line != "" && c.line != Separator {
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(c.line)
	}
	return sb.String()
}

// AtSeparator reports whether the cursor rests on a Separator line.
func (c *Cursor) AtSeparator() bool { return c.line == Separator }

// Line is a script line and its 1-based line number.
type Line struct {
	Num  int
	Text string
}

// Expected consumes the rest of a query record with echo disabled. Lines
// after a Separator are returned; without one the result is empty. The
// cursor is left on the blank line ending the record, or at end of script.
func (c *Cursor) Expected() []Line {
	prev := c.SetEcho(false)
	defer c.SetEcho(prev)

	sep := c.AtSeparator()
	var lines []Line
	for c.line != "" && !c.eof {
		if !c.Advance() || c.line == "" {
			break
		}
		if sep {
			lines = append(lines, Line{Num: c.lineNum, Text: c.line})
		}
	}
	return lines
}

// Texts returns the text of each line.
func Texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

// Printf writes formatted output to the echo writer regardless of the echo
// setting. Completion mode uses it to emit separators and results.
func (c *Cursor) Printf(format string, args ...any) {
	if c.echoOut == nil || c.echoErr != nil {
		return
	}
	if _, err := fmt.Fprintf(c.echoOut, format, args...); err != nil {
		c.echoErr = err
	}
}

func (c *Cursor) write(line string) {
	c.Printf("%s\n", line)
}

func isComment(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "#")
}
