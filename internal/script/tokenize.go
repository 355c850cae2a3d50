package script

import "strings"

const (
	// MaxTokens is the number of header tokens kept per line. Anything after
	// the third token is ignored.
	MaxTokens = 3

	// MaxTokenLen bounds a single token. Longer tokens are truncated to this
	// many bytes, never rejected.
	MaxTokenLen = 199
)

// Tokenize splits the current line into up to MaxTokens whitespace
// separated tokens and records the current line number as the start of the
// record. Unused slots are empty strings.
func (c *Cursor) Tokenize() {
	c.startLine = c.lineNum
	c.tokens = SplitHeader(c.line)
}

// Token returns header token i, or "" when i is out of range.
func (c *Cursor) Token(i int) string {
	if i < 0 || i >= MaxTokens {
		return ""
	}
	return c.tokens[i]
}

// Tokens returns a copy of the header tokens.
func (c *Cursor) Tokens() [MaxTokens]string { return c.tokens }

// SplitHeader splits line into at most MaxTokens tokens, each truncated to
// MaxTokenLen bytes.
func SplitHeader(line string) [MaxTokens]string {
	var out [MaxTokens]string
	fields := strings.Fields(line)
	for i := 0; i < len(fields) && i < MaxTokens; i++ {
		tok := fields[i]
		if len(tok) > MaxTokenLen {
			tok = tok[:MaxTokenLen]
		}
		out[i] = tok
	}
	return out
}
