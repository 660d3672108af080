package deck

import (
	"bufio"
	"io"
	"strings"
)

// line is one non-blank, non-comment deck statement: its 1-based source
// line number and its whitespace-split fields, command word untouched
// (case-folding is the parser's job, since some fields — labels — must
// keep their original case).
type line struct {
	no     int
	fields []string
}

// lexer turns deck text into a stream of statement lines, stripping blank
// lines and "!"-prefixed comments before the parser ever sees them. This
// mirrors a hand-rolled front end's usual split between tokenizing and
// statement interpretation even though the deck format itself is just
// whitespace-delimited fields — it keeps comment-stripping and blank-line
// handling in one place instead of scattered across every statement
// handler.
type lexer struct {
	scan *bufio.Scanner
	no   int
}

func newLexer(r io.Reader) *lexer {
	return &lexer{scan: bufio.NewScanner(r)}
}

// next returns the next statement line, or ok=false at end of input.
func (lx *lexer) next() (line, bool) {
	for lx.scan.Scan() {
		lx.no++
		text := strings.TrimSpace(lx.scan.Text())
		if text == "" || strings.HasPrefix(text, "!") {
			continue
		}
		return line{no: lx.no, fields: strings.Fields(text)}, true
	}
	return line{}, false
}
