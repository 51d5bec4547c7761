package recipe

import (
	"errors"
	"fmt"
	"strings"
)

// ErrParse marks an assignment whose value could not be parsed to the end
// of the line. The parsed prefix is still used.
var ErrParse = errors.New("malformed value")

// ParseError reports a malformed assignment.
type ParseError struct {
	Line   int // 1-based
	Column int // 1-based position where parsing stopped
	Text   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, column %d: %v: %q", e.Line, e.Column, ErrParse, e.Text)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// assignment is one parsed assignment line. Start and End delimit the
// value span within the line.
type assignment struct {
	Name    string
	Op      string
	Value   Value
	Start   int
	End     int
	Comment string
}

// Longest first so "::=" is not read as ":" followed by "=".
var assignOps = []string{"::=", ":=", "?=", "+=", "="}

// parseLine parses one line. ok is false when the line is not an
// assignment. stop is the offset where parsing ended; a stop short of the
// line end means the value was malformed and only its prefix was kept.
func parseLine(line string) (a assignment, ok bool, stop int) {
	// Assignments inside conditionals are often indented.
	i := skipBlank(line, 0)
	start := i
	if i >= len(line) || !isIdentStart(line[i]) {
		return a, false, 0
	}
	for i < len(line) && isIdentChar(line[i]) {
		i++
	}
	a.Name = line[start:i]
	i = skipBlank(line, i)

	for _, op := range assignOps {
		if strings.HasPrefix(line[i:], op) {
			a.Op = op
			break
		}
	}
	if a.Op == "" {
		return assignment{}, false, 0
	}
	i = skipBlank(line, i+len(a.Op))

	a.Start = i
	a.Value, i = parseSeq(line, i, NoDelim)
	a.End = i
	if i < len(line) && line[i] == '#' {
		a.Comment = line[i:]
		i = len(line)
	}
	return a, true, i
}

// parseSeq reads literal runs and calls starting at i until it meets a
// character it cannot consume. Inside a call that character is expected
// to be the call's closer; the caller checks.
func parseSeq(s string, i int, in Delim) ([]Node, int) {
	var nodes []Node
	for i < len(s) {
		c := s[i]
		if c == '$' && i+1 < len(s) && (s[i+1] == '(' || s[i+1] == '{') {
			d := Paren
			if s[i+1] == '{' {
				d = Brace
			}
			children, j := parseSeq(s, i+2, d)
			if j >= len(s) || s[j] != d.closer() {
				return nodes, i
			}
			nodes = append(nodes, Node{Delim: d, Children: children})
			i = j + 1
			continue
		}
		if isSpecial(c) {
			return nodes, i
		}
		j := i
		for j < len(s) && !isSpecial(s[j]) {
			j++
		}
		nodes = append(nodes, Node{Literal: s[i:j]})
		i = j
	}
	return nodes, i
}

func isSpecial(c byte) bool {
	switch c {
	case '$', '(', ')', '{', '}', '#', '\n', '\r':
		return true
	}
	return false
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func skipBlank(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}
