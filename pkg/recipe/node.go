package recipe

import "strings"

// Delim identifies the delimiter style of a call.
type Delim uint8

const (
	// NoDelim marks a literal node.
	NoDelim Delim = iota
	// Paren is a $(...) call.
	Paren
	// Brace is a ${...} call.
	Brace
)

func (d Delim) String() string {
	switch d {
	case Paren:
		return "$()"
	case Brace:
		return "${}"
	default:
		return ""
	}
}

func (d Delim) closer() byte {
	if d == Brace {
		return '}'
	}
	return ')'
}

// Node is one element of a parsed value: a literal run, or a call whose
// children follow the same grammar. Trees are built once per parse and
// never mutated.
type Node struct {
	Literal  string
	Delim    Delim
	Children []Node
}

// IsCall reports whether n is a $(...) or ${...} node.
func (n Node) IsCall() bool { return n.Delim != NoDelim }

// Value is the unevaluated right-hand side of an assignment.
type Value []Node

// HasCall reports whether v contains at least one call node.
func (v Value) HasCall() bool {
	for _, n := range v {
		if n.IsCall() {
			return true
		}
	}
	return false
}

// String renders v back to recipe syntax.
func (v Value) String() string {
	var b strings.Builder
	writeNodes(&b, v)
	return b.String()
}

func writeNodes(b *strings.Builder, nodes []Node) {
	for _, n := range nodes {
		if !n.IsCall() {
			b.WriteString(n.Literal)
			continue
		}
		if n.Delim == Brace {
			b.WriteString("${")
		} else {
			b.WriteString("$(")
		}
		writeNodes(b, n.Children)
		b.WriteByte(n.Delim.closer())
	}
}

func literal(s string) Value {
	return Value{{Literal: s}}
}
