package recipe

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
)

// ErrAlreadyParsed is returned when an [Interpreter] is asked to parse a
// second input.
var ErrAlreadyParsed = errors.New("recipe already parsed")

// maxExpansion caps the number of strings a single value may expand to.
const maxExpansion = 4096

// binding holds every assignment of one variable. trees[i] evaluated to
// values[i]; both slices always have the same length.
type binding struct {
	trees  []Value
	values [][]string
	// placeholder is set until the first assignment with a value.
	placeholder bool
	// call records that some assignment in the file used a call.
	call bool
}

func newBinding() *binding {
	return &binding{
		trees:       []Value{nil},
		values:      [][]string{{""}},
		placeholder: true,
	}
}

func (b *binding) flat() []string {
	var out []string
	for _, v := range b.values {
		out = append(out, v...)
	}
	return out
}

// Interpreter parses one recipe into ordered, multi-valued variable
// bindings. An Interpreter parses exactly once; use a new instance to
// parse again. It is not safe for concurrent use.
type Interpreter struct {
	lines  []string
	vars   map[string]*binding
	order  []string
	errs   []error
	parsed bool
	active map[string]bool
}

// NewInterpreter returns an unparsed Interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{
		vars:   make(map[string]*binding),
		active: make(map[string]bool),
	}
}

// Parse parses recipe text.
func Parse(text string) *Interpreter {
	in := NewInterpreter()
	_ = in.ParseText(text)
	return in
}

// ParseFile reads and parses the recipe at path.
func ParseFile(path string) (*Interpreter, error) {
	in := NewInterpreter()
	if err := in.ParseFile(path); err != nil {
		return nil, err
	}
	return in, nil
}

// ParseFile reads and parses the recipe at path.
func (in *Interpreter) ParseFile(path string) error {
	if in.parsed {
		return ErrAlreadyParsed
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return in.ParseText(string(data))
}

// ParseText parses recipe text. Lines that are not assignments are kept
// for patching but otherwise ignored. Malformed values are recorded in
// [Interpreter.Errors] and their parsable prefix is used.
func (in *Interpreter) ParseText(text string) error {
	if in.parsed {
		return ErrAlreadyParsed
	}
	in.lines = strings.Split(text, "\n")
	for n, line := range in.lines {
		a, ok, stop := parseLine(line)
		if !ok {
			continue
		}
		if stop < len(strings.TrimRight(line, "\r")) {
			in.errs = append(in.errs, &ParseError{Line: n + 1, Column: stop + 1, Text: line})
		}
		in.assign(a.Name, a.Value)
	}
	in.parsed = true
	return nil
}

// Parsed reports whether the Interpreter holds a parsed recipe.
func (in *Interpreter) Parsed() bool { return in.parsed }

// Errors returns the malformed lines found while parsing.
func (in *Interpreter) Errors() []error { return slices.Clone(in.errs) }

func (in *Interpreter) assign(name string, v Value) {
	b, ok := in.vars[name]
	if !ok {
		b = newBinding()
		in.vars[name] = b
		in.order = append(in.order, name)
	}
	if len(v) == 0 {
		return
	}
	if b.placeholder {
		b.trees, b.values, b.placeholder = nil, nil, false
	}
	if v.HasCall() {
		b.call = true
	}
	b.trees = append(b.trees, v)
	b.values = append(b.values, in.evalSeq(v, false))
}

// Names returns the assigned variable names in order of first assignment.
func (in *Interpreter) Names() []string { return slices.Clone(in.order) }

// Has reports whether name was assigned.
func (in *Interpreter) Has(name string) bool {
	_, ok := in.vars[name]
	return ok
}

// Values returns a copy of the evaluated values of name, one or more per
// assignment in file order. ok is false when name was never assigned.
func (in *Interpreter) Values(name string) (values []string, ok bool) {
	b, ok := in.vars[name]
	if !ok {
		return nil, false
	}
	return b.flat(), true
}

// Value returns the first value of name, or def when name is unassigned.
func (in *Interpreter) Value(name, def string) string {
	if v, ok := in.Values(name); ok && len(v) > 0 {
		return v[0]
	}
	return def
}

// Set overrides both the evaluated and unevaluated values of name. Each
// value becomes a literal assignment.
func (in *Interpreter) Set(name string, values ...string) {
	b, ok := in.vars[name]
	if !ok {
		b = newBinding()
		in.vars[name] = b
		in.order = append(in.order, name)
	}
	if len(values) == 0 {
		call := b.call
		*b = *newBinding()
		b.call = call
		return
	}
	b.trees = make([]Value, len(values))
	b.values = make([][]string, len(values))
	for i, v := range values {
		b.trees[i] = literal(v)
		b.values[i] = []string{v}
	}
	b.placeholder = false
}

// Delete forgets name.
func (in *Interpreter) Delete(name string) {
	if _, ok := in.vars[name]; !ok {
		return
	}
	delete(in.vars, name)
	in.order = slices.DeleteFunc(in.order, func(s string) bool { return s == name })
}

// ContainsCall reports whether any assignment of name in the parsed text
// uses a call. ok is false when name was never assigned.
func (in *Interpreter) ContainsCall(name string) (call, ok bool) {
	b, ok := in.vars[name]
	if !ok {
		return false, false
	}
	return b.call, true
}

// Reevaluate recomputes name from its stored trees against the current
// state of every other variable, re-evaluating referenced variables as
// well. It returns the new values.
func (in *Interpreter) Reevaluate(name string) []string {
	in.reevaluate(name)
	v, _ := in.Values(name)
	return v
}

func (in *Interpreter) reevaluate(name string) {
	b, ok := in.vars[name]
	if !ok || in.active[name] {
		return
	}
	in.active[name] = true
	defer delete(in.active, name)
	for i, t := range b.trees {
		b.values[i] = in.evalSeq(t, true)
	}
}

// Evaluate expands v against the current bindings. When reeval is set,
// referenced variables are re-evaluated first.
func (in *Interpreter) Evaluate(v Value, reeval bool) []string {
	return in.evalSeq(v, reeval)
}

func (in *Interpreter) evalSeq(nodes []Node, reeval bool) []string {
	parts := make([][]string, 0, len(nodes))
	for _, n := range nodes {
		if !n.IsCall() {
			parts = append(parts, []string{n.Literal})
			continue
		}
		var out []string
		for _, s := range in.evalSeq(n.Children, reeval) {
			out = append(out, in.call(s, reeval)...)
		}
		parts = append(parts, out)
	}
	return product(parts)
}

// product concatenates one string from each part, for every combination,
// keeping the order of the leftmost part outermost.
func product(parts [][]string) []string {
	out := []string{""}
	for _, p := range parts {
		next := make([]string, 0, len(out)*len(p))
		for _, prefix := range out {
			for _, s := range p {
				if len(next) == maxExpansion {
					break
				}
				next = append(next, prefix+s)
			}
		}
		out = next
	}
	return out
}

// builtin implements a call such as $(subst a,b,text). args is
// everything after the function name.
type builtin func(in *Interpreter, args string, reeval bool) ([]string, error)

var builtins map[string]builtin

func init() {
	builtins = map[string]builtin{
		"subst": callSubst,
		"value": callValue,
	}
}

// call dispatches the expanded contents of one call node.
func (in *Interpreter) call(s string, reeval bool) []string {
	words := strings.Split(strings.TrimSpace(s), " ")
	name, args := words[0], words[1:]
	if len(args) > 0 {
		fn, ok := builtins[name]
		if !ok {
			return []string{""}
		}
		out, err := fn(in, strings.Join(args, " "), reeval)
		if err != nil {
			return []string{""}
		}
		return out
	}
	if _, ok := in.vars[name]; !ok {
		return []string{""}
	}
	if reeval {
		in.reevaluate(name)
	}
	v, _ := in.Values(name)
	return v
}

// callSubst replaces every occurrence of from, as GNU make does.
func callSubst(_ *Interpreter, args string, _ bool) ([]string, error) {
	parts := strings.SplitN(args, ",", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("subst: want 3 arguments, got %d", len(parts))
	}
	from, to, text := parts[0], parts[1], parts[2]
	if from == "" {
		return []string{text}, nil
	}
	return []string{strings.ReplaceAll(text, from, to)}, nil
}

func callValue(in *Interpreter, args string, reeval bool) ([]string, error) {
	if _, ok := in.vars[args]; !ok {
		return nil, fmt.Errorf("value: undefined variable %q", args)
	}
	if reeval {
		in.reevaluate(args)
	}
	v, _ := in.Values(args)
	return v, nil
}
