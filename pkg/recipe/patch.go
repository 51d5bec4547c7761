package recipe

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
)

var (
	// ErrUnsafePatch is returned when the target variable is built from a
	// call, so a literal rewrite cannot be proven to keep its meaning.
	ErrUnsafePatch = errors.New("value derives from a call expression")

	// ErrUndefined is returned when the target variable is never assigned.
	ErrUndefined = errors.New("undefined variable")

	// ErrNotParsed is returned when patching an unparsed Interpreter.
	ErrNotParsed = errors.New("recipe not parsed")
)

// Text returns the current recipe text. Until [Interpreter.Update] is
// called this is exactly the parsed input.
func (in *Interpreter) Text() string {
	return strings.Join(in.lines, "\n")
}

// WriteFile writes [Interpreter.Text] to path, keeping the mode of an
// existing file.
func (in *Interpreter) WriteFile(path string) error {
	mode := fs.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	return os.WriteFile(path, []byte(in.Text()), mode)
}

// SafePatch returns the recipe text with the value of every selected
// assignment to name replaced by value. indices select assignments by
// their position among the assignments to name (0-based, file order); no
// indices selects all. Only the value span, without its trailing blanks,
// changes: the operator, the surrounding whitespace, any trailing comment
// and all other lines are byte-identical.
//
// On failure the unchanged text is returned together with the error. The
// Interpreter itself is never modified.
func (in *Interpreter) SafePatch(name, value string, indices ...int) (string, error) {
	lines, err := in.patch(name, func(int) (string, bool) { return value, true }, indices)
	if err != nil {
		return in.Text(), err
	}
	return strings.Join(lines, "\n"), nil
}

// Update writes the current values of name back into the text: the i-th
// selected assignment receives the i-th value. Assignments without a
// matching value are left alone. Use with [Interpreter.Set]:
//
//	in.Set("TEST", "9876", "6543")
//	in.Update("TEST")
func (in *Interpreter) Update(name string, indices ...int) error {
	b, ok := in.vars[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUndefined, name)
	}
	values := b.flat()
	lines, err := in.patch(name, func(i int) (string, bool) {
		if i < len(values) {
			return values[i], true
		}
		return "", false
	}, indices)
	if err != nil {
		return err
	}
	in.lines = lines
	return nil
}

func (in *Interpreter) patch(name string, valueFor func(int) (string, bool), indices []int) ([]string, error) {
	if !in.parsed {
		return nil, ErrNotParsed
	}
	b, ok := in.vars[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUndefined, name)
	}
	if b.call {
		return nil, fmt.Errorf("%w: %s", ErrUnsafePatch, name)
	}

	lines := slices.Clone(in.lines)
	n := 0
	for i, line := range lines {
		a, ok, _ := parseLine(line)
		if !ok || a.Name != name {
			continue
		}
		if len(indices) == 0 || slices.Contains(indices, n) {
			if v, ok := valueFor(n); ok {
				end := a.End
				for end > a.Start && (line[end-1] == ' ' || line[end-1] == '\t') {
					end--
				}
				lines[i] = line[:a.Start] + v + line[end:]
			}
		}
		n++
	}
	return lines, nil
}
