package toml

import (
	"fmt"
	"strings"
)

// =========================
// Errors
// =========================

// ParseError is the error type returned by Parse. Offset is a byte offset
// into the source; Rules is the grammar rule stack that was active at the
// failure point, outermost first. A plain syntax failure has a nil Err;
// builder failures wrap the underlying *DuplicateKeyError, *EmptyKeyError
// or *HeterogeneousArrayError so errors.As can reach them.
type ParseError struct {
	Offset  int
	Line    int
	Column  int
	Message string
	Rules   []string
	Source  string
	Err     error
}

func newParseError(source string, offset int, msg string, rules []string, err error) *ParseError {
	line, col := lineCol(source, offset)
	return &ParseError{
		Offset:  offset,
		Line:    line,
		Column:  col,
		Message: msg,
		Rules:   rules,
		Source:  source,
		Err:     err,
	}
}

func lineCol(source string, offset int) (int, int) {
	line, col := 1, 1
	for i := 0; i < offset && i < len(source); i++ {
		if source[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("toml: line %d, column %d: %s", e.Line, e.Column, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Diagnostic renders the offending source line with a caret under the
// failure column, followed by the active grammar rule stack.
func (e *ParseError) Diagnostic() string {
	lines := strings.Split(e.Source, "\n")
	var buf strings.Builder
	buf.WriteString(e.Error())
	buf.WriteByte('\n')
	if e.Line >= 1 && e.Line <= len(lines) {
		content := lines[e.Line-1]
		fmt.Fprintf(&buf, "  %d | %s\n", e.Line, content)
		fmt.Fprintf(&buf, "  %s | ", strings.Repeat(" ", len(fmt.Sprint(e.Line))))
		for i := 1; i < e.Column; i++ {
			if i-1 < len(content) && content[i-1] == '\t' {
				buf.WriteByte('\t')
			} else {
				buf.WriteByte(' ')
			}
		}
		buf.WriteString("^\n")
	}
	if len(e.Rules) > 0 {
		fmt.Fprintf(&buf, "  while parsing: %s\n", strings.Join(e.Rules, " > "))
	}
	return buf.String()
}

// DuplicateKeyError reports a table path declared twice, an assignment to a
// key that already exists, or an existing value incompatible with the
// structural kind a key path demands.
type DuplicateKeyError struct {
	Path   []string
	Detail string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key %q: %s", strings.Join(e.Path, "."), e.Detail)
}

// EmptyKeyError reports a header or assignment whose key path contains an
// empty segment, e.g. [], [a.] or a leading dot.
type EmptyKeyError struct{}

func (*EmptyKeyError) Error() string { return "empty key" }

// HeterogeneousArrayError reports an append whose element variant differs
// from the array's existing elements. Both nodes are carried for diagnostics.
type HeterogeneousArrayError struct {
	Existing  Node
	Offending Node
}

func (e *HeterogeneousArrayError) Error() string {
	return fmt.Sprintf("mixed-type array: cannot add %s element to array of %s",
		e.Offending.Kind(), e.Existing.Kind())
}
