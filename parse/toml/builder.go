package toml

import "strings"

// =========================
// Document Builder
// =========================

// builder folds the parsed statement sequence into a single document tree.
// It tracks the table currently receiving plain assignments and the set of
// explicitly declared [table] paths so exact redeclarations are rejected.
// Array-of-table headers are not tracked: repeating [[x]] is the normal way
// to append elements.
type builder struct {
	root     *Table
	cur      *Table
	path     []string
	declared map[string]struct{}
}

func newBuilder() *builder {
	b := &builder{
		root:     NewTable(),
		declared: make(map[string]struct{}),
	}
	b.cur = b.root
	return b
}

func validateKeys(keys []string) error {
	if len(keys) == 0 {
		return &EmptyKeyError{}
	}
	for _, k := range keys {
		if k == "" {
			return &EmptyKeyError{}
		}
	}
	return nil
}

// step resolves one intermediate path segment under t, auto-vivifying a
// missing table and descending into the last element of an array of tables.
func step(t *Table, path []string, part string) (*Table, error) {
	n, ok := t.Items[part]
	if !ok {
		next := NewTable()
		t.set(part, next)
		return next, nil
	}
	switch v := n.(type) {
	case *Table:
		return v, nil
	case *Array:
		if len(v.Elems) > 0 {
			if last, ok := v.Elems[len(v.Elems)-1].(*Table); ok {
				return last, nil
			}
		}
		return nil, &DuplicateKeyError{Path: path, Detail: "already defined and is not an array of tables"}
	default:
		return nil, &DuplicateKeyError{Path: path, Detail: "already defined and is not a table"}
	}
}

// tableHeader applies a [a.b.c] statement: it walks/creates the path,
// makes the terminal table current and records the declaration. A table
// auto-vivified earlier as a side effect of a deeper path may still be
// declared once; declaring the exact same path twice is an error.
func (b *builder) tableHeader(keys []string) error {
	if err := validateKeys(keys); err != nil {
		return err
	}
	id := strings.Join(keys, ".")
	if _, dup := b.declared[id]; dup {
		return &DuplicateKeyError{Path: keys, Detail: "table declared twice"}
	}

	t := b.root
	for i := 0; i < len(keys)-1; i++ {
		next, err := step(t, keys[:i+1], keys[i])
		if err != nil {
			return err
		}
		t = next
	}

	last := keys[len(keys)-1]
	n, ok := t.Items[last]
	if !ok {
		next := NewTable()
		t.set(last, next)
		t = next
	} else if tbl, isTable := n.(*Table); isTable {
		t = tbl
	} else {
		return &DuplicateKeyError{Path: keys, Detail: "already defined and is not a table"}
	}

	b.cur = t
	b.path = keys
	b.declared[id] = struct{}{}
	return nil
}

// arrayHeader applies a [[a.b.c]] statement: it appends a fresh empty table
// to the array at the path, creating the array if needed, and makes that
// table current. Repetition is expected, so there is no duplicate check.
func (b *builder) arrayHeader(keys []string) error {
	if err := validateKeys(keys); err != nil {
		return err
	}

	t := b.root
	for i := 0; i < len(keys)-1; i++ {
		next, err := step(t, keys[:i+1], keys[i])
		if err != nil {
			return err
		}
		t = next
	}

	last := keys[len(keys)-1]
	n, ok := t.Items[last]
	var arr *Array
	if !ok {
		arr = &Array{Elems: make([]Node, 0)}
		t.set(last, arr)
	} else if a, isArray := n.(*Array); isArray {
		if len(a.Elems) > 0 {
			if _, isTable := a.Elems[0].(*Table); !isTable {
				return &DuplicateKeyError{Path: keys, Detail: "already defined and is not an array of tables"}
			}
		}
		arr = a
	} else {
		return &DuplicateKeyError{Path: keys, Detail: "already defined and is not an array"}
	}

	next := NewTable()
	arr.Elems = append(arr.Elems, next)
	b.cur = next
	b.path = keys
	return nil
}

// assign applies a key = value statement in the current table.
func (b *builder) assign(key string, v Node) error {
	if key == "" {
		return &EmptyKeyError{}
	}
	if _, exists := b.cur.Items[key]; exists {
		path := append(append([]string{}, b.path...), key)
		return &DuplicateKeyError{Path: path, Detail: "key already defined"}
	}
	b.cur.set(key, v)
	return nil
}
