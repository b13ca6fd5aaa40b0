package toml

// toml 包实现了一个递归下降的 TOML 方言解析器，具有强大的内部 AST、确定性语义和安全的解析后操作。
//
// 范围：
// - 递归下降语法（带字节偏移与规则栈的确定性错误）
// - 显式 AST（表 / 数组 / 值）
// - 点分表头与数组表头语义
// - 数组同质性校验
// - 擦除视图（用于与参考输出比较）
//
// 非目标（设计如此）：
// - 注释保留
// - 格式化往返
// - 流式突变
//
// 此实现适用于生产环境，作为配置摄取层。

import "time"

// =========================
// AST Definitions
// =========================

type ValueKind string

var tomlValueKinds = struct {
	ValueString   ValueKind
	ValueInt      ValueKind
	ValueFloat    ValueKind
	ValueBool     ValueKind
	ValueDatetime ValueKind
	ValueTable    ValueKind
	ValueArray    ValueKind
}{
	ValueString:   "string",
	ValueInt:      "int",
	ValueFloat:    "float",
	ValueBool:     "bool",
	ValueDatetime: "datetime",
	ValueTable:    "table",
	ValueArray:    "array",
}

type Node interface {
	Kind() ValueKind
	Value() any
	Erase() any
}

// -------- Table --------

type Table struct {
	Items map[string]Node

	keys []string // insertion order, for reproducible output
}

func NewTable() *Table {
	return &Table{Items: make(map[string]Node)}
}

func (*Table) Kind() ValueKind { return tomlValueKinds.ValueTable }

func (*Table) Value() any { return nil }

func (t *Table) Erase() any { return ToUntyped(t) }

// Keys returns the table's keys in insertion order.
func (t *Table) Keys() []string { return t.keys }

func (t *Table) set(key string, n Node) {
	if _, ok := t.Items[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.Items[key] = n
}

// -------- Array --------

type Array struct {
	Elems []Node
}

func (v *Array) Kind() ValueKind { return tomlValueKinds.ValueArray }

func (v *Array) Value() any { return v.Elems }

func (v *Array) Erase() any { return ToUntyped(v) }

// push appends an element, enforcing that all elements share one variant.
// Only the first element needs comparing: the array was already internally
// consistent before the append, so mixing can only enter at the boundary.
func (v *Array) push(n Node) error {
	if len(v.Elems) > 0 && v.Elems[0].Kind() != n.Kind() {
		return &HeterogeneousArrayError{Existing: v.Elems[0], Offending: n}
	}
	v.Elems = append(v.Elems, n)
	return nil
}

// -------- Value --------

type Value struct {
	Type ValueKind
	V    any
}

func (v *Value) Kind() ValueKind { return v.Type }

func (v *Value) Value() any { return v.V }

func (v *Value) Erase() any { return v.V }

// =========================
// Public API
// =========================

// Parse parses a complete TOML document and returns the root Table.
//
// The returned tree is owned exclusively by the parser during construction
// and is never touched again after Parse returns; callers may share it
// across goroutines without synchronization as long as they treat it as
// read-only. On failure the error is a *ParseError; builder-level failures
// (duplicate keys, empty keys, mixed-type arrays) are reachable through
// errors.As on the wrapped error.
func Parse(input string) (*Table, error) {
	p := &parser{input: input}
	b := newBuilder()
	if err := p.parseDocument(b); err != nil {
		return nil, err
	}
	return b.root, nil
}

// =========================
// Erasure
// =========================

// ToUntyped strips the variant distinction from a node: strings stay text,
// ints and floats become their numeric payloads, datetimes become time.Time,
// arrays become []any and tables become map[string]any. The erased view is
// intended for comparison against reference outputs such as JSON fixtures.
func ToUntyped(n Node) any {
	switch v := n.(type) {
	case *Value:
		return v.V
	case *Array:
		out := make([]any, len(v.Elems))
		for i := range v.Elems {
			out[i] = ToUntyped(v.Elems[i])
		}
		return out
	case *Table:
		m := make(map[string]any, len(v.Items))
		for k, child := range v.Items {
			m[k] = ToUntyped(child)
		}
		return m
	default:
		return nil
	}
}

// =========================
// Safe Access Helpers
// =========================

func Get(root *Table, path ...string) (Node, bool) {
	var cur Node = root
	for _, p := range path {
		if len(p) == 0 {
			continue
		}
		t, ok := cur.(*Table)
		if !ok {
			return nil, false
		}
		cur, ok = t.Items[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func GetUntyped(root *Table, path ...string) (any, bool) {
	n, ok := Get(root, path...)
	if !ok {
		return nil, false
	}
	return ToUntyped(n), true
}

func MustString(n Node) string {
	v := n.(*Value)
	return v.V.(string)
}

func MustInt(n Node) int64 {
	v := n.(*Value)
	return v.V.(int64)
}

func MustFloat(n Node) float64 {
	v := n.(*Value)
	return v.V.(float64)
}

func MustBool(n Node) bool {
	v := n.(*Value)
	return v.V.(bool)
}

func MustDatetime(n Node) time.Time {
	v := n.(*Value)
	return v.V.(time.Time)
}
