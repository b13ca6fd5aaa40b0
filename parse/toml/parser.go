package toml

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf16"
	"unicode/utf8"
)

// =========================
// Parser Implementation
// =========================

// parser is a recursive-descent cursor over the whole input. Alternatives
// report "no match" by returning ok=false with the cursor unmoved; once a
// production has uniquely matched a prefix (the opening """ of a multiline
// string, the [ of an array) failure to match the remainder is a hard
// syntax error, never a backtrack.
type parser struct {
	input string
	pos   int
	rules []string
}

func (p *parser) pushRule(name string) { p.rules = append(p.rules, name) }

func (p *parser) popRule() { p.rules = p.rules[:len(p.rules)-1] }

func (p *parser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) consume(c byte) bool {
	if p.pos < len(p.input) && p.input[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) has(prefix string) bool {
	return strings.HasPrefix(p.input[p.pos:], prefix)
}

func (p *parser) syntaxError(offset int, msg string) error {
	return newParseError(p.input, offset, msg, append([]string(nil), p.rules...), nil)
}

// buildError wraps a builder failure with the offset of the statement (or
// array element) that triggered it.
func (p *parser) buildError(offset int, err error) error {
	if err == nil {
		return nil
	}
	return newParseError(p.input, offset, err.Error(), append([]string(nil), p.rules...), err)
}

// =========================
// Lexical Primitives
// =========================

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentChar(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '=', '#', '.', '[', ']':
		return false
	}
	return true
}

// skipSpace skips a run of non-newline whitespace.
func (p *parser) skipSpace() {
	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case ' ', '\t', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) skipComment() {
	for p.pos < len(p.input) && p.input[p.pos] != '\n' {
		p.pos++
	}
}

// skipSpaceAndComments skips whitespace, newlines and #-comments, used
// between statements and inside multi-line arrays.
func (p *parser) skipSpaceAndComments() {
	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		case '#':
			p.skipComment()
		default:
			return
		}
	}
}

// expectEOL matches optional whitespace and an optional comment, then
// requires a newline or end-of-input lookahead without consuming it.
func (p *parser) expectEOL() error {
	p.skipSpace()
	if p.peek() == '#' {
		p.skipComment()
	}
	if p.pos >= len(p.input) || p.input[p.pos] == '\n' {
		return nil
	}
	return p.syntaxError(p.pos, "expected end of line")
}

// =========================
// Document & Statements
// =========================

func (p *parser) parseDocument(b *builder) error {
	p.pushRule("document")
	defer p.popRule()

	p.skipSpaceAndComments()
	for p.pos < len(p.input) {
		if err := p.parseStatement(b); err != nil {
			return err
		}
		p.skipSpaceAndComments()
	}
	return nil
}

func (p *parser) parseStatement(b *builder) error {
	p.pushRule("statement")
	defer p.popRule()

	var err error
	switch {
	case p.has("[["):
		err = p.parseArrayHeader(b)
	case p.peek() == '[':
		err = p.parseTableHeader(b)
	default:
		err = p.parseAssignment(b)
	}
	if err != nil {
		return err
	}
	return p.expectEOL()
}

func (p *parser) parseTableHeader(b *builder) error {
	p.pushRule("table-header")
	defer p.popRule()

	offset := p.pos
	p.pos++ // '['
	keys, err := p.parseKeyPath()
	if err != nil {
		return err
	}
	if !p.consume(']') {
		return p.syntaxError(p.pos, "expected ']'")
	}
	return p.buildError(offset, b.tableHeader(keys))
}

func (p *parser) parseArrayHeader(b *builder) error {
	p.pushRule("array-of-tables-header")
	defer p.popRule()

	offset := p.pos
	p.pos += 2 // '[['
	keys, err := p.parseKeyPath()
	if err != nil {
		return err
	}
	if !p.has("]]") {
		return p.syntaxError(p.pos, "expected ']]'")
	}
	p.pos += 2
	return p.buildError(offset, b.arrayHeader(keys))
}

func (p *parser) parseKeyPath() ([]string, error) {
	p.pushRule("key-path")
	defer p.popRule()

	var keys []string
	for {
		p.skipSpace()
		key, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
		p.skipSpace()
		if !p.consume('.') {
			return keys, nil
		}
	}
}

// parseIdent matches a bare word token delimited by the structural
// characters = # . [ ] and newlines. Intervening non-newline whitespace
// is collapsed, so the chunks of "a b" form the single key "ab".
func (p *parser) parseIdent() (string, error) {
	start := p.pos
	var b strings.Builder
	for {
		seg := p.pos
		for p.pos < len(p.input) && isIdentChar(p.input[p.pos]) {
			p.pos++
		}
		b.WriteString(p.input[seg:p.pos])
		if b.Len() == 0 {
			break
		}
		mark := p.pos
		p.skipSpace()
		if p.pos < len(p.input) && isIdentChar(p.input[p.pos]) {
			continue
		}
		p.pos = mark
		break
	}
	if b.Len() == 0 {
		return "", newParseError(p.input, start, "empty key",
			append([]string(nil), p.rules...), &EmptyKeyError{})
	}
	return b.String(), nil
}

func (p *parser) parseAssignment(b *builder) error {
	p.pushRule("assignment")
	defer p.popRule()

	offset := p.pos
	key, err := p.parseIdent()
	if err != nil {
		return err
	}
	p.skipSpace()
	if !p.consume('=') {
		return p.syntaxError(p.pos, "expected '='")
	}
	p.skipSpace()
	v, err := p.parseValue()
	if err != nil {
		return err
	}
	return p.buildError(offset, b.assign(key, v))
}

// =========================
// Value Grammar
// =========================

// parseValue tries the value alternatives in an order where no literal can
// shadow another: a bare digit run is a valid prefix of both a float and a
// datetime, so integer must come last of the three; triple quotes must be
// tried before their single-quote counterparts.
func (p *parser) parseValue() (Node, error) {
	p.pushRule("value")
	defer p.popRule()

	alternatives := []func() (Node, bool, error){
		p.parseDateTime,
		p.parseFloat,
		p.parseInteger,
		p.parseBoolean,
		p.parseArray,
		p.parseString,
	}
	for _, alt := range alternatives {
		n, ok, err := alt()
		if err != nil {
			return nil, err
		}
		if ok {
			p.skipSpace()
			return n, nil
		}
	}
	return nil, p.syntaxError(p.pos, "expected value")
}

// -------- DateTime --------

func (p *parser) parseDateTime() (Node, bool, error) {
	end, ok := matchDateTime(p.input, p.pos)
	if !ok {
		return nil, false, nil
	}
	p.pushRule("datetime")
	defer p.popRule()

	lit := p.input[p.pos:end]
	t, err := time.Parse(time.RFC3339, lit)
	if err != nil {
		return nil, false, p.syntaxError(p.pos, "invalid datetime "+strconv.Quote(lit))
	}
	p.pos = end
	return &Value{Type: tomlValueKinds.ValueDatetime, V: t}, true, nil
}

// matchDateTime recognizes the textual shape of an RFC 3339 date-time with
// a mandatory offset: YYYY-MM-DDTHH:MM:SS[.fraction](Z|±HH:MM).
func matchDateTime(s string, i int) (int, bool) {
	j, ok := matchPattern(s, i, "dddd-dd-ddTdd:dd:dd")
	if !ok {
		return 0, false
	}
	if j < len(s) && s[j] == '.' {
		k := j + 1
		if k >= len(s) || !isDigit(s[k]) {
			return 0, false
		}
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		j = k
	}
	if j < len(s) && s[j] == 'Z' {
		return j + 1, true
	}
	if j < len(s) && (s[j] == '+' || s[j] == '-') {
		if k, ok := matchPattern(s, j+1, "dd:dd"); ok {
			return k, true
		}
	}
	return 0, false
}

// matchPattern matches s at i against a pattern where 'd' stands for a
// digit and any other byte stands for itself.
func matchPattern(s string, i int, pattern string) (int, bool) {
	for k := 0; k < len(pattern); k++ {
		if i >= len(s) {
			return 0, false
		}
		if pattern[k] == 'd' {
			if !isDigit(s[i]) {
				return 0, false
			}
		} else if s[i] != pattern[k] {
			return 0, false
		}
		i++
	}
	return i, true
}

// -------- Numbers --------

// scanIntegerPart scans [+|-] ('0' | nonzero digit digit*) and returns the
// end offset. A leading zero never swallows further digits.
func scanIntegerPart(s string, i int) (int, bool) {
	j := i
	if j < len(s) && (s[j] == '+' || s[j] == '-') {
		j++
	}
	if j >= len(s) || !isDigit(s[j]) {
		return i, false
	}
	if s[j] == '0' {
		return j + 1, true
	}
	for j < len(s) && isDigit(s[j]) {
		j++
	}
	return j, true
}

func (p *parser) parseFloat() (Node, bool, error) {
	start := p.pos
	j, ok := scanIntegerPart(p.input, p.pos)
	if !ok {
		return nil, false, nil
	}
	p.pushRule("float")
	defer p.popRule()

	sawFrac := false
	if j < len(p.input) && p.input[j] == '.' {
		k := j + 1
		if k >= len(p.input) || !isDigit(p.input[k]) {
			return nil, false, p.syntaxError(k, "expected digit after decimal point")
		}
		for k < len(p.input) && isDigit(p.input[k]) {
			k++
		}
		j = k
		sawFrac = true
	}
	sawExp := false
	if j < len(p.input) && (p.input[j] == 'e' || p.input[j] == 'E') {
		k, ok := scanIntegerPart(p.input, j+1)
		if !ok {
			return nil, false, p.syntaxError(j+1, "expected exponent digits")
		}
		j = k
		sawExp = true
	}
	if !sawFrac && !sawExp {
		return nil, false, nil
	}

	lit := p.input[start:j]
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return nil, false, p.syntaxError(start, "invalid float "+strconv.Quote(lit))
	}
	p.pos = j
	return &Value{Type: tomlValueKinds.ValueFloat, V: f}, true, nil
}

func (p *parser) parseInteger() (Node, bool, error) {
	start := p.pos
	j, ok := scanIntegerPart(p.input, p.pos)
	if !ok {
		return nil, false, nil
	}
	p.pushRule("integer")
	defer p.popRule()

	lit := p.input[start:j]
	i, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return nil, false, p.syntaxError(start, "integer out of range "+strconv.Quote(lit))
	}
	p.pos = j
	return &Value{Type: tomlValueKinds.ValueInt, V: i}, true, nil
}

// -------- Boolean --------

func (p *parser) parseBoolean() (Node, bool, error) {
	for _, lit := range []string{"true", "false"} {
		if !p.has(lit) {
			continue
		}
		end := p.pos + len(lit)
		if end < len(p.input) && isIdentChar(p.input[end]) {
			continue
		}
		p.pos = end
		return &Value{Type: tomlValueKinds.ValueBool, V: lit == "true"}, true, nil
	}
	return nil, false, nil
}

// -------- Array --------

func (p *parser) parseArray() (Node, bool, error) {
	if p.peek() != '[' {
		return nil, false, nil
	}
	p.pushRule("array")
	defer p.popRule()

	open := p.pos
	p.pos++
	arr := &Array{Elems: make([]Node, 0)}
	for {
		p.skipSpaceAndComments()
		if p.consume(']') {
			return arr, true, nil
		}
		if p.pos >= len(p.input) {
			return nil, false, p.syntaxError(open, "unterminated array")
		}
		elemOffset := p.pos
		v, err := p.parseValue()
		if err != nil {
			return nil, false, err
		}
		if err := arr.push(v); err != nil {
			return nil, false, p.buildError(elemOffset, err)
		}
		p.skipSpaceAndComments()
		if p.consume(',') {
			continue
		}
		if p.consume(']') {
			return arr, true, nil
		}
		return nil, false, p.syntaxError(p.pos, "expected ',' or ']' in array")
	}
}

// -------- Strings --------

func (p *parser) parseString() (Node, bool, error) {
	var (
		s   string
		err error
	)
	switch {
	case p.has(`"""`):
		s, err = p.scanMultilineBasic()
	case p.peek() == '"':
		s, err = p.scanBasic()
	case p.has("'''"):
		s, err = p.scanMultilineLiteral()
	case p.peek() == '\'':
		s, err = p.scanLiteral()
	default:
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &Value{Type: tomlValueKinds.ValueString, V: s}, true, nil
}

func (p *parser) scanBasic() (string, error) {
	p.pushRule("basic-string")
	defer p.popRule()

	open := p.pos
	p.pos++ // '"'
	var b strings.Builder
	for {
		if p.pos >= len(p.input) {
			return "", p.syntaxError(open, "unterminated string")
		}
		switch c := p.input[p.pos]; c {
		case '\n':
			return "", p.syntaxError(p.pos, "newline in basic string")
		case '"':
			p.pos++
			return b.String(), nil
		case '\\':
			p.pos++
			if err := p.readEscape(&b, false); err != nil {
				return "", err
			}
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
}

func (p *parser) scanMultilineBasic() (string, error) {
	p.pushRule("multiline-basic-string")
	defer p.popRule()

	open := p.pos
	p.pos += 3
	p.trimLeadingNewline()
	var b strings.Builder
	for {
		if p.pos >= len(p.input) {
			return "", p.syntaxError(open, "unterminated multiline string")
		}
		if p.has(`"""`) {
			p.pos += 3
			return b.String(), nil
		}
		if c := p.input[p.pos]; c == '\\' {
			p.pos++
			if err := p.readEscape(&b, true); err != nil {
				return "", err
			}
		} else {
			b.WriteByte(c)
			p.pos++
		}
	}
}

func (p *parser) scanLiteral() (string, error) {
	p.pushRule("literal-string")
	defer p.popRule()

	open := p.pos
	p.pos++ // '\''
	for {
		if p.pos >= len(p.input) {
			return "", p.syntaxError(open, "unterminated literal string")
		}
		switch p.input[p.pos] {
		case '\n':
			return "", p.syntaxError(p.pos, "newline in literal string")
		case '\'':
			s := p.input[open+1 : p.pos]
			p.pos++
			return s, nil
		default:
			p.pos++
		}
	}
}

func (p *parser) scanMultilineLiteral() (string, error) {
	p.pushRule("multiline-literal-string")
	defer p.popRule()

	open := p.pos
	p.pos += 3
	p.trimLeadingNewline()
	start := p.pos
	for {
		if p.pos >= len(p.input) {
			return "", p.syntaxError(open, "unterminated multiline literal string")
		}
		if p.has("'''") {
			s := p.input[start:p.pos]
			p.pos += 3
			return s, nil
		}
		p.pos++
	}
}

// trimLeadingNewline drops a newline immediately following an opening
// triple quote.
func (p *parser) trimLeadingNewline() {
	if p.has("\r\n") {
		p.pos += 2
	} else if p.peek() == '\n' {
		p.pos++
	}
}

// readEscape decodes one escape sequence; the leading backslash is already
// consumed. In multiline strings a backslash before a newline elides the
// newline and the next line's leading whitespace (line continuation).
func (p *parser) readEscape(b *strings.Builder, multiline bool) error {
	if p.pos >= len(p.input) {
		return p.syntaxError(p.pos, "unterminated escape sequence")
	}
	c := p.input[p.pos]
	p.pos++
	switch c {
	case '"':
		b.WriteByte('"')
	case '\'':
		b.WriteByte('\'')
	case '\\':
		b.WriteByte('\\')
	case '/':
		b.WriteByte('/')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 't':
		b.WriteByte('\t')
	case 'u':
		return p.readUnicodeEscape(b, 4)
	case 'U':
		return p.readUnicodeEscape(b, 8)
	case '\n':
		if !multiline {
			return p.syntaxError(p.pos-1, "invalid escape character "+strconv.QuoteRune(rune(c)))
		}
		p.skipSpace()
	case '\r':
		if !multiline || !p.consume('\n') {
			return p.syntaxError(p.pos-1, "invalid escape character "+strconv.QuoteRune(rune(c)))
		}
		p.skipSpace()
	default:
		return p.syntaxError(p.pos-1, "invalid escape character "+strconv.QuoteRune(rune(c)))
	}
	return nil
}

// readUnicodeEscape decodes \uXXXX or \UXXXXXXXX. Adjacent \u escapes that
// form a surrogate pair are combined into the supra-planar code point.
func (p *parser) readUnicodeEscape(b *strings.Builder, n int) error {
	r, err := p.readHexRune(n)
	if err != nil {
		return err
	}
	if n == 4 && r >= 0xD800 && r < 0xDC00 && p.has(`\u`) {
		mark := p.pos
		p.pos += 2
		r2, err := p.readHexRune(4)
		if err != nil {
			return err
		}
		if c := utf16.DecodeRune(r, r2); c != utf8.RuneError {
			b.WriteRune(c)
			return nil
		}
		p.pos = mark
	}
	b.WriteRune(r)
	return nil
}

func (p *parser) readHexRune(n int) (rune, error) {
	if p.pos+n > len(p.input) {
		return 0, p.syntaxError(p.pos, "truncated unicode escape")
	}
	h := p.input[p.pos : p.pos+n]
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, p.syntaxError(p.pos, "invalid unicode escape "+strconv.Quote(h))
	}
	p.pos += n
	return rune(v), nil
}
