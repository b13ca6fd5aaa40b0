package toml

import (
	"errors"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestDuplicateKeys(t *testing.T) {
	convey.Convey("assigning the same key twice fails", t, func() {
		_, err := Parse("a = 1\na = 2")
		var dup *DuplicateKeyError
		convey.So(errors.As(err, &dup), convey.ShouldBeTrue)
		convey.So(dup.Path, convey.ShouldResemble, []string{"a"})
	})

	convey.Convey("declaring the same table twice fails", t, func() {
		_, err := Parse("[a]\n[a]")
		var dup *DuplicateKeyError
		convey.So(errors.As(err, &dup), convey.ShouldBeTrue)
		convey.So(dup.Detail, convey.ShouldEqual, "table declared twice")
	})

	convey.Convey("the duplicate check applies to the full dotted path", t, func() {
		_, err := Parse("[a.b]\n[a.b]")
		var dup *DuplicateKeyError
		convey.So(errors.As(err, &dup), convey.ShouldBeTrue)
		convey.So(dup.Path, convey.ShouldResemble, []string{"a", "b"})
	})

	convey.Convey("a table header over an array of tables fails", t, func() {
		_, err := Parse("[[fruit.variety]]\n[fruit.variety]")
		var dup *DuplicateKeyError
		convey.So(errors.As(err, &dup), convey.ShouldBeTrue)
	})

	convey.Convey("a table header over a plain value fails", t, func() {
		_, err := Parse("a = 1\n[a]")
		var dup *DuplicateKeyError
		convey.So(errors.As(err, &dup), convey.ShouldBeTrue)
		convey.So(dup.Detail, convey.ShouldEqual, "already defined and is not a table")
	})

	convey.Convey("an array-of-tables header over a scalar array fails", t, func() {
		_, err := Parse("x = [1, 2]\n[[x]]")
		var dup *DuplicateKeyError
		convey.So(errors.As(err, &dup), convey.ShouldBeTrue)
	})
}

func TestHeterogeneousArrays(t *testing.T) {
	convey.Convey("mixing variants in one array fails with both values attached", t, func() {
		_, err := Parse(`a = [1, "a"]`)
		var het *HeterogeneousArrayError
		convey.So(errors.As(err, &het), convey.ShouldBeTrue)
		convey.So(het.Existing.Erase(), convey.ShouldEqual, int64(1))
		convey.So(het.Offending.Erase(), convey.ShouldEqual, "a")
	})

	convey.Convey("homogeneous arrays are fine", t, func() {
		_, err := Parse(`a = [1, 2, 3]`)
		convey.So(err, convey.ShouldBeNil)
	})
}

func TestEmptyKeys(t *testing.T) {
	convey.Convey("headers and paths with empty segments fail", t, func() {
		for _, src := range []string{"[]", "[a.]", "[.a]", "[a..b]", "[[]]"} {
			_, err := Parse(src)
			var empty *EmptyKeyError
			convey.So(errors.As(err, &empty), convey.ShouldBeTrue)
		}
	})
}

func TestSyntaxFailures(t *testing.T) {
	convey.Convey("hard failures abort with no partial document", t, func() {
		for _, src := range []string{
			"a = \"one\ntwo\"",   // newline inside a basic string
			"a = 'one\ntwo'",     // newline inside a literal string
			`a = "\x"`,           // unknown escape
			`a = "unterminated`,  // missing closing quote
			`a = """never ends`,  // committed multiline string
			"a 1",                // missing '='
			"n = 012",            // leading zero
			"d = 1979-05-27",     // bare date is not a value
			"a = [1, 2",          // unterminated array
			"a = [1 2]",          // missing comma
			"[a] junk",           // trailing garbage after header
			"f = 1.",             // fraction without digits
			"f = 1e",             // exponent without digits
		} {
			root, err := Parse(src)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(root, convey.ShouldBeNil)
		}
	})
}

func TestParseErrorDiagnostics(t *testing.T) {
	convey.Convey("a syntax error carries offset, position and the rule stack", t, func() {
		_, err := Parse("ok = 1\nbad = @")
		var perr *ParseError
		convey.So(errors.As(err, &perr), convey.ShouldBeTrue)
		convey.So(perr.Offset, convey.ShouldEqual, 13)
		convey.So(perr.Line, convey.ShouldEqual, 2)
		convey.So(perr.Column, convey.ShouldEqual, 7)
		convey.So(perr.Rules, convey.ShouldContain, "value")
		convey.So(perr.Rules, convey.ShouldContain, "assignment")
	})

	convey.Convey("the diagnostic points a caret at the failure column", t, func() {
		_, err := Parse("bad = @")
		var perr *ParseError
		convey.So(errors.As(err, &perr), convey.ShouldBeTrue)
		diag := perr.Diagnostic()
		convey.So(diag, convey.ShouldContainSubstring, "bad = @")
		convey.So(diag, convey.ShouldContainSubstring, "^")
		convey.So(diag, convey.ShouldContainSubstring, "while parsing:")
	})

	convey.Convey("builder failures surface as a ParseError at the statement", t, func() {
		_, err := Parse("a = 1\na = 2")
		var perr *ParseError
		convey.So(errors.As(err, &perr), convey.ShouldBeTrue)
		convey.So(perr.Line, convey.ShouldEqual, 2)
		convey.So(strings.Contains(perr.Message, "duplicate key"), convey.ShouldBeTrue)
	})
}
