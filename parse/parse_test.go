package parse

import (
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestParseTomlReader(t *testing.T) {
	convey.Convey("the facade parses from any reader", t, func() {
		src := `
[server]
host = "localhost"
port = 8080
`
		root, err := ParseToml(strings.NewReader(src))
		convey.So(err, convey.ShouldBeNil)
		convey.So(root.Erase(), convey.ShouldResemble, map[string]any{
			"server": map[string]any{
				"host": "localhost",
				"port": int64(8080),
			},
		})
	})
}

func TestErasedJSON(t *testing.T) {
	convey.Convey("the erased JSON view is deterministic", t, func() {
		root, err := ParseString("b = 2\na = 1")
		convey.So(err, convey.ShouldBeNil)
		first, err := ErasedJSON(root)
		convey.So(err, convey.ShouldBeNil)
		second, err := ErasedJSON(root)
		convey.So(err, convey.ShouldBeNil)
		convey.So(string(first), convey.ShouldEqual, string(second))
		convey.So(string(first), convey.ShouldContainSubstring, `"a": 1`)
		convey.So(string(first), convey.ShouldContainSubstring, `"b": 2`)
	})
}
