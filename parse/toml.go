package parse

// Package parse is the thin I/O-facing layer over the core toml package:
// it reads source text from a reader and renders the erased view for
// external consumption. The core itself performs no I/O.

import (
	"encoding/json"
	"io"

	"github.com/dzjyyds666/tq/parse/toml"
)

// ParseToml reads all of r and parses it as a TOML document.
func ParseToml(r io.Reader) (*toml.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return toml.Parse(string(data))
}

// ParseString parses a TOML document held in a string.
func ParseString(s string) (*toml.Table, error) {
	return toml.Parse(s)
}

// ErasedJSON renders the erased view of a parsed document as indented
// JSON. Map keys are emitted in sorted order, so the output is
// deterministic and suitable for comparison against reference fixtures.
func ErasedJSON(t *toml.Table) ([]byte, error) {
	return json.MarshalIndent(t.Erase(), "", "  ")
}
