package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/repr"
	"github.com/dzjyyds666/tq/parse"
	"github.com/dzjyyds666/tq/parse/toml"
	"github.com/dzjyyds666/tq/pkg"
	"github.com/spf13/cobra"
)

type TomlParams struct {
	Find   string `json:"find"`   // 查找的key
	Input  string `json:"input"`  // 输入文件路径
	Output string `json:"output"` // 输出文件地址
	Repr   bool   `json:"repr"`   // 打印带类型的AST
}

var params *TomlParams

var tomlCmd = &cobra.Command{
	Use:   "toml",
	Short: "toml parse tools",
	Run:   tomlRun,
}

func init() {
	params = &TomlParams{}
	tomlCmd.Flags().StringVarP(&params.Find, "find", "f", "", "find")
	tomlCmd.Flags().StringVarP(&params.Input, "input", "i", "", "input file path")
	tomlCmd.Flags().StringVarP(&params.Output, "output", "o", "", "output path")
	tomlCmd.Flags().BoolVarP(&params.Repr, "repr", "r", false, "dump the typed document tree")
}

func tomlRun(cmd *cobra.Command, args []string) {
	if len(params.Input) == 0 {
		fmt.Println("no input file path")
		return
	}
	exist, err := pkg.CheckFileExist(params.Input)
	if err != nil {
		fmt.Println("check file exist error:", err)
		return
	}
	if !exist {
		fmt.Println("input file not exist")
		return
	}

	src, err := pkg.ReadFileString(params.Input)
	if err != nil {
		fmt.Println("read file error:", err)
		return
	}

	root, err := toml.Parse(src)
	if err != nil {
		var perr *toml.ParseError
		if errors.As(err, &perr) {
			fmt.Fprint(os.Stderr, perr.Diagnostic())
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}

	if params.Repr {
		repr.Println(root, repr.Indent("  "))
		return
	}

	var out []byte
	if len(params.Find) > 0 {
		v, ok := toml.GetUntyped(root, strings.Split(params.Find, ".")...)
		if !ok {
			fmt.Fprintln(os.Stderr, "key not found:", params.Find)
			os.Exit(1)
		}
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = parse.ErasedJSON(root)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "encode error:", err)
		os.Exit(1)
	}

	if len(params.Output) > 0 {
		if err := os.WriteFile(params.Output, append(out, '\n'), 0o644); err != nil {
			fmt.Fprintln(os.Stderr, "write output error:", err)
			os.Exit(1)
		}
		return
	}
	fmt.Println(string(out))
}
