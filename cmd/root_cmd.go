package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tq",
	Short: "Tq is a tool for parsing and querying TOML documents.",
	Long:  "Tq is a tool for parsing and querying TOML documents. It parses a document into a typed tree and can render it as JSON or look up dotted key paths.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of Tq",
	Long:  `All software has versions. This is Tq's`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Tq v0.1 -- HEAD")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(tomlCmd)
}
