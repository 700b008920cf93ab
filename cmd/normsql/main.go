// Command normsql is the CLI front end over conn: a repl for interactive
// use, exec for one-shot statements, and version for build metadata.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags; left as a fallback default
// otherwise.
var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "normsql:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var dsnFlag string
	var configFlag string

	root := &cobra.Command{
		Use:   "normsql",
		Short: "normsql is a SQL-shaped client for a Notion-backed database engine",
	}
	root.PersistentFlags().StringVar(&dsnFlag, "dsn", "normlite:///:memory:", "connection URI (see the normlite/normlite+auth schemes)")
	root.PersistentFlags().StringVar(&configFlag, "config", "", "optional YAML config file")

	root.AddCommand(newReplCommand(&dsnFlag, &configFlag))
	root.AddCommand(newExecCommand(&dsnFlag, &configFlag))
	root.AddCommand(newVersionCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the normsql version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}
