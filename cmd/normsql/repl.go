package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/gopherdb/notionsql/conn"
)

const (
	prompt          = "normsql> "
	promptContinued = "     ...> "
)

func newReplCommand(dsnFlag, configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "start an interactive session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, closeFn, err := openConnection(*dsnFlag, *configFlag)
			if err != nil {
				return err
			}
			defer closeFn()
			return runRepl(c, cmd.OutOrStdout())
		},
	}
}

func runRepl(c *conn.Connection, out io.Writer) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyPath := historyFilePath()
	if f, err := os.Open(historyPath); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Fprintln(out, "Welcome to normsql. Type .exit to quit, .commit and .rollback to end a transaction.")

	var buffered strings.Builder
	for {
		p := prompt
		if buffered.Len() > 0 {
			p = promptContinued
		}
		input, err := line.Prompt(p)
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				return nil
			}
			return err
		}
		line.AppendHistory(input)

		trimmed := strings.TrimSpace(input)
		if buffered.Len() == 0 {
			switch trimmed {
			case ".exit":
				return nil
			case ".commit":
				if _, err := c.Commit(); err != nil {
					fmt.Fprintln(out, "Err:", err)
				}
				continue
			case ".rollback":
				if err := c.Rollback(); err != nil {
					fmt.Fprintln(out, "Err:", err)
				}
				continue
			}
		}

		buffered.WriteString(input)
		stmt := buffered.String()
		if !strings.HasSuffix(strings.TrimSpace(stmt), ";") {
			buffered.WriteString(" ")
			continue
		}
		buffered.Reset()

		cur, err := c.Execute(strings.TrimSuffix(strings.TrimSpace(stmt), ";"), nil)
		if err != nil {
			fmt.Fprintln(out, "Err:", err)
			continue
		}
		if err := printCursor(out, cur); err != nil {
			fmt.Fprintln(out, "Err:", err)
		}
	}
}

func historyFilePath() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".normsql_history")
	}
	return filepath.Join(dir, ".normsql_history")
}
