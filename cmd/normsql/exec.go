package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gopherdb/notionsql/dbapi"
)

func newExecCommand(dsnFlag, configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <sql>",
		Short: "run one statement and commit it immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, closeFn, err := openConnection(*dsnFlag, *configFlag)
			if err != nil {
				return err
			}
			defer closeFn()

			cur, err := c.Execute(args[0], nil)
			if err != nil {
				return err
			}
			if _, err := c.Commit(); err != nil {
				return err
			}
			return printCursor(cmd.OutOrStdout(), cur)
		},
	}
}

func printCursor(w io.Writer, cur *dbapi.TxnCursor) error {
	desc := cur.Description()
	if desc == nil {
		fmt.Fprintf(w, "OK (%d rows affected)\n", cur.RowCount())
		return nil
	}

	rows, err := cur.FetchAll()
	if err != nil {
		return err
	}
	headers := make([]string, len(desc))
	for i, d := range desc {
		headers[i] = d.Name
	}
	fmt.Fprintln(w, printTable(headers, rows))
	return nil
}
