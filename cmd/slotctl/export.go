package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/codr1/nailbook/internal/export"
	"github.com/codr1/nailbook/internal/slots"
)

func newExportCmd(env *environment) *cobra.Command {
	var out string
	var openOnly bool

	c := &cobra.Command{
		Use:   "export",
		Short: "Write open and completed reservations as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := env.open()
			if err != nil {
				return err
			}
			defer s.Close()

			var rows []slots.Row
			err = s.session.Read(commandContext(cmd), func(store *slots.Store) error {
				rows = store.Rows(!openOnly)
				return nil
			})
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			if err := export.WriteCSV(w, rows); err != nil {
				return err
			}
			if out != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s\n", len(rows), out)
			}
			return nil
		},
	}

	c.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	c.Flags().BoolVar(&openOnly, "open-only", false, "skip completed reservations")
	return c
}
