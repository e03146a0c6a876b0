package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"xil/internal/graphexport"
	"xil/internal/graphstore"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect graphs saved in a SQLite database",
}

var storeListCmd = &cobra.Command{
	Use:   "list <db> [unit]",
	Short: "List stored graphs, newest last",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		unit := ""
		if len(args) == 2 {
			unit = args[1]
		}
		return withStore(args[0], func(st *graphstore.Store) error {
			metas, err := st.List(cmd.Context(), unit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tUNIT\tMODULE\tEDGES\tCREATED")
			for _, m := range metas {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", m.ID, m.Unit, m.Module, m.Edges, m.CreatedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		})
	},
}

var storeShowCmd = &cobra.Command{
	Use:   "show <db> <id>",
	Short: "Print the diagram of a stored graph",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(args[0], func(st *graphstore.Store) error {
			g, _, err := st.Load(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			return graphexport.WriteDiagram(cmd.OutOrStdout(), g)
		})
	},
}

var storeRmCmd = &cobra.Command{
	Use:   "rm <db> <id>",
	Short: "Delete a stored graph",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(args[0], func(st *graphstore.Store) error {
			return st.Delete(cmd.Context(), args[1])
		})
	},
}

func init() {
	storeCmd.AddCommand(storeListCmd, storeShowCmd, storeRmCmd)
}

func withStore(path string, fn func(*graphstore.Store) error) (err error) {
	st, err := graphstore.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); err == nil {
			err = closeErr
		}
	}()
	return fn(st)
}
