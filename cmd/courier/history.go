package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/blackcoderx/courier/pkg/history"
)

func init() {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show your recent requests, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newHistoryApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.store.List(cmd.Context(), a.cfg.User, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No history yet.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tWHEN\tMETHOD\tSTATUS\tTIME\tURL")
			for _, e := range entries {
				status := fmt.Sprint(e.StatusCode)
				if e.StatusCode == 0 {
					status = "ERR"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%dms\t%s\n",
					e.ID, e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Method, status, e.ResponseTimeMS, e.URL)
			}
			return w.Flush()
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show (0 for all)")

	historyCmd.AddCommand(&cobra.Command{
		Use:   "diff ID1 ID2",
		Short: "Compare two recorded responses",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newHistoryApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			first, err := a.store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			second, err := a.store.Get(cmd.Context(), args[1])
			if err != nil {
				return err
			}

			diff := history.Diff(first, second)
			if diff == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Responses are identical.")
				return nil
			}
			printMarkdown("```diff\n" + diff + "```\n")
			return nil
		},
	})

	rootCmd.AddCommand(historyCmd)
}

// newHistoryApp builds the app and checks that history can be read.
func newHistoryApp(cmd *cobra.Command) (*app, error) {
	a, err := newApp(cmd.Context())
	if err != nil {
		return nil, err
	}
	if a.store == nil {
		a.Close()
		return nil, errors.New("history is disabled (set history.enabled in .courier/config.json)")
	}
	if a.cfg.User == "" {
		a.Close()
		return nil, errors.New("no user configured (set \"user\" in .courier/config.json or COURIER_USER)")
	}
	return a, nil
}
