package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackcoderx/courier/pkg/core"
)

func init() {
	var (
		onFailure string
		save      bool
	)

	suiteCmd := &cobra.Command{
		Use:   "suite COLLECTION",
		Short: "Run every request of a collection in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			env, _, err := a.environment(envName)
			if err != nil {
				return err
			}

			result, err := a.runner.RunSuite(cmd.Context(), a.baseDir, args[0], env, onFailure)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), result.Format())

			if save {
				path, err := core.SaveSuiteResult(a.baseDir, result)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Results saved to %s\n", path)
			}

			if !result.AllPassed() {
				return errFailed
			}
			return nil
		},
	}
	suiteCmd.Flags().StringVar(&onFailure, "on-failure", core.OnFailureStop, "stop or continue after a failing request")
	suiteCmd.Flags().BoolVar(&save, "save", false, "write the results as JSON under .courier/test-results")

	rootCmd.AddCommand(suiteCmd)
}
