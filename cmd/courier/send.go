package main

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/blackcoderx/courier/pkg/core"
	"github.com/blackcoderx/courier/pkg/storage"
)

func init() {
	var (
		flags   requestFlags
		copyOut bool
	)

	sendCmd := &cobra.Command{
		Use:   "send METHOD URL",
		Short: "Send a request and show the response",
		Example: `  courier send GET https://api.example.com/users -q page=2
  courier send POST {{BASE_URL}}/login -d '{"user":"me"}' --assert 'status == 200'
  courier send POST https://api.example.com/graphql --graphql '{ me { id } }'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.build(args[0], args[1])
			if err != nil {
				return err
			}
			schema, err := flags.schema()
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			env, _, err := a.environment(envName)
			if err != nil {
				return err
			}

			res, err := a.runner.Run(cmd.Context(), req, core.RunOptions{
				Env:        env,
				Assertions: flags.assertions(),
				Schema:     schema,
			})
			if err != nil {
				return err
			}
			return report(res, copyOut)
		},
	}
	flags.bind(sendCmd)
	sendCmd.Flags().BoolVar(&copyOut, "copy", false, "copy the response body to the clipboard")

	runCmd := &cobra.Command{
		Use:   "run NAME",
		Short: "Run a saved request with its assertions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			saved, err := storage.LoadRequest(a.baseDir, args[0])
			if err != nil {
				return fmt.Errorf("failed to load request '%s': %w", args[0], err)
			}
			env, _, err := a.environment(envName)
			if err != nil {
				return err
			}

			res, err := a.runner.RunSaved(cmd.Context(), *saved, env)
			if err != nil {
				return err
			}
			return report(res, copyOut)
		},
	}
	runCmd.Flags().BoolVar(&copyOut, "copy", false, "copy the response body to the clipboard")

	rootCmd.AddCommand(sendCmd, runCmd)
}

// report prints res and returns errFailed when it did not pass.
func report(res *core.Result, copyOut bool) error {
	printMarkdown(res.Markdown())

	if copyOut && !res.Outcome.Response.Failed() {
		if err := clipboard.WriteAll(res.PrettyBody()); err != nil {
			return fmt.Errorf("failed to copy body: %w", err)
		}
	}

	if !res.Passed() {
		return errFailed
	}
	return nil
}
