package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackcoderx/courier/pkg/perf"
	"github.com/blackcoderx/courier/pkg/storage"
)

func init() {
	var (
		duration time.Duration
		rps      int
		users    int
		rampUp   time.Duration
	)

	benchCmd := &cobra.Command{
		Use:   "bench NAME",
		Short: "Load test a saved request",
		Example: `  courier bench "list users" --rps 50 --users 10 --duration 30s --ramp-up 5s`,
		Args: cobra.ExactArgs(1),
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

			// Load tests are not recorded in history.
			result, err := perf.Bench(cmd.Context(), newBenchDispatcher(a), perf.Params{
				Request:           storage.ApplyEnvironment(saved.Request, env),
				Duration:          duration,
				RequestsPerSecond: rps,
				ConcurrentUsers:   users,
				RampUp:            rampUp,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Format())
			return nil
		},
	}
	benchCmd.Flags().DurationVar(&duration, "duration", 10*time.Second, "how long to run")
	benchCmd.Flags().IntVar(&rps, "rps", 10, "target requests per second")
	benchCmd.Flags().IntVar(&users, "users", 1, "concurrent users")
	benchCmd.Flags().DurationVar(&rampUp, "ramp-up", 0, "time until all users are active")

	rootCmd.AddCommand(benchCmd)
}
