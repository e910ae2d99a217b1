package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/blackcoderx/courier/pkg/core"
	"github.com/blackcoderx/courier/pkg/echo"
)

func init() {
	var (
		addr string
		keep int
	)

	echoCmd := &cobra.Command{
		Use:   "echo",
		Short: "Run a local server that echoes every request it receives",
		Long: `Starts a local HTTP server that replies with a JSON description of each
request (method, path, query, headers, body). Point a request at it to see
exactly what Courier puts on the wire. Stop with ctrl+c.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := core.LoadConfig(viper.GetViper())
			if err != nil {
				return err
			}

			logger := core.NewLogger(cfg.LogLevel)
			srv := echo.New(logger, echo.WithLimit(keep))
			url, err := srv.Start(addr)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Echo server listening on %s\n", url)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			logger.Info("echo server stopped", "requests", srv.Count())

			fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", srv.Format())
			return nil
		},
	}
	echoCmd.Flags().StringVar(&addr, "addr", ":8099", "listen address")
	echoCmd.Flags().IntVar(&keep, "keep", echo.DefaultLimit, "number of recent requests to keep for the summary")

	rootCmd.AddCommand(echoCmd)
}
