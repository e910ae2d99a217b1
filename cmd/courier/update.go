package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/blang/semver"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
	"github.com/spf13/cobra"
)

const releaseRepo = "blackcoderx/courier"

var errDevBuild = errors.New("development builds cannot be updated; install a release instead")

func init() {
	var checkOnly, yes bool

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Update Courier to the latest release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := currentVersion(cmd.Root().Version)
			if err != nil {
				return err
			}

			latest, found, err := selfupdate.DetectLatest(releaseRepo)
			if err != nil {
				return fmt.Errorf("failed to check for releases: %w", err)
			}
			out := cmd.OutOrStdout()
			if !found || latest.Version.LTE(current) {
				fmt.Fprintf(out, "Courier %s is up to date\n", current)
				return nil
			}

			fmt.Fprintf(out, "Courier %s is available (running %s)\n", latest.Version, current)
			if latest.URL != "" {
				fmt.Fprintf(out, "Release notes: %s\n", latest.URL)
			}
			if checkOnly {
				return nil
			}
			if !yes && !confirm(cmd, "Update now? (y/n): ") {
				return nil
			}

			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("could not locate executable: %w", err)
			}
			if err := selfupdate.UpdateTo(latest.AssetURL, exe); err != nil {
				return fmt.Errorf("failed to update binary: %w", err)
			}
			fmt.Fprintf(out, "✓ Updated to %s\n", latest.Version)
			return nil
		},
	}
	updateCmd.Flags().BoolVar(&checkOnly, "check", false, "only report whether a newer release exists")
	updateCmd.Flags().BoolVarP(&yes, "yes", "y", false, "update without asking")

	rootCmd.AddCommand(updateCmd)
}

// currentVersion parses the running build's version. Release tags may
// carry a leading "v".
func currentVersion(v string) (semver.Version, error) {
	if v == "" || v == "dev" {
		return semver.Version{}, errDevBuild
	}
	parsed, err := semver.ParseTolerant(v)
	if err != nil {
		return semver.Version{}, fmt.Errorf("invalid build version %q: %w", v, err)
	}
	return parsed, nil
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
