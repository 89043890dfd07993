package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/use-agent/qrawl/fetch"
	"github.com/use-agent/qrawl/policy"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch URL",
	Short: "Ladder-fetch a URL and print its HTML",
	Long: `Fetch a URL through the profile ladder, escalating browser
impersonations until one yields scrapable HTML. The HTML goes to stdout;
telemetry (profile used, attempts, duration) goes to stderr.

Example:
  qrawl fetch https://example.com > page.html`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	rawURL := args[0]
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return errors.New("URL must start with http:// or https://")
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Fetching %s...\n", rawURL)

	res, err := fetch.Fetch(cmd.Context(), rawURL, policy.FetchConfig{Strategy: policy.StrategyAdaptive})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), res.HTML)
	fmt.Fprintf(cmd.ErrOrStderr(), "✓ Success\n  Profile: %s\n  Attempts: %d\n  Duration: %dms\n",
		res.ProfileUsed, res.Attempts, res.DurationMS)
	return nil
}
