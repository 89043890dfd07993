package main

import (
	"github.com/spf13/cobra"

	"github.com/use-agent/qrawl/domain"
	"github.com/use-agent/qrawl/fetch"
	"github.com/use-agent/qrawl/miner"
	"github.com/use-agent/qrawl/policy"
)

var childrenCmd = &cobra.Command{
	Use:   "children URL",
	Short: "Discover child page URLs linked from a listing page",
	Long: `Fetch a listing page and print the URLs of its child pages: the
primary links of its repeated sibling blocks plus any ItemList entries
in its JSON-LD. One URL per line; --json for a JSON array.`,
	Args: cobra.ExactArgs(1),
	RunE: runChildren,
}

func init() {
	rootCmd.AddCommand(childrenCmd)
}

func runChildren(cmd *cobra.Command, args []string) error {
	rawURL := args[0]
	if _, _, err := domain.Parse(rawURL); err != nil {
		return err
	}

	res, err := fetch.Fetch(cmd.Context(), rawURL, policy.FetchConfig{Strategy: policy.StrategyAdaptive})
	if err != nil {
		return err
	}

	children := miner.Children(res.HTML, rawURL)
	if jsonOut {
		if children == nil {
			children = []string{}
		}
		return printJSON(cmd.OutOrStdout(), children)
	}
	printLines(cmd.OutOrStdout(), children)
	return nil
}
