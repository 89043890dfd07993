package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/use-agent/qrawl/engine"
)

var extractCmd = &cobra.Command{
	Use:   "extract URL",
	Short: "Extract structured content from a page using its domain policy",
	Long: `Extract content areas from a page as typed blocks, using the stored
policy for the page's domain.

Examples:
  qrawl extract https://news.ycombinator.com            # Stored policy
  qrawl extract https://example.com/post/1 --unknown    # No policy, infer on the fly
  qrawl extract https://example.com/post/1 --auto       # Infer and store if missing`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().Bool("unknown", false, "extract without a stored policy using page-local inference")
	extractCmd.Flags().Bool("auto", false, "use the stored policy, inferring and storing one first if missing")
}

func runExtract(cmd *cobra.Command, args []string) error {
	unknown, _ := cmd.Flags().GetBool("unknown")
	auto, _ := cmd.Flags().GetBool("auto")
	if unknown && auto {
		return errors.New("--unknown and --auto are mutually exclusive")
	}

	eng, err := newEngine()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var bundle *engine.Bundle
	switch {
	case unknown:
		bundle, err = eng.ExtractUnknown(ctx, args[0])
	case auto:
		bundle, err = eng.ExtractAuto(ctx, args[0])
	default:
		bundle, err = eng.ExtractKnown(ctx, args[0])
	}
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), bundle)
}
