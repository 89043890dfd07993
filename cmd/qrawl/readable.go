package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/use-agent/qrawl/cleaner"
)

var readableCmd = &cobra.Command{
	Use:   "readable SOURCE",
	Short: "Extract the readable main content of a page",
	Long: `Strip a page down to its article content and render it as markdown,
plain text or HTML. Content goes to stdout; --json wraps it with title,
byline and token estimates.

` + sourceHelp,
	Args: cobra.ExactArgs(1),
	RunE: runReadable,
}

func init() {
	rootCmd.AddCommand(readableCmd)

	readableCmd.Flags().String("format", "markdown", "output format: markdown, text or html")
}

func runReadable(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	source := args[0]

	htmlBody, err := readSource(cmd.Context(), source)
	if err != nil {
		return err
	}

	// Relative links only resolve when the source is a URL.
	pageURL := ""
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		pageURL = source
	}

	result, err := cleaner.NewPipeline().Readable(pageURL, htmlBody, format)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(cmd.OutOrStdout(), result)
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.Content)
	return nil
}
