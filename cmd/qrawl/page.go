// The page tools operate on a SOURCE argument: "-" reads HTML from
// stdin, an http(s) URL is ladder-fetched, anything else is a file path.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"

	"github.com/use-agent/qrawl/cleaner"
	"github.com/use-agent/qrawl/fetch"
	"github.com/use-agent/qrawl/jsonld"
	"github.com/use-agent/qrawl/policy"
)

const sourceHelp = `SOURCE is '-' (read HTML from stdin), an http(s) URL
(ladder-fetched), or a file path.`

var jsonldCmd = &cobra.Command{
	Use:   "jsonld SOURCE",
	Short: "Print a page's JSON-LD blocks",
	Long:  "Print every parsed JSON-LD script block of a page.\n\n" + sourceHelp,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		htmlBody, err := readSource(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		blocks, err := scriptBlocks(htmlBody)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), blocks)
	},
}

var metadataCmd = &cobra.Command{
	Use:   "metadata SOURCE",
	Short: "Print a page's metadata in document order",
	Long:  "Print the title, meta tags and language of a page as key/value pairs.\n\n" + sourceHelp,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		htmlBody, err := readSource(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		pairs := cleaner.Metadata(htmlBody)
		if pairs == nil {
			pairs = []cleaner.MetaPair{}
		}
		return printJSON(cmd.OutOrStdout(), pairs)
	},
}

var bodyCmd = &cobra.Command{
	Use:   "body SOURCE",
	Short: "Print a page's <body> HTML",
	Long:  "Print the outer HTML of a page's <body> element, or the whole input when it has none.\n\n" + sourceHelp,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		htmlBody, err := readSource(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cleaner.BodyHTML(htmlBody))
		return nil
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview SOURCE",
	Short: "Print a page's link preview (title, description, image)",
	Long:  "Assemble a social-card preview from a page's metadata.\n\n" + sourceHelp,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		htmlBody, err := readSource(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), cleaner.Preview(cleaner.Metadata(htmlBody)))
	},
}

var schemasCmd = &cobra.Command{
	Use:   "schemas SOURCE",
	Short: "Print the schema.org types of a page's JSON-LD",
	Long:  "List the @type values found in a page's JSON-LD, deduplicated.\n\n" + sourceHelp,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		htmlBody, err := readSource(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		blocks, err := scriptBlocks(htmlBody)
		if err != nil {
			return err
		}
		return printList(cmd, cleaner.SchemaTypes(blocks))
	},
}

var emailsCmd = &cobra.Command{
	Use:   "emails SOURCE",
	Short: "Print the email addresses found on a page",
	Long:  "Extract email addresses from a page's text and mailto: links, normalized and deduplicated.\n\n" + sourceHelp,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		htmlBody, err := readSource(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printList(cmd, cleaner.CleanEmails(cleaner.Emails(htmlBody)))
	},
}

var phonesCmd = &cobra.Command{
	Use:   "phones SOURCE",
	Short: "Print the phone numbers found on a page",
	Long:  "Extract phone numbers from a page's text and tel: links, normalized and deduplicated.\n\n" + sourceHelp,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		htmlBody, err := readSource(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printList(cmd, cleaner.CleanPhones(cleaner.Phones(htmlBody)))
	},
}

func init() {
	rootCmd.AddCommand(jsonldCmd)
	rootCmd.AddCommand(metadataCmd)
	rootCmd.AddCommand(bodyCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(schemasCmd)
	rootCmd.AddCommand(emailsCmd)
	rootCmd.AddCommand(phonesCmd)
}

// readSource resolves a SOURCE argument into HTML.
func readSource(ctx context.Context, source string) (string, error) {
	switch {
	case source == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		res, err := fetch.Fetch(ctx, source, policy.FetchConfig{Strategy: policy.StrategyAdaptive})
		if err != nil {
			return "", err
		}
		return res.HTML, nil
	default:
		data, err := os.ReadFile(source)
		if err != nil {
			return "", fmt.Errorf("read file %s: %w", source, err)
		}
		return string(data), nil
	}
}

// scriptBlocks parses HTML and returns its JSON-LD blocks, never nil.
func scriptBlocks(htmlBody string) ([]any, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	blocks := jsonld.ScriptBlocks(doc)
	if blocks == nil {
		blocks = []any{}
	}
	return blocks, nil
}

// printList writes one item per line, or a JSON array under --json.
func printList(cmd *cobra.Command, items []string) error {
	if jsonOut {
		if items == nil {
			items = []string{}
		}
		return printJSON(cmd.OutOrStdout(), items)
	}
	printLines(cmd.OutOrStdout(), items)
	return nil
}
