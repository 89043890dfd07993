package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/use-agent/qrawl/engine"
	"github.com/use-agent/qrawl/store"
)

var (
	storeHome string
	logLevel  string
	jsonOut   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "qrawl",
	Short: "Domain-aware web extraction toolkit",
	Long: `qrawl extracts structured content from web pages using per-domain
policies: stored selector configs that say where the content lives and
how to fetch it past bot mitigation.

Example usage:
  qrawl policy create news.ycombinator.com   # Infer and store a policy
  qrawl extract https://news.ycombinator.com # Extract using the policy
  qrawl extract https://example.com --auto   # Infer on the fly if needed
  qrawl fetch https://example.com > page.html
  qrawl metadata page.html                   # Page tools read files too
  cat page.html | qrawl emails -`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogger(logLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storeHome, "home", "", "qrawl home directory (default $QRAWL_HOME, then the user config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output lists as JSON")
}

// initLogger sends slog output to stderr so stdout stays parseable.
func initLogger(level string) {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}

// openStore resolves the policy store: --home wins, then the store's own
// defaults ($QRAWL_HOME, user config dir).
func openStore() (store.PolicyStore, error) {
	if storeHome != "" {
		return store.NewLocalFSAt(filepath.Join(storeHome, "policies")), nil
	}
	return store.NewLocalFS()
}

func newEngine() (*engine.Engine, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	return engine.New(st), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printLines(w io.Writer, items []string) {
	for _, item := range items {
		fmt.Fprintln(w, item)
	}
}
