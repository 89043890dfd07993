package main

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

// resetCLI restores flag state mutated by earlier executions and captures
// stdout into the returned buffer.
func resetCLI(t *testing.T) *bytes.Buffer {
	t.Helper()
	storeHome = ""
	logLevel = "warn"
	jsonOut = false
	_ = policyDeleteCmd.Flags().Set("yes", "false")
	_ = extractCmd.Flags().Set("unknown", "false")
	_ = extractCmd.Flags().Set("auto", "false")
	_ = readableCmd.Flags().Set("format", "markdown")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(io.Discard)
	return buf
}

func TestRootHelpListsCommands(t *testing.T) {
	buf := resetCLI(t)
	rootCmd.SetArgs([]string{"--help"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("root --help failed: %v", err)
	}

	out := buf.String()
	for _, name := range []string{
		"extract", "policy", "fetch", "children", "readable",
		"jsonld", "metadata", "body", "preview", "schemas", "emails", "phones",
	} {
		if !strings.Contains(out, name) {
			t.Errorf("expected help output to list %q command, got:\n%s", name, out)
		}
	}
}

func TestRootUnknownCommand(t *testing.T) {
	resetCLI(t)
	rootCmd.SetArgs([]string{"nonexistent-command"})

	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected error for unknown command, got nil")
	}
}

func TestFetchRejectsNonHTTPURL(t *testing.T) {
	resetCLI(t)
	rootCmd.SetArgs([]string{"fetch", "ftp://example.com/file"})

	err := rootCmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "http:// or https://") {
		t.Fatalf("err = %v, want scheme rejection", err)
	}
}

func TestExtractFlagsMutuallyExclusive(t *testing.T) {
	resetCLI(t)
	rootCmd.SetArgs([]string{"extract", "https://example.com", "--unknown", "--auto"})

	err := rootCmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "mutually exclusive") {
		t.Fatalf("err = %v, want mutual exclusion error", err)
	}
}

func TestChildrenRejectsBadURL(t *testing.T) {
	resetCLI(t)
	rootCmd.SetArgs([]string{"children", "not a url"})

	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected error for invalid URL, got nil")
	}
}
