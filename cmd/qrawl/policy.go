package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/use-agent/qrawl/domain"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Manage per-domain extraction policies",
	Long: `Manage the stored extraction policies, one JSON file per domain.

Example usage:
  qrawl policy create shop.example.com   # Infer, verify and store
  qrawl policy read shop.example.com     # Print the stored policy
  qrawl policy list                      # List stored domains
  qrawl policy delete shop.example.com   # Delete one policy
  qrawl policy delete all --yes          # Delete every policy`,
}

var policyCreateCmd = &cobra.Command{
	Use:   "create DOMAIN",
	Short: "Infer, verify and store a policy for a domain",
	Args:  cobra.ExactArgs(1),
	RunE:  runPolicyCreate,
}

var policyReadCmd = &cobra.Command{
	Use:   "read TARGET",
	Short: "Print the stored policy for a domain",
	Args:  cobra.ExactArgs(1),
	RunE:  runPolicyRead,
}

var policyListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the domains with stored policies",
	Args:    cobra.NoArgs,
	RunE:    runPolicyList,
}

var policyDeleteCmd = &cobra.Command{
	Use:   "delete TARGET",
	Short: "Delete the stored policy for a domain, or 'all' for every policy",
	Args:  cobra.ExactArgs(1),
	RunE:  runPolicyDelete,
}

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyCreateCmd)
	policyCmd.AddCommand(policyReadCmd)
	policyCmd.AddCommand(policyListCmd)
	policyCmd.AddCommand(policyDeleteCmd)

	policyDeleteCmd.Flags().Bool("yes", false, "confirm deleting all policies")
}

func runPolicyCreate(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}

	pol, err := eng.CreatePolicyAuto(cmd.Context(), domain.Domain(args[0]))
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), pol)
}

func runPolicyRead(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}

	pol, err := eng.ReadPolicy(args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), pol)
}

func runPolicyList(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}

	pols, err := eng.ListPolicies()
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(cmd.OutOrStdout(), pols)
	}
	for _, pol := range pols {
		fmt.Fprintln(cmd.OutOrStdout(), string(pol.Domain))
	}
	return nil
}

func runPolicyDelete(cmd *cobra.Command, args []string) error {
	target := args[0]
	yes, _ := cmd.Flags().GetBool("yes")
	if strings.EqualFold(target, "all") && !yes {
		return errors.New("refusing to delete all policies without --yes")
	}

	eng, err := newEngine()
	if err != nil {
		return err
	}

	if err := eng.DeletePolicy(target); err != nil {
		return err
	}

	if strings.EqualFold(target, "all") {
		fmt.Fprintln(cmd.OutOrStdout(), "deleted all policies")
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", domain.Canonicalize(target))
	}
	return nil
}
