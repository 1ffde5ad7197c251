// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/tp-policy-engine/internal/policystore"
	"github.com/pdiddy/tp-policy-engine/pkg/types"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect, edit, review, and approve stored policies",
}

// --- list subcommand ---

var policyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored policies",
	RunE:  runPolicyList,
}

func runPolicyList(cmd *cobra.Command, args []string) error {
	store, err := openPolicyStore()
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(context.Background())
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println("No policies found.")
		return nil
	}

	fmt.Printf("%-36s  %-24s  %-10s  %-10s  %s\n", "ID", "Company", "FY", "Status", "Progress")
	for _, rec := range records {
		company := rec.CompanyName
		if len(company) > 24 {
			company = company[:21] + "..."
		}
		fmt.Printf("%-36s  %-24s  %-10s  %-10s  %d%%\n",
			rec.ID, company, rec.FiscalYear, rec.Status, rec.Progress)
	}
	return nil
}

// --- show subcommand ---

var policyShowCmd = &cobra.Command{
	Use:   "show [policy-id]",
	Short: "Show a stored policy with its sections",
	Args:  cobra.ExactArgs(1),
	RunE:  runPolicyShow,
}

func runPolicyShow(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, err := openPolicyStore()
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.Get(context.Background(), args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	fmt.Printf("Policy %s\n", rec.ID)
	fmt.Printf("Company:     %s\n", rec.CompanyName)
	fmt.Printf("Fiscal year: %s\n", rec.FiscalYear)
	fmt.Printf("Status:      %s (version %d, %d%% complete)\n", rec.Status, rec.Version, rec.Progress)
	if len(rec.Errors) > 0 {
		fmt.Println("Errors:")
		for _, e := range rec.Errors {
			fmt.Printf("  %s\n", e)
		}
	}
	for _, name := range types.SectionOrder {
		res, ok := rec.Sections[name]
		if !ok {
			continue
		}
		fmt.Printf("\n=== %s (%s) ===\n", name, res.Status)
		if len(res.Citations) > 0 {
			fmt.Printf("Citations: %v\n", res.Citations)
		}
		fmt.Println(res.Content)
	}
	return nil
}

// --- edit subcommand ---

var policyEditCmd = &cobra.Command{
	Use:   "edit [policy-id] [section]",
	Short: "Replace a section's content with a manual edit",
	Args:  cobra.ExactArgs(2),
	RunE:  runPolicyEdit,
}

func runPolicyEdit(cmd *cobra.Command, args []string) error {
	contentFile, _ := cmd.Flags().GetString("content-file")
	if contentFile == "" {
		return fmt.Errorf("--content-file is required")
	}
	content, err := os.ReadFile(contentFile)
	if err != nil {
		return fmt.Errorf("reading content file: %w", err)
	}

	store, err := openPolicyStore()
	if err != nil {
		return err
	}
	defer store.Close()

	name := types.SectionName(args[1])
	if err := store.UpdateSection(context.Background(), args[0], name, string(content)); err != nil {
		return err
	}
	fmt.Printf("Section %s updated.\n", name)
	return nil
}

// --- review / approve subcommands ---

var policyReviewCmd = &cobra.Command{
	Use:   "review [policy-id]",
	Short: "Record a review of a policy",
	Args:  cobra.ExactArgs(1),
	RunE:  runPolicyReview,
}

func runPolicyReview(cmd *cobra.Command, args []string) error {
	reviewer, _ := cmd.Flags().GetString("by")
	comments, _ := cmd.Flags().GetString("comments")
	if reviewer == "" {
		return fmt.Errorf("--by is required")
	}

	store, err := openPolicyStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Review(context.Background(), args[0], reviewer, comments); err != nil {
		return err
	}
	fmt.Printf("Policy %s reviewed by %s.\n", args[0], reviewer)
	return nil
}

var policyApproveCmd = &cobra.Command{
	Use:   "approve [policy-id]",
	Short: "Approve a policy",
	Args:  cobra.ExactArgs(1),
	RunE:  runPolicyApprove,
}

func runPolicyApprove(cmd *cobra.Command, args []string) error {
	approver, _ := cmd.Flags().GetString("by")
	if approver == "" {
		return fmt.Errorf("--by is required")
	}

	store, err := openPolicyStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Approve(context.Background(), args[0], approver); err != nil {
		return err
	}
	fmt.Printf("Policy %s approved by %s.\n", args[0], approver)
	return nil
}

// --- shared helpers ---

func openPolicyStore() (*policystore.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return policystore.NewStore(cfg.Store)
}

func init() {
	policyShowCmd.Flags().Bool("json", false, "output the policy record as JSON")
	policyEditCmd.Flags().String("content-file", "", "file holding the replacement section content")
	policyReviewCmd.Flags().String("by", "", "reviewer name")
	policyReviewCmd.Flags().String("comments", "", "review comments")
	policyApproveCmd.Flags().String("by", "", "approver name")

	policyCmd.AddCommand(policyListCmd)
	policyCmd.AddCommand(policyShowCmd)
	policyCmd.AddCommand(policyEditCmd)
	policyCmd.AddCommand(policyReviewCmd)
	policyCmd.AddCommand(policyApproveCmd)

	rootCmd.AddCommand(policyCmd)
}
