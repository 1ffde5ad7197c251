// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/tp-policy-engine/internal/kb"
)

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Manage the regulatory knowledge base (store, search, export)",
	Long: `Kb manages the local SQLite knowledge base of regulatory text passages.
Use subcommands to index pre-chunked passage files, search them, or export
the index.`,
}

// --- store subcommand ---

var kbStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Index regulatory passage files into the knowledge base",
	Long: `Store reads pre-chunked passage text files from knowledge/chunks/ and
indexes them into a SQLite database with FTS5. Unchanged files are skipped
on subsequent runs.`,
	RunE: runKbStore,
}

func runKbStore(cmd *cobra.Command, args []string) error {
	store, err := openKbStore()
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(context.Background(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d passage(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- search subcommand ---

var kbSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the knowledge base for regulatory passages",
	Long: `Search runs a ranked full-text query over the indexed regulatory
passages, the same retrieval the generation workflow performs per section.`,
	RunE: runKbSearch,
}

func runKbSearch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("query required")
	}
	query := strings.Join(args, " ")
	topK, _ := cmd.Flags().GetInt("top-k")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, err := openKbStore()
	if err != nil {
		return err
	}
	defer store.Close()

	passages, err := store.Retrieve(context.Background(), query, topK)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(passages)
	}

	if len(passages) == 0 {
		fmt.Println("No passages found.")
		return nil
	}
	for i, p := range passages {
		fmt.Printf("--- passage %d ---\n%s\n\n", i+1, p)
	}
	fmt.Printf("%d passages\n", len(passages))
	return nil
}

// --- export subcommand ---

var kbExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the knowledge base to YAML or JSON",
	RunE:  runKbExport,
}

func runKbExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := openKbStore()
	if err != nil {
		return err
	}
	defer store.Close()

	switch format {
	case "yaml", "":
		if err := store.ExportYAML(context.Background()); err != nil {
			return err
		}
		fmt.Println("Exported to knowledge/index/export.yaml")
	case "json":
		if err := store.ExportJSON(context.Background()); err != nil {
			return err
		}
		fmt.Println("Exported to knowledge/index/export.json")
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- shared helpers ---

func openKbStore() (*kb.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return kb.NewStore(cfg.KnowledgeBase)
}

func init() {
	kbSearchCmd.Flags().Int("top-k", 0, "maximum passages to return (0 = use default)")
	kbSearchCmd.Flags().Bool("json", false, "output passages as JSON")

	kbExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	kbCmd.AddCommand(kbStoreCmd)
	kbCmd.AddCommand(kbSearchCmd)
	kbCmd.AddCommand(kbExportCmd)

	rootCmd.AddCommand(kbCmd)
}
