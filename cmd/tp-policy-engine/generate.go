// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/tp-policy-engine/internal/kb"
	"github.com/pdiddy/tp-policy-engine/internal/llm"
	"github.com/pdiddy/tp-policy-engine/internal/policystore"
	"github.com/pdiddy/tp-policy-engine/internal/prompt"
	"github.com/pdiddy/tp-policy-engine/internal/section"
	"github.com/pdiddy/tp-policy-engine/internal/workflow"
	"github.com/pdiddy/tp-policy-engine/pkg/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a transfer pricing policy document",
	Long: `Generate runs the seven-section generation workflow for a company and its
related-party transactions, then stores the resulting policy document.

Company and transaction data are supplied as YAML files. Each section is
grounded in regulatory passages retrieved from the knowledge base; a section
failure does not abort the run, and a partially generated policy is stored
with status "partial".`,
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	companyFile, _ := cmd.Flags().GetString("company")
	transactionsFile, _ := cmd.Flags().GetString("transactions")
	fiscalYear, _ := cmd.Flags().GetString("fiscal-year")
	policyID, _ := cmd.Flags().GetString("policy-id")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if companyFile == "" || transactionsFile == "" {
		return fmt.Errorf("--company and --transactions are required")
	}
	if fiscalYear == "" {
		return fmt.Errorf("--fiscal-year is required")
	}
	if policyID == "" {
		policyID = uuid.NewString()
	}

	company, transactions, err := loadInputs(companyFile, transactionsFile)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	kbStore, err := kb.NewStore(cfg.KnowledgeBase)
	if err != nil {
		return err
	}
	defer kbStore.Close()

	generator, err := newGenerator(cfg.LLM)
	if err != nil {
		return err
	}

	wf, err := workflow.New(section.Config{
		Retriever: kbStore,
		Generator: generator,
		Templates: prompt.NewStore(cfg.Generation.PromptsDir),
		TopK:      cfg.KnowledgeBase.TopK,
		Timeout:   cfg.Generation.SectionTimeout,
	}, os.Stderr)
	if err != nil {
		return err
	}

	state, err := wf.Run(context.Background(), policyID, company, transactions, fiscalYear)
	if err != nil {
		return err
	}

	policies, err := policystore.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer policies.Close()

	rec, err := policies.SaveRun(context.Background(), state)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	fmt.Printf("Policy %s stored with status %s (%d%% complete)\n", rec.ID, rec.Status, rec.Progress)
	for _, name := range types.SectionOrder {
		res, ok := state.Sections[name]
		if !ok {
			fmt.Printf("  %-28s failed\n", name)
			continue
		}
		fmt.Printf("  %-28s %s (%d citations)\n", name, res.Status, len(res.Citations))
	}
	if len(state.Errors) > 0 {
		fmt.Println("\nErrors:")
		for _, e := range state.Errors {
			fmt.Printf("  %s\n", e)
		}
	}
	return nil
}

// newGenerator builds the configured text-generation backend.
func newGenerator(cfg types.LLMConfig) (section.TextGenerator, error) {
	switch cfg.Backend {
	case types.BackendOllama, "":
		return &llm.OllamaClient{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			MaxRetries: cfg.MaxRetries,
		}, nil
	case types.BackendClaude:
		apiKey := secretDefault("anthropic-api-key", cfg.APIKey)
		if apiKey == "" {
			return nil, fmt.Errorf("claude backend requires an API key (.secrets/anthropic-api-key or llm.api_key)")
		}
		return &llm.ClaudeClient{
			APIKey:     apiKey,
			Model:      cfg.Model,
			MaxRetries: cfg.MaxRetries,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported LLM backend %q: use ollama or claude", cfg.Backend)
	}
}

// loadInputs reads the company and transaction YAML files.
func loadInputs(companyFile, transactionsFile string) (types.Company, []types.Transaction, error) {
	var company types.Company
	data, err := os.ReadFile(companyFile)
	if err != nil {
		return company, nil, fmt.Errorf("reading company file: %w", err)
	}
	if err := yaml.Unmarshal(data, &company); err != nil {
		return company, nil, fmt.Errorf("parsing company file: %w", err)
	}

	var transactions []types.Transaction
	data, err = os.ReadFile(transactionsFile)
	if err != nil {
		return company, nil, fmt.Errorf("reading transactions file: %w", err)
	}
	if err := yaml.Unmarshal(data, &transactions); err != nil {
		return company, nil, fmt.Errorf("parsing transactions file: %w", err)
	}

	return company, transactions, nil
}

func init() {
	generateCmd.Flags().String("company", "", "path to company YAML file")
	generateCmd.Flags().String("transactions", "", "path to transactions YAML file")
	generateCmd.Flags().String("fiscal-year", "", "fiscal year for the policy (e.g. 2023-24)")
	generateCmd.Flags().String("policy-id", "", "policy identifier (default: new UUID)")
	generateCmd.Flags().Bool("json", false, "print the stored policy record as JSON")

	rootCmd.AddCommand(generateCmd)
}
