// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workflow orchestrates policy generation: a fixed linear
// pipeline of initialize, seven section steps, and finalize, threading
// one GenerationState through every step. Section failures never abort
// the run; every section reaches a terminal outcome before finalize
// computes the overall status.
package workflow

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/tp-policy-engine/internal/section"
	"github.com/pdiddy/tp-policy-engine/pkg/types"
)

// Workflow generates all sections of one policy document in order.
// A Workflow is reusable across runs; each run owns a fresh state.
type Workflow struct {
	sections []*section.Generator
	out      io.Writer
}

// New builds a workflow from the shared section configuration. Progress
// lines are written to out (nil discards them).
func New(cfg section.Config, out io.Writer) (*Workflow, error) {
	if out == nil {
		out = io.Discard
	}
	if cfg.Log == nil {
		cfg.Log = out
	}
	gens, err := section.NewAll(cfg)
	if err != nil {
		return nil, err
	}
	return &Workflow{sections: gens, out: out}, nil
}

// Run executes the generation pipeline for one policy and returns the
// final state. Individual section failures are recorded on the state
// and do not abort the run. Run returns a non-nil error only when the
// inputs fail validation (the run never starts) or the context is
// cancelled between sections (the partially generated state is still
// returned).
func (w *Workflow) Run(ctx context.Context, policyID string, company types.Company, transactions []types.Transaction, fiscalYear string) (*types.GenerationState, error) {
	state, err := w.initialize(policyID, company, transactions, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("initializing generation state: %w", err)
	}

	for _, gen := range w.sections {
		// Cancellation is observed only between sections: a section's
		// generation call is never interrupted mid-flight.
		if err := ctx.Err(); err != nil {
			return state, err
		}
		gen.Generate(ctx, state)
	}

	w.finalize(state)
	return state, nil
}

// initialize validates inputs and constructs the run state with empty
// progress fields plus the opening log event. This is the only step
// whose failure aborts the run.
func (w *Workflow) initialize(policyID string, company types.Company, transactions []types.Transaction, fiscalYear string) (*types.GenerationState, error) {
	if policyID == "" {
		return nil, fmt.Errorf("policy ID is required")
	}
	if fiscalYear == "" {
		return nil, fmt.Errorf("fiscal year is required")
	}
	if err := company.Validate(); err != nil {
		return nil, err
	}
	if len(transactions) == 0 {
		return nil, fmt.Errorf("at least one transaction is required")
	}
	seen := make(map[string]bool)
	for i, txn := range transactions {
		if err := txn.Validate(); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i+1, err)
		}
		if txn.ID != "" && seen[txn.ID] {
			return nil, fmt.Errorf("duplicate transaction ID %q", txn.ID)
		}
		seen[txn.ID] = true
	}

	state := &types.GenerationState{
		PolicyID:     policyID,
		Company:      company,
		Transactions: transactions,
		FiscalYear:   fiscalYear,
		Sections:     make(map[types.SectionName]types.SectionResult),
	}
	state.GenerationLog = append(state.GenerationLog, types.LogEvent{
		Timestamp: time.Now().UTC(),
		Event:     "initialization",
		Status:    "started",
	})

	fmt.Fprintf(w.out, "policy %s: generating for %s (%s), fiscal year %s, %d transactions\n",
		policyID, company.Name, company.Jurisdiction, fiscalYear, len(transactions))

	return state, nil
}

// finalize computes the overall run status and appends the closing log
// event. The run is completed only when every section generated.
func (w *Workflow) finalize(state *types.GenerationState) {
	status := types.RunCompleted
	if len(state.CompletedSections) != len(types.SectionOrder) {
		status = types.RunPartial
	}
	state.Status = status

	progress := state.Progress()
	state.GenerationLog = append(state.GenerationLog, types.LogEvent{
		Timestamp: time.Now().UTC(),
		Event:     "finalization",
		Status:    string(status),
		Progress:  &progress,
	})

	fmt.Fprintf(w.out, "policy %s: %s (%d/%d sections)\n",
		state.PolicyID, status, len(state.CompletedSections), len(types.SectionOrder))
	if len(state.FailedSections) > 0 {
		fmt.Fprintf(w.out, "failed sections: %v\n", state.FailedSections)
	}
}
