// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package section generates individual policy document sections. Each
// section has its own retrieval query and template variables; a single
// generic Generator drives retrieval, template rendering, and the LLM
// call, and records the outcome on the run state.
package section

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/tp-policy-engine/internal/prompt"
	"github.com/pdiddy/tp-policy-engine/pkg/types"
)

const (
	// defaultMethod is the transfer-pricing method assumed when no
	// upstream method decision exists. Placeholder business rule.
	defaultMethod = "TNMM"

	// defaultPLI is the profit-level indicator used by the
	// benchmarking section.
	defaultPLI = "Operating Margin on Operating Costs"

	// functionalAnalysisFallback substitutes for the functional
	// analysis content when that section is absent or failed.
	functionalAnalysisFallback = "See functional analysis section"
)

// ContextRetriever returns the most relevant regulatory passages for a
// query, best match first. An empty knowledge base yields an empty
// slice, not an error. Implementations must be safe for concurrent use
// by independent runs.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]string, error)
}

// TextGenerator produces natural-language text from a fully assembled
// prompt. Implementations must be safe for concurrent use by
// independent runs.
type TextGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// spec holds the per-section customization points: the retrieval query
// and any template variables beyond the shared base set.
type spec struct {
	query     func(jurisdiction types.Jurisdiction, txnTypes []string) string
	extraVars func(state *types.GenerationState) map[string]string
}

// specs maps each section to its behavior. Sections absent from the
// map are rejected by New.
var specs = map[types.SectionName]spec{
	types.SectionExecutiveSummary: {
		query: func(j types.Jurisdiction, _ []string) string {
			return fmt.Sprintf("executive summary requirements for transfer pricing documentation in %s", j)
		},
	},
	types.SectionRelatedParties: {
		query: func(j types.Jurisdiction, _ []string) string {
			return fmt.Sprintf("related party definition and identification requirements in %s", j)
		},
	},
	types.SectionFunctionalAnalysis: {
		query: func(j types.Jurisdiction, txnTypes []string) string {
			return fmt.Sprintf("functional analysis FAR framework and requirements for %s in %s", strings.Join(txnTypes, ", "), j)
		},
	},
	types.SectionComparabilityAnalysis: {
		query: func(j types.Jurisdiction, _ []string) string {
			return fmt.Sprintf("comparability analysis five factors OECD guidelines %s", j)
		},
		extraVars: methodVars,
	},
	types.SectionTPMethod: {
		query: func(j types.Jurisdiction, txnTypes []string) string {
			return fmt.Sprintf("transfer pricing methods selection TNMM cost plus for %s %s", strings.Join(txnTypes, ", "), j)
		},
		extraVars: methodVars,
	},
	types.SectionBenchmarking: {
		query: func(j types.Jurisdiction, _ []string) string {
			return fmt.Sprintf("arm's length range benchmarking safe harbour provisions %s IT services margins", j)
		},
		extraVars: func(state *types.GenerationState) map[string]string {
			return map[string]string{
				"selected_method": defaultMethod,
				"tested_party":    state.Company.Name,
				"pli":             defaultPLI,
			}
		},
	},
	types.SectionDocumentationRequirements: {
		query: func(j types.Jurisdiction, _ []string) string {
			return fmt.Sprintf("transfer pricing documentation filing deadlines master file local file CbCR %s", j)
		},
	},
}

// methodVars injects the prior functional analysis content and the
// default method label. Used by the comparability analysis and method
// selection sections, which depend on the functional analysis section's
// output. When that section failed or has not run, a fixed fallback
// sentence is substituted so the run can proceed.
func methodVars(state *types.GenerationState) map[string]string {
	summary := functionalAnalysisFallback
	if res, ok := state.Sections[types.SectionFunctionalAnalysis]; ok && res.Status == types.SectionGenerated {
		summary = res.Content
	}
	return map[string]string{
		"functional_analysis_summary": summary,
		"selected_method":             defaultMethod,
	}
}

// Config carries the collaborators and settings shared by all section
// generators in one workflow.
type Config struct {
	// Retriever supplies regulatory context passages.
	Retriever ContextRetriever

	// Generator produces the section text.
	Generator TextGenerator

	// Templates loads and renders section prompt templates.
	Templates *prompt.Store

	// TopK is the number of passages retrieved per section query.
	TopK int

	// Timeout bounds one generation call. Zero disables the bound.
	Timeout time.Duration

	// Log receives progress lines. Nil discards them.
	Log io.Writer
}

// Generator produces one named section of the policy document. Generate
// never returns an error: failures are recorded on the run state and
// the workflow proceeds to the next section.
type Generator struct {
	name types.SectionName
	spec spec
	cfg  Config
}

// New returns a Generator for the named section.
func New(name types.SectionName, cfg Config) (*Generator, error) {
	sp, ok := specs[name]
	if !ok {
		return nil, fmt.Errorf("unknown section %q", name)
	}
	if cfg.Log == nil {
		cfg.Log = io.Discard
	}
	return &Generator{name: name, spec: sp, cfg: cfg}, nil
}

// NewAll returns generators for all seven sections in pipeline order.
func NewAll(cfg Config) ([]*Generator, error) {
	gens := make([]*Generator, 0, len(types.SectionOrder))
	for _, name := range types.SectionOrder {
		g, err := New(name, cfg)
		if err != nil {
			return nil, err
		}
		gens = append(gens, g)
	}
	return gens, nil
}

// Name returns the section this generator produces.
func (g *Generator) Name() types.SectionName {
	return g.name
}

// Generate runs the full per-section pipeline: retrieval query, context
// retrieval, template rendering, generation, and citation extraction.
// On success the section result is recorded and the section appended to
// CompletedSections; on any failure the section is appended to
// FailedSections with an error summary and log event. Errors never
// propagate past this boundary.
func (g *Generator) Generate(ctx context.Context, state *types.GenerationState) {
	fmt.Fprintf(g.cfg.Log, "generating %s\n", g.name)

	content, err := g.generate(ctx, state)
	if err != nil {
		g.recordFailure(state, err)
		return
	}

	citations := ExtractCitations(content, state.Company.Jurisdiction)

	state.Sections[g.name] = types.SectionResult{
		Content:   content,
		Status:    types.SectionGenerated,
		Citations: citations,
	}
	state.CompletedSections = append(state.CompletedSections, g.name)

	progress := state.Progress()
	state.GenerationLog = append(state.GenerationLog, types.LogEvent{
		Timestamp: time.Now().UTC(),
		Section:   g.name,
		Status:    "completed",
		Progress:  &progress,
	})

	fmt.Fprintf(g.cfg.Log, "completed %s (%d%% total)\n", g.name, progress)
}

func (g *Generator) generate(ctx context.Context, state *types.GenerationState) (string, error) {
	txnTypes := distinctTransactionTypes(state.Transactions)

	query := g.spec.query(state.Company.Jurisdiction, txnTypes)
	passages, err := g.cfg.Retriever.Retrieve(ctx, query, g.cfg.TopK)
	if err != nil {
		return "", fmt.Errorf("retrieving context: %w", err)
	}

	vars := baseVars(state, passages)
	if g.spec.extraVars != nil {
		for k, v := range g.spec.extraVars(state) {
			vars[k] = v
		}
	}

	filled, err := g.cfg.Templates.Render(g.name, vars)
	if err != nil {
		return "", err
	}

	genCtx := ctx
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	content, err := g.cfg.Generator.Complete(genCtx, filled)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	return content, nil
}

// recordFailure books a section failure on the state: failure-list
// membership, an error summary, and a failed log event.
func (g *Generator) recordFailure(state *types.GenerationState, err error) {
	state.FailedSections = append(state.FailedSections, g.name)
	state.Errors = append(state.Errors, fmt.Sprintf("%s: %v", g.name, err))
	state.GenerationLog = append(state.GenerationLog, types.LogEvent{
		Timestamp: time.Now().UTC(),
		Section:   g.name,
		Status:    "failed",
		Error:     err.Error(),
	})
	fmt.Fprintf(g.cfg.Log, "failed %s: %v\n", g.name, err)
}
