// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SectionName identifies one of the seven policy document sections.
type SectionName string

const (
	SectionExecutiveSummary          SectionName = "executive_summary"
	SectionRelatedParties            SectionName = "related_parties"
	SectionFunctionalAnalysis        SectionName = "functional_analysis"
	SectionComparabilityAnalysis     SectionName = "comparability_analysis"
	SectionTPMethod                  SectionName = "tp_method"
	SectionBenchmarking              SectionName = "benchmarking"
	SectionDocumentationRequirements SectionName = "documentation_requirements"
)

// SectionOrder lists the seven sections in generation order. Later
// sections may read earlier sections' content, so the order is
// significant.
var SectionOrder = []SectionName{
	SectionExecutiveSummary,
	SectionRelatedParties,
	SectionFunctionalAnalysis,
	SectionComparabilityAnalysis,
	SectionTPMethod,
	SectionBenchmarking,
	SectionDocumentationRequirements,
}

// SectionStatus tracks one section's state within a policy document.
type SectionStatus string

const (
	SectionPending   SectionStatus = "pending"
	SectionGenerated SectionStatus = "generated"
	SectionEdited    SectionStatus = "edited"
	SectionFailed    SectionStatus = "failed"
)

// SectionResult holds the generated content for one section.
type SectionResult struct {
	// Content is the generated section text.
	Content string `json:"content" yaml:"content"`

	// Status is the section's state: pending, generated, edited, or failed.
	Status SectionStatus `json:"status" yaml:"status"`

	// Citations lists regulatory sources referenced by the content.
	Citations []string `json:"citations" yaml:"citations"`
}

// LogEvent is one entry in a generation run's audit trail. The log is
// append-only; events are never mutated or reordered.
type LogEvent struct {
	// Timestamp is the event time in UTC.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// Section names the section the event concerns. Empty for
	// lifecycle events (initialization, finalization).
	Section SectionName `json:"section,omitempty" yaml:"section,omitempty"`

	// Event names the lifecycle phase for non-section events.
	Event string `json:"event,omitempty" yaml:"event,omitempty"`

	// Status is the outcome: started, completed, failed, or partial.
	Status string `json:"status" yaml:"status"`

	// Progress is the overall completion percentage at event time.
	// Nil when not applicable.
	Progress *int `json:"progress,omitempty" yaml:"progress,omitempty"`

	// Error carries the failure message for failed events.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// RunStatus is the overall outcome of a generation run.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunPartial   RunStatus = "partial"
)

// GenerationState is the mutable aggregate threaded through one
// generation run. The workflow owns it exclusively for the run's
// lifetime; results accumulate monotonically and are never rolled back.
type GenerationState struct {
	// PolicyID identifies the policy record this run produces.
	PolicyID string `json:"policy_id" yaml:"policy_id"`

	// Company is the client entity. Read-only after initialization.
	Company Company `json:"company" yaml:"company"`

	// Transactions are the related-party transactions covered by the
	// policy. Read-only after initialization.
	Transactions []Transaction `json:"transactions" yaml:"transactions"`

	// FiscalYear is the policy's fiscal year (e.g. "2023-24").
	FiscalYear string `json:"fiscal_year" yaml:"fiscal_year"`

	// Sections maps section name to generated result. Keys follow
	// SectionOrder as sections complete.
	Sections map[SectionName]SectionResult `json:"sections" yaml:"sections"`

	// CompletedSections lists sections that generated successfully, in
	// execution order. Append-only.
	CompletedSections []SectionName `json:"completed_sections" yaml:"completed_sections"`

	// FailedSections lists sections that failed, in execution order.
	// Append-only and disjoint from CompletedSections.
	FailedSections []SectionName `json:"failed_sections" yaml:"failed_sections"`

	// GenerationLog is the run's chronological audit trail.
	GenerationLog []LogEvent `json:"generation_log" yaml:"generation_log"`

	// Errors holds one "{section}: {message}" summary per failed section.
	Errors []string `json:"errors" yaml:"errors"`

	// Status is the overall outcome, set during finalization.
	Status RunStatus `json:"status" yaml:"status"`
}

// Progress returns the overall completion percentage, recomputed from
// the completed-section count.
func (s *GenerationState) Progress() int {
	return len(s.CompletedSections) * 100 / len(SectionOrder)
}

// PolicyStatus tracks a policy record through its review lifecycle.
type PolicyStatus string

const (
	PolicyDraft      PolicyStatus = "draft"
	PolicyGenerating PolicyStatus = "generating"
	PolicyPartial    PolicyStatus = "partial"
	PolicyReview     PolicyStatus = "review"
	PolicyApproved   PolicyStatus = "approved"
	PolicyRejected   PolicyStatus = "rejected"
)

// PolicyRecord is the persisted form of a generated policy document,
// together with its review and approval metadata.
type PolicyRecord struct {
	// ID identifies the policy.
	ID string `json:"id" yaml:"id"`

	// CompanyID links the policy to a company.
	CompanyID string `json:"company_id" yaml:"company_id"`

	// CompanyName is the company's name at generation time.
	CompanyName string `json:"company_name" yaml:"company_name"`

	// FiscalYear is the policy's fiscal year.
	FiscalYear string `json:"fiscal_year" yaml:"fiscal_year"`

	// Status is the review lifecycle state.
	Status PolicyStatus `json:"status" yaml:"status"`

	// Version counts revisions of the policy.
	Version int `json:"version" yaml:"version"`

	// Progress is the generation completion percentage (0-100).
	Progress int `json:"generation_progress" yaml:"generation_progress"`

	// Sections holds the generated document content.
	Sections map[SectionName]SectionResult `json:"sections" yaml:"sections"`

	// GenerationLog is the audit trail copied from the generation run.
	GenerationLog []LogEvent `json:"generation_log" yaml:"generation_log"`

	// Errors holds the per-section error summaries from the run.
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`

	// ReviewedBy names the reviewer. Empty until reviewed.
	ReviewedBy string `json:"reviewed_by,omitempty" yaml:"reviewed_by,omitempty"`

	// ReviewedAt is the review time. Nil until reviewed.
	ReviewedAt *time.Time `json:"reviewed_at,omitempty" yaml:"reviewed_at,omitempty"`

	// ApprovedBy names the approver. Empty until approved.
	ApprovedBy string `json:"approved_by,omitempty" yaml:"approved_by,omitempty"`

	// ApprovedAt is the approval time. Nil until approved.
	ApprovedAt *time.Time `json:"approved_at,omitempty" yaml:"approved_at,omitempty"`

	// ReviewComments holds free-text reviewer comments.
	ReviewComments string `json:"review_comments,omitempty" yaml:"review_comments,omitempty"`

	// CreatedAt is the record creation time.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// UpdatedAt is the last modification time.
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}
