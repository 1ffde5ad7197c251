package policystore

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/tp-policy-engine/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(types.StoreConfig{DataDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// completeState returns a run state where every section generated.
func completeState(policyID string) *types.GenerationState {
	state := &types.GenerationState{
		PolicyID: policyID,
		Company: types.Company{
			ID:           "comp-1",
			Name:         "Acme Software India Pvt Ltd",
			Jurisdiction: types.JurisdictionIndia,
			TaxID:        "AAACA1234F",
			EntityType:   types.EntityServiceProvider,
		},
		FiscalYear: "2023-24",
		Sections:   make(map[types.SectionName]types.SectionResult),
		Status:     types.RunCompleted,
	}
	for _, name := range types.SectionOrder {
		state.Sections[name] = types.SectionResult{
			Content:   "Content for " + string(name),
			Status:    types.SectionGenerated,
			Citations: []string{"OECD Transfer Pricing Guidelines"},
		}
		state.CompletedSections = append(state.CompletedSections, name)
	}
	state.GenerationLog = []types.LogEvent{
		{Timestamp: time.Now().UTC(), Event: "initialization", Status: "started"},
	}
	return state
}

// partialState returns a run state where benchmarking failed.
func partialState(policyID string) *types.GenerationState {
	state := completeState(policyID)
	delete(state.Sections, types.SectionBenchmarking)
	state.CompletedSections = state.CompletedSections[:0]
	for _, name := range types.SectionOrder {
		if name != types.SectionBenchmarking {
			state.CompletedSections = append(state.CompletedSections, name)
		}
	}
	state.FailedSections = []types.SectionName{types.SectionBenchmarking}
	state.Errors = []string{"benchmarking: model unavailable"}
	state.Status = types.RunPartial
	return state
}

func saveRun(t *testing.T, store *Store, state *types.GenerationState) *types.PolicyRecord {
	t.Helper()
	rec, err := store.SaveRun(context.Background(), state)
	if err != nil {
		t.Fatal(err)
	}
	return rec
}

// --- SaveRun ---

func TestSaveRunComplete(t *testing.T) {
	store := testStore(t)
	rec := saveRun(t, store, completeState("pol-1"))

	if rec.Status != types.PolicyReview {
		t.Errorf("status = %q, want %q", rec.Status, types.PolicyReview)
	}
	if rec.Progress != 100 {
		t.Errorf("progress = %d, want 100", rec.Progress)
	}
	if rec.Version != 1 {
		t.Errorf("version = %d, want 1", rec.Version)
	}
	if rec.CompanyName != "Acme Software India Pvt Ltd" {
		t.Errorf("company name = %q", rec.CompanyName)
	}
}

func TestSaveRunPartial(t *testing.T) {
	store := testStore(t)
	rec := saveRun(t, store, partialState("pol-2"))

	if rec.Status != types.PolicyPartial {
		t.Errorf("status = %q, want %q", rec.Status, types.PolicyPartial)
	}
	if rec.Progress != 85 {
		t.Errorf("progress = %d, want 85", rec.Progress)
	}
}

func TestSaveRunDuplicateID(t *testing.T) {
	store := testStore(t)
	saveRun(t, store, completeState("pol-dup"))

	if _, err := store.SaveRun(context.Background(), completeState("pol-dup")); err == nil {
		t.Fatal("expected error for duplicate policy ID")
	}
}

// --- Get ---

func TestGetRoundTrip(t *testing.T) {
	store := testStore(t)
	saveRun(t, store, partialState("pol-3"))

	rec, err := store.Get(context.Background(), "pol-3")
	if err != nil {
		t.Fatal(err)
	}

	if len(rec.Sections) != len(types.SectionOrder)-1 {
		t.Errorf("got %d sections, want %d", len(rec.Sections), len(types.SectionOrder)-1)
	}
	res, ok := rec.Sections[types.SectionExecutiveSummary]
	if !ok {
		t.Fatal("executive summary missing")
	}
	if res.Content != "Content for executive_summary" {
		t.Errorf("content = %q", res.Content)
	}
	if res.Status != types.SectionGenerated {
		t.Errorf("status = %q", res.Status)
	}
	if len(res.Citations) != 1 {
		t.Errorf("citations = %v", res.Citations)
	}
	if len(rec.GenerationLog) != 1 || rec.GenerationLog[0].Event != "initialization" {
		t.Errorf("log = %+v", rec.GenerationLog)
	}
	if len(rec.Errors) != 1 || !strings.Contains(rec.Errors[0], "benchmarking") {
		t.Errorf("errors = %v", rec.Errors)
	}
	if rec.ReviewedBy != "" || rec.ReviewedAt != nil {
		t.Error("fresh record should have no review metadata")
	}
}

func TestGetNotFound(t *testing.T) {
	store := testStore(t)
	_, err := store.Get(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for missing policy")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %v", err)
	}
}

// --- List ---

func TestListNewestFirst(t *testing.T) {
	store := testStore(t)

	saveRun(t, store, completeState("pol-old"))
	time.Sleep(5 * time.Millisecond)
	saveRun(t, store, completeState("pol-new"))

	records, err := store.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].ID != "pol-new" || records[1].ID != "pol-old" {
		t.Errorf("order = [%s, %s], want newest first", records[0].ID, records[1].ID)
	}
	// Listing omits document content.
	if records[0].Sections != nil {
		t.Error("list entries should not carry sections")
	}
}

func TestListEmpty(t *testing.T) {
	store := testStore(t)
	records, err := store.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}

// --- UpdateSection ---

func TestUpdateSection(t *testing.T) {
	store := testStore(t)
	saveRun(t, store, completeState("pol-edit"))

	err := store.UpdateSection(context.Background(), "pol-edit", types.SectionExecutiveSummary, "Manually revised summary.")
	if err != nil {
		t.Fatal(err)
	}

	rec, err := store.Get(context.Background(), "pol-edit")
	if err != nil {
		t.Fatal(err)
	}
	res := rec.Sections[types.SectionExecutiveSummary]
	if res.Content != "Manually revised summary." {
		t.Errorf("content = %q", res.Content)
	}
	if res.Status != types.SectionEdited {
		t.Errorf("status = %q, want %q", res.Status, types.SectionEdited)
	}
	if rec.Version != 2 {
		t.Errorf("version = %d, want 2", rec.Version)
	}
	// Other sections untouched.
	if rec.Sections[types.SectionBenchmarking].Status != types.SectionGenerated {
		t.Error("unrelated section modified")
	}
}

func TestUpdateSectionFillsFailedSection(t *testing.T) {
	store := testStore(t)
	saveRun(t, store, partialState("pol-fill"))

	err := store.UpdateSection(context.Background(), "pol-fill", types.SectionBenchmarking, "Manually drafted benchmarking analysis.")
	if err != nil {
		t.Fatal(err)
	}

	rec, err := store.Get(context.Background(), "pol-fill")
	if err != nil {
		t.Fatal(err)
	}
	res, ok := rec.Sections[types.SectionBenchmarking]
	if !ok {
		t.Fatal("benchmarking section not created")
	}
	if res.Status != types.SectionEdited {
		t.Errorf("status = %q, want edited", res.Status)
	}
}

func TestUpdateSectionApprovedRejected(t *testing.T) {
	store := testStore(t)
	saveRun(t, store, completeState("pol-locked"))

	if err := store.Approve(context.Background(), "pol-locked", "cfo"); err != nil {
		t.Fatal(err)
	}

	err := store.UpdateSection(context.Background(), "pol-locked", types.SectionExecutiveSummary, "new content")
	if err == nil {
		t.Fatal("expected error editing approved policy")
	}
	if !strings.Contains(err.Error(), "approved") {
		t.Errorf("error = %v", err)
	}
}

func TestUpdateSectionNotFound(t *testing.T) {
	store := testStore(t)
	err := store.UpdateSection(context.Background(), "missing", types.SectionTPMethod, "content")
	if err == nil {
		t.Fatal("expected error for missing policy")
	}
}

// --- review lifecycle ---

func TestReview(t *testing.T) {
	store := testStore(t)
	saveRun(t, store, completeState("pol-review"))

	if err := store.Review(context.Background(), "pol-review", "tax-manager", "Looks consistent."); err != nil {
		t.Fatal(err)
	}

	rec, err := store.Get(context.Background(), "pol-review")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != types.PolicyReview {
		t.Errorf("status = %q", rec.Status)
	}
	if rec.ReviewedBy != "tax-manager" {
		t.Errorf("reviewed_by = %q", rec.ReviewedBy)
	}
	if rec.ReviewedAt == nil {
		t.Error("reviewed_at not set")
	}
	if rec.ReviewComments != "Looks consistent." {
		t.Errorf("comments = %q", rec.ReviewComments)
	}
}

func TestApprove(t *testing.T) {
	store := testStore(t)
	saveRun(t, store, completeState("pol-approve"))

	if err := store.Approve(context.Background(), "pol-approve", "cfo"); err != nil {
		t.Fatal(err)
	}

	rec, err := store.Get(context.Background(), "pol-approve")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != types.PolicyApproved {
		t.Errorf("status = %q, want approved", rec.Status)
	}
	if rec.ApprovedBy != "cfo" {
		t.Errorf("approved_by = %q", rec.ApprovedBy)
	}
	if rec.ApprovedAt == nil {
		t.Error("approved_at not set")
	}
}

func TestReviewNotFound(t *testing.T) {
	store := testStore(t)
	if err := store.Review(context.Background(), "missing", "r", ""); err == nil {
		t.Fatal("expected error for missing policy")
	}
}

func TestApproveNotFound(t *testing.T) {
	store := testStore(t)
	if err := store.Approve(context.Background(), "missing", "a"); err == nil {
		t.Fatal("expected error for missing policy")
	}
}
