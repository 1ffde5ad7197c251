// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package policystore persists generated policy documents and their
// review lifecycle in SQLite. Document content and the generation log
// are stored as JSON columns so the persisted shape matches the
// GenerationState layout.
package policystore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/tp-policy-engine/pkg/types"
)

const dbFile = "policies.db"

// timeFormat is fixed-width (RFC3339Nano trims trailing zeros) so
// lexicographic ORDER BY on timestamp columns matches chronological
// order.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages the policy record SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the policy database at dataDir/policies.db.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS policies (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		company_name TEXT NOT NULL,
		fiscal_year TEXT NOT NULL,
		status TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		progress INTEGER NOT NULL DEFAULT 0,
		sections TEXT NOT NULL,
		generation_log TEXT NOT NULL,
		errors TEXT,
		reviewed_by TEXT,
		reviewed_at TEXT,
		approved_by TEXT,
		approved_at TEXT,
		review_comments TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// SaveRun persists a finished generation run as a policy record. A run
// with failed sections is stored with status "partial"; a complete run
// enters the review lifecycle with status "review".
func (s *Store) SaveRun(ctx context.Context, state *types.GenerationState) (*types.PolicyRecord, error) {
	status := types.PolicyReview
	if len(state.FailedSections) > 0 {
		status = types.PolicyPartial
	}

	now := time.Now().UTC()
	rec := &types.PolicyRecord{
		ID:            state.PolicyID,
		CompanyID:     state.Company.ID,
		CompanyName:   state.Company.Name,
		FiscalYear:    state.FiscalYear,
		Status:        status,
		Version:       1,
		Progress:      state.Progress(),
		Sections:      state.Sections,
		GenerationLog: state.GenerationLog,
		Errors:        state.Errors,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	sectionsJSON, err := json.Marshal(rec.Sections)
	if err != nil {
		return nil, fmt.Errorf("marshaling sections: %w", err)
	}
	logJSON, err := json.Marshal(rec.GenerationLog)
	if err != nil {
		return nil, fmt.Errorf("marshaling generation log: %w", err)
	}
	errorsJSON, err := json.Marshal(rec.Errors)
	if err != nil {
		return nil, fmt.Errorf("marshaling errors: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO policies (id, company_id, company_name, fiscal_year, status,
			version, progress, sections, generation_log, errors, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CompanyID, rec.CompanyName, rec.FiscalYear, string(rec.Status),
		rec.Version, rec.Progress, string(sectionsJSON), string(logJSON), string(errorsJSON),
		now.Format(timeFormat), now.Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting policy %s: %w", rec.ID, err)
	}

	return rec, nil
}

// Get returns the policy record with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*types.PolicyRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, company_id, company_name, fiscal_year, status, version, progress,
			sections, generation_log, errors,
			reviewed_by, reviewed_at, approved_by, approved_at, review_comments,
			created_at, updated_at
		 FROM policies WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("policy %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading policy %s: %w", id, err)
	}
	return rec, nil
}

// List returns all policy records, newest first, without section
// content or logs.
func (s *Store) List(ctx context.Context) ([]types.PolicyRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_id, company_name, fiscal_year, status, version, progress,
			created_at, updated_at
		 FROM policies ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing policies: %w", err)
	}
	defer rows.Close()

	var records []types.PolicyRecord
	for rows.Next() {
		var rec types.PolicyRecord
		var createdAt, updatedAt string
		if err := rows.Scan(&rec.ID, &rec.CompanyID, &rec.CompanyName, &rec.FiscalYear,
			&rec.Status, &rec.Version, &rec.Progress, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(timeFormat, createdAt)
		rec.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpdateSection replaces one section's content with a manual edit,
// marking it "edited" and bumping the policy version. Approved policies
// cannot be edited.
func (s *Store) UpdateSection(ctx context.Context, id string, name types.SectionName, content string) error {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if rec.Status == types.PolicyApproved {
		return fmt.Errorf("policy %s is approved and cannot be edited", id)
	}

	section, ok := rec.Sections[name]
	if !ok {
		section = types.SectionResult{Citations: []string{}}
	}
	section.Content = content
	section.Status = types.SectionEdited
	rec.Sections[name] = section

	sectionsJSON, err := json.Marshal(rec.Sections)
	if err != nil {
		return fmt.Errorf("marshaling sections: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE policies SET sections = ?, version = version + 1, updated_at = ? WHERE id = ?`,
		string(sectionsJSON), time.Now().UTC().Format(timeFormat), id)
	if err != nil {
		return fmt.Errorf("updating section: %w", err)
	}
	return nil
}

// Review records a reviewer's decision and comments.
func (s *Store) Review(ctx context.Context, id, reviewer, comments string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE policies SET status = ?, reviewed_by = ?, reviewed_at = ?, review_comments = ?, updated_at = ?
		 WHERE id = ?`,
		string(types.PolicyReview), reviewer,
		time.Now().UTC().Format(timeFormat), comments,
		time.Now().UTC().Format(timeFormat), id)
	if err != nil {
		return fmt.Errorf("recording review: %w", err)
	}
	return checkAffected(res, id)
}

// Approve marks a policy approved.
func (s *Store) Approve(ctx context.Context, id, approver string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE policies SET status = ?, approved_by = ?, approved_at = ?, updated_at = ?
		 WHERE id = ?`,
		string(types.PolicyApproved), approver,
		time.Now().UTC().Format(timeFormat),
		time.Now().UTC().Format(timeFormat), id)
	if err != nil {
		return fmt.Errorf("recording approval: %w", err)
	}
	return checkAffected(res, id)
}

func checkAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("policy %s not found", id)
	}
	return nil
}

// scanRecord reads a full policy row, decoding the JSON columns.
func scanRecord(row *sql.Row) (*types.PolicyRecord, error) {
	var (
		rec          types.PolicyRecord
		sectionsJSON string
		logJSON      string
		errorsJSON   sql.NullString
		reviewedBy   sql.NullString
		reviewedAt   sql.NullString
		approvedBy   sql.NullString
		approvedAt   sql.NullString
		comments     sql.NullString
		createdAt    string
		updatedAt    string
	)

	err := row.Scan(&rec.ID, &rec.CompanyID, &rec.CompanyName, &rec.FiscalYear,
		&rec.Status, &rec.Version, &rec.Progress,
		&sectionsJSON, &logJSON, &errorsJSON,
		&reviewedBy, &reviewedAt, &approvedBy, &approvedAt, &comments,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(sectionsJSON), &rec.Sections); err != nil {
		return nil, fmt.Errorf("decoding sections: %w", err)
	}
	if err := json.Unmarshal([]byte(logJSON), &rec.GenerationLog); err != nil {
		return nil, fmt.Errorf("decoding generation log: %w", err)
	}
	if errorsJSON.Valid {
		json.Unmarshal([]byte(errorsJSON.String), &rec.Errors)
	}

	if reviewedBy.Valid {
		rec.ReviewedBy = reviewedBy.String
	}
	if approvedBy.Valid {
		rec.ApprovedBy = approvedBy.String
	}
	if comments.Valid {
		rec.ReviewComments = comments.String
	}
	if reviewedAt.Valid {
		if t, err := time.Parse(timeFormat, reviewedAt.String); err == nil {
			rec.ReviewedAt = &t
		}
	}
	if approvedAt.Valid {
		if t, err := time.Parse(timeFormat, approvedAt.String); err == nil {
			rec.ApprovedAt = &t
		}
	}
	rec.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	rec.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	return &rec, nil
}
