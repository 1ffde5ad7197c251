// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package kb persists regulatory text passages and serves ranked
// retrieval over them. The store indexes pre-chunked passage files into
// SQLite with FTS5; section generation queries it for the regulatory
// context embedded in prompts.
package kb

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/tp-policy-engine/pkg/types"
)

const (
	chunksDir = "chunks"
	indexDir  = "index"
	dbFile    = "regulatory.db"

	defaultTopK = 10
)

// Store manages the regulatory knowledge base SQLite database. It is
// safe for concurrent reads by independent generation runs.
type Store struct {
	db           *sql.DB
	knowledgeDir string
	topK         int
}

// NewStore opens or creates the knowledge base database at
// knowledgeDir/index/regulatory.db, creating the schema if needed.
func NewStore(cfg types.KnowledgeBaseConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.KnowledgeDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	topK := cfg.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	s := &Store{
		db:           db,
		knowledgeDir: cfg.KnowledgeDir,
		topK:         topK,
	}

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
	statements := []string{
		`CREATE TABLE IF NOT EXISTS passages (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			source TEXT,
			content TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_passages_source ON passages(source)`,
		`CREATE TABLE IF NOT EXISTS ingest_status (
			passage_id TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='passages_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE passages_fts USING fts5(content, content=passages, content_rowid=rowid)`,
			`CREATE TRIGGER passages_ai AFTER INSERT ON passages BEGIN
				INSERT INTO passages_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
			`CREATE TRIGGER passages_ad AFTER DELETE ON passages BEGIN
				INSERT INTO passages_fts(passages_fts, rowid, content) VALUES('delete', old.rowid, old.content);
			END`,
			`CREATE TRIGGER passages_au AFTER UPDATE ON passages BEGIN
				INSERT INTO passages_fts(passages_fts, rowid, content) VALUES('delete', old.rowid, old.content);
				INSERT INTO passages_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from a knowledge base indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of passage files processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest reads pre-chunked passage text files from knowledgeDir/chunks/
// and populates the database. Unchanged files are skipped on subsequent
// runs; changed files replace their previous passage.
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	dir := filepath.Join(s.knowledgeDir, chunksDir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading chunks directory %s: %w", dir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		passageID := strings.TrimSuffix(entry.Name(), ".txt")
		filePath := filepath.Join(dir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", passageID, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM ingest_status WHERE passage_id = ?`, passageID,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", passageID)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		data, err := os.ReadFile(filePath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", passageID, err)
			summary.Failed++
			continue
		}

		content := strings.TrimSpace(string(data))
		if content == "" {
			fmt.Fprintf(w, "failed  %s: empty passage\n", passageID)
			summary.Failed++
			continue
		}

		if err := s.ingestPassage(ctx, passageID, content, modTime); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", passageID, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s\n", passageID)
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexed %s\n", passageID)
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	return summary, nil
}

func (s *Store) ingestPassage(ctx context.Context, passageID, content, modTime string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO passages (id, source, content) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET source=excluded.source, content=excluded.content`,
		passageID, passageSource(passageID), content,
	); err != nil {
		return fmt.Errorf("upserting passage: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ingest_status (passage_id, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(passage_id) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		passageID, modTime,
	); err != nil {
		return fmt.Errorf("updating ingest status: %w", err)
	}

	return tx.Commit()
}

// passageSource derives the source document name from a chunk file ID
// by trimming the trailing chunk counter (e.g. "oecd-guidelines_chunk_12"
// belongs to "oecd-guidelines").
func passageSource(passageID string) string {
	if i := strings.LastIndex(passageID, "_chunk_"); i > 0 {
		return passageID[:i]
	}
	return passageID
}
