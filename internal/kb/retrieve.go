// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kb

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// Retrieve returns the topK most relevant passage texts for a
// free-text query, best match first per FTS5 rank. An empty knowledge
// base or a query with no matches yields an empty slice, not an error.
// topK values of zero or less fall back to the store default.
func (s *Store) Retrieve(ctx context.Context, query string, topK int) ([]string, error) {
	if topK <= 0 {
		topK = s.topK
	}

	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT p.content
		 FROM passages_fts
		 JOIN passages p ON p.rowid = passages_fts.rowid
		 WHERE passages_fts MATCH ?
		 ORDER BY passages_fts.rank
		 LIMIT ?`,
		match, topK,
	)
	if err != nil {
		return nil, fmt.Errorf("querying knowledge base: %w", err)
	}
	defer rows.Close()

	var passages []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		passages = append(passages, content)
	}

	return passages, rows.Err()
}

// ftsQuery converts a free-text retrieval query into an FTS5 match
// expression. Section queries carry punctuation (commas, apostrophes)
// that FTS5 would reject as syntax, so each term is quoted and terms
// are joined with OR; bm25 ranking then orders passages by how many
// query terms they share.
func ftsQuery(query string) string {
	terms := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		quoted = append(quoted, `"`+t+`"`)
	}
	return strings.Join(quoted, " OR ")
}
