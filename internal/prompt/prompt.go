// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prompt loads and renders section prompt templates. Each
// section has one human-editable template file in the prompts
// directory, named <section>_prompt.txt.
package prompt

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/pdiddy/tp-policy-engine/pkg/types"
)

// templateSuffix completes a section name into its template filename.
const templateSuffix = "_prompt.txt"

// Store loads section prompt templates from a directory. A Store is
// read-only after construction and safe for concurrent use.
type Store struct {
	dir string
}

// NewStore returns a Store reading templates from dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Load reads the raw template text for a section. A missing file is an
// error; the caller treats it as a section failure.
func (s *Store) Load(name types.SectionName) (string, error) {
	path := filepath.Join(s.dir, string(name)+templateSuffix)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("loading template for %s: %w", name, err)
	}
	return string(data), nil
}

// Render loads the section's template and substitutes the supplied
// variables. A placeholder with no corresponding variable is an error,
// surfaced to the caller as a section failure rather than a panic or a
// silently empty substitution.
func (s *Store) Render(name types.SectionName, vars map[string]string) (string, error) {
	text, err := s.Load(name)
	if err != nil {
		return "", err
	}

	tmpl, err := template.New(string(name)).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parsing template for %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("rendering template for %s: %w", name, err)
	}
	return buf.String(), nil
}
