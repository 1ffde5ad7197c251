// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// KnowledgeBaseConfig holds settings for the regulatory knowledge base.
type KnowledgeBaseConfig struct {
	// KnowledgeDir is the base directory for the knowledge base
	// (contains chunks/, index/).
	KnowledgeDir string `json:"knowledge_dir" yaml:"knowledge_dir" mapstructure:"knowledge_dir"`

	// TopK is the number of passages retrieved per query (default 10).
	TopK int `json:"top_k" yaml:"top_k" mapstructure:"top_k"`
}

// LLMBackend identifies the text-generation backend.
type LLMBackend string

const (
	BackendOllama LLMBackend = "ollama"
	BackendClaude LLMBackend = "claude"
)

// LLMConfig holds settings for the text-generation backend.
type LLMConfig struct {
	// Backend selects the generation backend: ollama or claude.
	Backend LLMBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Model is the model identifier (e.g. "llama3.2:latest").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// BaseURL is the Ollama server address (default "http://localhost:11434").
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// APIKey authenticates hosted backends. Usually loaded from .secrets/.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxRetries is the number of retry attempts for failed calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// GenerationConfig holds settings for the policy generation workflow.
type GenerationConfig struct {
	// PromptsDir is the directory holding section prompt templates
	// (one <section>_prompt.txt per section).
	PromptsDir string `json:"prompts_dir" yaml:"prompts_dir" mapstructure:"prompts_dir"`

	// SectionTimeout bounds one section's generation call (default 5m).
	// An exceeded timeout counts as a section failure.
	SectionTimeout time.Duration `json:"section_timeout" yaml:"section_timeout" mapstructure:"section_timeout"`
}

// StoreConfig holds settings for policy record persistence.
type StoreConfig struct {
	// DataDir is the directory holding the policy database (default "data").
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
}

// Config groups all stage configurations for the engine.
type Config struct {
	KnowledgeBase KnowledgeBaseConfig `json:"knowledge_base" yaml:"knowledge_base" mapstructure:"knowledge_base"`
	LLM           LLMConfig           `json:"llm" yaml:"llm" mapstructure:"llm"`
	Generation    GenerationConfig    `json:"generation" yaml:"generation" mapstructure:"generation"`
	Store         StoreConfig         `json:"store" yaml:"store" mapstructure:"store"`
}
