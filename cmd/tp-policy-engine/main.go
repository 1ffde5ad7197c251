// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the tp-policy-engine CLI: the
// command surface over the knowledge base, the generation workflow,
// and the policy record store.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/tp-policy-engine/internal/secrets"
	"github.com/pdiddy/tp-policy-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the tp-policy-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "tp-policy-engine",
	Short: "Retrieval-augmented transfer pricing policy generation",
	Long: `tp-policy-engine generates transfer pricing compliance documents. A policy
document has seven sections (executive summary through documentation
requirements), each grounded in regulatory passages retrieved from a local
knowledge base and drafted by a language model.

Use kb to manage the regulatory knowledge base, generate to run the
section-by-section workflow for a company, and policy to inspect, edit,
review, and approve stored policies.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./tp-policy-engine.yaml or ~/.config/tp-policy-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("tp-policy-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "tp-policy-engine"))
		}
	}

	viper.SetEnvPrefix("TP_POLICY_ENGINE")
	viper.AutomaticEnv()

	viper.SetDefault("knowledge_base.knowledge_dir", "knowledge")
	viper.SetDefault("knowledge_base.top_k", 10)
	viper.SetDefault("llm.backend", string(types.BackendOllama))
	viper.SetDefault("llm.model", "llama3.2:latest")
	viper.SetDefault("llm.max_retries", 3)
	viper.SetDefault("generation.prompts_dir", "prompts")
	viper.SetDefault("generation.section_timeout", 5*time.Minute)
	viper.SetDefault("store.data_dir", "data")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig unmarshals the resolved viper settings into the typed
// configuration.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("parsing configuration: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
