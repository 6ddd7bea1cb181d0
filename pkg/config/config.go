// Package config decodes worksplit.toml into a typed struct, with engine
// defaults layered on after decode so a partial file still produces a
// complete, valid configuration.
package config

import (
	"time"

	"github.com/BurntSushi/toml"

	"github.com/plasticdigits/worksplit/pkg/wkerr"
)

// OllamaConfig configures the default local LLM backend.
type OllamaConfig struct {
	URL            string `toml:"url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// LimitsConfig configures size budgets. The Jobs Manager enforces
// MaxOutputLines and MaxContextFiles; MaxContextLines is decoded but not
// checked anywhere.
type LimitsConfig struct {
	MaxOutputLines   int `toml:"max_output_lines"`
	MaxContextLines  int `toml:"max_context_lines"`
	MaxContextFiles  int `toml:"max_context_files"`
}

// BehaviorConfig configures ambient runner behavior.
type BehaviorConfig struct {
	StreamOutput      bool `toml:"stream_output"`
	CreateOutputDirs  bool `toml:"create_output_dirs"`
}

// BuildConfig configures the optional build/test verification phase.
type BuildConfig struct {
	BuildCommand string `toml:"build_command"`
	TestCommand  string `toml:"test_command"`
	VerifyBuild  bool   `toml:"verify_build"`
	VerifyTests  bool   `toml:"verify_tests"`
}

// ArchiveConfig configures job archive housekeeping (external collaborator).
type ArchiveConfig struct {
	Directory string `toml:"directory"`
}

// CleanupConfig configures archive cleanup housekeeping (external collaborator).
type CleanupConfig struct {
	Enabled bool `toml:"enabled"`
	Days    int  `toml:"days"`
}

// Config is the full decoded worksplit.toml document.
type Config struct {
	Ollama   OllamaConfig   `toml:"ollama"`
	Limits   LimitsConfig   `toml:"limits"`
	Behavior BehaviorConfig `toml:"behavior"`
	Build    BuildConfig    `toml:"build"`
	Archive  ArchiveConfig  `toml:"archive"`
	Cleanup  CleanupConfig  `toml:"cleanup"`

	// JobTimeout is the per-job LLM call deadline; CLI --job-timeout overrides it.
	JobTimeout time.Duration `toml:"-"`
}

// Default returns the engine's default configuration.
func Default() *Config {
	return &Config{
		Ollama: OllamaConfig{
			URL:            "http://localhost:11434",
			Model:          "qwen2.5-coder",
			TimeoutSeconds: 120,
		},
		Limits: LimitsConfig{
			MaxOutputLines:  900,
			MaxContextLines: 1000,
			MaxContextFiles: 2,
		},
		Behavior: BehaviorConfig{
			StreamOutput:     false,
			CreateOutputDirs: true,
		},
		Build: BuildConfig{
			VerifyBuild: false,
			VerifyTests: false,
		},
		Cleanup: CleanupConfig{
			Enabled: false,
			Days:    30,
		},
		JobTimeout: 5 * time.Minute,
	}
}

// Load decodes a worksplit.toml file, filling any unset field with the
// engine default rather than the TOML zero value.
func Load(path string) (*Config, error) {
	cfg := Default()

	var decoded Config
	if _, err := toml.DecodeFile(path, &decoded); err != nil {
		return nil, &wkerr.ConfigError{Path: path, Err: err}
	}

	if decoded.Ollama.URL != "" {
		cfg.Ollama.URL = decoded.Ollama.URL
	}
	if decoded.Ollama.Model != "" {
		cfg.Ollama.Model = decoded.Ollama.Model
	}
	if decoded.Ollama.TimeoutSeconds != 0 {
		cfg.Ollama.TimeoutSeconds = decoded.Ollama.TimeoutSeconds
	}
	if decoded.Limits.MaxOutputLines != 0 {
		cfg.Limits.MaxOutputLines = decoded.Limits.MaxOutputLines
	}
	if decoded.Limits.MaxContextLines != 0 {
		cfg.Limits.MaxContextLines = decoded.Limits.MaxContextLines
	}
	if decoded.Limits.MaxContextFiles != 0 {
		cfg.Limits.MaxContextFiles = decoded.Limits.MaxContextFiles
	}
	cfg.Behavior.StreamOutput = decoded.Behavior.StreamOutput
	if decoded.Behavior.CreateOutputDirs {
		cfg.Behavior.CreateOutputDirs = true
	}
	cfg.Build.BuildCommand = decoded.Build.BuildCommand
	cfg.Build.TestCommand = decoded.Build.TestCommand
	cfg.Build.VerifyBuild = decoded.Build.VerifyBuild
	cfg.Build.VerifyTests = decoded.Build.VerifyTests
	cfg.Archive.Directory = decoded.Archive.Directory
	cfg.Cleanup.Enabled = decoded.Cleanup.Enabled
	if decoded.Cleanup.Days != 0 {
		cfg.Cleanup.Days = decoded.Cleanup.Days
	}

	return cfg, nil
}
