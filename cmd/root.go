// Package cmd assembles the worksplit command-line surface: root command
// construction, per-subcommand flag wiring, and the thin adapters that
// translate parsed flags into calls against pkg/scheduler, pkg/runner,
// pkg/status, and pkg/graph.
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/plasticdigits/worksplit/pkg/buildrun"
	"github.com/plasticdigits/worksplit/pkg/config"
	"github.com/plasticdigits/worksplit/pkg/jobsmgr"
	"github.com/plasticdigits/worksplit/pkg/llm"
	"github.com/plasticdigits/worksplit/pkg/runner"
	"github.com/plasticdigits/worksplit/pkg/scheduler"
	"github.com/plasticdigits/worksplit/pkg/status"
)

// NewRootCmd builds the "worksplit" root command with every subcommand
// attached. Unlike some Cobra trees grown from a shared internal
// bootstrap helper, this one is constructed directly: worksplit has no
// such helper to reuse, so the command and its persistent flags are
// declared here.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "worksplit",
		Short:         "A job-file-driven LLM code generation orchestrator",
		Long:          `worksplit runs a directory of job files through an LLM collaborator, one generation/verification pass per job, in dependency order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&jobsDir, "dir", "d", "jobs", "Jobs directory")
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to worksplit.toml (defaults to <dir>/../worksplit.toml)")

	root.AddCommand(newRunCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newGraphCmd())
	root.AddCommand(newCancelCmd())
	root.AddCommand(newResetCmd())
	root.AddCommand(newInitCmd())

	return root
}

// Persistent flags shared by every subcommand.
var (
	jobsDir    string
	configPath string
)

// loadConfig resolves configPath relative to jobsDir's parent when unset
// and falls back to engine defaults if no file is present.
func loadConfig() *config.Config {
	path := configPath
	if path == "" {
		path = filepath.Join(filepath.Dir(jobsDir), "worksplit.toml")
	}
	cfg, err := config.Load(path)
	if err != nil {
		logrus.WithField("path", path).Debug("no worksplit.toml found, using defaults")
		return config.Default()
	}
	return cfg
}

// buildCollaborators assembles the jobsmgr.Manager and status.Store every
// subcommand that touches jobs needs; the llm.Client comes from
// buildLLMClient.
func buildCollaborators(cfg *config.Config) (*jobsmgr.Manager, *status.Store, error) {
	mgr := jobsmgr.New(jobsDir, cfg)

	statusPath := filepath.Join(jobsDir, "_jobstatus.json")
	store, err := status.Open(statusPath)
	if err != nil {
		return nil, nil, err
	}
	return mgr, store, nil
}

// buildLLMClient selects a backend by name, defaulting to Ollama since it
// requires no API key to construct.
func buildLLMClient(backend string, cfg *config.Config) (llm.Client, error) {
	switch backend {
	case "anthropic":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		return llm.NewAnthropicClient(apiKey, cfg.Ollama.Model, 4096), nil
	case "gemini":
		apiKey := os.Getenv("GEMINI_API_KEY")
		return llm.NewGeminiClient(context.Background(), apiKey, cfg.Ollama.Model)
	case "", "ollama":
		return llm.NewOllamaClient(cfg.Ollama.URL, cfg.Ollama.Model, time.Duration(cfg.Ollama.TimeoutSeconds)*time.Second), nil
	default:
		return nil, fmt.Errorf("unknown llm backend %q: want ollama, anthropic, or gemini", backend)
	}
}

// newScheduler assembles a Scheduler from the persistent flags plus a
// subcommand's own --llm-backend and --job-timeout values.
func newScheduler(backend, jobTimeoutFlag string) (*scheduler.Scheduler, error) {
	cfg := loadConfig()
	mgr, store, err := buildCollaborators(cfg)
	if err != nil {
		return nil, err
	}

	client, err := buildLLMClient(backend, cfg)
	if err != nil {
		return nil, err
	}

	r := &runner.Runner{
		Jobs:   mgr,
		Store:  store,
		LLM:    client,
		Build:  buildrun.NewShellRunner(),
		Config: cfg,
	}
	if jobTimeoutFlag != "" {
		if d, err := time.ParseDuration(jobTimeoutFlag); err == nil && d > 0 {
			r.JobTimeout = d
		}
	}

	return &scheduler.Scheduler{Jobs: mgr, Store: store, Runner: r}, nil
}
