package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/plasticdigits/worksplit/pkg/runner"
	"github.com/plasticdigits/worksplit/pkg/scheduler"
	"github.com/plasticdigits/worksplit/pkg/status"
)

var (
	runAll           bool
	runBatchFlag     bool
	runResumeStuck   bool
	runStopOnFail    bool
	runMaxConcurrent int
	runDryRun        bool
	runJobTimeout    string
	runLLMBackend    string
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [job-id]",
		Short: "Run one job, or every ready job in dependency order",
		Long: `Run a single job by id, or with --all/--batch run every ready job,
strictly in dependency-graph order. Without arguments or flags, run
behaves like --all with max-concurrent 1.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRun,
	}

	cmd.Flags().BoolVarP(&runAll, "all", "a", false, "Run every ready job, one at a time, in dependency order")
	cmd.Flags().BoolVarP(&runBatchFlag, "batch", "b", false, "Run every ready job, up to --max-concurrent at a time per group")
	cmd.Flags().BoolVar(&runResumeStuck, "resume-stuck", false, "Re-queue jobs left in an intermediate or Partial state")
	cmd.Flags().BoolVar(&runStopOnFail, "stop-on-fail", false, "Stop scheduling further groups after the first Fail or Partial")
	cmd.Flags().IntVar(&runMaxConcurrent, "max-concurrent", 1, "Max jobs to run concurrently within a group (batch mode only)")
	cmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Show what a single job would do without writing or mutating status")
	cmd.Flags().StringVar(&runJobTimeout, "job-timeout", "", "Per-job LLM deadline, e.g. 2m30s (overrides worksplit.toml)")
	cmd.Flags().StringVar(&runLLMBackend, "llm-backend", "ollama", "LLM backend: ollama, anthropic, or gemini")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	var jobID string
	if len(args) > 0 {
		jobID = args[0]
	}

	if runDryRun {
		return runRunDryRun(jobID)
	}

	s, err := newScheduler(runLLMBackend, runJobTimeout)
	if err != nil {
		return err
	}

	ctx := context.Background()

	if jobID != "" && !runAll && !runBatchFlag {
		result, err := s.RunSingle(ctx, jobID)
		if err != nil {
			return err
		}
		printResult(result)
		if result.Status != status.Pass {
			return fmt.Errorf("job %s did not pass", jobID)
		}
		return nil
	}

	maxConcurrent := 1
	if runBatchFlag {
		maxConcurrent = runMaxConcurrent
	}

	summary, err := s.RunBatch(ctx, runResumeStuck, runStopOnFail, maxConcurrent)
	if err != nil {
		return err
	}
	printSummary(summary)
	if summary.Failed > 0 {
		return fmt.Errorf("%d job(s) failed", summary.Failed)
	}
	return nil
}

// runRunDryRun looks up jobID among the discovered jobs and calls
// Runner.RunDryRun directly, bypassing the scheduler entirely since a dry
// run never mutates the status store or touches the dependency graph.
func runRunDryRun(jobID string) error {
	if jobID == "" {
		return fmt.Errorf("--dry-run requires a job id")
	}

	cfg := loadConfig()
	mgr, store, err := buildCollaborators(cfg)
	if err != nil {
		return err
	}

	jobs, err := mgr.Discover()
	if err != nil {
		return err
	}

	idx := -1
	for i, j := range jobs {
		if j.ID == jobID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("job not found: %s", jobID)
	}

	client, err := buildLLMClient(runLLMBackend, cfg)
	if err != nil {
		return err
	}

	r := &runner.Runner{Jobs: mgr, Store: store, Config: cfg, LLM: client}

	plan, err := r.RunDryRun(context.Background(), jobs[idx])
	if err != nil {
		return err
	}

	fmt.Printf("Plan for %s:\n", plan.JobID)
	for _, e := range plan.Entries {
		fmt.Printf("  %s %s\n", planStatusSymbol(e.Status), e.File)
		if e.FuzzyHint != "" {
			fmt.Printf("      %s\n", e.FuzzyHint)
		}
	}
	return nil
}

func planStatusSymbol(s runner.PlanStatus) string {
	switch s {
	case runner.WillApply:
		return color.GreenString("will apply")
	case runner.WillApplyFuzzy:
		return color.YellowString("fuzzy match")
	case runner.WillFail:
		return color.RedString("will fail")
	default:
		return string(s)
	}
}

func printResult(r runner.Result) {
	switch r.Status {
	case status.Pass:
		fmt.Printf("%s %s\n", color.GreenString("PASS"), r.JobID)
	case status.Partial:
		fmt.Printf("%s %s: %s\n", color.YellowString("PARTIAL"), r.JobID, r.Reason)
	default:
		fmt.Printf("%s %s: %s\n", color.RedString("FAIL"), r.JobID, r.Reason)
	}
}

func printSummary(s *scheduler.RunSummary) {
	fmt.Printf("processed=%d passed=%s failed=%s skipped=%d\n",
		s.Processed, color.GreenString("%d", s.Passed), color.RedString("%d", s.Failed), s.Skipped)
	for _, r := range s.Results {
		printResult(r)
	}
}
