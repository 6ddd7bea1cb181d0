package cmd

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
)

func newCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Signal the process currently running a job to stop",
		Long: `Cancel looks up the PID registered for job-id in the running-PID
registry and sends it SIGTERM. It only works while the run command that
started the job is still alive; the registry is in-memory only and does
not survive a process restart.`,
		Args: cobra.ExactArgs(1),
		RunE: runCancel,
	}
}

func runCancel(cmd *cobra.Command, args []string) error {
	jobID := args[0]

	cfg := loadConfig()
	_, store, err := buildCollaborators(cfg)
	if err != nil {
		return err
	}

	running := store.RunningJobs()
	pid, ok := running[jobID]
	if !ok {
		return fmt.Errorf("job %s is not currently running in this registry", jobID)
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("finding process %d for job %s: %w", pid, jobID, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signaling process %d for job %s: %w", pid, jobID, err)
	}

	fmt.Printf("sent SIGTERM to pid %d for job %s\n", pid, jobID)
	return nil
}
