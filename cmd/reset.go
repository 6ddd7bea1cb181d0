package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <job-id>",
		Short: "Move a job back to Created, clearing its error and partial state",
		Args:  cobra.ExactArgs(1),
		RunE:  runReset,
	}
}

func runReset(cmd *cobra.Command, args []string) error {
	jobID := args[0]

	cfg := loadConfig()
	_, store, err := buildCollaborators(cfg)
	if err != nil {
		return err
	}

	if err := store.ResetJob(jobID); err != nil {
		return err
	}

	fmt.Printf("reset %s to created\n", jobID)
	return nil
}
