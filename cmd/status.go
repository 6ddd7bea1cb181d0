package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/plasticdigits/worksplit/pkg/status"
)

var statusJSON bool

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show every tracked job's current status",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
	cmd.Flags().BoolVar(&statusJSON, "json", false, "Print machine-readable JSON instead of a colorized table")
	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	_, store, err := buildCollaborators(cfg)
	if err != nil {
		return err
	}

	entries := store.AllEntries()
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if statusJSON || !isatty.IsTerminal(os.Stdout.Fd()) {
		return json.NewEncoder(os.Stdout).Encode(entries)
	}

	summary := store.GetSummary()
	for _, id := range ids {
		e := entries[id]
		fmt.Printf("%-24s %s\n", id, statusLabel(e.Status))
		if e.Error != "" {
			fmt.Printf("%-24s   %s\n", "", color.RedString(e.Error))
		}
	}
	fmt.Printf("\n%d total, %d pending\n", len(entries), summary.Pending)
	return nil
}

func statusLabel(s status.JobStatus) string {
	switch s {
	case status.Pass:
		return color.GreenString(string(s))
	case status.Fail:
		return color.RedString(string(s))
	case status.Partial:
		return color.YellowString(string(s))
	case status.Created:
		return string(s)
	default:
		return color.CyanString(string(s))
	}
}
