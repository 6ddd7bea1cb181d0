package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/plasticdigits/worksplit/pkg/graph"
	"github.com/plasticdigits/worksplit/pkg/job"
)

var (
	graphMermaid bool
	graphOutput  string
)

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Show the job dependency graph's execution groups",
		Args:  cobra.NoArgs,
		RunE:  runGraph,
	}
	cmd.Flags().BoolVar(&graphMermaid, "mermaid", false, "Render as a Mermaid flowchart instead of a plain group listing")
	cmd.Flags().StringVarP(&graphOutput, "output", "o", "", "Output file (stdout if not specified)")
	return cmd
}

func runGraph(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	mgr, _, err := buildCollaborators(cfg)
	if err != nil {
		return err
	}

	jobs, err := mgr.Discover()
	if err != nil {
		return err
	}

	g, err := graph.Build(jobs)
	if err != nil {
		return err
	}
	groups, err := g.ExecutionGroups()
	if err != nil {
		return err
	}

	var output string
	if graphMermaid {
		output = toMermaid(jobs, g, groups)
	} else {
		output = toGroupListing(groups)
	}

	if graphOutput != "" {
		return os.WriteFile(graphOutput, []byte(output), 0644)
	}
	fmt.Println(output)
	return nil
}

func toGroupListing(groups []graph.Group) string {
	var buf strings.Builder
	for i, group := range groups {
		fmt.Fprintf(&buf, "Group %d:\n", i)
		for _, id := range group {
			fmt.Fprintf(&buf, "  - %s\n", id)
		}
	}
	return buf.String()
}

// toMermaid renders the graph as a top-down Mermaid flowchart, one node
// per job and one edge per dependency.
func toMermaid(jobs []*job.Job, g *graph.Graph, groups []graph.Group) string {
	var buf strings.Builder
	buf.WriteString("graph TD\n")

	for _, job := range jobs {
		nodeID := mermaidNodeID(job.ID)
		fmt.Fprintf(&buf, "    %s[%s]\n", nodeID, job.ID)
	}

	for _, job := range jobs {
		nodeID := mermaidNodeID(job.ID)
		for _, dep := range g.Dependencies(job.ID) {
			fmt.Fprintf(&buf, "    %s --> %s\n", mermaidNodeID(dep), nodeID)
		}
	}

	return buf.String()
}

func mermaidNodeID(id string) string {
	return strings.NewReplacer("-", "_", ".", "_").Replace(id)
}
