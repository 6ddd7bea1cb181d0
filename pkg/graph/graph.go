// Package graph builds the job dependency graph and computes level-based
// execution groups. Edges come from output/context/target path overlap
// between jobs, augmented by explicit depends_on entries.
package graph

import (
	"path/filepath"
	"sort"

	"github.com/plasticdigits/worksplit/pkg/job"
	"github.com/plasticdigits/worksplit/pkg/wkerr"
)

// Graph is the resolved dependency relation over a set of jobs.
type Graph struct {
	jobs  map[string]*job.Job
	edges map[string][]string // job id -> dependency ids
}

// Group is one level of the execution plan: jobs with no unresolved
// dependency among the groups scheduled before it.
type Group []string

func normPath(p string) string {
	return filepath.Clean(p)
}

// Build indexes every job's declared outputs, then derives each job's
// dependencies from any context/target path that is a known output,
// augmented by explicit depends_on. Returns a *wkerr.DuplicateOutputProducer
// if two jobs declare the same output path.
func Build(jobs []*job.Job) (*Graph, error) {
	producers := make(map[string]string) // output path -> job id
	byID := make(map[string]*job.Job, len(jobs))

	for _, j := range jobs {
		byID[j.ID] = j
	}

	for _, j := range jobs {
		for _, out := range j.OutputPathsOrPrimary() {
			path := normPath(filepath.Join(j.OutputDir, out))
			if existing, ok := producers[path]; ok && existing != j.ID {
				return nil, &wkerr.DuplicateOutputProducer{Path: path, JobA: existing, JobB: j.ID}
			}
			producers[path] = j.ID
		}
	}

	edges := make(map[string][]string, len(jobs))
	for _, j := range jobs {
		seen := make(map[string]bool)
		var deps []string

		addDep := func(producerID string) {
			if producerID == "" || producerID == j.ID || seen[producerID] {
				return
			}
			seen[producerID] = true
			deps = append(deps, producerID)
		}

		for _, ctx := range j.ContextPaths {
			addDep(producers[normPath(ctx)])
		}
		for _, tgt := range j.TargetPaths {
			addDep(producers[normPath(tgt)])
		}
		for _, dep := range j.DependsOn {
			if _, ok := byID[dep]; ok {
				addDep(dep)
			}
		}

		sort.Strings(deps)
		edges[j.ID] = deps
	}

	return &Graph{jobs: byID, edges: edges}, nil
}

// ExecutionGroups performs level-based scheduling: the first group is all
// jobs with no unresolved dependency, each subsequent group is all jobs
// whose dependencies are satisfied by earlier groups. A non-empty
// remainder after no progress is made signals a cycle.
func (g *Graph) ExecutionGroups() ([]Group, error) {
	remaining := make(map[string]bool, len(g.jobs))
	for id := range g.jobs {
		remaining[id] = true
	}

	var groups []Group
	satisfied := make(map[string]bool)

	for len(remaining) > 0 {
		var next []string
		for id := range remaining {
			ready := true
			for _, dep := range g.edges[id] {
				if !satisfied[dep] {
					ready = false
					break
				}
			}
			if ready {
				next = append(next, id)
			}
		}

		if len(next) == 0 {
			cycle, _ := g.DetectCycle()
			return nil, &wkerr.CyclicDependency{
				Cycle:      cycle,
				Suggestion: "check depends_on for a circular reference",
			}
		}

		sort.Strings(next)
		groups = append(groups, Group(next))
		for _, id := range next {
			satisfied[id] = true
			delete(remaining, id)
		}
	}

	return groups, nil
}

// DetectCycle returns one cycle found via DFS, or nil if the graph is
// acyclic.
func (g *Graph) DetectCycle() ([]string, error) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(g.jobs))
	var path []string

	var visit func(string) []string
	visit = func(id string) []string {
		color[id] = gray
		path = append(path, id)
		for _, dep := range g.edges[id] {
			switch color[dep] {
			case white:
				if cyc := visit(dep); cyc != nil {
					return cyc
				}
			case gray:
				start := -1
				for i, n := range path {
					if n == dep {
						start = i
						break
					}
				}
				if start >= 0 {
					cyc := append([]string{}, path[start:]...)
					return append(cyc, dep)
				}
			}
		}
		color[id] = black
		path = path[:len(path)-1]
		return nil
	}

	ids := make([]string, 0, len(g.jobs))
	for id := range g.jobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if color[id] == white {
			if cyc := visit(id); cyc != nil {
				return cyc, nil
			}
		}
	}
	return nil, nil
}

// Dependencies returns the dependency ids for a job.
func (g *Graph) Dependencies(id string) []string {
	return g.edges[id]
}
