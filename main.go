package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/plasticdigits/worksplit/cmd"
	"github.com/plasticdigits/worksplit/pkg/wkerr"
)

func main() {
	root := cmd.NewRootCmd()

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor classifies the error a subcommand returned into the shell's
// tri-state convention: 0 never reaches here (Execute only returns a
// non-nil error), 1 for a job-level failure plain callers can retry or
// investigate, 2 for an infrastructure-level error (bad config, missing
// jobs directory, I/O failure) that no retry of the same job will fix.
func exitCodeFor(err error) int {
	var (
		cfgErr     *wkerr.ConfigError
		folderErr  *wkerr.JobsFolderNotFound
		parseErr   *wkerr.JobParseError
		ioErr      *wkerr.Io
		cycleErr   *wkerr.CyclicDependency
		dupErr     *wkerr.DuplicateOutputProducer
		notFoundEr *wkerr.JobNotFound
	)
	switch {
	case errors.As(err, &cfgErr), errors.As(err, &folderErr), errors.As(err, &parseErr),
		errors.As(err, &ioErr), errors.As(err, &cycleErr), errors.As(err, &dupErr), errors.As(err, &notFoundEr):
		return 2
	default:
		return 1
	}
}
