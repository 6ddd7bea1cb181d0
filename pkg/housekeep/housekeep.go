// Package housekeep archives completed job files out of the active jobs
// directory and prunes old archived jobs, behind interfaces with a default
// filesystem-backed implementation. No other package of this module
// calls them.
package housekeep

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "housekeep")

// Archiver moves a completed job's file out of the active jobs directory.
type Archiver interface {
	Archive(jobPath string) (archivedPath string, err error)
}

// Cleaner removes archived jobs older than its configured retention window.
type Cleaner interface {
	Clean() (removed []string, err error)
}

// FileArchiver copies a job file into Directory (relative to the jobs
// folder, defaulting to "archive") and removes the original, mirroring the
// copy-then-remove shape of a completed-session archive step.
type FileArchiver struct {
	JobsDir   string
	Directory string
}

// NewFileArchiver returns a FileArchiver rooted at jobsDir, archiving into
// the given subdirectory name (e.g. "archive").
func NewFileArchiver(jobsDir, directory string) *FileArchiver {
	if directory == "" {
		directory = "archive"
	}
	return &FileArchiver{JobsDir: jobsDir, Directory: directory}
}

// Archive copies jobPath into the archive directory and removes the
// original. The archive directory is created if absent.
func (a *FileArchiver) Archive(jobPath string) (string, error) {
	archiveDir := filepath.Join(a.JobsDir, a.Directory)
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", err
	}

	dest := filepath.Join(archiveDir, filepath.Base(jobPath))
	if err := copyFile(jobPath, dest); err != nil {
		return "", err
	}
	if err := os.Remove(jobPath); err != nil {
		return "", err
	}

	log.WithFields(logrus.Fields{"job_path": jobPath, "archived_path": dest}).Info("archived job file")
	return dest, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// AgeCleaner removes files from the archive directory whose modification
// time is older than Days.
type AgeCleaner struct {
	JobsDir   string
	Directory string
	Days      int
}

// NewAgeCleaner returns a Cleaner pruning files older than days in the
// given archive subdirectory.
func NewAgeCleaner(jobsDir, directory string, days int) *AgeCleaner {
	if directory == "" {
		directory = "archive"
	}
	return &AgeCleaner{JobsDir: jobsDir, Directory: directory, Days: days}
}

// Clean removes every file in the archive directory older than c.Days and
// returns the paths it removed.
func (c *AgeCleaner) Clean() ([]string, error) {
	archiveDir := filepath.Join(c.JobsDir, c.Directory)
	entries, err := os.ReadDir(archiveDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().AddDate(0, 0, -c.Days)
	var removed []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(archiveDir, e.Name())
			if err := os.Remove(path); err != nil {
				return removed, err
			}
			removed = append(removed, path)
		}
	}

	if len(removed) > 0 {
		log.WithField("count", len(removed)).Info("removed aged-out archived jobs")
	}
	return removed, nil
}
