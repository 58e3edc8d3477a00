package tle

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var labelPattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// Archive keeps downloaded TLE histories on disk as
// <dir>/<label>_<unix>.txt, retaining at most maxFiles per label.
type Archive struct {
	dir      string
	maxFiles int
}

// NewArchive creates an Archive rooted at dir.
func NewArchive(dir string, maxFiles int) *Archive {
	if maxFiles <= 0 {
		maxFiles = 5
	}
	return &Archive{
		dir:      dir,
		maxFiles: maxFiles,
	}
}

// Write saves data for label and prunes that label's oldest files.
// It returns the path written.
func (a *Archive) Write(label string, data []byte, ts time.Time) (string, error) {
	if !labelPattern.MatchString(label) {
		return "", fmt.Errorf("invalid archive label %q", label)
	}
	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return "", fmt.Errorf("creating archive dir: %w", err)
	}

	path := filepath.Join(a.dir, fmt.Sprintf("%s_%d.txt", label, ts.Unix()))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing archive file: %w", err)
	}

	return path, a.prune(label)
}

// LoadLatest reads the newest archived file for label.
func (a *Archive) LoadLatest(label string) ([]byte, time.Time, error) {
	files, err := a.list(label)
	if err != nil {
		return nil, time.Time{}, err
	}
	if len(files) == 0 {
		return nil, time.Time{}, fmt.Errorf("no archive files for %q", label)
	}

	latest := files[len(files)-1]
	data, err := os.ReadFile(filepath.Join(a.dir, latest.name))
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("reading archive file: %w", err)
	}
	return data, latest.ts, nil
}

type archiveFile struct {
	name string
	ts   time.Time
}

// list returns label's files sorted oldest first.
func (a *Archive) list(label string) ([]archiveFile, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing archive dir: %w", err)
	}

	prefix := label + "_"
	var files []archiveFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".txt") {
			continue
		}
		unix, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".txt"), 10, 64)
		if err != nil {
			continue
		}
		files = append(files, archiveFile{name: name, ts: time.Unix(unix, 0)})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ts.Before(files[j].ts)
	})
	return files, nil
}

func (a *Archive) prune(label string) error {
	files, err := a.list(label)
	if err != nil {
		return err
	}
	if len(files) <= a.maxFiles {
		return nil
	}
	for _, f := range files[:len(files)-a.maxFiles] {
		if err := os.Remove(filepath.Join(a.dir, f.name)); err != nil {
			return fmt.Errorf("pruning archive file %s: %w", f.name, err)
		}
	}
	return nil
}
