package worker

import (
	"fmt"
	"os/exec"
	"strings"
)

// ChangeCounter snapshots the working tree so the controller can measure
// whether an invocation changed anything. The count feeds the circuit
// breaker's no-progress detection.
type ChangeCounter interface {
	Snapshot() (map[string]string, error)
}

// GitChanges measures file changes from git status. Outside a git
// repository Snapshot errors and the runner reports zero changes; the
// completion detector's ground-truth checks still apply.
type GitChanges struct {
	Dir string
}

// Snapshot returns the working tree's dirty paths mapped to their status.
func (g GitChanges) Snapshot() (map[string]string, error) {
	cmd := exec.Command("git", "status", "--porcelain")
	cmd.Dir = g.Dir
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to read git status: %w", err)
	}

	snap := make(map[string]string)
	for _, line := range strings.Split(string(out), "\n") {
		if len(line) < 4 {
			continue
		}
		snap[strings.TrimSpace(line[3:])] = line[:2]
	}
	return snap, nil
}

// CountChanged counts paths whose status differs between two snapshots.
func CountChanged(before, after map[string]string) int {
	n := 0
	for path, st := range after {
		if before[path] != st {
			n++
		}
	}
	for path := range before {
		if _, ok := after[path]; !ok {
			n++
		}
	}
	return n
}
