package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// Sprint artifacts are markdown documents the worker writes during planning
// and review. The controller only probes for their existence; that is the
// phase-completion predicate for those phases.

// PlanPath returns the sprint-plan document path for a sprint.
func PlanPath(dir string, sprint int) string {
	return filepath.Join(dir, fmt.Sprintf("sprint-%d-plan.md", sprint))
}

// ReviewPath returns the sprint-review document path for a sprint.
func ReviewPath(dir string, sprint int) string {
	return filepath.Join(dir, fmt.Sprintf("sprint-%d-review.md", sprint))
}

// DocumentExists reports whether a non-empty document exists at path.
func DocumentExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}
