package store

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
)

// Checklist markers follow the conventional markdown task-list syntax.
var (
	uncheckedPattern = regexp.MustCompile(`^\s*[-*]\s*\[\s\]`)
	checkedPattern   = regexp.MustCompile(`^\s*[-*]\s*\[[xX]\]`)
)

// ChecklistStatus summarizes the external remaining-work ledger.
type ChecklistStatus struct {
	Exists    bool
	Checked   int
	Unchecked int
}

// Resolved reports whether the checklist exists and every line-item is
// checked, with none unchecked.
func (c ChecklistStatus) Resolved() bool {
	return c.Exists && c.Unchecked == 0 && c.Checked > 0
}

// HasRemainingWork reports whether the checklist exists and still has
// unchecked items.
func (c ChecklistStatus) HasRemainingWork() bool {
	return c.Exists && c.Unchecked > 0
}

// ReadChecklist scans the checklist document at path, counting checked and
// unchecked line items. A missing file is a normal case, not an error.
func ReadChecklist(path string) (ChecklistStatus, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ChecklistStatus{}, nil
		}
		return ChecklistStatus{}, fmt.Errorf("failed to read checklist: %w", err)
	}
	defer f.Close()

	status := ChecklistStatus{Exists: true}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case uncheckedPattern.MatchString(line):
			status.Unchecked++
		case checkedPattern.MatchString(line):
			status.Checked++
		}
	}
	if err := scanner.Err(); err != nil {
		return ChecklistStatus{}, fmt.Errorf("failed to scan checklist: %w", err)
	}
	return status, nil
}
