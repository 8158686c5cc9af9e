// Package status parses the optional delimited status block a worker may
// emit at the end of its output.
//
// Absence of the block is a normal, cheap case: Parse returns present=false
// and never errors on malformed input. The controller falls back to ground
// truth (the task list and checklist documents) when no block is present.
package status

import (
	"regexp"
	"strconv"
	"strings"
)

// Block delimiters in worker output.
const (
	BlockStart = "=== STATUS ==="
	BlockEnd   = "=== END STATUS ==="
)

// Tests field values.
const (
	TestsPassing = "PASSING"
	TestsFailing = "FAILING"
	TestsNotRun  = "NOT_RUN"
)

// ansiPattern strips terminal escape codes before matching.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// Block is the structured status record a worker may report.
type Block struct {
	Role            string
	Phase           string
	Sprint          int
	TasksCompleted  int
	TasksRemaining  int
	Blockers        string
	Tests           string
	PhaseComplete   bool
	ProjectComplete bool
	NextAction      string
}

// Parse extracts the status block from raw worker output. The second return
// is false when no block is present or the delimiters are unbalanced.
// Unrecognized or malformed fields inside the block are skipped.
func Parse(output string) (Block, bool) {
	clean := ansiPattern.ReplaceAllString(output, "")

	start := strings.LastIndex(clean, BlockStart)
	if start < 0 {
		return Block{}, false
	}
	rest := clean[start+len(BlockStart):]
	end := strings.Index(rest, BlockEnd)
	if end < 0 {
		return Block{}, false
	}

	var b Block
	b.Tests = TestsNotRun
	for _, line := range strings.Split(rest[:end], "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		switch key {
		case "role":
			b.Role = value
		case "phase":
			b.Phase = value
		case "sprint":
			if n, err := strconv.Atoi(value); err == nil {
				b.Sprint = n
			}
		case "tasks_completed":
			if n, err := strconv.Atoi(value); err == nil {
				b.TasksCompleted = n
			}
		case "tasks_remaining":
			if n, err := strconv.Atoi(value); err == nil {
				b.TasksRemaining = n
			}
		case "blockers":
			b.Blockers = value
		case "tests":
			switch strings.ToUpper(value) {
			case TestsPassing, TestsFailing, TestsNotRun:
				b.Tests = strings.ToUpper(value)
			}
		case "phase_complete":
			b.PhaseComplete = parseBool(value)
		case "project_complete":
			b.ProjectComplete = parseBool(value)
		case "next_action":
			b.NextAction = value
		}
	}
	return b, true
}

// parseBool accepts the loose booleans workers actually emit.
func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "yes", "y", "1":
		return true
	}
	return false
}
