package status

import "testing"

const goodBlock = `Some narrative about the work done.

=== STATUS ===
role: builder
phase: implementation
sprint: 2
tasks_completed: 3
tasks_remaining: 2
blockers: none
tests: PASSING
phase_complete: true
project_complete: false
next_action: start qa on task 7
=== END STATUS ===
`

func TestParse_FullBlock(t *testing.T) {
	b, ok := Parse(goodBlock)
	if !ok {
		t.Fatal("Parse() reported absent for a well formed block")
	}
	if b.Role != "builder" || b.Phase != "implementation" || b.Sprint != 2 {
		t.Errorf("header fields wrong: %+v", b)
	}
	if b.TasksCompleted != 3 || b.TasksRemaining != 2 {
		t.Errorf("task counts wrong: %+v", b)
	}
	if b.Tests != TestsPassing {
		t.Errorf("Tests = %q, want %q", b.Tests, TestsPassing)
	}
	if !b.PhaseComplete || b.ProjectComplete {
		t.Errorf("booleans wrong: %+v", b)
	}
	if b.NextAction != "start qa on task 7" {
		t.Errorf("NextAction = %q", b.NextAction)
	}
}

func TestParse_Absent(t *testing.T) {
	tests := []struct {
		name   string
		output string
	}{
		{"no block at all", "just narrative output, no status"},
		{"start marker only", "text\n=== STATUS ===\nrole: builder\n"},
		{"end marker only", "text\n=== END STATUS ===\n"},
		{"empty output", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := Parse(tt.output); ok {
				t.Error("Parse() reported present, want absent")
			}
		})
	}
}

func TestParse_MalformedFieldsSkipped(t *testing.T) {
	output := `=== STATUS ===
role: qa
sprint: not-a-number
tasks_completed: 1
garbage line without separator
unknown_field: whatever
tests: SOMETIMES
=== END STATUS ===`

	b, ok := Parse(output)
	if !ok {
		t.Fatal("Parse() reported absent")
	}
	if b.Role != "qa" {
		t.Errorf("Role = %q, want qa", b.Role)
	}
	if b.Sprint != 0 {
		t.Errorf("Sprint = %d, want 0 for malformed value", b.Sprint)
	}
	if b.TasksCompleted != 1 {
		t.Errorf("TasksCompleted = %d, want 1", b.TasksCompleted)
	}
	if b.Tests != TestsNotRun {
		t.Errorf("Tests = %q, want %q for unknown value", b.Tests, TestsNotRun)
	}
}

func TestParse_StripsANSI(t *testing.T) {
	output := "\x1b[32m=== STATUS ===\x1b[0m\nrole: \x1b[1mreviewer\x1b[0m\nproject_complete: yes\n=== END STATUS ==="

	b, ok := Parse(output)
	if !ok {
		t.Fatal("Parse() reported absent for ANSI colored block")
	}
	if b.Role != "reviewer" {
		t.Errorf("Role = %q, want reviewer", b.Role)
	}
	if !b.ProjectComplete {
		t.Error("ProjectComplete = false, want true for 'yes'")
	}
}

func TestParse_UsesLastBlock(t *testing.T) {
	output := `=== STATUS ===
role: builder
sprint: 1
=== END STATUS ===
later output
=== STATUS ===
role: qa
sprint: 2
=== END STATUS ===`

	b, ok := Parse(output)
	if !ok {
		t.Fatal("Parse() reported absent")
	}
	if b.Role != "qa" || b.Sprint != 2 {
		t.Errorf("Parse() took the wrong block: %+v", b)
	}
}

func TestParse_NeverPanicsOnJunk(t *testing.T) {
	junk := []string{
		"=== STATUS ===",
		"=== STATUS ====== END STATUS ===",
		"=== END STATUS ===\n=== STATUS ===",
		":\n:\n:::\n",
	}
	for _, output := range junk {
		// Present or absent is fine; panicking or erroring is not.
		Parse(output)
	}
}
