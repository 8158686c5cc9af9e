package prompts

import (
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	data := Data{
		Role:          "builder",
		Sprint:        2,
		Loop:          4,
		ChecklistPath: "FIX_PLAN.md",
		PlanPath:      ".foreman/sprints/sprint-2-plan.md",
		ReviewPath:    ".foreman/sprints/sprint-2-review.md",
	}

	tests := []struct {
		phase string
		want  []string
	}{
		{"initialization", []string{"initial backlog"}},
		{"planning", []string{"sprint 2", ".foreman/sprints/sprint-2-plan.md"}},
		{"implementation", []string{"loop 4", "FIX_PLAN.md", "acceptance criteria"}},
		{"qa", []string{"qa_failed", "acceptance criteria"}},
		{"review", []string{".foreman/sprints/sprint-2-review.md"}},
	}
	for _, tt := range tests {
		t.Run(tt.phase, func(t *testing.T) {
			prompt, err := Render(tt.phase, data)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(prompt, want) {
					t.Errorf("prompt missing %q", want)
				}
			}
			// Every prompt carries the status block contract.
			if !strings.Contains(prompt, "=== STATUS ===") || !strings.Contains(prompt, "project_complete:") {
				t.Error("prompt missing status format")
			}
		})
	}
}

func TestRenderImplementationOmitsMissingChecklist(t *testing.T) {
	prompt, err := Render("implementation", Data{Role: "builder", Sprint: 1, Loop: 1})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(prompt, "unchecked items") {
		t.Error("checklist step rendered without a checklist path")
	}
}

func TestRenderUnknownPhase(t *testing.T) {
	if _, err := Render("retrospective", Data{}); err == nil {
		t.Fatal("Render() accepted an unknown phase")
	}
}
