// Package prompts renders the role/phase prompt sent to the worker.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed templates/*.tmpl
var phaseTemplates embed.FS

// Data carries the sprint context into a prompt template.
type Data struct {
	Role          string
	Sprint        int
	Loop          int
	ChecklistPath string
	PlanPath      string
	ReviewPath    string
	StatusFormat  string
}

// statusFormat is appended to every prompt so the worker knows the status
// block the controller can parse. Emitting it is optional; the controller
// falls back to ground truth when it is absent.
const statusFormat = `=== STATUS ===
role: <role>
phase: <phase>
sprint: <number>
tasks_completed: <count>
tasks_remaining: <count>
blockers: <text or none>
tests: PASSING|FAILING|NOT_RUN
phase_complete: true|false
project_complete: true|false
next_action: <text>
=== END STATUS ===`

// Render produces the prompt for a phase. Unknown phases are an error; the
// engine only asks for the five known phases.
func Render(phase string, data Data) (string, error) {
	content, err := phaseTemplates.ReadFile(fmt.Sprintf("templates/%s.tmpl", phase))
	if err != nil {
		return "", fmt.Errorf("failed to load prompt template for %s: %w", phase, err)
	}
	tmpl, err := template.New(phase).Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse prompt template for %s: %w", phase, err)
	}
	data.StatusFormat = statusFormat
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt for %s: %w", phase, err)
	}
	return buf.String(), nil
}
