// Package models contains domain types for foreman entities.
// Persistence lives in internal/store; these types carry no I/O.
package models

import "time"

// Task represents one unit of work in the backlog.
// The task list is mutated by the invoked worker through its own CRUD
// tooling; the controller only ever reads these records.
type Task struct {
	ID                 int       `json:"id"`
	Title              string    `json:"title"`
	Kind               string    `json:"kind"`
	Priority           int       `json:"priority"` // lower = more urgent, 1 is highest
	Estimate           int       `json:"estimate"` // effort units
	Status             string    `json:"status"`
	Sprint             *int      `json:"sprint,omitempty"`
	AcceptanceCriteria []string  `json:"acceptance_criteria,omitempty"`
	DependsOn          []int     `json:"depends_on,omitempty"`
	FailureReason      string    `json:"failure_reason,omitempty"` // set only in qa_failed
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Task kind constants
const (
	TaskKindFeature = "feature"
	TaskKindBug     = "bug"
	TaskKindSpike   = "spike"
	TaskKindInfra   = "infra"
	TaskKindChore   = "chore"
)

// Task status constants
const (
	TaskStatusBacklog      = "backlog"
	TaskStatusReady        = "ready"
	TaskStatusInProgress   = "in_progress"
	TaskStatusImplemented  = "implemented"
	TaskStatusQAInProgress = "qa_in_progress"
	TaskStatusQAPassed     = "qa_passed"
	TaskStatusQAFailed     = "qa_failed"
	TaskStatusDone         = "done"
	TaskStatusCancelled    = "cancelled"
)

// taskTransitions is the fixed status graph. A task may cycle through
// qa_failed -> in_progress -> ... -> qa_passed any number of times; the
// rework ceiling in the engine bounds it in practice.
var taskTransitions = map[string][]string{
	TaskStatusBacklog:      {TaskStatusReady, TaskStatusCancelled},
	TaskStatusReady:        {TaskStatusInProgress, TaskStatusCancelled},
	TaskStatusInProgress:   {TaskStatusImplemented, TaskStatusCancelled},
	TaskStatusImplemented:  {TaskStatusQAInProgress, TaskStatusCancelled},
	TaskStatusQAInProgress: {TaskStatusQAPassed, TaskStatusQAFailed},
	TaskStatusQAPassed:     {TaskStatusDone},
	TaskStatusQAFailed:     {TaskStatusInProgress, TaskStatusCancelled},
	TaskStatusDone:         {},
	TaskStatusCancelled:    {},
}

// CanTransition reports whether the status graph permits from -> to.
func CanTransition(from, to string) bool {
	for _, next := range taskTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsResolved reports whether a status is terminal (done or cancelled).
func IsResolved(status string) bool {
	return status == TaskStatusDone || status == TaskStatusCancelled
}

// TaskList is the persisted task-list document: the task records plus
// aggregate counts by status. Counts are derived; Recount refreshes them
// after the document is loaded so stale counts never mislead a reader.
type TaskList struct {
	NextID int            `json:"next_id"`
	Tasks  []Task         `json:"tasks"`
	Counts map[string]int `json:"counts"`
}

// Recount rebuilds the aggregate counts from the task records.
func (tl *TaskList) Recount() {
	counts := make(map[string]int)
	for _, t := range tl.Tasks {
		counts[t.Status]++
	}
	tl.Counts = counts
}

// AllResolved reports whether every task is done or cancelled.
// An empty task list is not considered resolved; there is nothing to
// be complete about.
func (tl *TaskList) AllResolved() bool {
	if len(tl.Tasks) == 0 {
		return false
	}
	for _, t := range tl.Tasks {
		if !IsResolved(t.Status) {
			return false
		}
	}
	return true
}

// OpenCriticalBugs returns the priority-1 bugs that are not resolved.
func (tl *TaskList) OpenCriticalBugs() []Task {
	var out []Task
	for _, t := range tl.Tasks {
		if t.Kind == TaskKindBug && t.Priority == 1 && !IsResolved(t.Status) {
			out = append(out, t)
		}
	}
	return out
}

// SprintTasks returns the tasks owned by the given sprint.
func (tl *TaskList) SprintTasks(sprint int) []Task {
	var out []Task
	for _, t := range tl.Tasks {
		if t.Sprint != nil && *t.Sprint == sprint {
			out = append(out, t)
		}
	}
	return out
}

// CountInSprint counts sprint tasks holding any of the given statuses.
func (tl *TaskList) CountInSprint(sprint int, statuses ...string) int {
	n := 0
	for _, t := range tl.SprintTasks(sprint) {
		for _, s := range statuses {
			if t.Status == s {
				n++
				break
			}
		}
	}
	return n
}
