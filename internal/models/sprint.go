package models

import "time"

// Phase constants, in fixed order per sprint. Initialization runs once as
// sprint 0 before the first planning pass.
const (
	PhaseInitialization = "initialization"
	PhasePlanning       = "planning"
	PhaseImplementation = "implementation"
	PhaseQA             = "qa"
	PhaseReview         = "review"
)

// Run status constants for SprintState.Status.
const (
	RunStatusRunning     = "running"
	RunStatusInterrupted = "interrupted"
	RunStatusHalted      = "halted"
	RunStatusComplete    = "complete"
)

// Sprint outcome constants recorded in history.
const (
	SprintOutcomeCompleted   = "completed"
	SprintOutcomeHalted      = "halted"
	SprintOutcomeInterrupted = "interrupted"
)

// SprintRecord captures one finished sprint for the history list.
type SprintRecord struct {
	Sprint    int       `json:"sprint"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Outcome   string    `json:"outcome"`
}

// SprintState is the single process-wide run record. It is created on the
// first run and persists across restarts so an interrupted run can resume
// where it left off.
type SprintState struct {
	SessionID   string         `json:"session_id"`
	Sprint      int            `json:"sprint"` // 0 = initialization
	Phase       string         `json:"phase"`
	LoopCount   int            `json:"loop_count"`   // iterations inside the current phase
	ReworkCount int            `json:"rework_count"` // rework cycles in the current sprint
	ProjectDone bool           `json:"project_done"`
	Status      string         `json:"status"`
	History     []SprintRecord `json:"history,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
