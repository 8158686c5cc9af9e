// Package completion decides when the overall run should stop.
//
// Hard signals come from ground truth (the persisted task list and the
// external checklist document). Soft signals come from untrusted free-text
// worker output and are only trusted cumulatively, and only when no known
// remaining work exists. A single misleading sentence ("Sprint 1 complete")
// must never terminate the run.
package completion

import (
	"time"

	"github.com/example/foreman/internal/models"
	"github.com/example/foreman/internal/store"
)

// Graceful-exit reasons, in decision order.
const (
	ReasonBacklogComplete      = "backlog_complete"
	ReasonFixPlanComplete      = "fix_plan_complete"
	ReasonDoneSignals          = "done_signals"
	ReasonIdleLoops            = "idle_loops"
	ReasonTestSaturation       = "test_saturation"
	ReasonCompletionIndicators = "completion_indicators"
)

// Soft-signal thresholds.
const (
	doneSignalThreshold = 3
	idleLoopThreshold   = 5
	testOnlyThreshold   = 5
	indicatorThreshold  = 3
)

// Detector aggregates completion signals. All state lives in the store's
// exit-signals document and the ground-truth documents it reads.
type Detector struct {
	store         *store.Store
	checklistPath string
}

// New creates a detector reading the checklist document at checklistPath.
func New(st *store.Store, checklistPath string) *Detector {
	return &Detector{store: st, checklistPath: checklistPath}
}

// RecordDoneSignal records one explicit project-done claim.
func (d *Detector) RecordDoneSignal(sprint, loop int, note string) error {
	return d.record(func(es *models.ExitSignals, e models.SignalEntry) {
		es.DoneSignals.Push(e)
	}, sprint, loop, note)
}

// RecordIdleLoop records one invocation with zero observable change.
func (d *Detector) RecordIdleLoop(sprint, loop int, note string) error {
	return d.record(func(es *models.ExitSignals, e models.SignalEntry) {
		es.IdleLoops.Push(e)
	}, sprint, loop, note)
}

// RecordTestOnlyLoop records one invocation that only exercised tests.
func (d *Detector) RecordTestOnlyLoop(sprint, loop int, note string) error {
	return d.record(func(es *models.ExitSignals, e models.SignalEntry) {
		es.TestOnlyLoops.Push(e)
	}, sprint, loop, note)
}

// RecordCompletionIndicator records one weak completion hint.
func (d *Detector) RecordCompletionIndicator(sprint, loop int, note string) error {
	return d.record(func(es *models.ExitSignals, e models.SignalEntry) {
		es.CompletionIndicators.Push(e)
	}, sprint, loop, note)
}

func (d *Detector) record(push func(*models.ExitSignals, models.SignalEntry), sprint, loop int, note string) error {
	es, err := d.store.LoadExitSignals()
	if err != nil {
		return err
	}
	push(es, models.SignalEntry{Sprint: sprint, Loop: loop, Note: note, At: time.Now().UTC()})
	return d.store.SaveExitSignals(es)
}

// ScanOutput applies the keyword tables to one invocation's raw output and
// records any soft signals found. Idle loops are not detected here; the
// engine records those from the files-changed count.
func (d *Detector) ScanOutput(sprint, loop int, output string) error {
	if phrase, ok := matchFirst(output, doneClaimPhrases); ok {
		if err := d.RecordDoneSignal(sprint, loop, phrase); err != nil {
			return err
		}
	}
	if phrase, ok := matchFirst(output, completionIndicatorPhrases); ok {
		if err := d.RecordCompletionIndicator(sprint, loop, phrase); err != nil {
			return err
		}
	}
	if containsAny(output, testActivityPhrases) && !containsAny(output, implementationVerbs) {
		if err := d.RecordTestOnlyLoop(sprint, loop, "test activity without implementation"); err != nil {
			return err
		}
	}
	return nil
}

// ResetSignals clears all soft-signal history for a new session.
func (d *Detector) ResetSignals() error {
	return d.store.SaveExitSignals(models.NewExitSignals())
}

// Signals returns the current exit-signals document.
func (d *Detector) Signals() (*models.ExitSignals, error) {
	return d.store.LoadExitSignals()
}

// ShouldExitGracefully evaluates the decision ladder and returns the first
// matching reason. It is evaluated at the start of every invocation-loop
// iteration; no reason means continue.
func (d *Detector) ShouldExitGracefully() (string, bool, error) {
	tasks, err := d.store.LoadTaskList()
	if err != nil {
		return "", false, err
	}
	checklist, err := store.ReadChecklist(d.checklistPath)
	if err != nil {
		return "", false, err
	}

	backlogDone := tasks.AllResolved() && len(tasks.OpenCriticalBugs()) == 0

	// Hard signal: task list fully resolved, unless the checklist says
	// work remains.
	if backlogDone && !checklist.HasRemainingWork() {
		return ReasonBacklogComplete, true, nil
	}

	// Hard signal: checklist fully checked.
	if checklist.Resolved() {
		return ReasonFixPlanComplete, true, nil
	}

	// Known remaining work suppresses every soft signal.
	if checklist.HasRemainingWork() {
		return "", false, nil
	}

	es, err := d.store.LoadExitSignals()
	if err != nil {
		return "", false, err
	}
	switch {
	case es.DoneSignals.Len() >= doneSignalThreshold:
		return ReasonDoneSignals, true, nil
	case es.IdleLoops.Len() >= idleLoopThreshold:
		return ReasonIdleLoops, true, nil
	case es.TestOnlyLoops.Len() >= testOnlyThreshold:
		return ReasonTestSaturation, true, nil
	case es.CompletionIndicators.Len() >= indicatorThreshold:
		return ReasonCompletionIndicators, true, nil
	}
	return "", false, nil
}

// IsProjectComplete is the authoritative final check used for the process
// exit code. It consults ground truth only, never soft signals.
func (d *Detector) IsProjectComplete() (bool, error) {
	tasks, err := d.store.LoadTaskList()
	if err != nil {
		return false, err
	}
	checklist, err := store.ReadChecklist(d.checklistPath)
	if err != nil {
		return false, err
	}
	if !tasks.AllResolved() || len(tasks.OpenCriticalBugs()) > 0 {
		return false, nil
	}
	if checklist.Exists && checklist.Unchecked > 0 {
		return false, nil
	}
	return true, nil
}
