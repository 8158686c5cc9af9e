package engine

import (
	"context"
	"errors"
	"time"

	"github.com/example/foreman/internal/models"
	"github.com/google/uuid"
)

func nowUTC() time.Time {
	return time.Now().UTC()
}

// Run drives the whole project: one initialization phase, then repeated
// {planning, rework loop, review} sprints until the completion detector
// fires, the circuit opens, or the sprint ceiling is reached. The returned
// exit code is the process exit code contract.
func (e *Engine) Run(ctx context.Context) (ExitCode, error) {
	// A new session: fresh session id, fresh soft-signal history. Sprint
	// position persists across restarts so an interrupted run resumes.
	st, err := e.updateState(func(s *models.SprintState) {
		s.SessionID = uuid.NewString()
		s.Status = models.RunStatusRunning
		if s.Phase == "" {
			s.Phase = models.PhaseInitialization
		}
	})
	if err != nil {
		return ExitError, err
	}
	if err := e.detector.ResetSignals(); err != nil {
		return ExitError, err
	}

	code, err := e.run(ctx, st)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			e.persistInterrupted()
			return ExitError, err
		}
		e.persistStatus(models.RunStatusHalted)
		return ExitError, err
	}
	return code, nil
}

func (e *Engine) run(ctx context.Context, st *models.SprintState) (ExitCode, error) {
	if st.Sprint == 0 {
		res, err := e.runPhase(ctx, 0, models.PhaseInitialization)
		if err != nil {
			return ExitError, err
		}
		if code, final, err := e.settlePhase(res, 0, nowUTC()); err != nil || final {
			return code, err
		}
		if _, err := e.updateState(func(s *models.SprintState) { s.Sprint = 1 }); err != nil {
			return ExitError, err
		}
		st.Sprint = 1
	}

	for sprint := st.Sprint; sprint <= e.cfg.SprintCeiling; sprint++ {
		sprintStart := nowUTC()
		if _, err := e.updateState(func(s *models.SprintState) {
			s.Sprint = sprint
			s.ReworkCount = 0
		}); err != nil {
			return ExitError, err
		}
		// A new sprint implicitly closes the breaker.
		if err := e.breaker.Reset("sprint start"); err != nil {
			return ExitError, err
		}

		res, err := e.runPhase(ctx, sprint, models.PhasePlanning)
		if err != nil {
			return ExitError, err
		}
		if code, final, err := e.settlePhase(res, sprint, sprintStart); err != nil || final {
			return code, err
		}

		code, final, err := e.runReworkLoop(ctx, sprint, sprintStart)
		if err != nil || final {
			return code, err
		}

		reviewRes, err := e.runPhase(ctx, sprint, models.PhaseReview)
		if err != nil {
			return ExitError, err
		}
		if code, final, err := e.settlePhase(reviewRes, sprint, sprintStart); err != nil || final {
			return code, err
		}

		e.recordSprint(sprint, sprintStart, models.SprintOutcomeCompleted)

		reason, exit, err := e.detector.ShouldExitGracefully()
		if err != nil {
			return ExitError, err
		}
		if exit {
			return e.finalize(reason)
		}
	}

	e.warnf("sprint ceiling (%d) reached without completion", e.cfg.SprintCeiling)
	e.persistStatus(models.RunStatusComplete)
	return ExitSprintCeiling, nil
}

// runReworkLoop repeats {implementation, qa} while verification failures
// remain, bounded by the rework ceiling. Hitting the ceiling is not fatal:
// the sprint proceeds to review and unresolved tasks wait for the next
// planning pass.
func (e *Engine) runReworkLoop(ctx context.Context, sprint int, sprintStart time.Time) (ExitCode, bool, error) {
	for {
		for _, phase := range []string{models.PhaseImplementation, models.PhaseQA} {
			res, err := e.runPhase(ctx, sprint, phase)
			if err != nil {
				return ExitError, true, err
			}
			if code, final, err := e.settlePhase(res, sprint, sprintStart); err != nil || final {
				return code, final, err
			}
		}

		tasks, err := e.store.LoadTaskList()
		if err != nil {
			return ExitError, true, err
		}
		failed := tasks.CountInSprint(sprint, models.TaskStatusQAFailed)
		if failed == 0 {
			return ExitNormal, false, nil
		}

		st, err := e.updateState(func(s *models.SprintState) { s.ReworkCount++ })
		if err != nil {
			return ExitError, true, err
		}
		if st.ReworkCount >= e.cfg.ReworkCeiling {
			e.warnf("sprint %d: rework ceiling (%d) reached with %d task(s) still failing verification; proceeding to review",
				sprint, e.cfg.ReworkCeiling, failed)
			return ExitNormal, false, nil
		}
		e.infof("sprint %d: %d task(s) failed verification; rework cycle %d",
			sprint, failed, st.ReworkCount)
	}
}

// settlePhase translates a phase result into control flow: halts and
// graceful exits are final, ceilings and completions continue.
func (e *Engine) settlePhase(res phaseResult, sprint int, sprintStart time.Time) (ExitCode, bool, error) {
	switch res.outcome {
	case phaseHalted:
		bs, err := e.breaker.State()
		reason := "circuit breaker open"
		if err == nil && bs.Reason != "" {
			reason = bs.Reason
		}
		e.warnf("halting: %s", reason)
		e.recordSprint(sprint, sprintStart, models.SprintOutcomeHalted)
		e.persistStatus(models.RunStatusHalted)
		return ExitCircuitOpen, true, nil

	case phaseGracefulExit:
		e.infof("completion detector: %s", res.exitReason)
		e.recordSprint(sprint, sprintStart, models.SprintOutcomeCompleted)
		code, err := e.finalize(res.exitReason)
		return code, true, err

	default:
		return ExitNormal, false, nil
	}
}

// finalize resolves a graceful stop into the exit code: project-complete
// when ground truth agrees, normal stop otherwise.
func (e *Engine) finalize(reason string) (ExitCode, error) {
	complete, err := e.detector.IsProjectComplete()
	if err != nil {
		return ExitError, err
	}
	if _, err := e.updateState(func(s *models.SprintState) {
		s.Status = models.RunStatusComplete
		s.ProjectDone = complete
	}); err != nil {
		return ExitError, err
	}
	if complete {
		e.infof("project complete (%s)", reason)
		return ExitProjectComplete, nil
	}
	e.infof("stopping gracefully (%s)", reason)
	return ExitNormal, nil
}

// recordSprint appends one sprint record to the history list.
func (e *Engine) recordSprint(sprint int, start time.Time, outcome string) {
	if _, err := e.updateState(func(s *models.SprintState) {
		s.History = append(s.History, models.SprintRecord{
			Sprint:    sprint,
			StartedAt: start,
			EndedAt:   nowUTC(),
			Outcome:   outcome,
		})
	}); err != nil {
		e.warnf("failed to record sprint history: %v", err)
	}
}

// persistInterrupted is the best-effort interrupted snapshot; in-flight
// worker invocations are not guaranteed to be cleanly aborted.
func (e *Engine) persistInterrupted() {
	e.persistStatus(models.RunStatusInterrupted)
}

func (e *Engine) persistStatus(status string) {
	if _, err := e.updateState(func(s *models.SprintState) { s.Status = status }); err != nil {
		e.warnf("failed to persist final status: %v", err)
	}
}
