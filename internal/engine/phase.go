package engine

import (
	"context"
	"fmt"

	"github.com/example/foreman/internal/config"
	"github.com/example/foreman/internal/core/status"
	"github.com/example/foreman/internal/ledger"
	"github.com/example/foreman/internal/models"
	"github.com/example/foreman/internal/prompts"
	"github.com/example/foreman/internal/store"
	"github.com/example/foreman/internal/worker"
	"github.com/google/uuid"
)

// phaseOutcome is how one phase's invocation loop ended.
type phaseOutcome int

const (
	// phaseCompleted: the phase-specific predicate reported complete.
	phaseCompleted phaseOutcome = iota
	// phaseCeiling: the loop ceiling was reached without completion.
	// Not fatal; the caller proceeds with a warning.
	phaseCeiling
	// phaseHalted: the circuit breaker is open.
	phaseHalted
	// phaseGracefulExit: the completion detector asked to stop.
	phaseGracefulExit
)

type phaseResult struct {
	outcome    phaseOutcome
	exitReason string // set for phaseGracefulExit
}

// runPhase executes the invocation loop for one (sprint, phase) pair.
// Iteration order: breaker -> rate limiter -> completion detector ->
// invoke -> classify -> feed breaker and detector -> phase predicate.
func (e *Engine) runPhase(ctx context.Context, sprint int, phase string) (phaseResult, error) {
	role := config.RoleFor(phase)
	ceiling := e.cfg.LoopCeilingFor(phase)

	st, err := e.updateState(func(s *models.SprintState) {
		s.Phase = phase
		s.LoopCount = 0
	})
	if err != nil {
		return phaseResult{}, err
	}
	sessionID := st.SessionID

	e.infof("sprint %d: entering %s phase (ceiling %d loops)", sprint, phase, ceiling)

	for loop := 1; loop <= ceiling; loop++ {
		if err := ctx.Err(); err != nil {
			return phaseResult{}, err
		}

		halt, err := e.breaker.ShouldHalt()
		if err != nil {
			return phaseResult{}, err
		}
		if halt {
			return phaseResult{outcome: phaseHalted}, nil
		}

		ok, err := e.limiter.CanInvoke()
		if err != nil {
			return phaseResult{}, err
		}
		if !ok {
			if err := e.limiter.WaitForReset(ctx); err != nil {
				return phaseResult{}, err
			}
		}

		reason, exit, err := e.detector.ShouldExitGracefully()
		if err != nil {
			return phaseResult{}, err
		}
		if exit {
			return phaseResult{outcome: phaseGracefulExit, exitReason: reason}, nil
		}

		if _, err := e.updateState(func(s *models.SprintState) { s.LoopCount = loop }); err != nil {
			return phaseResult{}, err
		}

		res, err := e.invoke(ctx, sessionID, sprint, phase, role, loop)
		if err != nil {
			return phaseResult{}, err
		}

		if res.Classification == worker.ClassRateLimited {
			// Quota exhaustion is never an error and never stagnation;
			// block until the next window and try again.
			e.infof("worker reported rate limiting; backing off until quota reset")
			if err := e.limiter.WaitForReset(ctx); err != nil {
				return phaseResult{}, err
			}
			continue
		}

		opened, err := e.breaker.RecordOutcome(loop, res.FilesChanged, res.Failed(), len(res.Output))
		if err != nil {
			return phaseResult{}, err
		}
		if opened {
			e.warnf("circuit breaker opened during %s loop %d", phase, loop)
		}

		if res.Classification == worker.ClassSuccess {
			if err := e.digestOutput(sprint, loop, res); err != nil {
				return phaseResult{}, err
			}
		} else {
			e.warnf("%s invocation failed (%s); retrying after %s",
				phase, res.Classification, e.cfg.RetryDelay)
			if res.Classification == worker.ClassError {
				e.sleep(e.cfg.RetryDelay)
			}
		}

		done, err := e.phaseComplete(phase, sprint)
		if err != nil {
			return phaseResult{}, err
		}
		if done {
			e.infof("sprint %d: %s phase complete after %d loop(s)", sprint, phase, loop)
			return phaseResult{outcome: phaseCompleted}, nil
		}
	}

	e.warnf("sprint %d: %s phase hit its loop ceiling (%d) without completing; moving on",
		sprint, phase, ceiling)
	return phaseResult{outcome: phaseCeiling}, nil
}

// invoke renders the prompt, counts the call against the quota, runs the
// worker, and records the ledger row.
func (e *Engine) invoke(ctx context.Context, sessionID string, sprint int, phase, role string, loop int) (*worker.Result, error) {
	prompt, err := prompts.Render(phase, prompts.Data{
		Role:          role,
		Sprint:        sprint,
		Loop:          loop,
		ChecklistPath: e.cfg.ChecklistPath,
		PlanPath:      store.PlanPath(e.cfg.SprintDocDir, sprint),
		ReviewPath:    store.ReviewPath(e.cfg.SprintDocDir, sprint),
	})
	if err != nil {
		return nil, err
	}

	if err := e.limiter.RecordInvocation(); err != nil {
		return nil, err
	}

	started := nowUTC()
	res, err := e.runner.Invoke(ctx, worker.Request{
		Role:    role,
		Phase:   phase,
		Sprint:  sprint,
		Loop:    loop,
		Prompt:  prompt,
		Timeout: e.cfg.TimeoutFor(role),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke worker: %w", err)
	}

	if e.recorder != nil {
		if err := e.recorder.Record(ctx, ledger.Invocation{
			ID:             uuid.NewString(),
			SessionID:      sessionID,
			Sprint:         sprint,
			Phase:          phase,
			Role:           role,
			Classification: res.Classification,
			FilesChanged:   res.FilesChanged,
			OutputBytes:    len(res.Output),
			Duration:       res.Duration,
			StartedAt:      started,
		}); err != nil {
			// The ledger is an audit trail; losing a row must not stop
			// the run.
			e.warnf("failed to record invocation in ledger: %v", err)
		}
	}
	return res, nil
}

// digestOutput feeds one successful invocation's output into the
// completion detector.
func (e *Engine) digestOutput(sprint, loop int, res *worker.Result) error {
	block, present := status.Parse(res.Output)
	switch {
	case !present:
		// Success without a status block is a soft idle signal, not an
		// error; ground truth decides phase completion.
		if err := e.detector.RecordIdleLoop(sprint, loop, "no status block"); err != nil {
			return err
		}
	case res.FilesChanged == 0:
		if err := e.detector.RecordIdleLoop(sprint, loop, "no file changes"); err != nil {
			return err
		}
	}
	if present && block.ProjectComplete {
		if err := e.detector.RecordDoneSignal(sprint, loop, "status block project_complete"); err != nil {
			return err
		}
	}
	return e.detector.ScanOutput(sprint, loop, res.Output)
}

// phaseComplete is the phase-specific completion predicate, derived from
// ground truth rather than worker claims.
func (e *Engine) phaseComplete(phase string, sprint int) (bool, error) {
	switch phase {
	case models.PhaseInitialization:
		tasks, err := e.store.LoadTaskList()
		if err != nil {
			return false, err
		}
		return len(tasks.Tasks) > 0, nil

	case models.PhasePlanning:
		return store.DocumentExists(e.planDocPath(sprint)), nil

	case models.PhaseImplementation:
		tasks, err := e.store.LoadTaskList()
		if err != nil {
			return false, err
		}
		pending := tasks.CountInSprint(sprint,
			models.TaskStatusReady, models.TaskStatusInProgress)
		return pending == 0, nil

	case models.PhaseQA:
		tasks, err := e.store.LoadTaskList()
		if err != nil {
			return false, err
		}
		undispositioned := tasks.CountInSprint(sprint,
			models.TaskStatusImplemented, models.TaskStatusQAInProgress)
		return undispositioned == 0, nil

	case models.PhaseReview:
		return store.DocumentExists(e.reviewDocPath(sprint)), nil
	}
	return false, fmt.Errorf("unknown phase %q", phase)
}
