// Package engine drives the layered control loop: project -> sprint ->
// phase -> invocation. It is single-threaded and cooperative; exactly one
// worker invocation is in flight at a time, and every decision about
// continuing, retrying, backing off, or stopping is made here.
package engine

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fatih/color"

	"github.com/example/foreman/internal/config"
	"github.com/example/foreman/internal/core/breaker"
	"github.com/example/foreman/internal/core/completion"
	"github.com/example/foreman/internal/core/ratelimit"
	"github.com/example/foreman/internal/ledger"
	"github.com/example/foreman/internal/models"
	"github.com/example/foreman/internal/store"
	"github.com/example/foreman/internal/worker"
)

// ExitCode is the process exit code contract with calling automation.
// These values are stable.
type ExitCode int

const (
	ExitNormal          ExitCode = 0
	ExitError           ExitCode = 1
	ExitCircuitOpen     ExitCode = 10
	ExitProjectComplete ExitCode = 20
	ExitSprintCeiling   ExitCode = 21
)

// WorkerRunner invokes the external worker. Defined here so tests can
// substitute a scripted worker.
type WorkerRunner interface {
	Invoke(ctx context.Context, req worker.Request) (*worker.Result, error)
}

// InvocationRecorder receives one ledger row per invocation.
type InvocationRecorder interface {
	Record(ctx context.Context, inv ledger.Invocation) error
}

// Options collects the engine's collaborators. Config, Store, Limiter,
// Breaker, Detector and Runner are required; Recorder and Out may be nil.
type Options struct {
	Config   *config.Config
	Store    *store.Store
	Limiter  *ratelimit.Limiter
	Breaker  *breaker.Breaker
	Detector *completion.Detector
	Runner   WorkerRunner
	Recorder InvocationRecorder
	Out      io.Writer

	// Sleep is the back-pressure delay hook; nil means time.Sleep.
	Sleep func(time.Duration)
}

// Engine is the sprint execution controller.
type Engine struct {
	cfg      *config.Config
	store    *store.Store
	limiter  *ratelimit.Limiter
	breaker  *breaker.Breaker
	detector *completion.Detector
	runner   WorkerRunner
	recorder InvocationRecorder
	out      io.Writer
	sleep    func(time.Duration)
}

// New creates an engine from its collaborators.
func New(opts Options) *Engine {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Engine{
		cfg:      opts.Config,
		store:    opts.Store,
		limiter:  opts.Limiter,
		breaker:  opts.Breaker,
		detector: opts.Detector,
		runner:   opts.Runner,
		recorder: opts.Recorder,
		out:      out,
		sleep:    sleep,
	}
}

// updateState applies a read-modify-write on the sprint-state document.
func (e *Engine) updateState(mutate func(*models.SprintState)) (*models.SprintState, error) {
	st, err := e.store.LoadSprintState()
	if err != nil {
		return nil, err
	}
	mutate(st)
	if err := e.store.SaveSprintState(st); err != nil {
		return nil, err
	}
	return st, nil
}

// planDocPath returns the absolute sprint-plan path for predicates.
func (e *Engine) planDocPath(sprint int) string {
	return filepath.Join(e.store.Root(), store.PlanPath(e.cfg.SprintDocDir, sprint))
}

// reviewDocPath returns the absolute sprint-review path for predicates.
func (e *Engine) reviewDocPath(sprint int) string {
	return filepath.Join(e.store.Root(), store.ReviewPath(e.cfg.SprintDocDir, sprint))
}

func (e *Engine) infof(format string, args ...interface{}) {
	fmt.Fprintf(e.out, format+"\n", args...)
}

func (e *Engine) warnf(format string, args ...interface{}) {
	fmt.Fprintf(e.out, "%s %s\n", color.New(color.FgYellow).Sprint("warning:"), fmt.Sprintf(format, args...))
}
