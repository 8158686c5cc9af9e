// Package worker invokes the external generative worker process.
//
// The controller does not assume the worker behaves correctly; each
// invocation runs under a hard timeout, its combined output is captured to a
// log file, and the outcome is classified from enumerated patterns. The
// classification contract with the engine is {success, timeout,
// rate_limited, error}.
package worker

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// Classification constants for invocation outcomes.
const (
	ClassSuccess     = "success"
	ClassTimeout     = "timeout"
	ClassRateLimited = "rate_limited"
	ClassError       = "error"
)

// Request describes one bounded invocation.
type Request struct {
	Role    string
	Phase   string
	Sprint  int
	Loop    int
	Prompt  string
	Timeout time.Duration
}

// Result is the classified outcome of one invocation.
type Result struct {
	Classification string
	Output         string
	FilesChanged   int
	Duration       time.Duration
	LogPath        string
}

// Failed reports whether the result counts as a failure for stagnation
// tracking. Rate-limited results are quota exhaustion, not failure.
func (r *Result) Failed() bool {
	return r.Classification == ClassTimeout || r.Classification == ClassError
}

// Runner executes the configured worker command in the project directory.
type Runner struct {
	command string
	args    []string
	dir     string
	logDir  string
	changes ChangeCounter
}

// NewRunner creates a runner for the given worker command. Output logs are
// written under logDir. changes may be nil, in which case file changes are
// measured from git status.
func NewRunner(command string, args []string, dir, logDir string, changes ChangeCounter) *Runner {
	if changes == nil {
		changes = GitChanges{Dir: dir}
	}
	return &Runner{
		command: command,
		args:    args,
		dir:     dir,
		logDir:  logDir,
		changes: changes,
	}
}

// Invoke runs the worker with the rendered prompt under the request's
// timeout. The returned error covers controller-side failures only (log
// directory not writable); worker misbehavior is reported through the
// result classification, never as an error.
func (r *Runner) Invoke(ctx context.Context, req Request) (*Result, error) {
	before, err := r.changes.Snapshot()
	if err != nil {
		before = nil
	}

	cctx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	args := append(append([]string{}, r.args...), req.Prompt)
	cmd := exec.CommandContext(cctx, r.command, args...)
	cmd.Dir = r.dir

	start := time.Now()
	output, runErr := cmd.CombinedOutput()
	duration := time.Since(start)

	logPath, err := r.writeLog(req, output)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Output:   string(output),
		Duration: duration,
		LogPath:  logPath,
	}
	res.Classification = classify(cctx, runErr, res.Output)

	after, err := r.changes.Snapshot()
	if err == nil && before != nil {
		res.FilesChanged = CountChanged(before, after)
	}
	return res, nil
}

// writeLog captures combined output to a per-invocation log file.
func (r *Runner) writeLog(req Request, output []byte) (string, error) {
	if err := os.MkdirAll(r.logDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create log dir: %w", err)
	}
	name := fmt.Sprintf("sprint%d-%s-loop%d-%s.log",
		req.Sprint, req.Phase, req.Loop, time.Now().UTC().Format("20060102T150405"))
	path := filepath.Join(r.logDir, name)
	if err := os.WriteFile(path, output, 0644); err != nil {
		return "", fmt.Errorf("failed to write invocation log: %w", err)
	}
	return path, nil
}

// classify maps the process outcome to a classification.
// Priority: timeout > rate-limited > error > success. Rate-limit-shaped
// output wins over a generic nonzero exit because some worker CLIs exit
// nonzero and others exit zero when throttled.
func classify(ctx context.Context, runErr error, output string) string {
	if ctx.Err() == context.DeadlineExceeded {
		return ClassTimeout
	}
	if looksRateLimited(output) {
		return ClassRateLimited
	}
	if runErr != nil {
		return ClassError
	}
	return ClassSuccess
}
