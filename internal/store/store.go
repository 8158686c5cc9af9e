// Package store persists the controller's state documents.
//
// Every document lives under <root>/.foreman/state and every write is a
// whole-document replace through a temp-file rename, so a reader in the same
// process never observes a half-written document. A corrupt or missing
// document is recreated with zero usage rather than surfaced as an error.
//
// The store is an explicit handle passed into every component constructor;
// there is no ambient/static access to the state directory. A single
// controller process per project directory is assumed; concurrent
// controllers against the same directory are not supported.
package store

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/example/foreman/internal/models"
)

// Document file names under the state directory.
const (
	taskListFile    = "tasks.json"
	sprintStateFile = "sprint.json"
	breakerFile     = "breaker.json"
	limiterFile     = "limiter.json"
	signalsFile     = "signals.json"
)

// Store is a handle on one project's state directory.
type Store struct {
	root     string
	stateDir string
	warnings io.Writer
}

// New creates a store rooted at the given project directory. Warnings
// (corrupt documents being recreated) are written to warn; pass nil to
// discard them.
func New(root string, warn io.Writer) *Store {
	if warn == nil {
		warn = io.Discard
	}
	return &Store{
		root:     root,
		stateDir: filepath.Join(root, ".foreman", "state"),
		warnings: warn,
	}
}

// Root returns the project directory this store is rooted at.
func (s *Store) Root() string {
	return s.root
}

// StateDir returns the state directory path.
func (s *Store) StateDir() string {
	return s.stateDir
}

// LoadTaskList reads the task-list document. Aggregate counts are rebuilt
// on load so stale persisted counts never mislead callers.
func (s *Store) LoadTaskList() (*models.TaskList, error) {
	tl := &models.TaskList{NextID: 1}
	if err := s.load(taskListFile, tl); err != nil {
		return nil, err
	}
	if tl.NextID < 1 {
		tl.NextID = 1
	}
	tl.Recount()
	return tl, nil
}

// SaveTaskList replaces the task-list document.
func (s *Store) SaveTaskList(tl *models.TaskList) error {
	tl.Recount()
	return s.save(taskListFile, tl)
}

// LoadSprintState reads the sprint-state document.
func (s *Store) LoadSprintState() (*models.SprintState, error) {
	st := &models.SprintState{}
	if err := s.load(sprintStateFile, st); err != nil {
		return nil, err
	}
	return st, nil
}

// SaveSprintState replaces the sprint-state document.
func (s *Store) SaveSprintState(st *models.SprintState) error {
	st.UpdatedAt = time.Now().UTC()
	return s.save(sprintStateFile, st)
}

// LoadBreakerState reads the circuit-breaker document.
func (s *Store) LoadBreakerState() (*models.BreakerState, error) {
	bs := models.NewBreakerState()
	if err := s.load(breakerFile, bs); err != nil {
		return nil, err
	}
	bs.Normalize()
	return bs, nil
}

// SaveBreakerState replaces the circuit-breaker document.
func (s *Store) SaveBreakerState(bs *models.BreakerState) error {
	bs.UpdatedAt = time.Now().UTC()
	return s.save(breakerFile, bs)
}

// LoadLimiterState reads the rate-limiter document.
func (s *Store) LoadLimiterState() (*models.LimiterState, error) {
	ls := &models.LimiterState{}
	if err := s.load(limiterFile, ls); err != nil {
		return nil, err
	}
	return ls, nil
}

// SaveLimiterState replaces the rate-limiter document.
func (s *Store) SaveLimiterState(ls *models.LimiterState) error {
	ls.UpdatedAt = time.Now().UTC()
	return s.save(limiterFile, ls)
}

// LoadExitSignals reads the exit-signals document.
func (s *Store) LoadExitSignals() (*models.ExitSignals, error) {
	es := models.NewExitSignals()
	if err := s.load(signalsFile, es); err != nil {
		return nil, err
	}
	es.Normalize()
	return es, nil
}

// SaveExitSignals replaces the exit-signals document.
func (s *Store) SaveExitSignals(es *models.ExitSignals) error {
	es.UpdatedAt = time.Now().UTC()
	return s.save(signalsFile, es)
}

// load unmarshals the named document into out. A missing file leaves out
// at its zero value; a corrupt file is logged and recreated.
func (s *Store) load(name string, out interface{}) error {
	path := filepath.Join(s.stateDir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		fmt.Fprintf(s.warnings, "warning: %s is corrupt, recreating with zero usage: %v\n", name, err)
		return s.save(name, out)
	}
	return nil
}

// save marshals doc and replaces the named document atomically for this
// process: write to a temp file in the same directory, then rename.
func (s *Store) save(name string, doc interface{}) error {
	if err := os.MkdirAll(s.stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.stateDir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, filepath.Join(s.stateDir, name)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}
