package completion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/example/foreman/internal/models"
	"github.com/example/foreman/internal/store"
)

type fixture struct {
	dir      string
	store    *store.Store
	detector *Detector
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	st := store.New(dir, nil)
	return &fixture{
		dir:      dir,
		store:    st,
		detector: New(st, filepath.Join(dir, "FIX_PLAN.md")),
	}
}

func (f *fixture) saveTasks(t *testing.T, statuses ...string) {
	t.Helper()
	tl := &models.TaskList{NextID: len(statuses) + 1}
	for i, status := range statuses {
		tl.Tasks = append(tl.Tasks, models.Task{
			ID: i + 1, Title: "task", Kind: models.TaskKindFeature,
			Priority: 2, Status: status,
		})
	}
	if err := f.store.SaveTaskList(tl); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) writeChecklist(t *testing.T, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(f.dir, "FIX_PLAN.md"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// Scenario: all tasks done, no checklist document.
func TestDetector_BacklogComplete(t *testing.T) {
	f := newFixture(t)
	f.saveTasks(t, models.TaskStatusDone, models.TaskStatusDone, models.TaskStatusDone)

	reason, exit, err := f.detector.ShouldExitGracefully()
	if err != nil {
		t.Fatal(err)
	}
	if !exit || reason != ReasonBacklogComplete {
		t.Errorf("ShouldExitGracefully() = (%q, %v), want (%q, true)", reason, exit, ReasonBacklogComplete)
	}

	complete, err := f.detector.IsProjectComplete()
	if err != nil {
		t.Fatal(err)
	}
	if !complete {
		t.Error("IsProjectComplete() = false, want true")
	}
}

// Hard signals win regardless of soft-signal state.
func TestDetector_BacklogCompleteIgnoresSoftState(t *testing.T) {
	f := newFixture(t)
	f.saveTasks(t, models.TaskStatusDone)
	// No soft signals recorded at all; still exits on ground truth.
	reason, exit, err := f.detector.ShouldExitGracefully()
	if err != nil {
		t.Fatal(err)
	}
	if !exit || reason != ReasonBacklogComplete {
		t.Errorf("got (%q, %v), want (%q, true)", reason, exit, ReasonBacklogComplete)
	}
}

func TestDetector_OpenCriticalBugBlocksCompletion(t *testing.T) {
	f := newFixture(t)
	tl := &models.TaskList{Tasks: []models.Task{
		{ID: 1, Status: models.TaskStatusDone, Kind: models.TaskKindFeature, Priority: 2},
		{ID: 2, Status: models.TaskStatusReady, Kind: models.TaskKindBug, Priority: 1},
	}}
	if err := f.store.SaveTaskList(tl); err != nil {
		t.Fatal(err)
	}

	if _, exit, _ := f.detector.ShouldExitGracefully(); exit {
		t.Error("exited gracefully with an open priority-1 bug")
	}
	if complete, _ := f.detector.IsProjectComplete(); complete {
		t.Error("IsProjectComplete() = true with an open priority-1 bug")
	}
}

func TestDetector_ChecklistOverridesBacklogComplete(t *testing.T) {
	f := newFixture(t)
	f.saveTasks(t, models.TaskStatusDone)
	f.writeChecklist(t, "- [x] fixed\n- [ ] still broken\n")

	reason, exit, err := f.detector.ShouldExitGracefully()
	if err != nil {
		t.Fatal(err)
	}
	if exit {
		t.Errorf("ShouldExitGracefully() = (%q, true), want continue: checklist has remaining work", reason)
	}
	if complete, _ := f.detector.IsProjectComplete(); complete {
		t.Error("IsProjectComplete() = true with unchecked checklist items")
	}
}

func TestDetector_FixPlanComplete(t *testing.T) {
	f := newFixture(t)
	f.saveTasks(t, models.TaskStatusInProgress)
	f.writeChecklist(t, "- [x] one\n- [x] two\n")

	reason, exit, err := f.detector.ShouldExitGracefully()
	if err != nil {
		t.Fatal(err)
	}
	if !exit || reason != ReasonFixPlanComplete {
		t.Errorf("got (%q, %v), want (%q, true)", reason, exit, ReasonFixPlanComplete)
	}
}

// Scenario: checklist with unchecked items suppresses soft signals even
// when their thresholds are exceeded.
func TestDetector_UncheckedChecklistSuppressesSoftSignals(t *testing.T) {
	f := newFixture(t)
	f.saveTasks(t, models.TaskStatusInProgress)
	f.writeChecklist(t, "- [x] one\n- [x] two\n- [ ] three\n")

	for i := 0; i < 3; i++ {
		if err := f.detector.RecordDoneSignal(1, i, "claimed done"); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 6; i++ {
		if err := f.detector.RecordIdleLoop(1, i, ""); err != nil {
			t.Fatal(err)
		}
	}

	reason, exit, err := f.detector.ShouldExitGracefully()
	if err != nil {
		t.Fatal(err)
	}
	if exit {
		t.Errorf("soft signal %q fired despite unchecked checklist items", reason)
	}
}

func TestDetector_SoftSignalThresholds(t *testing.T) {
	tests := []struct {
		name   string
		record func(d *Detector, n int) error
		count  int
		want   string
	}{
		{
			name:   "three done signals",
			record: func(d *Detector, n int) error { return d.RecordDoneSignal(1, n, "done") },
			count:  3,
			want:   ReasonDoneSignals,
		},
		{
			name:   "five idle loops",
			record: func(d *Detector, n int) error { return d.RecordIdleLoop(1, n, "") },
			count:  5,
			want:   ReasonIdleLoops,
		},
		{
			name:   "five test-only loops",
			record: func(d *Detector, n int) error { return d.RecordTestOnlyLoop(1, n, "") },
			count:  5,
			want:   ReasonTestSaturation,
		},
		{
			name:   "three completion indicators",
			record: func(d *Detector, n int) error { return d.RecordCompletionIndicator(1, n, "") },
			count:  3,
			want:   ReasonCompletionIndicators,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.saveTasks(t, models.TaskStatusInProgress)

			// One below threshold: continue.
			for i := 0; i < tt.count-1; i++ {
				if err := tt.record(f.detector, i); err != nil {
					t.Fatal(err)
				}
			}
			if reason, exit, _ := f.detector.ShouldExitGracefully(); exit {
				t.Fatalf("fired %q below threshold", reason)
			}

			// At threshold: fire.
			if err := tt.record(f.detector, tt.count); err != nil {
				t.Fatal(err)
			}
			reason, exit, err := f.detector.ShouldExitGracefully()
			if err != nil {
				t.Fatal(err)
			}
			if !exit || reason != tt.want {
				t.Errorf("got (%q, %v), want (%q, true)", reason, exit, tt.want)
			}
		})
	}
}

func TestDetector_ScanOutput(t *testing.T) {
	tests := []struct {
		name       string
		output     string
		done       int
		indicators int
		testOnly   int
	}{
		{
			name:   "explicit done claim",
			output: "All tasks complete. The backlog is empty.",
			done:   1,
		},
		{
			name:       "completion indicator",
			output:     "All tests passing after the last change.",
			indicators: 1,
			// "all tests passing" also matches test activity, and the
			// sentence has no implementation verb.
			testOnly: 1,
		},
		{
			name:     "test-only loop",
			output:   "Ran go test ./... and the test suite is green.",
			testOnly: 1,
		},
		{
			name:   "tests plus implementation is not test-only",
			output: "Implemented the parser, then ran go test ./...; tests pass.",
		},
		{
			name:   "sprint-level claim is not a done claim",
			output: "Sprint 1 complete, moving to review.",
		},
		{
			name:   "plain progress output",
			output: "Working on the config loader.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if err := f.detector.ScanOutput(1, 1, tt.output); err != nil {
				t.Fatal(err)
			}
			es, err := f.detector.Signals()
			if err != nil {
				t.Fatal(err)
			}
			if es.DoneSignals.Len() != tt.done {
				t.Errorf("done signals = %d, want %d", es.DoneSignals.Len(), tt.done)
			}
			if es.CompletionIndicators.Len() != tt.indicators {
				t.Errorf("indicators = %d, want %d", es.CompletionIndicators.Len(), tt.indicators)
			}
			if es.TestOnlyLoops.Len() != tt.testOnly {
				t.Errorf("test-only loops = %d, want %d", es.TestOnlyLoops.Len(), tt.testOnly)
			}
		})
	}
}

func TestDetector_ResetSignals(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		if err := f.detector.RecordIdleLoop(1, i, ""); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.detector.ResetSignals(); err != nil {
		t.Fatal(err)
	}
	es, err := f.detector.Signals()
	if err != nil {
		t.Fatal(err)
	}
	if es.IdleLoops.Len() != 0 {
		t.Errorf("IdleLoops.Len() = %d after reset, want 0", es.IdleLoops.Len())
	}
}

func TestDetector_EmptyBacklogIsNotComplete(t *testing.T) {
	f := newFixture(t)
	// No task list saved at all.
	if reason, exit, _ := f.detector.ShouldExitGracefully(); exit {
		t.Errorf("empty backlog fired %q, want continue", reason)
	}
	if complete, _ := f.detector.IsProjectComplete(); complete {
		t.Error("IsProjectComplete() = true for empty backlog")
	}
}
