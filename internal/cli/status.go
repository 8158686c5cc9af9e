package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/foreman/internal/models"
	"github.com/example/foreman/internal/store"
)

// StatusCmd shows the controller's persisted state.
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show controller state",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := projectDir(cmd)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(dir)
			if err != nil {
				return err
			}
			st := openStore(dir)

			sprint, err := st.LoadSprintState()
			if err != nil {
				return err
			}
			bs, err := st.LoadBreakerState()
			if err != nil {
				return err
			}
			ls, err := st.LoadLimiterState()
			if err != nil {
				return err
			}
			es, err := st.LoadExitSignals()
			if err != nil {
				return err
			}
			tasks, err := st.LoadTaskList()
			if err != nil {
				return err
			}
			checklist, err := store.ReadChecklist(checklistPath(dir, cfg))
			if err != nil {
				return err
			}

			fmt.Printf("Sprint: %d  Phase: %s  Loop: %d  Rework: %d\n",
				sprint.Sprint, sprint.Phase, sprint.LoopCount, sprint.ReworkCount)
			fmt.Printf("Run status: %s\n", runStatusColored(sprint.Status))
			if sprint.ProjectDone {
				fmt.Println(color.New(color.FgHiGreen).Sprint("Project: DONE"))
			}

			fmt.Println()
			if bs.Open {
				fmt.Printf("Circuit breaker: %s (%s)\n",
					color.New(color.FgRed).Sprint("OPEN"), bs.Reason)
			} else {
				fmt.Printf("Circuit breaker: %s  failures=%d no-progress=%d\n",
					color.New(color.FgGreen).Sprint("closed"),
					bs.ConsecutiveFailures, bs.ConsecutiveNoProgress)
			}
			fmt.Printf("Rate limiter: %d/%d this hour (%d this session)\n",
				ls.CallsThisHour, cfg.HourlyCeiling, ls.SessionCalls)
			fmt.Printf("Exit signals: done=%d idle=%d test-only=%d indicators=%d\n",
				es.DoneSignals.Len(), es.IdleLoops.Len(),
				es.TestOnlyLoops.Len(), es.CompletionIndicators.Len())

			fmt.Println()
			if checklist.Exists {
				fmt.Printf("Checklist: %d checked, %d unchecked\n",
					checklist.Checked, checklist.Unchecked)
			} else {
				fmt.Println("Checklist: none")
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STATUS\tCOUNT")
			for _, status := range []string{
				models.TaskStatusBacklog, models.TaskStatusReady,
				models.TaskStatusInProgress, models.TaskStatusImplemented,
				models.TaskStatusQAInProgress, models.TaskStatusQAPassed,
				models.TaskStatusQAFailed, models.TaskStatusDone,
				models.TaskStatusCancelled,
			} {
				if n := tasks.Counts[status]; n > 0 {
					fmt.Fprintf(w, "%s\t%d\n", status, n)
				}
			}
			w.Flush()
			return nil
		},
	}
}

func runStatusColored(status string) string {
	switch status {
	case models.RunStatusRunning:
		return color.New(color.FgCyan).Sprint(status)
	case models.RunStatusHalted:
		return color.New(color.FgRed).Sprint(status)
	case models.RunStatusComplete:
		return color.New(color.FgGreen).Sprint(status)
	case models.RunStatusInterrupted:
		return color.New(color.FgYellow).Sprint(status)
	}
	return status
}
