package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// TasksCmd lists the task-list document. The controller never mutates
// tasks; this is a read-only view of what the worker maintains.
func TasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List the task backlog",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := projectDir(cmd)
			if err != nil {
				return err
			}
			st := openStore(dir)
			tasks, err := st.LoadTaskList()
			if err != nil {
				return err
			}

			statusFilter, _ := cmd.Flags().GetString("status")
			sprintFilter, _ := cmd.Flags().GetInt("sprint")

			if len(tasks.Tasks) == 0 {
				fmt.Println("No tasks found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tKIND\tPRI\tEST\tSPRINT\tSTATUS")
			fmt.Fprintln(w, "--\t-----\t----\t---\t---\t------\t------")
			for _, t := range tasks.Tasks {
				if statusFilter != "" && t.Status != statusFilter {
					continue
				}
				sprint := "-"
				if t.Sprint != nil {
					sprint = fmt.Sprintf("%d", *t.Sprint)
					if sprintFilter > 0 && *t.Sprint != sprintFilter {
						continue
					}
				} else if sprintFilter > 0 {
					continue
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\t%s\n",
					t.ID, t.Title, t.Kind, t.Priority, t.Estimate, sprint, t.Status)
			}
			w.Flush()
			return nil
		},
	}
	cmd.Flags().String("status", "", "filter by status")
	cmd.Flags().Int("sprint", 0, "filter by sprint")
	return cmd
}
