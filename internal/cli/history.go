package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/foreman/internal/ledger"
)

// HistoryCmd lists recent worker invocations from the ledger.
func HistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent worker invocations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := projectDir(cmd)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")

			led, err := ledger.Open(ledgerPath(dir))
			if err != nil {
				return err
			}
			defer led.Close()

			invocations, err := led.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(invocations) == 0 {
				fmt.Println("No invocations recorded")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tSPRINT\tPHASE\tROLE\tRESULT\tFILES\tDURATION")
			for _, inv := range invocations {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%d\t%s\n",
					inv.StartedAt.Local().Format("01-02 15:04:05"),
					inv.Sprint, inv.Phase, inv.Role, inv.Classification,
					inv.FilesChanged, inv.Duration.Round(time.Second),
				)
			}
			w.Flush()
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "number of invocations to show")
	return cmd
}
