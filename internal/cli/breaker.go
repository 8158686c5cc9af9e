package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/foreman/internal/core/breaker"
)

// BreakerCmd manages the circuit breaker. An open breaker stays open until
// reset here (or until a new sprint starts a run).
func BreakerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "breaker",
		Short: "Inspect and reset the circuit breaker",
	}
	cmd.AddCommand(breakerShowCmd(), breakerResetCmd())
	return cmd
}

func breakerShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show breaker state and recent outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := projectDir(cmd)
			if err != nil {
				return err
			}
			st := openStore(dir)
			bs, err := st.LoadBreakerState()
			if err != nil {
				return err
			}

			if bs.Open {
				fmt.Printf("State: %s\n", color.New(color.FgRed).Sprint("OPEN"))
				fmt.Printf("Reason: %s\n", bs.Reason)
				if bs.OpenedAt != nil {
					fmt.Printf("Opened: %s\n", bs.OpenedAt.Format("2006-01-02 15:04:05"))
				}
			} else {
				fmt.Printf("State: %s\n", color.New(color.FgGreen).Sprint("closed"))
			}
			fmt.Printf("Consecutive failures: %d\n", bs.ConsecutiveFailures)
			fmt.Printf("Consecutive no-progress: %d\n", bs.ConsecutiveNoProgress)

			outcomes := bs.Outcomes.Values()
			if len(outcomes) == 0 {
				return nil
			}
			fmt.Println()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "LOOP\tFILES\tERROR\tOUTPUT\tAT")
			for _, o := range outcomes {
				fmt.Fprintf(w, "%d\t%d\t%v\t%d\t%s\n",
					o.Loop, o.FilesChanged, o.HadError, o.OutputLength,
					o.At.Format("15:04:05"))
			}
			w.Flush()
			return nil
		},
	}
}

func breakerResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Close the breaker and zero its counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := projectDir(cmd)
			if err != nil {
				return err
			}
			st := openStore(dir)
			if err := breaker.New(st, 0, 0).Reset("operator reset"); err != nil {
				return err
			}
			fmt.Println("✓ Circuit breaker reset")
			return nil
		},
	}
}
