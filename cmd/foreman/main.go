package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/foreman/internal/cli"
	"github.com/example/foreman/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "foreman",
		Short:   "foreman - supervisor for generative development workflows",
		Version: version.String(),
		Long: `foreman drives a multi-phase development workflow by repeatedly invoking
an external generative worker, watching its output for progress, and deciding
when to continue, retry, back off, or stop.

Exit codes for 'foreman run': 0 normal stop, 1 error, 10 circuit breaker
opened, 20 project complete, 21 sprint ceiling reached.`,
	}

	rootCmd.PersistentFlags().String("dir", ".", "project directory")

	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.RunCmd())
	rootCmd.AddCommand(cli.StatusCmd())
	rootCmd.AddCommand(cli.TasksCmd())
	rootCmd.AddCommand(cli.BreakerCmd())
	rootCmd.AddCommand(cli.HistoryCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
