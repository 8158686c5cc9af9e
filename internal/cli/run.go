package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/foreman/internal/core/breaker"
	"github.com/example/foreman/internal/core/completion"
	"github.com/example/foreman/internal/core/ratelimit"
	"github.com/example/foreman/internal/engine"
	"github.com/example/foreman/internal/ledger"
	"github.com/example/foreman/internal/worker"
)

// RunCmd starts the sprint execution controller.
//
// Exit codes are a stable contract with calling automation:
// 0 normal stop, 1 general error, 10 circuit breaker opened,
// 20 project complete, 21 sprint ceiling reached.
func RunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the sprint execution controller",
		Long: `Run the sprint controller: one initialization phase, then repeated
{planning, implementation/qa rework, review} sprints until the backlog is
resolved, the circuit breaker opens, or the sprint ceiling is reached.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := projectDir(cmd)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(dir)
			if err != nil {
				return err
			}
			if n, _ := cmd.Flags().GetInt("sprint-ceiling"); n > 0 {
				cfg.SprintCeiling = n
			}

			st := openStore(dir)
			led, err := ledger.Open(ledgerPath(dir))
			if err != nil {
				return err
			}

			eng := engine.New(engine.Options{
				Config:   cfg,
				Store:    st,
				Limiter:  ratelimit.New(st, cfg.HourlyCeiling, nil, os.Stderr),
				Breaker:  breaker.New(st, cfg.FailureCeiling, cfg.NoProgressCeiling),
				Detector: completion.New(st, checklistPath(dir, cfg)),
				Runner:   worker.NewRunner(cfg.WorkerCommand, cfg.WorkerArgs, dir, logDir(dir), nil),
				Recorder: led,
				Out:      os.Stdout,
			})

			// The interrupt handler persists a final snapshot through the
			// engine; in-flight worker invocations are not guaranteed to
			// be cleanly aborted.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			code, runErr := eng.Run(ctx)
			stop()
			led.Close()

			if runErr != nil {
				fmt.Fprintln(os.Stderr, runErr)
			}
			os.Exit(int(code))
			return nil
		},
	}
	cmd.Flags().Int("sprint-ceiling", 0, "override the configured sprint ceiling")
	return cmd
}
