package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// defaultConfigYAML is written by `foreman init` so operators have the
// knobs in front of them instead of hunting for defaults.
const defaultConfigYAML = `# foreman configuration, read once per run.
worker_command: claude
worker_args: ["-p"]
default_timeout: 15m

sprint_ceiling: 10
rework_ceiling: 3
hourly_ceiling: 30
failure_ceiling: 3
no_progress_ceiling: 5
retry_delay: 30s

checklist_path: FIX_PLAN.md
sprint_doc_dir: .foreman/sprints

phase_loop_ceilings:
  initialization: 3
  planning: 5
  implementation: 20
  qa: 10
  review: 5

# role_timeouts:
#   builder: 20m
#   qa: 10m
`

// InitCmd scaffolds the .foreman directory.
func InitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a project directory for foreman",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := projectDir(cmd)
			if err != nil {
				return err
			}

			for _, sub := range []string{"state", "logs", "sprints"} {
				path := filepath.Join(dir, ".foreman", sub)
				if err := os.MkdirAll(path, 0755); err != nil {
					return fmt.Errorf("failed to create %s: %w", path, err)
				}
			}

			cfgPath := filepath.Join(dir, ".foreman", "config.yaml")
			if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
				if err := os.WriteFile(cfgPath, []byte(defaultConfigYAML), 0644); err != nil {
					return fmt.Errorf("failed to write config: %w", err)
				}
				fmt.Printf("✓ Wrote %s\n", cfgPath)
			} else {
				fmt.Printf("  %s already exists, leaving it alone\n", cfgPath)
			}

			fmt.Printf("✓ Initialized foreman in %s\n", dir)
			fmt.Println("  Next: review .foreman/config.yaml, then run `foreman run`")
			return nil
		},
	}
}
