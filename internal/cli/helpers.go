// Package cli contains the cobra commands for foreman.
package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/example/foreman/internal/config"
	"github.com/example/foreman/internal/store"
)

// projectDir resolves the --dir persistent flag into an absolute path.
func projectDir(cmd *cobra.Command) (string, error) {
	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = "."
	}
	return filepath.Abs(dir)
}

// openStore creates the state store for a command, warnings to stderr.
func openStore(dir string) *store.Store {
	return store.New(dir, os.Stderr)
}

// loadConfig reads the project configuration.
func loadConfig(dir string) (*config.Config, error) {
	return config.Load(dir)
}

// checklistPath resolves the checklist document relative to the project.
func checklistPath(dir string, cfg *config.Config) string {
	if filepath.IsAbs(cfg.ChecklistPath) {
		return cfg.ChecklistPath
	}
	return filepath.Join(dir, cfg.ChecklistPath)
}

// ledgerPath is the invocation-ledger database location.
func ledgerPath(dir string) string {
	return filepath.Join(dir, ".foreman", "foreman.db")
}

// logDir is where per-invocation worker output is captured.
func logDir(dir string) string {
	return filepath.Join(dir, ".foreman", "logs")
}
