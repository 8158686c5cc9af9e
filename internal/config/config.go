// Package config loads the foreman run configuration.
// Configuration is read once per run from .foreman/config.yaml; it is not
// hot-reloaded. Missing files yield the defaults.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Role constants. Each phase is driven by one role.
const (
	RoleArchitect = "architect" // initialization
	RolePlanner   = "planner"   // planning
	RoleBuilder   = "builder"   // implementation
	RoleQA        = "qa"        // qa
	RoleReviewer  = "reviewer"  // review
)

// Config is the full controller configuration surface.
type Config struct {
	// Worker invocation
	WorkerCommand  string        `mapstructure:"worker_command"`
	WorkerArgs     []string      `mapstructure:"worker_args"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
	RoleTimeouts   map[string]time.Duration

	// Ceilings
	SprintCeiling     int `mapstructure:"sprint_ceiling"`
	ReworkCeiling     int `mapstructure:"rework_ceiling"`
	HourlyCeiling     int `mapstructure:"hourly_ceiling"`
	FailureCeiling    int `mapstructure:"failure_ceiling"`
	NoProgressCeiling int `mapstructure:"no_progress_ceiling"`
	PhaseLoopCeilings map[string]int

	// Back-pressure delay after an unclassified worker error
	RetryDelay time.Duration `mapstructure:"retry_delay"`

	// Documents
	ChecklistPath string `mapstructure:"checklist_path"`
	SprintDocDir  string `mapstructure:"sprint_doc_dir"`
}

// DefaultPhaseLoopCeilings bound the invocation loop per phase.
func DefaultPhaseLoopCeilings() map[string]int {
	return map[string]int{
		"initialization": 3,
		"planning":       5,
		"implementation": 20,
		"qa":             10,
		"review":         5,
	}
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		WorkerCommand:     "claude",
		WorkerArgs:        []string{"-p"},
		DefaultTimeout:    15 * time.Minute,
		RoleTimeouts:      map[string]time.Duration{},
		SprintCeiling:     10,
		ReworkCeiling:     3,
		HourlyCeiling:     30,
		FailureCeiling:    3,
		NoProgressCeiling: 5,
		PhaseLoopCeilings: DefaultPhaseLoopCeilings(),
		RetryDelay:        30 * time.Second,
		ChecklistPath:     "FIX_PLAN.md",
		SprintDocDir:      filepath.Join(".foreman", "sprints"),
	}
}

// Load reads .foreman/config.yaml from dir. A missing file returns the
// defaults; a malformed file returns an error.
func Load(dir string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(dir, ".foreman"))

	v.SetDefault("worker_command", cfg.WorkerCommand)
	v.SetDefault("worker_args", cfg.WorkerArgs)
	v.SetDefault("default_timeout", cfg.DefaultTimeout.String())
	v.SetDefault("sprint_ceiling", cfg.SprintCeiling)
	v.SetDefault("rework_ceiling", cfg.ReworkCeiling)
	v.SetDefault("hourly_ceiling", cfg.HourlyCeiling)
	v.SetDefault("failure_ceiling", cfg.FailureCeiling)
	v.SetDefault("no_progress_ceiling", cfg.NoProgressCeiling)
	v.SetDefault("retry_delay", cfg.RetryDelay.String())
	v.SetDefault("checklist_path", cfg.ChecklistPath)
	v.SetDefault("sprint_doc_dir", cfg.SprintDocDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.WorkerCommand = v.GetString("worker_command")
	cfg.WorkerArgs = v.GetStringSlice("worker_args")
	cfg.DefaultTimeout = v.GetDuration("default_timeout")
	cfg.SprintCeiling = v.GetInt("sprint_ceiling")
	cfg.ReworkCeiling = v.GetInt("rework_ceiling")
	cfg.HourlyCeiling = v.GetInt("hourly_ceiling")
	cfg.FailureCeiling = v.GetInt("failure_ceiling")
	cfg.NoProgressCeiling = v.GetInt("no_progress_ceiling")
	cfg.RetryDelay = v.GetDuration("retry_delay")
	cfg.ChecklistPath = v.GetString("checklist_path")
	cfg.SprintDocDir = v.GetString("sprint_doc_dir")

	for phase, ceiling := range v.GetStringMap("phase_loop_ceilings") {
		if n, ok := toInt(ceiling); ok && n > 0 {
			cfg.PhaseLoopCeilings[phase] = n
		}
	}
	for role, timeout := range v.GetStringMapString("role_timeouts") {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to parse role_timeouts.%s: %w", role, err)
		}
		cfg.RoleTimeouts[role] = d
	}

	return cfg, nil
}

// TimeoutFor returns the invocation timeout for a role, falling back to the
// default when no per-role override is configured.
func (c *Config) TimeoutFor(role string) time.Duration {
	if d, ok := c.RoleTimeouts[role]; ok && d > 0 {
		return d
	}
	return c.DefaultTimeout
}

// LoopCeilingFor returns the invocation-loop ceiling for a phase.
func (c *Config) LoopCeilingFor(phase string) int {
	if n, ok := c.PhaseLoopCeilings[phase]; ok && n > 0 {
		return n
	}
	return DefaultPhaseLoopCeilings()[phase]
}

// RoleFor maps a phase to the role that drives it.
func RoleFor(phase string) string {
	switch phase {
	case "initialization":
		return RoleArchitect
	case "planning":
		return RolePlanner
	case "implementation":
		return RoleBuilder
	case "qa":
		return RoleQA
	case "review":
		return RoleReviewer
	default:
		return RoleBuilder
	}
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
