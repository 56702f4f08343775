package config

import (
	"fmt"
	"time"
)

// Config is the top-level configuration structure mapping to stepwise.toml.
type Config struct {
	Project ProjectConfig `toml:"project"`
	Run     RunConfig     `toml:"run"`
}

// ProjectConfig maps to the [project] section in stepwise.toml.
type ProjectConfig struct {
	Name       string   `toml:"name"`
	WizardsDir string   `toml:"wizards_dir"`
	Wizards    []string `toml:"wizards"`
}

// RunConfig maps to the [run] section in stepwise.toml.
type RunConfig struct {
	// StepDelay is the delay applied to scripted steps that declare none.
	StepDelay string `toml:"step_delay"`
	// Timeout bounds a whole run; empty means no limit.
	Timeout   string `toml:"timeout"`
	Plain     bool   `toml:"plain"`
	LogFormat string `toml:"log_format"`
}

// StepDelayDuration parses StepDelay. An empty value is zero.
func (r RunConfig) StepDelayDuration() (time.Duration, error) {
	return parseDuration("run.step_delay", r.StepDelay)
}

// TimeoutDuration parses Timeout. An empty value is zero, meaning no limit.
func (r RunConfig) TimeoutDuration() (time.Duration, error) {
	return parseDuration("run.timeout", r.Timeout)
}

func parseDuration(field, v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration %s is negative", field, d)
	}
	return d, nil
}
