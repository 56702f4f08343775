package config

import "strconv"

// ConfigSource identifies where a configuration value came from.
type ConfigSource string

const (
	// SourceDefault indicates the value came from built-in defaults.
	SourceDefault ConfigSource = "default"
	// SourceFile indicates the value came from the stepwise.toml config file.
	SourceFile ConfigSource = "file"
	// SourceEnv indicates the value came from an environment variable.
	SourceEnv ConfigSource = "env"
	// SourceCLI indicates the value came from a CLI flag.
	SourceCLI ConfigSource = "cli"
)

// ResolvedConfig holds the fully-resolved configuration with source tracking.
type ResolvedConfig struct {
	Config  *Config
	Sources map[string]ConfigSource // key is dotted path, e.g., "run.step_delay"
	Path    string                  // path to the config file used (empty if none)
}

// CLIOverrides captures flag values that can override configuration.
// A nil field means "not set".
type CLIOverrides struct {
	ProjectName *string
	WizardsDir  *string
	StepDelay   *string
	Timeout     *string
	Plain       *bool
	LogFormat   *string
}

// EnvFunc is a function that looks up environment variables.
// Default implementation is os.LookupEnv. Injected for testability.
type EnvFunc func(key string) (string, bool)

// Resolve merges configuration from all sources in priority order:
// CLI flags > environment variables > config file > defaults.
func Resolve(defaults *Config, fileConfig *Config, envFn EnvFunc, overrides *CLIOverrides) *ResolvedConfig {
	rc := &ResolvedConfig{
		Config:  &Config{},
		Sources: make(map[string]ConfigSource),
	}
	if defaults == nil {
		defaults = &Config{}
	}
	if envFn == nil {
		envFn = func(string) (string, bool) { return "", false }
	}
	if overrides == nil {
		overrides = &CLIOverrides{}
	}

	resolveFromDefaults(rc, defaults)
	if fileConfig != nil {
		resolveFromFile(rc, fileConfig)
	}
	resolveFromEnv(rc, envFn)
	resolveFromCLI(rc, overrides)

	return rc
}

// --- Layer 1: Defaults ---

func resolveFromDefaults(rc *ResolvedConfig, d *Config) {
	p, r := &rc.Config.Project, &rc.Config.Run

	setString(&p.Name, d.Project.Name, "project.name", SourceDefault, rc.Sources)
	setString(&p.WizardsDir, d.Project.WizardsDir, "project.wizards_dir", SourceDefault, rc.Sources)
	p.Wizards = copyStrings(d.Project.Wizards)
	rc.Sources["project.wizards"] = SourceDefault

	setString(&r.StepDelay, d.Run.StepDelay, "run.step_delay", SourceDefault, rc.Sources)
	setString(&r.Timeout, d.Run.Timeout, "run.timeout", SourceDefault, rc.Sources)
	setString(&r.LogFormat, d.Run.LogFormat, "run.log_format", SourceDefault, rc.Sources)
	r.Plain = d.Run.Plain
	rc.Sources["run.plain"] = SourceDefault
}

// --- Layer 2: File ---

func resolveFromFile(rc *ResolvedConfig, f *Config) {
	p, r := &rc.Config.Project, &rc.Config.Run

	mergeString(&p.Name, f.Project.Name, "project.name", SourceFile, rc.Sources)
	mergeString(&p.WizardsDir, f.Project.WizardsDir, "project.wizards_dir", SourceFile, rc.Sources)
	if len(f.Project.Wizards) > 0 {
		p.Wizards = copyStrings(f.Project.Wizards)
		rc.Sources["project.wizards"] = SourceFile
	}

	mergeString(&r.StepDelay, f.Run.StepDelay, "run.step_delay", SourceFile, rc.Sources)
	mergeString(&r.Timeout, f.Run.Timeout, "run.timeout", SourceFile, rc.Sources)
	mergeString(&r.LogFormat, f.Run.LogFormat, "run.log_format", SourceFile, rc.Sources)
	// A false in the file cannot be told apart from an absent key, so only
	// true overrides.
	if f.Run.Plain {
		r.Plain = true
		rc.Sources["run.plain"] = SourceFile
	}
}

// --- Layer 3: Environment ---

// Environment variable mapping:
//
//	STEPWISE_PROJECT_NAME  -> project.name
//	STEPWISE_WIZARDS_DIR   -> project.wizards_dir
//	STEPWISE_STEP_DELAY    -> run.step_delay
//	STEPWISE_TIMEOUT       -> run.timeout
//	STEPWISE_PLAIN         -> run.plain
//	STEPWISE_LOG_FORMAT    -> run.log_format
func resolveFromEnv(rc *ResolvedConfig, envFn EnvFunc) {
	p, r := &rc.Config.Project, &rc.Config.Run

	envString(envFn, "STEPWISE_PROJECT_NAME", &p.Name, "project.name", rc.Sources)
	envString(envFn, "STEPWISE_WIZARDS_DIR", &p.WizardsDir, "project.wizards_dir", rc.Sources)
	envString(envFn, "STEPWISE_STEP_DELAY", &r.StepDelay, "run.step_delay", rc.Sources)
	envString(envFn, "STEPWISE_TIMEOUT", &r.Timeout, "run.timeout", rc.Sources)
	envString(envFn, "STEPWISE_LOG_FORMAT", &r.LogFormat, "run.log_format", rc.Sources)

	// Unparseable booleans are ignored rather than guessed.
	if val, ok := envFn("STEPWISE_PLAIN"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			r.Plain = b
			rc.Sources["run.plain"] = SourceEnv
		}
	}
}

// --- Layer 4: CLI overrides ---

func resolveFromCLI(rc *ResolvedConfig, o *CLIOverrides) {
	p, r := &rc.Config.Project, &rc.Config.Run

	cliString(o.ProjectName, &p.Name, "project.name", rc.Sources)
	cliString(o.WizardsDir, &p.WizardsDir, "project.wizards_dir", rc.Sources)
	cliString(o.StepDelay, &r.StepDelay, "run.step_delay", rc.Sources)
	cliString(o.Timeout, &r.Timeout, "run.timeout", rc.Sources)
	cliString(o.LogFormat, &r.LogFormat, "run.log_format", rc.Sources)
	if o.Plain != nil {
		r.Plain = *o.Plain
		rc.Sources["run.plain"] = SourceCLI
	}
}

// --- Helpers ---

// setString unconditionally sets the target to the given value and records the source.
func setString(target *string, value string, path string, source ConfigSource, sources map[string]ConfigSource) {
	*target = value
	sources[path] = source
}

// mergeString overwrites the target only if value is non-empty. An empty
// string in the file means "not set in file".
func mergeString(target *string, value string, path string, source ConfigSource, sources map[string]ConfigSource) {
	if value != "" {
		*target = value
		sources[path] = source
	}
}

func envString(envFn EnvFunc, key string, target *string, path string, sources map[string]ConfigSource) {
	if val, ok := envFn(key); ok {
		*target = val
		sources[path] = SourceEnv
	}
}

func cliString(value *string, target *string, path string, sources map[string]ConfigSource) {
	if value != nil {
		*target = *value
		sources[path] = SourceCLI
	}
}

func copyStrings(src []string) []string {
	if src == nil {
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}
